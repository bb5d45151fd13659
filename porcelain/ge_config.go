package porcelain

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/types"
)

func configCmd(opts *Options) *cobra.Command {
	config := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository options.",
		Long: "Get and set repository options. Options are stored as <section>.<key> pairs in the config file " +
			"of the repository directory. The known option is core.objectcache " +
			"(number of objects remembered as present per run). Objects are always written at best compression, " +
			"so core.compression cannot be set.",
	}

	get := &cobra.Command{
		Use:   "get <section.key>",
		Short: "Print the value of an option.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val, err := getConfig(opts.RepoDir, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), val)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <section.key> <value>",
		Short: "Set the value of an option.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(opts.RepoDir, args[0], args[1])
		},
	}

	config.AddCommand(get, set)
	return config
}

// readOnlyKeys cannot be changed with config set. Object ids hash the
// compressed bytes, so the compression level is not a setting.
var readOnlyKeys = map[string]struct{}{
	"core.compression": {},
}

func configPath(repoDir string) string {
	return filepath.Join(repoDir, constants.ConfigFile)
}

func splitKey(key string) (string, string, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok || section == "" || name == "" {
		return "", "", fmt.Errorf("invalid config key: %s", key)
	}
	return section, name, nil
}

// Get Value for a specific Config key.
func getConfig(repoDir, key string) (string, error) {
	cfg, err := ini.Load(configPath(repoDir))
	if err != nil {
		return "", errors.Wrap(err, "load config")
	}

	section, name, err := splitKey(key)
	if err != nil {
		return "", err
	}

	// An empty value is still a value
	if !cfg.Section(section).HasKey(name) {
		return "", fmt.Errorf("config key not found: %s", key)
	}
	return cfg.Section(section).Key(name).String(), nil
}

// Set Value for a specific Config key. Known keys are validated before the
// file is written.
func setConfig(repoDir, key, value string) error {
	cfgPath := configPath(repoDir)
	cfg, err := ini.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	if _, ok := readOnlyKeys[key]; ok {
		return fmt.Errorf("config key %s is read-only", key)
	}

	// Validate the result before saving
	cfg.Section(section).Key(name).SetValue(value)
	if _, err := readConfig(cfg); err != nil {
		return err
	}
	return errors.Wrap(cfg.SaveTo(cfgPath), "save config")
}

// loadConfig reads the repository settings. A missing config file yields
// the defaults.
func loadConfig(repoDir string) (types.RepoConfig, error) {
	cfg, err := ini.Load(configPath(repoDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.RepoConfig{ObjectCache: constants.DefaultObjectCache}, nil
		}
		return types.RepoConfig{}, errors.Wrap(err, "load config")
	}
	return readConfig(cfg)
}

func readConfig(cfg *ini.File) (types.RepoConfig, error) {
	core := cfg.Section("core")
	rc := types.RepoConfig{
		ObjectCache: core.Key("objectcache").MustInt(constants.DefaultObjectCache),
	}
	if rc.ObjectCache <= 0 {
		return types.RepoConfig{}, fmt.Errorf("core.objectcache must be positive, got %d", rc.ObjectCache)
	}
	return rc, nil
}
