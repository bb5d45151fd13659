package porcelain

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/utils/constants"
)

func initCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty repository or reinitialize an existing one.",
		Long: "Creates the repository directory with an object database (fanned out into 256 subdirectories " +
			"named 00 to ff) and a default config file. Running it again is safe and keeps existing objects, " +
			"index and config. The object database lives in $" + constants.ObjectDirEnv + " when that is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reinitialize := false
			if _, err := os.Stat(opts.RepoDir); err == nil {
				reinitialize = true
			}

			if err := createRepoDirs(opts.RepoDir, objectsDir(opts.RepoDir)); err != nil {
				return errors.WithMessage(err, "cannot initialize repository")
			}

			absRepoPath, err := filepath.Abs(opts.RepoDir)
			if err != nil {
				absRepoPath = opts.RepoDir
			}
			if reinitialize {
				fmt.Fprintf(cmd.OutOrStdout(), "Reinitialized existing dircache repository in %s\n", absRepoPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty dircache repository in %s\n", absRepoPath)
			}
			opts.Logger.Debug("object database ready", zap.String("objects", objectsDir(opts.RepoDir)))
			return nil
		},
	}
}

// createRepoDirs lays out the repository. An existing config is kept.
func createRepoDirs(repoDir, objDir string) error {
	if err := os.MkdirAll(repoDir, constants.DefaultDirPerm); err != nil {
		return errors.WithStack(err)
	}
	for i := 0; i < 256; i++ {
		if err := os.MkdirAll(filepath.Join(objDir, fmt.Sprintf("%02x", i)), constants.DefaultDirPerm); err != nil {
			return errors.WithStack(err)
		}
	}

	cfgPath := configPath(repoDir)
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(cfgPath, []byte(constants.Config), constants.DefaultFilePerm); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
