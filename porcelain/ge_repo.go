package porcelain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/plumbing"
	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/logging"
	"github.com/brickster241/dircache/utils/types"
)

// Options are the global flags shared by every command.
type Options struct {
	RepoDir  string
	WorkTree string
	Verbose  bool

	// Logger is built from Verbose before a command runs.
	Logger *zap.Logger
}

// repo is an opened repository: its paths, settings and object store.
type repo struct {
	dir    string
	config types.RepoConfig
	store  *plumbing.FileStore
	logger *zap.Logger
}

// objectsDir returns the object database location for repoDir, honoring
// the SHA1_FILE_DIRECTORY override.
func objectsDir(repoDir string) string {
	if dir := os.Getenv(constants.ObjectDirEnv); dir != "" {
		return dir
	}
	return filepath.Join(repoDir, constants.ObjectsDir)
}

// openRepo opens the repository named by opts. It must have been created
// with init.
func openRepo(opts *Options) (*repo, error) {
	info, err := os.Stat(opts.RepoDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a dircache repository: %s (run 'dircache init')", opts.RepoDir)
	}

	cfg, err := loadConfig(opts.RepoDir)
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(opts.Logger)
	store, err := plumbing.NewFileStore(objectsDir(opts.RepoDir), cfg.ObjectCache, logger)
	if err != nil {
		return nil, err
	}
	return &repo{
		dir:    opts.RepoDir,
		config: cfg,
		store:  store,
		logger: logger,
	}, nil
}

func (r *repo) indexPath() string {
	return filepath.Join(r.dir, constants.IndexFile)
}

// loadIndex reads the committed index. A corrupt index is reported, never
// repaired.
func (r *repo) loadIndex() (*plumbing.Index, error) {
	idx, err := plumbing.LoadIndex(r.indexPath())
	if err != nil {
		return nil, errors.WithMessage(err, "cannot read the index")
	}
	return idx, nil
}
