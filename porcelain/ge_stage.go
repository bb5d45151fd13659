package porcelain

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/plumbing"
)

// errRejected marks a stage run that committed the index but skipped some
// paths.
var errRejected = errors.New("some paths were rejected")

func stageCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stage <path>...",
		Short: "Record working tree files in the index.",
		Long: "Stores each file as a blob object and records it in the index together with its stat data. " +
			"A path that no longer exists is removed from the index. Paths are relative to the work tree; " +
			"a path with an empty segment or a segment starting with '.' is rejected with a warning and the " +
			"remaining paths are still staged. The index is written once, after every path is processed, and " +
			"only if no path failed fatally.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(opts)
			if err != nil {
				return err
			}
			return stagePaths(r, opts.WorkTree, args)
		},
	}
}

// stagePaths stages every path in order and commits the index once.
func stagePaths(r *repo, workTree string, paths []string) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}

	stager := &plumbing.Stager{
		Index:  idx,
		Store:  r.store,
		Tree:   plumbing.OSWorkingTree{Root: workTree},
		Logger: r.logger,
	}

	rejected := 0
	for _, arg := range paths {
		path := filepath.ToSlash(arg)
		if err := stager.Stage(path); err != nil {
			if errors.Is(err, plumbing.ErrInvalidPath) {
				r.logger.Warn("ignoring path", zap.String("path", path), zap.Error(err))
				rejected++
				continue
			}
			return errors.WithMessagef(err, "unable to stage %s", path)
		}
	}

	persister := plumbing.NewIndexPersister(r.dir, r.logger)
	if err := persister.Persist(idx); err != nil {
		if rbErr := persister.Rollback(); rbErr != nil {
			r.logger.Error("could not remove index lock", zap.Error(rbErr))
		}
		return errors.WithMessage(err, "unable to write new index")
	}

	if rejected > 0 {
		return errors.WithMessage(errRejected, fmt.Sprintf("%d of %d", rejected, len(paths)))
	}
	return nil
}
