package porcelain

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brickster241/dircache/plumbing"
	"github.com/brickster241/dircache/utils"
	"github.com/brickster241/dircache/utils/types"
)

func statusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged paths that changed in the working tree.",
		Long: "Compares the stat data recorded for every index entry with the working tree file and reports " +
			"entries whose file was modified or deleted since it was staged. Untracked files are not listed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(opts)
			if err != nil {
				return err
			}
			idx, err := r.loadIndex()
			if err != nil {
				return err
			}

			changes, err := indexStatus(idx, plumbing.OSWorkingTree{Root: opts.WorkTree})
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), changes)
			return nil
		},
	}
}

// indexStatus returns the entries whose working tree file no longer matches
// the recorded stat data. Unchanged entries are left out.
func indexStatus(idx *plumbing.Index, tree plumbing.WorkingTree) (map[string]types.StatusType, error) {
	changes := map[string]types.StatusType{}
	for _, e := range idx.Entries() {
		md, err := tree.Stat(e.Filename)
		if err != nil {
			if errors.Is(err, plumbing.ErrNotFound) {
				changes[e.Filename] = types.DeletedStatus
				continue
			}
			return nil, err
		}
		if !e.MatchesStat(md) {
			changes[e.Filename] = types.ModifiedStatus
		}
	}
	return changes, nil
}

func printStatus(out io.Writer, changes map[string]types.StatusType) {
	if len(changes) == 0 {
		fmt.Fprintln(out, "nothing changed, index matches the working tree")
		return
	}
	fmt.Fprintln(out, "Changes not staged:")
	for _, path := range utils.SortedKeys(changes) {
		fmt.Fprintf(out, "\t%-10s %s\n", changes[path].String()+":", path)
	}
}
