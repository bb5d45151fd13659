package porcelain

import (
	"github.com/spf13/cobra"

	"github.com/brickster241/dircache/plumbing"
)

func lsTreeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls-tree <tree>",
		Short: "List the contents of a tree object.",
		Long:  "Lists the entries of a tree object in stored order. Trees are flat, so every entry is a full path.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeSHA, err := plumbing.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo(opts)
			if err != nil {
				return err
			}
			entries, err := plumbing.ReadTree(r.store, treeSHA)
			if err != nil {
				return err
			}
			printTreeEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}
