package porcelain

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brickster241/dircache/plumbing"
)

func snapshotCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Write a tree object from the current index.",
		Long: "Creates a flat tree object holding every index entry, in index order, and prints its hash. " +
			"Fails without writing anything if the index is empty or a staged object is missing.",
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

			builder := &plumbing.TreeBuilder{Store: r.store, Logger: r.logger}
			treeSHA, err := builder.Build(idx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(treeSHA[:]))
			return nil
		},
	}
}
