package porcelain

import (
	"fmt"

	"github.com/spf13/cobra"
)

func lsFilesCmd(opts *Options) *cobra.Command {
	var stage bool
	lsFiles := &cobra.Command{
		Use:   "ls-files [-s]",
		Short: "Show the paths in the index.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(opts)
			if err != nil {
				return err
			}
			idx, err := r.loadIndex()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range idx.Entries() {
				if stage {
					fmt.Fprintf(out, "%06o %x\t%s\n", e.Mode, e.SHA1, e.Filename)
					continue
				}
				fmt.Fprintln(out, e.Filename)
			}
			return nil
		},
	}
	lsFiles.Flags().BoolVarP(&stage, "stage", "s", false, "Show mode and object id of each entry.")
	return lsFiles
}
