package porcelain

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brickster241/dircache/plumbing"
	"github.com/brickster241/dircache/utils/types"
)

func catFileCmd(opts *Options) *cobra.Command {
	var pp, size, ty bool
	catFile := &cobra.Command{
		Use:   "cat-file (-p | -t | -s) <object>",
		Short: "Show type, size or content of an object.",
		Long:  "Output the contents, size or type of an object named by its 40 digit hex id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sha, err := plumbing.ParseHash(args[0])
			if err != nil {
				return err
			}
			r, err := openRepo(opts)
			if err != nil {
				return err
			}
			objType, content, err := r.store.Read(sha)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case size:
				fmt.Fprintln(out, len(content))
			case ty:
				fmt.Fprintln(out, objType)
			case objType == types.TreeObject:
				entries, err := plumbing.ParseTree(content)
				if err != nil {
					return err
				}
				printTreeEntries(out, entries)
			default:
				_, err = out.Write(content)
				return err
			}
			return nil
		},
	}
	catFile.Flags().BoolVarP(&pp, "pretty", "p", false, "Pretty-print the contents of <object> based on its type.")
	catFile.Flags().BoolVarP(&size, "size", "s", false, "Instead of the content, show the object size.")
	catFile.Flags().BoolVarP(&ty, "type", "t", false, "Instead of the content, show the object type.")
	catFile.MarkFlagsMutuallyExclusive("pretty", "size", "type")
	catFile.MarkFlagsOneRequired("pretty", "size", "type")
	return catFile
}

func printTreeEntries(out io.Writer, entries []types.TreeEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%06o %s %x\t%s\n", e.Mode, e.Type, e.SHA, e.Name)
	}
}
