package porcelain

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brickster241/dircache/plumbing"
	"github.com/brickster241/dircache/utils/fsys"
	"github.com/brickster241/dircache/utils/types"
)

func hashObjectCmd(opts *Options) *cobra.Command {
	var write bool
	hashObject := &cobra.Command{
		Use:   "hash-object [-w] <file>",
		Short: "Compute the object id of a file.",
		Long: "Computes the blob object id for the contents of the named file, which can be outside of the " +
			"work tree, and optionally writes the object into the object database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := fsys.MapFile(args[0])
			if err != nil {
				return errors.Wrap(err, "cannot read file")
			}
			defer m.Close()

			var sha [20]byte
			if write {
				r, err := openRepo(opts)
				if err != nil {
					return err
				}
				sha, err = plumbing.WriteObject(r.store, types.BlobObject, m.Bytes())
				if err != nil {
					return err
				}
			} else {
				sha, err = plumbing.HashObject(types.BlobObject, m.Bytes())
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(sha[:]))
			return nil
		},
	}
	hashObject.Flags().BoolVarP(&write, "write", "w", false, "Actually write the object into the object database.")
	return hashObject
}
