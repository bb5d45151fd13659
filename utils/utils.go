package utils

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/types"
)

// RepoFlags returns the flags every command shares: where the repository
// lives, which directory staged paths are relative to, and verbosity.
func RepoFlags(repoDir, workTree *string, verbose *bool) *pflag.FlagSet {
	fls := pflag.NewFlagSet("repo", pflag.ContinueOnError)
	fls.StringVar(repoDir, "dir", constants.RepoDir, "Repository directory holding the index, objects and config.")
	fls.StringVar(workTree, "work-tree", ".", "Directory that staged paths are relative to.")
	fls.BoolVarP(verbose, "verbose", "v", false, "Output debug logs.")
	return fls
}

// ErrorAndExit prints err to stderr and exits 1. With stacks set, the
// stack recorded where the error was created is printed too.
func ErrorAndExit(err error, stacks bool) {
	if errString := strings.TrimSpace(err.Error()); errString != "" {
		fmt.Fprintf(os.Stderr, "%s\n", errString)
	}
	if stacks {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	}
	os.Exit(1)
}

// Sort based on keys
func SortedKeys(m map[string]types.StatusType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
