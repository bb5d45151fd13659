package main

import (
	"github.com/brickster241/dircache/porcelain"
	"github.com/brickster241/dircache/utils"
)

// Entry point of the application.
func main() {
	opts := &porcelain.Options{}
	if err := porcelain.NewRootCommand(opts).Execute(); err != nil {
		utils.ErrorAndExit(err, opts.Verbose)
	}
}
