package porcelain

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/brickster241/dircache/utils"
	"github.com/brickster241/dircache/utils/logging"
)

// Cmds returns every dircache command bound to opts.
func Cmds(opts *Options) []*cobra.Command {
	return []*cobra.Command{
		initCmd(opts),
		stageCmd(opts),
		snapshotCmd(opts),
		hashObjectCmd(opts),
		catFileCmd(opts),
		lsTreeCmd(opts),
		lsFilesCmd(opts),
		statusCmd(opts),
		configCmd(opts),
	}
}

// NewRootCommand builds the dircache command tree. Diagnostics are logged
// to the command's error stream; results go to its output stream.
func NewRootCommand(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dircache",
		Short: "Stage files into a content-addressed object store and snapshot them as trees.",
		Long: `Stage working tree files into an index backed by a content-addressed object store,
and snapshot the index into tree objects.

Environment variables:
  SHA1_FILE_DIRECTORY=<dir>, the object database to use instead of <repo>/objects.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zapcore.InfoLevel
			if opts.Verbose {
				level = zapcore.DebugLevel
			}
			opts.Logger = logging.NewWithSink(zapcore.AddSync(cmd.ErrOrStderr()), level)
		},
	}
	rootCmd.PersistentFlags().AddFlagSet(utils.RepoFlags(&opts.RepoDir, &opts.WorkTree, &opts.Verbose))

	for _, cmd := range Cmds(opts) {
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}
