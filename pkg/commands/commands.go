package commands

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/printers"
)

var (
	verbose bool
	noColor bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "daypilot",
		Short: base.Wrap80("Plan your day with an AI scheduling assistant on the command line."),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || !printers.Interactive(os.Stdout) {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr.")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addEvents(topLevel)
	addGoals(topLevel)
	addCreate(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addSync(topLevel)
	addConnect(topLevel)
	addDisconnect(topLevel)
	addScheduleGoals(topLevel)
	addOptimize(topLevel)
	addChat(topLevel)
	addRoutine(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}

// stdout prefers the colorable writer unless cobra's output was redirected.
func stdout(cmd *cobra.Command) io.Writer {
	if w := cmd.OutOrStdout(); w != os.Stdout {
		return w
	}
	return color.Output
}
