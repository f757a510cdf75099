package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(daypilot completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(daypilot completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

// eventCompletions offers today's event ids.
func eventCompletions(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var ids []string
	_ = withSession(ctx, func(ctx context.Context, s *session) error {
		if err := s.orch.Reload(ctx); err != nil {
			return err
		}
		for _, e := range s.orch.Snapshot().Events {
			ids = append(ids, fmt.Sprintf("%d\t%s %s", e.ID, e.Start.Local().Format("15:04"), e.Title))
		}
		return nil
	})
	return ids, cobra.ShellCompDirectiveNoFileComp
}
