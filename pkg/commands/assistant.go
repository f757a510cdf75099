package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/commands/options"
	"tableflip.dev/daypilot/pkg/printers"
)

func addScheduleGoals(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	days := app.DefaultDaysAhead

	cmd := &cobra.Command{
		Use:     "schedule-goals",
		Short:   "Schedule work sessions for active goals.",
		Long:    base.Wrap80("Ask the assistant to place work sessions for every active goal over the next few days."),
		Example: "\ndaypilot schedule-goals --days 3\n",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				res, err := s.orch.BulkScheduleFromGoals(ctx, days)
				if err != nil {
					return err
				}
				if oo.JSON {
					return options.Encode(stdout(cmd), options.FormatJSON, res)
				}
				pp := printers.PrettyPrint{Out: stdout(cmd)}
				pp.Scheduled(res)
				return nil
			})
			return oo.HandleError(err)
		},
	}

	cmd.Flags().IntVar(&days, "days", days, "How many days ahead to schedule.")
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addOptimize(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Review a week and suggest improvements.",
		Long:  base.Wrap80("Ask the assistant to analyse the week containing --date (today by default). Nothing on the calendar is changed."),
		Example: `
daypilot optimize
daypilot optimize --date 2026-3-9 -o yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			week, err := on.GetOn()
			if err != nil {
				return err
			}
			format, err := oo.Resolved()
			if err != nil {
				return err
			}
			err = withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				report, err := s.orch.OptimizeWeek(ctx, week)
				if err != nil {
					return err
				}
				if format != options.FormatTable {
					return options.Encode(stdout(cmd), format, report)
				}
				pp := printers.PrettyPrint{Out: stdout(cmd)}
				pp.Optimization(report)
				return nil
			})
			return oo.HandleError(err)
		},
	}

	cmd.Flags().StringVar(&on.OnString, "week", "", "Any day of the week to review; alias of --date.")
	options.AddOnArgs(cmd, on)
	options.AddFormatArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addChat(topLevel *cobra.Command) {
	history := 0

	cmd := &cobra.Command{
		Use:   "chat <message...>",
		Short: "Talk to the scheduling assistant.",
		Long: base.Wrap80("Send one message to the scheduling assistant. It can answer questions about your " +
			"calendar or change it, for example by moving, deleting or scheduling events."),
		Example: `
daypilot chat "What's my schedule today?"
daypilot chat move my 3pm meeting to tomorrow morning
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				pp := printers.PrettyPrint{Out: stdout(cmd)}
				if history > 0 {
					if err := s.orch.LoadChatHistory(ctx, history); err != nil {
						s.log.Warn("could not load chat history", "err", err)
					}
					pp.Chat(s.orch.Chat().Messages())
				}
				ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				defer cancel()
				before := s.orch.Chat().Len()
				_, err := s.orch.AssistantChat(ctx, strings.Join(args, " "))
				for _, m := range s.orch.Chat().Messages()[before:] {
					if m.Role == calendar.RoleAssistant {
						pp.Chat([]calendar.ChatMessage{m})
					}
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "Show this many earlier messages first.")
	topLevel.AddCommand(cmd)
}
