package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/commands/options"
	"tableflip.dev/daypilot/pkg/printers"
)

func addCreate(topLevel *cobra.Command) {
	eo := &options.EventOptions{}
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:   "create [title...]",
		Short: "Ask the assistant to schedule a new event.",
		Long: base.Wrap80("Ask the assistant to find time for a new event. " +
			"It may split a long event into several sessions; all of them are printed."),
		Example: `
daypilot create --title "Write report" --duration 90 --type deep_work
daypilot create learn the chord changes --goal 3 --priority high
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if eo.Title == "" {
				eo.Title = strings.Join(args, " ")
			}
			d, err := eo.Draft()
			if err != nil {
				return err
			}
			err = withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				res, err := s.orch.Create(ctx, d)
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

	options.AddCreateArgs(cmd, eo)
	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	eo := &options.EventOptions{}
	on := &options.OnOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an event.",
		Long:  base.Wrap80("Change the fields of an event. Only the flags given are changed. The event must be on --date, today by default."),
		Example: `
daypilot edit 42 --title "Standup (moved)" --start "2026-03-02 10:00" --end "2026-03-02 10:15"
daypilot edit 7 --date tomorrow --priority urgent
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: eventCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			id, err := options.ParseID(args[0])
			if err != nil {
				return err
			}
			p, err := eo.Patch(cmd)
			if err != nil {
				return err
			}
			day, err := on.GetOn()
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.orch.Load(ctx, day); err != nil {
					return err
				}
				updated, err := s.orch.Edit(ctx, id, p)
				if errors.Is(err, app.ErrNotLoaded) {
					return fmt.Errorf("event %d is not on %s, pass --date", id, day.Format(calendar.DateLayout))
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout(cmd), "%s %s\n", color.GreenString("updated"), updated)
				return nil
			})
		},
	}

	options.AddEditArgs(cmd, eo)
	options.AddOnArgs(cmd, on)
	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:               "delete <id>...",
		Aliases:           []string{"rm"},
		Short:             "Delete events.",
		Example:           "\ndaypilot delete 42\n",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: eventCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := options.ParseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				w := stdout(cmd)
				for _, id := range ids {
					res, err := s.orch.Remove(ctx, id)
					if err != nil {
						return err
					}
					line := fmt.Sprintf("%s %d", color.RedString("deleted"), id)
					switch {
					case res.ProviderError != "":
						line += color.YellowString(" (provider copy kept: %s)", res.ProviderError)
					case res.ProviderDeleted:
						line += " (also removed from the provider calendar)"
					}
					_, _ = fmt.Fprintln(w, line)
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
