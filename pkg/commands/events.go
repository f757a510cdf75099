package commands

import (
	"context"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/commands/options"
	"tableflip.dev/daypilot/pkg/export"
	"tableflip.dev/daypilot/pkg/printers"
)

func addEvents(topLevel *cobra.Command) {
	on := &options.OnOptions{}
	oo := &options.OutputOptions{}
	io := &options.IDOptions{}
	report := false

	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"day", "ls"},
		Short:   "List the events of a day.",
		Long:    base.Wrap80("List the events scheduled on one day, today unless --date is given. --ics writes the day as an iCalendar file."),
		Example: `
daypilot events
daypilot events --date tomorrow --json
daypilot events --date 2026-3-2 --ics > day.ics
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			day, err := on.GetOn()
			if err != nil {
				return err
			}
			format, err := oo.Resolved()
			if err != nil {
				return err
			}
			err = withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.orch.Load(ctx, day); err != nil {
					return err
				}
				snap := s.orch.Snapshot()
				w := stdout(cmd)
				switch format {
				case options.FormatICS:
					return export.ICS(snap.Events, w)
				case options.FormatJSON:
					return options.Encode(w, format, snap.Events)
				}
				pp := printers.PrettyPrint{ShowID: io.ShowID, Out: w}
				pp.Day(day, snap.Events)
				if report {
					pp.Report(app.Report(snap))
				}
				return nil
			})
			return oo.HandleError(err)
		},
	}

	options.AddOnArgs(cmd, on)
	options.AddOutputArg(cmd, oo)
	options.AddICSArg(cmd, oo)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&report, "report", false, "Also print a time summary by event type.")

	topLevel.AddCommand(cmd)
}

func addGoals(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	io := &options.IDOptions{}
	active := false

	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List goals.",
		Example: `
daypilot goals
daypilot goals --active --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.orch.Reload(ctx); err != nil {
					return err
				}
				goals := s.orch.Snapshot().Goals
				if active {
					kept := goals[:0]
					for _, g := range goals {
						if g.Active() {
							kept = append(kept, g)
						}
					}
					goals = kept
				}
				if oo.JSON {
					return options.Encode(stdout(cmd), options.FormatJSON, goals)
				}
				pp := printers.PrettyPrint{ShowID: io.ShowID, Out: stdout(cmd)}
				pp.Goals(goals)
				return nil
			})
			return oo.HandleError(err)
		},
	}

	options.AddOutputArg(cmd, oo)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&active, "active", false, "Only show active goals.")

	topLevel.AddCommand(cmd)
}
