package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/commands/options"
	"tableflip.dev/daypilot/pkg/routine"
)

func addRoutine(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Show or change your daily routine.",
		Long:  base.Wrap80("The routine is sent with every assistant message so scheduling respects your working hours, meals and breaks."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	addRoutineGet(cmd)
	addRoutineSet(cmd)
	topLevel.AddCommand(cmd)
}

func addRoutineGet(parent *cobra.Command) {
	oo := &options.OutputOptions{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the routine settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return withSession(cmd.Context(), func(_ context.Context, s *session) error {
				settings := s.orch.Snapshot().Routine
				if oo.JSON {
					return options.Encode(stdout(cmd), options.FormatJSON, settings)
				}
				_, _ = fmt.Fprintln(stdout(cmd), routineTable(settings))
				return nil
			})
		},
	}
	options.AddOutputArg(cmd, oo)
	parent.AddCommand(cmd)
}

func addRoutineSet(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change routine settings.",
		Example: `
daypilot routine set wake_time=06:30 gym_time=07:00
daypilot routine set focus_block_duration=120
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				settings := s.orch.Snapshot().Routine
				for _, a := range args {
					key, value, ok := strings.Cut(a, "=")
					if !ok {
						return errors.Errorf("%q is not key=value", a)
					}
					if err := settings.Set(strings.TrimSpace(key), value); err != nil {
						return err
					}
				}
				if err := s.orch.UpdateRoutine(ctx, settings); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout(cmd), routineTable(settings))
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func routineTable(s routine.Settings) *uitable.Table {
	b := color.New(color.Bold).SprintFunc()
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(b("Setting"), b("Value"))
	tbl.AddRow("wake_time", s.WakeTime)
	tbl.AddRow("work_start", s.WorkStart)
	tbl.AddRow("lunch_time", s.LunchTime)
	tbl.AddRow("work_end", s.WorkEnd)
	tbl.AddRow("gym_time", s.GymTime)
	tbl.AddRow("dinner_time", s.DinnerTime)
	tbl.AddRow("sleep_time", s.SleepTime)
	tbl.AddRow("break_duration", fmt.Sprintf("%dm", s.BreakMinutes))
	tbl.AddRow("focus_block_duration", fmt.Sprintf("%dm", s.FocusBlockMinutes))
	return tbl
}
