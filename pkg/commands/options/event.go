package options

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/timeutil"
)

// EventOptions holds the fields of an event being created or edited.
type EventOptions struct {
	Title       string
	Description string
	Duration    int
	Type        string
	Priority    string
	Goal        int64
	Start       string
	End         string
	Suggested   string
}

func AddCreateArgs(cmd *cobra.Command, o *EventOptions) {
	cmd.Flags().StringVarP(&o.Title, "title", "t", "", "Event title.")
	cmd.Flags().StringVar(&o.Description, "description", "", "Event description.")
	o.Duration = calendar.DefaultDurationMinutes
	cmd.Flags().VarP(timeutil.MinutesFlag{Target: &o.Duration}, "duration", "d", "Duration, example: 90, 45m or 1h30m.")
	cmd.Flags().StringVar(&o.Type, "type", "", "Event type, one of "+types()+".")
	cmd.Flags().StringVar(&o.Priority, "priority", "", "Priority: low, medium, high or urgent.")
	cmd.Flags().Int64Var(&o.Goal, "goal", 0, "Goal id the event works towards.")
	cmd.Flags().StringVar(&o.Suggested, "at", "", `Preferred start, example: --at="2026-03-02 14:00".`)
	_ = cmd.RegisterFlagCompletionFunc("type", typeCompletions)
}

func AddEditArgs(cmd *cobra.Command, o *EventOptions) {
	cmd.Flags().StringVarP(&o.Title, "title", "t", "", "New title.")
	cmd.Flags().StringVar(&o.Description, "description", "", "New description.")
	cmd.Flags().StringVar(&o.Start, "start", "", `New start, example: --start="2026-03-02 14:00".`)
	cmd.Flags().StringVar(&o.End, "end", "", "New end.")
	cmd.Flags().StringVar(&o.Type, "type", "", "New event type.")
	cmd.Flags().StringVar(&o.Priority, "priority", "", "New priority.")
	_ = cmd.RegisterFlagCompletionFunc("type", typeCompletions)
}

func types() string {
	names := make([]string, 0, len(calendar.AllEventTypes()))
	for _, t := range calendar.AllEventTypes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func typeCompletions(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return strings.Split(types(), ", "), cobra.ShellCompDirectiveNoFileComp
}

// Draft builds a creation request.
func (o *EventOptions) Draft() (calendar.Draft, error) {
	typ, err := calendar.ParseEventType(o.Type)
	if err != nil {
		return calendar.Draft{}, err
	}
	pri, err := calendar.ParsePriority(o.Priority)
	if err != nil {
		return calendar.Draft{}, err
	}
	d := calendar.Draft{
		Title:           o.Title,
		Description:     o.Description,
		DurationMinutes: o.Duration,
		Type:            typ,
		Priority:        pri,
	}
	if o.Goal > 0 {
		goal := o.Goal
		d.GoalID = &goal
	}
	if o.Suggested != "" {
		t, err := calendar.ParseTime(o.Suggested)
		if err != nil {
			return calendar.Draft{}, errors.Wrap(err, "--at")
		}
		ts := calendar.At(t)
		d.SuggestedTime = &ts
	}
	d = d.Normalize()
	return d, d.Validate()
}

// Patch builds an edit from the flags that were set on cmd.
func (o *EventOptions) Patch(cmd *cobra.Command) (calendar.Patch, error) {
	var p calendar.Patch
	changed := cmd.Flags().Changed
	if changed("title") {
		p.Title = &o.Title
	}
	if changed("description") {
		p.Description = &o.Description
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{{"start", o.Start, &p.Start}, {"end", o.End, &p.End}} {
		if !changed(f.name) {
			continue
		}
		t, err := calendar.ParseTime(f.raw)
		if err != nil {
			return p, errors.Wrapf(err, "--%s", f.name)
		}
		*f.dst = &t
	}
	if changed("type") {
		typ, err := calendar.ParseEventType(o.Type)
		if err != nil {
			return p, err
		}
		p.Type = &typ
	}
	if changed("priority") {
		pri, err := calendar.ParsePriority(o.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pri
	}
	return p, nil
}
