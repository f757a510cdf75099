package printers

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/timeutil"
)

// Scheduled prints what the assistant put on the calendar.
func (pp *PrettyPrint) Scheduled(res gateway.ScheduleResult) {
	pp.TitleWithCount("Scheduled", len(res.Events), "event")
	if res.Message != "" {
		pp.Wrapped(res.Message)
	}
	if len(res.Events) == 0 {
		pp.none()
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range res.Events {
		when := e.Start.Local().Format("Mon Jan 2 15:04")
		if e.Start.IsZero() {
			when = "-"
		}
		dur := ""
		if e.DurationMinutes > 0 {
			dur = timeutil.FormatMinutes(e.DurationMinutes)
		} else if !e.End.IsZero() {
			dur = timeutil.FormatMinutes(int(e.End.Sub(e.Start) / time.Minute))
		}
		tbl.AddRow(when, dur, e.Title, e.GoalTitle)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	if res.StrategyNote != "" {
		pp.NewLine()
		pp.Wrapped(res.StrategyNote)
	}
	pp.NewLine()
}

// Optimization prints a weekly optimization report.
func (pp *PrettyPrint) Optimization(r gateway.OptimizationReport) {
	pp.Title("Week of " + r.WeekStart)
	a := r.Analysis
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Scheduled", fmt.Sprintf("%.1fh", a.TotalScheduledHours))
	tbl.AddRow("Goal work", fmt.Sprintf("%.1fh (%.0f%%)", a.GoalRelatedHours, a.GoalPercentage))
	if r.ProductivityScore != nil {
		tbl.AddRow("Productivity", fmt.Sprintf("%.0f", *r.ProductivityScore))
	}
	if a.ImprovementPotential != "" {
		tbl.AddRow("Potential", a.ImprovementPotential)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()

	if r.MainInsight != "" {
		pp.Wrapped(r.MainInsight)
		pp.NewLine()
	}
	if len(r.Suggestions) > 0 {
		pp.Title("Suggestions")
		items := make([]string, 0, len(r.Suggestions))
		for _, s := range r.Suggestions {
			text := s.Title
			if s.Description != "" {
				text += ": " + s.Description
			}
			if s.Impact != "" {
				text += color.New(color.Faint).Sprintf(" (%s)", s.Impact)
			}
			items = append(items, text)
		}
		pp.Bullets(items)
		pp.NewLine()
	}
	if len(r.ActionItems) > 0 {
		pp.Title("Action items")
		pp.Bullets(r.ActionItems)
		pp.NewLine()
	}
	for _, s := range []string{r.EstimatedImprovement, r.GoalProgressImpact} {
		if s != "" {
			pp.Wrapped(s)
		}
	}
}

// Report prints a summary of the loaded day.
func (pp *PrettyPrint) Report(r app.DayReport) {
	pp.Title(r.Date.Format("Monday, January 2, 2006"))
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, sec := range r.Sections {
		tbl.AddRow(Type(sec.Type), len(sec.Events), timeutil.FormatMinutes(sec.Minutes))
	}
	tbl.AddRow(color.New(color.Bold).Sprint("total"), r.Total, timeutil.FormatMinutes(r.Minutes))
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = fmt.Fprintf(pp.out(), "goal time %s  %s   synced %d/%d\n", timeutil.FormatMinutes(r.GoalMinutes), Progress(r.GoalPercent(), 10), r.Synced, r.Total)
	pp.NewLine()
}

// Chat prints conversation messages.
func (pp *PrettyPrint) Chat(msgs []calendar.ChatMessage) {
	you := color.New(color.Bold, color.FgCyan)
	bot := color.New(color.Bold, color.FgGreen)
	for _, m := range msgs {
		if m.Role == calendar.RoleUser {
			_, _ = you.Fprint(pp.out(), "you  ")
		} else {
			_, _ = bot.Fprint(pp.out(), "pilot ")
		}
		pp.Wrapped(m.Content)
	}
}

