package app

import (
	"fmt"
	"strings"

	"tableflip.dev/daypilot/pkg/gateway"
)

// FormatReply renders an assistant reply as chat text.
func FormatReply(r gateway.Reply) string {
	var b strings.Builder
	b.WriteString(r.Message())

	switch reply := r.(type) {
	case gateway.ScheduledEventsReply:
		for _, e := range reply.Events {
			line := e.Title
			if line == "" {
				line = fmt.Sprintf("event %d", e.EventID)
			}
			if !e.Start.IsZero() {
				line += ", " + e.Start.Format("Mon 2 Jan 15:04")
			}
			if e.DurationMinutes > 0 {
				line += fmt.Sprintf(" (%dm)", e.DurationMinutes)
			}
			bullet(&b, line)
		}
		if reply.StrategyNote != "" {
			b.WriteString("\n" + reply.StrategyNote)
		}

	case gateway.EventChangeReply:
		if reply.Freed != nil && reply.Freed.DurationMinutes > 0 {
			bullet(&b, fmt.Sprintf("Freed %d minutes", reply.Freed.DurationMinutes))
		}
		for _, rec := range reply.Recommendations {
			bullet(&b, rec)
		}

	case gateway.ScheduleReportReply:
		for _, day := range reply.Days {
			b.WriteString("\n" + day.Date)
			for _, e := range day.Entries {
				bullet(&b, fmt.Sprintf("%s-%s %s", e.Start, e.End, e.Title))
			}
		}
		for _, s := range reply.Insights {
			bullet(&b, s)
		}
		for _, s := range reply.Suggestions {
			bullet(&b, s)
		}

	case gateway.OptimizationReply:
		for _, s := range reply.Report.Suggestions {
			text := s.Title
			if s.Description != "" {
				text += ": " + s.Description
			}
			bullet(&b, text)
		}
		for _, a := range reply.Report.ActionItems {
			bullet(&b, a)
		}

	case gateway.FailureReply:
		return "Sorry, I couldn't do that. " + r.Message()

	case gateway.AmbiguousReply:
		return "I'm not sure what happened with that request. " + r.Message()
	}
	return b.String()
}

// FormatChatError renders a failed assistant call as chat text.
func FormatChatError(err error) string {
	return "Sorry, I couldn't reach the assistant: " + gateway.Message(err)
}

func bullet(b *strings.Builder, line string) {
	b.WriteString("\n• ")
	b.WriteString(line)
}
