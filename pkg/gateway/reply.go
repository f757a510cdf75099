package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Reply is the classified response of the free-text assistant. The backend
// sends no explicit tag, so the variant is decided by which fields are
// present.
type Reply interface {
	// Message is the text to show the user.
	Message() string
	// Mutates reports whether the calendar changed and must be reloaded.
	Mutates() bool

	isReply()
}

// ScheduledEventsReply means new events were placed on the calendar.
type ScheduledEventsReply struct {
	Text         string
	Events       []ScheduledEvent
	StrategyNote string
}

// BulkChangeReply means many events were modified or deleted at once.
type BulkChangeReply struct {
	Text         string
	Modified     int
	Deleted      int
	FreedMinutes int
}

// ChangeKind names what happened to a single event.
type ChangeKind string

const (
	ChangeEdited      ChangeKind = "edited"
	ChangeRescheduled ChangeKind = "rescheduled"
	ChangeDeleted     ChangeKind = "deleted"
)

// FreedSlot is the time released by a deletion.
type FreedSlot struct {
	Start           string `json:"start_time"`
	End             string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

// EventChangeReply means one event was edited, moved or deleted.
type EventChangeReply struct {
	Text            string
	Kind            ChangeKind
	EventID         int64
	Changes         map[string]any
	Freed           *FreedSlot
	Recommendations []string
}

// ReportEntry is one event in a schedule summary. Times are HH:MM.
type ReportEntry struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Start           string `json:"start_time"`
	End             string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Type            string `json:"event_type"`
	Priority        string `json:"priority"`
	GoalRelated     bool   `json:"goal_related"`
}

// ReportDay groups summary entries by date.
type ReportDay struct {
	Date    string
	Entries []ReportEntry
}

// ScheduleStats summarises a schedule.
type ScheduleStats struct {
	TotalEvents       int     `json:"total_events"`
	GoalRelatedEvents int     `json:"goal_related_events"`
	GoalPercentage    float64 `json:"goal_percentage"`
	TotalHours        float64 `json:"total_hours"`
}

// ScheduleReportReply is a read-only look at the calendar.
type ScheduleReportReply struct {
	Text        string
	Days        []ReportDay
	Stats       ScheduleStats
	Insights    []string
	Suggestions []string
}

// OptimizationReply is a read-only optimization analysis.
type OptimizationReply struct {
	Text   string
	Report OptimizationReport
}

// FailureReply is a success:false answer. Text is the user-facing message
// and Detail the technical one, when given.
type FailureReply struct {
	Text   string
	Detail string
}

// AmbiguousReply matched no known shape.
type AmbiguousReply struct {
	Text string
	Raw  json.RawMessage
}

func (ScheduledEventsReply) isReply() {}
func (BulkChangeReply) isReply()      {}
func (EventChangeReply) isReply()     {}
func (ScheduleReportReply) isReply()  {}
func (OptimizationReply) isReply()    {}
func (FailureReply) isReply()         {}
func (AmbiguousReply) isReply()       {}

func (r ScheduledEventsReply) Mutates() bool { return true }
func (r BulkChangeReply) Mutates() bool      { return true }
func (r EventChangeReply) Mutates() bool     { return true }
func (r ScheduleReportReply) Mutates() bool  { return false }
func (r OptimizationReply) Mutates() bool    { return false }
func (r FailureReply) Mutates() bool         { return false }
func (r AmbiguousReply) Mutates() bool       { return false }

func (r ScheduledEventsReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	return fmt.Sprintf("Scheduled %d %s.", len(r.Events), plural(len(r.Events), "event", "events"))
}

func (r BulkChangeReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	if r.Deleted > 0 {
		return fmt.Sprintf("Deleted %d %s.", r.Deleted, plural(r.Deleted, "event", "events"))
	}
	return fmt.Sprintf("Updated %d %s.", r.Modified, plural(r.Modified, "event", "events"))
}

func (r EventChangeReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	return fmt.Sprintf("Event %s.", r.Kind)
}

func (r ScheduleReportReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	return fmt.Sprintf("You have %d %s scheduled.", r.Stats.TotalEvents, plural(r.Stats.TotalEvents, "event", "events"))
}

func (r OptimizationReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	return fmt.Sprintf("Found %d optimization %s.", len(r.Report.Suggestions), plural(len(r.Report.Suggestions), "opportunity", "opportunities"))
}

func (r FailureReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	if r.Detail != "" {
		return r.Detail
	}
	return defaultMessage(KindBackend)
}

func (r AmbiguousReply) Message() string {
	if r.Text != "" {
		return r.Text
	}
	return defaultMessage(KindAmbiguous)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Classify decides which variant raw is. It never fails: anything that is
// not a recognisable object is an AmbiguousReply.
func Classify(raw []byte) Reply {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return AmbiguousReply{Raw: json.RawMessage(raw)}
	}
	has := func(key string) bool {
		v, ok := fields[key]
		return ok && !isNull(v)
	}
	text := stringField(fields, "message")

	if v, ok := fields["success"]; ok {
		var success bool
		if json.Unmarshal(v, &success) == nil && !success {
			return FailureReply{Text: text, Detail: stringField(fields, "error")}
		}
	}

	switch {
	case has("scheduled_events"):
		var events []ScheduledEvent
		if err := json.Unmarshal(fields["scheduled_events"], &events); err != nil {
			return AmbiguousReply{Text: text, Raw: raw}
		}
		return ScheduledEventsReply{Text: text, Events: events, StrategyNote: stringField(fields, "strategy_note")}

	case has("modified_events") || has("events_deleted"):
		return BulkChangeReply{
			Text:         text,
			Modified:     countField(fields, "modified_events"),
			Deleted:      countField(fields, "events_deleted"),
			FreedMinutes: countField(fields, "total_time_freed_minutes"),
		}

	case has("event_id") && (has("changes") || has("new_time")):
		r := EventChangeReply{Text: text, Kind: ChangeEdited}
		_ = json.Unmarshal(fields["event_id"], &r.EventID)
		if has("changes") {
			_ = json.Unmarshal(fields["changes"], &r.Changes)
		} else {
			r.Kind = ChangeRescheduled
			var moved map[string]any
			if json.Unmarshal(fields["new_time"], &moved) == nil {
				r.Changes = moved
			} else {
				r.Changes = map[string]any{"start_time": stringField(fields, "new_time")}
			}
		}
		return r

	case has("freed_time"):
		r := EventChangeReply{Text: text, Kind: ChangeDeleted}
		var slot FreedSlot
		if json.Unmarshal(fields["freed_time"], &slot) == nil && (slot.Start != "" || slot.DurationMinutes > 0) {
			r.Freed = &slot
		}
		r.Recommendations = flexStrings(fields["recommendations"])
		return r

	case has("event_id") && has("scheduled_time"):
		var single ScheduledEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			return AmbiguousReply{Text: text, Raw: raw}
		}
		return ScheduledEventsReply{Text: text, Events: []ScheduledEvent{single}}

	case has("optimizations") || has("current_analysis"):
		var report OptimizationReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return AmbiguousReply{Text: text, Raw: raw}
		}
		return OptimizationReply{Text: text, Report: report}

	case has("events_by_date") || isArray(fields["events"]) || has("statistics"):
		r := ScheduleReportReply{
			Text:        text,
			Insights:    flexStrings(fields["insights"]),
			Suggestions: flexStrings(fields["suggestions"]),
		}
		if has("statistics") {
			_ = json.Unmarshal(fields["statistics"], &r.Stats)
		}
		if has("events_by_date") {
			var byDate map[string][]ReportEntry
			if json.Unmarshal(fields["events_by_date"], &byDate) == nil {
				for date, entries := range byDate {
					r.Days = append(r.Days, ReportDay{Date: date, Entries: entries})
				}
				sort.Slice(r.Days, func(i, j int) bool { return r.Days[i].Date < r.Days[j].Date })
			}
		}
		if r.Stats.TotalEvents == 0 {
			for _, d := range r.Days {
				r.Stats.TotalEvents += len(d.Entries)
			}
		}
		return r
	}

	return AmbiguousReply{Text: text, Raw: raw}
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

func isArray(v json.RawMessage) bool {
	t := strings.TrimSpace(string(v))
	return strings.HasPrefix(t, "[")
}

func stringField(fields map[string]json.RawMessage, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) != nil {
		return ""
	}
	return s
}

// countField reads a count that the backend sometimes sends as a number and
// sometimes as the list itself.
func countField(fields map[string]json.RawMessage, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	var n int
	if json.Unmarshal(v, &n) == nil {
		return n
	}
	var list []json.RawMessage
	if json.Unmarshal(v, &list) == nil {
		return len(list)
	}
	return 0
}
