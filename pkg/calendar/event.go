package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event is a scheduled occurrence on the user's calendar. IDs are assigned
// by the backend.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       Timestamp `json:"start_time"`
	End         Timestamp `json:"end_time"`
	Type        EventType `json:"event_type,omitempty"`
	Priority    Priority  `json:"priority,omitempty"`
	GoalID      *int64    `json:"goal_id,omitempty"`

	// Synced is set when the event is mirrored with the external provider.
	Synced     bool   `json:"is_synced,omitempty"`
	SyncStatus string `json:"sync_status,omitempty"`

	MeetingURL  string `json:"meeting_url,omitempty"`
	MeetingType string `json:"meeting_type,omitempty"`
}

var (
	ErrMissingTitle = errors.New("calendar: title required")
	ErrBadRange     = errors.New("calendar: end must be after start")
)

// Validate checks the invariants the store relies on.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrMissingTitle
	}
	if e.Start.IsZero() || e.End.IsZero() || !e.End.After(e.Start.Time) {
		return ErrBadRange
	}
	return nil
}

// Duration is End minus Start, or zero when either is unset.
func (e Event) Duration() time.Duration {
	if e.Start.IsZero() || e.End.IsZero() {
		return 0
	}
	return e.End.Sub(e.Start.Time)
}

// Within reports whether the event starts inside [from, to).
func (e Event) Within(from, to time.Time) bool {
	return !e.Start.Before(from) && e.Start.Before(to)
}

func (e Event) String() string {
	return fmt.Sprintf("#%d %s %s-%s", e.ID, e.Title, e.Start.Format("15:04"), e.End.Format("15:04"))
}

// Clone returns a deep copy.
func (e Event) Clone() Event {
	if e.GoalID != nil {
		id := *e.GoalID
		e.GoalID = &id
	}
	return e
}

// SortEvents orders events by start time ascending, breaking ties by ID so the
// order is total.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		left, right := events[i].Start.Time, events[j].Start.Time
		if left.Equal(right) {
			return events[i].ID < events[j].ID
		}
		return left.Before(right)
	})
}

// EventsSorted reports whether events satisfy SortEvents ordering.
func EventsSorted(events []Event) bool {
	return sort.SliceIsSorted(events, func(i, j int) bool {
		left, right := events[i].Start.Time, events[j].Start.Time
		if left.Equal(right) {
			return events[i].ID < events[j].ID
		}
		return left.Before(right)
	})
}

// CloneEvents deep copies a slice of events.
func CloneEvents(list []Event) []Event {
	if len(list) == 0 {
		return nil
	}
	out := make([]Event, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}
