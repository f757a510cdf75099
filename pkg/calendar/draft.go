package calendar

import (
	"errors"
	"strings"
	"time"
)

// DefaultDurationMinutes is used when a draft leaves its duration unset.
const DefaultDurationMinutes = 60

// Draft describes an event the assistant should find a slot for.
type Draft struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Type            EventType  `json:"event_type"`
	Priority        Priority   `json:"priority"`
	GoalID          *int64     `json:"goal_id,omitempty"`
	SuggestedTime   *Timestamp `json:"suggested_time,omitempty"`
}

var ErrBadDuration = errors.New("calendar: duration must be positive")

// Normalize fills in defaults and trims text fields.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.DurationMinutes == 0 {
		d.DurationMinutes = DefaultDurationMinutes
	}
	if d.Type == "" {
		d.Type = TypeTask
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrMissingTitle
	}
	if d.DurationMinutes <= 0 {
		return ErrBadDuration
	}
	return nil
}

// Patch holds the fields an edit changes. Nil fields are left alone.
type Patch struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	Type        *EventType
	Priority    *Priority
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Start == nil &&
		p.End == nil && p.Type == nil && p.Priority == nil
}

// Apply returns e with the patch merged in.
func (p Patch) Apply(e Event) Event {
	e = e.Clone()
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Start != nil {
		e.Start = At(*p.Start)
	}
	if p.End != nil {
		e.End = At(*p.End)
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	return e
}
