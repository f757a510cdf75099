// Package calstate holds the authoritative, date-scoped view of the user's
// events and goals. State changes only through Reduce.
package calstate

import (
	"errors"
	"fmt"
	"time"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/routine"
)

// ErrUnknownAction is returned by Reduce for actions it does not handle,
// including nil and ModalVisibility for an unknown modal.
var ErrUnknownAction = errors.New("calstate: unknown action")

// GenericFailure is the error recorded when a failure carries no message.
const GenericFailure = "Something went wrong. Please try again."

// Modals holds the four dialog visibility flags.
type Modals struct {
	Create    bool
	Edit      bool
	Assistant bool
	Report    bool
}

// Visible reports whether m is shown.
func (m Modals) Visible(name Modal) bool {
	switch name {
	case ModalCreate:
		return m.Create
	case ModalEdit:
		return m.Edit
	case ModalAssistant:
		return m.Assistant
	case ModalReport:
		return m.Report
	}
	return false
}

// Snapshot is the full store state. Events are sorted by start time with ties
// broken by ID, and hold at most one entry per ID.
type Snapshot struct {
	Events       []calendar.Event
	Goals        []calendar.Goal
	SelectedDate time.Time
	Modals       Modals
	Routine      routine.Settings
	Loading      bool
	// Err is the last failure message, empty when there is none.
	Err string
	// Revision counts applied transitions.
	Revision uint64
}

// Initial returns the starting snapshot for a session.
func Initial(s routine.Settings, today time.Time) Snapshot {
	return Snapshot{
		SelectedDate: calendar.Day(today),
		Routine:      s,
	}
}

// Clone deep copies the snapshot so callers may not mutate shared state.
func (s Snapshot) Clone() Snapshot {
	s.Events = calendar.CloneEvents(s.Events)
	s.Goals = calendar.CloneGoals(s.Goals)
	return s
}

// Event returns the event with id.
func (s Snapshot) Event(id int64) (calendar.Event, bool) {
	if i := indexOf(s.Events, id); i >= 0 {
		return s.Events[i].Clone(), true
	}
	return calendar.Event{}, false
}

// Goal returns the goal with id.
func (s Snapshot) Goal(id int64) (calendar.Goal, bool) {
	for _, g := range s.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return calendar.Goal{}, false
}

// Reduce applies a to s and returns the next snapshot. It performs no I/O and
// never modifies s.
func Reduce(s Snapshot, a Action) (Snapshot, error) {
	next := s
	switch act := a.(type) {
	case BeginLoad:
		next.Loading = true

	case EventsLoaded:
		next.Events = normalize(act.Events)
		next.Loading = false
		next.Err = ""

	case GoalsLoaded:
		next.Goals = calendar.CloneGoals(act.Goals)

	case DateChanged:
		if act.Date.IsZero() {
			return s, fmt.Errorf("%w: zero date", ErrUnknownAction)
		}
		next.SelectedDate = calendar.Day(act.Date)

	case OperationFailed:
		next.Err = act.Message
		if next.Err == "" {
			next.Err = GenericFailure
		}
		next.Loading = false

	case ModalVisibility:
		switch act.Modal {
		case ModalCreate:
			next.Modals.Create = act.Visible
		case ModalEdit:
			next.Modals.Edit = act.Visible
		case ModalAssistant:
			next.Modals.Assistant = act.Visible
		case ModalReport:
			next.Modals.Report = act.Visible
		default:
			return s, fmt.Errorf("%w: modal %q", ErrUnknownAction, act.Modal)
		}

	case RoutineUpdated:
		next.Routine = act.Settings

	case EventAdded:
		events := make([]calendar.Event, 0, len(s.Events)+1)
		for _, e := range s.Events {
			if e.ID != act.Event.ID {
				events = append(events, e)
			}
		}
		events = append(events, act.Event.Clone())
		calendar.SortEvents(events)
		next.Events = events

	case EventPatched:
		i := indexOf(s.Events, act.ID)
		if i < 0 {
			break
		}
		events := make([]calendar.Event, len(s.Events))
		copy(events, s.Events)
		events[i] = act.Patch.Apply(events[i])
		events[i].ID = act.ID
		calendar.SortEvents(events)
		next.Events = events

	case EventRemoved:
		i := indexOf(s.Events, act.ID)
		if i < 0 {
			break
		}
		events := make([]calendar.Event, 0, len(s.Events)-1)
		events = append(events, s.Events[:i]...)
		events = append(events, s.Events[i+1:]...)
		next.Events = events

	case ErrorCleared:
		next.Err = ""

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	next.Revision++
	return next, nil
}

// normalize copies list, keeps the last occurrence of each ID and sorts.
func normalize(list []calendar.Event) []calendar.Event {
	if len(list) == 0 {
		return nil
	}
	pos := make(map[int64]int, len(list))
	out := make([]calendar.Event, 0, len(list))
	for _, e := range list {
		if i, ok := pos[e.ID]; ok {
			out[i] = e.Clone()
			continue
		}
		pos[e.ID] = len(out)
		out = append(out, e.Clone())
	}
	calendar.SortEvents(out)
	return out
}

func indexOf(events []calendar.Event, id int64) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}
