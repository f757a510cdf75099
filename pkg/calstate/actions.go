package calstate

import (
	"fmt"
	"time"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/routine"
)

// Action is one transition of the store. The set is closed: only the types in
// this file implement it.
type Action interface {
	// Describe renders the action for logs.
	Describe() string

	isAction()
}

// Modal names one of the view's dialogs.
type Modal string

const (
	ModalCreate    Modal = "create"
	ModalEdit      Modal = "edit"
	ModalAssistant Modal = "assistant"
	ModalReport    Modal = "report"
)

// AllModals returns the known modals.
func AllModals() []Modal {
	return []Modal{ModalCreate, ModalEdit, ModalAssistant, ModalReport}
}

// BeginLoad marks a load as in flight.
type BeginLoad struct{}

// EventsLoaded replaces the event collection.
type EventsLoaded struct {
	Events []calendar.Event
}

// GoalsLoaded replaces the goal collection.
type GoalsLoaded struct {
	Goals []calendar.Goal
}

// DateChanged selects a new day.
type DateChanged struct {
	Date time.Time
}

// OperationFailed records an error and ends loading.
type OperationFailed struct {
	Message string
}

// ModalVisibility shows or hides one modal.
type ModalVisibility struct {
	Modal   Modal
	Visible bool
}

// RoutineUpdated replaces the routine settings.
type RoutineUpdated struct {
	Settings routine.Settings
}

// EventAdded inserts one event.
type EventAdded struct {
	Event calendar.Event
}

// EventPatched merges fields into an existing event.
type EventPatched struct {
	ID    int64
	Patch calendar.Patch
}

// EventRemoved deletes one event.
type EventRemoved struct {
	ID int64
}

// ErrorCleared clears the error and nothing else.
type ErrorCleared struct{}

func (BeginLoad) isAction()       {}
func (EventsLoaded) isAction()    {}
func (GoalsLoaded) isAction()     {}
func (DateChanged) isAction()     {}
func (OperationFailed) isAction() {}
func (ModalVisibility) isAction() {}
func (RoutineUpdated) isAction()  {}
func (EventAdded) isAction()      {}
func (EventPatched) isAction()    {}
func (EventRemoved) isAction()    {}
func (ErrorCleared) isAction()    {}

func (BeginLoad) Describe() string { return "begin-load" }

func (a EventsLoaded) Describe() string {
	return fmt.Sprintf("events-loaded count:%d", len(a.Events))
}

func (a GoalsLoaded) Describe() string {
	return fmt.Sprintf("goals-loaded count:%d", len(a.Goals))
}

func (a DateChanged) Describe() string {
	return fmt.Sprintf("date-changed date:%s", a.Date.Format(calendar.DateLayout))
}

func (a OperationFailed) Describe() string {
	return fmt.Sprintf("operation-failed message:%q", a.Message)
}

func (a ModalVisibility) Describe() string {
	return fmt.Sprintf("modal-visibility modal:%q visible:%t", a.Modal, a.Visible)
}

func (RoutineUpdated) Describe() string { return "routine-updated" }

func (a EventAdded) Describe() string {
	return fmt.Sprintf("event-added id:%d", a.Event.ID)
}

func (a EventPatched) Describe() string {
	return fmt.Sprintf("event-patched id:%d", a.ID)
}

func (a EventRemoved) Describe() string {
	return fmt.Sprintf("event-removed id:%d", a.ID)
}

func (ErrorCleared) Describe() string { return "error-cleared" }
