// Package calendar defines the events, goals and chat records exchanged with
// the scheduling backend.
package calendar

import (
	"fmt"
	"strings"
)

// EventType classifies what a scheduled block is for.
type EventType string

const (
	TypeMeeting    EventType = "meeting"
	TypeTask       EventType = "task"
	TypeGoalWork   EventType = "goal_work"
	TypeDeepWork   EventType = "deep_work"
	TypeFocus      EventType = "focus"
	TypeAdmin      EventType = "admin"
	TypeBreak      EventType = "break"
	TypePersonal   EventType = "personal"
	TypeLearning   EventType = "learning"
	TypeNetworking EventType = "networking"
	TypePlanning   EventType = "planning"
)

// AllEventTypes returns the supported event types.
func AllEventTypes() []EventType {
	return []EventType{
		TypeMeeting,
		TypeTask,
		TypeGoalWork,
		TypeDeepWork,
		TypeFocus,
		TypeAdmin,
		TypeBreak,
		TypePersonal,
		TypeLearning,
		TypeNetworking,
		TypePlanning,
	}
}

// ParseEventType converts a string to an EventType. Empty input yields
// TypeTask.
func ParseEventType(raw string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return TypeTask, nil
	}
	for _, candidate := range AllEventTypes() {
		if candidate == t {
			return candidate, nil
		}
	}
	return TypeTask, fmt.Errorf("calendar: unknown event type %q", raw)
}

// Priority ranks how much an event matters.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a string to a Priority. Empty input yields
// PriorityMedium.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return PriorityMedium, fmt.Errorf("calendar: unknown priority %q", raw)
}

// GoalCategory groups goals by life area.
type GoalCategory string

const (
	CategoryLearning     GoalCategory = "learning"
	CategoryHealth       GoalCategory = "health"
	CategoryPersonal     GoalCategory = "personal"
	CategoryCareer       GoalCategory = "career"
	CategoryFinancial    GoalCategory = "financial"
	CategoryRelationship GoalCategory = "relationship"
	CategoryOther        GoalCategory = "other"
)

// ParseGoalCategory never fails: anything unrecognised folds into
// CategoryOther.
func ParseGoalCategory(raw string) GoalCategory {
	c := GoalCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryLearning, CategoryHealth, CategoryPersonal, CategoryCareer,
		CategoryFinancial, CategoryRelationship:
		return c
	}
	return CategoryOther
}

func (c *GoalCategory) UnmarshalText(b []byte) error {
	*c = ParseGoalCategory(string(b))
	return nil
}

// GoalStatus tracks where a goal is in its lifecycle.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
