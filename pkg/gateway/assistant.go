package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/routine"
)

// ScheduledEvent is one event the assistant placed on the calendar.
type ScheduledEvent struct {
	EventID         int64
	Title           string
	GoalTitle       string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	ProviderSynced  bool
}

// UnmarshalJSON accepts the two spellings the backend uses: the bulk
// scheduler's {event_id, goal_title, scheduled_time, duration_minutes} and
// the task breakdown's {id, title, start_time, end_time}.
func (s *ScheduledEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		EventID         *int64              `json:"event_id"`
		ID              *int64              `json:"id"`
		Title           string              `json:"title"`
		GoalTitle       string              `json:"goal_title"`
		ScheduledTime   *calendar.Timestamp `json:"scheduled_time"`
		StartTime       *calendar.Timestamp `json:"start_time"`
		EndTime         *calendar.Timestamp `json:"end_time"`
		DurationMinutes int                 `json:"duration_minutes"`
		GoogleSynced    bool                `json:"google_synced"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := ScheduledEvent{
		Title:           raw.Title,
		GoalTitle:       raw.GoalTitle,
		DurationMinutes: raw.DurationMinutes,
		ProviderSynced:  raw.GoogleSynced,
	}
	switch {
	case raw.EventID != nil:
		out.EventID = *raw.EventID
	case raw.ID != nil:
		out.EventID = *raw.ID
	}
	if out.Title == "" {
		out.Title = raw.GoalTitle
	}
	switch {
	case raw.ScheduledTime != nil:
		out.Start = raw.ScheduledTime.Time
	case raw.StartTime != nil:
		out.Start = raw.StartTime.Time
	}
	if raw.EndTime != nil {
		out.End = raw.EndTime.Time
	}
	if out.End.IsZero() && out.DurationMinutes > 0 && !out.Start.IsZero() {
		out.End = out.Start.Add(time.Duration(out.DurationMinutes) * time.Minute)
	}
	if out.DurationMinutes == 0 && !out.End.IsZero() && out.End.After(out.Start) {
		out.DurationMinutes = int(out.End.Sub(out.Start) / time.Minute)
	}
	*s = out
	return nil
}

// ScheduleResult is what a scheduling request produced.
type ScheduleResult struct {
	Events         []ScheduledEvent
	GoalsProcessed int
	Message        string
	StrategyNote   string
}

// Suggestion is one optimization recommendation.
type Suggestion struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Analysis summarises how a week's time is spent.
type Analysis struct {
	TotalScheduledHours  float64 `json:"total_scheduled_hours"`
	GoalRelatedHours     float64 `json:"goal_related_hours"`
	GoalPercentage       float64 `json:"goal_percentage"`
	ImprovementPotential string  `json:"improvement_potential"`
	GoalImpact           string  `json:"goal_impact"`
}

// OptimizationReport is a read-only analysis of a week.
type OptimizationReport struct {
	WeekStart            string       `json:"week_start" yaml:"week_start"`
	Message              string       `json:"message,omitempty" yaml:"message,omitempty"`
	Analysis             Analysis     `json:"current_analysis" yaml:"current_analysis"`
	Suggestions          []Suggestion `json:"suggestions" yaml:"suggestions"`
	ActionItems          []string     `json:"action_items,omitempty" yaml:"action_items,omitempty"`
	EstimatedImprovement string       `json:"estimated_improvement,omitempty" yaml:"estimated_improvement,omitempty"`
	GoalProgressImpact   string       `json:"goal_progress_impact,omitempty" yaml:"goal_progress_impact,omitempty"`
	ProductivityScore    *float64     `json:"productivity_score,omitempty" yaml:"productivity_score,omitempty"`
	MainInsight          string       `json:"main_insight,omitempty" yaml:"main_insight,omitempty"`
}

func (r *OptimizationReport) UnmarshalJSON(b []byte) error {
	var raw struct {
		WeekStart            string          `json:"week_start"`
		Message              string          `json:"message"`
		Analysis             Analysis        `json:"current_analysis"`
		Suggestions          json.RawMessage `json:"suggestions"`
		OptimizationSugg     json.RawMessage `json:"optimization_suggestions"`
		Optimizations        json.RawMessage `json:"optimizations"`
		ActionItems          json.RawMessage `json:"action_items"`
		EstimatedImprovement string          `json:"estimated_improvement"`
		GoalProgressImpact   string          `json:"goal_progress_impact"`
		ProductivityScore    *float64        `json:"productivity_score"`
		MainInsight          string          `json:"main_insight"`
		AIInsights           struct {
			ProductivityScore *float64 `json:"productivity_score"`
			MainInsight       string   `json:"main_insight"`
		} `json:"ai_insights"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := OptimizationReport{
		WeekStart:            raw.WeekStart,
		Message:              raw.Message,
		Analysis:             raw.Analysis,
		Suggestions:          flexSuggestions(raw.Suggestions),
		ActionItems:          flexStrings(raw.ActionItems),
		EstimatedImprovement: raw.EstimatedImprovement,
		GoalProgressImpact:   raw.GoalProgressImpact,
		ProductivityScore:    raw.ProductivityScore,
		MainInsight:          raw.MainInsight,
	}
	out.Suggestions = append(out.Suggestions, flexSuggestions(raw.OptimizationSugg)...)
	out.Suggestions = append(out.Suggestions, flexSuggestions(raw.Optimizations)...)
	if out.ProductivityScore == nil {
		out.ProductivityScore = raw.AIInsights.ProductivityScore
	}
	if out.MainInsight == "" {
		out.MainInsight = raw.AIInsights.MainInsight
	}
	*r = out
	return nil
}

// Assistant wraps the AI scheduling endpoints.
type Assistant struct {
	c *Client
}

// NewAssistant returns an Assistant using c.
func NewAssistant(c *Client) *Assistant {
	return &Assistant{c: c}
}

// SmartCreate asks the assistant to place d on the calendar. It may schedule
// more than one event.
func (a *Assistant) SmartCreate(ctx context.Context, d calendar.Draft) (ScheduleResult, error) {
	const op = "smart-create"
	payload, err := a.c.do(ctx, op, http.MethodPost, "ai-calendar/smart-create", nil, d.Normalize())
	if err != nil {
		return ScheduleResult{}, err
	}
	if ok, msg := successFlag(payload); !ok {
		return ScheduleResult{}, &Error{Kind: KindBackend, Op: op, Message: msg}
	}
	res, err := decodeSchedule(payload)
	if err != nil {
		return ScheduleResult{}, decodeError(op, err)
	}
	if len(res.Events) == 1 && res.Events[0].Title == "" {
		res.Events[0].Title = d.Title
	}
	return res, nil
}

// BulkScheduleFromGoals schedules work sessions for every active goal over
// the next daysAhead days.
func (a *Assistant) BulkScheduleFromGoals(ctx context.Context, daysAhead int) (ScheduleResult, error) {
	const op = "bulk-schedule"
	q := url.Values{}
	q.Set("days_ahead", strconv.Itoa(daysAhead))
	body := map[string]int{"days_ahead": daysAhead}
	payload, err := a.c.do(ctx, op, http.MethodPost, "ai-calendar/bulk-schedule-from-goals", q, body)
	if err != nil {
		return ScheduleResult{}, err
	}
	if ok, msg := successFlag(payload); !ok {
		return ScheduleResult{}, &Error{Kind: KindBackend, Op: op, Message: msg}
	}
	res, err := decodeSchedule(payload)
	if err != nil {
		return ScheduleResult{}, decodeError(op, err)
	}
	return res, nil
}

// WeeklyOptimize analyses the week containing weekStart. The backend only
// accepts Mondays, so the date is moved back to the start of its week.
func (a *Assistant) WeeklyOptimize(ctx context.Context, weekStart time.Time) (OptimizationReport, error) {
	monday := calendar.WeekStart(weekStart).Format(calendar.DateLayout)
	body := map[string]string{"week_start_date": monday}
	var report OptimizationReport
	if err := a.c.call(ctx, "weekly-optimize", http.MethodPost, "ai-calendar/weekly-optimize", nil, body, &report); err != nil {
		return OptimizationReport{}, err
	}
	if report.WeekStart == "" {
		report.WeekStart = monday
	}
	return report, nil
}

// Converse sends a free-text request with the routine context and classifies
// whatever comes back. A success:false body is returned as a FailureReply,
// not an error.
func (a *Assistant) Converse(ctx context.Context, request string, s routine.Settings) (Reply, error) {
	const op = "assistant"
	body := map[string]string{
		"user_request": request,
		"user_context": s.Context(),
	}
	payload, err := a.c.do(ctx, op, http.MethodPost, "ai-calendar/intelligent-calendar-assistant", nil, body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(payload) {
		return nil, &Error{Kind: KindDecode, Op: op, Message: "the assistant sent an unreadable response"}
	}
	return Classify(payload), nil
}

// decodeSchedule handles {scheduled_events: [...]}, a single
// {event_id, scheduled_time} acknowledgement and a bare event.
func decodeSchedule(payload []byte) (ScheduleResult, error) {
	var raw struct {
		ScheduledEvents []ScheduledEvent `json:"scheduled_events"`
		GoalsProcessed  int              `json:"goals_processed"`
		Message         string           `json:"message"`
		StrategyNote    string           `json:"strategy_note"`
		EventID         *int64           `json:"event_id"`
		ID              *int64           `json:"id"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ScheduleResult{}, err
	}
	res := ScheduleResult{
		Events:         raw.ScheduledEvents,
		GoalsProcessed: raw.GoalsProcessed,
		Message:        raw.Message,
		StrategyNote:   raw.StrategyNote,
	}
	if len(res.Events) == 0 && (raw.EventID != nil || raw.ID != nil) {
		var single ScheduledEvent
		if err := json.Unmarshal(payload, &single); err != nil {
			return ScheduleResult{}, err
		}
		res.Events = []ScheduledEvent{single}
	}
	return res, nil
}

// flexStrings reads a list whose items are strings or objects carrying a
// title/description/message.
func flexStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			return []string{single}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Message     string `json:"message"`
		}
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		switch {
		case obj.Title != "" && obj.Description != "":
			out = append(out, obj.Title+": "+obj.Description)
		case obj.Title != "":
			out = append(out, obj.Title)
		case obj.Description != "":
			out = append(out, obj.Description)
		case obj.Message != "":
			out = append(out, obj.Message)
		}
	}
	return out
}

func flexSuggestions(raw json.RawMessage) []Suggestion {
	if len(raw) == 0 {
		return nil
	}
	var list []Suggestion
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	texts := flexStrings(raw)
	out := make([]Suggestion, 0, len(texts))
	for _, t := range texts {
		out = append(out, Suggestion{Title: t})
	}
	return out
}
