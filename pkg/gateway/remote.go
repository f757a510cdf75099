package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tableflip.dev/daypilot/pkg/calendar"
)

// DeleteResult reports what happened to the provider's copy of a deleted
// event.
type DeleteResult struct {
	ProviderDeleted bool   `json:"google_deleted"`
	ProviderError   string `json:"google_error"`
}

// SyncSummary is the backend's report of a provider import.
type SyncSummary struct {
	EventsSynced int    `json:"events_synced"`
	Message      string `json:"message"`
}

// ConnectionStatus describes whether the external provider is linked.
type ConnectionStatus struct {
	Connected      bool   `json:"connected"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"`
	TokenHealth    string `json:"token_health,omitempty"`
}

// Remote is the typed wrapper around the event, goal and sync endpoints.
type Remote struct {
	c *Client
}

// NewRemote returns a Remote using c.
func NewRemote(c *Client) *Remote {
	return &Remote{c: c}
}

// FetchEvents lists events whose start falls in the [start, end) date
// window, sorted by start time.
func (r *Remote) FetchEvents(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(calendar.DateLayout))
	q.Set("end_date", end.Format(calendar.DateLayout))

	var events []calendar.Event
	if err := r.c.call(ctx, "fetch-events", http.MethodGet, "events", q, nil, &events); err != nil {
		return nil, err
	}
	calendar.SortEvents(events)
	return events, nil
}

// FetchGoals lists the user's goals.
func (r *Remote) FetchGoals(ctx context.Context) ([]calendar.Goal, error) {
	var goals []calendar.Goal
	if err := r.c.call(ctx, "fetch-goals", http.MethodGet, "goals", nil, nil, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

type eventBody struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Start       calendar.Timestamp `json:"start_time"`
	End         calendar.Timestamp `json:"end_time"`
	Type        calendar.EventType `json:"event_type"`
	Priority    calendar.Priority  `json:"priority,omitempty"`
}

// UpdateEvent sends current with p merged in as the full event body. When
// the backend only acknowledges the update, the merged event is returned.
func (r *Remote) UpdateEvent(ctx context.Context, current calendar.Event, p calendar.Patch) (calendar.Event, error) {
	const op = "update-event"
	merged := p.Apply(current)
	if err := merged.Validate(); err != nil {
		return calendar.Event{}, &Error{Kind: KindBackend, Op: op, Message: err.Error(), Cause: err}
	}
	if merged.Type == "" {
		merged.Type = calendar.TypeTask
	}
	body := eventBody{
		Title:       merged.Title,
		Description: merged.Description,
		Start:       merged.Start,
		End:         merged.End,
		Type:        merged.Type,
		Priority:    merged.Priority,
	}
	path := fmt.Sprintf("calendar/events/%d", current.ID)
	payload, err := r.c.do(ctx, op, http.MethodPut, path, nil, body)
	if err != nil {
		return calendar.Event{}, err
	}
	if ok, msg := successFlag(payload); !ok {
		return calendar.Event{}, &Error{Kind: KindBackend, Op: op, Message: msg}
	}

	var probe struct {
		ID    *int64 `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil && len(bytes.TrimSpace(payload)) > 0 {
		return calendar.Event{}, decodeError(op, err)
	}
	if probe.ID == nil || probe.Title == "" {
		return merged, nil
	}
	var updated calendar.Event
	if err := json.Unmarshal(payload, &updated); err != nil {
		return calendar.Event{}, decodeError(op, err)
	}
	return updated, nil
}

// DeleteEvent removes an event locally and, when it is linked, from the
// provider.
func (r *Remote) DeleteEvent(ctx context.Context, id int64) (DeleteResult, error) {
	var res DeleteResult
	path := "calendar/events/" + strconv.FormatInt(id, 10)
	if err := r.c.call(ctx, "delete-event", http.MethodDelete, path, nil, nil, &res); err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// SyncProvider asks the backend to import provider events. The backend
// dedupes, so repeated calls are safe; callers reconcile by reloading.
func (r *Remote) SyncProvider(ctx context.Context) (SyncSummary, error) {
	var res SyncSummary
	if err := r.c.call(ctx, "sync-provider", http.MethodPost, "calendar/sync", nil, nil, &res); err != nil {
		return SyncSummary{}, err
	}
	return res, nil
}

// ConnectURL returns the URL the user must open to link the provider.
func (r *Remote) ConnectURL(ctx context.Context) (string, error) {
	const op = "connect-url"
	var res struct {
		AuthURL string `json:"auth_url"`
	}
	if err := r.c.call(ctx, op, http.MethodGet, "calendar/connect-google", nil, nil, &res); err != nil {
		return "", err
	}
	if res.AuthURL == "" {
		return "", &Error{Kind: KindDecode, Op: op, Message: "no authorization url in response"}
	}
	return res.AuthURL, nil
}

// ConnectionStatus reports whether the provider is linked.
func (r *Remote) ConnectionStatus(ctx context.Context) (ConnectionStatus, error) {
	var raw struct {
		ConnectionStatus
		GoogleConnected *bool `json:"google_calendar_connected"`
	}
	if err := r.c.call(ctx, "connection-status", http.MethodGet, "calendar/connection-status", nil, nil, &raw); err != nil {
		return ConnectionStatus{}, err
	}
	st := raw.ConnectionStatus
	if raw.GoogleConnected != nil && *raw.GoogleConnected {
		st.Connected = true
	}
	return st, nil
}

// DisconnectProvider unlinks the provider.
func (r *Remote) DisconnectProvider(ctx context.Context) error {
	return r.c.call(ctx, "disconnect-provider", http.MethodPost, "calendar/disconnect", nil, nil, nil)
}

// FetchChatHistory returns up to limit past assistant messages, oldest
// first.
func (r *Remote) FetchChatHistory(ctx context.Context, limit int) ([]calendar.ChatMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res struct {
		Messages []struct {
			ID        json.Number        `json:"id"`
			Role      string             `json:"role"`
			Content   string             `json:"content"`
			CreatedAt calendar.Timestamp `json:"created_at"`
		} `json:"messages"`
	}
	if err := r.c.call(ctx, "chat-history", http.MethodGet, "chat/history", q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]calendar.ChatMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		role := calendar.RoleAssistant
		if m.Role == string(calendar.RoleUser) {
			role = calendar.RoleUser
		}
		msg := calendar.NewChatMessage(role, m.Content)
		if m.ID != "" {
			msg.ID = "history-" + m.ID.String()
		}
		if !m.CreatedAt.IsZero() {
			msg.Created = m.CreatedAt.Time
		}
		out = append(out, msg)
	}
	return out, nil
}
