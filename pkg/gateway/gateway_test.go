package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/routine"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL + "/api", Token: "secret", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c
}

func TestFetchEventsSendsWindowAndSorts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2026-03-03", r.URL.Query().Get("end_date"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[
			{"id":2,"title":"Standup","start_time":"2026-03-02T10:00:00","end_time":"2026-03-02T10:15:00","event_type":"meeting","is_synced":true},
			{"id":1,"title":"Gym","start_time":"2026-03-02T07:00:00","end_time":"2026-03-02T08:00:00","event_type":"personal","is_synced":false}
		]`)
	})
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	events, err := NewRemote(c).FetchEvents(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.True(t, events[1].Synced)
}

func TestStatusErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, KindUnauthorized, "Could not validate credentials"},
		{"not found", http.StatusNotFound, `{"detail":"Event not found"}`, KindBackend, "Event not found"},
		{"validation", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad date"}]}`, KindBackend, "field required; bad date"},
		{"plain", http.StatusInternalServerError, `boom`, KindBackend, defaultMessage(KindBackend)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := NewRemote(c).DeleteEvent(context.Background(), 7)
			require.Error(t, err)
			assert.True(t, IsKind(err, tc.kind), "got %v", err)
			assert.Equal(t, tc.message, Message(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := NewClient(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = NewRemote(c).FetchGoals(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.NotEmpty(t, Message(err))
}

func TestSuccessFalseIsBackendFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"token expired","message":"Please reconnect"}`)
	})
	_, err := NewRemote(c).SyncProvider(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBackend))
	assert.Equal(t, "Please reconnect", Message(err))
}

func TestDecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"events":`)
	})
	_, err := NewRemote(c).FetchGoals(context.Background())
	assert.True(t, IsKind(err, KindDecode), "got %v", err)
}

func TestDeleteEventReportsProviderCopy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/calendar/events/42", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"google_deleted":false,"google_error":"insufficient scope"}`)
	})
	res, err := NewRemote(c).DeleteEvent(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, res.ProviderDeleted)
	assert.Equal(t, "insufficient scope", res.ProviderError)
}

func TestUpdateEventSendsFullBody(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	current := calendar.Event{
		ID: 5, Title: "Write", Description: "draft",
		Start: calendar.At(start), End: calendar.At(start.Add(time.Hour)),
		Type: calendar.TypeDeepWork,
	}
	title := "Write chapter"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/calendar/events/5", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Write chapter", body["title"])
		assert.Equal(t, "draft", body["description"])
		assert.Equal(t, "deep_work", body["event_type"])
		assert.NotEmpty(t, body["start_time"])
		_, _ = io.WriteString(w, `{"success":true,"event_id":5,"google_updated":false}`)
	})
	got, err := NewRemote(c).UpdateEvent(context.Background(), current, calendar.Patch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Write chapter", got.Title)
	assert.Equal(t, int64(5), got.ID)
}

func TestUpdateEventRejectsInvalidMerge(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	start := time.Now()
	bad := start.Add(-time.Hour)
	current := calendar.Event{ID: 1, Title: "x", Start: calendar.At(start), End: calendar.At(start.Add(time.Hour))}
	_, err := NewRemote(c).UpdateEvent(context.Background(), current, calendar.Patch{End: &bad})
	assert.True(t, IsKind(err, KindBackend))
}

func TestConnectionStatusAlternateField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"google_calendar_connected":true,"status":"connected"}`)
	})
	st, err := NewRemote(c).ConnectionStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Connected)
}

func TestFetchChatHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/history", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"messages":[{"id":1,"role":"user","content":"hi"},{"id":2,"role":"assistant","content":"hello"}]}`)
	})
	msgs, err := NewRemote(c).FetchChatHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, calendar.RoleUser, msgs[0].Role)
	assert.Equal(t, "history-2", msgs[1].ID)
}

func TestSmartCreateShapes(t *testing.T) {
	bodies := map[string]int{
		`{"success":true,"scheduled_events":[{"id":1,"title":"Guitar","start_time":"2026-03-02T18:00:00","end_time":"2026-03-02T19:00:00"},{"id":2,"title":"Guitar","start_time":"2026-03-03T18:00:00","end_time":"2026-03-03T19:00:00"}]}`: 2,
		`{"success":true,"event_id":9,"scheduled_time":"2026-03-02T18:00:00"}`:                                                                                                                                                    1,
		`{"id":3,"title":"Guitar","start_time":"2026-03-02T18:00:00","end_time":"2026-03-02T19:00:00"}`:                                                                                                                              1,
	}
	for body, want := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var d calendar.Draft
			require.NoError(t, json.NewDecoder(r.Body).Decode(&d))
			assert.Equal(t, 60, d.DurationMinutes)
			assert.Equal(t, calendar.TypeTask, d.Type)
			_, _ = io.WriteString(w, body)
		})
		res, err := NewAssistant(c).SmartCreate(context.Background(), calendar.Draft{Title: "Learn guitar"})
		require.NoError(t, err)
		assert.Len(t, res.Events, want, body)
		assert.NotEmpty(t, res.Events[0].Title)
	}
}

func TestBulkScheduleDecodesGoalSessions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "14", r.URL.Query().Get("days_ahead"))
		_, _ = io.WriteString(w, `{"success":true,"message":"Scheduled 1 goal work sessions","goals_processed":3,
			"scheduled_events":[{"goal_title":"Run 10k","event_id":11,"scheduled_time":"2026-03-02T06:30:00","duration_minutes":45,"google_synced":true}]}`)
	})
	res, err := NewAssistant(c).BulkScheduleFromGoals(context.Background(), 14)
	require.NoError(t, err)
	assert.Equal(t, 3, res.GoalsProcessed)
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "Run 10k", ev.Title)
	assert.Equal(t, 45*time.Minute, ev.End.Sub(ev.Start))
	assert.True(t, ev.ProviderSynced)
}

func TestWeeklyOptimizeNormalisesToMonday(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-03-02", body["week_start_date"])
		_, _ = io.WriteString(w, `{"success":true,"week_start":"2026-03-02",
			"current_analysis":{"total_scheduled_hours":20,"goal_related_hours":5,"goal_percentage":25},
			"optimization_suggestions":[{"type":"goal_focus","title":"Increase Goal-Related Time","impact":"high"}],
			"estimated_improvement":"high"}`)
	})
	thursday := time.Date(2026, 3, 5, 12, 0, 0, 0, time.Local)
	report, err := NewAssistant(c).WeeklyOptimize(context.Background(), thursday)
	require.NoError(t, err)
	assert.Equal(t, 25.0, report.Analysis.GoalPercentage)
	require.Len(t, report.Suggestions, 1)
	assert.Equal(t, "high", report.Suggestions[0].Impact)
}

func TestConverseSendsRoutineContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "move gym", body["user_request"])
		assert.True(t, strings.HasPrefix(body["user_context"], "Wake: 07:00"))
		_, _ = io.WriteString(w, `{"success":true,"message":"moved","event_id":4,"new_time":{"start":"2026-03-02T19:00:00"}}`)
	})
	reply, err := NewAssistant(c).Converse(context.Background(), "move gym", routine.Default())
	require.NoError(t, err)
	change, ok := reply.(EventChangeReply)
	require.True(t, ok, "got %T", reply)
	assert.Equal(t, ChangeRescheduled, change.Kind)
	assert.True(t, reply.Mutates())
}

func TestConverseRejectsNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})
	_, err := NewAssistant(c).Converse(context.Background(), "hi", routine.Default())
	assert.True(t, IsKind(err, KindDecode))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	limited, err := NewClient(Options{BaseURL: c.base.String(), Rate: 0.001, Burst: 1})
	require.NoError(t, err)
	r := NewRemote(limited)
	_, err = r.FetchGoals(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.FetchGoals(ctx)
	assert.True(t, IsKind(err, KindTransport), "got %v", err)
}

func TestNewClientValidatesBase(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
	_, err = NewClient(Options{BaseURL: "relative/path"})
	assert.Error(t, err)
}
