package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/routine"
	"tableflip.dev/daypilot/pkg/store"
)

var (
	dayA = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	dayB = dayA.AddDate(0, 0, 1)
)

func at(day time.Time, hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func transportErr() error {
	return &gateway.Error{Kind: gateway.KindTransport, Cause: errors.New("connection refused")}
}

// memoryRemote is an in-memory backend. Provider events are imported on
// sync, keyed by title and start like the real backend's provider ids.
type memoryRemote struct {
	mu       sync.Mutex
	nextID   int64
	events   map[int64]calendar.Event
	goals    []calendar.Goal
	provider []calendar.Event
	imported map[string]int64
	history  []calendar.ChatMessage

	fetchCalls int
	syncCalls  int
	fetchErr   error
	updateErr  error
	deleteErr  error

	// gates block FetchEvents for a day until closed; entered reports that
	// a fetch for that day is waiting.
	gates   map[string]chan struct{}
	entered chan string
	// failAfterGate makes a gated fetch fail once released.
	failAfterGate bool

	statuses    []gateway.ConnectionStatus
	statusCalls int
}

func newMemoryRemote(events ...calendar.Event) *memoryRemote {
	r := &memoryRemote{
		events:   map[int64]calendar.Event{},
		imported: map[string]int64{},
		gates:    map[string]chan struct{}{},
		entered:  make(chan string, 8),
	}
	for _, e := range events {
		r.insertLocked(e)
	}
	return r
}

func (r *memoryRemote) insertLocked(e calendar.Event) calendar.Event {
	if e.ID == 0 {
		r.nextID++
		e.ID = r.nextID
	} else if e.ID > r.nextID {
		r.nextID = e.ID
	}
	if e.End.IsZero() {
		e.End = calendar.At(e.Start.Add(time.Hour))
	}
	r.events[e.ID] = e
	return e
}

func (r *memoryRemote) add(title string, start time.Time) calendar.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(calendar.Event{Title: title, Start: calendar.At(start), Type: calendar.TypeTask})
}

func (r *memoryRemote) FetchEvents(ctx context.Context, start, end time.Time) ([]calendar.Event, error) {
	key := start.Format(calendar.DateLayout)
	out, err := r.eventsBetween(start, end)

	// a gated fetch answers with the data as it was when the request
	// arrived, like a slow response
	r.mu.Lock()
	gate := r.gates[key]
	r.mu.Unlock()
	if gate != nil {
		r.entered <- key
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &gateway.Error{Kind: gateway.KindTransport, Cause: ctx.Err()}
		}
		if r.failAfterGate {
			return nil, transportErr()
		}
	}
	return out, err
}

func (r *memoryRemote) eventsBetween(start, end time.Time) ([]calendar.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchCalls++
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var out []calendar.Event
	for _, e := range r.events {
		// the real backend ignores the window sometimes, so return extra
		if !e.Start.Before(start.AddDate(0, 0, -1)) && e.Start.Before(end.AddDate(0, 0, 1)) {
			out = append(out, e)
		}
	}
	calendar.SortEvents(out)
	return out, nil
}

func (r *memoryRemote) FetchGoals(context.Context) ([]calendar.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return calendar.CloneGoals(r.goals), nil
}

func (r *memoryRemote) UpdateEvent(_ context.Context, current calendar.Event, p calendar.Patch) (calendar.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return calendar.Event{}, r.updateErr
	}
	merged := p.Apply(current)
	r.events[merged.ID] = merged
	return merged, nil
}

func (r *memoryRemote) DeleteEvent(_ context.Context, id int64) (gateway.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return gateway.DeleteResult{}, r.deleteErr
	}
	e, ok := r.events[id]
	if !ok {
		return gateway.DeleteResult{}, &gateway.Error{Kind: gateway.KindBackend, Status: 404, Message: "Event not found"}
	}
	delete(r.events, id)
	return gateway.DeleteResult{ProviderDeleted: e.Synced}, nil
}

func (r *memoryRemote) SyncProvider(context.Context) (gateway.SyncSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncCalls++
	n := 0
	for _, p := range r.provider {
		key := p.Title + "@" + p.Start.Format(time.RFC3339)
		if _, ok := r.imported[key]; ok {
			continue
		}
		p.ID = 0
		p.Synced = true
		r.imported[key] = r.insertLocked(p).ID
		n++
	}
	return gateway.SyncSummary{EventsSynced: n, Message: fmt.Sprintf("Synced %d events", n)}, nil
}

func (r *memoryRemote) ConnectURL(context.Context) (string, error) {
	return "https://accounts.example.test/auth", nil
}

func (r *memoryRemote) ConnectionStatus(context.Context) (gateway.ConnectionStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls++
	if len(r.statuses) == 0 {
		return gateway.ConnectionStatus{}, nil
	}
	st := r.statuses[0]
	if len(r.statuses) > 1 {
		r.statuses = r.statuses[1:]
	}
	return st, nil
}

func (r *memoryRemote) DisconnectProvider(context.Context) error { return nil }

func (r *memoryRemote) FetchChatHistory(_ context.Context, limit int) ([]calendar.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.history) > limit {
		return r.history[len(r.history)-limit:], nil
	}
	return r.history, nil
}

type fakeAssistant struct {
	remote *memoryRemote

	mu        sync.Mutex
	drafts    []calendar.Draft
	days      int
	weekStart time.Time
	reply     gateway.Reply
	replyErr  error
	createErr error
	contexts  []string
}

func (a *fakeAssistant) SmartCreate(_ context.Context, d calendar.Draft) (gateway.ScheduleResult, error) {
	a.mu.Lock()
	a.drafts = append(a.drafts, d)
	a.mu.Unlock()
	if a.createErr != nil {
		return gateway.ScheduleResult{}, a.createErr
	}
	// split the draft into two sessions, as the assistant does for
	// larger goals
	first := a.remote.add(d.Title+" (1/2)", at(dayA, 18))
	second := a.remote.add(d.Title+" (2/2)", at(dayA, 7))
	return gateway.ScheduleResult{Events: []gateway.ScheduledEvent{
		{EventID: first.ID, Title: first.Title, Start: first.Start.Time},
		{EventID: second.ID, Title: second.Title, Start: second.Start.Time},
	}}, nil
}

func (a *fakeAssistant) BulkScheduleFromGoals(_ context.Context, days int) (gateway.ScheduleResult, error) {
	a.mu.Lock()
	a.days = days
	a.mu.Unlock()
	e := a.remote.add("Goal work", at(dayA, 15))
	return gateway.ScheduleResult{Events: []gateway.ScheduledEvent{{EventID: e.ID}}, GoalsProcessed: 1}, nil
}

func (a *fakeAssistant) WeeklyOptimize(_ context.Context, weekStart time.Time) (gateway.OptimizationReport, error) {
	a.mu.Lock()
	a.weekStart = weekStart
	a.mu.Unlock()
	return gateway.OptimizationReport{WeekStart: weekStart.Format(calendar.DateLayout), Suggestions: []gateway.Suggestion{{Title: "Batch meetings"}}}, nil
}

func (a *fakeAssistant) Converse(_ context.Context, _ string, s routine.Settings) (gateway.Reply, error) {
	a.mu.Lock()
	a.contexts = append(a.contexts, s.Context())
	a.mu.Unlock()
	return a.reply, a.replyErr
}

type memoryPersistence struct {
	mu  sync.Mutex
	s   routine.Settings
	set bool
}

func (m *memoryPersistence) LoadRoutine() (routine.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return routine.Default(), nil
	}
	return m.s, nil
}

func (m *memoryPersistence) SaveRoutine(s routine.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s, m.set = s, true
	return nil
}

func (m *memoryPersistence) Watch(ctx context.Context) (<-chan store.Event, error) {
	ch := make(chan store.Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type harness struct {
	o         *Orchestrator
	remote    *memoryRemote
	assistant *fakeAssistant
	persist   *memoryPersistence
}

func newHarness(t *testing.T, events ...calendar.Event) *harness {
	t.Helper()
	remote := newMemoryRemote(events...)
	assistant := &fakeAssistant{remote: remote}
	persist := &memoryPersistence{}
	st := calstate.New(calstate.Options{Routine: routine.Default(), Today: dayA, Strict: true})
	o, err := New(Options{Store: st, Remote: remote, Assistant: assistant, Persistence: persist})
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return &harness{o: o, remote: remote, assistant: assistant, persist: persist}
}

func event(id int64, title string, start time.Time) calendar.Event {
	return calendar.Event{ID: id, Title: title, Start: calendar.At(start), End: calendar.At(start.Add(time.Hour)), Type: calendar.TypeTask}
}

func titles(events []calendar.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestLoadScopesToSelectedDay(t *testing.T) {
	h := newHarness(t,
		event(1, "late", at(dayA, 20)),
		event(2, "early", at(dayA, 8)),
		event(3, "tomorrow", at(dayB, 9)),
	)
	h.remote.goals = []calendar.Goal{{ID: 1, Title: "Run"}}

	require.NoError(t, h.o.Load(context.Background(), at(dayA, 13)))
	snap := h.o.Snapshot()
	assert.Equal(t, []string{"early", "late"}, titles(snap.Events))
	assert.Len(t, snap.Goals, 1)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
}

func TestLoadFailureKeepsPreviousEvents(t *testing.T) {
	h := newHarness(t, event(1, "standup", at(dayA, 9)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	h.remote.fetchErr = transportErr()
	err := h.o.Reload(context.Background())
	require.Error(t, err)

	snap := h.o.Snapshot()
	assert.Equal(t, []string{"standup"}, titles(snap.Events))
	assert.NotEmpty(t, snap.Err)
	assert.False(t, snap.Loading)
}

// A slow load for day A must not overwrite day B once B is selected.
func TestStaleLoadIsDiscarded(t *testing.T) {
	h := newHarness(t, event(1, "on A", at(dayA, 9)), event(2, "on B", at(dayB, 9)))
	gate := make(chan struct{})
	h.remote.gates[dayA.Format(calendar.DateLayout)] = gate

	done := make(chan error, 1)
	go func() { done <- h.o.Load(context.Background(), dayA) }()
	<-h.remote.entered

	require.NoError(t, h.o.SelectDate(context.Background(), dayB))
	assert.Equal(t, []string{"on B"}, titles(h.o.Snapshot().Events))

	close(gate)
	require.NoError(t, <-done)

	snap := h.o.Snapshot()
	assert.True(t, snap.SelectedDate.Equal(dayB))
	assert.Equal(t, []string{"on B"}, titles(snap.Events))
	assert.Empty(t, snap.Err)
}

func TestStaleLoadFailureIsDiscarded(t *testing.T) {
	h := newHarness(t, event(2, "on B", at(dayB, 9)))
	gate := make(chan struct{})
	h.remote.gates[dayA.Format(calendar.DateLayout)] = gate
	h.remote.failAfterGate = true

	done := make(chan error, 1)
	go func() { done <- h.o.Load(context.Background(), dayA) }()
	<-h.remote.entered
	h.remote.mu.Lock()
	delete(h.remote.gates, dayA.Format(calendar.DateLayout))
	h.remote.mu.Unlock()

	require.NoError(t, h.o.SelectDate(context.Background(), dayB))
	close(gate)
	require.NoError(t, <-done)
	assert.Empty(t, h.o.Snapshot().Err)
}

// An older load for the selected day must not replace what a newer load of
// the same day committed.
func TestOlderSameDayLoadIsDiscarded(t *testing.T) {
	h := newHarness(t, event(10, "Lunch", at(dayA, 12)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	key := dayA.Format(calendar.DateLayout)
	gate := make(chan struct{})
	h.remote.mu.Lock()
	h.remote.gates[key] = gate
	h.remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- h.o.Reload(context.Background()) }()
	<-h.remote.entered
	h.remote.mu.Lock()
	delete(h.remote.gates, key)
	h.remote.mu.Unlock()

	_, err := h.o.Create(context.Background(), calendar.Draft{Title: "Learn guitar", DurationMinutes: 60})
	require.NoError(t, err)
	want := []string{"Learn guitar (2/2)", "Lunch", "Learn guitar (1/2)"}
	require.Equal(t, want, titles(h.o.Snapshot().Events))

	close(gate)
	require.NoError(t, <-done)
	snap := h.o.Snapshot()
	assert.Equal(t, want, titles(snap.Events))
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
}

// Leaving day A and coming back must not let the first load of A win.
func TestLoadAfterReturningToDayWins(t *testing.T) {
	h := newHarness(t, event(1, "on A", at(dayA, 9)), event(2, "on B", at(dayB, 9)))
	key := dayA.Format(calendar.DateLayout)
	gate := make(chan struct{})
	h.remote.mu.Lock()
	h.remote.gates[key] = gate
	h.remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- h.o.Load(context.Background(), dayA) }()
	<-h.remote.entered
	h.remote.mu.Lock()
	delete(h.remote.gates, key)
	h.remote.mu.Unlock()

	require.NoError(t, h.o.SelectDate(context.Background(), dayB))
	h.remote.add("added later", at(dayA, 15))
	require.NoError(t, h.o.SelectDate(context.Background(), dayA))
	require.Equal(t, []string{"on A", "added later"}, titles(h.o.Snapshot().Events))

	close(gate)
	require.NoError(t, <-done)
	snap := h.o.Snapshot()
	assert.True(t, snap.SelectedDate.Equal(dayA))
	assert.Equal(t, []string{"on A", "added later"}, titles(snap.Events))
}

func TestCreateReloadsAllScheduledEvents(t *testing.T) {
	h := newHarness(t, event(10, "Lunch", at(dayA, 12)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	res, err := h.o.Create(context.Background(), calendar.Draft{Title: "Learn guitar", DurationMinutes: 60})
	require.NoError(t, err)
	assert.Len(t, res.Events, 2)

	snap := h.o.Snapshot()
	assert.Equal(t, []string{"Learn guitar (2/2)", "Lunch", "Learn guitar (1/2)"}, titles(snap.Events))
	assert.True(t, calendar.EventsSorted(snap.Events))
	require.Len(t, h.assistant.drafts, 1)
	assert.Equal(t, calendar.TypeTask, h.assistant.drafts[0].Type)
}

func TestCreateValidatesDraft(t *testing.T) {
	h := newHarness(t)
	_, err := h.o.Create(context.Background(), calendar.Draft{DurationMinutes: 30})
	require.ErrorIs(t, err, calendar.ErrMissingTitle)
	assert.NotEmpty(t, h.o.Snapshot().Err)
	assert.Empty(t, h.assistant.drafts)
}

func TestRemoveFailureKeepsEvent(t *testing.T) {
	h := newHarness(t, event(1, "standup", at(dayA, 9)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	h.remote.deleteErr = transportErr()
	_, err := h.o.Remove(context.Background(), 1)
	require.Error(t, err)

	snap := h.o.Snapshot()
	assert.NotEmpty(t, snap.Err)
	assert.Equal(t, []string{"standup"}, titles(snap.Events))
}

func TestRemoveSuccess(t *testing.T) {
	synced := event(1, "from provider", at(dayA, 9))
	synced.Synced = true
	h := newHarness(t, synced, event(2, "local", at(dayA, 10)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	res, err := h.o.Remove(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.ProviderDeleted)
	assert.Equal(t, []string{"local"}, titles(h.o.Snapshot().Events))
}

func TestEditIsPessimistic(t *testing.T) {
	h := newHarness(t, event(1, "draft", at(dayA, 9)), event(2, "review", at(dayA, 11)))
	require.NoError(t, h.o.Load(context.Background(), dayA))

	title := "final"
	start, end := at(dayA, 13), at(dayA, 14)
	patch := calendar.Patch{Title: &title, Start: &start, End: &end}

	h.remote.updateErr = transportErr()
	_, err := h.o.Edit(context.Background(), 1, patch)
	require.Error(t, err)
	snap := h.o.Snapshot()
	assert.Equal(t, []string{"draft", "review"}, titles(snap.Events))
	assert.NotEmpty(t, snap.Err)

	h.remote.updateErr = nil
	h.o.ClearError()
	_, err = h.o.Edit(context.Background(), 1, patch)
	require.NoError(t, err)
	snap = h.o.Snapshot()
	assert.Equal(t, []string{"review", "final"}, titles(snap.Events))
	assert.Empty(t, snap.Err)
}

func TestEditMovingOffDayRemovesFromView(t *testing.T) {
	h := newHarness(t, event(1, "move me", at(dayA, 9)))
	require.NoError(t, h.o.Load(context.Background(), dayA))
	start, end := at(dayB, 9), at(dayB, 10)
	_, err := h.o.Edit(context.Background(), 1, calendar.Patch{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Empty(t, h.o.Snapshot().Events)
}

func TestEditRejectsUnknownAndEmpty(t *testing.T) {
	h := newHarness(t)
	title := "x"
	_, err := h.o.Edit(context.Background(), 99, calendar.Patch{Title: &title})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = h.o.Edit(context.Background(), 99, calendar.Patch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)
}

func TestSyncProviderIsIdempotent(t *testing.T) {
	h := newHarness(t, event(1, "local", at(dayA, 8)))
	h.remote.provider = []calendar.Event{
		event(0, "Dentist", at(dayA, 10)),
		event(0, "Flight", at(dayA, 16)),
	}

	first, err := h.o.SyncProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.EventsSynced)
	afterFirst := h.o.Snapshot().Events

	second, err := h.o.SyncProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.EventsSynced)
	afterSecond := h.o.Snapshot().Events

	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, []string{"local", "Dentist", "Flight"}, titles(afterSecond))
}

func TestBulkScheduleDefaultsAndReloads(t *testing.T) {
	h := newHarness(t)
	res, err := h.o.BulkScheduleFromGoals(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDaysAhead, h.assistant.days)
	assert.Equal(t, 1, res.GoalsProcessed)
	assert.Equal(t, []string{"Goal work"}, titles(h.o.Snapshot().Events))
}

func TestOptimizeWeekDoesNotMutate(t *testing.T) {
	h := newHarness(t, event(1, "standup", at(dayA, 9)))
	require.NoError(t, h.o.Load(context.Background(), dayA))
	before := h.o.Snapshot()
	calls := h.remote.fetchCalls

	report, err := h.o.OptimizeWeek(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, report.Suggestions, 1)
	assert.Equal(t, time.Monday, h.assistant.weekStart.Weekday())

	after := h.o.Snapshot()
	assert.Equal(t, before.Events, after.Events)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, calls, h.remote.fetchCalls)
}

func TestAssistantChatScheduleQuestion(t *testing.T) {
	h := newHarness(t, event(1, "standup", at(dayA, 9)))
	require.NoError(t, h.o.Load(context.Background(), dayA))
	before := h.o.Snapshot()
	calls := h.remote.fetchCalls

	h.assistant.reply = gateway.Classify([]byte(`{"success":true,"message":"Here's your schedule",
		"events_by_date":{"2026-03-02":[{"id":1,"title":"standup","start_time":"09:00","end_time":"10:00"}]},
		"statistics":{"total_events":1}}`))

	reply, err := h.o.AssistantChat(context.Background(), "What's my schedule today?")
	require.NoError(t, err)
	assert.IsType(t, gateway.ScheduleReportReply{}, reply)

	log := h.o.Chat().Messages()
	require.Len(t, log, 2)
	assert.Equal(t, calendar.RoleUser, log[0].Role)
	assert.Equal(t, calendar.RoleAssistant, log[1].Role)
	assert.False(t, log[1].Pending)
	assert.Contains(t, log[1].Content, "standup")

	after := h.o.Snapshot()
	assert.Equal(t, before.Events, after.Events)
	assert.Equal(t, calls, h.remote.fetchCalls)
	require.Len(t, h.assistant.contexts, 1)
	assert.Equal(t, routine.Default().Context(), h.assistant.contexts[0])
}

func TestAssistantChatMutationReloads(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.Load(context.Background(), dayA))
	h.remote.add("Practice", at(dayA, 19))
	h.assistant.reply = gateway.ScheduledEventsReply{Text: "Scheduled", Events: []gateway.ScheduledEvent{{Title: "Practice"}}}

	_, err := h.o.AssistantChat(context.Background(), "schedule practice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Practice"}, titles(h.o.Snapshot().Events))
	assert.Contains(t, h.o.Chat().Messages()[1].Content, "Practice")
}

func TestAssistantChatFailuresStayInChat(t *testing.T) {
	h := newHarness(t)
	h.assistant.replyErr = transportErr()
	_, err := h.o.AssistantChat(context.Background(), "hello")
	require.Error(t, err)
	msgs := h.o.Chat().Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "couldn't reach")
	assert.Empty(t, h.o.Snapshot().Err)

	h.assistant.replyErr = nil
	h.assistant.reply = gateway.Classify([]byte(`{"success":true,"hmm":1}`))
	_, err = h.o.AssistantChat(context.Background(), "???")
	require.NoError(t, err)
	assert.Equal(t, 4, h.o.Chat().Len())
	assert.Empty(t, h.o.Snapshot().Err)
}

func TestAssistantChatRejectsEmpty(t *testing.T) {
	h := newHarness(t)
	_, err := h.o.AssistantChat(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, h.o.Chat().Len())
}

func TestLoadChatHistorySeedsBeforeSession(t *testing.T) {
	h := newHarness(t)
	h.assistant.reply = gateway.AmbiguousReply{}
	_, _ = h.o.AssistantChat(context.Background(), "now")
	h.remote.history = []calendar.ChatMessage{
		{ID: "history-1", Role: calendar.RoleUser, Content: "earlier"},
	}
	require.NoError(t, h.o.LoadChatHistory(context.Background(), 50))
	msgs := h.o.Chat().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "earlier", msgs[0].Content)
	require.NoError(t, h.o.LoadChatHistory(context.Background(), 50))
	assert.Equal(t, 3, h.o.Chat().Len())
}

func TestUpdateRoutinePersists(t *testing.T) {
	h := newHarness(t)
	s := routine.Default()
	s.GymTime = "06:00"
	require.NoError(t, h.o.UpdateRoutine(context.Background(), s))
	assert.Equal(t, "06:00", h.o.Snapshot().Routine.GymTime)
	saved, _ := h.persist.LoadRoutine()
	assert.Equal(t, s, saved)

	bad := s
	bad.WorkStart = "25:00"
	require.Error(t, h.o.UpdateRoutine(context.Background(), bad))
	assert.Equal(t, "06:00", h.o.Snapshot().Routine.GymTime)
}

func TestToggleModal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.o.ToggleModal(calstate.ModalAssistant, true))
	assert.True(t, h.o.Snapshot().Modals.Assistant)
	assert.ErrorIs(t, h.o.ToggleModal("settings", true), ErrBadModal)
}

func TestConnectProviderPollsThenSyncs(t *testing.T) {
	h := newHarness(t)
	h.remote.statuses = []gateway.ConnectionStatus{{}, {}, {}, {Connected: true}}
	h.remote.provider = []calendar.Event{event(0, "Imported", at(dayA, 10))}

	var gotURL string
	ch, err := h.o.ConnectProvider(context.Background(), ConnectOptions{
		Interval: 5 * time.Millisecond,
		Timeout:  2 * time.Second,
		OnURL:    func(u string) { gotURL = u },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, gotURL)

	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.True(t, res.Status.Connected)
		assert.Equal(t, 1, res.Sync.EventsSynced)
	case <-time.After(3 * time.Second):
		t.Fatal("connect never finished")
	}
	assert.Equal(t, []string{"Imported"}, titles(h.o.Snapshot().Events))
}

func TestConnectProviderTimesOut(t *testing.T) {
	h := newHarness(t)
	ch, err := h.o.ConnectProvider(context.Background(), ConnectOptions{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})
	require.NoError(t, err)
	res := <-ch
	assert.ErrorIs(t, res.Err, ErrConnectTimeout)
	assert.NotEmpty(t, h.o.Snapshot().Err)

	// a finished attempt frees the slot for another
	_, err = h.o.ConnectProvider(context.Background(), ConnectOptions{Interval: time.Hour, Timeout: time.Hour})
	require.NoError(t, err)
	_, err = h.o.ConnectProvider(context.Background(), ConnectOptions{})
	assert.ErrorIs(t, err, ErrConnectInProgress)
}

func TestCloseCancelsConnectPolling(t *testing.T) {
	h := newHarness(t)
	ch, err := h.o.ConnectProvider(context.Background(), ConnectOptions{Interval: time.Hour, Timeout: time.Hour})
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		h.o.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wait for polling to stop")
	}
	res := <-ch
	assert.ErrorIs(t, res.Err, context.Canceled)

	_, err = h.o.ConnectProvider(context.Background(), ConnectOptions{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReportGroupsByType(t *testing.T) {
	goal := int64(1)
	deep := event(2, "write", at(dayA, 9))
	deep.Type = calendar.TypeDeepWork
	deep.End = calendar.At(at(dayA, 11))
	deep.GoalID = &goal
	rep := Report(calstate.Snapshot{SelectedDate: dayA, Events: []calendar.Event{
		event(1, "standup", at(dayA, 8)),
		deep,
		event(3, "email", at(dayA, 12)),
	}})
	require.Len(t, rep.Sections, 2)
	assert.Equal(t, calendar.TypeDeepWork, rep.Sections[0].Type)
	assert.Equal(t, 240, rep.Minutes)
	assert.Equal(t, 3, rep.Total)
	assert.InDelta(t, 50.0, rep.GoalPercent(), 0.01)
}
