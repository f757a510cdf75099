// Package app sequences gateway calls and store transitions into the
// calendar's user-facing operations. It is shared by the CLI and the
// terminal view.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tableflip.dev/daypilot/pkg/calendar"
	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/logging"
	"tableflip.dev/daypilot/pkg/routine"
	"tableflip.dev/daypilot/pkg/store"
)

// Remote is the calendar backend.
type Remote interface {
	FetchEvents(ctx context.Context, start, end time.Time) ([]calendar.Event, error)
	FetchGoals(ctx context.Context) ([]calendar.Goal, error)
	UpdateEvent(ctx context.Context, current calendar.Event, p calendar.Patch) (calendar.Event, error)
	DeleteEvent(ctx context.Context, id int64) (gateway.DeleteResult, error)
	SyncProvider(ctx context.Context) (gateway.SyncSummary, error)
	ConnectURL(ctx context.Context) (string, error)
	ConnectionStatus(ctx context.Context) (gateway.ConnectionStatus, error)
	DisconnectProvider(ctx context.Context) error
	FetchChatHistory(ctx context.Context, limit int) ([]calendar.ChatMessage, error)
}

// Assistant is the AI scheduling backend.
type Assistant interface {
	SmartCreate(ctx context.Context, d calendar.Draft) (gateway.ScheduleResult, error)
	BulkScheduleFromGoals(ctx context.Context, daysAhead int) (gateway.ScheduleResult, error)
	WeeklyOptimize(ctx context.Context, weekStart time.Time) (gateway.OptimizationReport, error)
	Converse(ctx context.Context, request string, s routine.Settings) (gateway.Reply, error)
}

// DefaultDaysAhead is the bulk scheduling horizon when none is given.
const DefaultDaysAhead = 7

var (
	ErrNotLoaded  = errors.New("app: event is not loaded for the selected day")
	ErrEmptyPatch = errors.New("app: nothing to change")
	ErrClosed     = errors.New("app: orchestrator closed")
	ErrBadModal   = errors.New("app: unknown modal")
)

// Options wires an Orchestrator.
type Options struct {
	Store     *calstate.Store
	Remote    Remote
	Assistant Assistant
	// Persistence stores routine settings. Optional; without it routine
	// changes only live for the session.
	Persistence store.Persistence
	Logger      *slog.Logger
}

// Orchestrator implements the calendar operations. Every result reaches the
// store through a transition; failures are returned and also recorded in the
// store's error slot.
type Orchestrator struct {
	store       *calstate.Store
	remote      Remote
	assistant   Assistant
	persistence store.Persistence
	log         *slog.Logger

	generation atomic.Uint64
	chat       *ChatLog

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup

	connectMu  sync.Mutex
	connecting bool
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("app: store required")
	}
	if opts.Remote == nil {
		return nil, errors.New("app: remote gateway required")
	}
	if opts.Assistant == nil {
		return nil, errors.New("app: assistant gateway required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:       opts.Store,
		remote:      opts.Remote,
		assistant:   opts.Assistant,
		persistence: opts.Persistence,
		log:         logging.OrDiscard(opts.Logger),
		chat:        NewChatLog(),
		bgCtx:       ctx,
		bgCancel:    cancel,
	}, nil
}

// Store returns the store the orchestrator writes to.
func (o *Orchestrator) Store() *calstate.Store {
	return o.store
}

// Snapshot is shorthand for Store().Snapshot().
func (o *Orchestrator) Snapshot() calstate.Snapshot {
	return o.store.Snapshot()
}

// Load fetches events and goals for date's day in parallel. The result is
// committed only if date is still the selected day and no later load has
// started; otherwise it is dropped without error.
func (o *Orchestrator) Load(ctx context.Context, date time.Time) error {
	day := calendar.Day(date)
	if day.IsZero() {
		day = o.store.Snapshot().SelectedDate
	}
	gen := o.generation.Add(1)
	log := o.log.With(logging.FieldOp, "load", logging.FieldDate, day.Format(calendar.DateLayout), logging.FieldGen, gen)
	start := time.Now()

	if !o.store.Snapshot().SelectedDate.Equal(day) {
		o.store.Dispatch(calstate.DateChanged{Date: day})
	}
	o.store.Dispatch(calstate.BeginLoad{})

	current := func(s calstate.Snapshot) bool {
		return s.SelectedDate.Equal(day) && o.generation.Load() == gen
	}
	end := day.AddDate(0, 0, 1)

	var (
		events []calendar.Event
		goals  []calendar.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = o.remote.FetchEvents(gctx, day, end)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = o.remote.FetchGoals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if !o.store.Commit(current, calstate.OperationFailed{Message: gateway.Message(err)}) {
			log.Debug("discarding stale load failure", "err", err)
			return nil
		}
		log.Warn("load failed", "err", err, logging.Since(start))
		return err
	}

	inWindow := events[:0:0]
	for _, e := range events {
		if e.Within(day, end) {
			inWindow = append(inWindow, e)
		}
	}
	if dropped := len(events) - len(inWindow); dropped > 0 {
		log.Debug("dropped events outside the day", "count", dropped)
	}

	if !o.store.Commit(current, calstate.EventsLoaded{Events: inWindow}, calstate.GoalsLoaded{Goals: goals}) {
		log.Debug("discarding stale load")
		return nil
	}
	log.Info("loaded", "events", len(inWindow), "goals", len(goals), logging.Since(start))
	return nil
}

// Reload loads the selected day again.
func (o *Orchestrator) Reload(ctx context.Context) error {
	return o.Load(ctx, o.store.Snapshot().SelectedDate)
}

// SelectDate moves the view to date and loads it.
func (o *Orchestrator) SelectDate(ctx context.Context, date time.Time) error {
	day := calendar.Day(date)
	if day.IsZero() {
		return o.fail("select-date", errors.New("app: date required"))
	}
	o.store.Dispatch(calstate.DateChanged{Date: day})
	return o.Load(ctx, day)
}

// Create asks the assistant to schedule d and then reloads, since one draft
// may become several events.
func (o *Orchestrator) Create(ctx context.Context, d calendar.Draft) (gateway.ScheduleResult, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return gateway.ScheduleResult{}, o.fail("create", err)
	}
	res, err := o.assistant.SmartCreate(ctx, d)
	if err != nil {
		return gateway.ScheduleResult{}, o.fail("create", err)
	}
	o.log.Info("created", logging.FieldOp, "create", "scheduled", len(res.Events))
	return res, o.Reload(ctx)
}

// Edit updates event id. The store is patched only once the backend has
// accepted the change; a failure leaves it untouched. An edit that moves the
// event off the selected day removes it from the view.
func (o *Orchestrator) Edit(ctx context.Context, id int64, p calendar.Patch) (calendar.Event, error) {
	if p.IsEmpty() {
		return calendar.Event{}, o.fail("edit", ErrEmptyPatch)
	}
	snap := o.store.Snapshot()
	current, ok := snap.Event(id)
	if !ok {
		return calendar.Event{}, o.fail("edit", ErrNotLoaded)
	}
	updated, err := o.remote.UpdateEvent(ctx, current, p)
	if err != nil {
		return calendar.Event{}, o.fail("edit", err)
	}

	day := snap.SelectedDate
	if merged := p.Apply(current); !merged.Within(day, day.AddDate(0, 0, 1)) {
		o.store.Dispatch(calstate.EventRemoved{ID: id})
	} else {
		o.store.Dispatch(calstate.EventPatched{ID: id, Patch: p})
	}
	o.log.Info("edited", logging.FieldOp, "edit", logging.FieldEventID, id)
	return updated, nil
}

// Remove deletes event id. The event leaves the store only on success.
func (o *Orchestrator) Remove(ctx context.Context, id int64) (gateway.DeleteResult, error) {
	res, err := o.remote.DeleteEvent(ctx, id)
	if err != nil {
		return gateway.DeleteResult{}, o.fail("remove", err)
	}
	o.store.Dispatch(calstate.EventRemoved{ID: id})
	log := o.log.With(logging.FieldOp, "remove", logging.FieldEventID, id)
	if res.ProviderError != "" {
		log.Warn("provider copy not deleted", "err", res.ProviderError)
	} else {
		log.Info("removed", "provider_deleted", res.ProviderDeleted)
	}
	return res, nil
}

// SyncProvider imports provider events and reloads. Reconciling by full
// reload makes repeated syncs converge on the same event set.
func (o *Orchestrator) SyncProvider(ctx context.Context) (gateway.SyncSummary, error) {
	sum, err := o.remote.SyncProvider(ctx)
	if err != nil {
		return gateway.SyncSummary{}, o.fail("sync", err)
	}
	o.log.Info("synced", logging.FieldOp, "sync", "events", sum.EventsSynced)
	return sum, o.Reload(ctx)
}

// BulkScheduleFromGoals schedules work sessions for active goals over the
// next daysAhead days and reloads.
func (o *Orchestrator) BulkScheduleFromGoals(ctx context.Context, daysAhead int) (gateway.ScheduleResult, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}
	res, err := o.assistant.BulkScheduleFromGoals(ctx, daysAhead)
	if err != nil {
		return gateway.ScheduleResult{}, o.fail("bulk-schedule", err)
	}
	o.log.Info("bulk scheduled", logging.FieldOp, "bulk-schedule", "events", len(res.Events), "goals", res.GoalsProcessed)
	return res, o.Reload(ctx)
}

// OptimizeWeek returns an analysis of the week containing weekStart, or of
// the selected day's week when weekStart is zero. It never changes events.
func (o *Orchestrator) OptimizeWeek(ctx context.Context, weekStart time.Time) (gateway.OptimizationReport, error) {
	if weekStart.IsZero() {
		weekStart = o.store.Snapshot().SelectedDate
	}
	report, err := o.assistant.WeeklyOptimize(ctx, calendar.WeekStart(weekStart))
	if err != nil {
		return gateway.OptimizationReport{}, o.fail("optimize", err)
	}
	return report, nil
}

// ToggleModal shows or hides one modal.
func (o *Orchestrator) ToggleModal(name calstate.Modal, visible bool) error {
	for _, m := range calstate.AllModals() {
		if m == name {
			o.store.Dispatch(calstate.ModalVisibility{Modal: name, Visible: visible})
			return nil
		}
	}
	return ErrBadModal
}

// ClearError resets the store's error slot.
func (o *Orchestrator) ClearError() {
	o.store.Dispatch(calstate.ErrorCleared{})
}

// Close stops background work started by the orchestrator and waits for it
// to finish.
func (o *Orchestrator) Close() {
	o.bgCancel()
	o.bg.Wait()
}

// fail records err in the store and returns it.
func (o *Orchestrator) fail(op string, err error) error {
	msg := gateway.Message(err)
	o.store.Dispatch(calstate.OperationFailed{Message: msg})
	o.log.Warn("operation failed", logging.FieldOp, op, "err", err)
	return err
}

// background runs fn on a context cancelled by either ctx or Close.
func (o *Orchestrator) background(ctx context.Context, fn func(ctx context.Context)) error {
	if o.bgCtx.Err() != nil {
		return ErrClosed
	}
	runCtx, cancel := context.WithCancel(o.bgCtx)
	stop := context.AfterFunc(ctx, cancel)
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		defer stop()
		defer cancel()
		fn(runCtx)
	}()
	return nil
}
