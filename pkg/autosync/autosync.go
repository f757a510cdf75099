// Package autosync runs provider syncs on a cron schedule for long-lived
// sessions.
package autosync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/logging"
)

// Syncer imports provider events.
type Syncer interface {
	SyncProvider(ctx context.Context) (gateway.SyncSummary, error)
}

// Scheduler triggers Syncer on a cron spec. Runs never overlap; a tick
// that arrives while a sync is still running is skipped.
type Scheduler struct {
	spec   string
	syncer Syncer
	log    *slog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	runs    int
}

// New parses spec (standard five field cron, or descriptors like "@hourly")
// and returns a stopped Scheduler.
func New(spec string, s Syncer, log *slog.Logger) (*Scheduler, error) {
	if s == nil {
		return nil, errors.New("autosync: syncer required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "autosync: bad schedule %q", spec)
	}
	log = logging.OrDiscard(log).With(logging.FieldOp, "autosync")
	sc := &Scheduler{
		spec:   spec,
		syncer: s,
		log:    log,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := sc.cron.AddFunc(spec, sc.run); err != nil {
		return nil, errors.Wrapf(err, "autosync: bad schedule %q", spec)
	}
	return sc, nil
}

// Start begins scheduling. Syncs run on a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()
	s.log.Info("scheduled provider sync", "schedule", s.spec)
}

// Stop halts scheduling, cancels an in-flight sync and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.cron.Stop().Done()
}

// Runs is the number of syncs attempted so far.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.runs++
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	sum, err := s.syncer.SyncProvider(ctx)
	if err != nil {
		s.log.Warn("scheduled sync failed", "err", err)
		return
	}
	s.log.Info("scheduled sync", "events", sum.EventsSynced)
}
