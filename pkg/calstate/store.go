package calstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tableflip.dev/daypilot/pkg/logging"
	"tableflip.dev/daypilot/pkg/routine"
)

// Options configures a Store.
type Options struct {
	Routine routine.Settings
	// Today seeds the selected date. Zero means time.Now.
	Today time.Time
	// Strict panics on actions Reduce rejects. Production builds log and
	// drop them instead.
	Strict bool
	Logger *slog.Logger
}

// Store serializes transitions over one Snapshot and fans new snapshots out
// to subscribers. Create one per view; it is not a process global.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	strict bool
	log    *slog.Logger

	subs   map[int]chan Snapshot
	nextID int
	closed bool
	done   chan struct{}
}

// New returns a Store holding the initial snapshot.
func New(opts Options) *Store {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	return &Store{
		snap:   Initial(opts.Routine, today),
		strict: opts.Strict,
		log:    logging.OrDiscard(opts.Logger),
		subs:   make(map[int]chan Snapshot),
		done:   make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Dispatch applies actions in order.
func (s *Store) Dispatch(actions ...Action) {
	s.Commit(nil, actions...)
}

// Commit applies actions only if guard accepts the current state. The guard
// runs under the same lock as the transitions, so nothing can change the
// state between the check and the commit. guard must not retain or modify
// the snapshot it is given. A nil guard always commits.
func (s *Store) Commit(guard func(Snapshot) bool, actions ...Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guard != nil && !guard(s.snap) {
		return false
	}
	changed := false
	for _, a := range actions {
		next, err := Reduce(s.snap, a)
		if err != nil {
			s.reject(a, err)
			continue
		}
		s.snap = next
		changed = true
	}
	if changed {
		s.publishLocked()
	}
	return true
}

func (s *Store) reject(a Action, err error) {
	if s.strict {
		panic(err)
	}
	desc := "<nil>"
	if a != nil {
		desc = a.Describe()
	}
	s.log.Error("calstate: dropped action", "action", desc, "err", err)
}

// Subscribe returns a channel receiving the latest snapshot after every
// change. Slow readers only see the most recent snapshot. The channel closes
// when ctx is done or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}()
	return ch
}

func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		snap := s.snap.Clone()
		select {
		case ch <- snap:
		default:
			// replace the stale value the reader has not picked up yet
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Close closes every subscription. The store stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// IsUnknown reports whether err came from an unhandled action.
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknownAction)
}
