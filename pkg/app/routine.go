package app

import (
	"context"

	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/logging"
	"tableflip.dev/daypilot/pkg/routine"
	"tableflip.dev/daypilot/pkg/store"
)

// UpdateRoutine validates, persists and applies new routine settings.
func (o *Orchestrator) UpdateRoutine(ctx context.Context, s routine.Settings) error {
	if err := s.Validate(); err != nil {
		return o.fail("update-routine", err)
	}
	if o.persistence != nil {
		if err := o.persistence.SaveRoutine(s); err != nil {
			return o.fail("update-routine", err)
		}
	}
	o.store.Dispatch(calstate.RoutineUpdated{Settings: s})
	return nil
}

// WatchRoutine follows routine settings written by other sessions until ctx
// is cancelled or the orchestrator closes. The last write wins.
func (o *Orchestrator) WatchRoutine(ctx context.Context) error {
	if o.persistence == nil {
		return nil
	}
	if err := o.bgCtx.Err(); err != nil {
		return ErrClosed
	}
	watchCtx, cancel := context.WithCancel(o.bgCtx)
	ch, err := o.persistence.Watch(watchCtx)
	if err != nil {
		cancel()
		return err
	}
	return o.background(ctx, func(ctx context.Context) {
		defer cancel()
		log := o.log.With(logging.FieldOp, "watch-routine")
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Type != store.EventRoutineChanged && ev.Type != store.EventInvalidated {
					continue
				}
				s, err := o.persistence.LoadRoutine()
				if err != nil {
					log.Warn("reload routine failed", "err", err)
					continue
				}
				if s != o.store.Snapshot().Routine {
					log.Info("routine changed on disk")
					o.store.Dispatch(calstate.RoutineUpdated{Settings: s})
				}
			}
		}
	})
}
