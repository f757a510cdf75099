package app

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/logging"
)

var (
	ErrConnectInProgress = errors.New("app: provider connection already in progress")
	ErrConnectTimeout    = errors.New("app: timed out waiting for the provider connection")
)

// ConnectOptions bounds the provider connection poll.
type ConnectOptions struct {
	// Interval between status checks. Defaults to 2s.
	Interval time.Duration
	// Timeout caps the whole wait. Defaults to 5m.
	Timeout time.Duration
	// OnURL is called with the authorization URL the user must open.
	OnURL func(url string)
}

// ConnectResult is the outcome of a provider connection attempt.
type ConnectResult struct {
	Status gateway.ConnectionStatus
	Sync   gateway.SyncSummary
	Err    error
}

// ConnectProvider starts linking the external provider. It fetches the
// authorization URL, hands it to opts.OnURL and then polls the connection
// status in the background until it reports connected, the timeout passes,
// ctx is cancelled or the orchestrator is closed. Once connected it syncs.
// The returned channel receives exactly one result.
func (o *Orchestrator) ConnectProvider(ctx context.Context, opts ConnectOptions) (<-chan ConnectResult, error) {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}

	if o.bgCtx.Err() != nil {
		return nil, ErrClosed
	}

	o.connectMu.Lock()
	if o.connecting {
		o.connectMu.Unlock()
		return nil, ErrConnectInProgress
	}
	o.connecting = true
	o.connectMu.Unlock()
	release := func() {
		o.connectMu.Lock()
		o.connecting = false
		o.connectMu.Unlock()
	}

	st, err := o.remote.ConnectionStatus(ctx)
	if err == nil && st.Connected {
		release()
		return o.finishConnect(ctx, st), nil
	}

	url, err := o.remote.ConnectURL(ctx)
	if err != nil {
		release()
		return nil, o.fail("connect", err)
	}
	if opts.OnURL != nil {
		opts.OnURL(url)
	}

	out := make(chan ConnectResult, 1)
	err = o.background(ctx, func(ctx context.Context) {
		res := o.pollConnection(ctx, opts)
		release()
		out <- res
	})
	if err != nil {
		release()
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) finishConnect(ctx context.Context, st gateway.ConnectionStatus) <-chan ConnectResult {
	out := make(chan ConnectResult, 1)
	sum, err := o.SyncProvider(ctx)
	out <- ConnectResult{Status: st, Sync: sum, Err: err}
	return out
}

func (o *Orchestrator) pollConnection(ctx context.Context, opts ConnectOptions) ConnectResult {
	log := o.log.With(logging.FieldOp, "connect")
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			if errors.Is(err, context.DeadlineExceeded) {
				err = ErrConnectTimeout
				o.store.Dispatch(calstate.OperationFailed{Message: "Timed out waiting for the calendar connection. Please try again."})
			}
			log.Info("connect poll stopped", "err", err)
			return ConnectResult{Err: err}
		case <-ticker.C:
		}

		st, err := o.remote.ConnectionStatus(ctx)
		if err != nil {
			if gateway.IsKind(err, gateway.KindUnauthorized) {
				return ConnectResult{Err: o.fail("connect", err)}
			}
			log.Debug("connection status check failed", "err", err)
			continue
		}
		if !st.Connected {
			continue
		}
		log.Info("provider connected")
		sum, err := o.SyncProvider(ctx)
		return ConnectResult{Status: st, Sync: sum, Err: err}
	}
}

// DisconnectProvider unlinks the external provider.
func (o *Orchestrator) DisconnectProvider(ctx context.Context) error {
	if err := o.remote.DisconnectProvider(ctx); err != nil {
		return o.fail("disconnect", err)
	}
	return nil
}
