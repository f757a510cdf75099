package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/calstate"
	"tableflip.dev/daypilot/pkg/config"
	"tableflip.dev/daypilot/pkg/gateway"
	"tableflip.dev/daypilot/pkg/logging"
	"tableflip.dev/daypilot/pkg/store"
)

// session is everything one command invocation needs.
type session struct {
	cfg         *config.Config
	log         *slog.Logger
	persistence store.Persistence
	orch        *app.Orchestrator
}

// loadConfig is swapped in tests.
var loadConfig = config.Load

func openSession(logTo func(cfg *config.Config) (io.Writer, error)) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	var w io.Writer = os.Stderr
	if logTo != nil {
		if w, err = logTo(cfg); err != nil {
			return nil, err
		}
	}
	log := logging.New(level, w)

	p, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	settings, err := p.LoadRoutine()
	if err != nil {
		log.Warn("using default routine", "err", err)
	}

	client, err := gateway.NewClient(gateway.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout,
		Rate:    cfg.APIRate,
		Burst:   cfg.APIBurst,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	st := calstate.New(calstate.Options{
		Routine: settings,
		Strict:  cfg.Strict(),
		Logger:  log,
	})
	orch, err := app.New(app.Options{
		Store:       st,
		Remote:      gateway.NewRemote(client),
		Assistant:   gateway.NewAssistant(client),
		Persistence: p,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, persistence: p, orch: orch}, nil
}

func (s *session) Close() {
	s.orch.Close()
	s.orch.Store().Close()
}

// withSession opens a session, runs fn and closes it.
func withSession(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
