package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/autosync"
	"tableflip.dev/daypilot/pkg/logging"
)

// Options configures a terminal session.
type Options struct {
	Orchestrator *app.Orchestrator
	// SyncCron schedules provider syncs while the view is open. Empty
	// disables them.
	SyncCron string
	// History is how many earlier chat messages to load.
	History int
	Logger  *slog.Logger
}

// Run shows the day view until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Orchestrator == nil {
		return errors.New("tui: orchestrator required")
	}
	log := logging.OrDiscard(opts.Logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.SyncCron != "" {
		s, err := autosync.New(opts.SyncCron, opts.Orchestrator, log)
		if err != nil {
			return err
		}
		s.Start(ctx)
		defer s.Stop()
	}
	if err := opts.Orchestrator.WatchRoutine(ctx); err != nil {
		log.Warn("not watching routine settings", "err", err)
	}

	m := New(ctx, opts.Orchestrator).WithHistory(opts.History)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
