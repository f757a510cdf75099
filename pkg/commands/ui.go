package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tableflip.dev/daypilot/pkg/config"
	"tableflip.dev/daypilot/pkg/tui"
)

func addUI(topLevel *cobra.Command) {
	history := 50

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
daypilot ui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			var logFile *os.File
			s, err := openSession(func(cfg *config.Config) (io.Writer, error) {
				if err := os.MkdirAll(cfg.BasePath(), 0o755); err != nil {
					return nil, err
				}
				f, err := os.OpenFile(filepath.Join(cfg.BasePath(), "daypilot.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				logFile = f
				return f, err
			})
			if err != nil {
				if logFile != nil {
					_ = logFile.Close()
				}
				return err
			}
			defer func() {
				s.Close()
				_ = logFile.Close()
			}()
			return tui.Run(cmd.Context(), tui.Options{
				Orchestrator: s.orch,
				SyncCron:     s.cfg.SyncCron,
				History:      history,
				Logger:       s.log,
			})
		},
	}

	cmd.Flags().IntVar(&history, "history", history, "Earlier chat messages to load.")
	topLevel.AddCommand(cmd)
}
