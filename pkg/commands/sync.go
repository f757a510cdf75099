package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daypilot/pkg/app"
	"tableflip.dev/daypilot/pkg/commands/options"
)

func addSync(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "sync",
		Short:   "Import events from the connected provider calendar.",
		Long:    base.Wrap80("Import events from the connected provider calendar. Running it again imports nothing new."),
		Example: "\ndaypilot sync\n",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				sum, err := s.orch.SyncProvider(ctx)
				if err != nil {
					return err
				}
				if oo.JSON {
					return options.Encode(stdout(cmd), options.FormatJSON, sum)
				}
				msg := sum.Message
				if msg == "" {
					msg = fmt.Sprintf("Synced %d events.", sum.EventsSynced)
				}
				_, _ = fmt.Fprintln(stdout(cmd), msg)
				return nil
			})
			return oo.HandleError(err)
		},
	}

	options.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addConnect(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Link the provider calendar.",
		Long: base.Wrap80("Print the authorization URL for the provider calendar and wait until " +
			"the connection is confirmed, then sync. Waiting stops after connect.timeout or on interrupt."),
		Example: "\ndaypilot connect\n",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				w := stdout(cmd)
				ch, err := s.orch.ConnectProvider(ctx, app.ConnectOptions{
					Interval: s.cfg.ConnectInterval,
					Timeout:  s.cfg.ConnectTimeout,
					OnURL: func(url string) {
						_, _ = fmt.Fprintf(w, "Open this URL to authorize access:\n\n  %s\n\nWaiting for confirmation...\n", color.CyanString(url))
					},
				})
				if err != nil {
					return err
				}
				res := <-ch
				if res.Err != nil {
					return res.Err
				}
				_, _ = fmt.Fprintf(w, "%s, synced %d events.\n", color.GreenString("Connected"), res.Sync.EventsSynced)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addDisconnect(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Unlink the provider calendar.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return withSession(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.orch.DisconnectProvider(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout(cmd), "Disconnected.")
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
