package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/roomescape-reservation/internal/queue"
)

func newConsumeCmd(a *app) *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append reservation events from the broker to a log file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if logPath == "" {
				logPath = a.cfg.Events.LogPath
			}
			c := queue.NewConsumer(a.cfg.Events.URL, a.cfg.Events.Queue, logPath, a.log)
			a.log.Info().Str("queue", a.cfg.Events.Queue).Str("log_path", logPath).Msg("starting consumer")
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log-path", "", "file events are appended to (default EVENTS_LOG_PATH)")
	return cmd
}
