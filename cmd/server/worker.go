package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run only the CV matching and notification queue workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newContainer(ctx, zlog)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.runWorkers(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			zlog.Info("workers stopped")
			return nil
		},
	}
}
