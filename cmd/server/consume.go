package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/todo-api/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append todo change events from RabbitMQ to a log file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("consuming todo events", "queue", cfg.Events.Queue, "log", cfg.Events.LogPath)
		err = queue.StartTodoConsumer(ctx, queue.ConsumerConfig{
			URL:     cfg.Events.URL,
			Queue:   cfg.Events.Queue,
			LogPath: cfg.Events.LogPath,
		}, logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
