package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjudge-oj/usersvc/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect user lifecycle events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print user events from the configured broker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.NewFromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		out := cmd.OutOrStdout()
		slog.Info("tailing user events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.UserEventsChannel)
		err = broker.Subscribe(ctx, cfg.MQ.UserEventsChannel, func(_ context.Context, msg mq.Message) error {
			event, err := mq.DecodeUserEvent(msg)
			if err != nil {
				slog.Warn("dropping undecodable event", "message_id", msg.ID, "error", err)
				return nil
			}
			fmt.Fprintf(out, "%s\t%s\tuser=%d\t%s\n",
				event.OccurredAt.Format(time.RFC3339), event.Type, event.UserID, event.Email)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
