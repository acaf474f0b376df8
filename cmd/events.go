/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/campusnav/apiserver/config"
	"github.com/campusnav/apiserver/internal/logging"
	"github.com/campusnav/apiserver/internal/mq"
	"github.com/campusnav/apiserver/internal/services"
)

// eventsCmd tails account events from the configured broker.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Log account events published by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Log, os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_DRIVER is not set")
		}
		defer broker.Close()

		log.Info().Str("channel", cfg.MQ.AccountChannel).Msg("listening for account events")
		err = broker.Subscribe(ctx, cfg.MQ.AccountChannel, logAccountEvent(log))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func logAccountEvent(log zerolog.Logger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		var event services.AccountEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID).Msg("drop malformed account event")
			return nil
		}
		ev := log.Info().
			Str("message_id", msg.ID).
			Str("type", event.Type).
			Str("account_id", event.AccountID).
			Str("email", event.Email).
			Time("at", event.At)
		if event.LockUntil != nil {
			ev = ev.Time("lock_until", *event.LockUntil)
		}
		ev.Msg("account event")
		return nil
	}
}
