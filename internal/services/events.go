package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Account event types.
const (
	EventAccountRegistered = "account.registered"
	EventAccountLocked     = "account.locked"
)

// AccountEvent is the payload published on the account channel.
type AccountEvent struct {
	Type      string     `json:"type"`
	AccountID string     `json:"accountId"`
	Email     string     `json:"email"`
	At        time.Time  `json:"at"`
	LockUntil *time.Time `json:"lockUntil,omitempty"`
}

// MessageKey keeps the events of one account in order on brokers that
// support ordering keys.
func (e AccountEvent) MessageKey() string {
	return e.AccountID
}

// EventPublisher is satisfied by *mq.MQ.
type EventPublisher interface {
	PublishJSON(ctx context.Context, channel, eventType string, v any) (string, error)
}

// AccountEvents publishes account lifecycle events. A nil *AccountEvents
// is valid and drops every event.
type AccountEvents struct {
	publisher EventPublisher
	channel   string
	log       zerolog.Logger
}

func NewAccountEvents(publisher EventPublisher, channel string, log zerolog.Logger) *AccountEvents {
	return &AccountEvents{publisher: publisher, channel: channel, log: log}
}

// Publish sends event. Failures are logged and never reach the caller.
func (e *AccountEvents) Publish(ctx context.Context, event AccountEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	id, err := e.publisher.PublishJSON(ctx, e.channel, event.Type, event)
	if err != nil {
		e.log.Error().Err(err).
			Str("event", event.Type).
			Str("account_id", event.AccountID).
			Msg("publish account event")
		return
	}
	e.log.Debug().Str("event", event.Type).Str("message_id", id).Msg("account event published")
}
