package mq

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/campusnav/apiserver/config"
)

// Broker drivers.
const (
	DriverRabbitMQ = "rabbitmq"
	DriverPubSub   = "pubsub"
)

// Message attributes set by PublishJSON.
const (
	AttrType        = "type"
	AttrContentType = "content-type"
	AttrKey         = "key"
)

// Keyed is implemented by payloads that must be delivered in order
// relative to other payloads with the same key.
type Keyed interface {
	MessageKey() string
}

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects to the broker selected by cfg.Driver. It returns nil, nil
// when no driver is configured.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case DriverRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	case DriverPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq driver %q", cfg.Driver)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// PublishJSON encodes v and publishes it, tagging the message with its
// event type and content type. A Keyed payload also carries its key.
func (m *MQ) PublishJSON(ctx context.Context, channel, eventType string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	attrs := map[string]string{
		AttrType:        eventType,
		AttrContentType: jsonContentType,
	}
	if keyed, ok := v.(Keyed); ok && keyed.MessageKey() != "" {
		attrs[AttrKey] = keyed.MessageKey()
	}
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.backend.Close()
}
