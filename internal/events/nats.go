package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NatsPublisher publishes order events to NATS subjects under a
// configurable prefix: {prefix}.created, {prefix}.payment_updated.
type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNatsPublisher connects to the NATS server and returns a publisher.
func NewNatsPublisher(url, subjectPrefix string, logger zerolog.Logger) (*NatsPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("oakline-orders"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NatsPublisher{
		conn:   conn,
		prefix: subjectPrefix,
		logger: logger.With().Str("component", "events").Logger(),
	}, nil
}

// OrderCreated publishes an order-created event.
func (p *NatsPublisher) OrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	return p.publish(p.prefix+".created", event)
}

// OrderPaymentUpdated publishes a payment-updated event.
func (p *NatsPublisher) OrderPaymentUpdated(ctx context.Context, event OrderPaymentUpdatedEvent) error {
	return p.publish(p.prefix+".payment_updated", event)
}

func (p *NatsPublisher) publish(subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

// Close drains and closes the NATS connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to drain nats connection")
	}
}
