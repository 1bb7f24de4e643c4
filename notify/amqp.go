package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/meetingmesh/meetingmesh/logging"
)

// AMQPPublisher publishes envelopes to a topic exchange. The exchange is
// declared durable at construction time and the channel is put in confirm
// mode so broker-side failures surface as errors.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   logging.Logger
}

var _ Publisher = (*AMQPPublisher)(nil)

// AMQPOptions configures an AMQPPublisher.
type AMQPOptions struct {
	// Exchange is the topic exchange name. Defaults to "meetingmesh.events".
	Exchange string
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
}

// NewAMQPPublisher dials the broker and prepares the exchange.
func NewAMQPPublisher(url string, optFns ...func(o *AMQPOptions)) (*AMQPPublisher, error) {
	opts := AMQPOptions{
		Exchange: "meetingmesh.events",
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notify: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notify: declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("notify: enable confirms: %w", err)
	}

	return &AMQPPublisher{conn: conn, exchange: opts.Exchange, logger: opts.Logger}, nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("notify: open channel: %w", err)
	}
	defer ch.Close()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CorrelationID == "" {
		msg.CorrelationID = uuid.NewString()
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: marshal envelope: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msg.ID,
		CorrelationId: msg.CorrelationID,
		Timestamp:     msg.OccurredAt,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("notify: publish %s: %w", key, err)
	}
	p.logger.Debug("published event", "key", key, "exchange", p.exchange, "message_id", msg.ID)
	return nil
}

// Close implements Publisher.
func (p *AMQPPublisher) Close() error { return p.conn.Close() }
