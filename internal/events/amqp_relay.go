package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// amqpChannel is the subset of *amqp.Channel the relay uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPRelay forwards events to a durable topic exchange, routed by event type.
type AMQPRelay struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	logger   *zap.Logger
}

// DialAMQPRelay connects to the broker and declares the exchange.
func DialAMQPRelay(url, exchange string, logger *zap.Logger) (*AMQPRelay, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel open: %w", err)
	}
	relay, err := newAMQPRelay(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	relay.conn = conn
	return relay, nil
}

func newAMQPRelay(ch amqpChannel, exchange string, logger *zap.Logger) (*AMQPRelay, error) {
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	return &AMQPRelay{ch: ch, exchange: exchange, logger: logger}, nil
}

// Handle publishes event as JSON. It satisfies EventHandler.
func (r *AMQPRelay) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp.UTC(),
		Type:         string(event.Type),
		Body:         body,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.PublishWithContext(ctx, r.exchange, string(event.Type), false, false, pub); err != nil {
		r.logger.Warn("amqp publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (r *AMQPRelay) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
