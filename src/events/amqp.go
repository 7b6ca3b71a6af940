package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fintrack-server/src/logger"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPBridge mirrors change events between server instances through a fanout
// exchange. Each instance consumes from its own exclusive queue.
type AMQPBridge struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	broker   *Broker
	log      *logger.Logger
}

func DialAMQP(url, exchange string, broker *Broker, log *logger.Logger) (*AMQPBridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	b := &AMQPBridge{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		broker:   broker,
		log:      log.WithComponent(logger.ComponentAMQP),
	}
	if err := b.setup(); err != nil {
		b.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return b, nil
}

func (b *AMQPBridge) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := b.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	b.queue = q.Name

	if err := b.channel.QueueBind(b.queue, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (b *AMQPBridge) Forward(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = b.channel.PublishWithContext(ctx,
		b.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   e.At,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	b.log.DebugContext(ctx, "forwarded change event",
		logger.FieldEntity, e.Entity,
		logger.FieldUserID, e.UserID,
		logger.FieldOperation, e.Op)
	return nil
}

// Run consumes events from other instances until ctx is done.
func (b *AMQPBridge) Run(ctx context.Context) error {
	msgs, err := b.channel.Consume(
		b.queue, // queue
		"",      // consumer
		false,   // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	b.log.InfoContext(ctx, "consuming change events", "queue", b.queue, "exchange", b.exchange)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			var e Event
			if err := json.Unmarshal(delivery.Body, &e); err != nil {
				b.log.ErrorContext(ctx, "dropping malformed change event", logger.FieldError, err)
				delivery.Nack(false, false)
				continue
			}
			if e.Origin != b.broker.Origin() {
				b.broker.Deliver(e)
			}
			delivery.Ack(false)
		}
	}
}

func (b *AMQPBridge) Close() error {
	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
