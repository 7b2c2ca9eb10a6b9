package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitMQBroker publishes to a fanout exchange. Each relay consumes from its
// own exclusive queue so every instance sees every event.
type RabbitMQBroker struct {
	conn     *amqp.Connection
	exchange string
	log      logrus.FieldLogger
}

func NewRabbitMQBroker(conn *amqp.Connection, exchange string, log logrus.FieldLogger) *RabbitMQBroker {
	return &RabbitMQBroker{
		conn:     conn,
		exchange: exchange,
		log:      log.WithFields(logrus.Fields{"component": "rabbitmq_broker", "exchange": exchange}),
	}
}

func (b *RabbitMQBroker) declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		b.exchange,
		amqp.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange failed: %w", err)
	}
	return nil
}

func (b *RabbitMQBroker) Publish(ctx context.Context, event Event) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := b.declare(ch); err != nil {
		return err
	}

	body, err := encode(event)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		b.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Type:        event.Name,
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish event failed: %w", err)
	}
	return nil
}

func (b *RabbitMQBroker) Relay(ctx context.Context, sink Sink) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open relay channel failed: %w", err)
	}
	defer ch.Close()

	if err := b.declare(ch); err != nil {
		return err
	}

	queue, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare relay queue failed: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind relay queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",
		true,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume relay queue failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq deliveries closed")
			}
			relay(d.Body, sink, b.log)
		}
	}
}
