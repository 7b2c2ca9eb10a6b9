package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBroker broadcasts events over a redis pub/sub channel.
type RedisBroker struct {
	client  *redis.Client
	channel string
	log     logrus.FieldLogger
}

func NewRedisBroker(client *redis.Client, channel string, log logrus.FieldLogger) *RedisBroker {
	return &RedisBroker{
		client:  client,
		channel: channel,
		log:     log.WithFields(logrus.Fields{"component": "redis_broker", "channel": channel}),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		return fmt.Errorf("publish redis event failed: %w", err)
	}
	return nil
}

func (b *RedisBroker) Relay(ctx context.Context, sink Sink) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe redis channel failed: %w", err)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			relay([]byte(msg.Payload), sink, b.log)
		}
	}
}
