package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaBroker writes events to a topic. Relays read with a group id unique to
// this process, so every instance receives every event.
type KafkaBroker struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	groupID string
	log     logrus.FieldLogger
}

func NewKafkaBroker(writer *kafka.Writer, brokers []string, topic, groupID string, log logrus.FieldLogger) *KafkaBroker {
	return &KafkaBroker{
		writer:  writer,
		brokers: brokers,
		topic:   topic,
		groupID: groupID,
		log:     log.WithFields(logrus.Fields{"component": "kafka_broker", "topic": topic, "group": groupID}),
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, event Event) error {
	body, err := encode(event)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Name),
		Value: body,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("write kafka event failed: %w", err)
	}
	return nil
}

func (b *KafkaBroker) Relay(ctx context.Context, sink Sink) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        b.brokers,
		GroupID:        b.groupID,
		Topic:          b.topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch kafka event failed: %w", err)
		}

		relay(m.Value, sink, b.log)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			b.log.WithError(err).Warn("commit kafka offset failed")
		}
	}
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
