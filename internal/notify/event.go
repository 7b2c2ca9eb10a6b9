package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"msgboard/internal/model"
)

const EventMessageUpdate = "messageUpdate"

// Event is the frame sent to every listener.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"data"`
}

type MessageUpdatePayload struct {
	Message model.Message `json:"message"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Sink receives events relayed from a broker.
type Sink interface {
	Deliver(event Event)
}

// Relayer copies events from a broker into a Sink until ctx is done.
type Relayer interface {
	Relay(ctx context.Context, sink Sink) error
}

func NewMessageUpdate(message model.Message) (Event, error) {
	payload, err := json.Marshal(MessageUpdatePayload{Message: message})
	if err != nil {
		return Event{}, fmt.Errorf("marshal message update failed: %w", err)
	}
	return Event{Name: EventMessageUpdate, Payload: payload}, nil
}

func encode(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event failed: %w", err)
	}
	return body, nil
}

func decode(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event failed: %w", err)
	}
	if event.Name == "" {
		return Event{}, fmt.Errorf("unmarshal event failed: missing event name")
	}
	return event, nil
}

// relay decodes a broker payload and hands it to sink. A malformed payload is
// logged and skipped.
func relay(body []byte, sink Sink, log logrus.FieldLogger) bool {
	event, err := decode(body)
	if err != nil {
		log.WithError(err).WithField("bytes", len(body)).Warn("skip malformed event")
		return false
	}
	sink.Deliver(event)
	return true
}
