package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"msgboard/internal/metrics"
)

const DefaultBuffer = 16

var ErrHubClosed = errors.New("notification hub closed")

// Hub fans events out to the listeners subscribed at publish time. A listener
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
	log    logrus.FieldLogger
}

type Subscription struct {
	id   uint64
	hub  *Hub
	ch   chan Event
	once sync.Once
}

func NewHub(buffer int, log logrus.FieldLogger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		log:    log.WithField("component", "notify_hub"),
	}
}

func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	h.nextID++
	sub := &Subscription{id: h.nextID, hub: h, ch: make(chan Event, h.buffer)}
	h.subs[sub.id] = sub
	metrics.Listeners.Inc()
	return sub, nil
}

func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}
	h.Deliver(event)
	return nil
}

func (h *Hub) Deliver(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			metrics.NotificationsDropped.Inc()
			h.log.WithFields(logrus.Fields{"subscription": id, "event": event.Name}).Warn("listener buffer full, event dropped")
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe and Publish calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[uint64]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()
}

// Events is closed once the subscription or its hub is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.hub.remove(s)
	s.close()
}

func (s *Subscription) close() {
	s.once.Do(func() {
		metrics.Listeners.Dec()
		// remove runs before close, so no Deliver holds this channel.
		close(s.ch)
	})
}
