package notify

import (
	"context"

	"msgboard/internal/metrics"
)

type instrumented struct {
	next   Publisher
	driver string
}

// Instrument counts every publish attempt by driver and result.
func Instrument(next Publisher, driver string) Publisher {
	return &instrumented{next: next, driver: driver}
}

func (p *instrumented) Publish(ctx context.Context, event Event) error {
	err := p.next.Publish(ctx, event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.NotificationsPublished.WithLabelValues(p.driver, result).Inc()
	return err
}
