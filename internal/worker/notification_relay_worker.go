package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"msgboard/internal/notify"
)

const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// NotificationRelayWorker keeps a broker relay running and restarts it with
// backoff when the broker connection fails.
type NotificationRelayWorker struct {
	source notify.Relayer
	sink   notify.Sink
	log    logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNotificationRelayWorker(source notify.Relayer, sink notify.Sink, log logrus.FieldLogger) *NotificationRelayWorker {
	return &NotificationRelayWorker{
		source: source,
		sink:   sink,
		log:    log.WithField("component", "notification_relay"),
	}
}

func (w *NotificationRelayWorker) Start(ctx context.Context) {
	if w.cancel != nil {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		delay := minRetryDelay
		for {
			started := time.Now()
			err := w.source.Relay(workerCtx, w.sink)
			if workerCtx.Err() != nil {
				return
			}
			if time.Since(started) > maxRetryDelay {
				delay = minRetryDelay
			}
			w.log.WithError(err).WithField("retry_in", delay.String()).Warn("relay stopped, restarting")

			select {
			case <-workerCtx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
		}
	}()
}

func (w *NotificationRelayWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
