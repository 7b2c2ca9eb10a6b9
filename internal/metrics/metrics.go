package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgboard",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msgboard",
		Name:      "notifications_published_total",
		Help:      "Notification events handed to the broker, by driver and result.",
	}, []string{"driver", "result"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "msgboard",
		Name:      "notifications_dropped_total",
		Help:      "Events not delivered to a listener because its buffer was full.",
	})

	Listeners = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "msgboard",
		Name:      "listeners",
		Help:      "Currently connected real-time listeners.",
	})
)
