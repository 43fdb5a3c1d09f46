// README: Prometheus metrics shared by the API process.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rides_created_total",
		Help: "Total rides requested",
	})
	RideTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Total applied ride transitions by target status",
	}, []string{"to"})
	RideConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ride_transition_conflicts_total",
		Help: "Total transitions rejected by the state guard",
	})
	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "location_updates_total",
		Help: "Total accepted driver location updates",
	})
	LocationStaleDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "location_stale_dropped_total",
		Help: "Total location updates dropped as older than the stored sample",
	})
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route, method, and status",
	}, []string{"route", "method", "status"})
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	WebsocketSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_ride_subscribers",
		Help: "Currently connected ride status subscribers",
	})
)
