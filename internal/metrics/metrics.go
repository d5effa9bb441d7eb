package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Refresh loop
	RefreshRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_refresh_runs_total",
			Help: "Total number of refresh loop iterations",
		},
		[]string{"status"}, // status: success|error
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leverquest_refresh_duration_seconds",
			Help:    "Refresh loop iteration duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// Positions
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leverquest_open_positions",
			Help: "Number of open leveraged positions",
		},
	)

	PositionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_position_events_total",
			Help: "Position lifecycle events",
		},
		[]string{"action"}, // action: open|close|liquidate|danger
	)

	// Market
	MarketPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leverquest_market_price",
			Help: "Latest price per symbol",
		},
		[]string{"symbol"},
	)

	MarketSourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_market_source_errors_total",
			Help: "Market source request failures",
		},
		[]string{"endpoint"},
	)

	// Events & stream
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_events_published_total",
			Help: "Events published on the in-process bus",
		},
		[]string{"topic"},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_events_dropped_total",
			Help: "Events dropped because a subscriber was too slow",
		},
		[]string{"topic"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "leverquest_stream_clients",
			Help: "Connected websocket stream clients",
		},
	)

	AlertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leverquest_alerts_sent_total",
			Help: "Alerts delivered to notification channels",
		},
		[]string{"kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RefreshRuns,
		RefreshDuration,
		OpenPositions,
		PositionEvents,
		MarketPrice,
		MarketSourceErrors,
		EventsPublished,
		EventsDropped,
		StreamClients,
		AlertsSent,
	)
}

// Handler returns HTTP handler for Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
