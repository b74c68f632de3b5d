// Package metrics exposes relay counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stagehand"

// Drop reasons.
const (
	ReasonNoTarget     = "no_target"
	ReasonBackpressure = "backpressure"
	ReasonBadMessage   = "bad_message"
	ReasonUnregistered = "unregistered"
	ReasonRateLimited  = "rate_limited"
)

type Metrics struct {
	Connections   prometheus.Gauge
	Participants  prometheus.Gauge
	Received      *prometheus.CounterVec
	Sent          *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	Photos        prometheus.Gauge
	HandlerPanics prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live websocket connections.",
		}),
		Participants: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Connections registered as participants.",
		}),
		Received: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by event name.",
		}, []string{"event"}),
		Sent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound frames queued by event name.",
		}, []string{"event"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages not delivered, by reason.",
		}, []string{"reason"}),
		Photos: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "photos_stored",
			Help:      "Photos held for the current round.",
		}),
		HandlerPanics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Event handlers that panicked and were recovered.",
		}),
	}
}

// NewNoop returns metrics bound to a throwaway registry.
func NewNoop() *Metrics {
	return New(prometheus.NewRegistry())
}
