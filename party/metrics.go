/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use as a nil pointer, in which case nothing is recorded.
type Metrics struct {
	sessions      prometheus.Gauge
	participants  prometheus.Gauge
	connections   prometheus.Gauge
	events        *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	droppedFrames prometheus.Counter
	reaped        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchparty_sessions",
			Help: "Number of live watch party sessions",
		}),

		participants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchparty_participants",
			Help: "Number of participants across all sessions",
		}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "watchparty_connections",
			Help: "Number of open client connections",
		}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchparty_events_total",
			Help: "Client events applied, by type",
		}, []string{"type"}),

		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchparty_rejections_total",
			Help: "Client requests rejected, by reason",
		}, []string{"reason"}),

		droppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_dropped_frames_total",
			Help: "Outbound frames dropped because the connection could not take them",
		}),

		reaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "watchparty_sessions_reaped_total",
			Help: "Sessions closed by the idle reaper",
		}),
	}
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *Metrics) participantsChanged(delta int) {
	if m == nil {
		return
	}
	m.participants.Add(float64(delta))
}

func (m *Metrics) connectionsChanged(delta int) {
	if m == nil {
		return
	}
	m.connections.Add(float64(delta))
}

func (m *Metrics) event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.droppedFrames.Inc()
}

func (m *Metrics) sessionReaped() {
	if m == nil {
		return
	}
	m.reaped.Inc()
}

// Rejected records a request refused before it reached the core, such as
// one over the rate limit.
func (m *Metrics) Rejected(reason string) {
	m.rejected(reason)
}
