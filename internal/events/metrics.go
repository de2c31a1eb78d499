package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsSink counts events by kind in a prometheus registry
type MetricsSink struct {
	total    *prometheus.CounterVec
	failures *prometheus.CounterVec
	written  prometheus.Gauge
}

// NewMetricsSink registers the tracker's event metrics with reg
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	factory := promauto.With(reg)
	return &MetricsSink{
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leaguetracker_events_total",
			Help: "Total number of tracker events by kind",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leaguetracker_failures_total",
			Help: "Total number of isolated failures by kind",
		}, []string{"kind"}),
		written: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leaguetracker_last_phase_snapshots_written",
			Help: "Snapshots written by the most recent snapshot phase",
		}),
	}
}

func (s *MetricsSink) Emit(_ context.Context, ev Event) {
	s.total.WithLabelValues(string(ev.Kind)).Inc()
	if ev.Err != nil {
		s.failures.WithLabelValues(string(ev.Kind)).Inc()
	}
	if ev.Kind == SnapshotPhaseDone {
		s.written.Set(float64(ev.Count))
	}
}
