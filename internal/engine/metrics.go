package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/tubenest/internal/model"
)

// Metrics exposes solver statistics to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	nodes    prometheus.Counter
	duration prometheus.Histogram
	tubes    prometheus.Gauge
	gap      prometheus.Gauge
}

// NewMetrics creates the solver collectors and registers them on reg
// (prometheus.DefaultRegisterer if nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tubenest",
			Subsystem: "solver",
			Name:      "runs_total",
			Help:      "Completed nesting runs by result status.",
		}, []string{"status"}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tubenest",
			Subsystem: "solver",
			Name:      "nodes_total",
			Help:      "Branch-and-bound nodes expanded.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tubenest",
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Wall time of nesting runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4.4min
		}),
		tubes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tubenest",
			Subsystem: "solver",
			Name:      "tubes",
			Help:      "Tube count of the last run.",
		}),
		gap: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tubenest",
			Subsystem: "solver",
			Name:      "gap_tubes",
			Help:      "Tube count minus proven lower bound of the last run.",
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.nodes, m.duration, m.tubes, m.gap} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register solver metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(r model.NestResult) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(r.Status)).Inc()
	m.nodes.Add(float64(r.Nodes))
	m.duration.Observe(r.Elapsed.Seconds())
	m.tubes.Set(float64(r.TubeCount))
	m.gap.Set(float64(r.Gap()))
}
