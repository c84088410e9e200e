package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity.
type Metrics struct {
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	Nodes       *prometheus.CounterVec
	Exceptions  *prometheus.CounterVec
	Signals     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "runs_total",
			Help:      "Driver invocations by outcome (ok, aborted, error).",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "arbor",
			Name:      "run_duration_seconds",
			Help:      "Wall time of driver invocations.",
			Buckets:   prometheus.DefBuckets,
		}),
		Nodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "nodes_executed_total",
			Help:      "Nodes whose logic ran, by element type.",
		}, []string{"type"}),
		Exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "exceptions_total",
			Help:      "Domain exceptions by type and whether a node handled them.",
		}, []string{"type", "handled"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Name:      "signals_total",
			Help:      "Control signals consumed by the driver.",
		}, []string{"signal"}),
	}
	for _, c := range []prometheus.Collector{m.Runs, m.RunDuration, m.Nodes, m.Exceptions, m.Signals} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns the lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			outcome := "ok"
			switch {
			case e.Err != nil:
				outcome = "error"
			case e.Aborted:
				outcome = "aborted"
			}
			m.Runs.WithLabelValues(outcome).Inc()
			m.RunDuration.Observe(e.Elapsed.Seconds())
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.Nodes.WithLabelValues(e.NodeType).Inc()
		},
		OnException: func(ctx context.Context, e *domain.ExceptionEvent) {
			m.Exceptions.WithLabelValues(e.ExceptionType, strconv.FormatBool(e.Handled)).Inc()
		},
		OnSignal: func(ctx context.Context, e *domain.SignalEvent) {
			m.Signals.WithLabelValues(e.Signal).Inc()
		},
	}
}
