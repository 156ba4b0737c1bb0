package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayMetrics tracks app-management operations and staged artifacts.
// A nil *GatewayMetrics is valid and records nothing.
type GatewayMetrics struct {
	OperationsTotal  *prometheus.CounterVec
	AppsListed       prometheus.Gauge
	ArtifactsStaged  prometheus.Counter
	ArtifactsRemoved *prometheus.CounterVec
	ServerRestarts   prometheus.Counter
}

// NewGatewayMetrics creates and registers gateway metrics on the given registry.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "operations_total",
			Help:      "Total gateway operations, by operation and result.",
		}, []string{"operation", "result"}),
		AppsListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "apps_listed",
			Help:      "Number of applications returned by the last directory listing.",
		}),
		ArtifactsStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staging",
			Name:      "artifacts_staged_total",
			Help:      "Total uploaded archives written to the staging directory.",
		}),
		ArtifactsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staging",
			Name:      "artifacts_removed_total",
			Help:      "Total staged archives removed, by reason.",
		}, []string{"reason"}),
		ServerRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_restarts_total",
			Help:      "Total restarts of the control API server after a failure.",
		}),
	}

	reg.MustRegister(m.OperationsTotal, m.AppsListed, m.ArtifactsStaged, m.ArtifactsRemoved, m.ServerRestarts)
	return m
}

func (m *GatewayMetrics) Operation(op string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.OperationsTotal.WithLabelValues(op, result).Inc()
}

func (m *GatewayMetrics) Listed(n int) {
	if m == nil {
		return
	}
	m.AppsListed.Set(float64(n))
}

func (m *GatewayMetrics) Staged() {
	if m == nil {
		return
	}
	m.ArtifactsStaged.Inc()
}

func (m *GatewayMetrics) Removed(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ArtifactsRemoved.WithLabelValues(reason).Add(float64(n))
}

func (m *GatewayMetrics) Restarted() {
	if m == nil {
		return
	}
	m.ServerRestarts.Inc()
}
