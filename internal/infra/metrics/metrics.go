package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	settlements     *prometheus.CounterVec
	escrowed        prometheus.Gauge
	keeperRuns      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinflip_operations_total",
			Help: "Pool operations, labeled by operation and result code.",
		}, []string{"op", "result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinflip_settlements_total",
			Help: "Settled pools, labeled by which party won.",
		}, []string{"winner"}),
		escrowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinflip_escrowed_amount",
			Help: "Net amount moved into escrow by this process since start.",
		}),
		keeperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinflip_keeper_settle_attempts_total",
			Help: "Settle attempts made by the keeper, labeled by result code.",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinflip_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.operations, m.settlements, m.escrowed, m.keeperRuns, m.requestDuration)

	return m
}

// Operation counts one pool operation. result is "ok" or an error code.
func (m *Metrics) Operation(op, result string) {
	if m == nil {
		return
	}

	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Settled(winner string) {
	if m == nil {
		return
	}

	m.settlements.WithLabelValues(winner).Inc()
}

func (m *Metrics) Escrowed(delta int64) {
	if m == nil {
		return
	}

	m.escrowed.Add(float64(delta))
}

func (m *Metrics) KeeperAttempt(result string) {
	if m == nil {
		return
	}

	m.keeperRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.requestDuration.WithLabelValues(method, route, statusLabel(status)).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
