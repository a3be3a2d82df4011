package shm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by segments sharing a Config.
type Metrics struct {
	opened  *prometheus.CounterVec
	closed  *prometheus.CounterVec
	errors  *prometheus.CounterVec
	current prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "segments_opened_total",
			Help:      "Segments opened, by backend and mode (create or attach).",
		}, []string{"backend", "mode"}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "segments_closed_total",
			Help:      "Segments closed, by backend.",
		}, []string{"backend"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmseg",
			Name:      "errors_total",
			Help:      "Failed segment operations, by operation and error kind.",
		}, []string{"op", "kind"}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shmseg",
			Name:      "segments_open",
			Help:      "Segments currently open in this process.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.opened, m.closed, m.errors, m.current} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) open(backend BackendKind, created bool) {
	if m == nil {
		return
	}
	mode := "attach"
	if created {
		mode = "create"
	}
	m.opened.WithLabelValues(string(backend), mode).Inc()
	m.current.Inc()
}

func (m *Metrics) close(backend BackendKind) {
	if m == nil {
		return
	}
	m.closed.WithLabelValues(string(backend)).Inc()
	m.current.Dec()
}

func (m *Metrics) fail(op string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(op, errorKind(err)).Inc()
}
