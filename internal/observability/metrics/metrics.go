package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for availability queries.
type EngineMetrics struct {
	queriesTotal   *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	slotsGenerated *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Total availability engine queries",
		}, []string{"operation", "status"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "availability",
			Name:      "query_duration_seconds",
			Help:      "Latency of availability engine queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		slotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "availability",
			Name:      "slots_generated_total",
			Help:      "Candidate slots produced by slot generation",
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.queryDuration, m.slotsGenerated)
	return m
}

func (m *EngineMetrics) ObserveQuery(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(operation, status).Inc()
	m.queryDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *EngineMetrics) ObserveSlots(operation string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.slotsGenerated.WithLabelValues(operation).Add(float64(count))
}
