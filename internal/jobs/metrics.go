package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	transitions *prometheus.CounterVec
	running     prometheus.Gauge
	queued      prometheus.Gauge
	duration    *prometheus.HistogramVec
	promotions  prometheus.Counter
}

// NewMetrics registers the scheduler collectors with reg; a nil reg uses a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landedcost_job_transitions_total",
			Help: "Job state transitions",
		}, []string{"type", "from", "to"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Name: "landedcost_jobs_running",
			Help: "Jobs currently running",
		}),
		queued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "landedcost_jobs_queued",
			Help: "Jobs waiting in the queue, including those in retry backoff",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landedcost_job_duration_seconds",
			Help:    "Wall time of one job execution",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"type", "outcome"}),
		promotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "landedcost_job_promotions_total",
			Help: "Priority promotions by the starvation guard",
		}),
	}
}

func (m *Metrics) transition(typ, from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(typ, from, to).Inc()
}

func (m *Metrics) observe(typ, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(typ, outcome).Observe(seconds)
}

func (m *Metrics) gauges(running, queued int) {
	if m == nil {
		return
	}
	m.running.Set(float64(running))
	m.queued.Set(float64(queued))
}

func (m *Metrics) promoted() {
	if m == nil {
		return
	}
	m.promotions.Inc()
}
