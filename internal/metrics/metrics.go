package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the generation engine. All
// helper methods are nil-safe so components can run without metrics wired.
type Metrics struct {
	registry *prometheus.Registry

	jobsStarted     prometheus.Counter
	jobsCompleted   prometheus.Counter
	jobsFailed      prometheus.Counter
	critiqueRetries prometheus.Counter
	stepDuration    *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
	eventsDropped   prometheus.Counter
	subscribers     prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_jobs_started_total",
			Help: "Generation jobs started.",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_jobs_completed_total",
			Help: "Generation jobs that reached the completed state.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_jobs_failed_total",
			Help: "Generation jobs that reached the failed state.",
		}),
		critiqueRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_critique_retries_total",
			Help: "Scene critique retry loops taken.",
		}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "video_step_duration_seconds",
			Help:    "Wall time of each workflow step.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"step"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_events_published_total",
			Help: "Events published to the hub by type.",
		}, []string{"type"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "video_event_subscribers",
			Help: "Currently connected event subscribers.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.jobsStarted, m.jobsCompleted, m.jobsFailed, m.critiqueRetries,
		m.stepDuration, m.eventsPublished, m.eventsDropped, m.subscribers,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) JobStarted() {
	if m != nil {
		m.jobsStarted.Inc()
	}
}

func (m *Metrics) JobCompleted() {
	if m != nil {
		m.jobsCompleted.Inc()
	}
}

func (m *Metrics) JobFailed() {
	if m != nil {
		m.jobsFailed.Inc()
	}
}

func (m *Metrics) CritiqueRetry() {
	if m != nil {
		m.critiqueRetries.Inc()
	}
}

func (m *Metrics) ObserveStep(step string, seconds float64) {
	if m != nil {
		m.stepDuration.WithLabelValues(step).Observe(seconds)
	}
}

func (m *Metrics) EventPublished(eventType string) {
	if m != nil {
		m.eventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) EventDropped() {
	if m != nil {
		m.eventsDropped.Inc()
	}
}

func (m *Metrics) SubscriberAdded() {
	if m != nil {
		m.subscribers.Inc()
	}
}

func (m *Metrics) SubscriberRemoved() {
	if m != nil {
		m.subscribers.Dec()
	}
}
