// Package metrics exposes Prometheus counters for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "testimonial_relay"

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	InvitesSent          *prometheus.CounterVec
	TestimonialsSubmit   *prometheus.CounterVec
	TestimonialsApproved prometheus.Counter
	TokensCreated        prometheus.Counter
	TokensPurged         prometheus.Counter
	RateLimited          *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		InvitesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_total",
			Help:      "Invitation emails by outcome.",
		}, []string{"outcome"}),
		TestimonialsSubmit: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "testimonial_submissions_total",
			Help:      "Public testimonial submissions by outcome.",
		}, []string{"outcome"}),
		TestimonialsApproved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "testimonials_approved_total",
			Help:      "Testimonials approved by an admin.",
		}),
		TokensCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_tokens_created_total",
			Help:      "Invitation tokens stored.",
		}),
		TokensPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_tokens_purged_total",
			Help:      "Expired unused tokens deleted by the cleanup job.",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limit.",
		}, []string{"scope"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
