// Package metrics implementa ports.Metrics com Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

// Metrics agrupa os coletores do serviço num registry próprio.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamCallsTotal     *prometheus.CounterVec
	UpstreamCallSeconds    *prometheus.HistogramVec
	ReportsTotal           *prometheus.CounterVec
	SectionsTotal          *prometheus.CounterVec
	RateLimitRejections    prometheus.Counter
	UsageEventsDropped     prometheus.Counter
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDurationSec *prometheus.HistogramVec
}

var _ ports.Metrics = (*Metrics)(nil)

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_calls_total",
				Help:      "Total number of calls to the SEO data provider",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamCallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_call_duration_seconds",
				Help:      "Latency of calls to the SEO data provider, retries included",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Reports built, by tier and outcome (ok, partial, empty)",
			},
			[]string{"tier", "outcome"},
		),
		SectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_sections_total",
				Help:      "Requested report sections, by final status",
			},
			[]string{"section", "status"},
		),
		RateLimitRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_rejections_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
		UsageEventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_events_dropped_total",
				Help:      "Usage events dropped due to buffer overflow or shutdown",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSec: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) ObserveUpstreamCall(endpoint, outcome string, elapsed time.Duration) {
	m.UpstreamCallsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamCallSeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) IncReport(tier, outcome string) {
	m.ReportsTotal.WithLabelValues(tier, outcome).Inc()
}

func (m *Metrics) IncSection(section, status string) {
	m.SectionsTotal.WithLabelValues(section, status).Inc()
}

func (m *Metrics) IncRateLimitRejection() {
	m.RateLimitRejections.Inc()
}

func (m *Metrics) IncUsageDropped() {
	m.UsageEventsDropped.Inc()
}

// ObserveHTTPRequest é chamado pelo middleware de log de requisições.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDurationSec.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry expõe o registry para testes.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serve a exposição em /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
