// Package metrics описывает prometheus-метрики сервиса.
// Все методы безопасно вызывать на nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkflow"

// Результаты редиректа
const (
	RedirectFound    = "found"
	RedirectNotFound = "not_found"
	RedirectError    = "error"
)

type Metrics struct {
	redirects       *prometheus.CounterVec
	clicksRecorded  prometheus.Counter
	clickFailures   prometheus.Counter
	clicksDropped   prometheus.Counter
	revenueTracked  prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Short code resolutions by result.",
		}, []string{"result"}),
		clicksRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_recorded_total",
			Help:      "Click events persisted.",
		}),
		clickFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_record_failures_total",
			Help:      "Click events that could not be persisted.",
		}),
		clicksDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_dropped_total",
			Help:      "Click events dropped because the worker buffer was full.",
		}),
		revenueTracked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_events_total",
			Help:      "Revenue events recorded.",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) Redirect(result string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(result).Inc()
}

func (m *Metrics) ClickRecorded() {
	if m == nil {
		return
	}
	m.clicksRecorded.Inc()
}

func (m *Metrics) ClickFailed() {
	if m == nil {
		return
	}
	m.clickFailures.Inc()
}

func (m *Metrics) ClickDropped() {
	if m == nil {
		return
	}
	m.clicksDropped.Inc()
}

func (m *Metrics) RevenueTracked() {
	if m == nil {
		return
	}
	m.revenueTracked.Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler отдаёт метрики из gatherer в формате prometheus
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
