package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "addrbot"

// Metrics holds the bot's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	messages       *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	replyFailures  prometheus.Counter
}

// New creates and registers all collectors, including Go runtime and process metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound messages by handling outcome.",
		}, []string{"outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Address lookup latency by result.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
		replyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_failures_total",
			Help:      "Replies that could not be delivered.",
		}),
	}

	m.registry.MustRegister(
		m.messages,
		m.lookupDuration,
		m.replyFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) MessageHandled(outcome string) {
	m.messages.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LookupObserved(result string, d time.Duration) {
	m.lookupDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) ReplyFailed() {
	m.replyFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
