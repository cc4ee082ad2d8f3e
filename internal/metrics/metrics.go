// Package metrics collects and exposes Prometheus metrics for the billing
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface consumed by the HTTP layer.
type Recorder interface {
	RecordCheckoutIssued(plan string)
	RecordCheckoutFailed(reason string)
	RecordCheckoutLatency(d time.Duration)
	RecordWebhookReceived(eventType string)
	RecordWebhookApplied(eventType string)
	RecordWebhookSkipped(eventType string)
	RecordSignatureFailure()
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	checkoutIssued   *prometheus.CounterVec
	checkoutFailed   *prometheus.CounterVec
	checkoutLatency  prometheus.Histogram
	webhookReceived  *prometheus.CounterVec
	webhookApplied   *prometheus.CounterVec
	webhookSkipped   *prometheus.CounterVec
	signatureFailure prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkoutIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_checkout_sessions_issued_total",
			Help: "Checkout sessions issued, by plan.",
		}, []string{"plan"}),
		checkoutFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_checkout_sessions_failed_total",
			Help: "Checkout session requests that failed, by reason.",
		}, []string{"reason"}),
		checkoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "billing_checkout_latency_seconds",
			Help:    "Latency of checkout session issuance.",
			Buckets: prometheus.DefBuckets,
		}),
		webhookReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_webhook_events_received_total",
			Help: "Webhook events with a valid signature, by event type.",
		}, []string{"type"}),
		webhookApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_webhook_events_applied_total",
			Help: "Webhook events that changed local state, by event type.",
		}, []string{"type"}),
		webhookSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_webhook_events_skipped_total",
			Help: "Webhook events acknowledged without a state change, by event type.",
		}, []string{"type"}),
		signatureFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_webhook_signature_failures_total",
			Help: "Webhook deliveries rejected for a missing or invalid signature.",
		}),
	}

	reg.MustRegister(
		c.checkoutIssued,
		c.checkoutFailed,
		c.checkoutLatency,
		c.webhookReceived,
		c.webhookApplied,
		c.webhookSkipped,
		c.signatureFailure,
	)

	return c
}

func (c *Collector) RecordCheckoutIssued(plan string) {
	c.checkoutIssued.WithLabelValues(plan).Inc()
}

func (c *Collector) RecordCheckoutFailed(reason string) {
	c.checkoutFailed.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordCheckoutLatency(d time.Duration) {
	c.checkoutLatency.Observe(d.Seconds())
}

func (c *Collector) RecordWebhookReceived(eventType string) {
	c.webhookReceived.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordWebhookApplied(eventType string) {
	c.webhookApplied.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordWebhookSkipped(eventType string) {
	c.webhookSkipped.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordSignatureFailure() {
	c.signatureFailure.Inc()
}

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop is a Recorder that records nothing. Useful in tests.
type Noop struct{}

func (Noop) RecordCheckoutIssued(string)         {}
func (Noop) RecordCheckoutFailed(string)         {}
func (Noop) RecordCheckoutLatency(time.Duration) {}
func (Noop) RecordWebhookReceived(string)        {}
func (Noop) RecordWebhookApplied(string)         {}
func (Noop) RecordWebhookSkipped(string)         {}
func (Noop) RecordSignatureFailure()             {}
