// Package metrics exposes the prometheus instruments scraped at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// Metrics counts webhook deliveries through their lifecycle.
type Metrics struct {
	webhookReceived  *prometheus.CounterVec
	webhookProcessed *prometheus.CounterVec
	webhookFailed    *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		webhookReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atsfit_webhook_received_total",
			Help: "Provider webhook deliveries received.",
		}, []string{"event"}),
		webhookProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atsfit_webhook_processed_total",
			Help: "Provider webhook deliveries processed to completion.",
		}, []string{"event"}),
		webhookFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atsfit_webhook_failed_total",
			Help: "Provider webhook deliveries that failed.",
		}, []string{"reason"}),
	}
	registry.MustRegister(m.webhookReceived, m.webhookProcessed, m.webhookFailed)
	return m
}

func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func (m *Metrics) WebhookReceived(event string) {
	if m == nil {
		return
	}
	m.webhookReceived.WithLabelValues(event).Inc()
}

func (m *Metrics) WebhookProcessed(event string) {
	if m == nil {
		return
	}
	m.webhookProcessed.WithLabelValues(event).Inc()
}

func (m *Metrics) WebhookFailed(reason string) {
	if m == nil {
		return
	}
	m.webhookFailed.WithLabelValues(reason).Inc()
}

var Module = fx.Module("metrics",
	fx.Provide(
		NewRegistry,
		New,
	),
)
