// Package metrics provides Prometheus metrics for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	webhooksTotal           *prometheus.CounterVec
	inboundForwardedTotal   *prometheus.CounterVec
	outboundDispatchedTotal *prometheus.CounterVec
	statusPushesTotal       *prometheus.CounterVec
	correlationMissesTotal  prometheus.Counter
	duplicateDropsTotal     *prometheus.CounterVec
	deviceLinkedTotal       *prometheus.CounterVec
	tokenRefreshesTotal     *prometheus.CounterVec
	upstreamErrorsTotal     *prometheus.CounterVec
}

var globalMetrics *Metrics

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		webhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_webhooks_total",
				Help: "Total number of webhook deliveries received",
			},
			[]string{"source", "event"},
		),
		inboundForwardedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_inbound_forwarded_total",
				Help: "Total number of gateway messages forwarded to the CRM",
			},
			[]string{"instance"},
		),
		outboundDispatchedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_outbound_dispatched_total",
				Help: "Total number of CRM messages dispatched through the gateway",
			},
			[]string{"instance", "result"},
		),
		statusPushesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_status_pushes_total",
				Help: "Total number of delivery statuses pushed to the CRM",
			},
			[]string{"status"},
		),
		correlationMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_correlation_misses_total",
				Help: "Total number of status webhooks without a correlation entry",
			},
		),
		duplicateDropsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_duplicate_drops_total",
				Help: "Total number of webhook redeliveries dropped by dedupe",
			},
			[]string{"instance"},
		),
		deviceLinkedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_device_linked_jids_total",
				Help: "Total number of messages from device-linked identifiers",
			},
			[]string{"instance"},
		),
		tokenRefreshesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_token_refreshes_total",
				Help: "Total number of CRM token refresh attempts",
			},
			[]string{"outcome"},
		),
		upstreamErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_upstream_errors_total",
				Help: "Total number of upstream call failures",
			},
			[]string{"target", "kind"},
		),
	}
	return globalMetrics
}

// RecordWebhook records one received webhook delivery.
func (m *Metrics) RecordWebhook(source, event string) {
	m.webhooksTotal.WithLabelValues(source, event).Inc()
}

// RecordInboundForwarded records a gateway message forwarded to the CRM.
func (m *Metrics) RecordInboundForwarded(instance string) {
	m.inboundForwardedTotal.WithLabelValues(instance).Inc()
}

// RecordOutboundDispatched records a dispatch attempt outcome.
func (m *Metrics) RecordOutboundDispatched(instance, result string) {
	m.outboundDispatchedTotal.WithLabelValues(instance, result).Inc()
}

// RecordStatusPush records a status update pushed to the CRM.
func (m *Metrics) RecordStatusPush(status string) {
	m.statusPushesTotal.WithLabelValues(status).Inc()
}

// RecordCorrelationMiss records a status webhook with no stored entry.
func (m *Metrics) RecordCorrelationMiss() {
	m.correlationMissesTotal.Inc()
}

// RecordDuplicateDrop records a redelivered webhook dropped by dedupe.
func (m *Metrics) RecordDuplicateDrop(instance string) {
	m.duplicateDropsTotal.WithLabelValues(instance).Inc()
}

// RecordDeviceLinked records a message arriving from a device-linked jid.
func (m *Metrics) RecordDeviceLinked(instance string) {
	m.deviceLinkedTotal.WithLabelValues(instance).Inc()
}

// RecordTokenRefresh records one refresh-token grant attempt.
func (m *Metrics) RecordTokenRefresh(outcome string) {
	m.tokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

// RecordUpstreamError records a non-2xx or transport failure by target.
func (m *Metrics) RecordUpstreamError(target, kind string) {
	m.upstreamErrorsTotal.WithLabelValues(target, kind).Inc()
}
