// Package metrics collects Prometheus metrics for the sync core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what projectors, services and stores report to.
type Recorder interface {
	RecordSnapshot(collection string, entities int)
	RecordDecodeSkip(entity string)
	RecordTransportError(op string)
	RecordWriteFailure(op string)
	RecordWriteRetry(op string)
	SubscriptionOpened(collection string)
	SubscriptionClosed(collection string)
}

type Collector struct {
	snapshots       *prometheus.CounterVec
	cachedEntities  *prometheus.GaugeVec
	decodeSkips     *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	writeFailures   *prometheus.CounterVec
	writeRetries    *prometheus.CounterVec
	subscriptions   *prometheus.GaugeVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discite_snapshots_total",
			Help: "Full snapshots applied to a projector cache.",
		}, []string{"collection"}),
		cachedEntities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "discite_snapshot_entities",
			Help: "Entities decoded from the latest snapshot.",
		}, []string{"collection"}),
		decodeSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discite_decode_skipped_total",
			Help: "Malformed records dropped while decoding.",
		}, []string{"entity"}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discite_transport_errors_total",
			Help: "Failed subscriptions and one-time reads.",
		}, []string{"op"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discite_write_failures_total",
			Help: "Mutations whose remote write failed after retries.",
		}, []string{"op"}),
		writeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discite_write_retries_total",
			Help: "Remote write attempts that were retried.",
		}, []string{"op"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "discite_active_subscriptions",
			Help: "Continuous listeners currently registered.",
		}, []string{"collection"}),
	}

	reg.MustRegister(
		c.snapshots,
		c.cachedEntities,
		c.decodeSkips,
		c.transportErrors,
		c.writeFailures,
		c.writeRetries,
		c.subscriptions,
	)

	return c
}

func (c *Collector) RecordSnapshot(collection string, entities int) {
	c.snapshots.WithLabelValues(collection).Inc()
	c.cachedEntities.WithLabelValues(collection).Set(float64(entities))
}

func (c *Collector) RecordDecodeSkip(entity string) {
	c.decodeSkips.WithLabelValues(entity).Inc()
}

func (c *Collector) RecordTransportError(op string) {
	c.transportErrors.WithLabelValues(op).Inc()
}

func (c *Collector) RecordWriteFailure(op string) {
	c.writeFailures.WithLabelValues(op).Inc()
}

func (c *Collector) RecordWriteRetry(op string) {
	c.writeRetries.WithLabelValues(op).Inc()
}

func (c *Collector) SubscriptionOpened(collection string) {
	c.subscriptions.WithLabelValues(collection).Inc()
}

func (c *Collector) SubscriptionClosed(collection string) {
	c.subscriptions.WithLabelValues(collection).Dec()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordSnapshot(string, int) {}
func (NopRecorder) RecordDecodeSkip(string) {}
func (NopRecorder) RecordTransportError(string) {}
func (NopRecorder) RecordWriteFailure(string) {}
func (NopRecorder) RecordWriteRetry(string) {}
func (NopRecorder) SubscriptionOpened(string) {}
func (NopRecorder) SubscriptionClosed(string) {}
