package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/chartsignal/internal/contracts"
)

// Metrics holds the Prometheus collectors for signal runs.
// Collectors live on a private registry so tests and multiple instances never clash.
type Metrics struct {
	registry *prometheus.Registry

	SignalsTotal        *prometheus.CounterVec // labels: label
	FailuresTotal       *prometheus.CounterVec // labels: reason
	DeliveriesTotal     *prometheus.CounterVec // labels: status
	BatchDuration       prometheus.Histogram
	IndicatorComputeDur prometheus.Histogram
	LastBatchTimestamp  prometheus.Gauge
}

// New registers and returns all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartsignal_signals_total",
			Help: "Signals produced, by overall label",
		}, []string{"label"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartsignal_instrument_failures_total",
			Help: "Instruments that failed analysis, by reason",
		}, []string{"reason"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartsignal_deliveries_total",
			Help: "Notification deliveries, by status",
		}, []string{"status"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartsignal_batch_duration_seconds",
			Help:    "Wall time of a watchlist batch run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartsignal_indicator_compute_seconds",
			Help:    "Indicator annotation plus scoring time per instrument",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		LastBatchTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartsignal_last_batch_timestamp_seconds",
			Help: "Unix time the last batch finished",
		}),
	}

	m.registry.MustRegister(
		m.SignalsTotal,
		m.FailuresTotal,
		m.DeliveriesTotal,
		m.BatchDuration,
		m.IndicatorComputeDur,
		m.LastBatchTimestamp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry (tests, custom exporters)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves /metrics for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSignal counts a produced signal. Nil receivers are no-ops.
func (m *Metrics) ObserveSignal(label contracts.Label, compute time.Duration) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(string(label)).Inc()
	m.IndicatorComputeDur.Observe(compute.Seconds())
}

// ObserveFailure counts a failed instrument by taxonomy reason
func (m *Metrics) ObserveFailure(err error) {
	if m == nil || err == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(contracts.FailureReason(err)).Inc()
}

// ObserveDelivery counts a notification attempt
func (m *Metrics) ObserveDelivery(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.DeliveriesTotal.WithLabelValues(status).Inc()
}

// ObserveBatch records a finished batch
func (m *Metrics) ObserveBatch(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
	m.LastBatchTimestamp.Set(float64(finished.Unix()))
}
