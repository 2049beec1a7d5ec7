// internal/metrics/metrics.go
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "scombridge_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	cycleTotal   prometheus.Counter
	cycleLatency prometheus.Histogram

	readTotal   *prometheus.CounterVec
	readLatency *prometheus.HistogramVec

	deliveryTotal *prometheus.CounterVec

	connectedDevices *prometheus.GaugeVec
	queueDepth       prometheus.Gauge

	siteFailures *prometheus.CounterVec
)

// Init registers bridge metrics with the default registry.
// Helpers are no-ops until Init is called.
func Init() {
	registerOnce.Do(func() {
		cycleTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "poll_cycles_total",
				Help: "Total polling passes",
			},
		)
		cycleLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "poll_cycle_latency_seconds",
				Help:    "Polling pass duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		readTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_reads_total",
				Help: "Total device reads by site and result",
			},
			[]string{"site", "result"},
		)
		readLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "device_read_latency_seconds",
				Help:    "Device read latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"site", "result"},
		)

		deliveryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "deliveries_total",
				Help: "Total dashboard deliveries by mode and result",
			},
			[]string{"mode", "result"},
		)

		connectedDevices = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "connected_devices",
				Help: "Devices currently discovered per site",
			},
			[]string{"site"},
		)
		queueDepth = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "delivery_queue_depth",
				Help: "Samples waiting in the delivery queue",
			},
		)

		siteFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "site_failures_total",
				Help: "Sites excluded after a construction failure",
			},
			[]string{"site"},
		)

		prometheus.MustRegister(
			cycleTotal,
			cycleLatency,
			readTotal,
			readLatency,
			deliveryTotal,
			connectedDevices,
			queueDepth,
			siteFailures,
		)
	})
}

// ObserveCycle records one polling pass.
func ObserveCycle(duration time.Duration) {
	if cycleTotal != nil {
		cycleTotal.Inc()
	}
	if cycleLatency != nil {
		cycleLatency.Observe(duration.Seconds())
	}
}

// ObserveRead records one device read.
func ObserveRead(site string, err error, duration time.Duration) {
	if site == "" {
		site = "unknown"
	}
	result := resultOf(err)
	if readTotal != nil {
		readTotal.WithLabelValues(site, result).Inc()
	}
	if readLatency != nil {
		readLatency.WithLabelValues(site, result).Observe(duration.Seconds())
	}
}

// IncDelivery counts one delivery attempt.
func IncDelivery(mode, result string) {
	if mode == "" {
		mode = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if deliveryTotal != nil {
		deliveryTotal.WithLabelValues(mode, result).Inc()
	}
}

func SetConnectedDevices(site string, n int) {
	if connectedDevices != nil {
		connectedDevices.WithLabelValues(site).Set(float64(n))
	}
}

func SetQueueDepth(n int) {
	if queueDepth != nil {
		queueDepth.Set(float64(n))
	}
}

// IncSiteFailure counts a site left out at startup.
func IncSiteFailure(site string) {
	if siteFailures != nil {
		siteFailures.WithLabelValues(site).Inc()
	}
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultDropped = "dropped"
)
