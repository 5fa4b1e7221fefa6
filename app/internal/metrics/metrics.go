package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "uptime_"

var statusLabels = []string{"online", "offline", "unknown"}

var (
	registerOnce sync.Once

	probesTotal        *prometheus.CounterVec
	probeLatency       prometheus.Histogram
	currentStatus      *prometheus.GaugeVec
	transitionsTotal   prometheus.Counter
	aggregationLatency *prometheus.HistogramVec
	aggregationErrors  *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		probesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "probes_total",
				Help: "Total probe cycles by resulting status",
			},
			[]string{"status"},
		)
		probeLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "probe_duration_seconds",
				Help:    "Duration of one probe cycle",
				Buckets: prometheus.DefBuckets,
			},
		)
		currentStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "current_status",
				Help: "1 for the most recently observed status, 0 otherwise",
			},
			[]string{"status"},
		)
		transitionsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "transitions_total",
				Help: "Total status changes observed by the scheduler",
			},
		)
		aggregationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "aggregation_duration_seconds",
				Help:    "Duration of chart aggregation",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"mode"},
		)
		aggregationErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "aggregation_errors_total",
				Help: "Total failed chart aggregations",
			},
			[]string{"mode"},
		)

		prometheus.MustRegister(
			probesTotal,
			probeLatency,
			currentStatus,
			transitionsTotal,
			aggregationLatency,
			aggregationErrors,
		)
	})
}

// ObserveProbe records one probe cycle.
func ObserveProbe(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	if probesTotal != nil {
		probesTotal.WithLabelValues(status).Inc()
	}
	if probeLatency != nil {
		probeLatency.Observe(duration.Seconds())
	}
}

// SetCurrentStatus flips the status gauge so exactly one label reads 1.
func SetCurrentStatus(status string) {
	if currentStatus == nil {
		return
	}
	for _, s := range statusLabels {
		v := 0.0
		if s == status {
			v = 1
		}
		currentStatus.WithLabelValues(s).Set(v)
	}
}

func IncTransition() {
	if transitionsTotal != nil {
		transitionsTotal.Inc()
	}
}

// ObserveAggregation records a chart computation and counts it as failed when err is set.
func ObserveAggregation(mode string, duration time.Duration, err error) {
	if mode == "" {
		mode = "historical"
	}
	if aggregationLatency != nil {
		aggregationLatency.WithLabelValues(mode).Observe(duration.Seconds())
	}
	if err != nil && aggregationErrors != nil {
		aggregationErrors.WithLabelValues(mode).Inc()
	}
}
