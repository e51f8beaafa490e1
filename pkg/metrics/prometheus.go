package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	quotes       *prometheus.CounterVec
	lastQuote    *prometheus.GaugeVec
	clamps       *prometheus.CounterVec
	fits         *prometheus.HistogramVec
	fitFailures  *prometheus.CounterVec
	snapshotAge  prometheus.Gauge
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	observations *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quotes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_quotes_total",
				Help: "Total number of price quotes served",
			},
			[]string{"property"},
		),
		lastQuote: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratecast_last_quote_price",
				Help: "Last recommended price for a property",
			},
			[]string{"property"},
		),
		clamps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_clamps_total",
				Help: "Quotes clamped to the competitor-anchored bounds",
			},
			[]string{"direction"},
		),
		fits: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecast_fit_duration_seconds",
				Help:    "Duration of offline artifact fits in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"artifact"},
		),
		fitFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_fit_failures_total",
				Help: "Offline fits that failed and kept the previous artifact",
			},
			[]string{"artifact"},
		),
		snapshotAge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratecast_snapshot_age_seconds",
				Help: "Age of the loaded artifact snapshot",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_observations_stored_total",
				Help: "Booking observations routed to a backend",
			},
			[]string{"backend"},
		),
	}
}

// RecordQuote records a served quote and its price.
func (r *Recorder) RecordQuote(propertyID string, price float64) {
	r.quotes.WithLabelValues(propertyID).Inc()
	r.lastQuote.WithLabelValues(propertyID).Set(price)
}

// RecordClamp records a bounds clamp by direction (floor or ceiling).
func (r *Recorder) RecordClamp(direction string) {
	r.clamps.WithLabelValues(direction).Inc()
}

// RecordFit records a successful offline fit duration.
func (r *Recorder) RecordFit(artifact string, seconds float64) {
	r.fits.WithLabelValues(artifact).Observe(seconds)
}

// RecordFitFailure records a failed offline fit.
func (r *Recorder) RecordFitFailure(artifact string) {
	r.fitFailures.WithLabelValues(artifact).Inc()
}

// RecordSnapshotAge records the loaded snapshot's age.
func (r *Recorder) RecordSnapshotAge(seconds float64) {
	r.snapshotAge.Set(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordObservationStored records an observation routed to a backend.
func (r *Recorder) RecordObservationStored(backend string) {
	r.observations.WithLabelValues(backend).Inc()
}
