package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshTotal     *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	snapshotSize     prometheus.Gauge
	lastRefresh      prometheus.Gauge
	predictionErrors *prometheus.CounterVec
	currentPrice     *prometheus.GaugeVec
	predictedPrice   *prometheus.GaugeVec
	latency          *prometheus.HistogramVec
}

// New creates a recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder whose collectors are registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_refresh_cycles_total",
				Help: "Refresh cycles by outcome",
			},
			[]string{"status"},
		),
		refreshDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fincast_refresh_duration_seconds",
				Help:    "Wall time of a full roster refresh",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		snapshotSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fincast_snapshot_records",
				Help: "Records in the currently published snapshot",
			},
		),
		lastRefresh: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fincast_snapshot_published_timestamp_seconds",
				Help: "Unix time of the last published snapshot",
			},
		),
		predictionErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fincast_prediction_errors_total",
				Help: "Per-symbol prediction failures by error kind",
			},
			[]string{"kind"},
		),
		currentPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fincast_current_price",
				Help: "Last close seen for a symbol",
			},
			[]string{"symbol"},
		),
		predictedPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fincast_predicted_price",
				Help: "Next-day predicted close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fincast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records the outcome of one refresh cycle.
func (r *Recorder) RecordRefresh(status string, seconds float64, records int) {
	r.refreshTotal.WithLabelValues(status).Inc()
	r.refreshDuration.Observe(seconds)
	if status == "ok" {
		r.snapshotSize.Set(float64(records))
		r.lastRefresh.SetToCurrentTime()
	}
}

// RecordPredictionError records a per-symbol failure.
func (r *Recorder) RecordPredictionError(kind string) {
	r.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordPrediction records the latest prices for a symbol.
func (r *Recorder) RecordPrediction(symbol string, current, predicted float64) {
	r.currentPrice.WithLabelValues(symbol).Set(current)
	r.predictedPrice.WithLabelValues(symbol).Set(predicted)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
