package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fincast",
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "Latency of query endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	QueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincast",
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Errors by query endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	// DetailSource counts detail responses by where their prices came from.
	DetailSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincast",
			Subsystem: "query",
			Name:      "detail_source_total",
			Help:      "Detail responses served from cache or live recomputation",
		},
		[]string{"source"},
	)

	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fincast",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected snapshot stream clients",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(QueryLatency, QueryErrors, DetailSource, StreamClients)
	})
}
