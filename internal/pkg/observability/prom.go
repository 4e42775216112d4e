package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "iebackend"
)

var (
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "linebalance", "reconcile_duration_seconds"),
		Help:    "Duration of take reconciliation and bottleneck selection in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	LineBalanceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "linebalance", "writes_total"),
		Help: "Committed line balance write operations",
	}, []string{"op"})
	StudyViewCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "linebalance", "view_cache_total"),
		Help: "Study view cache lookups by result",
	}, []string{"result"})
	ArchiveDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "archive", "last_run_duration_seconds"),
		Help: "Duration of the last weekly archive run in seconds",
	})
	IdempotencyResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "http", "idempotency_responses_total"),
		Help: "Idempotent responses stored or replayed",
	}, []string{"result"})
)
