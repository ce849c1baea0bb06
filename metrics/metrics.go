// Package metrics defines the Prometheus collectors of the HBase and Phoenix
// clients. Collectors are registered with the default registry on init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values of status-labeled collectors.
const (
	Fail    = "fail"
	Ok      = "ok"
	Timeout = "timeout"
)

// Label values of the "kind" label of scoped actions.
const (
	AdminKind = "admin"
	TableKind = "table"
	SQLKind   = "sql"
)

// Collectors of scoped actions and their connections.
var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbase_client_actions_total",
		Help: "Cumulative number of scoped actions, by handle kind, operation and status.",
	}, []string{"kind", "op", "status"})
	ActionDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hbase_client_action_duration_seconds",
		Help:    "Duration of scoped actions in seconds, including connection setup and release.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~65s
	}, []string{"kind", "op"})
	ConnectionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbase_client_connections_opened_total",
		Help: "Cumulative number of connections opened, by handle kind.",
	}, []string{"kind"})
	ConnectionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbase_client_connections_closed_total",
		Help: "Cumulative number of connections closed, by handle kind.",
	}, []string{"kind"})
	ReleaseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbase_client_release_failures_total",
		Help: "Cumulative number of handles or connections which failed to close, by handle kind.",
	}, []string{"kind"})
)

// Collectors of chunked batch submissions.
var (
	BatchChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbase_client_batch_chunks_total",
		Help: "Cumulative number of batch chunks submitted.",
	})
	BatchItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbase_client_batch_items_total",
		Help: "Cumulative number of mutations or statements submitted within batch chunks.",
	})
)

// Collectors of the worker pool and bounded-timeout SQL connection acquisition.
var (
	PoolWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hbase_client_pool_workers",
		Help: "Number of live worker goroutines of connection pools.",
	})
	PoolBlockedSubmitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbase_client_pool_blocked_submits_total",
		Help: "Cumulative number of submissions which blocked on a full pool queue.",
	})
	AcquiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbase_client_sql_acquires_total",
		Help: "Cumulative number of SQL connection acquisitions, by status.",
	}, []string{"status"})
	AcquireDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hbase_client_sql_acquire_duration_seconds",
		Help:    "Duration of SQL connection acquisitions in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~65s
	})
	LateConnectionsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hbase_client_sql_late_connections_closed_total",
		Help: "Cumulative number of SQL connections which opened after their acquisition timed out, and were closed.",
	})
)
