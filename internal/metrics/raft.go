package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del backend raft. Viven acá (y no en cluster) para que cluster y
// http puedan importarlas sin ciclos.
var (
	RaftApplyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "identity_raft_apply_latency_ms",
		Help:    "Latencia de raft.Apply de comandos de documento, en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	RaftLeadershipChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identity_raft_leadership_changes_total",
		Help: "Cambios de rol a leader",
	})

	RaftLogSizeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "identity_raft_log_size_bytes",
		Help: "Tamaño en bytes del archivo de log/stable (BoltDB)",
	})
)
