// Package metrics define los collectors Prometheus del storage de identidad.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_store_operations_total",
		Help: "Operaciones contra el document store por tipo de entidad y resultado",
	}, []string{"op", "kind", "outcome"})

	StoreOperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identity_store_operation_duration_seconds",
		Help:    "Latencia de operaciones contra el document store",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	ConcurrencyRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_concurrency_retries_total",
		Help: "Reintentos read-modify-write por conflicto de etag",
	}, []string{"op"})

	CascadeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_cascade_failures_total",
		Help: "Documentos vínculo que no pudieron borrarse en un delete en cascada",
	}, []string{"step"})

	DegradedReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_degraded_reads_total",
		Help: "Lecturas best-effort que devolvieron vacío por error del store",
	}, []string{"kind"})
)

// Outcome traduce un status code a la etiqueta outcome.
func Outcome(status int) string {
	switch {
	case status < 400:
		return "success"
	case status == 404:
		return "not_found"
	case status == 409:
		return "conflict"
	case status == 412:
		return "precondition_failed"
	case status == 429:
		return "throttled"
	case status < 500:
		return "client_error"
	default:
		return "error"
	}
}

// ObserveStoreOp registra una operación del storage provider.
func ObserveStoreOp(op, kind string, status int, elapsed time.Duration) {
	StoreOperations.WithLabelValues(op, kind, Outcome(status)).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Register registra todos los collectors en reg (o el default si es nil).
// Tolera collectors ya registrados.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		StoreOperations,
		StoreOperationDuration,
		ConcurrencyRetries,
		CascadeFailures,
		DegradedReads,
		RaftApplyLatency,
		RaftLeadershipChanges,
		RaftLogSizeBytes,
		HTTPRequests,
		HTTPRequestDuration,
		HTTPInflight,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
