package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de la API de lectura. El label route es el patrón chi
// (/v1/users/{id}), nunca el path crudo.
var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_http_requests_total",
		Help: "Requests HTTP por método, ruta y status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identity_http_request_duration_seconds",
		Help:    "Latencia de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "identity_http_inflight_requests",
		Help: "Requests en vuelo",
	})
)
