// Package http expone la API de lectura administrativa del store de
// identidad: health, métricas y consultas de usuarios, roles y claims.
package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mobsites/Cosmos.Identity/internal/app"
	"github.com/mobsites/Cosmos.Identity/internal/identity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
)

// Deps son las dependencias del router.
type Deps struct {
	Users *identity.UserStore
	Roles *identity.RoleStore
	// Ping verifica el store para /readyz. nil = siempre listo.
	Ping func(ctx context.Context) error
	// Gatherer para /metrics. nil = registry propio con los collectors del
	// store más los de runtime.
	Gatherer prometheus.Gatherer
}

// DepsFromApp arma Deps desde la aplicación compuesta.
func DepsFromApp(a *app.App) Deps {
	return Deps{Users: a.Users, Roles: a.Roles, Ping: a.Ping}
}

// NewRouter arma el router chi con middlewares y rutas.
func NewRouter(d Deps) (http.Handler, error) {
	gatherer := d.Gatherer
	if gatherer == nil {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			return nil, err
		}
		if err := reg.Register(collectors.NewGoCollector()); err != nil {
			return nil, err
		}
		if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
			return nil, err
		}
		gatherer = reg
	}

	h := &handlers{users: d.Users, roles: d.Roles, ping: d.Ping}

	r := chi.NewRouter()
	r.Use(WithRequestID, WithAccessLog, WithRecover)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/users/by-name/{normalized}", h.userByName)
		r.Get("/users/{id}", h.userByID)
		r.Get("/users/{id}/roles", h.userRoles)
		r.Get("/users/{id}/claims", h.userClaims)
		r.Get("/roles/{normalized}/users", h.usersInRole)
		r.Get("/claims/users", h.usersForClaim)
	})

	return r, nil
}
