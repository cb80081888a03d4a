package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/identity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

type handlers struct {
	users *identity.UserStore
	roles *identity.RoleStore
	ping  func(ctx context.Context) error
}

// userView es la proyección pública del usuario: sin hash ni stamps.
type userView struct {
	ID                   string         `json:"id"`
	UserName             string         `json:"userName"`
	NormalizedUserName   string         `json:"normalizedUserName"`
	Email                string         `json:"email,omitempty"`
	EmailConfirmed       bool           `json:"emailConfirmed"`
	PhoneNumber          string         `json:"phoneNumber,omitempty"`
	PhoneNumberConfirmed bool           `json:"phoneNumberConfirmed"`
	TwoFactorEnabled     bool           `json:"twoFactorEnabled"`
	LockoutEnabled       bool           `json:"lockoutEnabled"`
	LockoutEnd           *time.Time     `json:"lockoutEnd,omitempty"`
	AccessFailedCount    int            `json:"accessFailedCount"`
	Roles                []string       `json:"roles"`
	Claims               []entity.Claim `json:"claims"`
}

func toUserView(u *entity.User) userView {
	return userView{
		ID:                   u.ID,
		UserName:             u.UserName,
		NormalizedUserName:   u.NormalizedUserName,
		Email:                u.Email,
		EmailConfirmed:       u.EmailConfirmed,
		PhoneNumber:          u.PhoneNumber,
		PhoneNumberConfirmed: u.PhoneNumberConfirmed,
		TwoFactorEnabled:     u.TwoFactorEnabled,
		LockoutEnabled:       u.LockoutEnabled,
		LockoutEnd:           u.LockoutEnd,
		AccessFailedCount:    u.AccessFailedCount,
		Roles:                u.RoleNames(),
		Claims:               u.FlattenedClaims(),
	}
}

func toUserViews(us []*entity.User) []userView {
	out := make([]userView, 0, len(us))
	for _, u := range us {
		out = append(out, toUserView(u))
	}
	return out
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
			WriteError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// loadUser resuelve {id}; escribe la respuesta y retorna nil si no hay usuario.
func (h *handlers) loadUser(w http.ResponseWriter, r *http.Request) *entity.User {
	id := chi.URLParam(r, "id")
	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return nil
	}
	if u == nil {
		WriteError(w, http.StatusNotFound, "user_not_found", "user "+id+" not found")
		return nil
	}
	return u
}

func (h *handlers) userByID(w http.ResponseWriter, r *http.Request) {
	if u := h.loadUser(w, r); u != nil {
		WriteJSON(w, http.StatusOK, toUserView(u))
	}
}

func (h *handlers) userByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "normalized")
	u, err := h.users.FindByName(r.Context(), entity.Normalize(name))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if u == nil {
		WriteError(w, http.StatusNotFound, "user_not_found", "user "+name+" not found")
		return
	}
	WriteJSON(w, http.StatusOK, toUserView(u))
}

func (h *handlers) userRoles(w http.ResponseWriter, r *http.Request) {
	u := h.loadUser(w, r)
	if u == nil {
		return
	}
	roles, err := h.users.GetRoles(r.Context(), u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list(roles))
}

func (h *handlers) userClaims(w http.ResponseWriter, r *http.Request) {
	u := h.loadUser(w, r)
	if u == nil {
		return
	}
	claims, err := h.users.GetClaims(r.Context(), u)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list(claims))
}

func (h *handlers) usersInRole(w http.ResponseWriter, r *http.Request) {
	name := entity.Normalize(chi.URLParam(r, "normalized"))
	role, err := h.roles.FindByName(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if role == nil {
		WriteError(w, http.StatusNotFound, "role_not_found", "role "+name+" not found")
		return
	}
	users, err := h.users.GetUsersInRole(r.Context(), name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list(toUserViews(users)))
}

func (h *handlers) usersForClaim(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	claim := entity.Claim{Type: q.Get("type"), Value: q.Get("value")}
	users, err := h.users.GetUsersForClaim(r.Context(), claim)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, list(toUserViews(users)))
}
