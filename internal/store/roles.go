package store

import (
	"context"
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/cache"
	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// Roles es el repositorio de roles.
//
// Con cache, FindByName guarda nombre normalizado → id y resuelve con una
// lectura puntual; si el rol ya no tiene ese nombre la entrada se descarta.
type Roles struct {
	c     *storage.Collection[entity.Role, *entity.Role]
	cache cache.Client
	ttl   time.Duration
}

func NewRoles(p storage.Provider, cc cache.Client, ttl time.Duration) *Roles {
	return &Roles{c: storage.NewCollection[entity.Role](p), cache: cc, ttl: ttl}
}

func cacheKey(normalizedName string) string { return "role:" + normalizedName }

func (r *Roles) Create(ctx context.Context, role *entity.Role) storage.Result {
	return r.c.Create(ctx, role)
}

func (r *Roles) Update(ctx context.Context, role *entity.Role) storage.Result {
	res := r.c.Update(ctx, role)
	if res.Succeeded {
		r.Forget(ctx, role.NormalizedName)
	}
	return res
}

func (r *Roles) Delete(ctx context.Context, role *entity.Role) storage.Result {
	res := r.c.Delete(ctx, role)
	if res.Succeeded {
		r.Forget(ctx, role.NormalizedName)
	}
	return res
}

func (r *Roles) Get(ctx context.Context, id string) (*entity.Role, error) { return r.c.Get(ctx, id) }

func (r *Roles) FindByID(ctx context.Context, id string) *entity.Role { return r.c.FindByID(ctx, id) }

// FindByName busca por NormalizedName (primer resultado de la primera página).
// Retorna nil si no existe o el store falla.
func (r *Roles) FindByName(ctx context.Context, normalizedName string) *entity.Role {
	role, err := r.LookupByName(ctx, normalizedName)
	if err != nil {
		metrics.DegradedReads.WithLabelValues(r.c.Kind()).Inc()
		logger.From(ctx).Warn("read degraded to empty",
			logger.Op("find_by_name"), logger.Kind(r.c.Kind()),
			logger.Status(docstore.StatusCodeOf(err)), logger.Err(err))
		return nil
	}
	return role
}

// LookupByName es FindByName con propagación de errores: (nil, nil) si el
// rol no existe.
func (r *Roles) LookupByName(ctx context.Context, normalizedName string) (*entity.Role, error) {
	if normalizedName == "" {
		return nil, nil
	}
	if r.cache != nil {
		if id, err := r.cache.Get(ctx, cacheKey(normalizedName)); err == nil {
			role, err := r.c.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if role != nil && role.NormalizedName == normalizedName {
				return role, nil
			}
			r.Forget(ctx, normalizedName)
		}
	}
	items, _, err := r.c.Page(ctx, docstore.Query{Where: []docstore.Condition{docstore.Eq(fieldNormalizedName, normalizedName)}})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	role := items[0]
	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(normalizedName), role.ID, r.ttl); err != nil {
			logger.From(ctx).Debug("role cache set failed", logger.RoleName(normalizedName), logger.Err(err))
		}
	}
	return role, nil
}

func (r *Roles) All(ctx context.Context) []*entity.Role { return r.c.All(ctx) }

// Forget descarta la entrada de cache del nombre normalizado.
func (r *Roles) Forget(ctx context.Context, normalizedName string) {
	if r.cache == nil || normalizedName == "" {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(normalizedName)); err != nil {
		logger.From(ctx).Debug("role cache delete failed", logger.RoleName(normalizedName), logger.Err(err))
	}
}
