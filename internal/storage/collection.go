package storage

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// Collection es el acceso tipado a un tipo de entidad a través del Provider.
//
// Las lecturas (FindByID, Find, First, All) son best-effort: un error del
// store se loguea y degrada a vacío. Scan y Page retornan el error.
type Collection[E any, T interface {
	*E
	entity.Entity
}] struct {
	p    Provider
	kind string
}

// NewCollection crea la colección de E: storage.NewCollection[entity.User](p).
func NewCollection[E any, T interface {
	*E
	entity.Entity
}](p Provider) *Collection[E, T] {
	return &Collection[E, T]{p: p, kind: kindOf(T(new(E)))}
}

// Kind retorna el discriminador del tipo.
func (c *Collection[E, T]) Kind() string { return c.kind }

// Provider retorna el provider subyacente.
func (c *Collection[E, T]) Provider() Provider { return c.p }

func (c *Collection[E, T]) Create(ctx context.Context, v T) Result { return c.p.Create(ctx, v) }
func (c *Collection[E, T]) Update(ctx context.Context, v T) Result { return c.p.Update(ctx, v) }
func (c *Collection[E, T]) Delete(ctx context.Context, v T) Result { return c.p.Delete(ctx, v) }

// Get lee un documento distinguiendo ausencia (nil, nil) de error.
func (c *Collection[E, T]) Get(ctx context.Context, id string) (T, error) {
	v := T(new(E))
	found, err := c.p.Read(ctx, id, v)
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

// FindByID retorna nil si el documento no existe o el store falla.
func (c *Collection[E, T]) FindByID(ctx context.Context, id string) T {
	v, err := c.Get(ctx, id)
	if err != nil {
		c.degraded(ctx, "find_by_id", err)
		return nil
	}
	return v
}

// Find retorna todos los documentos que cumplen las condiciones.
func (c *Collection[E, T]) Find(ctx context.Context, where ...docstore.Condition) []T {
	out, err := c.Scan(ctx, where...)
	if err != nil {
		c.degraded(ctx, "find", err)
		return []T{}
	}
	return out
}

// All retorna todos los documentos del tipo.
func (c *Collection[E, T]) All(ctx context.Context) []T { return c.Find(ctx) }

// First retorna el primer resultado de la primera página, o nil.
// No es necesariamente el primero global si hay varias coincidencias.
func (c *Collection[E, T]) First(ctx context.Context, where ...docstore.Condition) T {
	items, _, err := c.Page(ctx, docstore.Query{Where: where})
	if err != nil {
		c.degraded(ctx, "first", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// Scan recorre todas las páginas y retorna el primer error del store.
func (c *Collection[E, T]) Scan(ctx context.Context, where ...docstore.Condition) ([]T, error) {
	raws, err := docstore.Drain(ctx, c.p.Query(ctx, T(new(E)), docstore.Query{Where: where}))
	if err != nil {
		return nil, err
	}
	return c.decode(raws)
}

// Page lee una sola página de q; el token vacío indica que no hay más.
func (c *Collection[E, T]) Page(ctx context.Context, q docstore.Query) ([]T, string, error) {
	pager := c.p.Query(ctx, T(new(E)), q)
	if !pager.HasMoreResults() {
		return []T{}, "", nil
	}
	page, err := pager.ReadNext(ctx)
	if err != nil {
		return nil, "", err
	}
	items, err := c.decode(page.Items)
	if err != nil {
		return nil, "", err
	}
	return items, page.ContinuationToken, nil
}

func (c *Collection[E, T]) decode(raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		v := T(new(E))
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, docstore.Wrap(http.StatusInternalServerError, err, "decode %s", c.kind)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[E, T]) degraded(ctx context.Context, op string, err error) {
	metrics.DegradedReads.WithLabelValues(c.kind).Inc()
	logger.From(ctx).Warn("read degraded to empty",
		logger.Op(op), logger.Kind(c.kind),
		logger.Status(docstore.StatusCodeOf(err)), logger.Err(err))
}
