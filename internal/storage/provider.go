// Package storage implementa el storage provider: CRUD genérico y queries por
// predicado sobre los containers del document store, con resolución única de
// partition key y traducción de respuestas a Result.
package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// Provider es el façade CRUD + query sobre el document store.
//
// Las escrituras nunca retornan error: toda falla del store (status >= 400 o
// error del cliente) queda en el Result. Read distingue "no existe"
// (false, nil) de una falla del store (false, err).
type Provider interface {
	Create(ctx context.Context, e entity.Entity) Result
	Update(ctx context.Context, e entity.Entity) Result
	Delete(ctx context.Context, e entity.Entity) Result

	// Read carga el documento id en out. La partición sale de out.
	Read(ctx context.Context, id string, out entity.Entity) (bool, error)

	// Query retorna un Pager con la partición de proto.
	Query(ctx context.Context, proto entity.Entity, q docstore.Query) docstore.Pager

	Strategy() Strategy
}

// Option configura el provider.
type Option func(*provider)

// WithRateLimit limita los requests hacia el store (rps <= 0 = sin límite).
func WithRateLimit(rps float64, burst int) Option {
	return func(p *provider) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger reemplaza el logger del provider.
func WithLogger(l *zap.Logger) Option {
	return func(p *provider) {
		if l != nil {
			p.log = l
		}
	}
}

type provider struct {
	router  ContainerRouter
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewProvider crea un provider sobre el router dado.
func NewProvider(router ContainerRouter, opts ...Option) Provider {
	p := &provider{router: router, log: logger.Named("storage")}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *provider) Strategy() Strategy { return p.router.Strategy() }

// ensureIDer lo implementan las entidades que generan su id (entity.Document).
type ensureIDer interface {
	EnsureID() string
}

func (p *provider) Create(ctx context.Context, e entity.Entity) Result {
	if a, ok := e.(ensureIDer); ok && !isNil(e) {
		a.EnsureID()
	}
	return p.write(ctx, "create", "created", e, func(c docstore.Container, pk docstore.PartitionKey, body []byte) (*docstore.ItemResponse, error) {
		return c.CreateItem(ctx, pk, body)
	})
}

func (p *provider) Update(ctx context.Context, e entity.Entity) Result {
	return p.write(ctx, "update", "updated", e, func(c docstore.Container, pk docstore.PartitionKey, body []byte) (*docstore.ItemResponse, error) {
		var opts *docstore.ItemOptions
		if v, ok := e.(entity.Versioned); ok && v.Version() != "" {
			opts = &docstore.ItemOptions{IfMatch: v.Version()}
		}
		return c.ReplaceItem(ctx, e.EntityID(), pk, body, opts)
	})
}

func (p *provider) Delete(ctx context.Context, e entity.Entity) Result {
	return p.write(ctx, "delete", "deleted", e, func(c docstore.Container, pk docstore.PartitionKey, _ []byte) (*docstore.ItemResponse, error) {
		return c.DeleteItem(ctx, e.EntityID(), pk)
	})
}

type writeFunc func(c docstore.Container, pk docstore.PartitionKey, body []byte) (*docstore.ItemResponse, error)

func (p *provider) write(ctx context.Context, op, verb string, e entity.Entity, call writeFunc) Result {
	start := time.Now()
	if isNil(e) {
		res := Failed(http.StatusBadRequest, "argument cannot be null")
		metrics.ObserveStoreOp(op, "<nil>", res.StatusCode, time.Since(start))
		return res
	}
	kind := kindOf(e)
	res := p.doWrite(ctx, verb, kind, e, call)
	metrics.ObserveStoreOp(op, kind, res.StatusCode, time.Since(start))
	if !res.Succeeded {
		logger.From(ctx).Debug("store write failed",
			logger.Op(op), logger.Kind(kind), logger.EntityID(e.EntityID()),
			logger.Status(res.StatusCode), logger.String("description", res.Description))
	}
	return res
}

func (p *provider) doWrite(ctx context.Context, verb, kind string, e entity.Entity, call writeFunc) Result {
	if err := p.admit(ctx); err != nil {
		return Failed(docstore.StatusCodeOf(err), "The storage type %s was not %s. %v", kind, verb, err)
	}
	if e.EntityID() == "" {
		return Failed(http.StatusBadRequest, "The storage type %s was not %s. The id is required.", kind, verb)
	}
	c, err := p.router.ContainerFor(kind)
	if err != nil {
		return Failed(docstore.StatusCodeOf(err), "The storage type %s was not %s. %v", kind, verb, err)
	}
	pk := ResolvePartitionKey(e)

	var body []byte
	if verb != "deleted" {
		body, err = encode(e, c.Properties().PartitionKeyPath, pk)
		if err != nil {
			return Failed(docstore.StatusCodeOf(err), "The storage type %s was not %s. %v", kind, verb, err)
		}
	}

	resp, err := call(c, pk, body)
	if err != nil {
		return Failed(docstore.StatusCodeOf(err), "The storage type %s was not %s. %v", kind, verb, err)
	}
	if resp == nil {
		return Failed(http.StatusInternalServerError, "The storage type %s was not %s. Empty response.", kind, verb)
	}
	if resp.StatusCode >= 400 {
		return Failed(resp.StatusCode, "The storage type %s was not %s.", kind, verb)
	}
	if len(resp.Body) > 0 {
		// refresca _etag y _ts con lo persistido
		if err := json.Unmarshal(resp.Body, e); err != nil {
			p.log.Warn("decode write response", logger.Kind(kind), logger.EntityID(e.EntityID()), logger.Err(err))
		}
	}
	return Success(resp.StatusCode)
}

func (p *provider) Read(ctx context.Context, id string, out entity.Entity) (bool, error) {
	start := time.Now()
	if isNil(out) {
		return false, docstore.BadRequest("argument cannot be null")
	}
	kind := kindOf(out)
	found, err := p.doRead(ctx, kind, id, out)
	status := http.StatusOK
	switch {
	case err != nil:
		status = docstore.StatusCodeOf(err)
	case !found:
		status = http.StatusNotFound
	}
	metrics.ObserveStoreOp("read", kind, status, time.Since(start))
	return found, err
}

func (p *provider) doRead(ctx context.Context, kind, id string, out entity.Entity) (bool, error) {
	if id == "" {
		return false, nil
	}
	if err := p.admit(ctx); err != nil {
		return false, err
	}
	c, err := p.router.ContainerFor(kind)
	if err != nil {
		return false, err
	}
	resp, err := c.ReadItem(ctx, id, ResolvePartitionKey(out))
	if err != nil {
		if docstore.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if resp == nil || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 400 {
		return false, docstore.NewStatusError(resp.StatusCode, "read %s %s", kind, id)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return false, docstore.Wrap(http.StatusInternalServerError, err, "decode %s %s", kind, id)
	}
	return true, nil
}

func (p *provider) Query(ctx context.Context, proto entity.Entity, q docstore.Query) docstore.Pager {
	if isNil(proto) {
		return docstore.ErrorPager(docstore.BadRequest("argument cannot be null"))
	}
	if err := ctx.Err(); err != nil {
		return docstore.ErrorPager(err)
	}
	kind := kindOf(proto)
	c, err := p.router.ContainerFor(kind)
	if err != nil {
		return docstore.ErrorPager(err)
	}
	return &meteredPager{p: p, kind: kind, inner: c.Query(ctx, ResolvePartitionKey(proto), q)}
}

// admit chequea cancelación y espera turno en el rate limiter.
func (p *provider) admit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return docstore.Wrap(http.StatusTooManyRequests, err, "rate limit")
	}
	return nil
}

// encode serializa la entidad y escribe el discriminador en el path de
// partition key del container.
func encode(e entity.Entity, path string, pk docstore.PartitionKey) ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, docstore.Wrap(http.StatusBadRequest, err, "encode entity")
	}
	return docstore.SetPartitionKey(raw, path, pk)
}

// meteredPager aplica rate limit y métricas a cada página.
type meteredPager struct {
	p     *provider
	kind  string
	inner docstore.Pager
}

func (m *meteredPager) HasMoreResults() bool { return m.inner.HasMoreResults() }

func (m *meteredPager) ReadNext(ctx context.Context) (docstore.Page, error) {
	start := time.Now()
	if err := m.p.admit(ctx); err != nil {
		metrics.ObserveStoreOp("query", m.kind, docstore.StatusCodeOf(err), time.Since(start))
		return docstore.Page{}, err
	}
	page, err := m.inner.ReadNext(ctx)
	metrics.ObserveStoreOp("query", m.kind, docstore.StatusCodeOf(err), time.Since(start))
	return page, err
}
