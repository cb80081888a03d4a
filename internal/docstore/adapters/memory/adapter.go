// Package memory implementa un document store en proceso.
// Útil para desarrollo y tests; el estado se pierde al cerrar el proceso.
package memory

import (
	"context"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

func init() {
	docstore.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

// Open crea un store vacío. Cada llamada produce un store independiente.
func (a *memoryAdapter) Open(ctx context.Context, cfg docstore.AdapterConfig) (docstore.Client, error) {
	return New(), nil
}

// New crea un Client sobre un Engine nuevo.
func New() *Client {
	return NewClient(NewEngine())
}

// NewClient crea un Client sobre un Engine existente.
func NewClient(e *Engine) *Client {
	return &Client{engine: e}
}

// Client implementa docstore.Client.
type Client struct {
	engine *Engine
}

// Engine expone el motor subyacente.
func (c *Client) Engine() *Engine { return c.engine }

func (c *Client) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, docstore.BadRequest("database id is required")
	}
	c.engine.CreateDatabase(id)
	return &database{engine: c.engine, id: id}, nil
}

func (c *Client) Database(ctx context.Context, id string) (docstore.Database, error) {
	if !c.engine.HasDatabase(id) {
		return nil, docstore.NotFound("database %q not found", id)
	}
	return &database{engine: c.engine, id: id}, nil
}

func (c *Client) Ping(ctx context.Context) error { return ctx.Err() }

func (c *Client) Close() error { return nil }

type database struct {
	engine *Engine
	id     string
}

func (d *database) ID() string { return d.id }

func (d *database) CreateContainerIfNotExists(ctx context.Context, props docstore.ContainerProperties) (docstore.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if props.ID == "" {
		return nil, docstore.BadRequest("container id is required")
	}
	got, err := d.engine.CreateContainer(d.id, props)
	if err != nil {
		return nil, err
	}
	return &container{engine: d.engine, db: d.id, props: got}, nil
}

func (d *database) Container(ctx context.Context, id string) (docstore.Container, error) {
	props, err := d.engine.ContainerProperties(d.id, id)
	if err != nil {
		return nil, err
	}
	return &container{engine: d.engine, db: d.id, props: props}, nil
}

type container struct {
	engine *Engine
	db     string
	props  docstore.ContainerProperties
}

func (c *container) ID() string                               { return c.props.ID }
func (c *container) Properties() docstore.ContainerProperties { return c.props }

func (c *container) CreateItem(ctx context.Context, pk docstore.PartitionKey, doc []byte) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.engine.Create(c.db, c.props.ID, pk, doc, docstore.NewStamp())
}

func (c *container) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.engine.Read(c.db, c.props.ID, id, pk)
}

func (c *container) ReplaceItem(ctx context.Context, id string, pk docstore.PartitionKey, doc []byte, opts *docstore.ItemOptions) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ifMatch string
	if opts != nil {
		ifMatch = opts.IfMatch
	}
	return c.engine.Replace(c.db, c.props.ID, id, pk, doc, ifMatch, docstore.NewStamp())
}

func (c *container) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.engine.Delete(c.db, c.props.ID, id, pk, docstore.NewStamp())
}

func (c *container) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	items, err := c.engine.Query(c.db, c.props.ID, pk, q)
	if err != nil {
		return docstore.ErrorPager(err)
	}
	return docstore.NewSlicePager(items, q)
}

var _ docstore.Client = (*Client)(nil)
