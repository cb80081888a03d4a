// Package fs implementa un document store sobre el filesystem.
//
// Layout:
//
//	<root>/<db>/database.yaml
//	<root>/<db>/<container>/container.yaml
//	<root>/<db>/<container>/<partition>/<id>.json
//
// Los documentos se escriben con atomicwrite; la metadata es YAML.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/util/atomicwrite"
)

const (
	databaseFile  = "database.yaml"
	containerFile = "container.yaml"
	nonePartition = "_none"
	docExt        = ".json"
)

func init() {
	docstore.RegisterAdapter(&fsAdapter{})
}

// fsAdapter implementa docstore.Adapter para FileSystem.
type fsAdapter struct{}

func (a *fsAdapter) Name() string { return "fs" }

func (a *fsAdapter) Open(ctx context.Context, cfg docstore.AdapterConfig) (docstore.Client, error) {
	root := cfg.FSRoot
	if root == "" && cfg.ConnectionString != "" {
		u, err := url.Parse(cfg.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("fs: parse connection string: %w", err)
		}
		root = u.Host + u.Path
	}
	return New(root)
}

// New abre (y crea si hace falta) el store en root.
func New(root string) (*Client, error) {
	if root == "" {
		root = "data"
	}
	info, err := os.Stat(root)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("fs: root path error: %w", err)
		}
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, fmt.Errorf("fs: failed to create root path %s: %w", root, mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("fs: root path is not a directory: %s", root)
	}
	return &Client{root: root, now: time.Now}, nil
}

// Client implementa docstore.Client. Un RWMutex serializa los writes del proceso.
type Client struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

type databaseMeta struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := os.Stat(c.root)
	return err
}

func (c *Client) Close() error { return nil }

func (c *Client) dbPath(db string) string { return filepath.Join(c.root, segment(db)) }

func (c *Client) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, docstore.BadRequest("database id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := filepath.Join(c.dbPath(id), databaseFile)
	if _, err := atomicwrite.WriteIfMissing(meta, databaseMeta{ID: id, CreatedAt: c.now().UTC()}, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write database: %w", err)
	}
	return &database{c: c, id: id}, nil
}

func (c *Client) Database(ctx context.Context, id string) (docstore.Database, error) {
	if _, err := os.Stat(filepath.Join(c.dbPath(id), databaseFile)); err != nil {
		return nil, docstore.NotFound("database %q not found", id)
	}
	return &database{c: c, id: id}, nil
}

type database struct {
	c  *Client
	id string
}

func (d *database) ID() string { return d.id }

func (d *database) containerPath(id string) string {
	return filepath.Join(d.c.dbPath(d.id), segment(id))
}

func (d *database) CreateContainerIfNotExists(ctx context.Context, props docstore.ContainerProperties) (docstore.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if props.ID == "" {
		return nil, docstore.BadRequest("container id is required")
	}
	d.c.mu.Lock()
	defer d.c.mu.Unlock()
	if existing, err := d.readProps(props.ID); err == nil {
		return &container{c: d.c, path: d.containerPath(props.ID), props: existing}, nil
	}
	if _, err := os.Stat(filepath.Join(d.c.dbPath(d.id), databaseFile)); err != nil {
		return nil, docstore.NotFound("database %q not found", d.id)
	}
	props.PartitionKeyPath = docstore.NormalizePartitionKeyPath(props.PartitionKeyPath)
	if err := atomicwrite.WriteYAML(filepath.Join(d.containerPath(props.ID), containerFile), props, 0o644); err != nil {
		return nil, fmt.Errorf("fs: write container: %w", err)
	}
	return &container{c: d.c, path: d.containerPath(props.ID), props: props}, nil
}

func (d *database) Container(ctx context.Context, id string) (docstore.Container, error) {
	d.c.mu.RLock()
	defer d.c.mu.RUnlock()
	props, err := d.readProps(id)
	if err != nil {
		return nil, err
	}
	return &container{c: d.c, path: d.containerPath(id), props: props}, nil
}

func (d *database) readProps(id string) (docstore.ContainerProperties, error) {
	var props docstore.ContainerProperties
	data, err := os.ReadFile(filepath.Join(d.containerPath(id), containerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return props, docstore.NotFound("container %q not found", id)
		}
		return props, err
	}
	if err := yaml.Unmarshal(data, &props); err != nil {
		return props, fmt.Errorf("fs: parse container %s: %w", id, err)
	}
	return props, nil
}

type container struct {
	c     *Client
	path  string
	props docstore.ContainerProperties
}

func (c *container) ID() string                               { return c.props.ID }
func (c *container) Properties() docstore.ContainerProperties { return c.props }

func (c *container) partitionDir(pk docstore.PartitionKey) string {
	if pk.IsNone() {
		return filepath.Join(c.path, nonePartition)
	}
	return filepath.Join(c.path, segment(pk.Value()))
}

func (c *container) file(id string, pk docstore.PartitionKey) string {
	return filepath.Join(c.partitionDir(pk), segment(id)+docExt)
}

// load lee un documento vivo. Requiere c.c.mu tomado.
func (c *container) load(id string, pk docstore.PartitionKey) ([]byte, map[string]any, error) {
	if err := validID(id); err != nil {
		return nil, nil, err
	}
	body, err := os.ReadFile(c.file(id, pk))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, docstore.NotFound("entity with id %q does not exist", id)
		}
		return nil, nil, fmt.Errorf("fs: read %s: %w", id, err)
	}
	doc, err := docstore.Decode(body)
	if err != nil {
		return nil, nil, err
	}
	if docstore.Expired(doc, c.props.DefaultTTL, c.c.now()) {
		return nil, nil, docstore.NotFound("entity with id %q does not exist", id)
	}
	return body, doc, nil
}

func (c *container) store(p *docstore.Prepared, pk docstore.PartitionKey) error {
	if err := atomicwrite.WriteFile(c.file(p.ID, pk), p.Body, 0o644); err != nil {
		return fmt.Errorf("fs: write %s: %w", p.ID, err)
	}
	return nil
}

func (c *container) CreateItem(ctx context.Context, pk docstore.PartitionKey, doc []byte) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	if err := validID(p.ID); err != nil {
		return nil, err
	}
	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	if _, _, err := c.load(p.ID, pk); err == nil {
		return nil, docstore.Conflict("entity with id %q already exists", p.ID)
	} else if !docstore.IsNotFound(err) {
		return nil, err
	}
	if err := c.store(p, pk); err != nil {
		return nil, err
	}
	return &docstore.ItemResponse{StatusCode: 201, ETag: p.ETag, Body: p.Body}, nil
}

func (c *container) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.c.mu.RLock()
	defer c.c.mu.RUnlock()
	body, doc, err := c.load(id, pk)
	if err != nil {
		return nil, err
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: docstore.ETagOf(doc), Body: body}, nil
}

func (c *container) ReplaceItem(ctx context.Context, id string, pk docstore.PartitionKey, doc []byte, opts *docstore.ItemOptions) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, docstore.BadRequest("document id %q doesn't match %q", p.ID, id)
	}
	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	_, cur, err := c.load(id, pk)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.IfMatch != "" && docstore.ETagOf(cur) != opts.IfMatch {
		return nil, docstore.PreconditionFailed("etag mismatch for %q", id)
	}
	if err := c.store(p, pk); err != nil {
		return nil, err
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: p.ETag, Body: p.Body}, nil
}

func (c *container) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	if _, _, err := c.load(id, pk); err != nil {
		return nil, err
	}
	if err := os.Remove(c.file(id, pk)); err != nil {
		return nil, fmt.Errorf("fs: delete %s: %w", id, err)
	}
	return &docstore.ItemResponse{StatusCode: 204}, nil
}

func (c *container) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	if err := ctx.Err(); err != nil {
		return docstore.ErrorPager(err)
	}
	c.c.mu.RLock()
	defer c.c.mu.RUnlock()

	dir := c.partitionDir(pk)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return docstore.NewSlicePager(nil, q)
		}
		return docstore.ErrorPager(fmt.Errorf("fs: list partition: %w", err))
	}
	type hit struct {
		id   string
		body json.RawMessage
	}
	var hits []hit
	now := c.c.now()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return docstore.ErrorPager(fmt.Errorf("fs: read %s: %w", e.Name(), err))
		}
		doc, err := docstore.Decode(body)
		if err != nil {
			return docstore.ErrorPager(err)
		}
		if docstore.Expired(doc, c.props.DefaultTTL, now) || !q.Match(doc) {
			continue
		}
		id, _ := doc[docstore.FieldID].(string)
		hits = append(hits, hit{id: id, body: body})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].id < hits[j].id })
	items := make([]json.RawMessage, len(hits))
	for i, h := range hits {
		items[i] = h.body
	}
	return docstore.NewSlicePager(items, q)
}

// segment escapa un id para usarlo como nombre de archivo.
func segment(s string) string { return url.PathEscape(s) }

func validID(id string) error {
	if id == "" || id == "." || id == ".." {
		return docstore.BadRequest("invalid document id %q", id)
	}
	return nil
}
