// Package redis implementa el document store sobre Redis.
//
// Cada partición es un hash (<prefix>docs:<db>:<container>:<pk>) con un campo
// por documento. Los writes condicionales usan WATCH + MULTI; las queries
// recorren la partición con HSCAN y el cursor es el continuation token.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

const (
	defaultPrefix = "identity:"
	// txRetries es la cantidad de reintentos ante WATCH abortado.
	txRetries = 5
)

func init() {
	docstore.RegisterAdapter(&redisAdapter{})
}

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return "redis" }

func (a *redisAdapter) Open(ctx context.Context, cfg docstore.AdapterConfig) (docstore.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		opts.PoolSize = int(cfg.MaxConns)
	}
	rdb := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return NewClient(rdb, cfg.KeyPrefix), nil
}

// Client implementa docstore.Client sobre go-redis.
type Client struct {
	rdb  *redis.Client
	keys keyspace
	now  func() time.Time
}

// NewClient envuelve un cliente go-redis existente.
func NewClient(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Client{rdb: rdb, keys: keyspace{prefix: prefix}, now: time.Now}
}

func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	if id == "" {
		return nil, docstore.BadRequest("database id is required")
	}
	if err := c.rdb.SetNX(ctx, c.keys.database(id), c.now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return nil, mapErr(err, "create database %s", id)
	}
	return &database{c: c, id: id}, nil
}

func (c *Client) Database(ctx context.Context, id string) (docstore.Database, error) {
	n, err := c.rdb.Exists(ctx, c.keys.database(id)).Result()
	if err != nil {
		return nil, mapErr(err, "read database %s", id)
	}
	if n == 0 {
		return nil, docstore.NotFound("database %q not found", id)
	}
	return &database{c: c, id: id}, nil
}

type database struct {
	c  *Client
	id string
}

func (d *database) ID() string { return d.id }

func (d *database) CreateContainerIfNotExists(ctx context.Context, props docstore.ContainerProperties) (docstore.Container, error) {
	if props.ID == "" {
		return nil, docstore.BadRequest("container id is required")
	}
	props.PartitionKeyPath = docstore.NormalizePartitionKeyPath(props.PartitionKeyPath)
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	if err := d.c.rdb.SetNX(ctx, d.c.keys.container(d.id, props.ID), data, 0).Err(); err != nil {
		return nil, mapErr(err, "create container %s", props.ID)
	}
	return d.Container(ctx, props.ID)
}

func (d *database) Container(ctx context.Context, id string) (docstore.Container, error) {
	data, err := d.c.rdb.Get(ctx, d.c.keys.container(d.id, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, docstore.NotFound("container %q not found", id)
		}
		return nil, mapErr(err, "read container %s", id)
	}
	var props docstore.ContainerProperties
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("redis: decode container %s: %w", id, err)
	}
	return &container{c: d.c, db: d.id, props: props}, nil
}

// keyspace arma las keys; los segmentos se escapan para que ":" no colisione.
type keyspace struct {
	prefix string
}

func (k keyspace) database(db string) string {
	return k.prefix + "db:" + url.QueryEscape(db)
}

func (k keyspace) container(db, id string) string {
	return k.prefix + "container:" + url.QueryEscape(db) + ":" + url.QueryEscape(id)
}

func (k keyspace) partition(db, container string, pk docstore.PartitionKey) string {
	seg := "_none"
	if !pk.IsNone() {
		seg = "pk-" + url.QueryEscape(pk.Value())
	}
	return k.prefix + "docs:" + url.QueryEscape(db) + ":" + url.QueryEscape(container) + ":" + seg
}

// mapErr traduce errores de go-redis a StatusError.
func mapErr(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *docstore.StatusError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, redis.TxFailedErr) {
		return docstore.Wrap(http.StatusServiceUnavailable, err, "redis: "+format, args...)
	}
	return docstore.Wrap(http.StatusInternalServerError, err, "redis: "+format, args...)
}

func parseCursor(token string) (uint64, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return 0, docstore.BadRequest("invalid continuation token %q", token)
	}
	return n, nil
}
