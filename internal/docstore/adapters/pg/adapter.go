// Package pg implementa el document store sobre PostgreSQL.
// Cada documento es una fila JSONB; las condiciones de query se traducen a SQL.
package pg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

func init() {
	docstore.RegisterAdapter(&postgresAdapter{})
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS identity_databases (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS identity_containers (
	database_id        TEXT NOT NULL REFERENCES identity_databases(id) ON DELETE CASCADE,
	id                 TEXT NOT NULL,
	partition_key_path TEXT NOT NULL,
	default_ttl        INT  NOT NULL DEFAULT 0,
	PRIMARY KEY (database_id, id)
);
CREATE TABLE IF NOT EXISTS identity_documents (
	database_id   TEXT   NOT NULL,
	container_id  TEXT   NOT NULL,
	partition_key TEXT   NOT NULL,
	id            TEXT   NOT NULL,
	etag          TEXT   NOT NULL,
	ts            BIGINT NOT NULL,
	expires_at    BIGINT NULL,
	doc           JSONB  NOT NULL,
	PRIMARY KEY (database_id, container_id, partition_key, id),
	FOREIGN KEY (database_id, container_id) REFERENCES identity_containers(database_id, id) ON DELETE CASCADE
);`

// postgresAdapter implementa docstore.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "pg" }

func (a *postgresAdapter) Open(ctx context.Context, cfg docstore.AdapterConfig) (docstore.Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: migrate schema: %w", err)
	}
	return &Client{pool: pool, now: time.Now}, nil
}

// Client implementa docstore.Client sobre un pgxpool.
type Client struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func (c *Client) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	if id == "" {
		return nil, docstore.BadRequest("database id is required")
	}
	if _, err := c.pool.Exec(ctx, `INSERT INTO identity_databases (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return nil, mapErr(err, "create database %s", id)
	}
	return &database{c: c, id: id}, nil
}

func (c *Client) Database(ctx context.Context, id string) (docstore.Database, error) {
	var exists bool
	if err := c.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identity_databases WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, mapErr(err, "read database %s", id)
	}
	if !exists {
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
	_, err := d.c.pool.Exec(ctx, `
		INSERT INTO identity_containers (database_id, id, partition_key_path, default_ttl)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (database_id, id) DO NOTHING`,
		d.id, props.ID, props.PartitionKeyPath, props.DefaultTTL)
	if err != nil {
		return nil, mapErr(err, "create container %s", props.ID)
	}
	// Las propiedades vigentes son las del container existente.
	return d.Container(ctx, props.ID)
}

func (d *database) Container(ctx context.Context, id string) (docstore.Container, error) {
	props := docstore.ContainerProperties{ID: id}
	err := d.c.pool.QueryRow(ctx, `
		SELECT partition_key_path, default_ttl FROM identity_containers
		WHERE database_id = $1 AND id = $2`, d.id, id).Scan(&props.PartitionKeyPath, &props.DefaultTTL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.NotFound("container %q not found", id)
		}
		return nil, mapErr(err, "read container %s", id)
	}
	return &container{c: d.c, db: d.id, props: props}, nil
}

// mapErr traduce errores del driver a StatusError.
func mapErr(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *docstore.StatusError
	if errors.As(err, &se) {
		return se
	}
	return docstore.Wrap(http.StatusInternalServerError, err, "pg: "+format, args...)
}
