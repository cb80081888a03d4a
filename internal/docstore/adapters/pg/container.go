package pg

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

type container struct {
	c     *Client
	db    string
	props docstore.ContainerProperties
}

func (c *container) ID() string                               { return c.props.ID }
func (c *container) Properties() docstore.ContainerProperties { return c.props }

// liveClause filtra documentos expirados; $1 es el unix time actual.
const liveClause = `(expires_at IS NULL OR expires_at > $1)`

func (c *container) expiresAt(p *docstore.Prepared) *int64 {
	at, ok := docstore.ExpiresAt(p.Doc, c.props.DefaultTTL)
	if !ok {
		return nil
	}
	return &at
}

func (c *container) CreateItem(ctx context.Context, pk docstore.PartitionKey, doc []byte) (*docstore.ItemResponse, error) {
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	// Un documento expirado con el mismo id se pisa; uno vivo es conflicto.
	tag, err := c.c.pool.Exec(ctx, `
		INSERT INTO identity_documents (database_id, container_id, partition_key, id, etag, ts, expires_at, doc)
		VALUES ($2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (database_id, container_id, partition_key, id) DO UPDATE
		SET etag = EXCLUDED.etag, ts = EXCLUDED.ts, expires_at = EXCLUDED.expires_at, doc = EXCLUDED.doc
		WHERE NOT `+qualified(liveClause),
		c.c.now().Unix(), c.db, c.props.ID, pk.Value(), p.ID, p.ETag, p.Doc[docstore.FieldTimestamp], c.expiresAt(p), p.Body)
	if err != nil {
		return nil, mapErr(err, "create item %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, docstore.Conflict("entity with id %q already exists", p.ID)
	}
	return &docstore.ItemResponse{StatusCode: 201, ETag: p.ETag, Body: p.Body}, nil
}

// qualified califica las columnas del liveClause con la tabla (para ON CONFLICT).
func qualified(clause string) string {
	return strings.ReplaceAll(clause, "expires_at", "identity_documents.expires_at")
}

func (c *container) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	var (
		etag string
		body []byte
	)
	err := c.c.pool.QueryRow(ctx, `
		SELECT etag, doc FROM identity_documents
		WHERE database_id = $2 AND container_id = $3 AND partition_key = $4 AND id = $5 AND `+liveClause,
		c.c.now().Unix(), c.db, c.props.ID, pk.Value(), id).Scan(&etag, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.NotFound("entity with id %q does not exist", id)
		}
		return nil, mapErr(err, "read item %s", id)
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: etag, Body: body}, nil
}

func (c *container) ReplaceItem(ctx context.Context, id string, pk docstore.PartitionKey, doc []byte, opts *docstore.ItemOptions) (*docstore.ItemResponse, error) {
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, docstore.BadRequest("document id %q doesn't match %q", p.ID, id)
	}
	var ifMatch string
	if opts != nil {
		ifMatch = opts.IfMatch
	}
	tag, err := c.c.pool.Exec(ctx, `
		UPDATE identity_documents SET etag = $6, ts = $7, expires_at = $8, doc = $9
		WHERE database_id = $2 AND container_id = $3 AND partition_key = $4 AND id = $5
		  AND ($10 = '' OR etag = $10) AND `+liveClause,
		c.c.now().Unix(), c.db, c.props.ID, pk.Value(), id, p.ETag, p.Doc[docstore.FieldTimestamp], c.expiresAt(p), p.Body, ifMatch)
	if err != nil {
		return nil, mapErr(err, "replace item %s", id)
	}
	if tag.RowsAffected() == 0 {
		// Distinguir "no existe" de "etag distinto".
		if _, rerr := c.ReadItem(ctx, id, pk); rerr != nil {
			return nil, rerr
		}
		return nil, docstore.PreconditionFailed("etag mismatch for %q", id)
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: p.ETag, Body: p.Body}, nil
}

func (c *container) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	tag, err := c.c.pool.Exec(ctx, `
		DELETE FROM identity_documents
		WHERE database_id = $2 AND container_id = $3 AND partition_key = $4 AND id = $5 AND `+liveClause,
		c.c.now().Unix(), c.db, c.props.ID, pk.Value(), id)
	if err != nil {
		return nil, mapErr(err, "delete item %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, docstore.NotFound("entity with id %q does not exist", id)
	}
	return &docstore.ItemResponse{StatusCode: 204}, nil
}

func (c *container) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	offset := 0
	if q.Continuation != "" {
		n, err := strconv.Atoi(q.Continuation)
		if err != nil || n < 0 {
			return docstore.ErrorPager(docstore.BadRequest("invalid continuation token %q", q.Continuation))
		}
		offset = n
	}
	where, args := buildWhere(q.Where, 5)
	sql := `SELECT doc FROM identity_documents
		WHERE database_id = $2 AND container_id = $3 AND partition_key = $4 AND ` + liveClause + where
	base := append([]any{c.c.now().Unix(), c.db, c.props.ID, pk.Value()}, args...)
	return &pager{c: c, sql: sql, args: base, size: q.Size(), offset: offset}
}

// buildWhere traduce las condiciones a SQL sobre el JSONB. next es el primer
// placeholder libre. Campo y valor van siempre como parámetros.
func buildWhere(conds []docstore.Condition, next int) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	for _, cond := range conds {
		f, v := "$"+strconv.Itoa(next), "$"+strconv.Itoa(next+1)
		switch cond.Op {
		case docstore.OpEq:
			sb.WriteString(" AND doc->>" + f + " = " + v)
		case docstore.OpContains:
			sb.WriteString(" AND strpos(doc->>" + f + ", " + v + ") > 0")
		case docstore.OpContainsToken:
			sb.WriteString(" AND " + v + " = ANY(string_to_array(doc->>" + f + ", '" + docstore.TokenSeparator + "'))")
		default:
			sb.WriteString(" AND FALSE")
			continue
		}
		args = append(args, cond.Field, cond.Value)
		next += 2
	}
	return sb.String(), args
}

// pager pagina con LIMIT/OFFSET; pide una fila extra para saber si hay más.
type pager struct {
	c      *container
	sql    string
	args   []any
	size   int
	offset int
	done   bool
}

func (p *pager) HasMoreResults() bool { return !p.done }

func (p *pager) ReadNext(ctx context.Context) (docstore.Page, error) {
	if p.done {
		return docstore.Page{}, nil
	}
	n := len(p.args)
	sql := p.sql + " ORDER BY id LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	rows, err := p.c.c.pool.Query(ctx, sql, append(p.args, p.size+1, p.offset)...)
	if err != nil {
		p.done = true
		return docstore.Page{}, mapErr(err, "query %s", p.c.props.ID)
	}
	defer rows.Close()

	var items []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			p.done = true
			return docstore.Page{}, mapErr(err, "scan %s", p.c.props.ID)
		}
		items = append(items, body)
	}
	if err := rows.Err(); err != nil {
		p.done = true
		return docstore.Page{}, mapErr(err, "query %s", p.c.props.ID)
	}

	page := docstore.Page{}
	if len(items) > p.size {
		items = items[:p.size]
		p.offset += p.size
		page.ContinuationToken = strconv.Itoa(p.offset)
	} else {
		p.done = true
	}
	page.Items = items
	return page, nil
}
