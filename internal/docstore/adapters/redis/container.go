package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
)

type container struct {
	c     *Client
	db    string
	props docstore.ContainerProperties
}

func (c *container) ID() string                               { return c.props.ID }
func (c *container) Properties() docstore.ContainerProperties { return c.props }

// hgetter lo cumplen *redis.Client y *redis.Tx.
type hgetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// live lee un documento no expirado de la partición.
func (c *container) live(ctx context.Context, cmd hgetter, key, id string) ([]byte, map[string]any, error) {
	body, err := cmd.HGet(ctx, key, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil, docstore.NotFound("entity with id %q does not exist", id)
		}
		return nil, nil, mapErr(err, "read item %s", id)
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

// watched ejecuta fn bajo WATCH key, reintentando si otro cliente modificó la partición.
func (c *container) watched(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	var err error
	for i := 0; i < txRetries; i++ {
		err = c.c.rdb.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (c *container) CreateItem(ctx context.Context, pk docstore.PartitionKey, doc []byte) (*docstore.ItemResponse, error) {
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	key := c.c.keys.partition(c.db, c.props.ID, pk)
	err = c.watched(ctx, key, func(tx *redis.Tx) error {
		if _, _, err := c.live(ctx, tx, key, p.ID); err == nil {
			return docstore.Conflict("entity with id %q already exists", p.ID)
		} else if !docstore.IsNotFound(err) {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, p.ID, p.Body)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, mapErr(err, "create item %s", p.ID)
	}
	return &docstore.ItemResponse{StatusCode: 201, ETag: p.ETag, Body: p.Body}, nil
}

func (c *container) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	body, doc, err := c.live(ctx, c.c.rdb, c.c.keys.partition(c.db, c.props.ID, pk), id)
	if err != nil {
		return nil, err
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: docstore.ETagOf(doc), Body: body}, nil
}

func (c *container) ReplaceItem(ctx context.Context, id string, pk docstore.PartitionKey, doc []byte, opts *docstore.ItemOptions) (*docstore.ItemResponse, error) {
	p, err := docstore.Prepare(doc, c.props, pk, docstore.NewStamp())
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, docstore.BadRequest("document id %q doesn't match %q", p.ID, id)
	}
	key := c.c.keys.partition(c.db, c.props.ID, pk)
	err = c.watched(ctx, key, func(tx *redis.Tx) error {
		_, cur, err := c.live(ctx, tx, key, id)
		if err != nil {
			return err
		}
		if opts != nil && opts.IfMatch != "" && docstore.ETagOf(cur) != opts.IfMatch {
			return docstore.PreconditionFailed("etag mismatch for %q", id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, p.Body)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, mapErr(err, "replace item %s", id)
	}
	return &docstore.ItemResponse{StatusCode: 200, ETag: p.ETag, Body: p.Body}, nil
}

func (c *container) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	key := c.c.keys.partition(c.db, c.props.ID, pk)
	err := c.watched(ctx, key, func(tx *redis.Tx) error {
		if _, _, err := c.live(ctx, tx, key, id); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, id)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, mapErr(err, "delete item %s", id)
	}
	return &docstore.ItemResponse{StatusCode: 204}, nil
}

func (c *container) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	cursor, err := parseCursor(q.Continuation)
	if err != nil {
		return docstore.ErrorPager(err)
	}
	return &pager{c: c, key: c.c.keys.partition(c.db, c.props.ID, pk), q: q, cursor: cursor}
}

// pager recorre la partición con HSCAN. Una página puede traer menos de
// PageSize documentos (o ninguno) si hay documentos que no cumplen la query.
type pager struct {
	c      *container
	key    string
	q      docstore.Query
	cursor uint64
	done   bool
}

func (p *pager) HasMoreResults() bool { return !p.done }

func (p *pager) ReadNext(ctx context.Context) (docstore.Page, error) {
	if p.done {
		return docstore.Page{}, nil
	}
	kv, next, err := p.c.c.rdb.HScan(ctx, p.key, p.cursor, "", int64(p.q.Size())).Result()
	if err != nil {
		p.done = true
		return docstore.Page{}, mapErr(err, "query %s", p.c.props.ID)
	}
	now := p.c.c.now()
	var items []json.RawMessage
	for i := 0; i+1 < len(kv); i += 2 {
		body := []byte(kv[i+1])
		doc, err := docstore.Decode(body)
		if err != nil {
			p.done = true
			return docstore.Page{}, err
		}
		if docstore.Expired(doc, p.c.props.DefaultTTL, now) || !p.q.Match(doc) {
			continue
		}
		items = append(items, body)
	}
	page := docstore.Page{Items: items}
	if next == 0 {
		p.done = true
	} else {
		p.cursor = next
		page.ContinuationToken = strconv.FormatUint(next, 10)
	}
	return page, nil
}
