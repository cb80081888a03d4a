// Package raft implementa un document store replicado: el motor en memoria
// vive en cada nodo y los writes pasan por el log de Raft.
// Las lecturas son locales (un follower puede estar levemente atrasado).
package raft

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mobsites/Cosmos.Identity/internal/cluster"
	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

// leaderWait es la espera por defecto para elegir leader al abrir.
const leaderWait = 15 * time.Second

func init() {
	docstore.RegisterAdapter(&raftAdapter{})
}

type raftAdapter struct{}

func (a *raftAdapter) Name() string { return "raft" }

// Open levanta el nodo local. El connection string aporta defaults:
//
//	raft://127.0.0.1:7000?node=n1&dir=/var/lib/identity/raft
//	raft://local?inmem=true
func (a *raftAdapter) Open(ctx context.Context, cfg docstore.AdapterConfig) (docstore.Client, error) {
	opts, err := nodeOptions(cfg)
	if err != nil {
		return nil, err
	}
	fsm := cluster.NewFSM(memory.NewEngine())
	opts.FSM = fsm
	node, err := cluster.NewNode(opts)
	if err != nil {
		return nil, fmt.Errorf("raft: %w", err)
	}

	// Con peers estáticos el leader puede tardar en aparecer; solo esperamos en single-node.
	if len(opts.Peers) <= 1 {
		wctx := ctx
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(ctx, leaderWait)
			defer cancel()
		}
		if err := node.WaitForLeader(wctx); err != nil {
			_ = node.Close()
			return nil, fmt.Errorf("raft: wait for leader: %w", err)
		}
	}
	return NewClient(node), nil
}

func nodeOptions(cfg docstore.AdapterConfig) (cluster.NodeOptions, error) {
	opts := cluster.NodeOptions{
		NodeID:   cfg.Raft.NodeID,
		RaftAddr: cfg.Raft.Addr,
		RaftDir:  cfg.Raft.Dir,
		Peers:    cfg.Raft.Peers,
	}
	if cfg.ConnectionString != "" {
		u, err := url.Parse(cfg.ConnectionString)
		if err != nil {
			return opts, fmt.Errorf("raft: parse connection string: %w", err)
		}
		q := u.Query()
		opts.InMemory = strings.EqualFold(q.Get("inmem"), "true")
		if opts.NodeID == "" {
			opts.NodeID = q.Get("node")
		}
		if opts.RaftAddr == "" && !opts.InMemory {
			opts.RaftAddr = u.Host
		}
		if opts.RaftDir == "" {
			opts.RaftDir = q.Get("dir")
		}
	}
	if opts.NodeID == "" {
		opts.NodeID = "node1"
	}
	return opts, nil
}

// Client implementa docstore.Client sobre un cluster.Node.
type Client struct {
	node *cluster.Node
}

// NewClient envuelve un nodo ya iniciado.
func NewClient(node *cluster.Node) *Client {
	return &Client{node: node}
}

// Node expone el nodo Raft (health, stats).
func (c *Client) Node() *cluster.Node { return c.node }

func (c *Client) engine() *memory.Engine { return c.node.FSM().Engine() }

// apply propone el comando y traduce el resultado del FSM.
func (c *Client) apply(ctx context.Context, cmd cluster.Command) (*cluster.ApplyResult, error) {
	res, err := c.node.Apply(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return res, nil
}

func (c *Client) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	if id == "" {
		return nil, docstore.BadRequest("database id is required")
	}
	if !c.engine().HasDatabase(id) {
		if _, err := c.apply(ctx, cluster.Command{Type: cluster.CmdCreateDatabase, Database: id}); err != nil {
			return nil, err
		}
	}
	return &database{c: c, id: id}, nil
}

func (c *Client) Database(ctx context.Context, id string) (docstore.Database, error) {
	if !c.engine().HasDatabase(id) {
		return nil, docstore.NotFound("database %q not found", id)
	}
	return &database{c: c, id: id}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.node.LeaderID() == "" {
		return &docstore.StatusError{StatusCode: http.StatusServiceUnavailable, Message: "no raft leader", Err: repository.ErrUnavailable}
	}
	return nil
}

func (c *Client) Close() error { return c.node.Close() }

type database struct {
	c  *Client
	id string
}

func (d *database) ID() string { return d.id }

func (d *database) CreateContainerIfNotExists(ctx context.Context, props docstore.ContainerProperties) (docstore.Container, error) {
	if props.ID == "" {
		return nil, docstore.BadRequest("container id is required")
	}
	if got, err := d.c.engine().ContainerProperties(d.id, props.ID); err == nil {
		return &container{c: d.c, db: d.id, props: got}, nil
	}
	res, err := d.c.apply(ctx, cluster.Command{Type: cluster.CmdCreateContainer, Database: d.id, Props: &props})
	if err != nil {
		return nil, err
	}
	return &container{c: d.c, db: d.id, props: res.Props}, nil
}

func (d *database) Container(ctx context.Context, id string) (docstore.Container, error) {
	props, err := d.c.engine().ContainerProperties(d.id, id)
	if err != nil {
		return nil, err
	}
	return &container{c: d.c, db: d.id, props: props}, nil
}

type container struct {
	c     *Client
	db    string
	props docstore.ContainerProperties
}

func (c *container) ID() string                               { return c.props.ID }
func (c *container) Properties() docstore.ContainerProperties { return c.props }

func (c *container) write(ctx context.Context, cmd cluster.Command) (*docstore.ItemResponse, error) {
	cmd.Database = c.db
	cmd.Container = c.props.ID
	cmd.Stamp = docstore.NewStamp()
	res, err := c.c.apply(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return res.Response, nil
}

func (c *container) CreateItem(ctx context.Context, pk docstore.PartitionKey, doc []byte) (*docstore.ItemResponse, error) {
	return c.write(ctx, cluster.Command{Type: cluster.CmdCreateItem, PartitionKey: pk.Value(), Doc: doc})
}

func (c *container) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.c.engine().Read(c.db, c.props.ID, id, pk)
}

func (c *container) ReplaceItem(ctx context.Context, id string, pk docstore.PartitionKey, doc []byte, opts *docstore.ItemOptions) (*docstore.ItemResponse, error) {
	cmd := cluster.Command{Type: cluster.CmdReplaceItem, ID: id, PartitionKey: pk.Value(), Doc: doc}
	if opts != nil {
		cmd.IfMatch = opts.IfMatch
	}
	return c.write(ctx, cmd)
}

func (c *container) DeleteItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	return c.write(ctx, cluster.Command{Type: cluster.CmdDeleteItem, ID: id, PartitionKey: pk.Value()})
}

func (c *container) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	if err := ctx.Err(); err != nil {
		return docstore.ErrorPager(err)
	}
	items, err := c.c.engine().Query(c.db, c.props.ID, pk, q)
	if err != nil {
		return docstore.ErrorPager(err)
	}
	return docstore.NewSlicePager(items, q)
}
