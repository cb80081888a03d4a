package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"go.uber.org/zap"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
	appmetrics "github.com/mobsites/Cosmos.Identity/internal/metrics"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

// Node es un wrapper liviano alrededor de *raft.Raft
// que provee helpers de Apply/Leader/Close y un constructor
// que inicializa stores (BoltDB), snapshots y transporte TCP.
type Node struct {
	r            *raft.Raft
	fsm          *FSM
	applyTimeout time.Duration
	id           raft.ServerID
	addr         raft.ServerAddress
	peers        map[string]string // nodeID -> raftAddr
	log          *zap.Logger
	stop         chan struct{}
}

type NodeOptions struct {
	NodeID   string            // Identidad de este nodo
	RaftAddr string            // host:port para transporte Raft
	RaftDir  string            // Directorio de datos de Raft (bolt + snapshots)
	FSM      *FSM              // Máquina de estados
	Peers    map[string]string // Conjunto estático de peers (nodeID->raftAddr). Si >1, bootstrap estático en 1 nodo.

	// DisableBootstrap: si true, este nodo NO hará bootstrap aunque no tenga estado previo.
	DisableBootstrap bool

	// InMemory usa stores y transporte en memoria (tests, un solo proceso).
	InMemory bool

	// LogOutput destino del log interno de raft. Default: stderr.
	LogOutput io.Writer
	// LogLevel del log interno de raft. Default: "warn".
	LogLevel string
}

func NewNode(opts NodeOptions) (*Node, error) {
	if opts.NodeID == "" || opts.FSM == nil {
		return nil, errors.New("cluster: invalid NodeOptions")
	}
	if !opts.InMemory && (opts.RaftAddr == "" || opts.RaftDir == "") {
		return nil, errors.New("cluster: raft addr and dir are required")
	}
	log := logger.Named("cluster").With(zap.String("node_id", opts.NodeID))

	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	level := opts.LogLevel
	if level == "" {
		level = "warn"
	}
	hlog := hclog.New(&hclog.LoggerOptions{Name: "raft", Level: hclog.LevelFromString(level), Output: out})

	var (
		logStore    raft.LogStore
		stableStore raft.StableStore
		snapStore   raft.SnapshotStore
		trans       raft.Transport
		boltPath    string
	)
	cfg := raft.DefaultConfig()
	cfg.LocalID = raft.ServerID(opts.NodeID)
	cfg.Logger = hlog

	if opts.InMemory {
		store := raft.NewInmemStore()
		logStore, stableStore = store, store
		snapStore = raft.NewInmemSnapshotStore()
		addr := raft.ServerAddress(opts.RaftAddr)
		if addr == "" {
			addr = raft.ServerAddress(opts.NodeID)
		}
		_, trans = raft.NewInmemTransport(addr)
		// Timeouts cortos: no hay red de por medio.
		cfg.HeartbeatTimeout = 50 * time.Millisecond
		cfg.ElectionTimeout = 50 * time.Millisecond
		cfg.LeaderLeaseTimeout = 50 * time.Millisecond
		cfg.CommitTimeout = 5 * time.Millisecond
	} else {
		if err := os.MkdirAll(opts.RaftDir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir raft dir: %w", err)
		}
		// Stores: log + stable en la misma Bolt DB.
		boltPath = filepath.Join(opts.RaftDir, "raft.db")
		boltStore, err := raftboltdb.NewBoltStore(boltPath)
		if err != nil {
			return nil, fmt.Errorf("bolt store: %w", err)
		}
		logStore, stableStore = boltStore, boltStore

		// Snapshots en disco (retenemos 2).
		fss, err := raft.NewFileSnapshotStoreWithLogger(opts.RaftDir, 2, hlog)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		snapStore = fss

		tcp, err := raft.NewTCPTransportWithLogger(opts.RaftAddr, nil, 3, 10*time.Second, hlog)
		if err != nil {
			return nil, fmt.Errorf("tcp transport: %w", err)
		}
		trans = tcp
	}

	r, err := raft.NewRaft(cfg, opts.FSM, logStore, stableStore, snapStore, trans)
	if err != nil {
		return nil, fmt.Errorf("new raft: %w", err)
	}

	n := &Node{
		r:            r,
		fsm:          opts.FSM,
		applyTimeout: 5 * time.Second,
		id:           cfg.LocalID,
		addr:         trans.LocalAddr(),
		peers:        opts.Peers,
		log:          log,
		stop:         make(chan struct{}),
	}

	hasState, err := raft.HasExistingState(logStore, stableStore, snapStore)
	if err != nil {
		return nil, fmt.Errorf("check state: %w", err)
	}
	if !hasState {
		if err := n.bootstrap(opts); err != nil {
			return nil, err
		}
	}

	go n.watch(r.LeaderCh(), boltPath)
	return n, nil
}

// bootstrap arma la configuración inicial: un solo nodo, o el conjunto estático
// de peers desde el nodo de menor NodeID.
func (n *Node) bootstrap(opts NodeOptions) error {
	if opts.DisableBootstrap {
		n.log.Info("join-only mode: skipping bootstrap", logger.String("addr", string(n.addr)))
		return nil
	}
	if len(opts.Peers) <= 1 {
		conf := raft.Configuration{Servers: []raft.Server{{ID: n.id, Address: n.addr}}}
		if err := n.r.BootstrapCluster(conf).Error(); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		n.log.Info("bootstrapped single-node cluster", logger.String("addr", string(n.addr)))
		return nil
	}
	smallest := opts.NodeID
	for k := range opts.Peers {
		if k < smallest {
			smallest = k
		}
	}
	if opts.NodeID != smallest {
		n.log.Info("waiting to join static cluster", logger.String("bootstrap", smallest))
		return nil
	}
	var servers []raft.Server
	for id, addr := range opts.Peers {
		servers = append(servers, raft.Server{ID: raft.ServerID(id), Address: raft.ServerAddress(addr)})
	}
	if err := n.r.BootstrapCluster(raft.Configuration{Servers: servers}).Error(); err != nil {
		return fmt.Errorf("bootstrap(static): %w", err)
	}
	n.log.Info("bootstrapped static cluster", logger.Count(len(servers)))
	return nil
}

// watch cuenta cambios de liderazgo y el tamaño del log en disco.
func (n *Node) watch(leaderCh <-chan bool, boltPath string) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-n.stop:
			return
		case v := <-leaderCh:
			if v {
				appmetrics.RaftLeadershipChanges.Inc()
				n.log.Info("acquired leadership")
			}
		case <-t.C:
			if boltPath == "" {
				continue
			}
			if st, err := os.Stat(boltPath); err == nil {
				appmetrics.RaftLogSizeBytes.Set(float64(st.Size()))
			}
		}
	}
}

// FSM retorna la máquina de estados local.
func (n *Node) FSM() *FSM { return n.fsm }

// Apply serializa el comando, espera commit y retorna el resultado del FSM.
func (n *Node) Apply(ctx context.Context, c Command) (*ApplyResult, error) {
	if n == nil || n.r == nil {
		return nil, errors.New("raft not initialized")
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	resp, err := n.ApplyBytes(ctx, buf)
	if err != nil {
		return nil, err
	}
	res, ok := resp.(*ApplyResult)
	if !ok {
		return nil, fmt.Errorf("cluster: unexpected apply response %T", resp)
	}
	return res, nil
}

// ApplyBytes envía bytes raw al Raft log y retorna la respuesta del FSM.
// Respeta cancelación de ctx mientras espera el futuro.
func (n *Node) ApplyBytes(ctx context.Context, data []byte) (interface{}, error) {
	if n == nil || n.r == nil {
		return nil, errors.New("raft not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	fut := n.r.Apply(data, n.applyTimeout)

	done := make(chan error, 1)
	go func() { done <- fut.Error() }()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		appmetrics.RaftApplyLatency.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) {
				return nil, &docstore.StatusError{
					StatusCode: http.StatusServiceUnavailable,
					Message:    fmt.Sprintf("not the leader (leader=%s)", n.LeaderID()),
					Err:        repository.ErrUnavailable,
				}
			}
			return nil, err
		}
		return fut.Response(), nil
	}
}

// WaitForLeader bloquea hasta que el cluster tenga leader o ctx termine.
func (n *Node) WaitForLeader(ctx context.Context) error {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for {
		if addr, _ := n.r.LeaderWithID(); addr != "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (n *Node) IsLeader() bool {
	if n == nil || n.r == nil {
		return false
	}
	return n.r.State() == raft.Leader
}

func (n *Node) LeaderID() string {
	if n == nil || n.r == nil {
		return ""
	}
	addr, id := n.r.LeaderWithID()
	if id != "" {
		return string(id)
	}
	return string(addr)
}

func (n *Node) NodeID() string {
	if n == nil {
		return ""
	}
	return string(n.id)
}

// Stats expone el mapa de raft.Raft.Stats().
func (n *Node) Stats() map[string]string {
	if n == nil || n.r == nil {
		return map[string]string{}
	}
	return n.r.Stats()
}

func (n *Node) Close() error {
	if n == nil || n.r == nil {
		return nil
	}
	select {
	case <-n.stop:
	default:
		close(n.stop)
	}
	return n.r.Shutdown().Error()
}
