package docstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Adapter abre conexiones a un backend concreto.
type Adapter interface {
	// Name retorna el nombre del adapter (ej: "memory", "fs", "pg", "redis", "raft").
	Name() string

	// Open establece la conexión con el backend.
	Open(ctx context.Context, cfg AdapterConfig) (Client, error)
}

// AdapterConfig configuración para abrir un document store.
type AdapterConfig struct {
	// Name del adapter. Si está vacío se deduce del scheme del ConnectionString.
	Name string

	// ConnectionString del backend (memory://, fs:///data, postgres://..., redis://..., raft://...).
	ConnectionString string

	// FSRoot directorio raíz para el adapter fs (pisa el path del connection string).
	FSRoot string

	// MaxConns tamaño máximo del pool (pg, redis). 0 = default del driver.
	MaxConns int32

	// KeyPrefix prefijo de keys (redis).
	KeyPrefix string

	// Raft opciones del backend replicado.
	Raft RaftOptions
}

// RaftOptions configura el nodo local del backend raft.
type RaftOptions struct {
	NodeID string
	Addr   string
	Dir    string
	Peers  map[string]string // nodeID -> raftAddr
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

var schemeAliases = map[string]string{
	"memory":     "memory",
	"mem":        "memory",
	"fs":         "fs",
	"file":       "fs",
	"postgres":   "pg",
	"postgresql": "pg",
	"pg":         "pg",
	"redis":      "redis",
	"rediss":     "redis",
	"raft":       "raft",
}

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("docstore: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdapterName deduce el adapter a partir del scheme del connection string.
func AdapterName(connectionString string) (string, error) {
	s := strings.TrimSpace(connectionString)
	if s == "" {
		return "", fmt.Errorf("docstore: empty connection string")
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("docstore: parse connection string: %w", err)
	}
	name, ok := schemeAliases[strings.ToLower(u.Scheme)]
	if !ok {
		return "", fmt.Errorf("docstore: unsupported scheme %q", u.Scheme)
	}
	return name, nil
}

// Open abre un Client usando el adapter indicado (o deducido) en la config.
func Open(ctx context.Context, cfg AdapterConfig) (Client, error) {
	name := cfg.Name
	if name == "" {
		n, err := AdapterName(cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		name = n
	}
	a, ok := GetAdapter(name)
	if !ok {
		return nil, fmt.Errorf("docstore: adapter %q not registered", name)
	}
	return a.Open(ctx, cfg)
}
