package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPartitionKeyPath es el path de partition key cuando no se configura.
const DefaultPartitionKeyPath = "/PartitionKey"

// Errores de arranque: la configuración mínima no está.
var (
	ErrNoConnectionString = errors.New("config: no connection string")
	ErrNoDatabaseID       = errors.New("config: no database id")
	ErrNoContainerID      = errors.New("config: no container id")
)

type Config struct {
	// URL del document store; el esquema elige el adapter.
	ConnectionString string `yaml:"connection_string"`
	DatabaseID       string `yaml:"database_id"`
	ContainerID      string `yaml:"container_id"`
	PartitionKeyPath string `yaml:"partition_key_path"`

	// shared | per-kind
	Strategy string `yaml:"strategy"`
	// kind -> container id (solo per-kind). Default: <container_id>-<kind>.
	PerKindContainers map[string]string `yaml:"per_kind_containers"`
	// TTL default del container en segundos (0 = sin expiración).
	DefaultTTLSeconds int `yaml:"default_ttl_seconds"`

	Pool struct {
		MaxConns int32 `yaml:"max_conns"`
	} `yaml:"pool"`

	Concurrency struct {
		MaxRetries int    `yaml:"max_retries"`
		Backoff    string `yaml:"backoff"`
	} `yaml:"concurrency"`

	Cascade struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"cascade"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Cache struct {
		Driver string `yaml:"driver"` // none | memory | redis
		TTL    string `yaml:"ttl"`
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Raft struct {
		NodeID string            `yaml:"node_id"`
		Addr   string            `yaml:"addr"`
		Dir    string            `yaml:"dir"`
		Peers  map[string]string `yaml:"peers"` // nodeID -> host:port
	} `yaml:"raft"`

	Log struct {
		Env   string `yaml:"env"` // dev | prod
		Level string `yaml:"level"`
	} `yaml:"log"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
}

// Load lee el YAML (si path no es vacío), aplica defaults y overrides de
// entorno, y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.PartitionKeyPath) == "" {
		c.PartitionKeyPath = DefaultPartitionKeyPath
	}
	if !strings.HasPrefix(c.PartitionKeyPath, "/") {
		c.PartitionKeyPath = "/" + c.PartitionKeyPath
	}
	if c.Strategy == "" {
		c.Strategy = "shared"
	}
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	if c.Concurrency.MaxRetries == 0 {
		c.Concurrency.MaxRetries = 5
	}
	if c.Concurrency.Backoff == "" {
		c.Concurrency.Backoff = "20ms"
	}
	if c.Cascade.MaxAttempts == 0 {
		c.Cascade.MaxAttempts = 2
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "identity"
	}
	if c.Raft.Peers == nil {
		c.Raft.Peers = map[string]string{}
	}
	if c.Log.Env == "" {
		c.Log.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
}

// Validate falla rápido si falta la configuración mínima o hay valores
// inválidos.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ConnectionString) == "" {
		return ErrNoConnectionString
	}
	if strings.TrimSpace(c.DatabaseID) == "" {
		return ErrNoDatabaseID
	}
	if strings.TrimSpace(c.ContainerID) == "" {
		return ErrNoContainerID
	}
	switch c.Strategy {
	case "", "shared", "per-kind":
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if c.DefaultTTLSeconds < 0 {
		return fmt.Errorf("config: default_ttl_seconds must be >= 0")
	}
	if c.Concurrency.Backoff != "" {
		if _, err := time.ParseDuration(c.Concurrency.Backoff); err != nil {
			return fmt.Errorf("config: concurrency.backoff: %w", err)
		}
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("config: cache.ttl: %w", err)
		}
	}
	switch strings.ToLower(c.Cache.Driver) {
	case "", "none", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}

// ConcurrencyBackoff retorna concurrency.backoff parseado (0 si es inválido).
func (c *Config) ConcurrencyBackoff() time.Duration {
	d, _ := time.ParseDuration(c.Concurrency.Backoff)
	return d
}

// CacheTTL retorna cache.ttl parseado (0 si es inválido).
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// STORE
	if v, ok := getEnvStr("COSMOS_IDENTITY"); ok {
		c.ConnectionString = v
	}
	if v, ok := getEnvStr("IDENTITY_CONNECTION_STRING"); ok {
		c.ConnectionString = v
	}
	if v, ok := getEnvStr("IDENTITY_DATABASE_ID"); ok {
		c.DatabaseID = v
	}
	if v, ok := getEnvStr("IDENTITY_CONTAINER_ID"); ok {
		c.ContainerID = v
	}
	if v, ok := getEnvStr("IDENTITY_PARTITION_KEY_PATH"); ok {
		c.PartitionKeyPath = v
	}
	if v, ok := getEnvStr("IDENTITY_STRATEGY"); ok {
		c.Strategy = v
	}
	if v, ok := getEnvKVList("IDENTITY_PER_KIND_CONTAINERS", ","); ok {
		c.PerKindContainers = v
	}
	if v, ok := getEnvInt("IDENTITY_DEFAULT_TTL_SECONDS"); ok {
		c.DefaultTTLSeconds = v
	}
	if v, ok := getEnvInt("IDENTITY_MAX_CONNS"); ok {
		c.Pool.MaxConns = int32(v)
	}

	// CONCURRENCY / CASCADE / RATE
	if v, ok := getEnvInt("IDENTITY_MAX_RETRIES"); ok {
		c.Concurrency.MaxRetries = v
	}
	if v, ok := getEnvStr("IDENTITY_RETRY_BACKOFF"); ok {
		c.Concurrency.Backoff = v
	}
	if v, ok := getEnvInt("IDENTITY_CASCADE_MAX_ATTEMPTS"); ok {
		c.Cascade.MaxAttempts = v
	}
	if v, ok := getEnvFloat("IDENTITY_RATE_LIMIT_RPS"); ok {
		c.RateLimit.RequestsPerSecond = v
	}
	if v, ok := getEnvInt("IDENTITY_RATE_LIMIT_BURST"); ok {
		c.RateLimit.Burst = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("CACHE_TTL"); ok {
		c.Cache.TTL = v
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// RAFT
	if v, ok := getEnvStr("RAFT_NODE_ID"); ok {
		c.Raft.NodeID = v
	}
	if v, ok := getEnvStr("RAFT_ADDR"); ok {
		c.Raft.Addr = v
	}
	if v, ok := getEnvStr("RAFT_DIR"); ok {
		c.Raft.Dir = v
	}
	if v, ok := getEnvKVList("RAFT_PEERS", ","); ok {
		c.Raft.Peers = v
	}

	// LOG / HTTP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.Log.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
}

// parse env of form "k1=v1<sep>k2=v2" into map
func parseKVList(s, sep string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]string{}
	}
	items := strings.Split(s, sep)
	out := make(map[string]string, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		// split at first '='
		if i := strings.IndexRune(it, '='); i > 0 {
			k := strings.TrimSpace(it[:i])
			v := strings.TrimSpace(it[i+1:])
			if k != "" && v != "" {
				out[k] = v
			}
		}
	}
	return out
}

func getEnvKVList(key, sep string) (map[string]string, bool) {
	if s, ok := getEnvStr(key); ok {
		return parseKVList(s, sep), true
	}
	return nil, false
}
