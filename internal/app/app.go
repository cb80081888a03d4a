// Package app compone el store de identidad: adapter → aprovisionamiento →
// provider → repositorios → stores.
package app

import (
	"context"
	"fmt"

	"github.com/mobsites/Cosmos.Identity/internal/bootstrap"
	"github.com/mobsites/Cosmos.Identity/internal/cache"
	"github.com/mobsites/Cosmos.Identity/internal/config"
	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/identity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
	"github.com/mobsites/Cosmos.Identity/internal/store"

	// Adapters registrados por scheme.
	_ "github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/fs"
	_ "github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	_ "github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/pg"
	_ "github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/raft"
	_ "github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/redis"
)

// App es el store de identidad armado.
type App struct {
	Client   docstore.Client
	Router   storage.ContainerRouter
	Provider storage.Provider
	Repos    *store.Repositories
	Users    *identity.UserStore
	Roles    *identity.RoleStore
	// Cache es nil si está deshabilitado.
	Cache cache.Client
}

// Build abre el document store, aprovisiona base y containers y arma los
// stores. Ante error libera lo que haya abierto.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := storage.ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(logger.Component("app"))

	var keyPrefix string
	if cfg.Cache.Prefix != "" {
		keyPrefix = cfg.Cache.Prefix + ":docs:"
	}
	client, err := docstore.Open(ctx, docstore.AdapterConfig{
		ConnectionString: cfg.ConnectionString,
		MaxConns:         cfg.Pool.MaxConns,
		KeyPrefix:        keyPrefix,
		Raft: docstore.RaftOptions{
			NodeID: cfg.Raft.NodeID,
			Addr:   cfg.Raft.Addr,
			Dir:    cfg.Raft.Dir,
			Peers:  cfg.Raft.Peers,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	router, err := bootstrap.Provision(ctx, client, bootstrap.Options{
		DatabaseID:        cfg.DatabaseID,
		ContainerID:       cfg.ContainerID,
		PartitionKeyPath:  cfg.PartitionKeyPath,
		Strategy:          strategy,
		PerKindContainers: cfg.PerKindContainers,
		DefaultTTL:        cfg.DefaultTTLSeconds,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	cc, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Driver,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: cfg.CacheTTL(),
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	provider := storage.NewProvider(router,
		storage.WithRateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	var repoOpts []store.Option
	if cc != nil {
		repoOpts = append(repoOpts, store.WithRoleCache(cc, cfg.CacheTTL()))
	}
	repos := store.New(provider, repoOpts...)

	idOpts := []identity.Option{identity.WithConfig(identity.Config{
		MaxRetries:      cfg.Concurrency.MaxRetries,
		Backoff:         cfg.ConcurrencyBackoff(),
		CascadeAttempts: cfg.Cascade.MaxAttempts,
	})}

	log.Info("identity store ready",
		logger.String("strategy", string(strategy)),
		logger.Database(cfg.DatabaseID),
		logger.String("cache", cfg.Cache.Driver))

	return &App{
		Client:   client,
		Router:   router,
		Provider: provider,
		Repos:    repos,
		Users:    identity.NewUserStore(repos, idOpts...),
		Roles:    identity.NewRoleStore(repos, idOpts...),
		Cache:    cc,
	}, nil
}

// Ping verifica el store y el cache.
func (a *App) Ping(ctx context.Context) error {
	if err := a.Client.Ping(ctx); err != nil {
		return err
	}
	if a.Cache != nil {
		return a.Cache.Ping(ctx)
	}
	return nil
}

// Close libera el cache y el cliente del store.
func (a *App) Close() error {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	return a.Client.Close()
}
