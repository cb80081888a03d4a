// Package bootstrap aprovisiona la base y los containers del store de
// identidad. Es idempotente y seguro de invocar en cada arranque.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

// Options describe qué aprovisionar.
type Options struct {
	DatabaseID       string
	ContainerID      string
	PartitionKeyPath string
	Strategy         storage.Strategy
	// PerKindContainers pisa el id de container por tipo (solo per-kind).
	PerKindContainers map[string]string
	// DefaultTTL del container en segundos.
	DefaultTTL int
}

var group singleflight.Group

// Provision crea la base y el/los containers si no existen y retorna el
// router para la estrategia pedida. Llamadas concurrentes con el mismo
// destino se colapsan en una sola, que corre desacoplada de la cancelación
// de cada caller; cada caller espera según su propio ctx.
func Provision(ctx context.Context, client docstore.Client, opts Options) (storage.ContainerRouter, error) {
	if client == nil {
		return nil, errors.New("bootstrap: nil client")
	}
	if opts.DatabaseID == "" {
		return nil, errors.New("bootstrap: no database id")
	}
	if opts.ContainerID == "" {
		return nil, errors.New("bootstrap: no container id")
	}
	if opts.Strategy == "" {
		opts.Strategy = storage.StrategyShared
	}

	key := fmt.Sprintf("%p/%s/%s/%s", client, opts.DatabaseID, opts.ContainerID, opts.Strategy)
	ch := group.DoChan(key, func() (any, error) {
		return provision(context.WithoutCancel(ctx), client, opts)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			logger.From(ctx).Debug("provisioning shared with concurrent caller", logger.Database(opts.DatabaseID))
		}
		return r.Val.(storage.ContainerRouter), nil
	}
}

func provision(ctx context.Context, client docstore.Client, opts Options) (storage.ContainerRouter, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Database(opts.DatabaseID))

	db, err := client.CreateDatabaseIfNotExists(ctx, opts.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create database %s: %w", opts.DatabaseID, err)
	}

	create := func(id string) (docstore.Container, error) {
		want := docstore.NormalizePartitionKeyPath(opts.PartitionKeyPath)
		c, err := db.CreateContainerIfNotExists(ctx, docstore.ContainerProperties{
			ID:               id,
			PartitionKeyPath: want,
			DefaultTTL:       opts.DefaultTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create container %s: %w", id, err)
		}
		if got := c.Properties().PartitionKeyPath; got != want {
			log.Warn("container exists with a different partition key path",
				logger.Container(id), logger.String("want", want), logger.String("got", got))
		}
		return c, nil
	}

	switch opts.Strategy {
	case storage.StrategyShared:
		c, err := create(opts.ContainerID)
		if err != nil {
			return nil, err
		}
		log.Info("store provisioned", logger.Container(c.ID()), logger.String("strategy", string(opts.Strategy)))
		return storage.SharedContainer(c), nil

	case storage.StrategyPerKind:
		byKind := make(map[string]docstore.Container, len(entity.Kinds))
		for _, kind := range entity.Kinds {
			id := opts.PerKindContainers[kind]
			if id == "" {
				id = storage.PerKindContainerID(opts.ContainerID, kind)
			}
			c, err := create(id)
			if err != nil {
				return nil, err
			}
			byKind[kind] = c
		}
		log.Info("store provisioned", logger.Count(len(byKind)), logger.String("strategy", string(opts.Strategy)))
		return storage.PerKindContainers(byKind), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown strategy %q", opts.Strategy)
}
