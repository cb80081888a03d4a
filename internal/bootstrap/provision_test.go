package bootstrap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/docstore/adapters/memory"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

func TestProvision_Idempotent(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	opts := Options{DatabaseID: "identity", ContainerID: "identity", PartitionKeyPath: "PartitionKey"}

	r1, err := Provision(ctx, client, opts)
	require.NoError(t, err)
	r2, err := Provision(ctx, client, opts)
	require.NoError(t, err)

	require.Len(t, r1.Containers(), 1)
	assert.Equal(t, r1.Containers()[0].ID(), r2.Containers()[0].ID())
	assert.Equal(t, "/PartitionKey", r2.Containers()[0].Properties().PartitionKeyPath)

	// Los datos escritos antes de re-aprovisionar siguen ahí.
	p := storage.NewProvider(r1)
	require.True(t, p.Create(ctx, entity.NewRole("Admin")).Succeeded)
	r3, err := Provision(ctx, client, opts)
	require.NoError(t, err)
	assert.Len(t, storage.NewCollection[entity.Role](storage.NewProvider(r3)).All(ctx), 1)
}

func TestProvision_Concurrent(t *testing.T) {
	ctx := context.Background()
	client := memory.New()
	opts := Options{DatabaseID: "identity", ContainerID: "identity", Strategy: storage.StrategyPerKind}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := Provision(ctx, client, opts)
			return err
		})
	}
	require.NoError(t, g.Wait())

	db, err := client.Database(ctx, "identity")
	require.NoError(t, err)
	for _, kind := range entity.Kinds {
		_, err := db.Container(ctx, storage.PerKindContainerID("identity", kind))
		require.NoError(t, err, kind)
	}
}

// gatedClient frena CreateDatabaseIfNotExists hasta que se cierra release.
type gatedClient struct {
	docstore.Client
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedClient) CreateDatabaseIfNotExists(ctx context.Context, id string) (docstore.Database, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Client.CreateDatabaseIfNotExists(ctx, id)
}

func TestProvision_CancelledCallerDoesNotFailOthers(t *testing.T) {
	client := &gatedClient{Client: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	opts := Options{DatabaseID: "identity", ContainerID: "identity"}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Provision(first, client, opts)
		firstErr <- err
	}()
	<-client.entered

	secondErr := make(chan error, 1)
	go func() {
		_, err := Provision(context.Background(), client, opts)
		secondErr <- err
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	// Margen para que el segundo caller se sume al vuelo en curso.
	time.Sleep(20 * time.Millisecond)
	close(client.release)
	require.NoError(t, <-secondErr)

	_, err := client.Database(context.Background(), "identity")
	require.NoError(t, err)
}

func TestProvision_PerKindOverrides(t *testing.T) {
	ctx := context.Background()
	r, err := Provision(ctx, memory.New(), Options{
		DatabaseID:        "identity",
		ContainerID:       "identity",
		Strategy:          storage.StrategyPerKind,
		PerKindContainers: map[string]string{entity.KindUser: "users"},
	})
	require.NoError(t, err)
	c, err := r.ContainerFor(entity.KindUser)
	require.NoError(t, err)
	assert.Equal(t, "users", c.ID())
	assert.Len(t, r.Containers(), len(entity.Kinds))
}

func TestProvision_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := Provision(ctx, memory.New(), Options{ContainerID: "c"})
	require.Error(t, err)
	_, err = Provision(ctx, memory.New(), Options{DatabaseID: "d"})
	require.Error(t, err)
	_, err = Provision(ctx, memory.New(), Options{DatabaseID: "d", ContainerID: "c", Strategy: "sharded"})
	require.Error(t, err)
}
