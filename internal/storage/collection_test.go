package storage

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/metrics"
)

// failingContainer delega en un container real pero falla las queries.
type failingContainer struct {
	docstore.Container
	err error
}

func (f *failingContainer) Query(ctx context.Context, pk docstore.PartitionKey, q docstore.Query) docstore.Pager {
	return docstore.ErrorPager(f.err)
}

func (f *failingContainer) ReadItem(ctx context.Context, id string, pk docstore.PartitionKey) (*docstore.ItemResponse, error) {
	return nil, f.err
}

func TestCollection_FindAndFirst(t *testing.T) {
	eachStrategy(t, func(t *testing.T, p Provider) {
		ctx := context.Background()
		roles := NewCollection[entity.Role](p)
		for _, n := range []string{"Admin", "Admin2", "Reader"} {
			require.True(t, roles.Create(ctx, entity.NewRole(n)).Succeeded)
		}

		got := roles.First(ctx, docstore.Eq("NormalizedName", "ADMIN"))
		require.NotNil(t, got)
		require.Equal(t, "Admin", got.Name)

		require.Nil(t, roles.First(ctx, docstore.Eq("NormalizedName", "NOPE")))
		require.Len(t, roles.Find(ctx, docstore.Contains("NormalizedName", "ADMIN")), 2)
		require.Len(t, roles.All(ctx), 3)
	})
}

func TestCollection_PageContinuation(t *testing.T) {
	ctx := context.Background()
	p := sharedProvider(t)
	roles := NewCollection[entity.Role](p)
	for _, n := range []string{"a", "b", "c"} {
		require.True(t, roles.Create(ctx, entity.NewRole(n)).Succeeded)
	}

	first, next, err := roles.Page(ctx, docstore.Query{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	rest, next, err := roles.Page(ctx, docstore.Query{PageSize: 2, Continuation: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Empty(t, next)
}

func TestCollection_ReadsDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	c, err := newDatabase(t).CreateContainerIfNotExists(ctx, docstore.ContainerProperties{ID: "identity"})
	require.NoError(t, err)
	boom := docstore.NewStatusError(503, "service unavailable")
	p := NewProvider(SharedContainer(&failingContainer{Container: c, err: boom}))
	users := NewCollection[entity.User](p)

	before := testutil.ToFloat64(metrics.DegradedReads.WithLabelValues(entity.KindUser))

	require.Empty(t, users.Find(ctx, docstore.Eq("NormalizedUserName", "ALICE")))
	require.NotNil(t, users.Find(ctx))
	require.Nil(t, users.First(ctx))
	require.Nil(t, users.FindByID(ctx, "u1"))

	_, err = users.Scan(ctx)
	require.ErrorIs(t, err, boom)

	after := testutil.ToFloat64(metrics.DegradedReads.WithLabelValues(entity.KindUser))
	require.Equal(t, before+4, after)
}
