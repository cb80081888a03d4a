package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

func newContainer(t *testing.T, root string) docstore.Container {
	t.Helper()
	ctx := context.Background()
	client, err := New(root)
	require.NoError(t, err)
	db, err := client.CreateDatabaseIfNotExists(ctx, "identity")
	require.NoError(t, err)
	c, err := db.CreateContainerIfNotExists(ctx, docstore.ContainerProperties{ID: "docs", PartitionKeyPath: "PartitionKey"})
	require.NoError(t, err)
	return c
}

func doc(id, pk string, extra map[string]any) []byte {
	m := map[string]any{"id": id, "PartitionKey": pk}
	for k, v := range extra {
		m[k] = v
	}
	b, _ := json.Marshal(m)
	return b
}

func TestFS_CRUD(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	c := newContainer(t, root)
	require.Equal(t, "/PartitionKey", c.Properties().PartitionKeyPath)
	pk := docstore.NewPartitionKey("IdentityUser")

	created, err := c.CreateItem(ctx, pk, doc("u/1", "IdentityUser", map[string]any{"UserName": "alice"}))
	require.NoError(t, err)
	require.Equal(t, 201, created.StatusCode)
	require.FileExists(t, filepath.Join(root, "identity", "docs", "IdentityUser", "u%2F1.json"))

	_, err = c.CreateItem(ctx, pk, doc("u/1", "IdentityUser", nil))
	require.True(t, repository.IsConflict(err))

	_, err = c.ReplaceItem(ctx, "u/1", pk, doc("u/1", "IdentityUser", nil), &docstore.ItemOptions{IfMatch: `"nope"`})
	require.True(t, repository.IsPreconditionFailed(err))

	replaced, err := c.ReplaceItem(ctx, "u/1", pk, doc("u/1", "IdentityUser", map[string]any{"UserName": "bob"}), &docstore.ItemOptions{IfMatch: created.ETag})
	require.NoError(t, err)
	require.NotEqual(t, created.ETag, replaced.ETag)

	read, err := c.ReadItem(ctx, "u/1", pk)
	require.NoError(t, err)
	m, err := docstore.Decode(read.Body)
	require.NoError(t, err)
	assert.Equal(t, "bob", m["UserName"])

	// Otra partición: no existe.
	_, err = c.ReadItem(ctx, "u/1", docstore.NewPartitionKey("IdentityRole"))
	require.True(t, repository.IsNotFound(err))

	del, err := c.DeleteItem(ctx, "u/1", pk)
	require.NoError(t, err)
	require.Equal(t, 204, del.StatusCode)
	_, err = c.DeleteItem(ctx, "u/1", pk)
	require.True(t, repository.IsNotFound(err))
}

func TestFS_QueryAndReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	c := newContainer(t, root)
	pk := docstore.NewPartitionKey("IdentityUser")
	for id, roles := range map[string]string{"a": "Admin,", "b": "Admin2,", "c": "Admin,Reader,"} {
		_, err := c.CreateItem(ctx, pk, doc(id, "IdentityUser", map[string]any{"FlattenRoleNames": roles}))
		require.NoError(t, err)
	}

	// Reabrir desde disco: la metadata del container persiste.
	client, err := New(root)
	require.NoError(t, err)
	db, err := client.Database(ctx, "identity")
	require.NoError(t, err)
	reopened, err := db.Container(ctx, "docs")
	require.NoError(t, err)

	items, err := docstore.Drain(ctx, reopened.Query(ctx, pk, docstore.Query{
		Where:    []docstore.Condition{docstore.ContainsToken("FlattenRoleNames", "Admin")},
		PageSize: 1,
	}))
	require.NoError(t, err)
	require.Len(t, items, 2)

	none, err := docstore.Drain(ctx, reopened.Query(ctx, docstore.NewPartitionKey("IdentityRole"), docstore.Query{}))
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestFS_TTL(t *testing.T) {
	ctx := context.Background()
	client, err := New(t.TempDir())
	require.NoError(t, err)
	db, err := client.CreateDatabaseIfNotExists(ctx, "identity")
	require.NoError(t, err)
	c, err := db.CreateContainerIfNotExists(ctx, docstore.ContainerProperties{ID: "docs", DefaultTTL: 60})
	require.NoError(t, err)

	_, err = c.CreateItem(ctx, docstore.None, []byte(`{"id":"x"}`))
	require.NoError(t, err)
	client.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = c.ReadItem(ctx, "x", docstore.None)
	require.True(t, repository.IsNotFound(err))
}

func TestFS_RootMustBeDirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err := New(f)
	require.Error(t, err)
}

func TestFS_OpenFromConnectionString(t *testing.T) {
	root := t.TempDir()
	client, err := docstore.Open(context.Background(), docstore.AdapterConfig{ConnectionString: "fs://" + root})
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))
	require.DirExists(t, root)
}
