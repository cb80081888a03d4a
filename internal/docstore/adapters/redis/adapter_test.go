package redis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	"github.com/mobsites/Cosmos.Identity/internal/domain/repository"
)

func TestKeyspace(t *testing.T) {
	k := keyspace{prefix: "identity:"}
	require.Equal(t, "identity:db:main", k.database("main"))
	require.Equal(t, "identity:container:main:docs", k.container("main", "docs"))
	require.Equal(t, "identity:docs:main:docs:pk-IdentityUser", k.partition("main", "docs", docstore.NewPartitionKey("IdentityUser")))
	require.Equal(t, "identity:docs:main:docs:_none", k.partition("main", "docs", docstore.None))

	// Un ":" en un segmento no debe mezclar namespaces.
	require.NotEqual(t, k.container("a:b", "c"), k.container("a", "b:c"))
}

func TestParseCursor(t *testing.T) {
	n, err := parseCursor("")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = parseCursor("42")
	require.NoError(t, err)
	require.EqualValues(t, 42, n)

	_, err = parseCursor("-1")
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestNewClientDefaultsPrefix(t *testing.T) {
	c := NewClient(nil, "")
	require.Equal(t, defaultPrefix, c.keys.prefix)
}
