package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_Drivers(t *testing.T) {
	c, err := New(Config{Driver: "none"})
	require.NoError(t, err)
	require.Nil(t, c)

	c, err = New(Config{Driver: "Memory"})
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = New(Config{Driver: "memcached"})
	require.Error(t, err)
}

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(Config{Prefix: "roles"})

	_, err := c.Get(ctx, "ADMIN")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "ADMIN", `{"id":"r1"}`, 0))
	v, err := c.Get(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, `{"id":"r1"}`, v)

	require.NoError(t, c.Delete(ctx, "ADMIN"))
	_, err = c.Get(ctx, "ADMIN")
	require.ErrorIs(t, err, ErrNotFound)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Hits)
	require.EqualValues(t, 2, st.Misses)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(Config{})
	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := c.Get(ctx, "k")
		return IsNotFound(err)
	}, time.Second, 5*time.Millisecond)
}

func TestPrefixed(t *testing.T) {
	require.Equal(t, "k", prefixed("", "k"))
	require.Equal(t, "p:k", prefixed("p", "k"))
}
