package atomicwrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteFile_CreatesDirsAndReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "doc.json")
	require.NoError(t, WriteFile(p, []byte(`{"v":1}`), 0o644))
	require.NoError(t, WriteFile(p, []byte(`{"v":2}`), 0o644))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(b))

	// no quedan temporales
	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteYAML_And_WriteIfMissing(t *testing.T) {
	type meta struct {
		ID string `yaml:"id"`
	}
	p := filepath.Join(t.TempDir(), "meta.yaml")

	wrote, err := WriteIfMissing(p, meta{ID: "first"}, 0o644)
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = WriteIfMissing(p, meta{ID: "second"}, 0o644)
	require.NoError(t, err)
	require.False(t, wrote)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var got meta
	require.NoError(t, yaml.Unmarshal(b, &got))
	require.Equal(t, "first", got.ID)
}
