package knowledge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homatabesh/homa-core/internal/knowledge"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeYAML(t, `
store_hours: "9-17"
delivery_fee: 5
store:
  address: "12 Valiasr St"
  phone: "+982100000000"
`)

	base, err := knowledge.Load("general_knowledge", path)
	require.NoError(t, err)
	assert.Equal(t, "general_knowledge", base.Name())
	assert.Equal(t, 3, base.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := knowledge.Load("general_knowledge", "/nonexistent/facts.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeYAML(t, "::: not yaml {{{")
	_, err := knowledge.Load("general_knowledge", path)
	assert.Error(t, err)
}

func TestLookup_FlatKey(t *testing.T) {
	base := knowledge.New("kb", map[string]any{"store_hours": "9-17"})

	value, ok, err := base.Lookup(context.Background(), "store_hours", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "9-17", value)
}

func TestLookup_DottedPath(t *testing.T) {
	base := knowledge.New("kb", map[string]any{
		"store": map[string]any{
			"address": "12 Valiasr St",
			"contact": map[string]any{"phone": "+9821"},
		},
	})

	value, ok, err := base.Lookup(context.Background(), "store.contact.phone", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "+9821", value)
}

func TestLookup_FlatKeyWithDotWinsOverPath(t *testing.T) {
	base := knowledge.New("kb", map[string]any{
		"store.hours": "flat",
		"store":       map[string]any{"hours": "nested"},
	})

	value, ok, err := base.Lookup(context.Background(), "store.hours", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "flat", value)
}

func TestLookup_Miss(t *testing.T) {
	base := knowledge.New("kb", map[string]any{"a": 1})

	for _, key := range []string{"b", "a.b", "x.y.z"} {
		_, ok, err := base.Lookup(context.Background(), key, nil)
		require.NoError(t, err, "key %s", key)
		assert.False(t, ok, "key %s", key)
	}
}
