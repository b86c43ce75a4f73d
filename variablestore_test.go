package httpfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableStorePrecedenceOverridesWinFirst(t *testing.T) {
	t.Setenv("NAME", "env-name")
	store := NewVariableStore(
		map[string]string{"name": "override-name"},
		map[string]string{"name": "file-name"},
	)
	rc := &resolveContext{}
	v, ok := store.Get("name", rc)
	require.True(t, ok)
	assert.Equal(t, "override-name", v)
}

func TestVariableStoreUnknownNameNotFound(t *testing.T) {
	store := NewVariableStore(nil, nil)
	_, ok := store.Get("missing", &resolveContext{})
	assert.False(t, ok)
}
