package httpfile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePlainVariableFromOverride(t *testing.T) {
	store := NewVariableStore(map[string]string{"host": "example.com"}, nil)
	out, diags := Resolve("https://{{host}}/path", store)
	require.Empty(t, diags)
	assert.Equal(t, "https://example.com/path", out)
}

func TestResolveFileVariableShadowsEnv(t *testing.T) {
	t.Setenv("HOST", "env-host")
	store := NewVariableStore(nil, map[string]string{"HOST": "file-host"})
	out, _ := Resolve("{{HOST}}", store)
	assert.Equal(t, "file-host", out)
}

func TestResolveFallsBackToEnvironment(t *testing.T) {
	t.Setenv("HTTPFILE_RESOLVE_ENV", "env-value")
	store := NewVariableStore(nil, nil)
	out, _ := Resolve("{{HTTPFILE_RESOLVE_ENV}}", store)
	assert.Equal(t, "env-value", out)
}

func TestResolveUnknownNamePassesThrough(t *testing.T) {
	store := NewVariableStore(nil, nil)
	out, _ := Resolve("{{doesNotExist}}", store)
	assert.Equal(t, "{{doesNotExist}}", out)
}

func TestResolveSystemFunction(t *testing.T) {
	store := NewVariableStore(nil, nil)
	clock := fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	out, diags := Resolve("{{$timestamp}}", store, WithClock(clock))
	require.Empty(t, diags)
	assert.NotEmpty(t, out)
}

func TestResolveFileVariableReferencesAnotherFileVariable(t *testing.T) {
	store := NewVariableStore(nil, map[string]string{
		"base": "https://example.com",
		"url":  "{{base}}/path",
	})
	out, diags := Resolve("{{url}}", store)
	require.Empty(t, diags)
	assert.Equal(t, "https://example.com/path", out)
}

func TestResolveCyclicFileVariableReturnsPlaceholderAndWarns(t *testing.T) {
	store := NewVariableStore(nil, map[string]string{
		"a": "{{b}}",
		"b": "{{a}}",
	})
	out, diags := Resolve("{{a}}", store)
	assert.Equal(t, "{{a}}", out)
	require.NotEmpty(t, diags)
	assert.Equal(t, CyclicVariable, diags[0].Kind)
}

func TestResolveResponseVariableBody(t *testing.T) {
	store := NewVariableStore(nil, nil)
	prior := PriorResults{"login": {Body: `{"token":"abc"}`}}
	out, _ := Resolve("{{login.response.body}}", store, WithPriorResults(prior))
	assert.Equal(t, `{"token":"abc"}`, out)
}

func TestResolveResponseVariableHeader(t *testing.T) {
	store := NewVariableStore(nil, nil)
	prior := PriorResults{"login": {Headers: map[string]string{"X-Token": "abc"}}}
	out, _ := Resolve("{{login.response.headers.x-token}}", store, WithPriorResults(prior))
	assert.Equal(t, "abc", out)
}

func TestResolveResponseVariableNotYetExecutedIsEmpty(t *testing.T) {
	store := NewVariableStore(nil, nil)
	out, _ := Resolve("{{login.response.body}}", store, WithPriorResults(PriorResults{}))
	assert.Equal(t, "", out)
}

func TestResolveCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewVariableStore(map[string]string{"a": "1", "b": "2"}, nil)
	out, diags := Resolve("{{a}}{{b}}", store, WithContext(ctx))
	assert.Equal(t, "", out)
	require.NotEmpty(t, diags)
	assert.Equal(t, Cancelled, diags[0].Kind)
}
