package httpfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectBuildsIndexInFileOrder(t *testing.T) {
	requests := []Request{
		{Name: "one", Span: Span{Start: 1}},
		{Name: "two", Span: Span{Start: 5}},
	}
	catalog := project(requests)
	require.Equal(t, 2, catalog.Len())
	assert.Equal(t, "one", catalog.Cases[0].Name)
	assert.Equal(t, "two", catalog.Cases[1].Name)

	tc, ok := catalog.ByName("two")
	require.True(t, ok)
	assert.Equal(t, 5, tc.Request.Span.Start)
}

func TestCatalogByNameMissing(t *testing.T) {
	catalog := project(nil)
	_, ok := catalog.ByName("nothing")
	assert.False(t, ok)
}
