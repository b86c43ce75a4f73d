package httpfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleRequest(t *testing.T) {
	src := "" +
		"# @name getUsers\n" +
		"GET https://example.com/users\n" +
		"Accept: application/json\n"

	catalog, diags := Parse(src)
	require.Empty(t, diags)
	require.NotNil(t, catalog)
	require.Equal(t, 1, catalog.Len())

	tc, ok := catalog.ByName("getUsers")
	require.True(t, ok)
	assert.Equal(t, "GET", tc.Request.Method)
	assert.Equal(t, "https://example.com/users", tc.Request.URL)
	value, ok := tc.Request.HeaderValue("accept")
	require.True(t, ok)
	assert.Equal(t, "application/json", value)
}

func TestParseOrderIsPreserved(t *testing.T) {
	src := "" +
		"# @name first\n" +
		"GET https://example.com/a\n" +
		"\n" +
		"### next\n" +
		"# @name second\n" +
		"POST https://example.com/b\n" +
		"\n" +
		"{\"k\":\"v\"}\n"

	catalog, diags := Parse(src)
	require.Empty(t, diags)
	require.Equal(t, 2, catalog.Len())
	assert.Equal(t, "first", catalog.Cases[0].Name)
	assert.Equal(t, "second", catalog.Cases[1].Name)
	assert.Equal(t, "POST", catalog.Cases[1].Request.Method)
	assert.Equal(t, "{\"k\":\"v\"}", catalog.Cases[1].Request.Body)
}

func TestParseShortFormGet(t *testing.T) {
	src := "# @name shortGet\nhttps://example.com/ping\n"
	catalog, diags := Parse(src)
	require.Empty(t, diags)
	tc, ok := catalog.ByName("shortGet")
	require.True(t, ok)
	assert.Equal(t, "GET", tc.Request.Method)
}

func TestParseMissingNameIsFatal(t *testing.T) {
	src := "GET https://example.com/a\n"
	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.Len(t, diags, 1)
	assert.Equal(t, MissingRequestName, diags[0].Kind)
	assert.Equal(t, 1, diags[0].Line)
}

func TestParseInvalidRequestName(t *testing.T) {
	src := "# @name not valid!\nGET https://example.com/a\n"
	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.Len(t, diags, 1)
	assert.Equal(t, InvalidRequestName, diags[0].Kind)
}

func TestParseDuplicateRequestName(t *testing.T) {
	src := "" +
		"# @name dup\n" +
		"GET https://example.com/a\n" +
		"\n" +
		"### \n" +
		"# @name dup\n" +
		"GET https://example.com/b\n"

	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.Len(t, diags, 1)
	assert.Equal(t, DuplicateRequestName, diags[0].Kind)
	assert.Equal(t, 2, diags[0].FirstOccurrenceLine)
}

func TestParseMalformedRequestLine(t *testing.T) {
	src := "# @name broken\njust some words\n"
	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.NotEmpty(t, diags)
	assert.Equal(t, MalformedRequestLine, diags[0].Kind)
}

func TestParseMalformedHeader(t *testing.T) {
	src := "# @name h\nGET https://example.com/a\nNotAHeaderLine\n"
	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.NotEmpty(t, diags)
	assert.Equal(t, MalformedHeader, diags[0].Kind)
}

func TestParseFileReferenceBody(t *testing.T) {
	src := "# @name withFile\nPOST https://example.com/upload\n\n< ./payload.json\n"
	catalog, diags := Parse(src)
	require.Empty(t, diags)
	tc, ok := catalog.ByName("withFile")
	require.True(t, ok)
	assert.Equal(t, "./payload.json", tc.Request.ExternalFilePath)
	assert.Empty(t, tc.Request.Body)
}

func TestParseExpectationsProjected(t *testing.T) {
	src := "" +
		"# @name checked\n" +
		"# @expect-status 201\n" +
		"# @expect-header Content-Type: application/json\n" +
		"# @expect-body-contains ok\n" +
		"# @expect-max-time 500ms\n" +
		"POST https://example.com/things\n"

	catalog, diags := Parse(src)
	require.Empty(t, diags)
	tc, ok := catalog.ByName("checked")
	require.True(t, ok)
	require.True(t, tc.ExpectedResponse.HasExpectations())
	require.NotNil(t, tc.ExpectedResponse.StatusCode)
	assert.Equal(t, 201, *tc.ExpectedResponse.StatusCode)
	assert.Equal(t, "application/json", tc.ExpectedResponse.Headers["content-type"])
	assert.Equal(t, "ok", tc.ExpectedResponse.BodyContains)
	require.NotNil(t, tc.ExpectedResponse.MaxResponseTime)
}

func TestParseInvalidExpectStatus(t *testing.T) {
	src := "# @name bad\n# @expect-status not-a-number\nGET https://example.com/a\n"
	catalog, diags := Parse(src)
	require.Nil(t, catalog)
	require.NotEmpty(t, diags)
	assert.Equal(t, InvalidMetadataValue, diags[0].Kind)
}

func TestParseOpaqueDirectiveForwarded(t *testing.T) {
	src := "# @name tagged\n# @note remember this\n# @x-owner infra-team\nGET https://example.com/a\n"
	catalog, diags := Parse(src)
	require.Empty(t, diags)
	tc, ok := catalog.ByName("tagged")
	require.True(t, ok)
	assert.Equal(t, "remember this", tc.Request.Metadata[directiveNote])
	assert.Equal(t, "infra-team", tc.Request.Metadata["x-owner"])
}

func TestParseTolerateHTTPStatusPreamble(t *testing.T) {
	src := "" +
		"HTTP/1.1 200 OK\n" +
		"# @name tolerant\n" +
		"GET https://example.com/a\n"

	catalog, diags := Parse(src)
	require.Empty(t, diags)
	require.NotNil(t, catalog)
	_, ok := catalog.ByName("tolerant")
	assert.True(t, ok)
}

func TestParseMisplacedDirectiveAtEOF(t *testing.T) {
	src := "" +
		"# @name only\n" +
		"GET https://example.com/a\n" +
		"\n" +
		"###\n" +
		"# @name orphan\n"

	_, diags := Parse(src)
	var found bool
	for _, d := range diags {
		if d.Kind == MisplacedDirective {
			found = true
		}
	}
	assert.True(t, found, "expected a MisplacedDirective diagnostic for a directive with no following request")
}
