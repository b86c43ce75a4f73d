package httpfile

import (
	"regexp"
	"strings"
	"time"
)

// identifierPattern is the grammar shared by request names and ids:
// alphanumeric, hyphen and underscore only.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Recognized metadata directive names (without the leading '@').
const (
	directiveName               = "name"
	directiveID                 = "id"
	directiveNote               = "note"
	directiveNoLog              = "no-log"
	directiveExpectStatus       = "expect-status"
	directiveExpectHeader       = "expect-header"
	directiveExpectBodyContains = "expect-body-contains"
	directiveExpectBodyPath     = "expect-body-path"
	directiveExpectSchema       = "expect-schema"
	directiveExpectMaxTime      = "expect-max-time"
)

// isExpectationDirective reports whether a directive name is one of the
// @expect-* family that feeds ExpectedResponse rather than Metadata.
func isExpectationDirective(name string) bool {
	switch name {
	case directiveExpectStatus, directiveExpectHeader, directiveExpectBodyContains,
		directiveExpectBodyPath, directiveExpectSchema, directiveExpectMaxTime:
		return true
	default:
		return false
	}
}

// Header is a single ordered (name, value) pair as they appeared in the
// source. Name case is preserved for display but compared
// case-insensitively by HeaderValue.
type Header struct {
	Name  string
	Value string
}

// Span marks a half-open source line range: [Start, End).
type Span struct {
	Start int
	End   int
}

// Request is a single parsed HTTP request: method line, headers, body
// and attached metadata, with its source location.
type Request struct {
	Name             string
	ID               string
	Method           string
	URL              string
	Headers          []Header
	Body             string
	ExternalFilePath string // set instead of Body for a "< path" reference
	Metadata         map[string]string
	ExpectedResponse ExpectedResponse
	Span             Span

	// rawDirectives carries every "@name value" directive attached to
	// this request in source order, before validation or projection has
	// drained it into Name/ID/Metadata/ExpectedResponse.
	rawDirectives []directiveOccurrence
}

// HeaderValue returns the value of the first header matching name
// case-insensitively, and whether it was found.
func (r *Request) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// ExpectedResponse is the structured assertion record drained from a
// request's @expect-* metadata.
type ExpectedResponse struct {
	StatusCode        *int
	Headers           map[string]string // lower-cased key -> expected value
	BodyContains      string
	BodyPath          string
	SchemaPath        string
	MaxResponseTime   *time.Duration
	CustomExpectations map[string]string
}

// HasExpectations reports whether any expectation field has been set.
func (e ExpectedResponse) HasExpectations() bool {
	return e.StatusCode != nil ||
		len(e.Headers) > 0 ||
		e.BodyContains != "" ||
		e.BodyPath != "" ||
		e.SchemaPath != "" ||
		e.MaxResponseTime != nil ||
		len(e.CustomExpectations) > 0
}

// TestCase is a validated Request projected with its ExpectedResponse,
// addressable by Name within a Catalog.
type TestCase struct {
	Name             string
	Request          Request
	ExpectedResponse ExpectedResponse
}

// Catalog is the ordered, validated set of test cases produced from one
// source file.
type Catalog struct {
	Cases []TestCase
	index map[string]int
}

// ByName looks up a test case by name; ok is false if no such case
// exists in the catalog.
func (c *Catalog) ByName(name string) (TestCase, bool) {
	i, found := c.index[name]
	if !found {
		return TestCase{}, false
	}
	return c.Cases[i], true
}

// Len returns the number of test cases in the catalog.
func (c *Catalog) Len() int { return len(c.Cases) }
