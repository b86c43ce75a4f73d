package httpfile

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
)

// validateRequests runs over a freshly parsed request list: it drains
// each request's raw directives into Name/ID/Metadata/ExpectedResponse
// (mutating requests in place) and returns the diagnostics produced by
// identifier grammar, uniqueness and metadata-value checks.
func validateRequests(requests []Request) []Diagnostic {
	var diags []Diagnostic

	nameFirstLine := make(map[string]int)
	idFirstLine := make(map[string]int)

	for i := range requests {
		r := &requests[i]
		diags = append(diags, drainDirectives(r)...)
		diags = append(diags, checkIdentifiers(r, nameFirstLine, idFirstLine)...)
		diags = append(diags, checkMultipart(r)...)
	}

	return diags
}

// checkMultipart recognizes a multipart/form-data request body and
// reports malformed boundary framing as InvalidMetadataValue. Body
// content itself stays opaque to the core; this only verifies that the
// boundary declared in Content-Type actually frames well-formed parts.
func checkMultipart(r *Request) []Diagnostic {
	contentType, ok := r.HeaderValue("Content-Type")
	if !ok || !strings.Contains(strings.ToLower(contentType), "multipart/form-data") {
		return nil
	}
	if r.ExternalFilePath != "" {
		// the body lives in an external file; its framing isn't ours to check.
		return nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return []Diagnostic{newInvalidMultipartBody(r.Span.Start,
			"Content-Type declares multipart/form-data but no boundary parameter was found")}
	}
	boundary := params["boundary"]

	// mime/multipart treats a body with no boundary delimiter at all as
	// a (valid, empty) preamble rather than an error; check for it up
	// front so framing that never uses the declared boundary is still
	// flagged.
	if !strings.Contains(r.Body, "--"+boundary) {
		return []Diagnostic{newInvalidMultipartBody(r.Span.Start,
			fmt.Sprintf("body contains no part delimited by boundary %q", boundary))}
	}

	reader := multipart.NewReader(strings.NewReader(r.Body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return []Diagnostic{newInvalidMultipartBody(r.Span.Start,
				fmt.Sprintf("body is not well-formed for boundary %q: %s", boundary, err))}
		}
		part.Close()
	}
}

// drainDirectives walks a request's raw directives in source order,
// populating Name, ID, Metadata and ExpectedResponse, and returns any
// InvalidMetadataValue diagnostics for malformed expectation values.
func drainDirectives(r *Request) []Diagnostic {
	var diags []Diagnostic
	metadata := make(map[string]string)

	for _, d := range r.rawDirectives {
		switch d.Name {
		case directiveName:
			if r.Name == "" {
				r.Name = d.Value
			}
		case directiveID:
			if r.ID == "" {
				r.ID = d.Value
			}
		case directiveExpectStatus:
			if diag, ok := applyExpectStatus(r, d); !ok {
				diags = append(diags, diag)
			}
		case directiveExpectHeader:
			if diag, ok := applyExpectHeader(r, d); !ok {
				diags = append(diags, diag)
			}
		case directiveExpectBodyContains:
			r.ExpectedResponse.BodyContains = d.Value
		case directiveExpectBodyPath:
			r.ExpectedResponse.BodyPath = d.Value
		case directiveExpectSchema:
			r.ExpectedResponse.SchemaPath = d.Value
		case directiveExpectMaxTime:
			if diag, ok := applyExpectMaxTime(r, d); !ok {
				diags = append(diags, diag)
			}
		default:
			// @note, @no-log and opaque @x-* directives are forwarded
			// verbatim rather than rejected.
			metadata[d.Name] = d.Value
		}
	}

	if len(metadata) > 0 {
		r.Metadata = metadata
	}
	return diags
}

func applyExpectStatus(r *Request, d directiveOccurrence) (Diagnostic, bool) {
	code, err := strconv.Atoi(strings.TrimSpace(d.Value))
	if err != nil || code < 100 || code > 599 {
		return newInvalidMetadataValue(d.Line, directiveExpectStatus, d.Value,
			"must be an integer status code in [100, 599]"), false
	}
	r.ExpectedResponse.StatusCode = &code
	return Diagnostic{}, true
}

func applyExpectHeader(r *Request, d directiveOccurrence) (Diagnostic, bool) {
	idx := strings.Index(d.Value, ":")
	if idx <= 0 {
		return newInvalidMetadataValue(d.Line, directiveExpectHeader, d.Value,
			"must have the shape 'Name: value'"), false
	}
	name := strings.TrimSpace(d.Value[:idx])
	value := strings.TrimSpace(d.Value[idx+1:])
	if name == "" {
		return newInvalidMetadataValue(d.Line, directiveExpectHeader, d.Value,
			"must have the shape 'Name: value'"), false
	}
	if r.ExpectedResponse.Headers == nil {
		r.ExpectedResponse.Headers = make(map[string]string)
	}
	// last wins on exact same header name, case-insensitive.
	r.ExpectedResponse.Headers[strings.ToLower(name)] = value
	return Diagnostic{}, true
}

func applyExpectMaxTime(r *Request, d directiveOccurrence) (Diagnostic, bool) {
	dur, ok := parseMaxTimeDuration(strings.TrimSpace(d.Value))
	if !ok {
		return newInvalidMetadataValue(d.Line, directiveExpectMaxTime, d.Value,
			"must parse as a duration like '500ms', '2s' or '1m'"), false
	}
	r.ExpectedResponse.MaxResponseTime = &dur
	return Diagnostic{}, true
}

// parseMaxTimeDuration parses "<number><ms|s|m>". It intentionally does
// not accept the full time.ParseDuration grammar (e.g. "1h30m") since the
// directive is specified as a single number-and-unit pair.
func parseMaxTimeDuration(value string) (time.Duration, bool) {
	unit := ""
	switch {
	case strings.HasSuffix(value, "ms"):
		unit = "ms"
	case strings.HasSuffix(value, "s"):
		unit = "s"
	case strings.HasSuffix(value, "m"):
		unit = "m"
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, unit), 64)
	if err != nil {
		return 0, false
	}
	switch unit {
	case "ms":
		return time.Duration(n * float64(time.Millisecond)), true
	case "s":
		return time.Duration(n * float64(time.Second)), true
	default:
		return time.Duration(n * float64(time.Minute)), true
	}
}

// checkIdentifiers validates name/id grammar and cross-file uniqueness,
// recording the line of first occurrence for duplicate reporting.
func checkIdentifiers(r *Request, nameFirstLine, idFirstLine map[string]int) []Diagnostic {
	var diags []Diagnostic

	switch {
	case r.Name == "":
		diags = append(diags, newMissingRequestName(r.Span.Start))
	case !identifierPattern.MatchString(r.Name):
		diags = append(diags, newInvalidRequestName(r.Span.Start, r.Name))
	default:
		if first, seen := nameFirstLine[r.Name]; seen {
			diags = append(diags, newDuplicateRequestName(r.Span.Start, first, r.Name))
		} else {
			nameFirstLine[r.Name] = r.Span.Start
		}
	}

	// id is optional; it is only checked when present.
	if r.ID == "" {
		return diags
	}
	if !identifierPattern.MatchString(r.ID) {
		return append(diags, newInvalidRequestID(r.Span.Start, r.ID))
	}
	if first, seen := idFirstLine[r.ID]; seen {
		return append(diags, newDuplicateRequestID(r.Span.Start, first, r.ID))
	}
	idFirstLine[r.ID] = r.Span.Start
	return diags
}
