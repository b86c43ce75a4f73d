package httpfile

import (
	"log/slog"
	"regexp"
	"strings"
)

// parserState names the states of the request-parsing state machine.
type parserState int

const (
	statePreamble parserState = iota
	stateExpectMethodLine
	stateInHeaders
	stateInBody
	stateTerminal
)

// headerNamePattern matches the RFC 7230 token grammar for a header
// field-name.
var headerNamePattern = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// requestLinePattern matches "METHOD SP URL [SP HTTP/x.y]".
var requestLinePattern = regexp.MustCompile(`^(\S+)\s+(\S+)(?:\s+(HTTP/\d\.\d))?\s*$`)

// directiveOccurrence is a single "@name value" directive captured
// during parsing, kept in source order so later passes (validator,
// projector) can process repeated directives (e.g. @expect-header)
// and report diagnostics at the right line.
type directiveOccurrence struct {
	Name  string
	Value string
	Line  int
}

// parseState holds the mutable state threaded through the line loop.
type parseState struct {
	lines []sourceLine
	i     int // index of the next line to consume

	state parserState
	diags []Diagnostic

	requests []Request

	// directives collected since the last request was finalized (or
	// since the start of the file), not yet attached to a request.
	pendingDirectives []directiveOccurrence

	// the request currently being built, once a method line has matched.
	cur *requestBuilder

	fileVarOrder []string
	fileVars     map[string]string
}

type requestBuilder struct {
	startLine  int
	method     string
	url        string
	headers    []Header
	bodyLines  []string
	directives []directiveOccurrence
}

// Parse turns .http-file source text into an ordered Catalog of named
// test cases, or a set of diagnostics explaining why it could not.
// Catalog is nil whenever any fatal diagnostic is present.
func Parse(text string) (*Catalog, []Diagnostic) {
	requests, diags := parseRequests(text)
	validationDiags := validateRequests(requests)
	diags = append(diags, validationDiags...)
	sortDiagnostics(diags)

	if len(fatalDiagnostics(diags)) > 0 {
		return nil, diags
	}
	return project(requests), diags
}

// parseRequests classifies and parses source lines and returns the raw (unvalidated) request
// list plus any structural diagnostics.
func parseRequests(text string) ([]Request, []Diagnostic) {
	ps := &parseState{
		lines:    readLines(text),
		state:    statePreamble,
		fileVars: make(map[string]string),
	}

	for ps.i < len(ps.lines) {
		line := ps.lines[ps.i]
		ps.step(line)
	}
	ps.finish()

	return ps.requests, ps.diags
}

func (ps *parseState) step(line sourceLine) {
	trimmed := strings.TrimSpace(line.Text)
	kind := classify(trimmed)

	if kind == lineSeparator {
		ps.handleSeparator(line, trimmed)
		return
	}

	switch ps.state {
	case statePreamble, stateExpectMethodLine:
		ps.stepAwaitingRequest(line, trimmed, kind)
	case stateInHeaders:
		ps.stepInHeaders(line, trimmed, kind)
	case stateInBody:
		ps.stepInBody(line)
	default:
		ps.i++
	}
}

// stepAwaitingRequest handles both Preamble and ExpectMethodLine: both
// accept comments/blanks/var-defs/directives while waiting for the next
// request-line, differing only in whether a var-def is meaningful
// (always is, per grammar "preamble | between requests").
func (ps *parseState) stepAwaitingRequest(line sourceLine, trimmed string, kind lineKind) {
	switch kind {
	case lineBlank, lineComment:
		ps.i++
	case lineHTTPStatusPreamble:
		// A leftover "HTTP/1.1 200 OK"-shaped line pasted above the next
		// request is tolerated rather than treated as a malformed request
		// line, as long as it appears before any request-line of this block.
		slog.Debug("httpfile: ignoring HTTP status-line preamble", "line", trimmed)
		ps.i++
	case lineVariableDefinition:
		ps.captureFileVariable(trimmed)
		ps.i++
	case lineMetadataDirective:
		name, value := parseDirectiveComment(trimmed)
		ps.pendingDirectives = append(ps.pendingDirectives, directiveOccurrence{Name: name, Value: value, Line: line.Number})
		ps.i++
	default:
		ps.tryStartRequest(line, trimmed)
	}
}

// tryStartRequest attempts to match the current line as a request-line.
func (ps *parseState) tryStartRequest(line sourceLine, trimmed string) {
	method, url, ok := parseRequestLine(trimmed)
	if !ok {
		ps.diags = append(ps.diags, Diagnostic{
			Kind:          MalformedRequestLine,
			Message:       "Malformed request line",
			Position:      Position{Line: line.Number},
			ParsedContent: trimmed,
		})
		// directives collected for this block belonged to the malformed
		// request and are dropped with it.
		ps.pendingDirectives = nil
		ps.i++
		return
	}

	ps.cur = &requestBuilder{
		startLine:  line.Number,
		method:     method,
		url:        url,
		directives: ps.pendingDirectives,
	}
	ps.pendingDirectives = nil
	ps.state = stateInHeaders
	ps.i++
}

// parseRequestLine matches "METHOD URL [HTTP/x.y]", including the
// short-form "https://host/path" (implicit GET).
func parseRequestLine(trimmed string) (method, url string, ok bool) {
	if m := requestLinePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.ToUpper(m[1]), m[2], true
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return "GET", trimmed, true
	}
	return "", "", false
}

func (ps *parseState) stepInHeaders(line sourceLine, trimmed string, kind lineKind) {
	switch kind {
	case lineBlank:
		ps.state = stateInBody
		ps.i++
	case lineMetadataDirective:
		name, value := parseDirectiveComment(trimmed)
		ps.cur.directives = append(ps.cur.directives, directiveOccurrence{Name: name, Value: value, Line: line.Number})
		ps.i++
	case lineComment:
		ps.i++
	default:
		ps.stepHeaderLine(line, trimmed)
	}
}

func (ps *parseState) stepHeaderLine(line sourceLine, trimmed string) {
	if strings.HasPrefix(line.Text, " ") || strings.HasPrefix(line.Text, "\t") {
		ps.diags = append(ps.diags, Diagnostic{
			Kind:          MalformedHeader,
			Message:       "Header continuation lines are not supported",
			Position:      Position{Line: line.Number},
			ParsedContent: line.Text,
		})
		ps.i++
		return
	}

	name, value, ok := parseHeaderLine(trimmed)
	if !ok {
		ps.diags = append(ps.diags, Diagnostic{
			Kind:          MalformedHeader,
			Message:       "Malformed header line",
			Position:      Position{Line: line.Number},
			ParsedContent: trimmed,
		})
		ps.i++
		return
	}
	ps.cur.headers = append(ps.cur.headers, Header{Name: name, Value: value})
	ps.i++
}

func parseHeaderLine(trimmed string) (name, value string, ok bool) {
	idx := strings.Index(trimmed, ":")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(trimmed[:idx])
	if !headerNamePattern.MatchString(name) {
		return "", "", false
	}
	value = strings.TrimSpace(trimmed[idx+1:])
	return name, value, true
}

func (ps *parseState) stepInBody(line sourceLine) {
	ps.cur.bodyLines = append(ps.cur.bodyLines, line.Text)
	ps.i++
}

// handleSeparator finalizes whatever request is in progress (if any)
// and returns to ExpectMethodLine, clearing pending metadata: "any
// separator finalizes the current request... and clears pending
// metadata".
func (ps *parseState) handleSeparator(line sourceLine, trimmed string) {
	if ps.cur != nil {
		ps.finalizeCurrent()
	}
	ps.pendingDirectives = nil
	ps.state = stateExpectMethodLine
	ps.i++
	_ = trimmed // the title text after ### is informational only
}

func (ps *parseState) finalizeCurrent() {
	r := buildRequest(ps.cur)
	// The request runs up to the separator being handled, or to the end
	// of input when finalized from finish.
	r.Span.End = len(ps.lines) + 1
	if ps.i < len(ps.lines) {
		r.Span.End = ps.lines[ps.i].Number
	}
	ps.requests = append(ps.requests, r)
	ps.cur = nil
}

func buildRequest(b *requestBuilder) Request {
	body, externalPath := extractBody(b.bodyLines)
	return Request{
		Method:           b.method,
		URL:              b.url,
		Headers:          b.headers,
		Body:             body,
		ExternalFilePath: externalPath,
		rawDirectives:    b.directives,
		Span:             Span{Start: b.startLine},
	}
}

// extractBody trims trailing blank lines from a captured body and
// detects the lone "< path" file-reference form.
func extractBody(lines []string) (body string, externalPath string) {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	lines = lines[:end]

	nonBlank := 0
	var onlyTrimmed string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		nonBlank++
		onlyTrimmed = t
	}
	if nonBlank == 1 {
		if path, ok := isFileReferenceBody(onlyTrimmed); ok {
			return "", path
		}
	}

	return strings.Join(lines, "\n"), ""
}

func (ps *parseState) captureFileVariable(trimmed string) {
	name, value, ok := parseFileVariableDefinition(trimmed)
	if !ok || name == "" {
		slog.Debug("httpfile: ignoring malformed file-variable definition", "line", trimmed)
		return
	}
	if _, exists := ps.fileVars[name]; !exists {
		ps.fileVarOrder = append(ps.fileVarOrder, name)
	}
	ps.fileVars[name] = value // later definitions shadow earlier ones
}

// finish is called once all lines are consumed: it finalizes a request
// left in progress (InHeaders/InBody with no trailing separator — a
// legitimate EOF) and flags any directives left pending with no request
// to attach to as MisplacedDirective.
func (ps *parseState) finish() {
	if ps.cur != nil {
		ps.finalizeCurrent()
		return
	}
	for _, d := range ps.pendingDirectives {
		slog.Warn("httpfile: directive has no following request to attach to",
			"line", d.Line, "directive", d.Name)
		ps.diags = append(ps.diags, Diagnostic{
			Kind:          MisplacedDirective,
			Message:       "Directive has no following request to attach to",
			Position:      Position{Line: d.Line},
			ParsedContent: "@" + d.Name,
		})
	}
}
