package httpfile

import (
	"context"
	"log/slog"
	"strings"
)

const maxFileVarDepth = 16

// PriorResult is one previously executed request's outcome, as supplied
// by the caller for resolving {{name.response.*}} references. Body
// selectors beyond the whole body are deliberately left opaque: this
// core does not evaluate JSONPath itself (see BodyPath on
// ExpectedResponse), so Fields holds whatever pre-extracted values the
// caller chooses to provide, keyed by the raw selector text.
type PriorResult struct {
	Body    string
	Headers map[string]string
	Fields  map[string]string
}

// PriorResults maps a request name to its prior outcome.
type PriorResults map[string]PriorResult

// resolveContext carries the capabilities and caller-supplied data a
// single Resolve call needs, threaded through recursive file-var
// resolution without growing every function's parameter list.
type resolveContext struct {
	ctx        context.Context
	clock      Clock
	rng        Rng
	loadDotEnv dotEnvLoader
	prior      PriorResults
	diags      []Diagnostic

	// depth tracks recursive file-level variable resolution, bounded by
	// maxFileVarDepth.
	depth int
}

// ResolveOption configures a Resolve call.
type ResolveOption func(*resolveContext)

// WithClock injects the Clock used by time-based system functions.
func WithClock(c Clock) ResolveOption {
	return func(rc *resolveContext) { rc.clock = c }
}

// WithRng injects the Rng used by $randomInt.
func WithRng(r Rng) ResolveOption {
	return func(rc *resolveContext) { rc.rng = r }
}

// WithDotEnvLoader overrides how $dotenv loads its snapshot; tests use
// this to avoid touching the filesystem.
func WithDotEnvLoader(load func() (map[string]string, error)) ResolveOption {
	return func(rc *resolveContext) { rc.loadDotEnv = load }
}

// WithPriorResults supplies the prior-results map used to resolve
// {{name.response.*}} references.
func WithPriorResults(prior PriorResults) ResolveOption {
	return func(rc *resolveContext) { rc.prior = prior }
}

// WithContext enables cancellation: resolution checks ctx between
// {{...}} substitutions and, if it's done, stops and reports Cancelled.
func WithContext(ctx context.Context) ResolveOption {
	return func(rc *resolveContext) { rc.ctx = ctx }
}

// Resolve scans text for {{...}} placeholders and substitutes each from
// system functions, the prior-results map, or the variable store,
// returning the substituted text and any non-fatal diagnostics recorded
// along the way (CyclicVariable, Cancelled).
func Resolve(text string, store *VariableStore, opts ...ResolveOption) (string, []Diagnostic) {
	rc := &resolveContext{
		ctx:        context.Background(),
		clock:      systemClock{},
		rng:        defaultRng{},
		loadDotEnv: defaultDotEnvLoader,
	}
	for _, opt := range opts {
		opt(rc)
	}

	// $dotenv reads one snapshot per Resolve call, however many tokens use it.
	load := rc.loadDotEnv
	var (
		snapshot map[string]string
		loadErr  error
		loaded   bool
	)
	rc.loadDotEnv = func() (map[string]string, error) {
		if !loaded {
			snapshot, loadErr = load()
			loaded = true
		}
		return snapshot, loadErr
	}

	out := resolveText(text, store, rc)
	return out, rc.diags
}

// resolveText performs exactly one linear scan of text, substituting
// each {{...}} it finds. It is itself recursive only for file-level
// variable resolution (via VariableStore.resolveFileVar), bounded by
// rc.depth to break unbounded cycles; the top-level Resolve call always
// starts at depth 0 and a single pass is NOT re-scanned afterward.
func resolveText(text string, store *VariableStore, rc *resolveContext) string {
	if rc.depth > maxFileVarDepth {
		return text
	}

	var b strings.Builder
	i := 0
	for i < len(text) {
		start := strings.Index(text[i:], "{{")
		if start < 0 {
			b.WriteString(text[i:])
			break
		}
		start += i
		b.WriteString(text[i:start])

		end := strings.Index(text[start+2:], "}}")
		if end < 0 {
			b.WriteString(text[start:])
			break
		}
		end = start + 2 + end

		if rc.ctx.Err() != nil {
			rc.diags = append(rc.diags, Diagnostic{
				Kind:    Cancelled,
				Message: "Resolution cancelled",
			})
			return ""
		}

		token := text[start : end+2]
		payload := strings.TrimSpace(text[start+2 : end])
		b.WriteString(resolveToken(payload, token, store, rc))
		i = end + 2
	}
	return b.String()
}

// resolveToken classifies and resolves a single {{...}} payload (system
// function, response reference, or plain variable name), falling back
// to the literal token for anything unrecognized.
func resolveToken(payload, token string, store *VariableStore, rc *resolveContext) string {
	switch {
	case strings.HasPrefix(payload, "$"):
		return evalSystemFunction(payload, token, rc.clock, rc.rng, rc.loadDotEnv)
	case strings.Contains(payload, ".response."):
		return resolveResponseVar(payload, rc.prior)
	default:
		if v, ok := store.Get(payload, rc); ok {
			return v
		}
		slog.Warn("httpfile: unresolved variable, leaving token unchanged", "name", payload)
		return token
	}
}

// resolveResponseVar resolves "requestName.response.{body|headers}.<selector>"
// against the prior-results map. It returns an empty string whenever the
// request hasn't executed yet or the reference doesn't parse.
func resolveResponseVar(payload string, prior PriorResults) string {
	parts := strings.SplitN(payload, ".response.", 2)
	if len(parts) != 2 {
		return ""
	}
	requestName, rest := parts[0], parts[1]

	result, ok := prior[requestName]
	if !ok {
		return ""
	}

	switch {
	case rest == "headers" || strings.HasPrefix(rest, "headers."):
		name := strings.TrimPrefix(strings.TrimPrefix(rest, "headers"), ".")
		for k, v := range result.Headers {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	case rest == "body":
		return result.Body
	case strings.HasPrefix(rest, "body."):
		selector := strings.TrimPrefix(rest, "body.")
		if selector == "$" {
			return result.Body
		}
		return result.Fields[selector]
	default:
		return ""
	}
}
