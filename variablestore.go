package httpfile

import "os"

// resolutionState marks a file-level variable's progress through one
// resolution session, so a repeated visit during its own resolution is
// detected as a cycle rather than recursing forever.
type resolutionState int

const (
	notVisited resolutionState = iota
	inProgress
	resolved
)

// VariableStore holds three precedence tiers consulted in
// order (overrides, file-level definitions, environment), with lazy,
// memoized resolution of file-level definitions that themselves
// contain {{...}} references.
type VariableStore struct {
	overrides map[string]string
	fileVars  map[string]string
	fileOrder []string
	osLookup  func(string) (string, bool)

	state  map[string]resolutionState
	cache  map[string]string
	cyclic map[string]bool
}

// NewVariableStore builds a store over caller-supplied file-level
// definitions (name -> value, with any shadowing already applied) and
// per-execution overrides. Parse does not return the @name = value
// definitions it reads, so fileVars does not come from a Catalog.
func NewVariableStore(overrides, fileVars map[string]string) *VariableStore {
	return &VariableStore{
		overrides: overrides,
		fileVars:  fileVars,
		osLookup:  os.LookupEnv,
		state:     make(map[string]resolutionState),
		cache:     make(map[string]string),
		cyclic:    make(map[string]bool),
	}
}

// Get looks up name through overrides, then file-level definitions
// (resolving any {{...}} references they themselves contain), then the
// environment snapshot. ok is false if no tier defines the name.
func (s *VariableStore) Get(name string, rc *resolveContext) (string, bool) {
	if v, ok := s.overrides[name]; ok {
		return v, true
	}
	if raw, ok := s.fileVars[name]; ok {
		return s.resolveFileVar(name, raw, rc), true
	}
	if v, ok := s.osLookup(name); ok {
		return v, true
	}
	return "", false
}

// resolveFileVar resolves a file-level definition's own {{...}}
// references, memoized per name for the lifetime of this store and
// guarded against cycles via per-name visit state: a repeated visit
// during one resolution session returns the literal placeholder and
// records a non-fatal CyclicVariable diagnostic.
func (s *VariableStore) resolveFileVar(name, raw string, rc *resolveContext) string {
	if v, ok := s.cache[name]; ok {
		return v
	}
	if s.state[name] == inProgress {
		s.cyclic[name] = true
		rc.diags = append(rc.diags, Diagnostic{
			Kind:          CyclicVariable,
			Message:       "Variable '" + name + "' references itself during resolution",
			ParsedContent: name,
		})
		return "{{" + name + "}}"
	}
	s.state[name] = inProgress
	rc.depth++
	out := resolveText(raw, s, rc)
	rc.depth--
	s.state[name] = resolved
	s.cache[name] = out
	return out
}

// CyclicNames reports which file-level variable names were found to
// reference themselves, directly or indirectly, during resolution.
func (s *VariableStore) CyclicNames() []string {
	names := make([]string, 0, len(s.cyclic))
	for name := range s.cyclic {
		names = append(names, name)
	}
	return names
}
