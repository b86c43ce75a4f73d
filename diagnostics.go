package httpfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Kind enumerates the diagnostic taxonomy produced by the parser,
// validator and resolver.
type Kind int

const (
	// Syntactic.
	MalformedRequestLine Kind = iota
	MalformedHeader
	MisplacedDirective
	UnterminatedBlock

	// Identifier.
	MissingRequestName
	MissingRequestID
	InvalidRequestName
	InvalidRequestID

	// Uniqueness.
	DuplicateRequestName
	DuplicateRequestID

	// Semantic.
	InvalidMetadataValue

	// Resolution-time, non-fatal.
	CyclicVariable
	Cancelled
)

// String returns a short machine-stable name for the kind, used in tests
// and in log output.
func (k Kind) String() string {
	switch k {
	case MalformedRequestLine:
		return "MalformedRequestLine"
	case MalformedHeader:
		return "MalformedHeader"
	case MisplacedDirective:
		return "MisplacedDirective"
	case UnterminatedBlock:
		return "UnterminatedBlock"
	case MissingRequestName:
		return "MissingRequestName"
	case MissingRequestID:
		return "MissingRequestID"
	case InvalidRequestName:
		return "InvalidRequestName"
	case InvalidRequestID:
		return "InvalidRequestID"
	case DuplicateRequestName:
		return "DuplicateRequestName"
	case DuplicateRequestID:
		return "DuplicateRequestID"
	case InvalidMetadataValue:
		return "InvalidMetadataValue"
	case CyclicVariable:
		return "CyclicVariable"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsFatal reports whether a diagnostic of this kind prevents a Catalog
// from being produced. CyclicVariable and Cancelled are resolution-time
// warnings and are never fatal.
func (k Kind) IsFatal() bool {
	return k != CyclicVariable && k != Cancelled
}

// Diagnostic is a single structured error or warning produced while
// parsing, validating or resolving an .http file.
type Diagnostic struct {
	Kind    Kind
	Message string
	Position
	// ParsedContent is the offending fragment of source text, when
	// useful to show the caller (e.g. an invalid identifier value).
	ParsedContent string
	// FirstOccurrenceLine is set for duplicate-class diagnostics: the
	// line at which the name/id was first defined.
	FirstOccurrenceLine int
}

// String renders the diagnostic following the four positional cases:
// line+column, line only, column only, or neither.
func (d Diagnostic) String() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s at line %d, column %d", d.Message, d.Line, d.Column)
	case d.Line > 0:
		return fmt.Sprintf("%s at line %d", d.Message, d.Line)
	case d.Column > 0:
		return fmt.Sprintf("%s, column %d", d.Message, d.Column)
	default:
		return d.Message
	}
}

// Error implements the error interface so a Diagnostic can be used
// wherever an error is expected (e.g. wrapped into a multierror.Error).
func (d Diagnostic) Error() string { return d.String() }

func newMissingRequestName(line int) Diagnostic {
	return Diagnostic{
		Kind:     MissingRequestName,
		Message:  fmt.Sprintf("Request at line %d is missing a required request name", line),
		Position: Position{Line: line},
	}
}

func newMissingRequestID(line int) Diagnostic {
	return Diagnostic{
		Kind:     MissingRequestID,
		Message:  fmt.Sprintf("Request at line %d is missing a required request ID", line),
		Position: Position{Line: line},
	}
}

func newInvalidRequestName(line int, value string) Diagnostic {
	return Diagnostic{
		Kind: InvalidRequestName,
		Message: fmt.Sprintf(
			"Invalid request name '%s'. Request names must contain only alphanumeric characters, hyphens, and underscores",
			value),
		Position:      Position{Line: line},
		ParsedContent: value,
	}
}

func newInvalidRequestID(line int, value string) Diagnostic {
	return Diagnostic{
		Kind: InvalidRequestID,
		Message: fmt.Sprintf(
			"Invalid request ID '%s'. Request IDs must contain only alphanumeric characters, hyphens, and underscores",
			value),
		Position:      Position{Line: line},
		ParsedContent: value,
	}
}

func newDuplicateRequestName(line, firstLine int, name string) Diagnostic {
	return Diagnostic{
		Kind:                DuplicateRequestName,
		Message:             fmt.Sprintf("Duplicate request name '%s' found. First defined at line %d", name, firstLine),
		Position:            Position{Line: line},
		FirstOccurrenceLine: firstLine,
		ParsedContent:       name,
	}
}

func newInvalidMetadataValue(line int, directive, value, reason string) Diagnostic {
	return Diagnostic{
		Kind:          InvalidMetadataValue,
		Message:       fmt.Sprintf("Invalid value for @%s directive '%s': %s", directive, value, reason),
		Position:      Position{Line: line},
		ParsedContent: value,
	}
}

func newInvalidMultipartBody(line int, reason string) Diagnostic {
	return Diagnostic{
		Kind:     InvalidMetadataValue,
		Message:  fmt.Sprintf("Invalid multipart/form-data body: %s", reason),
		Position: Position{Line: line},
	}
}

func newDuplicateRequestID(line, firstLine int, id string) Diagnostic {
	return Diagnostic{
		Kind:                DuplicateRequestID,
		Message:             fmt.Sprintf("Duplicate request ID '%s' found. First defined at line %d", id, firstLine),
		Position:            Position{Line: line},
		FirstOccurrenceLine: firstLine,
		ParsedContent:       id,
	}
}

// sortDiagnostics orders diagnostics by (line, column) ascending, stable
// for equal keys so that diagnostics discovered in source order remain
// in source order.
func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})
}

// diagnosticsToError folds a slice of diagnostics into a single error
// via multierror. Returns nil for an empty slice.
func diagnosticsToError(diags []Diagnostic) error {
	var merr *multierror.Error
	for _, d := range diags {
		merr = multierror.Append(merr, d)
	}
	return merr.ErrorOrNil()
}

// fatalDiagnostics filters a diagnostic slice down to the fatal ones.
func fatalDiagnostics(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Kind.IsFatal() {
			out = append(out, d)
		}
	}
	return out
}
