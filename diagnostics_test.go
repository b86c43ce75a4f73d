package httpfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticStringLineAndColumn(t *testing.T) {
	d := Diagnostic{Message: "bad thing", Position: Position{Line: 3, Column: 5}}
	assert.Equal(t, "bad thing at line 3, column 5", d.String())
}

func TestDiagnosticStringLineOnly(t *testing.T) {
	d := Diagnostic{Message: "bad thing", Position: Position{Line: 3}}
	assert.Equal(t, "bad thing at line 3", d.String())
}

func TestDiagnosticStringColumnOnly(t *testing.T) {
	d := Diagnostic{Message: "bad thing", Position: Position{Column: 5}}
	assert.Equal(t, "bad thing, column 5", d.String())
}

func TestDiagnosticStringNeither(t *testing.T) {
	d := Diagnostic{Message: "bad thing"}
	assert.Equal(t, "bad thing", d.String())
}

func TestSortDiagnosticsByLineThenColumn(t *testing.T) {
	diags := []Diagnostic{
		{Message: "b", Position: Position{Line: 2, Column: 1}},
		{Message: "a", Position: Position{Line: 1, Column: 9}},
		{Message: "c", Position: Position{Line: 2, Column: 0}},
	}
	sortDiagnostics(diags)
	assert.Equal(t, []string{"a", "c", "b"}, []string{diags[0].Message, diags[1].Message, diags[2].Message})
}

func TestFatalDiagnosticsExcludesWarnings(t *testing.T) {
	diags := []Diagnostic{
		{Kind: CyclicVariable},
		{Kind: Cancelled},
		{Kind: MalformedHeader},
	}
	fatal := fatalDiagnostics(diags)
	assert.Len(t, fatal, 1)
	assert.Equal(t, MalformedHeader, fatal[0].Kind)
}

func TestDiagnosticsToErrorAggregates(t *testing.T) {
	diags := []Diagnostic{
		{Message: "first"},
		{Message: "second"},
	}
	err := diagnosticsToError(diags)
	require := assert.New(t)
	require.Error(err)
	require.Contains(err.Error(), "first")
	require.Contains(err.Error(), "second")
}

func TestDiagnosticsToErrorEmptyIsNil(t *testing.T) {
	assert.Nil(t, diagnosticsToError(nil))
}
