// Package httpfile parses ".http"-style request files into an ordered
// catalog of named test cases and resolves the {{...}} templating
// dialect embedded in request text.
//
// Parse turns source text into a Catalog of TestCase values (validating
// identifiers and draining @expect-* directives along the way) and
// Resolve substitutes {{...}} templates against a VariableStore. Sending
// requests and asserting responses are left to an external executor;
// ValidateExpectations is provided only as a thin collaborator over that
// executor's results.
package httpfile
