package httpfile

import (
	"regexp"
	"strings"
)

// lineKind is the result of classifying one trimmed source line by its
// leading prefix. Classification is pure and stateless; the parser
// state machine decides what a header-candidate/request-line content
// line actually means in context.
type lineKind int

const (
	lineBlank lineKind = iota
	lineSeparator
	lineMetadataDirective
	lineComment
	lineVariableDefinition
	lineFileReference
	lineHTTPStatusPreamble
	lineContent
)

const (
	separatorPrefix  = "###"
	hashCommentMark  = "#"
	slashCommentMark = "//"
	directiveMark    = "@"
	fileRefMark      = "<"
)

// httpStatusLinePattern matches a bare "HTTP/1.1 200 OK"-shaped status
// line, the kind some captured .http files carry as leftover preamble
// from a previous response pasted above the next request.
var httpStatusLinePattern = regexp.MustCompile(`^HTTP/\d\.\d\s+\d{3}(\s+.*)?$`)

// classify returns the kind of a single trimmed (whitespace-stripped)
// line. An empty trimmed line is always lineBlank.
func classify(trimmed string) lineKind {
	switch {
	case trimmed == "":
		return lineBlank
	case strings.HasPrefix(trimmed, separatorPrefix):
		return lineSeparator
	case isDirectiveComment(trimmed):
		return lineMetadataDirective
	case strings.HasPrefix(trimmed, hashCommentMark), strings.HasPrefix(trimmed, slashCommentMark):
		return lineComment
	case isFileVariableDefinition(trimmed):
		return lineVariableDefinition
	case strings.HasPrefix(trimmed, fileRefMark):
		return lineFileReference
	case httpStatusLinePattern.MatchString(trimmed):
		return lineHTTPStatusPreamble
	default:
		return lineContent
	}
}

// isDirectiveComment reports whether a line is "# @name ..." or
// "// @name ...": a comment-form metadata directive, distinguished from
// a plain comment by an immediately-following '@'.
func isDirectiveComment(trimmed string) bool {
	var rest string
	switch {
	case strings.HasPrefix(trimmed, hashCommentMark):
		rest = strings.TrimSpace(trimmed[len(hashCommentMark):])
	case strings.HasPrefix(trimmed, slashCommentMark):
		rest = strings.TrimSpace(trimmed[len(slashCommentMark):])
	default:
		return false
	}
	return strings.HasPrefix(rest, directiveMark)
}

// isFileVariableDefinition reports whether a line has the shape
// "@name = value": a leading '@' and an '=' somewhere on the line
// (before any comment would have already matched above). The name
// itself is not checked here; captureFileVariable ignores an empty one.
func isFileVariableDefinition(trimmed string) bool {
	if !strings.HasPrefix(trimmed, directiveMark) {
		return false
	}
	return strings.Contains(trimmed, "=")
}

// parseDirectiveComment splits a directive-comment line into its
// directive name and trailing value, e.g. "# @name foo" -> ("name",
// "foo"). The leading comment marker and '@' are stripped.
func parseDirectiveComment(trimmed string) (name, value string) {
	var rest string
	switch {
	case strings.HasPrefix(trimmed, hashCommentMark):
		rest = strings.TrimSpace(trimmed[len(hashCommentMark):])
	case strings.HasPrefix(trimmed, slashCommentMark):
		rest = strings.TrimSpace(trimmed[len(slashCommentMark):])
	}
	rest = strings.TrimPrefix(rest, directiveMark)
	parts := strings.SplitN(rest, " ", 2)
	name = parts[0]
	if len(parts) == 2 {
		value = strings.TrimSpace(parts[1])
	}
	return name, value
}

// parseFileVariableDefinition splits a "@name = value" line into name
// and value. ok is false if there is no '=' after stripping '@'.
func parseFileVariableDefinition(trimmed string) (name, value string, ok bool) {
	body := strings.TrimPrefix(trimmed, directiveMark)
	parts := strings.SplitN(body, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// isFileReferenceBody reports whether a trimmed line is a lone body
// file-reference marker: "< path/to/file".
func isFileReferenceBody(trimmed string) (path string, ok bool) {
	if !strings.HasPrefix(trimmed, fileRefMark) {
		return "", false
	}
	rest := strings.TrimSpace(trimmed[len(fileRefMark):])
	if rest == "" {
		return "", false
	}
	return rest, true
}
