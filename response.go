package httpfile

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pmezard/go-difflib/difflib"
)

// Response is the minimal surface a TestCase's ExpectedResponse is
// checked against. Sending the request and producing a Response is the
// job of an external executor; this type only stands in for that
// collaborator's output.
type Response struct {
	StatusCode int
	Headers    map[string]string // case-insensitive by convention; callers should normalize
	Body       string
	Duration   time.Duration
}

// ValidateExpectations compares actual against tc's ExpectedResponse and
// returns a consolidated error (multierror) describing every mismatch,
// or nil if actual satisfies every expectation it checks: status code,
// headers, body substring and maximum response time. BodyPath,
// SchemaPath and CustomExpectations are not checked.
func ValidateExpectations(tc TestCase, actual Response) error {
	var errs *multierror.Error
	exp := tc.ExpectedResponse

	if exp.StatusCode != nil && actual.StatusCode != *exp.StatusCode {
		errs = multierror.Append(errs, fmt.Errorf(
			"test case %q: status code mismatch: expected %d, got %d", tc.Name, *exp.StatusCode, actual.StatusCode))
	}

	for name, want := range exp.Headers {
		got, ok := headerValue(actual.Headers, name)
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf(
				"test case %q: expected header %q not found", tc.Name, name))
			continue
		}
		if got != want {
			errs = multierror.Append(errs, fmt.Errorf(
				"test case %q: header %q mismatch: expected %q, got %q", tc.Name, name, want, got))
		}
	}

	if exp.BodyContains != "" {
		if !strings.Contains(strings.ToLower(actual.Body), strings.ToLower(exp.BodyContains)) {
			diff := difflib.UnifiedDiff{
				A:        difflib.SplitLines(exp.BodyContains),
				B:        difflib.SplitLines(actual.Body),
				FromFile: "Expected substring",
				ToFile:   "Actual body",
				Context:  3,
			}
			diffText, _ := difflib.GetUnifiedDiffString(diff)
			errs = multierror.Append(errs, fmt.Errorf(
				"test case %q: body does not contain expected substring:\n%s", tc.Name, diffText))
		}
	}

	if exp.MaxResponseTime != nil && actual.Duration > *exp.MaxResponseTime {
		errs = multierror.Append(errs, fmt.Errorf(
			"test case %q: response took %s, exceeding max %s", tc.Name, actual.Duration, *exp.MaxResponseTime))
	}

	return errs.ErrorOrNil()
}

func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
