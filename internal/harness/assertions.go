package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/AutoScheduleJS/queries-fn/internal/compiler"
	"github.com/AutoScheduleJS/queries-fn/internal/ir"
	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Query    string // Canonical query, when the assertion targets one
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Query != "" {
		fmt.Fprintf(&buf, "\nQuery:\n  %s\n", e.Query)
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFieldAbsent, AssertIdempotent, AssertIssue, AssertValid:
			err = assertOnStep(result, assertion)
		case AssertLinkCycles:
			err = assertLinkCycles(result, assertion)
		case AssertStoredCount:
			if result.Stored != assertion.Count {
				err = &AssertionError{
					Type:     AssertStoredCount,
					Expected: fmt.Sprintf("%d stored queries", assertion.Count),
					Actual:   fmt.Sprintf("%d stored queries", result.Stored),
				}
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertOnStep(result *Result, a Assertion) error {
	if a.Query < 0 || a.Query >= len(result.Steps) {
		return fmt.Errorf("%s: query %d out of range", a.Type, a.Query)
	}
	step := result.Steps[a.Query]
	if !step.ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("query %d normalized", a.Query),
			Actual:   step.Error,
		}
	}

	switch a.Type {
	case AssertFieldAbsent:
		if v, ok := lookupPath(step.Query, a.Path); ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s absent", a.Path),
				Actual:   fmt.Sprintf("%s = %v", a.Path, v),
				Query:    step.Canonical,
			}
		}
	case AssertIdempotent:
		return assertIdempotent(step)
	case AssertIssue, AssertValid:
		codes := issueCodes(step.normalized)
		if a.Type == AssertValid && len(codes) > 0 {
			return &AssertionError{
				Type:     a.Type,
				Expected: "no validation issues",
				Actual:   strings.Join(codes, ", "),
				Query:    step.Canonical,
			}
		}
		if a.Type == AssertIssue && !containsString(codes, a.Code) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("issue %s", a.Code),
				Actual:   fmt.Sprintf("issues [%s]", strings.Join(codes, ", ")),
				Query:    step.Canonical,
			}
		}
	}
	return nil
}

// assertIdempotent re-sanitizes the canonical object and compares hashes.
func assertIdempotent(step StepResult) error {
	again, err := query.Sanitize(step.Query)
	if err != nil {
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: "canonical query sanitizes again",
			Actual:   err.Error(),
			Query:    step.Canonical,
		}
	}
	hash, err := query.Hash(again)
	if err != nil {
		return err
	}
	if hash != step.Hash {
		canonical, _ := query.Canonical(again)
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: step.Canonical,
			Actual:   string(canonical),
		}
	}
	return nil
}

func assertLinkCycles(result *Result, a Assertion) error {
	warnings := compiler.AnalyzeLinkCycles(result.normalizedQueries())
	if len(warnings) == a.Count {
		return nil
	}
	msgs := make([]string, len(warnings))
	for i, w := range warnings {
		msgs[i] = w.Message
	}
	return &AssertionError{
		Type:     AssertLinkCycles,
		Expected: fmt.Sprintf("%d link cycles", a.Count),
		Actual:   fmt.Sprintf("%d link cycles %v", len(warnings), msgs),
	}
}

// issueCodes returns the sorted, distinct validation codes for q.
func issueCodes(q query.Query) []string {
	seen := map[string]bool{}
	codes := []string{}
	for _, e := range compiler.Validate(q) {
		if !seen[e.Code] {
			seen[e.Code] = true
			codes = append(codes, e.Code)
		}
	}
	sort.Strings(codes)
	return codes
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// matchFields checks the expected dotted paths against a canonical query
// (subset match). Returns one message per mismatch, sorted by path.
func matchFields(actual map[string]any, expected map[string]any) []string {
	paths := make([]string, 0, len(expected))
	for path := range expected {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var msgs []string
	for _, path := range paths {
		got, ok := lookupPath(actual, path)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s: missing, want %v", path, expected[path]))
			continue
		}
		if !valuesEqual(got, expected[path]) {
			msgs = append(msgs, fmt.Sprintf("%s = %v, want %v", path, got, expected[path]))
		}
	}
	return msgs
}

// lookupPath walks a dotted path through nested objects and arrays.
// Numeric segments index arrays.
func lookupPath(root any, path string) (any, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// valuesEqual compares two decoded values for equality.
// Both sides go through the IR so YAML ints and JSON numbers compare equal.
func valuesEqual(actual, expected any) bool {
	a, err := ir.FromAny(actual)
	if err != nil {
		return false
	}
	e, err := ir.FromAny(expected)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(a, e)
}
