package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported type for validation

	// Query errors (E201-E209)
	ErrDurationInvariant = "E201" // position duration breaks 0 <= min <= target
	ErrDuplicateNeedRef  = "E202" // two needs share a ref
	ErrUnknownUpdateRef  = "E203" // update references no need
	ErrInvertedRange     = "E204" // restriction range with lower > upper
	ErrDualTagged        = "E205" // both goal and provide set
	ErrGoalInvariant     = "E206" // goal quantity or time out of range
	ErrSelfLink          = "E207" // link targets the query itself
)

// ValidationError represents a query validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a canonical query against rules the normalizer does not enforce.
// Returns all errors found (does not fail-fast).
// Supports query.Query and *query.Query.
func Validate(v any) []ValidationError {
	switch q := v.(type) {
	case query.Query:
		return validateQuery(&q)
	case *query.Query:
		return validateQuery(q)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateQuery(q *query.Query) []ValidationError {
	var errs []ValidationError

	// E201: duration invariant
	errs = append(errs, structErrors(q.Position.Duration, "position.duration", ErrDurationInvariant)...)

	// E205: dual tagged
	if query.Classify(*q) == query.VariantConflicting {
		errs = append(errs, ValidationError{
			Field:   "provide",
			Message: "query has both goal and provide; it must be either a goal or a provider",
			Code:    ErrDualTagged,
		})
	}

	// E206: goal invariant
	if q.Goal != nil {
		errs = append(errs, structErrors(*q.Goal, "goal", ErrGoalInvariant)...)
	}

	if q.Transforms != nil {
		errs = append(errs, validateTransforms(q.Transforms)...)
	}

	// E207: self link
	for i, l := range q.Links {
		if l.QueryID == q.ID {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("links[%d].queryId", i),
				Message: fmt.Sprintf("query %d links to itself", q.ID),
				Code:    ErrSelfLink,
			})
		}
	}

	// E204: inverted ranges
	for _, kind := range []query.RestrictionKind{query.RestrictionHour, query.RestrictionWeekday, query.RestrictionMonth} {
		r := q.TimeRestrictions.Slot(kind)
		if r == nil {
			continue
		}
		for i, rg := range r.Ranges {
			if rg[0] > rg[1] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("timeRestrictions.%s.ranges[%d]", kind, i),
					Message: fmt.Sprintf("lower bound %d exceeds upper bound %d", rg[0], rg[1]),
					Code:    ErrInvertedRange,
				})
			}
		}
	}

	return errs
}

func validateTransforms(t *query.Transformation) []ValidationError {
	var errs []ValidationError

	// E202: duplicate need ref
	refs := make(map[string]bool, len(t.Needs))
	for i, n := range t.Needs {
		if refs[n.Ref] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transforms.needs[%d].ref", i),
				Message: fmt.Sprintf("duplicate need ref: %q", n.Ref),
				Code:    ErrDuplicateNeedRef,
			})
		}
		refs[n.Ref] = true
	}

	// E203: update without a need
	for i, u := range t.Updates {
		if !refs[u.Ref] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("transforms.updates[%d].ref", i),
				Message: fmt.Sprintf("update references unknown need ref %q", u.Ref),
				Code:    ErrUnknownUpdateRef,
			})
		}
	}

	return errs
}

// structErrors runs the struct tag rules on s and reports failures under prefix.
func structErrors(s any, prefix, code string) []ValidationError {
	err := structValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: prefix, Message: err.Error(), Code: code}}
	}

	errs := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := prefix
		if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
			field = prefix + "." + rest
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: ruleMessage(fe),
			Code:    code,
		})
	}
	return errs
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "ltefield":
		return fmt.Sprintf("must not exceed %s, got %v", strings.ToLower(fe.Param()), fe.Value())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
