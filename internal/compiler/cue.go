package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// CompileCUE converts a CUE struct into the raw object Sanitize accepts.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value should be the query struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`query: standup: { ... }`)
//	raw, err := CompileCUE(v.LookupPath(cue.ParsePath("query.standup")))
//
// Every field must be concrete. Integral numbers become int64 and other
// numbers float64; Sanitize decides where fractions are allowed.
func CompileCUE(v cue.Value) (map[string]any, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "query",
			Message: fmt.Sprintf("query must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	out, err := cueToAny(v, "")
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

// cueToAny walks a concrete CUE value. path is the dotted field path used in errors.
func cueToAny(v cue.Value, path string) (any, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   fieldOrRoot(path),
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if n, ok := ir.Int64Of(f); ok {
			return n, nil
		}
		return f, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		list := []any{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToAny(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := map[string]any{}
		for iter.Next() {
			label := iter.Label()
			child := label
			if path != "" {
				child = path + "." + label
			}
			val, err := cueToAny(iter.Value(), child)
			if err != nil {
				return nil, err
			}
			obj[label] = val
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   fieldOrRoot(path),
			Message: fmt.Sprintf("unsupported kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func fieldOrRoot(path string) string {
	if path == "" {
		return "query"
	}
	return path
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
