package query

import "fmt"

// Defaults applied by New before any fragment.
const (
	DefaultID             int64 = 42
	DefaultName                 = "query"
	DefaultKind                 = KindAtomic
	DefaultDurationTarget int64 = 2
)

// Fragment sets one top-level field of a query.
type Fragment func(*Query) error

// New composes a query from defaults and fragments applied left to right.
// A later fragment replaces the field an earlier one set; there is no deep merge.
// The first fragment error aborts composition.
func New(fragments ...Fragment) (Query, error) {
	pos, err := ResolvePosition(PositionInput{Duration: &DurationInput{Target: DefaultDurationTarget}})
	if err != nil {
		return Query{}, err
	}
	q := Query{
		ID:       DefaultID,
		Name:     DefaultName,
		Kind:     DefaultKind,
		Position: pos,
	}
	for i, f := range fragments {
		if f == nil {
			continue
		}
		if err := f(&q); err != nil {
			return Query{}, fmt.Errorf("fragment %d: %w", i, err)
		}
	}
	return q, nil
}

// MustNew is New for inputs known to be valid. It panics on error.
func MustNew(fragments ...Fragment) Query {
	q, err := New(fragments...)
	if err != nil {
		panic(fmt.Sprintf("MustNew: %v", err))
	}
	return q
}
