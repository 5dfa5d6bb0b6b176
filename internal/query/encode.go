package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// AsMap returns q as the plain object its JSON form decodes to.
// Numbers are json.Number so Sanitize reads them back without loss.
func AsMap(q Query) (map[string]any, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query %d: %w", q.ID, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode query %d: %w", q.ID, err)
	}
	return m, nil
}

// Canonical returns the RFC 8785 form of q.
func Canonical(q Query) ([]byte, error) {
	m, err := AsMap(q)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(m)
}

// Hash returns the content address of q. Queries with equal canonical
// forms have equal hashes.
func Hash(q Query) (string, error) {
	m, err := AsMap(q)
	if err != nil {
		return "", err
	}
	return ir.QueryHash(m)
}
