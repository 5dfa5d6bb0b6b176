package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// marshalQuery converts a query to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalQuery(q query.Query) (string, error) {
	data, err := query.Canonical(q)
	if err != nil {
		return "", fmt.Errorf("marshal query: %w", err)
	}
	return string(data), nil
}

// unmarshalQuery parses a stored body back into a canonical query.
// Numbers are decoded as json.Number to avoid float64 precision loss for
// values > 2^53.
func unmarshalQuery(body string) (query.Query, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return query.Query{}, fmt.Errorf("unmarshal query: %w", err)
	}
	q, err := query.Sanitize(raw)
	if err != nil {
		return query.Query{}, fmt.Errorf("unmarshal query: %w", err)
	}
	return q, nil
}
