package store

import (
	"context"
	"fmt"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// Drift is a stored query whose body no longer hashes to its key, usually
// because normalization rules changed after it was saved.
type Drift struct {
	Hash    string `json:"hash"`
	NewHash string `json:"new_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyReport summarizes a catalog integrity check.
type VerifyReport struct {
	Checked int     `json:"checked"`
	Drifted []Drift `json:"drifted"`
}

// OK reports whether every stored query still hashes to its key.
func (r VerifyReport) OK() bool {
	return len(r.Drifted) == 0
}

// Verify re-sanitizes every stored body and recomputes its hash.
// Rows are checked in seq order so reports are deterministic.
func (s *Store) Verify(ctx context.Context) (VerifyReport, error) {
	report := VerifyReport{Drifted: []Drift{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, body
		FROM queries
		ORDER BY seq ASC
	`)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, body string
		if err := rows.Scan(&hash, &body); err != nil {
			return report, fmt.Errorf("verify: scan: %w", err)
		}
		report.Checked++

		q, err := unmarshalQuery(body)
		if err != nil {
			report.Drifted = append(report.Drifted, Drift{Hash: hash, Error: err.Error()})
			continue
		}
		got, err := query.Hash(q)
		if err != nil {
			report.Drifted = append(report.Drifted, Drift{Hash: hash, Error: err.Error()})
			continue
		}
		if got != hash {
			report.Drifted = append(report.Drifted, Drift{Hash: hash, NewHash: got})
		}
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("verify: iterate: %w", err)
	}
	return report, nil
}
