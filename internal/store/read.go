package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// Summary is the catalog row of a stored query, without its body.
type Summary struct {
	Hash    string        `json:"hash"`
	QueryID int64         `json:"query_id"`
	Name    string        `json:"name"`
	Variant query.Variant `json:"variant"`
	BatchID string        `json:"batch_id"`
	Seq     int64         `json:"seq"`
}

// Get retrieves a query by content hash.
// Returns sql.ErrNoRows if not found.
//
// The stored body is re-sanitized; decoded queries are cached.
func (s *Store) Get(ctx context.Context, hash string) (query.Query, error) {
	if q, ok := s.cache.Get(hash); ok {
		return q, nil
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body
		FROM queries
		WHERE hash = ?
	`, hash).Scan(&body)
	if err != nil {
		return query.Query{}, err
	}

	q, err := unmarshalQuery(body)
	if err != nil {
		return query.Query{}, fmt.Errorf("get %s: %w", hash, err)
	}
	s.cache.Add(hash, q)
	return q, nil
}

// Body returns the stored canonical JSON of a query.
// Returns sql.ErrNoRows if not found.
func (s *Store) Body(ctx context.Context, hash string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM queries WHERE hash = ?`, hash).Scan(&body)
	return body, err
}

// List returns all stored queries ordered by seq ASC.
// Returns an empty slice (not nil) if the catalog is empty.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	return s.listWhere(ctx, "", nil)
}

// ListByQueryID returns every stored version of the query with the given id,
// oldest first.
func (s *Store) ListByQueryID(ctx context.Context, id int64) ([]Summary, error) {
	return s.listWhere(ctx, "WHERE query_id = ?", []any{id})
}

// ListByBatch returns the queries saved in one batch, in save order.
func (s *Store) ListByBatch(ctx context.Context, batchID string) ([]Summary, error) {
	return s.listWhere(ctx, "WHERE batch_id = ?", []any{batchID})
}

func (s *Store) listWhere(ctx context.Context, where string, args []any) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, query_id, name, variant, batch_id, seq
		FROM queries
		`+where+`
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

func scanSummary(rows *sql.Rows) (Summary, error) {
	var (
		sum     Summary
		variant string
	)
	if err := rows.Scan(&sum.Hash, &sum.QueryID, &sum.Name, &variant, &sum.BatchID, &sum.Seq); err != nil {
		return Summary{}, fmt.Errorf("scan summary: %w", err)
	}
	sum.Variant = query.Variant(variant)
	return sum, nil
}
