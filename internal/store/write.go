package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// Save inserts a query into the catalog and returns its content hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - saving an equal query
// again returns the same hash and inserted=false.
//
// An empty batchID is replaced by a fresh UUID.
func (s *Store) Save(ctx context.Context, q query.Query, batchID string) (hash string, inserted bool, err error) {
	hashes, insertedCount, err := s.SaveAll(ctx, []query.Query{q}, batchID)
	if err != nil {
		return "", false, err
	}
	return hashes[0], insertedCount == 1, nil
}

// SaveAll inserts queries in one transaction, all under the same batch.
// Returns one hash per query, in input order, and how many rows were new.
func (s *Store) SaveAll(ctx context.Context, qs []query.Query, batchID string) ([]string, int, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("save queries: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	hashes := make([]string, 0, len(qs))
	inserted := 0
	for _, q := range qs {
		hash, ok, err := saveTx(ctx, tx, q, batchID)
		if err != nil {
			return nil, 0, err
		}
		hashes = append(hashes, hash)
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("save queries: commit: %w", err)
	}

	slog.Info("saved queries", "batch", batchID, "count", len(qs), "inserted", inserted)
	return hashes, inserted, nil
}

func saveTx(ctx context.Context, tx *sql.Tx, q query.Query, batchID string) (string, bool, error) {
	body, err := marshalQuery(q)
	if err != nil {
		return "", false, fmt.Errorf("save query %d: %w", q.ID, err)
	}
	hash, err := query.Hash(q)
	if err != nil {
		return "", false, fmt.Errorf("save query %d: %w", q.ID, err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM queries`).Scan(&seq); err != nil {
		return "", false, fmt.Errorf("save query %d: next seq: %w", q.ID, err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO queries
		(hash, query_id, name, variant, body, batch_id, seq, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		q.ID,
		q.Name,
		string(query.Classify(q)),
		body,
		batchID,
		seq,
		ir.SchemaVersion,
	)
	if err != nil {
		return "", false, fmt.Errorf("save query %d: %w", q.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("save query %d: rows affected: %w", q.ID, err)
	}
	if rows > 0 {
		slog.Debug("inserted query", "hash", hash, "id", q.ID, "seq", seq)
	}
	return hash, rows > 0, nil
}
