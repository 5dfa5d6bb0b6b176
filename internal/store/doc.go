// Package store provides a SQLite-backed catalog of canonical queries.
//
// Each row holds one query in RFC 8785 canonical JSON, keyed by its content
// hash (see query.Hash). Saving the same canonical query twice is a no-op.
//
// # Patterns
//
// Content-addressed identity
//   - hash PRIMARY KEY, inserts use ON CONFLICT(hash) DO NOTHING
//   - equal queries share one row regardless of how they were built
//
// Logical ordering
//   - seq INTEGER assigned on insert, never timestamps
//   - every list query ends with ORDER BY seq ASC
//
// Re-sanitized reads
//   - Get runs the stored body through query.Sanitize, so readers always
//     receive a query that satisfies the current normalization rules
//   - decoded queries are kept in an LRU cache keyed by hash
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
