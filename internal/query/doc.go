// Package query defines scheduler queries and the pipeline that normalizes them.
//
// A query describes a time-constrained task and its data side effects. Callers
// build one with New and field builders, or recover one from an untrusted object
// with Sanitize. Both produce the same canonical Query:
//
//   - the position always carries a duration with 0 <= min <= target
//   - transforms, when present, hold all four lists and derived deletes
//   - absent optional sections are nil and never serialized
//
// A Query is a goal query, a provider query or an atomic query depending on
// which of Goal and Provide is set. There is no tag field; use IsGoalQuery,
// IsProviderQuery, IsAtomicQuery or Classify.
//
// Everything in this package is a pure function and safe for concurrent use.
package query
