// Package harness provides a conformance testing framework for query normalization.
//
// A scenario is a YAML file listing raw query objects, the outcome expected
// for each, and assertions over the normalized set:
//
//	name: duration_defaults
//	description: Queries fall back to defaults
//	queries:
//	  - input:
//	      position:
//	        duration: {target: 2}
//	    expect:
//	      variant: atomic
//	      fields:
//	        position.duration.min: 2
//	assertions:
//	  - type: idempotent
//	    query: 0
//
// Every run saves its normalized queries to a fresh in-memory catalog, so
// content-hash deduplication is part of what a scenario observes.
//
// # Golden Files
//
// RunWithGolden snapshots the canonical form of every query into
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
