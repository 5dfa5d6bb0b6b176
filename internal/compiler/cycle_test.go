package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
)

// linked builds a query with id that links to every id in targets.
func linked(id int64, targets ...int64) query.Query {
	links := make([]query.QueryLink, 0, len(targets))
	for _, target := range targets {
		links = append(links, query.QueryLinkOf(query.TimeBoundary{Min: query.Int64(0)}, query.OriginEnd, target, 0))
	}
	return query.MustNew(query.ID(id), query.Links(links))
}

// TestAnalyzeLinkCycles_Empty tests that empty input produces no warnings.
func TestAnalyzeLinkCycles_Empty(t *testing.T) {
	warnings := AnalyzeLinkCycles(nil)
	assert.Empty(t, warnings, "no queries should produce no warnings")
	assert.NotNil(t, warnings)
}

// TestAnalyzeLinkCycles_DAG tests that a chain of links produces no warnings.
func TestAnalyzeLinkCycles_DAG(t *testing.T) {
	queries := []query.Query{linked(1, 2, 3), linked(2, 3), linked(3)}

	warnings := AnalyzeLinkCycles(queries)
	assert.Empty(t, warnings, "DAG should produce no cycle warnings")
}

// TestAnalyzeLinkCycles_SelfLoop tests detection of a query linking to itself.
func TestAnalyzeLinkCycles_SelfLoop(t *testing.T) {
	warnings := AnalyzeLinkCycles([]query.Query{linked(7, 7)})
	require.Len(t, warnings, 1)

	warning := warnings[0]
	assert.Equal(t, []string{"7", "7"}, warning.Path)
	assert.Contains(t, warning.Message, "links to itself")
	assert.Equal(t, "warning", warning.Level)
}

// TestAnalyzeLinkCycles_TwoNodeCycle tests detection of 1 → 2 → 1.
func TestAnalyzeLinkCycles_TwoNodeCycle(t *testing.T) {
	warnings := AnalyzeLinkCycles([]query.Query{linked(1, 2), linked(2, 1)})
	require.Len(t, warnings, 1)

	warning := warnings[0]
	assert.Equal(t, []string{"1", "2", "1"}, warning.Path)
	assert.Contains(t, warning.Message, "Link cycle")
	assert.Contains(t, warning.Message, "1 → 2 → 1")
}

// TestAnalyzeLinkCycles_ThreeNodeCycle tests detection of 3 → 4 → 5 → 3.
func TestAnalyzeLinkCycles_ThreeNodeCycle(t *testing.T) {
	warnings := AnalyzeLinkCycles([]query.Query{linked(5, 3), linked(3, 4), linked(4, 5)})
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"3", "4", "5", "3"}, warnings[0].Path)
}

// TestAnalyzeLinkCycles_MultipleIndependentCycles tests that each cycle is reported.
func TestAnalyzeLinkCycles_MultipleIndependentCycles(t *testing.T) {
	queries := []query.Query{
		linked(1, 2), linked(2, 1),
		linked(3, 4), linked(4, 3),
		linked(5, 1),
	}

	warnings := AnalyzeLinkCycles(queries)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Len(t, w.Path, 3)
		assert.Equal(t, w.Path[0], w.Path[2])
	}
}

// TestAnalyzeLinkCycles_IgnoresUnknownTargets tests links leaving the set.
func TestAnalyzeLinkCycles_IgnoresUnknownTargets(t *testing.T) {
	warnings := AnalyzeLinkCycles([]query.Query{linked(1, 99), linked(2, 1)})
	assert.Empty(t, warnings)
}

// TestAnalyzeLinkCycles_Deterministic tests that input order does not change output.
func TestAnalyzeLinkCycles_Deterministic(t *testing.T) {
	a := AnalyzeLinkCycles([]query.Query{linked(1, 2), linked(2, 1), linked(3, 3)})
	b := AnalyzeLinkCycles([]query.Query{linked(3, 3), linked(2, 1), linked(1, 2)})
	assert.Equal(t, a, b)
}

func TestBuildLinkGraph(t *testing.T) {
	graph := buildLinkGraph([]query.Query{linked(1, 2, 2, 42), linked(2)})

	assert.Equal(t, []string{"2"}, graph["1"], "duplicate and unknown targets are dropped")
	assert.Empty(t, graph["2"])
	assert.NotContains(t, graph, "42")
}

// TestHasSelfLoop tests self-loop detection.
func TestHasSelfLoop(t *testing.T) {
	graph := dependencyGraph{
		"1": {"1"},
		"2": {"3"},
		"3": {},
	}

	assert.True(t, hasSelfLoop("1", graph))
	assert.False(t, hasSelfLoop("2", graph))
	assert.False(t, hasSelfLoop("3", graph))
}

// TestTarjanSCC_SingleNode tests Tarjan with single node.
func TestTarjanSCC_SingleNode(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{"a": {}})
	require.Len(t, sccs, 1)
	assert.Equal(t, []string{"a"}, sccs[0])
}

// TestTarjanSCC_TwoNodeCycle tests Tarjan with two-node cycle.
func TestTarjanSCC_TwoNodeCycle(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{"a": {"b"}, "b": {"a"}})
	require.Len(t, sccs, 1)
	assert.Len(t, sccs[0], 2, "SCC should contain both nodes")
}

// TestTarjanSCC_DAG tests Tarjan with DAG (no cycles).
func TestTarjanSCC_DAG(t *testing.T) {
	sccs := tarjanSCC(dependencyGraph{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {},
	})
	assert.Len(t, sccs, 3)
	for _, scc := range sccs {
		assert.Len(t, scc, 1, "each SCC should be a singleton")
	}
}

// TestReconstructCyclePath_Empty tests path reconstruction with empty SCC.
func TestReconstructCyclePath_Empty(t *testing.T) {
	path := reconstructCyclePath([]string{}, dependencyGraph{})
	assert.Empty(t, path)
}

// TestReconstructCyclePath_StartsAtSmallest tests path reconstruction order.
func TestReconstructCyclePath_StartsAtSmallest(t *testing.T) {
	graph := dependencyGraph{
		"a": {"b"},
		"b": {"a"},
	}
	path := reconstructCyclePath([]string{"b", "a"}, graph)
	assert.Equal(t, []string{"a", "b", "a"}, path)
}
