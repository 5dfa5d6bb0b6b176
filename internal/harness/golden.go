package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// Snapshot captures the normalized queries of a scenario execution.
// Hashes are left out so golden files stay readable; the canonical query
// fully determines them.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Steps        []StepResult `json:"steps"`
	Stored       int          `json:"stored"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Steps))
	for i, step := range s.Steps {
		stepMap := map[string]any{
			"index": step.Index,
		}
		if step.Query != nil {
			stepMap["query"] = step.Query
		}
		if step.Variant != "" {
			stepMap["variant"] = string(step.Variant)
		}
		if step.Error != "" {
			stepMap["error"] = step.Error
		}
		steps[i] = stepMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         steps,
		"stored":        s.Stored,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

// SnapshotJSON returns the canonical JSON snapshot of a result, the bytes
// golden files hold.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Steps:        result.Steps,
		Stored:       result.Stored,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}
