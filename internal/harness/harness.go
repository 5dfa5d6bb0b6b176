package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
	"github.com/AutoScheduleJS/queries-fn/internal/store"
)

// Harness is the test execution engine.
// Each run owns a fresh in-memory catalog.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Normalize every query step and check its expect clause
// 3. Save the normalized queries as one batch named after the scenario
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Queries {
		result.Steps = append(result.Steps, h.executeStep(i, step, result))
	}

	if _, _, err := st.SaveAll(ctx, result.normalizedQueries(), scenario.Name); err != nil {
		return nil, fmt.Errorf("failed to save queries: %w", err)
	}
	stored, err := st.Count(ctx)
	if err != nil {
		return nil, err
	}
	result.Stored = stored

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep normalizes one raw query and validates its expect clause.
func (h *Harness) executeStep(i int, step QueryStep, result *Result) StepResult {
	sr := StepResult{Index: i}

	q, err := query.Sanitize(step.Input)
	if err != nil {
		sr.Error = err.Error()
		h.logger.Info("query rejected", "step", i, "error", err)
		switch {
		case step.Expect == nil || step.Expect.Error == "":
			result.AddError(fmt.Sprintf("queries[%d]: unexpected error: %v", i, err))
		case !strings.Contains(sr.Error, step.Expect.Error):
			result.AddError(fmt.Sprintf("queries[%d]: error %q does not contain %q", i, sr.Error, step.Expect.Error))
		}
		return sr
	}

	if err := h.fill(&sr, q); err != nil {
		result.AddError(fmt.Sprintf("queries[%d]: %v", i, err))
		return sr
	}
	h.logger.Info("query normalized", "step", i, "hash", sr.Hash, "variant", sr.Variant)

	if step.Expect == nil {
		return sr
	}
	if step.Expect.Error != "" {
		result.AddError(fmt.Sprintf("queries[%d]: expected error containing %q, got none", i, step.Expect.Error))
	}
	if step.Expect.Variant != "" && string(sr.Variant) != step.Expect.Variant {
		result.AddError(fmt.Sprintf("queries[%d]: variant = %s, want %s", i, sr.Variant, step.Expect.Variant))
	}
	for _, msg := range matchFields(sr.Query, step.Expect.Fields) {
		result.AddError(fmt.Sprintf("queries[%d]: %s", i, msg))
	}
	return sr
}

func (h *Harness) fill(sr *StepResult, q query.Query) error {
	m, err := query.AsMap(q)
	if err != nil {
		return err
	}
	canonical, err := query.Canonical(q)
	if err != nil {
		return err
	}
	hash, err := query.Hash(q)
	if err != nil {
		return err
	}
	sr.Query = m
	sr.Canonical = string(canonical)
	sr.Hash = hash
	sr.Variant = query.Classify(q)
	sr.normalized = q
	sr.ok = true
	return nil
}
