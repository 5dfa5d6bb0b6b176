package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario feeds raw query objects through normalization, saves the
// results to a fresh catalog, and asserts on the canonical queries.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden file
	// name and the catalog batch id.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Queries are normalized in order. Step indexes start at 0.
	Queries []QueryStep `yaml:"queries"`

	// Assertions validate the normalized queries and the catalog.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// QueryStep is one raw query object and what normalizing it should yield.
type QueryStep struct {
	// Input is the untrusted query object, as a client would send it.
	Input map[string]any `yaml:"input"`

	// Expect specifies the expected outcome.
	// If nil, the step is only required not to fail.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected normalization behavior.
type ExpectClause struct {
	// Error is a substring of the expected normalization error.
	// When set, the step must fail.
	Error string `yaml:"error,omitempty"`

	// Variant is the expected classification (atomic, goal, provider, conflicting).
	Variant string `yaml:"variant,omitempty"`

	// Fields maps dotted paths (e.g. "position.duration.min", "links.0.queryId")
	// to expected values in the canonical query.
	// This is a subset match - only specified paths are validated.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion validates normalized queries or the catalog.
type Assertion struct {
	// Type specifies the assertion type:
	// - "field_absent": Path is absent from query Query
	// - "idempotent": re-sanitizing query Query yields the same hash
	// - "issue": validating query Query reports Code
	// - "valid": validating query Query reports nothing
	// - "link_cycles": the scenario's queries form Count link cycles
	// - "stored_count": the catalog holds Count queries
	Type string `yaml:"type"`

	// Query is the step index (used by field_absent, idempotent, issue, valid).
	Query int `yaml:"query,omitempty"`

	// Path is a dotted path into the canonical query (used by field_absent).
	Path string `yaml:"path,omitempty"`

	// Code is a validation error code such as E206 (used by issue).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number (used by link_cycles, stored_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFieldAbsent = "field_absent"
	AssertIdempotent  = "idempotent"
	AssertIssue       = "issue"
	AssertValid       = "valid"
	AssertLinkCycles  = "link_cycles"
	AssertStoredCount = "stored_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, step := range s.Queries {
		if step.Input == nil {
			return fmt.Errorf("queries[%d]: input is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" &&
			(step.Expect.Variant != "" || len(step.Expect.Fields) > 0) {
			return fmt.Errorf("queries[%d].expect: error excludes variant and fields", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Queries)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFieldAbsent, AssertIdempotent, AssertIssue, AssertValid:
		if a.Query < 0 || a.Query >= steps {
			return fmt.Errorf("assertions[%d]: query %d out of range", index, a.Query)
		}
	}

	switch a.Type {
	case AssertFieldAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for field_absent", index)
		}
	case AssertIssue:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for issue", index)
		}
	case AssertLinkCycles, AssertStoredCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertIdempotent, AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
