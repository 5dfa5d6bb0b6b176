package harness

import "github.com/AutoScheduleJS/queries-fn/internal/query"

// StepResult is the outcome of normalizing one scenario query.
type StepResult struct {
	Index int `json:"index"`

	// Query is the canonical query as a plain object. Nil when normalization failed.
	Query map[string]any `json:"query,omitempty"`

	Canonical string        `json:"canonical,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	Variant   query.Variant `json:"variant,omitempty"`
	Error     string        `json:"error,omitempty"`

	normalized query.Query
	ok         bool
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Steps holds one result per scenario query, in order.
	Steps []StepResult `json:"steps"`

	// Stored is the number of catalog rows after saving the scenario's queries.
	Stored int `json:"stored"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// normalizedQueries returns the queries that normalized successfully.
func (r *Result) normalizedQueries() []query.Query {
	qs := make([]query.Query, 0, len(r.Steps))
	for _, step := range r.Steps {
		if step.ok {
			qs = append(qs, step.normalized)
		}
	}
	return qs
}
