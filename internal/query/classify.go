package query

// Variant names the shape of a query as seen by the scheduler.
type Variant string

const (
	VariantAtomic   Variant = "atomic"
	VariantGoal     Variant = "goal"
	VariantProvider Variant = "provider"
	// VariantConflicting is a query carrying both goal and provide.
	// New and Sanitize can produce it; compiler.Validate reports it.
	VariantConflicting Variant = "conflicting"
)

// IsGoalQuery reports whether q carries a goal.
func IsGoalQuery(q Query) bool {
	return q.Goal != nil
}

// IsProviderQuery reports whether q provides a chunk.
func IsProviderQuery(q Query) bool {
	return q.Provide != nil
}

// IsAtomicQuery reports whether q is neither a goal nor a provider query.
func IsAtomicQuery(q Query) bool {
	return !IsGoalQuery(q) && !IsProviderQuery(q)
}

// Classify evaluates the three predicates independently and names the result.
func Classify(q Query) Variant {
	goal, provider := IsGoalQuery(q), IsProviderQuery(q)
	switch {
	case goal && provider:
		return VariantConflicting
	case goal:
		return VariantGoal
	case provider:
		return VariantProvider
	default:
		return VariantAtomic
	}
}
