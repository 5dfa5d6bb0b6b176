package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierExclusivity(t *testing.T) {
	tests := []struct {
		name     string
		q        Query
		goal     bool
		provider bool
		atomic   bool
		variant  Variant
	}{
		{
			name:    "atomic",
			q:       MustNew(),
			atomic:  true,
			variant: VariantAtomic,
		},
		{
			name:    "goal",
			q:       MustNew(GoalOf(GoalAtomic, TimeDurationOf(30), 60)),
			goal:    true,
			variant: VariantGoal,
		},
		{
			name:     "provider",
			q:        MustNew(Provide(3)),
			provider: true,
			variant:  VariantProvider,
		},
		{
			name:     "dual tagged keeps independent predicates",
			q:        MustNew(GoalOf(GoalAtomic, TimeDurationOf(30), 60), Provide(3)),
			goal:     true,
			provider: true,
			variant:  VariantConflicting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.goal, IsGoalQuery(tt.q))
			assert.Equal(t, tt.provider, IsProviderQuery(tt.q))
			assert.Equal(t, tt.atomic, IsAtomicQuery(tt.q))
			assert.Equal(t, tt.variant, Classify(tt.q))
		})
	}
}
