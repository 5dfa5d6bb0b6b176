package query

import "github.com/AutoScheduleJS/queries-fn/internal/ir"

// QueryKind distinguishes real tasks from placeholders.
type QueryKind int

const (
	KindPlaceholder QueryKind = iota
	KindAtomic
)

// GoalKind tells the scheduler whether a goal may be split across placements.
type GoalKind int

const (
	GoalAtomic GoalKind = iota
	GoalSplittable
)

// RestrictionCondition selects whether ranges are allowed or forbidden slots.
type RestrictionCondition int

const (
	InRange RestrictionCondition = iota
	OutRange
)

// RestrictionKind names a time-restriction slot.
type RestrictionKind string

const (
	RestrictionHour    RestrictionKind = "hour"
	RestrictionWeekday RestrictionKind = "weekday"
	RestrictionMonth   RestrictionKind = "month"
)

// LinkOrigin is the boundary of the linked query a distance is measured from.
type LinkOrigin string

const (
	OriginStart LinkOrigin = "start"
	OriginEnd   LinkOrigin = "end"
)

// ArrayMethod tells an update how to apply a value to an array property.
type ArrayMethod string

const (
	ArrayPush   ArrayMethod = "Push"
	ArrayDelete ArrayMethod = "Delete"
)

// TimeBoundary is a partially specified point in time.
type TimeBoundary struct {
	Min    *int64 `json:"min,omitempty"`
	Target *int64 `json:"target,omitempty"`
	Max    *int64 `json:"max,omitempty"`
}

// TimeDuration is a canonical duration: 0 <= Min <= Target.
type TimeDuration struct {
	Min    int64 `json:"min" validate:"gte=0,ltefield=Target"`
	Target int64 `json:"target" validate:"gte=0"`
}

// DurationInput is a duration as callers write it; Min defaults to Target.
type DurationInput struct {
	Min    *int64
	Target int64
}

// Position is the canonical, duration-bearing placement of a query.
type Position struct {
	Start    *TimeBoundary `json:"start,omitempty"`
	End      *TimeBoundary `json:"end,omitempty"`
	Duration TimeDuration  `json:"duration"`
}

// PositionInput is a position in either duration form or start/end form.
type PositionInput struct {
	Start    *TimeBoundary
	End      *TimeBoundary
	Duration *DurationInput
}

// Range is an inclusive (lower, upper) pair.
type Range [2]int64

// TimeRestriction constrains placements to (or away from) a set of ranges.
type TimeRestriction struct {
	Condition RestrictionCondition `json:"condition"`
	Ranges    []Range              `json:"ranges"`
}

// TimeRestrictions holds the optional hour, weekday and month restrictions.
type TimeRestrictions struct {
	Hour    *TimeRestriction `json:"hour,omitempty"`
	Weekday *TimeRestriction `json:"weekday,omitempty"`
	Month   *TimeRestriction `json:"month,omitempty"`
}

// Need locates and reserves existing records in a collection.
type Need struct {
	CollectionName string     `json:"collectionName"`
	Ref            string     `json:"ref"`
	Find           ir.IRValue `json:"find"`
	Quantity       int64      `json:"quantity"`
	Wait           *bool      `json:"wait,omitempty"`
}

// UpdateObject is one property mutation.
type UpdateObject struct {
	Property    string       `json:"property"`
	Value       ir.IRValue   `json:"value,omitempty"`
	ArrayMethod *ArrayMethod `json:"arrayMethod,omitempty"`
}

// Update mutates the records reserved by the need with the same Ref.
type Update struct {
	Ref    string         `json:"ref"`
	Update []UpdateObject `json:"update"`
	Wait   *bool          `json:"wait,omitempty"`
}

// Insert creates new records.
type Insert struct {
	CollectionName string     `json:"collectionName"`
	Doc            ir.IRValue `json:"doc"`
	Quantity       int64      `json:"quantity"`
	Wait           *bool      `json:"wait,omitempty"`
}

// Transformation is the data side effect of a query.
// Deletes is derived: refs of needs that no update references.
type Transformation struct {
	Needs   []Need   `json:"needs"`
	Updates []Update `json:"updates"`
	Inserts []Insert `json:"inserts"`
	Deletes []string `json:"deletes"`
}

// QueryLink declares a temporal relation to another query's candidate placement.
type QueryLink struct {
	QueryID     int64        `json:"queryId"`
	PotentialID int64        `json:"potentialId"`
	SplitID     *int64       `json:"splitId,omitempty"`
	Distance    TimeBoundary `json:"distance"`
	Origin      LinkOrigin   `json:"origin"`
}

// Goal asks for a quantity of time every Time units instead of a fixed placement.
type Goal struct {
	Kind     GoalKind     `json:"kind"`
	Quantity TimeDuration `json:"quantity"`
	Time     int64        `json:"time" validate:"gte=0"`
}

// ChunkRef identifies the chunk a provider query supplies.
type ChunkRef struct {
	QueryID    int64  `json:"queryId"`
	MaterialID *int64 `json:"materialId,omitempty"`
	SplitID    *int64 `json:"splitId,omitempty"`
}

// Query is the canonical query. It is one of three variants told apart by field
// presence only: Goal set (goal query), Provide set (provider query), or neither
// (atomic query). See IsGoalQuery, IsProviderQuery and IsAtomicQuery.
type Query struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Kind             QueryKind         `json:"kind"`
	Position         Position          `json:"position"`
	Splittable       bool              `json:"splittable"`
	Transforms       *Transformation   `json:"transforms,omitempty"`
	Links            []QueryLink       `json:"links,omitempty"`
	TimeRestrictions *TimeRestrictions `json:"timeRestrictions,omitempty"`
	Goal             *Goal             `json:"goal,omitempty"`
	Provide          *ChunkRef         `json:"provide,omitempty"`
}

// Int64 returns a pointer to n, for filling optional fields.
func Int64(n int64) *int64 {
	return &n
}

// Bool returns a pointer to b, for filling optional fields.
func Bool(b bool) *bool {
	return &b
}
