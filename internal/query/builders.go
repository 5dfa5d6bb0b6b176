package query

import "github.com/AutoScheduleJS/queries-fn/internal/ir"

// ID sets the query id. Zero means DefaultID.
func ID(n int64) Fragment {
	return func(q *Query) error {
		if n == 0 {
			n = DefaultID
		}
		q.ID = n
		return nil
	}
}

// Name sets the query name. An empty name means DefaultName.
func Name(s string) Fragment {
	return func(q *Query) error {
		if s == "" {
			s = DefaultName
		}
		q.Name = s
		return nil
	}
}

// Kind sets the query kind.
func Kind(k QueryKind) Fragment {
	return func(q *Query) error {
		q.Kind = k
		return nil
	}
}

// Splittable sets whether the scheduler may split the query into chunks.
func Splittable(b bool) Fragment {
	return func(q *Query) error {
		q.Splittable = b
		return nil
	}
}

// Start returns a start boundary with a target and an optional minimum.
func Start(target int64, least ...int64) *TimeBoundary {
	return boundary(target, least)
}

// End returns an end boundary with a target and an optional minimum.
func End(target int64, least ...int64) *TimeBoundary {
	return boundary(target, least)
}

func boundary(target int64, least []int64) *TimeBoundary {
	b := &TimeBoundary{Target: Int64(target)}
	if len(least) > 0 {
		b.Min = Int64(least[0])
	}
	return b
}

// TimeDurationOf returns a duration input; without min, the minimum is inferred.
func TimeDurationOf(target int64, least ...int64) DurationInput {
	d := DurationInput{Target: target}
	if len(least) > 0 {
		d.Min = Int64(least[0])
	}
	return d
}

// PositionOf resolves in and sets it as the query position.
// An unresolvable position fails with ErrInvalidPosition.
func PositionOf(in PositionInput) Fragment {
	return func(q *Query) error {
		pos, err := ResolvePosition(in)
		if err != nil {
			return err
		}
		q.Position = pos
		return nil
	}
}

// Duration sets a duration-only position.
func Duration(d DurationInput) Fragment {
	return PositionOf(PositionInput{Duration: &d})
}

// TimeRestrictionsFor sets the time restrictions to a single slot.
func TimeRestrictionsFor(kind RestrictionKind, cond RestrictionCondition, ranges []Range) Fragment {
	return func(q *Query) error {
		var tr TimeRestrictions
		r := cloneRestriction(&TimeRestriction{Condition: cond, Ranges: ranges})
		if err := tr.setSlot(kind, r); err != nil {
			return err
		}
		q.TimeRestrictions = &tr
		return nil
	}
}

// WithTimeRestrictions sets every slot of tr that is set. An empty tr clears the field.
func WithTimeRestrictions(tr *TimeRestrictions) Fragment {
	return func(q *Query) error {
		q.TimeRestrictions = NormalizeTimeRestrictions(tr)
		return nil
	}
}

// GoalOf turns the query into a goal query.
func GoalOf(kind GoalKind, quantity DurationInput, time int64) Fragment {
	return func(q *Query) error {
		least := quantity.Target
		if quantity.Min != nil {
			least = *quantity.Min
		}
		q.Goal = &Goal{
			Kind:     kind,
			Quantity: TimeDuration{Min: least, Target: quantity.Target},
			Time:     time,
		}
		return nil
	}
}

// Provide turns the query into a provider of the chunk of query n.
func Provide(n int64) Fragment {
	return ProvideChunk(ChunkRef{QueryID: n})
}

// ProvideChunk turns the query into a provider of chunk c.
func ProvideChunk(c ChunkRef) Fragment {
	return func(q *Query) error {
		q.Provide = &ChunkRef{
			QueryID:    c.QueryID,
			MaterialID: cloneInt(c.MaterialID),
			SplitID:    cloneInt(c.SplitID),
		}
		return nil
	}
}

// Links sets the query links. An empty list leaves the query without links.
func Links(list []QueryLink) Fragment {
	return func(q *Query) error {
		if len(list) == 0 {
			q.Links = nil
			return nil
		}
		q.Links = make([]QueryLink, len(list))
		copy(q.Links, list)
		return nil
	}
}

// QueryLinkOf builds a link to the candidate placement potentialID of query queryID.
func QueryLinkOf(distance TimeBoundary, origin LinkOrigin, queryID, potentialID int64, splitID ...int64) QueryLink {
	l := QueryLink{
		QueryID:     queryID,
		PotentialID: potentialID,
		Distance:    distance,
		Origin:      origin,
	}
	if len(splitID) > 0 {
		l.SplitID = Int64(splitID[0])
	}
	return l
}

// Transforms sets the query transformation, deriving its deletes.
func Transforms(needs []Need, updates []Update, inserts []Insert) Fragment {
	return func(q *Query) error {
		t := NewTransformation(needs, updates, inserts)
		q.Transforms = &t
		return nil
	}
}

// NewNeed builds a need. Zero values fall back to collection "test",
// an empty find filter, quantity 1 and ref "1".
func NewNeed(wait bool, collectionName string, find ir.IRValue, quantity int64, ref string) Need {
	if collectionName == "" {
		collectionName = "test"
	}
	if find == nil {
		find = ir.IRObject{}
	}
	if quantity == 0 {
		quantity = DefaultQuantity
	}
	if ref == "" {
		ref = "1"
	}
	return Need{
		CollectionName: collectionName,
		Ref:            ref,
		Find:           find,
		Quantity:       quantity,
		Wait:           Bool(wait),
	}
}
