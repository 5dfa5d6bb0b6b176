package query

import "errors"

// ErrInvalidPosition is returned when a position has neither a duration nor a
// usable start/end pair. It aborts the whole New or Sanitize call.
var ErrInvalidPosition = errors.New("invalid position")

// ResolvePosition reconciles a position given as a duration or as a start/end pair
// into one canonical duration-bearing position.
//
// A duration, when present, wins; start and end are then only used to infer a
// missing duration minimum. Without a duration both start and end are required.
// Negative gaps clamp to zero and the minimum never exceeds the target.
func ResolvePosition(in PositionInput) (Position, error) {
	if in.Duration != nil {
		return resolveDurationForm(in), nil
	}
	if in.Start != nil && in.End != nil {
		return resolveStartEndForm(in)
	}
	return Position{}, ErrInvalidPosition
}

func resolveDurationForm(in PositionInput) Position {
	target := in.Duration.Target
	least := target
	switch {
	case in.Duration.Min != nil:
		least = *in.Duration.Min
	case in.Start != nil && in.End != nil:
		startMax := firstSet(in.Start.Max, in.Start.Target)
		endMin := firstSet(in.End.Min, in.End.Target)
		if startMax != nil && endMin != nil {
			least = max(*endMin-*startMax, 0)
		}
	}

	return Position{
		Start:    cloneBoundary(in.Start),
		End:      cloneBoundary(in.End),
		Duration: clampDuration(least, target),
	}
}

func resolveStartEndForm(in PositionInput) (Position, error) {
	endMin := firstSet(in.End.Target, in.End.Min)
	startMax := firstSet(in.Start.Target, in.Start.Max)
	if endMin == nil || startMax == nil {
		return Position{}, ErrInvalidPosition
	}

	target := max(*endMin-*startMax, 0)
	earliestEnd := *firstSet(in.End.Min, endMin)
	latestStart := *firstSet(in.Start.Max, startMax)
	least := max(earliestEnd-latestStart, 0)

	return Position{
		Start:    cloneBoundary(in.Start),
		End:      cloneBoundary(in.End),
		Duration: clampDuration(least, target),
	}, nil
}

// clampDuration enforces 0 <= min <= target.
func clampDuration(least, target int64) TimeDuration {
	target = max(target, 0)
	return TimeDuration{
		Min:    min(max(least, 0), target),
		Target: target,
	}
}

func firstSet(vals ...*int64) *int64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func cloneBoundary(b *TimeBoundary) *TimeBoundary {
	if b == nil {
		return nil
	}
	return &TimeBoundary{
		Min:    cloneInt(b.Min),
		Target: cloneInt(b.Target),
		Max:    cloneInt(b.Max),
	}
}

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
