package query

import (
	"fmt"
	"log/slog"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// NormalizeTimeRestrictions keeps only the slots that are set.
// It returns nil when no slot is set. Ranges are passed through verbatim.
func NormalizeTimeRestrictions(tr *TimeRestrictions) *TimeRestrictions {
	if tr == nil || (tr.Hour == nil && tr.Weekday == nil && tr.Month == nil) {
		return nil
	}
	return &TimeRestrictions{
		Hour:    cloneRestriction(tr.Hour),
		Weekday: cloneRestriction(tr.Weekday),
		Month:   cloneRestriction(tr.Month),
	}
}

// Slot returns the restriction stored under kind, or nil.
func (tr *TimeRestrictions) Slot(kind RestrictionKind) *TimeRestriction {
	if tr == nil {
		return nil
	}
	switch kind {
	case RestrictionHour:
		return tr.Hour
	case RestrictionWeekday:
		return tr.Weekday
	case RestrictionMonth:
		return tr.Month
	}
	return nil
}

func (tr *TimeRestrictions) setSlot(kind RestrictionKind, r *TimeRestriction) error {
	switch kind {
	case RestrictionHour:
		tr.Hour = r
	case RestrictionWeekday:
		tr.Weekday = r
	case RestrictionMonth:
		tr.Month = r
	default:
		return fmt.Errorf("unknown time restriction %q", kind)
	}
	return nil
}

func cloneRestriction(r *TimeRestriction) *TimeRestriction {
	if r == nil {
		return nil
	}
	ranges := make([]Range, len(r.Ranges))
	copy(ranges, r.Ranges)
	return &TimeRestriction{Condition: r.Condition, Ranges: ranges}
}

// normalizeRawTimeRestrictions reads an untrusted timeRestrictions section.
// Slots that are not well-formed restrictions are dropped.
func normalizeRawTimeRestrictions(raw any) *TimeRestrictions {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	var tr TimeRestrictions
	slots := []struct {
		kind RestrictionKind
		dst  **TimeRestriction
	}{
		{RestrictionHour, &tr.Hour},
		{RestrictionWeekday, &tr.Weekday},
		{RestrictionMonth, &tr.Month},
	}
	for _, slot := range slots {
		v, ok := present(m, string(slot.kind))
		if !ok {
			continue
		}
		r, err := decodeRestriction(v)
		if err != nil {
			slog.Debug("dropping time restriction", "slot", slot.kind, "error", err)
			continue
		}
		*slot.dst = r
	}
	return NormalizeTimeRestrictions(&tr)
}

func decodeRestriction(v any) (*TimeRestriction, error) {
	m, err := requireKeys(v, "condition")
	if err != nil {
		return nil, err
	}
	cond, ok := ir.Int64Of(m["condition"])
	if !ok || (RestrictionCondition(cond) != InRange && RestrictionCondition(cond) != OutRange) {
		return nil, fmt.Errorf("invalid condition %v", m["condition"])
	}

	ranges := make([]Range, 0)
	if rawRanges, ok := present(m, "ranges"); ok {
		list, ok := rawRanges.([]any)
		if !ok {
			return nil, fmt.Errorf("ranges: expected list, got %T", rawRanges)
		}
		for i, item := range list {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("ranges[%d]: expected a pair", i)
			}
			lo, okLo := ir.Int64Of(pair[0])
			hi, okHi := ir.Int64Of(pair[1])
			if !okLo || !okHi {
				return nil, fmt.Errorf("ranges[%d]: expected integers", i)
			}
			ranges = append(ranges, Range{lo, hi})
		}
	}
	return &TimeRestriction{Condition: RestrictionCondition(cond), Ranges: ranges}, nil
}
