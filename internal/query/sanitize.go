package query

import (
	"fmt"
	"log/slog"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

// Sanitize builds a canonical query from an untrusted object, such as a decoded
// JSON or YAML document or an AsMap result.
//
// Every field goes through its normalizer and the results are composed with New.
// Malformed links, restrictions, goals, providers and transform entries are
// dropped. The only fatal error is ErrInvalidPosition, including a missing
// or non-object position.
//
// Sanitize is idempotent: Sanitize(AsMap(Sanitize(x))) equals Sanitize(x).
func Sanitize(raw map[string]any) (Query, error) {
	posIn, err := decodePositionInput(raw["position"])
	if err != nil {
		return Query{}, err
	}

	fragments := []Fragment{
		ID(sanitizeID(raw["id"])),
		Name(sanitizeName(raw["name"])),
		Kind(sanitizeKind(raw["kind"])),
		PositionOf(posIn),
		Links(sanitizeLinks(raw["links"])),
		WithTimeRestrictions(normalizeRawTimeRestrictions(raw["timeRestrictions"])),
		setTransforms(normalizeTransforms(raw["transforms"])),
		setGoal(sanitizeGoal(raw["goal"])),
		setProvide(sanitizeProvide(raw["provide"])),
		Splittable(sanitizeBool(raw["splittable"])),
	}
	return New(fragments...)
}

func setTransforms(t *Transformation) Fragment {
	return func(q *Query) error {
		q.Transforms = t
		return nil
	}
}

func setGoal(g *Goal) Fragment {
	return func(q *Query) error {
		q.Goal = g
		return nil
	}
}

func setProvide(c *ChunkRef) Fragment {
	return func(q *Query) error {
		q.Provide = c
		return nil
	}
}

func sanitizeID(v any) int64 {
	n, _ := ir.Int64Of(v)
	return n
}

func sanitizeName(v any) string {
	s, _ := v.(string)
	return s
}

func sanitizeKind(v any) QueryKind {
	n, ok := ir.Int64Of(v)
	if !ok {
		return DefaultKind
	}
	switch k := QueryKind(n); k {
	case KindPlaceholder, KindAtomic:
		return k
	}
	return DefaultKind
}

func sanitizeBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// decodePositionInput reads either position form. Start, end and duration
// values that are null or malformed count as absent.
func decodePositionInput(v any) (PositionInput, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return PositionInput{}, fmt.Errorf("position must be an object: %w", ErrInvalidPosition)
	}
	var in PositionInput
	if raw, ok := present(m, "start"); ok {
		in.Start = optionalBoundary("start", raw)
	}
	if raw, ok := present(m, "end"); ok {
		in.End = optionalBoundary("end", raw)
	}
	if raw, ok := present(m, "duration"); ok {
		d, err := decodeDuration(raw)
		if err != nil {
			slog.Debug("ignoring duration", "error", err)
		} else {
			in.Duration = &d
		}
	}
	return in, nil
}

func optionalBoundary(field string, raw any) *TimeBoundary {
	b, err := decodeBoundary(raw)
	if err != nil {
		slog.Debug("ignoring boundary", "field", field, "error", err)
		return nil
	}
	return b
}

func decodeBoundary(v any) (*TimeBoundary, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	var b TimeBoundary
	for key, dst := range map[string]**int64{"min": &b.Min, "target": &b.Target, "max": &b.Max} {
		raw, ok := present(m, key)
		if !ok {
			continue
		}
		n, ok := ir.Int64Of(raw)
		if !ok {
			return nil, fmt.Errorf("%s: expected integer, got %v", key, raw)
		}
		*dst = Int64(n)
	}
	return &b, nil
}

func decodeDuration(v any) (DurationInput, error) {
	m, err := requireKeys(v, "target")
	if err != nil {
		return DurationInput{}, err
	}
	target, ok := ir.Int64Of(m["target"])
	if !ok {
		return DurationInput{}, fmt.Errorf("target: expected integer, got %v", m["target"])
	}
	d := DurationInput{Target: target}
	if raw, ok := present(m, "min"); ok {
		least, ok := ir.Int64Of(raw)
		if !ok {
			return DurationInput{}, fmt.Errorf("min: expected integer, got %v", raw)
		}
		d.Min = Int64(least)
	}
	return d, nil
}

type rawLink struct {
	QueryID     int64  `mapstructure:"queryId"`
	PotentialID int64  `mapstructure:"potentialId"`
	SplitID     *int64 `mapstructure:"splitId"`
	Origin      string `mapstructure:"origin"`
}

func sanitizeLinks(v any) []QueryLink {
	var links []QueryLink
	for i, entry := range listOf(v) {
		l, err := decodeLink(entry)
		if err != nil {
			slog.Debug("dropping link", "index", i, "error", err)
			continue
		}
		links = append(links, l)
	}
	return links
}

func decodeLink(entry any) (QueryLink, error) {
	m, err := requireKeys(entry, "queryId", "potentialId", "distance", "origin")
	if err != nil {
		return QueryLink{}, err
	}
	var rl rawLink
	if err := decodeInto(m, &rl); err != nil {
		return QueryLink{}, err
	}
	origin := LinkOrigin(rl.Origin)
	if origin != OriginStart && origin != OriginEnd {
		return QueryLink{}, fmt.Errorf("unknown origin %q", rl.Origin)
	}
	distance, err := decodeBoundary(m["distance"])
	if err != nil {
		return QueryLink{}, fmt.Errorf("distance: %w", err)
	}
	return QueryLink{
		QueryID:     rl.QueryID,
		PotentialID: rl.PotentialID,
		SplitID:     rl.SplitID,
		Distance:    *distance,
		Origin:      origin,
	}, nil
}

type rawGoal struct {
	Kind int64 `mapstructure:"kind"`
	Time int64 `mapstructure:"time"`
}

func sanitizeGoal(v any) *Goal {
	if v == nil {
		return nil
	}
	g, err := decodeGoal(v)
	if err != nil {
		slog.Debug("dropping goal", "error", err)
		return nil
	}
	return g
}

func decodeGoal(v any) (*Goal, error) {
	m, err := requireKeys(v, "kind", "quantity", "time")
	if err != nil {
		return nil, err
	}
	var rg rawGoal
	if err := decodeInto(m, &rg); err != nil {
		return nil, err
	}
	kind := GoalKind(rg.Kind)
	if kind != GoalAtomic && kind != GoalSplittable {
		return nil, fmt.Errorf("unknown goal kind %d", rg.Kind)
	}
	quantity, err := decodeDuration(m["quantity"])
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}
	least := quantity.Target
	if quantity.Min != nil {
		least = *quantity.Min
	}
	return &Goal{
		Kind:     kind,
		Quantity: TimeDuration{Min: least, Target: quantity.Target},
		Time:     rg.Time,
	}, nil
}

type rawChunk struct {
	QueryID    int64  `mapstructure:"queryId"`
	MaterialID *int64 `mapstructure:"materialId"`
	SplitID    *int64 `mapstructure:"splitId"`
}

// sanitizeProvide accepts a bare query id or a chunk object.
func sanitizeProvide(v any) *ChunkRef {
	if v == nil {
		return nil
	}
	if n, ok := ir.Int64Of(v); ok {
		return &ChunkRef{QueryID: n}
	}
	m, err := requireKeys(v, "queryId")
	if err != nil {
		slog.Debug("dropping provide", "error", err)
		return nil
	}
	var rc rawChunk
	if err := decodeInto(m, &rc); err != nil {
		slog.Debug("dropping provide", "error", err)
		return nil
	}
	return &ChunkRef{QueryID: rc.QueryID, MaterialID: rc.MaterialID, SplitID: rc.SplitID}
}
