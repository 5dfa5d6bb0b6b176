package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTimeRestrictions(t *testing.T) {
	assert.Nil(t, NormalizeTimeRestrictions(nil))
	assert.Nil(t, NormalizeTimeRestrictions(&TimeRestrictions{}))

	in := &TimeRestrictions{Weekday: &TimeRestriction{Condition: OutRange, Ranges: []Range{{5, 6}}}}
	out := NormalizeTimeRestrictions(in)
	require.NotNil(t, out)
	assert.Equal(t, in.Weekday, out.Weekday)
	assert.Nil(t, out.Hour)
	assert.Nil(t, out.Month)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weekday":{"condition":1,"ranges":[[5,6]]}}`, string(data))
}

func TestNormalizeTimeRestrictionsKeepsRangesVerbatim(t *testing.T) {
	out := NormalizeTimeRestrictions(&TimeRestrictions{
		Hour: &TimeRestriction{Condition: InRange, Ranges: []Range{{20, 4}, {1, 2}, {1, 2}}},
	})
	assert.Equal(t, []Range{{20, 4}, {1, 2}, {1, 2}}, out.Hour.Ranges)
}

func TestTimeRestrictionsSlot(t *testing.T) {
	tr := &TimeRestrictions{Month: &TimeRestriction{Condition: InRange}}
	assert.Same(t, tr.Month, tr.Slot(RestrictionMonth))
	assert.Nil(t, tr.Slot(RestrictionHour))
	assert.Nil(t, tr.Slot("century"))

	var none *TimeRestrictions
	assert.Nil(t, none.Slot(RestrictionHour))
}

func TestNormalizeRawTimeRestrictions(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *TimeRestrictions
	}{
		{name: "nil", raw: nil, want: nil},
		{name: "all null", raw: map[string]any{"hour": nil, "weekday": nil, "month": nil}, want: nil},
		{
			name: "missing ranges",
			raw:  map[string]any{"month": map[string]any{"condition": 0}},
			want: &TimeRestrictions{Month: &TimeRestriction{Condition: InRange, Ranges: []Range{}}},
		},
		{
			name: "pairs decoded",
			raw: map[string]any{"hour": map[string]any{
				"condition": json.Number("1"),
				"ranges":    []any{[]any{8, 12}, []any{json.Number("13"), 17.0}},
			}},
			want: &TimeRestrictions{Hour: &TimeRestriction{Condition: OutRange, Ranges: []Range{{8, 12}, {13, 17}}}},
		},
		{
			name: "every slot filled",
			raw: map[string]any{
				"hour":    map[string]any{"condition": 0, "ranges": []any{[]any{8, 12}}},
				"weekday": map[string]any{"condition": 1, "ranges": []any{[]any{5, 6}}},
				"month":   map[string]any{"condition": 0, "ranges": []any{[]any{0, 2}}},
			},
			want: &TimeRestrictions{
				Hour:    &TimeRestriction{Condition: InRange, Ranges: []Range{{8, 12}}},
				Weekday: &TimeRestriction{Condition: OutRange, Ranges: []Range{{5, 6}}},
				Month:   &TimeRestriction{Condition: InRange, Ranges: []Range{{0, 2}}},
			},
		},
		{
			name: "malformed slots dropped",
			raw: map[string]any{
				"hour":    map[string]any{"condition": 7},
				"weekday": map[string]any{"condition": 0, "ranges": []any{[]any{1}}},
				"month":   "often",
			},
			want: nil,
		},
		{
			name: "one good slot survives",
			raw: map[string]any{
				"hour":    map[string]any{"ranges": []any{}},
				"weekday": map[string]any{"condition": 0, "ranges": []any{[]any{1, 5}}},
			},
			want: &TimeRestrictions{Weekday: &TimeRestriction{Condition: InRange, Ranges: []Range{{1, 5}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeRawTimeRestrictions(tt.raw))
		})
	}
}
