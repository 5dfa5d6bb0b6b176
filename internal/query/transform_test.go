package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AutoScheduleJS/queries-fn/internal/ir"
)

func TestNewTransformationDeletesKeepNeedOrder(t *testing.T) {
	tr := NewTransformation(
		[]Need{
			{CollectionName: "c", Ref: "z", Find: ir.IRObject{}},
			{CollectionName: "c", Ref: "a", Find: ir.IRObject{}},
			{CollectionName: "c", Ref: "m", Find: ir.IRObject{}},
		},
		[]Update{{Ref: "a"}},
		nil,
	)
	assert.Equal(t, []string{"z", "m"}, tr.Deletes)
}

func TestNewTransformationKeepsQuantities(t *testing.T) {
	tr := NewTransformation(
		[]Need{{CollectionName: "c", Ref: "a", Find: ir.IRObject{}}, {CollectionName: "c", Ref: "b", Find: ir.IRObject{}, Quantity: 4}},
		nil,
		[]Insert{{CollectionName: "c", Doc: ir.IRObject{}, Quantity: 2}},
	)
	assert.Equal(t, int64(0), tr.Needs[0].Quantity)
	assert.Equal(t, int64(4), tr.Needs[1].Quantity)
	assert.Equal(t, int64(2), tr.Inserts[0].Quantity)
}

func TestNewTransformationDefaultsPayloads(t *testing.T) {
	tr := NewTransformation(
		[]Need{{CollectionName: "c", Ref: "a"}, {CollectionName: "c", Ref: "b", Find: ir.IRNull{}}},
		nil,
		[]Insert{{CollectionName: "c"}},
	)
	assert.Equal(t, ir.IRObject{}, tr.Needs[0].Find)
	assert.Equal(t, ir.IRObject{}, tr.Needs[1].Find)
	assert.Equal(t, ir.IRObject{}, tr.Inserts[0].Doc)
	assert.Equal(t, []string{"a", "b"}, tr.Deletes)
}

func TestNormalizeTransformsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"not an object", "needs"},
		{"no keys", map[string]any{}},
		{"null keys", map[string]any{"needs": nil, "updates": nil, "inserts": nil}},
		{"unrelated keys", map[string]any{"deletes": []any{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, normalizeTransforms(tt.raw))
		})
	}
}

func TestNormalizeTransformsFiltersMalformed(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"needs": []any{
			map[string]any{},
			map[string]any{"collectionName": "c", "find": nil, "ref": "a"},
			"not an object",
			map[string]any{"collectionName": "c", "find": map[string]any{"done": false}, "ref": "ok"},
		},
		"updates": []any{
			map[string]any{},
			map[string]any{"ref": "ref"},
			map[string]any{"ref": "ok", "update": map[string]any{}},
		},
		"inserts": []any{
			map[string]any{},
			map[string]any{"collectionName": "test", "doc": map[string]any{}},
		},
	})
	require.NotNil(t, tr)

	require.Len(t, tr.Needs, 1)
	assert.Equal(t, "ok", tr.Needs[0].Ref)
	assert.Equal(t, ir.IRObject{"done": ir.IRBool(false)}, tr.Needs[0].Find)

	require.Len(t, tr.Updates, 1)
	assert.Equal(t, "ok", tr.Updates[0].Ref)
	assert.Empty(t, tr.Updates[0].Update, "non-list update payload becomes empty")
	assert.NotNil(t, tr.Updates[0].Update)

	require.Len(t, tr.Inserts, 1)
	assert.Equal(t, int64(1), tr.Inserts[0].Quantity)
	assert.Empty(t, tr.Deletes)
}

func TestNormalizeTransformsOnlyOneList(t *testing.T) {
	tr := normalizeTransforms(map[string]any{"inserts": []any{}})
	require.NotNil(t, tr)

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"needs":[],"updates":[],"inserts":[],"deletes":[]}`, string(data))
}

func TestNormalizeTransformsWeakTyping(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"needs": []any{
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": 5, "quantity": "3"},
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "f", "quantity": json.Number("2")},
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "g", "quantity": 2.0},
		},
	})
	require.NotNil(t, tr)
	require.Len(t, tr.Needs, 3)
	assert.Equal(t, "5", tr.Needs[0].Ref)
	assert.Equal(t, int64(3), tr.Needs[0].Quantity)
	assert.Equal(t, int64(2), tr.Needs[1].Quantity)
	assert.Equal(t, int64(2), tr.Needs[2].Quantity)
}

func TestNormalizeTransformsFractionalQuantity(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"needs": []any{
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "a", "quantity": 2.5},
		},
	})
	require.NotNil(t, tr)
	assert.Empty(t, tr.Needs)
}

func TestNormalizeTransformsOpaquePayloadNumbers(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"needs": []any{
			map[string]any{"collectionName": "shop", "find": map[string]any{"price": map[string]any{"$lt": json.Number("9.99")}}, "ref": "a"},
			map[string]any{"collectionName": "shop", "find": map[string]any{"big": json.Number("1e20")}, "ref": "b"},
		},
		"updates": []any{
			map[string]any{"ref": "a", "update": []any{map[string]any{"property": "discount", "value": json.Number("0.5")}}},
		},
		"inserts": []any{
			map[string]any{"collectionName": "parcels", "doc": map[string]any{"weight": 1.5}},
		},
	})
	require.NotNil(t, tr)

	require.Len(t, tr.Needs, 2)
	assert.Equal(t, ir.IRObject{"price": ir.IRObject{"$lt": ir.IRNumber("9.99")}}, tr.Needs[0].Find)
	assert.Equal(t, ir.IRObject{"big": ir.IRNumber("100000000000000000000")}, tr.Needs[1].Find)
	require.Len(t, tr.Updates, 1)
	require.Len(t, tr.Updates[0].Update, 1)
	assert.Equal(t, ir.IRNumber("0.5"), tr.Updates[0].Update[0].Value)
	require.Len(t, tr.Inserts, 1)
	assert.Equal(t, ir.IRObject{"weight": ir.IRNumber("1.5")}, tr.Inserts[0].Doc)
	assert.Equal(t, []string{"b"}, tr.Deletes)
}

func TestNormalizeTransformsQuantityPresence(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"needs": []any{
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "a"},
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "b", "quantity": nil},
			map[string]any{"collectionName": "c", "find": map[string]any{}, "ref": "z", "quantity": 0},
		},
		"inserts": []any{
			map[string]any{"collectionName": "c", "doc": map[string]any{}, "quantity": json.Number("0")},
		},
	})
	require.NotNil(t, tr)
	require.Len(t, tr.Needs, 3)
	assert.Equal(t, DefaultQuantity, tr.Needs[0].Quantity)
	assert.Equal(t, DefaultQuantity, tr.Needs[1].Quantity)
	assert.Equal(t, int64(0), tr.Needs[2].Quantity)
	assert.Equal(t, int64(0), tr.Inserts[0].Quantity)
}

func TestNormalizeTransformsUpdateObjects(t *testing.T) {
	tr := normalizeTransforms(map[string]any{
		"updates": []any{
			map[string]any{
				"ref":  "a",
				"wait": true,
				"update": []any{
					map[string]any{"property": "tags", "value": "x", "arrayMethod": "Push"},
					map[string]any{"property": "owner", "value": nil},
					map[string]any{"property": "count"},
					map[string]any{"property": "tags", "value": "y", "arrayMethod": "Shuffle"},
					map[string]any{"value": 3},
				},
			},
		},
	})
	require.NotNil(t, tr)
	require.Len(t, tr.Updates, 1)
	u := tr.Updates[0]
	require.NotNil(t, u.Wait)
	assert.True(t, *u.Wait)
	require.Len(t, u.Update, 3)

	assert.Equal(t, ir.IRString("x"), u.Update[0].Value)
	require.NotNil(t, u.Update[0].ArrayMethod)
	assert.Equal(t, ArrayPush, *u.Update[0].ArrayMethod)

	assert.Equal(t, ir.IRNull{}, u.Update[1].Value, "explicit null is kept")
	assert.Nil(t, u.Update[2].Value, "missing value stays absent")
}
