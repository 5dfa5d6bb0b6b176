package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCUEBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		query: standup: {
			id:   3
			name: "standup"
			position: {
				start: target: 540
				end: target:   555
			}
			transforms: needs: [{
				collectionName: "rooms"
				find: {floor: 2, free: true}
				ref: "room"
			}]
			links: []
			note: null
		}
	`)
	require.NoError(t, v.Err())

	raw, err := CompileCUE(v.LookupPath(cue.ParsePath("query.standup")))
	require.NoError(t, err)

	assert.Equal(t, int64(3), raw["id"])
	assert.Equal(t, "standup", raw["name"])
	assert.Equal(t, map[string]any{
		"start": map[string]any{"target": int64(540)},
		"end":   map[string]any{"target": int64(555)},
	}, raw["position"])
	assert.Equal(t, []any{}, raw["links"])
	assert.Contains(t, raw, "note")
	assert.Nil(t, raw["note"])

	needs := raw["transforms"].(map[string]any)["needs"].([]any)
	require.Len(t, needs, 1)
	assert.Equal(t, map[string]any{"floor": int64(2), "free": true}, needs[0].(map[string]any)["find"])
}

func TestCompileCUEIntegralFloat(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`q: {id: 2.0}`)
	require.NoError(t, v.Err())

	raw, err := CompileCUE(v.LookupPath(cue.ParsePath("q")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), raw["id"])
}

func TestCompileCUEKeepsFractions(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`q: {transforms: needs: [{collectionName: "shop", ref: "a", find: {price: 9.99}}]}`)
	require.NoError(t, v.Err())

	raw, err := CompileCUE(v.LookupPath(cue.ParsePath("q")))
	require.NoError(t, err)

	needs := raw["transforms"].(map[string]any)["needs"].([]any)
	assert.Equal(t, map[string]any{"price": 9.99}, needs[0].(map[string]any)["find"])
}

func TestCompileCUERejectsIncomplete(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`q: {id: int}`)
	require.NoError(t, v.Err())

	_, err := CompileCUE(v.LookupPath(cue.ParsePath("q")))
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "id", compileErr.Field)
	assert.Contains(t, compileErr.Message, "concrete")
}

func TestCompileCUERequiresStruct(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`q: [1, 2]`)
	require.NoError(t, v.Err())

	_, err := CompileCUE(v.LookupPath(cue.ParsePath("q")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "struct")
}

func TestCompileErrorString(t *testing.T) {
	e := &CompileError{Field: "id", Message: "bad"}
	assert.Equal(t, "id: bad", e.Error())
}
