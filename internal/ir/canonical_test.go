package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"null", IRNull{}, "null"},
		{"nil", nil, "null"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"plain map", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{"plain slice", []any{int64(1), "two", true}, `[1,"two",true]`},
		{"json number", json.Number("7"), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := IRObject{
		"position": IRObject{
			"target": IRInt(2),
			"min":    IRInt(1),
		},
		"id": IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"position":{"min":1,"target":2}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as surrogates (0xD83D...) and sorts before U+E000 in UTF-16, the reverse of UTF-8 order.
	obj := IRObject{
		"\U0001F600": IRInt(1),
		"\uE000":     IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uE000\":2}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRObject{"filter": IRString("a < b && c > d")})
	require.NoError(t, err)

	assert.Equal(t, `{"filter":"a < b && c > d"}`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"fraction", 1.5, "1.5"},
		{"trailing zeros", json.Number("2.250"), "2.25"},
		{"nested", map[string]any{"ratio": 0.1}, `{"ratio":0.1}`},
		{"negative", -0.5, "-0.5"},
		{"beyond int64", json.Number("1e20"), "100000000000000000000"},
		{"exponent form", json.Number("1e21"), "1e+21"},
		{"small", 1e-7, "1e-7"},
		{"smallest plain", 0.000001, "0.000001"},
		{"shortest round trip", json.Number("9.990000000000000213"), "9.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, input := range []any{math.NaN(), math.Inf(-1), json.Number("1e400")} {
		_, err := MarshalCanonical(input)
		assert.Error(t, err, "%v", input)
	}
}

func TestMarshalCanonicalAcceptsIntegralFloats(t *testing.T) {
	// encoding/json without UseNumber decodes every number as float64.
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":3,"ref":"a"}`), &doc))

	result, err := MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"quantity":3,"ref":"a"}`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	result1, err := MarshalCanonical(IRObject{composed: IRString(composed)})
	require.NoError(t, err)
	result2, err := MarshalCanonical(IRObject{decomposed: IRString(decomposed)})
	require.NoError(t, err)

	assert.Equal(t, result1, result2)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"U+2028", "hello\u2028world", "\"hello\u2028world\""},
		{"U+2029", "hello\u2029world", "\"hello\u2029world\""},
		{"literal escape text", `seq \u2028`, `"seq \\u2028"`},
		{"mixed", "literal \\u2028 and actual \u2028", "\"literal \\\\u2028 and actual \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	obj := IRObject{
		"needs": IRArray{
			IRObject{"ref": IRString("a"), "find": IRObject{"status": IRString("free")}},
		},
		"deletes": IRArray{IRString("a")},
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal(first, &decoded))
	second, err := MarshalCanonical(decoded)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}
