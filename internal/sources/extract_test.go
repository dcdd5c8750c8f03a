package sources

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	var root any
	require.NoError(t, dec.Decode(&root))
	return root
}

func TestValueAtPath(t *testing.T) {
	root := decode(t, `{
		"result": {"total_paid": "12.5"},
		"payments": [{"amount": 1}, {"amount": 2}],
		"flat": 7
	}`)

	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{name: "nested", path: "result.total_paid", want: "12.5", ok: true},
		{name: "array index", path: "payments[1].amount", want: "2", ok: true},
		{name: "top level", path: "flat", want: "7", ok: true},
		{name: "missing key", path: "result.paid", ok: false},
		{name: "index out of range", path: "payments[5].amount", ok: false},
		{name: "index into object", path: "result[0]", ok: false},
		{name: "empty path", path: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := valueAtPath(root, tc.path)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			d, err := toDecimal(v)
			require.NoError(t, err)
			assert.True(t, d.Equal(decimal.RequireFromString(tc.want)), "got %s", d)
		})
	}
}

func TestToDecimal(t *testing.T) {
	d, err := toDecimal(json.Number("0.000000001"))
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.New(1, -9)))

	d, err = toDecimal("  42.5 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("42.5")))

	d, err = toDecimal(nil)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = toDecimal("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = toDecimal("not-a-number")
	assert.Error(t, err)

	_, err = toDecimal(map[string]any{})
	assert.Error(t, err)
}

func TestFirstCandidateOrder(t *testing.T) {
	root := decode(t, `{"a": "1", "b": "2"}`)

	d, ok := firstCandidate(root, []string{"missing", "b", "a"})
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("2")), "first resolving path wins")

	_, ok = firstCandidate(root, []string{"missing", "also.missing"})
	assert.False(t, ok)
}
