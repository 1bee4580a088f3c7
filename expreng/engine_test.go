package expreng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.Error(t, Validate("", nil), "empty expression must be rejected")

	long := make([]byte, maxExpressionLength+1)
	for i := range long {
		long[i] = '1'
	}
	assert.Error(t, Validate(string(long), nil), "over-length expression must be rejected")

	assert.Error(t, Validate("x +", []string{"x"}), "syntax error must be rejected")
	assert.Error(t, Validate("clamp(x, 1)", []string{"x"}), "wrong arity must be rejected")
	assert.NoError(t, Validate("clamp(x, 0, 10)", []string{"x"}))
}

func TestFunctions(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"avg(1, 2, 3)", 2},
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
		{"clamp(15, 0, 10)", 10},
		{"clamp(-5, 0, 10)", 0},
		{"scale(5, 0, 10, 0, 100)", 50},
		{"scale(5, 5, 5, 0, 100)", 0}, // degenerate input range returns outLo
		{"deadband(10, 10, 4)", 10},
		{"deadband(13, 10, 4)", 13},
		{"iff(1, 10, 20)", 10},
		{"iff(0, 10, 20)", 20},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			got, err := Test(c.expr, nil)
			require.NoError(t, err)
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
}

func TestCacheInvalidatesOnHashChange(t *testing.T) {
	cache := NewCache()
	env := map[string]any{"x": 10.0}

	out, err := cache.Eval("block-1", "x + 1", env)
	require.NoError(t, err)
	assert.Equal(t, 11.0, out)

	out, err = cache.Eval("block-1", "x + 2", env)
	require.NoError(t, err)
	assert.Equal(t, 12.0, out)
}

func TestCacheEvictOnFailureRecompiles(t *testing.T) {
	cache := NewCache()
	env := map[string]any{"x": 10.0}

	_, err := cache.Get("block-1", "x + 1", env)
	require.NoError(t, err)

	cache.Evict("block-1")

	out, err := cache.Eval("block-1", "x + 1", env)
	require.NoError(t, err)
	assert.Equal(t, 11.0, out)
}
