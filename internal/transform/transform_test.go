package transform_test

import (
	"testing"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMilliToUnit(t *testing.T) {
	got, err := transform.Apply("value/1000", 45000)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, got, 1e-9)
}

func TestApplyIdentity(t *testing.T) {
	got, err := transform.Apply("", 37.5)
	require.NoError(t, err)
	assert.InDelta(t, 37.5, got, 1e-9)

	got, err = transform.Apply("   ", 37.5)
	require.NoError(t, err)
	assert.InDelta(t, 37.5, got, 1e-9)
}

func TestApplyArithmetic(t *testing.T) {
	cases := map[string]struct {
		expr  string
		value float64
		want  float64
	}{
		"precedence":        {"value * 2 + 10", 5, 20},
		"parentheses":       {"(value + 2) * 10", 5, 70},
		"unary minus":       {"-value", 3, -3},
		"celsius to fahr":   {"value * 9 / 5 + 32", 100, 212},
		"modulo":            {"value % 7", 10, 3},
		"power right assoc": {"value ^ 2 ^ 3", 2, 256},
		"float literal":     {"value * 0.5", 9, 4.5},
		"exponent notation": {"value / 1e3", 45000, 45},
	}

	for name, tc := range cases {
		got, err := transform.Apply(tc.expr, tc.value)
		require.NoError(t, err, name)
		assert.InDelta(t, tc.want, got, 1e-9, name)
	}
}

func TestParseReusableExpr(t *testing.T) {
	expr, err := transform.Parse("value / 1000")
	require.NoError(t, err)

	for _, raw := range []float64{45000, 61000, 0} {
		got, err := expr.Eval(raw)
		require.NoError(t, err)
		assert.InDelta(t, raw/1000, got, 1e-9)
	}
}

func TestParseRejectsUnknownVariable(t *testing.T) {
	_, err := transform.Parse("temp / 1000")
	require.Error(t, err)
	assert.Equal(t, transform.ErrUnknownVariable, errors.CodeOf(err))
}

func TestParseRejectsInvalidSyntax(t *testing.T) {
	for _, expr := range []string{"value +", "(value", "value value", "1..2", "value $ 2"} {
		_, err := transform.Parse(expr)
		require.Error(t, err, expr)
		assert.Equal(t, transform.ErrParseFailed, errors.CodeOf(err), expr)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := transform.Apply("value / 0", 5)
	require.Error(t, err)
	assert.Equal(t, transform.ErrEvalFailed, errors.CodeOf(err))

	_, err = transform.Apply("value % 0", 5)
	require.Error(t, err)
	assert.Equal(t, transform.ErrEvalFailed, errors.CodeOf(err))
}
