package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSDFormatting(t *testing.T) {
	assert.Equal(t, "$1,234.56", FromFloat(1234.56).USD())
	assert.Equal(t, "$0.00", Zero().USD())
	assert.Equal(t, "$10,000.00", FromInt(10000).USD())
	assert.Equal(t, "$0.99", FromFloat(0.99).USD())
}

func TestArithmetic(t *testing.T) {
	balance := FromInt(10000)
	cost := FromFloat(100).MulInt(10)

	assert.Equal(t, "1000.00", cost.String())
	assert.Equal(t, "9000.00", balance.Sub(cost).String())
	assert.Equal(t, "11000.00", balance.Add(cost).String())

	assert.True(t, FromFloat(99.99).LessThan(FromInt(100)))
	assert.False(t, FromInt(100).LessThan(FromInt(100)))
	assert.True(t, Zero().Sub(FromInt(1)).IsNegative())
}

func TestMulIntAvoidsFloatDrift(t *testing.T) {
	// 0.1 * 3 is not representable exactly in binary floating point.
	assert.Equal(t, "0.30", FromFloat(0.1).MulInt(3).String())
}

func TestScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("123.45"))
	assert.True(t, a.Equal(FromFloat(123.45)))

	require.NoError(t, a.Scan([]byte("9000.00")))
	assert.True(t, a.Equal(FromInt(9000)))

	require.NoError(t, a.Scan(float64(10.5)))
	assert.True(t, a.Equal(FromFloat(10.5)))
}

func TestJSONRoundTrip(t *testing.T) {
	out, err := json.Marshal(FromFloat(9000))
	require.NoError(t, err)
	assert.Equal(t, "9000.00", string(out))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte("250.5"), &a))
	assert.True(t, a.Equal(FromFloat(250.5)))

	require.NoError(t, json.Unmarshal([]byte(`"42.00"`), &a))
	assert.True(t, a.Equal(FromInt(42)))
}
