package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"395", "395 ₽"},
		{"395.00", "395 ₽"},
		{"395.5", "395.50 ₽"},
		{"0", "0 ₽"},
		{"1234.567", "1234.57 ₽"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Format(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestLineTotalAndSum(t *testing.T) {
	price := decimal.RequireFromString("395.50")
	line := LineTotal(price, 3)
	assert.True(t, line.Equal(decimal.RequireFromString("1186.50")))

	total := Sum(line, decimal.NewFromInt(500))
	assert.True(t, total.Equal(decimal.RequireFromString("1686.50")))
	assert.True(t, Sum().IsZero())
}

func TestParse(t *testing.T) {
	for in, want := range map[string]string{
		"400":     "400",
		" 400.5 ": "400.5",
		"400,50":  "400.50",
		"450 ₽":   "450",
	} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), in)
	}

	_, err := Parse("cheap")
	assert.Error(t, err)
}

func TestDecimalAcceptsNumberAndString(t *testing.T) {
	var v struct {
		A decimal.Decimal `json:"a"`
		B decimal.Decimal `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":395,"b":"395.00"}`), &v))
	assert.True(t, v.A.Equal(v.B))
}
