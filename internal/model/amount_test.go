package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10", "10"},
		{"10.5", "10.5"},
		{"10.50", "10.5"},
		{"0.01", "0.01"},
		{"1234567.89", "1234567.89"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "input %q", tt.input)
	}
}

func TestParseAmount_Rejections(t *testing.T) {
	for _, input := range []string{"", "abc", "0", "-5", "0.001", "10.005"} {
		_, err := ParseAmount(input)
		require.Error(t, err, "input %q", input)

		var invalid *InvalidAmountError
		assert.ErrorAs(t, err, &invalid, "input %q", input)
	}
}

func TestCheckAmount(t *testing.T) {
	assert.NoError(t, CheckAmount(decimal.RequireFromString("25.10")))
	assert.Error(t, CheckAmount(decimal.Zero))
	assert.Error(t, CheckAmount(decimal.RequireFromString("-0.01")))
	assert.Error(t, CheckAmount(decimal.RequireFromString("3.141")))
}
