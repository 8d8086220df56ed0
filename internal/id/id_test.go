package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"8f14e45f-ceea-4e12-9a7b-1c0d8e2f3a4b", "8f14e45f"},
		{"abcdefghij", "abcdefgh"},
		{"short", "short"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Short(tt.input))
	}
}

func TestFormatBatchID(t *testing.T) {
	tests := []struct {
		year, seq int
		want      string
	}{
		{2026, 1, "2026-B001"},
		{2026, 99, "2026-B099"},
		{2027, 123, "2027-B123"},
	}
	for _, tt := range tests {
		got := FormatBatchID(tt.year, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatCycleLabel(t *testing.T) {
	assert.Equal(t, "2026-C01", FormatCycleLabel(2026, 1))
	assert.Equal(t, "2026-C12", FormatCycleLabel(2026, 12))
}

func TestParseBatchID(t *testing.T) {
	tests := []struct {
		input    string
		wantYear int
		wantSeq  int
	}{
		{"2026-B001", 2026, 1},
		{"2026-B099", 2026, 99},
		{"2027-B123", 2027, 123},
	}
	for _, tt := range tests {
		year, seq, err := ParseBatchID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseBatchID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"2026-001",
		"xxxx-B001",
		"2026-Bxyz",
	}
	for _, input := range badInputs {
		_, _, err := ParseBatchID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestNextBatchSeq(t *testing.T) {
	existing := []string{"2026-B001", "2026-B007", "2025-B042", "garbage"}

	assert.Equal(t, 8, NextBatchSeq(existing, 2026))
	assert.Equal(t, 43, NextBatchSeq(existing, 2025))
	assert.Equal(t, 1, NextBatchSeq(existing, 2027))
	assert.Equal(t, 1, NextBatchSeq(nil, 2026))
}
