package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random identifier for a ledger row.
func New() string {
	return uuid.NewString()
}

// Short returns a display-friendly prefix of a row identifier.
// "8f14e45f-ceea-4e12-9a7b-1c0d8e2f3a4b" -> "8f14e45f"
func Short(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatBatchID returns a batch ID like "2026-B003".
func FormatBatchID(year, seq int) string {
	return fmt.Sprintf("%04d-B%03d", year, seq)
}

// FormatCycleLabel returns a distribution cycle label like "2026-C01".
// The label rides along in transaction descriptions.
func FormatCycleLabel(year, seq int) string {
	return fmt.Sprintf("%04d-C%02d", year, seq)
}

// ParseBatchID parses "2026-B003" into year and seq.
func ParseBatchID(id string) (year, seq int, err error) {
	parts := strings.SplitN(id, "-B", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid batch ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in batch ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sequence in batch ID %q: %w", id, err)
	}

	return year, seq, nil
}

// NextBatchSeq scans existing batch IDs and returns the next free
// sequence number for the given year. IDs that do not parse are
// ignored; the first batch of a year is 1.
func NextBatchSeq(existing []string, year int) int {
	max := 0
	for _, id := range existing {
		y, seq, err := ParseBatchID(id)
		if err != nil || y != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max + 1
}
