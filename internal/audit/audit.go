// Package audit keeps the append-only commit log: one CSV row per
// batch the engine submitted, successful or not. The log lives beside
// the books so it travels with them.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one row in the commit log.
type Entry struct {
	Timestamp time.Time
	Operation string
	BatchID   string
	ProjectID string
	Items     int
	Amount    decimal.Decimal
	Outcome   string
}

// Header is the CSV header for commit-log.csv.
const Header = "timestamp,operation,batch_id,project_id,items,amount,outcome"

const (
	numFields    = 7
	logDir       = "logs"
	logFile      = "logs/commit-log.csv"
	colTimestamp = 0
	colOperation = 1
	colBatchID   = 2
	colProjectID = 3
	colItems     = 4
	colAmount    = 5
	colOutcome   = 6
)

// Outcome values.
const (
	OutcomeCommitted = "committed"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colOperation] = e.Operation
	row[colBatchID] = e.BatchID
	row[colProjectID] = e.ProjectID
	row[colItems] = strconv.Itoa(e.Items)
	row[colAmount] = e.Amount.StringFixed(2)
	row[colOutcome] = e.Outcome
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	items, err := strconv.Atoi(record[colItems])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing items %q: %w", record[colItems], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp: ts,
		Operation: record[colOperation],
		BatchID:   record[colBatchID],
		ProjectID: record[colProjectID],
		Items:     items,
		Amount:    amount,
		Outcome:   record[colOutcome],
	}, nil
}

// Append writes entries to <root>/logs/commit-log.csv, creating the
// file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening commit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/commit-log.csv. Returns an
// empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening commit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading commit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
