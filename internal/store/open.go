package store

import (
	"fmt"
	"strings"
)

// Open returns the Ledger backend named by ref.
//
//	books                 CSV books in the ./books directory
//	file:path/to/books    same, with an explicit scheme
//	memory:               in-memory ledger, discarded on exit
//	postgres://...        PostgreSQL DSN
//	http://host:8373      remote equityflow service
//
// Backends that hold resources implement io.Closer; callers should
// close what they open.
func Open(ref string) (Ledger, error) {
	switch {
	case ref == "":
		return nil, fmt.Errorf("empty store ref")
	case ref == "memory" || strings.HasPrefix(ref, "memory:"):
		return NewMemory(), nil
	case strings.HasPrefix(ref, "postgres://"), strings.HasPrefix(ref, "postgresql://"):
		return OpenPostgres(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return OpenRemote(ref), nil
	case strings.HasPrefix(ref, "file:"):
		return OpenFile(strings.TrimPrefix(ref, "file:"))
	default:
		return OpenFile(ref)
	}
}
