// Package store implements the read-only external record store adapter
// described in spec §4.3/§6: a single Get operation keyed by
// (zone, name, type), backed by LMDB and fronted by a ristretto
// read-through cache.
package store

import (
	"errors"

	"github.com/astracat-dns/authdns/internal/record"
)

// ErrNotFound is a normal miss: the store has no record for this key. The
// handler treats it identically to ErrBackend -- both fall through to the
// next resolution layer.
var ErrNotFound = errors.New("store: record not found")

// ErrBackend wraps an underlying storage failure (I/O error, corrupt
// entry, unavailable backend). The handler logs it at warn and otherwise
// treats it exactly like ErrNotFound.
var ErrBackend = errors.New("store: backend error")

// Store is the read-only capability the handler consults for
// operator-managed records. Implementations must be safe for concurrent
// use by multiple request goroutines without external synchronization.
type Store interface {
	Get(zone, name string, kind record.Type) (record.StoreRecord, error)
}
