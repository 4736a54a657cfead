package store

import (
	"fmt"
	"sync"

	"github.com/astracat-dns/authdns/internal/record"
)

// MapStore is a basic in-memory Store, the same shape as the teacher's
// SimpleCache: a mutex-guarded map keyed by a formatted string. It backs
// local development and the handler's test suite, standing in for the
// LMDB-backed production store without requiring an on-disk environment.
type MapStore struct {
	mu      sync.RWMutex
	records map[string]record.StoreRecord
}

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{records: make(map[string]record.StoreRecord)}
}

// Put inserts or replaces a record at (zone, name, kind).
func (m *MapStore) Put(zone, name string, kind record.Type, rec record.StoreRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.key(zone, name, kind)] = rec
}

// Get implements Store.
func (m *MapStore) Get(zone, name string, kind record.Type) (record.StoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, found := m.records[m.key(zone, name, kind)]
	if !found {
		return record.StoreRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MapStore) key(zone, name string, kind record.Type) string {
	return fmt.Sprintf("%s:%s:%s", zone, name, kind)
}
