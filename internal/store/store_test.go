package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astracat-dns/authdns/internal/record"
)

func TestMapStoreGetMiss(t *testing.T) {
	m := NewMapStore()
	_, err := m.Get("example.com.", "www@", record.A)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMapStoreGetHit(t *testing.T) {
	m := NewMapStore()
	m.Put("example.com.", "www@", record.A, record.StoreRecord{
		Kind:   record.A,
		Values: []record.Value{"1.2.3.4"},
	})

	rec, err := m.Get("example.com.", "www@", record.A)
	require.NoError(t, err)
	assert.Equal(t, record.A, rec.Kind)
	assert.Equal(t, []record.Value{"1.2.3.4"}, rec.Values)
}

func TestCachedStoreServesFromCacheOnSecondCall(t *testing.T) {
	backing := &countingStore{MapStore: NewMapStore()}
	backing.Put("example.com.", "www@", record.A, record.StoreRecord{
		Kind: record.A, Values: []record.Value{"1.2.3.4"},
	})

	cached, err := NewCachedStore(backing, 1000)
	require.NoError(t, err)

	_, err = cached.Get("example.com.", "www@", record.A)
	require.NoError(t, err)
	cached.cache.Wait()

	_, err = cached.Get("example.com.", "www@", record.A)
	require.NoError(t, err)

	assert.Equal(t, 1, backing.calls)
}

func TestCachedStoreCachesNegativeLookups(t *testing.T) {
	backing := &countingStore{MapStore: NewMapStore()}

	cached, err := NewCachedStore(backing, 1000)
	require.NoError(t, err)

	_, err = cached.Get("example.com.", "nope@", record.A)
	assert.ErrorIs(t, err, ErrNotFound)
	cached.cache.Wait()

	_, err = cached.Get("example.com.", "nope@", record.A)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, backing.calls)
}

func TestCachedStoreNeverCachesBackendErrors(t *testing.T) {
	backing := &erroringStore{}
	cached, err := NewCachedStore(backing, 1000)
	require.NoError(t, err)

	_, err = cached.Get("example.com.", "www@", record.A)
	assert.True(t, errors.Is(err, ErrBackend))

	_, err = cached.Get("example.com.", "www@", record.A)
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Equal(t, 2, backing.calls)
}

type countingStore struct {
	*MapStore
	calls int
}

func (c *countingStore) Get(zone, name string, kind record.Type) (record.StoreRecord, error) {
	c.calls++
	return c.MapStore.Get(zone, name, kind)
}

type erroringStore struct {
	calls int
}

func (e *erroringStore) Get(zone, name string, kind record.Type) (record.StoreRecord, error) {
	e.calls++
	return record.StoreRecord{}, ErrBackend
}
