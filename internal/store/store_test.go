// ABOUTME: Tests for the memory and bolt stores
// ABOUTME: Verifies atomic batches, persistence across reopen, and not-found handling

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func runStoreContract(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Write(Batch{Set: map[string][]byte{
		"authToken": []byte("tok"),
		"userData":  []byte(`{"name":"Admin"}`),
	}}))

	v, err := s.Get("authToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", string(v))

	require.NoError(t, s.Write(Batch{
		Set:    map[string][]byte{"loginAttempts": []byte("0")},
		Delete: []string{"authToken", "userData", "never-set"},
	}))

	_, err = s.Get("authToken")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("userData")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = s.Get("loginAttempts")
	require.NoError(t, err)
	assert.Equal(t, "0", string(v))
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemory())
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Batch{Set: map[string][]byte{"k": []byte("abc")}}))

	v, err := m.Get("k")
	require.NoError(t, err)
	v[0] = 'z'

	again, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(Batch{Set: map[string][]byte{"authToken": []byte("persisted")}}))
	require.NoError(t, s.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get("authToken")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(v))
}

func TestBoltCloseTwice(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestBoltStoreSharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := OpenBolt(path)
	require.NoError(t, err)
	defer first.Close()

	start := time.Now()
	second, err := OpenBolt(path)
	require.NoError(t, err, "a second handle must open while the first is held")
	defer second.Close()
	assert.Less(t, time.Since(start), lockTimeout)

	require.NoError(t, first.Write(Batch{Set: map[string][]byte{"authToken": []byte("from-first")}}))
	v, err := second.Get("authToken")
	require.NoError(t, err)
	assert.Equal(t, "from-first", string(v))

	require.NoError(t, second.Write(Batch{Delete: []string{"authToken"}}))
	_, err = first.Get("authToken")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBoltClosedRejectsOperations(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get("authToken")
	assert.ErrorIs(t, err, bolt.ErrDatabaseNotOpen)
	assert.ErrorIs(t, s.Write(Batch{}), bolt.ErrDatabaseNotOpen)
}
