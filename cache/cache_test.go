// ABOUTME: Tests for the single-flight TTL cache
// ABOUTME: Covers key hashing, resolver collapsing, and store failure fallback
package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	getErr  error
	setErr  error
	getHits int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string][]byte{}}
}

func (m *memoryStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getHits++
	if m.getErr != nil {
		return nil, m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}

func (m *memoryStore) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memoryStore) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string][]byte{}
	return nil
}

func (m *memoryStore) Close() error { return nil }

func TestKeyIsStableHex(t *testing.T) {
	a := Key("contact-token-1")
	b := Key("contact-token-1")
	c := Key("contact-token-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestEnsureValueResolvesOnceAndCaches(t *testing.T) {
	store := newMemoryStore()
	c := New(store, nil)

	var calls int32
	resolver := func() ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("payload"), nil
	}

	value, err := c.EnsureValue("k", time.Minute, resolver)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)

	// Second call hits the store, not the resolver.
	value, err = c.EnsureValue("k", time.Minute, resolver)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEnsureValueCollapsesConcurrentCalls(t *testing.T) {
	store := newMemoryStore()
	c := New(store, nil)

	release := make(chan struct{})
	var calls int32
	resolver := func() ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("shared"), nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([][]byte, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, err := c.EnsureValue("k", time.Minute, resolver)
			assert.NoError(t, err)
			results[i] = value
		}(i)
	}

	// Give all goroutines a chance to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, value := range results {
		assert.Equal(t, []byte("shared"), value)
	}
}

func TestEnsureValueDegradesOnStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("disk gone")
	store.setErr = errors.New("disk gone")
	c := New(store, nil)

	var calls int32
	resolver := func() ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("fresh"), nil
	}

	value, err := c.EnsureValue("k", time.Minute, resolver)
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), value)

	// Broken store means every call resolves again.
	_, err = c.EnsureValue("k", time.Minute, resolver)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEnsureValueResolverFailure(t *testing.T) {
	store := newMemoryStore()
	c := New(store, nil)

	wantErr := errors.New("upstream down")
	_, err := c.EnsureValue("k", time.Minute, func() ([]byte, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// A failed resolution leaves nothing cached.
	value, err := c.EnsureValue("k", time.Minute, func() ([]byte, error) {
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), value)
}

func TestFlush(t *testing.T) {
	store := newMemoryStore()
	c := New(store, nil)

	_, err := c.EnsureValue("k", time.Minute, func() ([]byte, error) {
		return []byte("v"), nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Flush())

	var calls int32
	_, err = c.EnsureValue("k", time.Minute, func() ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v2"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
