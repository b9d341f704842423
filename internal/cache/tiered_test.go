package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
)

// memStore is an in-memory stand-in for the shared tier.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
	gets    int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failing {
		return nil, errors.New("connection refused")
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("connection refused")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("connection refused")
	}
	delete(m.data, key)
	return nil
}

func (m *memStore) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("connection refused")
	}
	// The tests only use a trailing-star glob.
	prefix := pattern[:len(pattern)-1]
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.data, key)
		}
	}
	return nil
}

func newTestTiered(t *testing.T, shared cache.Store, p cache.TieredParams) *cache.Tiered {
	t.Helper()
	tc := cache.NewTieredWith(shared, zap.NewNop(), p)
	t.Cleanup(tc.Close)
	return tc
}

func TestTiered_SetThenGet(t *testing.T) {
	shared := newMemStore()
	tc := newTestTiered(t, shared, cache.TieredParams{})
	ctx := context.Background()

	tc.Set(ctx, "bol:pending", []byte(`["a"]`))

	got, err := tc.Get(ctx, "bol:pending")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a"]`), got)

	// Local tier answered; the shared store saw no read.
	assert.Zero(t, shared.gets)
}

func TestTiered_SharedHitRepopulatesLocal(t *testing.T) {
	shared := newMemStore()
	shared.data["bol:fulfilled"] = []byte(`["b"]`)
	tc := newTestTiered(t, shared, cache.TieredParams{})
	ctx := context.Background()

	got, err := tc.Get(ctx, "bol:fulfilled")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["b"]`), got)
	assert.Equal(t, 1, shared.gets)

	// Second read is served from the repopulated local tier.
	_, err = tc.Get(ctx, "bol:fulfilled")
	require.NoError(t, err)
	assert.Equal(t, 1, shared.gets)
}

func TestTiered_MissInBothTiers(t *testing.T) {
	tc := newTestTiered(t, newMemStore(), cache.TieredParams{})

	_, err := tc.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestTiered_SharedErrorDegradesToMiss(t *testing.T) {
	shared := newMemStore()
	shared.failing = true
	tc := newTestTiered(t, shared, cache.TieredParams{})
	ctx := context.Background()

	// Writes must not fail the caller even when the shared tier is down.
	tc.Set(ctx, "k", []byte("v"))

	// The local tier still serves the value.
	got, err := tc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// A key only the shared tier could hold degrades to a miss.
	_, err = tc.Get(ctx, "other")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestTiered_LocalExpiryFallsThrough(t *testing.T) {
	shared := newMemStore()
	tc := newTestTiered(t, shared, cache.TieredParams{LocalTTL: 10 * time.Millisecond})
	ctx := context.Background()

	tc.Set(ctx, "k", []byte("v"))
	time.Sleep(20 * time.Millisecond)

	// Local entry expired; the shared tier answers and gets counted.
	got, err := tc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, shared.gets)
}

func TestTiered_CapacityEvictsOldest(t *testing.T) {
	shared := newMemStore()
	shared.failing = true // isolate the local tier
	tc := newTestTiered(t, shared, cache.TieredParams{Capacity: 2})
	ctx := context.Background()

	tc.Set(ctx, "first", []byte("1"))
	time.Sleep(2 * time.Millisecond)
	tc.Set(ctx, "second", []byte("2"))
	time.Sleep(2 * time.Millisecond)
	tc.Set(ctx, "third", []byte("3"))

	assert.Equal(t, 2, tc.LocalLen())
	_, err := tc.Get(ctx, "first")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	got, err := tc.Get(ctx, "third")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestTiered_InvalidateRemovesBothTiers(t *testing.T) {
	shared := newMemStore()
	tc := newTestTiered(t, shared, cache.TieredParams{})
	ctx := context.Background()

	tc.Set(ctx, "bol:pending", []byte("p"))
	tc.Set(ctx, "bol:fulfilled", []byte("f"))

	tc.Invalidate(ctx, "bol:pending", "bol:fulfilled")

	_, err := tc.Get(ctx, "bol:pending")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = tc.Get(ctx, "bol:fulfilled")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.Empty(t, shared.data)
}

func TestTiered_InvalidatePattern(t *testing.T) {
	shared := newMemStore()
	tc := newTestTiered(t, shared, cache.TieredParams{})
	ctx := context.Background()

	tc.Set(ctx, "bol:pending", []byte("p"))
	tc.Set(ctx, "orders:1", []byte("o"))

	tc.InvalidatePattern(ctx, "bol:*")

	_, err := tc.Get(ctx, "bol:pending")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	got, err := tc.Get(ctx, "orders:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("o"), got)
}

func TestTiered_SweeperRemovesExpired(t *testing.T) {
	shared := newMemStore()
	shared.failing = true
	tc := newTestTiered(t, shared, cache.TieredParams{
		LocalTTL:      5 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})

	tc.Set(context.Background(), "k", []byte("v"))
	require.Eventually(t, func() bool { return tc.LocalLen() == 0 }, time.Second, 5*time.Millisecond)
}
