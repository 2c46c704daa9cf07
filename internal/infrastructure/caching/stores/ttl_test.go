package stores

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLStoreSetGet(t *testing.T) {
	store := NewTTLStore(10, time.Minute)

	store.Set("org:1:patterns:rollup", "payload", 0)

	value, ok := store.Get("org:1:patterns:rollup")
	require.True(t, ok)
	assert.Equal(t, "payload", value)

	_, ok = store.Get("org:1:missing")
	assert.False(t, ok)
}

func TestTTLStoreLazyExpiry(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewTTLStore(10, time.Minute).WithClock(func() time.Time { return current })

	store.Set("key", "value", 5*time.Minute)

	current = current.Add(4 * time.Minute)
	_, ok := store.Get("key")
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = store.Get("key")
	assert.False(t, ok)

	stats := store.Stats()
	assert.Equal(t, 0, stats.Size, "expired entry should be removed on read")
}

func TestTTLStoreCapacityEvictsOldest(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewTTLStore(3, time.Hour).WithClock(func() time.Time { return current })

	for i := 0; i < 3; i++ {
		store.Set(fmt.Sprintf("key-%d", i), i, 0)
		current = current.Add(time.Second)
	}
	store.Set("key-3", 3, 0)

	_, ok := store.Get("key-0")
	assert.False(t, ok, "oldest entry should be evicted")
	for i := 1; i <= 3; i++ {
		_, ok := store.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
	}

	stats := store.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestTTLStoreOverwriteDoesNotEvict(t *testing.T) {
	store := NewTTLStore(2, time.Hour)

	store.Set("a", 1, 0)
	store.Set("b", 2, 0)
	store.Set("a", 10, 0)

	_, okA := store.Get("a")
	_, okB := store.Get("b")
	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, int64(0), store.Stats().Evictions)
}

func TestTTLStoreGetOrSet(t *testing.T) {
	store := NewTTLStore(10, time.Minute)

	var calls int
	fetch := func() (any, error) {
		calls++
		return "computed", nil
	}

	value, err := store.GetOrSet("key", fetch, 0)
	require.NoError(t, err)
	assert.Equal(t, "computed", value)

	value, err = store.GetOrSet("key", fetch, 0)
	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.Equal(t, 1, calls, "hit should not re-fetch")
}

func TestTTLStoreGetOrSetFetchError(t *testing.T) {
	store := NewTTLStore(10, time.Minute)

	wantErr := errors.New("load failed")
	_, err := store.GetOrSet("key", func() (any, error) { return nil, wantErr }, 0)
	assert.ErrorIs(t, err, wantErr)

	_, ok := store.Get("key")
	assert.False(t, ok, "failed fetch should not cache anything")
}

func TestTTLStoreInvalidatePrefixAndSubstring(t *testing.T) {
	store := NewTTLStore(10, time.Minute)
	store.Set("org:1:patterns:rollup", 1, 0)
	store.Set("org:1:health:summary", 2, 0)
	store.Set("org:2:patterns:rollup", 3, 0)

	removed := store.Invalidate("org:1:*")
	assert.Equal(t, 2, removed)
	_, ok := store.Get("org:2:patterns:rollup")
	assert.True(t, ok)

	removed = store.Invalidate(":patterns:")
	assert.Equal(t, 1, removed)
}

func TestTTLStoreInvalidateOrgAndUser(t *testing.T) {
	store := NewTTLStore(10, time.Minute)
	store.Set("org:1:roi:summary", 1, 0)
	store.Set("org:1:user:u1:prefs", 2, 0)
	store.Set("org:2:roi:summary", 3, 0)

	assert.Equal(t, 1, store.InvalidateUser("1", "u1"))
	assert.Equal(t, 1, store.InvalidateOrg("1"))
	assert.Equal(t, 1, store.Stats().Size)
}

func TestTTLStoreSweepExpired(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewTTLStore(10, time.Hour).WithClock(func() time.Time { return current })

	store.Set("short", 1, time.Minute)
	store.Set("long", 2, time.Hour)

	current = current.Add(30 * time.Minute)
	assert.Equal(t, 1, store.SweepExpired())
	assert.Equal(t, 1, store.Stats().Size)
}

func TestTTLStoreStatsAndClear(t *testing.T) {
	store := NewTTLStore(10, time.Minute)
	store.Set("key", 1, 0)
	store.Get("key")
	store.Get("key")
	store.Get("missing")

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 1e-9)

	store.Clear()
	stats = store.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}
