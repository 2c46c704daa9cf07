package manager

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	data     map[string][]byte
	failGet  bool
	failSet  bool
	closed   bool
	prefixes []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (b *fakeBackend) Get(key string) ([]byte, bool, error) {
	if b.failGet {
		return nil, false, errors.New("backend unavailable")
	}
	data, ok := b.data[key]
	return data, ok, nil
}

func (b *fakeBackend) Set(key string, data []byte, ttl time.Duration) error {
	if b.failSet {
		return errors.New("backend unavailable")
	}
	b.data[key] = data
	return nil
}

func (b *fakeBackend) Delete(key string) error {
	delete(b.data, key)
	return nil
}

func (b *fakeBackend) DeletePrefix(prefix string) (int, error) {
	b.prefixes = append(b.prefixes, prefix)
	var removed int
	for key := range b.data {
		if strings.HasPrefix(key, prefix) {
			delete(b.data, key)
			removed++
		}
	}
	return removed, nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func TestManagerWritesThroughToBackend(t *testing.T) {
	backend := newFakeBackend()
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	m.Set("org:1:health:summary", map[string]any{"score": 3.5}, time.Minute)

	stored, ok := backend.data["org:1:health:summary"]
	require.True(t, ok)
	assert.Contains(t, string(stored), "3.5")
}

func TestManagerFallsBackToBackendOnMemoryMiss(t *testing.T) {
	backend := newFakeBackend()
	backend.data["key"] = []byte(`{"cached":true}`)
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	value, ok := m.Get("key")
	require.True(t, ok)

	raw, isRaw := value.(json.RawMessage)
	require.True(t, isRaw, "backend hits surface as raw JSON")
	assert.JSONEq(t, `{"cached":true}`, string(raw))
}

func TestManagerMemoryHitSkipsBackend(t *testing.T) {
	backend := newFakeBackend()
	backend.failGet = true
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	m.Store().Set("key", "typed-value", time.Minute)

	value, ok := m.Get("key")
	require.True(t, ok)
	assert.Equal(t, "typed-value", value)
}

func TestManagerDegradesOnBackendFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.failGet = true
	backend.failSet = true
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	// both paths swallow the backend error
	m.Set("key", "value", time.Minute)
	value, ok := m.Get("key")
	require.True(t, ok, "memory copy still serves")
	assert.Equal(t, "value", value)

	_, ok = m.Get("only-in-backend")
	assert.False(t, ok)
}

func TestManagerInvalidateReachesBackend(t *testing.T) {
	backend := newFakeBackend()
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	m.Set("org:1:patterns:rollup", "a", time.Minute)
	m.Set("org:1:health:summary", "b", time.Minute)

	removed := m.Invalidate("org:1:patterns:*")
	assert.Equal(t, 1, removed)
	// the trailing wildcard is stripped for the backend prefix delete
	require.Len(t, backend.prefixes, 1)
	assert.Equal(t, "org:1:patterns:", backend.prefixes[0])
	_, ok := backend.data["org:1:patterns:rollup"]
	assert.False(t, ok)
	_, ok = backend.data["org:1:health:summary"]
	assert.True(t, ok)
}

func TestManagerClearLeavesBackendIntact(t *testing.T) {
	backend := newFakeBackend()
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	m.Set("key", "value", time.Minute)
	m.Clear()

	_, ok := m.Store().Get("key")
	assert.False(t, ok)
	_, ok = backend.data["key"]
	assert.True(t, ok, "backend survives a clear for restart warming")
}

func TestManagerClose(t *testing.T) {
	backend := newFakeBackend()
	m := New(100, time.Minute, backend, logging.NewTestLogger())

	require.NoError(t, m.Close())
	assert.True(t, backend.closed)

	memoryOnly := New(100, time.Minute, nil, logging.NewTestLogger())
	assert.NoError(t, memoryOnly.Close())
}
