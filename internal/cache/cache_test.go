package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(context.Background(), nil, Options{
		MaxBytes:   1024,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_PutThenGetHitsTier1(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, FileKey("a.py", "abc123"), []byte("payload")))

	payload, ok := c.Get(ctx, FileKey("a.py", "abc123"))
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), payload)
	assert.Equal(t, int64(1), c.Stats().Tier1Hits)
}

func TestCache_Tier2ServesAfterTier1Eviction(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", []byte("payload-one")))
	c.tier1.entries.Remove("k1")
	c.tier1.curBytes = 0

	payload, ok := c.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, []byte("payload-one"), payload)
	assert.Equal(t, int64(1), c.Stats().Tier2Hits)

	_, ok = c.tier1.get("k1")
	assert.True(t, ok, "tier2 hit should promote back into tier1")
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c := newTestCache(t)
	_, ok := c.Get(context.Background(), "nonexistent")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestCache_JSONRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name string
		N    int
	}
	in := payload{Name: "x", N: 7}
	require.NoError(t, c.PutJSON(ctx, "json-key", in))

	var out payload
	ok, err := c.GetJSON(ctx, "json-key", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestTier1_EvictsOnByteBudget(t *testing.T) {
	t1, err := newTier1(10)
	require.NoError(t, err)

	t1.put("a", make([]byte, 6))
	evicted := t1.put("b", make([]byte, 6))

	assert.Equal(t, 1, evicted)
	_, ok := t1.get("a")
	assert.False(t, ok)
	_, ok = t1.get("b")
	assert.True(t, ok)
}

func TestCache_Tier2PutFailureIsSwallowed(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.tier2.db.Close())

	err := c.Put(ctx, "k1", []byte("payload"))
	require.NoError(t, err, "tier1 success must suffice; tier2 failure is logged, not propagated")

	payload, ok := c.tier1.get("k1")
	require.True(t, ok, "tier1 write must still have happened")
	assert.Equal(t, []byte("payload"), payload)
}

func TestKeyHelpers_Namespace(t *testing.T) {
	assert.Equal(t, "analysis:a.py:abc", FileKey("a.py", "abc"))
	assert.Equal(t, "codebase:xyz", CodebaseKey("xyz"))
	assert.Equal(t, "session:s1", SessionKey("s1"))
}
