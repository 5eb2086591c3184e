package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// tier1 is the in-process LRU tier. It wraps golang-lru/v2 but tracks byte
// usage itself rather than relying on the library's onEvicted callback: that
// callback doesn't fire when Add replaces an existing key, which would
// double-subtract bytes for the common re-Put-same-key path. Instead every
// accounting decision happens inside put, guarded by mu.
type tier1 struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, []byte]
	maxBytes int64
	curBytes int64
}

func newTier1(maxBytes int64) (*tier1, error) {
	if maxBytes <= 0 {
		maxBytes = 500 * 1024 * 1024
	}
	// Capacity is nominal; real eviction is driven by maxBytes in put, not
	// by entry count, so pick a generous count ceiling.
	entries, err := lru.New[string, []byte](1_000_000)
	if err != nil {
		return nil, err
	}
	return &tier1{entries: entries, maxBytes: maxBytes}, nil
}

func (t *tier1) get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries.Get(key)
}

// put stores payload under key and evicts the coldest entries until the
// byte budget is respected. Returns the number of entries evicted.
func (t *tier1) put(key string, payload []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries.Peek(key); ok {
		t.curBytes -= int64(len(existing))
	}
	t.entries.Add(key, payload)
	t.curBytes += int64(len(payload))

	evicted := 0
	for t.curBytes > t.maxBytes {
		_, victim, ok := t.entries.RemoveOldest()
		if !ok {
			break
		}
		t.curBytes -= int64(len(victim))
		evicted++
	}
	return evicted
}

func (t *tier1) currentBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.curBytes
}
