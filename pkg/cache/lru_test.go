package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requil/requil/pkg/cache"
)

func TestLRUCache_GetPut(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, string](2)

	_, ok := c.Get("a")
	assert.False(t, ok)

	prev, existed := c.Put("a", "1")
	assert.False(t, existed)
	assert.Empty(t, prev)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	prev, existed = c.Put("a", "2")
	assert.True(t, existed)
	assert.Equal(t, "1", prev)

	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_Remove(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](4)
	c.Put("a", 1)

	v, ok := c.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_InvalidCapacityPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		cache.NewLRUCache[string, int](0)
	})
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](64)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("key-%d", (i+j)%32)
				c.Put(key, j)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
