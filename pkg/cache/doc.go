// Package cache provides a small thread-safe LRU cache used as the
// in-process layer in front of the shared Redis compile cache.
//
// Compiled template output is immutable once minted, so entries never need
// invalidation; capacity-based eviction is the only way an entry leaves the
// cache.
//
// # Usage
//
//	import "github.com/requil/requil/pkg/cache"
//
//	c := cache.NewLRUCache[string, string](256)
//	c.Put(snapshotID, compiledHTML)
//
//	if html, ok := c.Get(snapshotID); ok {
//	    // serve from memory, skip Redis and recompilation
//	}
package cache
