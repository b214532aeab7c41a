package pipeline

import (
	"container/list"
	"sync"

	"github.com/rdelgatto/spindle/internal/models"
)

// defaultCacheCapacity bounds the track cache when no capacity is configured.
const defaultCacheCapacity = 32

// trackCache is a bounded LRU cache of normalized track sequences keyed by
// playlist ID. Process lifetime, no TTL; eviction is capacity-driven and
// explicit invalidation is exposed through [Library.Invalidate].
type trackCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key    string
	tracks []models.TrackRecord
}

func newTrackCache(capacity int) *trackCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &trackCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached sequence for a playlist and marks it recently used.
func (c *trackCache) Get(key string) ([]models.TrackRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).tracks, true
}

// Put stores a fully fetched sequence, evicting the least recently used
// entry when over capacity.
func (c *trackCache) Put(key string, tracks []models.TrackRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).tracks = tracks
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, tracks: tracks})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Invalidate drops one playlist's entry. Unknown keys are a no-op.
func (c *trackCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len reports the number of cached playlists.
func (c *trackCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
