package textures

import "sync"

// CacheStats counts cache lookups.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// Cache keeps decoded images by resolved file path, so a file shared by
// several texture-table entries is decoded once. It is safe for concurrent
// use by LoadAll workers.
type Cache struct {
	mu     sync.Mutex
	images map[string]*Image
	stats  CacheStats
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string]*Image)}
}

// Get returns the image decoded from path, if any.
func (c *Cache) Get(path string) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.images[path]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return img, ok
}

// Set records the image decoded from path.
func (c *Cache) Set(path string, img *Image) {
	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()
}

// Clear drops every image and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.stats = CacheStats{}
	c.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Entries = len(c.images)
	return st
}
