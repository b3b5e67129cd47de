package texture

import (
	"sync"

	"go.uber.org/zap"

	"sly-level-decoder/internal/diag"
)

// Key identifies the textures of one assignment.
type Key struct {
	Desc       int
	Assignment int
}

// Cache is a concurrency-safe cache of decoded textures over one container.
type Cache struct {
	mu    sync.RWMutex
	items map[Key]*cacheEntry
	ct    *Container
	log   *zap.Logger
}

type cacheEntry struct {
	textures []*DecodedTexture
	diags    diag.List
}

// NewCache creates a texture cache backed by the given container.
func NewCache(ct *Container, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		items: make(map[Key]*cacheEntry),
		ct:    ct,
		log:   log,
	}
}

// Textures resolves and decodes the assignment named by k, in request order.
// Requests that fail to decode are left out; Diagnostics reports them.
func (c *Cache) Textures(k Key) []*DecodedTexture {
	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[k]; exists {
		c.mu.RUnlock()
		return entry.textures
	}
	c.mu.RUnlock()

	// Slow path: decode outside the lock
	entry := c.load(k)

	// Write lock with double-check
	c.mu.Lock()
	if existing, exists := c.items[k]; exists {
		c.mu.Unlock()
		return existing.textures
	}
	c.items[k] = entry
	c.mu.Unlock()

	return entry.textures
}

// Diffuse returns the assignment's diffuse texture, or nil.
func (c *Cache) Diffuse(k Key) *DecodedTexture {
	for _, t := range c.Textures(k) {
		if t.Role == RoleDiffuse {
			return t
		}
	}
	return nil
}

// Diagnostics returns what went wrong decoding k. It is empty until k has
// been requested.
func (c *Cache) Diagnostics(k Key) diag.List {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.items[k]; ok {
		return entry.diags
	}
	return nil
}

func (c *Cache) load(k Key) *cacheEntry {
	entry := &cacheEntry{}
	for _, r := range c.ct.Resolve(k.Desc, k.Assignment, &entry.diags) {
		t, err := c.ct.Decode(k.Desc, r)
		if err != nil {
			entry.diags.Add(c.ct.Offset, err)
			c.log.Warn("texture decode failed",
				zap.Int("desc", k.Desc), zap.Int("assignment", k.Assignment), zap.Error(err))
			continue
		}
		entry.textures = append(entry.textures, t)
	}
	return entry
}
