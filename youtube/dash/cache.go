package dash

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultClearFactor is the share of entries kept when a full cache is
	// trimmed.
	DefaultClearFactor = 0.75
	unlimited          = math.MaxInt
)

type cachedManifest struct {
	seq uint64
	doc string
}

// ManifestCache stores generated manifests by base streaming URL. A cache
// with a maximum size keeps only its newest entries once full.
type ManifestCache struct {
	mu          sync.Mutex
	items       *cache.Cache
	seq         uint64
	maxSize     int
	clearFactor float64
}

// NewManifestCache returns an unbounded cache.
func NewManifestCache() *ManifestCache {
	return &ManifestCache{
		items:       cache.New(cache.NoExpiration, 0),
		maxSize:     unlimited,
		clearFactor: DefaultClearFactor,
	}
}

// Get returns the manifest cached for key.
func (c *ManifestCache) Get(key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	return v.(cachedManifest).doc, true
}

// Put stores doc under key. When the cache is full, older entries are
// dropped first so that only the newest round(max*factor) remain.
func (c *ManifestCache) Put(key, doc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxSize {
		c.keepNewest(c.trimTarget())
	}
	c.seq++
	c.items.Set(key, cachedManifest{seq: c.seq, doc: doc}, cache.NoExpiration)
}

func (c *ManifestCache) trimTarget() int {
	n := int(math.Round(float64(c.maxSize) * c.clearFactor))
	if n < 1 {
		n = 1
	}
	if n >= c.maxSize {
		n = c.maxSize - 1
	}
	return n
}

func (c *ManifestCache) keepNewest(n int) {
	all := c.items.Items()
	if len(all) <= n {
		return
	}
	type entry struct {
		key string
		seq uint64
	}
	entries := make([]entry, 0, len(all))
	for k, it := range all {
		entries = append(entries, entry{key: k, seq: it.Object.(cachedManifest).seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	for _, e := range entries[:len(entries)-n] {
		c.items.Delete(e.key)
	}
}

// Len returns the number of cached manifests.
func (c *ManifestCache) Len() int {
	return c.items.ItemCount()
}

// Clear drops every entry.
func (c *ManifestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Flush()
}

// MaximumSize returns the size limit, math.MaxInt when unbounded.
func (c *ManifestCache) MaximumSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSize
}

// SetMaximumSize bounds the cache to size entries, trimming it right away
// if it holds more.
func (c *ManifestCache) SetMaximumSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("dash: invalid maximum cache size %d", size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = size
	if c.items.ItemCount() > size {
		c.keepNewest(size)
	}
	return nil
}

// ResetMaximumSize removes the size limit.
func (c *ManifestCache) ResetMaximumSize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = unlimited
}

// ClearFactor returns the share kept on trimming.
func (c *ManifestCache) ClearFactor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearFactor
}

// SetClearFactor sets the share kept on trimming; it must be in (0, 1).
func (c *ManifestCache) SetClearFactor(f float64) error {
	if f <= 0 || f >= 1 {
		return fmt.Errorf("dash: invalid clear factor %v", f)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearFactor = f
	return nil
}

// ResetClearFactor restores DefaultClearFactor.
func (c *ManifestCache) ResetClearFactor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearFactor = DefaultClearFactor
}
