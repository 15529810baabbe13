package engine

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/model"
)

// tileCacheEntry remembers a fetched tile metadata response.
type tileCacheEntry struct {
	md        catalog.TileMetadata
	fetchedAt time.Time
	loaded    bool
}

// tileCache is a bounded LRU of tile metadata keyed by layer kind, rounded
// bounds, and zoom category. Builders, transitions, and prefetch warms consult
// it before going to the network.
type tileCache struct {
	lru   *lru.Cache[string, tileCacheEntry]
	clock clockwork.Clock
}

func newTileCache(size int, clock clockwork.Clock) (*tileCache, error) {
	if size <= 0 {
		size = 512
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c, err := lru.New[string, tileCacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("tile cache: %w", err)
	}
	return &tileCache{lru: c, clock: clock}, nil
}

func tileCacheKey(kind model.LayerKind, cat model.ZoomCategory, bounds model.Bounds) string {
	return kind.String() + "|" + cat.String() + "|" + bounds.RoundedKey()
}

func (c *tileCache) get(kind model.LayerKind, cat model.ZoomCategory, bounds model.Bounds) (catalog.TileMetadata, bool) {
	e, ok := c.lru.Get(tileCacheKey(kind, cat, bounds))
	if !ok || !e.loaded {
		return catalog.TileMetadata{}, false
	}
	return e.md, true
}

func (c *tileCache) put(kind model.LayerKind, cat model.ZoomCategory, bounds model.Bounds, md catalog.TileMetadata) {
	c.lru.Add(tileCacheKey(kind, cat, bounds), tileCacheEntry{
		md:        md,
		fetchedAt: c.clock.Now(),
		loaded:    true,
	})
}

func (c *tileCache) len() int { return c.lru.Len() }
