package demtile

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_catalog_queries_total",
		Help: "The total number of covering-tile queries against catalogs",
	})
	catalogVirtualFills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_catalog_virtual_fills_total",
		Help: "The total number of virtual descriptors synthesized for uncovered grid cells",
	})
)

// ErrEmptyCatalog is returned when a covering-tile query has no real record
// to clone virtual descriptors from.
var ErrEmptyCatalog = errors.New("empty catalog")

// A TileCatalog indexes TileMetadata records by tile key. It is safe for
// concurrent use.
type TileCatalog struct {
	mutex sync.RWMutex
	byKey map[TileKey]*TileMetadata
	order []TileKey
}

// NewTileCatalog returns a new, empty TileCatalog.
func NewTileCatalog() *TileCatalog {
	return &TileCatalog{
		byKey: make(map[TileKey]*TileMetadata),
	}
}

// Add indexes m, replacing any record with the same key. It reports whether
// an existing record was replaced.
func (c *TileCatalog) Add(m *TileMetadata) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	key := m.Key()
	if _, replaced := c.byKey[key]; replaced {
		c.byKey[key] = m
		return true
	}
	c.byKey[key] = m
	c.order = append(c.order, key)
	return false
}

// ByName returns the record whose key matches the base name of filename.
func (c *TileCatalog) ByName(filename string) (*TileMetadata, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	m, ok := c.byKey[KeyForFilename(filename)]
	return m, ok
}

// Len returns the number of indexed records.
func (c *TileCatalog) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.byKey)
}

// Tiles returns the indexed records in insertion order.
func (c *TileCatalog) Tiles() []*TileMetadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	tiles := make([]*TileMetadata, 0, len(c.order))
	for _, key := range c.order {
		tiles = append(tiles, c.byKey[key])
	}
	return tiles
}

// Covering returns the indexed records whose bounding boxes intersect box,
// in insertion order.
func (c *TileCatalog) Covering(box BoundingBox) []*TileMetadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var tiles []*TileMetadata
	for _, key := range c.order {
		if m := c.byKey[key]; m.BoundingBox().Intersects(box) {
			tiles = append(tiles, m)
		}
	}
	return tiles
}

// CoveringTiles returns one record per dataset grid cell intersecting box:
// the indexed record where one exists, otherwise a virtual clone of a real
// record with its extrema rewritten to the missing cell. The result gives
// downstream heightmap assembly a descriptor-shaped input for every cell,
// real or missing. An empty catalog has no record to clone and returns
// ErrEmptyCatalog.
func (c *TileCatalog) CoveringTiles(dataset DatasetSpec, box BoundingBox) ([]*TileMetadata, error) {
	catalogQueries.Inc()

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var template *TileMetadata
	if len(c.order) > 0 {
		template = c.byKey[c.order[0]]
	}

	refs := dataset.TileRefsCovering(box)
	tiles := make([]*TileMetadata, 0, len(refs))
	for _, ref := range refs {
		if m, ok := c.byKey[KeyForFilename(dataset.TileName(ref))]; ok {
			tiles = append(tiles, m)
			continue
		}
		if template == nil {
			return nil, ErrEmptyCatalog
		}
		cellBox := dataset.TileBoundingBox(ref)
		virtual := template.CloneVirtual()
		// The clone's caches are empty, so rewriting its extrema here is
		// within the immutability contract. Latitudes stay in the template's
		// descending row order.
		virtual.DataStartLat = cellBox.MaxLat
		virtual.DataEndLat = cellBox.MinLat
		virtual.DataStartLon = cellBox.MinLon
		virtual.DataEndLon = cellBox.MaxLon
		virtual.PhysicalStartLat = cellBox.MaxLat
		virtual.PhysicalEndLat = cellBox.MinLat
		virtual.PhysicalStartLon = cellBox.MinLon
		virtual.PhysicalEndLon = cellBox.MaxLon
		catalogVirtualFills.Inc()
		tiles = append(tiles, virtual)
	}
	return tiles, nil
}
