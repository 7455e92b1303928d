package demtile

import (
	"errors"
	"io/fs"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missingTileCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_missing_tile_cache_hits_total",
		Help: "The total number of hits on the missing tile cache",
	})
	missingTileCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_missing_tile_cache_misses_total",
		Help: "The total number of misses on the missing tile cache",
	})
	tileStoreHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_tile_store_hits_total",
		Help: "The total number of hits on the tile store's sampler cache",
	})
	tileStoreMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_tile_store_misses_total",
		Help: "The total number of misses on the tile store's sampler cache",
	})
	tileStoreEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_tile_store_evictions_total",
		Help: "The total number of evictions from the tile store's sampler cache",
	})
)

// A TileSampler reads elevation samples from an open tile. Coordinates
// outside the tile and no-data samples return NaN with no error.
type TileSampler interface {
	SampleGeo(lon, lat float64) (float64, error)
	Close() error
}

// A TileStore is a pool of open tile readers keyed by TileKey. Evicted
// readers are closed. Missing files are remembered so they are only probed
// once. It is safe for concurrent use.
type TileStore struct {
	mutex              sync.Mutex
	fsys               fs.FS
	cacheSize          int
	geoTIFFTileOptions []GeoTIFFTileOption
	missingTiles       sync.Map
	samplerCache       *lru.Cache[TileKey, TileSampler]
}

// A TileStoreOption sets an option on a TileStore.
type TileStoreOption func(*TileStore)

func WithStoreCacheSize(cacheSize int) TileStoreOption {
	return func(s *TileStore) {
		s.cacheSize = cacheSize
	}
}

func WithStoreGeoTIFFTileOptions(geoTIFFTileOptions ...GeoTIFFTileOption) TileStoreOption {
	return func(s *TileStore) {
		s.geoTIFFTileOptions = geoTIFFTileOptions
	}
}

// NewTileStore returns a new TileStore reading tiles from fsys.
func NewTileStore(fsys fs.FS, options ...TileStoreOption) (*TileStore, error) {
	s := &TileStore{
		fsys:      fsys,
		cacheSize: 32,
	}
	for _, option := range options {
		option(s)
	}

	var err error
	s.samplerCache, err = lru.NewWithEvict(s.cacheSize, func(key TileKey, value TileSampler) {
		_ = value.Close()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Sampler returns an open sampler for m, using the cache if possible.
// Virtual records and records whose backing file does not exist return nil
// with no error.
func (s *TileStore) Sampler(m *TileMetadata) (TileSampler, error) {
	if m.Virtual {
		return nil, nil
	}
	key := m.Key()

	if _, ok := s.missingTiles.Load(key); ok {
		missingTileCacheHits.Inc()
		return nil, nil
	}
	if sampler, ok := s.samplerCache.Get(key); ok {
		tileStoreHits.Inc()
		return sampler, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.missingTiles.Load(key); ok {
		missingTileCacheHits.Inc()
		return nil, nil
	}
	if sampler, ok := s.samplerCache.Get(key); ok {
		tileStoreHits.Inc()
		return sampler, nil
	}

	tileStoreMisses.Inc()

	switch sampler, err := s.openTile(m); {
	case errors.Is(err, fs.ErrNotExist):
		s.missingTiles.Store(key, struct{}{})
		missingTileCacheMisses.Inc()
		return nil, nil
	case err != nil:
		return nil, err
	default:
		if eviction := s.samplerCache.Add(key, sampler); eviction {
			tileStoreEvictions.Inc()
		}
		return sampler, nil
	}
}

// Close closes all open samplers.
func (s *TileStore) Close() error {
	s.samplerCache.Purge()
	return nil
}

func (s *TileStore) openTile(m *TileMetadata) (TileSampler, error) {
	switch m.Format {
	case FormatSRTMHGT:
		return NewHGTTile(s.fsys, m.Filename)
	case FormatGeoTIFF:
		return NewGeoTIFFTile(s.fsys, m.Filename, s.geoTIFFTileOptions...)
	default:
		return nil, errors.ErrUnsupported
	}
}
