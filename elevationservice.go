package demtile

import (
	"context"
	"errors"
	"math"

	"github.com/twpayne/go-proj/v10"
)

var errNoSourceCRS = errors.New("no source CRS configured")

// An ElevationService returns interpolated elevations for geographic
// coordinates, looking tiles up in a catalog and reading them through a
// store.
type ElevationService struct {
	catalog *TileCatalog
	store   *TileStore
	dataset DatasetSpec
	pj      *proj.PJ
}

// An ElevationServiceOption sets an option on an ElevationService.
type ElevationServiceOption func(*elevationServiceConfig)

type elevationServiceConfig struct {
	sourceCRS string
}

// WithSourceCRS configures a source CRS, e.g. "epsg:3857", enabling
// ElevationProjected.
func WithSourceCRS(sourceCRS string) ElevationServiceOption {
	return func(c *elevationServiceConfig) {
		c.sourceCRS = sourceCRS
	}
}

// NewElevationService returns a new ElevationService over catalog and store
// for a dataset's grid.
func NewElevationService(catalog *TileCatalog, store *TileStore, dataset DatasetSpec, options ...ElevationServiceOption) (*ElevationService, error) {
	var config elevationServiceConfig
	for _, option := range options {
		option(&config)
	}
	s := &ElevationService{
		catalog: catalog,
		store:   store,
		dataset: dataset,
	}
	if config.sourceCRS != "" {
		pj, err := proj.NewCRSToCRS(config.sourceCRS, "epsg:4326", nil)
		if err != nil {
			return nil, err
		}
		s.pj = pj
	}
	return s, nil
}

// SampleGeo returns the raw sample at (lon, lat), resolving the covering
// tile through the catalog. Uncataloged and missing tiles return NaN.
func (s *ElevationService) SampleGeo(lon, lat float64) (float64, error) {
	name := s.dataset.TileName(s.dataset.TileRefCovering(lon, lat))
	m, ok := s.catalog.ByName(name)
	if !ok {
		return math.NaN(), nil
	}
	sampler, err := s.store.Sampler(m)
	if err != nil {
		return 0, err
	}
	if sampler == nil {
		return math.NaN(), nil
	}
	return sampler.SampleGeo(lon, lat)
}

// Elevation returns the bilinearly interpolated elevations at coords, which
// are (lon, lat) pairs in EPSG:4326.
func (s *ElevationService) Elevation(ctx context.Context, coords [][]float64) ([]float64, error) {
	return InterpolateBilinear(ctx, s, s.dataset.CellSize(), coords)
}

// ElevationProjected transforms coords from the source CRS configured with
// WithSourceCRS into EPSG:4326 and returns their elevations. coords are not
// modified.
func (s *ElevationService) ElevationProjected(ctx context.Context, coords [][]float64) ([]float64, error) {
	if s.pj == nil {
		return nil, errNoSourceCRS
	}
	coords4326 := cloneCoords(coords)
	if err := s.pj.ForwardFloat64Slices(coords4326); err != nil {
		return nil, err
	}
	// PROJ returns EPSG:4326 coordinates in authority order (lat, lon).
	flipCoords(coords4326)
	return s.Elevation(ctx, coords4326)
}

func cloneCoords(coords [][]float64) [][]float64 {
	clonedCoordsFlat := make([]float64, 2*len(coords))
	clonedCoords := make([][]float64, len(coords))
	for i, coord := range coords {
		copy(clonedCoordsFlat[2*i:2*i+2], coord)
		clonedCoords[i] = clonedCoordsFlat[2*i : 2*i+2]
	}
	return clonedCoords
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
