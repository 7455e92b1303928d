package demtile

import (
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v2"
)

// A DatasetSpec describes the grid layout and naming convention of a DEM
// dataset: how many degrees each tile spans, how many cells cover a degree,
// and how tile files are named.
type DatasetSpec struct {
	Name           string       `yaml:"name"`
	Format         RasterFormat `yaml:"format"`
	TileDegrees    int          `yaml:"tile_degrees"`
	CellsPerDegree int          `yaml:"cells_per_degree"`
}

// SRTM1 returns the layout of 1 arc-second SRTM data: one-degree HGT tiles
// with 3600 cells per degree.
func SRTM1() DatasetSpec {
	return DatasetSpec{
		Name:           "srtm1",
		Format:         FormatSRTMHGT,
		TileDegrees:    1,
		CellsPerDegree: 3600,
	}
}

// SRTM3 returns the layout of 3 arc-second SRTM data.
func SRTM3() DatasetSpec {
	return DatasetSpec{
		Name:           "srtm3",
		Format:         FormatSRTMHGT,
		TileDegrees:    1,
		CellsPerDegree: 1200,
	}
}

// CellSize returns the grid cell size in degrees.
func (s DatasetSpec) CellSize() float64 {
	return 1 / float64(s.CellsPerDegree)
}

// TileName returns the filename of the tile at ref.
func (s DatasetSpec) TileName(ref TileRef) string {
	return ref.Stem() + s.Format.Extension()
}

// TileBoundingBox returns the bounding box of the tile at ref.
func (s DatasetSpec) TileBoundingBox(ref TileRef) BoundingBox {
	return NewBoundingBox(
		float64(ref.Lon), float64(ref.Lon+s.TileDegrees),
		float64(ref.Lat), float64(ref.Lat+s.TileDegrees),
	)
}

// TileRefCovering returns the ref of the tile containing (lon, lat). Points
// on a grid boundary belong to the tile to their north-east.
func (s DatasetSpec) TileRefCovering(lon, lat float64) TileRef {
	return TileRef{
		Lon: s.snapDown(lon),
		Lat: s.snapDown(lat),
	}
}

// TileRefsCovering returns the refs of all tiles intersecting box, west to
// east then south to north. A max exactly on a grid boundary does not pull in
// the next tile beyond it.
func (s DatasetSpec) TileRefsCovering(box BoundingBox) []TileRef {
	lonLo, lonHi := s.span(box.MinLon, box.MaxLon)
	latLo, latHi := s.span(box.MinLat, box.MaxLat)
	var refs []TileRef
	for lat := latLo; lat <= latHi; lat += s.TileDegrees {
		for lon := lonLo; lon <= lonHi; lon += s.TileDegrees {
			refs = append(refs, TileRef{Lon: lon, Lat: lat})
		}
	}
	return refs
}

func (s DatasetSpec) snapDown(v float64) int {
	d := float64(s.TileDegrees)
	return s.TileDegrees * int(math.Floor(v/d))
}

func (s DatasetSpec) span(minV, maxV float64) (int, int) {
	lo := s.snapDown(minV)
	hi := s.snapDown(maxV)
	if float64(hi) == maxV && hi > lo {
		hi -= s.TileDegrees
	}
	return lo, hi
}

// LoadDatasetSpecs reads a YAML list of dataset specs from r. Format names
// outside the closed set are an error.
func LoadDatasetSpecs(r io.Reader) ([]DatasetSpec, error) {
	var specs []DatasetSpec
	if err := yaml.NewDecoder(r).Decode(&specs); err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if spec.TileDegrees <= 0 || spec.CellsPerDegree <= 0 {
			return nil, fmt.Errorf("dataset %q: invalid grid", spec.Name)
		}
	}
	return specs, nil
}
