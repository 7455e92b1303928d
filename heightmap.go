package demtile

import (
	"context"
	"math"
)

// A Heightmap is a rectangular grid of elevations sampled at dataset grid
// nodes, row-major, rows north to south. Uncovered and no-data cells are
// NaN.
type Heightmap struct {
	BoundingBox BoundingBox
	Width       int
	Height      int
	Elevations  []float64
}

// At returns the elevation at (col, row), counting rows from the north edge.
func (h *Heightmap) At(col, row int) float64 {
	return h.Elevations[row*h.Width+col]
}

// MinMax returns the minimum and maximum elevations, ignoring NaNs. If every
// cell is NaN it returns (NaN, NaN).
func (h *Heightmap) MinMax() (float64, float64) {
	minElev, maxElev := math.NaN(), math.NaN()
	for _, elevation := range h.Elevations {
		if math.IsNaN(elevation) {
			continue
		}
		if math.IsNaN(minElev) || elevation < minElev {
			minElev = elevation
		}
		if math.IsNaN(maxElev) || elevation > maxElev {
			maxElev = elevation
		}
	}
	return minElev, maxElev
}

// AssembleHeightmap samples a heightmap covering box. The box is snapped
// outward to the dataset grid; every covered cell gets a descriptor-shaped
// input from the catalog, virtual descriptors standing in for missing tiles
// so their cells stay NaN.
func AssembleHeightmap(ctx context.Context, store *TileStore, catalog *TileCatalog, dataset DatasetSpec, box BoundingBox) (*Heightmap, error) {
	tiles, err := catalog.CoveringTiles(dataset, box)
	if err != nil {
		return nil, err
	}

	// Snap outward to grid node indices. The small tolerance keeps
	// coordinates that are exact grid nodes from falling into the
	// neighboring cell after the division rounds.
	const eps = 1e-9
	cell := dataset.CellSize()
	minLonIndex := int(math.Floor(box.MinLon/cell + eps))
	maxLonIndex := int(math.Ceil(box.MaxLon/cell - eps))
	minLatIndex := int(math.Floor(box.MinLat/cell + eps))
	maxLatIndex := int(math.Ceil(box.MaxLat/cell - eps))
	minLon := float64(minLonIndex) * cell
	maxLon := float64(maxLonIndex) * cell
	minLat := float64(minLatIndex) * cell
	maxLat := float64(maxLatIndex) * cell
	width := maxLonIndex - minLonIndex + 1
	height := maxLatIndex - minLatIndex + 1

	elevations := make([]float64, width*height)
	for i := range elevations {
		elevations[i] = math.NaN()
	}

	for _, m := range tiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m.Virtual {
			continue
		}
		sampler, err := store.Sampler(m)
		if err != nil {
			return nil, err
		}
		if sampler == nil {
			continue
		}
		tileBox := m.BoundingBox()
		for row := range height {
			lat := maxLat - float64(row)*cell
			for col := range width {
				lon := minLon + float64(col)*cell
				if !tileBox.Contains(lon, lat) {
					continue
				}
				sample, err := sampler.SampleGeo(lon, lat)
				if err != nil {
					return nil, err
				}
				if !math.IsNaN(sample) {
					elevations[row*width+col] = sample
				}
			}
		}
	}

	return &Heightmap{
		BoundingBox: NewBoundingBox(minLon, maxLon, minLat, maxLat),
		Width:       width,
		Height:      height,
		Elevations:  elevations,
	}, nil
}
