package demtile

import (
	"context"
	"math"
)

// A GeoSampler provides point elevation samples on a fixed geographic grid.
type GeoSampler interface {
	SampleGeo(lon, lat float64) (float64, error)
}

// InterpolateBilinear interpolates the elevation at each of coords, which are
// (lon, lat) pairs, from the four surrounding grid nodes. NaN samples
// propagate into the result.
func InterpolateBilinear(ctx context.Context, sampler GeoSampler, cellSize float64, coords [][]float64) ([]float64, error) {
	result := make([]float64, len(coords))
	for i, coord := range coords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lon0 := math.Floor(coord[0]/cellSize) * cellSize
		lat0 := math.Floor(coord[1]/cellSize) * cellSize
		lon1 := lon0 + cellSize
		lat1 := lat0 + cellSize
		s00, err := sampler.SampleGeo(lon0, lat0)
		if err != nil {
			return nil, err
		}
		s10, err := sampler.SampleGeo(lon1, lat0)
		if err != nil {
			return nil, err
		}
		s01, err := sampler.SampleGeo(lon0, lat1)
		if err != nil {
			return nil, err
		}
		s11, err := sampler.SampleGeo(lon1, lat1)
		if err != nil {
			return nil, err
		}
		dx := (coord[0] - lon0) / cellSize
		dy := (coord[1] - lat0) / cellSize
		result[i] = 0 +
			s00*(1-dx)*(1-dy) +
			s10*dx*(1-dy) +
			s01*(1-dx)*dy +
			s11*dx*dy
	}
	return result, nil
}
