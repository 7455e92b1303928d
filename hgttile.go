package demtile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strings"
)

// hgtVoid is the SRTM void sentinel.
const hgtVoid = -32768

// hgtGridSize returns the square grid size implied by an HGT file's length:
// 3601 for 1 arc-second tiles, 1201 for 3 arc-second tiles.
func hgtGridSize(length int) (int, error) {
	switch length {
	case 2 * 3601 * 3601:
		return 3601, nil
	case 2 * 1201 * 1201:
		return 1201, nil
	default:
		return 0, fmt.Errorf("%d bytes: %w", length, errors.ErrUnsupported)
	}
}

func hgtTileRef(filename string) (TileRef, error) {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	return ParseTileRef(strings.TrimSuffix(base, path.Ext(base)))
}

func extractHGTMetadata(fsys fs.FS, filename string) (*TileMetadata, error) {
	ref, err := hgtTileRef(filename)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(fsys, filename)
	if err != nil {
		return nil, err
	}
	n, err := hgtGridSize(int(info.Size()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cell := 1 / float64(n-1)

	m := NewTileMetadata(filename, FormatSRTMHGT)
	m.Width = n
	m.Height = n
	m.PixelScaleX = cell
	m.PixelScaleY = cell
	m.PixelSizeX = cell
	m.PixelSizeY = cell
	// HGT rows run north to south, so the data-space latitudes are supplied
	// in descending order.
	m.DataStartLat = float64(ref.Lat + 1)
	m.DataEndLat = float64(ref.Lat)
	m.DataStartLon = float64(ref.Lon)
	m.DataEndLon = float64(ref.Lon + 1)
	// Node-registered: the physical image extends half a cell beyond the
	// data-space extrema.
	m.PhysicalStartLat = m.DataStartLat + cell/2
	m.PhysicalEndLat = m.DataEndLat - cell/2
	m.PhysicalStartLon = m.DataStartLon - cell/2
	m.PhysicalEndLon = m.DataEndLon + cell/2
	m.BitsPerSample = 16
	m.ScanlineSize = 2 * n
	m.WorldUnits = "degrees"
	m.SampleFormat = "INT16"
	m.NoDataValue = "-32768"
	return m, nil
}

// An HGTTile is an SRTM HGT tile loaded into memory: a square grid of
// big-endian int16 samples, node-registered, rows north to south.
type HGTTile struct {
	ref     TileRef
	n       int
	cell    float64
	samples []int16
}

// NewHGTTile returns a new HGTTile read from filename in fsys. The tile's
// position comes from its name stem and its grid size from its length.
func NewHGTTile(fsys fs.FS, filename string) (*HGTTile, error) {
	ref, err := hgtTileRef(filename)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return nil, err
	}
	n, err := hgtGridSize(len(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	samples := make([]int16, n*n)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(data[2*i : 2*i+2]))
	}
	return &HGTTile{
		ref:     ref,
		n:       n,
		cell:    1 / float64(n-1),
		samples: samples,
	}, nil
}

func (t *HGTTile) Close() error {
	return nil
}

// SampleGeo returns the sample at the grid node nearest to (lon, lat).
// Coordinates outside the tile and void samples return NaN with no error.
func (t *HGTTile) SampleGeo(lon, lat float64) (float64, error) {
	col := int(math.Round((lon - float64(t.ref.Lon)) / t.cell))
	row := int(math.Round((float64(t.ref.Lat+1) - lat) / t.cell))
	if col < 0 || t.n <= col || row < 0 || t.n <= row {
		return math.NaN(), nil
	}
	sample := t.samples[row*t.n+col]
	if sample == hgtVoid {
		return math.NaN(), nil
	}
	return float64(sample), nil
}

// scanHGTAltitudeRange reads m's backing file and records its minimum and
// maximum altitudes, ignoring voids.
func scanHGTAltitudeRange(fsys fs.FS, m *TileMetadata) error {
	t, err := NewHGTTile(fsys, m.Filename)
	if err != nil {
		return err
	}
	minAlt, maxAlt := math.Inf(1), math.Inf(-1)
	found := false
	for _, sample := range t.samples {
		if sample == hgtVoid {
			continue
		}
		minAlt = min(minAlt, float64(sample))
		maxAlt = max(maxAlt, float64(sample))
		found = true
	}
	if found {
		m.MinimumAltitude = minAlt
		m.MaximumAltitude = maxAlt
	}
	return nil
}
