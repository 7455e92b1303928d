package demtile

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// A TileKey identifies a tile by the final path component of its filename.
// Comparison is byte-wise and case-sensitive, regardless of the host
// filesystem's case rules. Keys deliberately ignore directories: two tiles
// with the same base name in different directories share a key, so a catalog
// cannot hold both. Callers that index trees with duplicate base names must
// disambiguate before cataloging.
type TileKey string

// KeyForFilename returns the TileKey for filename. Backslashes are
// normalized to slashes before the base name is taken.
func KeyForFilename(filename string) TileKey {
	return TileKey(path.Base(strings.ReplaceAll(filename, `\`, "/")))
}

// A TileMetadata describes a single elevation-raster tile file well enough
// for a spatial index to place it without opening it: geometric placement,
// sample layout, and schema version. The JSON field names are the persisted
// form and must remain stable.
//
// A TileMetadata is immutable after construction, with one exception: a
// freshly cloned virtual record may have its extrema rewritten before its
// bounding box is first accessed. Mutating fields after a derived cache has
// been populated breaks the caching contract.
type TileMetadata struct {
	Filename         string       `json:"filename"`
	Format           RasterFormat `json:"file_format"`
	Version          string       `json:"version"`
	Height           int          `json:"height"`
	Width            int          `json:"width"`
	PixelScaleX      float64      `json:"pixel_scale_x"`
	PixelScaleY      float64      `json:"pixel_scale_y"`
	PixelSizeX       float64      `json:"pixel_size_x"`
	PixelSizeY       float64      `json:"pixel_size_y"`
	DataStartLat     float64      `json:"data_start_lat"`
	DataStartLon     float64      `json:"data_start_lon"`
	DataEndLat       float64      `json:"data_end_lat"`
	DataEndLon       float64      `json:"data_end_lon"`
	PhysicalStartLat float64      `json:"physical_start_lat"`
	PhysicalStartLon float64      `json:"physical_start_lon"`
	PhysicalEndLat   float64      `json:"physical_end_lat"`
	PhysicalEndLon   float64      `json:"physical_end_lon"`
	BitsPerSample    int          `json:"bits_per_sample"`
	ScanlineSize     int          `json:"scanline_size"`
	WorldUnits       string       `json:"world_units"`
	SampleFormat     string       `json:"sample_format"`
	NoDataValue      string       `json:"nodata_value"`
	MinimumAltitude  float64      `json:"minimum_altitude"`
	MaximumAltitude  float64      `json:"maximum_altitude"`
	Virtual          bool         `json:"-"`

	keyOnce sync.Once
	key     TileKey

	boundingBoxOnce sync.Once
	boundingBox     BoundingBox

	noDataMutex  sync.Mutex
	noDataCached bool
	noDataFloat  float64
	noDataErr    error
}

// A TileMetadataOption sets an option on a TileMetadata.
type TileMetadataOption func(*TileMetadata)

// WithMetadataVersion overrides the default schema version. It exists for
// tooling that reconstructs records of a known older build; nothing else
// should set it.
func WithMetadataVersion(version string) TileMetadataOption {
	return func(m *TileMetadata) {
		m.Version = version
	}
}

// NewTileMetadata returns a new TileMetadata for filename with the current
// schema version. No field validation is performed; callers are responsible
// for supplying consistent geometry. The zero value is the deserialization
// target and is populated by the decoder instead.
func NewTileMetadata(filename string, format RasterFormat, options ...TileMetadataOption) *TileMetadata {
	m := &TileMetadata{
		Filename: filename,
		Format:   format,
		Version:  MetadataVersion,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Key returns m's TileKey. It is computed on first access and stable for the
// lifetime of m.
func (m *TileMetadata) Key() TileKey {
	m.keyOnce.Do(func() {
		m.key = KeyForFilename(m.Filename)
	})
	return m.key
}

// Equal reports whether m and other identify the same tile. Equality reduces
// to TileKey equality, so records whose filenames differ only by directory
// compare equal. A nil other is never equal.
func (m *TileMetadata) Equal(other *TileMetadata) bool {
	if other == nil {
		return false
	}
	return m.Key() == other.Key()
}

// BoundingBox returns the normalized bounding box of m's data-space extrema.
// The extrema may be supplied in either ascending or descending order; the
// result always has min <= max on both axes. All-zero extrema yield the
// degenerate point at (0, 0), which is valid. The box is computed at most
// once per instance.
func (m *TileMetadata) BoundingBox() BoundingBox {
	m.boundingBoxOnce.Do(func() {
		m.boundingBox = BoundingBox{
			MinLon: min(m.DataStartLon, m.DataEndLon),
			MaxLon: max(m.DataStartLon, m.DataEndLon),
			MinLat: min(m.DataStartLat, m.DataEndLat),
			MaxLat: max(m.DataStartLat, m.DataEndLat),
		}
	})
	return m.boundingBox
}

// NoDataValueFloat returns m's no-data sentinel as a float64. The textual
// value is parsed exactly once; the outcome, including a parse error, is
// cached and returned unchanged by later calls. A Unicode minus sign is
// tolerated.
func (m *TileMetadata) NoDataValueFloat() (float64, error) {
	m.noDataMutex.Lock()
	defer m.noDataMutex.Unlock()
	if !m.noDataCached {
		s := strings.ReplaceAll(m.NoDataValue, "−", "-")
		m.noDataFloat, m.noDataErr = strconv.ParseFloat(s, 64)
		m.noDataCached = true
	}
	return m.noDataFloat, m.noDataErr
}

// SetNoDataValueFloat sets m's numeric no-data value directly, bypassing
// parsing and marking the cache populated.
func (m *TileMetadata) SetNoDataValueFloat(value float64) {
	m.noDataMutex.Lock()
	defer m.noDataMutex.Unlock()
	m.noDataFloat = value
	m.noDataErr = nil
	m.noDataCached = true
}

// CloneVirtual returns a virtual copy of m with a freshly generated synthetic
// filename that cannot collide with any real record or other clone.
func (m *TileMetadata) CloneVirtual() *TileMetadata {
	return m.CloneVirtualNamed("virtual-" + uuid.NewString() + m.Format.Extension())
}

// CloneVirtualNamed returns a virtual copy of m identified by filename. All
// layout and geometry fields are duplicated; the derived caches are left
// empty, so the clone's bounding box is recomputed lazily from the copied
// extrema.
func (m *TileMetadata) CloneVirtualNamed(filename string) *TileMetadata {
	return &TileMetadata{
		Filename:         filename,
		Format:           m.Format,
		Version:          m.Version,
		Height:           m.Height,
		Width:            m.Width,
		PixelScaleX:      m.PixelScaleX,
		PixelScaleY:      m.PixelScaleY,
		PixelSizeX:       m.PixelSizeX,
		PixelSizeY:       m.PixelSizeY,
		DataStartLat:     m.DataStartLat,
		DataStartLon:     m.DataStartLon,
		DataEndLat:       m.DataEndLat,
		DataEndLon:       m.DataEndLon,
		PhysicalStartLat: m.PhysicalStartLat,
		PhysicalStartLon: m.PhysicalStartLon,
		PhysicalEndLat:   m.PhysicalEndLat,
		PhysicalEndLon:   m.PhysicalEndLon,
		BitsPerSample:    m.BitsPerSample,
		ScanlineSize:     m.ScanlineSize,
		WorldUnits:       m.WorldUnits,
		SampleFormat:     m.SampleFormat,
		NoDataValue:      m.NoDataValue,
		MinimumAltitude:  m.MinimumAltitude,
		MaximumAltitude:  m.MaximumAltitude,
		Virtual:          true,
	}
}

// String returns m's base name and bounding box. It is for diagnostics only
// and is not part of any persisted form.
func (m *TileMetadata) String() string {
	return fmt.Sprintf("%s %v", m.Key(), m.BoundingBox())
}
