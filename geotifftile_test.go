package demtile_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"testing/fstest"

	"github.com/alecthomas/assert/v2"

	demtile "github.com/twpayne/go-demtile"
)

// makeTiledGeoTIFF returns a minimal little-endian tiled GeoTIFF: a single
// 32x32 internal tile of uncompressed int16 samples covering [5, 6] x
// [45, 46], area-registered, with GDAL no-data -32768. samples are overrides
// by flat pixel index from the north-west corner.
func makeTiledGeoTIFF(fill int16, overrides map[int]int16) []byte {
	const (
		imageSize    = 32
		tileDataLen  = 2 * imageSize * imageSize
		ifdOffset    = 8 + tileDataLen
		entryCount   = 15
		externalBase = ifdOffset + 2 + 12*entryCount + 4
	)

	samples := make([]int16, imageSize*imageSize)
	for i := range samples {
		samples[i] = fill
	}
	for i, value := range overrides {
		samples[i] = value
	}

	buf := &bytes.Buffer{}
	le := binary.LittleEndian

	// Header.
	buf.Write([]byte{'I', 'I', 42, 0})
	binary.Write(buf, le, uint32(ifdOffset))

	// Tile data.
	binary.Write(buf, le, samples)

	// IFD.
	binary.Write(buf, le, uint16(entryCount))
	entry := func(tag, fieldType uint16, count, value uint32) {
		binary.Write(buf, le, tag)
		binary.Write(buf, le, fieldType)
		binary.Write(buf, le, count)
		binary.Write(buf, le, value)
	}
	const (
		typeASCII  = 2
		typeShort  = 3
		typeLong   = 4
		typeDouble = 12
	)
	entry(256, typeShort, 1, imageSize)             // ImageWidth.
	entry(257, typeShort, 1, imageSize)             // ImageLength.
	entry(258, typeShort, 1, 16)                    // BitsPerSample.
	entry(259, typeShort, 1, 1)                     // Compression: none.
	entry(262, typeShort, 1, 1)                     // PhotometricInterpretation.
	entry(277, typeShort, 1, 1)                     // SamplesPerPixel.
	entry(322, typeShort, 1, imageSize)             // TileWidth.
	entry(323, typeShort, 1, imageSize)             // TileLength.
	entry(324, typeLong, 1, 8)                      // TileOffsets.
	entry(325, typeLong, 1, tileDataLen)            // TileByteCounts.
	entry(339, typeShort, 1, 2)                     // SampleFormat: signed integer.
	entry(33550, typeDouble, 3, externalBase)       // ModelPixelScaleTag.
	entry(33922, typeDouble, 6, externalBase+24)    // ModelTiepointTag.
	entry(34735, typeShort, 12, externalBase+24+48) // GeoKeyDirectoryTag.
	entry(42113, typeASCII, 7, externalBase+96)     // GDALNoData.
	binary.Write(buf, le, uint32(0)) // Next IFD.

	// External values.
	binary.Write(buf, le, []float64{1.0 / imageSize, 1.0 / imageSize, 0})
	binary.Write(buf, le, []float64{0, 0, 0, 5, 46, 0})
	binary.Write(buf, le, []uint16{
		1, 1, 0, 2,
		1024, 0, 1, 2, // Geographic.
		1025, 0, 1, 1, // Pixel is area.
	})
	buf.WriteString("-32768\x00")

	return buf.Bytes()
}

func TestNewGeoTIFFTile_SampleGeo(t *testing.T) {
	fsys := fstest.MapFS{
		"n45e005.tif": &fstest.MapFile{Data: makeTiledGeoTIFF(7, map[int]int16{
			0: 1234,   // North-west pixel.
			1: -32768, // No-data pixel.
		})},
	}
	tile, err := demtile.NewGeoTIFFTile(fsys, "n45e005.tif")
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, tile.Close())
	}()

	for _, tc := range []struct {
		name     string
		lon, lat float64
		expected float64
	}{
		{name: "north_west_pixel", lon: 5.001, lat: 45.999, expected: 1234},
		{name: "interior_fill", lon: 5.5, lat: 45.5, expected: 7},
		{name: "no_data_pixel", lon: 5 + 1.5/32, lat: 45.999, expected: math.NaN()},
		{name: "west_of_image", lon: 4.5, lat: 45.5, expected: math.NaN()},
		{name: "south_of_image", lon: 5.5, lat: 44.5, expected: math.NaN()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tile.SampleGeo(tc.lon, tc.lat)
			assert.NoError(t, err)
			if math.IsNaN(tc.expected) {
				assert.True(t, math.IsNaN(actual))
			} else {
				assert.Equal(t, tc.expected, actual)
			}
		})
	}
}

func TestExtractMetadata_GeoTIFF(t *testing.T) {
	fsys := fstest.MapFS{
		"n45e005.tif": &fstest.MapFile{Data: makeTiledGeoTIFF(7, nil)},
	}
	m, err := demtile.ExtractMetadata(fsys, "n45e005.tif")
	assert.NoError(t, err)

	assert.Equal(t, demtile.FormatGeoTIFF, m.Format)
	assert.Equal(t, 32, m.Width)
	assert.Equal(t, 32, m.Height)
	assert.Equal(t, 1.0/32, m.PixelScaleX)
	assert.Equal(t, 1.0/32, m.PixelSizeY)
	assert.Equal(t, 46.0, m.DataStartLat)
	assert.Equal(t, 45.0, m.DataEndLat)
	assert.Equal(t, 5.0, m.DataStartLon)
	assert.Equal(t, 6.0, m.DataEndLon)
	assert.Equal(t, 16, m.BitsPerSample)
	assert.Equal(t, 64, m.ScanlineSize)
	assert.Equal(t, "INT16", m.SampleFormat)
	assert.Equal(t, "-32768", m.NoDataValue)
	assert.Equal(t, demtile.NewBoundingBox(5, 6, 45, 46), m.BoundingBox())
}

func TestNewGeoTIFFTile_NotATIFF(t *testing.T) {
	fsys := fstest.MapFS{
		"bogus.tif": &fstest.MapFile{Data: []byte("not a tiff at all")},
	}
	_, err := demtile.NewGeoTIFFTile(fsys, "bogus.tif")
	assert.Error(t, err)
}
