package demtile

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func geographicIFD() *geoTIFFIFD {
	return &geoTIFFIFD{
		ImageWidth:         3600,
		ImageLength:        3600,
		BitsPerSample:      16,
		Compression:        1,
		SamplesPerPixel:    1,
		SampleFormat:       2,
		ModelPixelScaleTag: []float64{1.0 / 3600, 1.0 / 3600, 0},
		ModelTiepointTag:   []float64{0, 0, 0, 5, 46, 0},
		GeoKeyDirectoryTag: []uint16{
			1, 1, 0, 2,
			1024, 0, 1, 2, // Geographic.
			1025, 0, 1, 1, // Pixel is area.
		},
		GDALNoData: "-9999",
	}
}

func TestMetadataFromGeoTIFFIFD_Area(t *testing.T) {
	m, err := metadataFromGeoTIFFIFD("n45e005.tif", geographicIFD())
	assert.NoError(t, err)

	assert.Equal(t, FormatGeoTIFF, m.Format)
	assert.Equal(t, 3600, m.Width)
	assert.Equal(t, 3600, m.Height)
	assert.Equal(t, 1.0/3600, m.PixelScaleX)
	assert.Equal(t, 1.0/3600, m.PixelSizeX)
	assert.Equal(t, 46.0, m.DataStartLat)
	assert.Equal(t, 45.0, m.DataEndLat)
	assert.Equal(t, 5.0, m.DataStartLon)
	assert.Equal(t, 6.0, m.DataEndLon)
	assert.Equal(t, m.DataStartLat, m.PhysicalStartLat)
	assert.Equal(t, m.DataEndLon, m.PhysicalEndLon)
	assert.Equal(t, 16, m.BitsPerSample)
	assert.Equal(t, 7200, m.ScanlineSize)
	assert.Equal(t, "INT16", m.SampleFormat)
	assert.Equal(t, "-9999", m.NoDataValue)
	assert.Equal(t, NewBoundingBox(5, 6, 45, 46), m.BoundingBox())
}

func TestMetadataFromGeoTIFFIFD_Point(t *testing.T) {
	ifd := geographicIFD()
	ifd.ImageWidth = 3601
	ifd.ImageLength = 3601
	ifd.GeoKeyDirectoryTag = []uint16{
		1, 1, 0, 2,
		1024, 0, 1, 2,
		1025, 0, 1, 2, // Pixel is point.
	}
	m, err := metadataFromGeoTIFFIFD("n45e005.tif", ifd)
	assert.NoError(t, err)

	cell := 1.0 / 3600
	assert.Equal(t, 46.0, m.DataStartLat)
	assert.Equal(t, 45.0, m.DataEndLat)
	assert.Equal(t, 5.0, m.DataStartLon)
	assert.Equal(t, 6.0, m.DataEndLon)
	assert.Equal(t, 46.0+cell/2, m.PhysicalStartLat)
	assert.Equal(t, 45.0-cell/2, m.PhysicalEndLat)
	assert.Equal(t, 5.0-cell/2, m.PhysicalStartLon)
	assert.Equal(t, 6.0+cell/2, m.PhysicalEndLon)
}

func TestMetadataFromGeoTIFFIFD_Float32(t *testing.T) {
	ifd := geographicIFD()
	ifd.BitsPerSample = 32
	ifd.SampleFormat = 3
	m, err := metadataFromGeoTIFFIFD("n45e005.tif", ifd)
	assert.NoError(t, err)
	assert.Equal(t, "FLOAT32", m.SampleFormat)
	assert.Equal(t, 14400, m.ScanlineSize)
}

func TestMetadataFromGeoTIFFIFD_Projected(t *testing.T) {
	ifd := geographicIFD()
	ifd.GeoKeyDirectoryTag = []uint16{
		1, 1, 0, 1,
		1024, 0, 1, 1, // Projected.
	}
	_, err := metadataFromGeoTIFFIFD("eu_dem.tif", ifd)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestMetadataFromGeoTIFFIFD_MultiBand(t *testing.T) {
	ifd := geographicIFD()
	ifd.SamplesPerPixel = 3
	_, err := metadataFromGeoTIFFIFD("rgb.tif", ifd)
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}
