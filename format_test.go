package demtile_test

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"

	demtile "github.com/twpayne/go-demtile"
)

func TestFormatForFilename(t *testing.T) {
	for _, tc := range []struct {
		filename string
		expected demtile.RasterFormat
		ok       bool
	}{
		{filename: "N45E005.hgt", expected: demtile.FormatSRTMHGT, ok: true},
		{filename: "N45E005.HGT", expected: demtile.FormatSRTMHGT, ok: true},
		{filename: "europe/eu_dem.tif", expected: demtile.FormatGeoTIFF, ok: true},
		{filename: "eu_dem.tiff", expected: demtile.FormatGeoTIFF, ok: true},
		{filename: "eu_dem.TIF", expected: demtile.FormatGeoTIFF, ok: true},
		{filename: "grid.asc", expected: demtile.FormatASCIIGrid, ok: true},
		{filename: "grid.nc", expected: demtile.FormatNetCDF, ok: true},
		{filename: "readme.txt", expected: demtile.FormatUnknown, ok: false},
		{filename: "noextension", expected: demtile.FormatUnknown, ok: false},
	} {
		t.Run(tc.filename, func(t *testing.T) {
			actual, ok := demtile.FormatForFilename(tc.filename)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestRasterFormat_NameExtension(t *testing.T) {
	assert.Equal(t, "SRTM_HGT", demtile.FormatSRTMHGT.Name())
	assert.Equal(t, ".hgt", demtile.FormatSRTMHGT.Extension())
	assert.Equal(t, "GEOTIFF", demtile.FormatGeoTIFF.String())
	assert.Equal(t, "UNKNOWN", demtile.FormatUnknown.Name())
	assert.Equal(t, "", demtile.FormatUnknown.Extension())
}

func TestRasterFormat_JSONRoundTrip(t *testing.T) {
	for _, format := range []demtile.RasterFormat{
		demtile.FormatSRTMHGT,
		demtile.FormatGeoTIFF,
		demtile.FormatASCIIGrid,
		demtile.FormatNetCDF,
	} {
		t.Run(format.Name(), func(t *testing.T) {
			data, err := json.Marshal(format)
			assert.NoError(t, err)
			var actual demtile.RasterFormat
			assert.NoError(t, json.Unmarshal(data, &actual))
			assert.Equal(t, format, actual)
		})
	}
}

func TestRasterFormat_UnmarshalJSON_Unknown(t *testing.T) {
	var format demtile.RasterFormat
	assert.Error(t, json.Unmarshal([]byte(`"ERDAS_IMG"`), &format))
	assert.Error(t, json.Unmarshal([]byte(`"UNKNOWN"`), &format))
}

func TestParseRasterFormat(t *testing.T) {
	format, err := demtile.ParseRasterFormat("SRTM_HGT")
	assert.NoError(t, err)
	assert.Equal(t, demtile.FormatSRTMHGT, format)
	_, err = demtile.ParseRasterFormat("srtm_hgt")
	assert.Error(t, err)
}
