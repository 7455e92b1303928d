package demtile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

var errUnknownFormat = errors.New("unknown raster format")

// A RasterFormat identifies the file format of an elevation raster.
type RasterFormat uint8

const (
	FormatUnknown RasterFormat = iota
	FormatSRTMHGT
	FormatGeoTIFF
	FormatASCIIGrid
	FormatNetCDF
)

var rasterFormatNames = map[RasterFormat]string{
	FormatUnknown:   "UNKNOWN",
	FormatSRTMHGT:   "SRTM_HGT",
	FormatGeoTIFF:   "GEOTIFF",
	FormatASCIIGrid: "ASCII_GRID",
	FormatNetCDF:    "NETCDF",
}

var rasterFormatExtensions = map[RasterFormat]string{
	FormatSRTMHGT:   ".hgt",
	FormatGeoTIFF:   ".tif",
	FormatASCIIGrid: ".asc",
	FormatNetCDF:    ".nc",
}

// Name returns f's canonical name.
func (f RasterFormat) Name() string {
	if name, ok := rasterFormatNames[f]; ok {
		return name
	}
	return rasterFormatNames[FormatUnknown]
}

// Extension returns f's canonical filename extension, including the leading
// dot. The extension of FormatUnknown is empty.
func (f RasterFormat) Extension() string {
	return rasterFormatExtensions[f]
}

func (f RasterFormat) String() string {
	return f.Name()
}

// ParseRasterFormat returns the RasterFormat with the given canonical name.
func ParseRasterFormat(name string) (RasterFormat, error) {
	for format, formatName := range rasterFormatNames {
		if format != FormatUnknown && formatName == name {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("%q: %w", name, errUnknownFormat)
}

// FormatForFilename returns the RasterFormat for filename, dispatching on its
// extension. Extensions are matched case-insensitively and ".tiff" is
// accepted as an alias for ".tif".
func FormatForFilename(filename string) (RasterFormat, bool) {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
	if ext == ".tiff" {
		ext = ".tif"
	}
	for format, formatExt := range rasterFormatExtensions {
		if ext == formatExt {
			return format, true
		}
	}
	return FormatUnknown, false
}

// MarshalJSON marshals f as its canonical name.
func (f RasterFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Name())
}

// UnmarshalJSON unmarshals a canonical format name. Names outside the closed
// set are an error.
func (f *RasterFormat) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	format, err := ParseRasterFormat(name)
	if err != nil {
		return err
	}
	*f = format
	return nil
}

// UnmarshalYAML unmarshals a canonical format name, as used in dataset
// registry files.
func (f *RasterFormat) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	format, err := ParseRasterFormat(name)
	if err != nil {
		return err
	}
	*f = format
	return nil
}
