package demtile

import (
	"errors"
	"fmt"
	"io/fs"
)

// ExtractMetadata builds a TileMetadata record for filename by reading only
// the file's header structures. The format is dispatched on the filename
// extension. ASCII grid and NetCDF rasters are enumerated but extraction for
// them is not implemented and returns errors.ErrUnsupported.
func ExtractMetadata(fsys fs.FS, filename string) (*TileMetadata, error) {
	format, ok := FormatForFilename(filename)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filename, errUnknownFormat)
	}
	switch format {
	case FormatSRTMHGT:
		return extractHGTMetadata(fsys, filename)
	case FormatGeoTIFF:
		return extractGeoTIFFMetadata(fsys, filename)
	default:
		return nil, fmt.Errorf("%s: %s: %w", filename, format, errors.ErrUnsupported)
	}
}
