package demtile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
	_ "github.com/google/tiff/geotiff"
)

// A geoTIFFIFD is a struct into which github.com/google/tiff can unmarshal an
// IFD.
type geoTIFFIFD struct {
	ImageWidth                uint16    `tiff:"field,tag=256"`
	ImageLength               uint16    `tiff:"field,tag=257"`
	BitsPerSample             uint16    `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	Predictor                 uint16    `tiff:"field,tag=317"`
	TileWidth                 uint16    `tiff:"field,tag=322"`
	TileLength                uint16    `tiff:"field,tag=323"`
	TileOffsets               []uint64  `tiff:"field,tag=324"`
	TileByteCounts            []uint64  `tiff:"field,tag=325"`
	SampleFormat              uint16    `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoASCIIParamsTag         string    `tiff:"field,tag=34737"`
	GDALMetadata              string    `tiff:"field,tag=42112"`
	GDALNoData                string    `tiff:"field,tag=42113"`
}

// parseGeoTIFFIFD opens filename in fsys and unmarshals its single IFD. Only
// the header structures are decoded; no sample data is read. The opened file
// is returned so that readers can keep it for sample access; metadata-only
// callers close it.
func parseGeoTIFFIFD(fsys fs.FS, filename string) (*geoTIFFIFD, fs.File, error) {
	file, err := fsys.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = file.Close()
		}
	}()

	var rars tiff.ReadAtReadSeeker
	if f, isRARS := file.(tiff.ReadAtReadSeeker); isRARS {
		rars = f
	} else {
		// Not seekable, e.g. a testing fs.FS. Fall back to reading the whole
		// file into memory.
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, nil, err
		}
		rars = bytes.NewReader(data)
	}

	tiffTIFF, err := tiff.Parse(rars, tiff.GetTagSpace("GeoTIFF"), nil)
	if err != nil {
		return nil, nil, err
	}
	if len(tiffTIFF.IFDs()) != 1 {
		return nil, nil, fmt.Errorf("found %d IFDs, expected 1", len(tiffTIFF.IFDs()))
	}

	var ifd geoTIFFIFD
	if err := tiff.UnmarshalIFD(tiffTIFF.IFDs()[0], &ifd); err != nil {
		return nil, nil, err
	}

	ok = true
	return &ifd, file, nil
}

func extractGeoTIFFMetadata(fsys fs.FS, filename string) (*TileMetadata, error) {
	ifd, file, err := parseGeoTIFFIFD(fsys, filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return metadataFromGeoTIFFIFD(filename, ifd)
}

// metadataFromGeoTIFFIFD maps an IFD to a TileMetadata record. Only
// single-band geographic (lat/lon) rasters are in contract; projected rasters
// return errors.ErrUnsupported.
func metadataFromGeoTIFFIFD(filename string, ifd *geoTIFFIFD) (*TileMetadata, error) {
	if ifd.SamplesPerPixel != 1 ||
		len(ifd.ModelPixelScaleTag) != 3 ||
		len(ifd.ModelTiepointTag) < 6 ||
		ifd.ModelTiepointTag[0] != 0 || ifd.ModelTiepointTag[1] != 0 {
		return nil, errors.ErrUnsupported
	}

	rasterType := geoRasterTypePixelIsArea
	if len(ifd.GeoKeyDirectoryTag) > 0 {
		geoKeys, err := ParseGeoKeys(ifd.GeoKeyDirectoryTag, ifd.GeoDoubleParamsTag, []byte(ifd.GeoASCIIParamsTag))
		if err != nil {
			return nil, err
		}
		if modelType, ok := geoKeys.Params[GeoKeyGTModelType]; ok && modelType != geoModelTypeGeographic {
			return nil, errors.ErrUnsupported
		}
		if rt, ok := geoKeys.Params[GeoKeyGTRasterType]; ok {
			rasterType = rt
		}
	}

	width := int(ifd.ImageWidth)
	height := int(ifd.ImageLength)
	scaleX := ifd.ModelPixelScaleTag[0]
	scaleY := ifd.ModelPixelScaleTag[1]
	originLon := ifd.ModelTiepointTag[3]
	originLat := ifd.ModelTiepointTag[4]

	m := NewTileMetadata(filename, FormatGeoTIFF)
	m.Width = width
	m.Height = height
	m.PixelScaleX = scaleX
	m.PixelScaleY = scaleY
	m.PixelSizeX = scaleX
	m.PixelSizeY = scaleY
	m.BitsPerSample = int(ifd.BitsPerSample)
	m.ScanlineSize = width * int(ifd.BitsPerSample) / 8
	m.WorldUnits = "degrees"
	m.SampleFormat = sampleFormatName(ifd.SampleFormat, int(ifd.BitsPerSample))
	m.NoDataValue = strings.TrimRight(ifd.GDALNoData, "\x00")

	switch rasterType {
	case geoRasterTypePixelIsPoint:
		// Cell-centered: the tiepoint is the north-west node, data extrema run
		// node to node, and the physical image extends half a cell beyond.
		m.DataStartLat = originLat
		m.DataEndLat = originLat - float64(height-1)*scaleY
		m.DataStartLon = originLon
		m.DataEndLon = originLon + float64(width-1)*scaleX
		m.PhysicalStartLat = m.DataStartLat + scaleY/2
		m.PhysicalEndLat = m.DataEndLat - scaleY/2
		m.PhysicalStartLon = m.DataStartLon - scaleX/2
		m.PhysicalEndLon = m.DataEndLon + scaleX/2
	default:
		// Area-registered: the tiepoint is the north-west corner and data and
		// physical extrema coincide.
		m.DataStartLat = originLat
		m.DataEndLat = originLat - float64(height)*scaleY
		m.DataStartLon = originLon
		m.DataEndLon = originLon + float64(width)*scaleX
		m.PhysicalStartLat = m.DataStartLat
		m.PhysicalEndLat = m.DataEndLat
		m.PhysicalStartLon = m.DataStartLon
		m.PhysicalEndLon = m.DataEndLon
	}

	return m, nil
}

func sampleFormatName(sampleFormat uint16, bitsPerSample int) string {
	switch sampleFormat {
	case 2:
		return fmt.Sprintf("INT%d", bitsPerSample)
	case 3:
		return fmt.Sprintf("FLOAT%d", bitsPerSample)
	default:
		// TIFF's default sample format is unsigned integer.
		return fmt.Sprintf("UINT%d", bitsPerSample)
	}
}
