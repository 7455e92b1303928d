package demtile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/tiff/lzw"
)

var errShortRead = errors.New("short read")

// A gridCoord addresses one internal tile of a tiled GeoTIFF.
type gridCoord struct {
	c int // Column.
	r int // Row.
}

// A GeoTIFFTile is an open geographic GeoTIFF elevation tile. It reads
// internal tiles on demand and caches the decoded samples.
type GeoTIFFTile struct {
	r                         io.ReaderAt
	closer                    io.Closer
	imageWidth                int
	imageLength               int
	tileWidth                 int
	tileLength                int
	tilesAcross               int
	tilesDown                 int
	tileOffsets               []uint64
	tileByteCounts            []uint64
	compression               uint16
	sampleFormat              uint16
	bitsPerSample             int
	tileSampleCount           int
	tileByteCountUncompressed int
	tileCacheSizeBytes        int
	noData                    float64
	hasNoData                 bool
	scaleX                    float64
	scaleY                    float64
	originLon                 float64
	originLat                 float64

	mutex            sync.Mutex
	tileSamplesCache *lru.Cache[gridCoord, []float64]
}

type GeoTIFFTileOption func(*GeoTIFFTile)

func WithTileCacheSize(tileCacheSizeBytes int) GeoTIFFTileOption {
	return func(f *GeoTIFFTile) {
		f.tileCacheSizeBytes = tileCacheSizeBytes
	}
}

// NewGeoTIFFTile returns a new GeoTIFFTile. Only single-band tiled rasters
// with int16 or float32 samples, uncompressed or LZW-compressed, are in
// contract; anything else returns errors.ErrUnsupported.
func NewGeoTIFFTile(fsys fs.FS, filename string, options ...GeoTIFFTileOption) (*GeoTIFFTile, error) {
	f := &GeoTIFFTile{
		tileCacheSizeBytes: 128 << 20, // 128MB.
	}
	for _, option := range options {
		option(f)
	}

	ifd, file, err := parseGeoTIFFIFD(fsys, filename)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = file.Close()
		}
	}()

	if ifd.SamplesPerPixel != 1 ||
		(ifd.PlanarConfiguration != 0 && ifd.PlanarConfiguration != 1) ||
		(ifd.Predictor != 0 && ifd.Predictor != 1) ||
		(ifd.Compression != 1 && ifd.Compression != 5) ||
		ifd.TileWidth == 0 || ifd.TileLength == 0 {
		return nil, errors.ErrUnsupported
	}
	switch {
	case ifd.BitsPerSample == 16 && ifd.SampleFormat == 2:
	case ifd.BitsPerSample == 32 && ifd.SampleFormat == 3:
	default:
		return nil, errors.ErrUnsupported
	}
	if len(ifd.ModelPixelScaleTag) != 3 ||
		len(ifd.ModelTiepointTag) < 6 ||
		ifd.ModelTiepointTag[0] != 0 || ifd.ModelTiepointTag[1] != 0 {
		return nil, errors.ErrUnsupported
	}

	if ra, isReaderAt := file.(io.ReaderAt); isReaderAt {
		f.r = ra
		f.closer = file
	} else {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		f.r = bytes.NewReader(data)
		f.closer = file
	}

	f.imageWidth = int(ifd.ImageWidth)
	f.imageLength = int(ifd.ImageLength)
	f.tileWidth = int(ifd.TileWidth)
	f.tileLength = int(ifd.TileLength)
	f.tilesAcross = (f.imageWidth + f.tileWidth - 1) / f.tileWidth
	f.tilesDown = (f.imageLength + f.tileLength - 1) / f.tileLength
	tilesPerImage := f.tilesAcross * f.tilesDown
	if len(ifd.TileByteCounts) != tilesPerImage || len(ifd.TileOffsets) != tilesPerImage {
		return nil, errors.New("incorrect number of tile byte counts or offsets")
	}
	f.tileOffsets = ifd.TileOffsets
	f.tileByteCounts = ifd.TileByteCounts
	f.compression = ifd.Compression
	f.sampleFormat = ifd.SampleFormat
	f.bitsPerSample = int(ifd.BitsPerSample)
	f.tileSampleCount = f.tileWidth * f.tileLength
	f.tileByteCountUncompressed = f.tileSampleCount * f.bitsPerSample / 8

	f.scaleX = ifd.ModelPixelScaleTag[0]
	f.scaleY = ifd.ModelPixelScaleTag[1]
	f.originLon = ifd.ModelTiepointTag[3]
	f.originLat = ifd.ModelTiepointTag[4]

	if noData, err := strconv.ParseFloat(strings.TrimRight(ifd.GDALNoData, "\x00"), 64); err == nil {
		f.noData = noData
		f.hasNoData = true
	}

	tileCacheCount := max(f.tileCacheSizeBytes/(8*f.tileSampleCount), 1)
	f.tileSamplesCache, err = lru.New[gridCoord, []float64](tileCacheCount)
	if err != nil {
		return nil, err
	}

	ok = true
	return f, nil
}

func (f *GeoTIFFTile) Close() error {
	return f.closer.Close()
}

// SampleGeo returns the sample covering (lon, lat). Coordinates outside the
// image and no-data samples return NaN with no error.
func (f *GeoTIFFTile) SampleGeo(lon, lat float64) (float64, error) {
	col := int(math.Floor((lon - f.originLon) / f.scaleX))
	row := int(math.Floor((f.originLat - lat) / f.scaleY))
	if col < 0 || f.imageWidth <= col || row < 0 || f.imageLength <= row {
		return math.NaN(), nil
	}
	tileSamples, err := f.getTileSamplesCached(gridCoord{
		c: col / f.tileWidth,
		r: row / f.tileLength,
	})
	if err != nil {
		return 0, err
	}
	sample := tileSamples[col%f.tileWidth+(row%f.tileLength)*f.tileWidth]
	if f.isNoData(sample) {
		return math.NaN(), nil
	}
	return sample, nil
}

func (f *GeoTIFFTile) isNoData(sample float64) bool {
	if !f.hasNoData {
		return false
	}
	// GDAL records the sentinel as a decimal string; for float32 rasters the
	// parsed float64 may differ from the widened sample in the last bits, so
	// compare at the raster's precision.
	if f.bitsPerSample == 32 && f.sampleFormat == 3 {
		return float32(sample) == float32(f.noData)
	}
	return sample == f.noData
}

// getTileSamplesCached returns the decoded samples of the internal tile at
// coord, using f's cache.
func (f *GeoTIFFTile) getTileSamplesCached(coord gridCoord) ([]float64, error) {
	if tileSamples, ok := f.tileSamplesCache.Get(coord); ok {
		return tileSamples, nil
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if tileSamples, ok := f.tileSamplesCache.Get(coord); ok {
		return tileSamples, nil
	}

	tileSamples, err := f.readTileSamples(coord)
	if err != nil {
		return nil, err
	}
	f.tileSamplesCache.Add(coord, tileSamples)
	return tileSamples, nil
}

// readTileSamples reads, decompresses, and decodes the internal tile at
// coord.
func (f *GeoTIFFTile) readTileSamples(coord gridCoord) ([]float64, error) {
	tileIndex := coord.c + f.tilesAcross*coord.r
	tileByteCount := f.tileByteCounts[tileIndex]
	tileOffset := f.tileOffsets[tileIndex]
	tileData := make([]byte, tileByteCount)
	switch n, err := f.r.ReadAt(tileData, int64(tileOffset)); {
	case err != nil:
		return nil, err
	case n != int(tileByteCount):
		return nil, errShortRead
	}

	if f.compression == 5 {
		var err error
		tileData, err = f.decompressTileData(tileData)
		if err != nil {
			return nil, err
		}
	} else if len(tileData) != f.tileByteCountUncompressed {
		return nil, errShortRead
	}

	return f.decodeTileData(tileData), nil
}

// decompressTileData decompresses the LZW tile data in compressedData.
func (f *GeoTIFFTile) decompressTileData(compressedData []byte) ([]byte, error) {
	tileData := make([]byte, f.tileByteCountUncompressed)
	r := lzw.NewReader(bytes.NewReader(compressedData), lzw.MSB, 8)
	for bytesRead := 0; bytesRead < f.tileByteCountUncompressed; {
		n, err := r.Read(tileData[bytesRead:])
		if err != nil {
			return nil, err
		}
		bytesRead += n
	}
	return tileData, nil
}

// decodeTileData decodes tileData into float64 samples.
func (f *GeoTIFFTile) decodeTileData(tileData []byte) []float64 {
	tileSamples := make([]float64, f.tileSampleCount)
	switch {
	case f.bitsPerSample == 16:
		for i := range f.tileSampleCount {
			tileSamples[i] = float64(int16(binary.LittleEndian.Uint16(tileData[2*i : 2*i+2])))
		}
	default:
		for i := range f.tileSampleCount {
			b := binary.LittleEndian.Uint32(tileData[4*i : 4*i+4])
			tileSamples[i] = float64(math.Float32frombits(b))
		}
	}
	return tileSamples
}
