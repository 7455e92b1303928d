package demtile

import (
	"fmt"
	"strconv"
	"strings"
)

// A TileRef addresses one dataset grid cell by the integer degrees of its
// south-west corner.
type TileRef struct {
	Lon int
	Lat int
}

// Stem returns the SRTM-style name stem for r, for example "N45E005" or
// "S09W072".
func (r TileRef) Stem() string {
	ns, lat := byte('N'), r.Lat
	if lat < 0 {
		ns, lat = 'S', -lat
	}
	ew, lon := byte('E'), r.Lon
	if lon < 0 {
		ew, lon = 'W', -lon
	}
	return fmt.Sprintf("%c%02d%c%03d", ns, lat, ew, lon)
}

func (r TileRef) String() string {
	return r.Stem()
}

// ParseTileRef parses an SRTM-style name stem. The hemisphere letters are
// matched case-insensitively.
func ParseTileRef(stem string) (TileRef, error) {
	s := strings.ToUpper(stem)
	if len(s) != 7 {
		return TileRef{}, fmt.Errorf("%q: %w", stem, errParse)
	}
	lat, err := strconv.Atoi(s[1:3])
	if err != nil {
		return TileRef{}, fmt.Errorf("%q: %w", stem, errParse)
	}
	lon, err := strconv.Atoi(s[4:7])
	if err != nil {
		return TileRef{}, fmt.Errorf("%q: %w", stem, errParse)
	}
	switch s[0] {
	case 'N':
	case 'S':
		lat = -lat
	default:
		return TileRef{}, fmt.Errorf("%q: %w", stem, errParse)
	}
	switch s[3] {
	case 'E':
	case 'W':
		lon = -lon
	default:
		return TileRef{}, fmt.Errorf("%q: %w", stem, errParse)
	}
	return TileRef{Lon: lon, Lat: lat}, nil
}
