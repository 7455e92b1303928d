package demtile

import "fmt"

// A BoundingBox is a geographic rectangle in decimal degrees, normalized so
// that MinLon <= MaxLon and MinLat <= MaxLat. The zero value is the
// degenerate point at (0, 0), which is valid.
type BoundingBox struct {
	MinLon float64
	MaxLon float64
	MinLat float64
	MaxLat float64
}

// NewBoundingBox returns a new BoundingBox. The arguments are assumed to be
// already ordered.
func NewBoundingBox(minLon, maxLon, minLat, maxLat float64) BoundingBox {
	return BoundingBox{
		MinLon: minLon,
		MaxLon: maxLon,
		MinLat: minLat,
		MaxLat: maxLat,
	}
}

// Width returns b's longitudinal extent in degrees.
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// Height returns b's latitudinal extent in degrees.
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// IsPoint reports whether b is degenerate on both axes.
func (b BoundingBox) IsPoint() bool {
	return b.MinLon == b.MaxLon && b.MinLat == b.MaxLat
}

// Contains reports whether b contains the point (lon, lat). Points on the
// boundary are contained.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return b.MinLon <= lon && lon <= b.MaxLon && b.MinLat <= lat && lat <= b.MaxLat
}

// ContainsBox reports whether b contains all of other.
func (b BoundingBox) ContainsBox(other BoundingBox) bool {
	return b.MinLon <= other.MinLon && other.MaxLon <= b.MaxLon &&
		b.MinLat <= other.MinLat && other.MaxLat <= b.MaxLat
}

// Intersects reports whether b and other share at least one point. Boxes
// that only touch along an edge intersect.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return b.MinLon <= other.MaxLon && other.MinLon <= b.MaxLon &&
		b.MinLat <= other.MaxLat && other.MinLat <= b.MaxLat
}

// Union returns the smallest BoundingBox containing both b and other.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		MinLon: min(b.MinLon, other.MinLon),
		MaxLon: max(b.MaxLon, other.MaxLon),
		MinLat: min(b.MinLat, other.MinLat),
		MaxLat: max(b.MaxLat, other.MaxLat),
	}
}

// WKT returns b as a closed WKT polygon ring.
func (b BoundingBox) WKT() string {
	return fmt.Sprintf("POLYGON ((%f %f, %f %f, %f %f, %f %f, %f %f))",
		b.MinLon, b.MinLat,
		b.MaxLon, b.MinLat,
		b.MaxLon, b.MaxLat,
		b.MinLon, b.MaxLat,
		b.MinLon, b.MinLat,
	)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}
