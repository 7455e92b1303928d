package demtile_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	demtile "github.com/twpayne/go-demtile"
)

func TestBoundingBox_Contains(t *testing.T) {
	box := demtile.NewBoundingBox(5, 6, 45, 46)
	for _, tc := range []struct {
		name     string
		lon, lat float64
		expected bool
	}{
		{name: "center", lon: 5.5, lat: 45.5, expected: true},
		{name: "south_west_corner", lon: 5, lat: 45, expected: true},
		{name: "north_east_corner", lon: 6, lat: 46, expected: true},
		{name: "west_of", lon: 4.9, lat: 45.5, expected: false},
		{name: "north_of", lon: 5.5, lat: 46.1, expected: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, box.Contains(tc.lon, tc.lat))
		})
	}
}

func TestBoundingBox_Intersects(t *testing.T) {
	box := demtile.NewBoundingBox(5, 6, 45, 46)
	for _, tc := range []struct {
		name     string
		other    demtile.BoundingBox
		expected bool
	}{
		{name: "self", other: box, expected: true},
		{name: "overlap", other: demtile.NewBoundingBox(5.5, 6.5, 45.5, 46.5), expected: true},
		{name: "touching_edge", other: demtile.NewBoundingBox(6, 7, 45, 46), expected: true},
		{name: "contained", other: demtile.NewBoundingBox(5.25, 5.75, 45.25, 45.75), expected: true},
		{name: "disjoint", other: demtile.NewBoundingBox(7, 8, 45, 46), expected: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, box.Intersects(tc.other))
			assert.Equal(t, tc.expected, tc.other.Intersects(box))
		})
	}
}

func TestBoundingBox_ContainsBox(t *testing.T) {
	box := demtile.NewBoundingBox(5, 6, 45, 46)
	assert.True(t, box.ContainsBox(demtile.NewBoundingBox(5.25, 5.75, 45.25, 45.75)))
	assert.True(t, box.ContainsBox(box))
	assert.False(t, box.ContainsBox(demtile.NewBoundingBox(5.5, 6.5, 45.5, 46.5)))
}

func TestBoundingBox_Union(t *testing.T) {
	a := demtile.NewBoundingBox(5, 6, 45, 46)
	b := demtile.NewBoundingBox(7, 8, 43, 44)
	expected := demtile.NewBoundingBox(5, 8, 43, 46)
	assert.Equal(t, expected, a.Union(b))
	assert.Equal(t, expected, b.Union(a))
}

func TestBoundingBox_WidthHeightIsPoint(t *testing.T) {
	box := demtile.NewBoundingBox(5, 6.5, 45, 46)
	assert.Equal(t, 1.5, box.Width())
	assert.Equal(t, 1.0, box.Height())
	assert.False(t, box.IsPoint())
	assert.True(t, demtile.BoundingBox{}.IsPoint())
}

func TestBoundingBox_WKT(t *testing.T) {
	box := demtile.NewBoundingBox(5, 6, 45, 46)
	assert.Equal(t, "POLYGON ((5.000000 45.000000, 6.000000 45.000000, 6.000000 46.000000, 5.000000 46.000000, 5.000000 45.000000))", box.WKT())
}

func TestBoundingBox_String(t *testing.T) {
	assert.Equal(t, "[5, 6, 45, 46]", demtile.NewBoundingBox(5, 6, 45, 46).String())
}
