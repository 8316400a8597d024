package sphere

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
)

// Rect is a latitude/longitude rectangle: a plain interval of latitudes and
// a circular interval of longitudes (which may wrap across the date line).
type Rect struct {
	Lat r1.Interval
	Lng s1.Interval
}

func r1Interval(lo, hi float64) r1.Interval {
	return r1.Interval{Lo: lo, Hi: hi}
}

// EmptyRect returns a rectangle containing no points.
func EmptyRect() Rect {
	return Rect{Lat: r1.EmptyInterval(), Lng: s1.EmptyInterval()}
}

// FullRect returns a rectangle covering the whole sphere.
func FullRect() Rect {
	return Rect{
		Lat: r1Interval(-math.Pi/2, math.Pi/2),
		Lng: s1.FullInterval(),
	}
}

// RectFromLatLng returns a degenerate rectangle containing a single point.
func RectFromLatLng(ll LatLng) Rect {
	return Rect{
		Lat: r1Interval(ll.Lat.Radians(), ll.Lat.Radians()),
		Lng: s1.IntervalFromEndpoints(ll.Lng.Radians(), ll.Lng.Radians()),
	}
}

// IsEmpty reports whether the rectangle contains no points.
func (r Rect) IsEmpty() bool { return r.Lat.IsEmpty() }

// IsFull reports whether the rectangle covers the whole sphere.
func (r Rect) IsFull() bool {
	return r.Lat == r1Interval(-math.Pi/2, math.Pi/2) && r.Lng.IsFull()
}

// AddPoint grows the rectangle to include the given lat/lng.
func (r Rect) AddPoint(ll LatLng) Rect {
	if r.IsEmpty() {
		return RectFromLatLng(ll)
	}
	return Rect{
		Lat: r.Lat.AddPoint(ll.Lat.Radians()),
		Lng: r.Lng.AddPoint(ll.Lng.Radians()),
	}
}

// ContainsLatLng reports whether the rectangle contains the lat/lng.
func (r Rect) ContainsLatLng(ll LatLng) bool {
	return r.Lat.Contains(ll.Lat.Radians()) && r.Lng.Contains(ll.Lng.Radians())
}

// Intersects reports whether the two rectangles share any point.
func (r Rect) Intersects(other Rect) bool {
	return r.Lat.Intersects(other.Lat) && r.Lng.Intersects(other.Lng)
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(other Rect) Rect {
	return Rect{Lat: r.Lat.Union(other.Lat), Lng: r.Lng.Union(other.Lng)}
}

// Intersection returns the rectangle common to both, which may be empty.
func (r Rect) Intersection(other Rect) Rect {
	lat := r.Lat.Intersection(other.Lat)
	lng := r.Lng.Intersection(other.Lng)
	if lat.IsEmpty() || lng.IsEmpty() {
		return EmptyRect()
	}
	return Rect{Lat: lat, Lng: lng}
}

// Center returns the center of the rectangle.
func (r Rect) Center() LatLng {
	return LatLng{s1.Angle(r.Lat.Center()), s1.Angle(r.Lng.Center())}
}

// ContainsPoint reports whether the rectangle contains the point.
func (r Rect) ContainsPoint(p Point) bool {
	return r.ContainsLatLng(LatLngFromPoint(p))
}

// MayIntersect reports whether the rectangle may intersect the cell,
// conservatively, via the cell's own rectangle bound.
func (r Rect) MayIntersect(cell Cell) bool {
	return r.Intersects(cell.RectBound())
}

// CapBound returns a cap containing the rectangle: centered on the
// rectangle's center and grown to cover its four corners.
func (r Rect) CapBound() Cap {
	if r.IsEmpty() {
		return EmptyCap()
	}
	if r.IsFull() {
		return FullCap()
	}
	cap := CapFromPoint(PointFromLatLng(r.Center()))
	for _, lat := range []float64{r.Lat.Lo, r.Lat.Hi} {
		// Corners plus the mid-edge longitudes, which lie farther from the
		// center than the corners once the longitude span grows.
		for _, lng := range []float64{r.Lng.Lo, r.Lng.Hi, r.Lng.Center()} {
			cap = cap.AddPoint(PointFromLatLng(LatLng{s1.Angle(lat), s1.Angle(lng)}))
		}
	}
	return cap
}

// RectBound returns the rectangle itself.
func (r Rect) RectBound() Rect { return r }

func (r Rect) String() string {
	return fmt.Sprintf("[Lat[%.6f,%.6f], Lng[%.6f,%.6f]]", r.Lat.Lo, r.Lat.Hi, r.Lng.Lo, r.Lng.Hi)
}
