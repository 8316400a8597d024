package sphere

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

// Cap is a circular region on the sphere: all points within a given angle of
// a center point. Internally the radius is stored as a height, h = 1-cos(r),
// which is numerically stable for small caps and makes containment a single
// dot product.
type Cap struct {
	Center Point
	Height float64
}

// EmptyCap returns a cap containing no points.
func EmptyCap() Cap {
	return Cap{Center: PointFromCoords(1, 0, 0), Height: -1}
}

// FullCap returns a cap containing the entire sphere.
func FullCap() Cap {
	return Cap{Center: PointFromCoords(1, 0, 0), Height: 2}
}

// CapFromPoint returns a zero-radius cap at the given point.
func CapFromPoint(p Point) Cap {
	return Cap{Center: p, Height: 0}
}

// CapFromCenterAngle returns a cap with the given center and angular radius.
func CapFromCenterAngle(center Point, radius s1.Angle) Cap {
	r := clampFloat(radius.Radians(), 0, math.Pi)
	return Cap{Center: center, Height: 1 - math.Cos(r)}
}

// IsEmpty reports whether the cap contains no points.
func (c Cap) IsEmpty() bool { return c.Height < 0 }

// IsFull reports whether the cap contains the entire sphere.
func (c Cap) IsFull() bool { return c.Height >= 2 }

// Radius returns the cap's angular radius.
func (c Cap) Radius() s1.Angle {
	if c.IsEmpty() {
		return s1.Angle(-1)
	}
	return s1.Angle(math.Acos(clampFloat(1-c.Height, -1, 1)))
}

// ContainsPoint reports whether the point is inside the cap.
func (c Cap) ContainsPoint(p Point) bool {
	if c.IsEmpty() {
		return false
	}
	return c.Center.Dot(p.Vector) >= 1-c.Height
}

// ContainsCap reports whether this cap contains the other entirely.
func (c Cap) ContainsCap(other Cap) bool {
	if c.IsFull() || other.IsEmpty() {
		return true
	}
	return c.Radius() >= c.Center.Angle(other.Center)+other.Radius()
}

// IntersectsCap reports whether the two caps share any point.
func (c Cap) IntersectsCap(other Cap) bool {
	if c.IsEmpty() || other.IsEmpty() {
		return false
	}
	return c.Radius()+other.Radius() >= c.Center.Angle(other.Center)
}

// AddPoint grows the cap just enough to include the point.
func (c Cap) AddPoint(p Point) Cap {
	if c.IsEmpty() {
		return CapFromPoint(p)
	}
	h := 1 - c.Center.Dot(p.Vector)
	if h > c.Height {
		c.Height = h
	}
	return c
}

// Expanded grows the cap's radius by the given angle.
func (c Cap) Expanded(angle s1.Angle) Cap {
	if c.IsEmpty() {
		return c
	}
	return CapFromCenterAngle(c.Center, c.Radius()+angle)
}

// MayIntersect reports whether the cap may intersect the cell. The test is
// against the cell's bounding cap and is conservative: it can report true
// for a near miss, never false for a hit.
func (c Cap) MayIntersect(cell Cell) bool {
	if c.IsFull() {
		return true
	}
	return c.IntersectsCap(cell.CapBound())
}

// CapBound returns the cap itself.
func (c Cap) CapBound() Cap { return c }

// RectBound returns a lat/lng rectangle containing the cap.
func (c Cap) RectBound() Rect {
	if c.IsEmpty() {
		return EmptyRect()
	}
	ll := LatLngFromPoint(c.Center)
	r := c.Radius().Radians()
	latLo := ll.Lat.Radians() - r
	latHi := ll.Lat.Radians() + r

	if latLo <= -math.Pi/2 || latHi >= math.Pi/2 {
		// The cap reaches a pole, so every longitude is covered.
		return Rect{
			Lat: r1Interval(math.Max(latLo, -math.Pi/2), math.Min(latHi, math.Pi/2)),
			Lng: s1.FullInterval(),
		}
	}

	// sin(dLng) = sin(r) / cos(lat) for the extreme longitudes.
	dLng := math.Asin(clampFloat(math.Sin(r)/math.Cos(ll.Lat.Radians()), -1, 1))
	lng := ll.Lng.Radians()
	return Rect{
		Lat: r1Interval(latLo, latHi),
		Lng: s1.IntervalFromEndpoints(wrapLng(lng-dLng), wrapLng(lng+dLng)),
	}
}

func (c Cap) String() string {
	return fmt.Sprintf("[Center=%v, Radius=%.6f]", c.Center.Vector, c.Radius().Radians())
}

func wrapLng(lng float64) float64 {
	if lng > math.Pi {
		return lng - 2*math.Pi
	}
	if lng < -math.Pi {
		return lng + 2*math.Pi
	}
	return lng
}
