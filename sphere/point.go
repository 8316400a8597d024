package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Point is a point on the unit sphere, stored as a 3D unit vector.
type Point struct {
	r3.Vector
}

// PointFromCoords normalizes the given coordinates onto the unit sphere.
func PointFromCoords(x, y, z float64) Point {
	if x == 0 && y == 0 && z == 0 {
		return Point{r3.Vector{X: 1, Y: 0, Z: 0}}
	}
	return Point{r3.Vector{X: x, Y: y, Z: z}.Normalize()}
}

// Angle returns the angle between two points on the sphere.
func (p Point) Angle(other Point) s1.Angle {
	return p.Vector.Angle(other.Vector)
}

// ApproxEqual reports whether two points are within a small angular distance
// of each other.
func (p Point) ApproxEqual(other Point) bool {
	return p.Vector.Angle(other.Vector) <= 1e-14
}

// PointArea returns the area of the spherical triangle abc using l'Huilier's
// theorem, which is numerically stable for small triangles.
func PointArea(a, b, c Point) float64 {
	sa := float64(b.Angle(c))
	sb := float64(c.Angle(a))
	sc := float64(a.Angle(b))
	s := 0.5 * (sa + sb + sc)

	prod := math.Tan(0.5*s) * math.Tan(0.5*(s-sa)) *
		math.Tan(0.5*(s-sb)) * math.Tan(0.5*(s-sc))
	if prod <= 0 {
		return 0
	}
	return 4 * math.Atan(math.Sqrt(prod))
}

// LatLng is a latitude/longitude pair in radians.
type LatLng struct {
	Lat, Lng s1.Angle
}

// LatLngFromDegrees builds a LatLng from degrees.
func LatLngFromDegrees(lat, lng float64) LatLng {
	return LatLng{s1.Angle(lat) * s1.Degree, s1.Angle(lng) * s1.Degree}
}

// LatLngFromPoint converts a unit vector to latitude/longitude.
func LatLngFromPoint(p Point) LatLng {
	return LatLng{
		Lat: s1.Angle(math.Atan2(p.Z, math.Sqrt(p.X*p.X+p.Y*p.Y))),
		Lng: s1.Angle(math.Atan2(p.Y, p.X)),
	}
}

// PointFromLatLng converts a latitude/longitude to a unit vector.
func PointFromLatLng(ll LatLng) Point {
	phi := ll.Lat.Radians()
	theta := ll.Lng.Radians()
	cosphi := math.Cos(phi)
	return Point{r3.Vector{
		X: math.Cos(theta) * cosphi,
		Y: math.Sin(theta) * cosphi,
		Z: math.Sin(phi),
	}}
}

// IsValid reports whether the latitude is within [-90,90] degrees and the
// longitude within [-180,180] degrees.
func (ll LatLng) IsValid() bool {
	return math.Abs(ll.Lat.Radians()) <= math.Pi/2 &&
		math.Abs(ll.Lng.Radians()) <= math.Pi
}
