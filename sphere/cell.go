package sphere

import (
	"math"

	"github.com/golang/geo/s1"
)

// Cell is the geometric realization of a CellID: its face-local UV square
// and everything derivable from it. Cells are immutable; the UV bounds are
// computed once at construction.
type Cell struct {
	id          CellID
	face        int8
	level       int8
	orientation int8
	uLo, uHi    float64
	vLo, vHi    float64
}

// CellFromCellID builds the geometric cell for an id.
func CellFromCellID(id CellID) Cell {
	c := Cell{
		id:          id,
		face:        int8(id.Face()),
		level:       int8(id.Level()),
		orientation: int8(id.Orientation()),
	}
	c.uLo, c.uHi, c.vLo, c.vHi = id.boundsUV()
	return c
}

// CellFromPoint builds the leaf cell containing the point.
func CellFromPoint(p Point) Cell {
	return CellFromCellID(CellIDFromPoint(p))
}

func (c Cell) ID() CellID       { return c.id }
func (c Cell) Face() int        { return int(c.face) }
func (c Cell) Level() int       { return int(c.level) }
func (c Cell) Orientation() int { return int(c.orientation) }
func (c Cell) IsLeaf() bool     { return c.level == maxLevel }

// Vertex returns the k-th corner of the cell in CCW order around the UV
// square, as a point on the sphere.
func (c Cell) Vertex(k int) Point {
	var u, v float64
	switch k & 3 {
	case 0:
		u, v = c.uLo, c.vLo
	case 1:
		u, v = c.uHi, c.vLo
	case 2:
		u, v = c.uHi, c.vHi
	case 3:
		u, v = c.uLo, c.vHi
	}
	return faceUVtoXYZ(int(c.face), u, v)
}

// Center returns the cell's center on the sphere.
func (c Cell) Center() Point {
	return c.id.Point()
}

// ContainsPoint projects the point onto the cell's own face and tests the
// UV square. A point on another face is simply not contained; that is not
// an error.
func (c Cell) ContainsPoint(p Point) bool {
	u, v, ok := validFaceXYZtoUV(int(c.face), p.Vector)
	if !ok {
		return false
	}
	return u >= c.uLo && u <= c.uHi && v >= c.vLo && v <= c.vHi
}

// MayIntersect is the purely combinatorial ancestor/descendant test on the
// ids; no geometric refinement is attempted. It also implements Region.
func (c Cell) MayIntersect(other Cell) bool {
	return c.id.Intersects(other.id)
}

// ExactArea returns the cell's area on the unit sphere, as the sum of the
// two spherical triangles fanned from vertex 0.
func (c Cell) ExactArea() float64 {
	v0, v1, v2, v3 := c.Vertex(0), c.Vertex(1), c.Vertex(2), c.Vertex(3)
	return PointArea(v0, v1, v2) + PointArea(v0, v2, v3)
}

// CapBound returns the smallest cap centered on the cell's center that
// contains all four corners.
func (c Cell) CapBound() Cap {
	center := c.Center()
	var maxAngle s1.Angle
	for k := 0; k < 4; k++ {
		if a := center.Angle(c.Vertex(k)); a > maxAngle {
			maxAngle = a
		}
	}
	return CapFromCenterAngle(center, maxAngle)
}

// poleMinLat is the lowest latitude reached anywhere on the two polar
// faces: the latitude of a face corner, asin(1/sqrt(3)).
var poleMinLat = math.Asin(math.Sqrt(1.0 / 3))

// rectBoundError absorbs the rounding in the vertex latitudes so the
// returned bound stays a superset of the cell.
const rectBoundError = 1e-15

// Z components of the face u- and v-axes. On faces whose axis has no Z
// component, latitude is monotonic across the cell in that coordinate.
var (
	faceUAxisZ = [numFaces]float64{0, 0, 0, -1, -1, 0}
	faceVAxisZ = [numFaces]float64{1, 1, 0, 0, 0, 0}
)

// latitude and longitude of the cell corner selected by i (uLo/uHi) and
// j (vLo/vHi).
func (c Cell) latitude(i, j int) float64 {
	u, v := c.uLo, c.vLo
	if i == 1 {
		u = c.uHi
	}
	if j == 1 {
		v = c.vHi
	}
	return LatLngFromPoint(faceUVtoXYZ(int(c.face), u, v)).Lat.Radians()
}

func (c Cell) longitude(i, j int) float64 {
	u, v := c.uLo, c.vLo
	if i == 1 {
		u = c.uHi
	}
	if j == 1 {
		v = c.vHi
	}
	return LatLngFromPoint(faceUVtoXYZ(int(c.face), u, v)).Lng.Radians()
}

// RectBound returns a lat/lng rectangle containing the whole cell, not
// just its corners. Cell edges bulge toward the poles, so on four of the
// six faces the corner hull alone would miss up to ~10 degrees of
// latitude that the edges reach.
func (c Cell) RectBound() Rect {
	if c.level == 0 {
		// Face roots have edges along great circles through two
		// coordinate axes; their exact bounds are known.
		var bound Rect
		switch c.face {
		case 0:
			bound = Rect{r1Interval(-math.Pi/4, math.Pi/4), s1.Interval{Lo: -math.Pi / 4, Hi: math.Pi / 4}}
		case 1:
			bound = Rect{r1Interval(-math.Pi/4, math.Pi/4), s1.Interval{Lo: math.Pi / 4, Hi: 3 * math.Pi / 4}}
		case 2:
			bound = Rect{r1Interval(poleMinLat, math.Pi/2), s1.FullInterval()}
		case 3:
			bound = Rect{r1Interval(-math.Pi/4, math.Pi/4), s1.Interval{Lo: 3 * math.Pi / 4, Hi: -3 * math.Pi / 4}}
		case 4:
			bound = Rect{r1Interval(-math.Pi/4, math.Pi/4), s1.Interval{Lo: -3 * math.Pi / 4, Hi: -math.Pi / 4}}
		case 5:
			bound = Rect{r1Interval(-math.Pi/2, -poleMinLat), s1.FullInterval()}
		}
		bound.Lat.Lo -= rectBoundError
		bound.Lat.Hi += rectBoundError
		return bound
	}

	// At level 1 and deeper a cell never straddles u=0 or v=0, so the
	// latitude and longitude extremes are attained at vertices. Which
	// pair of opposite vertices carries the latitude extremes depends on
	// the sign of the cell's u and v midpoints relative to the face's
	// axis orientation.
	u := c.uLo + c.uHi
	v := c.vLo + c.vHi
	var i, j int
	if faceUAxisZ[c.face] == 0 {
		if u < 0 {
			i = 1
		}
	} else if u > 0 {
		i = 1
	}
	if faceVAxisZ[c.face] == 0 {
		if v < 0 {
			j = 1
		}
	} else if v > 0 {
		j = 1
	}

	latLo := c.latitude(i, j)
	latHi := c.latitude(1-i, 1-j)
	if latLo > latHi {
		latLo, latHi = latHi, latLo
	}
	latLo = math.Max(latLo-rectBoundError, -math.Pi/2)
	latHi = math.Min(latHi+rectBoundError, math.Pi/2)

	// A cell touching a pole spans all longitudes.
	if latLo == -math.Pi/2 || latHi == math.Pi/2 {
		return Rect{r1Interval(latLo, latHi), s1.FullInterval()}
	}
	lng := s1.EmptyInterval().AddPoint(c.longitude(i, 1-j)).AddPoint(c.longitude(1-i, j))
	return Rect{r1Interval(latLo, latHi), lng.Expanded(rectBoundError)}
}
