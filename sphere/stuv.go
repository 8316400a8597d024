package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// The sphere is projected onto the six faces of an inscribed cube. Faces are
// numbered 0..5 for +X, +Y, +Z, -X, -Y, -Z. Each face carries three nested
// coordinate systems:
//
//	UV: projective face coordinates in [-1,1]^2
//	ST: normalized face coordinates in [0,1]^2, s = (u+1)/2
//	IJ: the discrete [0, 2^30) grid used at leaf-cell resolution
const (
	maxLevel = 30
	maxSize  = 1 << maxLevel
)

// face returns the cube face containing the point: the axis with the largest
// absolute component, ties preferring X over Y over Z, with the sign of that
// component selecting between the two opposite faces.
func face(v r3.Vector) int {
	f := 0
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	if ay > ax || az > ax {
		if ay >= az {
			f = 1
		} else {
			f = 2
		}
	}
	if faceAxisComponent(f, v) < 0 {
		f += 3
	}
	return f
}

func faceAxisComponent(axis int, v r3.Vector) float64 {
	switch axis % 3 {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// faceXYZtoUV perspective-divides the point by its component along the face
// axis. The result is only meaningful if the point actually lies on the given
// face; callers select the face with face() first.
func faceXYZtoUV(f int, v r3.Vector) (u, v2 float64) {
	switch f {
	case 0:
		return v.Y / v.X, v.Z / v.X
	case 1:
		return -v.X / v.Y, v.Z / v.Y
	case 2:
		return -v.X / v.Z, -v.Y / v.Z
	case 3:
		return v.Z / v.X, v.Y / v.X
	case 4:
		return v.Z / v.Y, -v.X / v.Y
	default:
		return -v.Y / v.Z, -v.X / v.Z
	}
}

// validFaceXYZtoUV is like faceXYZtoUV but reports false if the point does
// not lie on the given face (its component along the face axis points away).
func validFaceXYZtoUV(f int, v r3.Vector) (u, v2 float64, ok bool) {
	c := faceAxisComponent(f, v)
	if f >= 3 {
		c = -c
	}
	if c <= 0 {
		return 0, 0, false
	}
	u, v2 = faceXYZtoUV(f, v)
	return u, v2, true
}

// faceUVtoXYZ maps face-local UV coordinates back to a unit vector. UV is
// clamped into [-1,1] first; out-of-range input is not an error here.
func faceUVtoXYZ(f int, u, v float64) Point {
	u = clampFloat(u, -1, 1)
	v = clampFloat(v, -1, 1)
	var p r3.Vector
	switch f {
	case 0:
		p = r3.Vector{X: 1, Y: u, Z: v}
	case 1:
		p = r3.Vector{X: -u, Y: 1, Z: v}
	case 2:
		p = r3.Vector{X: -u, Y: -v, Z: 1}
	case 3:
		p = r3.Vector{X: -1, Y: -v, Z: -u}
	case 4:
		p = r3.Vector{X: v, Y: -1, Z: -u}
	default:
		p = r3.Vector{X: v, Y: u, Z: -1}
	}
	return Point{p.Normalize()}
}

func uvToST(u float64) float64 {
	return (u + 1) / 2
}

func stToUV(s float64) float64 {
	return 2*s - 1
}

// stToIJ quantizes a [0,1] coordinate onto the leaf grid. Floor keeps cell
// centers inside their own cell so point->cell->point->cell is a fixpoint.
func stToIJ(s float64) int {
	return clampInt(int(math.Floor(s*maxSize)), 0, maxSize-1)
}

func ijToSTMin(i int) float64 {
	return float64(i) / maxSize
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
