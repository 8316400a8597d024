package sphere

import (
	"fmt"
	"math/bits"
)

// CellID is a 64-bit identifier for a cell in the face quadtree hierarchy.
// The top 3 bits select one of the 6 cube faces, followed by one 2-bit
// quadrant selector per subdivision level, followed by a single marker bit
// whose position encodes the cell's level. Within a level, sorting ids
// numerically places spatially nearby cells close together (Z-order along
// the interleaved IJ bits; not a Hilbert curve).
type CellID uint64

const (
	faceBits = 3
	posBits  = 64 - faceBits // 61: path bits plus the level marker
	numFaces = 6
)

// MaxLevel is the deepest subdivision level. Cells at MaxLevel are leaves.
const MaxLevel = maxLevel

func lsbForLevel(level int) uint64 {
	return 1 << uint(2*(maxLevel-level))
}

// CellIDFromPoint returns the leaf cell containing the given point.
func CellIDFromPoint(p Point) CellID {
	f := face(p.Vector)
	u, v := faceXYZtoUV(f, p.Vector)
	i := stToIJ(uvToST(u))
	j := stToIJ(uvToST(v))
	return cellIDFromFaceIJ(f, i, j)
}

// CellIDFromLatLng returns the leaf cell containing the given lat/lng.
func CellIDFromLatLng(ll LatLng) CellID {
	return CellIDFromPoint(PointFromLatLng(ll))
}

// CellIDFromFacePosLevel builds a cell from a face, a raw 61-bit position
// and a level. The position's bits above the requested level are kept, the
// rest become the level marker.
func CellIDFromFacePosLevel(f int, pos uint64, level int) (CellID, error) {
	if f < 0 || f >= numFaces {
		return 0, fmt.Errorf("invalid face %d: must be in [0,5]", f)
	}
	if level < 0 || level > maxLevel {
		return 0, fmt.Errorf("invalid level %d: must be in [0,30]", level)
	}
	ci := CellID(uint64(f)<<posBits + (pos | 1))
	return ci.Parent(level)
}

// CellIDFromFace returns the level-0 cell rooted at the given face.
func CellIDFromFace(f int) CellID {
	return CellID(uint64(f)<<posBits + lsbForLevel(0))
}

// cellIDFromFaceIJ encodes leaf grid coordinates as a 30-step quadrant path,
// interleaving one i bit and one j bit per level.
func cellIDFromFaceIJ(f, i, j int) CellID {
	pos := uint64(0)
	for k := maxLevel - 1; k >= 0; k-- {
		pos = pos<<2 | uint64((i>>uint(k)&1)<<1|(j>>uint(k)&1))
	}
	return CellID(uint64(f)<<posBits | pos<<1 | 1)
}

func (ci CellID) lsb() uint64 {
	return uint64(ci) & -uint64(ci)
}

// Valid reports whether the id has a legal face and a level marker in one of
// the positions the encoding allows.
func (ci CellID) Valid() bool {
	return ci.Face() < numFaces && ci.lsb()&0x1555555555555555 != 0
}

// Face returns the cube face this cell belongs to.
func (ci CellID) Face() int {
	return int(uint64(ci) >> posBits)
}

// Pos returns the raw 61-bit position, including the level marker.
func (ci CellID) Pos() uint64 {
	return uint64(ci) & (1<<posBits - 1)
}

// Level returns the subdivision depth, 0..30, derived from the position of
// the lowest set bit.
func (ci CellID) Level() int {
	return maxLevel - bits.TrailingZeros64(uint64(ci))>>1
}

// IsLeaf reports whether the cell is at the maximum level.
func (ci CellID) IsLeaf() bool {
	return uint64(ci)&1 != 0
}

// IsFace reports whether the cell is one of the six level-0 face cells.
func (ci CellID) IsFace() bool {
	return uint64(ci)&(lsbForLevel(0)-1) == 0
}

// ChildPosition returns the 0..3 quadrant this cell occupies within its
// parent at the given level. The level must be in [1, ci.Level()].
func (ci CellID) ChildPosition(level int) (int, error) {
	if level < 1 || level > ci.Level() {
		return 0, fmt.Errorf("invalid level %d: must be in [1,%d]", level, ci.Level())
	}
	return int(uint64(ci)>>uint(2*(maxLevel-level)+1)) & 3, nil
}

// Orientation returns the cell's 2-bit quadrant position within its parent,
// or 0 for a face cell.
func (ci CellID) Orientation() int {
	if ci.IsFace() {
		return 0
	}
	o, _ := ci.ChildPosition(ci.Level())
	return o
}

// Parent returns the ancestor at the given level by truncating the quadrant
// path. The level may not exceed the cell's own level.
func (ci CellID) Parent(level int) (CellID, error) {
	if level < 0 || level > ci.Level() {
		return 0, fmt.Errorf("invalid parent level %d for cell at level %d", level, ci.Level())
	}
	lsb := lsbForLevel(level)
	return CellID((uint64(ci) & -lsb) | lsb), nil
}

// Child extends the quadrant path by one step. Fails on leaves and on
// positions outside [0,3].
func (ci CellID) Child(pos int) (CellID, error) {
	if ci.IsLeaf() {
		return 0, fmt.Errorf("cell at level %d has no children", maxLevel)
	}
	if pos < 0 || pos > 3 {
		return 0, fmt.Errorf("invalid child position %d: must be in [0,3]", pos)
	}
	lsb := ci.lsb()
	return CellID(uint64(ci) - lsb + uint64(2*pos+1)*(lsb>>2)), nil
}

// Next returns the following cell at the same level in id order. The result
// may be invalid past the last cell of face 5.
func (ci CellID) Next() CellID {
	return CellID(uint64(ci) + ci.lsb()<<1)
}

// Prev returns the preceding cell at the same level in id order.
func (ci CellID) Prev() CellID {
	return CellID(uint64(ci) - ci.lsb()<<1)
}

// RangeMin returns the smallest leaf id contained in this cell.
func (ci CellID) RangeMin() CellID {
	return CellID(uint64(ci) - (ci.lsb() - 1))
}

// RangeMax returns the largest leaf id contained in this cell.
func (ci CellID) RangeMax() CellID {
	return CellID(uint64(ci) + (ci.lsb() - 1))
}

// Contains reports whether ci is an ancestor of or equal to other.
func (ci CellID) Contains(other CellID) bool {
	return ci.RangeMin() <= other && other <= ci.RangeMax()
}

// Intersects reports whether either cell contains the other.
func (ci CellID) Intersects(other CellID) bool {
	return ci.Contains(other) || other.Contains(ci)
}

// ijAtLevel decodes the quadrant path back into grid coordinates at the
// cell's own level, so i and j are in [0, 2^level).
func (ci CellID) ijAtLevel() (i, j int) {
	level := ci.Level()
	for k := 1; k <= level; k++ {
		q := (uint64(ci) >> uint(64-faceBits-2*k)) & 3
		i = i<<1 | int(q>>1)
		j = j<<1 | int(q&1)
	}
	return i, j
}

// ToIJ returns the cell's minimum-corner coordinates on the leaf grid,
// de-interleaving the alternating path bits.
func (ci CellID) ToIJ() (i, j int) {
	i, j = ci.ijAtLevel()
	shift := uint(maxLevel - ci.Level())
	return i << shift, j << shift
}

// Point returns the cell's center on the unit sphere.
func (ci CellID) Point() Point {
	f, s, t := ci.centerST()
	return faceUVtoXYZ(f, stToUV(s), stToUV(t))
}

// LatLng returns the cell's center as a lat/lng.
func (ci CellID) LatLng() LatLng {
	return LatLngFromPoint(ci.Point())
}

func (ci CellID) centerST() (f int, s, t float64) {
	i, j := ci.ToIJ()
	half := float64(uint64(1)<<uint(maxLevel-ci.Level())) / (2 * maxSize)
	return ci.Face(), ijToSTMin(i) + half, ijToSTMin(j) + half
}

// boundsUV returns the cell's UV rectangle as (uLo, uHi, vLo, vHi).
func (ci CellID) boundsUV() (uLo, uHi, vLo, vHi float64) {
	i, j := ci.ToIJ()
	size := int(uint64(1) << uint(maxLevel-ci.Level()))
	return stToUV(ijToSTMin(i)), stToUV(ijToSTMin(i + size)),
		stToUV(ijToSTMin(j)), stToUV(ijToSTMin(j + size))
}

func (ci CellID) String() string {
	return fmt.Sprintf("%d/%d:%016x", ci.Face(), ci.Level(), uint64(ci))
}
