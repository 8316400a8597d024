package sphere

import (
	"fmt"
)

// shapeIndexCoveringCells is the fixed covering budget used when bucketing
// a shape's bound.
const shapeIndexCoveringCells = 100

// ClippedShape records that a shape was placed in a particular index cell
// because its bound intersects that cell.
type ClippedShape struct {
	ShapeID int32
	Shape   Shape
}

// ShapeIndexCell is one cell bucket: the shapes whose bounds intersect the
// cell, keyed by shape id.
type ShapeIndexCell struct {
	Shapes map[int32]*ClippedShape
}

// ShapeIndexOptions configures a ShapeIndex.
type ShapeIndexOptions struct {
	Log bool
}

// ShapeIndex buckets shapes by the cells their bounding caps occupy. The
// index is an over-approximation by construction: a shape lands in every
// cell of an exterior covering of its cap bound, not just the cells its
// edges actually cross, so consumers must re-test exact geometry after a
// bucket lookup. There is no single-shape removal; the whole index is
// cleared as a unit.
type ShapeIndex struct {
	opts    ShapeIndexOptions
	shapes  map[int32]Shape
	cells   map[CellID]*ShapeIndexCell
	nextID  int32
	coverer *RegionCoverer
}

// NewShapeIndex creates an empty index.
func NewShapeIndex(opts ShapeIndexOptions) *ShapeIndex {
	return &ShapeIndex{
		opts:   opts,
		shapes: make(map[int32]Shape),
		cells:  make(map[CellID]*ShapeIndexCell),
		coverer: NewRegionCoverer(CovererOptions{
			MinLevel: 0,
			MaxLevel: maxLevel,
			MaxCells: shapeIndexCoveringCells,
		}),
	}
}

// Add places the shape into the index and returns its id. Ids are assigned
// sequentially in insertion order.
func (idx *ShapeIndex) Add(shape Shape) int32 {
	id := idx.nextID
	idx.nextID++
	idx.shapes[id] = shape

	covering := idx.coverer.Covering(shape.CapBound())
	for _, cid := range covering {
		cell, ok := idx.cells[cid]
		if !ok {
			cell = &ShapeIndexCell{Shapes: make(map[int32]*ClippedShape)}
			idx.cells[cid] = cell
		}
		cell.Shapes[id] = &ClippedShape{ShapeID: id, Shape: shape}
	}

	if idx.opts.Log {
		fmt.Printf("Indexed shape %d into %d cells\n", id, covering.Len())
	}
	return id
}

// Len returns the number of indexed shapes.
func (idx *ShapeIndex) Len() int { return len(idx.shapes) }

// Shape returns the shape with the given id, or nil.
func (idx *ShapeIndex) Shape(id int32) Shape { return idx.shapes[id] }

// CellAt returns the bucket for the given cell id, or nil if no shape
// occupies it.
func (idx *ShapeIndex) CellAt(id CellID) *ShapeIndexCell {
	return idx.cells[id]
}

// ShapesForCell returns the shapes bucketed under the given cell id.
func (idx *ShapeIndex) ShapesForCell(id CellID) []Shape {
	cell := idx.cells[id]
	if cell == nil {
		return nil
	}
	shapes := make([]Shape, 0, len(cell.Shapes))
	for _, cs := range cell.Shapes {
		shapes = append(shapes, cs.Shape)
	}
	return shapes
}

// ShapesForPoint walks the buckets along the point's ancestor chain and
// returns the shapes that actually contain the point.
func (idx *ShapeIndex) ShapesForPoint(p Point) []Shape {
	leaf := CellIDFromPoint(p)
	seen := make(map[int32]bool)
	var shapes []Shape
	for level := 0; level <= maxLevel; level++ {
		anc, err := leaf.Parent(level)
		if err != nil {
			break
		}
		cell := idx.cells[anc]
		if cell == nil {
			continue
		}
		for id, cs := range cell.Shapes {
			if seen[id] {
				continue
			}
			seen[id] = true
			if cs.Shape.ContainsPoint(p) {
				shapes = append(shapes, cs.Shape)
			}
		}
	}
	return shapes
}

// Clear drops all shapes and buckets. Assigned ids are not reused.
func (idx *ShapeIndex) Clear() {
	idx.shapes = make(map[int32]Shape)
	idx.cells = make(map[CellID]*ShapeIndexCell)
}
