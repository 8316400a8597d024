package sphere

import (
	"testing"
)

func TestCellIDFromPointFixpoint(t *testing.T) {
	// A leaf built from a point, converted back to its center point and
	// re-encoded, must come back as the identical leaf.
	p := PointFromLatLng(LatLngFromDegrees(0, 0))
	leaf := CellIDFromPoint(p)

	if !leaf.IsLeaf() {
		t.Fatalf("expected a leaf cell, got level %d", leaf.Level())
	}
	if got := CellIDFromPoint(leaf.Point()); got != leaf {
		t.Errorf("center of %v re-encoded as %v", leaf, got)
	}
}

func TestCellIDFromPointFixpointEverywhere(t *testing.T) {
	lls := []LatLng{
		LatLngFromDegrees(37.7749, -122.4194),
		LatLngFromDegrees(-33.8688, 151.2093),
		LatLngFromDegrees(89.9, 12),
		LatLngFromDegrees(-89.9, -170),
		LatLngFromDegrees(0, 180),
		LatLngFromDegrees(45, 45),
	}
	for _, ll := range lls {
		leaf := CellIDFromPoint(PointFromLatLng(ll))
		if got := CellIDFromPoint(leaf.Point()); got != leaf {
			t.Errorf("leaf at %v not a fixpoint: %v vs %v", ll, leaf, got)
		}
	}
}

func TestCellIDFaceCells(t *testing.T) {
	for f := 0; f < 6; f++ {
		ci := CellIDFromFace(f)
		if !ci.Valid() {
			t.Errorf("face cell %d invalid", f)
		}
		if ci.Face() != f {
			t.Errorf("face cell %d reports face %d", f, ci.Face())
		}
		if ci.Level() != 0 {
			t.Errorf("face cell %d at level %d, want 0", f, ci.Level())
		}
		if !ci.IsFace() {
			t.Errorf("face cell %d not recognized as face", f)
		}
		if ci.Orientation() != 0 {
			t.Errorf("face cell %d orientation %d, want 0", f, ci.Orientation())
		}
	}
}

func TestCellIDParentChildInverse(t *testing.T) {
	ci := CellIDFromPoint(PointFromLatLng(LatLngFromDegrees(40.7128, -74.0060)))
	for level := 1; level <= maxLevel; level++ {
		parent, err := ci.Parent(level - 1)
		if err != nil {
			t.Fatalf("Parent(%d): %v", level-1, err)
		}
		for pos := 0; pos < 4; pos++ {
			child, err := parent.Child(pos)
			if err != nil {
				t.Fatalf("Child(%d) at level %d: %v", pos, level-1, err)
			}
			if child.Level() != level {
				t.Errorf("child at level %d, want %d", child.Level(), level)
			}
			back, err := child.Parent(level - 1)
			if err != nil {
				t.Fatalf("Parent(%d): %v", level-1, err)
			}
			if back != parent {
				t.Errorf("child(%d).parent != parent: %v vs %v", pos, back, parent)
			}
			got, err := child.ChildPosition(level)
			if err != nil {
				t.Fatalf("ChildPosition(%d): %v", level, err)
			}
			if got != pos {
				t.Errorf("child position %d, want %d", got, pos)
			}
		}
	}
}

func TestCellIDAncestry(t *testing.T) {
	ci := CellIDFromPoint(PointFromLatLng(LatLngFromDegrees(-12.05, -77.04)))
	for level := 0; level <= maxLevel; level++ {
		anc, err := ci.Parent(level)
		if err != nil {
			t.Fatalf("Parent(%d): %v", level, err)
		}
		if !anc.Contains(ci) {
			t.Errorf("ancestor at level %d does not contain descendant", level)
		}
		if !anc.Intersects(ci) || !ci.Intersects(anc) {
			t.Errorf("ancestor/descendant at level %d do not intersect", level)
		}
	}
}

func TestCellIDSiblingNonContainment(t *testing.T) {
	parent, _ := CellIDFromFace(2).Child(1)
	a, _ := parent.Child(0)
	b, _ := parent.Child(1)
	if a.Contains(b) || b.Contains(a) {
		t.Error("siblings must not contain each other")
	}
	if a.Intersects(b) {
		t.Error("siblings must not intersect")
	}
}

func TestCellIDNextPrev(t *testing.T) {
	parent := CellIDFromFace(1)
	c0, _ := parent.Child(0)
	c1, _ := parent.Child(1)
	if c0.Next() != c1 {
		t.Errorf("child(0).Next() = %v, want child(1) = %v", c0.Next(), c1)
	}
	if c1.Prev() != c0 {
		t.Errorf("child(1).Prev() = %v, want child(0) = %v", c1.Prev(), c0)
	}
	if c0.Next().Level() != c0.Level() {
		t.Error("Next changed the level")
	}
}

func TestCellIDChildOrdering(t *testing.T) {
	parent, _ := CellIDFromFace(4).Child(2)
	var prev CellID
	for pos := 0; pos < 4; pos++ {
		child, _ := parent.Child(pos)
		if pos > 0 && child <= prev {
			t.Errorf("children out of id order at position %d", pos)
		}
		if !parent.Contains(child) {
			t.Errorf("parent does not contain child %d", pos)
		}
		prev = child
	}
}

func TestCellIDInvalidArguments(t *testing.T) {
	if _, err := CellIDFromFacePosLevel(6, 0, 0); err == nil {
		t.Error("expected error for face 6")
	}
	if _, err := CellIDFromFacePosLevel(-1, 0, 0); err == nil {
		t.Error("expected error for face -1")
	}
	if _, err := CellIDFromFacePosLevel(0, 0, 31); err == nil {
		t.Error("expected error for level 31")
	}
	if _, err := CellIDFromFacePosLevel(0, 0, -1); err == nil {
		t.Error("expected error for level -1")
	}

	leaf := CellIDFromPoint(PointFromLatLng(LatLngFromDegrees(1, 1)))
	if _, err := leaf.Child(0); err == nil {
		t.Error("expected error for child of leaf")
	}
	face := CellIDFromFace(0)
	if _, err := face.Child(4); err == nil {
		t.Error("expected error for child position 4")
	}
	if _, err := face.Child(-1); err == nil {
		t.Error("expected error for child position -1")
	}
	if _, err := face.Parent(1); err == nil {
		t.Error("expected error for parent below own level")
	}
	if _, err := face.Parent(-1); err == nil {
		t.Error("expected error for negative parent level")
	}
}

func TestCellIDFromFacePosLevel(t *testing.T) {
	leaf := CellIDFromPoint(PointFromLatLng(LatLngFromDegrees(52.52, 13.405)))
	for level := 0; level <= maxLevel; level += 5 {
		want, _ := leaf.Parent(level)
		got, err := CellIDFromFacePosLevel(leaf.Face(), leaf.Pos(), level)
		if err != nil {
			t.Fatalf("CellIDFromFacePosLevel level %d: %v", level, err)
		}
		if got != want {
			t.Errorf("level %d: got %v, want %v", level, got, want)
		}
	}
}

func TestCellIDToIJRoundTrip(t *testing.T) {
	cases := []struct{ i, j int }{
		{0, 0},
		{1, 0},
		{0, 1},
		{maxSize - 1, maxSize - 1},
		{123456789, 987654321 % maxSize},
		{maxSize / 2, maxSize / 3},
	}
	for _, c := range cases {
		ci := cellIDFromFaceIJ(3, c.i, c.j)
		i, j := ci.ToIJ()
		if i != c.i || j != c.j {
			t.Errorf("IJ (%d,%d) round-tripped to (%d,%d)", c.i, c.j, i, j)
		}
	}
}

func TestCellIDRangeMinMax(t *testing.T) {
	ci, _ := CellIDFromFace(0).Child(3)
	min, max := ci.RangeMin(), ci.RangeMax()
	if !min.IsLeaf() || !max.IsLeaf() {
		t.Error("range endpoints must be leaves")
	}
	if !ci.Contains(min) || !ci.Contains(max) {
		t.Error("cell must contain its range endpoints")
	}
	if ci.Contains(min.Prev()) {
		t.Error("cell contains leaf before its range")
	}
	if ci.Contains(max.Next()) {
		t.Error("cell contains leaf after its range")
	}
}

func TestCellIDLocality(t *testing.T) {
	// Ids at the same level sort near their spatial neighbors: the four
	// children of a cell occupy a contiguous id range inside the parent.
	parent, _ := CellIDFromFace(5).Child(1)
	first, _ := parent.Child(0)
	last, _ := parent.Child(3)
	if first.RangeMin() != parent.RangeMin() {
		t.Error("first child does not start the parent's leaf range")
	}
	if last.RangeMax() != parent.RangeMax() {
		t.Error("last child does not end the parent's leaf range")
	}
}
