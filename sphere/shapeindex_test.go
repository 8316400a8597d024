package sphere

import (
	"testing"
)

func TestShapeIndexPointShape(t *testing.T) {
	idx := NewShapeIndex(ShapeIndexOptions{})
	p := PointFromLatLng(LatLngFromDegrees(37.7749, -122.4194))
	id := idx.Add(PointShape{P: p})

	if id != 0 {
		t.Errorf("first shape id = %d, want 0", id)
	}
	shapes := idx.ShapesForPoint(p)
	if len(shapes) == 0 {
		t.Fatal("indexed point shape not found at its own point")
	}
	found := false
	for _, s := range shapes {
		if ps, ok := s.(PointShape); ok && ps.P.ApproxEqual(p) {
			found = true
		}
	}
	if !found {
		t.Error("lookup did not return the indexed point shape")
	}
}

func TestShapeIndexSequentialIDs(t *testing.T) {
	idx := NewShapeIndex(ShapeIndexOptions{})
	for i := int32(0); i < 5; i++ {
		p := PointFromLatLng(LatLngFromDegrees(float64(i), float64(i)))
		if id := idx.Add(PointShape{P: p}); id != i {
			t.Errorf("shape id = %d, want %d", id, i)
		}
	}
	if idx.Len() != 5 {
		t.Errorf("index has %d shapes, want 5", idx.Len())
	}
}

func TestShapeIndexExactRetest(t *testing.T) {
	// The bucketing over-approximates: a nearby point shares buckets but
	// the exact containment re-test filters it out.
	idx := NewShapeIndex(ShapeIndexOptions{})
	p := PointFromLatLng(LatLngFromDegrees(10, 10))
	idx.Add(PointShape{P: p})

	nearby := PointFromLatLng(LatLngFromDegrees(10.001, 10.001))
	if got := idx.ShapesForPoint(nearby); len(got) != 0 {
		t.Errorf("exact re-test let through %d shapes for a point not in any shape", len(got))
	}
}

func TestShapeIndexBuckets(t *testing.T) {
	idx := NewShapeIndex(ShapeIndexOptions{})
	p := PointFromLatLng(LatLngFromDegrees(-5, 60))
	id := idx.Add(PointShape{P: p})

	// With MinLevel 0 the covering emits at face roots, so a bucket must
	// exist at the shape's own face root.
	root := CellIDFromFace(CellIDFromPoint(p).Face())
	cell := idx.CellAt(root)
	if cell == nil {
		t.Fatal("no bucket at the shape's face root")
	}
	if _, ok := cell.Shapes[id]; !ok {
		t.Error("bucket does not hold the shape's clipped record")
	}
	if shapes := idx.ShapesForCell(root); len(shapes) != 1 {
		t.Errorf("ShapesForCell returned %d shapes, want 1", len(shapes))
	}
}

func TestShapeIndexEdgeVectorShape(t *testing.T) {
	shape := NewEdgeVectorShape()
	shape.AddEdge(
		PointFromLatLng(LatLngFromDegrees(0, 0)),
		PointFromLatLng(LatLngFromDegrees(0, 1)),
	)
	shape.AddEdge(
		PointFromLatLng(LatLngFromDegrees(0, 1)),
		PointFromLatLng(LatLngFromDegrees(1, 1)),
	)

	if shape.NumEdges() != 2 || shape.NumChains() != 2 {
		t.Fatalf("edge vector shape has %d edges / %d chains, want 2/2", shape.NumEdges(), shape.NumChains())
	}
	if _, err := shape.Edge(2); err == nil {
		t.Error("expected error for edge id 2")
	}
	if _, err := shape.Chain(-1); err == nil {
		t.Error("expected error for chain id -1")
	}
	chain, err := shape.Chain(1)
	if err != nil {
		t.Fatalf("Chain(1): %v", err)
	}
	if chain.Start != 1 || chain.Length != 1 {
		t.Errorf("chain = %+v, want {Start:1 Length:1}", chain)
	}

	idx := NewShapeIndex(ShapeIndexOptions{})
	idx.Add(shape)
	if idx.Len() != 1 {
		t.Errorf("index has %d shapes, want 1", idx.Len())
	}
}

func TestShapeIndexClear(t *testing.T) {
	idx := NewShapeIndex(ShapeIndexOptions{})
	p := PointFromLatLng(LatLngFromDegrees(20, 30))
	idx.Add(PointShape{P: p})
	idx.Clear()

	if idx.Len() != 0 {
		t.Errorf("index has %d shapes after Clear, want 0", idx.Len())
	}
	if got := idx.ShapesForPoint(p); len(got) != 0 {
		t.Errorf("lookup after Clear returned %d shapes", len(got))
	}
	// Ids keep counting after a clear.
	if id := idx.Add(PointShape{P: p}); id != 1 {
		t.Errorf("id after Clear = %d, want 1", id)
	}
}
