package sphere

import (
	"math"
	"testing"

	"github.com/golang/geo/s1"
)

func TestCovererFullSphereSingleCell(t *testing.T) {
	rc := NewRegionCoverer(CovererOptions{MinLevel: 0, MaxLevel: 0, MaxCells: 1})
	covering := rc.Covering(FullCap())
	if covering.Len() != 1 {
		t.Fatalf("expected exactly 1 cell, got %d", covering.Len())
	}
	// Roots are visited in face order, so the budget goes to face 0.
	if covering[0] != CellIDFromFace(0) {
		t.Errorf("expected face 0 root, got %v", covering[0])
	}
}

func TestCovererBudgetRespected(t *testing.T) {
	centers := []LatLng{
		LatLngFromDegrees(0, 0),
		LatLngFromDegrees(60, 100),
		LatLngFromDegrees(-45, -120),
		LatLngFromDegrees(89, 0),
	}
	for _, budget := range []int{1, 4, 20} {
		rc := NewRegionCoverer(CovererOptions{MinLevel: 6, MaxLevel: 14, MaxCells: budget})
		for _, c := range centers {
			cap := CapFromCenterAngle(PointFromLatLng(c), s1.Angle(0.1))
			if got := rc.Covering(cap).Len(); got > budget {
				t.Errorf("covering of cap at %v has %d cells, budget %d", c, got, budget)
			}
		}
	}
}

func TestCovererCoversSmallCap(t *testing.T) {
	// Roughly a 10km cap; the budget is generous enough that the covering
	// is a true superset and must contain the center.
	center := PointFromLatLng(LatLngFromDegrees(37.7749, -122.4194))
	cap := CapFromCenterAngle(center, s1.Angle(10.0/6371))

	rc := NewRegionCoverer(CovererOptions{MinLevel: 8, MaxLevel: 12, MaxCells: 100})
	covering := rc.Covering(cap)

	if covering.Len() == 0 {
		t.Fatal("empty covering for a non-empty cap")
	}
	if !covering.ContainsPoint(center) {
		t.Error("covering does not contain the cap center")
	}
	for _, id := range covering {
		if id.Level() != 8 {
			// Early emit: the first admissible level is MinLevel.
			t.Errorf("cell %v emitted at level %d, want 8", id, id.Level())
		}
	}
}

func TestCovererAllFacesSeeded(t *testing.T) {
	// A cap on face 3 must be coverable even though recursion starts at
	// face 0.
	center := faceUVtoXYZ(3, 0.1, -0.2)
	cap := CapFromCenterAngle(center, s1.Angle(0.01))

	rc := NewRegionCoverer(CovererOptions{MinLevel: 5, MaxLevel: 10, MaxCells: 50})
	covering := rc.Covering(cap)
	if covering.Len() == 0 {
		t.Fatal("cap on face 3 got an empty covering")
	}
	if !covering.ContainsPoint(center) {
		t.Error("covering on face 3 misses the cap center")
	}
	for _, id := range covering {
		if id.Face() != 3 {
			t.Errorf("cell %v on face %d, expected face 3 only", id, id.Face())
		}
	}
}

func TestCovererInteriorSubset(t *testing.T) {
	cap := CapFromCenterAngle(PointFromLatLng(LatLngFromDegrees(10, 20)), s1.Angle(0.2))
	rc := NewRegionCoverer(CovererOptions{MinLevel: 6, MaxLevel: 10, MaxCells: 200})

	interior := rc.InteriorCovering(cap)
	for _, id := range interior {
		if !cap.ContainsPoint(id.Point()) {
			t.Errorf("interior cell %v has center outside the region", id)
		}
	}
}

func TestCovererEmptyRegion(t *testing.T) {
	rc := NewRegionCoverer(DefaultCovererOptions())
	if got := rc.Covering(EmptyCap()).Len(); got != 0 {
		t.Errorf("covering of the empty cap has %d cells, want 0", got)
	}
}

func TestCovererOptionClamping(t *testing.T) {
	rc := NewRegionCoverer(CovererOptions{MinLevel: -5, MaxLevel: 99, MaxCells: 0})
	opts := rc.Options()
	if opts.MinLevel != 0 {
		t.Errorf("MinLevel clamped to %d, want 0", opts.MinLevel)
	}
	if opts.MaxLevel != maxLevel {
		t.Errorf("MaxLevel clamped to %d, want %d", opts.MaxLevel, maxLevel)
	}
	if opts.MaxCells < 1 {
		t.Errorf("MaxCells %d, want >= 1", opts.MaxCells)
	}

	rc = NewRegionCoverer(CovererOptions{MinLevel: 20, MaxLevel: 10, MaxCells: 4})
	opts = rc.Options()
	if opts.MinLevel > opts.MaxLevel {
		t.Errorf("MinLevel %d above MaxLevel %d after clamping", opts.MinLevel, opts.MaxLevel)
	}
}

func TestCovererRectRegion(t *testing.T) {
	rect := EmptyRect().
		AddPoint(LatLngFromDegrees(40, -75)).
		AddPoint(LatLngFromDegrees(41, -73))
	rc := NewRegionCoverer(CovererOptions{MinLevel: 6, MaxLevel: 12, MaxCells: 100})

	covering := rc.Covering(rect)
	if covering.Len() == 0 {
		t.Fatal("empty covering for a non-empty rect")
	}
	inside := PointFromLatLng(LatLngFromDegrees(40.5, -74))
	if !covering.ContainsPoint(inside) {
		t.Error("covering misses a point inside the rect")
	}
}

func TestCovererAreaConvergence(t *testing.T) {
	// Finer MinLevel coverings of the same cap waste less area.
	cap := CapFromCenterAngle(PointFromLatLng(LatLngFromDegrees(-20, 30)), s1.Angle(0.05))

	coarse := NewRegionCoverer(CovererOptions{MinLevel: 4, MaxLevel: 10, MaxCells: 1000}).Covering(cap)
	fine := NewRegionCoverer(CovererOptions{MinLevel: 8, MaxLevel: 10, MaxCells: 1000}).Covering(cap)

	capArea := 2 * math.Pi * cap.Height
	coarseArea := coarse.ExactArea()
	fineArea := fine.ExactArea()
	if coarseArea < capArea || fineArea < capArea {
		t.Error("exterior covering area below the region area")
	}
	if fineArea > coarseArea {
		t.Errorf("finer covering wastes more area: %f > %f", fineArea, coarseArea)
	}
}
