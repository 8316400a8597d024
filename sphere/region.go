package sphere

// Region is the capability the covering machinery consumes. Cap, Rect, Cell
// and CellUnion all implement it, as do the algebra composites below.
//
// MayIntersect must be conservative: it may report true for a cell the
// region misses, but never false for a cell it touches. CapBound and
// RectBound must be supersets of the region.
type Region interface {
	ContainsPoint(p Point) bool
	MayIntersect(c Cell) bool
	CapBound() Cap
	RectBound() Rect
}

// The boolean combinators below form an owned composite graph: each node
// exclusively owns its children and there is no sharing between composites.

// RegionUnion is the union of its sub-regions.
type RegionUnion []Region

func (u RegionUnion) ContainsPoint(p Point) bool {
	for _, r := range u {
		if r.ContainsPoint(p) {
			return true
		}
	}
	return false
}

func (u RegionUnion) MayIntersect(c Cell) bool {
	for _, r := range u {
		if r.MayIntersect(c) {
			return true
		}
	}
	return false
}

func (u RegionUnion) CapBound() Cap {
	cap := EmptyCap()
	for _, r := range u {
		b := r.CapBound()
		if b.IsEmpty() {
			continue
		}
		// Covering b's center and then growing by b's radius keeps the
		// accumulated cap a superset of every member seen so far.
		cap = cap.AddPoint(b.Center).Expanded(b.Radius())
	}
	return cap
}

func (u RegionUnion) RectBound() Rect {
	rect := EmptyRect()
	for _, r := range u {
		rect = rect.Union(r.RectBound())
	}
	return rect
}

// RegionIntersection is the intersection of its sub-regions.
type RegionIntersection []Region

func (i RegionIntersection) ContainsPoint(p Point) bool {
	for _, r := range i {
		if !r.ContainsPoint(p) {
			return false
		}
	}
	return len(i) > 0
}

func (i RegionIntersection) MayIntersect(c Cell) bool {
	for _, r := range i {
		if !r.MayIntersect(c) {
			return false
		}
	}
	return len(i) > 0
}

func (i RegionIntersection) CapBound() Cap {
	// Any single member bounds the intersection; use the smallest.
	best := FullCap()
	for _, r := range i {
		if b := r.CapBound(); b.Height < best.Height {
			best = b
		}
	}
	return best
}

func (i RegionIntersection) RectBound() Rect {
	rect := FullRect()
	for _, r := range i {
		rect = rect.Intersection(r.RectBound())
	}
	return rect
}

// RegionDifference is A minus B.
type RegionDifference struct {
	A, B Region
}

func (d RegionDifference) ContainsPoint(p Point) bool {
	return d.A.ContainsPoint(p) && !d.B.ContainsPoint(p)
}

func (d RegionDifference) MayIntersect(c Cell) bool {
	// Subtracting B can only shrink A, so A's test stays conservative.
	return d.A.MayIntersect(c)
}

func (d RegionDifference) CapBound() Cap { return d.A.CapBound() }

func (d RegionDifference) RectBound() Rect { return d.A.RectBound() }

// RegionComplement is the sphere minus the wrapped region.
type RegionComplement struct {
	R Region
}

func (c RegionComplement) ContainsPoint(p Point) bool {
	return !c.R.ContainsPoint(p)
}

func (c RegionComplement) MayIntersect(cell Cell) bool {
	// Without an interior test on the wrapped region there is no sound way
	// to prune, so every cell may intersect the complement.
	return true
}

func (c RegionComplement) CapBound() Cap { return FullCap() }

func (c RegionComplement) RectBound() Rect { return FullRect() }

// RegionSymmetricDifference contains the points in exactly one of A and B.
type RegionSymmetricDifference struct {
	A, B Region
}

func (s RegionSymmetricDifference) ContainsPoint(p Point) bool {
	return s.A.ContainsPoint(p) != s.B.ContainsPoint(p)
}

func (s RegionSymmetricDifference) MayIntersect(c Cell) bool {
	return s.A.MayIntersect(c) || s.B.MayIntersect(c)
}

func (s RegionSymmetricDifference) CapBound() Cap {
	return RegionUnion{s.A, s.B}.CapBound()
}

func (s RegionSymmetricDifference) RectBound() Rect {
	return s.A.RectBound().Union(s.B.RectBound())
}
