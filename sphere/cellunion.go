package sphere

import (
	"sort"
)

// CellUnion is a set of cells over the hierarchy, kept normalized: sorted
// ascending by id, duplicate-free, and with no member an ancestor of
// another. Sibling cells are never coalesced into their parent even when
// all four are present, so a union is canonical but not minimal.
type CellUnion []CellID

// CellUnionFromIDs builds a normalized union from a raw list of ids.
func CellUnionFromIDs(ids []CellID) CellUnion {
	cu := CellUnion(append([]CellID(nil), ids...))
	cu.Normalize()
	return cu
}

// Normalize sorts the members and drops any member contained by the one
// retained before it. A single left-to-right sweep suffices on sorted
// input because an ancestor always sorts at or before its descendants'
// range.
func (cu *CellUnion) Normalize() {
	ids := *cu
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	for _, id := range ids {
		if len(out) > 0 && out[len(out)-1].Contains(id) {
			continue
		}
		out = append(out, id)
	}
	*cu = out
}

// Len returns the number of member cells.
func (cu CellUnion) Len() int { return len(cu) }

// Add appends a cell and fully re-normalizes. O(n log n) per call; prefer
// CellUnionFromIDs for bulk loads.
func (cu *CellUnion) Add(id CellID) {
	*cu = append(*cu, id)
	cu.Normalize()
}

// ContainsCellID reports whether the union contains the given cell: either
// an exact member, or one of the neighbors around the insertion point is an
// ancestor of it.
func (cu CellUnion) ContainsCellID(id CellID) bool {
	i := sort.Search(len(cu), func(k int) bool { return cu[k] >= id })
	if i < len(cu) && cu[i].RangeMin() <= id {
		return true
	}
	return i > 0 && cu[i-1].RangeMax() >= id
}

// ContainsPoint reports whether the point's leaf cell is covered.
func (cu CellUnion) ContainsPoint(p Point) bool {
	return cu.ContainsCellID(CellIDFromPoint(p))
}

// IntersectsCellID reports whether any member intersects the given cell.
// The binary search catches members adjacent to the insertion point; a
// linear fallback scan catches ancestor/descendant pairs that are not
// adjacent in sort order, so the worst case is O(n).
func (cu CellUnion) IntersectsCellID(id CellID) bool {
	i := sort.Search(len(cu), func(k int) bool { return cu[k] >= id })
	if i < len(cu) && cu[i].RangeMin() <= id.RangeMax() {
		return true
	}
	if i > 0 && cu[i-1].RangeMax() >= id.RangeMin() {
		return true
	}
	for _, member := range cu {
		if member.Intersects(id) {
			return true
		}
	}
	return false
}

// Union returns the normalized union of both sets via an ordered merge.
func (cu CellUnion) Union(other CellUnion) CellUnion {
	out := make(CellUnion, 0, len(cu)+len(other))
	i, j := 0, 0
	for i < len(cu) && j < len(other) {
		if cu[i] <= other[j] {
			out = append(out, cu[i])
			i++
		} else {
			out = append(out, other[j])
			j++
		}
	}
	out = append(out, cu[i:]...)
	out = append(out, other[j:]...)
	out.Normalize()
	return out
}

// Intersection returns the normalized intersection. On normalized inputs
// two members either nest or are disjoint, so an ordered two-pointer merge
// suffices.
func (cu CellUnion) Intersection(other CellUnion) CellUnion {
	var out CellUnion
	i, j := 0, 0
	for i < len(cu) && j < len(other) {
		switch {
		case cu[i].Contains(other[j]):
			out = append(out, other[j])
			j++
		case other[j].Contains(cu[i]):
			out = append(out, cu[i])
			i++
		case cu[i] < other[j]:
			i++
		default:
			j++
		}
	}
	out.Normalize()
	return out
}

// Difference returns the cells of cu not covered by other, subdividing
// members that partially overlap down to the pieces outside the other set.
func (cu CellUnion) Difference(other CellUnion) CellUnion {
	var out CellUnion
	for _, id := range cu {
		cellDifference(id, other, &out)
	}
	out.Normalize()
	return out
}

func cellDifference(id CellID, other CellUnion, out *CellUnion) {
	if !other.IntersectsCellID(id) {
		*out = append(*out, id)
		return
	}
	if other.ContainsCellID(id) {
		return
	}
	for pos := 0; pos < 4; pos++ {
		child, err := id.Child(pos)
		if err != nil {
			return // leaf partially covered: drop it
		}
		cellDifference(child, other, out)
	}
}

// MayIntersect implements Region for a CellUnion.
func (cu CellUnion) MayIntersect(c Cell) bool {
	return cu.IntersectsCellID(c.ID())
}

// CapBound returns a cap covering all member cells.
func (cu CellUnion) CapBound() Cap {
	cap := EmptyCap()
	for _, id := range cu {
		b := CellFromCellID(id).CapBound()
		cap = cap.AddPoint(b.Center).Expanded(b.Radius())
	}
	return cap
}

// RectBound returns a rectangle covering all member cells.
func (cu CellUnion) RectBound() Rect {
	rect := EmptyRect()
	for _, id := range cu {
		rect = rect.Union(CellFromCellID(id).RectBound())
	}
	return rect
}

// ExactArea returns the summed area of the member cells.
func (cu CellUnion) ExactArea() float64 {
	var area float64
	for _, id := range cu {
		area += CellFromCellID(id).ExactArea()
	}
	return area
}
