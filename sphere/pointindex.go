package sphere

import (
	"fmt"
)

// PointHandle is a stable reference to a point in a PointIndex. Handles
// survive unrelated removals; a handle to a removed point is detected as
// stale by its generation rather than silently pointing at a reused slot.
type PointHandle struct {
	Index int32
	Gen   uint32
}

type pointSlot struct {
	point    Point
	leaf     CellID
	gen      uint32
	occupied bool
}

// PointIndexOptions configures the ancestor levels points are bucketed
// under. Out-of-range levels are clamped by NewPointIndex.
type PointIndexOptions struct {
	MinLevel int
	MaxLevel int
	Log      bool
}

// DefaultPointIndexOptions buckets from level 4 to level 16, a reasonable
// range for city- to street-scale queries.
func DefaultPointIndexOptions() PointIndexOptions {
	return PointIndexOptions{MinLevel: 4, MaxLevel: 16}
}

// PointIndex buckets points by cell id. Each added point is stored once in
// a slot arena and registered under its leaf cell's ancestor at every level
// in [MinLevel, MaxLevel]. Removal is O(levels) and never shifts other
// entries: slots are recycled through a free list and generation-checked.
type PointIndex struct {
	opts    PointIndexOptions
	slots   []pointSlot
	free    []int32
	buckets map[CellID][]PointHandle
	count   int
}

// NewPointIndex creates an empty index, clamping the level range into
// [0,30] with MinLevel lowered to MaxLevel if they cross. MaxLevel 0 is a
// valid request for face-root bucketing; callers wanting the defaults use
// DefaultPointIndexOptions.
func NewPointIndex(opts PointIndexOptions) *PointIndex {
	opts.MinLevel = clampInt(opts.MinLevel, 0, maxLevel)
	opts.MaxLevel = clampInt(opts.MaxLevel, 0, maxLevel)
	if opts.MinLevel > opts.MaxLevel {
		opts.MinLevel = opts.MaxLevel
	}
	return &PointIndex{
		opts:    opts,
		buckets: make(map[CellID][]PointHandle),
	}
}

// Options returns the clamped options in effect.
func (pi *PointIndex) Options() PointIndexOptions { return pi.opts }

// Len returns the number of live points.
func (pi *PointIndex) Len() int { return pi.count }

// Add stores the point and returns a stable handle to it.
func (pi *PointIndex) Add(p Point) PointHandle {
	leaf := CellIDFromPoint(p)

	var idx int32
	if n := len(pi.free); n > 0 {
		idx = pi.free[n-1]
		pi.free = pi.free[:n-1]
		slot := &pi.slots[idx]
		slot.point = p
		slot.leaf = leaf
		slot.occupied = true
	} else {
		idx = int32(len(pi.slots))
		pi.slots = append(pi.slots, pointSlot{point: p, leaf: leaf, gen: 1, occupied: true})
	}

	h := PointHandle{Index: idx, Gen: pi.slots[idx].gen}
	for level := pi.opts.MinLevel; level <= pi.opts.MaxLevel; level++ {
		anc, _ := leaf.Parent(level)
		pi.buckets[anc] = append(pi.buckets[anc], h)
	}
	pi.count++
	return h
}

// Get returns the point for a handle, or an error if the handle is out of
// range or stale.
func (pi *PointIndex) Get(h PointHandle) (Point, error) {
	if h.Index < 0 || int(h.Index) >= len(pi.slots) {
		return Point{}, fmt.Errorf("invalid handle index %d", h.Index)
	}
	slot := &pi.slots[h.Index]
	if !slot.occupied || slot.gen != h.Gen {
		return Point{}, fmt.Errorf("stale handle: point %d was removed", h.Index)
	}
	return slot.point, nil
}

// Remove deletes the point behind the handle. The slot is recycled and its
// generation bumped, so any handles still referring to it become stale.
func (pi *PointIndex) Remove(h PointHandle) error {
	if h.Index < 0 || int(h.Index) >= len(pi.slots) {
		return fmt.Errorf("invalid handle index %d", h.Index)
	}
	slot := &pi.slots[h.Index]
	if !slot.occupied || slot.gen != h.Gen {
		return fmt.Errorf("stale handle: point %d was removed", h.Index)
	}

	for level := pi.opts.MinLevel; level <= pi.opts.MaxLevel; level++ {
		anc, _ := slot.leaf.Parent(level)
		bucket := pi.buckets[anc]
		for i, bh := range bucket {
			if bh == h {
				bucket[i] = bucket[len(bucket)-1]
				bucket = bucket[:len(bucket)-1]
				break
			}
		}
		if len(bucket) == 0 {
			delete(pi.buckets, anc)
		} else {
			pi.buckets[anc] = bucket
		}
	}

	slot.occupied = false
	slot.gen++
	pi.free = append(pi.free, h.Index)
	pi.count--
	return nil
}

// SearchCell returns handles of the points inside the given cell. Cells
// within the bucketed level range are a direct lookup; a coarser query
// falls back to scanning the MinLevel buckets it contains, and a finer
// query filters the MaxLevel bucket by leaf containment.
func (pi *PointIndex) SearchCell(id CellID) []PointHandle {
	level := id.Level()
	switch {
	case level >= pi.opts.MinLevel && level <= pi.opts.MaxLevel:
		return append([]PointHandle(nil), pi.buckets[id]...)
	case level < pi.opts.MinLevel:
		var out []PointHandle
		for cid, bucket := range pi.buckets {
			if cid.Level() == pi.opts.MinLevel && id.Contains(cid) {
				out = append(out, bucket...)
			}
		}
		return out
	default:
		anc, _ := id.Parent(pi.opts.MaxLevel)
		var out []PointHandle
		for _, h := range pi.buckets[anc] {
			if id.Contains(pi.slots[h.Index].leaf) {
				out = append(out, h)
			}
		}
		return out
	}
}

// SearchRegion covers the region at the index's level range and collects
// the points whose exact position the region contains.
func (pi *PointIndex) SearchRegion(region Region) []PointHandle {
	coverer := NewRegionCoverer(CovererOptions{
		MinLevel: pi.opts.MinLevel,
		MaxLevel: pi.opts.MaxLevel,
		MaxCells: shapeIndexCoveringCells,
		Log:      pi.opts.Log,
	})
	covering := coverer.Covering(region)

	seen := make(map[PointHandle]bool)
	var out []PointHandle
	for _, cid := range covering {
		for _, h := range pi.SearchCell(cid) {
			if seen[h] {
				continue
			}
			seen[h] = true
			if region.ContainsPoint(pi.slots[h.Index].point) {
				out = append(out, h)
			}
		}
	}
	return out
}

// Points resolves a list of handles, skipping any that have gone stale.
func (pi *PointIndex) Points(handles []PointHandle) []Point {
	out := make([]Point, 0, len(handles))
	for _, h := range handles {
		if p, err := pi.Get(h); err == nil {
			out = append(out, p)
		}
	}
	return out
}
