package sphere

import (
	"fmt"

	"github.com/golang/geo/s1"
)

// EdgeHandle is a stable, generation-checked reference to an edge in an
// EdgeIndex, with the same semantics as PointHandle.
type EdgeHandle struct {
	Index int32
	Gen   uint32
}

type edgeSlot struct {
	edge     Edge
	cells    []CellID // the covering cells this edge is bucketed under
	gen      uint32
	occupied bool
}

// EdgeIndexOptions configures the covering used per edge.
type EdgeIndexOptions struct {
	MinLevel     int
	MaxLevel     int
	CellsPerEdge int
	Log          bool
}

// DefaultEdgeIndexOptions uses a small per-edge covering budget at a
// granularity useful for street-scale edges.
func DefaultEdgeIndexOptions() EdgeIndexOptions {
	return EdgeIndexOptions{MinLevel: 8, MaxLevel: 16, CellsPerEdge: 8}
}

// EdgeIndex buckets edges by the cells covering their bounding caps. Like
// the point index it stores edges in a slot arena with generation-checked
// handles so removal is cheap and never invalidates other references.
type EdgeIndex struct {
	opts    EdgeIndexOptions
	coverer *RegionCoverer
	slots   []edgeSlot
	free    []int32
	buckets map[CellID][]EdgeHandle
	count   int
}

// NewEdgeIndex creates an empty index with clamped options. MaxLevel 0 is
// honored as face-root coverings; only CellsPerEdge falls back to its
// default when unset.
func NewEdgeIndex(opts EdgeIndexOptions) *EdgeIndex {
	opts.MinLevel = clampInt(opts.MinLevel, 0, maxLevel)
	opts.MaxLevel = clampInt(opts.MaxLevel, 0, maxLevel)
	if opts.MinLevel > opts.MaxLevel {
		opts.MinLevel = opts.MaxLevel
	}
	if opts.CellsPerEdge < 1 {
		opts.CellsPerEdge = DefaultEdgeIndexOptions().CellsPerEdge
	}
	return &EdgeIndex{
		opts: opts,
		coverer: NewRegionCoverer(CovererOptions{
			MinLevel: opts.MinLevel,
			MaxLevel: opts.MaxLevel,
			MaxCells: opts.CellsPerEdge,
			Log:      opts.Log,
		}),
		buckets: make(map[CellID][]EdgeHandle),
	}
}

// edgeBound returns a cap covering the edge: centered on the midpoint and
// reaching both endpoints.
func edgeBound(e Edge) Cap {
	mid := PointFromCoords(
		e.V0.X+e.V1.X,
		e.V0.Y+e.V1.Y,
		e.V0.Z+e.V1.Z,
	)
	r := mid.Angle(e.V0)
	if a := mid.Angle(e.V1); a > r {
		r = a
	}
	return CapFromCenterAngle(mid, r+s1.Angle(1e-15))
}

// Len returns the number of live edges.
func (ei *EdgeIndex) Len() int { return ei.count }

// Add stores the edge, covers its bound and buckets it under every
// covering cell. It returns a stable handle.
func (ei *EdgeIndex) Add(e Edge) EdgeHandle {
	covering := ei.coverer.Covering(edgeBound(e))
	cells := append([]CellID(nil), covering...)

	var idx int32
	if n := len(ei.free); n > 0 {
		idx = ei.free[n-1]
		ei.free = ei.free[:n-1]
		slot := &ei.slots[idx]
		slot.edge = e
		slot.cells = cells
		slot.occupied = true
	} else {
		idx = int32(len(ei.slots))
		ei.slots = append(ei.slots, edgeSlot{edge: e, cells: cells, gen: 1, occupied: true})
	}

	h := EdgeHandle{Index: idx, Gen: ei.slots[idx].gen}
	for _, cid := range cells {
		ei.buckets[cid] = append(ei.buckets[cid], h)
	}
	ei.count++
	return h
}

// Get returns the edge for a handle, or an error if the handle is stale.
func (ei *EdgeIndex) Get(h EdgeHandle) (Edge, error) {
	if h.Index < 0 || int(h.Index) >= len(ei.slots) {
		return Edge{}, fmt.Errorf("invalid handle index %d", h.Index)
	}
	slot := &ei.slots[h.Index]
	if !slot.occupied || slot.gen != h.Gen {
		return Edge{}, fmt.Errorf("stale handle: edge %d was removed", h.Index)
	}
	return slot.edge, nil
}

// Remove deletes the edge behind the handle from all its buckets.
func (ei *EdgeIndex) Remove(h EdgeHandle) error {
	if h.Index < 0 || int(h.Index) >= len(ei.slots) {
		return fmt.Errorf("invalid handle index %d", h.Index)
	}
	slot := &ei.slots[h.Index]
	if !slot.occupied || slot.gen != h.Gen {
		return fmt.Errorf("stale handle: edge %d was removed", h.Index)
	}

	for _, cid := range slot.cells {
		bucket := ei.buckets[cid]
		for i, bh := range bucket {
			if bh == h {
				bucket[i] = bucket[len(bucket)-1]
				bucket = bucket[:len(bucket)-1]
				break
			}
		}
		if len(bucket) == 0 {
			delete(ei.buckets, cid)
		} else {
			ei.buckets[cid] = bucket
		}
	}

	slot.occupied = false
	slot.gen++
	slot.cells = nil
	ei.free = append(ei.free, h.Index)
	ei.count--
	return nil
}

// SearchCell returns the edges whose covering touches the given cell: the
// cell's own bucket, any bucket along its ancestor chain, and, by linear
// fallback, buckets for cells the query contains.
func (ei *EdgeIndex) SearchCell(id CellID) []EdgeHandle {
	seen := make(map[EdgeHandle]bool)
	var out []EdgeHandle
	collect := func(bucket []EdgeHandle) {
		for _, h := range bucket {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}

	for level := 0; level <= id.Level(); level++ {
		anc, _ := id.Parent(level)
		collect(ei.buckets[anc])
	}
	for cid, bucket := range ei.buckets {
		if cid.Level() > id.Level() && id.Contains(cid) {
			collect(bucket)
		}
	}
	return out
}
