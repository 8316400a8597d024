package sphere

import (
	"fmt"
)

// CovererOptions configures a RegionCoverer. Out-of-range values are
// clamped into their valid ranges by NewRegionCoverer rather than rejected.
type CovererOptions struct {
	MinLevel int  // emit no cell coarser than this level
	MaxLevel int  // never descend past this level
	MaxCells int  // hard budget on the number of emitted cells
	Interior bool // interior mode: results are inside the region
	Log      bool
}

// DefaultCovererOptions covers the full level range with a small budget.
func DefaultCovererOptions() CovererOptions {
	return CovererOptions{MinLevel: 0, MaxLevel: maxLevel, MaxCells: 8}
}

// RegionCoverer approximates an arbitrary Region with a budgeted set of
// cells. The search is a depth-first descent seeded from all six face
// roots; a branch is pruned as soon as the region reports no relationship
// with it, and the first admissible cell at or below the budget is emitted
// without looking for a coarser alternative. The result is therefore valid
// but not the optimal covering for the budget.
type RegionCoverer struct {
	opts CovererOptions
}

// NewRegionCoverer clamps the options into valid ranges and returns a
// coverer. MinLevel and MaxLevel are clamped into [0,30] with MinLevel
// lowered to MaxLevel if they cross, and MaxCells below 1 falls back to
// the default budget.
func NewRegionCoverer(opts CovererOptions) *RegionCoverer {
	opts.MinLevel = clampInt(opts.MinLevel, 0, maxLevel)
	opts.MaxLevel = clampInt(opts.MaxLevel, 0, maxLevel)
	if opts.MinLevel > opts.MaxLevel {
		opts.MinLevel = opts.MaxLevel
	}
	if opts.MaxCells < 1 {
		opts.MaxCells = DefaultCovererOptions().MaxCells
	}
	return &RegionCoverer{opts: opts}
}

// Options returns the clamped options in effect.
func (rc *RegionCoverer) Options() CovererOptions { return rc.opts }

// Covering returns an exterior covering: a cell union whose members
// together form a superset of the region, with at most MaxCells members.
func (rc *RegionCoverer) Covering(region Region) CellUnion {
	return rc.cover(region, false)
}

// InteriorCovering returns cells whose acceptance test is containment of
// the cell center, so the result approximates the region from the inside.
func (rc *RegionCoverer) InteriorCovering(region Region) CellUnion {
	return rc.cover(region, true)
}

func (rc *RegionCoverer) cover(region Region, interior bool) CellUnion {
	interior = interior || rc.opts.Interior
	var result []CellID
	for f := 0; f < numFaces; f++ {
		rc.coverCell(region, CellFromCellID(CellIDFromFace(f)), interior, &result)
	}
	if rc.opts.Log {
		fmt.Printf("Covered region with %d cells (budget %d, levels %d-%d)\n",
			len(result), rc.opts.MaxCells, rc.opts.MinLevel, rc.opts.MaxLevel)
	}
	return CellUnionFromIDs(result)
}

func (rc *RegionCoverer) coverCell(region Region, cell Cell, interior bool, result *[]CellID) {
	if len(*result) >= rc.opts.MaxCells {
		return
	}
	if interior {
		if !region.ContainsPoint(cell.Center()) {
			return
		}
	} else if !region.MayIntersect(cell) {
		return
	}
	if cell.Level() >= rc.opts.MinLevel || cell.Level() == rc.opts.MaxLevel {
		*result = append(*result, cell.ID())
		return
	}
	for pos := 0; pos < 4; pos++ {
		child, err := cell.ID().Child(pos)
		if err != nil {
			return
		}
		rc.coverCell(region, CellFromCellID(child), interior, result)
	}
}
