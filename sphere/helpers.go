package sphere

import (
	"math"
	"math/rand"

	"github.com/golang/geo/s1"
)

// CoverageSummary aggregates a cell union for reporting.
type CoverageSummary struct {
	NumCells   int         `json:"numCells"`
	MinLevel   int         `json:"minLevel"`
	MaxLevel   int         `json:"maxLevel"`
	LevelCount map[int]int `json:"levelCount"`
	TotalArea  float64     `json:"totalArea"`
	AreaShare  float64     `json:"areaShare"` // fraction of the full sphere
}

// CalculateCoverageSummary summarizes the level distribution and total area
// of a cell union.
func CalculateCoverageSummary(cu CellUnion) CoverageSummary {
	summary := CoverageSummary{
		LevelCount: make(map[int]int),
	}
	if len(cu) == 0 {
		return summary
	}

	summary.NumCells = len(cu)
	summary.MinLevel = maxLevel
	for _, id := range cu {
		level := id.Level()
		summary.LevelCount[level]++
		if level < summary.MinLevel {
			summary.MinLevel = level
		}
		if level > summary.MaxLevel {
			summary.MaxLevel = level
		}
		summary.TotalArea += CellFromCellID(id).ExactArea()
	}
	summary.AreaShare = summary.TotalArea / (4 * math.Pi)
	return summary
}

// GenerateTestPoints returns n uniformly distributed points inside the
// given lat/lng rectangle.
func GenerateTestPoints(n int, bounds Rect) []Point {
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = randomPointInRect(bounds)
	}
	return points
}

// randomPointInRect samples a lat/lng uniformly by area: the sine of the
// latitude is sampled uniformly, not the latitude itself.
func randomPointInRect(bounds Rect) Point {
	sinLo := math.Sin(bounds.Lat.Lo)
	sinHi := math.Sin(bounds.Lat.Hi)
	lat := math.Asin(sinLo + rand.Float64()*(sinHi-sinLo))

	lngSpan := bounds.Lng.Length()
	lng := wrapLng(bounds.Lng.Lo + rand.Float64()*lngSpan)

	return PointFromLatLng(LatLng{
		Lat: s1.Angle(lat),
		Lng: s1.Angle(lng),
	})
}

// RandomCellID returns a uniformly chosen cell at the given level.
func RandomCellID(level int) CellID {
	f := rand.Intn(numFaces)
	i := rand.Intn(1 << uint(level))
	j := rand.Intn(1 << uint(level))
	shift := uint(maxLevel - level)
	ci, _ := cellIDFromFaceIJ(f, i<<shift, j<<shift).Parent(level)
	return ci
}
