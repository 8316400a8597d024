package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"web/spherekit/sphere"

	"github.com/golang/geo/s1"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to file")
	heapprofile = flag.String("heapprofile", "", "write heap profile to file")
	numPoints   = flag.Int("points", 100000, "number of points to index")
	maxCells    = flag.Int("cells", 8, "covering budget to profile")
	testall     = flag.Bool("testall", false, "test all configurations")
)

// generateRandomPoints creates n random points within a geographic bounding box
func generateRandomPoints(n int, minLng, maxLng, minLat, maxLat float64) []sphere.Point {
	// Use deterministic seed for reproducibility
	source := rand.NewSource(42)
	r := rand.New(source)

	points := make([]sphere.Point, n)
	for i := 0; i < n; i++ {
		lat := minLat + r.Float64()*(maxLat-minLat)
		lng := minLng + r.Float64()*(maxLng-minLng)
		points[i] = sphere.PointFromLatLng(sphere.LatLngFromDegrees(lat, lng))
	}
	return points
}

// buildIndex adds all points to a fresh index, returning the index and
// build duration.
func buildIndex(points []sphere.Point) (*sphere.PointIndex, time.Duration) {
	pi := sphere.NewPointIndex(sphere.DefaultPointIndexOptions())
	start := time.Now()
	for _, p := range points {
		pi.Add(p)
	}
	return pi, time.Since(start)
}

// querySites are cap centers used for search profiling.
var querySites = []sphere.LatLng{
	sphere.LatLngFromDegrees(37.7749, -122.4194),
	sphere.LatLngFromDegrees(40.7128, -74.0060),
	sphere.LatLngFromDegrees(41.8781, -87.6298),
	sphere.LatLngFromDegrees(29.7604, -95.3698),
}

func runSingleProfile(numPoints, maxCells int) {
	fmt.Printf("Profiling with %d points and a %d cell covering budget\n", numPoints, maxCells)

	points := generateRandomPoints(numPoints, -125.0, -65.0, 25.0, 49.0)

	// Measure memory around the index build
	var memStatsBefore, memStatsAfter runtime.MemStats
	runtime.ReadMemStats(&memStatsBefore)

	pi, buildDuration := buildIndex(points)

	runtime.ReadMemStats(&memStatsAfter)
	allocMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024

	fmt.Printf("Index built in %v\n", buildDuration)
	fmt.Printf("Memory allocated: %.2f MB\n", allocMB)
	fmt.Printf("Memory usage: %.2f MB\n", float64(memStatsAfter.Alloc)/1024/1024)

	// Time coverings at a range of cap sizes
	coverer := sphere.NewRegionCoverer(sphere.CovererOptions{
		MinLevel: 0,
		MaxLevel: 20,
		MaxCells: maxCells,
	})
	for _, radius := range []float64{0.001, 0.01, 0.1} {
		cap := sphere.CapFromCenterAngle(sphere.PointFromLatLng(querySites[0]), s1.Angle(radius))
		start := time.Now()
		covering := coverer.Covering(cap)
		fmt.Printf("Covering radius %.3f rad: %d cells in %v\n", radius, covering.Len(), time.Since(start))
	}

	// Time region searches around the query sites
	start := time.Now()
	var found int
	for _, site := range querySites {
		cap := sphere.CapFromCenterAngle(sphere.PointFromLatLng(site), 0.01)
		found += len(pi.SearchRegion(cap))
	}
	fmt.Printf("Searched %d caps in %v (%d points found)\n", len(querySites), time.Since(start), found)
}

func runProfileBattery() {
	pointCounts := []int{1000, 10000, 50000, 100000}
	budgets := []int{4, 8, 16, 64}

	fmt.Println("Running comprehensive profile battery...")
	fmt.Println("=======================================")

	// Table header
	fmt.Printf("%-10s | %-10s | %-15s | %-15s | %-10s | %-10s\n",
		"Points", "Budget", "Build", "Search", "Memory (MB)", "GC Runs")
	fmt.Printf("%s\n", "------------------------------------------------------------------------")

	for _, points := range pointCounts {
		for _, budget := range budgets {
			testPoints := generateRandomPoints(points, -125.0, -65.0, 25.0, 49.0)

			// Collect GC stats before
			var memStatsBefore, memStatsAfter runtime.MemStats
			runtime.ReadMemStats(&memStatsBefore)

			pi, buildDuration := buildIndex(testPoints)

			coverer := sphere.NewRegionCoverer(sphere.CovererOptions{
				MinLevel: 0,
				MaxLevel: 20,
				MaxCells: budget,
			})

			searchStart := time.Now()
			for _, site := range querySites {
				cap := sphere.CapFromCenterAngle(sphere.PointFromLatLng(site), 0.01)
				for _, cid := range coverer.Covering(cap) {
					pi.SearchCell(cid)
				}
				pi.SearchRegion(cap)
			}
			searchDuration := time.Since(searchStart)

			// Collect stats after
			runtime.ReadMemStats(&memStatsAfter)
			memMB := float64(memStatsAfter.TotalAlloc-memStatsBefore.TotalAlloc) / 1024 / 1024
			gcRuns := memStatsAfter.NumGC - memStatsBefore.NumGC

			// Print result row
			fmt.Printf("%-10d | %-10d | %-15s | %-15s | %-10.2f | %-10d\n",
				points, budget, buildDuration, searchDuration, memMB, gcRuns)
		}

		// Add separator between point counts
		fmt.Printf("%s\n", "------------------------------------------------------------------------")
	}
}

func main() {
	flag.Parse()

	// Set up CPU profiling if requested
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			return
		}
		defer f.Close()

		fmt.Println("Starting CPU profiling...")
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			return
		}
		defer pprof.StopCPUProfile()
	}

	// Run tests
	if *testall {
		runProfileBattery()
	} else {
		runSingleProfile(*numPoints, *maxCells)
	}

	// Write memory profile if requested
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create memory profile: %v\n", err)
			return
		}
		defer f.Close()
		runtime.GC() // Get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write memory profile: %v\n", err)
		}
	}

	// Write heap profile if requested
	if *heapprofile != "" {
		f, err := os.Create(*heapprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create heap profile: %v\n", err)
			return
		}
		defer f.Close()

		memProfile := pprof.Lookup("heap")
		if memProfile == nil {
			fmt.Fprintf(os.Stderr, "Could not find heap profile\n")
			return
		}

		if err := memProfile.WriteTo(f, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Could not write heap profile: %v\n", err)
		}
	}
}
