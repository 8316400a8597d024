package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"web/spherekit/sphere"

	"github.com/golang/geo/s1"
	"github.com/google/uuid"
)

// IndexRunner keeps a bounded set of point indexes loaded in memory,
// loading snapshots on demand and evicting the least recently used index
// when the cap is reached.
type IndexRunner struct {
	indexes      map[string]*sphere.PointIndex
	indexLock    sync.RWMutex
	lastAccessed map[string]time.Time
	maxIndexes   int
	saveDir      string
}

func NewIndexRunner(saveDir string, maxIndexes int) *IndexRunner {
	runner := &IndexRunner{
		indexes:      make(map[string]*sphere.PointIndex),
		lastAccessed: make(map[string]time.Time),
		maxIndexes:   maxIndexes,
		saveDir:      saveDir,
	}

	// Start cleanup goroutine
	go runner.cleanupInactiveIndexes()

	return runner
}

func (r *IndexRunner) cleanupInactiveIndexes() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.indexLock.Lock()
		now := time.Now()

		// Find indexes inactive for more than 30 minutes
		var toRemove []string
		for id, lastAccess := range r.lastAccessed {
			if now.Sub(lastAccess) > 30*time.Minute {
				toRemove = append(toRemove, id)
			}
		}

		for _, id := range toRemove {
			delete(r.indexes, id)
			delete(r.lastAccessed, id)
		}

		r.indexLock.Unlock()
	}
}

func (r *IndexRunner) loadIndexIfNeeded(id string) (*sphere.PointIndex, error) {
	r.indexLock.Lock()
	defer r.indexLock.Unlock()

	// Update access time if the index is already loaded
	if pi, exists := r.indexes[id]; exists {
		r.lastAccessed[id] = time.Now()
		return pi, nil
	}

	// Evict the least recently used index if at capacity
	if len(r.indexes) >= r.maxIndexes {
		var oldestID string
		var oldestTime time.Time
		first := true

		for iid, accessTime := range r.lastAccessed {
			if first || accessTime.Before(oldestTime) {
				oldestID = iid
				oldestTime = accessTime
				first = false
			}
		}

		if oldestID != "" {
			delete(r.indexes, oldestID)
			delete(r.lastAccessed, oldestID)
		}
	}

	indexFile, err := sphere.FindIndexFile(r.saveDir, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find index file: %v", err)
	}

	pi, err := sphere.LoadCompressedPointIndex(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load index %s: %v", id, err)
	}

	r.indexes[id] = pi
	r.lastAccessed[id] = time.Now()
	return pi, nil
}

// CreateIndex builds an index of numPoints uniformly random points inside
// the given bounds, saves a snapshot and keeps it loaded.
func (r *IndexRunner) CreateIndex(ctx context.Context, numPoints int, bounds sphere.Rect) (sphere.IndexInfo, error) {
	fmt.Printf("Creating new index with %d points\n", numPoints)

	points := sphere.GenerateTestPoints(numPoints, bounds)

	pi := sphere.NewPointIndex(sphere.DefaultPointIndexOptions())
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return sphere.IndexInfo{}, err
		}
		pi.Add(p)
	}

	if err := os.MkdirAll(r.saveDir, 0755); err != nil {
		return sphere.IndexInfo{}, fmt.Errorf("failed to create save directory: %v", err)
	}

	id := uuid.New().String()[:8] // Use first 8 chars of UUID for brevity
	savePath := r.indexFilename(numPoints, id)
	fmt.Printf("Saving new index to %s...\n", savePath)

	if err := pi.SaveCompressed(savePath); err != nil {
		return sphere.IndexInfo{}, fmt.Errorf("failed to save index: %v", err)
	}

	r.indexLock.Lock()
	r.indexes[id] = pi
	r.lastAccessed[id] = time.Now()
	r.indexLock.Unlock()

	fileInfo, err := os.Stat(savePath)
	if err != nil {
		return sphere.IndexInfo{}, fmt.Errorf("failed to get file info: %v", err)
	}

	return sphere.IndexInfo{
		ID:        id,
		NumPoints: numPoints,
		Timestamp: time.Now(),
		FileSize:  fileInfo.Size(),
	}, nil
}

func (r *IndexRunner) indexFilename(numPoints int, id string) string {
	timestamp := time.Now().Format("20060102-150405")
	return filepath.Join(r.saveDir, fmt.Sprintf("index-%dp-%s-%s.zst", numPoints, timestamp, id))
}

// ListIndexes returns metadata for every snapshot in the save directory.
func (r *IndexRunner) ListIndexes(ctx context.Context) ([]sphere.IndexInfo, error) {
	return sphere.ListSavedIndexes(r.saveDir)
}

// LoadIndex ensures the index is resident and returns its metadata.
func (r *IndexRunner) LoadIndex(ctx context.Context, id string) (sphere.IndexInfo, error) {
	if _, err := r.loadIndexIfNeeded(id); err != nil {
		return sphere.IndexInfo{}, err
	}
	return sphere.GetIndexInfo(r.saveDir, id)
}

// Search returns the points of the index inside the cap around center.
func (r *IndexRunner) Search(ctx context.Context, id string, center sphere.LatLng, radiusRad float64) ([]sphere.LatLng, error) {
	pi, err := r.loadIndexIfNeeded(id)
	if err != nil {
		return nil, err
	}

	cap := sphere.CapFromCenterAngle(sphere.PointFromLatLng(center), s1.Angle(radiusRad))
	handles := pi.SearchRegion(cap)

	results := make([]sphere.LatLng, 0, len(handles))
	for _, p := range pi.Points(handles) {
		results = append(results, sphere.LatLngFromPoint(p))
	}
	return results, nil
}

// Covering computes a cell covering of the cap around center and summarizes
// it.
func (r *IndexRunner) Covering(ctx context.Context, center sphere.LatLng, radiusRad float64, maxCells int) (sphere.CellUnion, sphere.CoverageSummary, error) {
	coverer := sphere.NewRegionCoverer(sphere.CovererOptions{
		MinLevel: 0,
		MaxLevel: 30,
		MaxCells: maxCells,
	})
	cap := sphere.CapFromCenterAngle(sphere.PointFromLatLng(center), s1.Angle(radiusRad))
	covering := coverer.Covering(cap)
	return covering, sphere.CalculateCoverageSummary(covering), nil
}
