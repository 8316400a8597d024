package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"syscall"
	"time"
	"web/spherekit/sphere"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/s1"
	"github.com/google/uuid"
)

const INDEX_SAVE_DIR = "data/indexes"

type IndexServer struct {
	index *sphere.PointIndex
}

func (s *IndexServer) Cleanup() {
	s.index = nil
	runtime.GC()
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func generateIndexFilename(size int) string {
	timestamp := time.Now().Format("20060102-150405")
	id := uuid.New().String()[:8] // Use first 8 chars of UUID for brevity
	return filepath.Join(INDEX_SAVE_DIR, fmt.Sprintf("index-%dp-%s-%s.zst", size, timestamp, id))
}

// continentalUS is the point generation region for new indexes.
func continentalUS() sphere.Rect {
	r := sphere.RectFromLatLng(sphere.LatLngFromDegrees(25.0, -125.0))
	return r.AddPoint(sphere.LatLngFromDegrees(49.0, -67.0))
}

func NewIndexServer(numPoints int) *IndexServer {
	fmt.Printf("\n=== Starting NewIndexServer with %d points ===\n", numPoints)

	// Create indexes directory if it doesn't exist
	if err := os.MkdirAll(INDEX_SAVE_DIR, 0755); err != nil {
		fmt.Printf("Failed to create indexes directory: %v\n", err)
	}

	// Only generate a new index if numPoints > 0
	if numPoints > 0 {
		fmt.Printf("Generating points in the Continental US...\n")
		points := sphere.GenerateTestPoints(numPoints, continentalUS())

		fmt.Printf("Creating new point index...\n")
		index := sphere.NewPointIndex(sphere.DefaultPointIndexOptions())

		loadStart := time.Now()
		for _, p := range points {
			index.Add(p)
		}
		loadDuration := time.Since(loadStart)
		fmt.Printf("Points indexed in %v\n", loadDuration)

		savePath := generateIndexFilename(numPoints)
		fmt.Printf("Saving new index to %s...\n", savePath)
		saveStart := time.Now()
		if err := index.SaveCompressed(savePath); err != nil {
			fmt.Printf("ERROR: Failed to save index: %v\n", err)
		} else {
			saveDuration := time.Since(saveStart)
			if fileInfo, err := os.Stat(savePath); err == nil {
				fmt.Printf("Successfully saved new index in %v (file size: %s)\n",
					saveDuration, formatFileSize(fileInfo.Size()))
			} else {
				fmt.Printf("Successfully saved new index in %v\n", saveDuration)
			}
		}

		fmt.Printf("=== Finished creating new index ===\n")
		return &IndexServer{
			index: index,
		}
	}

	// Return empty server if numPoints is 0
	return &IndexServer{}
}

func (s *IndexServer) listIndexes() ([]sphere.IndexInfo, error) {
	indexes, err := sphere.ListSavedIndexes(INDEX_SAVE_DIR)
	if err != nil {
		return nil, err
	}

	// Sort by timestamp descending
	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i].Timestamp.After(indexes[j].Timestamp)
	})
	return indexes, nil
}

func (s *IndexServer) loadIndexById(id string) (*sphere.IndexInfo, error) {
	indexFile, err := sphere.FindIndexFile(INDEX_SAVE_DIR, id)
	if err != nil {
		return nil, err
	}

	info, err := sphere.GetIndexInfo(INDEX_SAVE_DIR, id)
	if err != nil {
		return nil, err
	}

	loadStart := time.Now()
	loadedIndex, err := sphere.LoadCompressedPointIndex(indexFile)
	loadDuration := time.Since(loadStart)
	fmt.Printf("Index loaded from file in %v\n", loadDuration)

	if err != nil {
		return nil, fmt.Errorf("failed to load index: %v", err)
	}

	s.index = loadedIndex
	return &info, nil
}

// parseCapQuery reads lat, lng and radius (meters) query parameters and
// builds the corresponding cap.
func parseCapQuery(c *gin.Context) (sphere.Cap, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return sphere.Cap{}, fmt.Errorf("invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return sphere.Cap{}, fmt.Errorf("invalid lng parameter")
	}
	radius, err := strconv.ParseFloat(c.Query("radius"), 64)
	if err != nil || radius <= 0 {
		return sphere.Cap{}, fmt.Errorf("invalid radius parameter")
	}

	ll := sphere.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return sphere.Cap{}, fmt.Errorf("lat/lng out of range")
	}

	// Earth mean radius in meters
	const earthRadius = 6371008.8
	return sphere.CapFromCenterAngle(sphere.PointFromLatLng(ll), s1.Angle(radius/earthRadius)), nil
}

func main() {
	absPath, _ := filepath.Abs(INDEX_SAVE_DIR)
	fmt.Printf("Ensuring index directory exists: %s\n", absPath)
	if err := os.MkdirAll(INDEX_SAVE_DIR, 0755); err != nil {
		fmt.Printf("Error creating index directory: %v\n", err)
	}

	// Initialize with empty server instead of loading the last index
	server := &IndexServer{}
	fmt.Println("Started with empty index server - waiting for an index to be loaded...")

	r := gin.Default()

	// Enable CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Search points within a cap
	r.GET("/api/index/search", func(c *gin.Context) {
		if server.index == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No index loaded"})
			return
		}

		cap, err := parseCapQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		handles := server.index.SearchRegion(cap)
		points := server.index.Points(handles)

		// Convert to GeoJSON
		features := make([]map[string]interface{}, len(points))
		for i, p := range points {
			ll := sphere.LatLngFromPoint(p)
			features[i] = map[string]interface{}{
				"type": "Feature",
				"geometry": map[string]interface{}{
					"type":        "Point",
					"coordinates": []float64{ll.Lng.Degrees(), ll.Lat.Degrees()},
				},
				"properties": map[string]interface{}{
					"id": handles[i].Index,
				},
			}
		}

		geojson := map[string]interface{}{
			"type":     "FeatureCollection",
			"features": features,
		}

		c.JSON(http.StatusOK, geojson)
	})

	// Compute a cell covering of a cap
	r.GET("/api/index/covering", func(c *gin.Context) {
		cap, err := parseCapQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		maxCells := 8
		if v := c.Query("maxCells"); v != "" {
			maxCells, err = strconv.Atoi(v)
			if err != nil || maxCells < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxCells parameter"})
				return
			}
		}

		coverer := sphere.NewRegionCoverer(sphere.CovererOptions{
			MinLevel: 0,
			MaxLevel: 30,
			MaxCells: maxCells,
		})
		covering := coverer.Covering(cap)

		cells := make([]string, covering.Len())
		for i, id := range covering {
			cells[i] = id.String()
		}

		c.JSON(http.StatusOK, gin.H{
			"cells":   cells,
			"summary": sphere.CalculateCoverageSummary(covering),
		})
	})

	// List available indexes
	r.GET("/api/index/list", func(c *gin.Context) {
		indexes, err := server.listIndexes()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, indexes)
	})

	// Index info
	r.GET("/api/index/info", func(c *gin.Context) {
		if server.index == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No index loaded"})
			return
		}
		opts := server.index.Options()
		c.JSON(http.StatusOK, gin.H{
			"numPoints": server.index.Len(),
			"minLevel":  opts.MinLevel,
			"maxLevel":  opts.MaxLevel,
		})
	})

	// Create new index
	r.POST("/api/index", func(c *gin.Context) {
		var req struct {
			NumPoints int `json:"numPoints"`
		}
		fmt.Printf("\n=== Received request to create new index ===\n")
		if err := c.BindJSON(&req); err != nil {
			fmt.Printf("ERROR: Failed to parse request: %v\n", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.NumPoints <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "numPoints must be positive"})
			return
		}

		fmt.Printf("Creating new index with %d points\n", req.NumPoints)
		newServer := NewIndexServer(req.NumPoints)
		if newServer.index == nil {
			fmt.Printf("ERROR: New server has nil index\n")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize index"})
			return
		}

		server = newServer
		fmt.Printf("New index created successfully\n")
		c.JSON(http.StatusOK, gin.H{"message": "New index created"})
	})

	r.POST("/api/index/load/:id", func(c *gin.Context) {
		id := c.Param("id")
		fmt.Printf("Received request to load index with ID: %s\n", id)

		// Release the current index before loading the new one
		if server.index != nil {
			server.Cleanup()
		}

		info, err := server.loadIndexById(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Index loaded successfully", "indexInfo": info})
	})

	// Create a channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		fmt.Println("Starting server on :8000...")
		if err := r.Run(":8000"); err != nil {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	fmt.Println("\nShutting down server...")

	// Save the index before shutting down
	if server.index != nil {
		savePath := generateIndexFilename(server.index.Len())
		fmt.Printf("Saving index to %s...\n", savePath)
		saveStart := time.Now()
		if err := server.index.SaveCompressed(savePath); err != nil {
			fmt.Printf("Failed to save index on shutdown: %v\n", err)
		} else {
			saveDuration := time.Since(saveStart)
			if fileInfo, err := os.Stat(savePath); err == nil {
				fmt.Printf("Index saved successfully in %v (file size: %s)\n",
					saveDuration, formatFileSize(fileInfo.Size()))
			} else {
				fmt.Println("Index saved successfully")
			}
		}
	}

	fmt.Println("Server stopped")
}
