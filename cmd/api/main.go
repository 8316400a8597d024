package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"web/spherekit/runner"
	"web/spherekit/sphere"

	"github.com/gin-gonic/gin"
)

const (
	indexSaveDir   = "data/indexes"
	maxLoadedIndex = 4
)

type Server struct {
	runner         *runner.IndexRunner
	defaultIndexID string // Most recently created/loaded index
}

func NewServer(r *runner.IndexRunner) *Server {
	return &Server{
		runner: r,
	}
}

type capQuery struct {
	center sphere.LatLng
	radius float64 // radians
}

func getCapFromQuery(c *gin.Context) (capQuery, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return capQuery{}, fmt.Errorf("invalid lat parameter")
	}

	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return capQuery{}, fmt.Errorf("invalid lng parameter")
	}

	radius, err := strconv.ParseFloat(c.Query("radius"), 64)
	if err != nil || radius <= 0 {
		return capQuery{}, fmt.Errorf("invalid radius parameter")
	}

	ll := sphere.LatLngFromDegrees(lat, lng)
	if !ll.IsValid() {
		return capQuery{}, fmt.Errorf("lat/lng out of range")
	}

	// Earth mean radius in meters
	const earthRadius = 6371008.8
	return capQuery{center: ll, radius: radius / earthRadius}, nil
}

func main() {
	indexRunner := runner.NewIndexRunner(indexSaveDir, maxLoadedIndex)
	server := NewServer(indexRunner)

	// Use the most recent saved index as the default if any exist
	if indexes, err := indexRunner.ListIndexes(context.Background()); err == nil && len(indexes) > 0 {
		latest := indexes[0]
		for _, info := range indexes[1:] {
			if info.Timestamp.After(latest.Timestamp) {
				latest = info
			}
		}
		server.defaultIndexID = latest.ID
	}

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

	// List available indexes
	r.GET("/api/indexes/list", func(c *gin.Context) {
		indexes, err := server.runner.ListIndexes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, indexes)
	})

	// Handle both routes with and without an index ID
	r.GET("/api/indexes/search", func(c *gin.Context) {
		if server.defaultIndexID == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "No indexes available"})
			return
		}
		handleSearch(c, server, server.defaultIndexID)
	})

	r.GET("/api/indexes/:id/search", func(c *gin.Context) {
		handleSearch(c, server, c.Param("id"))
	})

	r.GET("/api/indexes/covering", func(c *gin.Context) {
		handleCovering(c, server)
	})

	// Create new index
	r.POST("/api/indexes", func(c *gin.Context) {
		var req struct {
			NumPoints int     `json:"numPoints"`
			MinLat    float64 `json:"minLat"`
			MaxLat    float64 `json:"maxLat"`
			MinLng    float64 `json:"minLng"`
			MaxLng    float64 `json:"maxLng"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.NumPoints <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "numPoints must be positive"})
			return
		}

		// Default to the Continental US when no bounds are given
		if req.MinLat == 0 && req.MaxLat == 0 && req.MinLng == 0 && req.MaxLng == 0 {
			req.MinLat, req.MaxLat = 25.0, 49.0
			req.MinLng, req.MaxLng = -125.0, -67.0
		}

		bounds := sphere.RectFromLatLng(sphere.LatLngFromDegrees(req.MinLat, req.MinLng)).
			AddPoint(sphere.LatLngFromDegrees(req.MaxLat, req.MaxLng))

		info, err := server.runner.CreateIndex(c.Request.Context(), req.NumPoints, bounds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Update default index ID
		server.defaultIndexID = info.ID

		c.JSON(http.StatusOK, info)
	})

	// Load index
	r.POST("/api/indexes/:id/load", func(c *gin.Context) {
		id := c.Param("id")
		info, err := server.runner.LoadIndex(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Update default index ID
		server.defaultIndexID = id

		c.JSON(http.StatusOK, gin.H{
			"message":   "Index loaded successfully",
			"indexInfo": info,
		})
	})

	// Create a channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		fmt.Println("Starting server on :8080...")
		if err := r.Run(":8080"); err != nil {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	fmt.Println("\nShutting down server...")
}

func handleSearch(c *gin.Context, server *Server, indexID string) {
	q, err := getCapFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	results, err := server.runner.Search(c.Request.Context(), indexID, q.center, q.radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Convert to GeoJSON
	features := make([]map[string]interface{}, len(results))
	for i, ll := range results {
		features[i] = map[string]interface{}{
			"type": "Feature",
			"geometry": map[string]interface{}{
				"type":        "Point",
				"coordinates": []float64{ll.Lng.Degrees(), ll.Lat.Degrees()},
			},
		}
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"type":     "FeatureCollection",
		"features": features,
		"elapsed":  time.Since(start).String(),
	})
}

func handleCovering(c *gin.Context, server *Server) {
	q, err := getCapFromQuery(c)
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

	covering, summary, err := server.runner.Covering(c.Request.Context(), q.center, q.radius, maxCells)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cells := make([]string, covering.Len())
	for i, id := range covering {
		cells[i] = id.String()
	}

	c.JSON(http.StatusOK, gin.H{
		"cells":   cells,
		"summary": summary,
	})
}
