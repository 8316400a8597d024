package sphere

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// SaveCompressed writes a zstd-compressed binary snapshot of the index:
// section sizes first for allocation, then options, slots, the free list
// and the buckets, all little-endian.
func (pi *PointIndex) SaveCompressed(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}
	defer enc.Close()

	// Write sizes first for allocation
	binary.Write(enc, binary.LittleEndian, uint32(len(pi.slots)))
	binary.Write(enc, binary.LittleEndian, uint32(len(pi.free)))
	binary.Write(enc, binary.LittleEndian, uint32(len(pi.buckets)))

	// Write options
	binary.Write(enc, binary.LittleEndian, int32(pi.opts.MinLevel))
	binary.Write(enc, binary.LittleEndian, int32(pi.opts.MaxLevel))

	// Write slots
	for _, slot := range pi.slots {
		binary.Write(enc, binary.LittleEndian, slot.point.X)
		binary.Write(enc, binary.LittleEndian, slot.point.Y)
		binary.Write(enc, binary.LittleEndian, slot.point.Z)
		binary.Write(enc, binary.LittleEndian, uint64(slot.leaf))
		binary.Write(enc, binary.LittleEndian, slot.gen)
		occupied := uint8(0)
		if slot.occupied {
			occupied = 1
		}
		binary.Write(enc, binary.LittleEndian, occupied)
	}

	// Write free list
	for _, idx := range pi.free {
		binary.Write(enc, binary.LittleEndian, idx)
	}

	// Write buckets
	for cid, bucket := range pi.buckets {
		binary.Write(enc, binary.LittleEndian, uint64(cid))
		binary.Write(enc, binary.LittleEndian, uint32(len(bucket)))
		for _, h := range bucket {
			binary.Write(enc, binary.LittleEndian, h.Index)
			binary.Write(enc, binary.LittleEndian, h.Gen)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %v", err)
	}

	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %v", err)
	}

	return nil
}

// LoadCompressedPointIndex reads a snapshot written by SaveCompressed.
func LoadCompressedPointIndex(filename string) (*PointIndex, error) {
	start := time.Now()
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	bufReader := bufio.NewReaderSize(file, 1024*1024)
	dec, err := zstd.NewReader(bufReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	// Read sizes
	var numSlots, numFree, numBuckets uint32
	binary.Read(dec, binary.LittleEndian, &numSlots)
	binary.Read(dec, binary.LittleEndian, &numFree)
	binary.Read(dec, binary.LittleEndian, &numBuckets)

	// Read options
	var minLevel, maxLevel int32
	binary.Read(dec, binary.LittleEndian, &minLevel)
	binary.Read(dec, binary.LittleEndian, &maxLevel)

	pi := NewPointIndex(PointIndexOptions{
		MinLevel: int(minLevel),
		MaxLevel: int(maxLevel),
	})

	// Read slots
	pi.slots = make([]pointSlot, numSlots)
	for i := range pi.slots {
		binary.Read(dec, binary.LittleEndian, &pi.slots[i].point.X)
		binary.Read(dec, binary.LittleEndian, &pi.slots[i].point.Y)
		binary.Read(dec, binary.LittleEndian, &pi.slots[i].point.Z)
		var leaf uint64
		binary.Read(dec, binary.LittleEndian, &leaf)
		pi.slots[i].leaf = CellID(leaf)
		binary.Read(dec, binary.LittleEndian, &pi.slots[i].gen)
		var occupied uint8
		binary.Read(dec, binary.LittleEndian, &occupied)
		pi.slots[i].occupied = occupied == 1
		if pi.slots[i].occupied {
			pi.count++
		}
	}

	// Read free list
	pi.free = make([]int32, numFree)
	for i := range pi.free {
		binary.Read(dec, binary.LittleEndian, &pi.free[i])
	}

	// Read buckets
	for b := uint32(0); b < numBuckets; b++ {
		var cid uint64
		var n uint32
		binary.Read(dec, binary.LittleEndian, &cid)
		binary.Read(dec, binary.LittleEndian, &n)
		bucket := make([]PointHandle, n)
		for i := range bucket {
			binary.Read(dec, binary.LittleEndian, &bucket[i].Index)
			binary.Read(dec, binary.LittleEndian, &bucket[i].Gen)
		}
		pi.buckets[CellID(cid)] = bucket
	}

	if pi.opts.Log {
		fmt.Printf("Index load took: %v\n", time.Since(start))
	}
	return pi, nil
}

// IndexInfo describes a saved index snapshot on disk.
type IndexInfo struct {
	ID        string    `json:"id"`
	NumPoints int       `json:"numPoints"`
	Timestamp time.Time `json:"timestamp"`
	FileSize  int64     `json:"fileSize"`
}

// ListSavedIndexes scans a directory for snapshot files named
// index-{points}p-{date}-{time}-{id}.zst and returns their metadata.
func ListSavedIndexes(dir string) ([]IndexInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read index directory: %v", err)
	}

	var indexes []IndexInfo
	for _, file := range files {
		info, err := parseIndexFilename(file.Name())
		if err != nil {
			continue
		}
		fi, err := os.Stat(filepath.Join(dir, file.Name()))
		if err != nil {
			continue
		}
		info.FileSize = fi.Size()
		indexes = append(indexes, info)
	}
	return indexes, nil
}

// GetIndexInfo finds the snapshot with the given id in a directory.
func GetIndexInfo(dir, id string) (IndexInfo, error) {
	indexes, err := ListSavedIndexes(dir)
	if err != nil {
		return IndexInfo{}, err
	}
	for _, info := range indexes {
		if info.ID == id {
			return info, nil
		}
	}
	return IndexInfo{}, fmt.Errorf("no index found with id %s", id)
}

// FindIndexFile returns the path of the snapshot with the given id.
func FindIndexFile(dir, id string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read index directory: %v", err)
	}
	for _, file := range files {
		if strings.Contains(file.Name(), id) && strings.HasSuffix(file.Name(), ".zst") {
			return filepath.Join(dir, file.Name()), nil
		}
	}
	return "", fmt.Errorf("no index file found with id %s", id)
}

// parseIndexFilename parses index-{points}p-{date}-{time}-{id}.zst.
func parseIndexFilename(name string) (IndexInfo, error) {
	if !strings.HasPrefix(name, "index-") || !strings.HasSuffix(name, ".zst") {
		return IndexInfo{}, fmt.Errorf("not an index snapshot: %s", name)
	}
	parts := strings.Split(strings.TrimSuffix(name, ".zst"), "-")
	if len(parts) != 5 {
		return IndexInfo{}, fmt.Errorf("invalid filename format: %s", name)
	}
	numPoints, err := strconv.Atoi(strings.TrimSuffix(parts[1], "p"))
	if err != nil {
		return IndexInfo{}, fmt.Errorf("invalid point count in filename: %s", name)
	}
	ts, err := time.Parse("20060102-150405", parts[2]+"-"+parts[3])
	if err != nil {
		return IndexInfo{}, fmt.Errorf("invalid timestamp in filename: %s", name)
	}
	return IndexInfo{ID: parts[4], NumPoints: numPoints, Timestamp: ts}, nil
}
