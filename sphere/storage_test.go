package sphere

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadCompressedPointIndex(t *testing.T) {
	pi := NewPointIndex(DefaultPointIndexOptions())
	points := []Point{
		PointFromLatLng(LatLngFromDegrees(37.7749, -122.4194)),
		PointFromLatLng(LatLngFromDegrees(40.7128, -74.0060)),
		PointFromLatLng(LatLngFromDegrees(-33.8688, 151.2093)),
	}
	handles := make([]PointHandle, len(points))
	for i, p := range points {
		handles[i] = pi.Add(p)
	}
	// Leave a hole so the free list round-trips too.
	if err := pi.Remove(handles[1]); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	filename := filepath.Join(t.TempDir(), "index.zst")
	if err := pi.SaveCompressed(filename); err != nil {
		t.Fatalf("SaveCompressed: %v", err)
	}

	loaded, err := LoadCompressedPointIndex(filename)
	if err != nil {
		t.Fatalf("LoadCompressedPointIndex: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("loaded index has %d points, want 2", loaded.Len())
	}
	if opts := loaded.Options(); opts != pi.Options() {
		t.Errorf("loaded options = %+v, want %+v", opts, pi.Options())
	}

	// Handles issued before the save resolve identically after the load.
	for _, i := range []int{0, 2} {
		got, err := loaded.Get(handles[i])
		if err != nil {
			t.Fatalf("Get(handle %d) on loaded index: %v", i, err)
		}
		if !got.ApproxEqual(points[i]) {
			t.Errorf("loaded point %d = %v, want %v", i, got, points[i])
		}
	}
	if _, err := loaded.Get(handles[1]); err == nil {
		t.Error("removed point's handle resolved on loaded index")
	}

	// The freed slot is reused on the loaded index just as it would be on
	// the original.
	h := loaded.Add(PointFromLatLng(LatLngFromDegrees(51.5074, -0.1278)))
	if h.Index != handles[1].Index {
		t.Errorf("loaded index reused slot %d, want %d", h.Index, handles[1].Index)
	}

	// Searches behave the same as on the original.
	cap := CapFromCenterAngle(points[0], 0.01)
	want := pi.SearchRegion(cap)
	got := loaded.SearchRegion(cap)
	if len(want) != 1 || len(got) != 1 || want[0] != got[0] {
		t.Errorf("SearchRegion mismatch: original %v, loaded %v", want, got)
	}
}

func TestLoadCompressedPointIndexMissingFile(t *testing.T) {
	if _, err := LoadCompressedPointIndex(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Error("loading a missing snapshot should fail")
	}
}

func TestParseIndexFilename(t *testing.T) {
	info, err := parseIndexFilename("index-1000000p-20250115-143022-a1b2c3d4.zst")
	if err != nil {
		t.Fatalf("parseIndexFilename: %v", err)
	}
	if info.ID != "a1b2c3d4" {
		t.Errorf("ID = %q, want a1b2c3d4", info.ID)
	}
	if info.NumPoints != 1000000 {
		t.Errorf("NumPoints = %d, want 1000000", info.NumPoints)
	}
	want := time.Date(2025, 1, 15, 14, 30, 22, 0, time.UTC)
	if !info.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", info.Timestamp, want)
	}

	bad := []string{
		"cluster-1000p-20250115-143022-abcd.zst",
		"index-1000p-20250115-143022-abcd.txt",
		"index-xp-20250115-143022-abcd.zst",
		"index-1000p-20251315-143022-abcd.zst",
		"index-1000p-abcd.zst",
	}
	for _, name := range bad {
		if _, err := parseIndexFilename(name); err == nil {
			t.Errorf("parseIndexFilename(%q) should fail", name)
		}
	}
}

func TestListSavedIndexes(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"index-100p-20250110-090000-aaaa1111.zst",
		"index-200p-20250111-100000-bbbb2222.zst",
		"notes.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	indexes, err := ListSavedIndexes(dir)
	if err != nil {
		t.Fatalf("ListSavedIndexes: %v", err)
	}
	if len(indexes) != 2 {
		t.Fatalf("found %d indexes, want 2", len(indexes))
	}
	for _, info := range indexes {
		if info.FileSize != 1 {
			t.Errorf("FileSize = %d, want 1", info.FileSize)
		}
	}

	info, err := GetIndexInfo(dir, "bbbb2222")
	if err != nil {
		t.Fatalf("GetIndexInfo: %v", err)
	}
	if info.NumPoints != 200 {
		t.Errorf("NumPoints = %d, want 200", info.NumPoints)
	}
	if _, err := GetIndexInfo(dir, "missing"); err == nil {
		t.Error("GetIndexInfo for an unknown id should fail")
	}

	path, err := FindIndexFile(dir, "aaaa1111")
	if err != nil {
		t.Fatalf("FindIndexFile: %v", err)
	}
	if filepath.Base(path) != names[0] {
		t.Errorf("FindIndexFile = %q, want %q", path, names[0])
	}
}

func TestSaveLoadCellUnionMMap(t *testing.T) {
	face, err := CellIDFromLatLng(LatLngFromDegrees(48.8566, 2.3522)).Parent(8)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	children := make([]CellID, 0, 4)
	for k := 0; k < 4; k++ {
		c, err := face.Child(k)
		if err != nil {
			t.Fatalf("Child: %v", err)
		}
		children = append(children, c)
	}
	cu := CellUnionFromIDs(append(children, CellIDFromFace(3)))

	filename := filepath.Join(t.TempDir(), "union.bin")
	if err := SaveCellUnionMMap(filename, cu); err != nil {
		t.Fatalf("SaveCellUnionMMap: %v", err)
	}

	loaded, err := LoadCellUnionMMap(filename)
	if err != nil {
		t.Fatalf("LoadCellUnionMMap: %v", err)
	}
	if loaded.Len() != cu.Len() {
		t.Fatalf("loaded %d cells, want %d", loaded.Len(), cu.Len())
	}
	for i := range cu {
		if loaded[i] != cu[i] {
			t.Errorf("cell %d = %v, want %v", i, loaded[i], cu[i])
		}
	}
}

func TestLoadCellUnionMMapBadMagic(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.bin")
	data := make([]byte, 32)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadCellUnionMMap(filename); err == nil {
		t.Error("loading a file with a bad magic should fail")
	}
}

func TestLoadCellUnionMMapTooShort(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(filename, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadCellUnionMMap(filename); err == nil {
		t.Error("loading a truncated file should fail")
	}
}

func TestLoadCellUnionMMapForgedCount(t *testing.T) {
	// A valid header with a member count far beyond the file length must
	// be rejected, including counts large enough to overflow a byte-size
	// computation.
	for _, n := range []uint64{3, 1 << 40, 1 << 61} {
		data := make([]byte, 24)
		binary.LittleEndian.PutUint64(data[0:], cellUnionMagic)
		binary.LittleEndian.PutUint64(data[8:], n)
		filename := filepath.Join(t.TempDir(), "forged.bin")
		if err := os.WriteFile(filename, data, 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := LoadCellUnionMMap(filename); err == nil {
			t.Errorf("count %d in a 24-byte file should fail to load", n)
		}
	}
}
