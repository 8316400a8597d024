package sphere

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// cellUnionMagic marks a memory-mapped cell union snapshot.
const cellUnionMagic = uint64(0x53504845524b4954) // "SPHERKIT"

// MMapWriter handles writing to memory-mapped files
type MMapWriter struct {
	data   mmap.MMap
	offset int
}

func NewMMapWriter(data mmap.MMap) *MMapWriter {
	return &MMapWriter{
		data:   data,
		offset: 0,
	}
}

func (w *MMapWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *MMapWriter) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.data[w.offset:], v)
	w.offset += 8
}

func (w *MMapWriter) WriteBytes(b []byte) {
	copy(w.data[w.offset:], b)
	w.offset += len(b)
}

// MMapReader handles reading from memory-mapped files
type MMapReader struct {
	data   mmap.MMap
	offset int
}

func NewMMapReader(data mmap.MMap) *MMapReader {
	return &MMapReader{
		data:   data,
		offset: 0,
	}
}

func (r *MMapReader) ReadUint32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v
}

func (r *MMapReader) ReadUint64() uint64 {
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v
}

// SaveCellUnionMMap writes a cell union as a flat memory-mapped file:
// magic, member count, then the raw 64-bit ids. The layout is fixed-width
// so readers can map it without parsing.
func SaveCellUnionMMap(filename string, cu CellUnion) error {
	size := 8 + 8 + 8*len(cu)

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	if err := file.Truncate(int64(size)); err != nil {
		return fmt.Errorf("failed to size file: %v", err)
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %v", err)
	}
	defer data.Unmap()

	w := NewMMapWriter(data)
	w.WriteUint64(cellUnionMagic)
	w.WriteUint64(uint64(len(cu)))
	for _, id := range cu {
		w.WriteUint64(uint64(id))
	}

	if err := data.Flush(); err != nil {
		return fmt.Errorf("failed to flush mmap: %v", err)
	}
	return nil
}

// LoadCellUnionMMap reads a cell union written by SaveCellUnionMMap.
func LoadCellUnionMMap(filename string) (CellUnion, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %v", err)
	}
	defer data.Unmap()

	if len(data) < 16 {
		return nil, fmt.Errorf("snapshot too short: %d bytes", len(data))
	}

	r := NewMMapReader(data)
	if magic := r.ReadUint64(); magic != cellUnionMagic {
		return nil, fmt.Errorf("bad snapshot magic: %016x", magic)
	}
	n := r.ReadUint64()
	// Compare against the payload capacity rather than computing 16+8*n,
	// which a forged count can overflow.
	if n > uint64((len(data)-16)/8) {
		return nil, fmt.Errorf("snapshot truncated: %d members in %d bytes", n, len(data))
	}

	cu := make(CellUnion, n)
	for i := range cu {
		cu[i] = CellID(r.ReadUint64())
	}
	// Snapshots written by SaveCellUnionMMap are already normalized, but
	// the file may have been produced elsewhere.
	cu.Normalize()
	return cu, nil
}
