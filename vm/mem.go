package vm

import "encoding/binary"

// Segment names a contiguous region of the VM's single backing byte buffer.
type Segment int

const (
	SegStack Segment = iota
	SegRStack
	SegCode
	SegString
	SegHeap
	segmentCount
)

func (s Segment) String() string {
	switch s {
	case SegStack:
		return "STACK"
	case SegRStack:
		return "RSTACK"
	case SegCode:
		return "CODE"
	case SegString:
		return "STRING"
	case SegHeap:
		return "HEAP"
	default:
		return "INVALID"
	}
}

// region records a segment's fixed base offset and length within the
// backing buffer.
type region struct {
	base, size int
}

// Memory is the single backing byte buffer partitioned into named
// segments, with typed accessors at (segment, offset). Every access outside
// a segment's bounds is fatal: it panics with a *Fault{Kind: SegmentViolation},
// which the interpreter's outer loop recovers and surfaces.
type Memory struct {
	buf     []byte
	regions [segmentCount]region
}

// SegmentSizes configures the byte length of each of the five segments.
type SegmentSizes struct {
	Stack, RStack, Code, String, Heap int
}

// DefaultSegmentSizes returns a reasonable set of segment sizes for
// interactive use: enough code and heap space for non-trivial programs
// without pre-allocating an unreasonable amount of memory.
func DefaultSegmentSizes() SegmentSizes {
	return SegmentSizes{
		Stack:  4096 * 4,
		RStack: 1024 * 4,
		Code:   64 * 1024,
		String: 16 * 1024,
		Heap:   256 * 1024,
	}
}

// NewMemory allocates a single backing buffer sized and partitioned
// according to sizes, in the fixed order STACK, RSTACK, CODE, STRING, HEAP.
func NewMemory(sizes SegmentSizes) *Memory {
	lens := [segmentCount]int{
		SegStack:  sizes.Stack,
		SegRStack: sizes.RStack,
		SegCode:   sizes.Code,
		SegString: sizes.String,
		SegHeap:   sizes.Heap,
	}
	total := 0
	var regions [segmentCount]region
	for s, l := range lens {
		regions[s] = region{base: total, size: l}
		total += l
	}
	return &Memory{buf: make([]byte, total), regions: regions}
}

// Len returns the byte length of segment seg.
func (m *Memory) Len(seg Segment) int {
	return m.regions[seg].size
}

func (m *Memory) checkBounds(seg Segment, offset, width int) int {
	r := m.regions[seg]
	if offset < 0 || offset+width > r.size {
		panic(fault(SegmentViolation, nil, "%s access at %d (width %d) out of bounds [0,%d)", seg, offset, width, r.size))
	}
	return r.base + offset
}

// ReadU8 reads a single byte at (seg, offset).
func (m *Memory) ReadU8(seg Segment, offset int) byte {
	p := m.checkBounds(seg, offset, 1)
	return m.buf[p]
}

// WriteU8 writes a single byte at (seg, offset).
func (m *Memory) WriteU8(seg Segment, offset int, v byte) {
	p := m.checkBounds(seg, offset, 1)
	m.buf[p] = v
}

// ReadU16LE reads a little-endian uint16 at (seg, offset).
func (m *Memory) ReadU16LE(seg Segment, offset int) uint16 {
	p := m.checkBounds(seg, offset, 2)
	return binary.LittleEndian.Uint16(m.buf[p : p+2])
}

// WriteU16LE writes a little-endian uint16 at (seg, offset).
func (m *Memory) WriteU16LE(seg Segment, offset int, v uint16) {
	p := m.checkBounds(seg, offset, 2)
	binary.LittleEndian.PutUint16(m.buf[p:p+2], v)
}

// ReadI16LE reads a little-endian signed 16-bit value at (seg, offset), used
// for branch offsets.
func (m *Memory) ReadI16LE(seg Segment, offset int) int16 {
	return int16(m.ReadU16LE(seg, offset))
}

// WriteI16LE writes a little-endian signed 16-bit value at (seg, offset).
func (m *Memory) WriteI16LE(seg Segment, offset int, v int16) {
	m.WriteU16LE(seg, offset, uint16(v))
}

// ReadF32LE reads a little-endian float32 cell at (seg, offset).
func (m *Memory) ReadF32LE(seg Segment, offset int) Cell {
	p := m.checkBounds(seg, offset, 4)
	bits := binary.LittleEndian.Uint32(m.buf[p : p+4])
	return bitsToCell(bits)
}

// WriteF32LE writes a little-endian float32 cell at (seg, offset).
func (m *Memory) WriteF32LE(seg Segment, offset int, v Cell) {
	p := m.checkBounds(seg, offset, 4)
	binary.LittleEndian.PutUint32(m.buf[p:p+4], cellToBits(v))
}

// Slice returns the raw bytes of segment seg from offset to offset+length,
// for bulk operations such as string interning. It panics on out-of-bounds
// access exactly as the typed accessors do.
func (m *Memory) Slice(seg Segment, offset, length int) []byte {
	p := m.checkBounds(seg, offset, length)
	return m.buf[p : p+length]
}
