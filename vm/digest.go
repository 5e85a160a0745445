package vm

// Digest is the interning table for strings, addressed by 16-bit offsets
// into the STRING segment. Strings are stored length-prefixed: one byte of
// length (hard cap 255 characters) followed by the raw bytes.
//
// This generalizes the teacher's NUL-terminated DecodeString/EncodeString
// pair (vm/mem.go in the teacher) to a length-prefixed encoding, since a
// length prefix lets Length be O(1) and lets interned strings contain NUL
// bytes.
type Digest struct {
	mem    *Memory
	here   int
	lookup map[string]uint16
}

// NewDigest creates a digest writing into mem's STRING segment.
func NewDigest(mem *Memory) *Digest {
	return &Digest{mem: mem, lookup: make(map[string]uint16)}
}

// Intern returns a stable offset for s into the STRING segment. A
// subsequent Intern of an equal string returns the same offset without
// writing it again. Fails with StringTooLong if s exceeds 255 bytes, or
// with SegmentViolation (via the underlying Memory, recovered by callers
// that want it as an error) if the segment is full.
func (d *Digest) Intern(s string) (uint16, error) {
	if off, ok := d.lookup[s]; ok {
		return off, nil
	}
	if len(s) > 255 {
		return 0, fault(StringTooLong, nil, "string of %d bytes exceeds the 255 byte digest limit", len(s))
	}
	off := d.here
	d.mem.WriteU8(SegString, off, byte(len(s)))
	copy(d.mem.Slice(SegString, off+1, len(s)), s)
	d.here += 1 + len(s)
	o16 := uint16(off)
	d.lookup[s] = o16
	return o16, nil
}

// Get recovers the string interned at offset.
func (d *Digest) Get(offset uint16) string {
	n := int(d.mem.ReadU8(SegString, int(offset)))
	return string(d.mem.Slice(SegString, int(offset)+1, n))
}

// Length returns the byte length of the string interned at offset, without
// materializing the string itself.
func (d *Digest) Length(offset uint16) int {
	return int(d.mem.ReadU8(SegString, int(offset)))
}

// Here returns the next free offset in the STRING segment.
func (d *Digest) Here() int {
	return d.here
}
