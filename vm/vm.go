package vm

import "io"

// Registers. SP/RP are byte offsets into STACK/RSTACK; IP is a byte offset
// into CODE; BP is the base pointer of the active call frame (an RSTACK
// byte offset); CP/BCP are compiler-owned positions into CODE.
type registers struct {
	SP, RP, IP, BP, CP, BCP int
}

const cellSize = 4

// VM is a value type owning its own segments, digest, symbol table, heap,
// and registers. Unlike the teacher's module-global instance, nothing here
// is package-level state: embedding code creates as many VMs as it needs,
// one per goroutine, since the VM is single-threaded cooperative (§5).
type VM struct {
	Mem     *Memory
	Digest  *Digest
	Symbols *SymbolTable
	Heap    *Heap
	Vectors *Vectors

	regs registers

	running  bool
	insCount int64

	// Trace holds an optional diagnostics writer set by WithTrace. Nothing
	// in this package writes to it; it is never required for correct
	// execution.
	Trace io.Writer

	builtins [128]func(*VM) error

	// userDefs maps a compiled user-definition index (the 14-bit value
	// encoded by EncodeUser) to its CODE entry address.
	userDefs []int
}

// DefineUserWord records address as the next user-definition index and
// returns that index, for the compiler to encode as a two-byte call site.
func (v *VM) DefineUserWord(address int) int {
	v.userDefs = append(v.userDefs, address)
	return len(v.userDefs) - 1
}

// UserWordAddress resolves a user-definition index to its CODE address.
func (v *VM) UserWordAddress(index int) (int, bool) {
	if index < 0 || index >= len(v.userDefs) {
		return 0, false
	}
	return v.userDefs[index], true
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithSegmentSizes overrides the default segment sizes.
func WithSegmentSizes(sizes SegmentSizes) Option {
	return func(v *VM) { v.Mem = NewMemory(sizes) }
}

// WithTrace stores w in the VM's Trace field.
func WithTrace(w io.Writer) Option {
	return func(v *VM) { v.Trace = w }
}

// New creates a VM with default segment sizes unless overridden by opts.
func New(opts ...Option) *VM {
	v := &VM{}
	for _, opt := range opts {
		opt(v)
	}
	if v.Mem == nil {
		v.Mem = NewMemory(DefaultSegmentSizes())
	}
	v.Digest = NewDigest(v.Mem)
	v.Symbols = NewSymbolTable()
	v.Heap = NewHeap(v.Mem)
	v.Vectors = NewVectors(v.Heap, v.Mem)
	v.installBuiltins()
	v.defineBuiltinSymbols()
	return v
}

// IP, CP, BCP expose the compiler/interpreter's registers to external
// collaborators (the compiler package advances CP through the Emit
// methods below).

// IP returns the current instruction pointer.
func (v *VM) IP() int { return v.regs.IP }

// SetIP sets the instruction pointer, e.g. to start running a freshly
// compiled top-level unit.
func (v *VM) SetIP(ip int) { v.regs.IP = ip }

// CP returns the current compile position (next free byte in CODE).
func (v *VM) CP() int { return v.regs.CP }

// SetCP sets the compile position. Placeholder patching does not use it;
// see PatchI16At.
func (v *VM) SetCP(cp int) { v.regs.CP = cp }

// BCP returns the start of the most recent top-level compilation unit.
func (v *VM) BCP() int { return v.regs.BCP }

// SetBCP records the start of a new top-level compilation unit.
func (v *VM) SetBCP(bcp int) { v.regs.BCP = bcp }

// EmitByte writes a single byte at CP and advances CP by one.
func (v *VM) EmitByte(b byte) {
	v.Mem.WriteU8(SegCode, v.regs.CP, b)
	v.regs.CP++
}

// EmitU16 writes a little-endian uint16 at CP and advances CP by two.
func (v *VM) EmitU16(x uint16) {
	v.Mem.WriteU16LE(SegCode, v.regs.CP, x)
	v.regs.CP += 2
}

// EmitI16 writes a little-endian signed 16-bit value at CP and advances CP
// by two, used for branch offsets.
func (v *VM) EmitI16(x int16) {
	v.Mem.WriteI16LE(SegCode, v.regs.CP, x)
	v.regs.CP += 2
}

// EmitF32 writes a little-endian float32 cell at CP and advances CP by
// four.
func (v *VM) EmitF32(c Cell) {
	v.Mem.WriteF32LE(SegCode, v.regs.CP, c)
	v.regs.CP += 4
}

// PatchI16At overwrites the signed 16-bit value at the given CODE offset
// without disturbing the current CP — the placeholder-patching technique
// used by colon definitions, if/else, and code blocks.
func (v *VM) PatchI16At(at int, x int16) {
	v.Mem.WriteI16LE(SegCode, at, x)
}

// Data stack.

// Push pushes a cell onto the data stack.
func (v *VM) Push(c Cell) {
	if v.regs.SP+cellSize > v.Mem.Len(SegStack) {
		panic(fault(StackOverflow, v.dataSnapshot(), "data stack overflow"))
	}
	v.Mem.WriteF32LE(SegStack, v.regs.SP, c)
	v.regs.SP += cellSize
}

// Pop pops and returns the top cell of the data stack.
func (v *VM) Pop() Cell {
	if v.regs.SP <= 0 {
		panic(fault(StackUnderflow, v.dataSnapshot(), "data stack underflow"))
	}
	v.regs.SP -= cellSize
	return v.Mem.ReadF32LE(SegStack, v.regs.SP)
}

// Tos returns the top of the data stack without popping it.
func (v *VM) Tos() Cell {
	if v.regs.SP <= 0 {
		panic(fault(StackUnderflow, v.dataSnapshot(), "data stack underflow"))
	}
	return v.Mem.ReadF32LE(SegStack, v.regs.SP-cellSize)
}

// PickData returns the cell n cells below the top (0 = TOS).
func (v *VM) PickData(n int) Cell {
	off := v.regs.SP - cellSize*(n+1)
	if off < 0 {
		panic(fault(StackUnderflow, v.dataSnapshot(), "data stack underflow"))
	}
	return v.Mem.ReadF32LE(SegStack, off)
}

// SetPickData overwrites the cell n cells below the top (0 = TOS).
func (v *VM) SetPickData(n int, c Cell) {
	off := v.regs.SP - cellSize*(n+1)
	if off < 0 {
		panic(fault(StackUnderflow, v.dataSnapshot(), "data stack underflow"))
	}
	v.Mem.WriteF32LE(SegStack, off, c)
}

// SP returns the data stack pointer (byte offset).
func (v *VM) SP() int { return v.regs.SP }

// SetSP sets the data stack pointer, used by the list protocol to compute
// and later unwind slot counts.
func (v *VM) SetSP(sp int) { v.regs.SP = sp }

// Depth returns the number of cells on the data stack.
func (v *VM) Depth() int { return v.regs.SP / cellSize }

// DataStack returns a snapshot slice of the data stack, bottom to top.
func (v *VM) DataStack() []Cell {
	return v.dataSnapshot()
}

func (v *VM) dataSnapshot() []Cell {
	n := v.regs.SP / cellSize
	out := make([]Cell, n)
	for i := 0; i < n; i++ {
		out[i] = v.Mem.ReadF32LE(SegStack, i*cellSize)
	}
	return out
}

// Return stack.

// Rpush pushes a cell onto the return stack.
func (v *VM) Rpush(c Cell) {
	if v.regs.RP+cellSize > v.Mem.Len(SegRStack) {
		panic(fault(ReturnStackOverflow, v.dataSnapshot(), "return stack overflow"))
	}
	v.Mem.WriteF32LE(SegRStack, v.regs.RP, c)
	v.regs.RP += cellSize
}

// Rpop pops and returns the top cell of the return stack.
func (v *VM) Rpop() Cell {
	if v.regs.RP <= 0 {
		panic(fault(ReturnStackUnderflow, v.dataSnapshot(), "return stack underflow"))
	}
	v.regs.RP -= cellSize
	return v.Mem.ReadF32LE(SegRStack, v.regs.RP)
}

// RP returns the return stack pointer (byte offset).
func (v *VM) RP() int { return v.regs.RP }

// BP returns the base pointer of the active call frame.
func (v *VM) BP() int { return v.regs.BP }

// InstructionCount returns the number of instructions executed so far by
// all Runs on this VM; neither Run nor Reset clears it.
func (v *VM) InstructionCount() int64 { return v.insCount }

// Reset clears SP, RP, and IP back to zero, for running a fresh top-level
// program against the same compiled CODE/symbol state.
func (v *VM) Reset() {
	v.regs.SP, v.regs.RP, v.regs.IP, v.regs.BP = 0, 0, 0, 0
}
