package vm

// Fetch-decode-execute (§4.8). A compiled unit is a sequence of opcodes in
// CODE: a single byte (high bit clear) selects a built-in; a byte with the
// high bit set begins a two-byte user-definition call, per §4.6.
//
// Run drives the loop until a top-level Exit (RSTACK empties past its
// starting depth), a Halt, or an explicit Abort. Any panic raised along the way by a
// stack/segment/heap guard is recovered here and converted into a *Fault,
// mirroring the teacher's deferred-recover-to-error pattern in vm/core.go's
// Run method.
func (v *VM) Run(entry int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*Fault); ok {
				err = f
				return
			}
			panic(r)
		}
	}()

	v.regs.IP = entry
	v.running = true
	baseRP := v.regs.RP
	for v.running {
		v.step(baseRP)
	}
	return nil
}

// step executes exactly one opcode at IP. baseRP is the return-stack depth
// Run started at; an Exit that would underflow past it ends the program
// instead of underflowing RSTACK.
func (v *VM) step(baseRP int) {
	isUser, value, next := DecodeOpcode(v.Mem, v.regs.IP)
	v.regs.IP = next
	v.insCount++

	if isUser {
		addr, ok := v.UserWordAddress(value)
		if !ok {
			panic(fault(UnknownWord, v.dataSnapshot(), "call to undefined user word index %d", value))
		}
		v.pushFrame(addr)
		return
	}

	op := Opcode(value)
	if int(op) >= len(v.builtins) || v.builtins[op] == nil {
		panic(fault(UnknownWord, v.dataSnapshot(), "opcode %s has no implementation", op))
	}
	if op == OpExit && v.regs.RP <= baseRP {
		v.running = false
		return
	}
	if err := v.builtins[op](v); err != nil {
		panic(err)
	}
}

// installBuiltins populates the dispatch table. Index i implements Opcode(i);
// the opcode enumeration and this table are kept in lockstep by hand, the
// way the teacher's core.go switches directly on its opcode constants.
func (v *VM) installBuiltins() {
	v.builtins[OpLiteralNumber] = opLiteralNumber
	v.builtins[OpLiteralString] = opLiteralString
	v.builtins[OpBranch] = opBranch
	v.builtins[OpIfFalseBranch] = opIfFalseBranch
	v.builtins[OpBranchCall] = opBranchCall
	v.builtins[OpCall] = opCall
	v.builtins[OpExit] = opExit
	v.builtins[OpAbort] = opAbort
	v.builtins[OpEval] = opEval
	v.builtins[OpOpenList] = func(v *VM) error { v.OpenList(); return nil }
	v.builtins[OpCloseList] = func(v *VM) error { v.CloseList(); return nil }
	v.builtins[OpDup] = opDup
	v.builtins[OpDrop] = opDrop
	v.builtins[OpSwap] = opSwap
	v.builtins[OpOver] = opOver
	v.builtins[OpRot] = opRot
	v.builtins[OpToR] = opToR
	v.builtins[OpRFrom] = opRFrom
	v.builtins[OpAdd] = binaryOp(func(a, b Cell) Cell { return a + b })
	v.builtins[OpSub] = binaryOp(func(a, b Cell) Cell { return a - b })
	v.builtins[OpMul] = binaryOp(func(a, b Cell) Cell { return a * b })
	v.builtins[OpDiv] = opDiv
	v.builtins[OpMod] = opMod
	v.builtins[OpAnd] = intOp(func(a, b int32) int32 { return a & b })
	v.builtins[OpOr] = intOp(func(a, b int32) int32 { return a | b })
	v.builtins[OpXor] = intOp(func(a, b int32) int32 { return a ^ b })
	v.builtins[OpShl] = intOp(func(a, b int32) int32 { return a << uint32(b) })
	v.builtins[OpShr] = intOp(func(a, b int32) int32 { return a >> uint32(b) })
	v.builtins[OpLt] = compareOp(func(a, b Cell) bool { return a < b })
	v.builtins[OpGt] = compareOp(func(a, b Cell) bool { return a > b })
	v.builtins[OpLe] = compareOp(func(a, b Cell) bool { return a <= b })
	v.builtins[OpGe] = compareOp(func(a, b Cell) bool { return a >= b })
	v.builtins[OpEq] = compareOp(func(a, b Cell) bool { return a == b })
	v.builtins[OpNe] = compareOp(func(a, b Cell) bool { return a != b })
	v.builtins[OpNot] = opNot
	v.builtins[OpConcat] = func(v *VM) error { v.Concat(); return nil }
	v.builtins[OpNop] = func(v *VM) error { return nil }
	v.builtins[OpHalt] = func(v *VM) error { v.running = false; return nil }
}

// defineBuiltinSymbols registers the word-level built-ins under their
// conventional names, so the compiler can resolve a bare word to an
// opcode via the shared symbol table. Opcodes the compiler emits itself
// (literals, branches, call, exit, list brackets, halt) get no name here. Surface-syntax keywords (":", ";",
// "if", "else", "when", "do", "(", ")", "{", "}", "'", "@", "include") are
// recognized directly by the compiler's tokenizer and never enter this
// table — they are not opcodes, they are compile-time directives.
func (v *VM) defineBuiltinSymbols() {
	def := func(name string, op Opcode) { v.Symbols.DefineBuiltin(name, int(op), false) }
	def("dup", OpDup)
	def("drop", OpDrop)
	def("swap", OpSwap)
	def("over", OpOver)
	def("rot", OpRot)
	def(">r", OpToR)
	def("r>", OpRFrom)
	def("add", OpAdd)
	def("sub", OpSub)
	def("mul", OpMul)
	def("div", OpDiv)
	def("mod", OpMod)
	def("and", OpAnd)
	def("or", OpOr)
	def("xor", OpXor)
	def("shl", OpShl)
	def("shr", OpShr)
	def("lt", OpLt)
	def("gt", OpGt)
	def("le", OpLe)
	def("ge", OpGe)
	def("eq", OpEq)
	def("ne", OpNe)
	def("not", OpNot)
	def("concat", OpConcat)
	def("eval", OpEval)
	def("abort", OpAbort)
	def("nop", OpNop)
}

func opLiteralNumber(v *VM) error {
	c := v.Mem.ReadF32LE(SegCode, v.regs.IP)
	v.regs.IP += 4
	v.Push(c)
	return nil
}

func opLiteralString(v *VM) error {
	off := v.Mem.ReadU16LE(SegCode, v.regs.IP)
	v.regs.IP += 2
	c, err := Encode(TagString, int(off))
	if err != nil {
		return wrapFault(OutOfRange, v.dataSnapshot(), err, "string literal offset %d", off)
	}
	v.Push(c)
	return nil
}

// branchTarget reads the signed 16-bit operand at IP, advances IP past it,
// and returns the jump target relative to the position right after the
// operand.
func (v *VM) branchTarget() int {
	off := v.Mem.ReadI16LE(SegCode, v.regs.IP)
	v.regs.IP += 2
	return v.regs.IP + int(off)
}

func opBranch(v *VM) error {
	v.regs.IP = v.branchTarget()
	return nil
}

func opIfFalseBranch(v *VM) error {
	cond := v.Pop()
	target := v.branchTarget()
	if IsFalsey(cond) {
		v.regs.IP = target
	}
	return nil
}

// pushFrame implements the Call half of §4.8's frame convention: push the
// return IP and the current BP onto RSTACK, then set BP to the new RSTACK
// depth, before jumping to addr. Every call path — a compiled word call, a
// dynamic opCall, and eval of a TagCode cell — goes through this so Exit can
// restore BP uniformly.
func (v *VM) pushFrame(addr int) {
	v.Rpush(Cell(int32(v.regs.IP)))
	v.Rpush(Cell(int32(v.regs.BP)))
	v.regs.BP = v.regs.RP
	v.regs.IP = addr
}

// opBranchCall implements the anonymous code-block literal "{ ... }": the
// operand skips over the inline block body, and the block's own start
// address (right after the operand) is pushed as a TagCode cell.
func opBranchCall(v *VM) error {
	bodyStart := v.regs.IP + 2
	target := v.branchTarget()
	c, err := Encode(TagCode, bodyStart)
	if err != nil {
		return wrapFault(OutOfRange, v.dataSnapshot(), err, "code block address %d", bodyStart)
	}
	v.regs.IP = target
	v.Push(c)
	return nil
}

// opCall performs a dynamic call to a TagCode cell popped from the stack.
func opCall(v *VM) error {
	c := v.Pop()
	t, addr, err := Decode(c)
	if err != nil || t != TagCode {
		return fault(BadTag, v.dataSnapshot(), "call: top of stack is not a code address")
	}
	v.pushFrame(addr)
	return nil
}

// opExit implements §4.8's Exit: restore BP, then pop the return address
// into IP — the inverse order of pushFrame's pushes.
func opExit(v *VM) error {
	v.regs.BP = int(int32(v.Rpop()))
	v.regs.IP = int(int32(v.Rpop()))
	return nil
}

func opAbort(v *VM) error {
	v.regs.SP, v.regs.RP, v.regs.BP = 0, 0, 0
	v.running = false
	return nil
}

// opEval dispatches a CODE or BUILTIN cell popped from the stack, the
// runtime counterpart of the compiler's "@name" literal (§4.7).
func opEval(v *VM) error {
	c := v.Pop()
	t, payload, err := Decode(c)
	if err != nil {
		return wrapFault(BadEval, v.dataSnapshot(), err, "eval: value is not a tagged code reference")
	}
	switch t {
	case TagCode:
		v.pushFrame(payload)
		return nil
	case TagBuiltin:
		if payload < 0 || payload >= len(v.builtins) || v.builtins[payload] == nil {
			return fault(BadEval, v.dataSnapshot(), "eval: unknown built-in %d", payload)
		}
		return v.builtins[payload](v)
	default:
		return fault(BadEval, v.dataSnapshot(), "eval: %s is not callable", t)
	}
}

// valueSpanAt returns the number of cells the value starting pick cells
// below TOS occupies: 1 for an ordinary cell, or the whole LIST/LINK extent
// (elements + header + link) when that cell is a LINK — per §4.9, every
// generic stack op must treat a list as this single atomic span rather than
// the one cell it would be for any other value.
func valueSpanAt(v *VM, pick int) int {
	if t, payload, err := Decode(v.PickData(pick)); err == nil && t == TagLink {
		return payload + 1
	}
	return 1
}

func opDup(v *VM) error {
	span := valueSpanAt(v, 0)
	vals := make([]Cell, span)
	for i := 0; i < span; i++ {
		vals[i] = v.PickData(span - 1 - i)
	}
	for _, c := range vals {
		v.Push(c)
	}
	return nil
}

func opDrop(v *VM) error {
	span := valueSpanAt(v, 0)
	v.SetSP(v.SP() - cellSize*span)
	return nil
}

// opSwap exchanges the top two values, each carried as its own span so that
// either (or both) may be a multi-cell list without disturbing its layout.
func opSwap(v *VM) error {
	span1 := valueSpanAt(v, 0)
	span2 := valueSpanAt(v, span1)
	total := span1 + span2
	base := v.SP() - cellSize*total

	v1 := make([]Cell, span1)
	for i := 0; i < span1; i++ {
		v1[i] = v.Mem.ReadF32LE(SegStack, base+cellSize*(span2+i))
	}
	v2 := make([]Cell, span2)
	for i := 0; i < span2; i++ {
		v2[i] = v.Mem.ReadF32LE(SegStack, base+cellSize*i)
	}

	v.SetSP(base)
	for _, c := range v1 {
		v.Push(c)
	}
	for _, c := range v2 {
		v.Push(c)
	}
	return nil
}

// opOver copies the second-from-top value, span and all, onto the top.
func opOver(v *VM) error {
	span1 := valueSpanAt(v, 0)
	span2 := valueSpanAt(v, span1)
	vals := make([]Cell, span2)
	for i := 0; i < span2; i++ {
		vals[i] = v.PickData(span1 + span2 - 1 - i)
	}
	for _, c := range vals {
		v.Push(c)
	}
	return nil
}

// opRot rotates the third-from-top value to the top: "a b c -> b c a",
// where a, b, c are each carried as their own span.
func opRot(v *VM) error {
	span1 := valueSpanAt(v, 0)
	span2 := valueSpanAt(v, span1)
	span3 := valueSpanAt(v, span1+span2)
	total := span1 + span2 + span3
	base := v.SP() - cellSize*total

	read := func(off, n int) []Cell {
		out := make([]Cell, n)
		for i := 0; i < n; i++ {
			out[i] = v.Mem.ReadF32LE(SegStack, off+cellSize*i)
		}
		return out
	}
	a := read(base, span3)
	b := read(base+cellSize*span3, span2)
	c := read(base+cellSize*(span3+span2), span1)

	v.SetSP(base)
	for _, x := range b {
		v.Push(x)
	}
	for _, x := range c {
		v.Push(x)
	}
	for _, x := range a {
		v.Push(x)
	}
	return nil
}

func opToR(v *VM) error {
	v.Rpush(v.Pop())
	return nil
}

func opRFrom(v *VM) error {
	v.Push(v.Rpop())
	return nil
}

// binaryOp lifts a commutative-shape numeric fold into a built-in that pops
// b then a and pushes f(a, b), matching Forth's "a b op => a op b" order.
func binaryOp(f func(a, b Cell) Cell) func(*VM) error {
	return func(v *VM) error {
		b := v.Pop()
		a := v.Pop()
		v.Push(f(a, b))
		return nil
	}
}

func opDiv(v *VM) error {
	b := v.Pop()
	a := v.Pop()
	if b == 0 {
		return fault(OutOfRange, v.dataSnapshot(), "division by zero")
	}
	v.Push(a / b)
	return nil
}

func opMod(v *VM) error {
	b := v.Pop()
	a := v.Pop()
	if b == 0 {
		return fault(OutOfRange, v.dataSnapshot(), "modulo by zero")
	}
	ai, bi := int32(a), int32(b)
	v.Push(Cell(ai % bi))
	return nil
}

func intOp(f func(a, b int32) int32) func(*VM) error {
	return func(v *VM) error {
		b := v.Pop()
		a := v.Pop()
		v.Push(Cell(f(int32(a), int32(b))))
		return nil
	}
}

func compareOp(f func(a, b Cell) bool) func(*VM) error {
	return func(v *VM) error {
		b := v.Pop()
		a := v.Pop()
		if f(a, b) {
			v.Push(Cell(1))
		} else {
			v.Push(Cell(0))
		}
		return nil
	}
}

func opNot(v *VM) error {
	c := v.Pop()
	if IsFalsey(c) {
		v.Push(Cell(1))
	} else {
		v.Push(Cell(0))
	}
	return nil
}
