package vm

// Opcode identifies a built-in. 0..127 are built-ins (single byte, high bit
// clear); 128 and above name user definitions (two bytes, first byte's high
// bit set). LiteralNumber is conventionally opcode 0, per §6.2.
type Opcode int

const (
	OpLiteralNumber Opcode = iota
	OpLiteralString
	OpBranch
	OpIfFalseBranch
	OpBranchCall
	OpCall
	OpExit
	OpAbort
	OpEval
	OpOpenList
	OpCloseList
	OpDup
	OpDrop
	OpSwap
	OpOver
	OpRot
	OpToR
	OpRFrom
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe
	OpNot
	OpConcat
	OpNop
	OpHalt

	builtinCount
)

// MaxBuiltins is the number of opcode slots reserved for built-ins, per
// §4.6: opcodes 0..127 are built-ins, encoded as a single byte with the high
// bit clear.
const MaxBuiltins = 128

// MaxUserDefinitions is the largest index a user definition can carry: a
// 14-bit index spread across two bytes, 7 bits in each (§4.6).
const MaxUserDefinitions = 0x3FFF

var builtinNames = [...]string{
	"lit", "litstr", "branch", "?branch", "branchcall", "call", "exit", "abort",
	"eval", "(", ")", "dup", "drop", "swap", "over", "rot", ">r", "r>",
	"add", "sub", "mul", "div", "mod", "and", "or", "xor", "shl", "shr",
	"lt", "gt", "le", "ge", "eq", "ne", "not", "concat", "nop", "halt",
}

func init() {
	if int(builtinCount) != len(builtinNames) {
		panic("vm: builtinNames out of sync with the Opcode enumeration")
	}
	if builtinCount > MaxBuiltins {
		panic("vm: more built-ins defined than opcode slots reserved")
	}
}

func (op Opcode) String() string {
	if int(op) < 0 || int(op) >= len(builtinNames) {
		return "?"
	}
	return builtinNames[op]
}

// EncodeBuiltin encodes a built-in opcode (0..127) as the single byte
// written to CODE.
func EncodeBuiltin(op Opcode) (byte, error) {
	if op < 0 || int(op) >= MaxBuiltins {
		return 0, fault(BadTag, nil, "built-in opcode %d out of range [0,%d)", int(op), MaxBuiltins)
	}
	return byte(op), nil
}

// EncodeUser encodes a user-definition index (0..0x3FFF) as two bytes: the
// first carries the low 7 bits with its high bit set, the second carries
// the high 7 bits with its high bit clear.
func EncodeUser(index int) (lo, hi byte, err error) {
	if index < 0 || index > MaxUserDefinitions {
		return 0, 0, fault(OutOfRange, nil, "user definition index %d out of range [0,%d]", index, MaxUserDefinitions)
	}
	lo = byte(index&0x7F) | 0x80
	hi = byte(index >> 7 & 0x7F)
	return lo, hi, nil
}

// DecodeOpcode reads one opcode starting at (seg=CODE, offset) and returns
// its decoded form plus the offset of the byte following it. If the first
// byte's high bit is clear, it is a built-in. Otherwise the next byte
// supplies the high 7 bits of a 14-bit user-definition index.
func DecodeOpcode(mem *Memory, offset int) (isUser bool, value int, next int) {
	first := mem.ReadU8(SegCode, offset)
	if first&0x80 == 0 {
		return false, int(first), offset + 1
	}
	hi := mem.ReadU8(SegCode, offset+1)
	return true, int(hi)<<7 | int(first&0x7F), offset + 2
}
