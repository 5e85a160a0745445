package vm

// List construction (§3.5, §4.9). A list literal "( a b c )" compiles to
// OpenList, the element words, then CloseList. At runtime OpenList records
// the current data-stack depth onto the return stack as a sentinel; when
// CloseList runs, it computes the slot count n from the difference between
// the live depth and the recorded sentinel, pops that sentinel, and bookends
// the run of cells with a LIST header (payload = n) and, above it at TOS, a
// LINK trailer (payload = n + 1) — the stack-resident representation
// distinct from a heap-resident vector. n counts cells, not elements: a
// nested list contributes its whole span (its cells plus LIST and LINK).
//
// Bottom to top a closed list reads: [n cells][LIST: n][LINK: n+1]. Every
// op that treats a list as a single value — dup, drop, swap, over, rot,
// concat — must recognize the LINK at the top of its extent and carry the
// whole n+2-cell span as one unit (§4.9); see valueSpanAt in interp.go.

// OpenList pushes the current data-stack depth onto the return stack as a
// sentinel marking where the list's elements begin.
func (v *VM) OpenList() {
	v.Rpush(Cell(v.Depth()))
}

// CloseList pops the sentinel recorded by the matching OpenList, computes
// the element count as the live depth minus the sentinel, and pushes the
// LIST/LINK bookend pair above the elements.
func (v *VM) CloseList() {
	sentinel := int(v.Rpop())
	n := v.Depth() - sentinel
	if n < 0 {
		panic(fault(UnexpectedClose, v.dataSnapshot(), "close-list sentinel %d above current depth %d", sentinel, v.Depth()))
	}
	pushListBookend(v, n)
}

// pushListBookend pushes a LIST header of the given element count followed
// by its LINK trailer, the pair every list-closing operation produces.
func pushListBookend(v *VM, n int) {
	list, err := Encode(TagList, n)
	if err != nil {
		panic(wrapFault(OutOfRange, v.dataSnapshot(), err, "list of length %d exceeds payload range", n))
	}
	v.Push(list)
	link, err := Encode(TagLink, n+1)
	if err != nil {
		panic(wrapFault(OutOfRange, v.dataSnapshot(), err, "list of length %d exceeds payload range", n))
	}
	v.Push(link)
}

// Concat pops two stack-resident lists (the second-from-top list, then the
// top list) and pushes a single list containing the first list's elements
// followed by the second's, per the component table's Concat entry (§4.9).
// Each input list is consumed as a whole LIST/LINK-bookended extent and the
// result is rebookended as one new list, never leaving a stray LINK behind.
func (v *VM) Concat() {
	topLinkTag, topLinkVal, err := Decode(v.PickData(0))
	if err != nil || topLinkTag != TagLink {
		panic(fault(BadTag, v.dataSnapshot(), "concat: top of stack is not a list"))
	}
	topListTag, topLen, err := Decode(v.PickData(1))
	if err != nil || topListTag != TagList || topLinkVal != topLen+1 {
		panic(fault(BadTag, v.dataSnapshot(), "concat: malformed list header at top of stack"))
	}

	botLinkTag, botLinkVal, err := Decode(v.PickData(topLen + 2))
	if err != nil || botLinkTag != TagLink {
		panic(fault(BadTag, v.dataSnapshot(), "concat: second list not found at expected depth"))
	}
	botListTag, botLen, err := Decode(v.PickData(topLen + 3))
	if err != nil || botListTag != TagList || botLinkVal != botLen+1 {
		panic(fault(BadTag, v.dataSnapshot(), "concat: malformed list header for second list"))
	}

	// Elements currently sit, bottom to top:
	// [bot elems][bot LIST][bot LINK][top elems][top LIST][top LINK].
	// Lift both lists' bookends out so the two element runs become
	// contiguous, then push one new LIST/LINK pair sized for both runs.
	base := v.SP() - cellSize*(botLen+2+topLen+2)
	botCellsOff := base
	topCellsOff := base + cellSize*(botLen+2)
	topCellsEnd := topCellsOff + cellSize*topLen

	merged := make([]Cell, 0, botLen+topLen)
	for off := botCellsOff; off < botCellsOff+cellSize*botLen; off += cellSize {
		merged = append(merged, v.Mem.ReadF32LE(SegStack, off))
	}
	for off := topCellsOff; off < topCellsEnd; off += cellSize {
		merged = append(merged, v.Mem.ReadF32LE(SegStack, off))
	}
	v.SetSP(base)
	for _, c := range merged {
		v.Push(c)
	}
	pushListBookend(v, len(merged))
}
