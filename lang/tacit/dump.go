package tacit

import (
	"fmt"
	"io"

	"github.com/jhlagado/tacit/vm"
)

// formatCell renders a cell the way a REPL or a dump listing would: a plain
// number for an untagged cell, "TAG:payload" for a tagged one.
func formatCell(c vm.Cell) string {
	if !vm.IsTagged(c) {
		return fmt.Sprintf("%g", float32(c))
	}
	t, payload, err := vm.Decode(c)
	if err != nil {
		return "<bad-tag>"
	}
	return fmt.Sprintf("%s:%d", t, payload)
}

// DumpStack writes the data stack, bottom to top, one cell per line,
// mirroring the teacher's DumpVM (lang/retro/dump.go) adapted from a flat
// cell dump to TACIT's tagged-cell rendering.
func DumpStack(v *vm.VM, w io.Writer) error {
	for i, c := range v.DataStack() {
		if _, err := fmt.Fprintf(w, "%3d: %s\n", i, formatCell(c)); err != nil {
			return err
		}
	}
	return nil
}

// DumpVM writes the data stack plus execution statistics to w, the
// counterpart of the teacher CLI's -dump flag.
func DumpVM(v *vm.VM, w io.Writer) error {
	if err := DumpStack(v, w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "instructions: %d\n", v.InstructionCount())
	return err
}
