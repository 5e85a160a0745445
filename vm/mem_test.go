package vm_test

import (
	"testing"

	"github.com/jhlagado/tacit/vm"
)

func TestMemoryTypedAccessorsRoundTrip(t *testing.T) {
	mem := vm.NewMemory(vm.DefaultSegmentSizes())
	mem.WriteU8(vm.SegCode, 0, 0xAB)
	if got := mem.ReadU8(vm.SegCode, 0); got != 0xAB {
		t.Errorf("ReadU8 = %#x, want 0xAB", got)
	}
	mem.WriteU16LE(vm.SegCode, 2, 0x1234)
	if got := mem.ReadU16LE(vm.SegCode, 2); got != 0x1234 {
		t.Errorf("ReadU16LE = %#x, want 0x1234", got)
	}
	mem.WriteI16LE(vm.SegCode, 4, -100)
	if got := mem.ReadI16LE(vm.SegCode, 4); got != -100 {
		t.Errorf("ReadI16LE = %d, want -100", got)
	}
	mem.WriteF32LE(vm.SegStack, 0, vm.Cell(3.5))
	if got := mem.ReadF32LE(vm.SegStack, 0); got != 3.5 {
		t.Errorf("ReadF32LE = %v, want 3.5", got)
	}
}

func TestMemorySegmentsDoNotOverlap(t *testing.T) {
	sizes := vm.SegmentSizes{Stack: 16, RStack: 16, Code: 16, String: 16, Heap: 64}
	mem := vm.NewMemory(sizes)
	mem.WriteU8(vm.SegStack, 0, 1)
	mem.WriteU8(vm.SegRStack, 0, 2)
	mem.WriteU8(vm.SegCode, 0, 3)
	mem.WriteU8(vm.SegString, 0, 4)
	mem.WriteU8(vm.SegHeap, 0, 5)
	want := []byte{1, 2, 3, 4, 5}
	got := []byte{
		mem.ReadU8(vm.SegStack, 0),
		mem.ReadU8(vm.SegRStack, 0),
		mem.ReadU8(vm.SegCode, 0),
		mem.ReadU8(vm.SegString, 0),
		mem.ReadU8(vm.SegHeap, 0),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %d, want %d (segments overlap)", i, got[i], want[i])
		}
	}
}

func TestMemoryOutOfBoundsPanics(t *testing.T) {
	mem := vm.NewMemory(vm.SegmentSizes{Stack: 4, RStack: 4, Code: 4, String: 4, Heap: 4})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic on out-of-bounds access")
		}
		f, ok := r.(*vm.Fault)
		if !ok || f.Kind != vm.SegmentViolation {
			t.Errorf("expected a SegmentViolation Fault, got %#v", r)
		}
	}()
	mem.ReadU8(vm.SegStack, 100)
}
