package vm_test

import (
	"math"
	"testing"

	"github.com/jhlagado/tacit/vm"
)

func newTestVectors(t *testing.T, blocks int) (*vm.Vectors, *vm.Heap) {
	t.Helper()
	sizes := vm.DefaultSegmentSizes()
	sizes.Heap = blocks * vm.BlockSize
	mem := vm.NewMemory(sizes)
	heap := vm.NewHeap(mem)
	return vm.NewVectors(heap, mem), heap
}

func TestVectorCreateGet(t *testing.T) {
	v, _ := newTestVectors(t, 8)
	data := make([]vm.Cell, vm.CellsPerBlock+3)
	for i := range data {
		data[i] = vm.Cell(i)
	}
	head := v.Create(data)
	if head == -1 {
		t.Fatal("create unexpectedly exhausted the heap")
	}
	if got := v.Length(head); got != len(data) {
		t.Fatalf("Length = %d, want %d", got, len(data))
	}
	for i := range data {
		if got := v.Get(head, i); got != data[i] {
			t.Errorf("Get(%d) = %v, want %v", i, got, data[i])
		}
	}
	if got := v.Get(head, len(data)); math.Float32bits(float32(got)) != math.Float32bits(float32(vm.NilCell)) {
		t.Errorf("out-of-range Get should return NilCell, got %v", got)
	}
}

// TestVectorUpdateCopyOnWrite exercises the actual COW-isolation invariant
// (Testable Property 6, §4.5): a shared block (refcount > 1, forced here via
// an explicit Incref before Update) must be cloned rather than mutated in
// place, so the original head's values survive untouched.
func TestVectorUpdateCopyOnWrite(t *testing.T) {
	v, heap := newTestVectors(t, 8)
	head := v.Create([]vm.Cell{1, 2, 3})
	heap.Incref(head)

	updated := v.Update(head, 1, vm.Cell(99))
	_, newHead, err := vm.DecodeHeap(updated)
	if err != nil {
		t.Fatalf("Update result did not decode as a HEAP cell: %v", err)
	}
	if newHead == head {
		t.Fatal("Update mutated a shared block in place instead of cloning it")
	}
	if got := v.Get(newHead, 1); got != 99 {
		t.Errorf("Get(1) on the new head = %v, want 99", got)
	}
	if got := v.Get(newHead, 0); got != 1 {
		t.Errorf("Get(0) on the new head = %v, want 1 (unrelated elements unaffected)", got)
	}
	if got := v.Get(head, 1); got != 2 {
		t.Errorf("Get(1) on the original head = %v, want 2 (shared block must be left untouched)", got)
	}
	if got := v.Get(head, 0); got != 1 {
		t.Errorf("Get(0) on the original head = %v, want 1", got)
	}
}

// TestVectorUpdateCopyOnWriteNoOpWhenExclusive confirms the complementary
// case: with no extra Incref, the head's refcount is 1 and Update mutates
// the block in place rather than cloning it.
func TestVectorUpdateCopyOnWriteNoOpWhenExclusive(t *testing.T) {
	v, _ := newTestVectors(t, 8)
	head := v.Create([]vm.Cell{1, 2, 3})

	updated := v.Update(head, 1, vm.Cell(99))
	_, newHead, err := vm.DecodeHeap(updated)
	if err != nil {
		t.Fatalf("Update result did not decode as a HEAP cell: %v", err)
	}
	if newHead != head {
		t.Errorf("Update cloned an exclusively-owned block: newHead = %d, head = %d", newHead, head)
	}
	if got := v.Get(newHead, 1); got != 99 {
		t.Errorf("Get(1) after update = %v, want 99", got)
	}
}

func TestVectorUpdateOutOfRange(t *testing.T) {
	v, _ := newTestVectors(t, 8)
	head := v.Create([]vm.Cell{1, 2, 3})
	if got := v.Update(head, 99, vm.Cell(0)); math.Float32bits(float32(got)) != math.Float32bits(float32(vm.NilCell)) {
		t.Errorf("out-of-range Update should return NilCell, got %v", got)
	}
}
