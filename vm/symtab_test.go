package vm_test

import (
	"testing"

	"github.com/jhlagado/tacit/vm"
)

func TestSymbolTableLookupByKind(t *testing.T) {
	s := vm.NewSymbolTable()
	s.DefineBuiltin("dup", int(vm.OpDup), false)
	s.DefineCode("square", 100, false)
	s.DefineLocal("x", 0)

	if sym, ok := s.Lookup("dup"); !ok || sym.Kind != vm.SymBuiltin || sym.Opcode != int(vm.OpDup) {
		t.Errorf("Lookup(dup) = %+v, %v", sym, ok)
	}
	if addr, ok := s.FindCodeAddress("square"); !ok || addr != 100 {
		t.Errorf("FindCodeAddress(square) = %d, %v, want 100, true", addr, ok)
	}
	if sym, ok := s.Lookup("x"); !ok || sym.Kind != vm.SymLocal || sym.Slot != 0 {
		t.Errorf("Lookup(x) = %+v, %v", sym, ok)
	}
	if _, ok := s.Lookup("nope"); ok {
		t.Error("Lookup of an unbound name should fail")
	}
}

func TestSymbolTableShadowsByMostRecentDefinition(t *testing.T) {
	s := vm.NewSymbolTable()
	s.DefineCode("double", 10, false)
	s.DefineCode("double", 20, false)

	addr, ok := s.FindCodeAddress("double")
	if !ok || addr != 20 {
		t.Errorf("FindCodeAddress(double) = %d, %v, want 20, true (most recent wins)", addr, ok)
	}
}

func TestSymbolTableMarkRevertDiscardsLocals(t *testing.T) {
	s := vm.NewSymbolTable()
	s.DefineCode("outer", 1, false)
	mark := s.Mark()
	s.DefineLocal("x", 0)
	s.DefineLocal("y", 1)

	if _, ok := s.Lookup("x"); !ok {
		t.Fatal("x should be visible before Revert")
	}
	s.Revert(mark)
	if _, ok := s.Lookup("x"); ok {
		t.Error("x should be gone after Revert")
	}
	if _, ok := s.Lookup("y"); ok {
		t.Error("y should be gone after Revert")
	}
	if _, ok := s.Lookup("outer"); !ok {
		t.Error("outer should survive a Revert to a mark taken after its definition")
	}
}
