package compiler_test

import (
	"testing"

	"github.com/jhlagado/tacit/compiler"
	"github.com/jhlagado/tacit/vm"
)

type C []vm.Cell

func run(t *testing.T, src string) []vm.Cell {
	t.Helper()
	target := vm.New()
	c := compiler.New(target, nil)
	entry, err := c.Compile(t.Name(), src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := target.Run(entry); err != nil {
		t.Fatalf("run: %v", err)
	}
	return target.DataStack()
}

func checkStack(t *testing.T, src string, want C) {
	t.Helper()
	got := run(t, src)
	if len(got) != len(want) {
		t.Fatalf("%q: stack = %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q: stack[%d] = %v, want %v", src, i, got[i], want[i])
		}
	}
}

func TestLiterals(t *testing.T) {
	checkStack(t, "42 -3.14 +5", C{42, -3.14, 5})
}

func TestStackShuffling(t *testing.T) {
	checkStack(t, "5 dup", C{5, 5})
	checkStack(t, "1 2 swap", C{2, 1})
	checkStack(t, "1 drop", C{})
	checkStack(t, "3 4 add", C{7})
	checkStack(t, "10 3 sub", C{7})
}

func TestColonDefinition(t *testing.T) {
	checkStack(t, ": double dup add ; 21 double", C{42})
	checkStack(t, ": square dup mul ; 5 square", C{25})
}

func TestIfElse(t *testing.T) {
	checkStack(t, "3 0 lt if -1 else 1 ;", C{1})
	checkStack(t, "-7 0 lt if -1 else 1 ;", C{-1})
}

func TestWhenDo(t *testing.T) {
	checkStack(t, "10 when dup 9 gt do drop 111 ; drop 222 ;", C{111})
	checkStack(t, "2 when dup 9 gt do drop 111 ; drop 222 ;", C{222})
}

func TestList(t *testing.T) {
	got := run(t, "( 1 2 3 )")
	if len(got) != 5 {
		t.Fatalf("stack = %v, want 5 cells (3 elements + LIST + LINK)", got)
	}
	listTag, n, err := vm.Decode(got[3])
	if err != nil || listTag != vm.TagList || n != 3 {
		t.Errorf("got[3] = %v (tag %v, n %d), want LIST:3", got[3], listTag, n)
	}
	linkTag, link, err := vm.Decode(got[4])
	if err != nil || linkTag != vm.TagLink || link != n+1 {
		t.Errorf("top of stack = %v (tag %v, n %d), want LINK:%d", got[4], linkTag, link, n+1)
	}
}

func TestConcat(t *testing.T) {
	got := run(t, "( 1 2 ) ( 3 4 ) concat")
	if len(got) != 6 {
		t.Fatalf("stack = %v, want 6 cells (4 elements + LIST + LINK)", got)
	}
	listTag, n, err := vm.Decode(got[4])
	if err != nil || listTag != vm.TagList || n != 4 {
		t.Fatalf("got[4] = %v, want LIST:4", got[4])
	}
	linkTag, link, err := vm.Decode(got[5])
	if err != nil || linkTag != vm.TagLink || link != n+1 {
		t.Fatalf("top of stack = %v, want LINK:%d", got[5], n+1)
	}
	want := C{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAtLiteral(t *testing.T) {
	checkStack(t, ": inc 1 add ; 5 @inc eval", C{6})
	checkStack(t, "3 4 @add eval", C{7})
}

func TestListIsAtomicUnderDupAndSwap(t *testing.T) {
	got := run(t, "( 1 2 ) dup")
	if len(got) != 8 {
		t.Fatalf("stack = %v, want 8 cells (two 4-cell list spans)", got)
	}
	for _, off := range []int{0, 4} {
		listTag, n, err := vm.Decode(got[off+2])
		if err != nil || listTag != vm.TagList || n != 2 {
			t.Errorf("got[%d] = %v, want LIST:2", off+2, got[off+2])
		}
		linkTag, link, err := vm.Decode(got[off+3])
		if err != nil || linkTag != vm.TagLink || link != 3 {
			t.Errorf("got[%d] = %v, want LINK:3", off+3, got[off+3])
		}
	}

	got = run(t, "( 1 2 ) 99 swap")
	want := C{99, 1, 2}
	if len(got) != 5 {
		t.Fatalf("stack = %v, want 5 cells (99 + 2-element list span)", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
	listTag, n, err := vm.Decode(got[3])
	if err != nil || listTag != vm.TagList || n != 2 {
		t.Errorf("got[3] = %v, want LIST:2", got[3])
	}
	linkTag, link, err := vm.Decode(got[4])
	if err != nil || linkTag != vm.TagLink || link != n+1 {
		t.Errorf("got[4] = %v, want LINK:3", got[4])
	}
}

type stubIncluder map[string]string

func (s stubIncluder) Resolve(path string) (string, bool, error) {
	src, ok := s[path]
	return src, ok, nil
}

func TestCircularIncludeIsASilentNoOp(t *testing.T) {
	includer := stubIncluder{
		"a": `: fromA 1 ; include b`,
		"b": `: fromB 2 ; include a`,
	}
	target := vm.New()
	c := compiler.New(target, includer)
	entry, err := c.Compile(t.Name(), "include a fromA fromB")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := target.Run(entry); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := target.DataStack()
	want := C{1, 2}
	if len(got) != len(want) {
		t.Fatalf("stack = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUnexpectedSemicolon(t *testing.T) {
	target := vm.New()
	c := compiler.New(target, nil)
	if _, err := c.Compile(t.Name(), ";"); err == nil {
		t.Error("expected an error compiling a bare ';'")
	}
}

func TestUnclosedDefinition(t *testing.T) {
	target := vm.New()
	c := compiler.New(target, nil)
	if _, err := c.Compile(t.Name(), ": foo dup"); err == nil {
		t.Error("expected an error compiling an unterminated definition")
	}
}
