package vm_test

import (
	"testing"

	"github.com/jhlagado/tacit/vm"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		tag     vm.Tag
		payload int
	}{
		{vm.TagInteger, 0},
		{vm.TagInteger, 42},
		{vm.TagInteger, -42},
		{vm.TagInteger, vm.MinInteger},
		{vm.TagInteger, vm.MaxInteger},
		{vm.TagCode, 0},
		{vm.TagCode, vm.MaxPayload},
		{vm.TagString, 12345},
		{vm.TagList, 0},
		{vm.TagNil, 0},
	}
	for _, c := range cases {
		cell, err := vm.Encode(c.tag, c.payload)
		if err != nil {
			t.Fatalf("Encode(%v, %d): %v", c.tag, c.payload, err)
		}
		if !vm.IsTagged(cell) {
			t.Fatalf("Encode(%v, %d) produced an untagged cell", c.tag, c.payload)
		}
		tag, payload, err := vm.Decode(cell)
		if err != nil {
			t.Fatalf("Decode after Encode(%v, %d): %v", c.tag, c.payload, err)
		}
		if tag != c.tag || payload != c.payload {
			t.Errorf("round trip mismatch: got (%v, %d), want (%v, %d)", tag, payload, c.tag, c.payload)
		}
	}
}

func TestEncodeRejectsBadTagOrRange(t *testing.T) {
	if _, err := vm.Encode(0, 0); err == nil {
		t.Error("expected an error encoding tag 0")
	}
	if _, err := vm.Encode(vm.TagInteger, vm.MaxInteger+1); err == nil {
		t.Error("expected an error encoding an out-of-range integer")
	}
	if _, err := vm.Encode(vm.TagCode, -1); err == nil {
		t.Error("expected an error encoding a negative non-integer payload")
	}
}

func TestDecodeRejectsUntaggedCell(t *testing.T) {
	if _, _, err := vm.Decode(vm.Cell(3.5)); err == nil {
		t.Error("expected NotTagged decoding a plain float")
	}
	if _, _, err := vm.Decode(vm.Cell(0)); err == nil {
		t.Error("expected NotTagged decoding zero")
	}
}

func TestIsFalsey(t *testing.T) {
	zero := vm.Cell(0)
	if !vm.IsFalsey(zero) {
		t.Error("0 should be falsey")
	}
	if !vm.IsFalsey(vm.NilCell) {
		t.Error("NilCell should be falsey")
	}
	one := vm.Cell(1)
	if vm.IsFalsey(one) {
		t.Error("1 should be truthy")
	}
	zi, _ := vm.Encode(vm.TagInteger, 0)
	if !vm.IsFalsey(zi) {
		t.Error("tagged integer zero should be falsey")
	}
	code, _ := vm.Encode(vm.TagCode, 0)
	if vm.IsFalsey(code) {
		t.Error("a CODE cell with a zero payload should still be truthy")
	}
}
