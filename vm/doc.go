// Package vm implements the execution substrate of TACIT: a stack-oriented,
// point-free bytecode virtual machine in the Forth/APL/Joy family.
//
// Four things have to stay correct together here: the NaN-boxed
// tagged-value codec (cell.go), the segmented byte-addressed memory and its
// registers (mem.go, vm.go), the reference-counted copy-on-write heap and
// the variable-length vectors built on top of it (heap.go, vector.go), and
// the fetch-decode-execute interpreter, including the stack-resident list
// construction protocol (interp.go, list.go).
//
// Everything above this layer — a tokenizer/compiler front end, an include
// host, a REPL, a CLI — is an external collaborator. This package exposes
// just enough surface (Option, the VM type, the error Kind enumeration) for
// those collaborators to drive it.
package vm
