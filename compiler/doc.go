// Package compiler tokenizes and single-pass compiles TACIT source text
// into the bytecode consumed by package vm, mirroring the structure of the
// teacher's asm package: a text/scanner-based tokenizer feeding a parser
// that emits directly into the target image, patching forward references
// once their target address is known.
package compiler
