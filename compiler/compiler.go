package compiler

import (
	"fmt"

	"github.com/jhlagado/tacit/vm"
)

// Includer resolves the source text named by an "include" directive. It
// returns ok=false (with no error) when the host has already satisfied this
// include and the directive should be silently skipped, implementing the
// pragma-once semantics of §6.4 at the host layer rather than in here.
type Includer interface {
	Resolve(path string) (src string, ok bool, err error)
}

// construct tracks one open if/do .. else .. ; structure. The first ";" (or
// an explicit "else") seen while hasElse is false transitions it to an
// else-clause; the next ";" closes it. This lets "if ... else ... ;" and
// "when ... do ... ; ... ;" compile through the same state machine: "do" is
// simply an alias for "if", "when" is a no-op marker, and the bare ";"
// plays the role of "else" the first time it closes an unelsed construct.
type construct struct {
	ifAt   int
	hasEls bool
	elsAt  int
}

// Compiler performs the single-pass compile described in §4.7/§4.10: a
// colon definition, an if/else, and a code block each reserve a forward
// branch placeholder that gets patched once the matching closer is seen,
// the same technique asm/parser.go uses for label references, specialized
// here to a small fixed set of structured forward references instead of an
// open label table.
type Compiler struct {
	vm       *vm.VM
	includer Includer
	wordIdx  map[string]int

	ctrl    []construct
	blocks  []int
	inDef   bool
	defName string
	defAt   int

	// includes tracks each include path's three-state progress (§6.4): a
	// path re-entered while inProgress is a transitive circular include and
	// is silently skipped rather than erroring, the same as a path already
	// fully done.
	includes map[string]includeState
}

type includeState int

const (
	includeNotStarted includeState = iota
	includeInProgress
	includeDone
)

// New creates a Compiler emitting into target. includer may be nil, in
// which case "include" directives fail with a SyntaxError.
func New(target *vm.VM, includer Includer) *Compiler {
	return &Compiler{
		vm:       target,
		includer: includer,
		wordIdx:  make(map[string]int),
		includes: make(map[string]includeState),
	}
}

// Compile tokenizes and compiles src as one top-level unit, returning the
// CODE address it starts at. The unit ends with a Halt opcode so Run stops
// without clearing the stacks, letting a REPL host inspect the result.
func (c *Compiler) Compile(name, src string) (entry int, err error) {
	entry = c.vm.CP()
	if err := c.compileSource(name, src); err != nil {
		return entry, err
	}
	if len(c.ctrl) > 0 {
		return entry, cerr(vm.UnclosedDefinition, "unterminated if/else in %s", name)
	}
	if c.inDef {
		return entry, cerr(vm.UnclosedDefinition, "unterminated definition %q in %s", c.defName, name)
	}
	c.emitBuiltin(vm.OpHalt)
	return entry, nil
}

func (c *Compiler) compileSource(name, src string) error {
	tk := NewTokenizer(name, src)
	for {
		tok := tk.Next()
		if tok.Kind == TokEOF {
			return nil
		}
		if err := c.compileToken(name, tok, tk); err != nil {
			return err
		}
	}
}

func (c *Compiler) compileToken(srcName string, tok Token, tk *Tokenizer) error {
	switch tok.Kind {
	case TokNumber:
		c.emitBuiltin(vm.OpLiteralNumber)
		c.vm.EmitF32(vm.Cell(tok.Num))
		return nil
	case TokString:
		off, err := c.vm.Digest.Intern(tok.Text)
		if err != nil {
			return err
		}
		c.emitBuiltin(vm.OpLiteralString)
		c.vm.EmitU16(off)
		return nil
	}

	switch tok.Text {
	case ":":
		if c.inDef {
			return cerr(vm.NestedDefinition, "nested definition at %s", tok.Pos)
		}
		nameTok := tk.Next()
		if nameTok.Kind != TokWord {
			return cerr(vm.SyntaxError, "expected a name after ':' at %s", tok.Pos)
		}
		c.emitBuiltin(vm.OpBranch)
		c.defAt = c.vm.CP()
		c.vm.EmitI16(0)
		bodyStart := c.vm.CP()
		idx := c.vm.DefineUserWord(bodyStart)
		c.wordIdx[nameTok.Text] = idx
		c.vm.Symbols.DefineCode(nameTok.Text, bodyStart, false)
		c.inDef = true
		c.defName = nameTok.Text
		return nil

	case ";":
		return c.closeConstruct(tok)

	case "if", "do":
		at := c.emitBranchPlaceholder(vm.OpIfFalseBranch)
		c.ctrl = append(c.ctrl, construct{ifAt: at})
		return nil

	case "else":
		if len(c.ctrl) == 0 || c.ctrl[len(c.ctrl)-1].hasEls {
			return cerr(vm.UnexpectedClose, "'else' without a matching 'if'/'do' at %s", tok.Pos)
		}
		c.openElse()
		return nil

	case "when":
		return nil

	case "(":
		c.emitBuiltin(vm.OpOpenList)
		return nil

	case ")":
		c.emitBuiltin(vm.OpCloseList)
		return nil

	case "{":
		at := c.emitBranchPlaceholder(vm.OpBranchCall)
		c.blocks = append(c.blocks, at)
		return nil

	case "}":
		if len(c.blocks) == 0 {
			return cerr(vm.UnexpectedClose, "'}' without a matching '{' at %s", tok.Pos)
		}
		at := c.blocks[len(c.blocks)-1]
		c.blocks = c.blocks[:len(c.blocks)-1]
		c.emitBuiltin(vm.OpExit)
		c.patchBranch(at)
		return nil

	case "@":
		nameTok := tk.Next()
		if nameTok.Kind != TokWord {
			return cerr(vm.SyntaxError, "expected a word name after '@' at %s", tok.Pos)
		}
		return c.emitCodeLiteral(nameTok.Text, tok.Pos)

	case "include":
		pathTok := tk.Next()
		return c.compileInclude(pathTok.Text, tok.Pos)
	}

	if len(tok.Text) > 1 && tok.Text[0] == '\'' {
		off, err := c.vm.Digest.Intern(tok.Text[1:])
		if err != nil {
			return err
		}
		c.emitBuiltin(vm.OpLiteralString)
		c.vm.EmitU16(off)
		return nil
	}
	if len(tok.Text) > 1 && tok.Text[0] == '@' {
		return c.emitCodeLiteral(tok.Text[1:], tok.Pos)
	}

	return c.emitWordCall(tok.Text, tok.Pos)
}

func (c *Compiler) closeConstruct(tok Token) error {
	if n := len(c.ctrl); n > 0 {
		top := &c.ctrl[n-1]
		if !top.hasEls {
			c.openElse()
			return nil
		}
		c.patchBranch(top.elsAt)
		c.ctrl = c.ctrl[:n-1]
		return nil
	}
	if c.inDef {
		c.emitBuiltin(vm.OpExit)
		c.vm.PatchI16At(c.defAt, int16(c.vm.CP()-(c.defAt+2)))
		c.inDef = false
		c.defName = ""
		return nil
	}
	return cerr(vm.UnexpectedSemicolon, "';' with nothing open at %s", tok.Pos)
}

// openElse transitions the innermost open if/do construct into its else
// clause: emit the unconditional skip-over-else branch and patch the
// if/do's conditional branch to land here, at the start of the else body.
func (c *Compiler) openElse() {
	top := &c.ctrl[len(c.ctrl)-1]
	at := c.emitBranchPlaceholder(vm.OpBranch)
	c.patchBranch(top.ifAt)
	top.hasEls = true
	top.elsAt = at
}

// compileInclude implements §6.4's pragma-once/circular-include semantics: a
// path currently being included (reached transitively from its own body) or
// already fully included is a silent no-op, not an error — this lets two
// mutually-including files both end up with their definitions compiled,
// since only the re-entrant second "include" is skipped.
func (c *Compiler) compileInclude(path string, pos fmt.Stringer) error {
	if c.includer == nil {
		return cerr(vm.SyntaxError, "include %q: no include resolver configured", path)
	}
	if c.includes[path] != includeNotStarted {
		return nil
	}
	src, ok, err := c.includer.Resolve(path)
	if err != nil {
		return err
	}
	if !ok {
		c.includes[path] = includeDone
		return nil
	}
	c.includes[path] = includeInProgress
	if err := c.compileSource(path, src); err != nil {
		return err
	}
	c.includes[path] = includeDone
	return nil
}

func (c *Compiler) emitCodeLiteral(name string, pos fmt.Stringer) error {
	if idx, ok := c.wordIdx[name]; ok {
		addr, _ := c.vm.UserWordAddress(idx)
		cell, err := vm.Encode(vm.TagCode, addr)
		if err != nil {
			return err
		}
		c.emitBuiltin(vm.OpLiteralNumber)
		c.vm.EmitF32(cell)
		return nil
	}
	if sym, ok := c.vm.Symbols.Lookup(name); ok && sym.Kind == vm.SymBuiltin {
		cell, err := vm.Encode(vm.TagBuiltin, sym.Opcode)
		if err != nil {
			return err
		}
		c.emitBuiltin(vm.OpLiteralNumber)
		c.vm.EmitF32(cell)
		return nil
	}
	return cerr(vm.UnknownWord, "unknown word %q referenced at %s", name, pos)
}

func (c *Compiler) emitWordCall(name string, pos fmt.Stringer) error {
	if idx, ok := c.wordIdx[name]; ok {
		lo, hi, err := vm.EncodeUser(idx)
		if err != nil {
			return err
		}
		c.vm.EmitByte(lo)
		c.vm.EmitByte(hi)
		return nil
	}
	if sym, ok := c.vm.Symbols.Lookup(name); ok && sym.Kind == vm.SymBuiltin {
		c.emitBuiltin(vm.Opcode(sym.Opcode))
		return nil
	}
	return cerr(vm.UnknownWord, "unknown word %q at %s", name, pos)
}

func (c *Compiler) emitBuiltin(op vm.Opcode) {
	b, err := vm.EncodeBuiltin(op)
	if err != nil {
		panic(err)
	}
	c.vm.EmitByte(b)
}

// emitBranchPlaceholder emits op followed by a zero i16 placeholder and
// returns the offset of that placeholder for a later patchBranch.
func (c *Compiler) emitBranchPlaceholder(op vm.Opcode) int {
	c.emitBuiltin(op)
	at := c.vm.CP()
	c.vm.EmitI16(0)
	return at
}

// patchBranch patches the placeholder at at to jump to the current CP,
// relative to the position right after the placeholder itself (matching the
// interpreter's branchTarget computation).
func (c *Compiler) patchBranch(at int) {
	c.vm.PatchI16At(at, int16(c.vm.CP()-(at+2)))
}

// cerr builds a *vm.Fault directly: vm.Fault's fields are exported for
// exactly this purpose, but the fault/wrapFault constructors themselves are
// package-private to vm, so callers outside it assemble the struct by hand.
func cerr(kind vm.Kind, format string, args ...interface{}) *vm.Fault {
	return &vm.Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
