package vm

// SymbolKind distinguishes the three things a name can resolve to.
type SymbolKind int

const (
	SymBuiltin SymbolKind = iota
	SymCode
	SymLocal
)

// Symbol is a (name, binding) entry in the symbol table.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Opcode    int  // valid when Kind == SymBuiltin
	Address   int  // valid when Kind == SymCode
	Slot      int  // valid when Kind == SymLocal
	Immediate bool // true for parser-time directives (:, ;, if, else, include, ...)
}

// SymbolTable is a stack of (name, binding) entries. Lookup scans from the
// most recently defined entry backwards, so a local shadows an outer
// definition of the same name. Mark/Revert bound the local scope introduced
// by a colon definition's parameter/local names.
//
// Grounded on the teacher assembler's flat label/const maps (asm/parser.go);
// generalized here from a flat map to a mark/revert stack because colon
// definitions need locals that shadow outer names only within their own
// body (§3.6 of the spec).
type SymbolTable struct {
	entries []Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

func (s *SymbolTable) define(sym Symbol) {
	s.entries = append(s.entries, sym)
}

// DefineBuiltin binds name to a built-in opcode.
func (s *SymbolTable) DefineBuiltin(name string, opcode int, immediate bool) {
	s.define(Symbol{Name: name, Kind: SymBuiltin, Opcode: opcode, Immediate: immediate})
}

// DefineCode binds name to a bytecode entry address (a colon definition or
// a code block).
func (s *SymbolTable) DefineCode(name string, address int, immediate bool) {
	s.define(Symbol{Name: name, Kind: SymCode, Address: address, Immediate: immediate})
}

// DefineLocal binds name to a local slot index within the current frame.
func (s *SymbolTable) DefineLocal(name string, slot int) {
	s.define(Symbol{Name: name, Kind: SymLocal, Slot: slot})
}

// Lookup finds the most recently defined binding for name, scanning from
// the top of the table. ok is false if name is unbound.
func (s *SymbolTable) Lookup(name string) (sym Symbol, ok bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Name == name {
			return s.entries[i], true
		}
	}
	return Symbol{}, false
}

// FindCodeAddress is a convenience wrapper over Lookup for the common case
// of resolving a colon-defined word to its entry address.
func (s *SymbolTable) FindCodeAddress(name string) (address int, ok bool) {
	sym, ok := s.Lookup(name)
	if !ok || sym.Kind != SymCode {
		return 0, false
	}
	return sym.Address, true
}

// Mark returns a checkpoint representing the current table size.
func (s *SymbolTable) Mark() int {
	return len(s.entries)
}

// Revert truncates the table back to the size recorded by Mark, discarding
// every entry defined since — the locals of a colon definition's body, for
// example.
func (s *SymbolTable) Revert(mark int) {
	s.entries = s.entries[:mark]
}
