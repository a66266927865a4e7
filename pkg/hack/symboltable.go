package hack

// ----------------------------------------------------------------------------
// Symbol Table

// This section implements the Hack symbol table: a mapping from symbolic name to a
// 16-bit RAM address, pre-seeded with the predefined symbols of the Hack platform.
//
// Design notes (see spec Design Notes on "auto-allocation on lookup miss"): the table
// deliberately exposes three distinct operations instead of one overloaded lookup:
//   - Lookup: pure, read-only. Used by pass-1 style inspection and by callers that
//     must distinguish "already bound" from "needs allocating".
//   - Bind: pass-1 only. Records a label's address; never allocates. It does not check
//     for predefined names itself: the Lowerer rejects a colliding label before binding.
//   - ResolveOrAllocate: pass-2 only. Looks the symbol up and, on miss, allocates the
//     next free variable address (starting at 16, monotonically increasing).
// Keeping these separate means pass-1 can stay purely observational: it only ever
// calls Bind, never ResolveOrAllocate, so a symbol is never accidentally materialized
// as a variable before its true nature (label vs variable) is known.

// predefinedSymbols seeds every new SymbolTable. Re-declaring one of these names as a
// user label is rejected by the Asm code generator (see asm.CodeGenerator.GenerateLabelDecl).
var predefinedSymbols = map[string]uint16{
	// Virtual Machine specific aliases (see the VM Code Writer's frame pointers)
	"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
	// Named general purpose registers
	"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
	"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
	"R12": 12, "R13": 13, "R14": 14, "R15": 15,
	// Memory mapped I/O locations
	"SCREEN": 16384, "KBD": 24576,
}

// firstVariableAddress is where the next-free-variable cursor starts; it only moves
// forward as new variables are allocated by ResolveOrAllocate.
const firstVariableAddress uint16 = 16

// IsPredefined reports whether 'name' is one of the Hack platform's built-in symbols.
func IsPredefined(name string) bool {
	_, found := predefinedSymbols[name]
	return found
}

// SymbolTable maps symbolic names (labels, variables, predefined registers) to
// 16-bit addresses. Zero value is not usable; always construct via NewSymbolTable.
type SymbolTable struct {
	addresses map[string]uint16
	nextVar   uint16
}

// NewSymbolTable returns a table pre-seeded with every predefined Hack symbol and a
// next-free-variable cursor starting at 16, as required by spec.
func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{addresses: make(map[string]uint16, len(predefinedSymbols)), nextVar: firstVariableAddress}
	for name, address := range predefinedSymbols {
		table.addresses[name] = address
	}
	return table
}

// Lookup is a pure, read-only query: it never mutates the table and never allocates.
func (t *SymbolTable) Lookup(name string) (uint16, bool) {
	address, found := t.addresses[name]
	return address, found
}

// Bind records a label's address. Used exclusively by pass-1 of the Assembler, once
// per label declaration, with the running count of instructions emitted so far.
func (t *SymbolTable) Bind(name string, address uint16) {
	t.addresses[name] = address
}

// ResolveOrAllocate looks 'name' up and, on a miss, allocates the next free variable
// address and binds it. Used exclusively by pass-2, in source order of first
// reference, which is what makes variable allocation deterministic.
func (t *SymbolTable) ResolveOrAllocate(name string) uint16 {
	if address, found := t.addresses[name]; found {
		return address
	}

	address := t.nextVar
	t.addresses[name] = address
	t.nextVar++
	return address
}
