package hack

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Hack instruction set.
//
// We declare a shared 'Instruction' interface for both A and C instructions as well
// as defining some useful constants for runtime assertions during the codegen phase
// such as the 'MaxAddressableMemory' that defines the upper limit to Memory capacity.

// Just used to put together A and C instructions struct, use type switch to disambiguate.
type Instruction interface{}

// A Program is just a linear sequence of (already lowered) Hack instructions, one per
// emitted word. Label declarations never reach this stage: they are resolved into the
// SymbolTable during the Assembler's first pass and never become an Instruction here.
type Program []Instruction

const MaxAddressableMemory uint16 = (1 << 15) // Exclusive upper bound of the address an A Instruction can load.

// ----------------------------------------------------------------------------
// A Instructions

// In memory representation of an A Instruction for the Hack architecture spec.
//
// The A instruction has only one functionality in the Hack computer, it instructs
// the CPU to load a specific memory address from the computer memory (this includes
// both the RAM as well as the memory mapped I/O such as Keyboard and Screen).
//
// The location can be expressed in one of two ways, disambiguated by 'LocType':
// - A raw memory address (e.g. 1, 2, 3)
// - A symbol resolved against the SymbolTable: a user defined label or variable, or
//   one of the predefined names (SP, LCL, SCREEN, R0, ...). The table pre-seeding is
//   what makes built-ins and labels indistinguishable at this stage; see SymbolTable.
type AInstruction struct {
	LocType LocationType // The type of the location identified by 'LocName'
	LocName string       // A generic "payload" (the symbol, or the raw decimal literal)
}

type LocationType uint8 // Enumeration for the two kinds of A Instruction operand.

const (
	Raw    LocationType = 0 // Raw address literal (e.g. @2345, @8989)
	Symbol LocationType = 1 // Resolved through the SymbolTable (label, variable or predefined name)
)

// ----------------------------------------------------------------------------
// C Instructions

// In memory representation of an C Instruction for the Hack architecture spec.
//
// The C instruction handles the computation side of the Hack computer, it instructs
// the CPU on what operation to execute and which register to use, also it allows to
// specify jump conditions to change the execution flow at runtime.
type CInstruction struct {
	Comp string // The 'computation' bit-codes, defines the calculation that the CPU should perform
	Dest string // The 'destination' bit-codes, defines if/where the result should be saved
	Jump string // The 'jump' bit-codes, define on what premise the jump to another instruction should occur
}
