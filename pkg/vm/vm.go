package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Command' interface for every operation available in the language
// and define the Module/Program container types. A VM Program is composed of multiple
// translation units (one per '.vm' file, just like a '.class' file in Java); each gets
// its own private static segment, keyed by file basename in the Program map.

// Command puts together every VM operation (Push, Pop, Arithmetic, ...); use a type
// switch to disambiguate, exactly as 'asm.Statement' and 'hack.Instruction' do.
type Command interface{}

// A Module is a linear, ordered sequence of VM commands -- the parsed content of
// exactly one '.vm' file.
type Module []Command

// A Program gathers every Module of a translation run, keyed by the file's basename
// (without its '.vm' extension), since that basename is also what scopes the 'static'
// segment -- see 'CodeWriter.SetModule'.
type Program map[string]Module

// ----------------------------------------------------------------------------
// Memory access commands

// Push takes the value at 'Segment[Index]' (or, for the 'constant' pseudo-segment,
// the literal 'Index' itself) and places it on top of the stack.
type Push struct {
	Segment SegmentType
	Index   uint16
}

// Pop takes the value on top of the stack and stores it at 'Segment[Index]'. The
// 'constant' pseudo-segment has no address and is therefore never a valid Pop target.
type Pop struct {
	Segment SegmentType
	Index   uint16
}

// SegmentType enumerates the eight memory segments the VM language can address.
type SegmentType string

const (
	Constant SegmentType = "constant" // Virtual: no address, literal value pushed
	Local    SegmentType = "local"    // Dynamic: base dereferenced through LCL
	Argument SegmentType = "argument" // Dynamic: base dereferenced through ARG
	This     SegmentType = "this"     // Dynamic: base dereferenced through THIS
	That     SegmentType = "that"     // Dynamic: base dereferenced through THAT
	Temp     SegmentType = "temp"     // Fixed: base is the absolute address R5
	Pointer  SegmentType = "pointer"  // Fixed: base is the absolute address of THIS (R3)
	Static   SegmentType = "static"   // Per-file: resolved to "<basename>.<index>"
)

// ----------------------------------------------------------------------------
// Arithmetic / logical commands

// Arithmetic applies one of the nine arithmetic/logical operators to the top of the
// stack (binary ops consume two cells and push one; unary ops mutate in place).
type Arithmetic struct {
	Op ArithOpType
}

// ArithOpType enumerates the nine arithmetic/logical operators of the VM language.
type ArithOpType string

const (
	Add ArithOpType = "add" // Binary transformations
	Sub ArithOpType = "sub"
	And ArithOpType = "and"
	Or  ArithOpType = "or"

	Neg ArithOpType = "neg" // Unary transformations
	Not ArithOpType = "not"

	Eq ArithOpType = "eq" // Binary logicals
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"
)

// ----------------------------------------------------------------------------
// Branching commands

// LabelDecl declares a jump target, scoped to the function it appears within (see
// 'CodeWriter.currentFunction' for the exact mangling rule).
type LabelDecl struct{ Name string }

// Goto unconditionally transfers control to 'Label'.
type Goto struct{ Label string }

// IfGoto pops the top of the stack and transfers control to 'Label' iff it is nonzero.
type IfGoto struct{ Label string }

// ----------------------------------------------------------------------------
// Function commands

// FuncDecl declares a function with 'NumLocals' local variables, all zero-initialised.
type FuncDecl struct {
	Name      string
	NumLocals uint16
}

// Call invokes 'Name' with the top 'NumArgs' stack cells as its arguments.
type Call struct {
	Name    string
	NumArgs uint16
}

// Return transfers control back to the caller, per the frame discipline documented on
// 'CodeWriter.writeReturn'.
type Return struct{}
