package vm

import (
	"fmt"
	"strconv"

	"hackc/pkg/asm"
	"hackc/pkg/errs"
)

// ----------------------------------------------------------------------------
// Code Writer

// CodeWriter is the heart of the VM Translator: it turns a 'vm.Command' sequence into
// a sequence of 'asm.Instruction' (fed, downstream, through 'asm.CodeGenerator', the
// textual generator of 'pkg/asm', to get Hack assembly text).
//
// Its mutable translation state is scoped to a single translation run: a monotonic
// counter (fresh label generation, globally unique across every input file), the name
// of the function currently being emitted (label-scoping) and the basename of the
// module being emitted (static-segment scoping, see 'SetModule'). A single
// CodeWriter must be reused across every module (and the bootstrap) of one run via
// 'SetModule' -- the counter only guarantees uniqueness if it is never reset mid-run.
type CodeWriter struct {
	uniqueID        uint64
	currentFunction string
	currentModule   string
	Annotate        bool // When true, emit a comment naming the source VM command before its expansion
}

// noFunctionOwner names the implicit function scope labels are mangled under before
// any 'function' declaration has been seen -- matches the reference CodeWriter's
// '_current_function = "no_function"' default. It also stands in for the module name
// of 'static' symbols when 'SetModule' was never called.
const noFunctionOwner = "no_function"

// NewCodeWriter returns a CodeWriter ready to translate the first Module of a run.
func NewCodeWriter() *CodeWriter {
	return &CodeWriter{currentFunction: noFunctionOwner}
}

// SetModule records the basename (without its '.vm' extension) of the file whose
// commands are about to be emitted; it scopes the 'static' segment's symbols.
func (cw *CodeWriter) SetModule(basename string) { cw.currentModule = basename }

// nextID returns a fresh, run-wide unique integer, used to keep generated labels
// (logical-op branches, call return addresses) globally unique.
func (cw *CodeWriter) nextID() uint64 {
	cw.uniqueID++
	return cw.uniqueID
}

// ----------------------------------------------------------------------------
// Dispatch

// WriteModule translates every command of 'module' in order, concatenating their
// expansions. Each Write* call is all-or-nothing: on error, nothing from that command
// is appended.
func (cw *CodeWriter) WriteModule(module Module) ([]asm.Instruction, error) {
	out := []asm.Instruction{}
	for _, command := range module {
		generated, err := cw.Write(command)
		if err != nil {
			return nil, err
		}
		out = append(out, generated...)
	}
	return out, nil
}

// Write translates a single 'vm.Command' into its assembly expansion, optionally
// preceded by a comment naming the source command (see 'Annotate').
func (cw *CodeWriter) Write(command Command) ([]asm.Instruction, error) {
	var body []asm.Instruction
	var err error

	switch c := command.(type) {
	case Push:
		body, err = cw.writePush(c)
	case Pop:
		body, err = cw.writePop(c)
	case Arithmetic:
		body, err = cw.writeArithmetic(c)
	case LabelDecl:
		body, err = cw.writeLabel(c)
	case Goto:
		body, err = cw.writeGoto(c)
	case IfGoto:
		body, err = cw.writeIfGoto(c)
	case FuncDecl:
		body, err = cw.writeFunction(c)
	case Call:
		body, err = cw.writeCall(c)
	case Return:
		body, err = cw.writeReturn()
	default:
		return nil, fmt.Errorf("unrecognized VM command '%T'", command)
	}
	if err != nil {
		return nil, err
	}

	if !cw.Annotate {
		return body, nil
	}
	return append([]asm.Instruction{asm.CommentStmt{Text: describe(command)}}, body...), nil
}

// WriteBootstrap emits the program prologue: initialise SP to 256, then call Sys.init
// with no arguments, through the very same 'writeCall' every other call site uses. The
// spec requires this call to be unconditional (no existence check on Sys.init); that
// requirement is documented, not enforced defensively.
func (cw *CodeWriter) WriteBootstrap() ([]asm.Instruction, error) {
	initSP := []asm.Instruction{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	call, err := cw.writeCall(Call{Name: "Sys.init", NumArgs: 0})
	if err != nil {
		return nil, err
	}
	return append(initSP, call...), nil
}

func describe(command Command) string {
	switch c := command.(type) {
	case Push:
		return fmt.Sprintf("push %s %d", c.Segment, c.Index)
	case Pop:
		return fmt.Sprintf("pop %s %d", c.Segment, c.Index)
	case Arithmetic:
		return string(c.Op)
	case LabelDecl:
		return fmt.Sprintf("label %s", c.Name)
	case Goto:
		return fmt.Sprintf("goto %s", c.Label)
	case IfGoto:
		return fmt.Sprintf("if-goto %s", c.Label)
	case FuncDecl:
		return fmt.Sprintf("function %s %d", c.Name, c.NumLocals)
	case Call:
		return fmt.Sprintf("call %s %d", c.Name, c.NumArgs)
	case Return:
		return "return"
	default:
		return fmt.Sprintf("%T", command)
	}
}

// ----------------------------------------------------------------------------
// Primitive macros

// popInto pops the stack's top cell into 'register' ("D" or "A"). Side effect: always
// overwrites A, so popping into both D and A in sequence must pop into A last.
func popInto(register string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: register, Comp: "M"},
	}
}

// pushFrom pushes the value currently held in 'register' ("D") onto the stack.
func pushFrom(register string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: register},
	}
}

// pushBoolean pushes the canonical Hack boolean: 0 for false, -1 (all-ones) for true.
func pushBoolean(value bool) []asm.Instruction {
	literal := "0"
	if value {
		literal = "-1"
	}
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: literal},
	}
}

// pushConstant pushes a literal 16-bit value onto the stack.
func pushConstant(value uint16) []asm.Instruction {
	return append([]asm.Instruction{
		asm.AInstruction{Location: strconv.FormatUint(uint64(value), 10)},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}, pushFrom("D")...)
}

// ----------------------------------------------------------------------------
// Memory access

var dynamicBases = map[SegmentType]string{
	Local: "LCL", Argument: "ARG", This: "THIS", That: "THAT",
}

var fixedBases = map[SegmentType]string{
	Temp: "R5", Pointer: "THIS",
}

// calculateAddress computes the effective address of 'segment[offset]' into
// 'destReg' ("A" or "D"). Dynamic segments dereference their base register (*BASE +
// offset); fixed segments use the base register's own address as a literal (BASE +
// offset), since 'temp'/'pointer' are not pointers themselves.
func calculateAddress(destReg string, segment SegmentType, offset uint16) []asm.Instruction {
	out := []asm.Instruction{
		asm.AInstruction{Location: strconv.FormatUint(uint64(offset), 10)},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}

	if base, ok := dynamicBases[segment]; ok {
		return append(out,
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: destReg, Comp: "D+M"},
		)
	}
	base := fixedBases[segment]
	return append(out,
		asm.AInstruction{Location: base},
		asm.CInstruction{Dest: destReg, Comp: "D+A"},
	)
}

func (cw *CodeWriter) writePush(c Push) ([]asm.Instruction, error) {
	switch {
	case c.Segment == Constant:
		return pushConstant(c.Index), nil

	case c.Segment == Static:
		symbol := cw.staticSymbol(c.Index)
		return append([]asm.Instruction{
			asm.AInstruction{Location: symbol},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushFrom("D")...), nil

	case validSegment(c.Segment):
		out := calculateAddress("A", c.Segment, c.Index)
		out = append(out, asm.CInstruction{Dest: "D", Comp: "M"})
		return append(out, pushFrom("D")...), nil

	default:
		return nil, errs.Wrapf(errs.ErrUnknownCommand, "unknown segment %q in push", c.Segment)
	}
}

func (cw *CodeWriter) writePop(c Pop) ([]asm.Instruction, error) {
	switch {
	case c.Segment == Constant:
		return nil, errs.Wrapf(errs.ErrUnknownCommand, "'constant' has no address, cannot pop into it")

	case c.Segment == Static:
		symbol := cw.staticSymbol(c.Index)
		out := popInto("D")
		return append(out, asm.AInstruction{Location: symbol}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case validSegment(c.Segment):
		out := calculateAddress("D", c.Segment, c.Index)
		out = append(out, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"})
		out = append(out, popInto("D")...)
		return append(out, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	default:
		return nil, errs.Wrapf(errs.ErrUnknownCommand, "unknown segment %q in pop", c.Segment)
	}
}

func (cw *CodeWriter) staticSymbol(index uint16) string {
	module := cw.currentModule
	if module == "" {
		module = noFunctionOwner
	}
	return fmt.Sprintf("%s.%d", module, index)
}

// ----------------------------------------------------------------------------
// Arithmetic / logical

func (cw *CodeWriter) writeArithmetic(c Arithmetic) ([]asm.Instruction, error) {
	switch c.Op {
	case Add:
		return binaryTransform("+"), nil
	case Sub:
		return binaryTransform("-"), nil
	case And:
		return binaryTransform("&"), nil
	case Or:
		return binaryTransform("|"), nil
	case Neg:
		return unaryTransform("-"), nil
	case Not:
		return unaryTransform("!"), nil
	case Eq:
		return cw.binaryLogical("JEQ"), nil
	case Gt:
		return cw.binaryLogical("JGT"), nil
	case Lt:
		return cw.binaryLogical("JLT"), nil
	default:
		return nil, errs.Wrapf(errs.ErrUnknownCommand, "unknown arithmetic operator %q", c.Op)
	}
}

// binaryTransform pops the top two cells and computes "lhs op rhs": the cell popped
// first is the top-of-stack, the right-hand operand, which is what keeps
// non-commutative 'sub' correct ("A-D" rather than "D-A"). The commutative operators
// are written "D op A", the only form the Hack comp table has for them.
func binaryTransform(op string) []asm.Instruction {
	comp := fmt.Sprintf("D%sA", op)
	if op == "-" {
		comp = "A-D"
	}

	out := popInto("D")                // D = rhs (original top)
	out = append(out, popInto("A")...) // A = lhs (now-new-top), as a value not an address
	out = append(out, asm.CInstruction{Dest: "D", Comp: comp})
	return append(out, pushFrom("D")...)
}

// unaryTransform mutates the top-of-stack cell in place; the stack height is unchanged.
func unaryTransform(op string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: fmt.Sprintf("%sM", op)},
	}
}

// binaryLogical compares the top two cells with 'jump' and pushes the canonical
// boolean result. The fresh label pair is unique per call site via 'nextID'.
func (cw *CodeWriter) binaryLogical(jump string) []asm.Instruction {
	id := cw.nextID()
	trueLabel := fmt.Sprintf("LOGICAL_JUMP_%d_TRUE", id)
	endLabel := fmt.Sprintf("LOGICAL_JUMP_%d_END", id)

	out := popInto("D")                // D = rhs
	out = append(out, popInto("A")...) // A = lhs
	out = append(out, asm.CInstruction{Dest: "D", Comp: "A-D"})
	out = append(out, asm.AInstruction{Location: trueLabel}, asm.CInstruction{Comp: "D", Jump: jump})
	out = append(out, pushBoolean(false)...)
	out = append(out, asm.AInstruction{Location: endLabel}, asm.CInstruction{Comp: "0", Jump: "JMP"})
	out = append(out, asm.LabelDecl{Name: trueLabel})
	out = append(out, pushBoolean(true)...)
	return append(out, asm.LabelDecl{Name: endLabel})
}

// ----------------------------------------------------------------------------
// Branching

// mangle scopes 'label' under the function currently being emitted, so that two
// functions can each declare a "LOOP" label without colliding in the flat Hack
// assembly namespace.
func (cw *CodeWriter) mangle(label string) string {
	return fmt.Sprintf("%s$%s", cw.currentFunction, label)
}

func (cw *CodeWriter) writeLabel(c LabelDecl) ([]asm.Instruction, error) {
	return []asm.Instruction{asm.LabelDecl{Name: cw.mangle(c.Name)}}, nil
}

func (cw *CodeWriter) writeGoto(c Goto) ([]asm.Instruction, error) {
	return []asm.Instruction{
		asm.AInstruction{Location: cw.mangle(c.Label)},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}

func (cw *CodeWriter) writeIfGoto(c IfGoto) ([]asm.Instruction, error) {
	out := popInto("D")
	return append(out,
		asm.AInstruction{Location: cw.mangle(c.Label)},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	), nil
}

// ----------------------------------------------------------------------------
// Function call / return

// writeCall pushes a fresh return address, the caller's four frame pointers, then
// repositions ARG/LCL for the callee and jumps to it.
func (cw *CodeWriter) writeCall(c Call) ([]asm.Instruction, error) {
	returnLabel := fmt.Sprintf("return_from_%s_%d", c.Name, cw.nextID())

	out := []asm.Instruction{
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	out = append(out, pushFrom("D")...)

	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		out = append(out, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"})
		out = append(out, pushFrom("D")...)
	}

	// ARG = SP - (NumArgs + 5)
	out = append(out,
		asm.AInstruction{Location: strconv.FormatUint(uint64(c.NumArgs), 10)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "D", Comp: "D+A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	// LCL = SP
	out = append(out,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	out = append(out,
		asm.AInstruction{Location: c.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)

	return append(out, asm.LabelDecl{Name: returnLabel}), nil
}

// writeFunction declares the function's entry label, records it as the current label
// scope, and pushes 'NumLocals' zeros. The reference implementation pushes the
// literal 17 here, a documented bug; this emits the correct 0.
func (cw *CodeWriter) writeFunction(c FuncDecl) ([]asm.Instruction, error) {
	cw.currentFunction = c.Name

	loopStart := fmt.Sprintf("%s_fill_locals_start", c.Name)
	loopEnd := fmt.Sprintf("%s_fill_locals_end", c.Name)

	out := []asm.Instruction{
		asm.LabelDecl{Name: c.Name},
		asm.AInstruction{Location: strconv.FormatUint(uint64(c.NumLocals), 10)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.LabelDecl{Name: loopStart},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "MD", Comp: "M-1"},
		asm.AInstruction{Location: loopEnd},
		asm.CInstruction{Comp: "D", Jump: "JLT"},
	}
	out = append(out, pushConstant(0)...)
	out = append(out,
		asm.AInstruction{Location: loopStart},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: loopEnd},
	)

	return out, nil
}

// writeReturn unwinds the current frame and transfers control back to the caller.
//
// The return address is stashed into R14 before anything else: if the callee takes
// zero arguments, ARG and the return-address slot (*(LCL-5)) are the same memory
// cell, so writing the return value at *ARG would clobber the return address were it
// not copied out first.
func (cw *CodeWriter) writeReturn() ([]asm.Instruction, error) {
	out := []asm.Instruction{
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "A", Comp: "M-D"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}

	out = append(out, popInto("D")...) // D = return value
	out = append(out,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	out = append(out, // SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	out = append(out, // R13 = LCL (frame pointer, predecremented below)
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	for _, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		out = append(out,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}

	return append(out,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	), nil
}
