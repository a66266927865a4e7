package asm

import (
	"fmt"
	"strconv"

	"hackc/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart.
//
// This is pass-1 of the Assembler: it walks the program twice. The first walk only
// tracks Label Declarations, binding each one to the address of the instruction that
// would follow it (label declarations do not themselves emit an instruction, so they
// must not advance the address counter). The second walk converts every A/C
// Instruction to its 'hack' counterpart, classifying each A Instruction operand as
// either a raw literal or a symbol (built-in, label or variable all resolve through
// the same SymbolTable, variables are only ever allocated later, by pass-2 of the
// Assembler proper, 'hack.CodeGenerator.TranslateAInst').
type Lowerer struct{ program Program }

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process, returning the converted 'hack.Program' together with
// the SymbolTable built along the way (pre-seeded plus every bound label).
func (l *Lowerer) Lower() (hack.Program, *hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("the given 'program' is empty")
	}

	table := hack.NewSymbolTable()

	// Pass 1: bind every label to the address of the instruction that follows it.
	// Label declarations are not themselves instructions, so they must not be counted.
	address := uint16(0)
	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction, CInstruction:
			address++
		case LabelDecl:
			label, err := l.HandleLabelDecl(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			if hack.IsPredefined(label) {
				return nil, nil, fmt.Errorf("label %q collides with a predefined symbol", label)
			}
			table.Bind(label, address)
		default:
			return nil, nil, fmt.Errorf("unrecognized instruction '%T'", asmInst)
		}
	}

	// Pass 2: convert every A/C Instruction, skipping Label Declarations entirely.
	converted := make(hack.Program, 0, address)
	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction:
			hackInst, err := l.HandleAInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case CInstruction:
			hackInst, err := l.HandleCInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case LabelDecl:
			continue // Already consumed during pass-1, carries no instruction of its own
		}
	}

	return converted, table, nil
}

// Specialized function to convert a 'asm.AInstruction' node to an 'hack.AInstruction'.
//
// A location that parses as an unsigned integer, of any magnitude, is a raw literal;
// everything else (built-ins, labels, future variables) is left as a Symbol for the
// SymbolTable to resolve, since at this point we cannot yet tell a label from an
// as-of-yet unseen variable -- that distinction only matters to pass-2
// ('hack.CodeGenerator'). The parse here must not itself bound the literal to 16 bits:
// that would misclassify an oversized literal (e.g. "65536") as a Symbol and send it
// through variable allocation instead of 'hack.TranslateAInst's ConstantOverflow check,
// which is the only place that bound is meant to be enforced.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, err := strconv.ParseUint(inst.Location, 10, 64); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	return hack.AInstruction{LocType: hack.Symbol, LocName: inst.Location}, nil
}

// Specialized function to convert a 'asm.CInstruction' node to an 'hack.CInstruction'.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" { // Pre-check: CInstruction.Comp should always be provided
		return nil, fmt.Errorf("'Comp' sub-instruction should always be provided")
	}

	return hack.CInstruction{Comp: inst.Comp, Dest: inst.Dest, Jump: inst.Jump}, nil
}

// Specialized function to extract from a 'asm.LabelDecl' node to the identifier of the label.
func (Lowerer) HandleLabelDecl(inst LabelDecl) (string, error) {
	if inst.Name == "" {
		return "", fmt.Errorf("unable to bind an empty label name")
	}
	return inst.Name, nil
}
