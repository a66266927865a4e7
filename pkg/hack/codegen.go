package hack

import (
	"fmt"
	"strconv"

	"hackc/pkg/errs"
)

// ----------------------------------------------------------------------------
// Translation tables

// This section contains the translation tables cornerstone of the codegen phase.
//
// This table provides a simple yet effective way to resolve the everything built-in and
// in the Hack specification. Notably we have a the following tables defined:
//   - 'CompTable': Specifies how to translate the 'Comp' opcode in C instructions
//   - 'DestTable': Specifies how to translate the 'Dest' opcode in C instructions
//   - 'JumpTable': Specifies how to translate the 'Jump' opcode in C instructions

var (
	CompTable = map[string]uint16{
		// - Constants and identities
		"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
		"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
		// - Binary and numerical negations
		"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
		"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
		// - Increment and decrement operations
		"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
		"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
		// - Register with register operations
		"D+A": 0b0000010, "D+M": 0b1000010,
		"D-A": 0b0010011, "D-M": 0b1010011,
		"A-D": 0b0000111, "M-D": 0b1000111,
		// - Bitwise register with register operations
		"D&A": 0b0000000, "D&M": 0b1000000,
		"D|A": 0b0010101, "D|M": 0b1010101,
	}

	DestTable = map[string]uint16{
		"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
		"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
	}

	JumpTable = map[string]uint16{
		"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
		"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
	}
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a 'hack.Program' (pass-1 output) and spits out their binary counterparts.
//
// This is pass-2 of the Assembler: the SymbolTable handed in already has every label
// bound to its address (by pass-1); this stage resolves raw literals, resolves or
// allocates variables on first reference, and translates every C Instruction field
// through the opcode tables above.
type CodeGenerator struct {
	program Program      // The set of instructions to convert in Hack binary format
	table   *SymbolTable // Mapping to resolve symbols (labels, variables, predefined names)
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires both a non-nil Program 'p' (what we want to translate) as well as
// a non-nil SymbolTable 'st' used to resolve symbolic A Instruction operands.
func NewCodeGenerator(p Program, st *SymbolTable) *CodeGenerator {
	return &CodeGenerator{program: p, table: st}
}

// Translates each instruction in the 'Program' to the Hack binary format.
//
// Each instruction will pass through the following step: evaluation, validation and then conversion
// to its binary representation (a 16 character string of '0'/'1') so that it can be further elaborated by the
// function caller (e.g. dumping .hack code to a file, runtime interpretation, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	compiled := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var generated string
		var err error

		switch tInstruction := instruction.(type) {
		case AInstruction:
			generated, err = cg.TranslateAInst(tInstruction)
		case CInstruction:
			generated, err = cg.TranslateCInst(tInstruction)
		default:
			err = fmt.Errorf("unrecognized instruction type %T", instruction)
		}

		if err != nil {
			return nil, err
		}
		compiled = append(compiled, generated)
	}

	return compiled, nil
}

// TranslateAInst converts a single A Instruction to its 16 character Hack binary format.
//
// Raw literals are bound checked (ConstantOverflow past 2^15-1); symbolic operands are
// resolved against the SymbolTable, allocating a new variable address on first reference.
func (cg *CodeGenerator) TranslateAInst(inst AInstruction) (string, error) {
	var address uint16

	switch inst.LocType {
	case Raw:
		num, err := strconv.ParseUint(inst.LocName, 10, 64)
		if err != nil {
			return "", errs.Wrapf(errs.ErrInvalidMnemonic, "malformed A Instruction literal %q", inst.LocName)
		}
		if num >= uint64(MaxAddressableMemory) {
			return "", errs.Wrapf(errs.ErrConstantOverflow, "literal %q exceeds the 15 available address bits", inst.LocName)
		}
		address = uint16(num)

	case Symbol:
		address = cg.table.ResolveOrAllocate(inst.LocName)

	default:
		return "", fmt.Errorf("unrecognized LocationType %v for %q", inst.LocType, inst.LocName)
	}

	return fmt.Sprintf("%016b", address), nil
}

// TranslateCInst converts a single C Instruction to its 16 character Hack binary format.
//
// The 'Comp' field is mandatory; 'Dest' and 'Jump' default to the all-zero bit-field
// when absent. Any mnemonic outside the three opcode tables fails InvalidMnemonic.
func (cg *CodeGenerator) TranslateCInst(inst CInstruction) (string, error) {
	command := uint16(0b111 << 13) // Puts the initial '111' opcode at the start

	comp, found := CompTable[inst.Comp]
	if !found {
		return "", errs.Wrapf(errs.ErrInvalidMnemonic, "unknown 'comp' mnemonic %q", inst.Comp)
	}
	command |= comp << 6

	dest, found := DestTable[inst.Dest]
	if !found {
		return "", errs.Wrapf(errs.ErrInvalidMnemonic, "unknown 'dest' mnemonic %q", inst.Dest)
	}
	command |= dest << 3

	jump, found := JumpTable[inst.Jump]
	if !found {
		return "", errs.Wrapf(errs.ErrInvalidMnemonic, "unknown 'jump' mnemonic %q", inst.Jump)
	}
	command |= jump

	return fmt.Sprintf("%016b", command), nil
}
