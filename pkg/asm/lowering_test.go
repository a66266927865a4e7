package asm_test

import (
	"testing"

	"hackc/pkg/asm"
	"hackc/pkg/hack"
)

func TestLowerBindsForwardLabelToFollowingAddress(t *testing.T) {
	// (LOOP) sits between two A Instructions; LOOP must bind to address 1 (the address
	// of the instruction that follows the label, not the label's own position).
	program := asm.Program{
		asm.AInstruction{Location: "0"},
		asm.LabelDecl{Name: "LOOP"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("Lower returned unexpected error: %s", err)
	}
	if len(hackProgram) != 3 {
		t.Fatalf("expected label declarations to be dropped from the output, got %d instructions", len(hackProgram))
	}

	address, found := table.Lookup("LOOP")
	if !found || address != 1 {
		t.Fatalf("expected LOOP bound to address 1, got %d (found=%v)", address, found)
	}
}

func TestLowerRawVsSymbolLocationType(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "42"},
		asm.AInstruction{Location: "counter"},
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, _, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("Lower returned unexpected error: %s", err)
	}

	raw, ok := hackProgram[0].(hack.AInstruction)
	if !ok || raw.LocType != hack.Raw || raw.LocName != "42" {
		t.Fatalf("expected a Raw AInstruction for a numeric literal, got %#v", hackProgram[0])
	}

	symbol, ok := hackProgram[1].(hack.AInstruction)
	if !ok || symbol.LocType != hack.Symbol || symbol.LocName != "counter" {
		t.Fatalf("expected a Symbol AInstruction for a non-numeric operand, got %#v", hackProgram[1])
	}
}

func TestLowerClassifiesOversizedLiteralAsRawNotSymbol(t *testing.T) {
	// 65536 overflows 16 bits but is still all-digits: it must reach hack.Raw so that
	// 'hack.CodeGenerator' raises ConstantOverflow, rather than being misclassified as
	// hack.Symbol and silently allocated as a variable named "65536".
	program := asm.Program{asm.AInstruction{Location: "65536"}}

	lowerer := asm.NewLowerer(program)
	hackProgram, _, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("Lower returned unexpected error: %s", err)
	}

	got, ok := hackProgram[0].(hack.AInstruction)
	if !ok || got.LocType != hack.Raw || got.LocName != "65536" {
		t.Fatalf("expected a Raw AInstruction for an oversized numeric literal, got %#v", hackProgram[0])
	}
}

func TestLowerRejectsLabelCollidingWithPredefined(t *testing.T) {
	program := asm.Program{
		asm.LabelDecl{Name: "SP"},
		asm.AInstruction{Location: "0"},
	}

	lowerer := asm.NewLowerer(program)
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatal("expected an error when a user label collides with a predefined symbol")
	}
}

func TestLowerRejectsCInstructionWithoutComp(t *testing.T) {
	program := asm.Program{
		asm.CInstruction{Dest: "D", Comp: ""},
	}

	lowerer := asm.NewLowerer(program)
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatal("expected an error for a C Instruction missing its 'comp' field")
	}
}

func TestLowerRejectsEmptyProgram(t *testing.T) {
	lowerer := asm.NewLowerer(asm.Program{})
	if _, _, err := lowerer.Lower(); err == nil {
		t.Fatal("expected an error for an empty program")
	}
}
