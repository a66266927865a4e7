package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assemble(t *testing.T, source string) string {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "Prog.asm")
	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		t.Fatalf("failed to write fixture: %s", err)
	}

	if status := Handler([]string{input}, nil); status != 0 {
		t.Fatalf("Handler returned exit status %d", status)
	}

	compiled, err := os.ReadFile(filepath.Join(dir, "Prog.hack"))
	if err != nil {
		t.Fatalf("expected a sibling .hack output: %s", err)
	}
	return string(compiled)
}

func TestHackAssemblerAddTwoConstants(t *testing.T) {
	source := strings.Join([]string{
		"@2", "D=A", "@3", "D=D+A", "@0", "M=D",
	}, "\n")

	want := strings.Join([]string{
		"0000000000000010",
		"1110110000010000",
		"0000000000000011",
		"1110000010010000",
		"0000000000000000",
		"1110001100001000",
	}, "\n") + "\n"

	if got := assemble(t, source); got != want {
		t.Fatalf("Add:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestHackAssemblerLabelsAndVariables(t *testing.T) {
	// A forward-referenced label and an undeclared symbol ('counter') must both resolve:
	// the label to the address of the instruction after it, the symbol to the first free
	// variable slot (16).
	source := strings.Join([]string{
		"@counter",
		"M=0",
		"(LOOP)",
		"@counter",
		"M=M+1",
		"@LOOP",
		"0;JMP",
	}, "\n")

	got := assemble(t, source)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 compiled instructions, got %d: %v", len(lines), lines)
	}
	// '@counter' must resolve to the first variable address, 16 == 0000000000010000.
	if lines[0] != "0000000000010000" {
		t.Fatalf("expected 'counter' to allocate at address 16, got %q", lines[0])
	}
	// '@LOOP' (the 5th instruction emitted, index 4) must resolve to the
	// address of '(LOOP)''s next instruction, which is address 2.
	if lines[4] != "0000000000000010" {
		t.Fatalf("expected 'LOOP' to resolve to address 2, got %q", lines[4])
	}
}

func TestHackAssemblerOutputSuffixRule(t *testing.T) {
	cases := map[string]string{
		"Prog.asm": "Prog.hack",
		"Prog.ASM": "Prog.hack",
		"Prog":     "Prog.hack",
	}
	for input, want := range cases {
		if got := outputPath(input); got != want {
			t.Errorf("outputPath(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestHackAssemblerRejectsMalformedInstruction(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Bad.asm")
	if err := os.WriteFile(input, []byte("D=Q\n"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %s", err)
	}

	if status := Handler([]string{input}, nil); status == 0 {
		t.Fatal("expected a nonzero exit status for a malformed C-instruction")
	}
}
