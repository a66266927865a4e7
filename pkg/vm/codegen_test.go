package vm_test

import (
	"strings"
	"testing"

	"hackc/pkg/asm"
	"hackc/pkg/vm"
)

// render lowers 'commands' through a fresh CodeWriter and then through the Assembler's
// own textual CodeGenerator, giving back one assembly line per string -- this keeps the
// assertions below readable without hand-decoding 'asm.Instruction' structs.
func render(t *testing.T, cw *vm.CodeWriter, commands ...vm.Command) []string {
	t.Helper()

	instructions := []asm.Instruction{}
	for _, command := range commands {
		generated, err := cw.Write(command)
		if err != nil {
			t.Fatalf("Write(%#v) returned unexpected error: %s", command, err)
		}
		instructions = append(instructions, generated...)
	}

	codegen := asm.NewCodeGenerator(instructions)
	lines, err := codegen.Generate()
	if err != nil {
		t.Fatalf("rendering generated instructions to assembly failed: %s", err)
	}
	return lines
}

func TestWritePushConstant(t *testing.T) {
	lines := render(t, vm.NewCodeWriter(), vm.Push{Segment: vm.Constant, Index: 17})

	want := []string{"@17", "D=A", "@SP", "M=M+1", "A=M-1", "M=D"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("push constant 17:\ngot:  %v\nwant: %v", lines, want)
	}
}

func TestWritePushPopDynamicSegments(t *testing.T) {
	for _, seg := range []vm.SegmentType{vm.Local, vm.Argument, vm.This, vm.That} {
		cw := vm.NewCodeWriter()

		pushed := render(t, cw, vm.Push{Segment: seg, Index: 2})
		if len(pushed) == 0 {
			t.Fatalf("push %s 2 produced no instructions", seg)
		}

		popped := render(t, vm.NewCodeWriter(), vm.Pop{Segment: seg, Index: 2})
		if len(popped) == 0 {
			t.Fatalf("pop %s 2 produced no instructions", seg)
		}
	}
}

func TestWritePushPopFixedSegments(t *testing.T) {
	lines := render(t, vm.NewCodeWriter(), vm.Push{Segment: vm.Temp, Index: 3})
	want := []string{"@3", "D=A", "@R5", "A=D+A", "D=M", "@SP", "M=M+1", "A=M-1", "M=D"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("push temp 3:\ngot:  %v\nwant: %v", lines, want)
	}

	lines = render(t, vm.NewCodeWriter(), vm.Pop{Segment: vm.Pointer, Index: 0})
	want = []string{
		"@0", "D=A", "@THIS", "D=D+A",
		"@R13", "M=D",
		"@SP", "AM=M-1", "D=M",
		"@R13", "A=M", "M=D",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("pop pointer 0:\ngot:  %v\nwant: %v", lines, want)
	}
}

func TestWriteStaticIsScopedPerModule(t *testing.T) {
	cw := vm.NewCodeWriter()
	cw.SetModule("Foo")
	fooLines := render(t, cw, vm.Pop{Segment: vm.Static, Index: 0})
	if !strings.Contains(strings.Join(fooLines, "\n"), "@Foo.0") {
		t.Fatalf("expected static symbol 'Foo.0', got: %v", fooLines)
	}

	cw2 := vm.NewCodeWriter()
	cw2.SetModule("Bar")
	barLines := render(t, cw2, vm.Pop{Segment: vm.Static, Index: 0})
	if !strings.Contains(strings.Join(barLines, "\n"), "@Bar.0") {
		t.Fatalf("expected static symbol 'Bar.0', got: %v", barLines)
	}
}

func TestWriteArithmeticBinary(t *testing.T) {
	// 'sub' must use "A-D" (lhs-rhs), never "D-A", since the VM operand order is
	// the second-pushed value on top.
	lines := render(t, vm.NewCodeWriter(), vm.Arithmetic{Op: vm.Sub})
	want := []string{"@SP", "AM=M-1", "D=M", "@SP", "AM=M-1", "A=M", "D=A-D", "@SP", "M=M+1", "A=M-1", "M=D"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("sub:\ngot:  %v\nwant: %v", lines, want)
	}
}

func TestWriteArithmeticUnary(t *testing.T) {
	lines := render(t, vm.NewCodeWriter(), vm.Arithmetic{Op: vm.Not})
	want := []string{"@SP", "A=M-1", "M=!M"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("not:\ngot:  %v\nwant: %v", lines, want)
	}
}

func TestWriteArithmeticLogicalLabelsAreUnique(t *testing.T) {
	cw := vm.NewCodeWriter()
	first := render(t, cw, vm.Arithmetic{Op: vm.Eq})
	second := render(t, cw, vm.Arithmetic{Op: vm.Eq})

	if strings.Join(first, "\n") == strings.Join(second, "\n") {
		t.Fatalf("two 'eq' emissions produced identical (colliding) labels")
	}
}

func TestWriteArithmeticUnknownOp(t *testing.T) {
	cw := vm.NewCodeWriter()
	if _, err := cw.Write(vm.Arithmetic{Op: vm.ArithOpType("xor")}); err == nil {
		t.Fatal("expected an error for an unknown arithmetic operator")
	}
}

func TestWriteLabelGotoMangling(t *testing.T) {
	cw := vm.NewCodeWriter()

	// Outside any function, labels are scoped under the implicit default owner.
	lines := render(t, cw, vm.LabelDecl{Name: "LOOP"})
	if strings.Join(lines, "\n") != "(no_function$LOOP)" {
		t.Fatalf("unscoped label: got %v", lines)
	}

	render(t, cw, vm.FuncDecl{Name: "Main.fib", NumLocals: 0})

	lines = render(t, cw, vm.Goto{Label: "LOOP"})
	if strings.Join(lines, "\n") != strings.Join([]string{"@Main.fib$LOOP", "0;JMP"}, "\n") {
		t.Fatalf("function-scoped goto: got %v", lines)
	}

	lines = render(t, cw, vm.IfGoto{Label: "LOOP"})
	want := []string{"@SP", "AM=M-1", "D=M", "@Main.fib$LOOP", "D;JNE"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("function-scoped if-goto: got %v", lines)
	}
}

func TestWriteFunctionZerosLocals(t *testing.T) {
	cw := vm.NewCodeWriter()
	lines := render(t, cw, vm.FuncDecl{Name: "Main.run", NumLocals: 2})
	joined := strings.Join(lines, "\n")

	if !strings.Contains(joined, "(Main.run)") {
		t.Fatalf("missing entry label: %v", lines)
	}
	// The reference implementation pushes the literal 17 as filler; this writer must
	// push 0 instead.
	if strings.Contains(joined, "@17") {
		t.Fatalf("function prologue must zero locals, not push 17: %v", lines)
	}
	if !strings.Contains(joined, "M=D") || !strings.Contains(joined, "@2") {
		t.Fatalf("expected to see the local count and a push of D somewhere: %v", lines)
	}
}

func TestWriteCallFrame(t *testing.T) {
	cw := vm.NewCodeWriter()
	lines := render(t, cw, vm.Call{Name: "Math.multiply", NumArgs: 2})
	joined := strings.Join(lines, "\n")

	for _, want := range []string{"@Math.multiply", "0;JMP", "@LCL", "@ARG", "@THIS", "@THAT"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("call frame missing %q: %v", want, lines)
		}
	}
}

func TestWriteReturnStashesReturnAddressFirst(t *testing.T) {
	lines := render(t, vm.NewCodeWriter(), vm.Return{})
	joined := strings.Join(lines, "\n")

	r14Idx := strings.Index(joined, "@R14")
	argIdx := strings.Index(joined, "@ARG")
	if r14Idx == -1 || argIdx == -1 || r14Idx > argIdx {
		t.Fatalf("return address must be stashed into R14 before *ARG is overwritten: %v", lines)
	}

	for _, want := range []string{"@THAT", "@THIS", "@ARG", "@LCL", "@R14", "A=M", "0;JMP"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("return sequence missing %q: %v", want, lines)
		}
	}
}

func TestWriteBootstrapCallsSysInitUnconditionally(t *testing.T) {
	cw := vm.NewCodeWriter()
	instructions, err := cw.WriteBootstrap()
	if err != nil {
		t.Fatalf("WriteBootstrap returned unexpected error: %s", err)
	}

	codegen := asm.NewCodeGenerator(instructions)
	lines, err := codegen.Generate()
	if err != nil {
		t.Fatalf("rendering bootstrap to assembly failed: %s", err)
	}
	joined := strings.Join(lines, "\n")

	if !strings.Contains(joined, "@256") || !strings.Contains(joined, "@SP") {
		t.Fatalf("bootstrap must initialise SP to 256: %v", lines)
	}
	if !strings.Contains(joined, "@Sys.init") {
		t.Fatalf("bootstrap must call Sys.init: %v", lines)
	}
}

func TestWriteAnnotateEmitsSourceComment(t *testing.T) {
	cw := vm.NewCodeWriter()
	cw.Annotate = true

	lines := render(t, cw, vm.Arithmetic{Op: vm.Add})
	if len(lines) == 0 || lines[0] != "// add" {
		t.Fatalf("expected leading '// add' comment, got: %v", lines)
	}
}

func TestWriteModuleConcatenatesInOrder(t *testing.T) {
	cw := vm.NewCodeWriter()
	module := vm.Module{
		vm.Push{Segment: vm.Constant, Index: 1},
		vm.Push{Segment: vm.Constant, Index: 2},
		vm.Arithmetic{Op: vm.Add},
	}

	instructions, err := cw.WriteModule(module)
	if err != nil {
		t.Fatalf("WriteModule returned unexpected error: %s", err)
	}
	if len(instructions) == 0 {
		t.Fatal("WriteModule produced no instructions")
	}
}

func TestWritePopConstantIsRejected(t *testing.T) {
	cw := vm.NewCodeWriter()
	if _, err := cw.Write(vm.Pop{Segment: vm.Constant, Index: 0}); err == nil {
		t.Fatal("expected popping into 'constant' to be rejected")
	}
}
