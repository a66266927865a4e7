package vm

import (
	"io"
	"strconv"
	"strings"

	"hackc/pkg/errs"
	"hackc/pkg/lines"
)

// ----------------------------------------------------------------------------
// Vm Parser

// Parser turns a stream of VM source text into a 'vm.Module'.
//
// Unlike the Assembler's goparsec-based grammar, the VM surface syntax is flat enough
// that a full parser combinator is unwarranted: every command is "word word? word?" on
// its own line. The Parser therefore consumes a 'lines.Reader' (the same Line Reader
// component the VM format has always needed, per the shared source-bytes-to-tokens
// pipeline) and tokenises each logical line directly, exactly as the reference
// Parser.advance()/_parse_command() does.
type Parser struct{ reader io.Reader }

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads every logical line from the underlying reader and classifies each one
// into a 'vm.Command', in source order.
func (p *Parser) Parse() (Module, error) {
	logicalLines, err := lines.NewReader(p.reader).ReadAll()
	if err != nil {
		return nil, errs.Wrapf(errs.ErrIOError, "cannot read VM source: %s", err)
	}

	module := make(Module, 0, len(logicalLines))
	for _, line := range logicalLines {
		command, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		module = append(module, command)
	}
	return module, nil
}

// arithmeticOps is the fixed taxonomy of single-word arithmetic/logical commands --
// any of these names, standing alone on a line, classifies as an 'Arithmetic' command.
var arithmeticOps = map[string]ArithOpType{
	"add": Add, "sub": Sub, "and": And, "or": Or,
	"neg": Neg, "not": Not,
	"eq": Eq, "gt": Gt, "lt": Lt,
}

// ParseLine tokenises a single logical (already comment-stripped, trimmed, non-empty)
// line into its 'vm.Command'. The operator word is lower-cased for classification, per
// spec.md §4.4; operand words (segment names, labels, function names) keep their case.
func ParseLine(line string) (Command, error) {
	tokens := strings.Fields(line)
	op := strings.ToLower(tokens[0])

	if arith, found := arithmeticOps[op]; found {
		if len(tokens) != 1 {
			return nil, errs.Wrapf(errs.ErrUnknownCommand, "arithmetic command %q takes no arguments", line)
		}
		return Arithmetic{Op: arith}, nil
	}

	switch op {
	case "push", "pop":
		if len(tokens) != 3 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects a segment and an index", line)
		}
		segment := SegmentType(tokens[1])
		if !validSegment(segment) {
			return nil, errs.Wrapf(errs.ErrUnknownCommand, "unknown segment %q", tokens[1])
		}
		index, err := strconv.ParseUint(tokens[2], 10, 16)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "malformed index %q in %q", tokens[2], line)
		}
		if op == "push" {
			return Push{Segment: segment, Index: uint16(index)}, nil
		}
		return Pop{Segment: segment, Index: uint16(index)}, nil

	case "label":
		if len(tokens) != 2 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects exactly one label name", line)
		}
		return LabelDecl{Name: tokens[1]}, nil

	case "goto":
		if len(tokens) != 2 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects exactly one label name", line)
		}
		return Goto{Label: tokens[1]}, nil

	case "if-goto":
		if len(tokens) != 2 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects exactly one label name", line)
		}
		return IfGoto{Label: tokens[1]}, nil

	case "function":
		if len(tokens) != 3 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects a name and a local count", line)
		}
		nLocals, err := strconv.ParseUint(tokens[2], 10, 16)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "malformed local count %q in %q", tokens[2], line)
		}
		return FuncDecl{Name: tokens[1], NumLocals: uint16(nLocals)}, nil

	case "call":
		if len(tokens) != 3 {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "%q expects a name and an argument count", line)
		}
		nArgs, err := strconv.ParseUint(tokens[2], 10, 16)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrMissingArgument, "malformed argument count %q in %q", tokens[2], line)
		}
		return Call{Name: tokens[1], NumArgs: uint16(nArgs)}, nil

	case "return":
		if len(tokens) != 1 {
			return nil, errs.Wrapf(errs.ErrUnknownCommand, "%q takes no arguments", line)
		}
		return Return{}, nil

	default:
		return nil, errs.Wrapf(errs.ErrUnknownCommand, "unrecognized command %q", tokens[0])
	}
}

func validSegment(s SegmentType) bool {
	switch s {
	case Constant, Local, Argument, This, That, Temp, Pointer, Static:
		return true
	default:
		return false
	}
}
