// Package errs defines the error taxonomy shared by the Assembler and the VM
// Translator. Every sentinel below corresponds to one entry of the error taxonomy: the
// first error aborts the current translation run, no partial output is guaranteed, and
// none of these are recovered locally -- callers wrap them with call-site context via
// Wrapf and let them propagate to the CLI entrypoint.
package errs

import "github.com/pkg/errors"

var (
	// ErrInvalidMnemonic: a C-instruction 'dest'/'comp'/'jump' field is not in the table.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrConstantOverflow: an A-instruction literal exceeds 15 bits.
	ErrConstantOverflow = errors.New("constant overflow")
	// ErrUnknownCommand: a VM command name is not recognised.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingArgument: a VM command requires more arguments than present.
	ErrMissingArgument = errors.New("missing argument")
	// ErrNoInputFound: a directory contains no '.vm' files, or the path does not exist.
	ErrNoInputFound = errors.New("no input found")
	// ErrIOError: underlying filesystem failure.
	ErrIOError = errors.New("io error")
)

// Wrapf annotates 'cause' with a formatted message while preserving it as the
// underlying cause for errors.Is/errors.As, exactly as github.com/pkg/errors intends.
func Wrapf(cause error, format string, args ...any) error {
	return errors.Wrapf(cause, format, args...)
}

// Is reports whether 'err''s chain contains 'target', delegating to the same cause
// chain github.com/pkg/errors builds via Wrapf.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
