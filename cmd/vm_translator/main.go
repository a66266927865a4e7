package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"hackc/pkg/asm"
	"hackc/pkg/errs"
	"hackc/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "A .vm file or a directory containing .vm files")).
	WithOption(cli.NewOption("bootstrap", "Whether to emit the Sys.init bootstrap call (default: true)").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	inputs, outputPath, err := resolveInputs(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	program := vm.Program{}
	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		parser := vm.NewParser(bytes.NewReader(content))
		module, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass on %s: %s\n", input, err)
			return -1
		}
		program[moduleName(input)] = module
	}

	instructions := []asm.Instruction{}

	// One CodeWriter for the whole run: its uniqueID counter backs the LOGICAL_JUMP_*
	// and return_from_* labels, and neither carries a module prefix, so every module
	// (and the bootstrap) must share the same counter or two files can emit colliding
	// label declarations.
	writer := vm.NewCodeWriter()

	// Bootstrap defaults to on, per spec.md §4.6/§9; '--bootstrap=false' is an
	// opt-out kept for comparing against fixtures that never call Sys.init.
	withBootstrap := true
	if raw, present := options["bootstrap"]; present && raw == "false" {
		withBootstrap = false
	}
	if withBootstrap {
		bootstrap, err := writer.WriteBootstrap()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'codegen' pass on bootstrap: %s\n", err)
			return -1
		}
		instructions = append(instructions, bootstrap...)
	}

	// Translate each module in a stable order (so two runs over the same inputs are
	// byte-identical), re-scoping the shared writer's label-mangling to each module
	// in turn without resetting its unique-label counter.
	for _, name := range sortedModuleNames(program) {
		writer.SetModule(name)

		generated, err := writer.WriteModule(program[name])
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'codegen' pass on %s: %s\n", name, err)
			return -1
		}
		instructions = append(instructions, generated...)
	}

	codegen := asm.NewCodeGenerator(instructions)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		fmt.Fprintf(output, "%s\n", line)
	}

	return 0
}

// moduleName derives the static-segment scoping key for a '.vm' file: its basename
// without the extension.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sortedModuleNames(program vm.Program) []string {
	names := make([]string, 0, len(program))
	for name := range program {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

// resolveInputs expands 'input' (a file or a directory) into the list of '.vm' files to
// translate, plus the sibling '.asm' output path: for a single file, "<basename>.asm" next
// to it; for a directory, "<dirname>.asm" inside it, matching the VM translator's own
// convention of naming the bootstrap-carrying output after the program, not any one file.
func resolveInputs(input string) ([]string, string, error) {
	info, err := os.Stat(input)
	if os.IsNotExist(err) {
		return nil, "", errs.Wrapf(errs.ErrNoInputFound, "%q does not exist", input)
	}
	if err != nil {
		return nil, "", errs.Wrapf(errs.ErrIOError, "cannot stat %q: %s", input, err)
	}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(input), ".asm") {
			return nil, "", errs.Wrapf(errs.ErrNoInputFound, "%q is a .asm file, not a .vm file", input)
		}
		dir, base := filepath.Split(input)
		outputPath := filepath.Join(dir, moduleName(base)+".asm")
		return []string{input}, outputPath, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, "", errs.Wrapf(errs.ErrIOError, "cannot read directory %q: %s", input, err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".vm") {
			continue
		}
		files = append(files, filepath.Join(input, entry.Name()))
	}
	if len(files) == 0 {
		return nil, "", errs.Wrapf(errs.ErrNoInputFound, "directory %q contains no .vm files", input)
	}

	dirName := filepath.Base(filepath.Clean(input))
	outputPath := filepath.Join(input, dirName+".asm")
	return files, outputPath, nil
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
