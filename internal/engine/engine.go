// Package engine wires the front end, compiler, and VM into one reusable
// runtime object, mirroring the role original_source's IRRuntime plays:
// every other package owns one concern (lexing, parsing, lowering,
// execution), and engine is where a host — the CLI or the REPL — gets a
// single handle to compile and run source against.
package engine

import (
	"os"

	"github.com/google/uuid"

	"luax/internal/bytecode"
	"luax/internal/compiler"
	"luax/internal/errors"
	"luax/internal/importer"
	"luax/internal/intern"
	"luax/internal/lexer"
	"luax/internal/memory"
	"luax/internal/module"
	"luax/internal/parser"
	"luax/internal/stdlib"
	"luax/internal/value"
	"luax/internal/vm"
)

// Engine owns the full set of collaborators a compiled program needs and
// persists across multiple CompileModule calls, so a REPL can keep
// appending to the same chunk/registry/globals instead of starting fresh
// every line.
type Engine struct {
	RunID uuid.UUID

	Chunk    *bytecode.Chunk
	Intern   *intern.Pool
	Registry *module.Registry
	Searcher *importer.Searcher
	GC       *memory.Collector
	Prims    *value.Primitives
	Compiler *compiler.Compiler
	VM       *vm.VM
}

// New assembles a fresh Engine with its stdlib preloaded, ready to compile
// and run source. The construction order mirrors IRRuntime's own
// bring-up: intern table and module registry first (the compiler needs
// both), then the collector and type universe the VM roots against, then
// the compiler itself, then the VM, then its preloaded globals.
func New() (*Engine, error) {
	pool := intern.New()
	registry := module.NewRegistry()
	searcher := importer.NewSearcher()
	gc := memory.New(memory.DefaultConfig())
	prims := value.NewPrimitives()
	chunk := bytecode.NewChunk()

	c := compiler.New(chunk, pool, registry, searcher)
	m := vm.New(chunk, pool, registry, gc, prims)

	if err := stdlib.Register(m, prims, gc); err != nil {
		return nil, err
	}

	return &Engine{
		RunID:    uuid.New(),
		Chunk:    chunk,
		Intern:   pool,
		Registry: registry,
		Searcher: searcher,
		GC:       gc,
		Prims:    prims,
		Compiler: c,
		VM:       m,
	}, nil
}

// CompileSource lexes, parses, and compiles src as a module named name,
// returning the module id it was registered under. An empty name compiles
// a top-level program; a REPL compiles each line under its own synthetic
// name so successive lines each get their own module id but share every
// other collaborator (and hence every previously declared global).
func (e *Engine) CompileSource(name, src string) (int, error) {
	tokens, lexErrs := lexer.NewScanner(src).ScanTokens()
	if len(lexErrs) > 0 {
		return 0, lexErrs[0]
	}

	p := parser.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		return 0, p.Errors[0]
	}

	return e.Compiler.CompileModule(name, stmts)
}

// RunFile compiles and runs the file at path as the top-level program,
// starting execution from the beginning of the shared instruction buffer.
func (e *Engine) RunFile(path string) (value.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return value.Value{}, errors.Newf(errors.ImportError, "failed to read %q: %s", path, err)
	}
	return e.RunSource("", string(src))
}

// RunSource compiles src as a new module appended to the shared instruction
// buffer and resumes the VM from wherever its program counter last stopped.
// On a fresh Engine that is offset 0, so a single call behaves like running
// a whole program; called again on the same Engine (a REPL's read loop), it
// behaves like extending the running program with one more line instead of
// restarting it, since the VM's frames and globals are untouched between
// calls.
func (e *Engine) RunSource(name, src string) (value.Value, error) {
	if _, err := e.CompileSource(name, src); err != nil {
		return value.Value{}, err
	}
	return e.VM.Run()
}
