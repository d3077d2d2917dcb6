// Package compiler lowers a parsed syntax tree into the shared instruction
// buffer the VM executes (spec §4.5). It owns jump patching, module
// inlining on import, and the discard-mechanism that keeps the operand
// stack balanced at statement boundaries.
package compiler

import (
	"os"

	"luax/internal/bytecode"
	"luax/internal/errors"
	"luax/internal/importer"
	"luax/internal/intern"
	"luax/internal/lexer"
	"luax/internal/module"
	"luax/internal/parser"
	"luax/internal/value"
)

// Compiler holds everything lowering needs across an entire program,
// including modules pulled in by import.
type Compiler struct {
	Chunk    *bytecode.Chunk
	Intern   *intern.Pool
	Registry *module.Registry
	Importer *importer.Searcher

	loops []*loopCtx

	// currentModuleID is the id of the module currently being compiled into,
	// set by CompileModule/CompileImport before compiling statements so
	// nested function declarations can stamp FunctionObject.ModuleID.
	currentModuleID int

	// currentModuleBase is that module's base offset into the shared Chunk,
	// set alongside currentModuleID. A function's BeginOffset must be
	// recorded relative to this (Chunk.Len() - currentModuleBase), since
	// Registry.Resolve re-adds the module's base itself; storing the
	// absolute Chunk position here would double-count it for every module
	// after the first.
	currentModuleBase int
}

type loopCtx struct {
	breakJumps []int
	continueAt int
}

func New(chunk *bytecode.Chunk, pool *intern.Pool, registry *module.Registry, searcher *importer.Searcher) *Compiler {
	return &Compiler{Chunk: chunk, Intern: pool, Registry: registry, Importer: searcher}
}

// compileError is the panic payload compileStmt/compileExpr use to unwind to
// CompileModule's recover, mirroring the parser's own panic/recover style.
type compileError struct{ err error }

func (c *Compiler) fail(line int, format string, args ...interface{}) {
	panic(compileError{errors.New(errors.CompileError, errors.Location{Line: line}, format, args...)})
}

func (c *Compiler) failImport(format string, args ...interface{}) {
	panic(compileError{errors.Newf(errors.ImportError, format, args...)})
}

// CompileModule compiles stmts as a fresh module named name (empty name for
// the top-level program) and registers it, returning its module id. Since
// the shared buffer is append-only and never reordered, a module's base
// offset is simply the buffer's length at the moment compilation starts.
func (c *Compiler) CompileModule(name string, stmts []parser.Stmt) (id int, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(compileError)
			if !ok {
				panic(r)
			}
			err = ce.err
		}
	}()

	base := c.Chunk.Len()
	id = c.Registry.Add(name, base)

	prevModuleID := c.currentModuleID
	prevModuleBase := c.currentModuleBase
	c.currentModuleID = id
	c.currentModuleBase = base
	defer func() {
		c.currentModuleID = prevModuleID
		c.currentModuleBase = prevModuleBase
	}()

	for _, s := range stmts {
		c.compileStmt(s)
	}
	return id, nil
}

// CompileImport resolves an import by name: if already registered it emits
// LOAD_MODULE, otherwise it reads, parses, and inlines the file, recording
// its base offset before appending its code (spec §4.5.2, §4.5.3).
func (c *Compiler) CompileImport(name string) {
	if id, ok := c.Registry.LookupByName(name); ok {
		c.emit(bytecode.LOAD_MODULE, id)
		nameIdx := c.internConst(name)
		c.emit(bytecode.DECLARE_IDENTIFIER, nameIdx)
		c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
		return
	}

	path, err := c.Importer.Find(name)
	if err != nil {
		c.failImport("%s", err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		c.failImport("failed to read module %q: %s", name, err)
	}

	tokens, lexErrs := lexer.NewScanner(string(src)).ScanTokens()
	if len(lexErrs) > 0 {
		c.failImport("module %q: %s", name, lexErrs[0])
	}
	p := parser.NewParser(tokens)
	stmts := p.Parse()
	if len(p.Errors) > 0 {
		c.failImport("module %q: %s", name, p.Errors[0])
	}

	c.beginLocalDerived()
	base := c.Chunk.Len()
	id := c.Registry.Add(name, base)

	prevModuleID := c.currentModuleID
	prevModuleBase := c.currentModuleBase
	c.currentModuleID = id
	c.currentModuleBase = base
	for _, s := range stmts {
		c.compileStmt(s)
	}
	c.currentModuleID = prevModuleID
	c.currentModuleBase = prevModuleBase

	c.emit(bytecode.MAKE_MODULE, id)
	c.endLocal()

	nameIdx := c.internConst(name)
	c.emit(bytecode.DECLARE_IDENTIFIER, nameIdx)
	c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
}

// --- low-level emission helpers ---

func (c *Compiler) emit(op bytecode.OpCode, operand int) int {
	return c.Chunk.Emit(op, operand)
}

// patchRelHere back-patches a relative-jump placeholder so its target is the
// current end of the buffer; the stored payload is the delta from the jump
// instruction's own address to that target.
func (c *Compiler) patchRelHere(addr int) {
	c.Chunk.Patch(addr, c.Chunk.Len()-addr)
}

func (c *Compiler) internConst(name string) int {
	handle := c.Intern.Intern(name)
	return c.Chunk.AddConstant(value.NewString(handle))
}

func (c *Compiler) constValue(v value.Value) int {
	return c.Chunk.AddConstant(v)
}

func (c *Compiler) beginLocalDerived() { c.emit(bytecode.BEGIN_LOCAL_DERIVED, 0) }
func (c *Compiler) beginLocal()        { c.emit(bytecode.BEGIN_LOCAL, 0) }
func (c *Compiler) endLocal()          { c.emit(bytecode.END_LOCAL, 0) }

func (c *Compiler) pushLoop() *loopCtx {
	lc := &loopCtx{}
	c.loops = append(c.loops, lc)
	return lc
}

func (c *Compiler) popLoop() *loopCtx {
	lc := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	return lc
}

func (c *Compiler) currentLoop() *loopCtx {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}
