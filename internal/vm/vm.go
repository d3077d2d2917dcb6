// Package vm executes the shared instruction buffer the compiler produces
// (spec §5). It is a single flat operand stack plus a call-frame stack; each
// frame owns its own lexical scope chain (built by BEGIN_LOCAL /
// BEGIN_LOCAL_DERIVED / END_LOCAL) and an optional captured closure context,
// with identifier resolution falling back to the program's global scope
// when neither the frame chain nor the closure has a binding.
package vm

import (
	"luax/internal/bytecode"
	"luax/internal/errors"
	"luax/internal/intern"
	"luax/internal/memory"
	"luax/internal/module"
	"luax/internal/value"
)

// callFrame is one activation: either the top-level program (fn == nil) or
// a CALL into a FunctionObject. fn is kept around, not just its BeginOffset,
// so the collector's root walk can reach it (and through it, its Ctx) via
// an ordinary Value.
type callFrame struct {
	fn       *value.FunctionObject
	returnPC int
	scope    *scope
	closure  *value.FrozenContextObject
}

// VM holds everything one program run needs.
type VM struct {
	Chunk      *bytecode.Chunk
	Intern     *intern.Pool
	Registry   *module.Registry
	GC         *memory.Collector
	Primitives *value.Primitives

	stack       []value.Value
	frames      []*callFrame
	globals     *scope
	moduleCache map[int]value.Value

	pc int
}

func New(chunk *bytecode.Chunk, pool *intern.Pool, registry *module.Registry, gc *memory.Collector, prims *value.Primitives) *VM {
	globals := newScope(nil, false)
	vm := &VM{
		Chunk:       chunk,
		Intern:      pool,
		Registry:    registry,
		GC:          gc,
		Primitives:  prims,
		globals:     globals,
		moduleCache: make(map[int]value.Value),
	}
	vm.frames = []*callFrame{{scope: globals}}
	gc.SetRootsProvider(vm.rootValues)
	return vm
}

// DefineGlobal binds name directly into the program's global scope, for
// preloaded stdlib bindings (spec §6) installed before Run.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	handle := vm.Intern.Intern(name)
	vm.globals.declare(handle)
	slot, _ := vm.globals.lookup(handle)
	*slot = v
}

// Lookup reads a binding out of the program's global scope, for a host that
// wants to inspect a preloaded or top-level-declared global without driving
// the instruction loop (e.g. a REPL command, or a test exercising stdlib
// registration).
func (vm *VM) Lookup(name string) (value.Value, bool) {
	handle, ok := vm.Intern.Lookup(name)
	if !ok {
		return value.Value{}, false
	}
	slot, ok := vm.globals.lookup(handle)
	if !ok {
		return value.Value{}, false
	}
	return *slot, true
}

func (vm *VM) rootValues() []value.Value {
	roots := append([]value.Value{}, vm.stack...)
	for _, cf := range vm.frames {
		if cf.fn != nil {
			roots = append(roots, value.NewFunction(cf.fn))
		}
		for s := cf.scope; s != nil; s = s.parent {
			for _, slot := range s.vars {
				roots = append(roots, *slot)
			}
		}
	}
	for _, v := range vm.moduleCache {
		roots = append(roots, v)
	}
	return roots
}

func (vm *VM) currentFrame() *callFrame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) runtimeErr(kind errors.Kind, format string, args ...interface{}) error {
	dbg := vm.Chunk.GetDebugInfo(vm.pc)
	return errors.New(kind, errors.Location{File: dbg.File, Line: dbg.Line, Column: dbg.Col}, format, args...)
}

// Run executes from the current program counter (address 0 on a fresh VM,
// otherwise wherever the previous Run stopped) until it passes the end of
// the chunk or the top-level frame returns, yielding the value left on top
// of the stack (Unit if the stack is empty).
func (vm *VM) Run() (value.Value, error) {
	for {
		if vm.pc >= vm.Chunk.Len() {
			if len(vm.stack) == 0 {
				return value.NewUnit(), nil
			}
			return vm.peek(), nil
		}

		addr := vm.pc
		instr := vm.Chunk.Code[addr]
		vm.pc++

		result, err := vm.step(addr, instr)
		if err != nil {
			return value.Value{}, err
		}
		if result.done {
			return result.value, nil
		}
	}
}

type stepResult struct {
	done  bool
	value value.Value
}

func (vm *VM) step(addr int, instr bytecode.Instr) (stepResult, error) {
	switch instr.Op {
	case bytecode.LOAD_CONST:
		vm.push(vm.loadConst(instr.A))

	case bytecode.LOAD_IDENTIFIER:
		name := vm.constString(instr.A)
		v, ok := vm.resolve(name)
		if !ok {
			return stepResult{}, vm.runtimeErr(errors.NameError, "undefined identifier %q", name.Data)
		}
		vm.push(v)

	case bytecode.DECLARE_IDENTIFIER:
		vm.currentFrame().scope.declare(vm.constString(instr.A))

	case bytecode.STORE_IDENTIFIER:
		name := vm.constString(instr.A)
		v := vm.pop()
		if !vm.assign(name, v) {
			return stepResult{}, vm.runtimeErr(errors.NameError, "assignment to undeclared identifier %q", name.Data)
		}

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.SHL, bytecode.SHR, bytecode.AND, bytecode.OR, bytecode.XOR,
		bytecode.CMP_EQ, bytecode.CMP_NE, bytecode.CMP_LT, bytecode.CMP_GT, bytecode.CMP_LE, bytecode.CMP_GE:
		b := vm.pop()
		a := vm.pop()
		r, err := vm.binOp(instr.Op, a, b)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(r)

	case bytecode.NEGATE:
		r, err := value.Neg(vm.pop())
		if err != nil {
			return stepResult{}, err
		}
		vm.push(r)

	case bytecode.NOT:
		r, err := value.Bnot(vm.pop())
		if err != nil {
			return stepResult{}, err
		}
		vm.push(r)

	case bytecode.TO_BOOL:
		b, ok := value.ToBool(vm.pop())
		if !ok {
			return stepResult{}, vm.runtimeErr(errors.TypeError, "value not coercible to Bool")
		}
		vm.push(value.NewBool(b))

	case bytecode.LOGICAL_AND:
		b := vm.pop()
		a := vm.pop()
		vm.push(value.NewBool(a.Bool() && b.Bool()))

	case bytecode.LOGICAL_OR:
		b := vm.pop()
		a := vm.pop()
		vm.push(value.NewBool(a.Bool() || b.Bool()))

	case bytecode.LOGICAL_NOT:
		a := vm.pop()
		vm.push(value.NewBool(!a.Bool()))

	case bytecode.JMP:
		vm.pc = instr.A

	case bytecode.JMP_REL:
		vm.pc = addr + instr.A

	case bytecode.JMP_IF_FALSE:
		cond := vm.pop()
		if !cond.Bool() {
			vm.pc = instr.A
		}

	case bytecode.JMP_IF_FALSE_REL:
		cond := vm.pop()
		if !cond.Bool() {
			vm.pc = addr + instr.A
		}

	case bytecode.CALL:
		if err := vm.call(instr.A); err != nil {
			return stepResult{}, err
		}

	case bytecode.RET:
		done, result := vm.ret()
		if done {
			return stepResult{done: true, value: result}, nil
		}

	case bytecode.PEEK:
		vm.push(vm.peek())

	case bytecode.POP_STACK:
		vm.pop()

	case bytecode.BEGIN_LOCAL:
		cf := vm.currentFrame()
		cf.scope = newScope(cf.scope, false)

	case bytecode.BEGIN_LOCAL_DERIVED:
		cf := vm.currentFrame()
		cf.scope = newScope(cf.scope, true)

	case bytecode.END_LOCAL:
		cf := vm.currentFrame()
		cf.scope = cf.scope.parent

	case bytecode.MAKE_TYPE:
		v, err := vm.makeType(instr.A)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.MAKE_OBJECT:
		v, err := vm.makeObject(instr.A)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.MAKE_MODULE_LOCAL:
		v, err := vm.makeModule(vm.constString(instr.A).Data, -1)
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.MAKE_MODULE:
		name := ""
		if entry, ok := vm.Registry.Get(instr.A); ok {
			name = entry.Name
		}
		v, err := vm.makeModule(name, instr.A)
		if err != nil {
			return stepResult{}, err
		}
		vm.moduleCache[instr.A] = v
		vm.push(v)

	case bytecode.LOAD_MODULE:
		v, ok := vm.moduleCache[instr.A]
		if !ok {
			return stepResult{}, vm.runtimeErr(errors.ImportError, "module id %d not yet materialized", instr.A)
		}
		vm.push(v)

	case bytecode.LOAD_MEMBER:
		v, err := vm.loadMember(vm.constString(instr.A))
		if err != nil {
			return stepResult{}, err
		}
		vm.push(v)

	case bytecode.STORE_MEMBER:
		if err := vm.storeMember(vm.constString(instr.A)); err != nil {
			return stepResult{}, err
		}

	default:
		return stepResult{}, vm.runtimeErr(errors.CompileError, "unhandled opcode %v", instr.Op)
	}
	return stepResult{}, nil
}

func (vm *VM) constString(idx int) *value.StringObject {
	return vm.Chunk.Constants[idx].AsString()
}

// loadConst pushes a chunk constant. Function constants are cloned with a
// fresh closure over the scope chain live at the point of declaration, so a
// nested `fn` sees the enclosing locals (spec §9's closure lookup note).
func (vm *VM) loadConst(idx int) value.Value {
	c := vm.Chunk.Constants[idx]
	if c.Kind != value.Function {
		return c
	}
	fn := c.AsFunction()
	if fn.IsNative {
		return c
	}
	cf := vm.currentFrame()
	var frames []*value.FrameSnapshot
	for s := cf.scope; s != nil; s = s.parent {
		frames = append(frames, s.snapshot())
	}
	ctx, err := memory.Allocate(vm.GC, value.NewFrozenContext(frames, cf.closure))
	if err != nil {
		return c
	}
	cloned, err := memory.Allocate(vm.GC, fn.WithContext(ctx))
	if err != nil {
		return c
	}
	return value.NewFunction(cloned)
}

func (vm *VM) resolve(name *value.StringObject) (value.Value, bool) {
	cf := vm.currentFrame()
	if slot, ok := cf.scope.lookup(name); ok {
		return *slot, true
	}
	if cf.closure != nil {
		if v, ok := cf.closure.Query(name); ok {
			return v, true
		}
	}
	if slot, ok := vm.globals.lookup(name); ok {
		return *slot, true
	}
	return value.Value{}, false
}

// assign mutates an already-declared binding, walking the frame's own scope
// chain, then the closure (by address, so the mutation stays visible to
// whoever else shares the capture), then the program's globals.
func (vm *VM) assign(name *value.StringObject, v value.Value) bool {
	cf := vm.currentFrame()
	if slot, ok := cf.scope.lookup(name); ok {
		*slot = v
		return true
	}
	for ctx := cf.closure; ctx != nil; ctx = ctx.Next {
		for _, fr := range ctx.Frames {
			if slot, ok := fr.Variables[name]; ok {
				*slot = v
				return true
			}
		}
	}
	if slot, ok := vm.globals.lookup(name); ok {
		*slot = v
		return true
	}
	return false
}

func (vm *VM) binOp(op bytecode.OpCode, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.ADD:
		return value.Add(a, b)
	case bytecode.SUB:
		return value.Sub(a, b)
	case bytecode.MUL:
		return value.Mul(a, b)
	case bytecode.DIV:
		return value.Div(a, b)
	case bytecode.MOD:
		return value.Mod(a, b)
	case bytecode.SHL:
		return value.Shl(a, b)
	case bytecode.SHR:
		return value.Shr(a, b)
	case bytecode.AND:
		return value.Band(a, b)
	case bytecode.OR:
		return value.Bor(a, b)
	case bytecode.XOR:
		return value.Bxor(a, b)
	case bytecode.CMP_EQ:
		return value.Eq(a, b)
	case bytecode.CMP_NE:
		return value.Ne(a, b)
	case bytecode.CMP_LT:
		return value.Lt(a, b)
	case bytecode.CMP_GT:
		return value.Gt(a, b)
	case bytecode.CMP_LE:
		return value.Le(a, b)
	case bytecode.CMP_GE:
		return value.Ge(a, b)
	}
	return value.Value{}, vm.runtimeErr(errors.CompileError, "not a binary opcode: %v", op)
}
