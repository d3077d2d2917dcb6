package vm

import (
	"luax/internal/errors"
	"luax/internal/value"
)

// call pops the callee and dispatches either to a native binding directly
// or by pushing a new frame and jumping into bytecode. A non-method function
// invoked through the PEEK-self method-call shape (one argument over its
// declared arity) silently discards the extra receiver argument, so a plain
// function stored in an object field can still be called as obj.f(...).
func (vm *VM) call(argCount int) error {
	calleeVal := vm.pop()
	if calleeVal.Kind != value.Function {
		return vm.runtimeErr(errors.TypeError, "cannot call a value of kind %s", calleeVal.Kind)
	}
	fn := calleeVal.AsFunction()

	if fn.IsNative {
		args := make([]value.Value, argCount)
		for i := 0; i < argCount; i++ {
			args[i] = vm.pop()
		}
		result, err := fn.Native(args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	}

	effective := argCount
	if !fn.IsMethod && argCount == fn.Arity+1 {
		vm.pop()
		effective = fn.Arity
	}
	if effective != fn.Arity {
		return vm.runtimeErr(errors.ArityError, "%q expects %d arguments, got %d", fn.Name, fn.Arity, argCount)
	}

	target, err := vm.Registry.Resolve(fn.ModuleID, fn.BeginOffset)
	if err != nil {
		return err
	}

	vm.frames = append(vm.frames, &callFrame{fn: fn, returnPC: vm.pc, closure: fn.Ctx})
	vm.pc = target
	return nil
}

// ret pops the current frame and resumes at its return address. The return
// value is left in place on the operand stack; it never had a frame-local
// home to begin with. done is true only when the top-level frame itself
// returns, i.e. a `return` statement outside any function body.
func (vm *VM) ret() (done bool, result value.Value) {
	frame := vm.currentFrame()
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return true, vm.peek()
	}
	vm.pc = frame.returnPC
	return false, value.Value{}
}
