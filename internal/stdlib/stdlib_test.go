package stdlib

import (
	"testing"

	"luax/internal/bytecode"
	"luax/internal/errors"
	"luax/internal/intern"
	"luax/internal/memory"
	"luax/internal/module"
	"luax/internal/value"
	"luax/internal/vm"
)

func newRegisteredVM(t *testing.T) (*vm.VM, *memory.Collector, *value.Primitives) {
	t.Helper()
	chunk := bytecode.NewChunk()
	pool := intern.New()
	registry := module.NewRegistry()
	gc := memory.New(memory.DefaultConfig())
	prims := value.NewPrimitives()
	m := vm.New(chunk, pool, registry, gc, prims)
	if err := Register(m, prims, gc); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return m, gc, prims
}

func callGlobal(t *testing.T, m *vm.VM, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := lookupGlobalFunction(m, name)
	if !ok {
		t.Fatalf("global %q not defined", name)
	}
	result, err := fn.Native(args)
	if err != nil {
		t.Fatalf("calling %q: %v", name, err)
	}
	return result
}

// lookupGlobalFunction reaches into the VM the same way a LOAD_IDENTIFIER of
// a bare global name would, without going through the bytecode loop — these
// tests only care that Register wired the right native under the right name.
func lookupGlobalFunction(m *vm.VM, name string) (*value.FunctionObject, bool) {
	v, ok := m.Lookup(name)
	if !ok || v.Kind != value.Function {
		return nil, false
	}
	return v.AsFunction(), true
}

func TestRegisterInstallsTypings(t *testing.T) {
	m, _, prims := newRegisteredVM(t)

	result := callGlobal(t, m, "__builtin_typings_int")
	if result.Kind != value.Type || result.AsType() != prims.IntT {
		t.Errorf("expected the shared Int type descriptor, got %+v", result)
	}

	bareInt := callGlobal(t, m, "Int")
	if bareInt.Kind != value.Type || bareInt.AsType() != prims.IntT {
		t.Errorf("bare Int global should alias __builtin_typings_int, got %+v", bareInt)
	}
}

func TestArrayOfBySizeAndType(t *testing.T) {
	m, _, prims := newRegisteredVM(t)

	result := callGlobal(t, m, "__builtin_typings_array_of", value.NewType(prims.IntT), value.NewInt(3))
	if result.Kind != value.Array {
		t.Fatalf("expected an Array, got %s", result.Kind)
	}
	arr := result.AsArray()
	if arr.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", arr.Len())
	}
	for i, el := range arr.Elems {
		if el.Kind != value.Int || el.Int() != 0 {
			t.Errorf("element %d: expected zero Int default, got %+v", i, el)
		}
	}
}

func TestArrayOfByElements(t *testing.T) {
	m, _, _ := newRegisteredVM(t)

	result := callGlobal(t, m, "__builtin_typings_array_of", value.NewInt(1), value.NewInt(2), value.NewInt(3))
	arr := result.AsArray()
	if arr.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", arr.Len())
	}
	if arr.ElemType == nil || arr.ElemType.Name != "Int" {
		t.Errorf("expected element type Int, got %+v", arr.ElemType)
	}
}

func TestArrayOfRejectsMixedKinds(t *testing.T) {
	m, _, _ := newRegisteredVM(t)
	fn, _ := lookupGlobalFunction(m, "__builtin_typings_array_of")
	_, err := fn.Native([]value.Value{value.NewInt(1), value.NewBool(true)})
	if err == nil {
		t.Fatal("expected an error mixing Int and Bool elements")
	}
	if !errors.Is(err, errors.TypeError) {
		t.Errorf("expected a TypeError, got %v", err)
	}
}

func TestRuntimeAbortRaisesAbortError(t *testing.T) {
	m, _, _ := newRegisteredVM(t)
	fn, _ := lookupGlobalFunction(m, "__builtin_runtime_abort")
	_, err := fn.Native([]value.Value{value.NewString(value.NewStringObject("boom"))})
	if err == nil {
		t.Fatal("expected an AbortError")
	}
	if !errors.Is(err, errors.AbortError) {
		t.Errorf("expected an AbortError, got %v", err)
	}
}

func TestRuntimeGCCollectRuns(t *testing.T) {
	m, _, _ := newRegisteredVM(t)
	fn, _ := lookupGlobalFunction(m, "__builtin_runtime_gc_collect")
	result, err := fn.Native(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsUnit() {
		t.Errorf("expected Unit, got %+v", result)
	}
}
