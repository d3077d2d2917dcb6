package stdlib

import (
	"luax/internal/errors"
	"luax/internal/memory"
	"luax/internal/value"
	"luax/internal/vm"
)

// RegisterTypings installs one __builtin_typings_* native per primitive
// (each just returns the runtime's shared Type descriptor for that kind) plus
// __builtin_typings_array_of and the bare Int convenience global, grounded on
// original_source/src/lib.cpp's Typing::load and its __LUAXC_MAKE_TYPEING_TYPE
// macro.
func RegisterTypings(m *vm.VM, prims *value.Primitives, gc *memory.Collector) error {
	register := func(fnName string, t *value.TypeObject) error {
		fn, err := memory.RegisterNoCollect(gc, value.NewNativeFunction(fnName, 0, func(args []value.Value) (value.Value, error) {
			return value.NewType(t), nil
		}))
		if err != nil {
			return err
		}
		m.DefineGlobal(fnName, value.NewFunction(fn))
		return nil
	}

	named := []struct {
		name string
		t    *value.TypeObject
	}{
		{"__builtin_typings_any", prims.Any},
		{"__builtin_typings_int", prims.IntT},
		{"__builtin_typings_float", prims.FloatT},
		{"__builtin_typings_string", prims.StringT},
		{"__builtin_typings_bool", prims.BoolT},
		{"__builtin_typings_array", prims.ArrayT},
		{"__builtin_typings_function", prims.FuncT},
		{"__builtin_typings_object", prims.ObjectT},
		{"__builtin_typings_unit_type", prims.UnitT},
		{"__builtin_typings_none_type", prims.NullT},
		{"__builtin_typings_type_type", prims.TypeT},
	}
	for _, n := range named {
		if err := register(n.name, n.t); err != nil {
			return err
		}
	}

	intCtor, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("Int", 0, func(args []value.Value) (value.Value, error) {
		return value.NewType(prims.IntT), nil
	}))
	if err != nil {
		return err
	}
	m.DefineGlobal("Int", value.NewFunction(intCtor))

	arrayOf, err := memory.RegisterNoCollect(gc, value.NewNativeFunction("__builtin_typings_array_of", -1, func(args []value.Value) (value.Value, error) {
		return arrayOfImpl(args, gc, prims)
	}))
	if err != nil {
		return err
	}
	m.DefineGlobal("__builtin_typings_array_of", value.NewFunction(arrayOf))
	return nil
}

// elemTypeOf recovers the declared type descriptor for a scalar/heap Kind,
// used to tag an array_of-by-elements result the same way the by-Type+size
// call shape does.
func elemTypeOf(v value.Value, prims *value.Primitives) *value.TypeObject {
	switch v.Kind {
	case value.Int:
		return prims.IntT
	case value.Float:
		return prims.FloatT
	case value.Bool:
		return prims.BoolT
	case value.String:
		return prims.StringT
	case value.Array:
		return prims.ArrayT
	case value.Function:
		return prims.FuncT
	case value.Module:
		return prims.ModuleT
	case value.Unit:
		return prims.UnitT
	case value.Type:
		return prims.TypeT
	case value.Object:
		return v.Typ
	default:
		return nil
	}
}

// arrayOfImpl implements both call shapes original_source's array_type native
// supports: (Type, size) pre-fills size elements with the type's default, or
// (v1, v2, ...) builds an array from the given elements, all required to
// share the first element's Kind.
func arrayOfImpl(args []value.Value, gc *memory.Collector, prims *value.Primitives) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, errors.Newf(errors.ArityError, "__builtin_typings_array_of requires at least 1 argument")
	}

	guard := gc.NewGuard()
	defer guard.Release()

	if args[0].Kind == value.Type {
		if len(args) != 2 {
			return value.Value{}, errors.Newf(errors.ArityError, "__builtin_typings_array_of(Type, size) requires exactly 2 arguments")
		}
		if args[1].Kind != value.Int {
			return value.Value{}, errors.Newf(errors.TypeError, "__builtin_typings_array_of: size must be Int")
		}
		elemType := args[0].AsType()
		arr, err := memory.Allocate(gc, value.NewArrayObject(int(args[1].Int()), elemType))
		if err != nil {
			return value.Value{}, err
		}
		return value.NewArray(arr), nil
	}

	kind := args[0].Kind
	for _, a := range args[1:] {
		if a.Kind != kind {
			return value.Value{}, errors.Newf(errors.TypeError, "__builtin_typings_array_of: all elements must share one kind")
		}
	}
	arr, err := memory.Allocate(gc, value.NewArrayObject(len(args), elemTypeOf(args[0], prims)))
	if err != nil {
		return value.Value{}, err
	}
	guard.Hold(arr)
	copy(arr.Elems, args)
	return value.NewArray(arr), nil
}
