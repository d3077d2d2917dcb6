package vm

import (
	"luax/internal/errors"
	"luax/internal/memory"
	"luax/internal/value"
)

// makeType partitions the still-live derived scope's bindings by kind: a
// Type-valued binding becomes a declared field type, a Function-valued one
// becomes a method (VisitTypeStmt always compiles methods with forceMethod
// set, so StaticMethods stays empty — there is no type-declaration syntax
// that produces one).
func (vm *VM) makeType(nameIdx int) (value.Value, error) {
	name := vm.constString(nameIdx)
	t := value.NewTypeObject(name.Data)

	cf := vm.currentFrame()
	for fieldName, slot := range cf.scope.vars {
		switch slot.Kind {
		case value.Type:
			t.AddField(fieldName, slot.AsType())
		case value.Function:
			t.AddMethod(fieldName, slot.AsFunction())
		}
	}

	obj, err := memory.Allocate(vm.GC, t)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewType(obj), nil
}

// makeObject pops the type operand, seeds every declared field with its
// default and every method as a field, then consumes exactly len(fieldList)
// stack values — one per entry, already reversed by the compiler so the
// pop order lines up with declaration order — overwriting the fields the
// initializer supplied.
func (vm *VM) makeObject(listIdx int) (value.Value, error) {
	typeVal := vm.pop()
	if typeVal.Kind != value.Type {
		return value.Value{}, vm.runtimeErr(errors.TypeError, "object initializer requires a Type, got %s", typeVal.Kind)
	}
	t := typeVal.AsType()

	inst := value.NewObjectInstance(t)
	for fieldName, fieldType := range t.FieldTypes {
		inst.Fields().Set(fieldName, value.Default(fieldType))
	}
	for methodName, fn := range t.Methods {
		inst.Fields().Set(methodName, value.NewFunction(fn))
	}

	fieldList := vm.Chunk.FieldLists[listIdx]
	for _, nameIdx := range fieldList {
		name := vm.constString(nameIdx)
		inst.Fields().Set(name, vm.pop())
	}

	obj, err := memory.Allocate(vm.GC, inst)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewObject(obj), nil
}

// makeModule copies every binding in the still-live derived scope into a
// fresh ModuleObject's field table, any Kind, no type narrowing — modules
// are dynamic bags, unlike typed object instances.
func (vm *VM) makeModule(name string, id int) (value.Value, error) {
	mod := value.NewModuleObject(name, id)

	cf := vm.currentFrame()
	for fieldName, slot := range cf.scope.vars {
		mod.Fields().Set(fieldName, *slot)
	}

	obj, err := memory.Allocate(vm.GC, mod)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewModule(obj), nil
}

// loadMember resolves obj.name for Object, Module and Type receivers. A
// method found on an Object's type comes back unbound: self travels as an
// explicit leading CALL argument (spec §4.4's PEEK/LOAD_MEMBER lowering),
// not via a bound closure.
func (vm *VM) loadMember(name *value.StringObject) (value.Value, error) {
	recv := vm.pop()
	switch recv.Kind {
	case value.Object:
		inst := recv.AsObject()
		if v, ok := inst.Fields().Get(name); ok {
			return v, nil
		}
		if inst.TypeInfo != nil {
			if fn, ok := inst.TypeInfo.GetMethod(name); ok {
				return value.NewFunction(fn), nil
			}
		}
		return value.Value{}, vm.runtimeErr(errors.NameError, "no member %q on object", name.Data)

	case value.Module:
		mod := recv.AsModule()
		if v, ok := mod.Fields().Get(name); ok {
			return v, nil
		}
		return value.Value{}, vm.runtimeErr(errors.NameError, "no member %q on module %q", name.Data, mod.Name)

	case value.Type:
		t := recv.AsType()
		if v, ok := t.Fields().Get(name); ok {
			return v, nil
		}
		if fn, ok := t.GetStaticMethod(name); ok {
			return value.NewFunction(fn), nil
		}
		return value.Value{}, vm.runtimeErr(errors.NameError, "no static member %q on type %q", name.Data, t.Name)

	default:
		return value.Value{}, vm.runtimeErr(errors.TypeError, "cannot access member %q of kind %s", name.Data, recv.Kind)
	}
}

// storeMember mirrors VisitAssign's Member lowering: object pushed first,
// then the value on top, so value pops before object. Object instances
// narrow against their declared field type; modules take anything.
func (vm *VM) storeMember(name *value.StringObject) error {
	v := vm.pop()
	obj := vm.pop()

	switch obj.Kind {
	case value.Object:
		inst := obj.AsObject()
		if inst.TypeInfo != nil {
			declared, ok := inst.TypeInfo.GetField(name)
			if !ok {
				return vm.runtimeErr(errors.TypeError, "type %q has no field %q", inst.TypeInfo.Name, name.Data)
			}
			if !fieldKindCompatible(declared, v) {
				return vm.runtimeErr(errors.TypeError, "field %q expects %s, got %s", name.Data, declared.Name, v.Kind)
			}
			v.Typ = declared
		}
		inst.Fields().Set(name, v)
		return nil

	case value.Module:
		obj.AsModule().Fields().Set(name, v)
		return nil

	default:
		return vm.runtimeErr(errors.TypeError, "cannot set member %q on kind %s", name.Data, obj.Kind)
	}
}

func fieldKindCompatible(declared *value.TypeObject, v value.Value) bool {
	if declared == nil || declared.Name == "Any" || v.Kind == value.Null {
		return true
	}
	switch declared.Name {
	case "Int":
		return v.Kind == value.Int
	case "Float":
		return v.Kind == value.Float
	case "Bool":
		return v.Kind == value.Bool
	case "String":
		return v.Kind == value.String
	case "Array":
		return v.Kind == value.Array
	case "Function":
		return v.Kind == value.Function
	case "Object":
		return v.Kind == value.Object
	case "Module":
		return v.Kind == value.Module
	case "Type":
		return v.Kind == value.Type
	case "Unit":
		return v.Kind == value.Unit
	default:
		return true
	}
}
