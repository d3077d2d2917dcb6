package value

import "strconv"

// Value is the tagged union every stack slot, variable binding, and field
// entry holds (spec §3.1). Scalars are stored inline; heap kinds carry an
// owning handle through Obj. Typ is the attached type descriptor used by
// MAKE_OBJECT's field validation and STORE_MEMBER's narrowing rule.
type Value struct {
	Kind Kind

	b bool
	i int64
	f float64

	Obj HeapObject
	Typ *TypeObject
}

func NewBool(b bool) Value  { return Value{Kind: Bool, b: b} }
func NewInt(i int64) Value  { return Value{Kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{Kind: Float, f: f} }
func NewNull() Value        { return Value{Kind: Null} }
func NewUnit() Value        { return Value{Kind: Unit} }

func NewString(s *StringObject) Value {
	return Value{Kind: String, Obj: s}
}

func NewArray(a *ArrayObject) Value {
	return Value{Kind: Array, Obj: a}
}

func NewFunction(fn *FunctionObject) Value {
	return Value{Kind: Function, Obj: fn}
}

func NewObject(o *ObjectInstance) Value {
	v := Value{Kind: Object, Obj: o}
	v.Typ = o.TypeInfo
	return v
}

func NewModule(m *ModuleObject) Value {
	return Value{Kind: Module, Obj: m}
}

func NewType(t *TypeObject) Value {
	return Value{Kind: Type, Obj: t}
}

func (v Value) Bool() bool     { return v.b }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }

func (v Value) IsInt() bool    { return v.Kind == Int }
func (v Value) IsFloat() bool  { return v.Kind == Float }
func (v Value) IsBool() bool   { return v.Kind == Bool }
func (v Value) IsNull() bool   { return v.Kind == Null }
func (v Value) IsUnit() bool   { return v.Kind == Unit }
func (v Value) IsString() bool { return v.Kind == String }

func (v Value) AsString() *StringObject { return v.Obj.(*StringObject) }
func (v Value) AsArray() *ArrayObject   { return v.Obj.(*ArrayObject) }
func (v Value) AsFunction() *FunctionObject { return v.Obj.(*FunctionObject) }
func (v Value) AsObject() *ObjectInstance   { return v.Obj.(*ObjectInstance) }
func (v Value) AsModule() *ModuleObject     { return v.Obj.(*ModuleObject) }
func (v Value) AsType() *TypeObject         { return v.Obj.(*TypeObject) }

// ToBool coerces a value to Bool per spec §4.1's logical-operator rules:
// Bool passes through, Int/Float are nonzero tests, Null is false, and every
// other kind (notably String) is not a valid operand and is rejected by the
// caller.
func ToBool(v Value) (bool, bool) {
	switch v.Kind {
	case Bool:
		return v.b, true
	case Int:
		return v.i != 0, true
	case Float:
		return v.f != 0.0, true
	case Null:
		return false, true
	default:
		return false, false
	}
}

// ToString renders a value the way to_string() does for each kind (spec
// §3.4). Heap kinds with richer formatting override this by checking the
// Kind first; this covers the scalar cases plus the heap kinds' defaults.
func ToString(v Value) string {
	switch v.Kind {
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Null:
		return "null"
	case Unit:
		return "unit"
	case String:
		return v.AsString().Data
	case Array:
		return arrayToString(v.AsArray())
	case Function:
		fn := v.AsFunction()
		return "<function " + fn.Name + ">"
	case Object:
		return "<object>"
	case Module:
		return "<module " + v.AsModule().Name + ">"
	case Type:
		return "<type " + v.AsType().Name + ">"
	default:
		return "<unknown>"
	}
}

func arrayToString(a *ArrayObject) string {
	s := "["
	for i, e := range a.Elems {
		if i > 0 {
			s += ", "
		}
		s += ToString(e)
	}
	return s + "]"
}
