package value

// TypeObject is a type descriptor: a set of declared field types plus bound
// methods and static methods (spec §3.2, §5 MAKE_TYPE). Object values carry
// a pointer to their type in Value.Typ, and STORE_MEMBER stamps a stored
// field value's Typ with the field's declared type; scalar constructors
// leave Typ nil.
type TypeObject struct {
	Header
	Name          string
	FieldTypes    map[*StringObject]*TypeObject
	Methods       map[*StringObject]*FunctionObject
	StaticMethods map[*StringObject]*FunctionObject
}

func NewTypeObject(name string) *TypeObject {
	return &TypeObject{
		Header:        newHeader(),
		Name:          name,
		FieldTypes:    make(map[*StringObject]*TypeObject),
		Methods:       make(map[*StringObject]*FunctionObject),
		StaticMethods: make(map[*StringObject]*FunctionObject),
	}
}

func (t *TypeObject) AddField(name *StringObject, typ *TypeObject) {
	t.FieldTypes[name] = typ
}

func (t *TypeObject) GetField(name *StringObject) (*TypeObject, bool) {
	ft, ok := t.FieldTypes[name]
	return ft, ok
}

func (t *TypeObject) HasField(name *StringObject) bool {
	_, ok := t.FieldTypes[name]
	return ok
}

func (t *TypeObject) AddMethod(name *StringObject, fn *FunctionObject) {
	t.Methods[name] = fn
}

func (t *TypeObject) GetMethod(name *StringObject) (*FunctionObject, bool) {
	fn, ok := t.Methods[name]
	return fn, ok
}

func (t *TypeObject) HasMethod(name *StringObject) bool {
	_, ok := t.Methods[name]
	return ok
}

func (t *TypeObject) AddStaticMethod(name *StringObject, fn *FunctionObject) {
	t.StaticMethods[name] = fn
}

func (t *TypeObject) GetStaticMethod(name *StringObject) (*FunctionObject, bool) {
	fn, ok := t.StaticMethods[name]
	return fn, ok
}

func (t *TypeObject) Size() int {
	return headerSize + len(t.FieldTypes)*16 + len(t.Methods)*16 + len(t.StaticMethods)*16
}

func (t *TypeObject) References() []HeapObject {
	refs := make([]HeapObject, 0, len(t.FieldTypes)+len(t.Methods)+len(t.StaticMethods))
	for _, ft := range t.FieldTypes {
		if ft != nil {
			refs = append(refs, ft)
		}
	}
	for _, fn := range t.Methods {
		refs = append(refs, fn)
	}
	for _, fn := range t.StaticMethods {
		refs = append(refs, fn)
	}
	return refs
}

// Primitive type descriptors, singleton per runtime (spec §3.3). An Engine
// constructs one set of these via NewPrimitives and shares it between the
// VM and the Typing native bindings.
type Primitives struct {
	Any      *TypeObject
	IntT     *TypeObject
	FloatT   *TypeObject
	BoolT    *TypeObject
	StringT  *TypeObject
	ArrayT   *TypeObject
	FuncT    *TypeObject
	ObjectT  *TypeObject
	ModuleT  *TypeObject
	UnitT    *TypeObject
	NullT    *TypeObject
	TypeT    *TypeObject
}

func NewPrimitives() *Primitives {
	p := &Primitives{
		Any:     NewTypeObject("Any"),
		IntT:    NewTypeObject("Int"),
		FloatT:  NewTypeObject("Float"),
		BoolT:   NewTypeObject("Bool"),
		StringT: NewTypeObject("String"),
		ArrayT:  NewTypeObject("Array"),
		FuncT:   NewTypeObject("Function"),
		ObjectT: NewTypeObject("Object"),
		ModuleT: NewTypeObject("Module"),
		UnitT:   NewTypeObject("Unit"),
		NullT:   NewTypeObject("Null"),
		TypeT:   NewTypeObject("Type"),
	}
	for _, t := range []*TypeObject{p.Any, p.IntT, p.FloatT, p.BoolT, p.StringT, p.ArrayT, p.FuncT, p.ObjectT, p.ModuleT, p.UnitT, p.NullT, p.TypeT} {
		t.Pin()
	}
	return p
}

// Default produces the zero value for a declared field type (spec §3.3):
// Bool -> false, Int -> 0, Float -> 0.0, String -> "", anything else -> Null.
// elemType may be nil, which is treated the same as a non-scalar type.
func Default(elemType *TypeObject) Value {
	if elemType == nil {
		return NewNull()
	}
	switch elemType.Name {
	case "Bool":
		return NewBool(false)
	case "Int":
		return NewInt(0)
	case "Float":
		return NewFloat(0)
	case "String":
		return NewString(NewStringObject(""))
	default:
		return NewNull()
	}
}
