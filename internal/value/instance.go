package value

// ObjectInstance is a plain field-table heap object: the result of
// MAKE_OBJECT (instance data for a TypeObject) and, with a nil type
// descriptor, the field table inside every ModuleObject (spec §5).
type ObjectInstance struct {
	Header
	TypeInfo *TypeObject
}

func NewObjectInstance(typeInfo *TypeObject) *ObjectInstance {
	return &ObjectInstance{Header: newHeader(), TypeInfo: typeInfo}
}

func (o *ObjectInstance) Size() int {
	return headerSize + o.Fields().Len()*32
}

func (o *ObjectInstance) References() []HeapObject {
	var refs []HeapObject
	o.Fields().Each(func(_ *StringObject, v Value) {
		if v.Kind.IsHeapKind() && v.Obj != nil {
			refs = append(refs, v.Obj)
		}
	})
	if o.TypeInfo != nil {
		refs = append(refs, o.TypeInfo)
	}
	return refs
}

// ModuleObject wraps an ObjectInstance with the name and registry id that
// MAKE_MODULE assigns it (spec §5, §3.2 "Module" kind). MAKE_MODULE_LOCAL
// also produces a ModuleObject, but with ID -1, since it is never registered.
type ModuleObject struct {
	*ObjectInstance
	Name string
	ID   int
}

func NewModuleObject(name string, id int) *ModuleObject {
	return &ModuleObject{ObjectInstance: NewObjectInstance(nil), Name: name, ID: id}
}
