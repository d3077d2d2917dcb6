package value

// NativeFunc is a Go-implemented builtin bound into a FunctionObject (spec
// §6, __builtin_* bindings). It receives already-evaluated arguments and
// returns a single result or an error the VM surfaces to the host.
type NativeFunc func(args []Value) (Value, error)

// FunctionObject is either a bytecode function, addressed by a module id and
// an offset relative to that module's own base within the shared instruction
// buffer (Registry.Resolve adds the base back), or a native function backed
// by Go code (spec §3.2, §5 CALL).
type FunctionObject struct {
	Header

	Name     string
	IsNative bool
	IsMethod bool

	Native NativeFunc

	Arity       int
	BeginOffset int
	ModuleID    int

	Ctx *FrozenContextObject
}

func NewNativeFunction(name string, arity int, fn NativeFunc) *FunctionObject {
	return &FunctionObject{Header: newHeader(), Name: name, IsNative: true, Arity: arity, Native: fn}
}

func NewBytecodeFunction(name string, arity, moduleID, beginOffset int) *FunctionObject {
	return &FunctionObject{Header: newHeader(), Name: name, Arity: arity, ModuleID: moduleID, BeginOffset: beginOffset}
}

func NewMethodFunction(name string, arity, moduleID, beginOffset int) *FunctionObject {
	f := NewBytecodeFunction(name, arity, moduleID, beginOffset)
	f.IsMethod = true
	return f
}

func (f *FunctionObject) Size() int { return headerSize + 64 }

func (f *FunctionObject) References() []HeapObject {
	if f.Ctx == nil {
		return nil
	}
	return []HeapObject{f.Ctx}
}

func (f *FunctionObject) WithContext(ctx *FrozenContextObject) *FunctionObject {
	clone := *f
	clone.Header = newHeader()
	clone.Ctx = ctx
	return &clone
}

// FrameSnapshot is a captured reference to a live call frame's variable
// bindings, shared (not copied) so later mutations of the originating frame
// remain visible through the closure (spec §9).
type FrameSnapshot struct {
	Variables map[*StringObject]*Value
}

func NewFrameSnapshot() *FrameSnapshot {
	return &FrameSnapshot{Variables: make(map[*StringObject]*Value)}
}

// FrozenContextObject is a linked chain of frame snapshots captured at
// closure-creation time (spec §9, FrozenContextObject). Query walks the
// chain outermost-last, returning the first binding found.
type FrozenContextObject struct {
	Header
	Frames []*FrameSnapshot
	Next   *FrozenContextObject
}

func NewFrozenContext(frames []*FrameSnapshot, next *FrozenContextObject) *FrozenContextObject {
	return &FrozenContextObject{Header: newHeader(), Frames: frames, Next: next}
}

func (c *FrozenContextObject) Query(name *StringObject) (Value, bool) {
	for ctx := c; ctx != nil; ctx = ctx.Next {
		for _, fr := range ctx.Frames {
			if slot, ok := fr.Variables[name]; ok {
				return *slot, true
			}
		}
	}
	return Value{}, false
}

func (c *FrozenContextObject) Size() int {
	n := headerSize
	for _, fr := range c.Frames {
		n += len(fr.Variables) * 24
	}
	return n
}

func (c *FrozenContextObject) References() []HeapObject {
	var refs []HeapObject
	for _, fr := range c.Frames {
		for _, slot := range fr.Variables {
			if slot.Kind.IsHeapKind() && slot.Obj != nil {
				refs = append(refs, slot.Obj)
			}
		}
	}
	if c.Next != nil {
		refs = append(refs, c.Next)
	}
	return refs
}
