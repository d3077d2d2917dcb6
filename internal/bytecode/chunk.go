package bytecode

import "luax/internal/value"

// DebugInfo records the source position an instruction was compiled from,
// for error messages and the debug CLI.
type DebugInfo struct {
	File string
	Line int
	Col  int
}

// Instr is one decoded instruction: an opcode plus whatever single integer
// operand it needs (a constant index, an identifier's interned-string slot,
// a jump target, an argument count). Opcodes that need no operand leave A
// at zero.
type Instr struct {
	Op OpCode
	A  int
}

// Chunk is the single linked instruction buffer every compiled module
// appends to (spec §5: "modules share one global bytecode buffer"). Absolute
// addresses (JMP targets, and the address CALL resolves through the module
// registry) are indices into Code.
type Chunk struct {
	Code      []Instr
	Constants []value.Value
	Debug     []DebugInfo

	// FieldLists holds the reversed field-name-handle lists MAKE_OBJECT
	// needs; an Instr's A operand indexes into this when Op is MAKE_OBJECT.
	FieldLists [][]int
}

func NewChunk() *Chunk {
	return &Chunk{}
}

// Emit appends an instruction and returns its address.
func (c *Chunk) Emit(op OpCode, operand int) int {
	addr := len(c.Code)
	c.Code = append(c.Code, Instr{Op: op, A: operand})
	c.Debug = append(c.Debug, DebugInfo{})
	return addr
}

func (c *Chunk) EmitWithDebug(op OpCode, operand int, dbg DebugInfo) int {
	addr := len(c.Code)
	c.Code = append(c.Code, Instr{Op: op, A: operand})
	c.Debug = append(c.Debug, dbg)
	return addr
}

// Patch overwrites the operand of an already-emitted instruction, used to
// back-patch jump targets once the destination address is known.
func (c *Chunk) Patch(addr, operand int) {
	c.Code[addr].A = operand
}

// AddFieldList records a reversed field-name-handle list for a MAKE_OBJECT
// instruction and returns its index.
func (c *Chunk) AddFieldList(constantIndices []int) int {
	c.FieldLists = append(c.FieldLists, constantIndices)
	return len(c.FieldLists) - 1
}

// AddConstant appends val to the constant pool and returns its index; equal
// constants are not deduplicated.
func (c *Chunk) AddConstant(val value.Value) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

func (c *Chunk) GetDebugInfo(addr int) DebugInfo {
	if addr >= 0 && addr < len(c.Debug) {
		return c.Debug[addr]
	}
	return DebugInfo{}
}

// Len reports the current end of the buffer, i.e. the address the next
// emitted instruction will receive.
func (c *Chunk) Len() int {
	return len(c.Code)
}
