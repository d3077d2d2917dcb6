package compiler

import (
	"luax/internal/bytecode"
	"luax/internal/lexer"
	"luax/internal/parser"
	"luax/internal/value"
)

func unitValue() value.Value { return value.NewUnit() }

// functionValue builds the Function constant compileFunction binds to its
// declared name. beginOffset must already be relative to the enclosing
// module's own base (Registry.Resolve adds that base back on CALL).
func (c *Compiler) functionValue(name string, arity int, isMethod bool, beginOffset int) value.Value {
	var fn *value.FunctionObject
	if isMethod {
		fn = value.NewMethodFunction(name, arity, c.currentModuleID, beginOffset)
	} else {
		fn = value.NewBytecodeFunction(name, arity, c.currentModuleID, beginOffset)
	}
	return value.NewFunction(fn)
}

// binaryOps maps every arithmetic/bitwise/comparison operator token to its
// opcode; && and || are handled separately by VisitLogical since they need
// TO_BOOL coercion on both sides first.
var binaryOps = map[lexer.TokenType]bytecode.OpCode{
	lexer.TokenPlus:    bytecode.ADD,
	lexer.TokenMinus:   bytecode.SUB,
	lexer.TokenStar:    bytecode.MUL,
	lexer.TokenSlash:   bytecode.DIV,
	lexer.TokenPercent: bytecode.MOD,
	lexer.TokenShl:     bytecode.SHL,
	lexer.TokenShr:     bytecode.SHR,
	lexer.TokenAmp:     bytecode.AND,
	lexer.TokenPipe:    bytecode.OR,
	lexer.TokenCaret:   bytecode.XOR,
	lexer.TokenEqEq:    bytecode.CMP_EQ,
	lexer.TokenNotEq:   bytecode.CMP_NE,
	lexer.TokenLT:      bytecode.CMP_LT,
	lexer.TokenGT:      bytecode.CMP_GT,
	lexer.TokenLE:      bytecode.CMP_LE,
	lexer.TokenGE:      bytecode.CMP_GE,
}

func (c *Compiler) compileExpr(e parser.Expr) {
	e.Accept(c)
}

func (c *Compiler) VisitIntLiteral(n *parser.IntLiteral) interface{} {
	c.emit(bytecode.LOAD_CONST, c.constValue(value.NewInt(n.Value)))
	return nil
}

func (c *Compiler) VisitFloatLiteral(n *parser.FloatLiteral) interface{} {
	c.emit(bytecode.LOAD_CONST, c.constValue(value.NewFloat(n.Value)))
	return nil
}

func (c *Compiler) VisitStringLiteral(n *parser.StringLiteral) interface{} {
	handle := c.Intern.Intern(n.Value)
	c.emit(bytecode.LOAD_CONST, c.constValue(value.NewString(handle)))
	return nil
}

func (c *Compiler) VisitBoolLiteral(n *parser.BoolLiteral) interface{} {
	c.emit(bytecode.LOAD_CONST, c.constValue(value.NewBool(n.Value)))
	return nil
}

func (c *Compiler) VisitNullLiteral(n *parser.NullLiteral) interface{} {
	c.emit(bytecode.LOAD_CONST, c.constValue(value.NewNull()))
	return nil
}

func (c *Compiler) VisitUnitLiteral(n *parser.UnitLiteral) interface{} {
	c.emit(bytecode.LOAD_CONST, c.constValue(unitValue()))
	return nil
}

func (c *Compiler) VisitIdentifier(n *parser.Identifier) interface{} {
	c.emit(bytecode.LOAD_IDENTIFIER, c.internConst(n.Name))
	return nil
}

func (c *Compiler) VisitUnary(n *parser.Unary) interface{} {
	c.compileExpr(n.Right)
	switch n.Op {
	case lexer.TokenMinus:
		c.emit(bytecode.NEGATE, 0)
	case lexer.TokenBang:
		c.emit(bytecode.TO_BOOL, 0)
		c.emit(bytecode.LOGICAL_NOT, 0)
	case lexer.TokenTilde:
		c.emit(bytecode.NOT, 0)
	default:
		c.fail(n.Line(), "unsupported unary operator %v", n.Op)
	}
	return nil
}

// Binary operands are compiled Left-then-Right (Left pushed first, Right on
// top); every binary opcode pops the top as its right operand and the
// value beneath as its left operand.
func (c *Compiler) VisitBinary(n *parser.Binary) interface{} {
	c.compileExpr(n.Left)
	c.compileExpr(n.Right)
	if op, ok := binaryOps[n.Op]; ok {
		c.emit(op, 0)
		return nil
	}
	c.fail(n.Line(), "unsupported binary operator %v", n.Op)
	return nil
}

func (c *Compiler) VisitLogical(n *parser.Logical) interface{} {
	c.compileExpr(n.Left)
	c.emit(bytecode.TO_BOOL, 0)
	c.compileExpr(n.Right)
	c.emit(bytecode.TO_BOOL, 0)
	if n.Op == lexer.TokenAndAnd {
		c.emit(bytecode.LOGICAL_AND, 0)
	} else {
		c.emit(bytecode.LOGICAL_OR, 0)
	}
	return nil
}

func (c *Compiler) VisitAssign(n *parser.Assign) interface{} {
	switch target := n.Target.(type) {
	case *parser.Identifier:
		c.compileExpr(n.Value)
		c.emit(bytecode.STORE_IDENTIFIER, c.internConst(target.Name))
	case *parser.Member:
		c.compileExpr(target.Object)
		c.compileExpr(n.Value)
		c.emit(bytecode.STORE_MEMBER, c.internConst(target.Name))
	default:
		c.fail(n.Line(), "invalid assignment target")
	}
	return nil
}

// CompoundAssign resolves the left operand first so it ends up as the
// binary op's left/primary operand, matching Binary's own convention; this
// keeps `x -= e` correct as x-e rather than e-x.
func (c *Compiler) VisitCompoundAssign(n *parser.CompoundAssign) interface{} {
	nameIdx := c.internConst(n.Name)
	c.emit(bytecode.LOAD_IDENTIFIER, nameIdx)
	c.compileExpr(n.Value)
	if n.Op == lexer.TokenPlusEq {
		c.emit(bytecode.ADD, 0)
	} else {
		c.emit(bytecode.SUB, 0)
	}
	c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
	return nil
}

func (c *Compiler) compileArgsReverse(args []parser.Expr) {
	for i := len(args) - 1; i >= 0; i-- {
		c.compileExpr(args[i])
	}
}

func (c *Compiler) VisitCall(n *parser.Call) interface{} {
	if member, ok := n.Callee.(*parser.Member); ok {
		c.compileArgsReverse(n.Args)
		c.compileExpr(member.Object)
		c.emit(bytecode.PEEK, 0)
		c.emit(bytecode.LOAD_MEMBER, c.internConst(member.Name))
		c.emit(bytecode.CALL, len(n.Args)+1)
		return nil
	}
	c.compileArgsReverse(n.Args)
	c.compileExpr(n.Callee)
	c.emit(bytecode.CALL, len(n.Args))
	return nil
}

func (c *Compiler) VisitMember(n *parser.Member) interface{} {
	c.compileExpr(n.Object)
	c.emit(bytecode.LOAD_MEMBER, c.internConst(n.Name))
	return nil
}

// InitializerList lowers `T { a = e1, b = e2 }`: each value in source order,
// then the type expression (or Any), then MAKE_OBJECT with the field-name
// list reversed so the VM can pop values LIFO in the right pairing (spec
// §4.5.2).
func (c *Compiler) VisitInitializerList(n *parser.InitializerList) interface{} {
	for _, v := range n.Values {
		c.compileExpr(v)
	}
	if n.Type != nil {
		c.compileExpr(n.Type)
	} else {
		c.emit(bytecode.LOAD_IDENTIFIER, c.internConst("__builtin_typings_any"))
		c.emit(bytecode.CALL, 0)
	}

	indices := make([]int, len(n.Fields))
	for i, f := range n.Fields {
		indices[len(n.Fields)-1-i] = c.internConst(f)
	}
	listIdx := c.Chunk.AddFieldList(indices)
	c.emit(bytecode.MAKE_OBJECT, listIdx)
	return nil
}

func (c *Compiler) VisitGrouping(n *parser.Grouping) interface{} {
	c.compileExpr(n.Inner)
	return nil
}
