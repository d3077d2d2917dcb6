// Package parser turns a token stream into a syntax tree the compiler
// switches on. Like the scanner, it is an external collaborator per spec §1:
// the core only depends on the shape of the tree below, not on how it is
// produced.
package parser

import "luax/internal/lexer"

// Expr is any expression node; Accept follows the teacher's visitor style
// so new node kinds are added without touching every caller's type switch.
type Expr interface {
	Accept(v ExprVisitor) interface{}
	Line() int
}

type ExprVisitor interface {
	VisitIntLiteral(*IntLiteral) interface{}
	VisitFloatLiteral(*FloatLiteral) interface{}
	VisitStringLiteral(*StringLiteral) interface{}
	VisitBoolLiteral(*BoolLiteral) interface{}
	VisitNullLiteral(*NullLiteral) interface{}
	VisitUnitLiteral(*UnitLiteral) interface{}
	VisitIdentifier(*Identifier) interface{}
	VisitUnary(*Unary) interface{}
	VisitBinary(*Binary) interface{}
	VisitLogical(*Logical) interface{}
	VisitAssign(*Assign) interface{}
	VisitCompoundAssign(*CompoundAssign) interface{}
	VisitCall(*Call) interface{}
	VisitMember(*Member) interface{}
	VisitInitializerList(*InitializerList) interface{}
	VisitGrouping(*Grouping) interface{}
}

type exprBase struct{ line int }

func (e exprBase) Line() int { return e.line }

type IntLiteral struct {
	exprBase
	Value int64
}

func (n *IntLiteral) Accept(v ExprVisitor) interface{} { return v.VisitIntLiteral(n) }

type FloatLiteral struct {
	exprBase
	Value float64
}

func (n *FloatLiteral) Accept(v ExprVisitor) interface{} { return v.VisitFloatLiteral(n) }

type StringLiteral struct {
	exprBase
	Value string
}

func (n *StringLiteral) Accept(v ExprVisitor) interface{} { return v.VisitStringLiteral(n) }

type BoolLiteral struct {
	exprBase
	Value bool
}

func (n *BoolLiteral) Accept(v ExprVisitor) interface{} { return v.VisitBoolLiteral(n) }

type NullLiteral struct{ exprBase }

func (n *NullLiteral) Accept(v ExprVisitor) interface{} { return v.VisitNullLiteral(n) }

type UnitLiteral struct{ exprBase }

func (n *UnitLiteral) Accept(v ExprVisitor) interface{} { return v.VisitUnitLiteral(n) }

type Identifier struct {
	exprBase
	Name string
}

func (n *Identifier) Accept(v ExprVisitor) interface{} { return v.VisitIdentifier(n) }

// Unary covers -x, !x, ~x (NEGATE / LOGICAL_NOT / bitwise NOT).
type Unary struct {
	exprBase
	Op    lexer.TokenType
	Right Expr
}

func (n *Unary) Accept(v ExprVisitor) interface{} { return v.VisitUnary(n) }

type Binary struct {
	exprBase
	Op    lexer.TokenType
	Left  Expr
	Right Expr
}

func (n *Binary) Accept(v ExprVisitor) interface{} { return v.VisitBinary(n) }

// Logical covers && and ||, kept distinct from Binary since the compiler
// pre-coerces both operands with TO_BOOL before the LOGICAL_AND/OR opcode.
type Logical struct {
	exprBase
	Op    lexer.TokenType
	Left  Expr
	Right Expr
}

func (n *Logical) Accept(v ExprVisitor) interface{} { return v.VisitLogical(n) }

// Assign covers both `ident = e` and `obj.field = e`; Target distinguishes
// the two lowering paths at compile time.
type Assign struct {
	exprBase
	Target Expr
	Value  Expr
}

func (n *Assign) Accept(v ExprVisitor) interface{} { return v.VisitAssign(n) }

// CompoundAssign covers `x += e` / `x -= e`; the left side must be a plain
// identifier (spec §4.5.2).
type CompoundAssign struct {
	exprBase
	Name string
	Op   lexer.TokenType
	Value Expr
}

func (n *CompoundAssign) Accept(v ExprVisitor) interface{} { return v.VisitCompoundAssign(n) }

// Call covers both a plain function call and a method call; if Callee is a
// *Member the compiler lowers it with the PEEK-self trick (spec §4.5.2).
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func (n *Call) Accept(v ExprVisitor) interface{} { return v.VisitCall(n) }

type Member struct {
	exprBase
	Object Expr
	Name   string
}

func (n *Member) Accept(v ExprVisitor) interface{} { return v.VisitMember(n) }

// InitializerList is `T { a = e1, b = e2 }`. Type may be nil, meaning Any.
type InitializerList struct {
	exprBase
	Type   Expr
	Fields []string
	Values []Expr
}

func (n *InitializerList) Accept(v ExprVisitor) interface{} { return v.VisitInitializerList(n) }

type Grouping struct {
	exprBase
	Inner Expr
}

func (n *Grouping) Accept(v ExprVisitor) interface{} { return v.VisitGrouping(n) }
