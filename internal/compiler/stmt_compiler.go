package compiler

import (
	"luax/internal/bytecode"
	"luax/internal/parser"
)

func (c *Compiler) compileStmt(s parser.Stmt) {
	s.Accept(c)
}

// compileExprDiscard lowers expr for its side effect only; every expression
// statement's result is popped so the operand stack stays balanced at
// statement boundaries (spec §3.6, §4.5.2). Assignments are the exception:
// STORE_IDENTIFIER / STORE_MEMBER already consume the value, so there is
// nothing left to pop.
func (c *Compiler) compileExprDiscard(e parser.Expr) {
	c.compileExpr(e)
	switch e.(type) {
	case *parser.Assign, *parser.CompoundAssign:
		return
	}
	c.emit(bytecode.POP_STACK, 0)
}

func (c *Compiler) VisitLetStmt(n *parser.LetStmt) interface{} {
	c.compileExpr(n.Value)
	idx := c.internConst(n.Name)
	c.emit(bytecode.DECLARE_IDENTIFIER, idx)
	c.emit(bytecode.STORE_IDENTIFIER, idx)
	return nil
}

func (c *Compiler) VisitExprStmt(n *parser.ExprStmt) interface{} {
	c.compileExprDiscard(n.Expr)
	return nil
}

func (c *Compiler) VisitBlockStmt(n *parser.BlockStmt) interface{} {
	c.beginLocal()
	for _, s := range n.Stmts {
		c.compileStmt(s)
	}
	c.endLocal()
	return nil
}

func (c *Compiler) VisitIfStmt(n *parser.IfStmt) interface{} {
	c.compileExpr(n.Cond)
	c.emit(bytecode.TO_BOOL, 0)
	skipThen := c.emit(bytecode.JMP_IF_FALSE_REL, 0)
	c.compileStmt(n.Then)

	if n.Else != nil {
		skipElse := c.emit(bytecode.JMP_REL, 0)
		c.patchRelHere(skipThen)
		c.compileStmt(n.Else)
		c.patchRelHere(skipElse)
	} else {
		c.patchRelHere(skipThen)
	}
	return nil
}

func (c *Compiler) VisitWhileStmt(n *parser.WhileStmt) interface{} {
	lc := c.pushLoop()
	loopHead := c.Chunk.Len()
	lc.continueAt = loopHead

	c.compileExpr(n.Cond)
	c.emit(bytecode.TO_BOOL, 0)
	exitJump := c.emit(bytecode.JMP_IF_FALSE_REL, 0)

	c.compileStmt(n.Body)

	back := c.emit(bytecode.JMP_REL, 0)
	c.Chunk.Patch(back, loopHead-back)

	c.patchRelHere(exitJump)
	lc = c.popLoop()
	for _, j := range lc.breakJumps {
		c.patchRelHere(j)
	}
	return nil
}

func (c *Compiler) VisitForStmt(n *parser.ForStmt) interface{} {
	c.beginLocal()
	if n.Init != nil {
		c.compileStmt(n.Init)
	}

	lc := c.pushLoop()

	var toCondCheck int
	hasUpdate := n.Update != nil
	if hasUpdate {
		toCondCheck = c.emit(bytecode.JMP_REL, 0)
	}

	updateTarget := c.Chunk.Len()
	lc.continueAt = updateTarget
	if hasUpdate {
		c.compileExprDiscard(n.Update)
		c.patchRelHere(toCondCheck)
	}

	condCheck := c.Chunk.Len()
	var exitJump int
	if n.Cond != nil {
		c.compileExpr(n.Cond)
		c.emit(bytecode.TO_BOOL, 0)
		exitJump = c.emit(bytecode.JMP_IF_FALSE_REL, 0)
	}

	c.compileStmt(n.Body)

	back := c.emit(bytecode.JMP_REL, 0)
	c.Chunk.Patch(back, updateTarget-back)
	_ = condCheck

	if n.Cond != nil {
		c.patchRelHere(exitJump)
	}

	lc = c.popLoop()
	for _, j := range lc.breakJumps {
		c.patchRelHere(j)
	}
	c.endLocal()
	return nil
}

func (c *Compiler) VisitBreakStmt(n *parser.BreakStmt) interface{} {
	lc := c.currentLoop()
	if lc == nil {
		c.fail(n.Line(), "'break' outside a loop")
	}
	j := c.emit(bytecode.JMP_REL, 0)
	lc.breakJumps = append(lc.breakJumps, j)
	return nil
}

func (c *Compiler) VisitContinueStmt(n *parser.ContinueStmt) interface{} {
	lc := c.currentLoop()
	if lc == nil {
		c.fail(n.Line(), "'continue' outside a loop")
	}
	j := c.emit(bytecode.JMP_REL, 0)
	c.Chunk.Patch(j, lc.continueAt-j)
	return nil
}

func (c *Compiler) VisitReturnStmt(n *parser.ReturnStmt) interface{} {
	if n.Value != nil {
		c.compileExpr(n.Value)
	} else {
		c.emit(bytecode.LOAD_CONST, c.constValue(unitValue()))
	}
	c.emit(bytecode.RET, 0)
	return nil
}

func (c *Compiler) VisitFuncStmt(n *parser.FuncStmt) interface{} {
	c.compileFunction(n, false)
	return nil
}

// compileFunction lowers a function or method declaration: a JMP_REL over
// the body, the body itself (params declared/stored on entry, a synthetic
// `LOAD_CONST Unit; RET` tail if control can fall off the end), then a
// Function constant bound to the declared name in the *enclosing* scope
// (spec §4.5.2). A nil Body is a legal forward declaration that emits
// nothing (SUPPLEMENTED FEATURES).
func (c *Compiler) compileFunction(n *parser.FuncStmt, forceMethod bool) {
	if n.Body == nil {
		return
	}
	isMethod := n.IsMethod || forceMethod

	skip := c.emit(bytecode.JMP_REL, 0)
	begin := c.Chunk.Len() - c.currentModuleBase

	c.beginLocal()
	for _, param := range n.Params {
		idx := c.internConst(param)
		c.emit(bytecode.DECLARE_IDENTIFIER, idx)
		c.emit(bytecode.STORE_IDENTIFIER, idx)
	}
	for _, s := range n.Body.Stmts {
		c.compileStmt(s)
	}
	if !endsInReturn(n.Body) {
		c.emit(bytecode.LOAD_CONST, c.constValue(unitValue()))
		c.emit(bytecode.RET, 0)
	}
	c.endLocal()

	c.patchRelHere(skip)

	fn := c.functionValue(n.Name, len(n.Params), isMethod, begin)
	c.emit(bytecode.LOAD_CONST, c.constValue(fn))
	nameIdx := c.internConst(n.Name)
	c.emit(bytecode.DECLARE_IDENTIFIER, nameIdx)
	c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
}

func endsInReturn(b *parser.BlockStmt) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*parser.ReturnStmt)
	return ok
}

func (c *Compiler) VisitTypeStmt(n *parser.TypeStmt) interface{} {
	nameIdx := c.internConst(n.Name)
	c.beginLocalDerived()

	for _, f := range n.Fields {
		if f.TypeExpr != nil {
			c.compileExpr(f.TypeExpr)
		} else {
			c.emit(bytecode.LOAD_IDENTIFIER, c.internConst("__builtin_typings_any"))
			c.emit(bytecode.CALL, 0)
		}
		idx := c.internConst(f.Name)
		c.emit(bytecode.DECLARE_IDENTIFIER, idx)
		c.emit(bytecode.STORE_IDENTIFIER, idx)
	}
	for _, m := range n.Methods {
		c.compileFunction(m, true)
	}

	// MAKE_TYPE's operand is the type's own name constant, so the VM can
	// stamp TypeObject.Name without a stack value for it.
	c.emit(bytecode.MAKE_TYPE, nameIdx)
	c.endLocal()

	c.emit(bytecode.DECLARE_IDENTIFIER, nameIdx)
	c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
	return nil
}

func (c *Compiler) VisitModStmt(n *parser.ModStmt) interface{} {
	nameIdx := c.internConst(n.Name)
	c.beginLocalDerived()
	for _, s := range n.Decls {
		c.compileStmt(s)
	}
	c.emit(bytecode.MAKE_MODULE_LOCAL, nameIdx)
	c.endLocal()

	c.emit(bytecode.DECLARE_IDENTIFIER, nameIdx)
	c.emit(bytecode.STORE_IDENTIFIER, nameIdx)
	return nil
}

func (c *Compiler) VisitImportStmt(n *parser.ImportStmt) interface{} {
	c.CompileImport(n.Path)
	return nil
}
