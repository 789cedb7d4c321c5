package vm

import (
	"fmt"

	"go.starlark.net/syntax"
)

func (cc *compileContext) buildFromStatements(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		err := cc.statement(s)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cc *compileContext) statement(s syntax.Stmt) error {
	cc.setPos(s)
	start := cc.height
	var err error
	switch v := s.(type) {
	case *syntax.AssignStmt:
		err = cc.assign(v.Op, v.LHS, v.RHS)
	case *syntax.ExprStmt:
		if _, ok := v.X.(*syntax.Literal); ok {
			// Opt: don't compile literals only to pop them.
			return nil
		}
		err = cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.emit(POP_TOP)
	case *syntax.ForStmt:
		err = cc.forStmt(v)
	case *syntax.BranchStmt:
		if v.Token == syntax.PASS {
			return nil
		}
		err = cc.errorf("%s is not supported", v.Token)
	default:
		err = cc.errorf("unsupported statement type %T", s)
	}
	if err != nil {
		return err
	}
	if cc.height != start {
		return cc.errorf("internal error: statement leaves stack height %d, expected %d", cc.height, start)
	}
	return nil
}

// forStmt compiles
//
//	for x in X:
//	    body
//
// to
//
//	<X>
//	GET_ITER
//	start: FOR_ITER end
//	STORE_LOCAL x
//	POP_TOP
//	<body>
//	JMP_ABS start
//	end: POP_TOP        ; drops the exhausted iterator
func (cc *compileContext) forStmt(v *syntax.ForStmt) error {
	name, err := cc.loopVar(v.Vars)
	if err != nil {
		return err
	}
	err = cc.expr(v.X)
	if err != nil {
		return err
	}
	cc.setPos(v)
	startLabel, endLabel, err := cc.beginLoop(name)
	if err != nil {
		return err
	}
	cc.locals[name] = true
	cc.loopVars[name]++
	err = cc.buildFromStatements(v.Body)
	if err != nil {
		return err
	}
	cc.setPos(v)
	cc.loopVars[name]--
	if cc.loopVars[name] == 0 {
		delete(cc.loopVars, name)
	}
	return cc.endLoop(startLabel, endLabel)
}

func (cc *compileContext) loopVar(e syntax.Expr) (string, error) {
	id, ok := unparen(e).(*syntax.Ident)
	if !ok {
		return "", cc.errorf("loop variable must be a single identifier, got %T", e)
	}
	return id.Name, nil
}

// beginLoop expects the iterable on top of the stack. Each item is stored
// in the local named slot.
func (cc *compileContext) beginLoop(slot string) (string, string, error) {
	if err := cc.emit(GET_ITER); err != nil {
		return "", "", err
	}
	startLabel := cc.newLabel()
	endLabel := cc.newLabel()
	cc.emitLabel(startLabel)
	cc.emitJump(FOR_ITER, endLabel)
	if err := cc.emit(STORE_LOCAL, cc.nameIndex(slot)); err != nil {
		return "", "", err
	}
	if err := cc.emit(POP_TOP); err != nil {
		return "", "", err
	}
	return startLabel, endLabel, nil
}

func (cc *compileContext) endLoop(startLabel, endLabel string) error {
	cc.emitJump(JMP_ABS, startLabel)
	// The body is balanced, so the exit branch reaches endLabel with only
	// the iterator left above the loop's starting height.
	cc.emitLabel(endLabel)
	return cc.emit(POP_TOP)
}

func (cc *compileContext) expr(e syntax.Expr) error {
	prev := cc.pos
	cc.setPos(e)
	defer func() { cc.pos = prev }()

	switch v := e.(type) {
	case *syntax.BinaryExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.expr(v.Y)
		if err != nil {
			return err
		}
		cc.setPos(e)
		return cc.binOp(v.Op)
	case *syntax.CallExpr:
		return cc.call(v)
	case *syntax.Comprehension:
		return cc.comprehension(v)
	case *syntax.Ident:
		if slot, ok := cc.slots[v.Name]; ok {
			return cc.emit(LOAD_LOCAL, cc.nameIndex(slot))
		}
		if cc.locals[v.Name] {
			return cc.emit(LOAD_LOCAL, cc.nameIndex(v.Name))
		}
		return cc.emit(LOAD_GLOBAL, cc.nameIndex(v.Name))
	case *syntax.ListExpr:
		err := cc.emit(BUILD_LIST)
		if err != nil {
			return err
		}
		listHeight := cc.height
		for _, item := range v.List {
			err := cc.expr(item)
			if err != nil {
				return err
			}
			cc.setPos(e)
			err = cc.emit(LIST_APPEND, cc.height-listHeight)
			if err != nil {
				return err
			}
		}
		return nil
	case *syntax.Literal:
		val, err := litToValue(v.Value)
		if err != nil {
			return cc.errorf("%s", err)
		}
		return cc.emit(LOAD_CONST, cc.constIndex(val))
	case *syntax.ParenExpr:
		return cc.expr(v.X)
	case *syntax.UnaryExpr:
		return cc.unary(v)
	default:
		return cc.errorf("unsupported expression type %T", e)
	}
}

func (cc *compileContext) binOp(op syntax.Token) error {
	switch op {
	case syntax.PLUS: // +
		return cc.emit(BINARY_ADD)
	default:
		return cc.errorf("unsupported binary operator %s", op)
	}
}

// unary folds signs on numeric literals into the constant pool.
func (cc *compileContext) unary(e *syntax.UnaryExpr) error {
	lit, ok := unparen(e.X).(*syntax.Literal)
	if !ok {
		return cc.errorf("unary %s is only supported on numeric literals", e.Op)
	}
	val, err := litToValue(lit.Value)
	if err != nil {
		return cc.errorf("%s", err)
	}
	switch e.Op {
	case syntax.PLUS:
	case syntax.MINUS:
		val = negate(val)
	default:
		return cc.errorf("unsupported unary operator %s", e.Op)
	}
	return cc.emit(LOAD_CONST, cc.constIndex(val))
}

func (cc *compileContext) call(e *syntax.CallExpr) error {
	fn, ok := e.Fn.(*syntax.Ident)
	if !ok {
		return cc.errorf("only calls by name are supported, got %T", e.Fn)
	}
	for _, a := range e.Args {
		switch arg := a.(type) {
		case *syntax.BinaryExpr:
			if arg.Op == syntax.EQ {
				return cc.errorf("keyword arguments are not supported in call to %s", fn.Name)
			}
		case *syntax.UnaryExpr:
			if arg.Op == syntax.STAR || arg.Op == syntax.STARSTAR {
				return cc.errorf("variadic arguments are not supported in call to %s", fn.Name)
			}
		}
		err := cc.expr(a)
		if err != nil {
			return err
		}
	}
	cc.setPos(e)
	return cc.emit(CALL_FUNCTION, len(e.Args), cc.nameIndex(fn.Name))
}

// comprehension compiles [body for x in X for y in Y] as nested loops that
// append body to a list sitting below all of the loops' iterators.
//
// Each comprehension variable gets its own slot, named "x#N", so it never
// clobbers an enclosing loop variable or global of the same name.
func (cc *compileContext) comprehension(e *syntax.Comprehension) error {
	if e.Curly {
		return cc.errorf("dict comprehensions are not supported")
	}
	err := cc.emit(BUILD_LIST)
	if err != nil {
		return err
	}
	listHeight := cc.height
	saved := make(map[string]string)
	defer func() {
		for name, slot := range saved {
			if slot == "" {
				delete(cc.slots, name)
			} else {
				cc.slots[name] = slot
			}
		}
	}()

	type loop struct {
		start, end string
	}
	var loops []loop
	for _, clause := range e.Clauses {
		fc, ok := clause.(*syntax.ForClause)
		if !ok {
			return cc.errorf("only for clauses are supported in comprehensions, got %T", clause)
		}
		name, err := cc.loopVar(fc.Vars)
		if err != nil {
			return err
		}
		err = cc.expr(fc.X)
		if err != nil {
			return err
		}
		cc.setPos(fc)
		if _, seen := saved[name]; !seen {
			saved[name] = cc.slots[name]
		}
		slot := fmt.Sprintf("%s#%d", name, cc.slotCount)
		cc.slotCount++
		start, end, err := cc.beginLoop(slot)
		if err != nil {
			return err
		}
		cc.slots[name] = slot
		loops = append(loops, loop{start: start, end: end})
	}
	err = cc.expr(e.Body)
	if err != nil {
		return err
	}
	cc.setPos(e)
	err = cc.emit(LIST_APPEND, cc.height-listHeight)
	if err != nil {
		return err
	}
	for i := len(loops) - 1; i >= 0; i-- {
		err := cc.endLoop(loops[i].start, loops[i].end)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cc *compileContext) assign(op syntax.Token, lhs syntax.Expr, rhs syntax.Expr) error {
	id, ok := unparen(lhs).(*syntax.Ident)
	if !ok {
		return fmt.Errorf("%s: assign: unhandled LHS expr type %T", cc.pos, lhs)
	}
	if cc.loopVars[id.Name] > 0 {
		return cc.errorf("cannot assign to loop variable %s", id.Name)
	}
	switch op {
	case syntax.EQ:
		err := cc.expr(rhs)
		if err != nil {
			return err
		}
	case syntax.PLUS_EQ:
		err := cc.expr(lhs)
		if err != nil {
			return err
		}
		err = cc.expr(rhs)
		if err != nil {
			return err
		}
		err = cc.emit(BINARY_ADD)
		if err != nil {
			return err
		}
	default:
		return cc.errorf("%s assignments are not supported", op)
	}
	// After a top-level assignment the name refers to the global again.
	delete(cc.locals, id.Name)
	return cc.emit(STORE_GLOBAL, cc.nameIndex(id.Name))
}
