package lower

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/types"
)

func (l *Lowerer) block(b *sem.Block) error {
	for _, s := range b.Stmts {
		if l.terminated() {
			return nil
		}

		if err := l.stmt(s); err != nil {
			return err
		}
	}

	return nil
}

func (l *Lowerer) stmt(s sem.Stmt) error {
	switch s := s.(type) {
	case *sem.Block:
		return l.block(s)
	case *sem.VarDecl:
		return l.varDecl(s.Var)
	case *sem.LetDecl:
		v, err := l.valueOf(s.Var.Init, s.Var.Type)
		if err != nil {
			return err
		}

		l.values[s.Var] = l.b.Let(s.Var.Name, v).Value()

		return nil
	case *sem.ConstDecl:
		v, err := l.constExpr(s.Var.Init)
		if err != nil {
			return err
		}

		l.consts[s.Var] = v

		return nil
	case *sem.Assign:
		return l.assign(s)
	case *sem.If:
		return l.ifStmt(s)
	case *sem.Loop:
		return l.loop(s.Body, s.Continuing, s.BreakIf, nil)
	case *sem.For:
		return l.forStmt(s)
	case *sem.While:
		return l.loop(s.Body, nil, nil, s.Cond)
	case *sem.Switch:
		return l.switchStmt(s)
	case *sem.Break:
		return l.breakStmt(s)
	case *sem.Continue:
		return l.continueStmt(s)
	case *sem.Return:
		return l.returnStmt(s)
	case *sem.Discard:
		l.b.Discard()
		return nil
	case *sem.ExprStmt:
		_, err := l.expr(s.Expr)
		return err
	case nil:
		return l.failf(noSpan, "nil statement")
	}

	return l.failf(s.Pos(), "unsupported statement %T", s)
}

func (l *Lowerer) varDecl(v *sem.Variable) error {
	var init ir.Value

	if v.Init != nil {
		x, err := l.valueOf(v.Init, v.Type)
		if err != nil {
			return err
		}

		init = x
	}

	if l.promoted[v] {
		if init == nil {
			zero, ok := constant.Zero(v.Type)
			if !ok {
				return l.failf(v.Span, "no zero value for %v", v.Type)
			}

			init = l.b.Constant(zero)
		}

		l.ssa.write(v, l.b.Block(), init)

		return nil
	}

	ptr := types.Pointer{Elem: v.Type, Space: core.SpaceFunction, Access: core.AccessReadWrite}
	l.values[v] = l.b.Var(v.Name, ptr, init).Value()

	return nil
}

func (l *Lowerer) assign(s *sem.Assign) error {
	if ref, ok := s.LHS.(*sem.VarRef); ok && l.promoted[ref.Var] {
		rhs, err := l.compound(s, func() (ir.Value, error) { return l.ssa.read(ref.Var, l.b.Block()), nil })
		if err != nil {
			return err
		}

		l.ssa.write(ref.Var, l.b.Block(), rhs)

		return nil
	}

	dst, err := l.location(s.LHS)
	if err != nil {
		return err
	}

	if dst.root.Type().(types.Pointer).Access == core.AccessRead {
		return l.failf(s.Pos(), "assignment through read-only %v", dst.root.Type())
	}

	rhs, err := l.compound(s, func() (ir.Value, error) { return l.load(dst), nil })
	if err != nil {
		return err
	}

	l.store(dst, rhs)

	return nil
}

// compound evaluates the right side of an assignment, combining it with the
// current value for compound assignments.
func (l *Lowerer) compound(s *sem.Assign, current func() (ir.Value, error)) (ir.Value, error) {
	ty := s.LHS.Type()

	if s.Op == nil {
		return l.valueOf(s.RHS, ty)
	}

	old, err := current()
	if err != nil {
		return nil, err
	}

	rhs, err := l.expr(s.RHS)
	if err != nil {
		return nil, err
	}

	if s.Op.IsShift() {
		rhs = l.coerce(rhs, types.WithScalar(rhs.Type(), types.U32))
	} else {
		rhs = l.coerceScalar(rhs, ty)
	}

	return l.binaryOp(*s.Op, ty, old, rhs), nil
}

func (l *Lowerer) ifStmt(s *sem.If) error {
	cond, err := l.valueOf(s.Cond, types.Bool)
	if err != nil {
		return err
	}

	then := l.newBlock()

	var els *ir.Block
	if s.Else != nil {
		els = l.newBlock()
	}

	merge := l.newBlock()
	if els == nil {
		els = merge
	}

	br := l.b.CondBranch(cond, then, els)
	br.SetMerge(merge)

	l.seal(then)
	l.enter(then)

	if err := l.block(s.Then); err != nil {
		return err
	}

	l.branchIfOpen(merge)

	if s.Else != nil {
		l.seal(els)
		l.enter(els)

		if err := l.stmt(s.Else); err != nil {
			return err
		}

		l.branchIfOpen(merge)
	}

	l.seal(merge)
	l.enter(merge)

	return nil
}

func (l *Lowerer) branchIfOpen(to *ir.Block) {
	if !l.terminated() {
		l.b.Branch(to)
	}
}

// loop lowers loop, while and for. cond, when set, is checked on every
// iteration before the body; update is lowered by the caller through
// continuing.
func (l *Lowerer) loop(body, continuing *sem.Block, breakIf, cond sem.Expr) error {
	head := l.newBlock()
	cont := l.newBlock()
	merge := l.newBlock()

	l.b.Loop(head, cont, merge)
	l.enter(head)

	if cond != nil {
		c, err := l.valueOf(cond, types.Bool)
		if err != nil {
			return err
		}

		rest := l.newBlock()
		l.b.CondBranch(c, rest, merge)
		l.seal(rest)
		l.enter(rest)
	}

	l.push(scope{kind: scopeLoop, breakTo: merge, continueTo: cont})
	err := l.block(body)
	l.pop()

	if err != nil {
		return err
	}

	l.branchIfOpen(cont)

	l.seal(cont)
	l.enter(cont)

	if continuing != nil {
		l.push(scope{kind: scopeContinuing})
		err := l.block(continuing)
		l.pop()

		if err != nil {
			return err
		}
	}

	if !l.terminated() {
		if breakIf != nil {
			c, err := l.valueOf(breakIf, types.Bool)
			if err != nil {
				return err
			}

			l.b.CondBranch(c, merge, head)
		} else {
			l.b.Branch(head)
		}
	}

	l.seal(head)
	l.seal(merge)
	l.enter(merge)

	return nil
}

func (l *Lowerer) forStmt(s *sem.For) error {
	if s.Init != nil {
		if err := l.stmt(s.Init); err != nil {
			return err
		}
	}

	var continuing *sem.Block
	if s.Update != nil {
		continuing = &sem.Block{Stmts: []sem.Stmt{s.Update}, Span: s.Update.Pos()}
	}

	return l.loop(s.Body, continuing, nil, s.Cond)
}

func (l *Lowerer) switchStmt(s *sem.Switch) error {
	sel, err := l.expr(s.Selector)
	if err != nil {
		return err
	}

	if !types.IsInteger(sel.Type()) || types.Width(sel.Type()) != 1 {
		return l.failf(s.Selector.Pos(), "switch selector is %v", sel.Type())
	}

	sw := l.b.Switch(sel)

	blocks := make([]*ir.Block, len(s.Cases))
	seen := make(map[string]bool)
	hasDefault := false

	for i, c := range s.Cases {
		var sc ir.SwitchCase

		for _, e := range c.Selectors {
			v, err := l.constExpr(e)
			if err != nil {
				return err
			}

			if v, err = convertConst(v, sel.Type()); err != nil {
				return l.failf(e.Pos(), "case selector: %v", err)
			}

			k := constant.Key(v)
			if seen[k] {
				return l.failf(e.Pos(), "duplicate case selector %v", v)
			}

			seen[k] = true

			sc.Selectors = append(sc.Selectors, v)
		}

		if c.Default {
			if hasDefault {
				return l.failf(c.Span, "more than one default case")
			}

			hasDefault = true
			sc.Default = true
		}

		blocks[i] = l.newBlock()
		sw.AddCase(sc, blocks[i])
	}

	if !hasDefault {
		return l.failf(s.Pos(), "switch without a default case")
	}

	merge := l.newBlock()
	sw.SetMerge(merge)

	l.push(scope{kind: scopeSwitch, breakTo: merge})

	for i, c := range s.Cases {
		l.seal(blocks[i])
		l.enter(blocks[i])

		if err := l.block(c.Body); err != nil {
			l.pop()
			return err
		}

		l.branchIfOpen(merge)
	}

	l.pop()

	l.seal(merge)
	l.enter(merge)

	return nil
}

func (l *Lowerer) breakStmt(s *sem.Break) error {
	if len(l.scopes) == 0 {
		return l.failf(s.Pos(), "break outside of a loop or switch")
	}

	sc := l.scopes[len(l.scopes)-1]
	if sc.kind == scopeContinuing {
		return l.failf(s.Pos(), "break in a continuing block; use break_if")
	}

	l.b.Branch(sc.breakTo)

	return nil
}

func (l *Lowerer) continueStmt(s *sem.Continue) error {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		sc := l.scopes[i]

		if sc.kind == scopeSwitch {
			continue
		}

		if sc.kind == scopeLoop {
			l.b.Branch(sc.continueTo)
			return nil
		}

		break
	}

	return l.failf(s.Pos(), "continue outside of a loop body")
}

func (l *Lowerer) returnStmt(s *sem.Return) error {
	ret := l.fn.ReturnType

	switch {
	case s.Value == nil && !types.IsVoid(ret):
		return l.failf(s.Pos(), "return without a value in a function returning %v", ret)
	case s.Value != nil && types.IsVoid(ret):
		return l.failf(s.Pos(), "return with a value in a void function")
	case s.Value == nil:
		l.b.Return(nil)
		return nil
	}

	v, err := l.valueOf(s.Value, ret)
	if err != nil {
		return err
	}

	l.b.Return(v)

	return nil
}
