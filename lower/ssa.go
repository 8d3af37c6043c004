package lower

import (
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/types"
)

// ssa tracks the current value of promoted vars per block. Merges are block
// parameters filled in once every predecessor of the block is known.
//
// This is the construction from "Simple and Efficient Construction of Static
// Single Assignment Form" (Braun et al.), with block parameters in place of
// phi instructions.
type ssa struct {
	mod *ir.Module

	defs       map[*ir.Block]map[*sem.Variable]ir.Value
	sealed     map[*ir.Block]bool
	incomplete map[*ir.Block][]pending
	params     map[*ir.BlockParam]bool
}

type pending struct {
	v *sem.Variable
	p *ir.BlockParam
}

func newSSA(mod *ir.Module) *ssa {
	return &ssa{
		mod:        mod,
		defs:       make(map[*ir.Block]map[*sem.Variable]ir.Value),
		sealed:     make(map[*ir.Block]bool),
		incomplete: make(map[*ir.Block][]pending),
		params:     make(map[*ir.BlockParam]bool),
	}
}

func (s *ssa) write(v *sem.Variable, blk *ir.Block, val ir.Value) {
	m := s.defs[blk]
	if m == nil {
		m = make(map[*sem.Variable]ir.Value)
		s.defs[blk] = m
	}

	m[v] = val
}

func (s *ssa) read(v *sem.Variable, blk *ir.Block) ir.Value {
	if val, ok := s.defs[blk][v]; ok {
		return val
	}

	return s.readRecursive(v, blk)
}

func (s *ssa) readRecursive(v *sem.Variable, blk *ir.Block) ir.Value {
	var val ir.Value

	preds := blk.Predecessors()

	switch {
	case !s.sealed[blk]:
		p := s.param(blk, v)
		s.incomplete[blk] = append(s.incomplete[blk], pending{v: v, p: p})
		val = p
	case len(preds) == 0:
		val = s.zero(v.Type)
	case len(preds) == 1:
		val = s.read(v, preds[0])
	default:
		p := s.param(blk, v)
		s.write(v, blk, p)
		s.addOperands(v, p)
		val = p
	}

	s.write(v, blk, val)

	return val
}

func (s *ssa) param(blk *ir.Block, v *sem.Variable) *ir.BlockParam {
	p := blk.AddParam(v.Type)
	p.SetName(v.Name)
	s.params[p] = true

	return p
}

// addOperands passes the value of v on every edge into the block of p.
func (s *ssa) addOperands(v *sem.Variable, p *ir.BlockParam) {
	blk := p.Block()

	for _, pred := range blk.Predecessors() {
		t := pred.Terminator()

		for i, target := range t.Targets() {
			if target == blk {
				t.AppendTargetArg(i, s.read(v, pred))
			}
		}
	}
}

func (s *ssa) seal(blk *ir.Block) {
	if s.sealed[blk] {
		return
	}

	for _, x := range s.incomplete[blk] {
		s.addOperands(x.v, x.p)
	}

	delete(s.incomplete, blk)
	s.sealed[blk] = true
}

func (s *ssa) zero(t types.Type) ir.Value {
	return ir.NewBuilder(s.mod).Zero(t)
}

// finish removes parameters that only ever receive one value besides
// themselves, until none is left.
func (s *ssa) finish(f *ir.Function) {
	for changed := true; changed; {
		changed = false

		for _, blk := range f.Blocks() {
			for _, p := range append([]*ir.BlockParam(nil), blk.Params()...) {
				if !s.params[p] {
					continue
				}

				same, ok := s.trivial(p)
				if !ok {
					continue
				}

				s.removeParam(p, same)
				changed = true
			}
		}
	}
}

// trivial returns the single value p is always bound to.
func (s *ssa) trivial(p *ir.BlockParam) (ir.Value, bool) {
	blk := p.Block()
	idx := p.Index()

	var same ir.Value

	for _, pred := range blk.Predecessors() {
		t := pred.Terminator()

		for i, target := range t.Targets() {
			if target != blk {
				continue
			}

			arg := t.TargetArgs(i)[idx]
			if arg == p || arg == same {
				continue
			}

			if same != nil {
				return nil, false
			}

			same = arg
		}
	}

	if same == nil {
		// Only reached from itself or not at all.
		same = s.zero(p.Type())
	}

	return same, true
}

func (s *ssa) removeParam(p *ir.BlockParam, same ir.Value) {
	blk := p.Block()
	idx := p.Index()

	for _, pred := range blk.Predecessors() {
		t := pred.Terminator()

		for i, target := range t.Targets() {
			if target == blk {
				t.RemoveTargetArg(i, idx)
			}
		}
	}

	ir.ReplaceAllUsesWith(p, same)
	blk.RemoveParam(p)
	delete(s.params, p)
}

// promotable returns the function-scope vars of f that can live in values:
// scalars, vectors and matrices that are never addressed and only assigned
// as a whole.
func promotable(f *sem.Function) map[*sem.Variable]bool {
	res := make(map[*sem.Variable]bool)
	excluded := make(map[*sem.Variable]bool)

	var stmt func(s sem.Stmt)
	var expr func(e sem.Expr)

	exclude := func(e sem.Expr) {
		if v := rootVar(e); v != nil {
			excluded[v] = true
		}
	}

	block := func(b *sem.Block) {
		if b == nil {
			return
		}

		for _, s := range b.Stmts {
			stmt(s)
		}
	}

	expr = func(e sem.Expr) {
		switch e := e.(type) {
		case *sem.Unary:
			expr(e.Operand)
		case *sem.Binary:
			expr(e.Left)
			expr(e.Right)
		case *sem.Call:
			for _, a := range e.Args {
				expr(a)
			}
		case *sem.BuiltinCall:
			for _, a := range e.Args {
				expr(a)
			}
		case *sem.Construct:
			for _, a := range e.Args {
				expr(a)
			}
		case *sem.Convert:
			expr(e.Expr)
		case *sem.Bitcast:
			expr(e.Expr)
		case *sem.Index:
			expr(e.Base)
			expr(e.Index)
		case *sem.Member:
			expr(e.Base)
		case *sem.Swizzle:
			expr(e.Base)
		case *sem.AddressOf:
			exclude(e.Expr)
			expr(e.Expr)
		case *sem.Deref:
			expr(e.Expr)
		}
	}

	stmt = func(s sem.Stmt) {
		switch s := s.(type) {
		case *sem.Block:
			block(s)
		case *sem.VarDecl:
			switch s.Var.Type.(type) {
			case types.Scalar, types.Vector, types.Matrix:
				res[s.Var] = true
			}

			if s.Var.Init != nil {
				expr(s.Var.Init)
			}
		case *sem.LetDecl:
			expr(s.Var.Init)
		case *sem.Assign:
			if _, ok := s.LHS.(*sem.VarRef); !ok {
				exclude(s.LHS)
			}

			expr(s.LHS)
			expr(s.RHS)
		case *sem.If:
			expr(s.Cond)
			block(s.Then)

			if s.Else != nil {
				stmt(s.Else)
			}
		case *sem.Loop:
			block(s.Body)
			block(s.Continuing)

			if s.BreakIf != nil {
				expr(s.BreakIf)
			}
		case *sem.For:
			if s.Init != nil {
				stmt(s.Init)
			}

			if s.Cond != nil {
				expr(s.Cond)
			}

			if s.Update != nil {
				stmt(s.Update)
			}

			block(s.Body)
		case *sem.While:
			expr(s.Cond)
			block(s.Body)
		case *sem.Switch:
			expr(s.Selector)

			for _, c := range s.Cases {
				block(c.Body)
			}
		case *sem.Return:
			if s.Value != nil {
				expr(s.Value)
			}
		case *sem.ExprStmt:
			expr(s.Expr)
		}
	}

	block(f.Body)

	for v := range excluded {
		delete(res, v)
	}

	return res
}

// rootVar returns the var at the base of a place expression.
func rootVar(e sem.Expr) *sem.Variable {
	for {
		switch x := e.(type) {
		case *sem.VarRef:
			if x.Var.Kind != sem.VarKindVar {
				return nil
			}

			return x.Var
		case *sem.Index:
			e = x.Base
		case *sem.Member:
			e = x.Base
		case *sem.Swizzle:
			e = x.Base
		default:
			return nil
		}
	}
}
