package lower

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/types"
)

var noSpan diag.Span

// place is a memory location: a pointer, an access chain below it and an
// optional vector component.
type place struct {
	root    ir.Value
	indices []ir.Value
	elem    types.Type // type the chain ends at; the vector for components
	index   ir.Value   // vector component or nil

	ptr ir.Value // root with indices applied, once emitted
}

// valueOf lowers e and converts the result to ty. A nil ty means no
// conversion.
func (l *Lowerer) valueOf(e sem.Expr, ty types.Type) (ir.Value, error) {
	v, err := l.expr(e)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return nil, l.failf(e.Pos(), "%T produces no value", e)
	}

	return l.coerce(v, ty), nil
}

func (l *Lowerer) expr(e sem.Expr) (ir.Value, error) {
	switch e := e.(type) {
	case *sem.Literal:
		return l.b.Constant(e.Value), nil

	case *sem.VarRef:
		return l.varRef(e)

	case *sem.Unary:
		x, err := l.valueOf(e.Operand, nil)
		if err != nil {
			return nil, err
		}

		if c, ok := constOf(x); ok {
			if v, err := constant.Unary(e.Op, c); err == nil {
				return l.b.Constant(v), nil
			}
		}

		return l.b.Unary(e.Op, e.Ty, x).Value(), nil

	case *sem.Binary:
		if e.Op.IsShortCircuit() {
			return l.shortCircuit(e)
		}

		return l.binary(e)

	case *sem.Call:
		f := l.funcs[e.Func]
		if f == nil {
			return nil, l.failf(e.Pos(), "call to unknown function %q", e.Func.Name)
		}

		if len(e.Args) != len(f.Params()) {
			return nil, l.failf(e.Pos(), "%s takes %d arguments, got %d", f.Name, len(f.Params()), len(e.Args))
		}

		args := make([]ir.Value, len(e.Args))

		for i, a := range e.Args {
			v, err := l.valueOf(a, f.Params()[i].Type())
			if err != nil {
				return nil, err
			}

			args[i] = v
		}

		return l.b.Call(f, args...).Value(), nil

	case *sem.BuiltinCall:
		args, err := l.exprs(e.Args)
		if err != nil {
			return nil, err
		}

		return l.b.BuiltinCall(e.Ty, e.Builtin, args...).Value(), nil

	case *sem.Construct:
		return l.construct(e)

	case *sem.Convert:
		x, err := l.valueOf(e.Expr, nil)
		if err != nil {
			return nil, err
		}

		if c, ok := constOf(x); ok {
			if v, err := convertConst(c, e.Ty); err == nil {
				return l.b.Constant(v), nil
			}
		}

		return l.b.Convert(e.Ty, x).Value(), nil

	case *sem.Bitcast:
		x, err := l.valueOf(e.Expr, nil)
		if err != nil {
			return nil, err
		}

		return l.b.Bitcast(e.Ty, x).Value(), nil

	case *sem.Index, *sem.Member:
		if l.isPlace(e) {
			return l.read(e)
		}

		return l.extract(e)

	case *sem.Swizzle:
		if l.isPlace(e) {
			return l.read(e)
		}

		base, err := l.valueOf(e.Base, nil)
		if err != nil {
			return nil, err
		}

		return l.b.Swizzle(e.Ty, base, e.Components...).Value(), nil

	case *sem.AddressOf:
		p, err := l.location(e.Expr)
		if err != nil {
			return nil, err
		}

		if p.index != nil {
			return nil, l.failf(e.Pos(), "cannot take the address of a vector component")
		}

		return l.pointer(p), nil

	case *sem.Deref:
		return l.read(e)

	case nil:
		return nil, l.failf(noSpan, "nil expression")
	}

	return nil, l.failf(e.Pos(), "unsupported expression %T", e)
}

func (l *Lowerer) exprs(es []sem.Expr) ([]ir.Value, error) {
	res := make([]ir.Value, len(es))

	for i, e := range es {
		v, err := l.valueOf(e, nil)
		if err != nil {
			return nil, err
		}

		res[i] = v
	}

	return res, nil
}

func (l *Lowerer) varRef(e *sem.VarRef) (ir.Value, error) {
	v := e.Var

	switch v.Kind {
	case sem.VarKindConst:
		c, ok := l.consts[v]
		if !ok {
			return nil, l.failf(e.Pos(), "const %q used before its declaration", v.Name)
		}

		return l.b.Constant(c), nil
	case sem.VarKindVar:
		if l.promoted[v] {
			return l.ssa.read(v, l.b.Block()), nil
		}

		return l.read(e)
	}

	x, ok := l.values[v]
	if !ok {
		return nil, l.failf(e.Pos(), "%v %q used before its declaration", v.Kind, v.Name)
	}

	return x, nil
}

// read loads the location e denotes.
func (l *Lowerer) read(e sem.Expr) (ir.Value, error) {
	p, err := l.location(e)
	if err != nil {
		return nil, err
	}

	return l.load(p), nil
}

// extract reads a part of a value that does not live in memory.
func (l *Lowerer) extract(e sem.Expr) (ir.Value, error) {
	var base sem.Expr
	var idx ir.Value
	var ty types.Type

	switch e := e.(type) {
	case *sem.Member:
		base, idx, ty = e.Base, l.b.U32(uint32(e.Index)), e.Ty
	case *sem.Index:
		x, err := l.valueOf(e.Index, nil)
		if err != nil {
			return nil, err
		}

		base, idx, ty = e.Base, x, e.Ty
	}

	b, err := l.valueOf(base, nil)
	if err != nil {
		return nil, err
	}

	if c, ok := constOf(b); ok {
		if i, ok := constOf(idx); ok {
			if el, ok := constIndex(c, i); ok {
				return l.b.Constant(el), nil
			}
		}
	}

	return l.b.Access(ty, b, idx).Value(), nil
}

func (l *Lowerer) binary(e *sem.Binary) (ir.Value, error) {
	x, err := l.valueOf(e.Left, nil)
	if err != nil {
		return nil, err
	}

	y, err := l.valueOf(e.Right, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case e.Op.IsShift():
		y = l.coerce(y, types.WithScalar(y.Type(), types.U32))
	case e.Op.IsComparison():
		y = l.coerceScalar(y, x.Type())
	default:
		x = l.coerceScalar(x, e.Ty)
		y = l.coerceScalar(y, e.Ty)
	}

	return l.binaryOp(e.Op, e.Ty, x, y), nil
}

// binaryOp emits op, folding it when both operands are constant.
func (l *Lowerer) binaryOp(op core.BinaryOp, ty types.Type, x, y ir.Value) ir.Value {
	cx, xok := constOf(x)
	cy, yok := constOf(y)

	if xok && yok && types.Width(x.Type()) != 0 && types.Width(y.Type()) != 0 {
		if v, err := constant.Binary(op, cx, cy); err == nil && v.Type() == ty {
			return l.b.Constant(v)
		}
	}

	return l.b.Binary(op, ty, x, y).Value()
}

// shortCircuit lowers && and || to a branch whose merge block has the result
// as a parameter. The right operand is only evaluated on the taken path.
func (l *Lowerer) shortCircuit(e *sem.Binary) (ir.Value, error) {
	lhs, err := l.valueOf(e.Left, types.Bool)
	if err != nil {
		return nil, err
	}

	rhsBlock := l.newBlock()
	merge := l.newBlock()
	res := merge.AddParam(types.Bool)

	var br *ir.Instruction

	if e.Op == core.BinaryLogicalAnd {
		br = l.b.CondBranch(lhs, rhsBlock, merge)
		br.AppendTargetArg(1, l.b.Bool(false))
	} else {
		br = l.b.CondBranch(lhs, merge, rhsBlock)
		br.AppendTargetArg(0, l.b.Bool(true))
	}

	br.SetMerge(merge)

	l.seal(rhsBlock)
	l.enter(rhsBlock)

	rhs, err := l.valueOf(e.Right, types.Bool)
	if err != nil {
		return nil, err
	}

	l.b.Branch(merge, rhs)

	l.seal(merge)
	l.enter(merge)

	return res, nil
}

func (l *Lowerer) construct(e *sem.Construct) (ir.Value, error) {
	if len(e.Args) == 0 {
		zero, ok := constant.Zero(e.Ty)
		if !ok {
			return nil, l.failf(e.Pos(), "%v has no zero value", e.Ty)
		}

		return l.b.Constant(zero), nil
	}

	args := make([]ir.Value, len(e.Args))
	consts := make([]constant.Value, 0, len(e.Args))

	for i, a := range e.Args {
		v, err := l.valueOf(a, nil)
		if err != nil {
			return nil, err
		}

		if el, ok := types.Element(e.Ty, i); ok && types.Width(v.Type()) == types.Width(el) {
			v = l.coerce(v, el)
		} else {
			v = l.coerceScalar(v, e.Ty)
		}

		args[i] = v

		if c, ok := constOf(v); ok {
			consts = append(consts, c)
		}
	}

	if len(consts) == len(args) && len(args) == elementCount(e.Ty) {
		return l.b.Constant(constant.Composite{Ty: e.Ty, Elements: consts}), nil
	}

	return l.b.Construct(e.Ty, args...).Value(), nil
}

// isPlace reports whether e denotes memory rather than a value.
func (l *Lowerer) isPlace(e sem.Expr) bool {
	switch e := e.(type) {
	case *sem.VarRef:
		return e.Var.Kind == sem.VarKindVar && !l.promoted[e.Var]
	case *sem.Deref:
		return true
	case *sem.Index:
		return l.isPlace(e.Base)
	case *sem.Member:
		return l.isPlace(e.Base)
	case *sem.Swizzle:
		return len(e.Components) == 1 && l.isPlace(e.Base)
	}

	return false
}

func (l *Lowerer) location(e sem.Expr) (*place, error) {
	switch e := e.(type) {
	case *sem.VarRef:
		if e.Var.Kind != sem.VarKindVar || l.promoted[e.Var] {
			return nil, l.failf(e.Pos(), "%v %q is not a memory location", e.Var.Kind, e.Var.Name)
		}

		ptr, ok := l.values[e.Var]
		if !ok {
			return nil, l.failf(e.Pos(), "var %q used before its declaration", e.Var.Name)
		}

		return &place{root: ptr, elem: e.Var.Type}, nil

	case *sem.Deref:
		ptr, err := l.valueOf(e.Expr, nil)
		if err != nil {
			return nil, err
		}

		pt, ok := ptr.Type().(types.Pointer)
		if !ok {
			return nil, l.failf(e.Pos(), "dereference of %v", ptr.Type())
		}

		return &place{root: ptr, elem: pt.Elem}, nil

	case *sem.Member:
		p, err := l.subLocation(e.Base)
		if err != nil {
			return nil, err
		}

		p.indices = append(p.indices, l.b.U32(uint32(e.Index)))
		p.elem = e.Ty

		return p, nil

	case *sem.Index:
		p, err := l.subLocation(e.Base)
		if err != nil {
			return nil, err
		}

		idx, err := l.valueOf(e.Index, nil)
		if err != nil {
			return nil, err
		}

		if _, ok := p.elem.(types.Vector); ok {
			p.index = idx
			return p, nil
		}

		p.indices = append(p.indices, idx)
		p.elem = e.Ty

		return p, nil

	case *sem.Swizzle:
		if len(e.Components) != 1 {
			return nil, l.failf(e.Pos(), "a multi-component swizzle is not a memory location")
		}

		p, err := l.subLocation(e.Base)
		if err != nil {
			return nil, err
		}

		p.index = l.b.U32(e.Components[0])

		return p, nil
	}

	return nil, l.failf(e.Pos(), "%T is not a memory location", e)
}

func (l *Lowerer) subLocation(e sem.Expr) (*place, error) {
	p, err := l.location(e)
	if err != nil {
		return nil, err
	}

	if p.index != nil {
		return nil, l.failf(e.Pos(), "component of a vector component")
	}

	return p, nil
}

// pointer emits the access chain of p once.
func (l *Lowerer) pointer(p *place) ir.Value {
	if p.ptr != nil {
		return p.ptr
	}

	p.ptr = p.root

	if len(p.indices) != 0 {
		rp := p.root.Type().(types.Pointer)
		ty := types.Pointer{Elem: p.elem, Space: rp.Space, Access: rp.Access}

		p.ptr = l.b.Access(ty, p.root, p.indices...).Value()
	}

	return p.ptr
}

func (l *Lowerer) load(p *place) ir.Value {
	ptr := l.pointer(p)

	if p.index != nil {
		return l.b.LoadVectorElement(ptr, p.index).Value()
	}

	return l.b.Load(ptr).Value()
}

func (l *Lowerer) store(p *place, v ir.Value) {
	ptr := l.pointer(p)

	if p.index != nil {
		el := p.elem.(types.Vector).Elem
		l.b.StoreVectorElement(ptr, p.index, l.coerce(v, el))

		return
	}

	l.b.Store(ptr, l.coerce(v, p.elem))
}

// coerce converts v to ty when both have the same shape and differ only in
// the element scalar. Constants are folded. Values of any other shape are
// returned unchanged; implicit splats stay visible to the transforms.
func (l *Lowerer) coerce(v ir.Value, ty types.Type) ir.Value {
	if v == nil || ty == nil || v.Type() == ty {
		return v
	}

	w := types.Width(ty)
	if w == 0 || types.Width(v.Type()) != w {
		return v
	}

	if c, ok := constOf(v); ok {
		if cv, err := convertConst(c, ty); err == nil {
			return l.b.Constant(cv)
		}
	}

	return l.b.Convert(ty, v).Value()
}

// coerceScalar converts the element scalar of v to the one of ty, keeping
// the shape of v.
func (l *Lowerer) coerceScalar(v ir.Value, ty types.Type) ir.Value {
	s, ok := types.ScalarOf(ty)
	if !ok {
		return v
	}

	if _, ok := types.ScalarOf(v.Type()); !ok {
		return v
	}

	return l.coerce(v, types.WithScalar(v.Type(), s))
}

func constOf(v ir.Value) (constant.Value, bool) {
	c, ok := ir.AsConstant(v)
	if !ok || c.IsLiteral() {
		return nil, false
	}

	return c.Value, true
}
