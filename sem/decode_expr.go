package sem

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

var exprKeys = []string{"lit", "ref", "bin", "un", "call", "construct", "convert", "bitcast", "index", "member", "addr", "deref"}

func (d *decoder) expr(n *yaml.Node) (Expr, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return d.atom(n, n.Value)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "expression must be a scalar or a mapping")
	}

	sp := d.span(n)

	kind := ""

	for _, k := range exprKeys {
		if get(n, k) != nil {
			kind = k
			break
		}
	}

	switch kind {
	case "lit":
		e, err := d.atom(n, scalar(get(n, "lit")))
		if err != nil {
			return nil, err
		}

		if _, ok := e.(*Literal); !ok {
			return nil, d.errorf(n, "not a literal: %q", scalar(get(n, "lit")))
		}

		return e, nil

	case "ref":
		return d.ref(n, scalar(get(n, "ref")))

	case "un":
		op, ok := core.ParseUnaryOp(scalar(get(n, "un")))
		if !ok {
			return nil, d.errorf(n, "unknown unary operator %q", scalar(get(n, "un")))
		}

		x, err := d.required(n, "arg")
		if err != nil {
			return nil, err
		}

		return &Unary{Op: op, Operand: x, Ty: x.Type(), Span: sp}, nil

	case "bin":
		return d.binary(n)

	case "call":
		return d.call(n)

	case "construct", "convert", "bitcast":
		ty, err := d.typ(get(n, kind))
		if err != nil {
			return nil, err
		}

		args, err := d.args(n)
		if err != nil {
			return nil, err
		}

		switch kind {
		case "construct":
			for _, a := range args {
				d.concretize(a, ty)
			}

			return &Construct{Ty: ty, Args: args, Span: sp}, nil
		case "convert":
			if len(args) != 1 {
				return nil, d.errorf(n, "convert takes one argument")
			}

			return &Convert{Ty: ty, Expr: args[0], Span: sp}, nil
		default:
			if len(args) != 1 {
				return nil, d.errorf(n, "bitcast takes one argument")
			}

			return &Bitcast{Ty: ty, Expr: args[0], Span: sp}, nil
		}

	case "index":
		base, err := d.expr(get(n, "index"))
		if err != nil {
			return nil, err
		}

		at, err := d.required(n, "at")
		if err != nil {
			return nil, err
		}

		if !types.IsInteger(at.Type()) {
			return nil, d.errorf(n, "index is %v", at.Type())
		}

		var ty types.Type

		switch bt := base.Type().(type) {
		case types.Vector:
			ty = bt.Elem
		case types.Matrix:
			ty = bt.Column()
		case types.Array:
			ty = bt.Elem
		default:
			return nil, d.errorf(n, "cannot index %v", base.Type())
		}

		return &Index{Base: base, Index: at, Ty: ty, Span: sp}, nil

	case "member":
		return d.member(n)

	case "addr":
		x, err := d.expr(get(n, "addr"))
		if err != nil {
			return nil, err
		}

		root := rootVar(x)
		if root == nil {
			return nil, d.errorf(n, "cannot take the address of this expression")
		}

		var p types.Pointer

		if dr, ok := root.(*Deref); ok {
			p = dr.Expr.Type().(types.Pointer)
		} else {
			v := root.(*VarRef).Var
			if v.Kind != VarKindVar {
				return nil, d.errorf(n, "cannot take the address of %v %q", v.Kind, v.Name)
			}

			p = types.Pointer{Space: v.Space, Access: v.Access}
		}

		p.Elem = x.Type()

		return &AddressOf{Expr: x, Ty: p, Span: sp}, nil

	case "deref":
		x, err := d.expr(get(n, "deref"))
		if err != nil {
			return nil, err
		}

		p, ok := x.Type().(types.Pointer)
		if !ok {
			return nil, d.errorf(n, "cannot dereference %v", x.Type())
		}

		return &Deref{Expr: x, Ty: p.Elem, Span: sp}, nil
	}

	return nil, d.errorf(n, "unknown expression with keys %v", keys(n))
}

// rootVar returns the VarRef or Deref a location expression is based on.
func rootVar(e Expr) Expr {
	for {
		switch x := e.(type) {
		case *VarRef, *Deref:
			return x
		case *Index:
			e = x.Base
		case *Member:
			e = x.Base
		case *Swizzle:
			if len(x.Components) != 1 {
				return nil
			}

			e = x.Base
		default:
			return nil
		}
	}
}

func (d *decoder) required(n *yaml.Node, key string) (Expr, error) {
	x := get(n, key)
	if x == nil {
		return nil, d.errorf(n, "missing %q", key)
	}

	return d.expr(x)
}

func (d *decoder) args(n *yaml.Node) ([]Expr, error) {
	an := get(n, "args")
	if an == nil {
		if x := get(n, "arg"); x != nil {
			e, err := d.expr(x)
			if err != nil {
				return nil, err
			}

			return []Expr{e}, nil
		}

		return nil, nil
	}

	var res []Expr

	for _, x := range seq(an) {
		e, err := d.expr(x)
		if err != nil {
			return nil, err
		}

		res = append(res, e)
	}

	return res, nil
}

func (d *decoder) atom(n *yaml.Node, s string) (Expr, error) {
	if v, abstract, ok := ParseLiteral(s); ok {
		lit := &Literal{Value: v, Span: d.span(n)}

		if abstract {
			d.abstract[lit] = true
		}

		return lit, nil
	}

	return d.ref(n, s)
}

func (d *decoder) ref(n *yaml.Node, name string) (Expr, error) {
	v := d.lookup(name)
	if v == nil {
		return nil, d.errorf(n, "unknown identifier %q", name)
	}

	return &VarRef{Var: v, Span: d.span(n)}, nil
}

func (d *decoder) binary(n *yaml.Node) (Expr, error) {
	op, ok := core.ParseBinaryOp(scalar(get(n, "bin")))
	if !ok {
		return nil, d.errorf(n, "unknown binary operator %q", scalar(get(n, "bin")))
	}

	l, err := d.required(n, "lhs")
	if err != nil {
		return nil, err
	}

	r, err := d.required(n, "rhs")
	if err != nil {
		return nil, err
	}

	if !op.IsShift() {
		d.concretize(l, r.Type())
		d.concretize(r, l.Type())
	} else {
		d.concretize(r, types.U32)
	}

	ty, ok := binaryType(op, l.Type(), r.Type())
	if !ok {
		return nil, d.errorf(n, "operator %v on %v and %v", op, l.Type(), r.Type())
	}

	return &Binary{Op: op, Left: l, Right: r, Ty: ty, Span: d.span(n)}, nil
}

func binaryType(op core.BinaryOp, l, r types.Type) (types.Type, bool) {
	switch {
	case op.IsShortCircuit():
		return types.Bool, l == types.Bool && r == types.Bool
	case op.IsShift():
		return l, types.IsInteger(l) && types.IsUnsigned(r)
	case op.IsComparison():
		if v, ok := l.(types.Vector); ok {
			return types.Vec(v.Size, types.Bool), true
		}

		if v, ok := r.(types.Vector); ok {
			return types.Vec(v.Size, types.Bool), true
		}

		return types.Bool, true
	}

	lm, lIsMat := l.(types.Matrix)
	rm, rIsMat := r.(types.Matrix)
	lv, lIsVec := l.(types.Vector)
	rv, rIsVec := r.(types.Vector)

	switch {
	case op == core.BinaryMultiply && lIsMat && rIsVec:
		return types.Vec(lm.Rows, lm.Elem), true
	case op == core.BinaryMultiply && lIsVec && rIsMat:
		return types.Vec(rm.Columns, rm.Elem), true
	case op == core.BinaryMultiply && lIsMat && rIsMat:
		return types.Matrix{Columns: rm.Columns, Rows: lm.Rows, Elem: lm.Elem}, true
	case lIsMat:
		return l, true
	case rIsMat:
		return r, true
	case lIsVec:
		return l, !rIsVec || rv.Size == lv.Size
	case rIsVec:
		return r, true
	}

	return l, types.IsNumeric(l) || types.IsBool(l)
}

func (d *decoder) call(n *yaml.Node) (Expr, error) {
	name := scalar(get(n, "call"))
	sp := d.span(n)

	args, err := d.args(n)
	if err != nil {
		return nil, err
	}

	if f := d.funcs[name]; f != nil {
		if len(args) != len(f.Params) {
			return nil, d.errorf(n, "%s takes %d arguments, got %d", name, len(f.Params), len(args))
		}

		for i, a := range args {
			d.concretize(a, f.Params[i].Type)
		}

		return &Call{Func: f, Args: args, Span: sp}, nil
	}

	fn, ok := core.ParseBuiltinFn(name)
	if !ok {
		return nil, d.errorf(n, "unknown function %q", name)
	}

	var wide types.Type

	for _, a := range args {
		if _, ok := a.Type().(types.Vector); ok && wide == nil {
			wide = a.Type()
		}
	}

	for _, a := range args {
		if lit, ok := a.(*Literal); !ok || !d.abstract[lit] {
			if wide == nil {
				wide = a.Type()
			}
		}
	}

	if fn != core.BuiltinSelect {
		for _, a := range args {
			d.concretize(a, wide)
		}
	}

	return &BuiltinCall{Builtin: fn, Args: args, Ty: builtinType(fn, args), Span: sp}, nil
}

func builtinType(fn core.BuiltinFn, args []Expr) types.Type {
	switch fn {
	case core.BuiltinWorkgroupBarrier, core.BuiltinStorageBarrier:
		return types.Void{}
	case core.BuiltinAll, core.BuiltinAny:
		return types.Bool
	case core.BuiltinArrayLength:
		return types.U32
	}

	if len(args) == 0 {
		return types.Void{}
	}

	switch fn {
	case core.BuiltinDot, core.BuiltinLength, core.BuiltinDistance:
		sc, _ := types.ScalarOf(args[0].Type())
		return sc
	case core.BuiltinSelect, core.BuiltinCross:
		return args[0].Type()
	}

	for _, a := range args {
		if _, ok := a.Type().(types.Vector); ok {
			return a.Type()
		}
	}

	return args[0].Type()
}

func (d *decoder) member(n *yaml.Node) (Expr, error) {
	base, err := d.expr(get(n, "member"))
	if err != nil {
		return nil, err
	}

	name := scalar(get(n, "name"))
	sp := d.span(n)

	switch bt := base.Type().(type) {
	case *types.Struct:
		i, m, ok := bt.Member(name)
		if !ok {
			return nil, d.errorf(n, "%v has no member %q", bt, name)
		}

		return &Member{Base: base, Index: i, Ty: m.Type, Span: sp}, nil

	case types.Vector:
		comps := make([]uint32, 0, len(name))

		for _, c := range name {
			i := strings.IndexRune("xyzw", c)
			if i < 0 {
				i = strings.IndexRune("rgba", c)
			}

			if i < 0 || i >= int(bt.Size) {
				return nil, d.errorf(n, "bad swizzle %q for %v", name, bt)
			}

			comps = append(comps, uint32(i))
		}

		if len(comps) == 0 || len(comps) > 4 {
			return nil, d.errorf(n, "bad swizzle %q", name)
		}

		var ty types.Type = bt.Elem
		if len(comps) > 1 {
			ty = types.Vec(uint8(len(comps)), bt.Elem)
		}

		return &Swizzle{Base: base, Components: comps, Ty: ty, Span: sp}, nil
	}

	return nil, d.errorf(n, "%v has no members", base.Type())
}
