package lower

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/types"
)

// constExpr evaluates e at build time.
func (l *Lowerer) constExpr(e sem.Expr) (constant.Value, error) {
	switch e := e.(type) {
	case *sem.Literal:
		return e.Value, nil

	case *sem.VarRef:
		if e.Var.Kind == sem.VarKindConst {
			v, ok := l.consts[e.Var]
			if !ok {
				return nil, l.failf(e.Pos(), "const %q used before its declaration", e.Var.Name)
			}

			return v, nil
		}

	case *sem.Unary:
		x, err := l.constExpr(e.Operand)
		if err != nil {
			return nil, err
		}

		v, err := constant.Unary(e.Op, x)
		if err != nil {
			return nil, l.failf(e.Pos(), "%v", err)
		}

		return v, nil

	case *sem.Binary:
		x, err := l.constExpr(e.Left)
		if err != nil {
			return nil, err
		}

		y, err := l.constExpr(e.Right)
		if err != nil {
			return nil, err
		}

		if e.Op.IsShift() {
			y, err = convertConst(y, types.WithScalar(y.Type(), types.U32))
		} else if s, ok := types.ScalarOf(x.Type()); ok {
			y, err = convertConst(y, types.WithScalar(y.Type(), s))
		}

		if err != nil {
			return nil, l.failf(e.Pos(), "%v", err)
		}

		v, err := constant.Binary(e.Op, x, y)
		if err != nil {
			return nil, l.failf(e.Pos(), "%v", err)
		}

		return v, nil

	case *sem.Construct:
		return l.constConstruct(e)

	case *sem.Convert:
		x, err := l.constExpr(e.Expr)
		if err != nil {
			return nil, err
		}

		v, err := convertConst(x, e.Ty)
		if err != nil {
			return nil, l.failf(e.Pos(), "%v", err)
		}

		return v, nil

	case *sem.Index:
		base, err := l.constExpr(e.Base)
		if err != nil {
			return nil, err
		}

		idx, err := l.constExpr(e.Index)
		if err != nil {
			return nil, err
		}

		v, ok := constIndex(base, idx)
		if !ok {
			return nil, l.failf(e.Pos(), "index %v out of range of %v", idx, base.Type())
		}

		return v, nil

	case *sem.Member:
		base, err := l.constExpr(e.Base)
		if err != nil {
			return nil, err
		}

		c, ok := base.(constant.Composite)
		if !ok {
			break
		}

		if v, ok := c.Index(e.Index); ok {
			return v, nil
		}

	case *sem.Swizzle:
		base, err := l.constExpr(e.Base)
		if err != nil {
			return nil, err
		}

		c, ok := base.(constant.Composite)
		if !ok {
			break
		}

		els := make([]constant.Value, len(e.Components))

		for i, comp := range e.Components {
			el, ok := c.Index(int(comp))
			if !ok {
				return nil, l.failf(e.Pos(), "swizzle component %d out of range of %v", comp, c.Ty)
			}

			els[i] = el
		}

		if len(els) == 1 {
			return els[0], nil
		}

		return constant.Composite{Ty: e.Ty, Elements: els}, nil
	}

	return nil, l.failf(e.Pos(), "expression is not a constant")
}

func (l *Lowerer) constConstruct(e *sem.Construct) (constant.Value, error) {
	if len(e.Args) == 0 {
		v, ok := constant.Zero(e.Ty)
		if !ok {
			return nil, l.failf(e.Pos(), "%v has no zero value", e.Ty)
		}

		return v, nil
	}

	args := make([]constant.Value, len(e.Args))

	for i, a := range e.Args {
		v, err := l.constExpr(a)
		if err != nil {
			return nil, err
		}

		if el, ok := types.Element(e.Ty, i); ok && types.Width(el) == types.Width(v.Type()) {
			if v, err = convertConst(v, el); err != nil {
				return nil, l.failf(a.Pos(), "%v", err)
			}
		}

		args[i] = v
	}

	if vt, ok := e.Ty.(types.Vector); ok && len(args) == 1 && types.Width(args[0].Type()) == 1 {
		return constant.Splat(vt, args[0]), nil
	}

	// Vectors may be built from smaller vectors.
	if vt, ok := e.Ty.(types.Vector); ok {
		var els []constant.Value

		for _, a := range args {
			if c, ok := a.(constant.Composite); ok {
				els = append(els, c.Elements...)
			} else {
				els = append(els, a)
			}
		}

		args = els

		if len(args) != int(vt.Size) {
			return nil, l.failf(e.Pos(), "%v built from %d components", vt, len(args))
		}
	}

	if n := elementCount(e.Ty); n >= 0 && n != len(args) {
		return nil, l.failf(e.Pos(), "%v needs %d elements, got %d", e.Ty, n, len(args))
	}

	return constant.Composite{Ty: e.Ty, Elements: args}, nil
}

// convertConst returns v as a value of type ty.
func convertConst(v constant.Value, ty types.Type) (constant.Value, error) {
	if v.Type() == ty {
		return v, nil
	}

	return constant.Convert(v, ty)
}

// constIndex selects element idx of a composite constant.
func constIndex(base, idx constant.Value) (constant.Value, bool) {
	c, ok := base.(constant.Composite)
	if !ok {
		return nil, false
	}

	s, ok := idx.(constant.Scalar)
	if !ok || !types.IsInteger(s.Ty) {
		return nil, false
	}

	i := int64(s.Uint())
	if types.IsSigned(s.Ty) {
		i = s.Int()
	}

	if i < 0 || i >= int64(len(c.Elements)) {
		return nil, false
	}

	return c.Index(int(i))
}

// elementCount is the number of elements of a composite, or -1 when t is
// not a fixed-size composite.
func elementCount(t types.Type) int {
	switch t := t.(type) {
	case types.Vector:
		return int(t.Size)
	case types.Matrix:
		return int(t.Columns)
	case types.Array:
		if t.RuntimeSized() {
			return -1
		}

		return int(t.Count)
	case *types.Struct:
		return len(t.Members)
	}

	return -1
}
