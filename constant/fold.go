package constant

import (
	"math"

	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

// Convert converts v component-wise to the type to, which must have the same
// shape as v.
func Convert(v Value, to types.Type) (Value, error) {
	switch v := v.(type) {
	case Scalar:
		dst, ok := to.(types.Scalar)
		if !ok {
			return nil, errors.New("convert %v to %v: shape mismatch", v.Ty, to)
		}

		return convertScalar(v, dst), nil

	case Composite:
		els := make([]Value, len(v.Elements))

		for i, el := range v.Elements {
			elTy, ok := types.Element(to, i)
			if !ok {
				return nil, errors.New("convert %v to %v: shape mismatch", v.Ty, to)
			}

			c, err := Convert(el, elTy)
			if err != nil {
				return nil, err
			}

			els[i] = c
		}

		return Composite{Ty: to, Elements: els}, nil
	}

	return nil, errors.New("convert: unsupported value %T", v)
}

func convertScalar(v Scalar, to types.Scalar) Scalar {
	if v.Ty == to {
		return v
	}

	switch to.Kind {
	case types.ScalarBool:
		return Bool(!v.IsZero())
	case types.ScalarFloat:
		switch v.Ty.Kind {
		case types.ScalarFloat:
			return Float(to, v.Float())
		case types.ScalarSint:
			return Float(to, float64(v.Int()))
		default:
			return Float(to, float64(v.Uint()))
		}
	default:
		switch v.Ty.Kind {
		case types.ScalarFloat:
			return Int(to, truncClamp(v.Float(), to))
		case types.ScalarBool:
			return Int(to, int64(v.Bits))
		default:
			return Int(to, v.Int())
		}
	}
}

func truncClamp(f float64, to types.Scalar) int64 {
	f = math.Trunc(f)

	if to.Kind == types.ScalarUint {
		f = math.Max(0, math.Min(f, math.MaxUint32))
	} else {
		f = math.Max(math.MinInt32, math.Min(f, math.MaxInt32))
	}

	if math.IsNaN(f) {
		return 0
	}

	return int64(f)
}

// Unary folds a unary operator.
func Unary(op core.UnaryOp, v Value) (Value, error) {
	switch v := v.(type) {
	case Scalar:
		return unaryScalar(op, v)
	case Composite:
		return mapComposite(v, func(el Value) (Value, error) { return Unary(op, el) })
	}

	return nil, errors.New("%v: unsupported value %T", op, v)
}

func unaryScalar(op core.UnaryOp, v Scalar) (Value, error) {
	switch op {
	case core.UnaryNegate:
		switch v.Ty.Kind {
		case types.ScalarFloat:
			return Float(v.Ty, -v.Float()), nil
		case types.ScalarSint:
			return Int(v.Ty, -v.Int()), nil
		}
	case core.UnaryNot:
		if v.Ty.Kind == types.ScalarBool {
			return Bool(!v.Bool()), nil
		}
	case core.UnaryComplement:
		if v.Ty.Kind == types.ScalarSint || v.Ty.Kind == types.ScalarUint {
			return Scalar{Ty: v.Ty, Bits: wrap(v.Ty, ^v.Bits)}, nil
		}
	}

	return nil, errors.New("%v: invalid operand type %v", op, v.Ty)
}

// Binary folds a binary operator. A scalar operand is broadcast against a
// vector operand.
func Binary(op core.BinaryOp, a, b Value) (Value, error) {
	as, aok := a.(Scalar)
	bs, bok := b.(Scalar)

	if aok && bok {
		return binaryScalar(op, as, bs)
	}

	ac, acomp := a.(Composite)
	bc, bcomp := b.(Composite)

	switch {
	case acomp && bcomp:
		if len(ac.Elements) != len(bc.Elements) {
			return nil, errors.New("%v: operand shapes differ: %v and %v", op, a.Type(), b.Type())
		}

		els := make([]Value, len(ac.Elements))

		for i := range els {
			el, err := Binary(op, ac.Elements[i], bc.Elements[i])
			if err != nil {
				return nil, err
			}

			els[i] = el
		}

		return Composite{Ty: resultType(op, ac.Ty, els), Elements: els}, nil
	case acomp && bok:
		return mapCompositeTo(op, ac, func(el Value) (Value, error) { return Binary(op, el, bs) })
	case aok && bcomp:
		return mapCompositeTo(op, bc, func(el Value) (Value, error) { return Binary(op, as, el) })
	}

	return nil, errors.New("%v: unsupported operands %T and %T", op, a, b)
}

func binaryScalar(op core.BinaryOp, a, b Scalar) (Value, error) {
	if op.IsShift() {
		if !types.IsInteger(a.Ty) || !types.IsUnsigned(b.Ty) {
			return nil, errors.New("%v: invalid operand types %v and %v", op, a.Ty, b.Ty)
		}

		n := b.Uint() % (uint64(a.Ty.Width) * 8)

		if op == core.BinaryShiftLeft {
			return Scalar{Ty: a.Ty, Bits: wrap(a.Ty, a.Bits<<n)}, nil
		}

		if a.Ty.Kind == types.ScalarSint {
			return Int(a.Ty, a.Int()>>n), nil
		}

		return Scalar{Ty: a.Ty, Bits: a.Bits >> n}, nil
	}

	if a.Ty != b.Ty {
		return nil, errors.New("%v: operand types differ: %v and %v", op, a.Ty, b.Ty)
	}

	if op.IsComparison() {
		c := compare(a, b)

		switch op {
		case core.BinaryEqual:
			return Bool(c == 0), nil
		case core.BinaryNotEqual:
			return Bool(c != 0), nil
		case core.BinaryLess:
			return Bool(c < 0), nil
		case core.BinaryLessEqual:
			return Bool(c <= 0), nil
		case core.BinaryGreater:
			return Bool(c > 0), nil
		default:
			return Bool(c >= 0), nil
		}
	}

	switch a.Ty.Kind {
	case types.ScalarBool:
		switch op {
		case core.BinaryAnd, core.BinaryLogicalAnd:
			return Bool(a.Bool() && b.Bool()), nil
		case core.BinaryOr, core.BinaryLogicalOr:
			return Bool(a.Bool() || b.Bool()), nil
		case core.BinaryXor:
			return Bool(a.Bool() != b.Bool()), nil
		}
	case types.ScalarFloat:
		x, y := a.Float(), b.Float()

		switch op {
		case core.BinaryAdd:
			return Float(a.Ty, x+y), nil
		case core.BinarySubtract:
			return Float(a.Ty, x-y), nil
		case core.BinaryMultiply:
			return Float(a.Ty, x*y), nil
		case core.BinaryDivide:
			return Float(a.Ty, x/y), nil
		case core.BinaryModulo:
			return Float(a.Ty, math.Mod(x, y)), nil
		}
	case types.ScalarSint, types.ScalarUint:
		return binaryInt(op, a, b)
	}

	return nil, errors.New("%v: invalid operand type %v", op, a.Ty)
}

func binaryInt(op core.BinaryOp, a, b Scalar) (Value, error) {
	signed := a.Ty.Kind == types.ScalarSint

	switch op {
	case core.BinaryAdd:
		return Scalar{Ty: a.Ty, Bits: wrap(a.Ty, a.Bits+b.Bits)}, nil
	case core.BinarySubtract:
		return Scalar{Ty: a.Ty, Bits: wrap(a.Ty, a.Bits-b.Bits)}, nil
	case core.BinaryMultiply:
		return Scalar{Ty: a.Ty, Bits: wrap(a.Ty, a.Bits*b.Bits)}, nil
	case core.BinaryAnd:
		return Scalar{Ty: a.Ty, Bits: a.Bits & b.Bits}, nil
	case core.BinaryOr:
		return Scalar{Ty: a.Ty, Bits: a.Bits | b.Bits}, nil
	case core.BinaryXor:
		return Scalar{Ty: a.Ty, Bits: a.Bits ^ b.Bits}, nil
	case core.BinaryDivide, core.BinaryModulo:
		if b.Bits == 0 {
			return nil, errors.New("%v: integer division by zero", op)
		}

		if !signed {
			if op == core.BinaryDivide {
				return Scalar{Ty: a.Ty, Bits: a.Bits / b.Bits}, nil
			}

			return Scalar{Ty: a.Ty, Bits: a.Bits % b.Bits}, nil
		}

		if op == core.BinaryDivide {
			return Int(a.Ty, a.Int()/b.Int()), nil
		}

		return Int(a.Ty, a.Int()%b.Int()), nil
	}

	return nil, errors.New("%v: invalid operand type %v", op, a.Ty)
}

func compare(a, b Scalar) int {
	switch a.Ty.Kind {
	case types.ScalarFloat:
		x, y := a.Float(), b.Float()

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}

		return 0
	case types.ScalarSint:
		x, y := a.Int(), b.Int()

		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}

		return 0
	default:
		switch {
		case a.Bits < b.Bits:
			return -1
		case a.Bits > b.Bits:
			return 1
		}

		return 0
	}
}

func mapComposite(c Composite, f func(Value) (Value, error)) (Value, error) {
	els := make([]Value, len(c.Elements))

	for i, el := range c.Elements {
		v, err := f(el)
		if err != nil {
			return nil, err
		}

		els[i] = v
	}

	return Composite{Ty: c.Ty, Elements: els}, nil
}

func mapCompositeTo(op core.BinaryOp, c Composite, f func(Value) (Value, error)) (Value, error) {
	v, err := mapComposite(c, f)
	if err != nil {
		return nil, err
	}

	res := v.(Composite)
	res.Ty = resultType(op, c.Ty, res.Elements)

	return res, nil
}

func resultType(op core.BinaryOp, ty types.Type, els []Value) types.Type {
	if !op.IsComparison() || len(els) == 0 {
		return ty
	}

	return types.WithScalar(ty, types.Bool)
}
