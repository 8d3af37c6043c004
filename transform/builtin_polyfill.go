package transform

import (
	"context"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

// BuiltinPolyfill replaces builtin calls with simpler instructions of the
// same result type. abs of an unsigned value is always folded to its
// operand; the rest is selected by Config.
type BuiltinPolyfill struct {
	Config PolyfillConfig
}

func (BuiltinPolyfill) Name() string { return "builtin_polyfill" }

func (p BuiltinPolyfill) Run(ctx context.Context, mod *ir.Module) error {
	calls := instructions(mod, func(inst *ir.Instruction) bool {
		if inst.Op != ir.OpBuiltinCall {
			return false
		}

		switch inst.Builtin {
		case core.BuiltinAbs:
			return types.IsUnsigned(inst.Operand(0).Type())
		case core.BuiltinSaturate:
			return p.Config.Saturate
		case core.BuiltinClamp:
			return p.Config.ClampInt && types.IsInteger(inst.Value().Type())
		}

		return false
	})

	b := ir.NewBuilder(mod)

	for _, inst := range calls {
		switch inst.Builtin {
		case core.BuiltinAbs:
			replace(inst, inst.Operand(0))
		case core.BuiltinSaturate:
			p.saturate(b, inst)
		case core.BuiltinClamp:
			if err := p.clampInt(b, inst); err != nil {
				return err
			}
		}
	}

	return nil
}

func (BuiltinPolyfill) saturate(b *ir.Builder, inst *ir.Instruction) {
	ty := inst.Value().Type()
	x := inst.Operand(0)

	var clamp *ir.Instruction

	b.InsertBefore(inst, func() {
		clamp = b.BuiltinCall(ty, core.BuiltinClamp, x, b.Constant(filled(ty, 0)), b.Constant(filled(ty, 1)))
	})

	replace(inst, clamp.Value())
}

func (BuiltinPolyfill) clampInt(b *ir.Builder, inst *ir.Instruction) error {
	ty := inst.Value().Type()
	x, lo, hi := inst.Operand(0), inst.Operand(1), inst.Operand(2)

	if l, ok := ir.AsConstant(lo); ok {
		if h, ok := ir.AsConstant(hi); ok && anyGreater(l.Value, h.Value) {
			return failf("clamp: low bound %v is greater than high bound %v", l.Value, h.Value)
		}
	}

	var res *ir.Instruction

	b.InsertBefore(inst, func() {
		low := b.BuiltinCall(ty, core.BuiltinMax, x, lo)
		res = b.BuiltinCall(ty, core.BuiltinMin, low.Value(), hi)
	})

	replace(inst, res.Value())

	return nil
}

// filled returns a scalar or vector of type t with every component set to v.
func filled(t types.Type, v float64) constant.Value {
	s, _ := types.ScalarOf(t)

	var el constant.Value

	switch s.Kind {
	case types.ScalarFloat:
		el = constant.Float(s, v)
	default:
		el = constant.Int(s, int64(v))
	}

	if vt, ok := t.(types.Vector); ok {
		return constant.Splat(vt, el)
	}

	return el
}

// anyGreater reports whether some component of a is greater than the same
// component of b.
func anyGreater(a, b constant.Value) bool {
	gt, err := constant.Binary(core.BinaryGreater, a, b)
	if err != nil {
		return false
	}

	switch gt := gt.(type) {
	case constant.Scalar:
		return gt.Bool()
	case constant.Composite:
		for _, el := range gt.Elements {
			if el.(constant.Scalar).Bool() {
				return true
			}
		}
	}

	return false
}
