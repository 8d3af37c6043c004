package transform

import (
	"context"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

// ExpandImplicitSplats makes scalar-to-vector broadcasts explicit:
//
//   - a vector construct from one scalar gets one argument per component;
//   - a binary operator mixing a vector and a scalar gets the scalar
//     splatted, except float multiplication, which backends support
//     natively;
//   - mix with a scalar factor gets the factor splatted.
type ExpandImplicitSplats struct{}

func (ExpandImplicitSplats) Name() string { return "expand_implicit_splats" }

func (ExpandImplicitSplats) Run(ctx context.Context, mod *ir.Module) error {
	list := instructions(mod, func(inst *ir.Instruction) bool {
		switch inst.Op {
		case ir.OpConstruct:
			return len(inst.Operands()) == 1 && isVector(inst.Value().Type()) && types.Width(inst.Operand(0).Type()) == 1
		case ir.OpBinary:
			return splatOperand(inst) >= 0
		case ir.OpBuiltinCall:
			return inst.Builtin == core.BuiltinMix && isVector(inst.Value().Type()) && types.Width(inst.Operand(2).Type()) == 1
		}

		return false
	})

	b := ir.NewBuilder(mod)

	for _, inst := range list {
		switch inst.Op {
		case ir.OpConstruct:
			vt := inst.Value().Type().(types.Vector)
			x := inst.Operand(0)

			var v ir.Value

			b.InsertBefore(inst, func() { v = splat(b, vt, x) })

			replace(inst, v)

		case ir.OpBinary:
			i := splatOperand(inst)
			other := inst.Operand(1 - i).Type().(types.Vector)

			b.InsertBefore(inst, func() {
				s := inst.Operand(i)
				sc, _ := types.ScalarOf(s.Type())

				inst.ReplaceOperand(i, splat(b, types.Vec(other.Size, sc), s))
			})

		case ir.OpBuiltinCall:
			vt := inst.Value().Type().(types.Vector)

			b.InsertBefore(inst, func() {
				inst.ReplaceOperand(2, splat(b, vt, inst.Operand(2)))
			})
		}
	}

	return nil
}

// splatOperand returns the index of the scalar operand of a binary
// instruction that needs a splat, or -1.
func splatOperand(inst *ir.Instruction) int {
	x, y := inst.Operand(0).Type(), inst.Operand(1).Type()

	var i int

	switch {
	case isVector(x) && types.Width(y) == 1:
		i = 1
	case types.Width(x) == 1 && isVector(y):
		i = 0
	default:
		return -1
	}

	if inst.Binary == core.BinaryMultiply && types.IsFloat(x) && types.IsFloat(y) {
		return -1
	}

	return i
}

// splat emits a construct broadcasting the scalar x to vt.
func splat(b *ir.Builder, vt types.Vector, x ir.Value) ir.Value {
	args := make([]ir.Value, vt.Size)
	for i := range args {
		args[i] = x
	}

	return b.Construct(vt, args...).Value()
}

func isVector(t types.Type) bool {
	_, ok := t.(types.Vector)
	return ok
}
