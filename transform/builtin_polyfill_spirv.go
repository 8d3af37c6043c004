package transform

import (
	"context"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/spirv"
	"github.com/gogpu/shaderir/types"
)

// BuiltinPolyfillSpirv rewrites the builtins that have no direct SPIR-V
// counterpart into spirv intrinsics or core arithmetic.
//
//   - arrayLength(&s.m) becomes spirv.array_length with the struct pointer
//     and the member index as a literal operand.
//   - integer dot becomes a multiply followed by component additions.
//   - select becomes spirv.select with the condition first. A scalar
//     condition used with vectors is splatted.
type BuiltinPolyfillSpirv struct{}

func (BuiltinPolyfillSpirv) Name() string { return "builtin_polyfill_spirv" }

func (p BuiltinPolyfillSpirv) Run(ctx context.Context, mod *ir.Module) error {
	calls := instructions(mod, func(inst *ir.Instruction) bool {
		if inst.Op != ir.OpBuiltinCall {
			return false
		}

		switch inst.Builtin {
		case core.BuiltinArrayLength, core.BuiltinSelect:
			return true
		case core.BuiltinDot:
			return types.IsInteger(inst.Operand(0).Type())
		}

		return false
	})

	b := ir.NewBuilder(mod)

	for _, inst := range calls {
		var err error

		switch inst.Builtin {
		case core.BuiltinArrayLength:
			err = p.arrayLength(b, inst)
		case core.BuiltinDot:
			err = p.dot(b, inst)
		case core.BuiltinSelect:
			err = p.sel(b, inst)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (BuiltinPolyfillSpirv) arrayLength(b *ir.Builder, inst *ir.Instruction) error {
	access := ir.Producer(inst.Operand(0))
	if access == nil || access.Op != ir.OpAccess || len(access.Operands()) < 2 {
		return failf("arrayLength: argument is not the address of a struct member")
	}

	ops := access.Operands()
	base, indices := ops[0], ops[1:]

	last, ok := ir.AsConstant(indices[len(indices)-1])
	if !ok {
		return failf("arrayLength: member index is not a constant")
	}

	member, ok := constIndex(last)
	if !ok {
		return failf("arrayLength: bad member index %v", last.Value)
	}

	bp, ok := base.Type().(types.Pointer)
	if !ok {
		return failf("arrayLength: base is %v, want a pointer", base.Type())
	}

	prefix := indices[:len(indices)-1]

	ty, ok := elementAt(bp.Elem, prefix)
	if !ok {
		return failf("arrayLength: bad access chain into %v", bp.Elem)
	}

	st, ok := ty.(*types.Struct)
	if !ok || int(member) >= len(st.Members) {
		return failf("arrayLength: argument does not point into a struct member")
	}

	if arr, ok := st.Members[member].Type.(types.Array); !ok || !arr.RuntimeSized() {
		return failf("arrayLength: member %q of %v is not a runtime-sized array", st.Members[member].Name, st)
	}

	var call *ir.Instruction

	b.InsertBefore(inst, func() {
		ptr := base

		if len(prefix) != 0 {
			ptr = b.Access(types.Pointer{Elem: st, Space: bp.Space, Access: bp.Access}, base, prefix...).Value()
		}

		call = b.IntrinsicCall(types.U32, spirv.ArrayLength, ptr, b.LiteralOperand(constant.U32(member)))
	})

	replace(inst, call.Value())

	if !access.Value().IsUsed() {
		access.Destroy()
	}

	return nil
}

func (BuiltinPolyfillSpirv) dot(b *ir.Builder, inst *ir.Instruction) error {
	x, y := inst.Operand(0), inst.Operand(1)

	vt, ok := x.Type().(types.Vector)
	if !ok {
		return failf("dot: operand is %v, want a vector", x.Type())
	}

	var sum ir.Value

	b.InsertBefore(inst, func() {
		mul := b.Multiply(vt, x, y).Value()

		for i := 0; i < int(vt.Size); i++ {
			el := b.Access(vt.Elem, mul, b.U32(uint32(i))).Value()

			if sum == nil {
				sum = el
				continue
			}

			sum = b.Add(vt.Elem, sum, el).Value()
		}
	})

	replace(inst, sum)

	return nil
}

func (BuiltinPolyfillSpirv) sel(b *ir.Builder, inst *ir.Instruction) error {
	f, t, cond := inst.Operand(0), inst.Operand(1), inst.Operand(2)
	ty := inst.Value().Type()

	if !types.IsBool(cond.Type()) {
		return failf("select: condition is %v, want bool", cond.Type())
	}

	cw, vw := types.Width(cond.Type()), types.Width(ty)

	if vw == 0 || cw != 1 && cw != vw {
		return failf("select: cannot select %v with a %v condition", ty, cond.Type())
	}

	var call *ir.Instruction

	b.InsertBefore(inst, func() {
		if cw != vw {
			cond = splat(b, types.Vec(uint8(vw), types.Bool), cond)
		}

		call = b.IntrinsicCall(ty, spirv.Select, cond, t, f)
	})

	replace(inst, call.Value())

	return nil
}

// elementAt returns the type reached by indexing t with indices.
func elementAt(t types.Type, indices []ir.Value) (types.Type, bool) {
	for _, idx := range indices {
		i := -1

		if c, ok := ir.AsConstant(idx); ok {
			if n, ok := constIndex(c); ok {
				i = int(n)
			}
		}

		el, ok := types.Element(t, i)
		if !ok {
			return nil, false
		}

		t = el
	}

	return t, true
}

// constIndex returns the value of an integer index constant.
func constIndex(c *ir.Constant) (uint32, bool) {
	s, ok := c.Value.(constant.Scalar)
	if !ok || !types.IsInteger(s.Ty) || s.Int() < 0 || s.Int() > 1<<31 {
		return 0, false
	}

	return uint32(s.Int()), true
}
