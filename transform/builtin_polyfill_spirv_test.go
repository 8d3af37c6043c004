package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/spirv"
	"github.com/gogpu/shaderir/types"
)

func TestBuiltinPolyfillSpirv_ArrayLength(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	st := &types.Struct{Name: "Buf", Members: []types.StructMember{
		{Name: "n", Type: types.U32},
		{Name: "data", Type: types.Array{Elem: types.F32}},
	}}

	ptr := types.Pointer{Elem: st, Space: core.SpaceStorage, Access: core.AccessReadWrite}

	b.SetInsertionPoint(mod.Root())
	buf := b.Var("buf", ptr, nil)
	buf.Binding = &core.BindingPoint{Group: 0, Binding: 0}
	b.RootTerminator()

	f := mod.NewFunction("f", types.U32)
	b.SetInsertionPoint(f.Entry())
	data := b.Access(types.Pointer{Elem: st.Members[1].Type, Space: core.SpaceStorage, Access: core.AccessReadWrite}, buf.Value(), b.U32(1))
	n := b.BuiltinCall(types.U32, core.BuiltinArrayLength, data.Value())
	b.Return(n.Value())

	run(t, BuiltinPolyfillSpirv{}, mod)

	insts := f.Entry().Instructions()
	require.Len(t, insts, 2)

	call := insts[0]
	assert.Equal(t, ir.OpIntrinsicCall, call.Op)
	assert.Equal(t, spirv.ArrayLength, call.Intrinsic)
	assert.Equal(t, buf.Value(), call.Operand(0))

	lit, ok := ir.AsConstant(call.Operand(1))
	require.True(t, ok)
	assert.True(t, lit.IsLiteral())

	assert.Contains(t, ir.Disassemble(mod), `%f = func():u32 -> %b2 {
  %b2 = block {
    %3:u32 = spirv.array_length %buf, 1u
    ret %3
  }
}
`)
}

func TestBuiltinPolyfillSpirv_ArrayLengthNotMember(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	f := mod.NewFunction("f", types.U32)
	p := f.AddParam("p", types.Pointer{Elem: types.Array{Elem: types.F32}, Space: core.SpaceStorage, Access: core.AccessRead})

	b.SetInsertionPoint(f.Entry())
	n := b.BuiltinCall(types.U32, core.BuiltinArrayLength, p)
	b.Return(n.Value())

	d := runErr(t, BuiltinPolyfillSpirv{}, mod)
	assert.Contains(t, d.Message, "arrayLength")
}

func TestBuiltinPolyfillSpirv_IntegerDot(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v2 := types.Vec(2, types.I32)

	f := mod.NewFunction("f", types.I32)
	x := f.AddParam("a", v2)
	y := f.AddParam("b", v2)

	b.SetInsertionPoint(f.Entry())
	d := b.BuiltinCall(types.I32, core.BuiltinDot, x, y)
	b.Return(d.Value())

	run(t, BuiltinPolyfillSpirv{}, mod)

	assert.Equal(t, `%f = func(%a:vec2<i32>, %b:vec2<i32>):i32 -> %b1 {
  %b1 = block {
    %4:vec2<i32> = mul %a, %b
    %5:i32 = access %4, 0u
    %6:i32 = access %4, 1u
    %7:i32 = add %5, %6
    ret %7
  }
}
`, ir.Disassemble(mod))
}

func TestBuiltinPolyfillSpirv_FloatDotKept(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v3 := types.Vec(3, types.F32)

	f := mod.NewFunction("f", types.F32)
	x := f.AddParam("a", v3)

	b.SetInsertionPoint(f.Entry())
	d := b.BuiltinCall(types.F32, core.BuiltinDot, x, x)
	b.Return(d.Value())

	run(t, BuiltinPolyfillSpirv{}, mod)

	assert.Contains(t, ir.Disassemble(mod), "= dot %a, %a\n")
}

func TestBuiltinPolyfillSpirv_Select(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v3 := types.Vec(3, types.F32)

	f := mod.NewFunction("f", v3)
	c := f.AddParam("c", types.Bool)
	x := f.AddParam("x", v3)
	y := f.AddParam("y", v3)

	b.SetInsertionPoint(f.Entry())
	s := b.BuiltinCall(v3, core.BuiltinSelect, x, y, c)
	b.Return(s.Value())

	run(t, BuiltinPolyfillSpirv{}, mod)

	assert.Equal(t, `%f = func(%c:bool, %x:vec3<f32>, %y:vec3<f32>):vec3<f32> -> %b1 {
  %b1 = block {
    %5:vec3<bool> = construct %c, %c, %c
    %6:vec3<f32> = spirv.select %5, %y, %x
    ret %6
  }
}
`, ir.Disassemble(mod))
}

func TestBuiltinPolyfillSpirv_SelectScalar(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	f := mod.NewFunction("f", types.U32)
	c := f.AddParam("c", types.Bool)

	b.SetInsertionPoint(f.Entry())
	s := b.BuiltinCall(types.U32, core.BuiltinSelect, b.U32(1), b.U32(2), c)
	b.Return(s.Value())

	run(t, BuiltinPolyfillSpirv{}, mod)

	assert.Contains(t, ir.Disassemble(mod), "%3:u32 = spirv.select %c, 2u, 1u\n")
}
