package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

func splatModule() *ir.Module {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v3 := types.Vec(3, types.F32)

	f := mod.NewFunction("f", v3)
	x := f.AddParam("x", types.F32)
	v := f.AddParam("v", v3)

	b.SetInsertionPoint(f.Entry())
	c := b.Construct(v3, x)
	a := b.Add(v3, v, x)
	m := b.Multiply(v3, a.Value(), x)
	r := b.Add(v3, c.Value(), m.Value())
	b.Return(r.Value())

	return mod
}

func TestExpandImplicitSplats(t *testing.T) {
	mod := splatModule()
	run(t, ExpandImplicitSplats{}, mod)

	assert.Equal(t, `%f = func(%x:f32, %v:vec3<f32>):vec3<f32> -> %b1 {
  %b1 = block {
    %4:vec3<f32> = construct %x, %x, %x
    %5:vec3<f32> = construct %x, %x, %x
    %6:vec3<f32> = add %v, %5
    %7:vec3<f32> = mul %6, %x
    %8:vec3<f32> = add %4, %7
    ret %8
  }
}
`, ir.Disassemble(mod))
}

func TestExpandImplicitSplats_IntegerMultiply(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v2 := types.Vec(2, types.I32)

	f := mod.NewFunction("f", v2)
	s := f.AddParam("s", types.I32)
	v := f.AddParam("v", v2)

	b.SetInsertionPoint(f.Entry())
	m := b.Multiply(v2, s, v)
	b.Return(m.Value())

	run(t, ExpandImplicitSplats{}, mod)

	assert.Contains(t, ir.Disassemble(mod), `    %4:vec2<i32> = construct %s, %s
    %5:vec2<i32> = mul %4, %v
`)
}

func TestExpandImplicitSplats_Mix(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	v2 := types.Vec(2, types.F32)

	f := mod.NewFunction("f", v2)
	x := f.AddParam("x", v2)
	y := f.AddParam("y", v2)
	a := f.AddParam("a", types.F32)

	b.SetInsertionPoint(f.Entry())
	m := b.BuiltinCall(v2, core.BuiltinMix, x, y, a)
	b.Return(m.Value())

	run(t, ExpandImplicitSplats{}, mod)

	assert.Contains(t, ir.Disassemble(mod), `    %5:vec2<f32> = construct %a, %a
    %6:vec2<f32> = mix %x, %y, %5
`)
}

func TestExpandImplicitSplats_NothingToDo(t *testing.T) {
	mod := unaryModule(types.Vec(4, types.F32), types.Vec(4, types.F32), core.BuiltinAbs)
	before := ir.Disassemble(mod)

	run(t, ExpandImplicitSplats{}, mod)

	assert.Equal(t, before, ir.Disassemble(mod))
}

func TestPipeline_Deterministic(t *testing.T) {
	var out []string

	for i := 0; i < 2; i++ {
		m, err := Pipeline([]string{"expand_implicit_splats", "builtin_polyfill", "add_empty_entry_point"}, Config{})
		require.NoError(t, err)

		mod := splatModule()
		require.NoError(t, m.Run(context.Background(), mod))

		out = append(out, ir.Disassemble(mod))
	}

	assert.Equal(t, out[0], out[1])
	assert.Contains(t, out[0], "%unused_entry_point = @compute @workgroup_size(1, 1, 1) func():void")
}
