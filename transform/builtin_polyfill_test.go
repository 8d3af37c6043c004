package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

func TestBuiltinPolyfill_AbsUnsigned(t *testing.T) {
	mod := unaryModule(types.U32, types.U32, core.BuiltinAbs)
	run(t, BuiltinPolyfill{}, mod)

	assert.Equal(t, `%f = func(%x:u32):u32 -> %b1 {
  %b1 = block {
    ret %x
  }
}
`, ir.Disassemble(mod))
}

func TestBuiltinPolyfill_AbsSignedKept(t *testing.T) {
	mod := unaryModule(types.I32, types.I32, core.BuiltinAbs)
	before := ir.Disassemble(mod)

	run(t, BuiltinPolyfill{Config: PolyfillConfig{Saturate: true, ClampInt: true}}, mod)

	assert.Equal(t, before, ir.Disassemble(mod))
}

func TestBuiltinPolyfill_Saturate(t *testing.T) {
	mod := unaryModule(types.F32, types.F32, core.BuiltinSaturate)
	run(t, BuiltinPolyfill{Config: PolyfillConfig{Saturate: true}}, mod)

	assert.Equal(t, `%f = func(%x:f32):f32 -> %b1 {
  %b1 = block {
    %3:f32 = clamp %x, 0.0f, 1.0f
    ret %3
  }
}
`, ir.Disassemble(mod))

	mod = unaryModule(types.Vec(2, types.F32), types.Vec(2, types.F32), core.BuiltinSaturate)
	run(t, BuiltinPolyfill{Config: PolyfillConfig{Saturate: true}}, mod)

	assert.Contains(t, ir.Disassemble(mod), "%3:vec2<f32> = clamp %x, vec2<f32>(0.0f, 0.0f), vec2<f32>(1.0f, 1.0f)\n")

	mod = unaryModule(types.F32, types.F32, core.BuiltinSaturate)
	run(t, BuiltinPolyfill{}, mod)

	assert.Contains(t, ir.Disassemble(mod), "= saturate %x\n")
}

func clampModule(lo, hi int32) *ir.Module {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	f := mod.NewFunction("f", types.I32)
	x := f.AddParam("x", types.I32)

	b.SetInsertionPoint(f.Entry())
	c := b.BuiltinCall(types.I32, core.BuiltinClamp, x, b.I32(lo), b.I32(hi))
	b.Return(c.Value())

	return mod
}

func TestBuiltinPolyfill_ClampInt(t *testing.T) {
	mod := clampModule(0, 10)
	run(t, BuiltinPolyfill{Config: PolyfillConfig{ClampInt: true}}, mod)

	assert.Equal(t, `%f = func(%x:i32):i32 -> %b1 {
  %b1 = block {
    %3:i32 = max %x, 0i
    %4:i32 = min %3, 10i
    ret %4
  }
}
`, ir.Disassemble(mod))
}

func TestBuiltinPolyfill_ClampIntBadBounds(t *testing.T) {
	mod := clampModule(5, 1)

	d := runErr(t, BuiltinPolyfill{Config: PolyfillConfig{ClampInt: true}}, mod)
	assert.Contains(t, d.Message, "low bound 5i is greater than high bound 1i")

	mod = clampModule(5, 1)
	run(t, BuiltinPolyfill{}, mod)
	assert.Contains(t, ir.Disassemble(mod), "clamp %x, 5i, 1i")
}

func TestBuiltinPolyfill_ClampFloatKept(t *testing.T) {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	f := mod.NewFunction("f", types.F32)
	x := f.AddParam("x", types.F32)

	b.SetInsertionPoint(f.Entry())
	c := b.BuiltinCall(types.F32, core.BuiltinClamp, x, b.F32(0), b.F32(2))
	b.Return(c.Value())

	run(t, BuiltinPolyfill{Config: PolyfillConfig{ClampInt: true}}, mod)

	require.Len(t, f.Entry().Instructions(), 2)
	assert.Equal(t, core.BuiltinClamp, f.Entry().Instructions()[0].Builtin)
}
