package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

func TestString(t *testing.T) {
	for _, tc := range []struct {
		v    Value
		want string
	}{
		{U32(2), "2u"},
		{I32(-3), "-3i"},
		{F32(1), "1.0f"},
		{F32(0.1), "0.1f"},
		{F16(2.5), "2.5h"},
		{Bool(true), "true"},
		{Splat(types.Vec(3, types.F32), F32(1)), "vec3<f32>(1.0f, 1.0f, 1.0f)"},
	} {
		assert.Equal(t, tc.want, tc.v.String())
	}
}

func TestIntWrap(t *testing.T) {
	assert.Equal(t, int64(-1), Int(types.I32, -1).Int())
	assert.Equal(t, uint64(0xffffffff), Int(types.U32, -1).Uint())
	assert.Equal(t, I32(-1), Int(types.I32, -1))
}

func TestFold(t *testing.T) {
	v, err := Binary(core.BinaryAdd, U32(0xffffffff), U32(2))
	require.NoError(t, err)
	assert.Equal(t, U32(1), v)

	v, err = Binary(core.BinaryDivide, I32(-7), I32(2))
	require.NoError(t, err)
	assert.Equal(t, I32(-3), v)

	_, err = Binary(core.BinaryModulo, I32(1), I32(0))
	assert.Error(t, err)

	_, err = Binary(core.BinaryAdd, I32(1), U32(1))
	assert.Error(t, err)

	v, err = Binary(core.BinaryLess, F32(1), F32(2))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Binary(core.BinaryShiftLeft, I32(1), U32(4))
	require.NoError(t, err)
	assert.Equal(t, I32(16), v)

	vec := Composite{Ty: types.Vec(2, types.F32), Elements: []Value{F32(1), F32(2)}}

	v, err = Binary(core.BinaryMultiply, vec, F32(2))
	require.NoError(t, err)
	assert.Equal(t, "vec2<f32>(2.0f, 4.0f)", v.String())

	v, err = Binary(core.BinaryEqual, vec, vec)
	require.NoError(t, err)
	assert.Equal(t, types.Type(types.Vec(2, types.Bool)), v.Type())

	v, err = Unary(core.UnaryNegate, vec)
	require.NoError(t, err)
	assert.Equal(t, "vec2<f32>(-1.0f, -2.0f)", v.String())

	v, err = Unary(core.UnaryComplement, U32(0))
	require.NoError(t, err)
	assert.Equal(t, U32(0xffffffff), v)

	_, err = Unary(core.UnaryNot, I32(1))
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	v, err := Convert(F32(-2.7), types.I32)
	require.NoError(t, err)
	assert.Equal(t, I32(-2), v)

	v, err = Convert(F32(-2.7), types.U32)
	require.NoError(t, err)
	assert.Equal(t, U32(0), v)

	v, err = Convert(U32(3), types.F32)
	require.NoError(t, err)
	assert.Equal(t, F32(3), v)

	v, err = Convert(I32(0), types.Bool)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)

	vec := Splat(types.Vec(2, types.I32), I32(5))

	v, err = Convert(vec, types.Vec(2, types.U32))
	require.NoError(t, err)
	assert.Equal(t, "vec2<u32>(5u, 5u)", v.String())

	_, err = Convert(vec, types.U32)
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	z, ok := Zero(types.Matrix{Columns: 2, Rows: 2, Elem: types.F32})
	require.True(t, ok)
	assert.Equal(t, "mat2x2<f32>(vec2<f32>(0.0f, 0.0f), vec2<f32>(0.0f, 0.0f))", z.String())

	_, ok = Zero(types.Array{Elem: types.U32})
	assert.False(t, ok)
}

func TestManager(t *testing.T) {
	m := NewManager()

	a := m.Get(U32(1))
	b := m.Get(U32(1))
	c := m.Get(I32(1))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []Value{U32(1), I32(1)}, m.All())
}
