package sem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

func TestParseType(t *testing.T) {
	s := &types.Struct{Name: "S"}
	structs := map[string]*types.Struct{"S": s}

	for _, tc := range []struct {
		in   string
		want types.Type
	}{
		{"void", types.Void{}},
		{"u32", types.U32},
		{"S", s},
		{"vec3<f32>", types.Vec(3, types.F32)},
		{"vec2u", types.Vec(2, types.U32)},
		{"mat4x4f", types.Matrix{Columns: 4, Rows: 4, Elem: types.F32}},
		{"mat2x3<f16>", types.Matrix{Columns: 2, Rows: 3, Elem: types.F16}},
		{"array<u32, 4>", types.Array{Elem: types.U32, Count: 4}},
		{"array<vec4f>", types.Array{Elem: types.Vec(4, types.F32)}},
		{"array<array<i32, 2>, 3>", types.Array{Elem: types.Array{Elem: types.I32, Count: 2}, Count: 3}},
		{"ptr<function, S>", types.Ptr(core.SpaceFunction, s)},
		{"ptr<storage, array<u32>, read_write>", types.Pointer{Elem: types.Array{Elem: types.U32}, Space: core.SpaceStorage, Access: core.AccessReadWrite}},
	} {
		got, err := ParseType(tc.in, structs)
		if assert.NoError(t, err, tc.in) {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}

	for _, in := range []string{"vec5<f32>", "mat2x2<i32>", "array<u32, 0>", "ptr<nowhere, u32>", "T", "vec3<S>"} {
		_, err := ParseType(in, structs)
		assert.Error(t, err, in)
	}
}

func TestParseLiteral(t *testing.T) {
	for _, tc := range []struct {
		in       string
		want     constant.Value
		abstract bool
	}{
		{"true", constant.Bool(true), false},
		{"false", constant.Bool(false), false},
		{"2u", constant.U32(2), false},
		{"0x10u", constant.U32(16), false},
		{"-3i", constant.I32(-3), false},
		{"7", constant.I32(7), true},
		{"1.5", constant.F32(1.5), true},
		{"2f", constant.F32(2), false},
		{"0.5h", constant.F16(0.5), false},
		{"1e3", constant.F32(1000), true},
	} {
		v, abstract, ok := ParseLiteral(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, v, tc.in)
		assert.Equal(t, tc.abstract, abstract, tc.in)
	}

	for _, in := range []string{"", "x", "1.5u", "99999999999", "abc1u"} {
		_, _, ok := ParseLiteral(in)
		assert.False(t, ok, in)
	}
}
