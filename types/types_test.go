package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
)

func TestTypeString(t *testing.T) {
	buf := &Struct{Name: "Buf", Members: []StructMember{{Name: "n", Type: U32}}}

	for _, tc := range []struct {
		ty   Type
		want string
	}{
		{Void{}, "void"},
		{Bool, "bool"},
		{I32, "i32"},
		{U32, "u32"},
		{F32, "f32"},
		{F16, "f16"},
		{Vec(3, F32), "vec3<f32>"},
		{Matrix{Columns: 2, Rows: 3, Elem: F32}, "mat2x3<f32>"},
		{Array{Elem: F32, Count: 4}, "array<f32, 4>"},
		{Array{Elem: F32}, "array<f32>"},
		{buf, "Buf"},
		{Ptr(core.SpacePrivate, U32), "ptr<private, u32, read_write>"},
		{Ptr(core.SpaceStorage, buf), "ptr<storage, Buf, read>"},
	} {
		assert.Equal(t, tc.want, tc.ty.String())
	}
}

func TestTypeEquality(t *testing.T) {
	var a, b Type = Vec(3, F32), Vector{Size: 3, Elem: F32}
	assert.True(t, a == b)

	p1 := Ptr(core.SpaceFunction, Array{Elem: U32, Count: 2})
	p2 := Pointer{Elem: Array{Elem: U32, Count: 2}, Space: core.SpaceFunction, Access: core.AccessReadWrite}
	assert.True(t, Type(p1) == Type(p2))

	s1 := &Struct{Name: "S"}
	s2 := &Struct{Name: "S"}
	assert.False(t, Type(s1) == Type(s2), "structs are nominal")
}

func TestManager(t *testing.T) {
	m := NewManager()

	v := m.Get(Vec(4, F32))
	assert.Equal(t, Vec(4, F32), v)
	assert.Equal(t, 2, m.Count(), "element registered first")
	assert.Equal(t, []Type{F32, Vec(4, F32)}, m.All())

	m.Get(Vector{Size: 4, Elem: F32})
	assert.Equal(t, 2, m.Count())

	s := &Struct{Name: "S", Members: []StructMember{{Name: "a", Type: I32}, {Name: "b", Type: Vec(2, U32)}}}
	m.Get(Ptr(core.SpaceStorage, s))

	require.True(t, m.Has(s))
	assert.Equal(t, []*Struct{s}, m.Structs())
	assert.Equal(t, Type(Ptr(core.SpaceStorage, s)), m.All()[m.Count()-1])
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsUnsigned(Vec(2, U32)))
	assert.True(t, IsInteger(I32))
	assert.False(t, IsInteger(F32))
	assert.True(t, IsFloat(Matrix{Columns: 2, Rows: 2, Elem: F32}))
	assert.True(t, IsBool(Vec(3, Bool)))
	assert.False(t, IsNumeric(Bool))
	assert.True(t, IsVoid(nil))
	assert.True(t, IsVoid(Void{}))

	assert.Equal(t, 1, Width(U32))
	assert.Equal(t, 3, Width(Vec(3, U32)))
	assert.Equal(t, Type(Vec(3, Bool)), WithScalar(Vec(3, F32), Bool))

	el, ok := Element(Matrix{Columns: 4, Rows: 3, Elem: F32}, 0)
	require.True(t, ok)
	assert.Equal(t, Type(Vec(3, F32)), el)
}

func TestLayout(t *testing.T) {
	for _, tc := range []struct {
		ty   Type
		want Layout
	}{
		{F32, Layout{4, 4}},
		{F16, Layout{2, 2}},
		{Vec(2, F32), Layout{8, 8}},
		{Vec(3, F32), Layout{16, 12}},
		{Vec(4, U32), Layout{16, 16}},
		{Matrix{Columns: 3, Rows: 3, Elem: F32}, Layout{16, 48}},
		{Array{Elem: Vec(3, F32), Count: 2}, Layout{16, 32}},
		{Array{Elem: F32}, Layout{4, 4}},
	} {
		assert.Equal(t, tc.want, LayoutOf(tc.ty), "%v", tc.ty)
	}

	s := &Struct{Name: "S", Members: []StructMember{
		{Name: "a", Type: F32},
		{Name: "b", Type: Vec(3, F32)},
		{Name: "c", Type: F32},
		{Name: "d", Type: Array{Elem: U32}},
	}}

	assert.Equal(t, []uint32{0, 16, 28, 32}, MemberOffsets(s))
	assert.Equal(t, Layout{16, 48}, LayoutOf(s))
}
