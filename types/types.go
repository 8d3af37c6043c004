// Package types defines the types carried by IR values.
//
// All types except Struct are comparable values, so two structurally equal
// types compare equal with ==. Structs are nominal and compared by pointer.
package types

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderir/core"
)

// Type is an IR type.
type Type interface {
	String() string
	typeNode()
}

// Void is the type of functions and instructions without a value.
type Void struct{}

func (Void) typeNode()      {}
func (Void) String() string { return "void" }

// Scalar represents scalar types.
type Scalar struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (Scalar) typeNode() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// Builtin scalars.
var (
	Bool = Scalar{Kind: ScalarBool, Width: 1}
	I32  = Scalar{Kind: ScalarSint, Width: 4}
	U32  = Scalar{Kind: ScalarUint, Width: 4}
	F32  = Scalar{Kind: ScalarFloat, Width: 4}
	F16  = Scalar{Kind: ScalarFloat, Width: 2}
)

func (s Scalar) String() string {
	switch s.Kind {
	case ScalarBool:
		return "bool"
	case ScalarSint:
		return fmt.Sprintf("i%d", int(s.Width)*8)
	case ScalarUint:
		return fmt.Sprintf("u%d", int(s.Width)*8)
	case ScalarFloat:
		return fmt.Sprintf("f%d", int(s.Width)*8)
	default:
		return fmt.Sprintf("scalar(%d,%d)", s.Kind, s.Width)
	}
}

// Vector represents vector types.
type Vector struct {
	Size uint8
	Elem Scalar
}

func (Vector) typeNode() {}

func (v Vector) String() string { return fmt.Sprintf("vec%d<%v>", v.Size, v.Elem) }

// Vec returns the vector type with n components of elem.
func Vec(n uint8, elem Scalar) Vector { return Vector{Size: n, Elem: elem} }

// Matrix represents column-major matrix types.
type Matrix struct {
	Columns uint8
	Rows    uint8
	Elem    Scalar
}

func (Matrix) typeNode() {}

func (m Matrix) String() string {
	return fmt.Sprintf("mat%dx%d<%v>", m.Columns, m.Rows, m.Elem)
}

// Column returns the column vector type.
func (m Matrix) Column() Vector { return Vector{Size: m.Rows, Elem: m.Elem} }

// Array represents array types. Count is 0 for runtime-sized arrays.
type Array struct {
	Elem  Type
	Count uint32
}

func (Array) typeNode() {}

func (a Array) String() string {
	if a.Count == 0 {
		return fmt.Sprintf("array<%v>", a.Elem)
	}

	return fmt.Sprintf("array<%v, %d>", a.Elem, a.Count)
}

// RuntimeSized reports whether the array has no fixed length.
func (a Array) RuntimeSized() bool { return a.Count == 0 }

// Struct represents struct types.
type Struct struct {
	Name    string
	Members []StructMember
}

// StructMember represents a struct member.
type StructMember struct {
	Name string
	Type Type
}

func (*Struct) typeNode() {}

func (s *Struct) String() string { return s.Name }

// Member finds a member by name.
func (s *Struct) Member(name string) (int, StructMember, bool) {
	for i, m := range s.Members {
		if m.Name == name {
			return i, m, true
		}
	}

	return -1, StructMember{}, false
}

// Decl renders the struct declaration.
func (s *Struct) Decl() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s = struct {", s.Name)

	for i, m := range s.Members {
		if i != 0 {
			b.WriteString(",")
		}

		fmt.Fprintf(&b, " %s:%v", m.Name, m.Type)
	}

	b.WriteString(" }")

	return b.String()
}

// Pointer represents pointer types.
type Pointer struct {
	Elem   Type
	Space  core.AddressSpace
	Access core.Access
}

func (Pointer) typeNode() {}

func (p Pointer) String() string {
	return fmt.Sprintf("ptr<%v, %v, %v>", p.Space, p.Elem, p.Access)
}

// Ptr returns a pointer type with the default access mode of the space.
func Ptr(space core.AddressSpace, elem Type) Pointer {
	return Pointer{Elem: elem, Space: space, Access: space.DefaultAccess()}
}

// ScalarOf returns the element scalar of scalars, vectors and matrices.
func ScalarOf(t Type) (Scalar, bool) {
	switch t := t.(type) {
	case Scalar:
		return t, true
	case Vector:
		return t.Elem, true
	case Matrix:
		return t.Elem, true
	}

	return Scalar{}, false
}

// IsNumeric reports whether t is a scalar or vector of integers or floats.
func IsNumeric(t Type) bool {
	s, ok := ScalarOf(t)
	return ok && s.Kind != ScalarBool
}

// IsFloat reports whether the element scalar of t is a float.
func IsFloat(t Type) bool { return kindIs(t, ScalarFloat) }

// IsSigned reports whether the element scalar of t is a signed integer.
func IsSigned(t Type) bool { return kindIs(t, ScalarSint) }

// IsUnsigned reports whether the element scalar of t is an unsigned integer.
func IsUnsigned(t Type) bool { return kindIs(t, ScalarUint) }

// IsInteger reports whether the element scalar of t is an integer.
func IsInteger(t Type) bool { return IsSigned(t) || IsUnsigned(t) }

// IsBool reports whether the element scalar of t is bool.
func IsBool(t Type) bool { return kindIs(t, ScalarBool) }

func kindIs(t Type, k ScalarKind) bool {
	s, ok := ScalarOf(t)
	return ok && s.Kind == k
}

// Width returns the number of components of a scalar (1) or vector.
func Width(t Type) int {
	switch t := t.(type) {
	case Scalar:
		return 1
	case Vector:
		return int(t.Size)
	}

	return 0
}

// WithScalar returns a type of the same shape as t with element s.
func WithScalar(t Type, s Scalar) Type {
	switch t := t.(type) {
	case Vector:
		return Vector{Size: t.Size, Elem: s}
	case Matrix:
		return Matrix{Columns: t.Columns, Rows: t.Rows, Elem: s}
	}

	return s
}

// IsVoid reports whether t is nil or Void.
func IsVoid(t Type) bool {
	if t == nil {
		return true
	}

	_, ok := t.(Void)

	return ok
}

// Element returns the type produced by indexing t with index i.
// The index is only consulted for structs.
func Element(t Type, i int) (Type, bool) {
	switch t := t.(type) {
	case Vector:
		return t.Elem, true
	case Matrix:
		return t.Column(), true
	case Array:
		return t.Elem, true
	case *Struct:
		if i < 0 || i >= len(t.Members) {
			return nil, false
		}

		return t.Members[i].Type, true
	}

	return nil, false
}
