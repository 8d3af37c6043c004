// Package constant holds compile-time values: the literals embedded in IR
// constants and the results of folding constant expressions.
package constant

import (
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/shaderir/types"
)

// Value is a compile-time value.
type Value interface {
	Type() types.Type
	String() string
	constantValue()
}

// Scalar represents a scalar constant.
//
// Bits holds the value: two's complement for integers, float64 bits for
// floats (rounded to the precision of the type), 0 or 1 for bools.
type Scalar struct {
	Ty   types.Scalar
	Bits uint64
}

func (Scalar) constantValue() {}

// Type implements Value.
func (s Scalar) Type() types.Type { return s.Ty }

// Composite represents a vector, matrix, array or struct constant.
type Composite struct {
	Ty       types.Type
	Elements []Value
}

func (Composite) constantValue() {}

// Type implements Value.
func (c Composite) Type() types.Type { return c.Ty }

// U32 returns a u32 constant.
func U32(v uint32) Scalar { return Scalar{Ty: types.U32, Bits: uint64(v)} }

// I32 returns an i32 constant.
func I32(v int32) Scalar { return Scalar{Ty: types.I32, Bits: uint64(uint32(v))} }

// F32 returns an f32 constant.
func F32(v float32) Scalar { return Scalar{Ty: types.F32, Bits: math.Float64bits(float64(v))} }

// F16 returns an f16 constant. The value is kept at f32 precision.
func F16(v float32) Scalar { return Scalar{Ty: types.F16, Bits: math.Float64bits(float64(v))} }

// Bool returns a bool constant.
func Bool(v bool) Scalar {
	if v {
		return Scalar{Ty: types.Bool, Bits: 1}
	}

	return Scalar{Ty: types.Bool}
}

// Int returns an integer constant of integer type ty.
func Int(ty types.Scalar, v int64) Scalar {
	return Scalar{Ty: ty, Bits: wrap(ty, uint64(v))}
}

// Float returns a float constant of float type ty.
func Float(ty types.Scalar, v float64) Scalar {
	if ty.Width <= 4 {
		v = float64(float32(v))
	}

	return Scalar{Ty: ty, Bits: math.Float64bits(v)}
}

// Splat returns a vector constant with every component set to el.
func Splat(ty types.Vector, el Value) Composite {
	els := make([]Value, ty.Size)
	for i := range els {
		els[i] = el
	}

	return Composite{Ty: ty, Elements: els}
}

// Int returns the value of an integer scalar as int64.
func (s Scalar) Int() int64 {
	if s.Ty.Kind == types.ScalarSint {
		return int64(int32(s.Bits))
	}

	return int64(s.Bits)
}

// Uint returns the value of an integer scalar as uint64.
func (s Scalar) Uint() uint64 { return s.Bits }

// Float returns the value of a float scalar.
func (s Scalar) Float() float64 { return math.Float64frombits(s.Bits) }

// Bool returns the value of a bool scalar.
func (s Scalar) Bool() bool { return s.Bits != 0 }

// IsZero reports whether the scalar is zero or false.
func (s Scalar) IsZero() bool {
	if s.Ty.Kind == types.ScalarFloat {
		return s.Float() == 0
	}

	return s.Bits == 0
}

func (s Scalar) String() string {
	switch s.Ty.Kind {
	case types.ScalarBool:
		return strconv.FormatBool(s.Bool())
	case types.ScalarSint:
		return strconv.FormatInt(s.Int(), 10) + "i"
	case types.ScalarUint:
		return strconv.FormatUint(s.Uint(), 10) + "u"
	case types.ScalarFloat:
		suffix := "f"
		if s.Ty.Width == 2 {
			suffix = "h"
		}

		return formatFloat(s.Float(), 32) + suffix
	}

	return "<invalid>"
}

func (c Composite) String() string {
	var b strings.Builder

	b.WriteString(c.Ty.String())
	b.WriteByte('(')

	for i, el := range c.Elements {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(el.String())
	}

	b.WriteByte(')')

	return b.String()
}

// Index returns the i-th element of a composite.
func (c Composite) Index(i int) (Value, bool) {
	if i < 0 || i >= len(c.Elements) {
		return nil, false
	}

	return c.Elements[i], true
}

// Key identifies a value structurally. Equal keys mean equal values.
func Key(v Value) string { return v.Type().String() + " " + v.String() }

// Zero returns the zero value of t.
func Zero(t types.Type) (Value, bool) {
	switch t := t.(type) {
	case types.Scalar:
		return Scalar{Ty: t}, true
	case types.Vector:
		return Splat(t, Scalar{Ty: t.Elem}), true
	case types.Matrix:
		col, _ := Zero(t.Column())
		els := make([]Value, t.Columns)

		for i := range els {
			els[i] = col
		}

		return Composite{Ty: t, Elements: els}, true
	case types.Array:
		if t.Count == 0 {
			return nil, false
		}

		el, ok := Zero(t.Elem)
		if !ok {
			return nil, false
		}

		els := make([]Value, t.Count)
		for i := range els {
			els[i] = el
		}

		return Composite{Ty: t, Elements: els}, true
	case *types.Struct:
		els := make([]Value, len(t.Members))

		for i, m := range t.Members {
			el, ok := Zero(m.Type)
			if !ok {
				return nil, false
			}

			els[i] = el
		}

		return Composite{Ty: t, Elements: els}, true
	}

	return nil, false
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}

func wrap(ty types.Scalar, bits uint64) uint64 {
	switch ty.Kind {
	case types.ScalarBool:
		if bits != 0 {
			return 1
		}

		return 0
	case types.ScalarSint, types.ScalarUint:
		if ty.Width < 8 {
			return bits & (1<<(uint(ty.Width)*8) - 1)
		}
	}

	return bits
}
