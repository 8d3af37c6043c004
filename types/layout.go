package types

// Layout is the host-shareable memory layout of a type.
type Layout struct {
	Align uint32
	Size  uint32
}

// LayoutOf returns the WGSL alignment and size of t.
// Runtime-sized arrays report the size of one element.
func LayoutOf(t Type) Layout {
	switch t := t.(type) {
	case Scalar:
		return Layout{Align: uint32(t.Width), Size: uint32(t.Width)}

	case Vector:
		return vectorLayout(t.Size, uint32(t.Elem.Width))

	case Matrix:
		col := vectorLayout(t.Rows, uint32(t.Elem.Width))
		stride := roundUp(col.Size, col.Align)

		return Layout{Align: col.Align, Size: stride * uint32(t.Columns)}

	case Array:
		el := LayoutOf(t.Elem)
		stride := ArrayStride(t)

		if t.Count == 0 {
			return Layout{Align: el.Align, Size: stride}
		}

		return Layout{Align: el.Align, Size: stride * t.Count}

	case *Struct:
		_, l := structLayout(t)

		return l
	}

	return Layout{Align: 4, Size: 4}
}

// ArrayStride returns the distance between consecutive array elements.
func ArrayStride(a Array) uint32 {
	el := LayoutOf(a.Elem)
	return roundUp(el.Size, el.Align)
}

// MatrixStride returns the distance between matrix columns.
func MatrixStride(m Matrix) uint32 {
	col := vectorLayout(m.Rows, uint32(m.Elem.Width))
	return roundUp(col.Size, col.Align)
}

// MemberOffsets returns the byte offset of each struct member.
func MemberOffsets(s *Struct) []uint32 {
	offsets, _ := structLayout(s)
	return offsets
}

func structLayout(s *Struct) ([]uint32, Layout) {
	offsets := make([]uint32, len(s.Members))

	var offset uint32
	var maxAlign uint32 = 1

	for i, m := range s.Members {
		l := LayoutOf(m.Type)
		if l.Align > maxAlign {
			maxAlign = l.Align
		}

		offset = roundUp(offset, l.Align)
		offsets[i] = offset
		offset += l.Size
	}

	return offsets, Layout{Align: maxAlign, Size: roundUp(offset, maxAlign)}
}

func vectorLayout(n uint8, scalar uint32) Layout {
	switch n {
	case 2:
		return Layout{Align: 2 * scalar, Size: 2 * scalar}
	case 3:
		return Layout{Align: 4 * scalar, Size: 3 * scalar}
	case 4:
		return Layout{Align: 4 * scalar, Size: 4 * scalar}
	default:
		return Layout{Align: scalar, Size: scalar}
	}
}

func roundUp(x, align uint32) uint32 {
	if align == 0 {
		return x
	}

	return (x + align - 1) / align * align
}
