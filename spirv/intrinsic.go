package spirv

// Intrinsic is an operation only the SPIR-V backend understands. It is
// introduced by the builtin_polyfill_spirv transform and emitted verbatim.
type Intrinsic uint8

const (
	// ArrayLength is OpArrayLength. Operands: pointer to the struct, literal
	// member index.
	ArrayLength Intrinsic = iota + 1

	// Select is OpSelect. Operands: condition, value if true, value if
	// false. The condition has as many components as the values.
	Select
)

func (i Intrinsic) String() string {
	switch i {
	case ArrayLength:
		return "spirv.array_length"
	case Select:
		return "spirv.select"
	}

	return "spirv.unknown"
}
