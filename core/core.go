// Package core holds the language-level enumerations shared by the semantic
// tree, the IR and the backends: address spaces, access modes, shader stages,
// operators and builtin functions.
package core

import "fmt"

// AddressSpace represents memory address spaces.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkgroup
	SpaceUniform
	SpaceStorage
	SpaceHandle
)

var addressSpaceNames = [...]string{
	SpaceFunction:  "function",
	SpacePrivate:   "private",
	SpaceWorkgroup: "workgroup",
	SpaceUniform:   "uniform",
	SpaceStorage:   "storage",
	SpaceHandle:    "handle",
}

func (s AddressSpace) String() string {
	if int(s) < len(addressSpaceNames) {
		return addressSpaceNames[s]
	}

	return fmt.Sprintf("AddressSpace(%d)", uint8(s))
}

// ParseAddressSpace returns the address space with the given WGSL name.
func ParseAddressSpace(name string) (AddressSpace, bool) {
	for i, n := range addressSpaceNames {
		if n == name {
			return AddressSpace(i), true
		}
	}

	return 0, false
}

// DefaultAccess is the access mode a variable gets when none is spelled out.
func (s AddressSpace) DefaultAccess() Access {
	switch s {
	case SpaceUniform, SpaceStorage, SpaceHandle:
		return AccessRead
	default:
		return AccessReadWrite
	}
}

// Access is a pointer access mode.
type Access uint8

const (
	AccessReadWrite Access = iota
	AccessRead
	AccessWrite
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return fmt.Sprintf("Access(%d)", uint8(a))
	}
}

// ParseAccess returns the access mode with the given WGSL name.
func ParseAccess(name string) (Access, bool) {
	switch name {
	case "read":
		return AccessRead, true
	case "write":
		return AccessWrite, true
	case "read_write":
		return AccessReadWrite, true
	}

	return 0, false
}

// Stage is a shader pipeline stage. StageNone marks a plain function.
type Stage uint8

const (
	StageNone Stage = iota
	StageVertex
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ParseStage returns the stage with the given attribute name.
func ParseStage(name string) (Stage, bool) {
	switch name {
	case "", "none":
		return StageNone, true
	case "vertex":
		return StageVertex, true
	case "fragment":
		return StageFragment, true
	case "compute":
		return StageCompute, true
	}

	return 0, false
}

// BindingPoint is a resource binding: @group(Group) @binding(Binding).
type BindingPoint struct {
	Group   uint32
	Binding uint32
}

func (b BindingPoint) String() string {
	return fmt.Sprintf("@binding_point(%d, %d)", b.Group, b.Binding)
}
