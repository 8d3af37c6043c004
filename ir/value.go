package ir

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/types"
)

// Usage is an operand slot that refers to a value.
type Usage struct {
	Instruction *Instruction
	Operand     int
}

// Value is a node of the operand graph. The set of implementations is closed:
// *Constant, *FunctionParam, *BlockParam and *InstructionResult.
type Value interface {
	// Type returns the type of the value.
	Type() types.Type
	// Name returns the debug name, or "".
	Name() string
	// SetName sets the debug name.
	SetName(name string)
	// Usages returns the operand slots that refer to the value, in the order
	// they started referring to it. The slice must not be modified.
	Usages() []Usage
	// IsUsed reports whether any operand refers to the value.
	IsUsed() bool

	base() *valueBase
}

type valueBase struct {
	typ    types.Type
	name   string
	usages []Usage
}

func (v *valueBase) Type() types.Type    { return v.typ }
func (v *valueBase) Name() string        { return v.name }
func (v *valueBase) SetName(name string) { v.name = name }
func (v *valueBase) Usages() []Usage     { return v.usages }
func (v *valueBase) IsUsed() bool        { return len(v.usages) != 0 }
func (v *valueBase) base() *valueBase    { return v }

func (v *valueBase) addUsage(u Usage) {
	v.usages = append(v.usages, u)
}

func (v *valueBase) removeUsage(u Usage) {
	for i, x := range v.usages {
		if x == u {
			v.usages = append(v.usages[:i], v.usages[i+1:]...)
			return
		}
	}

	fatalf("usage %v#%d not found in use-list", u.Instruction.Op, u.Operand)
}

// moveUsage renumbers a usage in place, keeping its position in the list.
func (v *valueBase) moveUsage(from, to Usage) {
	for i, x := range v.usages {
		if x == from {
			v.usages[i] = to
			return
		}
	}

	fatalf("usage %v#%d not found in use-list", from.Instruction.Op, from.Operand)
}

// Constant is a value holding a compile-time literal.
//
// A literal constant is a backend literal operand: the backend must encode
// it directly in the instruction rather than as a reference to a value.
type Constant struct {
	valueBase

	Value   constant.Value
	literal bool
}

// IsLiteral reports whether c is a literal operand.
func (c *Constant) IsLiteral() bool { return c.literal }

// FunctionParam is a function parameter.
type FunctionParam struct {
	valueBase

	fn    *Function
	index int
}

// Function returns the function the parameter belongs to.
func (p *FunctionParam) Function() *Function { return p.fn }

// Index returns the position of the parameter.
func (p *FunctionParam) Index() int { return p.index }

// BlockParam is a value defined on entry to a block. Each branch into the
// block supplies one argument per parameter.
type BlockParam struct {
	valueBase

	block *Block
}

// Block returns the block defining the parameter.
func (p *BlockParam) Block() *Block { return p.block }

// Index returns the position of the parameter in its block.
func (p *BlockParam) Index() int {
	if p.block == nil {
		return -1
	}

	for i, x := range p.block.params {
		if x == p {
			return i
		}
	}

	return -1
}

// InstructionResult is a value produced by an instruction.
type InstructionResult struct {
	valueBase

	inst *Instruction
}

// Instruction returns the producing instruction.
func (r *InstructionResult) Instruction() *Instruction { return r.inst }

// ReplaceAllUsesWith points every use of old at replacement.
func ReplaceAllUsesWith(old, replacement Value) {
	if old == replacement {
		return
	}

	usages := append([]Usage(nil), old.Usages()...)

	for _, u := range usages {
		u.Instruction.ReplaceOperand(u.Operand, replacement)
	}
}

// Producer returns the instruction that produced v, or nil.
func Producer(v Value) *Instruction {
	if r, ok := v.(*InstructionResult); ok {
		return r.inst
	}

	return nil
}

// AsConstant returns v as a constant if it is one.
func AsConstant(v Value) (*Constant, bool) {
	c, ok := v.(*Constant)
	return c, ok
}
