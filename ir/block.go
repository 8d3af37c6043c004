package ir

import (
	"github.com/gogpu/shaderir/types"
)

// BlockID is a stable block handle, unique within a module.
type BlockID uint32

// Block is a sequence of instructions ending in one terminator.
//
// A block is open until its terminator is appended and sealed afterwards.
// Instructions may still be inserted before the terminator of a sealed block.
type Block struct {
	ID BlockID

	mod          *Module
	fn           *Function
	params       []*BlockParam
	instructions []*Instruction
	dead         bool
}

// Function returns the function owning the block, or nil for the root block.
func (b *Block) Function() *Function { return b.fn }

// Module returns the module owning the block.
func (b *Block) Module() *Module { return b.mod }

// Alive reports whether the block has not been removed.
func (b *Block) Alive() bool { return !b.dead }

// Instructions returns the instructions in order. The slice must not be
// modified; copy it before destroying instructions while iterating.
func (b *Block) Instructions() []*Instruction { return b.instructions }

// Len returns the number of instructions.
func (b *Block) Len() int { return len(b.instructions) }

// Front returns the first instruction, or nil.
func (b *Block) Front() *Instruction {
	if len(b.instructions) == 0 {
		return nil
	}

	return b.instructions[0]
}

// Back returns the last instruction, or nil.
func (b *Block) Back() *Instruction {
	if len(b.instructions) == 0 {
		return nil
	}

	return b.instructions[len(b.instructions)-1]
}

// Terminator returns the terminator, or nil while the block is open.
func (b *Block) Terminator() *Instruction {
	if last := b.Back(); last != nil && last.IsTerminator() {
		return last
	}

	return nil
}

// Sealed reports whether the block has a terminator.
func (b *Block) Sealed() bool { return b.Terminator() != nil }

// Append adds inst at the end of the block.
func (b *Block) Append(inst *Instruction) { b.insertAt(len(b.instructions), inst) }

// Prepend adds inst at the start of the block.
func (b *Block) Prepend(inst *Instruction) { b.insertAt(0, inst) }

// Params returns the block parameters. The slice must not be modified.
func (b *Block) Params() []*BlockParam { return b.params }

// AddParam appends a block parameter. Every branch into the block must then
// pass one more argument.
func (b *Block) AddParam(ty types.Type) *BlockParam {
	p := &BlockParam{valueBase: valueBase{typ: b.mod.Types.Get(ty)}, block: b}
	b.params = append(b.params, p)

	return p
}

// RemoveParam removes an unused parameter. The caller removes the matching
// branch arguments.
func (b *Block) RemoveParam(p *BlockParam) {
	if p.IsUsed() {
		fatalf("removing used parameter of %%b%d", b.ID)
	}

	i := p.Index()
	if p.block != b || i < 0 {
		fatalf("parameter does not belong to %%b%d", b.ID)
	}

	b.params = append(b.params[:i], b.params[i+1:]...)
	p.block = nil
}

// Successors returns the distinct successor blocks in terminator order.
func (b *Block) Successors() []*Block {
	t := b.Terminator()
	if t == nil {
		return nil
	}

	var res []*Block

next:
	for _, s := range t.targets {
		for _, x := range res {
			if x == s {
				continue next
			}
		}

		res = append(res, s)
	}

	return res
}

// Predecessors returns the distinct blocks branching to b, in layout order.
func (b *Block) Predecessors() []*Block {
	if b.fn == nil {
		return nil
	}

	var res []*Block

	for _, p := range b.fn.blocks {
		t := p.Terminator()
		if t == nil {
			continue
		}

		for _, s := range t.targets {
			if s == b {
				res = append(res, p)
				break
			}
		}
	}

	return res
}

func (b *Block) indexOf(inst *Instruction) int {
	for i, x := range b.instructions {
		if x == inst {
			return i
		}
	}

	fatalf("%v not found in %%b%d", inst.Op, b.ID)

	return -1
}

func (b *Block) insertAt(i int, inst *Instruction) {
	switch {
	case b.dead:
		fatalf("inserting %v into removed block %%b%d", inst.Op, b.ID)
	case inst.dead:
		fatalf("inserting destroyed %v", inst.Op)
	case inst.block != nil:
		fatalf("%v is already in %%b%d", inst.Op, inst.block.ID)
	}

	term := b.Terminator()

	if inst.IsTerminator() {
		if term != nil {
			fatalf("%%b%d already terminated by %v, appending %v", b.ID, term.Op, inst.Op)
		}

		if i != len(b.instructions) {
			fatalf("terminator %v inserted before the end of %%b%d", inst.Op, b.ID)
		}
	} else if term != nil && i == len(b.instructions) {
		fatalf("%v appended after terminator %v of %%b%d", inst.Op, term.Op, b.ID)
	}

	b.instructions = append(b.instructions, nil)
	copy(b.instructions[i+1:], b.instructions[i:])
	b.instructions[i] = inst
	inst.block = b
}

func (b *Block) remove(inst *Instruction) {
	i := b.indexOf(inst)
	b.instructions = append(b.instructions[:i], b.instructions[i+1:]...)
	inst.block = nil
}
