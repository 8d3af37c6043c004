package ir

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

// Builder creates instructions at an insertion point.
//
// Instructions are appended to the current block, or inserted before a
// fixed instruction when one is set.
type Builder struct {
	mod    *Module
	block  *Block
	before *Instruction
}

// NewBuilder creates a builder with no insertion point.
func NewBuilder(mod *Module) *Builder {
	return &Builder{mod: mod}
}

// Module returns the module the builder creates values in.
func (b *Builder) Module() *Module { return b.mod }

// Block returns the current insertion block.
func (b *Builder) Block() *Block { return b.block }

// SetInsertionPoint makes the builder append to the end of blk.
func (b *Builder) SetInsertionPoint(blk *Block) {
	b.block = blk
	b.before = nil
}

// SetInsertionBefore makes the builder insert before inst.
func (b *Builder) SetInsertionBefore(inst *Instruction) {
	b.block = inst.Block()
	b.before = inst
}

// Append runs f with the builder appending to blk, then restores the
// previous insertion point.
func (b *Builder) Append(blk *Block, f func()) {
	saved, savedBefore := b.block, b.before
	defer func() { b.block, b.before = saved, savedBefore }()

	b.SetInsertionPoint(blk)
	f()
}

// InsertBefore runs f with the builder inserting before inst, then restores
// the previous insertion point.
func (b *Builder) InsertBefore(inst *Instruction, f func()) {
	saved, savedBefore := b.block, b.before
	defer func() { b.block, b.before = saved, savedBefore }()

	b.SetInsertionBefore(inst)
	f()
}

// Constant returns the module value for v.
func (b *Builder) Constant(v constant.Value) *Constant { return b.mod.Constant(v) }

// LiteralOperand returns a constant the backend encodes in the instruction
// itself. Literal operands are never shared.
func (b *Builder) LiteralOperand(v constant.Value) *Constant {
	return &Constant{
		valueBase: valueBase{typ: b.mod.Types.Get(v.Type())},
		Value:     b.mod.Constants.Get(v),
		literal:   true,
	}
}

// U32 returns the u32 constant v.
func (b *Builder) U32(v uint32) *Constant { return b.Constant(constant.U32(v)) }

// I32 returns the i32 constant v.
func (b *Builder) I32(v int32) *Constant { return b.Constant(constant.I32(v)) }

// F32 returns the f32 constant v.
func (b *Builder) F32(v float32) *Constant { return b.Constant(constant.F32(v)) }

// Bool returns the bool constant v.
func (b *Builder) Bool(v bool) *Constant { return b.Constant(constant.Bool(v)) }

// Zero returns the zero value of t.
func (b *Builder) Zero(t types.Type) *Constant {
	v, ok := constant.Zero(t)
	if !ok {
		fatalf("no zero value for %v", t)
	}

	return b.Constant(v)
}

func (b *Builder) insert(inst *Instruction) *Instruction {
	switch {
	case b.before != nil:
		inst.InsertBefore(b.before)
	case b.block != nil:
		b.block.Append(inst)
	default:
		fatalf("builder has no insertion point for %v", inst.Op)
	}

	return inst
}

func (b *Builder) newInst(op Op, result types.Type, operands ...Value) *Instruction {
	inst := &Instruction{Op: op}

	if result != nil && !types.IsVoid(result) {
		r := &InstructionResult{valueBase: valueBase{typ: b.mod.Types.Get(result)}, inst: inst}
		inst.results = []*InstructionResult{r}
	}

	for _, v := range operands {
		if v == nil {
			fatalf("%v: nil operand", op)
		}

		inst.addOperand(v)
	}

	return inst
}

// Var declares a variable. init may be nil.
func (b *Builder) Var(name string, ptr types.Pointer, init Value) *Instruction {
	inst := b.newInst(OpVar, ptr)
	inst.results[0].name = name

	if init != nil {
		inst.addOperand(init)
	}

	return b.insert(inst)
}

// Let names a value.
func (b *Builder) Let(name string, v Value) *Instruction {
	inst := b.newInst(OpLet, v.Type(), v)
	inst.results[0].name = name

	return b.insert(inst)
}

func pointee(op Op, ptr Value) types.Pointer {
	p, ok := ptr.Type().(types.Pointer)
	if !ok {
		fatalf("%v of non-pointer %v", op, ptr.Type())
	}

	return p
}

// Load reads through a pointer.
func (b *Builder) Load(ptr Value) *Instruction {
	inst := b.newInst(OpLoad, pointee(OpLoad, ptr).Elem, ptr)
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// Store writes v through a pointer.
func (b *Builder) Store(ptr, v Value) *Instruction {
	pointee(OpStore, ptr)

	inst := b.newInst(OpStore, nil, ptr, v)
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// LoadVectorElement reads one component of a vector through a pointer.
func (b *Builder) LoadVectorElement(ptr, index Value) *Instruction {
	vec, ok := pointee(OpLoadVectorElement, ptr).Elem.(types.Vector)
	if !ok {
		fatalf("load_vector_element through %v", ptr.Type())
	}

	inst := b.newInst(OpLoadVectorElement, vec.Elem, ptr, index)
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// StoreVectorElement writes one component of a vector through a pointer.
func (b *Builder) StoreVectorElement(ptr, index, v Value) *Instruction {
	if _, ok := pointee(OpStoreVectorElement, ptr).Elem.(types.Vector); !ok {
		fatalf("store_vector_element through %v", ptr.Type())
	}

	inst := b.newInst(OpStoreVectorElement, nil, ptr, index, v)
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// Access indexes into a composite or a pointer to one. ty is the result type.
func (b *Builder) Access(ty types.Type, base Value, indices ...Value) *Instruction {
	return b.insert(b.newInst(OpAccess, ty, append([]Value{base}, indices...)...))
}

// Swizzle selects vector components. A single index yields a scalar.
func (b *Builder) Swizzle(ty types.Type, v Value, indices ...uint32) *Instruction {
	inst := b.newInst(OpSwizzle, ty, v)
	inst.Indices = append([]uint32(nil), indices...)

	return b.insert(inst)
}

// Construct builds a composite from its elements.
func (b *Builder) Construct(ty types.Type, args ...Value) *Instruction {
	return b.insert(b.newInst(OpConstruct, ty, args...))
}

// Convert performs a value conversion.
func (b *Builder) Convert(ty types.Type, v Value) *Instruction {
	return b.insert(b.newInst(OpConvert, ty, v))
}

// Bitcast reinterprets the bits of v.
func (b *Builder) Bitcast(ty types.Type, v Value) *Instruction {
	return b.insert(b.newInst(OpBitcast, ty, v))
}

// Unary applies op to v.
func (b *Builder) Unary(op core.UnaryOp, ty types.Type, v Value) *Instruction {
	inst := b.newInst(OpUnary, ty, v)
	inst.Unary = op

	return b.insert(inst)
}

// Binary applies op to x and y.
func (b *Builder) Binary(op core.BinaryOp, ty types.Type, x, y Value) *Instruction {
	inst := b.newInst(OpBinary, ty, x, y)
	inst.Binary = op

	return b.insert(inst)
}

// Add is Binary(core.BinaryAdd, ...).
func (b *Builder) Add(ty types.Type, x, y Value) *Instruction {
	return b.Binary(core.BinaryAdd, ty, x, y)
}

// Multiply is Binary(core.BinaryMultiply, ...).
func (b *Builder) Multiply(ty types.Type, x, y Value) *Instruction {
	return b.Binary(core.BinaryMultiply, ty, x, y)
}

// Call calls a user function.
func (b *Builder) Call(fn *Function, args ...Value) *Instruction {
	inst := b.newInst(OpCall, fn.ReturnType, args...)
	inst.Callee = fn
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// BuiltinCall calls a builtin function. ty is the result type.
func (b *Builder) BuiltinCall(ty types.Type, fn core.BuiltinFn, args ...Value) *Instruction {
	inst := b.newInst(OpBuiltinCall, ty, args...)
	inst.Builtin = fn

	if fn.HasSideEffects() {
		inst.flags |= FlagSequenced
	}

	return b.insert(inst)
}

// IntrinsicCall calls a backend intrinsic. ty is the result type.
func (b *Builder) IntrinsicCall(ty types.Type, in Intrinsic, args ...Value) *Instruction {
	inst := b.newInst(OpIntrinsicCall, ty, args...)
	inst.Intrinsic = in

	return b.insert(inst)
}

// Discard demotes the invocation to a helper.
func (b *Builder) Discard() *Instruction {
	inst := b.newInst(OpDiscard, nil)
	inst.flags |= FlagSequenced

	return b.insert(inst)
}

// Branch jumps to target passing args to its parameters.
func (b *Builder) Branch(target *Block, args ...Value) *Instruction {
	inst := b.newInst(OpBranch, nil)
	inst.addTarget(target, args...)

	return b.insert(inst)
}

// CondBranch jumps to t if cond holds and to f otherwise. Edge arguments are
// added with AppendTargetArg.
func (b *Builder) CondBranch(cond Value, t, f *Block) *Instruction {
	inst := b.newInst(OpCondBranch, nil, cond)
	inst.addTarget(t)
	inst.addTarget(f)

	return b.insert(inst)
}

// Switch jumps on an integer selector. Cases are added with AddCase.
func (b *Builder) Switch(selector Value) *Instruction {
	return b.insert(b.newInst(OpSwitch, nil, selector))
}

// Loop enters body. Back edges from continuing go to body again and exits
// go to merge.
func (b *Builder) Loop(body, continuing, merge *Block, args ...Value) *Instruction {
	inst := b.newInst(OpLoop, nil)
	inst.addTarget(body, args...)
	inst.continuing = continuing
	inst.merge = merge

	return b.insert(inst)
}

// Return leaves the function. v is nil for void functions.
func (b *Builder) Return(v Value) *Instruction {
	if v == nil {
		return b.insert(b.newInst(OpReturn, nil))
	}

	return b.insert(b.newInst(OpReturn, nil, v))
}

// Unreachable marks the end of a block control never reaches.
func (b *Builder) Unreachable() *Instruction {
	return b.insert(b.newInst(OpUnreachable, nil))
}

// RootTerminator ends the module root block.
func (b *Builder) RootTerminator() *Instruction {
	return b.insert(b.newInst(OpRootTerminator, nil))
}
