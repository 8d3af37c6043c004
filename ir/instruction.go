package ir

import (
	"fmt"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
)

// Op is the operation kind of an instruction.
type Op uint8

const (
	OpVar Op = iota
	OpLet
	OpLoad
	OpStore
	OpLoadVectorElement
	OpStoreVectorElement
	OpAccess
	OpSwizzle
	OpConstruct
	OpConvert
	OpBitcast
	OpUnary
	OpBinary
	OpCall
	OpBuiltinCall
	OpIntrinsicCall
	OpDiscard

	// Terminators. Keep them last, IsTerminator relies on the order.
	OpBranch
	OpCondBranch
	OpSwitch
	OpLoop
	OpReturn
	OpUnreachable
	OpRootTerminator
)

var opNames = [...]string{
	OpVar:                "var",
	OpLet:                "let",
	OpLoad:               "load",
	OpStore:              "store",
	OpLoadVectorElement:  "load_vector_element",
	OpStoreVectorElement: "store_vector_element",
	OpAccess:             "access",
	OpSwizzle:            "swizzle",
	OpConstruct:          "construct",
	OpConvert:            "convert",
	OpBitcast:            "bitcast",
	OpUnary:              "unary",
	OpBinary:             "binary",
	OpCall:               "call",
	OpBuiltinCall:        "builtin",
	OpIntrinsicCall:      "intrinsic",
	OpDiscard:            "discard",
	OpBranch:             "br",
	OpCondBranch:         "cond_br",
	OpSwitch:             "switch",
	OpLoop:               "loop",
	OpReturn:             "ret",
	OpUnreachable:        "unreachable",
	OpRootTerminator:     "root_terminator",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}

	return fmt.Sprintf("Op(%d)", uint8(op))
}

// IsTerminator reports whether op ends a block.
func (op Op) IsTerminator() bool { return op >= OpBranch }

// Flags are instruction properties.
type Flags uint8

const (
	// FlagSequenced marks instructions that must keep their order relative to
	// other sequenced instructions.
	FlagSequenced Flags = 1 << iota
)

// Intrinsic is a backend operation carried by OpIntrinsicCall.
// Backends define their own sets.
type Intrinsic interface {
	String() string
}

// SwitchCase holds the selectors of one switch target.
type SwitchCase struct {
	Selectors []constant.Value
	Default   bool
}

// Instruction is a single operation. The Op field selects which of the
// payload fields are meaningful.
type Instruction struct {
	Op Op

	Binary    core.BinaryOp      // OpBinary
	Unary     core.UnaryOp       // OpUnary
	Builtin   core.BuiltinFn     // OpBuiltinCall
	Intrinsic Intrinsic          // OpIntrinsicCall
	Callee    *Function          // OpCall
	Indices   []uint32           // OpSwizzle
	Binding   *core.BindingPoint // OpVar
	Cases     []SwitchCase       // OpSwitch, parallel to the targets

	operands []Value
	results  []*InstructionResult
	flags    Flags
	block    *Block
	dead     bool

	// Terminators keep their own operands first, then the arguments of each
	// target in order.
	fixed      int
	targets    []*Block
	argCounts  []int
	merge      *Block
	continuing *Block
}

// IsTerminator reports whether the instruction ends a block.
func (inst *Instruction) IsTerminator() bool { return inst.Op.IsTerminator() }

// Block returns the block containing the instruction, or nil if detached.
func (inst *Instruction) Block() *Block { return inst.block }

// Alive reports whether the instruction has not been destroyed.
func (inst *Instruction) Alive() bool { return !inst.dead }

// Flags returns the instruction flags.
func (inst *Instruction) Flags() Flags { return inst.flags }

// Sequenced reports whether FlagSequenced is set.
func (inst *Instruction) Sequenced() bool { return inst.flags&FlagSequenced != 0 }

// SetSequenced sets or clears FlagSequenced.
func (inst *Instruction) SetSequenced(on bool) {
	if on {
		inst.flags |= FlagSequenced
	} else {
		inst.flags &^= FlagSequenced
	}
}

// Operands returns the operand list. The slice must not be modified.
func (inst *Instruction) Operands() []Value { return inst.operands }

// Operand returns the i-th operand.
func (inst *Instruction) Operand(i int) Value { return inst.operands[i] }

// Results returns the values produced by the instruction.
func (inst *Instruction) Results() []*InstructionResult { return inst.results }

// Result returns the i-th result.
func (inst *Instruction) Result(i int) *InstructionResult { return inst.results[i] }

// Value returns the first result, or nil for instructions without results.
func (inst *Instruction) Value() Value {
	if len(inst.results) == 0 {
		return nil
	}

	return inst.results[0]
}

// ReplaceOperand points operand i at v. Both use-lists are updated before it
// returns. v may be nil to clear the slot.
func (inst *Instruction) ReplaceOperand(i int, v Value) {
	old := inst.operands[i]
	if old == v {
		return
	}

	u := Usage{Instruction: inst, Operand: i}

	if old != nil {
		old.base().removeUsage(u)
	}

	inst.operands[i] = v

	if v != nil {
		v.base().addUsage(u)
	}
}

// ReplaceResultsWith points every use of the i-th result at values[i].
func (inst *Instruction) ReplaceResultsWith(values ...Value) {
	if len(values) != len(inst.results) {
		fatalf("%v has %d results, got %d replacements", inst.Op, len(inst.results), len(values))
	}

	for i, r := range inst.results {
		ReplaceAllUsesWith(r, values[i])
	}
}

// ReplaceWith inserts repl in place of inst, moves all uses of inst's
// results to repl's results and destroys inst.
func (inst *Instruction) ReplaceWith(repl *Instruction) {
	repl.InsertBefore(inst)

	vals := make([]Value, len(repl.results))
	for i, r := range repl.results {
		vals[i] = r
	}

	inst.ReplaceResultsWith(vals...)
	inst.Destroy()
}

// Destroy removes the instruction from its block and releases its operands.
// Its results must not be used anymore.
func (inst *Instruction) Destroy() {
	if inst.dead {
		fatalf("%v destroyed twice", inst.Op)
	}

	for _, r := range inst.results {
		if r.IsUsed() {
			fatalf("destroying %v: result still has %d uses", inst.Op, len(r.usages))
		}
	}

	if inst.block != nil {
		inst.block.remove(inst)
	}

	for i := range inst.operands {
		inst.ReplaceOperand(i, nil)
	}

	inst.dead = true
}

// Remove detaches the instruction from its block without touching operands
// or results, so it can be inserted elsewhere.
func (inst *Instruction) Remove() {
	if inst.block == nil {
		fatalf("%v is not in a block", inst.Op)
	}

	inst.block.remove(inst)
}

// InsertBefore inserts the detached instruction before ref.
func (inst *Instruction) InsertBefore(ref *Instruction) {
	if ref.block == nil {
		fatalf("insert before detached %v", ref.Op)
	}

	ref.block.insertAt(ref.block.indexOf(ref), inst)
}

// InsertAfter inserts the detached instruction after ref.
func (inst *Instruction) InsertAfter(ref *Instruction) {
	if ref.block == nil {
		fatalf("insert after detached %v", ref.Op)
	}

	ref.block.insertAt(ref.block.indexOf(ref)+1, inst)
}

func (inst *Instruction) addOperand(v Value) {
	if len(inst.targets) != 0 {
		fatalf("%v: operand added after targets", inst.Op)
	}

	inst.operands = append(inst.operands, nil)
	inst.fixed = len(inst.operands)
	inst.ReplaceOperand(len(inst.operands)-1, v)
}

func (inst *Instruction) insertOperand(i int, v Value) {
	inst.operands = append(inst.operands, nil)

	for j := len(inst.operands) - 1; j > i; j-- {
		w := inst.operands[j-1]
		inst.operands[j] = w

		if w != nil {
			w.base().moveUsage(Usage{inst, j - 1}, Usage{inst, j})
		}
	}

	inst.operands[i] = nil
	inst.ReplaceOperand(i, v)
}

func (inst *Instruction) removeOperand(i int) {
	inst.ReplaceOperand(i, nil)

	for j := i + 1; j < len(inst.operands); j++ {
		if w := inst.operands[j]; w != nil {
			w.base().moveUsage(Usage{inst, j}, Usage{inst, j - 1})
		}
	}

	inst.operands = append(inst.operands[:i], inst.operands[i+1:]...)
}

// Targets returns the successor blocks of a terminator. For switches the
// targets are parallel to Cases. The slice must not be modified.
func (inst *Instruction) Targets() []*Block { return inst.targets }

// SetTarget redirects the i-th successor. The new target must take the same
// number of arguments.
func (inst *Instruction) SetTarget(i int, b *Block) { inst.targets[i] = b }

// TargetArgs returns the arguments passed to the i-th successor.
func (inst *Instruction) TargetArgs(i int) []Value {
	off := inst.argOffset(i)
	return inst.operands[off : off+inst.argCounts[i]]
}

// AppendTargetArg adds an argument to the edge towards the i-th successor.
func (inst *Instruction) AppendTargetArg(i int, v Value) {
	off := inst.argOffset(i) + inst.argCounts[i]
	inst.insertOperand(off, v)
	inst.argCounts[i]++
}

// RemoveTargetArg removes the j-th argument of the edge towards the i-th
// successor.
func (inst *Instruction) RemoveTargetArg(i, j int) {
	if j >= inst.argCounts[i] {
		fatalf("%v: target %d has %d arguments, removing %d", inst.Op, i, inst.argCounts[i], j)
	}

	inst.removeOperand(inst.argOffset(i) + j)
	inst.argCounts[i]--
}

func (inst *Instruction) argOffset(i int) int {
	off := inst.fixed
	for _, n := range inst.argCounts[:i] {
		off += n
	}

	return off
}

func (inst *Instruction) addTarget(b *Block, args ...Value) {
	inst.targets = append(inst.targets, b)
	inst.argCounts = append(inst.argCounts, 0)

	for _, a := range args {
		inst.AppendTargetArg(len(inst.targets)-1, a)
	}
}

// Merge returns the structured merge block of a cond_br, switch or loop.
func (inst *Instruction) Merge() *Block { return inst.merge }

// SetMerge records the structured merge block of a cond_br or switch.
func (inst *Instruction) SetMerge(b *Block) { inst.merge = b }

// Continuing returns the continuing block of a loop.
func (inst *Instruction) Continuing() *Block { return inst.continuing }

// AddCase adds a switch target.
func (inst *Instruction) AddCase(c SwitchCase, target *Block) {
	if inst.Op != OpSwitch {
		fatalf("AddCase on %v", inst.Op)
	}

	inst.Cases = append(inst.Cases, c)
	inst.addTarget(target)
}

// DefaultTarget returns the default block of a switch.
func (inst *Instruction) DefaultTarget() *Block {
	for i, c := range inst.Cases {
		if c.Default {
			return inst.targets[i]
		}
	}

	return nil
}

func (inst *Instruction) String() string {
	return inst.Op.String()
}
