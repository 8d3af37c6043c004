package ir

import (
	"fmt"

	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function string
	Block    BlockID
	Index    int // instruction index in Block, -1 for the block itself
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Block != 0 {
			if e.Index >= 0 {
				return fmt.Sprintf("in function %s, block %d, instruction %d: %s", e.Function, e.Block, e.Index, e.Message)
			}

			return fmt.Sprintf("in function %s, block %d: %s", e.Function, e.Block, e.Message)
		}

		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}

	if e.Block != 0 && e.Index >= 0 {
		return fmt.Sprintf("root block, instruction %d: %s", e.Index, e.Message)
	}

	return e.Message
}

// Validator validates IR modules.
type Validator struct {
	module *Module
	errors []ValidationError

	// Structural checks only: use-lists and terminators.
	structural bool

	context validationContext
}

type validationContext struct {
	function *Function
	block    *Block
	index    int
	blocks   map[*Block]bool
}

// Validate checks the IR module for correctness.
// Returns validation errors if any, or nil if module is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, errors.New("module is nil")
	}

	v := &Validator{module: module}
	v.ValidateModule()

	if len(v.errors) > 0 {
		return v.errors, nil
	}

	return nil, nil
}

// CheckInvariants panics with *InvariantViolation if the use-lists or the
// block terminators of mod are inconsistent.
func CheckInvariants(mod *Module) {
	v := &Validator{module: mod, structural: true}
	v.ValidateModule()

	if len(v.errors) != 0 {
		fatalf("%v", v.errors[0])
	}
}

// ValidateModule validates the complete module.
func (v *Validator) ValidateModule() {
	v.context = validationContext{}
	v.validateBlock(v.module.root)

	names := make(map[string]bool)
	bindings := make(map[core.BindingPoint]bool)

	if !v.structural {
		v.validateRootVars(bindings)
	}

	for _, f := range v.module.functions {
		if names[f.Name] && !v.structural {
			v.addError(fmt.Sprintf("duplicate function name %q", f.Name))
		}

		names[f.Name] = true

		v.validateFunction(f)
	}

	v.validateConstants()
}

// validateConstants checks the use-lists of the shared constants.
func (v *Validator) validateConstants() {
	v.context = validationContext{index: -1}

	for _, cv := range v.module.Constants.All() {
		if c := v.module.consts[constant.Key(cv)]; c != nil {
			v.validateUses(c)
		}
	}
}

func (v *Validator) validateRootVars(bindings map[core.BindingPoint]bool) {
	for i, inst := range v.module.root.instructions {
		v.context.block, v.context.index = v.module.root, i

		if inst.IsTerminator() {
			if inst.Op != OpRootTerminator {
				v.addError(fmt.Sprintf("%v in root block", inst.Op))
			}

			continue
		}

		if inst.Op != OpVar {
			continue
		}

		if inst.Binding != nil {
			if bindings[*inst.Binding] {
				v.addError(fmt.Sprintf("duplicate binding %v", *inst.Binding))
			}

			bindings[*inst.Binding] = true
		}

		if len(inst.operands) != 0 {
			if _, ok := inst.operands[0].(*Constant); !ok {
				v.addError("module variable initializer is not a constant")
			}
		}
	}

	if v.module.root.Terminator() != nil && v.module.root.Terminator().Op != OpRootTerminator {
		v.context.index = -1
		v.addError("root block must end with root_terminator")
	}
}

// validateFunction validates a single function.
func (v *Validator) validateFunction(f *Function) {
	v.context = validationContext{
		function: f,
		blocks:   make(map[*Block]bool, len(f.blocks)),
		index:    -1,
	}

	if len(f.blocks) == 0 {
		v.addError("function has no blocks")
		return
	}

	for _, b := range f.blocks {
		v.context.blocks[b] = true
	}

	for i, p := range f.params {
		v.validateUses(p)

		if p.fn != f || p.index != i {
			v.addError(fmt.Sprintf("parameter %d does not belong to the function", i))
		}
	}

	if !v.structural && f.IsEntryPoint() && f.Stage == core.StageCompute {
		for _, n := range f.WorkgroupSize {
			if n == 0 {
				v.addError("workgroup size must be positive")
				break
			}
		}
	}

	for _, b := range f.blocks {
		v.validateBlock(b)
	}
}

func (v *Validator) validateBlock(b *Block) {
	v.context.block = b
	v.context.index = -1

	if b.dead {
		v.addError("removed block is still in the layout")
	}

	if b.fn != v.context.function {
		v.addError("block is owned by another function")
	}

	for _, p := range b.params {
		v.validateUses(p)

		if p.block != b {
			v.addError("block parameter does not belong to the block")
		}
	}

	if len(b.instructions) == 0 || !b.Back().IsTerminator() {
		v.addError("block has no terminator")
	}

	for i, inst := range b.instructions {
		v.context.index = i

		if inst.IsTerminator() && i != len(b.instructions)-1 {
			v.addError(fmt.Sprintf("terminator %v is not the last instruction", inst.Op))
		}

		if inst.block != b {
			v.addError(fmt.Sprintf("%v does not point back at its block", inst.Op))
		}

		if inst.dead {
			v.addError(fmt.Sprintf("destroyed %v is still in a block", inst.Op))
		}

		v.validateInstruction(inst)
	}
}

func (v *Validator) validateInstruction(inst *Instruction) {
	for i, op := range inst.operands {
		if op == nil {
			v.addError(fmt.Sprintf("%v: operand %d is nil", inst.Op, i))
			continue
		}

		if !hasUsage(op, Usage{Instruction: inst, Operand: i}) {
			v.addError(fmt.Sprintf("%v: operand %d missing from its value's use-list", inst.Op, i))
		}

		if c, ok := op.(*Constant); ok && c.literal {
			v.validateUses(c)
		}
	}

	for _, r := range inst.results {
		if r.inst != inst {
			v.addError(fmt.Sprintf("%v: result not owned by the instruction", inst.Op))
		}

		v.validateUses(r)
	}

	if v.structural {
		return
	}

	for i, op := range inst.operands {
		if op != nil {
			v.validateOperandScope(inst, i, op)
		}
	}

	v.validateTyping(inst)

	if inst.IsTerminator() {
		v.validateTargets(inst)
	}
}

// validateUses checks every usage of val points at itself.
func (v *Validator) validateUses(val Value) {
	for _, u := range val.Usages() {
		switch {
		case u.Instruction.dead:
			v.addError(fmt.Sprintf("value used by destroyed %v", u.Instruction.Op))
		case u.Operand >= len(u.Instruction.operands) || u.Instruction.operands[u.Operand] != val:
			v.addError(fmt.Sprintf("stale usage %v#%d", u.Instruction.Op, u.Operand))
		}
	}
}

func (v *Validator) validateOperandScope(inst *Instruction, i int, op Value) {
	fn := v.context.function

	switch op := op.(type) {
	case *FunctionParam:
		if op.fn != fn {
			v.addError(fmt.Sprintf("%v: operand %d is a parameter of another function", inst.Op, i))
		}
	case *BlockParam:
		if op.block == nil || op.block.fn != fn {
			v.addError(fmt.Sprintf("%v: operand %d is a block parameter of another function", inst.Op, i))
		}
	case *InstructionResult:
		blk := op.inst.block

		switch {
		case blk == nil:
			v.addError(fmt.Sprintf("%v: operand %d is produced by a detached instruction", inst.Op, i))
		case blk.fn != fn && blk != v.module.root:
			v.addError(fmt.Sprintf("%v: operand %d is produced outside the function", inst.Op, i))
		}
	}
}

func (v *Validator) validateTyping(inst *Instruction) {
	switch inst.Op {
	case OpLoad:
		p, ok := inst.operands[0].Type().(types.Pointer)
		if !ok || p.Elem != inst.results[0].Type() {
			v.addError(fmt.Sprintf("load: result %v does not match pointer %v", inst.results[0].Type(), inst.operands[0].Type()))
		}
	case OpStore:
		p, ok := inst.operands[0].Type().(types.Pointer)

		switch {
		case !ok:
			v.addError(fmt.Sprintf("store: %v is not a pointer", inst.operands[0].Type()))
		case p.Elem != inst.operands[1].Type():
			v.addError(fmt.Sprintf("store: value %v does not match pointer %v", inst.operands[1].Type(), p))
		case p.Access == core.AccessRead:
			v.addError(fmt.Sprintf("store: pointer %v is read-only", p))
		}
	case OpVar:
		p := inst.results[0].Type().(types.Pointer)

		if len(inst.operands) != 0 && inst.operands[0].Type() != p.Elem {
			v.addError(fmt.Sprintf("var: initializer %v does not match %v", inst.operands[0].Type(), p.Elem))
		}
	case OpCondBranch:
		if inst.operands[0].Type() != types.Bool {
			v.addError(fmt.Sprintf("cond_br: condition is %v", inst.operands[0].Type()))
		}
	case OpReturn:
		fn := v.context.function
		if fn == nil {
			v.addError("ret outside of a function")
			break
		}

		switch {
		case types.IsVoid(fn.ReturnType) && len(inst.operands) != 0:
			v.addError("ret: value returned from a void function")
		case !types.IsVoid(fn.ReturnType) && len(inst.operands) == 0:
			v.addError(fmt.Sprintf("ret: missing %v value", fn.ReturnType))
		case len(inst.operands) != 0 && inst.operands[0].Type() != fn.ReturnType:
			v.addError(fmt.Sprintf("ret: %v returned from function returning %v", inst.operands[0].Type(), fn.ReturnType))
		}
	case OpCall:
		callee := inst.Callee
		if callee == nil || callee.mod != v.module {
			v.addError("call: callee is not in the module")
			break
		}

		if len(inst.operands) != len(callee.params) {
			v.addError(fmt.Sprintf("call %s: %d arguments, want %d", callee.Name, len(inst.operands), len(callee.params)))
			break
		}

		for i, p := range callee.params {
			if inst.operands[i].Type() != p.Type() {
				v.addError(fmt.Sprintf("call %s: argument %d is %v, want %v", callee.Name, i, inst.operands[i].Type(), p.Type()))
			}
		}
	case OpSwitch:
		if len(inst.Cases) != len(inst.targets) {
			v.addError("switch: cases and targets differ")
		}

		if inst.DefaultTarget() == nil {
			v.addError("switch: no default case")
		}
	}
}

func (v *Validator) validateTargets(inst *Instruction) {
	check := func(what string, b *Block) {
		if b == nil {
			v.addError(fmt.Sprintf("%v: missing %s block", inst.Op, what))
			return
		}

		if !v.context.blocks[b] {
			v.addError(fmt.Sprintf("%v: %s block %d is outside the function", inst.Op, what, b.ID))
		}
	}

	for i, t := range inst.targets {
		check("target", t)

		if t == nil {
			continue
		}

		args := inst.TargetArgs(i)
		if len(args) != len(t.params) {
			v.addError(fmt.Sprintf("%v: %d arguments for block %d with %d parameters", inst.Op, len(args), t.ID, len(t.params)))
			continue
		}

		for j, a := range args {
			if a.Type() != t.params[j].Type() {
				v.addError(fmt.Sprintf("%v: argument %d to block %d is %v, want %v", inst.Op, j, t.ID, a.Type(), t.params[j].Type()))
			}
		}
	}

	if inst.Op == OpLoop {
		check("continuing", inst.continuing)
		check("merge", inst.merge)
	}

	if inst.merge != nil && inst.Op != OpLoop {
		check("merge", inst.merge)
	}
}

func hasUsage(val Value, u Usage) bool {
	for _, x := range val.Usages() {
		if x == u {
			return true
		}
	}

	return false
}

// addError adds a validation error in the current context.
func (v *Validator) addError(msg string) {
	e := ValidationError{Message: msg, Index: v.context.index}

	if v.context.function != nil {
		e.Function = v.context.function.Name
	}

	if v.context.block != nil {
		e.Block = v.context.block.ID
	}

	v.errors = append(v.errors, e)
}
