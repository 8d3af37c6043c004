package spirv

import (
	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

func (s *function) emitInst(inst *ir.Instruction) (err error) {
	var ty, id uint32

	if len(inst.Results()) != 0 && inst.Op != ir.OpLet {
		if ty, err = s.typeID(inst.Result(0).Type()); err != nil {
			return err
		}

		id = s.values[inst.Result(0)]
	}

	var ops []uint32

	switch inst.Op {
	case ir.OpLet, ir.OpIntrinsicCall, ir.OpBranch, ir.OpCondBranch, ir.OpSwitch, ir.OpLoop, ir.OpReturn, ir.OpUnreachable, ir.OpRootTerminator:
	default:
		if ops, err = s.ids(inst.Operands()); err != nil {
			return err
		}
	}

	switch inst.Op {
	case ir.OpVar:
		if len(ops) != 0 {
			s.builder.AddOp(OpStore, id, ops[0])
		}

	case ir.OpLet:

	case ir.OpLoad:
		s.builder.AddCode(OpLoad, ty, id, ops[0])

	case ir.OpStore:
		s.builder.AddOp(OpStore, ops[0], ops[1])

	case ir.OpLoadVectorElement:
		ptr, err := s.elementPointer(inst.Operand(0), ops[0], ops[1])
		if err != nil {
			return err
		}

		s.builder.AddCode(OpLoad, ty, id, ptr)

	case ir.OpStoreVectorElement:
		ptr, err := s.elementPointer(inst.Operand(0), ops[0], ops[1])
		if err != nil {
			return err
		}

		s.builder.AddOp(OpStore, ptr, ops[2])

	case ir.OpAccess:
		return s.access(inst, ty, id, ops)

	case ir.OpSwizzle:
		if len(inst.Indices) == 1 {
			s.builder.AddCode(OpCompositeExtract, ty, id, ops[0], inst.Indices[0])
			break
		}

		s.builder.AddCode(OpVectorShuffle, ty, id, append([]uint32{ops[0], ops[0]}, inst.Indices...)...)

	case ir.OpConstruct:
		rt := inst.Result(0).Type()

		if _, ok := rt.(types.Matrix); ok {
			for _, v := range inst.Operands() {
				if _, ok := v.Type().(types.Vector); !ok {
					return errors.New("matrix construct from %v, want column vectors", v.Type())
				}
			}
		}

		if types.Width(rt) == 1 {
			s.builder.AddCode(OpCopyObject, ty, id, ops[0])
			break
		}

		s.builder.AddCode(OpCompositeConstruct, ty, id, ops...)

	case ir.OpConvert:
		return s.convert(inst, ty, id, ops[0])

	case ir.OpBitcast:
		s.builder.AddCode(OpBitcast, ty, id, ops[0])

	case ir.OpUnary:
		return s.unary(inst, ty, id, ops[0])

	case ir.OpBinary:
		return s.binary(inst, ty, id, ops[0], ops[1])

	case ir.OpCall:
		if id == 0 {
			if ty, err = s.typeID(types.Void{}); err != nil {
				return err
			}

			id = s.builder.AllocID()
		}

		s.builder.AddCode(OpFunctionCall, ty, id, append([]uint32{s.functionIDs[inst.Callee]}, ops...)...)

	case ir.OpBuiltinCall:
		return s.builtin(inst, ty, id, ops)

	case ir.OpIntrinsicCall:
		return s.intrinsic(inst, ty, id)

	case ir.OpDiscard:
		s.builder.AddExtension("SPV_EXT_demote_to_helper_invocation")
		s.builder.AddCapability(CapabilityDemoteToHelperInvocationEXT)
		s.builder.AddOp(OpDemoteToHelperInvocationEXT)

	case ir.OpBranch:
		return s.branch(inst, 0)

	case ir.OpCondBranch:
		return s.condBranch(inst)

	case ir.OpSwitch:
		return s.switchBranch(inst)

	case ir.OpLoop:
		s.builder.AddOp(OpBranch, s.target(inst.Targets()[0]))

	case ir.OpReturn:
		if ops := inst.Operands(); len(ops) != 0 {
			v, err := s.value(ops[0])
			if err != nil {
				return err
			}

			s.builder.AddOp(OpReturnValue, v)
			break
		}

		s.builder.AddOp(OpReturn)

	case ir.OpUnreachable:
		s.builder.AddOp(OpUnreachable)

	default:
		return errors.New("unsupported instruction %v", inst.Op)
	}

	return nil
}

// elementPointer returns a pointer to component idx of the vector ptr
// points to.
func (s *function) elementPointer(ptr ir.Value, ptrID, idx uint32) (uint32, error) {
	p := ptr.Type().(types.Pointer)
	vt := p.Elem.(types.Vector)

	ty, err := s.typeID(types.Pointer{Elem: vt.Elem, Space: p.Space})
	if err != nil {
		return 0, err
	}

	return s.builder.AddInst(OpAccessChain, ty, ptrID, idx), nil
}

func (s *function) access(inst *ir.Instruction, ty, id uint32, ops []uint32) error {
	base := inst.Operand(0)

	if _, ok := base.Type().(types.Pointer); ok {
		s.builder.AddCode(OpAccessChain, ty, id, ops...)
		return nil
	}

	if lits, ok := constIndices(inst.Operands()[1:]); ok {
		s.builder.AddCode(OpCompositeExtract, ty, id, append([]uint32{ops[0]}, lits...)...)
		return nil
	}

	if _, ok := base.Type().(types.Vector); ok && len(ops) == 2 {
		s.builder.AddCode(OpVectorExtractDynamic, ty, id, ops[0], ops[1])
		return nil
	}

	return errors.New("dynamic index into a %v value", base.Type())
}

func constIndices(vs []ir.Value) ([]uint32, bool) {
	res := make([]uint32, len(vs))

	for i, v := range vs {
		w, ok := constWord(v)
		if !ok {
			return nil, false
		}

		res[i] = w
	}

	return res, true
}

// constWord returns the value of an integer constant as an instruction word.
func constWord(v ir.Value) (uint32, bool) {
	c, ok := ir.AsConstant(v)
	if !ok {
		return 0, false
	}

	sc, ok := c.Value.(constant.Scalar)
	if !ok || !types.IsInteger(sc.Ty) {
		return 0, false
	}

	return uint32(sc.Bits), true
}

func (s *function) convert(inst *ir.Instruction, ty, id, x uint32) error {
	from, _ := types.ScalarOf(inst.Operand(0).Type())
	rt := inst.Result(0).Type()
	to, _ := types.ScalarOf(rt)

	switch {
	case from == to:
		s.builder.AddCode(OpCopyObject, ty, id, x)

	case from.Kind == types.ScalarBool:
		one, err := s.constantID(filled(rt, 1))
		if err != nil {
			return err
		}

		zero, err := s.constantID(filled(rt, 0))
		if err != nil {
			return err
		}

		s.builder.AddCode(OpSelect, ty, id, x, one, zero)

	case to.Kind == types.ScalarBool:
		zero, err := s.constantID(filled(inst.Operand(0).Type(), 0))
		if err != nil {
			return err
		}

		op := OpINotEqual
		if from.Kind == types.ScalarFloat {
			op = OpFUnordNotEqual
		}

		s.builder.AddCode(op, ty, id, x, zero)

	default:
		op, ok := convertOps[[2]types.ScalarKind{from.Kind, to.Kind}]
		if !ok {
			return errors.New("conversion from %v to %v", from, to)
		}

		if op == OpBitcast && from.Width != to.Width {
			op = OpUConvert
			if to.Kind == types.ScalarSint {
				op = OpSConvert
			}
		}

		s.builder.AddCode(op, ty, id, x)
	}

	return nil
}

var convertOps = map[[2]types.ScalarKind]OpCode{
	{types.ScalarFloat, types.ScalarFloat}: OpFConvert,
	{types.ScalarFloat, types.ScalarSint}:  OpConvertFToS,
	{types.ScalarFloat, types.ScalarUint}:  OpConvertFToU,
	{types.ScalarSint, types.ScalarFloat}:  OpConvertSToF,
	{types.ScalarUint, types.ScalarFloat}:  OpConvertUToF,
	{types.ScalarSint, types.ScalarUint}:   OpBitcast,
	{types.ScalarUint, types.ScalarSint}:   OpBitcast,
	{types.ScalarSint, types.ScalarSint}:   OpBitcast,
	{types.ScalarUint, types.ScalarUint}:   OpBitcast,
}

// filled returns a scalar or vector of type t with every component set to v.
func filled(t types.Type, v float64) constant.Value {
	sc, _ := types.ScalarOf(t)

	var el constant.Value

	switch sc.Kind {
	case types.ScalarFloat:
		el = constant.Float(sc, v)
	case types.ScalarBool:
		el = constant.Bool(v != 0)
	default:
		el = constant.Int(sc, int64(v))
	}

	if vt, ok := t.(types.Vector); ok {
		return constant.Splat(vt, el)
	}

	return el
}

func (s *function) unary(inst *ir.Instruction, ty, id, x uint32) error {
	t := inst.Operand(0).Type()

	var op OpCode

	switch inst.Unary {
	case core.UnaryNegate:
		op = OpSNegate
		if types.IsFloat(t) {
			op = OpFNegate
		}
	case core.UnaryNot:
		op = OpLogicalNot
	case core.UnaryComplement:
		op = OpNot
	default:
		return errors.New("unsupported unary operator %v", inst.Unary)
	}

	s.builder.AddCode(op, ty, id, x)

	return nil
}

// binaryOps lists the opcode of each operator for float, signed, unsigned
// and bool operands.
var binaryOps = map[core.BinaryOp][4]OpCode{
	core.BinaryAdd:          {OpFAdd, OpIAdd, OpIAdd, 0},
	core.BinarySubtract:     {OpFSub, OpISub, OpISub, 0},
	core.BinaryMultiply:     {OpFMul, OpIMul, OpIMul, 0},
	core.BinaryDivide:       {OpFDiv, OpSDiv, OpUDiv, 0},
	core.BinaryModulo:       {OpFRem, OpSRem, OpUMod, 0},
	core.BinaryAnd:          {0, OpBitwiseAnd, OpBitwiseAnd, OpLogicalAnd},
	core.BinaryOr:           {0, OpBitwiseOr, OpBitwiseOr, OpLogicalOr},
	core.BinaryXor:          {0, OpBitwiseXor, OpBitwiseXor, OpLogicalNotEqual},
	core.BinaryLogicalAnd:   {0, 0, 0, OpLogicalAnd},
	core.BinaryLogicalOr:    {0, 0, 0, OpLogicalOr},
	core.BinaryEqual:        {OpFOrdEqual, OpIEqual, OpIEqual, OpLogicalEqual},
	core.BinaryNotEqual:     {OpFUnordNotEqual, OpINotEqual, OpINotEqual, OpLogicalNotEqual},
	core.BinaryLess:         {OpFOrdLessThan, OpSLessThan, OpULessThan, 0},
	core.BinaryLessEqual:    {OpFOrdLessThanEqual, OpSLessThanEqual, OpULessThanEqual, 0},
	core.BinaryGreater:      {OpFOrdGreaterThan, OpSGreaterThan, OpUGreaterThan, 0},
	core.BinaryGreaterEqual: {OpFOrdGreaterThanEqual, OpSGreaterThanEqual, OpUGreaterThanEqual, 0},
	core.BinaryShiftLeft:    {0, OpShiftLeftLogical, OpShiftLeftLogical, 0},
	core.BinaryShiftRight:   {0, OpShiftRightArithmetic, OpShiftRightLogical, 0},
}

func kindIndex(t types.Type) int {
	sc, _ := types.ScalarOf(t)

	switch sc.Kind {
	case types.ScalarFloat:
		return 0
	case types.ScalarSint:
		return 1
	case types.ScalarUint:
		return 2
	default:
		return 3
	}
}

func (s *function) binary(inst *ir.Instruction, ty, id, x, y uint32) error {
	tx, ty2 := inst.Operand(0).Type(), inst.Operand(1).Type()

	if inst.Binary == core.BinaryMultiply {
		if op, swap, ok := multiplyOp(tx, ty2); ok {
			if swap {
				x, y = y, x
			}

			s.builder.AddCode(op, ty, id, x, y)

			return nil
		}
	}

	if types.Width(tx) != types.Width(ty2) || types.Width(tx) == 0 {
		return errors.New("%v of %v and %v; mixed shapes need expand_implicit_splats", inst.Binary, tx, ty2)
	}

	op := binaryOps[inst.Binary][kindIndex(tx)]
	if op == 0 {
		return errors.New("%v is not defined for %v", inst.Binary, tx)
	}

	s.builder.AddCode(op, ty, id, x, y)

	return nil
}

// multiplyOp selects the SPIR-V multiplications that take operands of
// different shapes. swap reports that the operands go in reverse order.
func multiplyOp(x, y types.Type) (op OpCode, swap, ok bool) {
	_, xm := x.(types.Matrix)
	_, ym := y.(types.Matrix)
	_, xv := x.(types.Vector)
	_, yv := y.(types.Vector)
	xs, ys := types.Width(x) == 1, types.Width(y) == 1

	switch {
	case xm && ym:
		return OpMatrixTimesMatrix, false, true
	case xm && yv:
		return OpMatrixTimesVector, false, true
	case xv && ym:
		return OpVectorTimesMatrix, false, true
	case xm && ys:
		return OpMatrixTimesScalar, false, true
	case xs && ym:
		return OpMatrixTimesScalar, true, true
	case xv && ys && types.IsFloat(x):
		return OpVectorTimesScalar, false, true
	case xs && yv && types.IsFloat(y):
		return OpVectorTimesScalar, true, true
	}

	return 0, false, false
}

// glslOps lists the GLSL.std.450 instruction of each builtin for float,
// signed and unsigned operands.
var glslOps = map[core.BuiltinFn][3]GLSLstd450{
	core.BuiltinAbs:         {GLSLFAbs, GLSLSAbs, 0},
	core.BuiltinAcos:        {GLSLAcos, 0, 0},
	core.BuiltinAsin:        {GLSLAsin, 0, 0},
	core.BuiltinAtan:        {GLSLAtan, 0, 0},
	core.BuiltinAtan2:       {GLSLAtan2, 0, 0},
	core.BuiltinCeil:        {GLSLCeil, 0, 0},
	core.BuiltinClamp:       {GLSLFClamp, GLSLSClamp, GLSLUClamp},
	core.BuiltinCos:         {GLSLCos, 0, 0},
	core.BuiltinCross:       {GLSLCross, 0, 0},
	core.BuiltinDegrees:     {GLSLDegrees, 0, 0},
	core.BuiltinDistance:    {GLSLDistance, 0, 0},
	core.BuiltinExp:         {GLSLExp, 0, 0},
	core.BuiltinExp2:        {GLSLExp2, 0, 0},
	core.BuiltinFloor:       {GLSLFloor, 0, 0},
	core.BuiltinFma:         {GLSLFma, 0, 0},
	core.BuiltinFract:       {GLSLFract, 0, 0},
	core.BuiltinInverseSqrt: {GLSLInverseSqrt, 0, 0},
	core.BuiltinLength:      {GLSLLength, 0, 0},
	core.BuiltinLog:         {GLSLLog, 0, 0},
	core.BuiltinLog2:        {GLSLLog2, 0, 0},
	core.BuiltinMax:         {GLSLFMax, GLSLSMax, GLSLUMax},
	core.BuiltinMin:         {GLSLFMin, GLSLSMin, GLSLUMin},
	core.BuiltinMix:         {GLSLFMix, 0, 0},
	core.BuiltinNormalize:   {GLSLNormalize, 0, 0},
	core.BuiltinPow:         {GLSLPow, 0, 0},
	core.BuiltinRadians:     {GLSLRadians, 0, 0},
	core.BuiltinRound:       {GLSLRoundEven, 0, 0},
	core.BuiltinSign:        {GLSLFSign, GLSLSSign, 0},
	core.BuiltinSin:         {GLSLSin, 0, 0},
	core.BuiltinSmoothstep:  {GLSLSmoothStep, 0, 0},
	core.BuiltinSqrt:        {GLSLSqrt, 0, 0},
	core.BuiltinStep:        {GLSLStep, 0, 0},
	core.BuiltinTan:         {GLSLTan, 0, 0},
	core.BuiltinTrunc:       {GLSLTrunc, 0, 0},
}

func (s *function) builtin(inst *ir.Instruction, ty, id uint32, ops []uint32) error {
	var arg types.Type
	if len(ops) != 0 {
		arg = inst.Operand(0).Type()
	}

	switch inst.Builtin {
	case core.BuiltinAbs:
		if types.IsUnsigned(arg) {
			s.builder.AddCode(OpCopyObject, ty, id, ops[0])
			return nil
		}

	case core.BuiltinSaturate:
		if !types.IsFloat(arg) {
			return errors.New("saturate of %v", arg)
		}

		zero, err := s.constantID(filled(arg, 0))
		if err != nil {
			return err
		}

		one, err := s.constantID(filled(arg, 1))
		if err != nil {
			return err
		}

		s.builder.AddCode(OpExtInst, ty, id, s.glslExtID, uint32(GLSLFClamp), ops[0], zero, one)

		return nil

	case core.BuiltinAll, core.BuiltinAny:
		if types.Width(arg) == 1 {
			s.builder.AddCode(OpCopyObject, ty, id, ops[0])
			return nil
		}

		op := OpAll
		if inst.Builtin == core.BuiltinAny {
			op = OpAny
		}

		s.builder.AddCode(op, ty, id, ops[0])

		return nil

	case core.BuiltinCountOneBits:
		s.builder.AddCode(OpBitCount, ty, id, ops[0])
		return nil

	case core.BuiltinReverseBits:
		s.builder.AddCode(OpBitReverse, ty, id, ops[0])
		return nil

	case core.BuiltinDot:
		if !types.IsFloat(arg) {
			return errors.New("integer dot needs builtin_polyfill_spirv")
		}

		s.builder.AddCode(OpDot, ty, id, ops[0], ops[1])

		return nil

	case core.BuiltinWorkgroupBarrier, core.BuiltinStorageBarrier:
		return s.barrier(inst.Builtin)

	case core.BuiltinSelect, core.BuiltinArrayLength:
		return errors.New("%v needs builtin_polyfill_spirv", inst.Builtin)
	}

	fns, ok := glslOps[inst.Builtin]
	if !ok || arg == nil {
		return errors.New("unsupported builtin %v", inst.Builtin)
	}

	fn := fns[kindIndex(arg)%3]
	if kindIndex(arg) == 3 || fn == 0 {
		return errors.New("%v is not defined for %v", inst.Builtin, arg)
	}

	s.builder.AddCode(OpExtInst, ty, id, append([]uint32{s.glslExtID, uint32(fn)}, ops...)...)

	return nil
}

func (s *function) barrier(fn core.BuiltinFn) error {
	mem, sem := uint32(ScopeWorkgroup), uint32(MemorySemanticsAcquireRelease|MemorySemanticsWorkgroupMemory)

	if fn == core.BuiltinStorageBarrier {
		mem, sem = ScopeDevice, MemorySemanticsAcquireRelease|MemorySemanticsUniformMemory
	}

	var ids [3]uint32

	for i, w := range [3]uint32{ScopeWorkgroup, mem, sem} {
		id, err := s.constantID(constant.U32(w))
		if err != nil {
			return err
		}

		ids[i] = id
	}

	s.builder.AddOp(OpControlBarrier, ids[:]...)

	return nil
}

func (s *function) intrinsic(inst *ir.Instruction, ty, id uint32) error {
	in, ok := inst.Intrinsic.(Intrinsic)
	if !ok {
		return errors.New("unsupported intrinsic %v", inst.Intrinsic)
	}

	ops := inst.Operands()

	words := make([]uint32, len(ops))

	for i, v := range ops {
		if c, ok := ir.AsConstant(v); ok && c.IsLiteral() {
			w, ok := constWord(c)
			if !ok {
				return errors.New("%v: literal operand %v is not an integer", in, c.Value)
			}

			words[i] = w

			continue
		}

		w, err := s.value(v)
		if err != nil {
			return err
		}

		words[i] = w
	}

	switch in {
	case ArrayLength:
		if len(words) != 2 {
			return errors.New("%v: %d operands, want 2", in, len(words))
		}

		s.builder.AddCode(OpArrayLength, ty, id, words...)

	case Select:
		if len(words) != 3 {
			return errors.New("%v: %d operands, want 3", in, len(words))
		}

		s.builder.AddCode(OpSelect, ty, id, words...)

	default:
		return errors.New("unsupported intrinsic %v", in)
	}

	return nil
}

func (s *function) edgeArgsCheck(inst *ir.Instruction, i int) error {
	t := inst.Targets()[i]

	if n, m := len(inst.TargetArgs(i)), len(t.Params()); n != m {
		return errors.New("%d arguments for block %d with %d parameters", n, t.ID, m)
	}

	return nil
}

func (s *function) branch(inst *ir.Instruction, i int) error {
	if err := s.edgeArgsCheck(inst, i); err != nil {
		return err
	}

	s.builder.AddOp(OpBranch, s.target(inst.Targets()[i]))

	return nil
}

func (s *function) condBranch(inst *ir.Instruction) error {
	for i := range inst.Targets() {
		if err := s.edgeArgsCheck(inst, i); err != nil {
			return err
		}
	}

	cond, err := s.value(inst.Operand(0))
	if err != nil {
		return err
	}

	tg := inst.Targets()
	labels := [2]uint32{s.target(tg[0]), s.target(tg[1])}

	br, isBreak := s.breaks[inst]

	switch {
	case inst.Merge() != nil:
		s.builder.AddOp(OpSelectionMerge, s.labels[inst.Merge()], uint32(SelectionControlNone))
	case isBreak:
		s.builder.AddOp(OpSelectionMerge, s.labels[tg[1-br.index]], uint32(SelectionControlNone))
		labels[br.index] = br.label
	}

	s.builder.AddOp(OpBranchConditional, cond, labels[0], labels[1])

	if isBreak {
		s.builder.AddLabel(br.label)
		s.builder.AddOp(OpBranch, s.target(tg[br.index]))
	}

	return nil
}

func (s *function) switchBranch(inst *ir.Instruction) error {
	if inst.Merge() == nil {
		return errors.New("switch has no merge block")
	}

	def := -1

	for i, c := range inst.Cases {
		if err := s.edgeArgsCheck(inst, i); err != nil {
			return err
		}

		if c.Default {
			def = i
		}
	}

	if def < 0 {
		return errors.New("switch has no default case")
	}

	sel, err := s.value(inst.Operand(0))
	if err != nil {
		return err
	}

	tg := inst.Targets()
	words := []uint32{sel, s.target(tg[def])}

	for i, c := range inst.Cases {
		for _, v := range c.Selectors {
			sc, ok := v.(constant.Scalar)
			if !ok || !types.IsInteger(sc.Ty) {
				return errors.New("switch selector %v is not an integer", v)
			}

			words = append(words, uint32(sc.Bits), s.target(tg[i]))
		}
	}

	s.builder.AddOp(OpSelectionMerge, s.labels[inst.Merge()], uint32(SelectionControlNone))
	s.builder.AddOp(OpSwitch, words...)

	return nil
}
