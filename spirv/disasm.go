package spirv

import (
	"encoding/binary"
	"fmt"
	"strings"

	"tlog.app/go/errors"
)

// opInfo describes how to print an instruction.
//
// Form is a space separated operand list: T result type, R result id,
// i id, l literal, s string, C capability, S storage class, D decoration,
// M execution model, E execution mode, A addressing model, m memory model,
// F function control, x GLSL.std.450 instruction, p literal and id pair.
// A trailing * repeats the operand kind until the words run out.
type opInfo struct {
	Name string
	Form string
}

var opInfos = map[OpCode]opInfo{
	OpNop:               {"OpNop", ""},
	OpName:              {"OpName", "i s"},
	OpMemberName:        {"OpMemberName", "i l s"},
	OpExtension:         {"OpExtension", "s"},
	OpExtInstImport:     {"OpExtInstImport", "R s"},
	OpExtInst:           {"OpExtInst", "T R i x i*"},
	OpMemoryModel:       {"OpMemoryModel", "A m"},
	OpEntryPoint:        {"OpEntryPoint", "M i s i*"},
	OpExecutionMode:     {"OpExecutionMode", "i E l*"},
	OpCapability:        {"OpCapability", "C"},
	OpTypeVoid:          {"OpTypeVoid", "R"},
	OpTypeBool:          {"OpTypeBool", "R"},
	OpTypeInt:           {"OpTypeInt", "R l l"},
	OpTypeFloat:         {"OpTypeFloat", "R l"},
	OpTypeVector:        {"OpTypeVector", "R i l"},
	OpTypeMatrix:        {"OpTypeMatrix", "R i l"},
	OpTypeArray:         {"OpTypeArray", "R i i"},
	OpTypeRuntimeArray:  {"OpTypeRuntimeArray", "R i"},
	OpTypeStruct:        {"OpTypeStruct", "R i*"},
	OpTypePointer:       {"OpTypePointer", "R S i"},
	OpTypeFunction:      {"OpTypeFunction", "R i i*"},
	OpConstantTrue:      {"OpConstantTrue", "T R"},
	OpConstantFalse:     {"OpConstantFalse", "T R"},
	OpConstant:          {"OpConstant", "T R l*"},
	OpConstantComposite: {"OpConstantComposite", "T R i*"},
	OpConstantNull:      {"OpConstantNull", "T R"},
	OpFunction:          {"OpFunction", "T R F i"},
	OpFunctionParameter: {"OpFunctionParameter", "T R"},
	OpFunctionEnd:       {"OpFunctionEnd", ""},
	OpFunctionCall:      {"OpFunctionCall", "T R i i*"},
	OpVariable:          {"OpVariable", "T R S i*"},
	OpLoad:              {"OpLoad", "T R i l*"},
	OpStore:             {"OpStore", "i i l*"},
	OpAccessChain:       {"OpAccessChain", "T R i i*"},
	OpArrayLength:       {"OpArrayLength", "T R i l"},
	OpDecorate:          {"OpDecorate", "i D l*"},
	OpMemberDecorate:    {"OpMemberDecorate", "i l D l*"},

	OpVectorExtractDynamic: {"OpVectorExtractDynamic", "T R i i"},
	OpVectorShuffle:        {"OpVectorShuffle", "T R i i l*"},
	OpCompositeConstruct:   {"OpCompositeConstruct", "T R i*"},
	OpCompositeExtract:     {"OpCompositeExtract", "T R i l*"},
	OpCopyObject:           {"OpCopyObject", "T R i"},

	OpConvertFToU: {"OpConvertFToU", "T R i"},
	OpConvertFToS: {"OpConvertFToS", "T R i"},
	OpConvertSToF: {"OpConvertSToF", "T R i"},
	OpConvertUToF: {"OpConvertUToF", "T R i"},
	OpUConvert:    {"OpUConvert", "T R i"},
	OpSConvert:    {"OpSConvert", "T R i"},
	OpFConvert:    {"OpFConvert", "T R i"},
	OpBitcast:     {"OpBitcast", "T R i"},
	OpSNegate:     {"OpSNegate", "T R i"},
	OpFNegate:     {"OpFNegate", "T R i"},

	OpIAdd:              {"OpIAdd", "T R i i"},
	OpFAdd:              {"OpFAdd", "T R i i"},
	OpISub:              {"OpISub", "T R i i"},
	OpFSub:              {"OpFSub", "T R i i"},
	OpIMul:              {"OpIMul", "T R i i"},
	OpFMul:              {"OpFMul", "T R i i"},
	OpUDiv:              {"OpUDiv", "T R i i"},
	OpSDiv:              {"OpSDiv", "T R i i"},
	OpFDiv:              {"OpFDiv", "T R i i"},
	OpUMod:              {"OpUMod", "T R i i"},
	OpSRem:              {"OpSRem", "T R i i"},
	OpFRem:              {"OpFRem", "T R i i"},
	OpVectorTimesScalar: {"OpVectorTimesScalar", "T R i i"},
	OpMatrixTimesScalar: {"OpMatrixTimesScalar", "T R i i"},
	OpVectorTimesMatrix: {"OpVectorTimesMatrix", "T R i i"},
	OpMatrixTimesVector: {"OpMatrixTimesVector", "T R i i"},
	OpMatrixTimesMatrix: {"OpMatrixTimesMatrix", "T R i i"},
	OpDot:               {"OpDot", "T R i i"},
	OpAny:               {"OpAny", "T R i"},
	OpAll:               {"OpAll", "T R i"},

	OpLogicalEqual:         {"OpLogicalEqual", "T R i i"},
	OpLogicalNotEqual:      {"OpLogicalNotEqual", "T R i i"},
	OpLogicalOr:            {"OpLogicalOr", "T R i i"},
	OpLogicalAnd:           {"OpLogicalAnd", "T R i i"},
	OpLogicalNot:           {"OpLogicalNot", "T R i"},
	OpSelect:               {"OpSelect", "T R i i i"},
	OpIEqual:               {"OpIEqual", "T R i i"},
	OpINotEqual:            {"OpINotEqual", "T R i i"},
	OpUGreaterThan:         {"OpUGreaterThan", "T R i i"},
	OpSGreaterThan:         {"OpSGreaterThan", "T R i i"},
	OpUGreaterThanEqual:    {"OpUGreaterThanEqual", "T R i i"},
	OpSGreaterThanEqual:    {"OpSGreaterThanEqual", "T R i i"},
	OpULessThan:            {"OpULessThan", "T R i i"},
	OpSLessThan:            {"OpSLessThan", "T R i i"},
	OpULessThanEqual:       {"OpULessThanEqual", "T R i i"},
	OpSLessThanEqual:       {"OpSLessThanEqual", "T R i i"},
	OpFOrdEqual:            {"OpFOrdEqual", "T R i i"},
	OpFUnordNotEqual:       {"OpFUnordNotEqual", "T R i i"},
	OpFOrdLessThan:         {"OpFOrdLessThan", "T R i i"},
	OpFOrdGreaterThan:      {"OpFOrdGreaterThan", "T R i i"},
	OpFOrdLessThanEqual:    {"OpFOrdLessThanEqual", "T R i i"},
	OpFOrdGreaterThanEqual: {"OpFOrdGreaterThanEqual", "T R i i"},
	OpShiftRightLogical:    {"OpShiftRightLogical", "T R i i"},
	OpShiftRightArithmetic: {"OpShiftRightArithmetic", "T R i i"},
	OpShiftLeftLogical:     {"OpShiftLeftLogical", "T R i i"},
	OpBitwiseOr:            {"OpBitwiseOr", "T R i i"},
	OpBitwiseXor:           {"OpBitwiseXor", "T R i i"},
	OpBitwiseAnd:           {"OpBitwiseAnd", "T R i i"},
	OpNot:                  {"OpNot", "T R i"},
	OpBitReverse:           {"OpBitReverse", "T R i"},
	OpBitCount:             {"OpBitCount", "T R i"},

	OpControlBarrier:    {"OpControlBarrier", "i i i"},
	OpPhi:               {"OpPhi", "T R i*"},
	OpLoopMerge:         {"OpLoopMerge", "i i l*"},
	OpSelectionMerge:    {"OpSelectionMerge", "i l"},
	OpLabel:             {"OpLabel", "R"},
	OpBranch:            {"OpBranch", "i"},
	OpBranchConditional: {"OpBranchConditional", "i i i l*"},
	OpSwitch:            {"OpSwitch", "i i p*"},
	OpKill:              {"OpKill", ""},
	OpReturn:            {"OpReturn", ""},
	OpReturnValue:       {"OpReturnValue", "i"},
	OpUnreachable:       {"OpUnreachable", ""},

	OpDemoteToHelperInvocationEXT: {"OpDemoteToHelperInvocationEXT", ""},
}

var enumNames = map[byte]map[uint32]string{
	'C': {
		uint32(CapabilityMatrix): "Matrix", uint32(CapabilityShader): "Shader",
		uint32(CapabilityFloat16): "Float16", uint32(CapabilityDemoteToHelperInvocationEXT): "DemoteToHelperInvocationEXT",
	},
	'S': {
		0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
		4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
		8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
		12: "StorageBuffer",
	},
	'D': {
		2: "Block", 3: "BufferBlock", 4: "RowMajor", 5: "ColMajor",
		6: "ArrayStride", 7: "MatrixStride", 11: "BuiltIn", 14: "Flat",
		24: "NonWritable", 25: "NonReadable", 30: "Location",
		33: "Binding", 34: "DescriptorSet", 35: "Offset",
	},
	'M': {0: "Vertex", 4: "Fragment", 5: "GLCompute"},
	'E': {7: "OriginUpperLeft", 8: "OriginLowerLeft", 17: "LocalSize"},
	'A': {0: "Logical", 1: "Physical32", 2: "Physical64"},
	'm': {0: "Simple", 1: "GLSL450", 2: "OpenCL", 3: "Vulkan"},
}

// Disassemble prints a SPIR-V binary as text, one instruction per line.
func Disassemble(binary []byte) (string, error) {
	if len(binary)%4 != 0 {
		return "", errors.New("binary size %d is not a multiple of 4", len(binary))
	}

	words := make([]uint32, len(binary)/4)
	for i := range words {
		words[i] = le.Uint32(binary[4*i:])
	}

	return DisassembleWords(words)
}

var le = binary.LittleEndian

// DisassembleWords is Disassemble for a decoded word stream.
func DisassembleWords(words []uint32) (string, error) {
	if len(words) < 5 {
		return "", errors.New("truncated header: %d words", len(words))
	}

	if words[0] != MagicNumber {
		return "", errors.New("bad magic number 0x%08x", words[0])
	}

	var b strings.Builder

	fmt.Fprintf(&b, "; SPIR-V\n")
	fmt.Fprintf(&b, "; Version: %d.%d\n", words[1]>>16&0xff, words[1]>>8&0xff)
	fmt.Fprintf(&b, "; Generator: 0x%08x\n", words[2])
	fmt.Fprintf(&b, "; Bound: %d\n", words[3])
	fmt.Fprintf(&b, "; Schema: %d\n", words[4])

	for off := 5; off < len(words); {
		n := int(words[off] >> 16)
		op := OpCode(words[off] & 0xffff)

		if n == 0 || off+n > len(words) {
			return "", errors.New("word %d: %v: bad word count %d", off, op, n)
		}

		line, err := formatInst(op, words[off+1:off+n])
		if err != nil {
			return "", errors.Wrap(err, "word %d", off)
		}

		b.WriteString(line)
		b.WriteByte('\n')

		off += n
	}

	return b.String(), nil
}

func formatInst(op OpCode, ops []uint32) (string, error) {
	info, ok := opInfos[op]
	if !ok {
		info = opInfo{Name: fmt.Sprintf("Op%d", uint32(op)), Form: "l*"}
	}

	var res, ty string
	var args []string

	form := strings.Fields(info.Form)

	for k := 0; k < len(form); k++ {
		kind := form[k]
		repeat := strings.HasSuffix(kind, "*")

		if len(ops) == 0 {
			if repeat {
				break
			}

			return "", errors.New("%s: missing operand %q", info.Name, kind)
		}

		switch kind[0] {
		case 'T':
			ty, ops = id(ops[0]), ops[1:]
		case 'R':
			res, ops = id(ops[0]), ops[1:]
		case 's':
			s, rest := decodeString(ops)
			args, ops = append(args, fmt.Sprintf("%q", s)), rest
		case 'p':
			if len(ops) < 2 {
				return "", errors.New("%s: odd pair operands", info.Name)
			}

			args, ops = append(args, fmt.Sprintf("%d", ops[0]), id(ops[1])), ops[2:]
		default:
			args, ops = append(args, operand(kind[0], ops[0])), ops[1:]
		}

		if repeat {
			k--
		}
	}

	if len(ops) != 0 {
		return "", errors.New("%s: %d extra operand words", info.Name, len(ops))
	}

	var b strings.Builder

	if res != "" {
		b.WriteString(res)
		b.WriteString(" = ")
	}

	b.WriteString(info.Name)

	if ty != "" {
		b.WriteString(" ")
		b.WriteString(ty)
	}

	for _, a := range args {
		b.WriteString(" ")
		b.WriteString(a)
	}

	return b.String(), nil
}

func operand(kind byte, w uint32) string {
	switch kind {
	case 'i':
		return id(w)
	case 'l':
		return fmt.Sprintf("%d", w)
	case 'x':
		return GLSLstd450(w).String()
	case 'F':
		if w == 0 {
			return "None"
		}

		return fmt.Sprintf("0x%x", w)
	}

	if n, ok := enumNames[kind][w]; ok {
		return n
	}

	return fmt.Sprintf("%d", w)
}

func id(w uint32) string { return fmt.Sprintf("%%%d", w) }

// decodeString reads a nul terminated string and returns the words after it.
func decodeString(ops []uint32) (string, []uint32) {
	var b strings.Builder

	for i, w := range ops {
		for k := 0; k < 4; k++ {
			c := byte(w >> (8 * k))
			if c == 0 {
				return b.String(), ops[i+1:]
			}

			b.WriteByte(c)
		}
	}

	return b.String(), nil
}
