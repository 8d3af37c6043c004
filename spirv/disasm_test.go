package spirv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble_Builder(t *testing.T) {
	b := NewModuleBuilder(Version1_5)

	b.AddCapability(CapabilityShader)
	b.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	u32 := b.AddTypeInt(32, false)
	one := b.AddConstant(u32, 1)
	b.AddName(one, "one")

	text, err := Disassemble(b.Build())
	require.NoError(t, err)

	assert.Equal(t, `; SPIR-V
; Version: 1.5
; Generator: 0x00000000
; Bound: 3
; Schema: 0
OpCapability Shader
OpMemoryModel Logical GLSL450
OpName %2 "one"
%1 = OpTypeInt 32 0
%2 = OpConstant %1 1
`, text)
}

func TestDisassemble_Switch(t *testing.T) {
	line, err := formatInst(OpSwitch, []uint32{5, 6, 1, 7, 2, 8})
	require.NoError(t, err)
	assert.Equal(t, "OpSwitch %5 %6 1 %7 2 %8", line)

	_, err = formatInst(OpSwitch, []uint32{5, 6, 1})
	assert.Error(t, err)
}

func TestDisassemble_ExtInst(t *testing.T) {
	line, err := formatInst(OpExtInst, []uint32{2, 9, 1, uint32(GLSLFClamp), 5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, "%9 = OpExtInst %2 %1 FClamp %5 %6 %7", line)
}

func TestDisassemble_UnknownOpcode(t *testing.T) {
	line, err := formatInst(OpCode(4000), []uint32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "Op4000 1 2", line)
}

func TestDisassemble_Errors(t *testing.T) {
	_, err := Disassemble([]byte{1, 2, 3})
	assert.ErrorContains(t, err, "multiple of 4")

	_, err = Disassemble(make([]byte, 8))
	assert.ErrorContains(t, err, "truncated header")

	bad := make([]byte, 20)
	binary.LittleEndian.PutUint32(bad, 0xdeadbeef)
	_, err = Disassemble(bad)
	assert.ErrorContains(t, err, "bad magic number 0xdeadbeef")

	// OpTypeVoid claiming three words with one present.
	short := NewModuleBuilder(Version1_3).Build()
	short = binary.LittleEndian.AppendUint32(short, 3<<16|uint32(OpTypeVoid))
	_, err = Disassemble(short)
	assert.ErrorContains(t, err, "bad word count 3")

	// OpTypeVoid with an extra operand.
	extra := NewModuleBuilder(Version1_3).Build()
	extra = binary.LittleEndian.AppendUint32(extra, 3<<16|uint32(OpTypeVoid))
	extra = binary.LittleEndian.AppendUint32(extra, 1)
	extra = binary.LittleEndian.AppendUint32(extra, 2)
	_, err = Disassemble(extra)
	assert.ErrorContains(t, err, "extra operand")
}

func TestFloat16Bits(t *testing.T) {
	for _, tc := range []struct {
		in   float32
		want uint16
	}{
		{0, 0},
		{1, 0x3c00},
		{-2, 0xc000},
		{0.5, 0x3800},
		{65504, 0x7bff},
		{1e6, 0x7c00},
		{6.0e-8, 0x0001},
		{1e-10, 0},
	} {
		assert.Equal(t, tc.want, float16Bits(tc.in), "%v", tc.in)
	}
}
