package spirv

import (
	"encoding/binary"
	"testing"
)

func TestModuleBuilder_MinimalModule(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	builder.AddCapability(CapabilityShader)
	builder.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	data := builder.Build()

	if len(data) < 20 {
		t.Fatalf("Module too small: got %d bytes, want at least 20", len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != MagicNumber {
		t.Errorf("Invalid magic number: got 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if want := uint32(1<<16 | 3<<8); version != want {
		t.Errorf("Invalid version: got 0x%08X, want 0x%08X", version, want)
	}

	if bound := binary.LittleEndian.Uint32(data[12:16]); bound != 1 {
		t.Errorf("Bound: got %d, want 1", bound)
	}

	if schema := binary.LittleEndian.Uint32(data[16:20]); schema != 0 {
		t.Errorf("Schema should be 0, got %d", schema)
	}

	// header + OpCapability (2 words) + OpMemoryModel (3 words)
	if len(data) != 4*(5+2+3) {
		t.Errorf("Module size: got %d bytes", len(data))
	}
}

func TestModuleBuilder_CapabilityDedup(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	builder.AddCapability(CapabilityShader)
	builder.AddCapability(CapabilityShader)
	builder.AddExtension("SPV_EXT_demote_to_helper_invocation")
	builder.AddExtension("SPV_EXT_demote_to_helper_invocation")

	if len(builder.capabilities) != 1 {
		t.Errorf("capabilities: got %d, want 1", len(builder.capabilities))
	}

	if len(builder.extensions) != 1 {
		t.Errorf("extensions: got %d, want 1", len(builder.extensions))
	}
}

func TestModuleBuilder_WithTypes(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	voidType := builder.AddTypeVoid()
	floatType := builder.AddTypeFloat(32)
	intType := builder.AddTypeInt(32, true)
	vec4Type := builder.AddTypeVector(floatType, 4)

	ids := []uint32{voidType, floatType, intType, vec4Type}
	for i, id := range ids {
		if id != uint32(i+1) {
			t.Errorf("Type %d: got id %d, want %d", i, id, i+1)
		}
	}

	if len(builder.types) != 4 {
		t.Errorf("types: got %d instructions, want 4", len(builder.types))
	}
}

func TestModuleBuilder_WithEntryPoint(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	builder.AddCapability(CapabilityShader)
	builder.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	voidType := builder.AddTypeVoid()
	funcType := builder.AddTypeFunction(voidType)

	funcID := builder.AllocID()
	builder.AddFunction(funcID, funcType, voidType, FunctionControlNone)
	builder.AddLabel(builder.AllocID())
	builder.AddOp(OpReturn)
	builder.AddFunctionEnd()

	builder.AddEntryPoint(ExecutionModelFragment, funcID, "main", nil)
	builder.AddExecutionMode(funcID, ExecutionModeOriginUpperLeft)

	data := builder.Build()

	if bound := binary.LittleEndian.Uint32(data[12:16]); bound != 5 {
		t.Errorf("Bound: got %d, want 5", bound)
	}

	if len(builder.functions) != 4 {
		t.Errorf("functions: got %d instructions, want 4", len(builder.functions))
	}
}

func TestInstructionBuilder_String(t *testing.T) {
	builder := NewInstructionBuilder()
	builder.AddString("hello")

	encoded := builder.Build(OpName).Encode()

	opcode := OpCode(encoded[0] & 0xFFFF)
	if opcode != OpName {
		t.Errorf("Wrong opcode: got %d, want %d", opcode, OpName)
	}

	// "hello" and its terminator take two words.
	if wordCount := encoded[0] >> 16; wordCount != 3 {
		t.Errorf("Word count: got %d, want 3", wordCount)
	}

	if encoded[1] != 'h'|'e'<<8|'l'<<16|'l'<<24 || encoded[2] != 'o' {
		t.Errorf("String words: got %#x %#x", encoded[1], encoded[2])
	}
}

func TestInstructionBuilder_StringPadding(t *testing.T) {
	builder := NewInstructionBuilder()
	builder.AddString("main")

	encoded := builder.Build(OpName).Encode()

	if wordCount := encoded[0] >> 16; wordCount != 3 {
		t.Errorf("Word count: got %d, want 3", wordCount)
	}

	if encoded[2] != 0 {
		t.Errorf("Terminator word: got %#x, want 0", encoded[2])
	}
}

func TestModuleBuilder_Float32(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	floatType := builder.AddTypeFloat(32)
	builder.AddConstantFloat32(floatType, 1.5)

	words := builder.types[1].Encode()
	if len(words) != 4 || words[3] != 0x3fc00000 {
		t.Errorf("OpConstant 1.5: got %#x", words)
	}
}

func TestModuleBuilder_IDAllocation(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	id1 := builder.AllocID()
	id2 := builder.AllocID()
	id3 := builder.AllocID()

	if id1 >= id2 || id2 >= id3 {
		t.Error("IDs should be strictly increasing")
	}

	if id1 == 0 {
		t.Error("IDs should never be 0")
	}
}
