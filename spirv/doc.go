// Package spirv generates SPIR-V binaries from IR modules.
//
// # IR to SPIR-V Backend
//
// Compile translates a module whose builtins were lowered by the
// builtin_polyfill_spirv transform:
//
//	bin, err := spirv.Compile(mod, spirv.DefaultOptions())
//	if err != nil {
//		return err
//	}
//
// Block parameters become OpPhi instructions. Every loop body gets a
// synthesized header block holding the OpLoopMerge, and conditional
// branches carrying a merge block get an OpSelectionMerge.
//
// Only module-scope variables and entry points without parameters or
// results are supported: shader inputs and outputs are not translated.
//
// # Binary Writer
//
// ModuleBuilder constructs a module instruction by instruction and keeps
// the sections in the order SPIR-V requires:
//
//	builder := spirv.NewModuleBuilder(spirv.Version1_3)
//	builder.AddCapability(spirv.CapabilityShader)
//	builder.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//
//	floatType := builder.AddTypeFloat(32)
//	vec4Type := builder.AddTypeVector(floatType, 4)
//
//	binary := builder.Build()
//
// # Disassembler
//
// Disassemble prints a binary one instruction per line with %N ids. It
// knows the instructions the backend emits and prints the words of the
// others as literals.
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv
