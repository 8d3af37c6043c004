package spirv

import (
	"fmt"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

// Backend translates IR to SPIR-V.
type Backend struct {
	module  *ir.Module
	builder *ModuleBuilder
	options Options

	// Type cache (IR type → SPIR-V ID)
	typeIDs map[types.Type]uint32

	// Function type cache, keyed by the SPIR-V ids of the signature
	funcTypeIDs map[string]uint32

	// Constant cache
	constantIDs map[string]uint32

	// Module variables, keyed by the var result
	globalIDs map[ir.Value]uint32

	functionIDs map[*ir.Function]uint32

	// Types that already carry explicit layout decorations
	laidOut map[types.Type]bool
	blocks  map[*types.Struct]bool

	// GLSL.std.450 import ID (for math functions)
	glslExtID uint32
}

// NewBackend creates a new SPIR-V backend.
func NewBackend(options Options) *Backend {
	if options.Version == (Version{}) {
		options.Version = Version1_3
	}

	return &Backend{options: options}
}

// Compile translates mod to a SPIR-V binary with the given options.
func Compile(mod *ir.Module, options Options) ([]byte, error) {
	return NewBackend(options).Compile(mod)
}

// Compile translates an IR module to SPIR-V binary.
func (b *Backend) Compile(module *ir.Module) ([]byte, error) {
	b.module = module
	b.builder = NewModuleBuilder(b.options.Version)
	b.typeIDs = make(map[types.Type]uint32)
	b.funcTypeIDs = make(map[string]uint32)
	b.constantIDs = make(map[string]uint32)
	b.globalIDs = make(map[ir.Value]uint32)
	b.functionIDs = make(map[*ir.Function]uint32)
	b.laidOut = make(map[types.Type]bool)
	b.blocks = make(map[*types.Struct]bool)

	b.builder.AddCapability(CapabilityShader)
	b.glslExtID = b.builder.AddExtInstImport("GLSL.std.450")
	b.builder.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	for _, f := range module.Functions() {
		b.functionIDs[f] = b.builder.AllocID()
	}

	if err := b.emitGlobals(); err != nil {
		return nil, err
	}

	for _, f := range module.Functions() {
		if err := b.emitFunction(f); err != nil {
			return nil, errors.Wrap(err, "function %v", f.Name)
		}
	}

	if err := b.emitEntryPoints(); err != nil {
		return nil, err
	}

	if tlog.If("spirv") {
		tlog.Printw("spirv module", "functions", len(module.Functions()), "types", len(b.typeIDs), "bound", b.builder.nextID)
	}

	return b.builder.Build(), nil
}

func (b *Backend) name(id uint32, name string) {
	if b.options.Debug && name != "" {
		b.builder.AddName(id, name)
	}
}

func storageClass(space core.AddressSpace) StorageClass {
	switch space {
	case core.SpaceFunction:
		return StorageClassFunction
	case core.SpacePrivate:
		return StorageClassPrivate
	case core.SpaceWorkgroup:
		return StorageClassWorkgroup
	case core.SpaceUniform:
		return StorageClassUniform
	case core.SpaceStorage:
		return StorageClassStorageBuffer
	default:
		return StorageClassUniformConstant
	}
}

func (b *Backend) typeID(t types.Type) (id uint32, err error) {
	if p, ok := t.(types.Pointer); ok {
		t = types.Pointer{Elem: p.Elem, Space: p.Space}
	}

	if id, ok := b.typeIDs[t]; ok {
		return id, nil
	}

	switch t := t.(type) {
	case types.Void:
		id = b.builder.AddTypeVoid()

	case types.Scalar:
		id, err = b.scalarType(t)

	case types.Vector:
		el, err := b.typeID(t.Elem)
		if err != nil {
			return 0, err
		}

		id = b.builder.AddTypeVector(el, uint32(t.Size))

	case types.Matrix:
		col, err := b.typeID(t.Column())
		if err != nil {
			return 0, err
		}

		id = b.builder.AddTypeMatrix(col, uint32(t.Columns))

	case types.Array:
		el, err := b.typeID(t.Elem)
		if err != nil {
			return 0, err
		}

		if t.RuntimeSized() {
			id = b.builder.AddTypeRuntimeArray(el)
			break
		}

		n, err := b.constantID(constant.U32(t.Count))
		if err != nil {
			return 0, err
		}

		id = b.builder.AddTypeArray(el, n)

	case *types.Struct:
		members := make([]uint32, len(t.Members))

		for i, m := range t.Members {
			members[i], err = b.typeID(m.Type)
			if err != nil {
				return 0, err
			}
		}

		id = b.builder.AddTypeStruct(members...)

		if b.options.Debug {
			b.builder.AddName(id, t.Name)

			for i, m := range t.Members {
				b.builder.AddMemberName(id, uint32(i), m.Name)
			}
		}

	case types.Pointer:
		el, err := b.typeID(t.Elem)
		if err != nil {
			return 0, err
		}

		id = b.builder.AddTypePointer(storageClass(t.Space), el)

	default:
		return 0, errors.New("unsupported type %v", t)
	}

	if err != nil {
		return 0, err
	}

	b.typeIDs[t] = id

	return id, nil
}

func (b *Backend) scalarType(t types.Scalar) (uint32, error) {
	switch t.Kind {
	case types.ScalarBool:
		return b.builder.AddTypeBool(), nil

	case types.ScalarSint, types.ScalarUint:
		if t.Width != 4 {
			return 0, errors.New("unsupported integer type %v", t)
		}

		return b.builder.AddTypeInt(32, t.Kind == types.ScalarSint), nil

	case types.ScalarFloat:
		switch t.Width {
		case 2:
			b.builder.AddCapability(CapabilityFloat16)
		case 4:
		default:
			return 0, errors.New("unsupported float type %v", t)
		}

		return b.builder.AddTypeFloat(uint32(t.Width) * 8), nil
	}

	return 0, errors.New("unsupported scalar type %v", t)
}

// funcTypeID returns the id of the function type with the given signature.
func (b *Backend) funcTypeID(ret uint32, params []uint32) uint32 {
	key := fmt.Sprint(ret, params)

	if id, ok := b.funcTypeIDs[key]; ok {
		return id
	}

	id := b.builder.AddTypeFunction(ret, params...)
	b.funcTypeIDs[key] = id

	return id
}

func (b *Backend) constantID(v constant.Value) (uint32, error) {
	ty, err := b.typeID(v.Type())
	if err != nil {
		return 0, err
	}

	key := fmt.Sprintf("%d %v", ty, v)

	if id, ok := b.constantIDs[key]; ok {
		return id, nil
	}

	var id uint32

	switch v := v.(type) {
	case constant.Scalar:
		switch v.Ty.Kind {
		case types.ScalarBool:
			op := OpConstantFalse
			if v.Bool() {
				op = OpConstantTrue
			}

			id = b.builder.AddConstantOp(op, ty)

		case types.ScalarFloat:
			if v.Ty.Width == 2 {
				id = b.builder.AddConstant(ty, uint32(float16Bits(float32(v.Float()))))
			} else {
				id = b.builder.AddConstantFloat32(ty, float32(v.Float()))
			}

		default:
			id = b.builder.AddConstant(ty, uint32(v.Bits))
		}

	case constant.Composite:
		els := make([]uint32, len(v.Elements))

		for i, el := range v.Elements {
			els[i], err = b.constantID(el)
			if err != nil {
				return 0, err
			}
		}

		id = b.builder.AddConstantComposite(ty, els...)

	default:
		return 0, errors.New("unsupported constant %v", v)
	}

	b.constantIDs[key] = id

	return id, nil
}

// float16Bits converts f to IEEE half precision, rounding to nearest even.
func float16Bits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case bits&0x7fffffff == 0:
		return sign
	case bits>>23&0xff == 0xff:
		if mant != 0 {
			return sign | 0x7e00
		}

		return sign | 0x7c00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}

		mant |= 0x800000
		shift := uint32(14 - exp)
		half := mant >> shift

		if rem := mant & (1<<shift - 1); rem > 1<<(shift-1) || rem == 1<<(shift-1) && half&1 != 0 {
			half++
		}

		return sign | uint16(half)
	}

	half := uint32(exp)<<10 | mant>>13

	if rem := mant & 0x1fff; rem > 0x1000 || rem == 0x1000 && half&1 != 0 {
		half++
	}

	return sign | uint16(half)
}

// layout adds explicit layout decorations to t and the types it contains.
func (b *Backend) layout(t types.Type) {
	if b.laidOut[t] {
		return
	}

	b.laidOut[t] = true

	switch t := t.(type) {
	case *types.Struct:
		id := b.typeIDs[t]
		offsets := types.MemberOffsets(t)

		for i, m := range t.Members {
			b.builder.AddMemberDecorate(id, uint32(i), DecorationOffset, offsets[i])

			if mt, ok := m.Type.(types.Matrix); ok {
				b.builder.AddMemberDecorate(id, uint32(i), DecorationColMajor)
				b.builder.AddMemberDecorate(id, uint32(i), DecorationMatrixStride, types.MatrixStride(mt))
			}

			b.layout(m.Type)
		}

	case types.Array:
		b.builder.AddDecorate(b.typeIDs[t], DecorationArrayStride, types.ArrayStride(t))
		b.layout(t.Elem)
	}
}

func (b *Backend) emitGlobals() error {
	for _, inst := range b.module.Root().Instructions() {
		switch inst.Op {
		case ir.OpVar:
		case ir.OpRootTerminator:
			continue
		default:
			return errors.New("%v in the root block is not supported", inst.Op)
		}

		res := inst.Result(0)
		ptr := res.Type().(types.Pointer)

		ptrID, err := b.typeID(ptr)
		if err != nil {
			return err
		}

		var init uint32

		if ops := inst.Operands(); len(ops) != 0 {
			c, ok := ir.AsConstant(ops[0])
			if !ok {
				return errors.New("var %v: initializer is not a constant", res.Name())
			}

			if init, err = b.constantID(c.Value); err != nil {
				return err
			}
		}

		id := b.builder.AddVariable(ptrID, storageClass(ptr.Space), init)
		b.globalIDs[res] = id
		b.name(id, res.Name())

		switch ptr.Space {
		case core.SpaceUniform, core.SpaceStorage:
			st, ok := ptr.Elem.(*types.Struct)
			if !ok {
				return errors.New("var %v: %v buffer of %v, want a struct", res.Name(), ptr.Space, ptr.Elem)
			}

			if !b.blocks[st] {
				b.blocks[st] = true
				b.builder.AddDecorate(b.typeIDs[st], DecorationBlock)
			}

			b.layout(st)

			if ptr.Space == core.SpaceStorage && ptr.Access == core.AccessRead {
				b.builder.AddDecorate(id, DecorationNonWritable)
			}
		}

		if bp := inst.Binding; bp != nil {
			b.builder.AddDecorate(id, DecorationDescriptorSet, bp.Group)
			b.builder.AddDecorate(id, DecorationBinding, bp.Binding)
		}
	}

	return nil
}

func (b *Backend) emitEntryPoints() error {
	for _, f := range b.module.EntryPoints() {
		id := b.functionIDs[f]

		var iface []uint32

		// From 1.4 on the interface lists every module variable used.
		if b.options.Version.Major > 1 || b.options.Version.Minor >= 4 {
			for _, inst := range b.module.Root().Instructions() {
				if inst.Op == ir.OpVar {
					iface = append(iface, b.globalIDs[inst.Value()])
				}
			}
		}

		switch f.Stage {
		case core.StageVertex:
			b.builder.AddEntryPoint(ExecutionModelVertex, id, f.Name, iface)
		case core.StageFragment:
			b.builder.AddEntryPoint(ExecutionModelFragment, id, f.Name, iface)
			b.builder.AddExecutionMode(id, ExecutionModeOriginUpperLeft)
		case core.StageCompute:
			ws := f.WorkgroupSize
			b.builder.AddEntryPoint(ExecutionModelGLCompute, id, f.Name, iface)
			b.builder.AddExecutionMode(id, ExecutionModeLocalSize, ws[0], ws[1], ws[2])
		default:
			return errors.New("entry point %v: unsupported stage %v", f.Name, f.Stage)
		}
	}

	return nil
}
