package ir

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

// Module is one compilation unit.
type Module struct {
	Types     *types.Manager
	Constants *constant.Manager

	root      *Block
	functions []*Function
	blocks    []*Block // arena, indexed by BlockID-1
	consts    map[string]*Constant
}

// NewModule creates an empty module with an open root block.
func NewModule() *Module {
	m := &Module{
		Types:     types.NewManager(),
		Constants: constant.NewManager(),
		consts:    make(map[string]*Constant),
	}

	m.root = m.newBlock(nil)

	return m
}

// Root returns the module-scope block.
func (m *Module) Root() *Block { return m.root }

// Functions returns the functions in declaration order.
func (m *Module) Functions() []*Function { return m.functions }

// Function finds a function by name.
func (m *Module) Function(name string) *Function {
	for _, f := range m.functions {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// EntryPoints returns the functions with a shader stage.
func (m *Module) EntryPoints() []*Function {
	var res []*Function

	for _, f := range m.functions {
		if f.IsEntryPoint() {
			res = append(res, f)
		}
	}

	return res
}

// NewFunction adds a function with an empty entry block.
func (m *Module) NewFunction(name string, ret types.Type) *Function {
	if ret == nil {
		ret = types.Void{}
	}

	f := &Function{
		Name:       name,
		ReturnType: m.Types.Get(ret),
		mod:        m,
	}

	f.NewBlock()
	m.functions = append(m.functions, f)

	return f
}

// Constant returns the shared value for v. Equal constants are the same
// value, so their use-lists are merged.
func (m *Module) Constant(v constant.Value) *Constant {
	k := constant.Key(v)

	if c, ok := m.consts[k]; ok {
		return c
	}

	v = m.Constants.Get(v)
	c := &Constant{valueBase: valueBase{typ: m.Types.Get(v.Type())}, Value: v}
	m.consts[k] = c

	return c
}

// Block returns the live block with the given handle, or nil.
func (m *Module) Block(id BlockID) *Block {
	if id == 0 || int(id) > len(m.blocks) {
		return nil
	}

	b := m.blocks[id-1]
	if b.dead {
		return nil
	}

	return b
}

func (m *Module) newBlock(fn *Function) *Block {
	b := &Block{
		ID:  BlockID(len(m.blocks) + 1),
		mod: m,
		fn:  fn,
	}

	m.blocks = append(m.blocks, b)

	return b
}

// Function is a module-level function.
type Function struct {
	Name          string
	ReturnType    types.Type
	Stage         core.Stage
	WorkgroupSize [3]uint32

	mod    *Module
	params []*FunctionParam
	blocks []*Block
}

// Module returns the module owning the function.
func (f *Function) Module() *Module { return f.mod }

// IsEntryPoint reports whether the function is a shader entry point.
func (f *Function) IsEntryPoint() bool { return f.Stage != core.StageNone }

// Params returns the parameters. The slice must not be modified.
func (f *Function) Params() []*FunctionParam { return f.params }

// AddParam appends a parameter.
func (f *Function) AddParam(name string, ty types.Type) *FunctionParam {
	p := &FunctionParam{
		valueBase: valueBase{typ: f.mod.Types.Get(ty), name: name},
		fn:        f,
		index:     len(f.params),
	}

	f.params = append(f.params, p)

	return p
}

// Entry returns the entry block.
func (f *Function) Entry() *Block { return f.blocks[0] }

// Blocks returns the blocks in layout order, entry first. The slice must not
// be modified.
func (f *Function) Blocks() []*Block { return f.blocks }

// NewBlock adds an empty block at the end of the layout.
func (f *Function) NewBlock() *Block {
	b := f.mod.newBlock(f)
	f.blocks = append(f.blocks, b)

	return b
}

// RemoveBlock destroys every instruction of b and removes it from the
// function. Nothing may branch to b and no value defined in b may be used
// outside of it.
func (f *Function) RemoveBlock(b *Block) {
	if b.fn != f {
		fatalf("%%b%d does not belong to %s", b.ID, f.Name)
	}

	if b == f.Entry() {
		fatalf("removing the entry block of %s", f.Name)
	}

	if preds := b.Predecessors(); len(preds) != 0 {
		fatalf("removing %%b%d with %d predecessors", b.ID, len(preds))
	}

	for len(b.instructions) != 0 {
		b.Back().Destroy()
	}

	for i, x := range f.blocks {
		if x == b {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			break
		}
	}

	b.dead = true
}
