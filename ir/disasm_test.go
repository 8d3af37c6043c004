package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

func TestDisassemble_RootAndFunction(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	b.SetInsertionPoint(mod.Root())
	b.Var("a", types.Ptr(core.SpacePrivate, types.U32), b.U32(2))
	b.RootTerminator()

	f := mod.NewFunction("f", types.U32)
	x := f.AddParam("x", types.U32)

	b.SetInsertionPoint(f.Entry())
	sum := b.Add(types.U32, x, b.U32(1))
	b.Return(sum.Value())

	assert.Equal(t, `# Root block
%b1 = block {
  %a:ptr<private, u32, read_write> = var, 2u
  root_terminator
}

%f = func(%x:u32):u32 -> %b2 {
  %b2 = block {
    %4:u32 = add %x, 1u
    ret %4
  }
}
`, Disassemble(mod))
}

func TestDisassemble_EmptyRoot(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	b.SetInsertionPoint(mod.Root())
	b.RootTerminator()

	f := mod.NewFunction("main", nil)
	f.Stage = core.StageCompute
	f.WorkgroupSize = [3]uint32{8, 1, 1}

	b.SetInsertionPoint(f.Entry())
	b.Return(nil)

	assert.Equal(t, `%main = @compute @workgroup_size(8, 1, 1) func():void -> %b1 {
  %b1 = block {
    ret
  }
}
`, Disassemble(mod))
}

func TestDisassemble_ControlFlow(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	st := &types.Struct{Name: "S", Members: []types.StructMember{
		{Name: "a", Type: types.I32},
		{Name: "b", Type: types.Vec(2, types.U32)},
	}}

	b.SetInsertionPoint(mod.Root())
	buf := b.Var("buf", types.Ptr(core.SpaceStorage, st), nil)
	buf.Binding = &core.BindingPoint{Group: 0, Binding: 1}
	b.RootTerminator()

	f := mod.NewFunction("f", types.Bool)
	c := f.AddParam("c", types.Bool)
	x := f.AddParam("x", types.I32)

	rhs, merge, one, def, done := f.NewBlock(), f.NewBlock(), f.NewBlock(), f.NewBlock(), f.NewBlock()
	res := merge.AddParam(types.Bool)

	b.SetInsertionPoint(f.Entry())
	br := b.CondBranch(c, rhs, merge)
	br.AppendTargetArg(1, b.Bool(false))
	br.SetMerge(merge)

	b.SetInsertionPoint(rhs)
	p := b.Access(types.Ptr(core.SpaceStorage, types.Vec(2, types.U32)), buf.Value(), b.U32(1))
	ld := b.Load(p.Value())
	y := b.Swizzle(types.U32, ld.Value(), 1)
	y.Value().SetName("y")
	b.Branch(merge, b.Binary(core.BinaryEqual, types.Bool, y.Value(), b.U32(0)).Value())

	b.SetInsertionPoint(merge)
	s := b.Switch(x)
	s.AddCase(SwitchCase{Selectors: []constant.Value{constant.I32(1), constant.I32(2)}}, one)
	s.AddCase(SwitchCase{Default: true}, def)
	s.SetMerge(done)

	b.SetInsertionPoint(one)
	b.Branch(done)

	b.SetInsertionPoint(def)
	b.Branch(done)

	b.SetInsertionPoint(done)
	b.Return(res)

	want := `S = struct { a:i32, b:vec2<u32> }

# Root block
%b1 = block {
  %buf:ptr<storage, S, read> = var @binding_point(0, 1)
  root_terminator
}

%f = func(%c:bool, %x:i32):bool -> %b2 {
  %b2 = block {
    cond_br %c, %b3, %b4(false) [merge: %b4]
  }
  %b3 = block {
    %5:ptr<storage, vec2<u32>, read> = access %buf, 1u
    %6:vec2<u32> = load %5
    %y:u32 = swizzle %6, y
    %8:bool = eq %y, 0u
    br %b4(%8)
  }
  %b4 = block (%9:bool) {
    switch %x [c: (1i, 2i, %b5), c: (default, %b6)] [merge: %b7]
  }
  %b5 = block {
    br %b7
  }
  %b6 = block {
    br %b7
  }
  %b7 = block {
    ret %9
  }
}
`

	assert.Equal(t, want, Disassemble(mod))
	assert.Equal(t, Disassemble(mod), Disassemble(mod))
}

func TestDisassemble_LoopAndNames(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	b.SetInsertionPoint(mod.Root())
	b.RootTerminator()

	g := mod.NewFunction("g", types.U32)
	b.SetInsertionPoint(g.Entry())
	b.Return(b.U32(7))

	f := mod.NewFunction("f", nil)
	body, cont, merge := f.NewBlock(), f.NewBlock(), f.NewBlock()
	i := body.AddParam(types.U32)
	i.SetName("i")

	b.SetInsertionPoint(f.Entry())
	b.Loop(body, cont, merge, b.U32(0))

	b.SetInsertionPoint(body)
	call := b.Call(g)
	call.Value().SetName("i")
	b.Branch(cont)

	b.SetInsertionPoint(cont)
	next := b.Add(types.U32, i, call.Value())
	done := b.Binary(core.BinaryGreaterEqual, types.Bool, next.Value(), b.U32(10))
	br := b.CondBranch(done.Value(), merge, body)
	br.AppendTargetArg(1, next.Value())

	b.SetInsertionPoint(merge)
	b.Return(nil)

	assert.Equal(t, `%g = func():u32 -> %b1 {
  %b1 = block {
    ret 7u
  }
}

%f = func():void -> %b2 {
  %b2 = block {
    loop %b3(0u) [continuing: %b4, merge: %b5]
  }
  %b3 = block (%i:u32) {
    %i_1:u32 = call %g
    br %b4
  }
  %b4 = block {
    %5:u32 = add %i, %i_1
    %6:bool = gte %5, 10u
    cond_br %6, %b5, %b3(%5)
  }
  %b5 = block {
    ret
  }
}
`, Disassemble(mod))
}

func TestDisassemble_SuffixedNamesStayUnique(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", types.U32)
	a := f.AddParam("a", types.U32)

	b.SetInsertionPoint(f.Entry())
	shadow := b.Let("a", a)
	suffixed := b.Let("a_1", shadow.Value())
	num := b.Let("6", suffixed.Value())
	sum := b.Add(types.U32, num.Value(), b.U32(1))
	blk := b.Let("b1", sum.Value())
	b.Return(blk.Value())

	assert.Equal(t, `%f = func(%a:u32):u32 -> %b1 {
  %b1 = block {
    %a_1:u32 = let %a
    %a_1_1:u32 = let %a_1
    %6:u32 = let %a_1_1
    %6_1:u32 = add %6, 1u
    %b1_1:u32 = let %6_1
    ret %b1_1
  }
}
`, Disassemble(mod))
}
