package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

func requireViolation(t *testing.T, f func()) *InvariantViolation {
	t.Helper()

	var got interface{}

	func() {
		defer func() { got = recover() }()
		f()
	}()

	require.NotNil(t, got, "expected an invariant violation")
	require.IsType(t, &InvariantViolation{}, got)

	return got.(*InvariantViolation)
}

func TestUseLists(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", types.U32)
	x := f.AddParam("x", types.U32)
	y := f.AddParam("y", types.U32)

	b.SetInsertionPoint(f.Entry())
	add := b.Add(types.U32, x, x)
	ret := b.Return(add.Value())

	assert.Equal(t, []Usage{{add, 0}, {add, 1}}, x.Usages())
	assert.Equal(t, []Usage{{ret, 0}}, add.Value().Usages())

	add.ReplaceOperand(1, y)

	assert.Equal(t, []Usage{{add, 0}}, x.Usages())
	assert.Equal(t, []Usage{{add, 1}}, y.Usages())

	ReplaceAllUsesWith(x, y)

	assert.False(t, x.IsUsed())
	assert.Equal(t, []Usage{{add, 1}, {add, 0}}, y.Usages())

	CheckInvariants(mod)
}

func TestConstantsAreShared(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	assert.Same(t, b.U32(1), b.U32(1))
	assert.NotSame(t, b.U32(1), b.I32(1))
	assert.NotSame(t, b.LiteralOperand(constant.U32(1)), b.LiteralOperand(constant.U32(1)))
	assert.True(t, b.LiteralOperand(constant.U32(1)).IsLiteral())
	assert.False(t, b.U32(1).IsLiteral())
}

func TestTargetArgs(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	c := f.AddParam("c", types.Bool)
	x := f.AddParam("x", types.U32)

	then, els := f.NewBlock(), f.NewBlock()
	then.AddParam(types.U32)
	els.AddParam(types.U32)
	els.AddParam(types.Bool)

	b.SetInsertionPoint(f.Entry())
	br := b.CondBranch(c, then, els)

	br.AppendTargetArg(1, x)
	br.AppendTargetArg(1, c)
	br.AppendTargetArg(0, x)

	assert.Equal(t, []Value{x}, br.TargetArgs(0))
	assert.Equal(t, []Value{x, c}, br.TargetArgs(1))
	assert.Equal(t, []Value{c, x, x, c}, br.Operands())
	assert.Equal(t, []Usage{{br, 0}, {br, 3}}, c.Usages())
	assert.Equal(t, []Usage{{br, 2}, {br, 1}}, x.Usages())

	br.RemoveTargetArg(0, 0)

	assert.Empty(t, br.TargetArgs(0))
	assert.Equal(t, []Value{x, c}, br.TargetArgs(1))
	assert.Equal(t, []Usage{{br, 0}, {br, 2}}, c.Usages())
	assert.Equal(t, []Usage{{br, 1}}, x.Usages())

	assert.Equal(t, []*Block{then, els}, f.Entry().Successors())
	assert.Equal(t, []*Block{f.Entry()}, els.Predecessors())
}

func TestDestroy(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	x := f.AddParam("x", types.I32)

	b.SetInsertionPoint(f.Entry())
	neg := b.Unary(core.UnaryNegate, types.I32, x)
	dbl := b.Multiply(types.I32, neg.Value(), b.I32(2))
	b.Return(nil)

	v := requireViolation(t, neg.Destroy)
	assert.Contains(t, v.Message, "still has 1 uses")
	assert.True(t, neg.Alive())

	dbl.Destroy()
	neg.Destroy()

	assert.False(t, x.IsUsed())
	assert.False(t, b.I32(2).IsUsed())
	assert.Equal(t, 1, f.Entry().Len())

	requireViolation(t, neg.Destroy)
}

func TestSealedBlock(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	b.SetInsertionPoint(f.Entry())
	ret := b.Return(nil)

	assert.True(t, f.Entry().Sealed())
	assert.Same(t, ret, f.Entry().Terminator())

	v := requireViolation(t, func() { b.Discard() })
	assert.Contains(t, v.Message, "appended after terminator")

	requireViolation(t, func() { b.Unreachable() })

	b.SetInsertionBefore(ret)
	d := b.Discard()

	assert.Equal(t, []*Instruction{d, ret}, f.Entry().Instructions())
}

func TestReplaceWith(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", types.U32)
	x := f.AddParam("x", types.U32)

	b.SetInsertionPoint(f.Entry())
	call := b.BuiltinCall(types.U32, core.BuiltinAbs, x)
	ret := b.Return(call.Value())

	var repl *Instruction

	b.InsertBefore(call, func() {
		repl = b.Add(types.U32, x, x)
	})

	repl.Remove()
	call.ReplaceWith(repl)

	assert.False(t, call.Alive())
	assert.Equal(t, []*Instruction{repl, ret}, f.Entry().Instructions())
	assert.Same(t, repl.Value(), ret.Operand(0))

	CheckInvariants(mod)
}

func TestSequenced(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	b.SetInsertionPoint(mod.Root())
	v := b.Var("v", types.Ptr(core.SpacePrivate, types.U32), nil)
	b.RootTerminator()

	f := mod.NewFunction("f", nil)
	b.SetInsertionPoint(f.Entry())

	ld := b.Load(v.Value())
	st := b.Store(v.Value(), ld.Value())
	add := b.Add(types.U32, ld.Value(), ld.Value())
	bar := b.BuiltinCall(types.Void{}, core.BuiltinWorkgroupBarrier)
	abs := b.BuiltinCall(types.U32, core.BuiltinAbs, add.Value())
	b.Return(nil)

	assert.True(t, ld.Sequenced())
	assert.True(t, st.Sequenced())
	assert.False(t, add.Sequenced())
	assert.True(t, bar.Sequenced())
	assert.False(t, abs.Sequenced())

	abs.SetSequenced(true)
	assert.True(t, abs.Sequenced())
}

func TestRemoveBlock(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	dead := f.NewBlock()

	b.SetInsertionPoint(f.Entry())
	b.Return(nil)

	b.SetInsertionPoint(dead)
	b.Discard()
	b.Unreachable()

	assert.Equal(t, []*Block{dead}, Unreachable(f))

	id := dead.ID
	f.RemoveBlock(dead)

	assert.Nil(t, mod.Block(id))
	assert.Equal(t, []*Block{f.Entry()}, f.Blocks())
	assert.Same(t, f.Entry(), mod.Block(f.Entry().ID))

	requireViolation(t, func() { f.RemoveBlock(f.Entry()) })
}

func TestReversePostOrder(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	c := f.AddParam("c", types.Bool)

	merge := f.NewBlock()
	els := f.NewBlock()
	then := f.NewBlock()

	b.SetInsertionPoint(f.Entry())
	b.CondBranch(c, then, els).SetMerge(merge)

	b.SetInsertionPoint(then)
	b.Branch(merge)

	b.SetInsertionPoint(els)
	b.Branch(merge)

	b.SetInsertionPoint(merge)
	b.Return(nil)

	assert.Equal(t, []*Block{f.Entry(), then, els, merge}, ReversePostOrder(f))
	assert.Equal(t, []*Block{els, then}, merge.Predecessors())
	assert.Empty(t, Unreachable(f))
}

func TestLoopOf(t *testing.T) {
	mod := NewModule()
	b := NewBuilder(mod)

	f := mod.NewFunction("f", nil)
	body, cont, merge := f.NewBlock(), f.NewBlock(), f.NewBlock()

	b.SetInsertionPoint(f.Entry())
	loop := b.Loop(body, cont, merge)

	b.SetInsertionPoint(body)
	b.Branch(cont)

	b.SetInsertionPoint(cont)
	b.CondBranch(b.Bool(true), merge, body)

	b.SetInsertionPoint(merge)
	b.Return(nil)

	assert.Same(t, loop, LoopOf(body))
	assert.Nil(t, LoopOf(cont))
	assert.Equal(t, []*Block{f.Entry(), cont}, body.Predecessors())

	CheckInvariants(mod)
}
