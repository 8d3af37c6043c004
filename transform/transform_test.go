package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

type funcTransform struct {
	name string
	run  func(mod *ir.Module) error
}

func (t funcTransform) Name() string { return t.name }

func (t funcTransform) Run(ctx context.Context, mod *ir.Module) error { return t.run(mod) }

func run(t *testing.T, tr Transform, mod *ir.Module) {
	t.Helper()

	m := NewManager()
	require.NoError(t, m.Add(tr))
	require.NoError(t, m.Run(context.Background(), mod))

	verrs, err := ir.Validate(mod)
	require.NoError(t, err)
	require.Empty(t, verrs)
}

func runErr(t *testing.T, tr Transform, mod *ir.Module) *diag.Diagnostic {
	t.Helper()

	m := NewManager()
	require.NoError(t, m.Add(tr))

	err := m.Run(context.Background(), mod)
	require.Error(t, err)

	d, ok := diag.AsDiagnostic(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, diag.TransformFailure, d.Kind)
	assert.Equal(t, tr.Name(), d.Pass)

	return d
}

func TestManager_AddOnce(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Add(BuiltinPolyfill{}))
	require.NoError(t, m.Add(ExpandImplicitSplats{}))
	assert.Error(t, m.Add(BuiltinPolyfill{Config: PolyfillConfig{Saturate: true}}))

	assert.Equal(t, []string{"builtin_polyfill", "expand_implicit_splats"}, m.Names())
}

func TestManager_Order(t *testing.T) {
	var order []string

	m := NewManager()

	for _, n := range []string{"b", "a", "c"} {
		n := n
		require.NoError(t, m.Add(funcTransform{name: n, run: func(*ir.Module) error {
			order = append(order, n)
			return nil
		}}))
	}

	require.NoError(t, m.Run(context.Background(), ir.NewModule()))
	assert.Equal(t, []string{"b", "a", "c"}, order)
}

func TestManager_StopsOnFailure(t *testing.T) {
	ran := false

	m := NewManager()
	require.NoError(t, m.Add(funcTransform{name: "fail", run: func(*ir.Module) error { return failf("cannot do %v", "it") }}))
	require.NoError(t, m.Add(funcTransform{name: "after", run: func(*ir.Module) error {
		ran = true
		return nil
	}}))

	err := m.Run(context.Background(), ir.NewModule())
	require.Error(t, err)
	assert.False(t, ran)

	d, ok := diag.AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, "fail", d.Pass)
	assert.Equal(t, "fail: cannot do it", d.Error())
}

func TestManager_InvariantViolation(t *testing.T) {
	mod := ir.NewModule()
	f := mod.NewFunction("f", nil)

	b := ir.NewBuilder(mod)
	b.SetInsertionPoint(f.Entry())
	b.Return(nil)

	m := NewManager()
	require.NoError(t, m.Add(funcTransform{name: "open_block", run: func(mod *ir.Module) error {
		mod.Function("f").NewBlock()
		return nil
	}}))

	var got interface{}

	func() {
		defer func() { got = recover() }()
		_ = m.Run(context.Background(), mod)
	}()

	require.NotNil(t, got)
	assert.IsType(t, &ir.InvariantViolation{}, got)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"add_empty_entry_point",
		"builtin_polyfill",
		"builtin_polyfill_spirv",
		"expand_implicit_splats",
	}, Names())

	tr, err := New("builtin_polyfill", Config{Polyfill: PolyfillConfig{ClampInt: true}})
	require.NoError(t, err)
	assert.Equal(t, BuiltinPolyfill{Config: PolyfillConfig{ClampInt: true}}, tr)

	_, err = New("inline_everything", Config{})
	assert.Error(t, err)

	m, err := Pipeline([]string{"builtin_polyfill", "expand_implicit_splats"}, Config{})
	require.NoError(t, err)
	assert.Equal(t, []string{"builtin_polyfill", "expand_implicit_splats"}, m.Names())

	_, err = Pipeline([]string{"builtin_polyfill", "builtin_polyfill"}, Config{})
	assert.Error(t, err)
}

func TestAddEmptyEntryPoint(t *testing.T) {
	mod := ir.NewModule()
	run(t, AddEmptyEntryPoint{}, mod)

	assert.Equal(t, `%unused_entry_point = @compute @workgroup_size(1, 1, 1) func():void -> %b1 {
  %b1 = block {
    ret
  }
}
`, ir.Disassemble(mod))

	mod = ir.NewModule()
	f := mod.NewFunction("main", nil)
	f.Stage = core.StageFragment
	b := ir.NewBuilder(mod)
	b.SetInsertionPoint(f.Entry())
	b.Return(nil)

	run(t, AddEmptyEntryPoint{}, mod)
	assert.Len(t, mod.Functions(), 1)
}

// unaryModule builds f(x: ty) -> ret { return fn(x) }.
func unaryModule(ty, ret types.Type, fn core.BuiltinFn) *ir.Module {
	mod := ir.NewModule()
	b := ir.NewBuilder(mod)

	f := mod.NewFunction("f", ret)
	x := f.AddParam("x", ty)

	b.SetInsertionPoint(f.Entry())
	call := b.BuiltinCall(ret, fn, x)
	b.Return(call.Value())

	return mod
}
