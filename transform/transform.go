// Package transform rewrites IR modules in place.
//
// A transform may assume its input is well formed and must leave it well
// formed. Transforms are not idempotent in general, so a Manager accepts
// each name at most once; the order is the order they were added in.
package transform

import (
	"context"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
)

// Transform is a module rewrite.
type Transform interface {
	Name() string
	Run(ctx context.Context, mod *ir.Module) error
}

// Config holds the options of configurable transforms.
type Config struct {
	Polyfill PolyfillConfig
}

// PolyfillConfig selects optional builtin_polyfill rewrites.
type PolyfillConfig struct {
	// Saturate rewrites saturate(x) to clamp(x, 0, 1).
	Saturate bool

	// ClampInt rewrites integer clamp(x, lo, hi) to min(max(x, lo), hi).
	ClampInt bool
}

// Manager runs an ordered list of transforms.
type Manager struct {
	passes []Transform
	names  map[string]bool
}

func NewManager() *Manager {
	return &Manager{names: make(map[string]bool)}
}

// Add appends t. A second transform with the same name is rejected.
func (m *Manager) Add(t Transform) error {
	name := t.Name()

	if m.names[name] {
		return errors.New("transform %q added twice", name)
	}

	m.names[name] = true
	m.passes = append(m.passes, t)

	return nil
}

// Names returns the transform names in run order.
func (m *Manager) Names() []string {
	res := make([]string, len(m.passes))

	for i, t := range m.passes {
		res[i] = t.Name()
	}

	return res
}

// Run applies every transform in order. The module structure is checked
// after each one; a broken module panics with *ir.InvariantViolation.
func (m *Manager) Run(ctx context.Context, mod *ir.Module) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "transform", "passes", len(m.passes))
	defer tr.Finish("err", &err)

	for _, t := range m.passes {
		if err = t.Run(ctx, mod); err != nil {
			if d, ok := diag.AsDiagnostic(err); ok && d.Pass == "" {
				d.Pass = t.Name()
			}

			return errors.Wrap(err, "transform %v", t.Name())
		}

		ir.CheckInvariants(mod)

		if tr.If("transform") {
			tr.Printw("transform done", "name", t.Name(), "functions", len(mod.Functions()))
		}
	}

	return nil
}

// Constructor makes a configured transform.
type Constructor func(Config) Transform

var registry = map[string]Constructor{
	"add_empty_entry_point":  func(Config) Transform { return AddEmptyEntryPoint{} },
	"builtin_polyfill":       func(c Config) Transform { return BuiltinPolyfill{Config: c.Polyfill} },
	"builtin_polyfill_spirv": func(Config) Transform { return BuiltinPolyfillSpirv{} },
	"expand_implicit_splats": func(Config) Transform { return ExpandImplicitSplats{} },
}

// New returns the registered transform called name.
func New(name string, cfg Config) (Transform, error) {
	c, ok := registry[name]
	if !ok {
		return nil, errors.New("unknown transform %q", name)
	}

	return c(cfg), nil
}

// Names lists the registered transforms, sorted.
func Names() []string {
	res := make([]string, 0, len(registry))

	for n := range registry {
		res = append(res, n)
	}

	sort.Strings(res)

	return res
}

// Pipeline returns a Manager running the named transforms in order.
func Pipeline(names []string, cfg Config) (*Manager, error) {
	m := NewManager()

	for _, n := range names {
		t, err := New(n, cfg)
		if err != nil {
			return nil, err
		}

		if err := m.Add(t); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func failf(format string, args ...interface{}) error {
	d := diag.Errorf(diag.TransformFailure, diag.Span{}, format, args...)
	d.Origin = loc.Caller(1)

	return d
}

// instructions returns a snapshot of the live instructions of mod's
// functions that f selects, in layout order.
func instructions(mod *ir.Module, f func(*ir.Instruction) bool) []*ir.Instruction {
	var res []*ir.Instruction

	for _, fn := range mod.Functions() {
		for _, b := range fn.Blocks() {
			for _, inst := range b.Instructions() {
				if f(inst) {
					res = append(res, inst)
				}
			}
		}
	}

	return res
}

// replace points the uses of inst at v and destroys inst.
func replace(inst *ir.Instruction, v ir.Value) {
	inst.ReplaceResultsWith(v)
	inst.Destroy()
}
