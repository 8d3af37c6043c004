// Package lower builds IR modules from typed semantic trees.
//
// Lowering is a single recursive walk. The Lowerer keeps the current
// insertion point in an ir.Builder and an explicit stack of enclosing
// constructs that break and continue resolve against. Any node it has no
// rule for aborts the build with a diag.BuilderFailure.
package lower

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/types"
)

// Addressing decides which source variables become pointers.
type Addressing uint8

const (
	// AddressPointers lowers every var to a var instruction accessed with
	// load and store. let, parameters and temporaries are plain values.
	AddressPointers Addressing = iota

	// AddressValues additionally promotes function-scope vars of scalar,
	// vector and matrix type to values when their address is never taken
	// and they are only ever written as a whole. Merges become block
	// parameters.
	AddressValues
)

func (a Addressing) String() string {
	switch a {
	case AddressPointers:
		return "pointers"
	case AddressValues:
		return "values"
	default:
		return "unknown"
	}
}

// ParseAddressing parses the String form of an Addressing.
func ParseAddressing(s string) (Addressing, error) {
	switch s {
	case "", "pointers":
		return AddressPointers, nil
	case "values":
		return AddressValues, nil
	}

	return 0, errors.New("unknown addressing %q", s)
}

// Options configure lowering.
type Options struct {
	Addressing Addressing
}

// Lowerer converts a sem.Program into an ir.Module.
type Lowerer struct {
	opts Options
	tr   tlog.Span

	mod *ir.Module
	b   *ir.Builder

	funcs  map[*sem.Function]*ir.Function
	values map[*sem.Variable]ir.Value      // var: pointer, let and param: value
	consts map[*sem.Variable]constant.Value // const declarations

	// current function
	fn       *ir.Function
	scopes   []scope
	promoted map[*sem.Variable]bool
	ssa      *ssa
}

type scopeKind uint8

const (
	scopeLoop scopeKind = iota
	scopeContinuing
	scopeSwitch
)

// scope is an enclosing construct.
type scope struct {
	kind       scopeKind
	breakTo    *ir.Block
	continueTo *ir.Block
}

// Program lowers prog into a new module.
func Program(ctx context.Context, prog *sem.Program, opts Options) (mod *ir.Module, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lower", "addressing", opts.Addressing, "functions", len(prog.Functions))
	defer tr.Finish("err", &err)

	l := &Lowerer{
		opts:   opts,
		tr:     tr,
		mod:    ir.NewModule(),
		funcs:  make(map[*sem.Function]*ir.Function, len(prog.Functions)),
		values: make(map[*sem.Variable]ir.Value),
		consts: make(map[*sem.Variable]constant.Value),
	}

	l.b = ir.NewBuilder(l.mod)

	if err = l.program(prog); err != nil {
		return nil, err
	}

	return l.mod, nil
}

func (l *Lowerer) program(prog *sem.Program) error {
	for _, st := range prog.Structs {
		l.mod.Types.Get(st)
	}

	l.b.SetInsertionPoint(l.mod.Root())

	for _, g := range prog.Globals {
		if err := l.global(g); err != nil {
			return errors.Wrap(err, "global %v", g.Name)
		}
	}

	l.b.RootTerminator()

	// Signatures first: calls may refer to functions declared later.
	for _, f := range prog.Functions {
		if err := l.signature(f); err != nil {
			return errors.Wrap(err, "function %v", f.Name)
		}
	}

	for _, f := range prog.Functions {
		if err := l.function(f); err != nil {
			return errors.Wrap(err, "lower function %v", f.Name)
		}
	}

	return nil
}

func (l *Lowerer) global(g *sem.Variable) error {
	switch g.Kind {
	case sem.VarKindConst:
		v, err := l.constExpr(g.Init)
		if err != nil {
			return err
		}

		l.consts[g] = v

		return nil
	case sem.VarKindVar:
	default:
		return l.failf(g.Span, "%v declaration at module scope", g.Kind)
	}

	switch g.Space {
	case core.SpaceFunction:
		return l.failf(g.Span, "module-scope var %q in the function address space", g.Name)
	case core.SpaceUniform, core.SpaceStorage, core.SpaceHandle:
		if g.Binding == nil {
			return l.failf(g.Span, "resource var %q has no binding", g.Name)
		}
	}

	var init ir.Value

	if g.Init != nil {
		v, err := l.constExpr(g.Init)
		if err != nil {
			return err
		}

		if v, err = convertConst(v, g.Type); err != nil {
			return l.failf(g.Init.Pos(), "%v", err)
		}

		init = l.b.Constant(v)
	}

	ptr := types.Pointer{Elem: g.Type, Space: g.Space, Access: g.Access}

	inst := l.b.Var(g.Name, ptr, init)

	if g.Binding != nil {
		bp := *g.Binding
		inst.Binding = &bp
	}

	l.values[g] = inst.Value()

	return nil
}

func (l *Lowerer) signature(sf *sem.Function) error {
	if l.mod.Function(sf.Name) != nil {
		return l.failf(sf.Span, "function %q redeclared", sf.Name)
	}

	f := l.mod.NewFunction(sf.Name, sf.ReturnType)
	f.Stage = sf.Stage

	for _, p := range sf.Params {
		l.values[p] = f.AddParam(p.Name, p.Type)
	}

	switch {
	case sf.Stage == core.StageCompute:
		if len(sf.WorkgroupSize) == 0 || len(sf.WorkgroupSize) > 3 {
			return l.failf(sf.Span, "compute entry point needs a workgroup size of 1 to 3 dimensions")
		}

		f.WorkgroupSize = [3]uint32{1, 1, 1}

		for i, e := range sf.WorkgroupSize {
			v, err := l.constExpr(e)
			if err != nil {
				return err
			}

			n, ok := positive(v)
			if !ok {
				return l.failf(e.Pos(), "workgroup size must be a positive integer, got %v", v)
			}

			f.WorkgroupSize[i] = n
		}
	case len(sf.WorkgroupSize) != 0:
		return l.failf(sf.Span, "workgroup size on a %v function", sf.Stage)
	}

	l.funcs[sf] = f

	return nil
}

func positive(v constant.Value) (uint32, bool) {
	s, ok := v.(constant.Scalar)
	if !ok || !types.IsInteger(s.Ty) {
		return 0, false
	}

	if s.Ty.Kind == types.ScalarSint && s.Int() <= 0 || s.Uint() == 0 || s.Uint() > 1<<32-1 {
		return 0, false
	}

	return uint32(s.Uint()), true
}

func (l *Lowerer) function(sf *sem.Function) (err error) {
	f := l.funcs[sf]

	l.fn = f
	l.scopes = l.scopes[:0]
	l.promoted = nil
	l.ssa = nil

	if l.opts.Addressing == AddressValues {
		l.promoted = promotable(sf)
		l.ssa = newSSA(l.mod)
		l.ssa.seal(f.Entry())
	}

	l.b.SetInsertionPoint(f.Entry())

	if err = l.block(sf.Body); err != nil {
		return err
	}

	if !l.terminated() {
		if types.IsVoid(f.ReturnType) {
			l.b.Return(nil)
		} else {
			l.b.Unreachable()
		}
	}

	if l.ssa != nil {
		l.ssa.finish(f)
	}

	if l.tr.If("lower") {
		l.tr.Printw("function", "name", f.Name, "blocks", len(f.Blocks()), "promoted", len(l.promoted))
	}

	return nil
}

func (l *Lowerer) failf(span diag.Span, format string, args ...interface{}) error {
	d := diag.Errorf(diag.BuilderFailure, span, format, args...)
	d.Origin = loc.Caller(1)

	return d
}

// terminated reports whether the current block already ends in a
// terminator. Statements lowered there would be dead.
func (l *Lowerer) terminated() bool {
	return l.b.Block().Sealed()
}

// newBlock adds a block to the current function.
func (l *Lowerer) newBlock() *ir.Block {
	return l.fn.NewBlock()
}

// enter moves the insertion point to blk. Blocks nothing branches to are
// closed with unreachable right away.
func (l *Lowerer) enter(blk *ir.Block) {
	l.b.SetInsertionPoint(blk)

	if len(blk.Predecessors()) == 0 && blk != l.fn.Entry() {
		l.b.Unreachable()
	}
}

// seal tells SSA construction that every branch into blk exists.
func (l *Lowerer) seal(blk *ir.Block) {
	if l.ssa != nil {
		l.ssa.seal(blk)
	}
}

func (l *Lowerer) push(s scope) { l.scopes = append(l.scopes, s) }
func (l *Lowerer) pop()         { l.scopes = l.scopes[:len(l.scopes)-1] }
