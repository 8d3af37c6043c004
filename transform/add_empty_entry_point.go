package transform

import (
	"context"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/ir"
)

// EmptyEntryPointName is the name of the function AddEmptyEntryPoint adds.
const EmptyEntryPointName = "unused_entry_point"

// AddEmptyEntryPoint adds an empty compute entry point to modules that have
// none. Some targets reject modules without entry points.
type AddEmptyEntryPoint struct{}

func (AddEmptyEntryPoint) Name() string { return "add_empty_entry_point" }

func (AddEmptyEntryPoint) Run(ctx context.Context, mod *ir.Module) error {
	if len(mod.EntryPoints()) != 0 {
		return nil
	}

	f := mod.NewFunction(EmptyEntryPointName, nil)
	f.Stage = core.StageCompute
	f.WorkgroupSize = [3]uint32{1, 1, 1}

	b := ir.NewBuilder(mod)
	b.SetInsertionPoint(f.Entry())
	b.Return(nil)

	return nil
}
