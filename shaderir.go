// Package shaderir is the core of a shader compiler: it lowers a typed
// program tree into an SSA-style IR of blocks and instructions, rewrites it
// with transforms and emits SPIR-V.
//
// The pipeline is:
//  1. Decode a typed program (sem.Decode reads the YAML form)
//  2. Build the IR module (lower.Program)
//  3. Validate the module (if enabled)
//  4. Run the transform pipeline
//  5. Generate SPIR-V
//
// Example usage:
//
//	opts := shaderir.DefaultOptions()
//	bin, err := shaderir.Compile(ctx, "shader.yaml", src, opts)
//	if err != nil {
//	    return err
//	}
//
// The IR can be inspected with ir.Disassemble at any stage:
//
//	mod, _ := shaderir.Build(ctx, "shader.yaml", src, opts)
//	fmt.Print(ir.Disassemble(mod))
package shaderir

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir/config"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/lower"
	"github.com/gogpu/shaderir/sem"
	"github.com/gogpu/shaderir/spirv"
	"github.com/gogpu/shaderir/transform"
)

// Options configures the pipeline.
type Options struct {
	// Addressing decides which variables stay in memory.
	Addressing lower.Addressing

	// Transforms are run in order after lowering.
	Transforms []string

	// Transform configures the transforms that take options.
	Transform transform.Config

	// Validate checks the module after lowering and after the transforms.
	Validate bool

	// SPIRV configures code generation.
	SPIRV spirv.Options
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	opts, err := FromConfig(config.Default())
	if err != nil {
		panic(err)
	}

	return opts
}

// FromConfig converts a checked configuration into Options.
func FromConfig(c *config.Config) (Options, error) {
	a, err := lower.ParseAddressing(c.Addressing)
	if err != nil {
		return Options{}, err
	}

	so, err := c.SPIRVOptions()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Addressing: a,
		Transforms: c.Transforms,
		Transform:  c.TransformConfig(),
		Validate:   c.Validate,
		SPIRV:      so,
	}, nil
}

// Compile runs the whole pipeline on the YAML program src.
func Compile(ctx context.Context, name string, src []byte, opts Options) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	mod, err := Build(ctx, name, src, opts)
	if err != nil {
		return nil, err
	}

	if err := Transform(ctx, mod, opts); err != nil {
		return nil, err
	}

	return GenerateSPIRV(mod, opts.SPIRV)
}

// Build decodes src and lowers it to IR.
func Build(ctx context.Context, name string, src []byte, opts Options) (*ir.Module, error) {
	prog, err := sem.Decode(name, src)
	if err != nil {
		return nil, err
	}

	return Lower(ctx, prog, opts)
}

// Lower converts a typed program to IR.
func Lower(ctx context.Context, prog *sem.Program, opts Options) (*ir.Module, error) {
	mod, err := lower.Program(ctx, prog, lower.Options{Addressing: opts.Addressing})
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	if opts.Validate {
		if err := Validate(mod); err != nil {
			return nil, errors.Wrap(err, "after lowering")
		}
	}

	return mod, nil
}

// Transform runs the configured transforms on mod.
func Transform(ctx context.Context, mod *ir.Module, opts Options) error {
	m, err := transform.Pipeline(opts.Transforms, opts.Transform)
	if err != nil {
		return err
	}

	if err := m.Run(ctx, mod); err != nil {
		return err
	}

	if opts.Validate {
		if err := Validate(mod); err != nil {
			return errors.Wrap(err, "after transforms")
		}
	}

	return nil
}

// Validate returns the first validation error of mod.
func Validate(mod *ir.Module) error {
	verrs, err := ir.Validate(mod)
	if err != nil {
		return err
	}

	if len(verrs) != 0 {
		return errors.Wrap(verrs[0], "validation failed (%d errors)", len(verrs))
	}

	return nil
}

// GenerateSPIRV generates a SPIR-V binary from mod.
func GenerateSPIRV(mod *ir.Module, opts spirv.Options) ([]byte, error) {
	bin, err := spirv.Compile(mod, opts)
	if err != nil {
		return nil, errors.Wrap(err, "SPIR-V generation")
	}

	return bin, nil
}
