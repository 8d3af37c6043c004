// Command irc builds shader programs into IR and SPIR-V.
//
// Usage:
//
//	irc [--config irc.toml] <command> [options] <input>
//
// Examples:
//
//	irc build shader.yaml                # Print the IR after lowering
//	irc build --transform shader.yaml    # Print the IR after the transforms
//	irc spirv -o shader.spv shader.yaml
//	irc spirv --dis shader.yaml          # Print the SPIR-V as text
//	irc dis shader.spv
//	irc transforms
//	irc config                           # Print the effective configuration
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir"
	"github.com/gogpu/shaderir/config"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/spirv"
	"github.com/gogpu/shaderir/transform"
)

func main() {
	buildCmd := &cli.Command{
		Name:        "build",
		Description: "lower a program and print its IR",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("transform,t", false, "run the transform pipeline before printing"),
		},
	}

	spirvCmd := &cli.Command{
		Name:        "spirv",
		Description: "compile a program to SPIR-V",
		Action:      spirvAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("dis,d", false, "print the binary as text"),
		},
	}

	disCmd := &cli.Command{
		Name:        "dis",
		Description: "disassemble SPIR-V binaries",
		Action:      disAct,
		Args:        cli.Args{},
	}

	transformsCmd := &cli.Command{
		Name:        "transforms",
		Description: "list the known transforms",
		Action:      transformsAct,
	}

	configCmd := &cli.Command{
		Name:        "config",
		Description: "print the effective configuration",
		Action:      configAct,
	}

	app := &cli.Command{
		Name:        "irc",
		Description: "irc is a shader IR compiler",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config,c", "", "configuration file"),
			cli.NewFlag("addressing", "", "variable addressing: pointers or values"),
			cli.NewFlag("output,o", "", "output file (default: stdout)"),
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			buildCmd,
			spirvCmd,
			disCmd,
			transformsCmd,
			configCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	if v := c.String("verbosity"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func buildAct(c *cli.Command) error {
	ctx, conf, opts, err := setup(c)
	if err != nil {
		return err
	}

	return eachInput(c, func(name string, src []byte) error {
		mod, err := shaderir.Build(ctx, name, src, opts)
		if err != nil {
			return err
		}

		if c.Bool("transform") || conf.Target == config.TargetIR {
			if err := shaderir.Transform(ctx, mod, opts); err != nil {
				return err
			}
		}

		return output(c, []byte(ir.Disassemble(mod)))
	})
}

func spirvAct(c *cli.Command) error {
	ctx, conf, opts, err := setup(c)
	if err != nil {
		return err
	}

	if conf.Target == config.TargetIR {
		return errors.New("target %q does not produce a binary, use build", conf.Target)
	}

	return eachInput(c, func(name string, src []byte) error {
		bin, err := shaderir.Compile(ctx, name, src, opts)
		if err != nil {
			return err
		}

		if !c.Bool("dis") {
			return output(c, bin)
		}

		text, err := spirv.Disassemble(bin)
		if err != nil {
			return err
		}

		return output(c, []byte(text))
	})
}

func disAct(c *cli.Command) error {
	for _, a := range c.Args {
		bin, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		text, err := spirv.Disassemble(bin)
		if err != nil {
			return errors.Wrap(err, "disassemble %v", a)
		}

		if err := output(c, []byte(text)); err != nil {
			return err
		}
	}

	return nil
}

func transformsAct(c *cli.Command) error {
	for _, n := range transform.Names() {
		fmt.Println(n)
	}

	return nil
}

func configAct(c *cli.Command) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	return conf.Write(os.Stdout)
}

func setup(c *cli.Command) (context.Context, *config.Config, shaderir.Options, error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	conf, err := loadConfig(c)
	if err != nil {
		return ctx, nil, shaderir.Options{}, err
	}

	if c.String("verbosity") == "" && conf.Log.Verbosity != "" {
		tlog.SetVerbosity(conf.Log.Verbosity)
	}

	opts, err := shaderir.FromConfig(conf)
	if err != nil {
		return ctx, nil, shaderir.Options{}, err
	}

	return ctx, conf, opts, nil
}

func loadConfig(c *cli.Command) (conf *config.Config, err error) {
	if p := c.String("config"); p != "" {
		conf, err = config.Load(p)
		if err != nil {
			return nil, err
		}
	} else {
		conf = config.Default()
	}

	if a := c.String("addressing"); a != "" {
		conf.Addressing = a

		if err := conf.Check(); err != nil {
			return nil, err
		}
	}

	return conf, nil
}

// eachInput runs f on every argument. Failures are rendered against the
// input source and stop the command.
func eachInput(c *cli.Command, f func(name string, src []byte) error) error {
	if len(c.Args) == 0 {
		return errors.New("no input file specified")
	}

	for _, a := range c.Args {
		src, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		err = f(a, src)
		if err == nil {
			continue
		}

		diag.Render(os.Stderr, err, string(src))

		return errors.New("compile %v failed", a)
	}

	return nil
}

func output(c *cli.Command, data []byte) (err error) {
	var w io.Writer = os.Stdout

	if p := c.String("output"); p != "" {
		f, ferr := os.Create(p)
		if ferr != nil {
			return errors.Wrap(ferr, "create output")
		}

		defer func() {
			e := f.Close()
			if err == nil && e != nil {
				err = errors.Wrap(e, "close output")
			}
		}()

		w = f
	}

	_, err = w.Write(data)

	return err
}
