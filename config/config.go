// Package config reads the compiler pipeline configuration from TOML.
package config

import (
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/lower"
	"github.com/gogpu/shaderir/spirv"
	"github.com/gogpu/shaderir/transform"
)

// Targets.
const (
	TargetSPIRV = "spirv"
	TargetIR    = "ir"
)

// Config is the pipeline configuration file.
type Config struct {
	Target     string   `toml:"target"`
	Addressing string   `toml:"addressing"`
	Transforms []string `toml:"transforms"`
	Validate   bool     `toml:"validate"`

	Polyfill Polyfill `toml:"polyfill"`
	SPIRV    SPIRV    `toml:"spirv"`
	Log      Log      `toml:"log"`
}

type Polyfill struct {
	Saturate bool `toml:"saturate"`
	ClampInt bool `toml:"clamp_int"`
}

type SPIRV struct {
	Version string `toml:"version"`
	Debug   bool   `toml:"debug"`
}

type Log struct {
	// Verbosity is a tlog topic filter, like "lower,transform".
	Verbosity string `toml:"verbosity"`
}

// keys lists the accepted keys of each table; "" is the top level.
var keys = map[string][]string{
	"":         {"target", "addressing", "transforms", "validate", "polyfill", "spirv", "log"},
	"polyfill": {"saturate", "clamp_int"},
	"spirv":    {"version", "debug"},
	"log":      {"verbosity"},
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	return &Config{
		Target:     TargetSPIRV,
		Addressing: lower.AddressPointers.String(),
		Transforms: []string{"builtin_polyfill", "expand_implicit_splats", "builtin_polyfill_spirv"},
		Validate:   true,
		Polyfill: Polyfill{
			Saturate: true,
		},
		SPIRV: SPIRV{
			Version: spirv.Version1_3.String(),
			Debug:   true,
		},
	}
}

// Load reads and checks the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", path)
	}

	return c, nil
}

// Parse decodes and checks a configuration. Keys not present keep their
// Default values.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := checkKeys(tree, ""); err != nil {
		return nil, err
	}

	var c Config

	if err := tree.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	def := Default()

	fill := func(key string, dst, src interface{}) {
		if tree.Has(key) {
			return
		}

		switch dst := dst.(type) {
		case *string:
			*dst = *src.(*string)
		case *bool:
			*dst = *src.(*bool)
		case *[]string:
			*dst = *src.(*[]string)
		}
	}

	fill("target", &c.Target, &def.Target)
	fill("addressing", &c.Addressing, &def.Addressing)
	fill("transforms", &c.Transforms, &def.Transforms)
	fill("validate", &c.Validate, &def.Validate)
	fill("polyfill.saturate", &c.Polyfill.Saturate, &def.Polyfill.Saturate)
	fill("polyfill.clamp_int", &c.Polyfill.ClampInt, &def.Polyfill.ClampInt)
	fill("spirv.version", &c.SPIRV.Version, &def.SPIRV.Version)
	fill("spirv.debug", &c.SPIRV.Debug, &def.SPIRV.Debug)
	fill("log.verbosity", &c.Log.Verbosity, &def.Log.Verbosity)

	if err := c.Check(); err != nil {
		return nil, err
	}

	return &c, nil
}

func checkKeys(tree *toml.Tree, table string) error {
	for _, k := range tree.Keys() {
		name := k
		if table != "" {
			name = table + "." + k
		}

		if !contains(keys[table], k) {
			pos := tree.GetPosition(k)

			return errors.New("%d:%d: unknown key %q", pos.Line, pos.Col, name)
		}

		sub, isTree := tree.Get(k).(*toml.Tree)
		_, wantTree := keys[name]

		switch {
		case isTree && wantTree:
			if err := checkKeys(sub, name); err != nil {
				return err
			}
		case isTree:
			return errors.New("key %q is not a table", name)
		case wantTree:
			return errors.New("key %q must be a table", name)
		}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}

	return false
}

// Check reports the first invalid value.
func (c *Config) Check() error {
	switch c.Target {
	case TargetSPIRV, TargetIR:
	default:
		return errors.New("unknown target %q", c.Target)
	}

	if _, err := lower.ParseAddressing(c.Addressing); err != nil {
		return err
	}

	if _, err := transform.Pipeline(c.Transforms, c.TransformConfig()); err != nil {
		return err
	}

	if _, err := spirv.ParseVersion(c.SPIRV.Version); err != nil {
		return err
	}

	return nil
}

// TransformConfig returns the options of the configurable transforms.
func (c *Config) TransformConfig() transform.Config {
	return transform.Config{
		Polyfill: transform.PolyfillConfig{
			Saturate: c.Polyfill.Saturate,
			ClampInt: c.Polyfill.ClampInt,
		},
	}
}

// SPIRVOptions returns the backend options.
func (c *Config) SPIRVOptions() (spirv.Options, error) {
	v, err := spirv.ParseVersion(c.SPIRV.Version)
	if err != nil {
		return spirv.Options{}, err
	}

	return spirv.Options{Version: v, Debug: c.SPIRV.Debug}, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Order(toml.OrderPreserve).Encode(c)
}
