package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/spirv"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, Default(), c)
}

func TestParse_Full(t *testing.T) {
	c, err := Parse([]byte(`
target = "ir"
addressing = "values"
transforms = ["expand_implicit_splats"]
validate = false

[polyfill]
saturate = false
clamp_int = true

[spirv]
version = "1.5"
debug = false

[log]
verbosity = "lower,transform"
`))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Target:     TargetIR,
		Addressing: "values",
		Transforms: []string{"expand_implicit_splats"},
		Validate:   false,
		Polyfill:   Polyfill{Saturate: false, ClampInt: true},
		SPIRV:      SPIRV{Version: "1.5", Debug: false},
		Log:        Log{Verbosity: "lower,transform"},
	}, c)

	opts, err := c.SPIRVOptions()
	require.NoError(t, err)
	assert.Equal(t, spirv.Options{Version: spirv.Version1_5}, opts)

	tc := c.TransformConfig()
	assert.False(t, tc.Polyfill.Saturate)
	assert.True(t, tc.Polyfill.ClampInt)
}

func TestParse_Partial(t *testing.T) {
	c, err := Parse([]byte(`
[polyfill]
clamp_int = true
`))
	require.NoError(t, err)

	assert.True(t, c.Polyfill.Saturate)
	assert.True(t, c.Polyfill.ClampInt)
	assert.Equal(t, Default().Transforms, c.Transforms)
	assert.True(t, c.Validate)
}

func TestParse_EmptyTransforms(t *testing.T) {
	c, err := Parse([]byte(`transforms = []`))
	require.NoError(t, err)

	assert.Empty(t, c.Transforms)
}

func TestParse_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		err  string
	}{
		{"target", `target = "msl"`, `unknown target "msl"`},
		{"addressing", `addressing = "registers"`, `unknown addressing "registers"`},
		{"transform", `transforms = ["inline"]`, `unknown transform "inline"`},
		{"duplicate", `transforms = ["builtin_polyfill", "builtin_polyfill"]`, `added twice`},
		{"version", "[spirv]\nversion = \"2.0\"", `unsupported spirv version 2.0`},
		{"version_syntax", "[spirv]\nversion = \"v1\"", `bad spirv version "v1"`},
		{"top_key", `optimize = true`, `unknown key "optimize"`},
		{"table_key", "[spirv]\nvalidate = true", `unknown key "spirv.validate"`},
		{"not_table", `log = "all"`, `key "log" must be a table`},
		{"syntax", `target = `, `parse config`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`target = "ir"`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TargetIR, c.Target)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "read config")
}

func TestWrite_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))

	c, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
