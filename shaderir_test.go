package shaderir

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/config"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/lower"
	"github.com/gogpu/shaderir/spirv"
)

const loopSrc = `
functions:
  - name: f
    params: [{name: n, type: u32}]
    return: u32
    body:
      - var: i
        type: u32
        init: 0
      - loop:
          - if: {bin: ">=", lhs: i, rhs: n}
            then: [break]
        continuing:
          - assign: i
            op: "+"
            value: 1
      - return: i
`

const bufferSrc = `
structs:
  - name: Buf
    members:
      - {name: n, type: u32}
      - {name: data, type: "array<f32>"}
globals:
  - var: buf
    type: Buf
    space: storage
    access: read_write
    binding: [0, 1]
functions:
  - name: main
    stage: compute
    workgroup_size: [64]
    body:
      - assign: {member: buf, name: n}
        value: {call: arrayLength, args: [{addr: {member: buf, name: data}}]}
`

func TestBuild(t *testing.T) {
	mod, err := Build(context.Background(), "test.yaml", []byte(`
functions:
  - name: f
    params: [{name: x, type: u32}]
    return: u32
    body:
      - return: {bin: add, lhs: x, rhs: 1}
`), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, `%f = func(%x:u32):u32 -> %b1 {
  %b1 = block {
    %3:u32 = add %x, 1u
    ret %3
  }
}
`, ir.Disassemble(mod))
}

func TestCompile_Loop(t *testing.T) {
	for _, a := range []lower.Addressing{lower.AddressPointers, lower.AddressValues} {
		t.Run(a.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Addressing = a

			bin, err := Compile(context.Background(), "loop.yaml", []byte(loopSrc), opts)
			require.NoError(t, err)

			text, err := spirv.Disassemble(bin)
			require.NoError(t, err)

			assert.Contains(t, text, "OpLoopMerge")
			assert.Contains(t, text, "OpSelectionMerge")
			assert.Contains(t, text, "OpUGreaterThanEqual")

			if a == lower.AddressValues {
				assert.Contains(t, text, "OpPhi")
				assert.NotContains(t, text, "OpVariable")
			} else {
				assert.Contains(t, text, "OpVariable")
			}
		})
	}
}

func TestCompile_StorageBuffer(t *testing.T) {
	bin, err := Compile(context.Background(), "buf.yaml", []byte(bufferSrc), DefaultOptions())
	require.NoError(t, err)

	text, err := spirv.Disassemble(bin)
	require.NoError(t, err)

	assert.Contains(t, text, "OpEntryPoint GLCompute")
	assert.Contains(t, text, "LocalSize 64 1 1")
	assert.Contains(t, text, "OpArrayLength")
	assert.Contains(t, text, " Binding 1\n")
	assert.Contains(t, text, `OpName %`)
}

func TestCompile_WithoutPolyfill(t *testing.T) {
	opts := DefaultOptions()
	opts.Transforms = nil

	_, err := Compile(context.Background(), "buf.yaml", []byte(bufferSrc), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "builtin_polyfill_spirv")
}

func TestCompile_TransformFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.Transform.Polyfill.ClampInt = true

	_, err := Compile(context.Background(), "clamp.yaml", []byte(`
functions:
  - name: f
    params: [{name: x, type: i32}]
    return: i32
    body:
      - return: {call: clamp, args: [x, 5i, 1i]}
`), opts)
	require.Error(t, err)

	d, ok := diag.AsDiagnostic(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, diag.TransformFailure, d.Kind)
	assert.Equal(t, "builtin_polyfill", d.Pass)
}

func TestCompile_DecodeError(t *testing.T) {
	_, err := Compile(context.Background(), "bad.yaml", []byte("shaders: []\n"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown program key "shaders"`)
}

func TestFromConfig(t *testing.T) {
	c, err := config.Parse([]byte(`
addressing = "values"
transforms = ["expand_implicit_splats"]

[polyfill]
clamp_int = true

[spirv]
version = "1.4"
debug = false
`))
	require.NoError(t, err)

	opts, err := FromConfig(c)
	require.NoError(t, err)

	assert.Equal(t, Options{
		Addressing: lower.AddressValues,
		Transforms: []string{"expand_implicit_splats"},
		Transform:  c.TransformConfig(),
		Validate:   true,
		SPIRV:      spirv.Options{Version: spirv.Version1_4},
	}, opts)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, lower.AddressPointers, opts.Addressing)
	assert.Equal(t, []string{"builtin_polyfill", "expand_implicit_splats", "builtin_polyfill_spirv"}, opts.Transforms)
	assert.True(t, opts.Validate)
	assert.True(t, opts.Transform.Polyfill.Saturate)
	assert.Equal(t, spirv.DefaultOptions(), opts.SPIRV)
}
