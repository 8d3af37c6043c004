package sem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

func decode(t *testing.T, src string) *Program {
	t.Helper()

	p, err := Decode("test.yaml", []byte(src))
	require.NoError(t, err)

	return p
}

func TestDecode_Globals(t *testing.T) {
	p := decode(t, `
structs:
  - name: Buf
    members:
      - {name: n, type: u32}
      - {name: data, type: "array<f32>"}
globals:
  - var: a
    type: u32
    init: 2
  - var: buf
    type: Buf
    space: storage
    access: read_write
    binding: [0, 1]
  - const: k
    init: 1.5
`)

	require.Len(t, p.Structs, 1)
	require.Len(t, p.Globals, 3)

	a := p.Globals[0]
	assert.Equal(t, VarKindVar, a.Kind)
	assert.Equal(t, core.SpacePrivate, a.Space)
	assert.Equal(t, core.AccessReadWrite, a.Access)
	assert.Equal(t, types.Type(types.U32), a.Type)
	assert.Equal(t, constant.Value(constant.U32(2)), a.Init.(*Literal).Value, "abstract literal takes the declared type")

	buf := p.Globals[1]
	assert.Equal(t, types.Type(p.Structs[0]), buf.Type)
	assert.Equal(t, core.SpaceStorage, buf.Space)
	assert.Equal(t, core.AccessReadWrite, buf.Access)
	require.NotNil(t, buf.Binding)
	assert.Equal(t, core.BindingPoint{Group: 0, Binding: 1}, *buf.Binding)

	k := p.Globals[2]
	assert.Equal(t, VarKindConst, k.Kind)
	assert.Equal(t, types.Type(types.F32), k.Type)
}

func TestDecode_Function(t *testing.T) {
	p := decode(t, `
functions:
  - name: f
    params: [{name: x, type: u32}]
    return: u32
    body:
      - let: y
        init: {bin: add, lhs: x, rhs: 1}
      - return: y
  - name: main
    stage: compute
    workgroup_size: [8, 1, 1]
    body:
      - eval: {call: f, args: [3]}
`)

	require.Len(t, p.Functions, 2)

	f := p.Function("f")
	require.NotNil(t, f)
	assert.Equal(t, types.Type(types.U32), f.ReturnType)
	require.Len(t, f.Params, 1)
	assert.Equal(t, VarKindParam, f.Params[0].Kind)

	require.Len(t, f.Body.Stmts, 2)

	let := f.Body.Stmts[0].(*LetDecl)
	sum := let.Var.Init.(*Binary)
	assert.Equal(t, core.BinaryAdd, sum.Op)
	assert.Equal(t, types.Type(types.U32), sum.Type())
	assert.Same(t, f.Params[0], sum.Left.(*VarRef).Var)
	assert.Equal(t, constant.Value(constant.U32(1)), sum.Right.(*Literal).Value)

	ret := f.Body.Stmts[1].(*Return)
	assert.Same(t, let.Var, ret.Value.(*VarRef).Var)

	main := p.Function("main")
	assert.Equal(t, core.StageCompute, main.Stage)
	require.Len(t, main.WorkgroupSize, 3)
	assert.Equal(t, constant.Value(constant.U32(8)), main.WorkgroupSize[0].(*Literal).Value)

	call := main.Body.Stmts[0].(*ExprStmt).Expr.(*Call)
	assert.Same(t, f, call.Func)
	assert.Equal(t, constant.Value(constant.U32(3)), call.Args[0].(*Literal).Value)
}

func TestDecode_ControlFlow(t *testing.T) {
	p := decode(t, `
functions:
  - name: f
    params: [{name: n, type: i32}]
    body:
      - var: i
        type: i32
        init: 0
      - loop:
          - if: {bin: ">=", lhs: i, rhs: n}
            then: [break]
            else:
              if: {bin: "==", lhs: i, rhs: 3}
              then: [continue]
        continuing:
          - assign: i
            op: "+"
            value: 1
        break_if: {bin: ">", lhs: i, rhs: 100}
      - for: {init: {var: j, type: u32, init: 0}, cond: {bin: "<", lhs: j, rhs: 4}, update: {assign: j, op: add, value: 1}}
        body: []
      - while: false
        body: [discard]
      - switch: n
        cases:
          - selectors: [1, 2]
            body: [break]
          - default: true
      - return
`)

	body := p.Function("f").Body.Stmts
	require.Len(t, body, 6)

	loop := body[1].(*Loop)
	iff := loop.Body.Stmts[0].(*If)
	assert.IsType(t, &Break{}, iff.Then.Stmts[0])
	elseIf := iff.Else.(*If)
	assert.IsType(t, &Continue{}, elseIf.Then.Stmts[0])
	assert.Nil(t, elseIf.Else)

	require.NotNil(t, loop.Continuing)
	asg := loop.Continuing.Stmts[0].(*Assign)
	require.NotNil(t, asg.Op)
	assert.Equal(t, core.BinaryAdd, *asg.Op)
	assert.Equal(t, constant.Value(constant.I32(1)), asg.RHS.(*Literal).Value)
	assert.NotNil(t, loop.BreakIf)

	fs := body[2].(*For)
	assert.IsType(t, &VarDecl{}, fs.Init)
	assert.Equal(t, types.Type(types.Bool), fs.Cond.Type())
	assert.IsType(t, &Assign{}, fs.Update)
	assert.Empty(t, fs.Body.Stmts)

	ws := body[3].(*While)
	assert.IsType(t, &Discard{}, ws.Body.Stmts[0])

	sw := body[4].(*Switch)
	require.Len(t, sw.Cases, 2)
	assert.Len(t, sw.Cases[0].Selectors, 2)
	assert.Equal(t, constant.Value(constant.I32(2)), sw.Cases[0].Selectors[1].(*Literal).Value)
	assert.True(t, sw.Cases[1].Default)
	assert.Empty(t, sw.Cases[1].Body.Stmts)

	assert.Nil(t, body[5].(*Return).Value)
}

func TestDecode_Expressions(t *testing.T) {
	p := decode(t, `
structs:
  - name: S
    members: [{name: v, type: vec4f}, {name: m, type: mat3x2f}]
globals:
  - var: s
    type: S
functions:
  - name: f
    body:
      - let: sw
        init: {member: {member: s, name: v}, name: zx}
      - let: one
        init: {member: {member: s, name: v}, name: w}
      - let: mv
        init: {bin: "*", lhs: {member: s, name: m}, rhs: {construct: vec3f, args: [1, 2, 3]}}
      - let: cmp
        init: {bin: "<", lhs: sw, rhs: sw}
      - let: d
        init: {call: dot, args: [sw, sw]}
      - let: p
        init: {addr: {member: s, name: v}}
      - let: back
        init: {deref: p}
      - let: col
        init: {index: {member: s, name: m}, at: 1u}
      - let: neg
        init: {un: "-", arg: one}
      - let: bits
        init: {bitcast: u32, arg: one}
`)

	lets := map[string]*Variable{}
	for _, s := range p.Function("f").Body.Stmts {
		v := s.(*LetDecl).Var
		lets[v.Name] = v
	}

	sw := lets["sw"].Init.(*Swizzle)
	assert.Equal(t, []uint32{2, 0}, sw.Components)
	assert.Equal(t, types.Type(types.Vec(2, types.F32)), lets["sw"].Type)

	assert.Equal(t, types.Type(types.F32), lets["one"].Type)
	assert.Equal(t, types.Type(types.Vec(2, types.F32)), lets["mv"].Type)
	assert.Equal(t, types.Type(types.Vec(2, types.Bool)), lets["cmp"].Type)
	assert.Equal(t, types.Type(types.F32), lets["d"].Type)

	ctor := lets["mv"].Init.(*Binary).Right.(*Construct)
	assert.Equal(t, constant.Value(constant.F32(2)), ctor.Args[1].(*Literal).Value)

	ptr := lets["p"].Type.(types.Pointer)
	assert.Equal(t, core.SpacePrivate, ptr.Space)
	assert.Equal(t, types.Type(types.Vec(4, types.F32)), ptr.Elem)

	assert.Equal(t, types.Type(types.Vec(4, types.F32)), lets["back"].Type)
	assert.Equal(t, types.Type(types.Vec(2, types.F32)), lets["col"].Type)
	assert.Equal(t, types.Type(types.F32), lets["neg"].Type)
	assert.Equal(t, types.Type(types.U32), lets["bits"].Type)
}

func TestDecode_Scopes(t *testing.T) {
	p := decode(t, `
functions:
  - name: f
    body:
      - let: x
        init: 1u
      - block:
          - let: x
            init: 2i
          - eval: {call: abs, args: [x]}
      - eval: {call: abs, args: [x]}
`)

	stmts := p.Function("f").Body.Stmts
	inner := stmts[1].(*Block)

	shadow := inner.Stmts[1].(*ExprStmt).Expr.(*BuiltinCall)
	assert.Equal(t, types.Type(types.I32), shadow.Type())

	outer := stmts[2].(*ExprStmt).Expr.(*BuiltinCall)
	assert.Equal(t, types.Type(types.U32), outer.Type())
	assert.Equal(t, core.BuiltinAbs, outer.Builtin)
}

func TestDecode_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		err  string
	}{
		{"not a mapping", `[1, 2]`, "program must be a mapping"},
		{"unknown key", `modules: []`, `unknown program key "modules"`},
		{"unknown identifier", "functions:\n  - name: f\n    body:\n      - eval: y\n", `test.yaml:4:15: unknown identifier "y"`},
		{"unknown type", "globals:\n  - var: a\n    type: vec5f\n", `bad vector type "vec5f"`},
		{"let without init", "functions:\n  - name: f\n    body:\n      - let: x\n", `needs an initializer`},
		{"bad condition", "functions:\n  - name: f\n    body:\n      - if: 1u\n        then: []\n", "condition is u32, want bool"},
		{"redeclared", "functions:\n  - name: f\n  - name: f\n", `function "f" redeclared`},
		{"unknown function", "functions:\n  - name: f\n    body:\n      - eval: {call: nope}\n", `unknown function "nope"`},
		{"address of let", "functions:\n  - name: f\n    body:\n      - let: x\n        init: 1u\n      - let: p\n        init: {addr: x}\n", `cannot take the address of let "x"`},
		{"bad swizzle", "functions:\n  - name: f\n    body:\n      - let: v\n        init: {construct: vec2f}\n      - let: z\n        init: {member: v, name: z}\n", `bad swizzle "z"`},
		{"arity", "functions:\n  - name: g\n    params: [{name: a, type: u32}]\n  - name: f\n    body:\n      - eval: {call: g}\n", "g takes 1 arguments, got 0"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode("test.yaml", []byte(tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	p := decode(t, ``)
	assert.Empty(t, p.Functions)
	assert.Empty(t, p.Globals)
}
