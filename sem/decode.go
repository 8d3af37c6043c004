package sem

import (
	"fmt"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/types"
)

// Decode reads a program written in the YAML tree format:
//
//	structs:
//	  - name: S
//	    members: [{name: a, type: u32}]
//	globals:
//	  - var: a
//	    type: u32
//	    space: private
//	    init: 2u
//	functions:
//	  - name: main
//	    stage: compute
//	    workgroup_size: [1, 1, 1]
//	    body:
//	      - let: x
//	        init: {bin: add, lhs: a, rhs: 1u}
//	      - return
//
// A scalar expression is a literal or a name. Names are resolved against
// enclosing scopes, then functions and builtins. Expression types are
// inferred; unsuffixed integer literals take the type of the other operand.
// name labels spans in error messages.
func Decode(name string, data []byte) (*Program, error) {
	var doc yaml.Node

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	d := &decoder{
		src:      name,
		prog:     &Program{},
		structs:  make(map[string]*types.Struct),
		funcs:    make(map[string]*Function),
		abstract: make(map[*Literal]bool),
	}

	if len(doc.Content) == 0 {
		return d.prog, nil
	}

	if err := d.program(doc.Content[0]); err != nil {
		return nil, err
	}

	return d.prog, nil
}

type decoder struct {
	src  string
	prog *Program

	structs map[string]*types.Struct
	funcs   map[string]*Function
	scopes  []map[string]*Variable

	abstract map[*Literal]bool
}

func (d *decoder) span(n *yaml.Node) diag.Span {
	pos := diag.Position{Line: n.Line, Column: n.Column}

	return diag.Span{Start: pos, End: pos, Source: d.src}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return errors.New("%v: %s", d.span(n), fmt.Sprintf(format, args...))
}

func (d *decoder) program(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return d.errorf(n, "program must be a mapping")
	}

	for _, key := range keys(n) {
		switch key {
		case "structs", "globals", "functions":
		default:
			return d.errorf(n, "unknown program key %q", key)
		}
	}

	if s := get(n, "structs"); s != nil {
		for _, sn := range s.Content {
			if err := d.structDecl(sn); err != nil {
				return err
			}
		}
	}

	d.push()

	if g := get(n, "globals"); g != nil {
		for _, gn := range g.Content {
			v, err := d.global(gn)
			if err != nil {
				return err
			}

			d.prog.Globals = append(d.prog.Globals, v)
		}
	}

	fns := get(n, "functions")
	if fns == nil {
		return nil
	}

	// Signatures first, so calls may refer to later functions.
	for _, fn := range fns.Content {
		f, err := d.signature(fn)
		if err != nil {
			return err
		}

		if d.funcs[f.Name] != nil {
			return d.errorf(fn, "function %q redeclared", f.Name)
		}

		d.funcs[f.Name] = f
		d.prog.Functions = append(d.prog.Functions, f)
	}

	for i, fn := range fns.Content {
		if err := d.functionBody(d.prog.Functions[i], fn); err != nil {
			return errors.Wrap(err, "function %v", d.prog.Functions[i].Name)
		}
	}

	return nil
}

func (d *decoder) structDecl(n *yaml.Node) error {
	name := scalar(get(n, "name"))
	if name == "" {
		return d.errorf(n, "struct without a name")
	}

	st := &types.Struct{Name: name}

	for _, mn := range seq(get(n, "members")) {
		ty, err := d.typ(get(mn, "type"))
		if err != nil {
			return err
		}

		st.Members = append(st.Members, types.StructMember{Name: scalar(get(mn, "name")), Type: ty})
	}

	d.structs[name] = st
	d.prog.Structs = append(d.prog.Structs, st)

	return nil
}

func (d *decoder) typ(n *yaml.Node) (types.Type, error) {
	if n == nil {
		return nil, nil
	}

	t, err := ParseType(n.Value, d.structs)
	if err != nil {
		return nil, d.errorf(n, "%v", err)
	}

	return t, nil
}

func (d *decoder) global(n *yaml.Node) (*Variable, error) {
	var v *Variable
	var err error

	switch {
	case get(n, "var") != nil:
		v, err = d.varDecl(n, core.SpacePrivate)
	case get(n, "const") != nil:
		v, err = d.valueDecl(n, "const", VarKindConst)
	default:
		return nil, d.errorf(n, "module scope declarations are var or const")
	}

	if err != nil {
		return nil, err
	}

	if bn := get(n, "binding"); bn != nil {
		if len(bn.Content) != 2 {
			return nil, d.errorf(bn, "binding is [group, binding]")
		}

		var bp core.BindingPoint

		if err := bn.Content[0].Decode(&bp.Group); err != nil {
			return nil, d.errorf(bn, "group: %v", err)
		}

		if err := bn.Content[1].Decode(&bp.Binding); err != nil {
			return nil, d.errorf(bn, "binding: %v", err)
		}

		v.Binding = &bp
	}

	return v, nil
}

func (d *decoder) varDecl(n *yaml.Node, defSpace core.AddressSpace) (*Variable, error) {
	v := &Variable{
		Name:  scalar(get(n, "var")),
		Kind:  VarKindVar,
		Space: defSpace,
		Span:  d.span(n),
	}

	if sn := get(n, "space"); sn != nil {
		var ok bool
		if v.Space, ok = core.ParseAddressSpace(sn.Value); !ok {
			return nil, d.errorf(sn, "unknown address space %q", sn.Value)
		}
	}

	v.Access = v.Space.DefaultAccess()

	if an := get(n, "access"); an != nil {
		var ok bool
		if v.Access, ok = core.ParseAccess(an.Value); !ok {
			return nil, d.errorf(an, "unknown access mode %q", an.Value)
		}
	}

	if err := d.typedInit(n, v, false); err != nil {
		return nil, err
	}

	d.declare(v)

	return v, nil
}

func (d *decoder) valueDecl(n *yaml.Node, key string, kind VarKind) (*Variable, error) {
	v := &Variable{
		Name: scalar(get(n, key)),
		Kind: kind,
		Span: d.span(n),
	}

	if err := d.typedInit(n, v, true); err != nil {
		return nil, err
	}

	d.declare(v)

	return v, nil
}

func (d *decoder) typedInit(n *yaml.Node, v *Variable, initRequired bool) (err error) {
	if v.Name == "" {
		return d.errorf(n, "declaration without a name")
	}

	if v.Type, err = d.typ(get(n, "type")); err != nil {
		return err
	}

	in := get(n, "init")

	switch {
	case in != nil:
		if v.Init, err = d.expr(in); err != nil {
			return err
		}

		if v.Type == nil {
			v.Type = v.Init.Type()
		} else {
			d.concretize(v.Init, v.Type)
		}
	case initRequired:
		return d.errorf(n, "%v %q needs an initializer", v.Kind, v.Name)
	case v.Type == nil:
		return d.errorf(n, "%v %q needs a type or an initializer", v.Kind, v.Name)
	}

	return nil
}

func (d *decoder) signature(n *yaml.Node) (*Function, error) {
	f := &Function{
		Name: scalar(get(n, "name")),
		Span: d.span(n),
	}

	if f.Name == "" {
		return nil, d.errorf(n, "function without a name")
	}

	if sn := get(n, "stage"); sn != nil {
		var ok bool
		if f.Stage, ok = core.ParseStage(sn.Value); !ok {
			return nil, d.errorf(sn, "unknown stage %q", sn.Value)
		}
	}

	var err error

	if f.ReturnType, err = d.typ(get(n, "return")); err != nil {
		return nil, err
	}

	for _, pn := range seq(get(n, "params")) {
		ty, err := d.typ(get(pn, "type"))
		if err != nil {
			return nil, err
		}

		if ty == nil {
			return nil, d.errorf(pn, "parameter without a type")
		}

		f.Params = append(f.Params, &Variable{
			Name: scalar(get(pn, "name")),
			Kind: VarKindParam,
			Type: ty,
			Span: d.span(pn),
		})
	}

	return f, nil
}

func (d *decoder) functionBody(f *Function, n *yaml.Node) error {
	d.push()
	defer d.pop()

	for _, p := range f.Params {
		d.declare(p)
	}

	for _, wn := range seq(get(n, "workgroup_size")) {
		e, err := d.expr(wn)
		if err != nil {
			return err
		}

		d.concretize(e, types.U32)
		f.WorkgroupSize = append(f.WorkgroupSize, e)
	}

	body, err := d.block(get(n, "body"))
	if err != nil {
		return err
	}

	if body == nil {
		body = &Block{Span: f.Span}
	}

	f.Body = body

	return nil
}

func (d *decoder) block(n *yaml.Node) (*Block, error) {
	if n == nil {
		return nil, nil
	}

	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "statement list expected")
	}

	d.push()
	defer d.pop()

	b := &Block{Span: d.span(n)}

	for _, sn := range n.Content {
		s, err := d.stmt(sn)
		if err != nil {
			return nil, err
		}

		b.Stmts = append(b.Stmts, s)
	}

	return b, nil
}

func (d *decoder) pushScope() func() {
	d.push()
	return d.pop
}

func (d *decoder) push() { d.scopes = append(d.scopes, make(map[string]*Variable)) }
func (d *decoder) pop()  { d.scopes = d.scopes[:len(d.scopes)-1] }

func (d *decoder) declare(v *Variable) { d.scopes[len(d.scopes)-1][v.Name] = v }

func (d *decoder) lookup(name string) *Variable {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if v, ok := d.scopes[i][name]; ok {
			return v
		}
	}

	return nil
}

func keys(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	res := make([]string, 0, len(n.Content)/2)

	for i := 0; i+1 < len(n.Content); i += 2 {
		res = append(res, n.Content[i].Value)
	}

	return res
}

func get(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}

	return nil
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}

	return n.Value
}

func seq(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}

	return n.Content
}

// concretize retypes an abstract literal to the scalar of ty.
func (d *decoder) concretize(e Expr, ty types.Type) {
	lit, ok := e.(*Literal)
	if !ok || !d.abstract[lit] {
		return
	}

	sc, ok := types.ScalarOf(ty)
	if !ok {
		return
	}

	v, err := constant.Convert(lit.Value, sc)
	if err != nil {
		return
	}

	lit.Value = v
	delete(d.abstract, lit)
}
