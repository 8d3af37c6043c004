package sem

import (
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/types"
)

// statement kinds, looked up in this order
var stmtKeys = []string{"var", "let", "const", "assign", "if", "loop", "for", "while", "switch", "eval", "return", "block"}

func (d *decoder) stmt(n *yaml.Node) (Stmt, error) {
	sp := d.span(n)

	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return &Break{Span: sp}, nil
		case "continue":
			return &Continue{Span: sp}, nil
		case "discard":
			return &Discard{Span: sp}, nil
		case "return":
			return &Return{Span: sp}, nil
		}

		return nil, d.errorf(n, "unknown statement %q", n.Value)
	}

	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "statement must be a scalar or a mapping")
	}

	kind := ""

	for _, k := range stmtKeys {
		if get(n, k) != nil {
			kind = k
			break
		}
	}

	switch kind {
	case "var":
		v, err := d.varDecl(n, core.SpaceFunction)
		if err != nil {
			return nil, err
		}

		return &VarDecl{Var: v, Span: sp}, nil

	case "let":
		v, err := d.valueDecl(n, "let", VarKindLet)
		if err != nil {
			return nil, err
		}

		return &LetDecl{Var: v, Span: sp}, nil

	case "const":
		v, err := d.valueDecl(n, "const", VarKindConst)
		if err != nil {
			return nil, err
		}

		return &ConstDecl{Var: v, Span: sp}, nil

	case "assign":
		return d.assign(n)

	case "if":
		return d.ifStmt(n)

	case "loop":
		return d.loop(n)

	case "for":
		return d.forStmt(n)

	case "while":
		cond, err := d.condition(get(n, "while"))
		if err != nil {
			return nil, err
		}

		body, err := d.block(get(n, "body"))
		if err != nil {
			return nil, err
		}

		return &While{Cond: cond, Body: orEmpty(body), Span: sp}, nil

	case "switch":
		return d.switchStmt(n)

	case "eval":
		e, err := d.expr(get(n, "eval"))
		if err != nil {
			return nil, err
		}

		return &ExprStmt{Expr: e, Span: sp}, nil

	case "return":
		vn := get(n, "return")
		if vn.Kind == yaml.ScalarNode && vn.Tag == "!!null" {
			return &Return{Span: sp}, nil
		}

		e, err := d.expr(vn)
		if err != nil {
			return nil, err
		}

		return &Return{Value: e, Span: sp}, nil

	case "block":
		return d.block(get(n, "block"))
	}

	return nil, d.errorf(n, "unknown statement with keys %v", keys(n))
}

func orEmpty(b *Block) *Block {
	if b != nil {
		return b
	}

	return &Block{}
}

func (d *decoder) condition(n *yaml.Node) (Expr, error) {
	if n == nil {
		return nil, nil
	}

	e, err := d.expr(n)
	if err != nil {
		return nil, err
	}

	if e.Type() != types.Bool {
		return nil, d.errorf(n, "condition is %v, want bool", e.Type())
	}

	return e, nil
}

func (d *decoder) assign(n *yaml.Node) (Stmt, error) {
	lhs, err := d.expr(get(n, "assign"))
	if err != nil {
		return nil, err
	}

	rhs, err := d.expr(get(n, "value"))
	if err != nil {
		return nil, err
	}

	s := &Assign{LHS: lhs, RHS: rhs, Span: d.span(n)}

	if on := get(n, "op"); on != nil {
		op, ok := core.ParseBinaryOp(on.Value)
		if !ok {
			return nil, d.errorf(on, "unknown operator %q", on.Value)
		}

		s.Op = &op
	}

	d.concretize(rhs, lhs.Type())

	return s, nil
}

func (d *decoder) ifStmt(n *yaml.Node) (Stmt, error) {
	cond, err := d.condition(get(n, "if"))
	if err != nil {
		return nil, err
	}

	then, err := d.block(get(n, "then"))
	if err != nil {
		return nil, err
	}

	s := &If{Cond: cond, Then: orEmpty(then), Span: d.span(n)}

	en := get(n, "else")

	switch {
	case en == nil:
	case en.Kind == yaml.MappingNode:
		if s.Else, err = d.ifStmt(en); err != nil {
			return nil, err
		}
	default:
		b, err := d.block(en)
		if err != nil {
			return nil, err
		}

		s.Else = b
	}

	return s, nil
}

func (d *decoder) loop(n *yaml.Node) (Stmt, error) {
	body, err := d.block(get(n, "loop"))
	if err != nil {
		return nil, err
	}

	s := &Loop{Body: orEmpty(body), Span: d.span(n)}

	if s.Continuing, err = d.block(get(n, "continuing")); err != nil {
		return nil, err
	}

	if s.BreakIf, err = d.condition(get(n, "break_if")); err != nil {
		return nil, err
	}

	return s, nil
}

func (d *decoder) forStmt(n *yaml.Node) (Stmt, error) {
	defer d.pushScope()()

	hdr := get(n, "for")
	s := &For{Span: d.span(n)}

	var err error

	if in := get(hdr, "init"); in != nil {
		if s.Init, err = d.stmt(in); err != nil {
			return nil, err
		}
	}

	if s.Cond, err = d.condition(get(hdr, "cond")); err != nil {
		return nil, err
	}

	if un := get(hdr, "update"); un != nil {
		if s.Update, err = d.stmt(un); err != nil {
			return nil, err
		}
	}

	body, err := d.block(get(n, "body"))
	if err != nil {
		return nil, err
	}

	s.Body = orEmpty(body)

	return s, nil
}

func (d *decoder) switchStmt(n *yaml.Node) (Stmt, error) {
	sel, err := d.expr(get(n, "switch"))
	if err != nil {
		return nil, err
	}

	if !types.IsInteger(sel.Type()) {
		return nil, d.errorf(n, "switch selector is %v", sel.Type())
	}

	s := &Switch{Selector: sel, Span: d.span(n)}

	for _, cn := range seq(get(n, "cases")) {
		c := &Case{Span: d.span(cn)}

		for _, en := range seq(get(cn, "selectors")) {
			e, err := d.expr(en)
			if err != nil {
				return nil, err
			}

			d.concretize(e, sel.Type())
			c.Selectors = append(c.Selectors, e)
		}

		if dn := get(cn, "default"); dn != nil {
			if err := dn.Decode(&c.Default); err != nil {
				return nil, d.errorf(dn, "default: %v", err)
			}
		}

		body, err := d.block(get(cn, "body"))
		if err != nil {
			return nil, err
		}

		c.Body = orEmpty(body)
		s.Cases = append(s.Cases, c)
	}

	return s, nil
}
