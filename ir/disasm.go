package ir

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderir/core"
)

// Disassemble renders mod as text. The output depends only on the structure
// of the module: blocks are labeled in walk order, values are numbered on
// first mention, and names are made unique with a numeric suffix.
func Disassemble(mod *Module) string {
	d := &disassembler{
		blocks: make(map[*Block]string),
		values: make(map[Value]string),
		funcs:  make(map[*Function]string),
		used:   make(map[string]bool),
		suffix: make(map[string]int),
	}

	d.module(mod)

	return d.out.String()
}

type disassembler struct {
	out strings.Builder

	blocks map[*Block]string
	values map[Value]string
	funcs  map[*Function]string

	// used holds every label printed so far, blocks included.
	used   map[string]bool
	suffix map[string]int

	nextBlock int
	nextValue int
	sections  int
}

func (d *disassembler) module(mod *Module) {
	if structs := mod.Types.Structs(); len(structs) != 0 {
		d.section()

		for _, s := range structs {
			d.printf("%s\n", s.Decl())
		}
	}

	root := mod.Root()
	if len(root.instructions) > 1 || (len(root.instructions) == 1 && root.Terminator() == nil) {
		d.section()
		d.printf("# Root block\n")
		d.block(root, 0)
	}

	for _, f := range mod.Functions() {
		d.section()
		d.function(f)
	}
}

func (d *disassembler) section() {
	if d.sections != 0 {
		d.printf("\n")
	}

	d.sections++
}

func (d *disassembler) function(f *Function) {
	for _, b := range f.blocks {
		d.blockLabel(b)
	}

	d.printf("%s = ", d.funcName(f))

	if f.IsEntryPoint() {
		d.printf("@%v ", f.Stage)

		if f.Stage == core.StageCompute {
			ws := f.WorkgroupSize
			d.printf("@workgroup_size(%d, %d, %d) ", ws[0], ws[1], ws[2])
		}
	}

	d.printf("func(")

	for i, p := range f.params {
		if i != 0 {
			d.printf(", ")
		}

		d.printf("%s:%v", d.value(p), p.Type())
	}

	d.printf("):%v -> %s {\n", f.ReturnType, d.blockLabel(f.Entry()))

	for _, b := range f.blocks {
		d.block(b, 2)
	}

	d.printf("}\n")
}

func (d *disassembler) block(b *Block, indent int) {
	pad := strings.Repeat(" ", indent)

	d.printf("%s%s = block ", pad, d.blockLabel(b))

	if len(b.params) != 0 {
		d.printf("(")

		for i, p := range b.params {
			if i != 0 {
				d.printf(", ")
			}

			d.printf("%s:%v", d.value(p), p.Type())
		}

		d.printf(") ")
	}

	d.printf("{\n")

	for _, inst := range b.instructions {
		d.printf("%s  ", pad)
		d.instruction(inst)
		d.printf("\n")
	}

	d.printf("%s}\n", pad)
}

func (d *disassembler) instruction(inst *Instruction) {
	if len(inst.results) != 0 {
		for i, r := range inst.results {
			if i != 0 {
				d.printf(", ")
			}

			d.printf("%s:%v", d.value(r), r.Type())
		}

		d.printf(" = ")
	}

	switch inst.Op {
	case OpVar:
		d.printf("var")

		if len(inst.operands) != 0 {
			d.printf(", %s", d.operand(inst.operands[0]))
		}

		if inst.Binding != nil {
			d.printf(" %v", *inst.Binding)
		}
	case OpBinary:
		d.printf("%v %s", inst.Binary, d.operandList(inst.operands))
	case OpUnary:
		d.printf("%v %s", inst.Unary, d.operandList(inst.operands))
	case OpBuiltinCall:
		d.named(inst.Builtin.String(), inst.operands)
	case OpIntrinsicCall:
		d.named(inst.Intrinsic.String(), inst.operands)
	case OpCall:
		d.printf("call %s", d.funcName(inst.Callee))

		if len(inst.operands) != 0 {
			d.printf(", %s", d.operandList(inst.operands))
		}
	case OpSwizzle:
		d.printf("swizzle %s, ", d.operand(inst.operands[0]))

		for _, i := range inst.Indices {
			d.printf("%c", "xyzw"[i&3])
		}
	case OpBranch:
		d.printf("br %s", d.target(inst, 0))
	case OpCondBranch:
		d.printf("cond_br %s, %s, %s", d.operand(inst.operands[0]), d.target(inst, 0), d.target(inst, 1))
		d.mergeSuffix(inst)
	case OpSwitch:
		d.printf("switch %s [", d.operand(inst.operands[0]))

		for i, c := range inst.Cases {
			if i != 0 {
				d.printf(", ")
			}

			d.printf("c: (")

			for _, s := range c.Selectors {
				d.printf("%v, ", s)
			}

			if c.Default {
				d.printf("default, ")
			}

			d.printf("%s)", d.target(inst, i))
		}

		d.printf("]")
		d.mergeSuffix(inst)
	case OpLoop:
		d.printf("loop %s [continuing: %s, merge: %s]", d.target(inst, 0),
			d.blockLabel(inst.continuing), d.blockLabel(inst.merge))
	default:
		d.named(inst.Op.String(), inst.operands)
	}
}

func (d *disassembler) named(name string, ops []Value) {
	d.printf("%s", name)

	if len(ops) != 0 {
		d.printf(" %s", d.operandList(ops))
	}
}

func (d *disassembler) mergeSuffix(inst *Instruction) {
	if inst.merge != nil {
		d.printf(" [merge: %s]", d.blockLabel(inst.merge))
	}
}

func (d *disassembler) target(inst *Instruction, i int) string {
	label := d.blockLabel(inst.targets[i])

	args := inst.TargetArgs(i)
	if len(args) == 0 {
		return label
	}

	return label + "(" + d.operandList(args) + ")"
}

func (d *disassembler) operandList(ops []Value) string {
	var b strings.Builder

	for i, v := range ops {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(d.operand(v))
	}

	return b.String()
}

func (d *disassembler) operand(v Value) string {
	switch v := v.(type) {
	case nil:
		return "undef"
	case *Constant:
		return v.Value.String()
	default:
		return d.value(v)
	}
}

func (d *disassembler) value(v Value) string {
	if s, ok := d.values[v]; ok {
		return s
	}

	d.nextValue++

	s := "%" + d.unique(v.Name(), d.nextValue)
	d.values[v] = s

	return s
}

func (d *disassembler) funcName(f *Function) string {
	if s, ok := d.funcs[f]; ok {
		return s
	}

	d.nextValue++

	s := "%" + d.unique(f.Name, d.nextValue)
	d.funcs[f] = s

	return s
}

func (d *disassembler) unique(name string, id int) string {
	if name == "" {
		name = fmt.Sprintf("%d", id)
	}

	return d.label(name)
}

// label returns name, or name_N with the first N not printed yet.
func (d *disassembler) label(name string) string {
	if !d.used[name] {
		d.used[name] = true
		return name
	}

	n := d.suffix[name]

	for {
		n++

		s := fmt.Sprintf("%s_%d", name, n)
		if d.used[s] {
			continue
		}

		d.suffix[name] = n
		d.used[s] = true

		return s
	}
}

func (d *disassembler) blockLabel(b *Block) string {
	if b == nil {
		return "undef"
	}

	s, ok := d.blocks[b]
	if !ok {
		d.nextBlock++
		s = "%" + d.label(fmt.Sprintf("b%d", d.nextBlock))
		d.blocks[b] = s
	}

	return s
}

func (d *disassembler) printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.out, format, args...)
}
