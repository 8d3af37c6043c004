package spirv

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/gogpu/shaderir/ir"
	"github.com/gogpu/shaderir/types"
)

// function holds the per-function emission state.
//
// Every loop body gets a synthesized header block carrying the OpLoopMerge
// and the phis of the body parameters; branches into the body go to the
// header instead. A conditional break out of a loop without a selection
// merge gets a synthesized block that branches to the loop merge.
type function struct {
	*Backend

	fn     *ir.Function
	order  []*ir.Block
	values map[ir.Value]uint32
	labels map[*ir.Block]uint32

	headers    map[*ir.Block]uint32
	loops      map[*ir.Block]*ir.Instruction
	loopMerges map[*ir.Block]bool

	// breaks maps a cond_br to the target index leaving the loop and the
	// label of the block synthesized for that edge.
	breaks map[*ir.Instruction]breakEdge

	incoming map[*ir.Block][]edge
}

type breakEdge struct {
	index int
	label uint32
}

type edge struct {
	parent uint32
	args   []ir.Value
}

func (b *Backend) emitFunction(f *ir.Function) error {
	if f.IsEntryPoint() && (len(f.Params()) != 0 || !types.IsVoid(f.ReturnType)) {
		return errors.New("entry point parameters and results are not supported")
	}

	s := &function{
		Backend:    b,
		fn:         f,
		values:     make(map[ir.Value]uint32),
		labels:     make(map[*ir.Block]uint32),
		headers:    make(map[*ir.Block]uint32),
		loops:      make(map[*ir.Block]*ir.Instruction),
		loopMerges: make(map[*ir.Block]bool),
		breaks:     make(map[*ir.Instruction]breakEdge),
		incoming:   make(map[*ir.Block][]edge),
	}

	s.order = append(ir.ReversePostOrder(f), ir.Unreachable(f)...)

	ret, err := s.typeID(f.ReturnType)
	if err != nil {
		return err
	}

	params := make([]uint32, len(f.Params()))
	for i, p := range f.Params() {
		if params[i], err = s.typeID(p.Type()); err != nil {
			return err
		}
	}

	fid := s.functionIDs[f]
	s.builder.AddFunction(fid, s.funcTypeID(ret, params), ret, FunctionControlNone)
	s.name(fid, f.Name)

	for i, p := range f.Params() {
		id := s.builder.AllocID()
		s.values[p] = id
		s.builder.AddFunctionParameter(id, params[i])
		s.name(id, p.Name())
	}

	if err := s.allocate(); err != nil {
		return err
	}

	for _, blk := range s.order {
		if err := s.emitBlock(blk); err != nil {
			return err
		}
	}

	s.builder.AddFunctionEnd()

	if tlog.If("spirv") {
		tlog.Printw("spirv function", "name", f.Name, "id", fid, "blocks", len(s.order))
	}

	return nil
}

// allocate assigns ids to labels and values and records the incoming edges
// of every block with parameters.
func (s *function) allocate() error {
	for _, blk := range s.order {
		s.labels[blk] = s.builder.AllocID()

		if t := blk.Terminator(); t != nil && t.Op == ir.OpLoop {
			body := t.Targets()[0]

			if s.loops[body] != nil {
				return errors.New("block %d is the body of two loops", body.ID)
			}

			s.loops[body] = t
			s.headers[body] = s.builder.AllocID()
			s.loopMerges[t.Merge()] = true
		}
	}

	for _, blk := range s.order {
		for _, p := range blk.Params() {
			s.values[p] = s.builder.AllocID()
		}

		for _, inst := range blk.Instructions() {
			if len(inst.Results()) != 0 && inst.Op != ir.OpLet {
				s.values[inst.Result(0)] = s.builder.AllocID()
			}
		}
	}

	for _, blk := range s.order {
		t := blk.Terminator()
		if t == nil {
			return errors.New("block %d has no terminator", blk.ID)
		}

		if t.Op == ir.OpCondBranch && t.Merge() == nil {
			if err := s.classifyBranch(t); err != nil {
				return err
			}
		}

		seen := make(map[*ir.Block]uint32)

		for i, target := range t.Targets() {
			parent := s.labels[blk]

			if br, ok := s.breaks[t]; ok && br.index == i {
				parent = br.label
			}

			if p, ok := seen[target]; ok && p == parent && len(target.Params()) != 0 {
				return errors.New("block %d is reached twice from block %d", target.ID, blk.ID)
			}

			seen[target] = parent

			if len(target.Params()) != 0 {
				s.incoming[target] = append(s.incoming[target], edge{parent: parent, args: t.TargetArgs(i)})
			}
		}
	}

	return nil
}

// classifyBranch accepts a cond_br without a merge if it is a loop back edge
// or a conditional loop exit.
func (s *function) classifyBranch(t *ir.Instruction) error {
	tg := t.Targets()

	if s.loops[tg[0]] != nil || s.loops[tg[1]] != nil {
		return nil
	}

	for i := 1; i >= 0; i-- {
		if s.loopMerges[tg[i]] && !s.loopMerges[tg[1-i]] {
			s.breaks[t] = breakEdge{index: i, label: s.builder.AllocID()}
			return nil
		}
	}

	return errors.New("cond_br in block %d has no merge block", t.Block().ID)
}

func (s *function) target(blk *ir.Block) uint32 {
	if h, ok := s.headers[blk]; ok {
		return h
	}

	return s.labels[blk]
}

func (s *function) emitBlock(blk *ir.Block) error {
	if loop := s.loops[blk]; loop != nil {
		s.builder.AddLabel(s.headers[blk])

		if err := s.emitPhis(blk); err != nil {
			return err
		}

		s.builder.AddOp(OpLoopMerge, s.labels[loop.Merge()], s.labels[loop.Continuing()], uint32(LoopControlNone))
		s.builder.AddOp(OpBranch, s.labels[blk])
		s.builder.AddLabel(s.labels[blk])
	} else {
		s.builder.AddLabel(s.labels[blk])

		if err := s.emitPhis(blk); err != nil {
			return err
		}
	}

	if blk == s.fn.Entry() {
		if err := s.emitLocals(); err != nil {
			return err
		}
	}

	for _, inst := range blk.Instructions() {
		if err := s.emitInst(inst); err != nil {
			return errors.Wrap(err, "block %d: %v", blk.ID, inst.Op)
		}
	}

	return nil
}

func (s *function) emitPhis(blk *ir.Block) error {
	for i, p := range blk.Params() {
		ty, err := s.typeID(p.Type())
		if err != nil {
			return err
		}

		var pairs []uint32

		for _, e := range s.incoming[blk] {
			if i >= len(e.args) {
				return errors.New("block %d: edge without argument %d", blk.ID, i)
			}

			v, err := s.value(e.args[i])
			if err != nil {
				return err
			}

			pairs = append(pairs, v, e.parent)
		}

		s.builder.AddCode(OpPhi, ty, s.values[p], pairs...)
		s.name(s.values[p], p.Name())
	}

	return nil
}

// emitLocals declares every function-space variable at the top of the entry
// block. Initializers are stored where the var appears.
func (s *function) emitLocals() error {
	for _, blk := range s.order {
		for _, inst := range blk.Instructions() {
			if inst.Op != ir.OpVar {
				continue
			}

			res := inst.Result(0)

			ty, err := s.typeID(res.Type())
			if err != nil {
				return err
			}

			id := s.values[res]
			s.builder.AddCode(OpVariable, ty, id, uint32(StorageClassFunction))
			s.name(id, res.Name())
		}
	}

	return nil
}

// value returns the id of an operand.
func (s *function) value(v ir.Value) (uint32, error) {
	switch v := v.(type) {
	case nil:
		return 0, errors.New("undefined operand")

	case *ir.Constant:
		if v.IsLiteral() {
			return 0, errors.New("literal operand %v used as a value", v.Value)
		}

		return s.constantID(v.Value)

	case *ir.InstructionResult:
		if inst := v.Instruction(); inst.Op == ir.OpLet {
			return s.value(inst.Operand(0))
		}

		if id, ok := s.globalIDs[v]; ok {
			return id, nil
		}
	}

	if id, ok := s.values[v]; ok {
		return id, nil
	}

	return 0, errors.New("value %v is defined outside the function", v.Name())
}

func (s *function) ids(vs []ir.Value) ([]uint32, error) {
	ids := make([]uint32, len(vs))

	for i, v := range vs {
		id, err := s.value(v)
		if err != nil {
			return nil, err
		}

		ids[i] = id
	}

	return ids, nil
}
