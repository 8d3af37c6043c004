package ir

// ReversePostOrder returns the blocks of f reachable from the entry so that
// every block comes after its dominators. Successors are visited last to
// first, which keeps the true arm of a branch ahead of the false arm.
func ReversePostOrder(f *Function) []*Block {
	seen := make(map[*Block]bool, len(f.blocks))
	post := make([]*Block, 0, len(f.blocks))

	var visit func(b *Block)
	visit = func(b *Block) {
		seen[b] = true

		succ := b.Successors()
		for i := len(succ) - 1; i >= 0; i-- {
			if !seen[succ[i]] {
				visit(succ[i])
			}
		}

		post = append(post, b)
	}

	visit(f.Entry())

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}

	return post
}

// Unreachable returns the blocks of f not reachable from the entry, in
// layout order.
func Unreachable(f *Function) []*Block {
	reach := make(map[*Block]bool, len(f.blocks))
	for _, b := range ReversePostOrder(f) {
		reach[b] = true
	}

	var res []*Block

	for _, b := range f.blocks {
		if !reach[b] {
			res = append(res, b)
		}
	}

	return res
}

// LoopOf returns the loop instruction whose body is b, or nil.
func LoopOf(b *Block) *Instruction {
	for _, p := range b.Predecessors() {
		if t := p.Terminator(); t.Op == OpLoop && t.targets[0] == b {
			return t
		}
	}

	return nil
}
