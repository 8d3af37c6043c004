// Package ir defines the instruction graph shader modules are lowered to.
//
// # Structure
//
// A Module owns:
//   - Types and Constants: interned, in first-use order
//   - the root block: module-scope variables, ended by root_terminator
//   - Functions: each a list of Blocks in layout order, entry first
//
// A Block is a list of Instructions ending in exactly one terminator.
// Instructions consume Values and produce InstructionResults. Every Value
// keeps the ordered list of operand slots referring to it, so rewriting the
// graph goes through Instruction.ReplaceOperand or ReplaceAllUsesWith and
// never through the operand slice directly.
//
// Control flow is explicit: br, cond_br, switch and loop name their target
// blocks, and values flow across edges as block parameters. Structured
// constructs record their merge block so backends that need structured
// control flow can recover it.
//
// # Invariants
//
// Breaking the graph, for example appending after a terminator or destroying
// an instruction whose result is still used, panics with *InvariantViolation.
// CheckInvariants re-checks the whole module and is run after every
// transform.
package ir
