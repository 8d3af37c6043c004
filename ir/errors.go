package ir

import (
	"fmt"

	"tlog.app/go/loc"
)

// InvariantViolation is the panic value raised when the graph is about to
// become inconsistent: a dangling use, an instruction after a terminator, a
// double-terminated block. It always means a bug in the compiler, never bad
// input.
type InvariantViolation struct {
	Message string
	PC      loc.PC
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("ir: invariant violated: %s (at %v)", e.Message, e.PC)
}

func fatalf(format string, args ...interface{}) {
	panic(&InvariantViolation{
		Message: fmt.Sprintf(format, args...),
		PC:      loc.Caller(1),
	})
}
