package core

import "fmt"

// BinaryOp represents binary operators.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryModulo
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryLogicalAnd
	BinaryLogicalOr
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
	BinaryShiftLeft
	BinaryShiftRight
)

var binaryOpNames = [...]string{
	BinaryAdd:          "add",
	BinarySubtract:     "sub",
	BinaryMultiply:     "mul",
	BinaryDivide:       "div",
	BinaryModulo:       "mod",
	BinaryAnd:          "and",
	BinaryOr:           "or",
	BinaryXor:          "xor",
	BinaryLogicalAnd:   "logical_and",
	BinaryLogicalOr:    "logical_or",
	BinaryEqual:        "eq",
	BinaryNotEqual:     "neq",
	BinaryLess:         "lt",
	BinaryLessEqual:    "lte",
	BinaryGreater:      "gt",
	BinaryGreaterEqual: "gte",
	BinaryShiftLeft:    "shl",
	BinaryShiftRight:   "shr",
}

var binaryOpSymbols = map[string]BinaryOp{
	"+": BinaryAdd, "-": BinarySubtract, "*": BinaryMultiply, "/": BinaryDivide,
	"%": BinaryModulo, "&": BinaryAnd, "|": BinaryOr, "^": BinaryXor,
	"&&": BinaryLogicalAnd, "||": BinaryLogicalOr,
	"==": BinaryEqual, "!=": BinaryNotEqual,
	"<": BinaryLess, "<=": BinaryLessEqual, ">": BinaryGreater, ">=": BinaryGreaterEqual,
	"<<": BinaryShiftLeft, ">>": BinaryShiftRight,
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}

	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// ParseBinaryOp accepts either the symbol ("+") or the IR name ("add").
func ParseBinaryOp(s string) (BinaryOp, bool) {
	if op, ok := binaryOpSymbols[s]; ok {
		return op, true
	}

	for i, n := range binaryOpNames {
		if n == s {
			return BinaryOp(i), true
		}
	}

	return 0, false
}

// IsComparison reports whether the operator yields bool.
func (op BinaryOp) IsComparison() bool {
	return op >= BinaryEqual && op <= BinaryGreaterEqual
}

// IsShortCircuit reports whether the right operand is evaluated conditionally.
func (op BinaryOp) IsShortCircuit() bool {
	return op == BinaryLogicalAnd || op == BinaryLogicalOr
}

// IsShift reports whether op is a shift. Shift amounts keep their own type.
func (op BinaryOp) IsShift() bool {
	return op == BinaryShiftLeft || op == BinaryShiftRight
}

// UnaryOp represents unary operators.
type UnaryOp uint8

const (
	UnaryNegate UnaryOp = iota
	UnaryNot
	UnaryComplement
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNegate:
		return "negation"
	case UnaryNot:
		return "not"
	case UnaryComplement:
		return "complement"
	default:
		return fmt.Sprintf("UnaryOp(%d)", uint8(op))
	}
}

// ParseUnaryOp accepts either the symbol ("-") or the IR name ("negation").
func ParseUnaryOp(s string) (UnaryOp, bool) {
	switch s {
	case "-", "negation":
		return UnaryNegate, true
	case "!", "not":
		return UnaryNot, true
	case "~", "complement":
		return UnaryComplement, true
	}

	return 0, false
}
