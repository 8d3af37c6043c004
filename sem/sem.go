// Package sem defines the typed semantic tree the IR is built from.
//
// Every expression carries its resolved type and every identifier is
// already bound to its declaration. The tree does no checking of its own:
// it is what a front-end resolver hands to lower.Program.
package sem

import (
	"github.com/gogpu/shaderir/constant"
	"github.com/gogpu/shaderir/core"
	"github.com/gogpu/shaderir/diag"
	"github.com/gogpu/shaderir/types"
)

// Program is a resolved translation unit.
type Program struct {
	Structs   []*types.Struct
	Globals   []*Variable // module-scope var and const, in declaration order
	Functions []*Function
}

// Function returns the function with the given name, or nil.
func (p *Program) Function(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// Node is the base interface for all tree nodes.
type Node interface {
	Pos() diag.Span
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	// Type returns the resolved value type.
	Type() types.Type
	exprNode()
}

// VarKind tells how a Variable was declared.
type VarKind uint8

const (
	VarKindVar VarKind = iota
	VarKindLet
	VarKindConst
	VarKindParam
)

func (k VarKind) String() string {
	switch k {
	case VarKindVar:
		return "var"
	case VarKindLet:
		return "let"
	case VarKindConst:
		return "const"
	case VarKindParam:
		return "param"
	default:
		return "unknown"
	}
}

// Variable is a declared name.
type Variable struct {
	Name string
	Kind VarKind
	Type types.Type // store type

	// var only
	Space   core.AddressSpace
	Access  core.Access
	Binding *core.BindingPoint

	Init Expr // nil if none
	Span diag.Span
}

// Function is a function declaration.
type Function struct {
	Name       string
	Params     []*Variable
	ReturnType types.Type // nil or types.Void for none

	Stage         core.Stage
	WorkgroupSize []Expr // compute entry points only; constant expressions

	Body *Block
	Span diag.Span
}

func (f *Function) Pos() diag.Span { return f.Span }

// Statements

// Block is a braced statement list with its own scope.
type Block struct {
	Stmts []Stmt
	Span  diag.Span
}

func (b *Block) Pos() diag.Span { return b.Span }
func (b *Block) stmtNode()      {}

// VarDecl declares a function-scope var.
type VarDecl struct {
	Var  *Variable
	Span diag.Span
}

func (s *VarDecl) Pos() diag.Span { return s.Span }
func (s *VarDecl) stmtNode()      {}

// LetDecl declares an immutable value.
type LetDecl struct {
	Var  *Variable
	Span diag.Span
}

func (s *LetDecl) Pos() diag.Span { return s.Span }
func (s *LetDecl) stmtNode()      {}

// ConstDecl declares a compile-time constant.
type ConstDecl struct {
	Var  *Variable
	Span diag.Span
}

func (s *ConstDecl) Pos() diag.Span { return s.Span }
func (s *ConstDecl) stmtNode()      {}

// Assign stores RHS into the location LHS. A non-nil Op makes it a compound
// assignment (LHS = LHS Op RHS).
type Assign struct {
	LHS  Expr
	RHS  Expr
	Op   *core.BinaryOp
	Span diag.Span
}

func (s *Assign) Pos() diag.Span { return s.Span }
func (s *Assign) stmtNode()      {}

// If is an if statement. Else is nil, a *Block or an *If.
type If struct {
	Cond Expr
	Then *Block
	Else Stmt
	Span diag.Span
}

func (s *If) Pos() diag.Span { return s.Span }
func (s *If) stmtNode()      {}

// Loop is a loop statement with an optional continuing block and break-if.
type Loop struct {
	Body       *Block
	Continuing *Block // may be nil
	BreakIf    Expr   // may be nil, evaluated at the end of Continuing
	Span       diag.Span
}

func (s *Loop) Pos() diag.Span { return s.Span }
func (s *Loop) stmtNode()      {}

// For is a for loop. Any of Init, Cond and Update may be nil.
type For struct {
	Init   Stmt
	Cond   Expr
	Update Stmt
	Body   *Block
	Span   diag.Span
}

func (s *For) Pos() diag.Span { return s.Span }
func (s *For) stmtNode()      {}

// While is a while loop.
type While struct {
	Cond Expr
	Body *Block
	Span diag.Span
}

func (s *While) Pos() diag.Span { return s.Span }
func (s *While) stmtNode()      {}

// Switch is a switch statement.
type Switch struct {
	Selector Expr
	Cases    []*Case
	Span     diag.Span
}

func (s *Switch) Pos() diag.Span { return s.Span }
func (s *Switch) stmtNode()      {}

// Case is one clause of a switch. Selectors must be constant expressions.
type Case struct {
	Selectors []Expr
	Default   bool
	Body      *Block
	Span      diag.Span
}

// Break exits the innermost loop or switch.
type Break struct {
	Span diag.Span
}

func (s *Break) Pos() diag.Span { return s.Span }
func (s *Break) stmtNode()      {}

// Continue jumps to the continuing part of the innermost loop.
type Continue struct {
	Span diag.Span
}

func (s *Continue) Pos() diag.Span { return s.Span }
func (s *Continue) stmtNode()      {}

// Return leaves the function. Value is nil for void functions.
type Return struct {
	Value Expr
	Span  diag.Span
}

func (s *Return) Pos() diag.Span { return s.Span }
func (s *Return) stmtNode()      {}

// Discard ends the fragment invocation.
type Discard struct {
	Span diag.Span
}

func (s *Discard) Pos() diag.Span { return s.Span }
func (s *Discard) stmtNode()      {}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Expr
	Span diag.Span
}

func (s *ExprStmt) Pos() diag.Span { return s.Span }
func (s *ExprStmt) stmtNode()      {}

// Expressions

// Literal is a constant value.
type Literal struct {
	Value constant.Value
	Span  diag.Span
}

func (e *Literal) Pos() diag.Span   { return e.Span }
func (e *Literal) Type() types.Type { return e.Value.Type() }
func (e *Literal) exprNode()        {}

// VarRef names a variable. For a var it denotes the stored value; use
// AddressOf to get the pointer.
type VarRef struct {
	Var  *Variable
	Span diag.Span
}

func (e *VarRef) Pos() diag.Span   { return e.Span }
func (e *VarRef) Type() types.Type { return e.Var.Type }
func (e *VarRef) exprNode()        {}

// Unary is a unary operator application.
type Unary struct {
	Op      core.UnaryOp
	Operand Expr
	Ty      types.Type
	Span    diag.Span
}

func (e *Unary) Pos() diag.Span   { return e.Span }
func (e *Unary) Type() types.Type { return e.Ty }
func (e *Unary) exprNode()        {}

// Binary is a binary operator application.
type Binary struct {
	Op    core.BinaryOp
	Left  Expr
	Right Expr
	Ty    types.Type
	Span  diag.Span
}

func (e *Binary) Pos() diag.Span   { return e.Span }
func (e *Binary) Type() types.Type { return e.Ty }
func (e *Binary) exprNode()        {}

// Call calls a user function.
type Call struct {
	Func *Function
	Args []Expr
	Span diag.Span
}

func (e *Call) Pos() diag.Span { return e.Span }
func (e *Call) Type() types.Type {
	if e.Func.ReturnType == nil {
		return types.Void{}
	}

	return e.Func.ReturnType
}
func (e *Call) exprNode() {}

// BuiltinCall calls a builtin function.
type BuiltinCall struct {
	Builtin core.BuiltinFn
	Args    []Expr
	Ty      types.Type
	Span    diag.Span
}

func (e *BuiltinCall) Pos() diag.Span   { return e.Span }
func (e *BuiltinCall) Type() types.Type { return e.Ty }
func (e *BuiltinCall) exprNode()        {}

// Construct builds a value of type Ty. A single scalar argument for a vector
// type is a splat; no arguments is the zero value.
type Construct struct {
	Ty   types.Type
	Args []Expr
	Span diag.Span
}

func (e *Construct) Pos() diag.Span   { return e.Span }
func (e *Construct) Type() types.Type { return e.Ty }
func (e *Construct) exprNode()        {}

// Convert is a value conversion to Ty.
type Convert struct {
	Ty   types.Type
	Expr Expr
	Span diag.Span
}

func (e *Convert) Pos() diag.Span   { return e.Span }
func (e *Convert) Type() types.Type { return e.Ty }
func (e *Convert) exprNode()        {}

// Bitcast reinterprets Expr as Ty.
type Bitcast struct {
	Ty   types.Type
	Expr Expr
	Span diag.Span
}

func (e *Bitcast) Pos() diag.Span   { return e.Span }
func (e *Bitcast) Type() types.Type { return e.Ty }
func (e *Bitcast) exprNode()        {}

// Index selects an element of an array, vector or matrix.
type Index struct {
	Base  Expr
	Index Expr
	Ty    types.Type
	Span  diag.Span
}

func (e *Index) Pos() diag.Span   { return e.Span }
func (e *Index) Type() types.Type { return e.Ty }
func (e *Index) exprNode()        {}

// Member selects a struct member by position.
type Member struct {
	Base  Expr
	Index int
	Ty    types.Type
	Span  diag.Span
}

func (e *Member) Pos() diag.Span   { return e.Span }
func (e *Member) Type() types.Type { return e.Ty }
func (e *Member) exprNode()        {}

// Swizzle selects vector components. One component yields a scalar.
type Swizzle struct {
	Base       Expr
	Components []uint32
	Ty         types.Type
	Span       diag.Span
}

func (e *Swizzle) Pos() diag.Span   { return e.Span }
func (e *Swizzle) Type() types.Type { return e.Ty }
func (e *Swizzle) exprNode()        {}

// AddressOf takes the address of a variable or a part of one.
type AddressOf struct {
	Expr Expr
	Ty   types.Pointer
	Span diag.Span
}

func (e *AddressOf) Pos() diag.Span   { return e.Span }
func (e *AddressOf) Type() types.Type { return e.Ty }
func (e *AddressOf) exprNode()        {}

// Deref reads or names the location a pointer points to.
type Deref struct {
	Expr Expr
	Ty   types.Type
	Span diag.Span
}

func (e *Deref) Pos() diag.Span   { return e.Span }
func (e *Deref) Type() types.Type { return e.Ty }
func (e *Deref) exprNode()        {}
