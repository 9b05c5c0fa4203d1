// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ast

import "github.com/metac-lang/metac/pkg/source"

// BinaryOperator enumerates the eleven binary operators spec.md's example
// syntax recognises, at precedence levels 10-50 (ascending = tighter
// binding), grounded on original_source's `EXPR_BINARY_OPERATOR` table.
type BinaryOperator uint8

const (
	OpOr BinaryOperator = iota
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
)

// Precedence returns op's binding strength; higher binds tighter.
func (op BinaryOperator) Precedence() int {
	switch op {
	case OpOr:
		return 10
	case OpAnd:
		return 20
	case OpEq, OpNe:
		return 30
	case OpLt, OpLe, OpGt, OpGe:
		return 40
	case OpAdd, OpSub:
		return 45
	case OpMul:
		return 50
	default:
		return 0
	}
}

// String renders the operator's concrete syntax spelling.
func (op BinaryOperator) String() string {
	switch op {
	case OpOr:
		return "||"
	case OpAnd:
		return "&&"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "?"
	}
}

// DeclRefExpr references a visible declaration by name. Resolved by
// pkg/reader, which fills in Decl; until then Decl is nil.
type DeclRefExpr struct {
	base
	name Identifier
	decl Node
}

// NewDeclRefExpr allocates an unresolved name reference.
func (c *Context) NewDeclRefExpr(name Identifier, span source.Span) *DeclRefExpr {
	n := &DeclRefExpr{base: base{c.nextID()}, name: name}
	c.register(n, span)

	return n
}

func (n *DeclRefExpr) Kind() Kind       { return KindDeclRefExpr }
func (n *DeclRefExpr) Children() []Node { return nil }
func (n *DeclRefExpr) Name() Identifier { return n.name }

// Decl returns the declaration this reference resolved to, or nil if not
// yet resolved.
func (n *DeclRefExpr) Decl() Node { return n.decl }

// SetDecl records the resolved declaration.
func (n *DeclRefExpr) SetDecl(d Node) { n.decl = d }

// IsResolved reports whether this reference has been resolved.
func (n *DeclRefExpr) IsResolved() bool { return n.decl != nil }

// MetaInstantiationExpr instantiates a MetaDecl with a list of
// integer-literal-valued argument expressions, at the given source range
// (used as the instantiation identity's cache key location in
// diagnostics). Variadic: requires a reduce marker.
type MetaInstantiationExpr struct {
	base
	decl *DeclRefExpr
	args []Node
}

// NewMetaInstantiationExpr allocates an empty instantiation expression
// shell; Decl is filled in by the reader.
func (c *Context) NewMetaInstantiationExpr(span source.Span) *MetaInstantiationExpr {
	n := &MetaInstantiationExpr{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *MetaInstantiationExpr) Kind() Kind { return KindMetaInstantiationExpr }

func (n *MetaInstantiationExpr) Children() []Node {
	out := make([]Node, 0, len(n.args)+1)
	out = append(out, n.decl)
	out = append(out, n.args...)

	return out
}

// Decl returns the DeclRefExpr naming the meta declaration being
// instantiated.
func (n *MetaInstantiationExpr) Decl() *DeclRefExpr { return n.decl }

// SetDecl records the DeclRefExpr naming the instantiated meta declaration.
func (n *MetaInstantiationExpr) SetDecl(d *DeclRefExpr) { n.decl = d }

// Args returns the instantiation's argument expressions.
func (n *MetaInstantiationExpr) Args() []Node { return n.args }

// AddArg appends an instantiation argument.
func (n *MetaInstantiationExpr) AddArg(a Node) { n.args = append(n.args, a) }

// IntLiteralExpr is a literal 32-bit signed integer constant.
type IntLiteralExpr struct {
	base
	value int32
}

// NewIntLiteralExpr allocates an integer literal.
func (c *Context) NewIntLiteralExpr(value int32, span source.Span) *IntLiteralExpr {
	n := &IntLiteralExpr{base: base{c.nextID()}, value: value}
	c.register(n, span)

	return n
}

func (n *IntLiteralExpr) Kind() Kind       { return KindIntLiteralExpr }
func (n *IntLiteralExpr) Children() []Node { return nil }
func (n *IntLiteralExpr) Value() int32     { return n.value }

// BoolLiteralExpr is a literal boolean constant, used only in conditions
// (the language has a single int type, but comparisons and meta-if
// conditions still produce and consume boolean values).
type BoolLiteralExpr struct {
	base
	value bool
}

// NewBoolLiteralExpr allocates a boolean literal.
func (c *Context) NewBoolLiteralExpr(value bool, span source.Span) *BoolLiteralExpr {
	n := &BoolLiteralExpr{base: base{c.nextID()}, value: value}
	c.register(n, span)

	return n
}

func (n *BoolLiteralExpr) Kind() Kind       { return KindBoolLiteralExpr }
func (n *BoolLiteralExpr) Children() []Node { return nil }
func (n *BoolLiteralExpr) Value() bool      { return n.value }

// ErrorExpr is an expression-level error-recovery sentinel (spec.md §3).
type ErrorExpr struct {
	base
}

// NewErrorExpr allocates an expression-level error sentinel.
func (c *Context) NewErrorExpr(span source.Span) *ErrorExpr {
	n := &ErrorExpr{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *ErrorExpr) Kind() Kind       { return KindErrorExpr }
func (n *ErrorExpr) Children() []Node { return nil }

// BinaryExpr applies a binary operator to two operands. Fixed arity (two
// children): no reduce marker.
type BinaryExpr struct {
	base
	op          BinaryOperator
	left, right Node
}

// NewBinaryExpr allocates a binary operator expression shell with its
// operator fixed; Left and Right are filled in by the reader.
func (c *Context) NewBinaryExpr(op BinaryOperator, span source.Span) *BinaryExpr {
	n := &BinaryExpr{base: base{c.nextID()}, op: op}
	c.register(n, span)

	return n
}

func (n *BinaryExpr) Kind() Kind               { return KindBinaryExpr }
func (n *BinaryExpr) Children() []Node         { return []Node{n.left, n.right} }
func (n *BinaryExpr) Operator() BinaryOperator { return n.op }
func (n *BinaryExpr) Left() Node               { return n.left }
func (n *BinaryExpr) Right() Node              { return n.right }

// SetOperands records the expression's left and right operands.
func (n *BinaryExpr) SetOperands(left, right Node) {
	n.left = left
	n.right = right
}

// CallExpr calls a function with a variadic argument list. Variadic:
// requires a reduce marker.
type CallExpr struct {
	base
	callee Node
	args   []Node
}

// NewCallExpr allocates an empty call expression shell; Callee is filled in
// by the reader.
func (c *Context) NewCallExpr(span source.Span) *CallExpr {
	n := &CallExpr{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *CallExpr) Kind() Kind { return KindCallExpr }

func (n *CallExpr) Children() []Node {
	out := make([]Node, 0, len(n.args)+1)
	out = append(out, n.callee)
	out = append(out, n.args...)

	return out
}

// Callee returns the call's callee expression.
func (n *CallExpr) Callee() Node { return n.callee }

// SetCallee records the call's callee expression.
func (n *CallExpr) SetCallee(callee Node) { n.callee = callee }

// Args returns the call's argument expressions.
func (n *CallExpr) Args() []Node { return n.args }

// AddArg appends a call argument.
func (n *CallExpr) AddArg(a Node) { n.args = append(n.args, a) }
