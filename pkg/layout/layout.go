// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package layout defines the flat AST layout stream: a linear sequence of
// node tokens and reduce markers that both the frontend parser and the meta
// executor's contribute/reduce callbacks produce, and pkg/reader consumes
// to rebuild a properly nested tree. See original_source's
// src/Parse/ASTLayout.hpp (ASTLayoutWriter/ASTLayoutReader), which this
// package is grounded on directly.
package layout

import "github.com/metac-lang/metac/pkg/ast"

// Token is one entry in a layout stream: either a node (already allocated,
// but with none of its children linked up yet) or a reduce marker (the nil
// case), which closes a variadic-arity node's child list.
type Token struct {
	Node ast.Node // nil for a reduce marker
}

// IsReduce reports whether t is a reduce marker.
func (t Token) IsReduce() bool { return t.Node == nil }

// Writer accumulates a flat layout stream. A producer (pkg/parser, or the
// metacodegen-generated contribute/reduce callbacks driven by pkg/executor)
// calls Write for every node it allocates, in preorder, and calls Reduce
// after the last child of any node whose Kind.RequiresReduceMarker() is
// true — mirroring ASTLayoutWriter::write / scopedWrite.
type Writer struct {
	tokens []Token
}

// NewWriter constructs an empty layout writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write appends a node token.
func (w *Writer) Write(node ast.Node) {
	w.tokens = append(w.tokens, Token{Node: node})
}

// Reduce appends a reduce marker, closing the child list of the most
// recently written variadic-arity node.
func (w *Writer) Reduce() {
	w.tokens = append(w.tokens, Token{})
}

// WriteScoped writes node, then returns a function that, when called,
// writes a reduce marker iff node's kind requires one — the Go idiom for
// original_source's ScopeLeaveAction-returning scopedWrite, used as
// `defer writer.WriteScoped(node)()`.
func (w *Writer) WriteScoped(node ast.Node) func() {
	w.Write(node)

	return func() {
		if node.Kind().RequiresReduceMarker() {
			w.Reduce()
		}
	}
}

// Tokens returns the completed layout stream.
func (w *Writer) Tokens() []Token {
	return w.tokens
}

// Cursor sequentially consumes a completed layout stream. pkg/reader drives
// one Cursor per compilation unit (or per meta-instantiation shipment) to
// rebuild a nested ast.Node tree, mirroring ASTLayoutReader's
// shift/scopedShift/shouldReduce/reduce primitives.
type Cursor struct {
	tokens []Token
	pos    int
}

// NewCursor constructs a cursor over a completed token stream.
func NewCursor(tokens []Token) *Cursor {
	return &Cursor{tokens: tokens}
}

// Peek returns the token at the current position without consuming it.
func (c *Cursor) Peek() Token {
	return c.tokens[c.pos]
}

// ShouldReduce reports whether the current token is a reduce marker.
func (c *Cursor) ShouldReduce() bool {
	return c.Peek().IsReduce()
}

// Shift returns the token at the current position and advances past it.
func (c *Cursor) Shift() Token {
	t := c.tokens[c.pos]
	c.pos++

	return t
}

// ShiftNode shifts a node token. Panics if the current token is a reduce
// marker, or if kind requires a reduce marker (callers whose node kind is
// variadic must use ShiftScoped instead) — the Go analogue of shiftAs's
// static_assert, checked dynamically since Go has no compile-time node-type
// parameter to assert against.
func (c *Cursor) ShiftNode(kind ast.Kind) ast.Node {
	if kind.RequiresReduceMarker() {
		panic("layout: use ShiftScoped for a kind requiring a reduce marker: " + kind.String())
	}

	t := c.Shift()
	if t.IsReduce() {
		panic("layout: expected a node, got a reduce marker")
	}

	if t.Node.Kind() != kind {
		panic("layout: node kind mismatch: expected " + kind.String() + ", got " + t.Node.Kind().String())
	}

	return t.Node
}

// ShiftScoped shifts a node token whose kind requires a reduce marker, and
// returns a function that consumes that marker once the caller has finished
// reading the node's children — the Go idiom for scopedShift's
// ScopeLeaveAction-returning behaviour, used as
// `node, done := cursor.ShiftScoped(kind); defer done()`.
func (c *Cursor) ShiftScoped(kind ast.Kind) (ast.Node, func()) {
	if !kind.RequiresReduceMarker() {
		panic("layout: ShiftScoped called for a kind with no reduce marker: " + kind.String())
	}

	t := c.Shift()
	if t.IsReduce() {
		panic("layout: expected a node, got a reduce marker")
	}

	if t.Node.Kind() != kind {
		panic("layout: node kind mismatch: expected " + kind.String() + ", got " + t.Node.Kind().String())
	}

	return t.Node, func() {
		if !c.ShouldReduce() {
			panic("layout: missing reduce marker for " + kind.String())
		}

		c.Shift()
	}
}

// Done reports whether every token has been consumed.
func (c *Cursor) Done() bool {
	return c.pos >= len(c.tokens)
}
