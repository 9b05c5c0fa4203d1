// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/source"
)

func newCtx() *ast.Context {
	return ast.NewContext(source.NewFile("test.mc", ""))
}

func sp() source.Span {
	return source.NewSpan(0, 0)
}

func TestWriteAndShiftNodeFixedArity(t *testing.T) {
	ctx := newCtx()
	arg := ctx.NewArgDecl(ctx.NewIdentifier("x", sp()), sp())

	w := NewWriter()
	w.Write(arg)

	cur := NewCursor(w.Tokens())
	got := cur.ShiftNode(ast.KindArgDecl)
	assert.Equal(t, ast.Node(arg), got)
	assert.True(t, cur.Done())
}

func TestShiftNodePanicsOnKindMismatch(t *testing.T) {
	ctx := newCtx()
	arg := ctx.NewArgDecl(ctx.NewIdentifier("x", sp()), sp())

	w := NewWriter()
	w.Write(arg)

	cur := NewCursor(w.Tokens())
	assert.Panics(t, func() {
		cur.ShiftNode(ast.KindGlobalConstantDecl)
	})
}

func TestShiftNodePanicsForReduceRequiringKind(t *testing.T) {
	cur := NewCursor(nil)
	assert.Panics(t, func() {
		cur.ShiftNode(ast.KindArgDeclList)
	})
}

func TestWriteScopedEmitsReduceOnlyWhenRequired(t *testing.T) {
	ctx := newCtx()
	list := ctx.NewArgDeclList(sp())
	arg := ctx.NewArgDecl(ctx.NewIdentifier("x", sp()), sp())

	w := NewWriter()
	doneList := w.WriteScoped(list) // KindArgDeclList requires a marker
	doneArg := w.WriteScoped(arg)   // KindArgDecl does not
	doneArg()
	doneList()

	toks := w.Tokens()
	// list, arg, reduce(for list) — arg contributes no marker of its own
	assert.Len(t, toks, 3)
	assert.Equal(t, ast.Node(list), toks[0].Node)
	assert.False(t, toks[0].IsReduce())
	assert.Equal(t, ast.Node(arg), toks[1].Node)
	assert.False(t, toks[1].IsReduce())
	assert.True(t, toks[2].IsReduce())
}

func TestShiftScopedConsumesTrailingReduceMarker(t *testing.T) {
	ctx := newCtx()
	list := ctx.NewArgDeclList(sp())
	arg := ctx.NewArgDecl(ctx.NewIdentifier("x", sp()), sp())

	w := NewWriter()
	w.Write(list)
	w.Write(arg)
	w.Reduce()

	cur := NewCursor(w.Tokens())
	node, done := cur.ShiftScoped(ast.KindArgDeclList)
	assert.Equal(t, ast.Node(list), node)

	got := cur.ShiftNode(ast.KindArgDecl)
	assert.Equal(t, ast.Node(arg), got)

	done()
	assert.True(t, cur.Done())
}

func TestShiftScopedPanicsOnMissingReduceMarker(t *testing.T) {
	ctx := newCtx()
	list := ctx.NewArgDeclList(sp())

	w := NewWriter()
	w.Write(list)
	// no trailing reduce marker written

	cur := NewCursor(w.Tokens())
	_, done := cur.ShiftScoped(ast.KindArgDeclList)

	assert.Panics(t, func() {
		done()
	})
}

func TestPeekAndShouldReduce(t *testing.T) {
	ctx := newCtx()
	arg := ctx.NewArgDecl(ctx.NewIdentifier("x", sp()), sp())

	w := NewWriter()
	w.Write(arg)
	w.Reduce()

	cur := NewCursor(w.Tokens())
	assert.False(t, cur.ShouldReduce())
	assert.Equal(t, ast.Node(arg), cur.Peek().Node)

	cur.Shift()
	assert.True(t, cur.ShouldReduce())
}
