// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package executor

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/metacodegen"
)

// invocationCtx is the host-side object a jump pad's `ctx` parameter
// indexes into (spec.md §9: "model the void* context as an index into a
// small host-side table"): the layout writer one meta invocation populates,
// and the arena its contributed/synthesised nodes are allocated in.
type invocationCtx struct {
	dst    *ast.Context
	src    *ast.Context
	writer *layout.Writer
}

// contribute clones node (the template node a `contribute` callback names)
// into ic.dst and appends it to the layout, per spec.md §4.4.
func (ic *invocationCtx) contribute(node ast.Node) {
	ic.writer.Write(ast.CloneShallow(ic.dst, ic.src, node))
}

// reduce appends a reduce marker, closing a variadic node's child list.
func (ic *invocationCtx) reduce() {
	ic.writer.Reduce()
}

// contributeValue substitutes node (a template DeclRefExpr naming one of the
// MetaDecl's own parameters) with a literal carrying value, in place of
// cloning the reference itself — spec.md §8 S2's `a` in `return x + a;` has
// no binding of its own in the produced unit, so it is never contributed as
// a node at all.
func (ic *invocationCtx) contributeValue(node ast.Node, value int32) {
	span := ic.src.Spans().Get(node)
	lit := ic.dst.NewIntLiteralExpr(value, span)
	ic.writer.Write(lit)
}

// introduce synthesises a literal declaration for a meta-calculation's
// exported binding (spec.md §4.4): a GlobalConstantDecl at DepthTopLevel, a
// DeclStmt at DepthInsideFunctionDecl, named after the template DeclStmt
// the in-place scope collected, initialised to value.
func (ic *invocationCtx) introduce(templateDecl ast.Node, value int32, depth metacodegen.Depth) {
	ds, ok := templateDecl.(*ast.DeclStmt)
	if !ok {
		panic("executor: introduce called with a non-DeclStmt template node")
	}

	span := ic.src.Spans().Get(ds)
	name := ic.dst.NewIdentifier(ds.Name().Name(), ds.Name().Span())
	lit := ic.dst.NewIntLiteralExpr(value, span)

	if depth == metacodegen.DepthTopLevel {
		gc := ic.dst.NewGlobalConstantDecl(name, span)
		gc.SetExpr(lit)
		ic.writer.Write(gc)
		ic.writer.Write(lit)

		return
	}

	decl := ic.dst.NewDeclStmt(name, span)
	decl.SetExpr(lit)
	ic.writer.Write(decl)
	ic.writer.Write(lit)
}
