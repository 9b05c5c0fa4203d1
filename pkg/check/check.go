// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package check implements the semantic check pass that runs after
// pkg/reader has structured and resolved a unit: name reservation, arity,
// call-vs-expression context and integral-only meta argument checks
// (spec.md §4.2 failure list, §7). Grounded on original_source/src/Sema's
// analysis passes and on Consensys-go-corset/pkg/corset/compiler's
// post-resolution checker, which likewise walks an already-resolved tree
// rather than re-deriving resolution.
package check

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
)

// reservedName is the sole reserved identifier (spec.md §7: "int may not be
// used as a function or meta name").
const reservedName = "int"

// Checker runs the semantic check pass over a Unit already structured and
// resolved by pkg/reader.
type Checker struct {
	ctx   *ast.Context
	diags *diag.Engine
}

// New constructs a Checker filing diagnostics on diags, looking up node
// spans (for diagnostics that have no Identifier of their own to anchor on)
// in ctx.
func New(ctx *ast.Context, diags *diag.Engine) *Checker {
	return &Checker{ctx: ctx, diags: diags}
}

// CheckUnit walks every top-level declaration of unit.
func (c *Checker) CheckUnit(unit ast.Unit) {
	for _, d := range unit.Decls() {
		c.checkTopLevelDecl(d)
	}
}

func (c *Checker) checkTopLevelDecl(d ast.Node) {
	switch t := d.(type) {
	case *ast.FunctionDecl:
		c.checkReservedName(t.Name())
		c.checkStmt(t.Body())
	case *ast.MetaDecl:
		c.checkReservedName(t.Name())

		if t.Contribution() != nil {
			c.checkMetaContribution(t.Contribution())
		}
	case *ast.GlobalConstantDecl:
		c.checkReservedName(t.Name())
		c.checkExpr(t.Expr())
	}
}

// checkReservedName diagnoses a declaration named `int`. spec.md §9's Open
// Question: the original dereferences a "previous declaration" note-target
// that does not exist for a reserved name; we guard by never attaching one.
func (c *Checker) checkReservedName(name ast.Identifier) {
	if name.Name() == reservedName {
		c.diags.Report(diag.Error, name.Span(), "%q is a reserved name and may not be declared", reservedName).File()
	}
}

func (c *Checker) checkMetaContribution(mc *ast.MetaContribution) {
	for _, child := range mc.Children() {
		switch {
		case child.Kind().IsStmt():
			c.checkStmt(child)
		case child.Kind().IsTopLevel():
			c.checkTopLevelDecl(child)
		default:
			c.checkExpr(child)
		}
	}
}

func (c *Checker) checkStmt(n ast.Node) {
	switch t := n.(type) {
	case *ast.CompoundStmt:
		for _, st := range t.Stmts() {
			c.checkStmt(st)
		}
	case *ast.UnscopedCompoundStmt:
		for _, st := range t.Stmts() {
			c.checkStmt(st)
		}
	case *ast.ReturnStmt:
		if t.Expr() != nil {
			c.checkExpr(t.Expr())
		}
	case *ast.IfStmt:
		c.checkExpr(t.Cond())
		c.checkStmt(t.TrueBranch())

		if t.FalseBranch() != nil {
			c.checkStmt(t.FalseBranch())
		}
	case *ast.MetaIfStmt:
		c.checkExpr(t.Cond())
		c.checkMetaContribution(t.TrueBranch())

		if t.FalseBranch() != nil {
			c.checkMetaContribution(t.FalseBranch())
		}
	case *ast.ExprStmt:
		c.checkExpr(t.Expr())
	case *ast.DeclStmt:
		c.checkExpr(t.Expr())
	case *ast.MetaCalculationStmt:
		c.checkStmt(t.Stmt())
	case *ast.ErrorStmt:
		// already diagnosed by the reader at parse/structure time.
	}
}

func (c *Checker) checkExpr(n ast.Node) {
	switch t := n.(type) {
	case *ast.DeclRefExpr:
		// RedeclaredName/UnknownName are diagnosed by pkg/reader at
		// resolution time; nothing further to check on a bare reference.
	case *ast.MetaInstantiationExpr:
		c.checkMetaInstantiation(t)

		for _, a := range t.Args() {
			c.checkExpr(a)
			c.checkMetaArgIsIntLiteral(a)
		}
	case *ast.BinaryExpr:
		c.checkExpr(t.Left())
		c.checkExpr(t.Right())
	case *ast.CallExpr:
		c.checkCall(t)
	case *ast.IntLiteralExpr, *ast.BoolLiteralExpr, *ast.ErrorExpr:
		// leaves.
	}
}

// checkMetaInstantiation diagnoses NonMetaCalled (instantiating a
// declaration that isn't a MetaDecl) and ArityMismatch (wrong template
// argument count).
func (c *Checker) checkMetaInstantiation(mi *ast.MetaInstantiationExpr) {
	ref := mi.Decl()
	if ref == nil || !ref.IsResolved() {
		return
	}

	md, ok := ref.Decl().(*ast.MetaDecl)
	if !ok {
		c.diags.Report(diag.Error, ref.Name().Span(),
			"%q is not a meta declaration and cannot be instantiated", ref.Name().Name()).File()

		return
	}

	want := len(md.Args().Args())
	got := len(mi.Args())

	if want != got {
		c.diags.Report(diag.Error, ref.Name().Span(),
			"instantiation of %q expects %d argument(s), got %d", ref.Name().Name(), want, got).
			AddRange(md.Name().Span()).File()
	}
}

// checkMetaArgIsIntLiteral enforces spec.md §9's Open Question decision:
// meta arguments are restricted to integer literal expressions, even though
// the emitter machinery is general enough to evaluate more.
func (c *Checker) checkMetaArgIsIntLiteral(arg ast.Node) {
	if _, ok := arg.(*ast.IntLiteralExpr); ok {
		return
	}

	if _, ok := arg.(*ast.ErrorExpr); ok {
		return
	}

	c.diags.Report(diag.Error, c.ctx.Spans().Get(arg),
		"meta instantiation argument must be an integer literal").File()
}

// checkCall diagnoses NonFunctionCalled and FunctionCallArgCountMismatch.
func (c *Checker) checkCall(ce *ast.CallExpr) {
	c.checkExpr(ce.Callee())

	ref, ok := ce.Callee().(*ast.DeclRefExpr)
	if !ok || !ref.IsResolved() {
		for _, a := range ce.Args() {
			c.checkExpr(a)
		}

		return
	}

	switch decl := ref.Decl().(type) {
	case *ast.FunctionDecl:
		want := len(decl.Args().Args())
		got := len(ce.Args())

		if want != got {
			c.diags.Report(diag.Error, ref.Name().Span(),
				"call to %q expects %d argument(s), got %d", ref.Name().Name(), want, got).
				AddRange(decl.Name().Span()).File()
		}
	default:
		c.diags.Report(diag.Error, ref.Name().Span(),
			"%q is not a function and cannot be called", ref.Name().Name()).File()
	}

	for _, a := range ce.Args() {
		c.checkExpr(a)
	}
}
