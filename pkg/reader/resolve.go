// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package reader

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/scope"
)

// resolveTopLevelDecl is phase 2 for a single top-level declaration: it
// opens whatever temporary scope the declaration's body needs (a
// FunctionDecl's parameter scope, a MetaDecl's template-parameter scope)
// and descends, resolving every DeclRefExpr it finds. GlobalConstantDecl has
// no parameter scope of its own and resolves directly against unitScope.
func (r *Reader) resolveTopLevelDecl(d ast.Node, unitScope *scope.Scope) {
	switch t := d.(type) {
	case *ast.FunctionDecl:
		fnScope := scope.NewTemporary(unitScope)
		r.introduce(argDeclNodes(t.Args()), fnScope)
		r.resolveStmt(t.Body(), fnScope, Outside)
	case *ast.MetaDecl:
		declScope := scope.NewTemporary(unitScope)
		r.introduce(argDeclNodes(t.Args()), declScope)

		if t.Contribution() != nil {
			r.resolveMetaContribution(t.Contribution(), declScope, InsideMetaDecl)
		}
	case *ast.GlobalConstantDecl:
		r.resolveExpr(t.Expr(), unitScope, Outside)
	default:
		panic("reader: unexpected top-level decl kind in resolveTopLevelDecl")
	}
}

// argDeclNodes adapts an ArgDeclList's typed slice to the []ast.Node shape
// introduce expects. Anonymous arguments (the return-type slot) carry an
// empty name and introduce is a no-op for them.
func argDeclNodes(list *ast.ArgDeclList) []ast.Node {
	if list == nil {
		return nil
	}

	args := list.Args()
	out := make([]ast.Node, len(args))

	for i, a := range args {
		out[i] = a
	}

	return out
}

// resolveStmt resolves every DeclRefExpr reachable from n, opening a fresh
// temporary scope at each CompoundStmt boundary (spec.md §3/§4.2) and
// threading mode through unchanged except where a construct explicitly
// changes it (MetaIfStmt's contributions re-enter InsideMetaDecl,
// MetaCalculationStmt's wrapped statement enters InsideComputation).
func (r *Reader) resolveStmt(n ast.Node, s *scope.Scope, mode Mode) {
	switch t := n.(type) {
	case *ast.CompoundStmt:
		child := scope.NewTemporary(s)
		for _, st := range t.Stmts() {
			r.resolveStmt(st, child, mode)
		}
	case *ast.UnscopedCompoundStmt:
		for _, st := range t.Stmts() {
			r.resolveStmt(st, s, mode)
		}
	case *ast.ReturnStmt:
		if t.Expr() != nil {
			r.resolveExpr(t.Expr(), s, mode)
		}
	case *ast.IfStmt:
		r.resolveExpr(t.Cond(), s, mode)
		r.resolveStmt(t.TrueBranch(), s, mode)

		if t.FalseBranch() != nil {
			r.resolveStmt(t.FalseBranch(), s, mode)
		}
	case *ast.MetaIfStmt:
		r.resolveExpr(t.Cond(), s, mode)
		r.resolveMetaContribution(t.TrueBranch(), s, InsideMetaDecl)

		if t.FalseBranch() != nil {
			r.resolveMetaContribution(t.FalseBranch(), s, InsideMetaDecl)
		}
	case *ast.ExprStmt:
		r.resolveExpr(t.Expr(), s, mode)
	case *ast.DeclStmt:
		// The initialiser resolves against the scope as it stood before
		// this declaration, so `x := x` can only refer to an outer x.
		r.resolveExpr(t.Expr(), s, mode)

		if !s.Declare(t.Name().Name(), t) {
			r.diags.Report(diag.Error, t.Name().Span(), "redeclaration of %q", t.Name().Name()).File()
		}
	case *ast.MetaCalculationStmt:
		inplace := scope.NewInPlace(s, func(_ string, decl ast.Node) {
			t.AddExportedDecl(decl)
		})
		r.resolveStmt(t.Stmt(), inplace, InsideComputation)
	case *ast.ErrorStmt:
		// leaf, nothing to resolve.
	default:
		panic("reader: unexpected statement kind in resolveStmt")
	}
}

// resolveMetaContribution resolves each node a MetaDecl or MetaIfStmt branch
// contributes, dispatching on whether the contributed node is a statement, an
// expression, or itself a nested top-level declaration (a MetaContribution's
// children may be any of the three, per spec.md §4 — `meta add<int a> { int
// add(int x) { ... } }` contributes a FunctionDecl directly).
func (r *Reader) resolveMetaContribution(mc *ast.MetaContribution, s *scope.Scope, mode Mode) {
	for _, child := range mc.Children() {
		switch {
		case child.Kind().IsStmt():
			r.resolveStmt(child, s, mode)
		case child.Kind().IsExpr():
			r.resolveExpr(child, s, mode)
		case child.Kind().IsTopLevel():
			r.resolveNestedTopLevelDecl(child, s, mode)
		default:
			panic("reader: unexpected contribution child kind")
		}
	}
}

// resolveNestedTopLevelDecl resolves a FunctionDecl, GlobalConstantDecl, or
// MetaDecl contributed directly inside a MetaDecl's own contribution or a
// MetaIfStmt branch, using the same per-kind scope-opening rules
// resolveTopLevelDecl applies to a real top-level declaration, but
// propagating mode unchanged: at InsideMetaDecl this still leaves the
// contributed function's free references unresolved, exactly like any other
// part of a template body, since the whole subtree is re-interpreted fresh
// at every instantiation.
func (r *Reader) resolveNestedTopLevelDecl(d ast.Node, s *scope.Scope, mode Mode) {
	switch t := d.(type) {
	case *ast.FunctionDecl:
		fnScope := scope.NewTemporary(s)
		r.introduce(argDeclNodes(t.Args()), fnScope)
		r.resolveStmt(t.Body(), fnScope, mode)
	case *ast.GlobalConstantDecl:
		r.resolveExpr(t.Expr(), s, mode)
	case *ast.MetaDecl:
		declScope := scope.NewTemporary(s)
		r.introduce(argDeclNodes(t.Args()), declScope)

		if t.Contribution() != nil {
			r.resolveMetaContribution(t.Contribution(), declScope, InsideMetaDecl)
		}
	default:
		panic("reader: unexpected nested top-level decl kind")
	}
}

// resolveExpr resolves every DeclRefExpr reachable from n. At
// InsideMetaDecl, ordinary DeclRefExprs are left unresolved deliberately: a
// MetaDecl's contribution body is re-interpreted fresh at every
// instantiation, so binding its free names now would bind them to the
// wrong (declaration-site) scope instead of the instantiation-site one
// pkg/metacodegen re-resolves against. A MetaInstantiationExpr's callee
// reference is the exception: the template being named is fixed at
// declaration site regardless of mode, so it always resolves.
func (r *Reader) resolveExpr(n ast.Node, s *scope.Scope, mode Mode) {
	switch t := n.(type) {
	case *ast.DeclRefExpr:
		if mode == InsideMetaDecl {
			return
		}

		r.resolveDeclRef(t, s)
	case *ast.MetaInstantiationExpr:
		r.resolveDeclRef(t.Decl(), s)

		for _, a := range t.Args() {
			r.resolveExpr(a, s, mode)
		}

		// A MetaDecl's own un-instantiated template body is re-interpreted
		// fresh at every future instantiation (see the package doc above),
		// so an instantiation nested inside one is not a real call yet and
		// must not trigger eager resolution here.
		if mode != InsideMetaDecl && r.hook != nil {
			r.hook(t, s)
		}
	case *ast.BinaryExpr:
		r.resolveExpr(t.Left(), s, mode)
		r.resolveExpr(t.Right(), s, mode)
	case *ast.CallExpr:
		r.resolveExpr(t.Callee(), s, mode)

		for _, a := range t.Args() {
			r.resolveExpr(a, s, mode)
		}
	case *ast.IntLiteralExpr, *ast.BoolLiteralExpr, *ast.ErrorExpr:
		// leaves, nothing to resolve.
	default:
		panic("reader: unexpected expression kind in resolveExpr")
	}
}

// resolveDeclRef looks ref's name up in s, reporting UnknownName (with a
// bounded-edit-distance "did you mean" suggestion when one is close enough)
// on failure.
func (r *Reader) resolveDeclRef(ref *ast.DeclRefExpr, s *scope.Scope) {
	name := ref.Name().Name()

	decl, ok := s.Lookup(name)
	if !ok {
		if suggestion, ok := s.Similar(name); ok {
			r.diags.Report(diag.Error, ref.Name().Span(),
				"unknown name %q; did you mean %q?", name, suggestion).File()
		} else {
			r.diags.Report(diag.Error, ref.Name().Span(), "unknown name %q", name).File()
		}

		return
	}

	ref.SetDecl(decl)
}

// Reshadow introduces a MetaUnit's exported node into dst under the
// instantiated MetaDecl's own name, bypassing the ordinary redeclaration
// check. spec.md §3's one shadowing exception: a MetaDecl named f may be
// shadowed only by the exportedNode of an instantiation named f. Called by
// pkg/executor.Controller.EnsureInstantiated immediately after a successful
// instantiation, with dst set to the instantiation site's own enclosing
// scope, so a later bare reference to f from that point in the scope chain
// resolves to this particular instantiation's export instead of the
// template it came from. pkg/reader itself never calls this during ReadUnit,
// since a MetaUnit's own declarations are always introduced into a fresh
// scope of their own rather than directly into the site that triggered them.
func (r *Reader) Reshadow(dst *scope.Scope, name string, decl ast.Node) {
	dst.Reshadow(name, decl)
}
