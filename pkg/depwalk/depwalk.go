// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package depwalk enumerates every MetaInstantiationExpr reachable by
// structural recursion from a FunctionDecl or MetaDecl (spec.md §4.6),
// supporting early termination the way Consensys-go-corset/pkg/corset/
// compiler's dependency-set builders do (a consumer function returning
// false stops the walk rather than the walker building and returning a
// full slice unconditionally).
package depwalk

import "github.com/metac-lang/metac/pkg/ast"

// Visit is called once per MetaInstantiationExpr encountered, in layout
// (pre-)order. Returning false stops the walk immediately.
type Visit func(*ast.MetaInstantiationExpr) bool

// WalkFunction enumerates every instantiation reachable from fd's body.
func WalkFunction(fd *ast.FunctionDecl, visit Visit) {
	if fd.Body() != nil {
		walkStmt(fd.Body(), visit)
	}
}

// WalkMetaDecl enumerates every instantiation reachable from md's
// contribution, including inside nested MetaIfStmt branches and inside
// MetaCalculationStmt's wrapped expressions (spec.md §4.6 explicitly calls
// both out).
func WalkMetaDecl(md *ast.MetaDecl, visit Visit) {
	if md.Contribution() != nil {
		walkMetaContribution(md.Contribution(), visit)
	}
}

// WalkUnit enumerates every instantiation reachable from any declaration in
// u (a compilation unit or a produced MetaUnit). No package outside this
// one's tests calls it; pkg/executor resolves nested instantiations through
// pkg/reader's InstantiationHook instead.
func WalkUnit(u ast.Unit, visit Visit) {
	for _, d := range u.Decls() {
		var cont bool

		switch t := d.(type) {
		case *ast.FunctionDecl:
			cont = walkFunctionBody(t, visit)
		case *ast.MetaDecl:
			cont = walkMetaDeclBody(t, visit)
		case *ast.GlobalConstantDecl:
			cont = walkExpr(t.Expr(), visit)
		default:
			cont = true
		}

		if !cont {
			return
		}
	}
}

func walkFunctionBody(fd *ast.FunctionDecl, visit Visit) bool {
	if fd.Body() == nil {
		return true
	}

	return walkStmt(fd.Body(), visit)
}

func walkMetaDeclBody(md *ast.MetaDecl, visit Visit) bool {
	if md.Contribution() == nil {
		return true
	}

	return walkMetaContribution(md.Contribution(), visit)
}

// Collect is a convenience wrapper around WalkFunction/WalkMetaDecl/WalkUnit
// for callers that want the full set rather than streaming early-exit
// semantics.
func Collect(decl ast.Node) []*ast.MetaInstantiationExpr {
	var out []*ast.MetaInstantiationExpr

	visit := func(mi *ast.MetaInstantiationExpr) bool {
		out = append(out, mi)
		return true
	}

	switch t := decl.(type) {
	case *ast.FunctionDecl:
		WalkFunction(t, visit)
	case *ast.MetaDecl:
		WalkMetaDecl(t, visit)
	case ast.Unit:
		WalkUnit(t, visit)
	}

	return out
}

func walkMetaContribution(mc *ast.MetaContribution, visit Visit) bool {
	for _, child := range mc.Children() {
		var cont bool

		switch {
		case child.Kind().IsStmt():
			cont = walkStmt(child, visit)
		case child.Kind().IsTopLevel():
			cont = walkNestedTopLevelDecl(child, visit)
		default:
			cont = walkExpr(child, visit)
		}

		if !cont {
			return false
		}
	}

	return true
}

// walkNestedTopLevelDecl walks a top-level declaration contributed inside a
// MetaContribution (e.g. the FunctionDecl `add` a meta template like `meta
// add<int a> { int add(int x) { ... } }` contributes), the same way
// WalkUnit walks a unit's direct top-level children.
func walkNestedTopLevelDecl(d ast.Node, visit Visit) bool {
	switch t := d.(type) {
	case *ast.FunctionDecl:
		return walkFunctionBody(t, visit)
	case *ast.MetaDecl:
		return walkMetaDeclBody(t, visit)
	case *ast.GlobalConstantDecl:
		return walkExpr(t.Expr(), visit)
	default:
		return true
	}
}

func walkStmt(n ast.Node, visit Visit) bool {
	switch t := n.(type) {
	case *ast.CompoundStmt:
		for _, st := range t.Stmts() {
			if !walkStmt(st, visit) {
				return false
			}
		}
	case *ast.UnscopedCompoundStmt:
		for _, st := range t.Stmts() {
			if !walkStmt(st, visit) {
				return false
			}
		}
	case *ast.ReturnStmt:
		if t.Expr() != nil {
			return walkExpr(t.Expr(), visit)
		}
	case *ast.IfStmt:
		if !walkExpr(t.Cond(), visit) {
			return false
		}

		if !walkStmt(t.TrueBranch(), visit) {
			return false
		}

		if t.FalseBranch() != nil {
			return walkStmt(t.FalseBranch(), visit)
		}
	case *ast.MetaIfStmt:
		if !walkExpr(t.Cond(), visit) {
			return false
		}

		if !walkMetaContribution(t.TrueBranch(), visit) {
			return false
		}

		if t.FalseBranch() != nil {
			return walkMetaContribution(t.FalseBranch(), visit)
		}
	case *ast.ExprStmt:
		return walkExpr(t.Expr(), visit)
	case *ast.DeclStmt:
		return walkExpr(t.Expr(), visit)
	case *ast.MetaCalculationStmt:
		return walkStmt(t.Stmt(), visit)
	case *ast.ErrorStmt:
		// leaf.
	}

	return true
}

func walkExpr(n ast.Node, visit Visit) bool {
	switch t := n.(type) {
	case *ast.MetaInstantiationExpr:
		if !visit(t) {
			return false
		}

		for _, a := range t.Args() {
			if !walkExpr(a, visit) {
				return false
			}
		}
	case *ast.BinaryExpr:
		if !walkExpr(t.Left(), visit) {
			return false
		}

		return walkExpr(t.Right(), visit)
	case *ast.CallExpr:
		if !walkExpr(t.Callee(), visit) {
			return false
		}

		for _, a := range t.Args() {
			if !walkExpr(a, visit) {
				return false
			}
		}
	case *ast.DeclRefExpr, *ast.IntLiteralExpr, *ast.BoolLiteralExpr, *ast.ErrorExpr:
		// leaves.
	}

	return true
}
