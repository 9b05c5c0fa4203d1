// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ast

// Remap is consulted by Clone whenever a cloned DeclRefExpr's resolved
// declaration needs to be redirected at a declaration living in the target
// arena rather than the one being cloned from (e.g. a function parameter
// that must now refer to the clone's own ArgDecl, not the template's).
// Returning nil leaves the cloned reference unresolved (its Decl is nil).
type Remap func(original Node) Node

// Clone deep-copies node and everything reachable from it into dst, the way
// original_source's ASTCloner clones one node at a time paired with the
// layout reader re-structuring a flat re-emission of the subtree: here we
// walk the live tree directly instead of round-tripping through a layout
// stream, since our in-memory Node graph (unlike the original's, which is
// only ever materialised from a flat buffer) already supports direct
// recursive traversal.
//
// src is the node's originating arena, consulted to look up the span that
// gets propagated onto the clone in dst (dst may be the same Context, e.g.
// when cloning a MetaContribution template into its own unit's arena, or a
// different one, e.g. shipment's clone-with-remap into a fresh module).
//
// With a nil remap, a cloned DeclRefExpr keeps pointing at the same
// declaration the original did; with a non-nil remap, it is redirected at
// whatever remap returns. No package in this module calls Clone today: the
// executor's contribute callback uses CloneShallow, and shipment clones IR
// functions with pkg/ir's CloneWithRemap instead.
func Clone(dst *Context, src *Context, node Node, remap Remap) Node {
	if node == nil {
		return nil
	}

	clone := shallowClone(dst, node)

	if src.spans.Has(node) {
		dst.spans.Put(clone, src.spans.Get(node))
	}

	switch n := node.(type) {
	case *CompilationUnit:
		cl := clone.(*CompilationUnit)
		for _, d := range n.decls {
			cl.AddDecl(Clone(dst, src, d, remap))
		}
	case *MetaUnit:
		cl := clone.(*MetaUnit)
		for _, d := range n.decls {
			cl.AddDecl(Clone(dst, src, d, remap))
		}
	case *FunctionDecl:
		cl := clone.(*FunctionDecl)
		cl.args = Clone(dst, src, n.args, remap).(*ArgDeclList)
		if n.returnType != nil {
			cl.returnType = Clone(dst, src, n.returnType, remap).(*ArgDecl)
		}
		if n.body != nil {
			cl.body = Clone(dst, src, n.body, remap)
		}
	case *ArgDeclList:
		cl := clone.(*ArgDeclList)
		for _, a := range n.args {
			cl.Add(Clone(dst, src, a, remap).(*ArgDecl))
		}
	case *ArgDecl:
		// leaf, nothing further to clone
	case *MetaDecl:
		cl := clone.(*MetaDecl)
		cl.args = Clone(dst, src, n.args, remap).(*ArgDeclList)
		if n.contribution != nil {
			cl.contribution = Clone(dst, src, n.contribution, remap).(*MetaContribution)
		}
	case *GlobalConstantDecl:
		cl := clone.(*GlobalConstantDecl)
		cl.expr = Clone(dst, src, n.expr, remap)
	case *MetaContribution:
		cl := clone.(*MetaContribution)
		for _, ch := range n.children {
			cl.Add(Clone(dst, src, ch, remap))
		}
	case *CompoundStmt:
		cl := clone.(*CompoundStmt)
		for _, s := range n.stmts {
			cl.Add(Clone(dst, src, s, remap))
		}
	case *UnscopedCompoundStmt:
		cl := clone.(*UnscopedCompoundStmt)
		for _, s := range n.stmts {
			cl.Add(Clone(dst, src, s, remap))
		}
	case *ReturnStmt:
		cl := clone.(*ReturnStmt)
		if n.expr != nil {
			cl.expr = Clone(dst, src, n.expr, remap)
		}
	case *IfStmt:
		cl := clone.(*IfStmt)
		cl.cond = Clone(dst, src, n.cond, remap)
		cl.trueBranch = Clone(dst, src, n.trueBranch, remap)
		if n.falseBranch != nil {
			cl.falseBranch = Clone(dst, src, n.falseBranch, remap)
		}
	case *MetaIfStmt:
		cl := clone.(*MetaIfStmt)
		cl.cond = Clone(dst, src, n.cond, remap)
		cl.trueBranch = Clone(dst, src, n.trueBranch, remap).(*MetaContribution)
		if n.falseBranch != nil {
			cl.falseBranch = Clone(dst, src, n.falseBranch, remap).(*MetaContribution)
		}
	case *ExprStmt:
		cl := clone.(*ExprStmt)
		cl.expr = Clone(dst, src, n.expr, remap)
	case *DeclStmt:
		cl := clone.(*DeclStmt)
		cl.expr = Clone(dst, src, n.expr, remap)
	case *MetaCalculationStmt:
		cl := clone.(*MetaCalculationStmt)
		cl.stmt = Clone(dst, src, n.stmt, remap)
	case *ErrorStmt:
		// leaf
	case *DeclRefExpr:
		cl := clone.(*DeclRefExpr)
		if n.decl != nil {
			if remap != nil {
				cl.decl = remap(n.decl)
			} else {
				cl.decl = n.decl
			}
		}
	case *MetaInstantiationExpr:
		cl := clone.(*MetaInstantiationExpr)
		cl.decl = Clone(dst, src, n.decl, remap).(*DeclRefExpr)
		for _, a := range n.args {
			cl.AddArg(Clone(dst, src, a, remap))
		}
	case *IntLiteralExpr, *BoolLiteralExpr, *ErrorExpr:
		// leaves
	case *BinaryExpr:
		cl := clone.(*BinaryExpr)
		cl.left = Clone(dst, src, n.left, remap)
		cl.right = Clone(dst, src, n.right, remap)
	case *CallExpr:
		cl := clone.(*CallExpr)
		cl.callee = Clone(dst, src, n.callee, remap)
		for _, a := range n.args {
			cl.AddArg(Clone(dst, src, a, remap))
		}
	}

	return clone
}

// CloneShallow copies node's own scalar fields (but not its children) into
// dst, propagating its span from src. This is the single-node primitive
// pkg/executor's `contribute` callback uses: a meta emitter contributes one
// template node at a time, exactly mirroring the shell-allocation-then-
// reader-links-children model the rest of this package follows, rather than
// eagerly deep-cloning a whole subtree the way Clone does for the two
// whole-template cases it serves.
func CloneShallow(dst *Context, src *Context, node Node) Node {
	if node == nil {
		return nil
	}

	clone := shallowClone(dst, node)

	if src.spans.Has(node) {
		dst.spans.Put(clone, src.spans.Get(node))
	}

	return clone
}

// shallowClone allocates a fresh node of the same kind as node in dst,
// copying its own scalar fields but none of its children — exactly the
// granularity of original_source's ASTCloner::clone*() methods.
func shallowClone(dst *Context, node Node) Node {
	switch n := node.(type) {
	case *CompilationUnit:
		return &CompilationUnit{base: base{dst.nextID()}}
	case *MetaUnit:
		return &MetaUnit{base: base{dst.nextID()}, instantiation: n.instantiation}
	case *FunctionDecl:
		return &FunctionDecl{base: base{dst.nextID()}, name: n.name}
	case *ArgDeclList:
		return &ArgDeclList{base: base{dst.nextID()}}
	case *ArgDecl:
		return &ArgDecl{base: base{dst.nextID()}, name: n.name, anon: n.anon}
	case *MetaDecl:
		return &MetaDecl{base: base{dst.nextID()}, name: n.name}
	case *GlobalConstantDecl:
		return &GlobalConstantDecl{base: base{dst.nextID()}, name: n.name}
	case *MetaContribution:
		return &MetaContribution{base: base{dst.nextID()}}
	case *CompoundStmt:
		return &CompoundStmt{base: base{dst.nextID()}}
	case *UnscopedCompoundStmt:
		return &UnscopedCompoundStmt{base: base{dst.nextID()}}
	case *ReturnStmt:
		return &ReturnStmt{base: base{dst.nextID()}}
	case *IfStmt:
		return &IfStmt{base: base{dst.nextID()}}
	case *MetaIfStmt:
		return &MetaIfStmt{base: base{dst.nextID()}}
	case *ExprStmt:
		return &ExprStmt{base: base{dst.nextID()}}
	case *DeclStmt:
		return &DeclStmt{base: base{dst.nextID()}, name: n.name}
	case *MetaCalculationStmt:
		return &MetaCalculationStmt{base: base{dst.nextID()}}
	case *ErrorStmt:
		return &ErrorStmt{base: base{dst.nextID()}}
	case *DeclRefExpr:
		return &DeclRefExpr{base: base{dst.nextID()}, name: n.name}
	case *MetaInstantiationExpr:
		return &MetaInstantiationExpr{base: base{dst.nextID()}}
	case *IntLiteralExpr:
		return &IntLiteralExpr{base: base{dst.nextID()}, value: n.value}
	case *BoolLiteralExpr:
		return &BoolLiteralExpr{base: base{dst.nextID()}, value: n.value}
	case *ErrorExpr:
		return &ErrorExpr{base: base{dst.nextID()}}
	case *BinaryExpr:
		return &BinaryExpr{base: base{dst.nextID()}, op: n.op}
	case *CallExpr:
		return &CallExpr{base: base{dst.nextID()}}
	default:
		panic("ast.Clone: unknown node type")
	}
}
