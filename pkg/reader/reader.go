// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package reader structures a flat pkg/layout token stream into a properly
// nested pkg/ast tree and resolves every DeclRefExpr against pkg/scope,
// the two-phase name resolution spec.md §4.2 describes: phase 1
// (introduction) binds every top-level name in a unit before phase 2
// (descent) resolves references, which is what lets a unit's declarations
// forward-reference each other regardless of textual order. Grounded on
// original_source/src/Parse/ASTLayout.cpp's consume* methods (structuring)
// and introduceScope (phase 1).
package reader

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/scope"
)

// Mode gates whether a DeclRefExpr is eligible for resolution during
// descent. spec.md §3: disabled only at InsideMetaDecl, since a MetaDecl's
// contribution body is re-interpreted fresh at every instantiation and
// must not bind its free names until then.
type Mode uint8

const (
	Outside Mode = iota
	InsideMetaDecl
	InsideComputation
)

// namedDecl is implemented by every node kind that introduces a binding.
type namedDecl interface {
	ast.Node
	Name() ast.Identifier
}

// InstantiationHook is called the instant a MetaInstantiationExpr's callee
// resolves during phase 2, with the real scope the call site resolves
// names against — never a reconstruction of it. pkg/driver sets this to
// pkg/executor.Controller.EnsureInstantiated (bound to the owning Context),
// giving spec.md §4.5's eager dependency closure a correct parent scope at
// every site, including nested ones discovered while resolving a freshly
// produced MetaUnit, without pkg/executor or pkg/driver ever needing to
// retain or rebuild a scope.Scope of their own. Never invoked at
// InsideMetaDecl, where the callee reference is resolved but the
// instantiation itself is a template fragment, not yet a real call.
type InstantiationHook func(mi *ast.MetaInstantiationExpr, parent *scope.Scope)

// Reader structures one layout stream into a tree and resolves it.
type Reader struct {
	ctx   *ast.Context
	diags *diag.Engine
	hook  InstantiationHook
}

// New constructs a Reader allocating nodes in ctx and filing diagnostics on
// diags.
func New(ctx *ast.Context, diags *diag.Engine) *Reader {
	return &Reader{ctx: ctx, diags: diags}
}

// SetHook installs hook, called for every real (non-template-body)
// instantiation site resolved during ReadUnit. Optional: a Reader used only
// to structure a MetaDecl's own template body (which never needs eager
// instantiation) can leave it unset.
func (r *Reader) SetHook(hook InstantiationHook) {
	r.hook = hook
}

// ReadUnit structures a complete CompilationUnit or MetaUnit from cur
// (kind must be KindCompilationUnit or KindMetaUnit), against parent (nil
// for a top-level compilation unit; the instantiation site's scope for a
// MetaUnit), then fully resolves it.
func (r *Reader) ReadUnit(cur *layout.Cursor, kind ast.Kind, parent *scope.Scope) ast.Unit {
	node, done := cur.ShiftScoped(kind)
	unit := node.(ast.Unit)

	for !cur.ShouldReduce() {
		unit.AddDecl(r.consumeTopLevelDecl(cur))
	}

	done()

	unitScope := scope.NewPersistent(parent)

	// Phase 1: introduce every top-level name before resolving anything,
	// permitting forward references within the unit.
	r.introduce(unit.Decls(), unitScope)

	// Phase 2: descend into each declaration's body, resolving DeclRefs.
	for _, d := range unit.Decls() {
		r.resolveTopLevelDecl(d, unitScope)
	}

	return unit
}

// introduce binds every named declaration in decls into s, diagnosing
// redeclarations (except the one shadowing rule spec.md §3 carves out: a
// MetaDecl named f may be shadowed by the exported node of an
// instantiation named f — callers that need that exception use
// scope.Reshadow directly rather than going through introduce, since
// ordinary top-level introduction never needs it).
func (r *Reader) introduce(decls []ast.Node, s *scope.Scope) {
	for _, d := range decls {
		nd, ok := d.(namedDecl)
		if !ok {
			continue
		}

		name := nd.Name().Name()
		if name == "" {
			continue
		}

		if !s.Declare(name, d) {
			r.diags.Report(diag.Error, nd.Name().Span(), "redeclaration of %q", name).File()
		}
	}
}

func (r *Reader) consumeTopLevelDecl(cur *layout.Cursor) ast.Node {
	switch cur.Peek().Node.Kind() {
	case ast.KindFunctionDecl:
		return r.consumeFunctionDecl(cur)
	case ast.KindMetaDecl:
		return r.consumeMetaDecl(cur)
	case ast.KindGlobalConstantDecl:
		return r.consumeGlobalConstantDecl(cur)
	default:
		panic("reader: unexpected top-level decl kind")
	}
}

func (r *Reader) consumeArgDeclList(cur *layout.Cursor) *ast.ArgDeclList {
	node, done := cur.ShiftScoped(ast.KindArgDeclList)
	list := node.(*ast.ArgDeclList)

	for !cur.ShouldReduce() {
		argNode := cur.ShiftNode(ast.KindArgDecl)
		list.Add(argNode.(*ast.ArgDecl))
	}

	done()

	return list
}

func (r *Reader) consumeFunctionDecl(cur *layout.Cursor) *ast.FunctionDecl {
	node, done := cur.ShiftScoped(ast.KindFunctionDecl)
	fd := node.(*ast.FunctionDecl)

	fd.SetArgs(r.consumeArgDeclList(cur))

	if !cur.ShouldReduce() {
		rt := cur.ShiftNode(ast.KindArgDecl)
		fd.SetReturnType(rt.(*ast.ArgDecl))
	}

	fd.SetBody(r.consumeStmt(cur))
	done()

	return fd
}

func (r *Reader) consumeMetaDecl(cur *layout.Cursor) *ast.MetaDecl {
	// MetaDecl is fixed arity (always exactly an ArgDeclList then a
	// MetaContribution, see SPEC_FULL.md §5.1): no reduce marker, mirroring
	// consumeGlobalConstantDecl rather than consumeFunctionDecl.
	node := cur.ShiftNode(ast.KindMetaDecl)
	md := node.(*ast.MetaDecl)

	md.SetArgs(r.consumeArgDeclList(cur))
	md.SetContribution(r.consumeMetaContribution(cur))

	return md
}

func (r *Reader) consumeGlobalConstantDecl(cur *layout.Cursor) *ast.GlobalConstantDecl {
	// GlobalConstantDecl is a fixed, single-child node: no reduce marker.
	node := cur.ShiftNode(ast.KindGlobalConstantDecl)
	gc := node.(*ast.GlobalConstantDecl)

	gc.SetExpr(r.consumeExpr(cur))

	return gc
}

func (r *Reader) consumeMetaContribution(cur *layout.Cursor) *ast.MetaContribution {
	node, done := cur.ShiftScoped(ast.KindMetaContribution)
	mc := node.(*ast.MetaContribution)

	for !cur.ShouldReduce() {
		mc.Add(r.consume(cur))
	}

	done()

	return mc
}

// consume reads any single node (statement, expression, or a nested
// top-level declaration such as the FunctionDecl a meta template
// contributes, e.g. `meta add<int a> { int add(int x) { ... } }`) whose
// kind is determined entirely by the next token.
func (r *Reader) consume(cur *layout.Cursor) ast.Node {
	k := cur.Peek().Node.Kind()
	if k.IsStmt() {
		return r.consumeStmt(cur)
	}

	if k.IsExpr() {
		return r.consumeExpr(cur)
	}

	if k.IsTopLevel() {
		return r.consumeTopLevelDecl(cur)
	}

	panic("reader: unexpected node kind in contribution: " + k.String())
}

func (r *Reader) consumeStmt(cur *layout.Cursor) ast.Node {
	switch cur.Peek().Node.Kind() {
	case ast.KindCompoundStmt:
		return r.consumeCompoundStmt(cur)
	case ast.KindUnscopedCompoundStmt:
		return r.consumeUnscopedCompoundStmt(cur)
	case ast.KindReturnStmt:
		return r.consumeReturnStmt(cur)
	case ast.KindIfStmt:
		return r.consumeIfStmt(cur)
	case ast.KindMetaIfStmt:
		return r.consumeMetaIfStmt(cur)
	case ast.KindExprStmt:
		return r.consumeExprStmt(cur)
	case ast.KindDeclStmt:
		return r.consumeDeclStmt(cur)
	case ast.KindMetaCalculationStmt:
		return r.consumeMetaCalculationStmt(cur)
	case ast.KindErrorStmt:
		return cur.ShiftNode(ast.KindErrorStmt)
	default:
		panic("reader: unexpected statement kind")
	}
}

func (r *Reader) consumeCompoundStmt(cur *layout.Cursor) *ast.CompoundStmt {
	node, done := cur.ShiftScoped(ast.KindCompoundStmt)
	cs := node.(*ast.CompoundStmt)

	for !cur.ShouldReduce() {
		cs.Add(r.consumeStmt(cur))
	}

	done()

	return cs
}

func (r *Reader) consumeUnscopedCompoundStmt(cur *layout.Cursor) *ast.UnscopedCompoundStmt {
	node, done := cur.ShiftScoped(ast.KindUnscopedCompoundStmt)
	cs := node.(*ast.UnscopedCompoundStmt)

	for !cur.ShouldReduce() {
		cs.Add(r.consumeStmt(cur))
	}

	done()

	return cs
}

func (r *Reader) consumeReturnStmt(cur *layout.Cursor) *ast.ReturnStmt {
	node, done := cur.ShiftScoped(ast.KindReturnStmt)
	rs := node.(*ast.ReturnStmt)

	if !cur.ShouldReduce() {
		rs.SetExpr(r.consumeExpr(cur))
	}

	done()

	return rs
}

func (r *Reader) consumeIfStmt(cur *layout.Cursor) *ast.IfStmt {
	node, done := cur.ShiftScoped(ast.KindIfStmt)
	is := node.(*ast.IfStmt)

	is.SetCond(r.consumeExpr(cur))
	is.SetTrueBranch(r.consumeStmt(cur))

	if !cur.ShouldReduce() {
		is.SetFalseBranch(r.consumeStmt(cur))
	}

	done()

	return is
}

func (r *Reader) consumeMetaIfStmt(cur *layout.Cursor) *ast.MetaIfStmt {
	node, done := cur.ShiftScoped(ast.KindMetaIfStmt)
	ms := node.(*ast.MetaIfStmt)

	ms.SetCond(r.consumeExpr(cur))
	ms.SetTrueBranch(r.consumeMetaContribution(cur))

	if !cur.ShouldReduce() {
		ms.SetFalseBranch(r.consumeMetaContribution(cur))
	}

	done()

	return ms
}

func (r *Reader) consumeExprStmt(cur *layout.Cursor) *ast.ExprStmt {
	node := cur.ShiftNode(ast.KindExprStmt)
	es := node.(*ast.ExprStmt)
	es.SetExpr(r.consumeExpr(cur))

	return es
}

func (r *Reader) consumeDeclStmt(cur *layout.Cursor) *ast.DeclStmt {
	node := cur.ShiftNode(ast.KindDeclStmt)
	ds := node.(*ast.DeclStmt)
	ds.SetExpr(r.consumeExpr(cur))

	return ds
}

func (r *Reader) consumeMetaCalculationStmt(cur *layout.Cursor) *ast.MetaCalculationStmt {
	node := cur.ShiftNode(ast.KindMetaCalculationStmt)
	mc := node.(*ast.MetaCalculationStmt)
	mc.SetStmt(r.consumeStmt(cur))

	return mc
}

func (r *Reader) consumeExpr(cur *layout.Cursor) ast.Node {
	switch cur.Peek().Node.Kind() {
	case ast.KindDeclRefExpr:
		return cur.ShiftNode(ast.KindDeclRefExpr)
	case ast.KindMetaInstantiationExpr:
		return r.consumeMetaInstantiationExpr(cur)
	case ast.KindIntLiteralExpr:
		return cur.ShiftNode(ast.KindIntLiteralExpr)
	case ast.KindBoolLiteralExpr:
		return cur.ShiftNode(ast.KindBoolLiteralExpr)
	case ast.KindErrorExpr:
		return cur.ShiftNode(ast.KindErrorExpr)
	case ast.KindBinaryExpr:
		return r.consumeBinaryExpr(cur)
	case ast.KindCallExpr:
		return r.consumeCallExpr(cur)
	default:
		panic("reader: unexpected expression kind")
	}
}

func (r *Reader) consumeBinaryExpr(cur *layout.Cursor) *ast.BinaryExpr {
	node := cur.ShiftNode(ast.KindBinaryExpr)
	be := node.(*ast.BinaryExpr)
	left := r.consumeExpr(cur)
	right := r.consumeExpr(cur)
	be.SetOperands(left, right)

	return be
}

func (r *Reader) consumeCallExpr(cur *layout.Cursor) *ast.CallExpr {
	node, done := cur.ShiftScoped(ast.KindCallExpr)
	ce := node.(*ast.CallExpr)
	ce.SetCallee(r.consumeExpr(cur))

	for !cur.ShouldReduce() {
		ce.AddArg(r.consumeExpr(cur))
	}

	done()

	return ce
}

func (r *Reader) consumeMetaInstantiationExpr(cur *layout.Cursor) *ast.MetaInstantiationExpr {
	node, done := cur.ShiftScoped(ast.KindMetaInstantiationExpr)
	mi := node.(*ast.MetaInstantiationExpr)
	declNode := cur.ShiftNode(ast.KindDeclRefExpr)
	mi.SetDecl(declNode.(*ast.DeclRefExpr))

	for !cur.ShouldReduce() {
		mi.AddArg(r.consumeExpr(cur))
	}

	done()

	return mi
}
