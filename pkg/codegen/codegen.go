// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package codegen lowers an ordinary FunctionDecl body to pkg/ir, the
// native control-flow form pkg/executor ships to the host process (spec.md
// §4.3). Meta declarations' emitter bodies are lowered by the separate
// pkg/metacodegen, which shares this package's expression/statement shape
// but targets an emitter function rather than the source function itself.
package codegen

import (
	"fmt"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/guard"
	"github.com/metac-lang/metac/pkg/ir"
)

// SymbolResolver resolves a meta instantiation expression's callee to the
// mangled symbol name it was (or will be) shipped under. pkg/codegen only
// declares the interface so it need not import pkg/executor, which is the
// package that actually maintains the instantiation cache and supplies the
// concrete implementation.
type SymbolResolver interface {
	ResolveInstantiation(mi *ast.MetaInstantiationExpr) (symbol string, ok bool)

	// ResolveInstantiationConstant resolves an instantiation referenced as a
	// bare value (no call parens, e.g. `return k<7>;`) to the expression its
	// exported GlobalConstantDecl defines, for codegen to inline at the use
	// site exactly as it already inlines an ordinary GlobalConstantDecl's
	// expression (see lowerDeclRef).
	ResolveInstantiationConstant(mi *ast.MetaInstantiationExpr) (value ast.Node, ok bool)
}

// Codegen lowers FunctionDecls to ir.Functions.
type Codegen struct {
	diags    *diag.Engine
	resolver SymbolResolver
	active   *guard.Set
}

// New constructs a Codegen that resolves meta-instantiation callees through
// resolver (nil is acceptable for code that is known not to call templates).
func New(diags *diag.Engine, resolver SymbolResolver) *Codegen {
	return &Codegen{diags: diags, resolver: resolver, active: guard.NewSet()}
}

// funcLowering holds the per-call state threaded through one LowerFunction
// invocation: the builder, and the DeclStmt/ArgDecl -> stack-slot binding.
type funcLowering struct {
	fb       *ir.FunctionBuilder
	slots    map[ast.NodeID]ir.ValueID
	resolver SymbolResolver
}

// LowerFunction lowers fd's body to a fresh ir.Function. Panics with an
// internal-error message if fd is already being lowered higher up the call
// stack (spec.md §4.3's cycle guard: codegen is invoked per function at
// most once concurrently, recursive calls within a body do not re-enter
// LowerFunction since a CallExpr lowers to an OpCall, not a recursive
// descent into the callee's own body).
func (cg *Codegen) LowerFunction(fd *ast.FunctionDecl) *ir.Function {
	id := uint32(fd.ID())
	if cg.active.Has(id) {
		panic(fmt.Sprintf("codegen: internal error: re-entrant lowering of function %q", fd.Name().Name()))
	}

	leave := cg.active.Enter(id)
	defer leave()

	fb := ir.NewFunctionBuilder(fd.Name().Name())
	fb.SetHasResult(fd.ReturnType() != nil)

	fl := &funcLowering{fb: fb, slots: make(map[ast.NodeID]ir.ValueID), resolver: cg.resolver}

	for _, a := range fd.Args().Args() {
		slot := fb.AddParam(a.Name().Name())
		fl.slots[a.ID()] = slot
	}

	fb.NewBlock()
	fl.lowerStmt(fd.Body())

	if !fb.BlockTerminated(fb.Current()) {
		fb.SetReturnVoid()
	}

	return fb.Build()
}

func (fl *funcLowering) lowerStmt(n ast.Node) {
	switch t := n.(type) {
	case *ast.CompoundStmt:
		fl.lowerStmtList(t.Stmts())
	case *ast.UnscopedCompoundStmt:
		fl.lowerStmtList(t.Stmts())
	case *ast.DeclStmt:
		v := fl.lowerExpr(t.Expr())
		slot := fl.fb.AllocLocal()
		fl.slots[t.ID()] = slot
		fl.fb.EmitStore(slot, v)
	case *ast.ExprStmt:
		fl.lowerExpr(t.Expr())
	case *ast.ReturnStmt:
		if t.Expr() == nil {
			fl.fb.SetReturnVoid()
			return
		}

		fl.fb.SetReturn(fl.lowerExpr(t.Expr()))
	case *ast.IfStmt:
		fl.lowerIf(t)
	case *ast.ErrorStmt:
		// Recovery sentinel: a well-formed program never reaches codegen
		// with one still present (the parser already filed an error for
		// it, and pkg/driver stops before shipment), so there is nothing
		// to lower.
	default:
		panic(fmt.Sprintf("codegen: unexpected statement kind %v", n.Kind()))
	}
}

// lowerStmtList lowers a statement list, stopping at the first statement
// that always terminates control flow: anything after it is unreachable
// and emitting it would append into a block that already has a terminator.
func (fl *funcLowering) lowerStmtList(stmts []ast.Node) {
	for _, s := range stmts {
		fl.lowerStmt(s)

		if fl.fb.BlockTerminated(fl.fb.Current()) {
			return
		}
	}
}

// lowerIf lowers the canonical diamond spec.md §4.3 describes: a condition
// branch to true/false arms that rejoin at a lazily-created continue block,
// omitted entirely when both arms always terminate control flow.
func (fl *funcLowering) lowerIf(is *ast.IfStmt) {
	cond := fl.lowerExpr(is.Cond())

	trueBlk := fl.fb.AllocBlock()

	hasFalse := is.FalseBranch() != nil

	var falseBlk ir.BlockID
	if hasFalse {
		falseBlk = fl.fb.AllocBlock()
	}

	entry := fl.fb.Current()

	fl.fb.SetBlock(trueBlk)
	fl.lowerStmt(is.TrueBranch())
	trueTerminates := fl.fb.BlockTerminated(trueBlk)

	falseTerminates := false
	if hasFalse {
		fl.fb.SetBlock(falseBlk)
		fl.lowerStmt(is.FalseBranch())
		falseTerminates = fl.fb.BlockTerminated(falseBlk)
	}

	needCont := !(hasFalse && trueTerminates && falseTerminates)

	var contBlk ir.BlockID
	if needCont {
		contBlk = fl.fb.AllocBlock()
	}

	falseTarget := falseBlk
	if !hasFalse {
		falseTarget = contBlk
	}

	fl.fb.SetBlock(entry)
	fl.fb.SetBranch(cond, trueBlk, falseTarget)

	if !trueTerminates {
		fl.fb.SetBlock(trueBlk)
		fl.fb.SetJump(contBlk)
	}

	if hasFalse && !falseTerminates {
		fl.fb.SetBlock(falseBlk)
		fl.fb.SetJump(contBlk)
	}

	if needCont {
		fl.fb.SetBlock(contBlk)
	}
}

func (fl *funcLowering) lowerExpr(n ast.Node) ir.ValueID {
	switch t := n.(type) {
	case *ast.IntLiteralExpr:
		return fl.fb.EmitConst(t.Value())
	case *ast.BoolLiteralExpr:
		v := int32(0)
		if t.Value() {
			v = 1
		}

		return fl.fb.EmitConst(v)
	case *ast.DeclRefExpr:
		return fl.lowerDeclRef(t)
	case *ast.BinaryExpr:
		return fl.lowerBinary(t)
	case *ast.CallExpr:
		return fl.lowerCall(t)
	case *ast.MetaInstantiationExpr:
		return fl.lowerInstantiationConstant(t)
	case *ast.ErrorExpr:
		return fl.fb.EmitConst(0)
	default:
		panic(fmt.Sprintf("codegen: unexpected expression kind %v", n.Kind()))
	}
}

// lowerInstantiationConstant lowers a meta instantiation referenced as a
// bare value rather than a call callee (spec.md §8 S1: `k<7>` used directly
// where `k` exports a GlobalConstantDecl, not a FunctionDecl).
func (fl *funcLowering) lowerInstantiationConstant(mi *ast.MetaInstantiationExpr) ir.ValueID {
	if fl.resolver == nil {
		panic("codegen: meta-instantiation value with no SymbolResolver configured")
	}

	value, ok := fl.resolver.ResolveInstantiationConstant(mi)
	if !ok {
		panic(fmt.Sprintf("codegen: internal error: unresolved constant instantiation of %q reached codegen", mi.Decl().Name().Name()))
	}

	return fl.lowerExpr(value)
}

// lowerDeclRef loads a local/parameter from its stack slot, or inlines a
// global constant's defining expression afresh at this use site (globals in
// this language are always compile-time constant, so there is no storage to
// read from — only an expression to re-lower).
func (fl *funcLowering) lowerDeclRef(ref *ast.DeclRefExpr) ir.ValueID {
	switch d := ref.Decl().(type) {
	case *ast.ArgDecl:
		return fl.fb.EmitLoad(fl.slots[d.ID()])
	case *ast.DeclStmt:
		return fl.fb.EmitLoad(fl.slots[d.ID()])
	case *ast.GlobalConstantDecl:
		return fl.lowerExpr(d.Expr())
	default:
		panic(fmt.Sprintf("codegen: unresolved or unexpected decl ref to %T", d))
	}
}

func (fl *funcLowering) lowerBinary(be *ast.BinaryExpr) ir.ValueID {
	left := fl.lowerExpr(be.Left())
	right := fl.lowerExpr(be.Right())
	v := fl.fb.EmitBinOp(uint8(be.Operator()), left, right)

	if isComparison(be.Operator()) {
		v = fl.fb.EmitZeroExt(v)
	}

	return v
}

func isComparison(op ast.BinaryOperator) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpAnd, ast.OpOr:
		return true
	default:
		return false
	}
}

func (fl *funcLowering) lowerCall(ce *ast.CallExpr) ir.ValueID {
	symbol := fl.calleeSymbol(ce.Callee())

	args := make([]ir.ValueID, len(ce.Args()))
	for i, a := range ce.Args() {
		args[i] = fl.lowerExpr(a)
	}

	return fl.fb.EmitCall(symbol, args, true)
}

// calleeSymbol resolves a call's callee to the function name pkg/ir's
// OpCall should target: direct for an ordinary function reference, or
// through the SymbolResolver for a meta-instantiation callee (spec.md §4.4:
// "a call whose callee is a meta instantiation resolves to the
// instantiation's shipped symbol").
func (fl *funcLowering) calleeSymbol(callee ast.Node) string {
	switch t := callee.(type) {
	case *ast.DeclRefExpr:
		if fd, ok := t.Decl().(*ast.FunctionDecl); ok {
			return fd.Name().Name()
		}

		panic("codegen: call callee does not resolve to a function declaration")
	case *ast.MetaInstantiationExpr:
		if fl.resolver == nil {
			panic("codegen: meta-instantiation callee with no SymbolResolver configured")
		}

		symbol, ok := fl.resolver.ResolveInstantiation(t)
		if !ok {
			panic(fmt.Sprintf("codegen: internal error: unresolved instantiation of %q reached codegen", t.Decl().Name().Name()))
		}

		return symbol
	default:
		panic(fmt.Sprintf("codegen: unexpected call callee kind %v", callee.Kind()))
	}
}
