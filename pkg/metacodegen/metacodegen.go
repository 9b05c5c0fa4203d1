// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package metacodegen lowers a MetaDecl's contribution body to an emitter:
// a native function whose body, instead of computing a value, walks the
// template tree and calls three host callbacks (spec.md §4.4). It shares
// pkg/codegen's IR target but not its lowering state, since an emitter body
// interleaves two entirely different things at once — ordinary value
// computation (a MetaIfStmt's condition, a MetaCalculationStmt's wrapped
// statement) and template-node contribution, which pkg/codegen's
// FunctionDecl lowering never needs to do.
package metacodegen

import (
	"fmt"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/ir"
)

// Depth tells `introduce` what AST shape a meta-calculation's exported
// binding should take once spliced into the enclosing unit.
type Depth int32

const (
	// DepthTopLevel synthesises a GlobalConstantDecl.
	DepthTopLevel Depth = iota
	// DepthInsideFunctionDecl synthesises a DeclStmt.
	DepthInsideFunctionDecl
)

// Callback symbol names the emitted OpCall instructions target; pkg/executor
// binds these to host-side trampolines before invoking a jump pad (spec.md
// §4.5 step 6).
const (
	CallbackContribute      = "@contribute"
	CallbackReduce          = "@reduce"
	CallbackIntroduce       = "@introduce"
	CallbackContributeValue = "@contributeValue"
)

// MetaCodegen lowers MetaDecls to emitter ir.Functions.
type MetaCodegen struct{}

// New constructs a MetaCodegen.
func New() *MetaCodegen { return &MetaCodegen{} }

// emitterLowering holds the per-call state threaded through one
// LowerMetaDecl invocation.
type emitterLowering struct {
	fb    *ir.FunctionBuilder
	slots map[ast.NodeID]ir.ValueID
	// argSlots indexes md's own template parameters by name rather than by
	// node ID: a bare reference to one of them, found anywhere in contributed
	// AST outside a `meta{...}` block, never gets a resolved Decl() to key
	// off of (resolveExpr leaves every DeclRefExpr unresolved at
	// InsideMetaDecl, see reader/resolve.go), so emitWalk matches by name
	// instead and substitutes the parameter's runtime value directly.
	argSlots map[string]ir.ValueID
	ctx      ir.ValueID
	// depth is the static lowering-time classification of whatever
	// emitImplicitExport/emitMetaCalculation call is about to be emitted: it
	// is a property of where in the contribution tree that call sits, never
	// of the instantiation's call site, so it is carried as plain lowering
	// state rather than threaded through the emitter as a runtime parameter.
	// It starts at DepthTopLevel and flips to DepthInsideFunctionDecl only
	// while contributeNode is walking down into a contributed FunctionDecl's
	// own children, restoring the outer value once that walk returns.
	depth Depth
}

// LowerMetaDecl lowers md to an emitter function of signature
// `void(ctx, arg0, arg1, …)`: ctx is the opaque context pointer spec.md §4.4
// describes (an index into pkg/executor's host-side writer table, per
// spec.md §9's "model the void* context as an index into a small host-side
// table"). Each `introduce` call the emitter issues carries its own Depth as
// an immediate, baked in at lowering time from the static shape of the
// contribution tree (see emitterLowering.depth) rather than learned from the
// instantiation's call site, which has no bearing on whether a given
// exported binding sits at top level or inside a contributed function body.
func (mc *MetaCodegen) LowerMetaDecl(md *ast.MetaDecl) *ir.Function {
	fb := ir.NewFunctionBuilder(md.Name().Name())
	fb.SetHasResult(false)

	el := &emitterLowering{
		fb:       fb,
		slots:    make(map[ast.NodeID]ir.ValueID),
		argSlots: make(map[string]ir.ValueID),
		depth:    DepthTopLevel,
	}

	el.ctx = fb.AddParam("ctx")

	for _, a := range md.Args().Args() {
		slot := fb.AddParam(a.Name().Name())
		el.slots[a.ID()] = slot

		if name := a.Name().Name(); name != "" {
			el.argSlots[name] = slot
		}
	}

	fb.NewBlock()

	if md.Contribution() != nil {
		for _, child := range md.Contribution().Children() {
			el.emitContributionChild(child)
		}
	}

	if !fb.BlockTerminated(fb.Current()) {
		fb.SetReturnVoid()
	}

	return fb.Build()
}

// emitContributionChild emits one direct child of a MetaDecl's own
// contribution or a MetaIfStmt branch — never used for a node reached
// through ordinary recursive descent (contributeNode's walk into a
// contributed FunctionDecl's body, say), which always goes through emitWalk
// instead. The distinction matters for *ast.DeclStmt: `int k = n;` written
// bare at this level (spec.md §8 S1, no `meta{}` wrapper) is an implicit
// single-statement export, not a local variable to clone — whereas the same
// node shape reached while contributing a function's ordinary body is a
// genuine local and must clone as-is.
func (el *emitterLowering) emitContributionChild(n ast.Node) {
	switch t := n.(type) {
	case *ast.MetaIfStmt:
		el.emitMetaIf(t)
	case *ast.MetaCalculationStmt:
		el.emitMetaCalculation(t)
	case *ast.DeclStmt:
		el.emitImplicitExport(t)
	default:
		el.emitWalk(n)
	}
}

// emitImplicitExport lowers a bare exported declaration exactly as
// emitMetaCalculation lowers a meta{...} block's single exported DeclStmt:
// compute its initialiser as an ordinary value and introduce it, so `int k
// = n;` written directly in a contribution needs no meta{} wrapper to
// behave as one (spec.md §8 S1).
func (el *emitterLowering) emitImplicitExport(ds *ast.DeclStmt) {
	v := el.lowerValueExpr(ds.Expr())
	slot := el.fb.AllocLocal()
	el.slots[ds.ID()] = slot
	el.fb.EmitStore(slot, v)

	loaded := el.fb.EmitLoad(slot)
	nodeRef := el.fb.EmitNodeConst(ds)
	depthConst := el.fb.EmitConst(int32(el.depth))
	el.fb.EmitCall(CallbackIntroduce, []ir.ValueID{el.ctx, nodeRef, loaded, depthConst}, false)
}

// emitWalk emits n's contribution per spec.md §4.4: MetaIfStmt and
// MetaCalculationStmt are control constructs handled specially (neither is
// ever itself contributed as a node), anything else is an ordinary template
// node contributed following the same node/children/reduce-marker shape as
// spec.md §4.1's layout writing rules, just through callbacks instead of
// direct slice appends.
func (el *emitterLowering) emitWalk(n ast.Node) {
	switch t := n.(type) {
	case *ast.MetaIfStmt:
		el.emitMetaIf(t)
	case *ast.MetaCalculationStmt:
		el.emitMetaCalculation(t)
	case *ast.DeclRefExpr:
		if slot, ok := el.argSlots[t.Name().Name()]; ok {
			el.contributeArgValue(t, slot)
			return
		}

		el.contributeNode(n)
	default:
		el.contributeNode(n)
	}
}

// contributeArgValue substitutes a bare reference to one of md's own
// template parameters with its instantiation-time value, contributed as a
// literal in place of the reference — the same substitution `introduce`
// performs for a `meta{...}` block's exported binding, generalised to any
// direct use of a template parameter in contributed AST (spec.md §8 S2's
// `return x + a;`, S1's `int k = n;`).
func (el *emitterLowering) contributeArgValue(ref *ast.DeclRefExpr, slot ir.ValueID) {
	value := el.fb.EmitLoad(slot)
	nodeRef := el.fb.EmitNodeConst(ref)
	el.fb.EmitCall(CallbackContributeValue, []ir.ValueID{el.ctx, nodeRef, value}, false)
}

func (el *emitterLowering) contributeNode(n ast.Node) {
	ref := el.fb.EmitNodeConst(n)
	el.fb.EmitCall(CallbackContribute, []ir.ValueID{el.ctx, ref}, false)

	// Descending into a contributed function's own body is the one place a
	// top-level contribution stops being top-level: any exported binding
	// found inside it is a local of that function, not a sibling of the
	// MetaUnit's own declarations.
	prevDepth := el.depth
	if _, ok := n.(*ast.FunctionDecl); ok {
		el.depth = DepthInsideFunctionDecl
	}

	for _, child := range n.Children() {
		el.emitWalk(child)
	}

	el.depth = prevDepth

	if n.Kind().RequiresReduceMarker() {
		el.fb.EmitCall(CallbackReduce, []ir.ValueID{el.ctx}, false)
	}
}

// emitMetaIf lowers the condition as ordinary expression code (entering
// computation mode, per spec.md §4.4) and branches to whichever arm's
// contribution the runtime condition selects; the arm not taken contributes
// nothing.
func (el *emitterLowering) emitMetaIf(ms *ast.MetaIfStmt) {
	cond := el.lowerValueExpr(ms.Cond())

	trueBlk := el.fb.AllocBlock()

	hasFalse := ms.FalseBranch() != nil

	var falseBlk ir.BlockID
	if hasFalse {
		falseBlk = el.fb.AllocBlock()
	}

	contBlk := el.fb.AllocBlock()

	entry := el.fb.Current()

	falseTarget := falseBlk
	if !hasFalse {
		falseTarget = contBlk
	}

	el.fb.SetBlock(entry)
	el.fb.SetBranch(cond, trueBlk, falseTarget)

	el.fb.SetBlock(trueBlk)
	for _, child := range ms.TrueBranch().Children() {
		el.emitContributionChild(child)
	}

	if !el.fb.BlockTerminated(el.fb.Current()) {
		el.fb.SetJump(contBlk)
	}

	if hasFalse {
		el.fb.SetBlock(falseBlk)
		for _, child := range ms.FalseBranch().Children() {
			el.emitContributionChild(child)
		}

		if !el.fb.BlockTerminated(el.fb.Current()) {
			el.fb.SetJump(contBlk)
		}
	}

	el.fb.SetBlock(contBlk)
}

// emitMetaCalculation lowers the wrapped statement as ordinary value-
// computing code, then issues an `introduce` call per exported declaration
// the in-place scope collected during structuring (spec.md §4.4).
func (el *emitterLowering) emitMetaCalculation(mc *ast.MetaCalculationStmt) {
	el.lowerValueStmt(mc.Stmt())

	for _, d := range mc.ExportedDecls() {
		ds, ok := d.(*ast.DeclStmt)
		if !ok {
			panic(fmt.Sprintf("metacodegen: unexpected exported decl kind %T", d))
		}

		slot, ok := el.slots[ds.ID()]
		if !ok {
			panic("metacodegen: exported decl has no computed slot")
		}

		value := el.fb.EmitLoad(slot)
		nodeRef := el.fb.EmitNodeConst(ds)
		depthConst := el.fb.EmitConst(int32(el.depth))
		el.fb.EmitCall(CallbackIntroduce, []ir.ValueID{el.ctx, nodeRef, value, depthConst}, false)
	}
}

// lowerValueStmt lowers an ordinary statement the way pkg/codegen would —
// duplicated rather than shared, since an emitter's value-computing
// sub-regions are a small subset (no `if`, no `return`) of what a full
// function body supports, and sharing would mean threading emitter-only
// state (ctx, depth, the contribution walk) through pkg/codegen's lowering
// for no benefit to it.
func (el *emitterLowering) lowerValueStmt(n ast.Node) {
	switch t := n.(type) {
	case *ast.DeclStmt:
		v := el.lowerValueExpr(t.Expr())
		slot := el.fb.AllocLocal()
		el.slots[t.ID()] = slot
		el.fb.EmitStore(slot, v)
	case *ast.ExprStmt:
		el.lowerValueExpr(t.Expr())
	case *ast.CompoundStmt:
		for _, s := range t.Stmts() {
			el.lowerValueStmt(s)
		}
	case *ast.UnscopedCompoundStmt:
		for _, s := range t.Stmts() {
			el.lowerValueStmt(s)
		}
	default:
		panic(fmt.Sprintf("metacodegen: unexpected meta-calculation statement kind %v", n.Kind()))
	}
}

func (el *emitterLowering) lowerValueExpr(n ast.Node) ir.ValueID {
	switch t := n.(type) {
	case *ast.IntLiteralExpr:
		return el.fb.EmitConst(t.Value())
	case *ast.BoolLiteralExpr:
		v := int32(0)
		if t.Value() {
			v = 1
		}

		return el.fb.EmitConst(v)
	case *ast.DeclRefExpr:
		return el.lowerValueDeclRef(t)
	case *ast.BinaryExpr:
		left := el.lowerValueExpr(t.Left())
		right := el.lowerValueExpr(t.Right())
		v := el.fb.EmitBinOp(uint8(t.Operator()), left, right)

		if isComparison(t.Operator()) {
			v = el.fb.EmitZeroExt(v)
		}

		return v
	case *ast.ErrorExpr:
		return el.fb.EmitConst(0)
	default:
		panic(fmt.Sprintf("metacodegen: unexpected meta-calculation expression kind %v", n.Kind()))
	}
}

// lowerValueDeclRef loads ref's value. A bare reference to one of md's own
// template parameters is never resolved (InsideMetaDecl leaves it that way,
// see reader/resolve.go), so it falls back to argSlots by name before
// assuming a resolved Decl() — the same substitution emitWalk performs for a
// contributed (rather than computed) occurrence of the same parameter.
func (el *emitterLowering) lowerValueDeclRef(ref *ast.DeclRefExpr) ir.ValueID {
	if ref.Decl() == nil {
		if slot, ok := el.argSlots[ref.Name().Name()]; ok {
			return el.fb.EmitLoad(slot)
		}
	}

	switch d := ref.Decl().(type) {
	case *ast.ArgDecl:
		return el.fb.EmitLoad(el.slots[d.ID()])
	case *ast.DeclStmt:
		return el.fb.EmitLoad(el.slots[d.ID()])
	case *ast.GlobalConstantDecl:
		return el.lowerValueExpr(d.Expr())
	default:
		panic(fmt.Sprintf("metacodegen: unresolved or unexpected decl ref to %T", d))
	}
}

func isComparison(op ast.BinaryOperator) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpAnd, ast.OpOr:
		return true
	default:
		return false
	}
}
