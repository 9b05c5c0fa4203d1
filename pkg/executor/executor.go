// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package executor implements spec.md §4.5's instantiation protocol: given
// a MetaInstantiationExpr with already-evaluated integer arguments, produce
// (or return the cached) MetaUnit it expands to, driving an in-process
// interpreter over the emitter pkg/metacodegen lowers the MetaDecl to
// rather than a real native-code JIT (spec.md §1 explicitly treats "the
// specific native-code backend used for JIT" as a black-box Executor out of
// scope, which is what licenses standing in an interpreter for it here).
package executor

import (
	"fmt"
	"strings"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/check"
	"github.com/metac-lang/metac/pkg/codegen"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/guard"
	"github.com/metac-lang/metac/pkg/ir"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/metacodegen"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/scope"
	"github.com/metac-lang/metac/pkg/source"
)

// instKey identifies one instantiation's cache slot: the MetaDecl
// instantiated plus its evaluated arguments, joined into a single
// comparable string (spec.md §8 property 4: "the same decl instantiated
// with the same arguments twice yields the pointer-identical MetaUnit").
type instKey struct {
	decl ast.NodeID
	args string
}

// cacheEntry is what a completed instantiation leaves behind: the produced
// unit, and (if it exported a FunctionDecl) the mangled symbol it was
// shipped under.
type cacheEntry struct {
	unit   *ast.MetaUnit
	symbol string
	hasSym bool
}

// Controller owns the instantiation cache, the pending shipment module, and
// the host-side invocation-context table a running emitter's `ctx`
// parameter indexes into (spec.md §9).
type Controller struct {
	diags *diag.Engine
	cg    *codegen.Codegen
	mcg   *metacodegen.MetaCodegen
	it    *interpreter

	module   *ir.Module
	emitters map[ast.NodeID]*ir.Function
	ordinals map[ast.NodeID]int
	cache    map[instKey]*cacheEntry
	active   *guard.Set

	nextCtxID int32
	writers   map[int32]*invocationCtx
}

// New constructs a Controller that ships into a module named moduleName and
// files diagnostics on diags. New builds its own codegen.Codegen with this
// Controller as the SymbolResolver (see ResolveInstantiation), so callers
// need no further wiring before the first ShipFunction.
func New(diags *diag.Engine, moduleName string) *Controller {
	ctl := &Controller{
		diags:    diags,
		mcg:      metacodegen.New(),
		module:   ir.NewModule(moduleName),
		emitters: make(map[ast.NodeID]*ir.Function),
		ordinals: make(map[ast.NodeID]int),
		cache:    make(map[instKey]*cacheEntry),
		active:   guard.NewSet(),
		writers:  make(map[int32]*invocationCtx),
	}
	ctl.cg = codegen.New(diags, ctl)
	ctl.it = newInterpreter(ctl)

	return ctl
}

// Module returns the amalgamation module assembled so far (spec.md §4.5's
// "pending shipment"; pkg/driver assembles the final program from it).
func (ctl *Controller) Module() *ir.Module { return ctl.module }

// ShipFunction lowers fd (an ordinary top-level FunctionDecl, never one
// produced by an instantiation — those go through shipInstantiatedFunction)
// and adds it to the module under its surface name.
func (ctl *Controller) ShipFunction(fd *ast.FunctionDecl) {
	fn := ctl.cg.LowerFunction(fd)
	ctl.module.AddFunction(fn)
}

// ResolveInstantiation satisfies codegen.SymbolResolver: it requires mi to
// already have been instantiated (spec.md §4.5 runs instantiation to a
// fixed point before any codegen pass reaches a call site that names one),
// returning the symbol its exported FunctionDecl shipped under.
func (ctl *Controller) ResolveInstantiation(mi *ast.MetaInstantiationExpr) (string, bool) {
	key, ok := ctl.key(mi)
	if !ok {
		return "", false
	}

	entry, ok := ctl.cache[key]
	if !ok || !entry.hasSym {
		return "", false
	}

	return entry.symbol, true
}

// ResolveInstantiationConstant satisfies codegen.SymbolResolver's bare-value
// path (spec.md §8 S1: `k<7>` used directly where `k` exports a
// GlobalConstantDecl rather than a FunctionDecl): returns the expression the
// cached instantiation's exported constant defines, for codegen to inline.
func (ctl *Controller) ResolveInstantiationConstant(mi *ast.MetaInstantiationExpr) (ast.Node, bool) {
	key, ok := ctl.key(mi)
	if !ok {
		return nil, false
	}

	entry, ok := ctl.cache[key]
	if !ok {
		return nil, false
	}

	gc, ok := entry.unit.ExportedNode().(*ast.GlobalConstantDecl)
	if !ok {
		return nil, false
	}

	return gc.Expr(), true
}

// key evaluates mi's arguments and builds its cache key; ok is false if an
// argument is not a compile-time constant (spec.md §4.2: meta arguments are
// always int literals or references to other int-valued constants, so this
// should never fail for a unit that has passed pkg/check, but codegen may
// visit a MetaInstantiationExpr before its containing unit's checks ran).
func (ctl *Controller) key(mi *ast.MetaInstantiationExpr) (instKey, bool) {
	md, ok := mi.Decl().Decl().(*ast.MetaDecl)
	if !ok {
		return instKey{}, false
	}

	args, ok := evalConstArgs(mi.Args())
	if !ok {
		return instKey{}, false
	}

	return instKey{decl: md.ID(), args: joinArgs(args)}, true
}

func joinArgs(args []int32) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%d", a)
	}

	return strings.Join(parts, ",")
}

// evalConstArgs evaluates each argument expression as a compile-time
// int32 constant. Only the node shapes spec.md §4.2 allows as meta
// arguments are handled; anything else reports not-ok rather than reaching
// into runtime-only expression forms, which never validly appear here.
func evalConstArgs(args []ast.Node) ([]int32, bool) {
	out := make([]int32, len(args))

	for i, a := range args {
		v, ok := evalConstExpr(a)
		if !ok {
			return nil, false
		}

		out[i] = v
	}

	return out, true
}

func evalConstExpr(n ast.Node) (int32, bool) {
	switch t := n.(type) {
	case *ast.IntLiteralExpr:
		return t.Value(), true
	case *ast.DeclRefExpr:
		switch d := t.Decl().(type) {
		case *ast.GlobalConstantDecl:
			return evalConstExpr(d.Expr())
		default:
			return 0, false
		}
	case *ast.BinaryExpr:
		l, ok := evalConstExpr(t.Left())
		if !ok {
			return 0, false
		}

		r, ok := evalConstExpr(t.Right())
		if !ok {
			return 0, false
		}

		return evalBinOp(t.Operator(), l, r), true
	default:
		return 0, false
	}
}

// EnsureInstantiated runs spec.md §4.5's full instantiation protocol for mi,
// encountered while structuring/checking the unit allocated in srcCtx
// (the Context owning both mi and the MetaDecl it names — every
// instantiation site and the MetaDecl it instantiates always share one
// Context, since templates are never cloned across units until shipment).
// parent is the scope mi's instantiation site resolves names against,
// passed through to pkg/reader.ReadUnit as the produced MetaUnit's
// enclosing scope. Returns the cached unit unchanged on a second call with
// the same decl+args.
func (ctl *Controller) EnsureInstantiated(srcCtx *ast.Context, mi *ast.MetaInstantiationExpr, parent *scope.Scope) (*ast.MetaUnit, bool) {
	md, ok := mi.Decl().Decl().(*ast.MetaDecl)
	if !ok {
		ctl.diags.Report(diag.Error, mi.Decl().Name().Span(),
			"%q does not name a meta declaration", mi.Decl().Name().Name()).File()

		return nil, false
	}

	key, ok := ctl.key(mi)
	if !ok {
		ctl.diags.Report(diag.Error, mi.Decl().Name().Span(),
			"meta instantiation argument is not a compile-time constant").File()

		return nil, false
	}

	if entry, ok := ctl.cache[key]; ok {
		return entry.unit, true
	}

	id := uint32(md.ID())
	if ctl.active.Has(id) {
		ctl.diags.Report(diag.Error, mi.Decl().Name().Span(),
			"instantiation cycle: %q is already being instantiated", md.Name().Name()).File()

		return nil, false
	}

	leave := ctl.active.Enter(id)
	defer leave()

	args, _ := evalConstArgs(mi.Args())

	emitter := ctl.emitterFor(md)

	dstFile := source.NewFile(fmt.Sprintf("<instantiation of %s>", md.Name().Name()), "")
	dstCtx := ast.NewContext(dstFile)

	span := md.Name().Span()
	unit := dstCtx.NewMetaUnit(mi, span)

	writer := layout.NewWriter()
	closeUnit := writer.WriteScoped(unit)

	ctxID := ctl.registerWriter(&invocationCtx{dst: dstCtx, src: srcCtx, writer: writer})
	defer ctl.releaseWriter(ctxID)

	callArgs := make([]int32, 0, len(args)+1)
	callArgs = append(callArgs, ctxID)
	callArgs = append(callArgs, args...)

	ctl.it.run(emitter, callArgs)

	closeUnit()

	r := reader.New(dstCtx, ctl.diags)
	r.SetHook(ctl.HookFor(dstCtx))
	cur := layout.NewCursor(writer.Tokens())
	readUnit := r.ReadUnit(cur, ast.KindMetaUnit, parent)

	produced, ok := readUnit.(*ast.MetaUnit)
	if !ok {
		panic("executor: internal error: ReadUnit did not return a MetaUnit")
	}

	if exported := findExportedNode(produced, md.Name().Name()); exported != nil {
		produced.SetExportedNode(exported)

		// spec.md §3/§8 property 6: at the use-site, a meta decl named N is
		// shadowed by the exportedNode of an instantiation also named N, so
		// a later bare reference to N in parent's scope (or any scope
		// nested under it from here on) resolves to this instantiation's
		// export rather than the template it came from.
		if parent != nil {
			r.Reshadow(parent, md.Name().Name(), exported)
		}
	}

	check.New(dstCtx, ctl.diags).CheckUnit(produced)

	entry := &cacheEntry{unit: produced}

	if fd, ok := produced.ExportedNode().(*ast.FunctionDecl); ok {
		entry.symbol = ctl.shipInstantiatedFunction(md, fd)
		entry.hasSym = true
	}

	ctl.cache[key] = entry

	return produced, true
}

// HookFor returns a reader.InstantiationHook bound to ctx, suitable for
// reader.Reader.SetHook: every instantiation resolved while structuring a
// unit allocated in ctx is instantiated eagerly, with the real scope the
// call site resolved against as EnsureInstantiated's parent. pkg/driver uses
// this for the original compilation unit's Reader; EnsureInstantiated uses
// it for every produced MetaUnit's Reader, so a nested instantiation is
// resolved the instant it is discovered rather than in a separate post-hoc
// pass (spec.md §4.5 step 2's eager dependency closure).
func (ctl *Controller) HookFor(ctx *ast.Context) reader.InstantiationHook {
	return func(mi *ast.MetaInstantiationExpr, parent *scope.Scope) {
		ctl.EnsureInstantiated(ctx, mi, parent)
	}
}

// findExportedNode returns produced's direct child whose name matches name,
// if any (spec.md §4.5: "at most one contributed declaration may share the
// instantiated MetaDecl's own name; that one becomes the unit's exported
// node").
func findExportedNode(produced *ast.MetaUnit, name string) ast.Node {
	for _, d := range produced.Decls() {
		switch t := d.(type) {
		case *ast.FunctionDecl:
			if t.Name().Name() == name {
				return t
			}
		case *ast.GlobalConstantDecl:
			if t.Name().Name() == name {
				return t
			}
		case *ast.MetaDecl:
			if t.Name().Name() == name {
				return t
			}
		}
	}

	return nil
}

// emitterFor lowers md's emitter the first time it is instantiated, caching
// it for every subsequent instantiation of the same MetaDecl (spec.md §4.5
// step 1: "the emitter is lowered once per MetaDecl, not once per
// instantiation").
func (ctl *Controller) emitterFor(md *ast.MetaDecl) *ir.Function {
	if fn, ok := ctl.emitters[md.ID()]; ok {
		return fn
	}

	fn := ctl.mcg.LowerMetaDecl(md)
	ctl.emitters[md.ID()] = fn

	return fn
}

// shipInstantiatedFunction clones fd's lowered body under a mangled symbol
// name unique to this instantiation (spec.md §4.5 step 4: "clone its
// prototype into the pending shipment"), so that two instantiations of the
// same MetaDecl exporting same-named functions never collide in the
// amalgamation module.
func (ctl *Controller) shipInstantiatedFunction(md *ast.MetaDecl, fd *ast.FunctionDecl) string {
	ordinal := ctl.ordinals[md.ID()]
	ctl.ordinals[md.ID()]++

	symbol := fmt.Sprintf("%s$%d", fd.Name().Name(), ordinal)

	// The produced FunctionDecl was never itself lowered by pkg/codegen
	// (only the MetaDecl's emitter was); lower it fresh, exactly as an
	// ordinary top-level FunctionDecl would be, then rename it to its
	// mangled symbol before shipping.
	fn := ctl.cg.LowerFunction(fd)
	renamed := ir.CloneWithRemap(fn, map[string]string{fn.Name: symbol})
	ctl.module.AddFunction(renamed)

	return symbol
}

func (ctl *Controller) registerWriter(ic *invocationCtx) int32 {
	id := ctl.nextCtxID
	ctl.nextCtxID++
	ctl.writers[id] = ic

	return id
}

func (ctl *Controller) releaseWriter(id int32) {
	delete(ctl.writers, id)
}

func (ctl *Controller) writer(id int32) *invocationCtx {
	ic, ok := ctl.writers[id]
	if !ok {
		panic("executor: internal error: reference to an unregistered invocation context")
	}

	return ic
}
