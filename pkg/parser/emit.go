// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/source"
)

// The emit* methods below walk a fully-parsed concrete tree (cst.go) and
// push its nodes into a layout.Writer, exactly mirroring pkg/reader's
// consume* methods in reverse: wherever a consumeX method calls
// cur.ShiftScoped, the matching emitX method here calls w.WriteScoped (and
// recurses into children in the identical order); wherever consumeX calls
// cur.ShiftNode (fixed arity, no reduce marker), emitX calls w.Write alone.

func (p *Parser) emitTopDecl(w *layout.Writer, d cstTopDecl) {
	switch t := d.(type) {
	case *cstFuncDecl:
		p.emitFuncDecl(w, t)
	case *cstMetaDecl:
		p.emitMetaDecl(w, t)
	case *cstGlobalConst:
		p.emitGlobalConst(w, t)
	}
}

func (p *Parser) emitFuncDecl(w *layout.Writer, d *cstFuncDecl) {
	name := p.ctx.NewIdentifier(d.name, d.nameSpan)
	fd := p.ctx.NewFunctionDecl(name, d.span)
	closeFD := w.WriteScoped(fd)

	p.emitArgDeclList(w, d.args, d.span)

	// consumeFunctionDecl's structural decoding can only tell "return type
	// ArgDecl present" from "body statement next" by peeking whether a
	// reduce marker follows the argument list — which means it can never
	// actually observe "no return type, body next" (the body token is never
	// a reduce marker either). A FunctionDecl therefore always carries its
	// anonymous return-type slot in this implementation, consistent with
	// the language having exactly one type.
	rt := p.ctx.NewAnonymousArgDecl(d.nameSpan)
	w.Write(rt)

	p.emitStmt(w, d.body)
	closeFD()
}

func (p *Parser) emitMetaDecl(w *layout.Writer, d *cstMetaDecl) {
	name := p.ctx.NewIdentifier(d.name, d.nameSpan)
	md := p.ctx.NewMetaDecl(name, d.span)
	w.Write(md)

	p.emitArgDeclList(w, d.args, d.span)
	p.emitMetaContributionBody(w, d.body, d.span)
}

func (p *Parser) emitGlobalConst(w *layout.Writer, d *cstGlobalConst) {
	name := p.ctx.NewIdentifier(d.name, d.nameSpan)
	gc := p.ctx.NewGlobalConstantDecl(name, d.span)
	w.Write(gc)
	p.emitExpr(w, d.expr)
}

func (p *Parser) emitArgDeclList(w *layout.Writer, args []cstArgDecl, fallback source.Span) {
	span := fallback
	if len(args) > 0 {
		span = args[0].span.Join(args[len(args)-1].span)
	}

	list := p.ctx.NewArgDeclList(span)
	closeList := w.WriteScoped(list)

	for _, a := range args {
		name := p.ctx.NewIdentifier(a.name, a.span)
		ad := p.ctx.NewArgDecl(name, a.span)
		w.Write(ad)
	}

	closeList()
}

func (p *Parser) emitMetaContributionBody(w *layout.Writer, items []cstItem, span source.Span) {
	mc := p.ctx.NewMetaContribution(span)
	closeMC := w.WriteScoped(mc)

	for _, item := range items {
		p.emitContributionItem(w, item)
	}

	closeMC()
}

func (p *Parser) emitContributionItem(w *layout.Writer, item cstItem) {
	switch t := item.(type) {
	case *cstFuncDecl:
		p.emitFuncDecl(w, t)
	case *cstMetaDecl:
		p.emitMetaDecl(w, t)
	case *cstGlobalConst:
		p.emitGlobalConst(w, t)
	case cstStmt:
		p.emitStmt(w, t)
	}
}

func (p *Parser) emitStmt(w *layout.Writer, s cstStmt) {
	switch t := s.(type) {
	case *cstCompound:
		p.emitCompound(w, t)
	case *cstReturn:
		p.emitReturn(w, t)
	case *cstIf:
		p.emitIf(w, t)
	case *cstMetaIf:
		p.emitMetaIf(w, t)
	case *cstExprStmt:
		p.emitExprStmt(w, t)
	case *cstDeclStmt:
		p.emitDeclStmt(w, t)
	case *cstMetaCalc:
		p.emitMetaCalc(w, t)
	case *cstErrorStmt:
		w.Write(p.ctx.NewErrorStmt(t.span))
	}
}

func (p *Parser) emitCompound(w *layout.Writer, t *cstCompound) {
	cs := p.ctx.NewCompoundStmt(t.span)
	closeCS := w.WriteScoped(cs)

	for _, st := range t.stmts {
		p.emitStmt(w, st)
	}

	closeCS()
}

func (p *Parser) emitReturn(w *layout.Writer, t *cstReturn) {
	rs := p.ctx.NewReturnStmt(t.span)
	closeRS := w.WriteScoped(rs)

	if t.expr != nil {
		p.emitExpr(w, t.expr)
	}

	closeRS()
}

func (p *Parser) emitIf(w *layout.Writer, t *cstIf) {
	is := p.ctx.NewIfStmt(t.span)
	closeIS := w.WriteScoped(is)

	p.emitExpr(w, t.cond)
	p.emitStmt(w, t.trueBranch)

	if t.falseBranch != nil {
		p.emitStmt(w, t.falseBranch)
	}

	closeIS()
}

func (p *Parser) emitMetaIf(w *layout.Writer, t *cstMetaIf) {
	ms := p.ctx.NewMetaIfStmt(t.span)
	closeMS := w.WriteScoped(ms)

	p.emitExpr(w, t.cond)
	p.emitMetaContributionBody(w, t.trueBranch, t.span)

	if t.falseBranch != nil {
		p.emitMetaContributionBody(w, t.falseBranch, t.span)
	}

	closeMS()
}

func (p *Parser) emitExprStmt(w *layout.Writer, t *cstExprStmt) {
	es := p.ctx.NewExprStmt(t.span)
	w.Write(es)
	p.emitExpr(w, t.expr)
}

func (p *Parser) emitDeclStmt(w *layout.Writer, t *cstDeclStmt) {
	name := p.ctx.NewIdentifier(t.name, t.nameSpan)
	ds := p.ctx.NewDeclStmt(name, t.span)
	w.Write(ds)
	p.emitExpr(w, t.expr)
}

func (p *Parser) emitMetaCalc(w *layout.Writer, t *cstMetaCalc) {
	mc := p.ctx.NewMetaCalculationStmt(t.span)
	w.Write(mc)
	p.emitStmt(w, t.stmt)
}

func (p *Parser) emitExpr(w *layout.Writer, e cstExpr) {
	switch t := e.(type) {
	case *cstDeclRef:
		name := p.ctx.NewIdentifier(t.name, t.s)
		w.Write(p.ctx.NewDeclRefExpr(name, t.s))
	case *cstIntLit:
		w.Write(p.ctx.NewIntLiteralExpr(t.value, t.s))
	case *cstBinary:
		be := p.ctx.NewBinaryExpr(t.op, t.s)
		w.Write(be)
		p.emitExpr(w, t.left)
		p.emitExpr(w, t.right)
	case *cstCall:
		ce := p.ctx.NewCallExpr(t.s)
		closeCE := w.WriteScoped(ce)
		p.emitExpr(w, t.callee)

		for _, a := range t.args {
			p.emitExpr(w, a)
		}

		closeCE()
	case *cstMetaInst:
		mi := p.ctx.NewMetaInstantiationExpr(t.s)
		closeMI := w.WriteScoped(mi)

		name := p.ctx.NewIdentifier(t.name, t.nameSpan)
		declRef := p.ctx.NewDeclRefExpr(name, t.nameSpan)
		w.Write(declRef)

		for _, a := range t.args {
			p.emitExpr(w, a)
		}

		closeMI()
	case *cstErrorExpr:
		w.Write(p.ctx.NewErrorExpr(t.s))
	}
}
