// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/source"
)

// The concrete syntax tree types below are the parser's private in-memory
// shape: plain Go structs, never pkg/ast nodes. Recursive descent builds
// these directly (their own structure is prefix-recognisable, so a
// statement or declaration can equally well be turned straight into layout
// tokens as it is recognised); expressions are the one shape that cannot,
// since the operator that decides whether a BinaryExpr wraps a primary is
// only seen *after* the primary has been parsed. Buffering every expression
// into a cstExpr and emitting it in one pass once fully parsed sidesteps
// that ordering problem uniformly, mirroring how original_source parses a
// full ANTLR concrete tree before ASTParser/LocalScopeVisitor ever touches
// the layout writer.

type cstArgDecl struct {
	name string
	span source.Span
	anon bool
}

type cstItem interface{ itemTag() }

type cstStmt interface {
	cstItem
	stmtTag()
}

type cstTopDecl interface {
	cstItem
	topDeclTag()
}

type cstExpr interface {
	exprTag()
	span() source.Span
}

// -- top-level declarations --

type cstFuncDecl struct {
	name     string
	nameSpan source.Span
	span     source.Span
	args     []cstArgDecl
	body     *cstCompound
}

type cstMetaDecl struct {
	name     string
	nameSpan source.Span
	span     source.Span
	args     []cstArgDecl
	body     []cstItem
}

type cstGlobalConst struct {
	name     string
	nameSpan source.Span
	span     source.Span
	expr     cstExpr
}

func (*cstFuncDecl) itemTag()     {}
func (*cstFuncDecl) topDeclTag()  {}
func (*cstMetaDecl) itemTag()     {}
func (*cstMetaDecl) topDeclTag()  {}
func (*cstGlobalConst) itemTag()  {}
func (*cstGlobalConst) topDeclTag() {}

// -- statements --

type cstCompound struct {
	span  source.Span
	stmts []cstStmt
}

type cstReturn struct {
	span source.Span
	expr cstExpr // nil for a bare `return;`
}

type cstIf struct {
	span        source.Span
	cond        cstExpr
	trueBranch  cstStmt
	falseBranch cstStmt // nil if no else
}

type cstMetaIf struct {
	span        source.Span
	cond        cstExpr
	trueBranch  []cstItem
	falseBranch []cstItem // nil if no else
}

type cstExprStmt struct {
	span source.Span
	expr cstExpr
}

type cstDeclStmt struct {
	name     string
	nameSpan source.Span
	span     source.Span
	expr     cstExpr
}

type cstMetaCalc struct {
	span source.Span
	stmt cstStmt
}

type cstErrorStmt struct {
	span source.Span
}

func (*cstCompound) itemTag()  {}
func (*cstCompound) stmtTag()  {}
func (*cstReturn) itemTag()    {}
func (*cstReturn) stmtTag()    {}
func (*cstIf) itemTag()        {}
func (*cstIf) stmtTag()        {}
func (*cstMetaIf) itemTag()    {}
func (*cstMetaIf) stmtTag()    {}
func (*cstExprStmt) itemTag()  {}
func (*cstExprStmt) stmtTag()  {}
func (*cstDeclStmt) itemTag()  {}
func (*cstDeclStmt) stmtTag()  {}
func (*cstMetaCalc) itemTag()  {}
func (*cstMetaCalc) stmtTag()  {}
func (*cstErrorStmt) itemTag() {}
func (*cstErrorStmt) stmtTag() {}

// -- expressions --

type cstDeclRef struct {
	name string
	s    source.Span
}

type cstIntLit struct {
	value int32
	s     source.Span
}

type cstBinary struct {
	op          ast.BinaryOperator
	left, right cstExpr
	s           source.Span
}

type cstCall struct {
	callee cstExpr
	args   []cstExpr
	s      source.Span
}

type cstMetaInst struct {
	name     string
	nameSpan source.Span
	args     []cstExpr
	s        source.Span
}

type cstErrorExpr struct {
	s source.Span
}

func (e *cstDeclRef) exprTag()    {}
func (e *cstDeclRef) span() source.Span { return e.s }

func (e *cstIntLit) exprTag()    {}
func (e *cstIntLit) span() source.Span { return e.s }

func (e *cstBinary) exprTag()    {}
func (e *cstBinary) span() source.Span { return e.s }

func (e *cstCall) exprTag()    {}
func (e *cstCall) span() source.Span { return e.s }

func (e *cstMetaInst) exprTag()    {}
func (e *cstMetaInst) span() source.Span { return e.s }

func (e *cstErrorExpr) exprTag()    {}
func (e *cstErrorExpr) span() source.Span { return e.s }
