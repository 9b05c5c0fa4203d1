package parser

import (
	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/source"
)

// argFloorPrecedence is the minimum binary-operator precedence accepted
// inside a meta instantiation's `<...>` argument list: high enough to
// exclude every comparison/logical operator (precedence 10-40), so a bare
// '<' or '>' is never ambiguous between "closes the argument list" and
// "continues a comparison" once we are inside one. pkg/check still further
// restricts surface arguments to plain integer literals (spec.md §9's Open
// Question resolution); this floor just keeps the grammar itself
// unambiguous for the richer expressions pkg/executor's evalConstExpr can
// already evaluate (BinaryExpr of Add/Sub/Mul).
var argFloorPrecedence = ast.OpAdd.Precedence()

// Parser is a hand-written recursive-descent parser over a pre-lexed token
// slice, grounded in the structure (not the scanner) of
// Consensys-go-corset/pkg/corset/compiler/parser.go: a flat token slice
// walked by index, with chained expect-and-propagate error handling. It
// builds a small in-memory concrete tree (see cst.go) and emits it directly
// into a pkg/layout.Writer, the same split original_source's ANTLR-fed
// ASTParser/LocalScopeVisitor makes between "parse" and "lay out".
type Parser struct {
	ctx   *ast.Context
	diags *diag.Engine
	toks  []token
	pos   int
}

// New constructs a Parser allocating nodes in ctx and filing diagnostics on
// diags.
func New(ctx *ast.Context, diags *diag.Engine) *Parser {
	return &Parser{ctx: ctx, diags: diags}
}

// ParseCompilationUnit lexes and parses content in full, emitting the
// resulting layout stream's tokens. ok is false if a lexical or syntax error
// was encountered; diagnostics for it have already been filed on diags.
func (p *Parser) ParseCompilationUnit(content string) (tokens []layout.Token, ok bool) {
	toks, lerr := lex(content)
	if lerr != nil {
		p.diags.Report(diag.Error, lerr.span, "%s", lerr.msg).File()
		return nil, false
	}

	p.toks = toks
	p.pos = 0

	w := layout.NewWriter()

	start := source.NewSpan(0, len(content))
	cu := p.ctx.NewCompilationUnit(start)
	closeUnit := w.WriteScoped(cu)

	for !p.at(tokEOF) {
		d, recovered := p.parseTopLevelDecl()
		if recovered && d == nil {
			continue
		}

		if d == nil {
			break
		}

		p.emitTopDecl(w, d)
	}

	closeUnit()

	return w.Tokens(), !p.diags.HasErrors()
}

// -- token helpers --

func (p *Parser) peek() token { return p.toks[p.pos] }

func (p *Parser) at(k tokenKind) bool { return p.peek().kind == k }

func (p *Parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

// expect consumes the current token if it has kind k, else files a
// diagnostic and returns ok=false without consuming anything (so the caller
// can attempt resynchronisation at the same position).
func (p *Parser) expect(k tokenKind) (token, bool) {
	if p.at(k) {
		return p.advance(), true
	}

	t := p.peek()
	p.diags.Report(diag.Error, t.span, "expected %s, found %s", k, t.kind).File()

	return token{}, false
}

// synchronize skips tokens until one in stopAt (inclusive) or EOF, the
// simplest useful statement-level recovery: resync at the next statement or
// declaration boundary so one malformed construct doesn't cascade into
// spurious follow-on diagnostics.
func (p *Parser) synchronize(stopAt ...tokenKind) {
	for !p.at(tokEOF) {
		for _, k := range stopAt {
			if p.at(k) {
				return
			}
		}

		p.advance()
	}
}

// -- top-level declarations --

// parseTopLevelDecl parses one FunctionDecl, MetaDecl or GlobalConstantDecl.
// recovered is true when a malformed declaration was skipped (d is nil but
// parsing should continue); d is nil with recovered false only at EOF.
func (p *Parser) parseTopLevelDecl() (d cstTopDecl, recovered bool) {
	switch {
	case p.at(tokKwMeta):
		md, ok := p.parseMetaDecl()
		if !ok {
			p.synchronize(tokKwMeta, tokKwInt, tokEOF)
			return nil, true
		}

		return md, false
	case p.at(tokKwInt):
		save := p.pos

		p.advance() // 'int'

		nameTok, ok := p.expect(tokIdent)
		if !ok {
			p.synchronize(tokKwMeta, tokKwInt, tokEOF)
			return nil, true
		}

		if p.at(tokLParen) {
			p.pos = save
			fd, ok := p.parseFuncDecl()

			if !ok {
				p.synchronize(tokKwMeta, tokKwInt, tokEOF)
				return nil, true
			}

			return fd, false
		}

		if p.at(tokAssign) {
			p.advance()

			expr := p.parseExpr(0)

			semi, ok := p.expect(tokSemi)
			if !ok {
				p.synchronize(tokKwMeta, tokKwInt, tokEOF)
				return nil, true
			}

			return &cstGlobalConst{
				name:     nameTok.text,
				nameSpan: nameTok.span,
				span:     nameTok.span.Join(semi.span),
				expr:     expr,
			}, false
		}

		p.diags.Report(diag.Error, p.peek().span, "expected '(' or '=' after %q", nameTok.text).File()
		p.synchronize(tokKwMeta, tokKwInt, tokEOF)

		return nil, true
	default:
		t := p.peek()
		p.diags.Report(diag.Error, t.span, "expected a declaration, found %s", t.kind).File()
		p.advance()

		return nil, true
	}
}

func (p *Parser) parseFuncDecl() (*cstFuncDecl, bool) {
	start := p.peek().span

	if _, ok := p.expect(tokKwInt); !ok {
		return nil, false
	}

	nameTok, ok := p.expect(tokIdent)
	if !ok {
		return nil, false
	}

	args, ok := p.parseParenArgDeclList()
	if !ok {
		return nil, false
	}

	body, ok := p.parseCompound()
	if !ok {
		return nil, false
	}

	return &cstFuncDecl{
		name:     nameTok.text,
		nameSpan: nameTok.span,
		span:     start.Join(body.span),
		args:     args,
		body:     body,
	}, true
}

func (p *Parser) parseMetaDecl() (*cstMetaDecl, bool) {
	start := p.peek().span

	if _, ok := p.expect(tokKwMeta); !ok {
		return nil, false
	}

	nameTok, ok := p.expect(tokIdent)
	if !ok {
		return nil, false
	}

	args, ok := p.parseAngleArgDeclList()
	if !ok {
		return nil, false
	}

	if _, ok := p.expect(tokLBrace); !ok {
		return nil, false
	}

	var items []cstItem

	for !p.at(tokRBrace) && !p.at(tokEOF) {
		item, ok := p.parseContributionItem()
		if !ok {
			p.synchronize(tokRBrace, tokEOF)
			break
		}

		items = append(items, item)
	}

	end, ok := p.expect(tokRBrace)
	if !ok {
		return nil, false
	}

	return &cstMetaDecl{
		name:     nameTok.text,
		nameSpan: nameTok.span,
		span:     start.Join(end.span),
		args:     args,
		body:     items,
	}, true
}

// parseContributionItem parses one item inside a MetaDecl's or MetaIfStmt
// branch's `{ ... }` body: either a nested top-level declaration (a meta
// template contributing a FunctionDecl/MetaDecl/GlobalConstantDecl, e.g.
// spec.md §8 S2) or an ordinary statement.
func (p *Parser) parseContributionItem() (cstItem, bool) {
	switch {
	case p.at(tokKwMeta) || p.at(tokKwInt):
		save := p.pos

		if p.at(tokKwInt) {
			// Disambiguate `int` at contribution scope the same way as at
			// top level: a nested GlobalConstantDecl/DeclStmt both start
			// with `int IDENT`, but only '=' immediately follows either
			// shape — parseStmt below already understands `int IDENT = expr;`
			// as DeclStmt, so only a genuine nested top-level `int` function
			// needs special-casing here.
			p.advance()

			_, ok := p.expect(tokIdent)
			if ok && p.at(tokLParen) {
				p.pos = save

				fd, ok := p.parseFuncDecl()
				if !ok {
					return nil, false
				}

				return fd, true
			}

			p.pos = save
		} else {
			p.advance() // 'meta'

			if p.at(tokIdent) {
				p.pos = save

				md, ok := p.parseMetaDecl()
				if !ok {
					return nil, false
				}

				return md, true
			}

			p.pos = save
		}
	}

	return p.parseStmt()
}

func (p *Parser) parseParenArgDeclList() ([]cstArgDecl, bool) {
	if _, ok := p.expect(tokLParen); !ok {
		return nil, false
	}

	args, ok := p.parseArgDeclListBody(tokRParen)
	if !ok {
		return nil, false
	}

	if _, ok := p.expect(tokRParen); !ok {
		return nil, false
	}

	return args, true
}

func (p *Parser) parseAngleArgDeclList() ([]cstArgDecl, bool) {
	if _, ok := p.expect(tokLAngle); !ok {
		return nil, false
	}

	args, ok := p.parseArgDeclListBody(tokRAngle)
	if !ok {
		return nil, false
	}

	if _, ok := p.expect(tokRAngle); !ok {
		return nil, false
	}

	return args, true
}

func (p *Parser) parseArgDeclListBody(closer tokenKind) ([]cstArgDecl, bool) {
	var args []cstArgDecl

	if p.at(closer) {
		return args, true
	}

	for {
		if _, ok := p.expect(tokKwInt); !ok {
			return nil, false
		}

		nameTok, ok := p.expect(tokIdent)
		if !ok {
			return nil, false
		}

		args = append(args, cstArgDecl{name: nameTok.text, span: nameTok.span})

		if p.at(tokComma) {
			p.advance()
			continue
		}

		break
	}

	return args, true
}

// -- statements --

func (p *Parser) parseStmt() (cstStmt, bool) {
	switch {
	case p.at(tokLBrace):
		return p.parseCompound()
	case p.at(tokKwReturn):
		return p.parseReturn()
	case p.at(tokKwIf):
		return p.parseIf()
	case p.at(tokKwMeta):
		return p.parseMetaIfOrCalc()
	case p.at(tokKwInt):
		return p.parseDeclStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseCompound() (*cstCompound, bool) {
	start, ok := p.expect(tokLBrace)
	if !ok {
		return nil, false
	}

	var stmts []cstStmt

	for !p.at(tokRBrace) && !p.at(tokEOF) {
		st, ok := p.parseStmt()
		if !ok {
			p.synchronize(tokSemi, tokRBrace, tokEOF)

			if p.at(tokSemi) {
				p.advance()
			}

			continue
		}

		stmts = append(stmts, st)
	}

	end, ok := p.expect(tokRBrace)
	if !ok {
		return nil, false
	}

	return &cstCompound{span: start.span.Join(end.span), stmts: stmts}, true
}

func (p *Parser) parseReturn() (*cstReturn, bool) {
	start, ok := p.expect(tokKwReturn)
	if !ok {
		return nil, false
	}

	if p.at(tokSemi) {
		end := p.advance()
		return &cstReturn{span: start.span.Join(end.span)}, true
	}

	expr := p.parseExpr(0)

	end, ok := p.expect(tokSemi)
	if !ok {
		return nil, false
	}

	return &cstReturn{span: start.span.Join(end.span), expr: expr}, true
}

func (p *Parser) parseIf() (*cstIf, bool) {
	start, ok := p.expect(tokKwIf)
	if !ok {
		return nil, false
	}

	if _, ok := p.expect(tokLParen); !ok {
		return nil, false
	}

	cond := p.parseExpr(0)

	if _, ok := p.expect(tokRParen); !ok {
		return nil, false
	}

	trueBranch, ok := p.parseStmt()
	if !ok {
		return nil, false
	}

	node := &cstIf{span: start.span, cond: cond, trueBranch: trueBranch}

	if p.at(tokKwElse) {
		p.advance()

		falseBranch, ok := p.parseStmt()
		if !ok {
			return nil, false
		}

		node.falseBranch = falseBranch
	}

	return node, true
}

// parseMetaIfOrCalc disambiguates the two constructs that begin with
// 'meta' in statement position: `meta if (...) {...}` versus `meta {...}`.
func (p *Parser) parseMetaIfOrCalc() (cstStmt, bool) {
	start, ok := p.expect(tokKwMeta)
	if !ok {
		return nil, false
	}

	if p.at(tokKwIf) {
		p.advance()

		if _, ok := p.expect(tokLParen); !ok {
			return nil, false
		}

		cond := p.parseExpr(0)

		if _, ok := p.expect(tokRParen); !ok {
			return nil, false
		}

		trueItems, ok := p.parseMetaContributionBody()
		if !ok {
			return nil, false
		}

		node := &cstMetaIf{span: start.span, cond: cond, trueBranch: trueItems}

		if p.at(tokKwElse) {
			p.advance()

			falseItems, ok := p.parseMetaContributionBody()
			if !ok {
				return nil, false
			}

			node.falseBranch = falseItems
		}

		return node, true
	}

	if _, ok := p.expect(tokLBrace); !ok {
		return nil, false
	}

	stmt, ok := p.parseStmt()
	if !ok {
		return nil, false
	}

	end, ok := p.expect(tokRBrace)
	if !ok {
		return nil, false
	}

	return &cstMetaCalc{span: start.span.Join(end.span), stmt: stmt}, true
}

func (p *Parser) parseMetaContributionBody() ([]cstItem, bool) {
	if _, ok := p.expect(tokLBrace); !ok {
		return nil, false
	}

	var items []cstItem

	for !p.at(tokRBrace) && !p.at(tokEOF) {
		item, ok := p.parseContributionItem()
		if !ok {
			p.synchronize(tokRBrace, tokEOF)
			break
		}

		items = append(items, item)
	}

	if _, ok := p.expect(tokRBrace); !ok {
		return nil, false
	}

	return items, true
}

func (p *Parser) parseDeclStmt() (*cstDeclStmt, bool) {
	start, ok := p.expect(tokKwInt)
	if !ok {
		return nil, false
	}

	nameTok, ok := p.expect(tokIdent)
	if !ok {
		return nil, false
	}

	if _, ok := p.expect(tokAssign); !ok {
		return nil, false
	}

	expr := p.parseExpr(0)

	end, ok := p.expect(tokSemi)
	if !ok {
		return nil, false
	}

	return &cstDeclStmt{
		name:     nameTok.text,
		nameSpan: nameTok.span,
		span:     start.span.Join(end.span),
		expr:     expr,
	}, true
}

func (p *Parser) parseExprStmt() (*cstExprStmt, bool) {
	startSpan := p.peek().span
	expr := p.parseExpr(0)

	end, ok := p.expect(tokSemi)
	if !ok {
		return nil, false
	}

	return &cstExprStmt{span: startSpan.Join(end.span), expr: expr}, true
}

// -- expressions --

// binOpAt reports the BinaryOperator and precedence a token kind spells, if
// any.
func binOpAt(k tokenKind) (ast.BinaryOperator, bool) {
	switch k {
	case tokOr:
		return ast.OpOr, true
	case tokAnd:
		return ast.OpAnd, true
	case tokEqEq:
		return ast.OpEq, true
	case tokNotEq:
		return ast.OpNe, true
	case tokLAngle:
		return ast.OpLt, true
	case tokLe:
		return ast.OpLe, true
	case tokRAngle:
		return ast.OpGt, true
	case tokGe:
		return ast.OpGe, true
	case tokPlus:
		return ast.OpAdd, true
	case tokMinus:
		return ast.OpSub, true
	case tokStar:
		return ast.OpMul, true
	default:
		return 0, false
	}
}

// parseExpr implements precedence climbing: minPrec is the lowest-binding
// operator this call is willing to consume, so a recursive call parsing a
// right operand passes op.Precedence()+1 to enforce left-associativity.
func (p *Parser) parseExpr(minPrec int) cstExpr {
	left := p.parsePrimary()

	for {
		op, ok := binOpAt(p.peek().kind)
		if !ok || op.Precedence() < minPrec {
			return left
		}

		p.advance()
		right := p.parseExpr(op.Precedence() + 1)
		left = &cstBinary{op: op, left: left, right: right, s: left.span().Join(right.span())}
	}
}

func (p *Parser) parsePrimary() cstExpr {
	switch {
	case p.at(tokInt):
		t := p.advance()
		return &cstIntLit{value: t.ival, s: t.span}
	case p.at(tokLParen):
		p.advance()

		e := p.parseExpr(0)

		if _, ok := p.expect(tokRParen); !ok {
			return &cstErrorExpr{s: e.span()}
		}

		return e
	case p.at(tokIdent):
		nameTok := p.advance()
		return p.parsePostIdent(nameTok)
	default:
		t := p.peek()
		p.diags.Report(diag.Error, t.span, "expected an expression, found %s", t.kind).File()

		if !p.at(tokEOF) {
			p.advance()
		}

		return &cstErrorExpr{s: t.span}
	}
}

// parsePostIdent continues parsing after a bare identifier: a DeclRefExpr,
// optionally followed by `<args>` (a meta instantiation) and/or `(args)` (a
// call, whose callee is either the plain name or the instantiation just
// parsed) — spec.md §8 S1's bare `k<7>` and S2's `add<3>(4)` are exactly
// these two suffixes, composed.
func (p *Parser) parsePostIdent(nameTok token) cstExpr {
	var result cstExpr = &cstDeclRef{name: nameTok.text, s: nameTok.span}

	if p.at(tokLAngle) {
		if args, end, ok := p.tryParseAngleArgs(); ok {
			result = &cstMetaInst{name: nameTok.text, nameSpan: nameTok.span, args: args, s: nameTok.span.Join(end)}
		}
	}

	if p.at(tokLParen) {
		args, end := p.parseCallArgs()
		result = &cstCall{callee: result, args: args, s: result.span().Join(end)}
	}

	return result
}

// tryParseAngleArgs speculatively parses a `<args>` suffix, restoring the
// cursor and returning ok=false if what follows '<' does not have the shape
// of an instantiation argument list (so the caller falls back to treating
// '<' as an ordinary less-than operator via parseExpr's precedence climb).
// Each argument is parsed at argFloorPrecedence, which structurally keeps a
// bare '<'/'>' from ever appearing inside an argument, so the only way this
// can fail is a missing comma/'>' — i.e. genuinely not an instantiation.
func (p *Parser) tryParseAngleArgs() (args []cstExpr, end source.Span, ok bool) {
	save := p.pos
	savedErrs := p.diags.Count(diag.Error)

	p.advance() // '<'

	if p.at(tokRAngle) {
		t := p.advance()
		return nil, t.span, true
	}

	for {
		if !p.canStartExpr() {
			p.pos = save
			return nil, source.Span{}, false
		}

		args = append(args, p.parseExpr(argFloorPrecedence))

		if p.at(tokComma) {
			p.advance()
			continue
		}

		break
	}

	if !p.at(tokRAngle) || p.diags.Count(diag.Error) != savedErrs {
		p.pos = save
		return nil, source.Span{}, false
	}

	t := p.advance()

	return args, t.span, true
}

// canStartExpr reports whether the current token can begin an expression,
// used by tryParseAngleArgs to decide whether to commit to the attempt at
// all before risking a diagnostic from a failed parse.
func (p *Parser) canStartExpr() bool {
	switch p.peek().kind {
	case tokInt, tokLParen, tokIdent:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCallArgs() ([]cstExpr, source.Span) {
	start, ok := p.expect(tokLParen)
	if !ok {
		return nil, p.peek().span
	}

	var args []cstExpr

	if !p.at(tokRParen) {
		for {
			args = append(args, p.parseExpr(0))

			if p.at(tokComma) {
				p.advance()
				continue
			}

			break
		}
	}

	end, ok := p.expect(tokRParen)
	if !ok {
		return args, start.span
	}

	return args, end.span
}
