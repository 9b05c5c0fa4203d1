// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/source"
)

func tokenKinds(t *testing.T, toks []token) []tokenKind {
	t.Helper()

	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.kind
	}

	return kinds
}

func TestLexSkipsWhitespaceAndLineComments(t *testing.T) {
	toks, err := lex("int x = 1; // trailing comment\n")
	require.Nil(t, err)

	assert.Equal(t, []tokenKind{
		tokKwInt, tokIdent, tokAssign, tokInt, tokSemi, tokEOF,
	}, tokenKinds(t, toks))
}

func TestLexLongestMatchPunctuation(t *testing.T) {
	toks, err := lex("<= >= == != && ||")
	require.Nil(t, err)

	assert.Equal(t, []tokenKind{
		tokLe, tokGe, tokEqEq, tokNotEq, tokAnd, tokOr, tokEOF,
	}, tokenKinds(t, toks))
}

func TestLexDistinguishesKeywordsFromIdentifiers(t *testing.T) {
	toks, err := lex("int meta if else return notakeyword")
	require.Nil(t, err)

	assert.Equal(t, []tokenKind{
		tokKwInt, tokKwMeta, tokKwIf, tokKwElse, tokKwReturn, tokIdent, tokEOF,
	}, tokenKinds(t, toks))
}

func TestLexIntLiteralRecordsValue(t *testing.T) {
	toks, err := lex("42")
	require.Nil(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, int32(42), toks[0].ival)
}

func TestLexRejectsUnexpectedCharacter(t *testing.T) {
	_, err := lex("int x = 1 $ 2;")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unexpected character")
}

// parseAndRead is the harness shared by the precedence/disambiguation tests
// below: it runs a full Parser -> layout -> reader round trip, mirroring how
// pkg/reader's own tests exercise this package from outside.
func parseAndRead(t *testing.T, src string) ast.Unit {
	t.Helper()

	file := source.NewFile("test.mc", src)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := New(ctx, diags)
	tokens, ok := p.ParseCompilationUnit(src)
	require.True(t, ok, "parse failed: %v", diags.Diagnostics())

	rd := reader.New(ctx, diags)
	cur := layout.NewCursor(tokens)
	unit := rd.ReadUnit(cur, ast.KindCompilationUnit, nil)
	require.False(t, diags.HasErrors())

	return unit
}

func funcDecl(t *testing.T, u ast.Unit, name string) *ast.FunctionDecl {
	t.Helper()

	for _, d := range u.Decls() {
		if fd, ok := d.(*ast.FunctionDecl); ok && fd.Name().Name() == name {
			return fd
		}
	}

	t.Fatalf("no function %q found", name)

	return nil
}

func returnExpr(t *testing.T, fd *ast.FunctionDecl) ast.Node {
	t.Helper()

	body := fd.Body().(*ast.CompoundStmt)
	require.NotEmpty(t, body.Stmts())

	ret, ok := body.Stmts()[len(body.Stmts())-1].(*ast.ReturnStmt)
	require.True(t, ok, "last statement is not a return")

	return ret.Expr()
}

func TestParseExprPrecedenceBindsMultiplicationTighterThanAddition(t *testing.T) {
	u := parseAndRead(t, `
int f() {
	return 1 + 2 * 3;
}
`)

	top := returnExpr(t, funcDecl(t, u, "f")).(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, top.Operator())

	right := top.Right().(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, right.Operator())

	left := top.Left().(*ast.IntLiteralExpr)
	assert.Equal(t, int32(1), left.Value())
}

func TestParseExprAdditionIsLeftAssociative(t *testing.T) {
	u := parseAndRead(t, `
int f() {
	return 1 - 2 - 3;
}
`)

	// (1 - 2) - 3, not 1 - (2 - 3): the right operand of the outer subtract
	// is the literal 3, not another BinaryExpr.
	top := returnExpr(t, funcDecl(t, u, "f")).(*ast.BinaryExpr)
	assert.Equal(t, ast.OpSub, top.Operator())
	assert.IsType(t, &ast.IntLiteralExpr{}, top.Right())
	assert.IsType(t, &ast.BinaryExpr{}, top.Left())
}

func TestParseBareLessThanIsComparisonNotInstantiation(t *testing.T) {
	u := parseAndRead(t, `
int f(int a, int b) {
	return a < b;
}
`)

	top := returnExpr(t, funcDecl(t, u, "f")).(*ast.BinaryExpr)
	assert.Equal(t, ast.OpLt, top.Operator())
}

func TestParseAngleArgsIsMetaInstantiationWhenShapeMatches(t *testing.T) {
	u := parseAndRead(t, `
meta k<int n> {
	int k = n;
}
int f() {
	return k<7>;
}
`)

	expr := returnExpr(t, funcDecl(t, u, "f"))
	mi, ok := expr.(*ast.MetaInstantiationExpr)
	require.True(t, ok, "expected a meta instantiation, got %T", expr)
	assert.Equal(t, "k", mi.Decl().Name().Name())
	require.Len(t, mi.Args(), 1)
}

func TestParseIfWithoutElseLeavesFalseBranchNil(t *testing.T) {
	u := parseAndRead(t, `
int f(int c) {
	if (c) {
		return 1;
	}
	return 0;
}
`)

	fd := funcDecl(t, u, "f")
	body := fd.Body().(*ast.CompoundStmt)
	ifStmt := body.Stmts()[0].(*ast.IfStmt)

	assert.NotNil(t, ifStmt.TrueBranch())
	assert.Nil(t, ifStmt.FalseBranch())
}

func TestParseIfWithElse(t *testing.T) {
	u := parseAndRead(t, `
int f(int c) {
	if (c) {
		return 1;
	} else {
		return 2;
	}
}
`)

	fd := funcDecl(t, u, "f")
	body := fd.Body().(*ast.CompoundStmt)
	ifStmt := body.Stmts()[0].(*ast.IfStmt)

	assert.NotNil(t, ifStmt.TrueBranch())
	assert.NotNil(t, ifStmt.FalseBranch())
}

func TestParseCompilationUnitReportsErrorAndRecoversAtNextDecl(t *testing.T) {
	file := source.NewFile("test.mc", "")
	src := `
int bad +++ ;
int ok() {
	return 1;
}
`
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := New(ctx, diags)
	_, ok := p.ParseCompilationUnit(src)

	assert.False(t, ok)
	assert.True(t, diags.HasErrors())

	// Recovery resynchronised at the next 'int' rather than cascading
	// further errors for the remainder of the malformed declaration.
	assert.Equal(t, 1, diags.Count(diag.Error))
}
