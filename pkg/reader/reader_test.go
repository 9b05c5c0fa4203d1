// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/parser"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/scope"
	"github.com/metac-lang/metac/pkg/source"
)

// readSource parses and reads src with no InstantiationHook installed,
// returning the structured unit and the diagnostics filed against it. A
// MetaInstantiationExpr's callee still resolves (resolveExpr always
// resolves it regardless of mode), but instantiation itself never fires,
// which suits every test below: none needs an instantiated MetaUnit, only
// the structuring and resolution pkg/reader itself is responsible for.
func readSource(t *testing.T, src string) (ast.Unit, *diag.Engine) {
	t.Helper()

	file := source.NewFile("test.mc", src)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := parser.New(ctx, diags)

	tokens, ok := p.ParseCompilationUnit(src)
	require.True(t, ok, "parse failed: %v", diags.Diagnostics())
	require.False(t, diags.HasErrors())

	rd := reader.New(ctx, diags)
	cur := layout.NewCursor(tokens)

	return rd.ReadUnit(cur, ast.KindCompilationUnit, nil), diags
}

func TestReadUnitResolvesForwardReference(t *testing.T) {
	// main calls helper though helper is declared afterwards: phase 1
	// introduces both names before phase 2 descends into either body.
	src := `
int main() {
	return helper();
}
int helper() {
	return 1;
}
`
	unit, diags := readSource(t, src)
	assert.False(t, diags.HasErrors())

	main := unit.Decls()[0].(*ast.FunctionDecl)
	call := main.Body().(*ast.CompoundStmt).Stmts()[0].(*ast.ReturnStmt).Expr().(*ast.CallExpr)
	callee := call.Callee().(*ast.DeclRefExpr)

	require.NotNil(t, callee.Decl())
	helper := unit.Decls()[1].(*ast.FunctionDecl)
	assert.Same(t, ast.Node(helper), callee.Decl())
}

func TestReadUnitReportsRedeclaration(t *testing.T) {
	src := `
int x() {
	return 0;
}
int x() {
	return 1;
}
`
	_, diags := readSource(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `redeclaration of "x"`)
}

func TestReadUnitReportsUnknownName(t *testing.T) {
	src := `
int main() {
	return doesNotExist;
}
`
	_, diags := readSource(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `unknown name "doesNotExist"`)
}

func TestReadUnitSuggestsSimilarName(t *testing.T) {
	src := `
int count() {
	return 0;
}
int main() {
	return coutn();
}
`
	_, diags := readSource(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `did you mean "count"?`)
}

func TestReadUnitResolvesFunctionParam(t *testing.T) {
	src := `
int identity(int x) {
	return x;
}
`
	unit, diags := readSource(t, src)
	require.False(t, diags.HasErrors())

	fn := unit.Decls()[0].(*ast.FunctionDecl)
	ret := fn.Body().(*ast.CompoundStmt).Stmts()[0].(*ast.ReturnStmt)
	ref := ret.Expr().(*ast.DeclRefExpr)

	require.NotNil(t, ref.Decl())
	arg, ok := ref.Decl().(*ast.ArgDecl)
	require.True(t, ok)
	assert.Equal(t, "x", arg.Name().Name())
}

// A MetaDecl contributing a bare FunctionDecl (spec.md §8 S2's shape) must
// structure and resolve without panicking: resolveMetaContribution's
// IsTopLevel() dispatch arm (see DESIGN.md's pkg/reader entry) exists
// specifically to make this case work.
func TestReadUnitMetaDeclContributingFunctionDecl(t *testing.T) {
	src := `
meta add<int a> {
	int add(int x) {
		return x + a;
	}
}
`
	unit, diags := readSource(t, src)
	assert.False(t, diags.HasErrors())

	md := unit.Decls()[0].(*ast.MetaDecl)
	fn := md.Contribution().Children()[0].(*ast.FunctionDecl)
	assert.Equal(t, "add", fn.Name().Name())

	ret := fn.Body().(*ast.CompoundStmt).Stmts()[0].(*ast.ReturnStmt)
	sum := ret.Expr().(*ast.BinaryExpr)

	// x, the contributed function's own parameter, resolves normally...
	x := sum.Left().(*ast.DeclRefExpr)
	require.NotNil(t, x.Decl())
	arg, ok := x.Decl().(*ast.ArgDecl)
	require.True(t, ok)
	assert.Equal(t, "x", arg.Name().Name())

	// ...while a, the enclosing MetaDecl's own template parameter, is left
	// unresolved: it is re-interpreted fresh at every instantiation rather
	// than bound once at declaration site (InsideMetaDecl, see resolveExpr).
	a := sum.Right().(*ast.DeclRefExpr)
	assert.Nil(t, a.Decl())
}

func TestReadUnitMetaIfBranchesResolveFree(t *testing.T) {
	src := `
meta pick<int flag> {
	meta if (flag > 0) {
		int k = 1;
	} else {
		int k = 2;
	}
}
`
	unit, diags := readSource(t, src)
	assert.False(t, diags.HasErrors())

	md := unit.Decls()[0].(*ast.MetaDecl)
	ifStmt := md.Contribution().Children()[0].(*ast.MetaIfStmt)
	assert.NotNil(t, ifStmt.TrueBranch())
	assert.NotNil(t, ifStmt.FalseBranch())
}

func TestReadUnitNestedCompoundScoping(t *testing.T) {
	// An inner block's x shadows the outer one; each DeclRefExpr must bind
	// to the declaration actually in scope at its own position.
	src := `
int main() {
	int x = 1;
	{
		int x = 2;
		return x;
	}
}
`
	unit, diags := readSource(t, src)
	require.False(t, diags.HasErrors())

	fn := unit.Decls()[0].(*ast.FunctionDecl)
	body := fn.Body().(*ast.CompoundStmt)
	outerDecl := body.Stmts()[0].(*ast.DeclStmt)
	inner := body.Stmts()[1].(*ast.CompoundStmt)
	innerDecl := inner.Stmts()[0].(*ast.DeclStmt)
	ret := inner.Stmts()[1].(*ast.ReturnStmt)
	ref := ret.Expr().(*ast.DeclRefExpr)

	require.NotNil(t, ref.Decl())
	assert.Same(t, ast.Node(innerDecl), ref.Decl())
	assert.NotSame(t, ast.Node(outerDecl), ref.Decl())
}

func TestReshadowBypassesRedeclarationCheck(t *testing.T) {
	s := scope.NewPersistent(nil)
	file := source.NewFile("test.mc", "")
	ctx := ast.NewContext(file)
	diags := diag.NewEngine()
	rd := reader.New(ctx, diags)

	span := source.NewSpan(0, 0)
	first := ctx.NewGlobalConstantDecl(ctx.NewIdentifier("f", span), span)
	second := ctx.NewGlobalConstantDecl(ctx.NewIdentifier("f", span), span)

	require.True(t, s.Declare("f", first))
	assert.False(t, s.Declare("f", second))

	rd.Reshadow(s, "f", second)

	got, ok := s.Lookup("f")
	require.True(t, ok)
	assert.Same(t, ast.Node(second), got)
}
