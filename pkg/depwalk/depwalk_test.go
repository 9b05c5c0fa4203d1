// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package depwalk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/depwalk"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/parser"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/source"
)

// readUnit parses and structures/resolves src with no instantiation hook —
// depwalk only cares about the shape of the AST, not whether any
// MetaInstantiationExpr it finds ever actually gets instantiated.
func readUnit(t *testing.T, src string) ast.Unit {
	t.Helper()

	file := source.NewFile("test.mc", src)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := parser.New(ctx, diags)
	tokens, ok := p.ParseCompilationUnit(src)
	require.True(t, ok, "parse failed: %v", diags.Diagnostics())

	rd := reader.New(ctx, diags)
	cur := layout.NewCursor(tokens)
	unit := rd.ReadUnit(cur, ast.KindCompilationUnit, nil)
	require.False(t, diags.HasErrors())

	return unit
}

func funcByName(t *testing.T, u ast.Unit, name string) *ast.FunctionDecl {
	t.Helper()

	for _, d := range u.Decls() {
		if fd, ok := d.(*ast.FunctionDecl); ok && fd.Name().Name() == name {
			return fd
		}
	}

	t.Fatalf("no function %q found", name)

	return nil
}

func metaDeclByName(t *testing.T, u ast.Unit, name string) *ast.MetaDecl {
	t.Helper()

	for _, d := range u.Decls() {
		if md, ok := d.(*ast.MetaDecl); ok && md.Name().Name() == name {
			return md
		}
	}

	t.Fatalf("no meta declaration %q found", name)

	return nil
}

func calleeNames(mis []*ast.MetaInstantiationExpr) []string {
	names := make([]string, len(mis))
	for i, mi := range mis {
		names[i] = mi.Decl().Name().Name()
	}

	return names
}

func TestWalkFunctionFindsInstantiationsAcrossControlFlow(t *testing.T) {
	u := readUnit(t, `
meta a<int n> {
	int a = n;
}
meta b<int n> {
	int b = n;
}
int main(int c) {
	int x = a<1>;
	if (c) {
		return b<2>;
	} else {
		return a<3>;
	}
}
`)

	fd := funcByName(t, u, "main")
	got := calleeNames(depwalk.Collect(fd))
	assert.Equal(t, []string{"a", "b", "a"}, got)
}

func TestWalkFunctionStopsEarlyWhenVisitReturnsFalse(t *testing.T) {
	u := readUnit(t, `
meta a<int n> {
	int a = n;
}
int main() {
	int x = a<1>;
	int y = a<2>;
	return x + y;
}
`)

	fd := funcByName(t, u, "main")

	var seen []*ast.MetaInstantiationExpr
	depwalk.WalkFunction(fd, func(mi *ast.MetaInstantiationExpr) bool {
		seen = append(seen, mi)
		return false
	})

	require.Len(t, seen, 1)
}

func TestWalkMetaDeclFindsInstantiationsInMetaIfAndMetaCalculation(t *testing.T) {
	u := readUnit(t, `
meta helper<int n> {
	int helper = n;
}
meta pick<int flag> {
	meta if (flag > 0) {
		int x = helper<1>;
	} else {
		int x = helper<2>;
	}
	meta {
		int y = helper<3>;
	}
}
`)

	md := metaDeclByName(t, u, "pick")
	got := calleeNames(depwalk.Collect(md))
	assert.ElementsMatch(t, []string{"helper", "helper", "helper"}, got)
}

func TestWalkMetaDeclFindsInstantiationContributedAsNestedFunctionDecl(t *testing.T) {
	u := readUnit(t, `
meta helper<int n> {
	int helper = n;
}
meta add<int a> {
	int add(int x) {
		return x + helper<1>;
	}
}
`)

	md := metaDeclByName(t, u, "add")
	got := calleeNames(depwalk.Collect(md))
	assert.Equal(t, []string{"helper"}, got)
}

func TestWalkUnitFindsInstantiationInGlobalConstantExpr(t *testing.T) {
	u := readUnit(t, `
meta helper<int n> {
	int helper = n;
}
int g = helper<5>;
`)

	got := calleeNames(depwalk.Collect(u))
	assert.Equal(t, []string{"helper"}, got)
}

func TestWalkExprFindsNestedInstantiationInCallArgs(t *testing.T) {
	u := readUnit(t, `
meta helper<int n> {
	int helper = n;
}
int add(int x, int y) {
	return x + y;
}
int main() {
	return add(helper<1>, helper<2>);
}
`)

	fd := funcByName(t, u, "main")
	got := calleeNames(depwalk.Collect(fd))
	assert.Equal(t, []string{"helper", "helper"}, got)
}
