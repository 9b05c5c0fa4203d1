// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package check_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/check"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/parser"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/source"
)

// checkSource parses, structures/resolves (no instantiation hook: these
// tests exercise checks that run regardless of whether any instantiation
// ever fires) and runs pkg/check over src, returning its diagnostics.
func checkSource(t *testing.T, src string) *diag.Engine {
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
	unit := rd.ReadUnit(cur, ast.KindCompilationUnit, nil)
	require.False(t, diags.HasErrors())

	check.New(ctx, diags).CheckUnit(unit)

	return diags
}

func TestCheckAcceptsCleanUnit(t *testing.T) {
	src := `
int add(int x, int y) {
	return x + y;
}
int main() {
	return add(1, 2);
}
`
	diags := checkSource(t, src)
	assert.False(t, diags.HasErrors())
}

func TestCheckReservedNameOnFunction(t *testing.T) {
	diags := checkSource(t, `
int int() {
	return 0;
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `"int" is a reserved name`)
}

func TestCheckReservedNameOnMetaDecl(t *testing.T) {
	diags := checkSource(t, `
meta int<int n> {
	int k = n;
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `"int" is a reserved name`)
}

func TestCheckFunctionCallArgCountMismatch(t *testing.T) {
	diags := checkSource(t, `
int add(int x, int y) {
	return x + y;
}
int main() {
	return add(1);
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `expects 2 argument(s), got 1`)
}

func TestCheckNonFunctionCalled(t *testing.T) {
	diags := checkSource(t, `
int notAFunction = 1;
int main() {
	return notAFunction(1);
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `is not a function and cannot be called`)
}

func TestCheckMetaInstantiationArityMismatch(t *testing.T) {
	diags := checkSource(t, `
meta k<int a, int b> {
	int k = a + b;
}
int main() {
	return k<1>;
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `expects 2 argument(s), got 1`)
}

func TestCheckNonMetaInstantiated(t *testing.T) {
	diags := checkSource(t, `
int notMeta() {
	return 0;
}
int main() {
	return notMeta<1>;
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, `is not a meta declaration and cannot be instantiated`)
}

func TestCheckMetaArgMustBeIntLiteral(t *testing.T) {
	diags := checkSource(t, `
meta k<int n> {
	int k = n;
}
int x = 3;
int main() {
	return k<x>;
}
`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Diagnostics()[0].Message, "meta instantiation argument must be an integer literal")
}
