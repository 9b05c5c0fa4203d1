// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package driver_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/driver"
)

func run(t *testing.T, cfg driver.Config, source string) (string, error) {
	t.Helper()

	var out strings.Builder
	err := driver.Run(cfg, "test.mc", source, &out)

	return out.String(), err
}

// S1 constant export: a meta instantiation used as a bare value (not called)
// whose template exports a GlobalConstantDecl.
func TestS1ConstantExport(t *testing.T) {
	src := `
meta k<int n> {
	int k = n;
}
int main() {
	return k<7>;
}
`
	out, err := run(t, driver.Config{}, src)
	require.NoError(t, err)
	assert.Contains(t, out, "define main(")

	astOut, err := run(t, driver.Config{Dump: driver.DumpAST}, src)
	require.NoError(t, err)
	assert.Contains(t, astOut, "kind: GlobalConstantDecl")
	assert.Contains(t, astOut, "represents: k")
}

// S2 function template: add<3>(4) should compile main and ship exactly one
// instantiated function for add<3>.
func TestS2FunctionTemplate(t *testing.T) {
	src := `
meta add<int a> {
	int add(int x) {
		return x + a;
	}
}
int main() {
	return add<3>(4);
}
`
	out, err := run(t, driver.Config{}, src)
	require.NoError(t, err)
	assert.Contains(t, out, "define main(")
	assert.Contains(t, out, "define add$0(")
	// only one instantiation of add<3> should ever be shipped
	assert.Equal(t, 1, strings.Count(out, "define add$"))
}

// S3 meta-if: only the taken branch's contribution is structured into the
// produced MetaUnit.
func TestS3MetaIf(t *testing.T) {
	src := `
meta pick<int n> {
	meta if (n > 0) {
		int pick = 1;
	} else {
		int pick = 2;
	}
}
int main() {
	return pick<1>;
}
`
	astOut, err := run(t, driver.Config{Dump: driver.DumpAST}, src)
	require.NoError(t, err)
	assert.Contains(t, astOut, "represents: 1")
	assert.NotContains(t, astOut, "represents: 2")
}

// S4 exported binding: a meta-calculation statement's local declaration is
// synthesised in place and visible to the statement that follows it.
func TestS4ExportedBinding(t *testing.T) {
	src := `
meta sq<int n> {
	int sq(int y) {
		meta {
			int x = n * n;
		}
		return x + y;
	}
}
int main() {
	return sq<3>(1);
}
`
	out, err := run(t, driver.Config{}, src)
	require.NoError(t, err)
	assert.Contains(t, out, "define sq$0(")
}

// S5 arity error: calling an instantiated function with the wrong argument
// count is a checked error, not a codegen panic.
func TestS5ArityError(t *testing.T) {
	src := `
meta add<int a> {
	int add(int x) {
		return x + a;
	}
}
int main() {
	return add<3>(4, 5);
}
`
	out, err := run(t, driver.Config{}, src)
	assert.Error(t, err)
	assert.Contains(t, out, "expects 1 argument(s), got 2")
}

// S6 unknown name: an undeclared identifier close to a declared one gets a
// "did you mean" suggestion.
func TestS6UnknownName(t *testing.T) {
	src := `
int food() {
	return 1;
}
int main() {
	return foo();
}
`
	out, err := run(t, driver.Config{}, src)
	assert.Error(t, err)
	assert.Contains(t, out, `unknown name "foo"; did you mean "food"?`)
}

func TestDumpTokensPhase(t *testing.T) {
	out, err := run(t, driver.Config{Dump: driver.DumpTokens}, "int main() { return 1; }")
	require.NoError(t, err)
	assert.Contains(t, out, "kind:")
}

func TestDumpFlatLayoutPhase(t *testing.T) {
	out, err := run(t, driver.Config{Dump: driver.DumpFlatLayout}, "int main() { return 1; }")
	require.NoError(t, err)
	assert.Contains(t, out, "CompilationUnit")
	assert.Contains(t, out, "<reduce marker>")
}

func TestDumpLayoutPhase(t *testing.T) {
	out, err := run(t, driver.Config{Dump: driver.DumpLayout}, "int main() { return 1; }")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: FunctionDecl")
}

func TestSyntaxErrorReportsLocatedDiagnostic(t *testing.T) {
	out, err := run(t, driver.Config{}, "int main() { return ; }")
	assert.Error(t, err)
	assert.Contains(t, out, "test.mc:1:")
}

func TestVerboseDoesNotBreakACleanCompile(t *testing.T) {
	src := "int main() { return 1; }"
	_, err := run(t, driver.Config{Verbose: true, VShipments: true, VInst: true}, src)
	assert.NoError(t, err)
}
