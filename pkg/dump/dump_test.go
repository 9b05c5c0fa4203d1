// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package dump_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/dump"
	"github.com/metac-lang/metac/pkg/ir"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/parser"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/source"
)

type ynode struct {
	Kind       string  `yaml:"kind"`
	Represents string  `yaml:"represents"`
	Children   []ynode `yaml:"children"`
}

func decodeNodes(t *testing.T, r *bytes.Buffer) []ynode {
	t.Helper()

	var nodes []ynode
	require.NoError(t, yaml.Unmarshal(r.Bytes(), &nodes))

	return nodes
}

func decodeNode(t *testing.T, r *bytes.Buffer) ynode {
	t.Helper()

	var n ynode
	require.NoError(t, yaml.Unmarshal(r.Bytes(), &n))

	return n
}

const sampleSrc = `
int g = 5;
int add(int x, int y) {
	return x + y;
}
`

func readSample(t *testing.T) ast.Unit {
	t.Helper()

	file := source.NewFile("test.mc", sampleSrc)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := parser.New(ctx, diags)
	tokens, ok := p.ParseCompilationUnit(sampleSrc)
	require.True(t, ok, "parse failed: %v", diags.Diagnostics())

	rd := reader.New(ctx, diags)
	cur := layout.NewCursor(tokens)
	unit := rd.ReadUnit(cur, ast.KindCompilationUnit, nil)
	require.False(t, diags.HasErrors())

	return unit
}

func TestTokensRendersRawLexerStream(t *testing.T) {
	toks, err := parser.LexTokens("int x = 1;")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump.Tokens(&buf, toks))

	nodes := decodeNodes(t, &buf)
	require.Len(t, nodes, len(toks))
	assert.Equal(t, "'int'", nodes[0].Kind)
	assert.Equal(t, "identifier", nodes[1].Kind)
	assert.Equal(t, "x", nodes[1].Represents)
}

func TestFlatLayoutEmitsReduceMarkerPseudoNodes(t *testing.T) {
	file := source.NewFile("test.mc", sampleSrc)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := parser.New(ctx, diags)
	tokens, ok := p.ParseCompilationUnit(sampleSrc)
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, dump.FlatLayout(&buf, tokens))

	nodes := decodeNodes(t, &buf)
	require.Len(t, nodes, len(tokens))

	sawMarker := false
	for _, n := range nodes {
		if n.Kind == "<reduce marker>" {
			sawMarker = true
		}
	}
	assert.True(t, sawMarker, "expected at least one <reduce marker> pseudo-node")
}

func TestLayoutAddsReduceMarkerPseudoChildrenByArity(t *testing.T) {
	u := readSample(t)

	var buf bytes.Buffer
	require.NoError(t, dump.Layout(&buf, u))

	root := decodeNode(t, &buf)
	require.Equal(t, "CompilationUnit", root.Kind)

	// CompilationUnit is variadic (requires a real reduce marker).
	last := root.Children[len(root.Children)-1]
	assert.Equal(t, "<reduce marker>", last.Kind)

	// The add FunctionDecl is also variadic at top level...
	var addDecl *ynode
	for i := range root.Children {
		if root.Children[i].Kind == "FunctionDecl" && root.Children[i].Represents == "add" {
			addDecl = &root.Children[i]
		}
	}
	require.NotNil(t, addDecl)
	assert.Equal(t, "<reduce marker>", addDecl.Children[len(addDecl.Children)-1].Kind)

	// ...and so is its ArgDeclList child, which always takes a reduce
	// marker (checked structurally: every node with children gets exactly
	// one of the two pseudo-kinds as its last child).
	argList := addDecl.Children[0]
	require.NotEmpty(t, argList.Children)
	gotLast := argList.Children[len(argList.Children)-1].Kind
	assert.Contains(t, []string{"<reduce marker>", "<obvious reduce>"}, gotLast)
}

func TestASTOmitsReduceMarkersAndShowsResolvedDeclRef(t *testing.T) {
	u := readSample(t)

	var buf bytes.Buffer
	require.NoError(t, dump.AST(&buf, u))

	rendered := buf.String()
	assert.NotContains(t, rendered, "<reduce marker>")
	assert.NotContains(t, rendered, "<obvious reduce>")

	// x + y inside add's body: both operands are resolved DeclRefs, so
	// their "represents" field shows the arrow form.
	assert.Contains(t, rendered, "x -> x")
	assert.Contains(t, rendered, "y -> y")
}

func TestASTShowsUnresolvedDeclRefPlaceholder(t *testing.T) {
	ctx := ast.NewContext(source.NewFile("lit.mc", ""))
	span := source.NewSpan(0, 0)

	ref := ctx.NewDeclRefExpr(ctx.NewIdentifier("mystery", span), span)

	var buf bytes.Buffer
	require.NoError(t, dump.AST(&buf, ref))

	assert.Contains(t, buf.String(), "mystery -> <unresolved>")
}

func TestModuleStampsGeneratedBannerOnlyForMangledNames(t *testing.T) {
	m := ir.NewModule("test")

	hand := ir.NewFunctionBuilder("plain")
	hand.NewBlock()
	hand.SetReturnVoid()
	m.AddFunction(hand.Build())

	gen := ir.NewFunctionBuilder("k$0")
	gen.NewBlock()
	gen.SetReturn(gen.EmitConst(7))
	gen.SetHasResult(true)
	m.AddFunction(gen.Build())

	var buf bytes.Buffer
	dump.Module(&buf, m)

	rendered := buf.String()
	bannerIdx := strings.Index(rendered, "instantiated by a meta declaration")
	plainIdx := strings.Index(rendered, "define plain(")
	genIdx := strings.Index(rendered, "define k$0(")

	require.NotEqual(t, -1, bannerIdx)
	require.NotEqual(t, -1, plainIdx)
	require.NotEqual(t, -1, genIdx)

	// The banner immediately precedes the generated function, not the
	// hand-written one.
	assert.Less(t, plainIdx, bannerIdx)
	assert.Less(t, bannerIdx, genIdx)
}

func TestModuleRendersBlocksAndTerminators(t *testing.T) {
	m := ir.NewModule("test")

	fb := ir.NewFunctionBuilder("addOne")
	fb.SetHasResult(true)
	x := fb.AddParam("x")
	fb.NewBlock()
	one := fb.EmitConst(1)
	sum := fb.EmitBinOp(uint8(ast.OpAdd), fb.EmitLoad(x), one)
	fb.SetReturn(sum)
	m.AddFunction(fb.Build())

	var buf bytes.Buffer
	dump.Module(&buf, m)

	rendered := buf.String()
	assert.Contains(t, rendered, "define addOne(%0:x)")
	assert.Contains(t, rendered, "bb0:")
	assert.Contains(t, rendered, "= const 1")
	assert.Contains(t, rendered, "return %")
}
