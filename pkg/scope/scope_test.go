// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/source"
)

func newCtx() *ast.Context {
	return ast.NewContext(source.NewFile("test.mc", ""))
}

func decl(ctx *ast.Context, name string) ast.Node {
	return ctx.NewGlobalConstantDecl(ctx.NewIdentifier(name, source.NewSpan(0, 0)), source.NewSpan(0, 0))
}

func TestDeclareAndLookup(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)

	d := decl(ctx, "x")
	assert.True(t, root.Declare("x", d))

	got, ok := root.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestDeclareConflict(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)

	assert.True(t, root.Declare("x", decl(ctx, "x")))
	assert.False(t, root.Declare("x", decl(ctx, "x")))
}

func TestLookupMissing(t *testing.T) {
	root := NewPersistent(nil)

	_, ok := root.Lookup("nope")
	assert.False(t, ok)
}

func TestLookupThroughParent(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	d := decl(ctx, "outer")
	root.Declare("outer", d)

	child := NewTemporary(root)

	got, ok := child.Lookup("outer")
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestChildShadowsParent(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	outer := decl(ctx, "x")
	root.Declare("x", outer)

	child := NewTemporary(root)
	inner := decl(ctx, "x")
	assert.True(t, child.Declare("x", inner))

	got, ok := child.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, inner, got)

	// the outer binding is untouched
	gotOuter, ok := root.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, outer, gotOuter)
}

func TestInPlaceDelegatesDeclarationsToTarget(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)

	var notified []string
	inPlace := NewInPlace(root, func(name string, d ast.Node) {
		notified = append(notified, name)
	})

	d := decl(ctx, "y")
	assert.True(t, inPlace.Declare("y", d))

	// the binding lands on root, not on the InPlace scope itself
	got, ok := root.Lookup("y")
	assert.True(t, ok)
	assert.Equal(t, d, got)

	assert.Equal(t, []string{"y"}, notified)
}

func TestInPlaceConflictDetectedAgainstTarget(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	root.Declare("y", decl(ctx, "y"))

	inPlace := NewInPlace(root, nil)
	assert.False(t, inPlace.Declare("y", decl(ctx, "y")))
}

func TestInPlaceLookupPassesThrough(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	d := decl(ctx, "z")
	root.Declare("z", d)

	inPlace := NewInPlace(root, nil)

	got, ok := inPlace.Lookup("z")
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestNestedInPlaceTargetsNearestNonInPlaceAncestor(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	inner := NewInPlace(root, nil)
	outer := NewInPlace(inner, nil)

	d := decl(ctx, "w")
	assert.True(t, outer.Declare("w", d))

	got, ok := root.Lookup("w")
	assert.True(t, ok)
	assert.Equal(t, d, got)
}

func TestReshadowBypassesConflictCheck(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	first := decl(ctx, "f")
	root.Declare("f", first)

	second := decl(ctx, "f")
	root.Reshadow("f", second)

	got, ok := root.Lookup("f")
	assert.True(t, ok)
	assert.Equal(t, second, got)
}

func TestKindAndParentAccessors(t *testing.T) {
	root := NewPersistent(nil)
	child := NewTemporary(root)

	assert.Equal(t, Persistent, root.Kind())
	assert.Nil(t, root.Parent())
	assert.Equal(t, Temporary, child.Kind())
	assert.Equal(t, root, child.Parent())
}

func TestSimilarFindsCloseName(t *testing.T) {
	ctx := newCtx()
	root := NewPersistent(nil)
	root.Declare("length", decl(ctx, "length"))
	root.Declare("width", decl(ctx, "width"))

	best, ok := root.Similar("lenght")
	assert.True(t, ok)
	assert.Equal(t, "length", best)
}

func TestSimilarNoMatchBeyondThreshold(t *testing.T) {
	root := NewPersistent(nil)

	_, ok := root.Similar("x")
	assert.False(t, ok)
}

func TestBoundedLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want int
	}{
		{"", "abc", 10, 3},
		{"abc", "", 10, 3},
		{"kitten", "sitting", 10, 3},
		{"same", "same", 10, 0},
		{"abcdef", "zzzzzz", 2, 3}, // exceeds max, clamps to max+1
	}

	for _, tt := range tests {
		t.Run(tt.a+"->"+tt.b, func(t *testing.T) {
			got := boundedLevenshtein(tt.a, tt.b, tt.max)
			assert.Equal(t, tt.want, got)
		})
	}
}
