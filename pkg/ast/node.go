// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package ast defines the node model of the compiler: a closed sum of node
// kinds, every instance of which is owned by exactly one Context (an arena)
// and freed only when that Context is dropped, never individually.
package ast

import "github.com/metac-lang/metac/pkg/source"

// NodeID uniquely identifies a node within the Context that allocated it.
// Sets keyed by NodeID (the current-generation-stack guard in pkg/codegen,
// the active-instantiation-set guard in pkg/executor) use it as a small
// dense integer suitable for a bitset rather than a pointer-keyed map.
type NodeID uint32

// Node is implemented by every concrete node type in this package. Children
// returns the node's direct children in layout order (empty for leaves),
// which is what pkg/layout walks to emit a flat stream and what pkg/depwalk
// and pkg/ast's own Clone walk for generic traversal.
type Node interface {
	ID() NodeID
	Kind() Kind
	Children() []Node
}

// base is embedded by every concrete node type and provides the identity
// half of the Node interface. Concrete types still implement Kind() and
// Children() themselves, since those vary per kind.
type base struct {
	id NodeID
}

// ID returns the node's arena-local identity.
func (b base) ID() NodeID { return b.id }

// Context is an AST arena: every node allocated through it lives exactly as
// long as the Context does, and is addressed by Go pointer (never copied by
// value once placed in the tree) exactly as the teacher's compiler treats
// its own AST nodes as always-referenced-by-pointer values.
type Context struct {
	pool  *stringPool
	spans *source.Map[Node]
	nodes []Node
	next  NodeID
}

// NewContext constructs an empty arena whose nodes will have their spans
// recorded against file.
func NewContext(file *source.File) *Context {
	return &Context{
		pool:  newStringPool(),
		spans: source.NewMap[Node](file),
	}
}

// Intern returns the pooled copy of s, so that equal identifier text always
// shares one backing string within this arena.
func (c *Context) Intern(s string) string {
	return c.pool.intern(s)
}

// NewIdentifier constructs an interned identifier at the given span.
func (c *Context) NewIdentifier(name string, span source.Span) Identifier {
	return Identifier{name: c.Intern(name), span: span}
}

// Spans returns the arena's node-to-span map, used by pkg/diag to locate a
// node in a diagnostic and by clone operations to propagate a span from a
// meta-contribution template onto its instantiated copy.
func (c *Context) Spans() *source.Map[Node] { return c.spans }

// register records the span of n (whose NodeID was already taken from
// nextID) and tracks it for arena-wide iteration via Nodes, regardless of
// whether it is still reachable from a live unit.
func (c *Context) register(n Node, span source.Span) {
	c.spans.Put(n, span)
	c.nodes = append(c.nodes, n)
}

// nextID allocates the next arena-local node identity.
func (c *Context) nextID() NodeID {
	id := c.next
	c.next++

	return id
}

// Nodes returns every node allocated through this arena's New* constructors,
// in allocation order. Nodes created in this arena by Clone or CloneShallow
// are not included.
func (c *Context) Nodes() []Node {
	return c.nodes
}
