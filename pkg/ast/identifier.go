// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ast

import "github.com/metac-lang/metac/pkg/source"

// Identifier is an interned name together with the span it was written at
// (or, for a name synthesised by a meta instantiation, the span it was
// copied from). Two identifiers with the same text compare equal by value
// regardless of span, via Name(); the span is carried purely for
// diagnostics.
type Identifier struct {
	name string
	span source.Span
}

// Name returns the identifier's interned text.
func (id Identifier) Name() string { return id.name }

// Span returns the identifier's source location.
func (id Identifier) Span() source.Span { return id.span }

// stringPool is an append-only, content-keyed intern table. Every Identifier
// constructed via a Context's Intern shares the same Go string backing array
// for equal text, the same role `pool.Pool[K,T]` plays in the teacher's
// collection package, specialised here to strings rather than a generic K/T
// pair since identifiers are always looked up by their text.
type stringPool struct {
	entries map[string]string
}

func newStringPool() *stringPool {
	return &stringPool{entries: make(map[string]string)}
}

func (p *stringPool) intern(s string) string {
	if existing, ok := p.entries[s]; ok {
		return existing
	}

	p.entries[s] = s

	return s
}
