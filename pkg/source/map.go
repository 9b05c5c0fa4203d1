// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package source

import "fmt"

// Map associates AST nodes (or any other comparable key) with the span of
// the original buffer they were parsed from.  Nodes synthesised by a meta
// instantiation are not parsed from anywhere; their span is instead copied
// from the template node they were cloned from, via Copy.
type Map[T comparable] struct {
	mapping map[T]Span
	file    *File
}

// NewMap constructs an initially empty source map over the given file.
func NewMap[T comparable](file *File) *Map[T] {
	return &Map[T]{make(map[T]Span), file}
}

// File returns the underlying source file this map annotates.
func (m *Map[T]) File() *File { return m.file }

// Put records the span of a freshly structured node.  Panics if the node is
// already present, since every node should be registered exactly once.
func (m *Map[T]) Put(item T, span Span) {
	if _, ok := m.mapping[item]; ok {
		panic(fmt.Sprintf("source map key already registered: %v", item))
	}

	m.mapping[item] = span
}

// Has reports whether item has a recorded span.
func (m *Map[T]) Has(item T) bool {
	_, ok := m.mapping[item]
	return ok
}

// Get returns the span recorded for item, panicking if absent.
func (m *Map[T]) Get(item T) Span {
	if s, ok := m.mapping[item]; ok {
		return s
	}

	panic(fmt.Sprintf("no source mapping for key: %v", item))
}

// Copy propagates the span of `from` onto `to`, used when a node is cloned
// (e.g. as part of a meta contribution) so the clone reports errors at the
// same place as the template it came from.
func (m *Map[T]) Copy(from, to T) {
	if s, ok := m.mapping[from]; ok {
		m.mapping[to] = s
	}
}

// Maps is a set of per-file Map instances, letting a single lookup span a
// whole compilation (the original unit plus every meta-instantiated unit).
type Maps[T comparable] struct {
	maps []*Map[T]
}

// NewMaps constructs an initially empty collection of source maps.
func NewMaps[T comparable]() *Maps[T] {
	return &Maps[T]{}
}

// Join registers an additional per-file map with this collection.
func (m *Maps[T]) Join(mp *Map[T]) {
	m.maps = append(m.maps, mp)
}

// Has reports whether any joined map has a span for item.
func (m *Maps[T]) Has(item T) bool {
	for _, mp := range m.maps {
		if mp.Has(item) {
			return true
		}
	}

	return false
}

// Get returns the span recorded for item in whichever joined map holds it,
// panicking if no map holds it.
func (m *Maps[T]) Get(item T) Span {
	for _, mp := range m.maps {
		if mp.Has(item) {
			return mp.Get(item)
		}
	}

	panic("no source mapping for key in any joined map")
}

// Location renders item's span as "file:line:col" using whichever joined
// map holds it.
func (m *Maps[T]) Location(item T) string {
	for _, mp := range m.maps {
		if mp.Has(item) {
			return mp.file.String(mp.Get(item))
		}
	}

	return "<unknown>"
}

// Copy propagates the span of `from` onto `to` in whichever joined map holds
// `from`.
func (m *Maps[T]) Copy(from, to T) {
	for _, mp := range m.maps {
		if mp.Has(from) {
			mp.Copy(from, to)
			return
		}
	}
}
