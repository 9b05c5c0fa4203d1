// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package guard implements the scope-guarded membership sets spec.md §5
// requires for cycle detection: the current-generation-stack guard
// (pkg/codegen) and the active-instantiation-set guard (pkg/executor),
// "both... entered and exited through scope guards so that error paths
// also clean up" (spec.md §9). Grounded on original_source/src/Support/
// ScopeLeaveAction.hpp's run-on-exit idiom, translated to Go's natural
// equivalent: Enter returns a closure the caller defers immediately, so
// membership is always cleared on every return path including panics.
package guard

import "github.com/bits-and-blooms/bitset"

// Set tracks a small dense set of uint32 ids (NodeIDs in practice) backed
// by a bitset, per SPEC_FULL.md §4's wiring of
// github.com/bits-and-blooms/bitset into exactly this role.
type Set struct {
	bits *bitset.BitSet
}

// NewSet constructs an empty guard set.
func NewSet() *Set {
	return &Set{bits: bitset.New(64)}
}

// Has reports whether id is currently a member (i.e. "in progress").
func (s *Set) Has(id uint32) bool {
	return s.bits.Test(uint(id))
}

// Enter marks id as in progress and returns a Leave function; the caller
// must `defer` the returned function immediately so id is cleared on every
// exit path.
func (s *Set) Enter(id uint32) (leave func()) {
	s.bits.Set(uint(id))

	return func() { s.bits.Clear(uint(id)) }
}
