// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnterMarksMember(t *testing.T) {
	s := NewSet()
	assert.False(t, s.Has(5))

	s.Enter(5)
	assert.True(t, s.Has(5))
}

func TestLeaveClearsMember(t *testing.T) {
	s := NewSet()

	leave := s.Enter(7)
	assert.True(t, s.Has(7))

	leave()
	assert.False(t, s.Has(7))
}

func TestLeaveOnDeferClearsOnPanicPath(t *testing.T) {
	s := NewSet()

	func() {
		defer func() {
			recover()
		}()

		leave := s.Enter(3)
		defer leave()

		panic("boom")
	}()

	assert.False(t, s.Has(3))
}

func TestIndependentIDs(t *testing.T) {
	s := NewSet()

	leaveA := s.Enter(1)
	s.Enter(2)

	leaveA()

	assert.False(t, s.Has(1))
	assert.True(t, s.Has(2))
}

func TestIDBeyondInitialCapacityGrowsBitset(t *testing.T) {
	s := NewSet()

	// NewSet seeds a 64-bit bitset; an id well past that must still work,
	// since bitset.BitSet grows on demand.
	leave := s.Enter(200)
	assert.True(t, s.Has(200))

	leave()
	assert.False(t, s.Has(200))
}
