// Copyright the metac authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package source

// Span is a contiguous byte range `[Start,End)` into some original source
// buffer.  Spans are preserved through relocation: when a meta instantiation
// clones a template AST node, the clone carries the same span as its
// template even though the clone itself did not appear literally in any
// source file.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span, checking the basic ordering invariant.
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span")
	}

	return Span{start, end}
}

// Start returns the first byte offset covered by this span.
func (s Span) Start() int { return s.start }

// End returns one past the last byte offset covered by this span.
func (s Span) End() int { return s.end }

// Length returns the number of bytes covered by this span.
func (s Span) Length() int { return s.end - s.start }

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	start, end := s.start, s.end
	if other.start < start {
		start = other.start
	}

	if other.end > end {
		end = other.end
	}

	return Span{start, end}
}
