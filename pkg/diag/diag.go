// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package diag implements the diagnostic engine: per-severity counters,
// formatted messages with an optional primary location, highlight ranges
// and fix-it suggestions. Grounded on original_source's
// src/Diag/Diagnostic.hpp (Severity), src/Diag/DiagnosticBuilder.hpp (the
// range/fix-it accumulation shape) and
// Consensys-go-corset/pkg/sexp/error.go (the span-carrying Go error idiom
// this package generalises into a richer diagnostic).
package diag

import (
	"fmt"

	"github.com/metac-lang/metac/pkg/source"
)

// Severity states how serious a diagnostic is.
type Severity uint8

const (
	Note Severity = iota
	Warning
	Error
)

// String renders the severity's display name.
func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// FixIt is a suggested, grammatically valid continuation: either an
// insertion at a point or a replacement of a span. Named and typed per
// DESIGN.md's grounding on DiagnosticBuilder.hpp's addFixItInsert/
// addFixItReplace, rather than a single opaque suggestion string.
type FixIt struct {
	// Replace is false for an insertion (Span is a zero-length point at
	// Span.Start()), true for a replacement of the full Span.
	Replace bool
	Span    source.Span
	Text    string
}

// InsertFixIt constructs a point-insertion suggestion.
func InsertFixIt(at source.Span, text string) FixIt {
	return FixIt{Replace: false, Span: at, Text: text}
}

// ReplaceFixIt constructs a replace-range suggestion.
func ReplaceFixIt(span source.Span, text string) FixIt {
	return FixIt{Replace: true, Span: span, Text: text}
}

// Diagnostic is one formatted message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Location source.Span
	HasLoc   bool
	Ranges   []source.Span
	FixIts   []FixIt
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly as a Go error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Builder accumulates one diagnostic's ranges and fix-its before it is
// filed with an Engine — the Go analogue of DiagnosticBuilder, minus the
// destructor-dispatches-on-scope-exit idiom (Go has no destructors; File
// is called explicitly instead of relying on scope exit).
type Builder struct {
	engine *Engine
	d      Diagnostic
}

// AddRange attaches a highlight range to the diagnostic being built.
func (b *Builder) AddRange(span source.Span) *Builder {
	b.d.Ranges = append(b.d.Ranges, span)
	return b
}

// AddFixItInsert attaches an insertion fix-it suggestion.
func (b *Builder) AddFixItInsert(at source.Span, text string) *Builder {
	b.d.FixIts = append(b.d.FixIts, InsertFixIt(at, text))
	return b
}

// AddFixItReplace attaches a replace-range fix-it suggestion.
func (b *Builder) AddFixItReplace(span source.Span, text string) *Builder {
	b.d.FixIts = append(b.d.FixIts, ReplaceFixIt(span, text))
	return b
}

// File commits the diagnostic being built to its engine.
func (b *Builder) File() {
	b.engine.file(b.d)
}

// Engine collects diagnostics and maintains per-severity counters.
type Engine struct {
	diags   []Diagnostic
	counts  [3]int
}

// NewEngine constructs an empty diagnostic engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Report begins building a diagnostic at the given severity and location.
func (e *Engine) Report(severity Severity, location source.Span, format string, args ...any) *Builder {
	return &Builder{
		engine: e,
		d: Diagnostic{
			Severity: severity,
			Message:  fmt.Sprintf(format, args...),
			Location: location,
			HasLoc:   true,
		},
	}
}

// ReportUnlocated begins building a diagnostic with no primary location
// (e.g. a driver-level configuration error).
func (e *Engine) ReportUnlocated(severity Severity, format string, args ...any) *Builder {
	return &Builder{
		engine: e,
		d: Diagnostic{
			Severity: severity,
			Message:  fmt.Sprintf(format, args...),
		},
	}
}

func (e *Engine) file(d Diagnostic) {
	e.diags = append(e.diags, d)
	e.counts[d.Severity]++
}

// Diagnostics returns every diagnostic filed so far, in filing order.
func (e *Engine) Diagnostics() []Diagnostic {
	return e.diags
}

// Count returns how many diagnostics of the given severity have been
// filed.
func (e *Engine) Count(severity Severity) int {
	return e.counts[severity]
}

// HasErrors reports whether any Error-severity diagnostic has been filed —
// the phase-barrier check pkg/driver gates every stage transition on.
func (e *Engine) HasErrors() bool {
	return e.counts[Error] > 0
}
