// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/source"
)

func TestReportFilesALocatedDiagnostic(t *testing.T) {
	e := diag.NewEngine()
	span := source.NewSpan(3, 5)

	e.Report(diag.Error, span, "unexpected %s", "token").File()

	require.Len(t, e.Diagnostics(), 1)
	d := e.Diagnostics()[0]

	assert.Equal(t, diag.Error, d.Severity)
	assert.Equal(t, "unexpected token", d.Message)
	assert.True(t, d.HasLoc)
	assert.Equal(t, span, d.Location)
}

func TestReportUnlocatedHasNoLocation(t *testing.T) {
	e := diag.NewEngine()

	e.ReportUnlocated(diag.Warning, "no source file given").File()

	d := e.Diagnostics()[0]
	assert.False(t, d.HasLoc)
}

func TestEngineCountsBySeverity(t *testing.T) {
	e := diag.NewEngine()
	span := source.NewSpan(0, 1)

	e.Report(diag.Note, span, "a note").File()
	e.Report(diag.Warning, span, "a warning").File()
	e.Report(diag.Error, span, "an error").File()
	e.Report(diag.Error, span, "another error").File()

	assert.Equal(t, 1, e.Count(diag.Note))
	assert.Equal(t, 1, e.Count(diag.Warning))
	assert.Equal(t, 2, e.Count(diag.Error))
	assert.True(t, e.HasErrors())
}

func TestEngineWithNoErrorsHasErrorsIsFalse(t *testing.T) {
	e := diag.NewEngine()
	e.Report(diag.Warning, source.NewSpan(0, 1), "just a warning").File()

	assert.False(t, e.HasErrors())
}

func TestBuilderAccumulatesRangesAndFixIts(t *testing.T) {
	e := diag.NewEngine()
	span := source.NewSpan(0, 3)
	insertAt := source.NewSpan(3, 3)
	replaceSpan := source.NewSpan(0, 3)

	e.Report(diag.Error, span, "missing semicolon").
		AddRange(span).
		AddFixItInsert(insertAt, ";").
		AddFixItReplace(replaceSpan, "int x").
		File()

	d := e.Diagnostics()[0]
	require.Len(t, d.Ranges, 1)
	assert.Equal(t, span, d.Ranges[0])

	require.Len(t, d.FixIts, 2)
	assert.False(t, d.FixIts[0].Replace)
	assert.Equal(t, ";", d.FixIts[0].Text)
	assert.True(t, d.FixIts[1].Replace)
	assert.Equal(t, "int x", d.FixIts[1].Text)
}

func TestDiagnosticErrorImplementsErrorInterface(t *testing.T) {
	d := diag.Diagnostic{Severity: diag.Error, Message: "boom"}

	var err error = d
	assert.Equal(t, "error: boom", err.Error())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "note", diag.Note.String())
	assert.Equal(t, "warning", diag.Warning.String())
	assert.Equal(t, "error", diag.Error.String())
}

func TestCombineReturnsNilWithNoErrors(t *testing.T) {
	e := diag.NewEngine()
	e.Report(diag.Warning, source.NewSpan(0, 1), "just a warning").File()

	assert.NoError(t, e.Combine())
}

func TestCombineFoldsEveryErrorSeverityDiagnostic(t *testing.T) {
	e := diag.NewEngine()
	span := source.NewSpan(0, 1)

	e.Report(diag.Error, span, "first error").File()
	e.Report(diag.Warning, span, "ignored warning").File()
	e.Report(diag.Error, span, "second error").File()

	err := e.Combine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first error")
	assert.Contains(t, err.Error(), "second error")
	assert.NotContains(t, err.Error(), "ignored warning")
}
