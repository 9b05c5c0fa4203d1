// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metac-lang/metac/pkg/driver"
)

func newTestCmd(t *testing.T) *cobra.Command {
	t.Helper()

	c := &cobra.Command{Use: "test"}
	c.Flags().Bool("O0", false, "")
	c.Flags().Bool("O1", false, "")
	c.Flags().Bool("O2", false, "")
	c.Flags().Bool("O3", false, "")
	c.Flags().Bool("emit-tokens", false, "")
	c.Flags().Bool("emit-flat-layout", false, "")
	c.Flags().Bool("emit-layout", false, "")
	c.Flags().Bool("emit-ast", false, "")
	c.Flags().Bool("verbose", false, "")

	return c
}

func TestGetFlagReadsRegisteredBool(t *testing.T) {
	c := newTestCmd(t)
	require.NoError(t, c.Flags().Set("verbose", "true"))

	assert.True(t, GetFlag(c, "verbose"))
}

func TestGetOptLevelDefaultsToOne(t *testing.T) {
	c := newTestCmd(t)
	assert.Equal(t, 1, GetOptLevel(c))
}

func TestGetOptLevelReadsTheSelectedLevel(t *testing.T) {
	c := newTestCmd(t)
	require.NoError(t, c.Flags().Set("O3", "true"))

	assert.Equal(t, 3, GetOptLevel(c))
}

func TestGetDumpPhaseDefaultsToNoDump(t *testing.T) {
	c := newTestCmd(t)
	assert.Equal(t, driver.NoDump, GetDumpPhase(c))
}

func TestGetDumpPhaseReadsTheSelectedPhase(t *testing.T) {
	c := newTestCmd(t)
	require.NoError(t, c.Flags().Set("emit-layout", "true"))

	assert.Equal(t, driver.DumpLayout, GetDumpPhase(c))
}

func TestLevelFlagListJoinsWithDashPrefix(t *testing.T) {
	assert.Equal(t, "O0, -O1, -O2, -O3", levelFlagList([]string{"O0", "O1", "O2", "O3"}))
}
