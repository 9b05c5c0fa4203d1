// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metac-lang/metac/pkg/driver"
)

// GetFlag gets an expected bool flag, or exits if the flag is misconfigured
// (Consensys-go-corset/pkg/cmd/util.go's GetFlag: a missing or mistyped
// flag is a programmer error in this command's own registration, not a
// user-facing one, so it prints the error and exits with status 2 rather
// than propagating).
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	return r
}

// GetOptLevel reads whichever of -O0..-O3 was passed (spec.md §6), defaulting
// to 1. Passing more than one is rejected the same way GetUint's single
// "opt" flag would have made ambiguity impossible in the teacher's CLI; here
// each level is its own boolean flag instead of one leveled flag, so this
// function enforces the mutual exclusion by hand.
func GetOptLevel(cmd *cobra.Command) int {
	levels := []string{"O0", "O1", "O2", "O3"}
	selected := -1

	for i, name := range levels {
		if GetFlag(cmd, name) {
			if selected != -1 {
				fmt.Fprintf(os.Stderr, "only one of -%s may be given\n", levelFlagList(levels))
				os.Exit(2)
			}

			selected = i
		}
	}

	if selected == -1 {
		return 1
	}

	return selected
}

func levelFlagList(levels []string) string {
	out := levels[0]
	for _, l := range levels[1:] {
		out += ", -" + l
	}

	return out
}

// GetDumpPhase reads whichever -emit-* flag was passed, or driver.NoDump if
// none was. Passing more than one is rejected outright: each phase is a
// strictly later snapshot of the same pipeline, so "stop after two
// different phases at once" has no sensible meaning.
func GetDumpPhase(cmd *cobra.Command) driver.DumpPhase {
	phases := []struct {
		flag  string
		phase driver.DumpPhase
	}{
		{"emit-tokens", driver.DumpTokens},
		{"emit-flat-layout", driver.DumpFlatLayout},
		{"emit-layout", driver.DumpLayout},
		{"emit-ast", driver.DumpAST},
	}

	selected := driver.NoDump
	seen := false

	for _, p := range phases {
		if !GetFlag(cmd, p.flag) {
			continue
		}

		if seen {
			fmt.Fprintln(os.Stderr, "only one -emit-* flag may be given")
			os.Exit(2)
		}

		selected = p.phase
		seen = true
	}

	return selected
}
