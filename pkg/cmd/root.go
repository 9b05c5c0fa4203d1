// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the metac command line, a single cobra command
// that populates a driver.Config directly from flags and calls
// driver.Run, the same shape
// Consensys-go-corset/pkg/cmd/compile.go's Run closure populates a
// corset.CompilationConfig before calling into its own compilation
// pipeline.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metac-lang/metac/pkg/driver"
)

// rootCmd is metac's sole command: it takes one source file positional
// argument (spec.md §6's "Input") and every flag is a plain (non-persistent)
// flag of this one command, since there are no subcommands to share them
// with.
var rootCmd = &cobra.Command{
	Use:   "metac [flags] source_file",
	Short: "A whole-program compiler with compile-time meta instantiation.",
	Long: `metac compiles a single source file end-to-end: lexing, parsing,
name resolution, semantic checks, compile-time meta instantiation via an
in-process JIT, and code generation, printing the resulting amalgamation
module as textual IR.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := driver.Config{
			OptLevel:     GetOptLevel(cmd),
			Dump:         GetDumpPhase(cmd),
			Verbose:      GetFlag(cmd, "verbose"),
			VShipments:   GetFlag(cmd, "vshipments"),
			VInst:        GetFlag(cmd, "vinst"),
			VInstLayout:  GetFlag(cmd, "vinst-layout"),
			VInstAST:     GetFlag(cmd, "vinst-ast"),
			VInstExports: GetFlag(cmd, "vinst-exports"),
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], err)
			os.Exit(1)
		}

		if err := driver.Run(cfg, args[0], string(content), os.Stdout); err != nil {
			os.Exit(1)
		}
	},
}

// Execute runs the root command, exiting with status 1 if cobra reports an
// error. Called by cmd/metac/main.go; it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("emit-tokens", false, "stop after lexing and dump the token stream")
	rootCmd.Flags().Bool("emit-flat-layout", false, "stop after parsing and dump the flat layout stream")
	rootCmd.Flags().Bool("emit-layout", false, "stop after structuring/resolution and dump the structured tree")
	rootCmd.Flags().Bool("emit-ast", false, "stop after semantic checks and dump the checked tree")

	rootCmd.Flags().Bool("O0", false, "optimisation level 0")
	rootCmd.Flags().Bool("O1", false, "optimisation level 1")
	rootCmd.Flags().Bool("O2", false, "optimisation level 2")
	rootCmd.Flags().Bool("O3", false, "optimisation level 3")

	rootCmd.Flags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.Flags().Bool("vshipments", false, "log each shipped function's resolved dependency closure")
	rootCmd.Flags().Bool("vinst", false, "log each meta instantiation as it completes")
	rootCmd.Flags().Bool("vinst-layout", false, "dump the structured layout of each instantiation's produced unit")
	rootCmd.Flags().Bool("vinst-ast", false, "dump the checked ast of each instantiation's produced unit")
	rootCmd.Flags().Bool("vinst-exports", false, "log the exported declaration of each instantiation's produced unit")
}
