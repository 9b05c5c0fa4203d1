// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package driver implements the end-to-end pipeline spec.md §2 assigns to
// the Driver component: lex/parse, structure and resolve (with eager
// meta-instantiation wired in through pkg/reader's InstantiationHook), run
// semantic checks, ship every top-level function into the amalgamation
// module, then print it as textual IR — or stop early and print one of the
// four `-emit-*` phase snapshots pkg/dump renders (spec.md §6). Grounded on
// Consensys-go-corset/pkg/cmd/compile.go's "parse, configure, compile,
// serialise" shape, generalised from a one-shot cobra Run closure into a
// reusable entrypoint pkg/cmd's single root command calls into.
package driver

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/check"
	"github.com/metac-lang/metac/pkg/depwalk"
	"github.com/metac-lang/metac/pkg/diag"
	"github.com/metac-lang/metac/pkg/dump"
	"github.com/metac-lang/metac/pkg/executor"
	"github.com/metac-lang/metac/pkg/layout"
	"github.com/metac-lang/metac/pkg/parser"
	"github.com/metac-lang/metac/pkg/reader"
	"github.com/metac-lang/metac/pkg/scope"
	"github.com/metac-lang/metac/pkg/source"
)

// DumpPhase selects an early-exit snapshot in place of the full pipeline.
type DumpPhase uint8

const (
	// NoDump runs the complete pipeline through to shipment.
	NoDump DumpPhase = iota
	// DumpTokens stops after lexing (-emit-tokens).
	DumpTokens
	// DumpFlatLayout stops after parsing, before structuring (-emit-flat-layout).
	DumpFlatLayout
	// DumpLayout stops after structuring/resolution, before checking (-emit-layout).
	DumpLayout
	// DumpAST stops after checking, before shipment (-emit-ast).
	DumpAST
)

// Config collects every flag pkg/cmd's root command accepts (spec.md
// §6).
type Config struct {
	// OptLevel is accepted for forward compatibility with spec.md §6's
	// -O0..-O3 flags; this implementation's interpreter-backed
	// instantiation and single-pass codegen have no optimisation passes of
	// their own to gate on a level (see DESIGN.md's Open Question entry),
	// so every level currently compiles identically.
	OptLevel int
	Dump     DumpPhase

	Verbose      bool
	VShipments   bool
	VInst        bool
	VInstLayout  bool
	VInstAST     bool
	VInstExports bool
}

// Run compiles content (named name for diagnostics) per cfg, writing the
// amalgamation module's textual IR, or the selected dump phase's YAML, to
// out. Returns a combined error of every Error-severity diagnostic filed
// (spec.md §8: the end-to-end scenarios gate success on this being nil).
func Run(cfg Config, name, content string, out io.Writer) error {
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.Dump == DumpTokens {
		toks, err := parser.LexTokens(content)
		if err != nil {
			return err
		}

		return dump.Tokens(out, toks)
	}

	file := source.NewFile(name, content)
	diags := diag.NewEngine()
	ctx := ast.NewContext(file)

	p := parser.New(ctx, diags)

	tokens, ok := p.ParseCompilationUnit(content)
	if !ok || diags.HasErrors() {
		return reportAndCombine(diags, file, out)
	}

	log.Debugf("%s: parsed %d layout tokens", name, len(tokens))

	if cfg.Dump == DumpFlatLayout {
		return dump.FlatLayout(out, tokens)
	}

	ctl := executor.New(diags, name)

	rd := reader.New(ctx, diags)
	rd.SetHook(instantiationHook(ctl, ctx, cfg))

	cur := layout.NewCursor(tokens)
	unit := rd.ReadUnit(cur, ast.KindCompilationUnit, nil)

	if diags.HasErrors() {
		return reportAndCombine(diags, file, out)
	}

	if cfg.Dump == DumpLayout {
		return dump.Layout(out, unit)
	}

	check.New(ctx, diags).CheckUnit(unit)

	if diags.HasErrors() {
		return reportAndCombine(diags, file, out)
	}

	if cfg.Dump == DumpAST {
		return dump.AST(out, unit)
	}

	for _, d := range unit.Decls() {
		fd, isFn := d.(*ast.FunctionDecl)
		if !isFn {
			continue
		}

		if cfg.VShipments {
			logShipment(ctl, fd)
		}

		ctl.ShipFunction(fd)

		if diags.HasErrors() {
			return reportAndCombine(diags, file, out)
		}
	}

	dump.Module(out, ctl.Module())

	return reportAndCombine(diags, file, out)
}

// instantiationHook wires pkg/executor's eager instantiation into rd,
// additionally surfacing each completed instantiation through the -vinst*
// flags, the same way -verbose gates log.SetLevel above rather than
// introducing a second ad hoc logging mechanism.
func instantiationHook(ctl *executor.Controller, ctx *ast.Context, cfg Config) reader.InstantiationHook {
	return func(mi *ast.MetaInstantiationExpr, parent *scope.Scope) {
		produced, ok := ctl.EnsureInstantiated(ctx, mi, parent)
		if !ok {
			return
		}

		name := mi.Decl().Name().Name()

		if cfg.VInst {
			log.Debugf("instantiated %s", name)
		}

		if cfg.VInstLayout {
			if err := dump.Layout(os.Stdout, produced); err != nil {
				log.Warnf("dumping layout of %s: %v", name, err)
			}
		}

		if cfg.VInstAST {
			if err := dump.AST(os.Stdout, produced); err != nil {
				log.Warnf("dumping ast of %s: %v", name, err)
			}
		}

		if cfg.VInstExports {
			if exp := produced.ExportedNode(); exp != nil {
				log.Debugf("%s exports %s", name, exp.Kind())
			} else {
				log.Debugf("%s exports nothing", name)
			}
		}
	}
}

// logShipment walks fd's dependency closure purely for diagnostic purposes
// (every instantiation in it has already run, via instantiationHook, by the
// time ReadUnit returned) and logs the symbol or constant each one resolved
// to, for the -vshipments flag.
func logShipment(ctl *executor.Controller, fd *ast.FunctionDecl) {
	log.Debugf("shipping %s", fd.Name().Name())

	depwalk.WalkFunction(fd, func(mi *ast.MetaInstantiationExpr) bool {
		name := mi.Decl().Name().Name()

		if sym, ok := ctl.ResolveInstantiation(mi); ok {
			log.Debugf("  depends on %s -> %s", name, sym)
		} else if _, ok := ctl.ResolveInstantiationConstant(mi); ok {
			log.Debugf("  depends on %s (constant)", name)
		}

		return true
	})
}

// reportAndCombine prints every diagnostic filed so far to out, using file
// to render a located diagnostic's span as "name:line:col" (spec.md §8's
// error-reporting scenarios), and returns the combined error diag.Combine
// builds from every Error-severity one.
func reportAndCombine(diags *diag.Engine, file *source.File, out io.Writer) error {
	for _, d := range diags.Diagnostics() {
		if d.HasLoc {
			fmt.Fprintf(out, "%s: %s: %s\n", file.String(d.Location), d.Severity, d.Message)
		} else {
			fmt.Fprintf(out, "%s: %s\n", d.Severity, d.Message)
		}
	}

	return diags.Combine()
}
