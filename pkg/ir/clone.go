// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ir

// CloneWithRemap deep-copies fn, rewriting every OpCall's Callee through
// remap (a symbol renamed by remap returns the renamed string; a symbol
// absent from remap is left unchanged). This is the shipment-time clone
// spec.md §4.5 step 4 names ("Clone-with-remap rewrites internal
// references so cross-module function calls go through prototypes with
// external linkage"), grounded directly on original_source/src/AST/
// ASTCloner.cpp's shape: a structural copy paired with a rewrite of every
// contained back-reference through a remap table, generalised here from
// AST nodes to IR call instructions since pkg/ir has no DeclRef of its own
// to relink — a call's only cross-function reference is its callee name.
func CloneWithRemap(fn *Function, remap map[string]string) *Function {
	clone := &Function{
		Name:      rename(fn.Name, remap),
		Params:    append([]Param(nil), fn.Params...),
		HasResult: fn.HasResult,
		NumLocals: fn.NumLocals,
		Entry:     fn.Entry,
		External:  fn.External,
	}

	for _, blk := range fn.Blocks {
		clone.Blocks = append(clone.Blocks, cloneBlock(blk, remap))
	}

	return clone
}

func cloneBlock(blk *Block, remap map[string]string) *Block {
	out := &Block{ID: blk.ID, Term: blk.Term}

	for _, in := range blk.Instr {
		clone := in
		clone.Args = append([]ValueID(nil), in.Args...)

		if in.Op == OpCall {
			clone.Callee = rename(in.Callee, remap)
		}

		out.Instr = append(out.Instr, clone)
	}

	return out
}

func rename(name string, remap map[string]string) string {
	if renamed, ok := remap[name]; ok {
		return renamed
	}

	return name
}

// AsPrototype returns a copy of fn with its block bodies stripped, suitable
// for shipping as an external-linkage declaration ahead of its definition
// (spec.md §4.5's cycle policy: "the shipment loop handles [ordinary
// function-level recursion] by emitting prototypes first and definitions
// in a later shipment").
func AsPrototype(fn *Function) *Function {
	return &Function{
		Name:      fn.Name,
		Params:    append([]Param(nil), fn.Params...),
		HasResult: fn.HasResult,
		External:  true,
	}
}
