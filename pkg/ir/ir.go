// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0

// Package ir is the native IR that pkg/codegen lowers FunctionDecls to and
// pkg/metacodegen lowers MetaDecls' emitter bodies to (spec.md §4.3/§4.4):
// a module of functions, each a list of basic blocks of instructions over a
// single 32-bit-wide value type (spec.md §4.3: "all values have the single
// runtime width... booleans widen to the same width by zero-extension").
// There is no SSA phi-node form here — locals are always stack slots
// (spec.md §4.3: "every local VarDecl is stack-allocated"), loaded and
// stored explicitly, matching a straightforward non-optimising lowering.
package ir

// ValueID names one instruction's result within its function, or a
// function's parameter/local slot. Dense per-function, suitable for a
// bitset-backed liveness or generation-guard set (see pkg/codegen).
type ValueID uint32

// BlockID names one basic block within its function.
type BlockID uint32

// Op enumerates the instruction opcodes a function body lowers to.
type Op uint8

const (
	// OpConst loads a constant int32.
	OpConst Op = iota
	// OpLoad reads a stack slot's current value.
	OpLoad
	// OpStore writes a stack slot.
	OpStore
	// OpBinOp applies a binary operator (see ast.BinaryOperator) to two
	// already-loaded operands.
	OpBinOp
	// OpCall calls a function by name, passing loaded argument values.
	// pkg/codegen marks every call lowered from a call expression
	// tail-eligible (spec.md §4.3: "the call is marked tail-eligible");
	// the emitters' host callbacks are not.
	OpCall
	// OpZeroExt widens a 1-bit comparison result to the common width.
	OpZeroExt
	// OpNodeConst loads a compile-time reference to a template AST node,
	// used only by pkg/metacodegen's emitters to pass a `contribute`
	// callback the node address spec.md §4.4 describes. Not a runtime
	// integer value; never appears in ordinary function codegen.
	OpNodeConst
)

// Instr is one instruction: an optional result (Result) computed from Op
// applied to Args, plus opcode-specific payload fields used only by the
// opcodes that need them.
type Instr struct {
	Result ValueID
	Op     Op
	Args   []ValueID

	// Slot identifies the stack slot for OpLoad/OpStore.
	Slot ValueID
	// ConstValue is OpConst's literal.
	ConstValue int32
	// BinOp is OpBinOp's operator, stored as the ast package's own
	// BinaryOperator numbering to avoid a redundant enum.
	BinOp uint8
	// Callee is OpCall's target function name.
	Callee string
	// TailEligible marks an OpCall as spec.md §4.3 describes.
	TailEligible bool
	// NodeRef is OpNodeConst's payload: an ast.Node, typed `any` here so
	// this package stays independent of pkg/ast. Only pkg/metacodegen's
	// emitters and pkg/executor's interpreter ever read it.
	NodeRef any
}

// Terminator ends a block: exactly one of Return/Jump/Branch is set,
// matching the canonical-diamond shape spec.md §4.3 describes for `if`.
type Terminator struct {
	// IsReturn marks a `return` terminator. ReturnValue is only meaningful
	// when HasValue is true; a bare `return` with no expression at the end
	// of a non-returning body lowers to IsReturn with HasValue false
	// (spec.md §4.3: "implicit return... emits a return void").
	IsReturn    bool
	HasValue    bool
	ReturnValue ValueID

	// IsJump marks an unconditional jump to Target.
	IsJump bool
	Target BlockID

	// IsBranch marks a conditional branch: Cond true goes to TrueTarget,
	// false to FalseTarget. The continue block a diamond rejoins at is
	// created lazily by the builder and referenced as an ordinary Target —
	// omitted entirely when both arms terminate (spec.md §4.3).
	IsBranch    bool
	Cond        ValueID
	TrueTarget  BlockID
	FalseTarget BlockID
}

// Block is a single-entry, single-exit sequence of instructions ending in
// exactly one Terminator.
type Block struct {
	ID    BlockID
	Instr []Instr
	Term  Terminator
}

// Param is one function parameter slot.
type Param struct {
	Name string
	Slot ValueID
}

// Function is one lowered FunctionDecl or meta emitter.
type Function struct {
	Name       string
	Params     []Param
	HasResult  bool
	NumLocals  int
	Blocks     []*Block
	Entry      BlockID
	// External marks a prototype with no block bodies, shipped to satisfy
	// a cross-module call's linkage (spec.md §4.5 step 4: "clone its
	// prototype into the pending shipment").
	External bool
}

// Module is a set of functions shipped together to the executor (spec.md
// §4.5's "pending shipment" and the final amalgamation module pkg/driver
// assembles).
type Module struct {
	Name      string
	functions []*Function
	byName    map[string]*Function
}

// NewModule constructs an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]*Function)}
}

// Functions returns every function in declaration order.
func (m *Module) Functions() []*Function { return m.functions }

// Function looks up a function by name.
func (m *Module) Function(name string) (*Function, bool) {
	fn, ok := m.byName[name]
	return fn, ok
}

// AddFunction registers fn, panicking if the name is already taken —
// mirroring Consensys-go-corset/pkg/ir.SchemaBuilder.NewModule's duplicate-
// name panic, the idiom this package's builder follows throughout.
func (m *Module) AddFunction(fn *Function) {
	if _, exists := m.byName[fn.Name]; exists {
		panic("ir: duplicate function name " + fn.Name)
	}

	m.functions = append(m.functions, fn)
	m.byName[fn.Name] = fn
}
