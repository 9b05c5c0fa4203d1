// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ir

// FunctionBuilder accumulates blocks and instructions for one Function,
// mirroring Consensys-go-corset/pkg/ir's ModuleBuilder: a thin stateful
// wrapper that allocates dense IDs and appends, rather than requiring the
// caller to manage slices and counters directly.
type FunctionBuilder struct {
	fn       *Function
	nextVal  ValueID
	nextSlot ValueID
	current  *Block
}

// NewFunctionBuilder starts building a function named name.
func NewFunctionBuilder(name string) *FunctionBuilder {
	return &FunctionBuilder{fn: &Function{Name: name}}
}

// AddParam declares a parameter, returning its stack slot.
func (b *FunctionBuilder) AddParam(name string) ValueID {
	slot := b.allocSlot()
	b.fn.Params = append(b.fn.Params, Param{Name: name, Slot: slot})

	return slot
}

// SetHasResult records whether the function declares a return type.
func (b *FunctionBuilder) SetHasResult(has bool) { b.fn.HasResult = has }

// AllocLocal reserves a fresh stack slot for a local variable.
func (b *FunctionBuilder) AllocLocal() ValueID { return b.allocSlot() }

func (b *FunctionBuilder) allocSlot() ValueID {
	s := b.nextSlot
	b.nextSlot++
	b.fn.NumLocals++

	return s
}

func (b *FunctionBuilder) allocValue() ValueID {
	v := b.nextVal
	b.nextVal++

	return v
}

// AllocBlock reserves a fresh, empty block without disturbing which block
// is current, for a block an if-diamond references before it is filled in
// (the true/false arms, and the lazily-created continue block).
func (b *FunctionBuilder) AllocBlock() BlockID {
	blk := &Block{ID: BlockID(len(b.fn.Blocks))}
	b.fn.Blocks = append(b.fn.Blocks, blk)

	if len(b.fn.Blocks) == 1 {
		b.fn.Entry = blk.ID
	}

	return blk.ID
}

// NewBlock allocates a fresh, empty block and makes it current.
func (b *FunctionBuilder) NewBlock() BlockID {
	id := b.AllocBlock()
	b.current = b.fn.Blocks[id]

	return id
}

// SetBlock makes an already-allocated block current, for finishing a block
// created earlier (e.g. an if's lazily-created continue block).
func (b *FunctionBuilder) SetBlock(id BlockID) { b.current = b.fn.Blocks[id] }

// Current returns the block currently being appended to.
func (b *FunctionBuilder) Current() BlockID { return b.current.ID }

func (b *FunctionBuilder) emit(i Instr) ValueID {
	b.current.Instr = append(b.current.Instr, i)
	return i.Result
}

// EmitConst emits a constant load.
func (b *FunctionBuilder) EmitConst(v int32) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpConst, ConstValue: v})
}

// EmitLoad emits a stack-slot read.
func (b *FunctionBuilder) EmitLoad(slot ValueID) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpLoad, Slot: slot})
}

// EmitStore emits a stack-slot write; it has no result value.
func (b *FunctionBuilder) EmitStore(slot, value ValueID) {
	b.current.Instr = append(b.current.Instr, Instr{Op: OpStore, Slot: slot, Args: []ValueID{value}})
}

// EmitBinOp emits a binary operator application.
func (b *FunctionBuilder) EmitBinOp(op uint8, left, right ValueID) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpBinOp, BinOp: op, Args: []ValueID{left, right}})
}

// EmitZeroExt emits a 1-bit-to-common-width widening.
func (b *FunctionBuilder) EmitZeroExt(v ValueID) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpZeroExt, Args: []ValueID{v}})
}

// EmitNodeConst emits a reference to a template AST node (see OpNodeConst).
func (b *FunctionBuilder) EmitNodeConst(node any) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpNodeConst, NodeRef: node})
}

// EmitCall emits a call, marked tail-eligible when tailEligible is true.
func (b *FunctionBuilder) EmitCall(callee string, args []ValueID, tailEligible bool) ValueID {
	r := b.allocValue()
	return b.emit(Instr{Result: r, Op: OpCall, Callee: callee, Args: args, TailEligible: tailEligible})
}

// SetReturn terminates the current block with a `return expr`.
func (b *FunctionBuilder) SetReturn(v ValueID) {
	b.current.Term = Terminator{IsReturn: true, HasValue: true, ReturnValue: v}
}

// SetReturnVoid terminates the current block with a bare `return`.
func (b *FunctionBuilder) SetReturnVoid() {
	b.current.Term = Terminator{IsReturn: true}
}

// SetJump terminates the current block with an unconditional jump.
func (b *FunctionBuilder) SetJump(target BlockID) {
	b.current.Term = Terminator{IsJump: true, Target: target}
}

// SetBranch terminates the current block with a conditional branch.
func (b *FunctionBuilder) SetBranch(cond ValueID, trueTarget, falseTarget BlockID) {
	b.current.Term = Terminator{IsBranch: true, Cond: cond, TrueTarget: trueTarget, FalseTarget: falseTarget}
}

// BlockTerminated reports whether the given block already has a
// terminator set, letting pkg/codegen decide whether a fallthrough jump or
// an implicit return still needs to be appended.
func (b *FunctionBuilder) BlockTerminated(id BlockID) bool {
	t := b.fn.Blocks[id].Term
	return t.IsReturn || t.IsJump || t.IsBranch
}

// Build finalises and returns the constructed function.
func (b *FunctionBuilder) Build() *Function { return b.fn }
