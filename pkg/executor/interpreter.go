// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package executor

import (
	"fmt"

	"github.com/metac-lang/metac/pkg/ast"
	"github.com/metac-lang/metac/pkg/ir"
	"github.com/metac-lang/metac/pkg/metacodegen"
)

// interpreter evaluates pkg/ir functions directly, standing in for the
// "specific native-code backend used for JIT" spec.md §1 explicitly places
// out of scope and "treated as a black-box Executor able to compile and
// address-resolve modules" — an in-process tree-walker over the control-
// flow IR satisfies that contract without this exercise needing to emit
// real machine code.
type interpreter struct {
	ctl *Controller
}

func newInterpreter(ctl *Controller) *interpreter {
	return &interpreter{ctl: ctl}
}

// run executes fn with args bound to its parameters in order, returning its
// result (and whether it had one).
func (it *interpreter) run(fn *ir.Function, args []int32) (int32, bool) {
	slots := make([]int32, fn.NumLocals)
	for i, p := range fn.Params {
		slots[p.Slot] = args[i]
	}

	values := make(map[ir.ValueID]int32)
	nodes := make(map[ir.ValueID]ast.Node)

	blk := fn.Blocks[fn.Entry]

	for {
		for _, instr := range blk.Instr {
			switch instr.Op {
			case ir.OpConst:
				values[instr.Result] = instr.ConstValue
			case ir.OpLoad:
				values[instr.Result] = slots[instr.Slot]
			case ir.OpStore:
				slots[instr.Slot] = values[instr.Args[0]]
			case ir.OpBinOp:
				values[instr.Result] = evalBinOp(ast.BinaryOperator(instr.BinOp), values[instr.Args[0]], values[instr.Args[1]])
			case ir.OpZeroExt:
				values[instr.Result] = values[instr.Args[0]]
			case ir.OpNodeConst:
				nodes[instr.Result] = instr.NodeRef.(ast.Node)
			case ir.OpCall:
				it.call(instr, values, nodes)
			default:
				panic(fmt.Sprintf("executor: unknown opcode %v", instr.Op))
			}
		}

		switch {
		case blk.Term.IsReturn:
			if blk.Term.HasValue {
				return values[blk.Term.ReturnValue], true
			}

			return 0, false
		case blk.Term.IsJump:
			blk = fn.Blocks[blk.Term.Target]
		case blk.Term.IsBranch:
			if values[blk.Term.Cond] != 0 {
				blk = fn.Blocks[blk.Term.TrueTarget]
			} else {
				blk = fn.Blocks[blk.Term.FalseTarget]
			}
		default:
			panic("executor: block has no terminator")
		}
	}
}

func (it *interpreter) call(instr ir.Instr, values map[ir.ValueID]int32, nodes map[ir.ValueID]ast.Node) {
	switch instr.Callee {
	case metacodegen.CallbackContribute:
		ic := it.ctl.writer(values[instr.Args[0]])
		ic.contribute(nodes[instr.Args[1]])
	case metacodegen.CallbackReduce:
		ic := it.ctl.writer(values[instr.Args[0]])
		ic.reduce()
	case metacodegen.CallbackIntroduce:
		ic := it.ctl.writer(values[instr.Args[0]])
		ic.introduce(nodes[instr.Args[1]], values[instr.Args[2]], metacodegen.Depth(values[instr.Args[3]]))
	case metacodegen.CallbackContributeValue:
		ic := it.ctl.writer(values[instr.Args[0]])
		ic.contributeValue(nodes[instr.Args[1]], values[instr.Args[2]])
	default:
		callee, ok := it.ctl.module.Function(instr.Callee)
		if !ok {
			panic("executor: internal error: call to unshipped function " + instr.Callee)
		}

		callArgs := make([]int32, len(instr.Args))
		for i, a := range instr.Args {
			callArgs[i] = values[a]
		}

		result, hasResult := it.run(callee, callArgs)
		if hasResult {
			values[instr.Result] = result
		}
	}
}

// evalBinOp applies op over 32-bit operands, matching pkg/codegen's
// OpBinOp semantics: comparisons and logical operators produce 0/1, widened
// identically by OpZeroExt (a no-op at this width in the interpreter).
func evalBinOp(op ast.BinaryOperator, l, r int32) int32 {
	b2i := func(b bool) int32 {
		if b {
			return 1
		}

		return 0
	}

	switch op {
	case ast.OpOr:
		return b2i(l != 0 || r != 0)
	case ast.OpAnd:
		return b2i(l != 0 && r != 0)
	case ast.OpEq:
		return b2i(l == r)
	case ast.OpNe:
		return b2i(l != r)
	case ast.OpLt:
		return b2i(l < r)
	case ast.OpLe:
		return b2i(l <= r)
	case ast.OpGt:
		return b2i(l > r)
	case ast.OpGe:
		return b2i(l >= r)
	case ast.OpAdd:
		return l + r
	case ast.OpSub:
		return l - r
	case ast.OpMul:
		return l * r
	default:
		panic("executor: unknown binary operator")
	}
}
