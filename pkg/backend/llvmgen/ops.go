package llvmgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend"
	"github.com/sklam/mlvm/pkg/ir"
	mtypes "github.com/sklam/mlvm/pkg/types"
)

// registerDefaultOperations populates be's Registry with the default
// lowering of every arithmetic and comparison opcode for every built-in
// numeric type. cast, ref, load, store, assign and call are not
// registered here: the Translator lowers them directly, the same way the
// teacher's transform.go special-cases a handful of node kinds instead of
// dispatching them through a generic table.
func (be *Backend) registerDefaultOperations() {
	for _, t := range mtypes.SignedInts {
		be.registerIntArith(t, true)
		be.registerIntCompare(t, true)
	}
	for _, t := range mtypes.UnsignedInts {
		be.registerIntArith(t, false)
		be.registerIntCompare(t, false)
	}
	for _, t := range mtypes.Reals {
		be.registerFloatArith(t)
		be.registerFloatCompare(t)
	}
	// pred behaves like an unsigned 1-bit integer for arithmetic/compare.
	be.registerIntArith(mtypes.Pred, false)
	be.registerIntCompare(mtypes.Pred, false)
}

func (be *Backend) registerIntArith(t string, signed bool) {
	argtys := []string{t, t}
	be.RegisterOperation(ir.OpAdd, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateAdd(l, r, "") }))
	be.RegisterOperation(ir.OpSub, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateSub(l, r, "") }))
	be.RegisterOperation(ir.OpMul, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateMul(l, r, "") }))
	if signed {
		be.RegisterOperation(ir.OpDiv, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateSDiv(l, r, "") }))
		be.RegisterOperation(ir.OpRem, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateSRem(l, r, "") }))
	} else {
		be.RegisterOperation(ir.OpDiv, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateUDiv(l, r, "") }))
		be.RegisterOperation(ir.OpRem, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateURem(l, r, "") }))
	}
}

func (be *Backend) registerFloatArith(t string) {
	argtys := []string{t, t}
	be.RegisterOperation(ir.OpAdd, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateFAdd(l, r, "") }))
	be.RegisterOperation(ir.OpSub, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateFSub(l, r, "") }))
	be.RegisterOperation(ir.OpMul, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateFMul(l, r, "") }))
	be.RegisterOperation(ir.OpDiv, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateFDiv(l, r, "") }))
	be.RegisterOperation(ir.OpRem, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value { return b.CreateFRem(l, r, "") }))
}

// registerIntCompare fixes the upstream bug this backend is explicitly
// redesigned to no longer have: every one of the six predicates gets its
// own signed or unsigned IntPredicate, rather than always lowering to a
// single hard-coded "less than".
func (be *Backend) registerIntCompare(t string, signed bool) {
	argtys := []string{t, t}
	preds := map[string]llvm.IntPredicate{
		ir.CmpEQ: llvm.IntEQ,
		ir.CmpNE: llvm.IntNE,
	}
	if signed {
		preds[ir.CmpLT] = llvm.IntSLT
		preds[ir.CmpLE] = llvm.IntSLE
		preds[ir.CmpGT] = llvm.IntSGT
		preds[ir.CmpGE] = llvm.IntSGE
	} else {
		preds[ir.CmpLT] = llvm.IntULT
		preds[ir.CmpLE] = llvm.IntULE
		preds[ir.CmpGT] = llvm.IntUGT
		preds[ir.CmpGE] = llvm.IntUGE
	}
	for pred, llPred := range preds {
		llPred := llPred
		be.RegisterOperation("cmp."+pred, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value {
			return b.CreateICmp(llPred, l, r, "")
		}))
	}
}

func (be *Backend) registerFloatCompare(t string) {
	argtys := []string{t, t}
	preds := map[string]llvm.FloatPredicate{
		ir.CmpEQ: llvm.FloatOEQ,
		ir.CmpNE: llvm.FloatONE,
		ir.CmpLT: llvm.FloatOLT,
		ir.CmpLE: llvm.FloatOLE,
		ir.CmpGT: llvm.FloatOGT,
		ir.CmpGE: llvm.FloatOGE,
	}
	for pred, llPred := range preds {
		llPred := llPred
		be.RegisterOperation("cmp."+pred, argtys, intBinOp(func(b *llvm.Builder, l, r llvm.Value) llvm.Value {
			return b.CreateFCmp(llPred, l, r, "")
		}))
	}
}

// intBinOp adapts a (builder, lhs, rhs) -> llvm.Value function into a
// backend.OperationImplementation.
func intBinOp(fn func(b *llvm.Builder, l, r llvm.Value) llvm.Value) backend.OperationImplementation {
	return func(tb backend.TranslateBuilder, operands []interface{}) (interface{}, error) {
		b := tb.Handle().(*llvm.Builder)
		return fn(b, operands[0].(llvm.Value), operands[1].(llvm.Value)), nil
	}
}
