package arraytype

import (
	"tinygo.org/x/go-llvm"
)

// arrayLoadBody builds `elem array_load(arr, idx) { return arr[idx]; }`,
// ported from the original extension's array_load_impl.
func arrayLoadBody(elemCty interface{}) func(b *llvm.Builder, fn llvm.Value) {
	cty := elemCty.(llvm.Type)
	return func(b *llvm.Builder, fn llvm.Value) {
		entry := llvm.AddBasicBlock(fn, "entry")
		b.SetInsertPointAtEnd(entry)
		array, idx := fn.Param(0), fn.Param(1)
		elem := b.CreateGEP2(cty, array, []llvm.Value{idx}, "")
		b.CreateRet(b.CreateLoad2(cty, elem, ""))
	}
}

// arrayStoreBody builds `void array_store(arr, value, idx) { arr[idx] =
// value; }`, ported from the original extension's array_store_impl.
func arrayStoreBody(elemCty interface{}) func(b *llvm.Builder, fn llvm.Value) {
	cty := elemCty.(llvm.Type)
	return func(b *llvm.Builder, fn llvm.Value) {
		entry := llvm.AddBasicBlock(fn, "entry")
		b.SetInsertPointAtEnd(entry)
		array, value, idx := fn.Param(0), fn.Param(1), fn.Param(2)
		elem := b.CreateGEP2(cty, array, []llvm.Value{idx}, "")
		b.CreateStore(value, elem)
		b.CreateRetVoid()
	}
}

// arrayAddBody builds the elementwise `void array_add(lhs, rhs, dst,
// count) { for (i = 0; i < count; i++) dst[i] = lhs[i] + rhs[i]; }` loop,
// ported from the original extension's array_arith_impl. The entry block
// skips the loop when count is 0, and the loop condition tests the
// incremented index, so exactly count elements are written. No other
// bounds check is made.
func arrayAddBody(elemCty interface{}, isFloat bool) func(b *llvm.Builder, fn llvm.Value) {
	cty := elemCty.(llvm.Type)
	return func(b *llvm.Builder, fn llvm.Value) {
		lhs, rhs, dst, count := fn.Param(0), fn.Param(1), fn.Param(2), fn.Param(3)
		addrTy := count.Type()

		entry := llvm.AddBasicBlock(fn, "entry")
		body := llvm.AddBasicBlock(fn, "body")
		exit := llvm.AddBasicBlock(fn, "exit")

		b.SetInsertPointAtEnd(entry)
		zero := llvm.ConstInt(addrTy, 0, false)
		one := llvm.ConstInt(addrTy, 1, false)
		b.CreateCondBr(b.CreateICmp(llvm.IntULT, zero, count, ""), body, exit)

		b.SetInsertPointAtEnd(body)
		idx := b.CreatePHI(addrTy, "idx")
		idx.AddIncoming([]llvm.Value{zero}, []llvm.BasicBlock{entry})

		lElem := b.CreateGEP2(cty, lhs, []llvm.Value{idx}, "")
		rElem := b.CreateGEP2(cty, rhs, []llvm.Value{idx}, "")
		dElem := b.CreateGEP2(cty, dst, []llvm.Value{idx}, "")
		lVal := b.CreateLoad2(cty, lElem, "")
		rVal := b.CreateLoad2(cty, rElem, "")

		var sum llvm.Value
		if isFloat {
			sum = b.CreateFAdd(lVal, rVal, "")
		} else {
			sum = b.CreateAdd(lVal, rVal, "")
		}
		b.CreateStore(sum, dElem)

		idxNext := b.CreateAdd(idx, one, "idx.next")
		idx.AddIncoming([]llvm.Value{idxNext}, []llvm.BasicBlock{body})

		pred := b.CreateICmp(llvm.IntULT, idxNext, count, "")
		b.CreateCondBr(pred, body, exit)

		b.SetInsertPointAtEnd(exit)
		b.CreateRetVoid()
	}
}
