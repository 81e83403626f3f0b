package llvmgen

import (
	"strings"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/ir"
)

func isCast(name string) bool { return strings.HasPrefix(name, "cast.") }
func isCall(name string) bool { return strings.HasPrefix(name, "call.") }

func (tr *Translator) translateCast(tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value) (interface{}, error) {
	src := op.Operands()[0]
	value, err := resolve(values, src)
	if err != nil {
		return nil, err
	}
	fromImpl, err := tr.be.TypeImplementation(src.Type())
	if err != nil {
		return nil, err
	}
	toImpl, err := tr.be.TypeImplementation(op.Type())
	if err != nil {
		return nil, err
	}
	return convert(tb.b, value, fromImpl.(*typeImpl), toImpl.(*typeImpl))
}

// convert selects the LLVM conversion instruction for a from->to pair
// purely from each side's typeKind and bit width — the generalization of
// the teacher's narrower int<->int/int<->float casts to every built-in
// combination, plus pointer<->pointer and pointer<->address
// reinterpretation.
func convert(b *llvm.Builder, v llvm.Value, from, to *typeImpl) (llvm.Value, error) {
	if from.cty == to.cty {
		return v, nil
	}
	switch {
	case isIntKind(from.kind) && isIntKind(to.kind):
		fw, tw := from.cty.IntTypeWidth(), to.cty.IntTypeWidth()
		switch {
		case tw > fw:
			if from.kind == kindInt {
				return b.CreateSExt(v, to.cty, ""), nil
			}
			return b.CreateZExt(v, to.cty, ""), nil
		case tw < fw:
			return b.CreateTrunc(v, to.cty, ""), nil
		default:
			return v, nil
		}
	case isIntKind(from.kind) && to.kind == kindFloat:
		if from.kind == kindInt {
			return b.CreateSIToFP(v, to.cty, ""), nil
		}
		return b.CreateUIToFP(v, to.cty, ""), nil
	case from.kind == kindFloat && isIntKind(to.kind):
		if to.kind == kindInt {
			return b.CreateFPToSI(v, to.cty, ""), nil
		}
		return b.CreateFPToUI(v, to.cty, ""), nil
	case from.kind == kindFloat && to.kind == kindFloat:
		if to.cty.TypeKind() == llvm.DoubleTypeKind && from.cty.TypeKind() == llvm.FloatTypeKind {
			return b.CreateFPExt(v, to.cty, ""), nil
		}
		return b.CreateFPTrunc(v, to.cty, ""), nil
	case from.kind == kindPointer && to.kind == kindPointer:
		return b.CreateBitCast(v, to.cty, ""), nil
	case from.kind == kindPointer && isIntKind(to.kind):
		return b.CreatePtrToInt(v, to.cty, ""), nil
	case isIntKind(from.kind) && to.kind == kindPointer:
		return b.CreateIntToPtr(v, to.cty, ""), nil
	default:
		return llvm.Value{}, errors.Errorf("llvmgen: no conversion from %v to %v", from.kind, to.kind)
	}
}

func isIntKind(k typeKind) bool { return k == kindInt || k == kindUint }

func (tr *Translator) translateCall(mod llvm.Module, tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value) (interface{}, error) {
	def := op.Callee()
	argtys := def.ArgTypes()

	argCtys := make([]llvm.Type, len(argtys))
	for i, at := range argtys {
		ti, err := tr.be.TypeImplementation(at)
		if err != nil {
			return nil, err
		}
		argCtys[i] = ti.CType().(llvm.Type)
	}
	retImpl, err := tr.be.TypeImplementation(def.ReturnType())
	if err != nil {
		return nil, err
	}
	fnTy := llvm.FunctionType(retImpl.CType().(llvm.Type), argCtys, false)

	sym := mangle(def.Name(), argtys)
	callee := mod.NamedFunction(sym)
	if callee.IsNil() {
		callee = llvm.AddFunction(mod, sym, fnTy)
	}

	args := make([]llvm.Value, len(op.Operands()))
	for i, o := range op.Operands() {
		v, err := resolve(values, o)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	result := tb.b.CreateCall2(fnTy, callee, args, "")
	if !op.HasResult() {
		return nil, nil
	}
	return result, nil
}
