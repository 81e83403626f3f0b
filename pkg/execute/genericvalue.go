package execute

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend/llvmgen"
)

// toGenericValue marshals a host Go value into the llvm.GenericValue
// RunFunction expects for a parameter of IR type typ.
func toGenericValue(be *llvmgen.Backend, typ string, value interface{}) (llvm.GenericValue, error) {
	impl, err := be.TypeImplementation(typ)
	if err != nil {
		return llvm.GenericValue{}, err
	}
	cty := impl.CType().(llvm.Type)
	kind, err := be.Kind(typ)
	if err != nil {
		return llvm.GenericValue{}, err
	}
	switch kind {
	case llvmgen.KindInt:
		n, ok := toInt64(value)
		if !ok {
			return llvm.GenericValue{}, errors.Errorf("execute: %v is not an integer argument for %s", value, typ)
		}
		return llvm.NewGenericValueFromInt(cty, uint64(n), true), nil
	case llvmgen.KindUint:
		n, ok := toUint64(value)
		if !ok {
			return llvm.GenericValue{}, errors.Errorf("execute: %v is not an integer argument for %s", value, typ)
		}
		return llvm.NewGenericValueFromInt(cty, n, false), nil
	case llvmgen.KindFloat:
		f, ok := toFloat64(value)
		if !ok {
			return llvm.GenericValue{}, errors.Errorf("execute: %v is not a float argument for %s", value, typ)
		}
		return llvm.NewGenericValueFromFloat(cty, f), nil
	case llvmgen.KindPointer:
		p, err := pointerArgument(value)
		if err != nil {
			return llvm.GenericValue{}, errors.Wrapf(err, "execute: argument for %s", typ)
		}
		return llvm.NewGenericValueFromPointer(unsafe.Pointer(p)), nil //nolint:govet // address passed across the JIT boundary by design
	default:
		return llvm.GenericValue{}, errors.Errorf("execute: %s cannot be passed as an argument", typ)
	}
}

// fromGenericValue converts RunFunction's result back to a host Go
// value, per retty's kind. A void return yields nil.
func fromGenericValue(be *llvmgen.Backend, retty string, gv llvm.GenericValue) (interface{}, error) {
	if retty == "void" {
		return nil, nil
	}
	impl, err := be.TypeImplementation(retty)
	if err != nil {
		return nil, err
	}
	cty := impl.CType().(llvm.Type)
	kind, err := be.Kind(retty)
	if err != nil {
		return nil, err
	}
	switch kind {
	case llvmgen.KindInt:
		return int64(gv.Int(true)), nil
	case llvmgen.KindUint:
		return gv.Int(false), nil
	case llvmgen.KindFloat:
		return gv.Float(cty), nil
	case llvmgen.KindPointer:
		return uintptr(gv.Pointer()), nil //nolint:govet // address returned across the JIT boundary by design
	default:
		return nil, errors.Errorf("execute: %s cannot be returned", retty)
	}
}

// pointerArgument resolves a pointer-kind argument to the raw address
// RunFunction should receive: a uintptr is passed straight through, and
// any slice is resolved to the address of its backing array — the Go
// analogue of the original's buffer-protocol (memoryview) coercion,
// generalized to every pointer-kind type rather than special-cased for
// array_* alone.
func pointerArgument(value interface{}) (uintptr, error) {
	if p, ok := value.(uintptr); ok {
		return p, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return 0, errors.Errorf("%v (%T) is neither a uintptr nor a slice", value, value)
	}
	return rv.Pointer(), nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
