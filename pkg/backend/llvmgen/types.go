package llvmgen

import (
	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend"
	mtypes "github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// typeKind distinguishes the handful of ways a typeImpl materializes a
// constant and reports its signedness to LLVM's integer instructions.
type typeKind int

const (
	kindInt typeKind = iota
	kindUint
	kindFloat
	kindPointer
	kindVoid
)

// typeImpl is the default backend.TypeImplementation for every built-in
// type and for pointer types synthesized on demand. It is stateless: all
// of its methods take tc, an opaque *llvm.Builder positioned wherever the
// Translator currently needs code emitted.
type typeImpl struct {
	cty  llvm.Type
	kind typeKind
}

// ---------------------
// ----- functions -----
// ---------------------

func newTypeImpl(cty llvm.Type, kind typeKind) *typeImpl {
	return &typeImpl{cty: cty, kind: kind}
}

// CType returns the typeImpl's llvm.Type, boxed as interface{}.
func (t *typeImpl) CType() interface{} { return t.cty }

// Allocate emits an alloca for t's type at tc's current insertion point.
func (t *typeImpl) Allocate(tc interface{}, name string) (interface{}, error) {
	b := tc.(*llvm.Builder)
	return b.CreateAlloca(t.cty, name), nil
}

// Load emits a load of t's type from addr.
func (t *typeImpl) Load(tc interface{}, addr interface{}) (interface{}, error) {
	b := tc.(*llvm.Builder)
	return b.CreateLoad2(t.cty, addr.(llvm.Value), ""), nil
}

// Store emits a store of value to addr.
func (t *typeImpl) Store(tc interface{}, value, addr interface{}) error {
	b := tc.(*llvm.Builder)
	b.CreateStore(value.(llvm.Value), addr.(llvm.Value))
	return nil
}

// Constant materializes value as an llvm.Value constant of t's type.
func (t *typeImpl) Constant(tc interface{}, value interface{}) (interface{}, error) {
	switch t.kind {
	case kindFloat:
		f, ok := toFloat64(value)
		if !ok {
			return nil, errors.Errorf("llvmgen: %v is not a float-like constant", value)
		}
		return llvm.ConstFloat(t.cty, f), nil
	case kindInt, kindUint:
		i, ok := toInt64(value)
		if !ok {
			return nil, errors.Errorf("llvmgen: %v is not an integer-like constant", value)
		}
		return llvm.ConstInt(t.cty, uint64(i), t.kind == kindInt), nil
	case kindPointer:
		i, ok := toInt64(value)
		if !ok {
			return nil, errors.Errorf("llvmgen: %v is not a pointer-like constant", value)
		}
		iptr := llvm.ConstInt(llvm.Int64Type(), uint64(i), false)
		return llvm.ConstIntToPtr(iptr, t.cty), nil
	default:
		return nil, errors.Errorf("llvmgen: void has no constant representation")
	}
}

// CTypeArgument is the identity coercion: built-in types, synthesized
// pointer types and RegisterPointerLikeType types (e.g. ext/arraytype's)
// all cross the host calling convention unchanged. Slice-to-pointer
// coercion for host calls happens in execute, not here.
func (t *typeImpl) CTypeArgument(tc interface{}, value interface{}) (interface{}, error) {
	return value, nil
}

// CTypeReturn is the identity coercion; see CTypeArgument.
func (t *typeImpl) CTypeReturn(tc interface{}, value interface{}) (interface{}, error) {
	return value, nil
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
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
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

// registerDefaultTypes populates be's Registry with a TypeImplementation
// for every built-in type named in mtypes.
func (be *Backend) registerDefaultTypes() {
	width := be.opt.addressWidth()

	intTy := map[string]llvm.Type{
		mtypes.Int8: llvm.Int8Type(), mtypes.Int16: llvm.Int16Type(),
		mtypes.Int32: llvm.Int32Type(), mtypes.Int64: llvm.Int64Type(),
		mtypes.Uint8: llvm.Int8Type(), mtypes.Uint16: llvm.Int16Type(),
		mtypes.Uint32: llvm.Int32Type(), mtypes.Uint64: llvm.Int64Type(),
	}
	for _, n := range mtypes.SignedInts {
		be.RegisterType(n, newTypeImpl(intTy[n], kindInt))
	}
	for _, n := range mtypes.UnsignedInts {
		be.RegisterType(n, newTypeImpl(intTy[n], kindUint))
	}
	be.RegisterType(mtypes.Float, newTypeImpl(llvm.FloatType(), kindFloat))
	be.RegisterType(mtypes.Double, newTypeImpl(llvm.DoubleType(), kindFloat))
	be.RegisterType(mtypes.Pred, newTypeImpl(llvm.Int1Type(), kindUint))
	be.RegisterType(mtypes.Address, newTypeImpl(llvm.IntType(width), kindUint))
	be.RegisterType(mtypes.Void, newTypeImpl(llvm.VoidType(), kindVoid))
}

// Kind classifies how a type's values are represented at the LLVM level,
// exported so other packages (execute's GenericValue marshaling) can
// pick the right conversion without reaching into typeImpl's unexported
// fields.
type Kind int

// Kind values, one per typeKind.
const (
	KindInt Kind = iota
	KindUint
	KindFloat
	KindPointer
	KindVoid
)

// Kind returns typ's representation Kind.
func (be *Backend) Kind(typ string) (Kind, error) {
	impl, err := be.TypeImplementation(typ)
	if err != nil {
		return 0, err
	}
	ti := impl.(*typeImpl)
	switch ti.kind {
	case kindInt:
		return KindInt, nil
	case kindUint:
		return KindUint, nil
	case kindFloat:
		return KindFloat, nil
	case kindPointer:
		return KindPointer, nil
	default:
		return KindVoid, nil
	}
}

// RegisterPointerLikeType installs a pointer-to-elem TypeImplementation
// under typ — the same representation on-demand pointer synthesis gives
// "elem*", but reachable under a name that doesn't carry the trailing
// '*' naming convention. ext/arraytype uses this for its array_<elem>
// type names, which behave exactly like elem* at the LLVM level but are
// their own registered type names in the type system, not synthesized
// pointer types.
func (be *Backend) RegisterPointerLikeType(typ, elem string) error {
	elemImpl, err := be.TypeImplementation(elem)
	if err != nil {
		return err
	}
	elemCty := elemImpl.CType().(llvm.Type)
	be.RegisterType(typ, newTypeImpl(llvm.PointerType(elemCty, 0), kindPointer))
	return nil
}

// TypeImplementation returns be's registered implementation for typ,
// synthesizing and caching a pointer TypeImplementation on first request
// for any pointer type name not yet seen — the LLVM analogue of
// types.System's on-demand pointer-type synthesis.
func (be *Backend) TypeImplementation(typ string) (backend.TypeImplementation, error) {
	if impl, err := be.Registry.TypeImplementation(typ); err == nil {
		return impl, nil
	}
	pointee, ok := mtypes.Pointee(typ)
	if !ok {
		return nil, &backend.TypeUnimplementedError{Type: typ}
	}
	elem, err := be.TypeImplementation(pointee)
	if err != nil {
		return nil, err
	}
	elemCty := elem.CType().(llvm.Type)
	impl := newTypeImpl(llvm.PointerType(elemCty, 0), kindPointer)
	be.RegisterType(typ, impl)
	return impl, nil
}
