// Package arraytype is an installable extension adding one pointer-like
// array_<elem> type per built-in integer, address and real element type,
// plus array_load/array_store/array_add intrinsics over them. It does no
// bounds checking, matching the extension this is ported from.
//
// Install it against both an ir.Context and a llvmgen.Backend:
//
//	ctx.Install(arraytype.New())
//	be.Install(arraytype.New())
package arraytype

import (
	"fmt"

	"github.com/sklam/mlvm/pkg/backend/llvmgen"
	"github.com/sklam/mlvm/pkg/ir"
	mtypes "github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Extension installs the array_<elem> types and their load/store/add
// intrinsics into an ir.Context and a llvmgen.Backend. It carries no
// state of its own; every installed type name is deterministic.
type Extension struct{}

// ---------------------
// ----- Constants -----
// ---------------------

// IntegerElementTypes lists every built-in type array_add lowers with
// integer (possibly unsigned) addition: the signed and unsigned integer
// types plus address, matching the original extension's INTEGER_TYPES.
var IntegerElementTypes = append(append([]string{}, mtypes.Ints...), mtypes.Address)

// RealElementTypes lists the floating-point element types array_add
// lowers with float addition.
var RealElementTypes = append([]string{}, mtypes.Reals...)

// ElementTypes lists every element type an array_<elem> type and its
// array_load/array_store intrinsics are installed for.
var ElementTypes = append(append([]string{}, IntegerElementTypes...), RealElementTypes...)

// ---------------------
// ----- functions -----
// ---------------------

// New returns an Extension.
func New() *Extension { return &Extension{} }

// TypeName returns the array type name installed for elem, e.g.
// TypeName("int32") == "array_int32".
func TypeName(elem string) string {
	return "array_" + elem
}

// InstallToContext declares the array_<elem> types and the array_load,
// array_store and array_add intrinsics (with one overload per applicable
// element type) against ctx. Every element type here is one already
// valid in ctx's type system, so the only way AddType/AddDefinition could
// fail is a bug in this extension itself — panicking on that surfaces it
// immediately instead of silently installing a partial extension.
func (e *Extension) InstallToContext(ctx *ir.Context) {
	arrayLoad, err := ctx.AddIntrinsic("array_load")
	must(err)
	arrayStore, err := ctx.AddIntrinsic("array_store")
	must(err)
	arrayAdd, err := ctx.AddIntrinsic("array_add")
	must(err)

	for _, elem := range ElementTypes {
		arr := TypeName(elem)
		ctx.TypeSystem().AddType(arr)

		_, err := arrayLoad.AddDefinition(elem, []string{arr, mtypes.Address})
		must(err)
		_, err = arrayStore.AddDefinition(mtypes.Void, []string{arr, elem, mtypes.Address})
		must(err)
	}
	for _, elem := range IntegerElementTypes {
		arr := TypeName(elem)
		_, err := arrayAdd.AddDefinition(mtypes.Void, []string{arr, arr, arr, mtypes.Address})
		must(err)
	}
	for _, elem := range RealElementTypes {
		arr := TypeName(elem)
		_, err := arrayAdd.AddDefinition(mtypes.Void, []string{arr, arr, arr, mtypes.Address})
		must(err)
	}
}

// InstallToBackend registers each array_<elem> type's pointer-to-elem
// representation and builds the LLVM body of every array_load,
// array_store and array_add specialization, against be. Like
// InstallToContext, every failure here would mean a bug in this
// extension (an element type be doesn't already implement), so errors
// panic rather than propagate through an interface method that has no
// way to return one.
func (e *Extension) InstallToBackend(be *llvmgen.Backend) {
	for _, elem := range ElementTypes {
		arr := TypeName(elem)
		must(be.RegisterPointerLikeType(arr, elem))

		elemImpl, err := be.TypeImplementation(elem)
		must(err)
		elemCty := elemImpl.CType()

		must(be.DefineIntrinsic("array_load", []string{arr, mtypes.Address}, elem, arrayLoadBody(elemCty)))
		must(be.DefineIntrinsic("array_store", []string{arr, elem, mtypes.Address}, mtypes.Void, arrayStoreBody(elemCty)))
	}
	for _, elem := range IntegerElementTypes {
		arr := TypeName(elem)
		elemImpl, err := be.TypeImplementation(elem)
		must(err)
		must(be.DefineIntrinsic("array_add", []string{arr, arr, arr, mtypes.Address}, mtypes.Void, arrayAddBody(elemImpl.CType(), false)))
	}
	for _, elem := range RealElementTypes {
		arr := TypeName(elem)
		elemImpl, err := be.TypeImplementation(elem)
		must(err)
		must(be.DefineIntrinsic("array_add", []string{arr, arr, arr, mtypes.Address}, mtypes.Void, arrayAddBody(elemImpl.CType(), true)))
	}
}

func must(err error) {
	if err != nil {
		panic(fmt.Errorf("arraytype: %w", err))
	}
}
