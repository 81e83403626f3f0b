package arraytype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklam/mlvm/pkg/ext/arraytype"
	"github.com/sklam/mlvm/pkg/ir"
	mtypes "github.com/sklam/mlvm/pkg/types"
)

// Like backend/llvmgen and execute, this package stops short of
// exercising actual LLVM codegen in tests; InstallToContext is pure Go
// and ir bookkeeping, so it is safe to exercise directly.

func TestTypeName(t *testing.T) {
	assert.Equal(t, "array_int32", arraytype.TypeName(mtypes.Int32))
}

func TestInstallToContextDeclaresEveryElementType(t *testing.T) {
	ctx := ir.NewContext(nil)
	ctx.Install(arraytype.New())

	ts := ctx.TypeSystem()
	for _, elem := range arraytype.ElementTypes {
		arr := arraytype.TypeName(elem)
		assert.Truef(t, ts.IsTypeValid(arr), "expected %q installed", arr)

		load := ctx.GetIntrinsic("array_load")
		require.NotNil(t, load)
		assert.True(t, load.HasDefinition([]string{arr, mtypes.Address}))

		store := ctx.GetIntrinsic("array_store")
		require.NotNil(t, store)
		assert.True(t, store.HasDefinition([]string{arr, elem, mtypes.Address}))
	}
}

func TestInstallToContextArrayAddCoversIntegerAndRealElements(t *testing.T) {
	ctx := ir.NewContext(nil)
	ctx.Install(arraytype.New())

	add := ctx.GetIntrinsic("array_add")
	require.NotNil(t, add)

	for _, elem := range append(append([]string{}, arraytype.IntegerElementTypes...), arraytype.RealElementTypes...) {
		arr := arraytype.TypeName(elem)
		assert.Truef(t, add.HasDefinition([]string{arr, arr, arr, mtypes.Address}), "expected array_add(%s) installed", arr)
	}
}

func TestInstallToContextTwiceFails(t *testing.T) {
	assert.Panics(t, func() {
		ctx := ir.NewContext(nil)
		ext := arraytype.New()
		ctx.Install(ext)
		ctx.Install(ext)
	})
}
