package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklam/mlvm/pkg/ir"
	"github.com/sklam/mlvm/pkg/types"
)

func newTestContext() *ir.Context {
	return ir.NewContext(types.New())
}

// TestFunctionDefinitionLifecycle verifies a definition starts as a
// declaration, can be implemented exactly once (I: ReimplementationError
// on a second attempt), and MissingImplementation is returned while still
// a declaration.
func TestFunctionDefinitionLifecycle(t *testing.T) {
	ctx := newTestContext()
	f, err := ctx.AddFunction("add_one")
	require.NoError(t, err)

	def, err := f.AddDefinition(types.Int32, []string{types.Int32})
	require.NoError(t, err)
	assert.True(t, def.IsDeclaration())

	_, err = def.Implementation()
	var missing *ir.MissingImplementation
	require.ErrorAs(t, err, &missing)

	impl, err := def.Implement()
	require.NoError(t, err)
	assert.False(t, def.IsDeclaration())
	assert.Len(t, impl.Arguments(), 1)
	assert.Equal(t, types.Int32, impl.Arguments()[0].Type())

	_, err = def.Implement()
	var reimpl *ir.ReimplementationError
	require.ErrorAs(t, err, &reimpl)
}

// TestAddDefinitionCollision verifies AlreadyDefined is returned for a
// duplicate argument-type tuple and for a duplicate function name.
func TestAddDefinitionCollision(t *testing.T) {
	ctx := newTestContext()
	f, err := ctx.AddFunction("foo")
	require.NoError(t, err)

	_, err = f.AddDefinition(types.Int32, []string{types.Int32})
	require.NoError(t, err)

	_, err = f.AddDefinition(types.Int64, []string{types.Int32})
	var already *ir.AlreadyDefined
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "definition", already.Kind)

	_, err = ctx.AddFunction("foo")
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "function", already.Kind)
}

// TestFunctionsAndIntrinsicsAreSeparateNamespaces verifies a function and
// an intrinsic may share a name without colliding.
func TestFunctionsAndIntrinsicsAreSeparateNamespaces(t *testing.T) {
	ctx := newTestContext()
	_, err := ctx.AddFunction("array_load")
	require.NoError(t, err)
	_, err = ctx.AddIntrinsic("array_load")
	require.NoError(t, err)
}

// TestInvalidTypeRejected verifies AddDefinition validates every type
// name against the owning Context's type system.
func TestInvalidTypeRejected(t *testing.T) {
	ctx := newTestContext()
	f, err := ctx.AddFunction("foo")
	require.NoError(t, err)

	_, err = f.AddDefinition("not_a_type", nil)
	var invalid *types.InvalidTypeName
	require.ErrorAs(t, err, &invalid)
}

// TestBasicBlockSingleTerminator verifies I3: a block accepts at most one
// terminator.
func TestBasicBlockSingleTerminator(t *testing.T) {
	ctx := newTestContext()
	f, _ := ctx.AddFunction("foo")
	def, _ := f.AddDefinition(types.Void, nil)
	impl, _ := def.Implement()

	blk := impl.AppendBasicBlock()
	require.NoError(t, blk.SetTerminator(&ir.Return{}))
	assert.True(t, blk.IsTerminated())

	err := blk.SetTerminator(&ir.Return{})
	var already *ir.BlockTerminatorAlreadyExist
	require.ErrorAs(t, err, &already)
}

// TestVariableSingleInitializer verifies a Variable accepts at most one
// initializer, and that nil always clears it.
func TestVariableSingleInitializer(t *testing.T) {
	ctx := newTestContext()
	f, _ := ctx.AddFunction("foo")
	def, _ := f.AddDefinition(types.Void, nil)
	impl, _ := def.Implement()

	v := impl.AddVariable(types.Int32, "x")
	c1 := impl.AddConstant(types.Int32, int32(1), "")
	c2 := impl.AddConstant(types.Int32, int32(2), "")

	require.NoError(t, v.SetInitializer(c1))
	require.Error(t, v.SetInitializer(c2))
	assert.Same(t, c1, v.Initializer())

	require.NoError(t, v.SetInitializer(nil))
	require.NoError(t, v.SetInitializer(c2))
	assert.Same(t, c2, v.Initializer())
}

// TestArgumentAttributes verifies the per-argument attribute set.
func TestArgumentAttributes(t *testing.T) {
	ctx := newTestContext()
	f, _ := ctx.AddFunction("foo")
	def, _ := f.AddDefinition(types.Void, []string{types.Int32, types.Int32})
	impl, _ := def.Implement()

	arg := impl.Arguments()[0]
	assert.False(t, arg.HasAttribute("no_alias"))
	arg.AddAttribute("no_alias")
	assert.True(t, arg.HasAttribute("no_alias"))
	assert.Equal(t, []string{"no_alias"}, arg.Attributes())
}

// TestPrintDeterministic verifies two structurally identical
// Implementations render to the same string despite different
// underlying Go pointers — Print must never leak pointer identity.
func TestPrintDeterministic(t *testing.T) {
	build := func() string {
		ctx := newTestContext()
		f, _ := ctx.AddFunction("add_one")
		def, _ := f.AddDefinition(types.Int32, []string{types.Int32})
		impl, _ := def.Implement()

		blk := impl.AppendBasicBlock()
		one := impl.AddConstant(types.Int32, int32(1), "")
		sum := ir.NewBinaryArithmetic(ir.OpAdd, impl.Arguments()[0], one)
		blk.Append(sum)
		require.NoError(t, blk.SetTerminator(&ir.Return{Value: sum}))

		return ir.Print(impl)
	}

	a := build()
	b := build()
	// Print output spans several lines, so a line-oriented diff is far
	// more useful on failure than testify's inline string comparison.
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Print not deterministic (-first +second):\n%s", diff)
	}
	assert.Contains(t, a, "define int32 @add_one(")
	assert.Contains(t, a, "add int32")
	assert.Contains(t, a, "return")
}

// TestExtensionInstall verifies the installable-extension pattern: an
// Extension implementing InstallToContext can register types, functions
// and intrinsics against a Context.
type stubExtension struct{ installed bool }

func (s *stubExtension) InstallToContext(ctx *ir.Context) {
	s.installed = true
	ctx.TypeSystem().AddType("stub_type")
	_, _ = ctx.AddIntrinsic("stub_intrinsic")
}

func TestExtensionInstall(t *testing.T) {
	ctx := newTestContext()
	ext := &stubExtension{}
	ctx.Install(ext)

	assert.True(t, ext.installed)
	assert.True(t, ctx.TypeSystem().IsTypeValid("stub_type"))
	assert.NotNil(t, ctx.GetIntrinsic("stub_intrinsic"))
}
