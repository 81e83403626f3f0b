package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklam/mlvm/pkg/builder"
	"github.com/sklam/mlvm/pkg/ir"
	"github.com/sklam/mlvm/pkg/types"
)

func newTestBuilder(t *testing.T, retty string, argtys []string) (*builder.Builder, *ir.Implementation) {
	t.Helper()
	ctx := ir.NewContext(types.New())
	f, err := ctx.AddFunction("f")
	require.NoError(t, err)
	def, err := f.AddDefinition(retty, argtys)
	require.NoError(t, err)
	impl, err := def.Implement()
	require.NoError(t, err)
	b := builder.New(impl)
	b.AppendBasicBlock()
	return b, impl
}

// TestExactOverloadShortCircuits verifies an exact argument-type match
// is chosen without considering any implicit cast.
func TestExactOverloadShortCircuits(t *testing.T) {
	ctx := ir.NewContext(types.New())
	callee, err := ctx.AddFunction("callee")
	require.NoError(t, err)
	exact, err := callee.AddDefinition(types.Int32, []string{types.Int32})
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Int64, []string{types.Int64})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Int32})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	op, err := b.Call(callee, []ir.Value{impl.Arguments()[0]})
	require.NoError(t, err)
	assert.Same(t, exact, op.Callee())
}

// TestOverloadResolutionByRank verifies the lowest-cast-count overload
// wins when no exact match exists.
func TestOverloadResolutionByRank(t *testing.T) {
	ctx := ir.NewContext(types.New())
	callee, _ := ctx.AddFunction("callee")
	// (int8, int8) needs one cast for (int16, int8) and two for (int64, int64).
	narrow, err := callee.AddDefinition(types.Void, []string{types.Int16, types.Int8})
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Void, []string{types.Int64, types.Int64})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Int8, types.Int8})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	op, err := b.Call(callee, []ir.Value{impl.Arguments()[0], impl.Arguments()[1]})
	require.NoError(t, err)
	assert.Same(t, narrow, op.Callee())
}

// TestOverloadResolutionAmbiguous verifies MultiplePossibleDefinition
// when two overloads tie for the lowest rank.
func TestOverloadResolutionAmbiguous(t *testing.T) {
	ctx := ir.NewContext(types.New())
	ctx.TypeSystem().AddType("custom_a")
	ctx.TypeSystem().AddType("custom_b")
	require.NoError(t, ctx.TypeSystem().UpdateImplicitCast(map[string][]string{
		types.Int8: {"custom_a", "custom_b"},
	}))

	callee, _ := ctx.AddFunction("callee")
	_, err := callee.AddDefinition(types.Void, []string{"custom_a"})
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Void, []string{"custom_b"})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Int8})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	_, err = b.Call(callee, []ir.Value{impl.Arguments()[0]})
	var ambiguous *builder.MultiplePossibleDefinition
	require.ErrorAs(t, err, &ambiguous)
}

// TestOverloadResolutionMissing verifies MissingDefinition when no
// overload's parameters accept the given argument types.
func TestOverloadResolutionMissing(t *testing.T) {
	ctx := ir.NewContext(types.New())
	callee, _ := ctx.AddFunction("callee")
	_, err := callee.AddDefinition(types.Void, []string{types.Double})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Int8})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	_, err = b.Call(callee, []ir.Value{impl.Arguments()[0]})
	var missing *builder.MissingDefinition
	require.ErrorAs(t, err, &missing)
}

// TestArithmeticCoercion verifies mismatched operand types are coerced
// via an inserted implicit cast rather than rejected outright.
func TestArithmeticCoercion(t *testing.T) {
	b, impl := newTestBuilder(t, types.Int64, []string{types.Int8, types.Int64})
	op, err := b.Add(impl.Arguments()[0], impl.Arguments()[1])
	require.NoError(t, err)
	assert.Equal(t, types.Int64, op.Type())
	// the int8 argument must have been cast to int64 before the add.
	lhs := op.Operands()[0]
	cast, ok := lhs.(*ir.Operation)
	require.True(t, ok)
	assert.Equal(t, types.Int64, cast.Type())
}

// TestCastRejectsUnrelatedTypes verifies Cast fails with InvalidCast for
// a conversion the lattice does not permit and that is not a pointer
// reinterpretation.
func TestCastRejectsUnrelatedTypes(t *testing.T) {
	b, impl := newTestBuilder(t, types.Void, []string{types.Double})
	_, err := b.Cast(impl.Arguments()[0], types.Pred)
	var invalid *builder.InvalidCast
	require.ErrorAs(t, err, &invalid)
}

// TestPointerReinterpretCast verifies pointer<->pointer and
// pointer<->address casts are always permitted by Cast even without an
// implicit-cast edge.
func TestPointerReinterpretCast(t *testing.T) {
	b, impl := newTestBuilder(t, types.Void, []string{types.PointerTo(types.Int32)})
	_, err := b.Cast(impl.Arguments()[0], types.PointerTo(types.Double))
	require.NoError(t, err)
	_, err = b.Cast(impl.Arguments()[0], types.Address)
	require.NoError(t, err)
}

// TestStoreLoadRoundTrip verifies Ref/Store/Load against a Variable.
func TestStoreLoadRoundTrip(t *testing.T) {
	b, impl := newTestBuilder(t, types.Int32, []string{types.Int32})
	v := b.Var(types.Int32, "x")
	ptr, err := b.Ref(v)
	require.NoError(t, err)
	require.NoError(t, b.Store(impl.Arguments()[0], ptr))
	loaded, err := b.Load(ptr)
	require.NoError(t, err)
	require.NoError(t, b.Ret(loaded))

	term := b.CurrentBlock().Terminator()
	ret, ok := term.(*ir.Return)
	require.True(t, ok)
	assert.Same(t, loaded, ret.Value)
}

// TestIfElseMerges verifies IfElse closes both arms into a shared merge
// block when neither arm already terminated.
func TestIfElseMerges(t *testing.T) {
	b, impl := newTestBuilder(t, types.Int32, []string{types.Pred, types.Int32})
	var sum *ir.Operation
	err := builder.IfElse(b, impl.Arguments()[0],
		func(b *builder.Builder) error {
			one := b.Const(types.Int32, int32(1))
			s, err := b.Add(impl.Arguments()[1], one)
			sum = s
			return err
		},
		func(b *builder.Builder) error {
			two := b.Const(types.Int32, int32(2))
			s, err := b.Add(impl.Arguments()[1], two)
			sum = s
			return err
		},
	)
	require.NoError(t, err)
	require.NoError(t, b.Ret(sum))
	assert.NotNil(t, b.CurrentBlock().Terminator())
}

// TestForRangeBuildsLoop verifies ForRange produces header/body/step/exit
// blocks and that Break succeeds from inside the body.
func TestForRangeBuildsLoop(t *testing.T) {
	b, impl := newTestBuilder(t, types.Void, nil)
	zero := b.Const(types.Int32, int32(0))
	ten := b.Const(types.Int32, int32(10))
	one := b.Const(types.Int32, int32(1))

	err := builder.ForRange(b, zero, ten, one, func(b *builder.Builder, i ir.Value) error {
		return b.Break()
	})
	require.NoError(t, err)
	require.NoError(t, b.RetVoid())
	assert.True(t, len(impl.BasicBlocks()) >= 4)
}
