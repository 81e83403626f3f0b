package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sklam/mlvm/pkg/builder"
	"github.com/sklam/mlvm/pkg/ext/arraytype"
	"github.com/sklam/mlvm/pkg/ir"
	"github.com/sklam/mlvm/pkg/types"
)

// These scenarios build IR the way a frontend or a handwritten test
// harness would, and check it at the construction/print level rather
// than by JIT-compiling and running it — consistent with the rest of
// this tree's tests, which never invoke LLVM codegen directly.

// TestScenarioVectorAddFloat covers scenario 1: an array_float loop body
// that computes C[i] = (A[i] + B[i]) * 3.14.
func TestScenarioVectorAddFloat(t *testing.T) {
	ctx := ir.NewContext(types.New())
	ctx.Install(arraytype.New())

	arrFloat := arraytype.TypeName(types.Float)
	f, err := ctx.AddFunction("vecadd_float")
	require.NoError(t, err)
	def, err := f.AddDefinition(types.Int32, []string{arrFloat, arrFloat, arrFloat, types.Int32})
	require.NoError(t, err)
	impl, err := def.Implement()
	require.NoError(t, err)

	b := builder.New(impl)
	b.AppendBasicBlock()
	A, Bv, C, n := impl.Arguments()[0], impl.Arguments()[1], impl.Arguments()[2], impl.Arguments()[3]

	zero := b.Const(types.Int32, int32(0))
	one := b.Const(types.Int32, int32(1))
	scale := b.Const(types.Float, float32(3.14))

	err = builder.ForRange(b, zero, n, one, func(b *builder.Builder, i ir.Value) error {
		a, err := b.CallIntrinsic("array_load", A, i)
		if err != nil {
			return err
		}
		bb, err := b.CallIntrinsic("array_load", Bv, i)
		if err != nil {
			return err
		}
		sum, err := b.Add(a, bb)
		if err != nil {
			return err
		}
		scaled, err := b.Mul(sum, scale)
		if err != nil {
			return err
		}
		_, err = b.CallIntrinsic("array_store", C, scaled, i)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, b.Ret(n))

	printed := ir.Print(impl)
	assert.Contains(t, printed, "array_load")
	assert.Contains(t, printed, "array_store")
	assert.Len(t, impl.Arguments(), 4)
}

// TestScenarioVectorAddInt32 covers scenario 2: the same loop shape over
// array_int32 scaled by a scalar 123.
func TestScenarioVectorAddInt32(t *testing.T) {
	ctx := ir.NewContext(types.New())
	ctx.Install(arraytype.New())

	arrInt := arraytype.TypeName(types.Int32)
	f, err := ctx.AddFunction("vecadd_int32")
	require.NoError(t, err)
	def, err := f.AddDefinition(types.Int32, []string{arrInt, arrInt, arrInt, types.Int32})
	require.NoError(t, err)
	impl, err := def.Implement()
	require.NoError(t, err)

	b := builder.New(impl)
	b.AppendBasicBlock()
	A, Bv, C, n := impl.Arguments()[0], impl.Arguments()[1], impl.Arguments()[2], impl.Arguments()[3]

	zero := b.Const(types.Int32, int32(0))
	one := b.Const(types.Int32, int32(1))
	scale := b.Const(types.Int32, int32(123))

	err = builder.ForRange(b, zero, n, one, func(b *builder.Builder, i ir.Value) error {
		a, err := b.CallIntrinsic("array_load", A, i)
		if err != nil {
			return err
		}
		bb, err := b.CallIntrinsic("array_load", Bv, i)
		if err != nil {
			return err
		}
		sum, err := b.Add(a, bb)
		if err != nil {
			return err
		}
		scaled, err := b.Mul(sum, scale)
		if err != nil {
			return err
		}
		_, err = b.CallIntrinsic("array_store", C, scaled, i)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, b.Ret(n))

	assert.True(t, len(impl.BasicBlocks()) >= 4)
}

// TestScenarioOverloadImplicitCast covers scenario 3: calling a
// double-only overload with a float actual inserts a float->double cast
// before the call and the Call's own operand types are (double,).
func TestScenarioOverloadImplicitCast(t *testing.T) {
	ctx := ir.NewContext(types.New())
	callee, err := ctx.AddFunction("foo")
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Void, []string{types.Double})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Float})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	op, err := b.Call(callee, []ir.Value{impl.Arguments()[0]})
	require.NoError(t, err)

	require.Len(t, op.Operands(), 1)
	assert.Equal(t, types.Double, op.Operands()[0].Type())
	cast, ok := op.Operands()[0].(*ir.Operation)
	require.True(t, ok)
	assert.Equal(t, types.Float, cast.Operands()[0].Type())
	assert.Equal(t, []string{types.Double}, op.Callee().ArgTypes())
}

// TestScenarioAmbiguityFail covers scenario 4: foo(int32)/foo(int64)
// called with a uint16 actual is ambiguous, since both overloads sit at
// equal implicit-cast rank from uint16.
func TestScenarioAmbiguityFail(t *testing.T) {
	ctx := ir.NewContext(types.New())
	callee, err := ctx.AddFunction("foo")
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Void, []string{types.Int32})
	require.NoError(t, err)
	_, err = callee.AddDefinition(types.Void, []string{types.Int64})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("caller")
	def, _ := caller.AddDefinition(types.Void, []string{types.Uint16})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	_, err = b.Call(callee, []ir.Value{impl.Arguments()[0]})
	var ambiguous *builder.MultiplePossibleDefinition
	require.ErrorAs(t, err, &ambiguous)
}

// TestScenarioPointerSwap covers scenario 5: foo(int32* p, int32 v)
// stores v into *p and returns the value previously loaded from p.
func TestScenarioPointerSwap(t *testing.T) {
	ptrInt32 := types.PointerTo(types.Int32)
	ctx := ir.NewContext(types.New())
	f, err := ctx.AddFunction("foo")
	require.NoError(t, err)
	def, err := f.AddDefinition(types.Int32, []string{ptrInt32, types.Int32})
	require.NoError(t, err)
	impl, err := def.Implement()
	require.NoError(t, err)

	b := builder.New(impl)
	b.AppendBasicBlock()
	p, v := impl.Arguments()[0], impl.Arguments()[1]

	old, err := b.Load(p)
	require.NoError(t, err)
	require.NoError(t, b.Store(v, p))
	require.NoError(t, b.Ret(old))

	term := b.CurrentBlock().Terminator()
	ret, ok := term.(*ir.Return)
	require.True(t, ok)
	assert.Same(t, old, ret.Value)
}

// TestScenarioExternalSymbolViaIntrinsic covers scenario 6: a function
// with no IR body (sin) is instead registered as an intrinsic, and a
// caller's call to it resolves exactly like a call to an ordinary
// function definition.
func TestScenarioExternalSymbolViaIntrinsic(t *testing.T) {
	ctx := ir.NewContext(types.New())
	sin, err := ctx.AddIntrinsic("sin")
	require.NoError(t, err)
	_, err = sin.AddDefinition(types.Float, []string{types.Float})
	require.NoError(t, err)

	caller, _ := ctx.AddFunction("foo")
	def, _ := caller.AddDefinition(types.Float, []string{types.Float})
	impl, _ := def.Implement()
	b := builder.New(impl)
	b.AppendBasicBlock()

	op, err := b.CallIntrinsic("sin", impl.Arguments()[0])
	require.NoError(t, err)
	require.NoError(t, b.Ret(op))

	assert.Equal(t, types.Float, op.Type())
	assert.True(t, sin.HasDefinition([]string{types.Float}))
}
