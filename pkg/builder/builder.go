// Package builder implements MLVM's stateful IR-construction façade: a
// cursor over one Implementation's basic blocks that inserts implicit
// casts to coerce operands and resolves overloaded calls by
// implicit-cast rank.
package builder

import (
	"golang.org/x/exp/slices"

	"github.com/sklam/mlvm/pkg/ir"
	"github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder is a cursor over one Implementation. It is not safe for
// concurrent use; see the type system's equivalent restriction.
type Builder struct {
	ctx   *ir.Context
	impl  *ir.Implementation
	cur   *ir.BasicBlock
	loops loopStack
}

// ---------------------
// ----- functions -----
// ---------------------

// New returns a Builder over impl, with no current basic block selected.
// Call SetBasicBlock (or AppendBasicBlock) before emitting any
// instruction.
func New(impl *ir.Implementation) *Builder {
	return &Builder{ctx: impl.Context(), impl: impl}
}

// Context returns the Builder's owning Context.
func (b *Builder) Context() *ir.Context { return b.ctx }

// Implementation returns the Implementation the Builder is building.
func (b *Builder) Implementation() *ir.Implementation { return b.impl }

// CurrentBlock returns the Builder's current basic block, or nil if none
// is selected.
func (b *Builder) CurrentBlock() *ir.BasicBlock { return b.cur }

// SetBasicBlock moves the cursor to blk. blk must belong to the Builder's
// Implementation.
func (b *Builder) SetBasicBlock(blk *ir.BasicBlock) { b.cur = blk }

// AppendBasicBlock creates a new basic block on the Implementation and
// moves the cursor to it.
func (b *Builder) AppendBasicBlock() *ir.BasicBlock {
	blk := b.impl.AppendBasicBlock()
	b.cur = blk
	return blk
}

// Const appends a new Constant to the Implementation. Constants are not
// tied to any basic block.
func (b *Builder) Const(typ string, value interface{}) *ir.Constant {
	return b.impl.AddConstant(typ, value, "")
}

// NamedConst is Const with a display name, used by Print and useful in
// tests.
func (b *Builder) NamedConst(typ, name string, value interface{}) *ir.Constant {
	return b.impl.AddConstant(typ, value, name)
}

// Var appends a new Variable to the Implementation. Variables are not
// tied to any basic block.
func (b *Builder) Var(typ, name string) *ir.Variable {
	return b.impl.AddVariable(typ, name)
}

// Assign coerces value to v's type and appends an assign operation.
func (b *Builder) Assign(value ir.Value, v *ir.Variable) error {
	coerced, err := b.coerce(value, v.Type())
	if err != nil {
		return err
	}
	return b.append(ir.NewAssign(coerced, v))
}

// Store coerces value to ptr's pointee type and appends a store
// operation. ptr must have pointer type.
func (b *Builder) Store(value, ptr ir.Value) error {
	pointee, ok := types.Pointee(ptr.Type())
	if !ok {
		return &InvalidCast{From: ptr.Type(), To: "<pointee>"}
	}
	coerced, err := b.coerce(value, pointee)
	if err != nil {
		return err
	}
	return b.append(ir.NewStore(coerced, ptr))
}

// Load appends a load operation through ptr, which must have pointer
// type, and returns its result.
func (b *Builder) Load(ptr ir.Value) (*ir.Operation, error) {
	if !types.IsPointer(ptr.Type()) {
		return nil, &InvalidCast{From: ptr.Type(), To: "<pointer>"}
	}
	op := ir.NewLoad(ptr)
	return op, b.append(op)
}

// Ref appends an operation taking the address of value and returns its
// result.
func (b *Builder) Ref(value ir.Value) (*ir.Operation, error) {
	op := ir.NewReference(value)
	return op, b.append(op)
}

// Add, Sub, Mul, Div and Rem coerce their operands to a common type (one
// operand's type is preferred; the other is implicitly cast to match,
// whichever direction the cast lattice permits) and append the
// corresponding arithmetic operation.
func (b *Builder) Add(lhs, rhs ir.Value) (*ir.Operation, error) { return b.arith(ir.OpAdd, lhs, rhs) }
func (b *Builder) Sub(lhs, rhs ir.Value) (*ir.Operation, error) { return b.arith(ir.OpSub, lhs, rhs) }
func (b *Builder) Mul(lhs, rhs ir.Value) (*ir.Operation, error) { return b.arith(ir.OpMul, lhs, rhs) }
func (b *Builder) Div(lhs, rhs ir.Value) (*ir.Operation, error) { return b.arith(ir.OpDiv, lhs, rhs) }
func (b *Builder) Rem(lhs, rhs ir.Value) (*ir.Operation, error) { return b.arith(ir.OpRem, lhs, rhs) }

func (b *Builder) arith(kind string, lhs, rhs ir.Value) (*ir.Operation, error) {
	l, r, err := b.coercePair(lhs, rhs)
	if err != nil {
		return nil, err
	}
	op := ir.NewBinaryArithmetic(kind, l, r)
	return op, b.append(op)
}

// Compare coerces its operands to a common type the same way the
// arithmetic helpers do and appends a comparison operation of the given
// predicate (one of ir.Cmp*). The result always has type types.Pred.
func (b *Builder) Compare(pred string, lhs, rhs ir.Value) (*ir.Operation, error) {
	l, r, err := b.coercePair(lhs, rhs)
	if err != nil {
		return nil, err
	}
	op := ir.NewCompare(pred, l, r)
	return op, b.append(op)
}

// Cast appends an explicit conversion of value to to. Unlike the
// implicit coercion the other helpers perform, Cast also permits
// reinterpreting any pointer type as any other pointer type and
// converting a pointer to or from types.Address.
func (b *Builder) Cast(value ir.Value, to string) (*ir.Operation, error) {
	if !b.canCast(value.Type(), to) {
		return nil, &InvalidCast{From: value.Type(), To: to}
	}
	op := ir.NewCast(value, to)
	return op, b.append(op)
}

// Call resolves the overload of callee that best matches args' types —
// an exact match short-circuits; otherwise the overload needing the
// fewest implicit casts is chosen, ties fail with
// MultiplePossibleDefinition and no match fails with MissingDefinition —
// inserts whatever implicit casts the chosen overload requires, and
// appends the call.
func (b *Builder) Call(callee ir.Callable, args []ir.Value) (*ir.Operation, error) {
	argtys := valueTypes(args)
	def, coerced, err := b.resolveOverload(callee, args, argtys)
	if err != nil {
		return nil, err
	}
	op := ir.NewCall(def, coerced)
	return op, b.append(op)
}

// CallIntrinsic looks up the intrinsic named name in the Builder's
// Context and calls it, per Call's overload-resolution rules.
func (b *Builder) CallIntrinsic(name string, args ...ir.Value) (*ir.Operation, error) {
	in := b.ctx.GetIntrinsic(name)
	if in == nil {
		return nil, &MissingDefinition{Callee: name, ArgTys: valueTypes(args)}
	}
	return b.Call(in, args)
}

// Dynamic returns a closure that calls the function or, failing that,
// the intrinsic named name — the idiomatic-Go analogue of the original
// API's dynamic attribute-based callee dispatch.
func (b *Builder) Dynamic(name string) func(args ...ir.Value) (*ir.Operation, error) {
	return func(args ...ir.Value) (*ir.Operation, error) {
		if f := b.ctx.GetFunction(name); f != nil {
			return b.Call(f, args)
		}
		if in := b.ctx.GetIntrinsic(name); in != nil {
			return b.Call(in, args)
		}
		return nil, &MissingDefinition{Callee: name, ArgTys: valueTypes(args)}
	}
}

// Branch closes the current block with an unconditional jump to dest.
func (b *Builder) Branch(dest *ir.BasicBlock) error {
	return b.setTerminator(&ir.Branch{Dest: dest})
}

// ConditionBranch coerces pred to types.Pred and closes the current
// block with a conditional jump to ifTrue or ifFalse.
func (b *Builder) ConditionBranch(pred ir.Value, ifTrue, ifFalse *ir.BasicBlock) error {
	p, err := b.coerce(pred, types.Pred)
	if err != nil {
		return err
	}
	return b.setTerminator(&ir.ConditionBranch{Pred: p, True: ifTrue, False: ifFalse})
}

// Ret coerces value to the enclosing Implementation's declared return
// type and closes the current block with a return. Pass nil for a void
// return.
func (b *Builder) Ret(value ir.Value) error {
	retty := b.impl.Definition().ReturnType()
	if value == nil {
		if retty != types.Void {
			return &InvalidCast{From: types.Void, To: retty}
		}
		return b.setTerminator(&ir.Return{})
	}
	v, err := b.coerce(value, retty)
	if err != nil {
		return err
	}
	return b.setTerminator(&ir.Return{Value: v})
}

// RetVoid closes the current block with a void return.
func (b *Builder) RetVoid() error { return b.Ret(nil) }

// ----------------------
// ----- internals ------
// ----------------------

func (b *Builder) append(op *ir.Operation) error {
	if b.cur == nil {
		return &NotInBasicBlock{}
	}
	if b.cur.IsTerminated() {
		return &BlockAlreadyTerminated{Block: b.cur.Name()}
	}
	b.cur.Append(op)
	return nil
}

func (b *Builder) setTerminator(t ir.Terminator) error {
	if b.cur == nil {
		return &NotInBasicBlock{}
	}
	return b.cur.SetTerminator(t)
}

// coerce returns value unchanged if it already has type to, otherwise
// appends an implicit cast and returns its result. It fails with
// InvalidCast if the lattice does not permit the conversion.
func (b *Builder) coerce(value ir.Value, to string) (ir.Value, error) {
	if value.Type() == to {
		return value, nil
	}
	if !b.ctx.TypeSystem().CanImplicitCast(value.Type(), to) {
		return nil, &InvalidCast{From: value.Type(), To: to}
	}
	op := ir.NewCast(value, to)
	if err := b.append(op); err != nil {
		return nil, err
	}
	return op, nil
}

// coercePair picks a common type for lhs and rhs — lhs's type if rhs can
// implicitly cast to it, else rhs's type if lhs can implicitly cast to
// it — and returns both operands coerced to that type.
func (b *Builder) coercePair(lhs, rhs ir.Value) (ir.Value, ir.Value, error) {
	if lhs.Type() == rhs.Type() {
		return lhs, rhs, nil
	}
	if r2, err := b.coerce(rhs, lhs.Type()); err == nil {
		return lhs, r2, nil
	}
	if l2, err := b.coerce(lhs, rhs.Type()); err == nil {
		return l2, rhs, nil
	}
	return nil, nil, &InvalidCast{From: rhs.Type(), To: lhs.Type()}
}

func (b *Builder) canCast(from, to string) bool {
	if from == to {
		return true
	}
	ts := b.ctx.TypeSystem()
	if ts.CanImplicitCast(from, to) {
		return true
	}
	if types.IsPointer(from) && types.IsPointer(to) {
		return true
	}
	if types.IsPointer(from) && to == types.Address {
		return true
	}
	if from == types.Address && types.IsPointer(to) {
		return true
	}
	return false
}

// resolveOverload implements the ranked overload-resolution algorithm:
// an exact argument-type match short-circuits; otherwise every candidate
// whose declared arity matches and whose every parameter either matches
// exactly or accepts an implicit cast is ranked by its implicit-cast
// count, the lowest rank wins, and a tie among the lowest rank is
// ambiguous.
func (b *Builder) resolveOverload(callee ir.Callable, args []ir.Value, argtys []string) (ir.Definition, []ir.Value, error) {
	defs := callee.Definitions()

	for _, d := range defs {
		if sameTypes(d.ArgTypes(), argtys) {
			return d, args, nil
		}
	}

	ts := b.ctx.TypeSystem()
	type candidate struct {
		def  ir.Definition
		rank int
	}
	var candidates []candidate
	for _, d := range defs {
		declared := d.ArgTypes()
		if len(declared) != len(argtys) {
			continue
		}
		rank := 0
		ok := true
		for i, want := range declared {
			if want == argtys[i] {
				continue
			}
			if ts.CanImplicitCast(argtys[i], want) {
				rank++
				continue
			}
			ok = false
			break
		}
		if ok {
			candidates = append(candidates, candidate{d, rank})
		}
	}
	if len(candidates) == 0 {
		return nil, nil, &MissingDefinition{Callee: callee.Name(), ArgTys: argtys}
	}

	minRank := slices.MinFunc(candidates, func(a, b candidate) int { return a.rank - b.rank }).rank
	var best []ir.Definition
	for _, c := range candidates {
		if c.rank == minRank {
			best = append(best, c.def)
		}
	}
	if len(best) > 1 {
		return nil, nil, &MultiplePossibleDefinition{Callee: callee.Name(), ArgTys: argtys}
	}

	def := best[0]
	coerced := make([]ir.Value, len(args))
	for i, a := range args {
		want := def.ArgTypes()[i]
		if a.Type() == want {
			coerced[i] = a
			continue
		}
		v, err := b.coerce(a, want)
		if err != nil {
			return nil, nil, err
		}
		coerced[i] = v
	}
	return def, coerced, nil
}

func sameTypes(a, b []string) bool {
	return slices.Equal(a, b)
}

func valueTypes(vs []ir.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Type()
	}
	return out
}
