package ir

import (
	"fmt"

	"github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Operation is a single non-terminating instruction appended to a
// BasicBlock. Operations that produce a value satisfy Value themselves
// (HasResult reports true and Type returns the result type); operations
// with no result (assign, store) are still appended to the block but are
// never used as operands.
type Operation struct {
	name     string // name identifies the opcode, e.g. "add", "cmp.lt", "cast.int32.double", "call.func foo".
	resultTy string // resultTy is "" when the operation produces no value.
	operands []Value
	callee   Definition // non-nil only for call.* operations.
}

// Type returns the Operation's result type, or "" if it has no result.
func (o *Operation) Type() string { return o.resultTy }

// Name returns the Operation's opcode name.
func (o *Operation) Name() string { return o.name }

// HasResult reports whether the Operation produces a usable Value.
func (o *Operation) HasResult() bool { return o.resultTy != "" }

// Operands returns the Operation's operand list in declaration order.
func (o *Operation) Operands() []Value { return o.operands }

// Callee returns the Definition a call.* operation invokes, or nil for
// every other opcode.
func (o *Operation) Callee() Definition { return o.callee }

func (o *Operation) String() string {
	return fmt.Sprintf("<Operation %s>", o.name)
}

// Terminator is the common interface of Branch, ConditionBranch and
// Return: the exactly-one instruction that must close a BasicBlock.
type Terminator interface {
	terminator()
	String() string
}

// Branch unconditionally transfers control to Dest.
type Branch struct {
	Dest *BasicBlock
}

func (*Branch) terminator() {}
func (b *Branch) String() string {
	return fmt.Sprintf("branch %s", b.Dest.Name())
}

// ConditionBranch transfers control to True or False depending on Pred,
// which must have type pred.
type ConditionBranch struct {
	Pred  Value
	True  *BasicBlock
	False *BasicBlock
}

func (*ConditionBranch) terminator() {}
func (c *ConditionBranch) String() string {
	return fmt.Sprintf("cbranch %s %s", c.True.Name(), c.False.Name())
}

// Return exits the enclosing Implementation. Value is nil for a void
// return.
type Return struct {
	Value Value
}

func (*Return) terminator() {}
func (r *Return) String() string {
	if r.Value == nil {
		return "return void"
	}
	return "return"
}

// ---------------------
// ----- functions -----
// ---------------------

// NewCast returns an operation that converts value to to. The caller is
// responsible for checking that the conversion is permitted; Builder
// enforces this via the implicit-cast lattice or an explicit override.
func NewCast(value Value, to string) *Operation {
	return &Operation{
		name:     fmt.Sprintf("cast.%s.%s", value.Type(), to),
		resultTy: to,
		operands: []Value{value},
	}
}

// NewReference returns an operation that takes the address of value,
// producing a pointer to value's type.
func NewReference(value Value) *Operation {
	return &Operation{
		name:     "ref",
		resultTy: types.PointerTo(value.Type()),
		operands: []Value{value},
	}
}

// Arithmetic opcode names, shared by NewBinaryArithmetic and the default
// backend's arithmetic implementation table.
const (
	OpAdd = "add"
	OpSub = "sub"
	OpMul = "mul"
	OpDiv = "div"
	OpRem = "rem"
)

// NewBinaryArithmetic returns an arithmetic operation of the given kind
// (one of OpAdd/OpSub/OpMul/OpDiv/OpRem) over two operands of the same
// type. The result type equals the operand type.
func NewBinaryArithmetic(kind string, lhs, rhs Value) *Operation {
	return &Operation{
		name:     kind,
		resultTy: lhs.Type(),
		operands: []Value{lhs, rhs},
	}
}

// Comparison predicates, shared by NewCompare and the default backend's
// comparison implementation table.
const (
	CmpEQ = "eq"
	CmpNE = "ne"
	CmpLT = "lt"
	CmpLE = "le"
	CmpGT = "gt"
	CmpGE = "ge"
)

// NewCompare returns a comparison operation of predicate pred (one of the
// Cmp* constants) over two operands of the same type. The result type is
// always types.Pred.
func NewCompare(pred string, lhs, rhs Value) *Operation {
	return &Operation{
		name:     "cmp." + pred,
		resultTy: types.Pred,
		operands: []Value{lhs, rhs},
	}
}

// NewAssign returns an operation that stores value into v. It produces no
// result.
func NewAssign(value Value, v *Variable) *Operation {
	return &Operation{
		name:     "assign",
		operands: []Value{value, v},
	}
}

// NewStore returns an operation that writes value through ptr, which must
// have pointer type. It produces no result.
func NewStore(value Value, ptr Value) *Operation {
	return &Operation{
		name:     "store",
		operands: []Value{value, ptr},
	}
}

// NewLoad returns an operation that reads through ptr, which must have
// pointer type. The result type is ptr's pointee.
func NewLoad(ptr Value) *Operation {
	pointee, _ := types.Pointee(ptr.Type())
	return &Operation{
		name:     "load",
		resultTy: pointee,
		operands: []Value{ptr},
	}
}

// NewCall returns an operation that invokes def with args, which must
// already match def's declared argument types (Builder is responsible for
// inserting any implicit casts before constructing the call). The result
// type is def's return type, or "" if def returns void.
func NewCall(def Definition, args []Value) *Operation {
	retty := def.ReturnType()
	resultTy := retty
	if retty == types.Void {
		resultTy = ""
	}
	return &Operation{
		name:     fmt.Sprintf("call.%s %s", def.Kind(), def.Name()),
		resultTy: resultTy,
		operands: args,
		callee:   def,
	}
}
