package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BasicBlock is an ordered sequence of Operations closed by exactly one
// Terminator (I3). It belongs to exactly one Implementation, which it
// references but does not own — a BasicBlock's lifetime is bounded by its
// parent Implementation's.
type BasicBlock struct {
	impl *Implementation
	id   int
	ops  []*Operation
	term Terminator
}

// ---------------------
// ----- functions -----
// ---------------------

func newBasicBlock(impl *Implementation, id int) *BasicBlock {
	return &BasicBlock{impl: impl, id: id}
}

// Implementation returns the Implementation this BasicBlock belongs to.
func (b *BasicBlock) Implementation() *Implementation { return b.impl }

// Name returns the BasicBlock's display name, stable for the lifetime of
// the Implementation.
func (b *BasicBlock) Name() string { return fmt.Sprintf("block_%d", b.id) }

// Append appends op to the block's operation list. It does not validate
// that the block is still open; Builder is responsible for never
// appending past a terminator.
func (b *BasicBlock) Append(op *Operation) { b.ops = append(b.ops, op) }

// Operations returns the block's operations in append order.
func (b *BasicBlock) Operations() []*Operation { return b.ops }

// Terminator returns the block's terminator, or nil if the block is still
// open.
func (b *BasicBlock) Terminator() Terminator { return b.term }

// IsTerminated reports whether the block already carries a terminator.
func (b *BasicBlock) IsTerminated() bool { return b.term != nil }

// SetTerminator closes the block with t. It fails with
// BlockTerminatorAlreadyExist if the block is already closed.
func (b *BasicBlock) SetTerminator(t Terminator) error {
	if b.term != nil {
		return &BlockTerminatorAlreadyExist{Block: b.Name()}
	}
	b.term = t
	return nil
}
