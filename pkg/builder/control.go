package builder

import "github.com/sklam/mlvm/pkg/ir"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// loopScope records the blocks Break and Continue jump to for one
// enclosing ForLoop/ForRange.
type loopScope struct {
	exit, step *ir.BasicBlock
}

// loopStack is a small LIFO of loopScopes, adapted from the bottom-to-top
// linked stack the teacher uses for nested scope bookkeeping — Go's
// synchronous function calls make the teacher's context-manager-based
// nesting unnecessary everywhere except here, where Break/Continue must
// reach across however many ForLoop/ForRange calls are on the Go call
// stack at the point they're used.
type loopStack struct {
	top []loopScope
}

func (s *loopStack) push(sc loopScope) { s.top = append(s.top, sc) }

func (s *loopStack) pop() {
	if len(s.top) == 0 {
		return
	}
	s.top = s.top[:len(s.top)-1]
}

func (s *loopStack) peek() (loopScope, bool) {
	if len(s.top) == 0 {
		return loopScope{}, false
	}
	return s.top[len(s.top)-1], true
}

// ---------------------
// ----- functions -----
// ---------------------

// IfElse builds a structured if/else: cond is evaluated in the current
// block, which is then closed with a ConditionBranch to freshly appended
// true and false blocks. ifTrue and ifFalse each build into their own
// block and, unless they already closed it with a terminator (e.g. an
// early Ret), are closed with a branch to a freshly appended merge block,
// which becomes the Builder's current block on return. ifFalse may be
// nil, in which case the false branch falls straight through to merge.
func IfElse(b *Builder, cond ir.Value, ifTrue func(*Builder) error, ifFalse func(*Builder) error) error {
	trueBlk := b.impl.AppendBasicBlock()
	falseBlk := b.impl.AppendBasicBlock()
	if err := b.ConditionBranch(cond, trueBlk, falseBlk); err != nil {
		return err
	}

	mergeBlk := b.impl.AppendBasicBlock()

	b.SetBasicBlock(trueBlk)
	if err := ifTrue(b); err != nil {
		return err
	}
	if !b.cur.IsTerminated() {
		if err := b.Branch(mergeBlk); err != nil {
			return err
		}
	}

	b.SetBasicBlock(falseBlk)
	if ifFalse != nil {
		if err := ifFalse(b); err != nil {
			return err
		}
	}
	if !b.cur.IsTerminated() {
		if err := b.Branch(mergeBlk); err != nil {
			return err
		}
	}

	b.SetBasicBlock(mergeBlk)
	return nil
}

// ForLoop builds a structured while-style loop: a header block
// re-evaluates cond on every iteration and conditionally branches into
// body or out to a freshly appended exit block, which becomes the
// Builder's current block on return. Within body, Break jumps straight to
// exit and Continue jumps back to the header.
func ForLoop(b *Builder, cond func(*Builder) (ir.Value, error), body func(*Builder) error) error {
	headerBlk := b.impl.AppendBasicBlock()
	if !b.cur.IsTerminated() {
		if err := b.Branch(headerBlk); err != nil {
			return err
		}
	}

	bodyBlk := b.impl.AppendBasicBlock()
	exitBlk := b.impl.AppendBasicBlock()

	b.SetBasicBlock(headerBlk)
	c, err := cond(b)
	if err != nil {
		return err
	}
	if err := b.ConditionBranch(c, bodyBlk, exitBlk); err != nil {
		return err
	}

	b.loops.push(loopScope{exit: exitBlk, step: headerBlk})
	b.SetBasicBlock(bodyBlk)
	if err := body(b); err != nil {
		b.loops.pop()
		return err
	}
	b.loops.pop()
	if !b.cur.IsTerminated() {
		if err := b.Branch(headerBlk); err != nil {
			return err
		}
	}

	b.SetBasicBlock(exitBlk)
	return nil
}

// ForRange builds a structured counting loop over an induction Variable
// of start's type, running while induction < stop and advancing by step
// (via Add) after each iteration. body receives the Builder and the
// induction variable's current value for that iteration. The loop's exit
// block becomes the Builder's current block on return.
func ForRange(b *Builder, start, stop, step ir.Value, body func(*Builder, ir.Value) error) error {
	induction := b.impl.AddVariable(start.Type(), "")
	if err := b.Assign(start, induction); err != nil {
		return err
	}

	headerBlk := b.impl.AppendBasicBlock()
	if !b.cur.IsTerminated() {
		if err := b.Branch(headerBlk); err != nil {
			return err
		}
	}

	bodyBlk := b.impl.AppendBasicBlock()
	stepBlk := b.impl.AppendBasicBlock()
	exitBlk := b.impl.AppendBasicBlock()

	b.SetBasicBlock(headerBlk)
	cur, err := b.Load(mustRef(b, induction))
	if err != nil {
		return err
	}
	cond, err := b.Compare(ir.CmpLT, cur, stop)
	if err != nil {
		return err
	}
	if err := b.ConditionBranch(cond, bodyBlk, exitBlk); err != nil {
		return err
	}

	b.loops.push(loopScope{exit: exitBlk, step: stepBlk})
	b.SetBasicBlock(bodyBlk)
	bodyCur, err := b.Load(mustRef(b, induction))
	if err != nil {
		b.loops.pop()
		return err
	}
	if err := body(b, bodyCur); err != nil {
		b.loops.pop()
		return err
	}
	b.loops.pop()
	if !b.cur.IsTerminated() {
		if err := b.Branch(stepBlk); err != nil {
			return err
		}
	}

	b.SetBasicBlock(stepBlk)
	stepCur, err := b.Load(mustRef(b, induction))
	if err != nil {
		return err
	}
	next, err := b.Add(stepCur, step)
	if err != nil {
		return err
	}
	if err := b.Assign(next, induction); err != nil {
		return err
	}
	if err := b.Branch(headerBlk); err != nil {
		return err
	}

	b.SetBasicBlock(exitBlk)
	return nil
}

// Break jumps to the exit block of the nearest enclosing ForLoop/ForRange.
// It is a no-op error if called outside any loop.
func (b *Builder) Break() error {
	sc, ok := b.loops.peek()
	if !ok {
		return &NotInBasicBlock{}
	}
	return b.Branch(sc.exit)
}

// Continue jumps to the step/header block of the nearest enclosing
// ForLoop/ForRange. It is a no-op error if called outside any loop.
func (b *Builder) Continue() error {
	sc, ok := b.loops.peek()
	if !ok {
		return &NotInBasicBlock{}
	}
	return b.Branch(sc.step)
}

func mustRef(b *Builder, v *ir.Variable) ir.Value {
	op, err := b.Ref(v)
	if err != nil {
		// Ref on a freshly-owned Variable never fails; a non-nil error here
		// would indicate NotInBasicBlock, which ForRange's caller already
		// guarantees against by construction.
		panic(err)
	}
	return op
}
