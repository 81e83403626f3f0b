package builder

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// MissingDefinition is returned by Call and Dynamic calls when no
// overload of the callee accepts the given argument types, even after
// implicit casting is considered.
type MissingDefinition struct {
	Callee string
	ArgTys []string
}

func (e *MissingDefinition) Error() string {
	return fmt.Sprintf("no definition of %q accepts (%s)", e.Callee, strings.Join(e.ArgTys, ", "))
}

// MultiplePossibleDefinition is returned when two or more overloads of
// the callee tie for the lowest implicit-cast rank against the given
// argument types.
type MultiplePossibleDefinition struct {
	Callee string
	ArgTys []string
}

func (e *MultiplePossibleDefinition) Error() string {
	return fmt.Sprintf("ambiguous call to %q with (%s): multiple equally-ranked overloads", e.Callee, strings.Join(e.ArgTys, ", "))
}

// InvalidCast is returned by Cast when asked to perform a conversion that
// is neither an implicit cast nor one of the explicitly permitted
// reinterpretation casts (pointer<->pointer, pointer<->address).
type InvalidCast struct {
	From, To string
}

func (e *InvalidCast) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

// NotInBasicBlock is returned by any Builder method that appends an
// operation or sets a terminator while the Builder has no current basic
// block (SetBasicBlock was never called, or the current block left a
// scope without a successor being selected). Break and Continue also
// return it when called outside any ForLoop/ForRange.
type NotInBasicBlock struct{}

func (e *NotInBasicBlock) Error() string {
	return "builder has no current basic block"
}

// BlockAlreadyTerminated is returned when an operation is appended to the
// Builder's current basic block after it has already been closed with a
// terminator.
type BlockAlreadyTerminated struct {
	Block string
}

func (e *BlockAlreadyTerminated) Error() string {
	return "current basic block already terminated: " + e.Block
}
