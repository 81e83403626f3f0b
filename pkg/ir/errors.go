package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// AlreadyDefined is returned when a Context is asked to create a Function
// or Intrinsic under a name that already exists, or when a Callable is
// asked to add a Definition for an argument-type tuple it already has.
type AlreadyDefined struct {
	Kind string // Kind names what was already defined: "function", "intrinsic" or "definition".
	Name string // Name is the colliding name or, for definitions, "name(argtys)".
}

func (e *AlreadyDefined) Error() string {
	return fmt.Sprintf("%s already defined: %s", e.Kind, e.Name)
}

// ReimplementationError is returned by FunctionDefinition.Implement when
// called a second time on the same Definition.
type ReimplementationError struct {
	Name string
}

func (e *ReimplementationError) Error() string {
	return "function already implemented: " + e.Name
}

// MissingImplementation is returned by FunctionDefinition.Implementation
// while the definition is still a declaration.
type MissingImplementation struct {
	Name string
}

func (e *MissingImplementation) Error() string {
	return "function has no implementation: " + e.Name
}

// BlockTerminatorAlreadyExist is returned by BasicBlock.SetTerminator when
// the block already carries a terminator.
type BlockTerminatorAlreadyExist struct {
	Block string
}

func (e *BlockTerminatorAlreadyExist) Error() string {
	return "basic block already has a terminator: " + e.Block
}
