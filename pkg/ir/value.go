package ir

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value is anything that can be used as an operand: a Constant, a
// Variable, an Argument, or the result of an Operation. Values are
// compared by Go pointer identity — the IR is a DAG where each node is a
// unique *Constant/*Variable/*Argument/*Operation.
type Value interface {
	// Type returns the IR type name of the value.
	Type() string
}

// Constant is an immutable value of a fixed type appended to an
// Implementation's constant list by Builder.Const.
type Constant struct {
	typ   string
	value interface{}
	name  string
}

// Type returns the Constant's IR type name.
func (c *Constant) Type() string { return c.typ }

// Value returns the raw Go value the Constant holds.
func (c *Constant) Value() interface{} { return c.value }

// Name returns the Constant's optional display name.
func (c *Constant) Name() string { return c.name }

func (c *Constant) String() string {
	return fmt.Sprintf("<Constant %s %v>", c.typ, c.value)
}

// Variable is a mutable storage location appended to an Implementation's
// variable list by Builder.Var. It may reference at most one Constant as
// its initializer.
type Variable struct {
	typ         string
	name        string
	initializer *Constant
}

// Type returns the Variable's IR type name.
func (v *Variable) Type() string { return v.typ }

// Name returns the Variable's optional display name.
func (v *Variable) Name() string { return v.name }

// Initializer returns the Constant the Variable was initialized with, or
// nil if it was never set.
func (v *Variable) Initializer() *Constant { return v.initializer }

// SetInitializer assigns c as the Variable's initializer. It fails if an
// initializer has already been assigned; passing nil always succeeds and
// clears any existing initializer.
func (v *Variable) SetInitializer(c *Constant) error {
	if c == nil {
		v.initializer = nil
		return nil
	}
	if v.initializer != nil {
		return errors.Errorf("variable %q already has an initializer", v.name)
	}
	v.initializer = c
	return nil
}

func (v *Variable) String() string {
	return fmt.Sprintf("<Variable %s %s>", v.typ, v.name)
}

// Argument is a Function's formal parameter, named by its index in the
// Definition's argument-type tuple. Each Argument carries a mutable
// string-tag set called attributes (e.g. "in", "out", "no_alias") whose
// meaning is assigned by backend extensions, not by the core.
type Argument struct {
	typ   string
	index int
	name  string
	attrs map[string]struct{}
}

// Type returns the Argument's IR type name.
func (a *Argument) Type() string { return a.typ }

// Index returns the Argument's position in the Definition's argument list.
func (a *Argument) Index() int { return a.index }

// Name returns the Argument's optional display name.
func (a *Argument) Name() string { return a.name }

// SetName sets the Argument's optional display name.
func (a *Argument) SetName(name string) { a.name = name }

// AddAttribute tags the Argument with attr.
func (a *Argument) AddAttribute(attr string) { a.attrs[attr] = struct{}{} }

// HasAttribute reports whether the Argument carries attr.
func (a *Argument) HasAttribute(attr string) bool {
	_, ok := a.attrs[attr]
	return ok
}

// Attributes returns the Argument's attribute tags in sorted order.
func (a *Argument) Attributes() []string {
	out := make([]string, 0, len(a.attrs))
	for t := range a.attrs {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (a *Argument) String() string {
	return fmt.Sprintf("<Argument %s %s>", a.typ, a.name)
}
