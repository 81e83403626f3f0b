package ir

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Definition is the immutable (return type, argument types) signature of
// one overload of a Function or Intrinsic.
type Definition interface {
	// Name returns the owning Callable's name.
	Name() string
	// Kind returns "func" or "intr".
	Kind() string
	// ReturnType returns the definition's declared return type.
	ReturnType() string
	// ArgTypes returns the definition's declared argument types.
	ArgTypes() []string
}

// Callable is the common behavior of Function and Intrinsic: an
// insertion-ordered table of Definitions keyed by argument-type tuple.
type Callable interface {
	Name() string
	Kind() string
	Definitions() []Definition
	HasDefinition(argtys []string) bool
}

// Function is a named, possibly-overloaded callable whose Definitions may
// each carry one Implementation.
type Function struct {
	ctx   *Context
	name  string
	order []string
	defs  map[string]*FunctionDefinition
}

// FunctionDefinition is one overload of a Function. It starts as a bare
// declaration and may be implemented exactly once via Implement.
type FunctionDefinition struct {
	owner  *Function
	retty  string
	argtys []string
	impl   *Implementation
}

// Intrinsic is a named, possibly-overloaded callable whose Definitions
// never carry a body — their behavior comes entirely from the backend.
type Intrinsic struct {
	ctx   *Context
	name  string
	order []string
	defs  map[string]*IntrinsicDefinition
}

// IntrinsicDefinition is one overload of an Intrinsic.
type IntrinsicDefinition struct {
	owner  *Intrinsic
	retty  string
	argtys []string
}

// Implementation is the body of one FunctionDefinition: an arena of
// Arguments, Constants, Variables and BasicBlocks owned by the
// Implementation and referenced, not owned, by the values built from
// them. Value identity is Go pointer identity.
type Implementation struct {
	def   *FunctionDefinition
	args  []*Argument
	attrs map[string]struct{} // function-level attribute tags, independent of any single Argument's.
	consts []*Constant
	vars   []*Variable
	blocks []*BasicBlock
	nextID int
}

// ---------------------
// ----- functions -----
// ---------------------

func argKey(argtys []string) string {
	return strings.Join(argtys, "\x1f")
}

// --- Function ---

// Name returns the Function's name.
func (f *Function) Name() string { return f.name }

// Kind returns "func".
func (f *Function) Kind() string { return "func" }

// AddDefinition declares a new overload of f with the given return type
// and argument types. It fails with types.InvalidTypeName if retty or any
// argty is not valid in the owning Context's type system, or with
// AlreadyDefined if an overload with this exact argument-type tuple
// already exists.
func (f *Function) AddDefinition(retty string, argtys []string) (*FunctionDefinition, error) {
	ts := f.ctx.TypeSystem()
	if !ts.IsTypeValid(retty) {
		return nil, errors.WithStack(&types.InvalidTypeName{Name: retty})
	}
	for _, a := range argtys {
		if !ts.IsTypeValid(a) {
			return nil, errors.WithStack(&types.InvalidTypeName{Name: a})
		}
	}
	key := argKey(argtys)
	if _, ok := f.defs[key]; ok {
		return nil, &AlreadyDefined{Kind: "definition", Name: f.name + "(" + strings.Join(argtys, ", ") + ")"}
	}
	d := &FunctionDefinition{owner: f, retty: retty, argtys: append([]string{}, argtys...)}
	f.defs[key] = d
	f.order = append(f.order, key)
	return d, nil
}

// GetDefinition returns the overload of f declared with exactly argtys,
// or nil if none exists.
func (f *Function) GetDefinition(argtys []string) *FunctionDefinition {
	return f.defs[argKey(argtys)]
}

// HasDefinition reports whether f has an overload declared with exactly
// argtys.
func (f *Function) HasDefinition(argtys []string) bool {
	_, ok := f.defs[argKey(argtys)]
	return ok
}

// Definitions returns f's overloads in declaration order.
func (f *Function) Definitions() []Definition {
	out := make([]Definition, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.defs[k])
	}
	return out
}

// FunctionDefinitions returns f's overloads, typed as *FunctionDefinition,
// in declaration order.
func (f *Function) FunctionDefinitions() []*FunctionDefinition {
	out := make([]*FunctionDefinition, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.defs[k])
	}
	return out
}

// --- FunctionDefinition ---

// Name returns the owning Function's name.
func (d *FunctionDefinition) Name() string { return d.owner.name }

// Kind returns "func".
func (d *FunctionDefinition) Kind() string { return "func" }

// ReturnType returns the definition's declared return type.
func (d *FunctionDefinition) ReturnType() string { return d.retty }

// ArgTypes returns the definition's declared argument types.
func (d *FunctionDefinition) ArgTypes() []string { return d.argtys }

// Owner returns the Function this definition belongs to.
func (d *FunctionDefinition) Owner() *Function { return d.owner }

// IsDeclaration reports whether the definition has not yet been given a
// body.
func (d *FunctionDefinition) IsDeclaration() bool { return d.impl == nil }

// Implement creates and attaches a fresh Implementation to d. It fails
// with ReimplementationError if d already has one.
func (d *FunctionDefinition) Implement() (*Implementation, error) {
	if d.impl != nil {
		return nil, &ReimplementationError{Name: d.Name()}
	}
	impl := newImplementation(d)
	d.impl = impl
	return impl, nil
}

// Implementation returns d's body. It fails with MissingImplementation if
// d is still a declaration.
func (d *FunctionDefinition) Implementation() (*Implementation, error) {
	if d.impl == nil {
		return nil, &MissingImplementation{Name: d.Name()}
	}
	return d.impl, nil
}

// --- Intrinsic ---

// Name returns the Intrinsic's name.
func (in *Intrinsic) Name() string { return in.name }

// Kind returns "intr".
func (in *Intrinsic) Kind() string { return "intr" }

// AddDefinition declares a new overload of in with the given return type
// and argument types, validated the same way as Function.AddDefinition.
func (in *Intrinsic) AddDefinition(retty string, argtys []string) (*IntrinsicDefinition, error) {
	ts := in.ctx.TypeSystem()
	if !ts.IsTypeValid(retty) {
		return nil, errors.WithStack(&types.InvalidTypeName{Name: retty})
	}
	for _, a := range argtys {
		if !ts.IsTypeValid(a) {
			return nil, errors.WithStack(&types.InvalidTypeName{Name: a})
		}
	}
	key := argKey(argtys)
	if _, ok := in.defs[key]; ok {
		return nil, &AlreadyDefined{Kind: "definition", Name: in.name + "(" + strings.Join(argtys, ", ") + ")"}
	}
	d := &IntrinsicDefinition{owner: in, retty: retty, argtys: append([]string{}, argtys...)}
	in.defs[key] = d
	in.order = append(in.order, key)
	return d, nil
}

// GetDefinition returns the overload of in declared with exactly argtys,
// or nil if none exists.
func (in *Intrinsic) GetDefinition(argtys []string) *IntrinsicDefinition {
	return in.defs[argKey(argtys)]
}

// HasDefinition reports whether in has an overload declared with exactly
// argtys.
func (in *Intrinsic) HasDefinition(argtys []string) bool {
	_, ok := in.defs[argKey(argtys)]
	return ok
}

// Definitions returns in's overloads in declaration order.
func (in *Intrinsic) Definitions() []Definition {
	out := make([]Definition, 0, len(in.order))
	for _, k := range in.order {
		out = append(out, in.defs[k])
	}
	return out
}

// --- IntrinsicDefinition ---

// Name returns the owning Intrinsic's name.
func (d *IntrinsicDefinition) Name() string { return d.owner.name }

// Kind returns "intr".
func (d *IntrinsicDefinition) Kind() string { return "intr" }

// ReturnType returns the definition's declared return type.
func (d *IntrinsicDefinition) ReturnType() string { return d.retty }

// ArgTypes returns the definition's declared argument types.
func (d *IntrinsicDefinition) ArgTypes() []string { return d.argtys }

// Owner returns the Intrinsic this definition belongs to.
func (d *IntrinsicDefinition) Owner() *Intrinsic { return d.owner }

// --- Implementation ---

func newImplementation(def *FunctionDefinition) *Implementation {
	impl := &Implementation{
		def:   def,
		attrs: make(map[string]struct{}),
	}
	for i, t := range def.argtys {
		impl.args = append(impl.args, &Argument{typ: t, index: i, attrs: make(map[string]struct{})})
	}
	return impl
}

// Definition returns the FunctionDefinition this Implementation is the
// body of.
func (impl *Implementation) Definition() *FunctionDefinition { return impl.def }

// Context returns the owning Context, reached through the Implementation's
// Definition and its Function.
func (impl *Implementation) Context() *Context { return impl.def.owner.ctx }

// Arguments returns the Implementation's formal parameters, in
// declaration order.
func (impl *Implementation) Arguments() []*Argument { return impl.args }

// Attributes returns the Implementation's own function-level attribute
// tags (distinct from any single Argument's), in sorted order.
func (impl *Implementation) Attributes() []string {
	out := make([]string, 0, len(impl.attrs))
	for t := range impl.attrs {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// AddAttribute tags the Implementation itself with attr.
func (impl *Implementation) AddAttribute(attr string) { impl.attrs[attr] = struct{}{} }

// AddConstant appends and returns a new Constant owned by impl.
func (impl *Implementation) AddConstant(typ string, value interface{}, name string) *Constant {
	c := &Constant{typ: typ, value: value, name: name}
	impl.consts = append(impl.consts, c)
	return c
}

// Constants returns the Implementation's constants in append order.
func (impl *Implementation) Constants() []*Constant { return impl.consts }

// AddVariable appends and returns a new Variable owned by impl.
func (impl *Implementation) AddVariable(typ, name string) *Variable {
	v := &Variable{typ: typ, name: name}
	impl.vars = append(impl.vars, v)
	return v
}

// Variables returns the Implementation's variables in append order.
func (impl *Implementation) Variables() []*Variable { return impl.vars }

// AppendBasicBlock creates, appends and returns a new open BasicBlock
// owned by impl.
func (impl *Implementation) AppendBasicBlock() *BasicBlock {
	b := newBasicBlock(impl, impl.nextID)
	impl.nextID++
	impl.blocks = append(impl.blocks, b)
	return b
}

// BasicBlocks returns the Implementation's basic blocks in creation order.
func (impl *Implementation) BasicBlocks() []*BasicBlock { return impl.blocks }

// EntryBlock returns the first BasicBlock created in impl, or nil if none
// exists yet.
func (impl *Implementation) EntryBlock() *BasicBlock {
	if len(impl.blocks) == 0 {
		return nil
	}
	return impl.blocks[0]
}
