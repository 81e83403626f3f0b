package ir

import "github.com/sklam/mlvm/pkg/types"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Context owns a type system plus every Function and Intrinsic declared
// against it. Functions and intrinsics live in separate namespaces: a
// function and an intrinsic may share a name.
type Context struct {
	ts *types.System

	functions map[string]*Function
	funcOrder []string

	intrinsics map[string]*Intrinsic
	intrOrder  []string
}

// Extension is the "installable" pattern used by optional capabilities
// such as ext/arraytype: anything exposing InstallToContext can be handed
// to Context.Install. The backend-side counterpart,
// InstallToBackend(be *llvmgen.Backend), is the separate
// llvmgen.BackendExtension interface, so ir never imports a backend.
type Extension interface {
	InstallToContext(ctx *Context)
}

// ---------------------
// ----- functions -----
// ---------------------

// NewContext returns a Context backed by ts. If ts is nil, types.New() is
// used.
func NewContext(ts *types.System) *Context {
	if ts == nil {
		ts = types.New()
	}
	return &Context{
		ts:         ts,
		functions:  make(map[string]*Function),
		intrinsics: make(map[string]*Intrinsic),
	}
}

// TypeSystem returns the Context's type system.
func (c *Context) TypeSystem() *types.System { return c.ts }

// AddFunction declares a new, definition-less Function named name. It
// fails with AlreadyDefined if a function with this name already exists.
func (c *Context) AddFunction(name string) (*Function, error) {
	if _, ok := c.functions[name]; ok {
		return nil, &AlreadyDefined{Kind: "function", Name: name}
	}
	f := &Function{ctx: c, name: name, defs: make(map[string]*FunctionDefinition)}
	c.functions[name] = f
	c.funcOrder = append(c.funcOrder, name)
	return f, nil
}

// GetOrInsertFunction returns the Function named name, creating an empty
// one if it does not already exist.
func (c *Context) GetOrInsertFunction(name string) *Function {
	if f, ok := c.functions[name]; ok {
		return f
	}
	f, _ := c.AddFunction(name)
	return f
}

// GetFunction returns the Function named name, or nil if none exists.
func (c *Context) GetFunction(name string) *Function { return c.functions[name] }

// Functions returns every declared Function, in declaration order.
func (c *Context) Functions() []*Function {
	out := make([]*Function, 0, len(c.funcOrder))
	for _, n := range c.funcOrder {
		out = append(out, c.functions[n])
	}
	return out
}

// AddIntrinsic declares a new, definition-less Intrinsic named name. It
// fails with AlreadyDefined if an intrinsic with this name already
// exists.
func (c *Context) AddIntrinsic(name string) (*Intrinsic, error) {
	if _, ok := c.intrinsics[name]; ok {
		return nil, &AlreadyDefined{Kind: "intrinsic", Name: name}
	}
	in := &Intrinsic{ctx: c, name: name, defs: make(map[string]*IntrinsicDefinition)}
	c.intrinsics[name] = in
	c.intrOrder = append(c.intrOrder, name)
	return in, nil
}

// GetOrInsertIntrinsic returns the Intrinsic named name, creating an
// empty one if it does not already exist.
func (c *Context) GetOrInsertIntrinsic(name string) *Intrinsic {
	if in, ok := c.intrinsics[name]; ok {
		return in
	}
	in, _ := c.AddIntrinsic(name)
	return in
}

// GetIntrinsic returns the Intrinsic named name, or nil if none exists.
func (c *Context) GetIntrinsic(name string) *Intrinsic { return c.intrinsics[name] }

// Intrinsics returns every declared Intrinsic, in declaration order.
func (c *Context) Intrinsics() []*Intrinsic {
	out := make([]*Intrinsic, 0, len(c.intrOrder))
	for _, n := range c.intrOrder {
		out = append(out, c.intrinsics[n])
	}
	return out
}

// Install hands ext a chance to register types, functions and intrinsics
// against c. Installation order is whatever order the caller invokes
// Install in; Context does not reorder or deduplicate extensions.
func (c *Context) Install(ext Extension) {
	ext.InstallToContext(c)
}
