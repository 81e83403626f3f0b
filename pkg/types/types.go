// Package types implements MLVM's type system: the set of valid type
// names, on-demand pointer-type synthesis, and the implicit-cast lattice
// used by the Builder to coerce operands and select overloads.
package types

import (
	"strings"

	"github.com/pkg/errors"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// InvalidTypeName is returned whenever a type name that is not registered,
// and whose pointee chain does not bottom out in a registered name, is
// used as a cast edge endpoint or otherwise queried.
type InvalidTypeName struct {
	Name string // Name is the offending type name.
}

func (e *InvalidTypeName) Error() string {
	return "invalid type name: " + e.Name
}

// System owns the set of valid type names and the implicit-cast lattice.
// A System is not safe for concurrent use; see §5 of the specification.
type System struct {
	names  map[string]struct{}    // names holds every explicitly registered (non-pointer) type name.
	fwd    map[string]map[string]struct{} // fwd[s] is the set of names s can implicitly cast to.
	rev    map[string]map[string]struct{} // rev[d] is the set of names that can implicitly cast to d; kept coherent with fwd.
}

// ---------------------
// ----- Constants -----
// ---------------------

// Built-in type names seeded into every new System.
const (
	Int8    = "int8"
	Int16   = "int16"
	Int32   = "int32"
	Int64   = "int64"
	Uint8   = "uint8"
	Uint16  = "uint16"
	Uint32  = "uint32"
	Uint64  = "uint64"
	Float   = "float"
	Double  = "double"
	Pred    = "pred"
	Address = "address"
	Void    = "void"
)

// SignedInts lists the built-in signed integer type names in widening order.
var SignedInts = []string{Int8, Int16, Int32, Int64}

// UnsignedInts lists the built-in unsigned integer type names in widening order.
var UnsignedInts = []string{Uint8, Uint16, Uint32, Uint64}

// Reals lists the built-in floating point type names in widening order.
var Reals = []string{Float, Double}

// Ints lists every built-in integer type name, signed then unsigned.
var Ints = append(append([]string{}, SignedInts...), UnsignedInts...)

// -------------------
// ----- globals -----
// -------------------

// ---------------------
// ----- functions -----
// ---------------------

// New returns a System seeded with the built-in type names and the default
// implicit-cast lattice described in the specification: widening within
// same-sign integers, pred -> any integer, float -> double, and any
// built-in integer <-> address.
func New() *System {
	return NewWithCasts(nil)
}

// NewWithCasts returns a System seeded with the built-in type names, using
// castTable as the starting implicit-cast lattice instead of the default
// one. castTable may be nil, in which case the default lattice is used.
// Either way the lattice is closed over the built-in edges using the same
// chaining rule as UpdateImplicitCast.
func NewWithCasts(castTable map[string][]string) *System {
	ts := &System{
		names: make(map[string]struct{}),
		fwd:   make(map[string]map[string]struct{}),
		rev:   make(map[string]map[string]struct{}),
	}
	for _, n := range builtinNames() {
		ts.names[n] = struct{}{}
	}
	if castTable == nil {
		castTable = defaultImplicitCasts()
	}
	// The first population of the lattice cannot fail validation since
	// castTable is expected to only reference built-ins; guard anyway so a
	// caller-supplied override with a typo fails loudly.
	if err := ts.UpdateImplicitCast(castTable); err != nil {
		panic(errors.Wrap(err, "types: invalid built-in implicit cast table"))
	}
	return ts
}

func builtinNames() []string {
	names := []string{Pred, Address, Float, Double, Void}
	names = append(names, Ints...)
	return names
}

// defaultImplicitCasts builds the default implicit-cast edge map described
// in spec.md §3: widening within same-sign integers; pred -> any integer;
// float -> double; any built-in integer <-> address.
func defaultImplicitCasts() map[string][]string {
	conv := make(map[string][]string)
	add := func(s, d string) {
		conv[s] = append(conv[s], d)
	}

	for _, group := range [][]string{SignedInts, UnsignedInts} {
		for i, s := range group {
			for _, d := range group[i+1:] {
				add(s, d)
			}
		}
	}
	for _, i := range Ints {
		add(Pred, i)
	}
	for i, s := range Reals {
		for _, d := range Reals[i+1:] {
			add(s, d)
		}
	}
	for _, group := range [][]string{SignedInts, UnsignedInts} {
		for _, i := range group {
			add(Address, i)
			add(i, Address)
		}
	}
	return conv
}

// IsTypeValid reports whether t, or its pointee chain stripped one
// trailing '*' at a time, names a registered type. void participates in
// no casts but is itself a valid type name.
func (ts *System) IsTypeValid(t string) bool {
	if _, ok := ts.names[t]; ok {
		return true
	}
	if strings.HasSuffix(t, "*") {
		return ts.IsTypeValid(t[:len(t)-1])
	}
	return false
}

// AddType registers name as a valid, non-pointer type name.
func (ts *System) AddType(name string) {
	ts.names[name] = struct{}{}
}

// Types returns every explicitly registered (non-pointer) type name. The
// order is unspecified.
func (ts *System) Types() []string {
	out := make([]string, 0, len(ts.names))
	for n := range ts.names {
		out = append(out, n)
	}
	return out
}

// CanImplicitCast reports whether from can be implicitly cast to to, i.e.
// whether the edge from->to is present in the lattice after closure.
func (ts *System) CanImplicitCast(from, to string) bool {
	if dests, ok := ts.fwd[from]; ok {
		if _, ok := dests[to]; ok {
			return true
		}
	}
	return false
}

// UpdateImplicitCast adds the src->dst edges named in edges to the
// lattice. Every endpoint must already be a valid type name, or
// InvalidTypeName is returned and no edge is added. Adding an edge s->d
// also adds p->d for every p that reached s before the call (chained
// closure). Edges leading out of d are not followed, and edges given in
// the same call are not chained with each other, so the lattice is not
// transitively closed in general.
func (ts *System) UpdateImplicitCast(edges map[string][]string) error {
	for s, ds := range edges {
		if !ts.IsTypeValid(s) {
			return errors.WithStack(&InvalidTypeName{Name: s})
		}
		for _, d := range ds {
			if !ts.IsTypeValid(d) {
				return errors.WithStack(&InvalidTypeName{Name: d})
			}
		}
	}

	// Stage the new edges, including the chained closure, before mutating
	// ts so that a caller retrying after a validation failure never
	// observes a partially-updated lattice.
	type edge struct{ s, d string }
	var staged []edge
	for s, ds := range edges {
		for _, d := range ds {
			staged = append(staged, edge{s, d})
			for p := range ts.rev[s] {
				staged = append(staged, edge{p, d})
			}
		}
	}

	for _, e := range staged {
		ts.addEdge(e.s, e.d)
	}
	return nil
}

// addEdge inserts a single forward edge and its reverse counterpart.
func (ts *System) addEdge(s, d string) {
	if ts.fwd[s] == nil {
		ts.fwd[s] = make(map[string]struct{})
	}
	ts.fwd[s][d] = struct{}{}

	if ts.rev[d] == nil {
		ts.rev[d] = make(map[string]struct{})
	}
	ts.rev[d][s] = struct{}{}
}

// Pointee returns the type name with exactly one trailing '*' removed,
// and true, if t names a pointer type. Otherwise it returns t unchanged
// and false.
func Pointee(t string) (string, bool) {
	if strings.HasSuffix(t, "*") {
		return t[:len(t)-1], true
	}
	return t, false
}

// PointerTo returns the pointer type synthesized over t.
func PointerTo(t string) string {
	return t + "*"
}

// IsPointer reports whether t names a pointer type.
func IsPointer(t string) bool {
	return strings.HasSuffix(t, "*")
}
