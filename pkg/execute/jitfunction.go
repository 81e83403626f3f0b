package execute

import (
	"runtime"

	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// JITFunction is one definition's implementation, translated and linked
// into its parent Manager's engine, ready to Call from Go.
type JITFunction struct {
	parent *Manager
	def    *ir.FunctionDefinition
	fn     llvm.Value
	symbol string

	// ReleaseRuntime, when set, locks the calling goroutine to its
	// current OS thread for the duration of Call. The JIT'd code runs on
	// whatever OS thread the calling goroutine happens to be scheduled
	// on; set this when that code relies on thread-local state (signal
	// masks, TLS slots installed by an extension) surviving unchanged
	// across the call.
	ReleaseRuntime bool
}

// ---------------------
// ----- functions -----
// ---------------------

// Symbol returns the mangled name f was linked into its engine under.
func (f *JITFunction) Symbol() string { return f.symbol }

// Definition returns the FunctionDefinition f was built from.
func (f *JITFunction) Definition() *ir.FunctionDefinition { return f.def }

// Equal reports whether f and other are the same compiled definition
// from the same Manager. JITFunctions compare by symbol and parent
// rather than Go pointer identity, since BuildFunction may be called
// more than once for the same definition.
func (f *JITFunction) Equal(other *JITFunction) bool {
	if other == nil {
		return false
	}
	return f.parent == other.parent && f.symbol == other.symbol
}

// Call invokes f with args, one per f's Definition argument, in order.
// Each arg is marshaled to the GenericValue RunFunction expects for that
// argument's IR type; the result is marshaled back the same way. A void
// return yields a nil result.
func (f *JITFunction) Call(args ...interface{}) (interface{}, error) {
	argtys := f.def.ArgTypes()
	if len(args) != len(argtys) {
		return nil, errors.Errorf("execute: %s: expected %d arguments, got %d", f.symbol, len(argtys), len(args))
	}

	if f.ReleaseRuntime {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	gvs := make([]llvm.GenericValue, len(args))
	for i, a := range args {
		gv, err := toGenericValue(f.parent.be, argtys[i], a)
		if err != nil {
			return nil, err
		}
		gvs[i] = gv
	}

	result := f.parent.engine.RunFunction(f.fn, gvs)
	return fromGenericValue(f.parent.be, f.def.ReturnType(), result)
}
