package llvmgen

import (
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Backend is the concrete LLVM-backed backend: a
// backend.Registry seeded with default type, arithmetic, comparison and
// cast implementations for every built-in type, plus the shared LLVM
// context every Translator built from it emits into.
type Backend struct {
	*backend.Registry
	opt Options
	ctx llvm.Context

	// intrinsics holds the compiled body of every intrinsic specialization
	// DefineIntrinsic registers, keyed by its mangled symbol. A
	// Translator-generated call site only ever extern-declares this
	// symbol and calls it; execute.Manager adds this module to its
	// engine exactly once so MCJIT resolves those extern declarations by
	// name across every module it owns, the same role the teacher's
	// original source gives its own intrinsic-library module.
	intrinsics llvm.Module
}

// BackendExtension is the InstallToBackend half of the installable
// extension pattern; ir.Extension is its InstallToContext counterpart.
// ext/arraytype implements both.
type BackendExtension interface {
	InstallToBackend(be *Backend)
}

// ---------------------
// ----- functions -----
// ---------------------

// New returns a Backend configured by opt, with every built-in type and
// operation already registered.
func New(opt Options) *Backend {
	be := &Backend{
		Registry: backend.NewRegistry(),
		opt:      opt,
		ctx:      llvm.NewContext(),
	}
	be.intrinsics = be.ctx.NewModule("mlvm_intrinsics")
	be.registerDefaultTypes()
	be.registerDefaultOperations()
	return be
}

// Options returns the Options the Backend was constructed with.
func (be *Backend) Options() Options { return be.opt }

// LLVMContext returns the llvm.Context every module translated through be
// is created in.
func (be *Backend) LLVMContext() llvm.Context { return be.ctx }

// Install hands ext a chance to register additional types, operations
// and intrinsics against be. As with ir.Context.Install, installation
// order is whatever order the caller invokes Install in.
func (be *Backend) Install(ext BackendExtension) {
	ext.InstallToBackend(be)
}

// Dispose releases the Backend's LLVM context. Call it once the Backend
// and every Unit translated through it are no longer needed.
func (be *Backend) Dispose() {
	be.ctx.Dispose()
}

// IntrinsicsModule returns the module every DefineIntrinsic call builds
// into. execute.Manager adds it to its engine once, alongside every
// per-definition Unit module, so a call site's extern declaration of an
// intrinsic's mangled symbol resolves to the body built here.
func (be *Backend) IntrinsicsModule() llvm.Module { return be.intrinsics }

// DefineIntrinsic builds the complete LLVM function body for one
// intrinsic specialization — the counterpart of a Translator's call-site
// lowering, which only ever extern-declares this same mangled symbol and
// calls it. Unlike RegisterOperation, redefining the same (name, argtys)
// pair fails with backend.DuplicateIntrinsicError: two independent
// extensions colliding on a name should fail loudly rather than silently
// pick a winner, the same policy Registry.RegisterIntrinsic enforces for
// bookkeeping-only registrations.
func (be *Backend) DefineIntrinsic(name string, argtys []string, retty string, build func(b *llvm.Builder, fn llvm.Value)) error {
	sym := Mangle(name, argtys)
	if !be.intrinsics.NamedFunction(sym).IsNil() {
		return &backend.DuplicateIntrinsicError{Name: name, ArgTys: argtys}
	}

	retImpl, err := be.TypeImplementation(retty)
	if err != nil {
		return err
	}
	argCtys := make([]llvm.Type, len(argtys))
	for i, a := range argtys {
		ai, err := be.TypeImplementation(a)
		if err != nil {
			return err
		}
		argCtys[i] = ai.CType().(llvm.Type)
	}

	fnTy := llvm.FunctionType(retImpl.CType().(llvm.Type), argCtys, false)
	fn := llvm.AddFunction(be.intrinsics, sym, fnTy)

	b := be.ctx.NewBuilder()
	defer b.Dispose()
	build(b, fn)
	return nil
}
