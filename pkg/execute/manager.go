// Package execute turns translated Units into callable host functions:
// it owns the MCJIT execution engine translated modules are linked into,
// memoizes one JITFunction per definition, and marshals arguments and
// return values across the GenericValue boundary RunFunction expects.
package execute

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend/llvmgen"
	"github.com/sklam/mlvm/pkg/ir"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Manager owns one MCJIT ExecutionEngine that every translated
// definition is linked into, so calls between JIT'd functions resolve
// without the caller having to manage cross-module symbol lookup itself.
type Manager struct {
	be     *llvmgen.Backend
	tr     *llvmgen.Translator
	engine llvm.ExecutionEngine
	host   llvm.Module

	mx    sync.Mutex
	funcs map[string]*JITFunction
}

// ---------------------
// ----- functions -----
// ---------------------

var initEngineOnce sync.Once
var initEngineErr error

// initNativeTarget performs the process-wide, once-only LLVM target
// initialization RunFunction's native-code path requires.
func initNativeTarget() error {
	initEngineOnce.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			initEngineErr = errors.Wrap(err, "execute: initializing native target")
			return
		}
		if err := llvm.InitializeNativeAsmPrinter(); err != nil {
			initEngineErr = errors.Wrap(err, "execute: initializing native asm printer")
			return
		}
	})
	return initEngineErr
}

// NewManager returns a Manager that translates and links definitions
// through be. be's LLVMContext is shared with every Unit the Manager
// links, so the returned Manager must not outlive be.
func NewManager(be *llvmgen.Backend) (*Manager, error) {
	if err := initNativeTarget(); err != nil {
		return nil, err
	}
	// A random suffix, rather than a fixed name, keeps two concurrently
	// alive Managers (e.g. one per test) from ever naming their host
	// module the same thing — the Go analogue of the original's
	// id(self)-derived module name, which has no portable equivalent
	// here.
	host := be.LLVMContext().NewModule("mlvm_host." + uuid.NewString())
	opts := llvm.NewMCJITCompilerOptions()
	engine, err := llvm.NewMCJITCompiler(host, opts)
	if err != nil {
		return nil, errors.Wrap(err, "execute: creating MCJIT compiler")
	}
	// Adding be's intrinsics module to this engine (once, here) is what
	// lets every later-added Unit module's extern declaration of a
	// DefineIntrinsic symbol resolve: MCJIT looks a called symbol up by
	// name across every module owned by one engine.
	engine.AddModule(be.IntrinsicsModule())
	return &Manager{
		be:     be,
		tr:     llvmgen.NewTranslator(be),
		engine: engine,
		host:   host,
		funcs:  make(map[string]*JITFunction),
	}, nil
}

// BuildFunction translates def (if it hasn't been already) and links the
// result into m's engine, returning a JITFunction callers can invoke
// directly. Calling BuildFunction again for the same definition returns
// the memoized JITFunction without re-translating.
func (m *Manager) BuildFunction(def *ir.FunctionDefinition) (*JITFunction, error) {
	sym := llvmgen.Mangle(def.Name(), def.ArgTypes())

	m.mx.Lock()
	defer m.mx.Unlock()

	if fn, ok := m.funcs[sym]; ok {
		return fn, nil
	}

	unit, err := m.tr.Translate(def)
	if err != nil {
		return nil, err
	}
	m.engine.AddModule(unit.Module())

	fnVal, ok := m.engine.FindFunction(unit.Symbol())
	if !ok {
		return nil, errors.Errorf("execute: %s: linked module does not expose its own function", unit.Symbol())
	}

	jf := &JITFunction{
		parent: m,
		def:    def,
		fn:     fnVal,
		symbol: unit.Symbol(),
	}
	m.funcs[sym] = jf
	return jf, nil
}

// Dispose releases m's execution engine and every module linked into it.
// Call it once every JITFunction built through m is no longer needed.
func (m *Manager) Dispose() {
	m.engine.Dispose()
}
