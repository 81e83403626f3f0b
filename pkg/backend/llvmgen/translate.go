package llvmgen

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"tinygo.org/x/go-llvm"

	"github.com/sklam/mlvm/pkg/backend"
	"github.com/sklam/mlvm/pkg/ir"
	mtypes "github.com/sklam/mlvm/pkg/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Unit is the translated form of one FunctionDefinition: its own LLVM
// module containing exactly one defined function (any callee it invokes
// is left as an external declaration, for execute.Manager to resolve at
// link time) plus the mangled symbol name that function was emitted
// under.
type Unit struct {
	symbol string
	module llvm.Module
	fn     llvm.Value
}

// Symbol returns the mangled name the translated function was emitted
// under.
func (u *Unit) Symbol() string { return u.symbol }

// Module returns the Unit's LLVM module.
func (u *Unit) Module() llvm.Module { return u.module }

// Function returns the Unit's LLVM function value.
func (u *Unit) Function() llvm.Value { return u.fn }

// Translator lowers one ir.FunctionDefinition's Implementation into a
// Unit at a time, the same one-target-module-per-function-definition
// granularity the teacher's own GenLLVM uses per top-level declaration.
type Translator struct {
	be *Backend
}

// translateBuilder adapts an in-progress llvm.Builder to the
// backend.TranslateBuilder interface so OperationImplementations
// registered against be can reach it without llvmgen exposing its
// builder type through the backend package.
type translateBuilder struct {
	b   *llvm.Builder
	blk llvm.BasicBlock
}

func (t *translateBuilder) CurrentBlock() interface{} { return t.blk }
func (t *translateBuilder) Handle() interface{}       { return t.b }

// ---------------------
// ----- functions -----
// ---------------------

// NewTranslator returns a Translator that looks up type and operation
// implementations in be.
func NewTranslator(be *Backend) *Translator {
	return &Translator{be: be}
}

// Translate lowers def's Implementation to a Unit. def must already be
// implemented (def.Implementation() must not fail).
func (tr *Translator) Translate(def *ir.FunctionDefinition) (*Unit, error) {
	impl, err := def.Implementation()
	if err != nil {
		return nil, err
	}
	if len(impl.BasicBlocks()) == 0 {
		return nil, errors.Errorf("llvmgen: %s has no basic blocks", def.Name())
	}

	sym := mangle(def.Name(), def.ArgTypes())
	ctx := tr.be.LLVMContext()
	// The module name itself is never looked up (call sites resolve by
	// sym, not by module name), but giving each translated unit a unique
	// one — rather than reusing sym, which a re-translation of the same
	// definition would collide on — avoids relying on LLVM's own
	// disambiguating suffix behavior when more than one Unit for the same
	// definition is alive at once.
	mod := ctx.NewModule(sym + "." + uuid.NewString())
	b := ctx.NewBuilder()
	defer b.Dispose()

	retImpl, err := tr.be.TypeImplementation(def.ReturnType())
	if err != nil {
		return nil, err
	}

	argTypeImpls := make([]backend.TypeImplementation, len(def.ArgTypes()))
	argCtys := make([]llvm.Type, len(def.ArgTypes()))
	for i, at := range def.ArgTypes() {
		ati, err := tr.be.TypeImplementation(at)
		if err != nil {
			return nil, err
		}
		argTypeImpls[i] = ati
		argCtys[i] = ati.CType().(llvm.Type)
	}

	fnTy := llvm.FunctionType(retImpl.CType().(llvm.Type), argCtys, false)
	fn := llvm.AddFunction(mod, sym, fnTy)

	entry := llvm.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(entry)
	tb := &translateBuilder{b: b, blk: entry}

	values := make(map[ir.Value]llvm.Value)
	addrs := make(map[*ir.Variable]llvm.Value)

	for i, arg := range impl.Arguments() {
		p := fn.Param(i)
		if name := arg.Name(); name != "" {
			p.SetName(name)
		}
		coerced, err := argTypeImpls[i].CTypeArgument(b, p)
		if err != nil {
			return nil, errors.Wrapf(err, "llvmgen: %s: argument %d", def.Name(), i)
		}
		values[arg] = coerced.(llvm.Value)
	}

	for _, c := range impl.Constants() {
		ti, err := tr.be.TypeImplementation(c.Type())
		if err != nil {
			return nil, err
		}
		cv, err := ti.Constant(b, c.Value())
		if err != nil {
			return nil, errors.Wrapf(err, "llvmgen: %s: constant %s", def.Name(), c.Name())
		}
		values[c] = cv.(llvm.Value)
	}

	for _, v := range impl.Variables() {
		ti, err := tr.be.TypeImplementation(v.Type())
		if err != nil {
			return nil, err
		}
		addr, err := ti.Allocate(b, v.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "llvmgen: %s: variable %s", def.Name(), v.Name())
		}
		addrs[v] = addr.(llvm.Value)
		if init := v.Initializer(); init != nil {
			if err := ti.Store(b, values[init], addr); err != nil {
				return nil, err
			}
		}
	}

	blockMap := make(map[*ir.BasicBlock]llvm.BasicBlock, len(impl.BasicBlocks()))
	for _, blk := range impl.BasicBlocks() {
		blockMap[blk] = llvm.AddBasicBlock(fn, blk.Name())
	}
	b.SetInsertPointAtEnd(entry)
	b.CreateBr(blockMap[impl.BasicBlocks()[0]])

	blocks := impl.BasicBlocks()
	for bi, blk := range blocks {
		llblk := blockMap[blk]
		b.SetInsertPointAtEnd(llblk)
		tb.blk = llblk

		for _, op := range blk.Operations() {
			result, err := tr.translateOperation(mod, tb, op, values, addrs)
			if err != nil {
				return nil, errors.Wrapf(err, "llvmgen: %s: %s", def.Name(), blk.Name())
			}
			if result, ok := result.(llvm.Value); ok && op.HasResult() {
				values[op] = result
			}
		}

		term := blk.Terminator()
		if term == nil {
			// An open block falls through to the next one; an open last
			// block may only end a void function.
			switch {
			case bi+1 < len(blocks):
				b.CreateBr(blockMap[blocks[bi+1]])
				continue
			case def.ReturnType() == mtypes.Void:
				b.CreateRetVoid()
				continue
			}
			return nil, &backend.MissingReturn{Function: def.Name(), Block: blk.Name()}
		}
		if err := tr.translateTerminator(tb, term, values, blockMap, retImpl); err != nil {
			return nil, errors.Wrapf(err, "llvmgen: %s: %s", def.Name(), blk.Name())
		}
	}

	return &Unit{symbol: sym, module: mod, fn: fn}, nil
}

func resolve(values map[ir.Value]llvm.Value, v ir.Value) (llvm.Value, error) {
	val, ok := values[v]
	if !ok {
		return llvm.Value{}, errors.Errorf("llvmgen: value %v used before definition", v)
	}
	return val, nil
}

// translateOperation lowers a single non-terminating Operation. assign,
// store, load, ref, cast.* and call.* are special-cased directly,
// mirroring the teacher's own special-casing of a handful of node kinds;
// every other opcode (arithmetic, comparison) dispatches through the
// Backend's operation registry.
func (tr *Translator) translateOperation(mod llvm.Module, tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value, addrs map[*ir.Variable]llvm.Value) (interface{}, error) {
	switch {
	case op.Name() == "assign":
		return nil, tr.translateAssign(tb, op, values, addrs)
	case op.Name() == "store":
		return nil, tr.translateStore(tb, op, values)
	case op.Name() == "load":
		return tr.translateLoad(tb, op, values)
	case op.Name() == "ref":
		return tr.translateRef(tb, op, values, addrs)
	case isCast(op.Name()):
		return tr.translateCast(tb, op, values)
	case isCall(op.Name()):
		return tr.translateCall(mod, tb, op, values)
	default:
		argtys := make([]string, len(op.Operands()))
		operands := make([]interface{}, len(op.Operands()))
		for i, o := range op.Operands() {
			argtys[i] = o.Type()
			v, err := resolve(values, o)
			if err != nil {
				return nil, err
			}
			operands[i] = v
		}
		impl, err := tr.be.OperationImplementation(op.Name(), argtys)
		if err != nil {
			return nil, err
		}
		return impl(tb, operands)
	}
}

func (tr *Translator) translateAssign(tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value, addrs map[*ir.Variable]llvm.Value) error {
	value, err := resolve(values, op.Operands()[0])
	if err != nil {
		return err
	}
	v := op.Operands()[1].(*ir.Variable)
	ti, err := tr.be.TypeImplementation(v.Type())
	if err != nil {
		return err
	}
	return ti.Store(tb.b, value, addrs[v])
}

func (tr *Translator) translateStore(tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value) error {
	value, err := resolve(values, op.Operands()[0])
	if err != nil {
		return err
	}
	ptr, err := resolve(values, op.Operands()[1])
	if err != nil {
		return err
	}
	pointee, _ := mtypes.Pointee(op.Operands()[1].Type())
	ti, err := tr.be.TypeImplementation(pointee)
	if err != nil {
		return err
	}
	return ti.Store(tb.b, value, ptr)
}

func (tr *Translator) translateLoad(tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value) (interface{}, error) {
	ptr, err := resolve(values, op.Operands()[0])
	if err != nil {
		return nil, err
	}
	ti, err := tr.be.TypeImplementation(op.Type())
	if err != nil {
		return nil, err
	}
	return ti.Load(tb.b, ptr)
}

func (tr *Translator) translateRef(tb *translateBuilder, op *ir.Operation, values map[ir.Value]llvm.Value, addrs map[*ir.Variable]llvm.Value) (interface{}, error) {
	target := op.Operands()[0]
	if v, ok := target.(*ir.Variable); ok {
		return addrs[v], nil
	}
	// Spill a non-Variable operand (an argument, constant or another
	// operation's result) to a fresh stack slot so it has an address.
	value, err := resolve(values, target)
	if err != nil {
		return nil, err
	}
	ti, err := tr.be.TypeImplementation(target.Type())
	if err != nil {
		return nil, err
	}
	addr, err := ti.Allocate(tb.b, "")
	if err != nil {
		return nil, err
	}
	if err := ti.Store(tb.b, value, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

func (tr *Translator) translateTerminator(tb *translateBuilder, term ir.Terminator, values map[ir.Value]llvm.Value, blockMap map[*ir.BasicBlock]llvm.BasicBlock, retImpl backend.TypeImplementation) error {
	switch t := term.(type) {
	case *ir.Branch:
		tb.b.CreateBr(blockMap[t.Dest])
		return nil
	case *ir.ConditionBranch:
		pred, err := resolve(values, t.Pred)
		if err != nil {
			return err
		}
		tb.b.CreateCondBr(pred, blockMap[t.True], blockMap[t.False])
		return nil
	case *ir.Return:
		if t.Value == nil {
			tb.b.CreateRetVoid()
			return nil
		}
		val, err := resolve(values, t.Value)
		if err != nil {
			return err
		}
		coerced, err := retImpl.CTypeReturn(tb.b, val)
		if err != nil {
			return err
		}
		tb.b.CreateRet(coerced.(llvm.Value))
		return nil
	default:
		return errors.Errorf("llvmgen: unknown terminator %T", term)
	}
}

