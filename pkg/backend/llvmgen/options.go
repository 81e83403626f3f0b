// Package llvmgen is the concrete LLVM-backed Backend: default
// TypeImplementations for every built-in type, default lowerings for
// arithmetic/comparison/cast/call/load/store/assign, and a Translator
// that lowers one ir.Implementation into an llvm.Module.
package llvmgen

import "strconv"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options configures a Backend's target and its default type widths. The
// shape mirrors the teacher's own Options struct, trimmed to the knobs a
// library backend needs — no source path, no CLI flags.
type Options struct {
	TargetArch   int  // Target machine architecture; see the Target* constants.
	AddressWidth int  // Bit width of types.Address and of every pointer; 0 selects the host's width.
	ReleaseBuild bool // Stored with the Backend; no optimization passes are run, whatever its value.
}

// ---------------------
// ----- Constants -----
// ---------------------

// Target machine architectures, mirroring the teacher's enumeration.
const (
	TargetUnknown = iota
	TargetX86_64
	TargetAarch64
)

// DefaultOptions returns an Options value targeting x86-64, using the
// host's native address width, with ReleaseBuild unset.
func DefaultOptions() Options {
	return Options{
		TargetArch:   TargetX86_64,
		AddressWidth: 0,
	}
}

func (o Options) addressWidth() int {
	if o.AddressWidth > 0 {
		return o.AddressWidth
	}
	return strconv.IntSize
}
