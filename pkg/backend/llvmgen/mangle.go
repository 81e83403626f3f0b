package llvmgen

import (
	"fmt"
	"strings"
)

// mangle produces a valid LLVM symbol name for name by escaping every
// byte outside [A-Za-z0-9_] as _XX_, where XX is its two-digit
// hexadecimal value. Type names (which may carry trailing '*'s) and
// argument-type tuples are joined with '.' before mangling so two
// distinct overloads of the same function never collide.
// Mangle is mangle's exported form, so execute.Manager can derive a
// definition's symbol without translating it first (to consult its memo
// table before paying for a Translate call).
func Mangle(name string, argtys []string) string {
	return mangle(name, argtys)
}

func mangle(name string, argtys []string) string {
	full := name
	for _, t := range argtys {
		full += "." + t
	}
	return mangleSymbol(full)
}

func mangleSymbol(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X_", c)
		}
	}
	return b.String()
}
