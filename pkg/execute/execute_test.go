package execute

import "testing"

// TestToInt64 and friends exercise the pure-Go argument coercion helpers
// genericvalue.go uses before ever touching llvm.GenericValue. Like
// backend/llvmgen's own test file, this package stops short of
// exercising actual LLVM codegen or JIT execution in tests.

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
		ok   bool
	}{
		{int32(-7), -7, true},
		{int64(42), 42, true},
		{"nope", 0, false},
	}
	for _, c := range cases {
		got, ok := toInt64(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("toInt64(%v) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestToUint64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{uint32(7), 7, true},
		{true, 1, true},
		{false, 0, true},
		{3.5, 0, false},
	}
	for _, c := range cases {
		got, ok := toUint64(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("toUint64(%v) = (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestToFloat64(t *testing.T) {
	got, ok := toFloat64(float32(1.5))
	if !ok || got != 1.5 {
		t.Fatalf("toFloat64(float32(1.5)) = (%v, %v), want (1.5, true)", got, ok)
	}
	if _, ok := toFloat64(1); ok {
		t.Fatalf("toFloat64(int) should not be ok")
	}
}

func TestJITFunctionEqual(t *testing.T) {
	m := &Manager{}
	a := &JITFunction{parent: m, symbol: "f.int32"}
	b := &JITFunction{parent: m, symbol: "f.int32"}
	c := &JITFunction{parent: m, symbol: "g.int32"}

	if !a.Equal(b) {
		t.Fatalf("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Fatalf("expected !a.Equal(c)")
	}
	if a.Equal(nil) {
		t.Fatalf("expected !a.Equal(nil)")
	}
}
