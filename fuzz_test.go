//go:build go1.18
// +build go1.18

package equation_test

import (
	"testing"

	"github.com/zephyrtronium/equation"
)

func FuzzCompile(f *testing.F) {
	f.Add("x")
	f.Add("$a*x^2+$b*x+$c")
	f.Add("-sin(-x)--2")
	f.Add("((2)")
	f.Fuzz(func(t *testing.T, s string) {
		e, err := equation.Compile(s)
		if err != nil {
			if _, ok := err.(equation.InputError); !ok {
				t.Errorf("%q gave error %#v which is not an InputError", s, err)
			}
			return
		}
		if err := e.Root().Check(); err != nil {
			t.Errorf("%q compiled to a malformed tree: %v", s, err)
		}
		r := e.String()
		f, err := equation.Compile(r)
		if err != nil {
			t.Fatalf("%q formatted as %q which fails to compile: %v", s, r, err)
		}
		if !e.Root().Equal(f.Root()) {
			t.Errorf("%q formatted as %q which compiles differently:\n\t%v\n\t%v", s, r, e.Root(), f.Root())
		}
	})
}

func FuzzEval(f *testing.F) {
	f.Add("x", 1.0)
	f.Add("ln(x)%x", -1.0)
	f.Add("1/0-1/0", 0.0)
	f.Fuzz(func(t *testing.T, s string, x float64) {
		e, err := equation.Compile(s)
		if err != nil {
			return
		}
		e.Registry().Set(equation.X, x)
		if _, err := e.Eval(); err != nil {
			t.Errorf("evaluating %q failed: %v", s, err)
		}
		e.EvalBig(64)
	})
}
