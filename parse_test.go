package equation

import (
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"
)

// Shorthands for building expected trees.
func num(v float64) *Node       { return Const(v) }
func ref(name string) *Node     { return Var(name, nil) }
func neg(x *Node) *Node         { return Unary(OpNeg, x) }
func add(l, r *Node) *Node      { return Binary(OpAdd, l, r) }
func sub(l, r *Node) *Node      { return Binary(OpSub, l, r) }
func mul(l, r *Node) *Node      { return Binary(OpMul, l, r) }
func div(l, r *Node) *Node      { return Binary(OpDiv, l, r) }
func pow(l, r *Node) *Node      { return Binary(OpPow, l, r) }
func call(op Op, x *Node) *Node { return Unary(op, x) }

func raw(text string, pos int) segment { return segment{text: text, pos: pos} }
func res(n *Node, pos int) segment     { return segment{node: n, pos: pos} }

func TestLocate(t *testing.T) {
	s := &sequence{segs: []segment{raw("ab", 0), res(num(1), 2), raw("cd", 3)}}
	if got := s.logicalString(); got != "abcd" {
		t.Errorf("wrong logical string: want %q, got %q", "abcd", got)
	}
	cases := []struct {
		pos  int
		want location
	}{
		{0, location{0, 0}},
		{1, location{0, 1}},
		{2, location{2, 0}},
		{3, location{2, 1}},
	}
	for _, c := range cases {
		got, err := s.locate(c.pos)
		if err != nil {
			t.Errorf("locate(%d) failed: %v", c.pos, err)
			continue
		}
		if got != c.want {
			t.Errorf("locate(%d): want %+v, got %+v", c.pos, c.want, got)
		}
	}
	for _, pos := range []int{-1, 4, 100} {
		_, err := s.locate(pos)
		if _, ok := err.(*RangeError); !ok {
			t.Errorf("locate(%d) gave %#v instead of *RangeError", pos, err)
		}
	}
}

func TestSpliceRange(t *testing.T) {
	n := num(7)
	cases := []struct {
		name       string
		segs       []segment
		start, end int
		want       []segment
		idx        int
	}{
		{
			name:  "middle",
			segs:  []segment{raw("abcdef", 0)},
			start: 1,
			end:   3,
			want:  []segment{raw("a", 0), res(n, 1), raw("ef", 4)},
			idx:   1,
		},
		{
			name:  "whole",
			segs:  []segment{raw("abc", 0)},
			start: 0,
			end:   2,
			want:  []segment{res(n, 0)},
			idx:   0,
		},
		{
			name:  "across",
			segs:  []segment{raw("ab", 0), res(num(1), 2), raw("cd", 3)},
			start: 1,
			end:   2,
			want:  []segment{raw("a", 0), res(n, 1), raw("d", 4)},
			idx:   1,
		},
		{
			name:  "after",
			segs:  []segment{res(num(1), 0), raw("+", 1), res(num(2), 2)},
			start: 0,
			end:   0,
			want:  []segment{res(num(1), 0), res(n, 1), res(num(2), 2)},
			idx:   1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &sequence{segs: c.segs}
			idx, err := s.spliceRange(c.start, c.end, segment{node: n})
			if err != nil {
				t.Fatalf("splice failed: %v", err)
			}
			if idx != c.idx {
				t.Errorf("wrong index: want %d, got %d", c.idx, idx)
			}
			if len(s.segs) != len(c.want) {
				t.Fatalf("wrong segments: want %v, got %v", &sequence{segs: c.want}, s)
			}
			for i, seg := range s.segs {
				w := c.want[i]
				if seg.text != w.text || seg.pos != w.pos || !seg.node.Equal(w.node) {
					t.Errorf("segment %d: want %+v, got %+v", i, w, seg)
				}
			}
		})
	}
}

func TestSpliceRangeBackward(t *testing.T) {
	s := newSequence("abc")
	if _, err := s.spliceRange(2, 1, segment{node: num(1)}); err == nil {
		t.Errorf("backward splice succeeded: %v", s)
	}
}

func TestMatchingParenIndex(t *testing.T) {
	s := &sequence{segs: []segment{raw("(a(", 0), res(num(1), 3), raw("b)c)d", 4)}}
	cases := []struct {
		open, close int
	}{
		{0, 6},
		{2, 4},
	}
	for _, c := range cases {
		got, err := s.matchingParenIndex(c.open)
		if err != nil {
			t.Errorf("matchingParenIndex(%d) failed: %v", c.open, err)
			continue
		}
		if got != c.close {
			t.Errorf("matchingParenIndex(%d): want %d, got %d", c.open, c.close, got)
		}
	}
	if _, err := s.matchingParenIndex(1); err == nil {
		t.Errorf("matched a paren at a non-paren")
	}
	u := newSequence("x*((y)")
	_, err := u.matchingParenIndex(2)
	berr, ok := err.(*BracketError)
	if !ok {
		t.Fatalf("unbalanced parens gave %#v instead of *BracketError", err)
	}
	if berr.Col != 3 {
		t.Errorf("wrong column: want 3, got %d", berr.Col)
	}
}

func TestSubsequence(t *testing.T) {
	s := &sequence{segs: []segment{raw("2*(", 0), res(num(3), 3), raw("+", 4), res(num(4), 5), raw(")", 6)}}
	sub, err := s.subsequence(2, 4)
	if err != nil {
		t.Fatalf("subsequence failed: %v", err)
	}
	want := []segment{res(num(3), 3), raw("+", 4), res(num(4), 5)}
	if len(sub.segs) != len(want) {
		t.Fatalf("wrong subsequence: want %v, got %v", &sequence{segs: want}, sub)
	}
	for i, seg := range sub.segs {
		w := want[i]
		if seg.text != w.text || seg.pos != w.pos || !seg.node.Equal(w.node) {
			t.Errorf("segment %d: want %+v, got %+v", i, w, seg)
		}
	}
	if sub.end != 6 {
		t.Errorf("wrong end: want 6, got %d", sub.end)
	}
}

func TestFind(t *testing.T) {
	s := &sequence{segs: []segment{raw("a-", 0), res(num(1), 2), raw("-b", 3), res(num(2), 5), raw("sin", 6)}}
	minus := regexp.MustCompile(`-`)
	cases := []struct {
		from  int
		start int
		ok    bool
	}{
		{0, 1, true},
		{1, 1, true},
		{2, 2, true},
		{3, 0, false},
	}
	for _, c := range cases {
		m, ok := s.find(minus, c.from)
		if ok != c.ok {
			t.Errorf("find from %d: want found=%t, got %t", c.from, c.ok, ok)
			continue
		}
		if ok && (m.start != c.start || m.end != c.start+1 || m.text != "-") {
			t.Errorf("find from %d: want start %d, got %+v", c.from, c.start, m)
		}
	}
	// Matches can't straddle a resolved segment.
	t.Run("straddle", func(t *testing.T) {
		s := &sequence{segs: []segment{raw("s", 0), res(num(1), 1), raw("in", 2)}}
		if m, ok := s.find(regexp.MustCompile(`sin`), 0); ok {
			t.Errorf("found %+v across a resolved segment", m)
		}
	})
}

func TestCompileTrees(t *testing.T) {
	x := ref("x")
	cases := []struct {
		name string
		src  string
		n    *Node
	}{
		{"num", "2", num(2)},
		{"frac", "2.5", num(2.5)},
		{"lead-dot", ".5", num(0.5)},
		{"var", "x", x},
		{"param", "$a", ref("a")},
		{"param-upper", "$AbC", ref("abc")},
		{"pi", "pi", ref("pi")},
		{"pi-upper", "PI", ref("pi")},
		{"e", "e", ref("e")},
		{"paren", "(x)", x},
		{"multi", "(((x)))", x},

		{"add", "2+3", add(num(2), num(3))},
		{"sub", "3-5", sub(num(3), num(5))},
		{"neg", "-5", neg(num(5))},
		{"negx", "-x", neg(x)},
		{"prec", "2+3*4", add(num(2), mul(num(3), num(4)))},
		{"pow", "2^3^2", pow(pow(num(2), num(3)), num(2))},
		{"tier-mul", "8/2*2", mul(div(num(8), num(2)), num(2))},
		{"tier-add", "1-2+3", add(sub(num(1), num(2)), num(3))},
		{"mod", "7%4*2", mul(Binary(OpMod, num(7), num(4)), num(2))},
		{"negpow", "-2^2", pow(neg(num(2)), num(2))},
		{"negneg", "--x", neg(neg(x))},
		{"negsub", "-x-x", sub(neg(x), x)},
		{"subneg", "2--3", sub(num(2), neg(num(3)))},
		{"mulneg", "2*-3", mul(num(2), neg(num(3)))},
		{"powneg", "x^-1", pow(x, neg(num(1)))},
		{"parenneg", "2*(-3)", mul(num(2), neg(num(3)))},
		{"negparen", "-(2+3)", neg(add(num(2), num(3)))},

		{"sin", "sin(x)", call(OpSin, x)},
		{"sin-upper", "SIN(x)", call(OpSin, x)},
		{"arcsin", "arcsin(x)", call(OpAsin, x)},
		{"arccos", "arccos(x)", call(OpAcos, x)},
		{"arctan", "arctan(x)", call(OpAtan, x)},
		{"cos", "cos(x)", call(OpCos, x)},
		{"tan", "tan(x)", call(OpTan, x)},
		{"abs", "abs(x)", call(OpAbs, x)},
		{"log", "log(x)", call(OpLog, x)},
		{"ln", "ln(e)", call(OpLn, ref("e"))},
		{"nested", "sin(cos(x))", call(OpSin, call(OpCos, x))},
		{"absneg", "abs(-x)", call(OpAbs, neg(x))},
		{"negfunc", "-sin(x)", neg(call(OpSin, x))},
		{"subfunc", "2-sin(x)", sub(num(2), call(OpSin, x))},
		{"mulnegfunc", "2*-sin(x)", mul(num(2), neg(call(OpSin, x)))},
		{"negnegfunc", "--sin(x)", neg(neg(call(OpSin, x)))},
		{"subnegfunc", "2--sin(x)", sub(num(2), neg(call(OpSin, x)))},
		{"funcsub", "sin(x)-1", sub(call(OpSin, x), num(1))},
		{"funcpow", "ln(x)^2", pow(call(OpLn, x), num(2))},

		{
			"quadratic",
			"$a*x^2+$b*x+$c",
			add(add(mul(ref("a"), pow(x, num(2))), mul(ref("b"), x)), ref("c")),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := Compile(c.src)
			if err != nil {
				t.Fatalf("%q failed to compile: %v", c.src, err)
			}
			if !e.n.Equal(c.n) {
				t.Errorf("mismatched tree from %q:\n\twant %v\n\tgot  %v", c.src, c.n, e.n)
			}
			if err := e.n.Check(); err != nil {
				t.Errorf("%q compiled to a malformed tree: %v", c.src, err)
			}
		})
	}
}

func TestCompileBindsRegistry(t *testing.T) {
	reg := NewRegistry()
	e, err := Compile("$a*x+pi", WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	e.n.walk(func(n *Node) {
		if n.kind == KindVar && n.reg != reg {
			t.Errorf("variable %q bound to %p instead of %p", n.text, n.reg, reg)
		}
	})
	if e.Registry() != reg {
		t.Errorf("expression has registry %p instead of %p", e.Registry(), reg)
	}
	want := []string{Pi, E, "a", X}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("wrong registry names: want %q, got %q", want, got)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		col  int
		res  []string
	}{
		{"empty", "", new(RemainderError), 1, []string{`(?i)\bno expression\b`}},
		{"emptyparen", "()", new(RemainderError), 2, []string{`(?i)\bno expression\b`}},
		{"left", "(2+3", new(BracketError), 1, []string{`(?i)\bbracket\b`, `\(`}},
		{"left-inner", "2*((x)", new(BracketError), 3, []string{`(?i)\bbracket\b`}},
		{"right", "2)", new(RemainderError), 2, []string{`"\)"`}},
		{"juxtaposed", "(2)(3)", new(RemainderError), 4, []string{`\b2\b`}},
		{"implicit-mul", "2x", new(RemainderError), 2, nil},
		{"space", "2 3", new(RemainderError), 2, []string{`" "`}},
		{"unknown", "exp(x)", new(RemainderError), 3, []string{`"p"`}},
		{"lead-op", "+5", new(OperandError), 1, []string{`(?i)\bleft\b`, `"\+"`}},
		{"trail-op", "5*", new(OperandError), 2, []string{`(?i)\bright\b`, `"\*"`}},
		{"trail-minus", "5-", new(OperandError), 2, []string{`(?i)\bright\b`, `"-"`}},
		{"double-op", "2**3", new(OperandError), 2, []string{`(?i)\bright\b`}},
		{"minus-plus", "2-+3", new(OperandError), 2, []string{`(?i)\bright\b`}},
		{"minus", "-", new(OperandError), 1, []string{`"-"`}},
		{"neg-trail", "2*-", new(OperandError), 3, []string{`"-"`}},
		{"neg-op", "-+5", new(OperandError), 1, []string{`"-"`}},
		{"func-bare", "sin", new(OperandError), 1, []string{`"sin"`}},
		{"func-op", "sin+1", new(OperandError), 1, []string{`"sin"`}},
		{"func-empty", "sin()", new(RemainderError), 5, []string{`(?i)\bno expression\b`}},
		{"number", "1.2.3", new(NumberError), 1, []string{`"1\.2\.3"`}},
		{"dot", "2+.", new(NumberError), 3, []string{`"\."`}},
		{"inner-op", "2*(3+)", new(OperandError), 5, []string{`(?i)\bright\b`}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reg := NewRegistry()
			e, err := Compile(c.src, WithRegistry(reg))
			if e != nil {
				t.Errorf("%q compiled to %v", c.src, e.n)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Fatalf("wrong error type from %q: want %T, got %#v", c.src, c.err, err)
			}
			if col := err.(InputError).Pos(); col != c.col {
				t.Errorf("wrong error position from %q: want %d, got %d (%v)", c.src, c.col, col, err)
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
			if reg.Len() != 2 {
				t.Errorf("failed compile changed the registry: %v", reg)
			}
		})
	}
}

func TestTrace(t *testing.T) {
	var passes, states []string
	_, err := Compile("2+3", Trace(func(pass, state string) {
		passes = append(passes, pass)
		states = append(states, state)
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"source", "symbols", "numbers", "parens", "negation", "functions", "negation", "power", "product", "sum"}
	if !reflect.DeepEqual(passes, want) {
		t.Errorf("wrong passes:\n\twant %q\n\tgot  %q", want, passes)
	}
	if len(states) != len(want) {
		t.FailNow()
	}
	if got := states[0]; got != `["2+3"]` {
		t.Errorf("wrong initial state %s", got)
	}
	if got := states[2]; got != `[2 "+" 3]` {
		t.Errorf("wrong state after numbers %s", got)
	}
	if got := states[len(states)-1]; got != `[(2+3)]` {
		t.Errorf("wrong final state %s", got)
	}
}

func TestTraceNested(t *testing.T) {
	n := 0
	_, err := Compile("2*(3+(4))", Trace(func(pass, state string) {
		if pass == "source" {
			n++
		}
	}))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("wrong number of traced sequences: want 3, got %d", n)
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"num", "2", "2"},
		{"var", "X", "x"},
		{"param", "$A", "$a"},
		{"add", "2+3", "2+3"},
		{"prec", "2+3*4", "2+(3*4)"},
		{"pow", "2^3^2", "(2^3)^2"},
		{"negpow", "-2^2", "-2^2"},
		{"negparen", "-(2+3)", "-(2+3)"},
		{"negneg", "--x", "--x"},
		{"subneg", "2--3", "2--3"},
		{"func", "SIN(x+1)", "sin(x+1)"},
		{"quadratic", "$a*x^2+$b*x+$c", "(($a*(x^2))+($b*x))+$c"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := Compile(c.src)
			if err != nil {
				t.Fatalf("%q failed to compile: %v", c.src, err)
			}
			s := a.String()
			if s != c.want {
				t.Errorf("%q formatted as %q, want %q", c.src, s, c.want)
			}
			b, err := Compile(s)
			if err != nil {
				t.Fatalf("%q -> %q failed to compile: %v", c.src, s, err)
			}
			if !a.n.Equal(b.n) {
				t.Errorf("mismatched tree:\n\t%q compiles to %v\n\t%q compiles to %v", c.src, a.n, s, b.n)
			}
		})
	}
}

func TestFill(t *testing.T) {
	e, err := Compile("$a*x+$b")
	if err != nil {
		t.Fatal(err)
	}
	got := e.Fill(map[string]float64{"a": 2.5, "$B": -1})
	if want := "(2.5*x)+(-1)"; got != want {
		t.Errorf("wrong fill: want %q, got %q", want, got)
	}
	if !strings.Contains(e.String(), "$a") {
		t.Errorf("fill modified the expression: %v", e)
	}
}

func TestNonFiniteString(t *testing.T) {
	cases := []struct {
		name string
		v    float64
		want string
	}{
		{"inf", math.Inf(1), "(1/0)"},
		{"neginf", math.Inf(-1), "(-1/0)"},
		{"nan", math.NaN(), "(0/0)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reg := NewRegistry()
			reg.Set("x", 2)
			n := Binary(OpAdd, Const(c.v), Var("x", reg))
			s := n.String()
			if want := "(" + c.want + "+x)"; s != want {
				t.Errorf("const formatted as %q, want %q", s, want)
			}
			checkNonFinite(t, s, c.v)

			e, err := Compile("$a*x")
			if err != nil {
				t.Fatal(err)
			}
			f := e.Fill(map[string]float64{"a": c.v})
			if want := c.want + "*x"; f != want {
				t.Errorf("fill formatted as %q, want %q", f, want)
			}
			checkNonFinite(t, f, c.v)
		})
	}
}

// checkNonFinite compiles src with x=2 and checks that it evaluates to the
// same non-finite value as v.
func checkNonFinite(t *testing.T, src string, v float64) {
	t.Helper()
	e, err := Compile(src)
	if err != nil {
		t.Fatalf("%q doesn't compile: %v", src, err)
	}
	e.Registry().Set("x", 2)
	r, err := e.Eval()
	if err != nil {
		t.Fatalf("%q doesn't evaluate: %v", src, err)
	}
	switch {
	case math.IsNaN(v):
		if !math.IsNaN(r) {
			t.Errorf("%q gave %g, want NaN", src, r)
		}
	case r != v:
		t.Errorf("%q gave %g, want %g", src, r, v)
	}
}

func BenchmarkCompile(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "$w^x*$y+$z+$a*$b^$c"},
		{"descasc-parens", "((($w^x)*$y)+$z)+$a*($b^$c)"},
		{"ascdesc", "$w+x*$y^$z^$a*$b+$c"},
		{"nums", "1^1.1*1.1+.1*3^2.5"},
		{"funcs", "sin(x)*cos(x)+ln(abs(x))-arctan(-x)"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Compile(c.src)
			}
		})
	}
}
