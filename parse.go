package equation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Expr is a compiled expression along with the registry its variables read.
type Expr struct {
	// n is the root node of the expression.
	n *Node
	// reg is the registry the expression's variables read.
	reg *Registry
	// names is the list of non-reserved variable names used in the
	// expression, in order of first appearance.
	names []string
}

// compilectx holds general data for compiling. It is also a CompileOption.
type compilectx struct {
	// reg is the registry variables are bound to.
	reg *Registry
	// trace receives the state of each sequence after every pass.
	trace func(pass, state string)
	// seen is the set of names that have been seen this compile, and names
	// is the same in order of appearance.
	seen  map[string]bool
	names []string
}

var (
	symbolPat = regexp.MustCompile(`(?i)\$[a-z]+|x|pi|e`)
	numberPat = regexp.MustCompile(`[0-9.]+`)
	minusPat  = regexp.MustCompile(`-`)
)

// tiers are the binary operators from highest precedence to lowest. Within
// a tier, the leftmost operator is resolved first.
var tiers = []struct {
	name string
	pat  *regexp.Regexp
}{
	{"power", regexp.MustCompile(`\^`)},
	{"product", regexp.MustCompile(`[*/%]`)},
	{"sum", regexp.MustCompile(`[-+]`)},
}

var binops = map[string]Op{
	"^": OpPow,
	"*": OpMul,
	"/": OpDiv,
	"%": OpMod,
	"+": OpAdd,
	"-": OpSub,
}

// Compile compiles an expression. src must not contain whitespace. Every
// variable the expression uses is added to the registry with the value 0 if
// it is not already present; by default, the registry is a new one from
// NewRegistry. If compilation fails, the registry is not modified.
//
// Errors that result from invalid input implement InputError. A
// *BracketError means parentheses are unbalanced; any other error means the
// expression is otherwise malformed.
func Compile(src string, opts ...CompileOption) (*Expr, error) {
	var c compilectx
	for _, opt := range opts {
		c = opt.compileOption(c)
	}
	if c.reg == nil {
		c.reg = NewRegistry()
	}
	c.seen = make(map[string]bool)
	n, err := c.compile(newSequence(src))
	if err != nil {
		return nil, err
	}
	e := Expr{n: n, reg: c.reg}
	for _, name := range c.names {
		c.reg.Add(name)
		if !IsReserved(name) {
			e.names = append(e.names, name)
		}
	}
	return &e, nil
}

// MustCompile is like Compile but panics if the expression cannot be
// compiled.
func MustCompile(src string, opts ...CompileOption) *Expr {
	e, err := Compile(src, opts...)
	if err != nil {
		panic("equation: Compile(" + strconv.Quote(src) + "): " + err.Error())
	}
	return e
}

// compile runs every pass over s and returns the node it reduces to.
func (c *compilectx) compile(s *sequence) (*Node, error) {
	c.tracef("source", s)
	passes := []struct {
		name string
		run  func(*sequence) error
	}{
		{"symbols", c.symbols},
		{"numbers", c.numbers},
		{"parens", c.parens},
		{"negation", func(s *sequence) error { return c.negation(s, false) }},
		{"functions", c.functions},
		{"negation", func(s *sequence) error { return c.negation(s, true) }},
	}
	for _, p := range passes {
		if err := p.run(s); err != nil {
			return nil, err
		}
		c.tracef(p.name, s)
	}
	for _, t := range tiers {
		if err := c.binary(s, t.pat); err != nil {
			return nil, err
		}
		c.tracef(t.name, s)
	}
	return s.result()
}

func (c *compilectx) tracef(pass string, s *sequence) {
	if c.trace != nil {
		c.trace(pass, s.String())
	}
}

// symbols resolves variable names and the constants pi and e.
func (c *compilectx) symbols(s *sequence) error {
	for {
		m, ok := s.find(symbolPat, 0)
		if !ok {
			return nil
		}
		name := strings.ToLower(strings.TrimPrefix(m.text, "$"))
		if !c.seen[name] {
			c.seen[name] = true
			c.names = append(c.names, name)
		}
		if _, err := s.spliceRange(m.start, m.end-1, segment{node: Var(name, c.reg)}); err != nil {
			return err
		}
	}
}

// numbers resolves numeric literals.
func (c *compilectx) numbers(s *sequence) error {
	for {
		m, ok := s.find(numberPat, 0)
		if !ok {
			return nil
		}
		v, err := strconv.ParseFloat(m.text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			loc, lerr := s.locate(m.start)
			if lerr != nil {
				return lerr
			}
			return &NumberError{Col: s.column(loc), Text: m.text}
		}
		n := &Node{kind: KindConst, text: m.text, val: v}
		if _, err := s.spliceRange(m.start, m.end-1, segment{node: n}); err != nil {
			return err
		}
	}
}

// parens compiles each parenthesized group as its own sequence and replaces
// the group with the result.
func (c *compilectx) parens(s *sequence) error {
	for {
		open := strings.IndexByte(s.logicalString(), '(')
		if open < 0 {
			return nil
		}
		close, err := s.matchingParenIndex(open)
		if err != nil {
			return err
		}
		sub, err := s.subsequence(open, close)
		if err != nil {
			return err
		}
		n, err := c.compile(sub)
		if err != nil {
			return err
		}
		if _, err := s.spliceRange(open, close, segment{node: n}); err != nil {
			return err
		}
	}
}

// negation resolves unary minus. A minus at the start of a segment other
// than the first follows a resolved operand, so it is subtraction and is
// left for the binary pass. Any other minus is negation of the resolved
// segment after it. A minus followed by more raw text, as in -sin(x) or the
// first of --x, has no operand yet and is skipped until the text after it
// resolves. On the final run, one that never gets an operand is an error.
func (c *compilectx) negation(s *sequence, final bool) error {
	from, pending := 0, 0
	for {
		m, ok := s.find(minusPat, from)
		if !ok {
			if final && pending != 0 {
				return &OperandError{Col: pending, Operator: "-"}
			}
			return nil
		}
		loc, err := s.locate(m.start)
		if err != nil {
			return err
		}
		if loc.off == 0 && loc.seg > 0 {
			from = m.end
			continue
		}
		if loc.off < len(s.segs[loc.seg].text)-1 {
			if pending == 0 {
				pending = s.column(loc)
			}
			from = m.end
			continue
		}
		next := loc.seg + 1
		if next >= len(s.segs) || !s.segs[next].resolved() {
			return &OperandError{Col: s.column(loc), Operator: "-"}
		}
		x := s.segs[next].node
		s.remove(next)
		if _, err := s.spliceRange(m.start, m.end-1, segment{node: Unary(OpNeg, x)}); err != nil {
			return err
		}
		from, pending = 0, 0
	}
}

// functions resolves function names applied to the resolved segment that
// follows them.
func (c *compilectx) functions(s *sequence) error {
	for _, f := range funcs {
		for {
			m, ok := s.find(f.pat, 0)
			if !ok {
				break
			}
			loc, err := s.locate(m.start)
			if err != nil {
				return err
			}
			next := loc.seg + 1
			if loc.off+len(m.text) != len(s.segs[loc.seg].text) || next >= len(s.segs) || !s.segs[next].resolved() {
				return &OperandError{Col: s.column(loc), Operator: f.name}
			}
			x := s.segs[next].node
			s.remove(next)
			if _, err := s.spliceRange(m.start, m.end-1, segment{node: Unary(f.op, x)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// binary resolves the operators of one precedence tier, leftmost first.
func (c *compilectx) binary(s *sequence, pat *regexp.Regexp) error {
	for {
		m, ok := s.find(pat, 0)
		if !ok {
			return nil
		}
		loc, err := s.locate(m.start)
		if err != nil {
			return err
		}
		prev, next := loc.seg-1, loc.seg+1
		if loc.off != 0 || prev < 0 || !s.segs[prev].resolved() {
			return &OperandError{Col: s.column(loc), Operator: m.text, Side: "left"}
		}
		if len(s.segs[loc.seg].text) != 1 || next >= len(s.segs) || !s.segs[next].resolved() {
			return &OperandError{Col: s.column(loc), Operator: m.text, Side: "right"}
		}
		n := Binary(binops[m.text], s.segs[prev].node, s.segs[next].node)
		s.remove(next)
		s.remove(prev)
		if _, err := s.spliceRange(m.start, m.end-1, segment{node: n}); err != nil {
			return err
		}
	}
}

// result checks that s has been reduced to a single node and returns it.
func (s *sequence) result() (*Node, error) {
	s.prune()
	if len(s.segs) == 0 {
		return nil, &RemainderError{Col: s.end + 1}
	}
	if len(s.segs) == 1 && s.segs[0].resolved() {
		return s.segs[0].node, nil
	}
	for _, seg := range s.segs {
		if !seg.resolved() {
			return nil, &RemainderError{Col: seg.pos + 1, Text: seg.text, Parts: len(s.segs)}
		}
	}
	return nil, &RemainderError{Col: s.segs[1].pos + 1, Parts: len(s.segs)}
}

// Root returns the root node of the expression.
func (e *Expr) Root() *Node {
	return e.n
}

// Registry returns the registry the expression's variables read.
func (e *Expr) Registry() *Registry {
	return e.reg
}

// Vars returns the non-reserved variable names the expression uses in order
// of first appearance. These are the parameters a fitter varies.
func (e *Expr) Vars() []string {
	return append([]string(nil), e.names...)
}

// Clone returns a deep copy of the expression that shares its registry.
func (e *Expr) Clone() *Expr {
	return &Expr{n: e.n.Clone(), reg: e.reg, names: e.Vars()}
}

// Rebind returns a deep copy of the expression whose variables read reg
// instead. Names the expression uses are added to reg if they are missing.
// Rebinding to a clone of the registry gives an expression that can be
// evaluated concurrently with the original.
func (e *Expr) Rebind(reg *Registry) *Expr {
	if reg == nil {
		panic("equation: Rebind with nil registry")
	}
	n := e.n.rebind(reg)
	n.walk(func(v *Node) {
		if v.kind == KindVar {
			reg.Add(v.text)
		}
	})
	return &Expr{n: n, reg: reg, names: e.Vars()}
}

// String formats the expression as source that compiles to the same tree.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, nil, true)
	return b.String()
}

// Fill formats the expression with the values in vals substituted for the
// variables they name, e.g. to show a fitted curve.
func (e *Expr) Fill(vals map[string]float64) string {
	low := make(map[string]float64, len(vals))
	for k, v := range vals {
		low[strings.ToLower(strings.TrimPrefix(k, "$"))] = v
	}
	var b strings.Builder
	e.n.fmt(&b, low, true)
	return b.String()
}
