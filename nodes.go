package equation

import (
	"math"
	"strconv"
	"strings"
)

// Node is a node in a compiled expression tree. Nodes are immutable once the
// compiler returns them; only the values in their Registry change.
type Node struct {
	kind Kind
	op   Op

	// text is the source text of a constant or the name of a variable.
	text string
	val  float64
	reg  *Registry

	args []*Node
}

// Kind is the kind of a node.
type Kind int8

const (
	KindNone Kind = iota

	KindConst  // push val
	KindVar    // push reg[text]
	KindUnary  // evaluate args[0], apply op
	KindBinary // evaluate args[0] and args[1], apply op
)

// Arity returns the number of children a node of kind k has.
func (k Kind) Arity() int {
	switch k {
	case KindUnary:
		return 1
	case KindBinary:
		return 2
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindConst:
		return "Const"
	case KindVar:
		return "Var"
	case KindUnary:
		return "Unary"
	case KindBinary:
		return "Binary"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Op is the operation applied by a unary or binary node.
type Op int8

const (
	OpNone Op = iota

	OpNeg
	OpAbs
	OpAsin
	OpAcos
	OpAtan
	OpSin
	OpCos
	OpTan
	OpLog
	OpLn

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

// Unary returns whether op is applied by unary nodes.
func (op Op) Unary() bool {
	return OpNeg <= op && op <= OpLn
}

// Binary returns whether op is applied by binary nodes.
func (op Op) Binary() bool {
	return OpAdd <= op && op <= OpPow
}

var opnames = [...]string{
	OpNone: "none",
	OpNeg:  "-",
	OpAbs:  "abs",
	OpAsin: "arcsin",
	OpAcos: "arccos",
	OpAtan: "arctan",
	OpSin:  "sin",
	OpCos:  "cos",
	OpTan:  "tan",
	OpLog:  "log",
	OpLn:   "ln",
	OpAdd:  "+",
	OpSub:  "-",
	OpMul:  "*",
	OpDiv:  "/",
	OpMod:  "%",
	OpPow:  "^",
}

// String returns the function name or operator symbol for op.
func (op Op) String() string {
	if op < 0 || int(op) >= len(opnames) {
		return "Op(" + strconv.Itoa(int(op)) + ")"
	}
	return opnames[op]
}

// Const creates a constant node.
func Const(v float64) *Node {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return &Node{kind: KindConst, text: literal(v), val: v}
	}
	return &Node{kind: KindConst, text: formatFloat(v, 'f'), val: v}
}

// Var creates a variable node reading name from reg. The name is not added to
// reg; evaluating the node before it is is an error.
func Var(name string, reg *Registry) *Node {
	return &Node{kind: KindVar, text: strings.ToLower(name), reg: reg}
}

// Unary creates a unary node. Panics if op is not a unary operation.
func Unary(op Op, x *Node) *Node {
	if !op.Unary() {
		panic("equation: " + op.String() + " is not a unary operation")
	}
	return &Node{kind: KindUnary, op: op, args: []*Node{x}}
}

// Binary creates a binary node. Panics if op is not a binary operation.
func Binary(op Op, l, r *Node) *Node {
	if !op.Binary() {
		panic("equation: " + op.String() + " is not a binary operation")
	}
	return &Node{kind: KindBinary, op: op, args: []*Node{l, r}}
}

// Kind returns the kind of n.
func (n *Node) Kind() Kind {
	return n.kind
}

// Op returns the operation of a unary or binary node, or OpNone.
func (n *Node) Op() Op {
	return n.op
}

// Value returns the value of a constant node.
func (n *Node) Value() float64 {
	return n.val
}

// Name returns the name of a variable node.
func (n *Node) Name() string {
	if n.kind != KindVar {
		return ""
	}
	return n.text
}

// Registry returns the registry a variable node reads from.
func (n *Node) Registry() *Registry {
	return n.reg
}

// Args returns a copy of the children of n.
func (n *Node) Args() []*Node {
	return append([]*Node(nil), n.args...)
}

// check panics with an *ArityError if n has the wrong number of children for
// its kind or an operation that doesn't belong to its kind.
func (n *Node) check() {
	if err := n.checkOne(); err != nil {
		panic(err)
	}
}

func (n *Node) checkOne() *ArityError {
	ok := len(n.args) == n.kind.Arity()
	switch n.kind {
	case KindConst, KindVar:
		ok = ok && n.op == OpNone
	case KindUnary:
		ok = ok && n.op.Unary()
	case KindBinary:
		ok = ok && n.op.Binary()
	default:
		ok = false
	}
	if ok {
		return nil
	}
	return &ArityError{Kind: n.kind, Op: n.op, Want: n.kind.Arity(), Got: len(n.args)}
}

// Check verifies the structure of the tree rooted at n. The compiler only
// produces valid trees, so an error here means a tree was built or modified
// incorrectly.
func (n *Node) Check() error {
	if err := n.checkOne(); err != nil {
		return err
	}
	for _, a := range n.args {
		if a == nil {
			return &ArityError{Kind: n.kind, Op: n.op, Want: n.kind.Arity(), Got: len(n.args)}
		}
		if err := a.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of n. Variables in the copy share n's Registry.
func (n *Node) Clone() *Node {
	return n.rebind(nil)
}

// rebind deep copies n, pointing variables at reg, or at their current
// registry if reg is nil.
func (n *Node) rebind(reg *Registry) *Node {
	m := *n
	if reg != nil && m.kind == KindVar {
		m.reg = reg
	}
	if len(n.args) > 0 {
		m.args = make([]*Node, len(n.args))
		for i, a := range n.args {
			m.args[i] = a.rebind(reg)
		}
	}
	return &m
}

// walk calls f on n and each of its descendants in prefix order.
func (n *Node) walk(f func(*Node)) {
	f(n)
	for _, a := range n.args {
		a.walk(f)
	}
}

// Equal returns whether n and m have the same structure, operations,
// constants, and variable names. Registries are not compared.
func (n *Node) Equal(m *Node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.kind != m.kind || n.op != m.op || len(n.args) != len(m.args) {
		return false
	}
	switch n.kind {
	case KindConst:
		if n.val != m.val {
			return false
		}
	case KindVar:
		if n.text != m.text {
			return false
		}
	}
	for i := range n.args {
		if !n.args[i].Equal(m.args[i]) {
			return false
		}
	}
	return true
}

// String formats the tree rooted at n as source the compiler accepts.
func (n *Node) String() string {
	var b strings.Builder
	n.fmt(&b, nil, false)
	return b.String()
}

// fmt writes n to b. Values in fill replace the variables they name. If bare
// is true, a binary node at the top is written without parentheses.
func (n *Node) fmt(b *strings.Builder, fill map[string]float64, bare bool) {
	n.check()
	switch n.kind {
	case KindConst:
		if n.val < 0 && !math.IsInf(n.val, -1) {
			b.WriteString("(" + n.text + ")")
			return
		}
		b.WriteString(n.text)
	case KindVar:
		if v, ok := fill[n.text]; ok {
			b.WriteString(literal(v))
			return
		}
		if !IsReserved(n.text) {
			b.WriteByte('$')
		}
		b.WriteString(n.text)
	case KindUnary:
		if n.op == OpNeg {
			b.WriteByte('-')
			n.args[0].fmt(b, fill, false)
			return
		}
		b.WriteString(n.op.String())
		b.WriteByte('(')
		n.args[0].fmt(b, fill, true)
		b.WriteByte(')')
	case KindBinary:
		if !bare {
			b.WriteByte('(')
		}
		n.args[0].fmt(b, fill, false)
		b.WriteString(n.op.String())
		n.args[1].fmt(b, fill, false)
		if !bare {
			b.WriteByte(')')
		}
	default:
		panic("equation: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// literal formats v as source that compiles to v. Non-finite values are
// written as divisions by zero.
func literal(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "(1/0)"
	case math.IsInf(v, -1):
		return "(-1/0)"
	case math.IsNaN(v):
		return "(0/0)"
	case v < 0:
		return "(" + formatFloat(v, 'f') + ")"
	}
	return formatFloat(v, 'f')
}

func formatFloat(v float64, verb byte) string {
	return strconv.FormatFloat(v, verb, -1, 64)
}
