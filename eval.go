package equation

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Eval evaluates the tree rooted at n using the current values in the
// registries of its variables. Domain errors in functions and operators are
// not errors; they produce NaN or infinities following package math. The only
// error is a *NameError for a variable missing from its registry.
//
// Eval panics with an *ArityError if the tree is malformed.
func (n *Node) Eval() (float64, error) {
	n.check()
	switch n.kind {
	case KindConst:
		return n.val, nil
	case KindVar:
		if n.reg == nil {
			return 0, &NameError{Name: n.text}
		}
		v, ok := n.reg.vals[n.text]
		if !ok {
			return 0, &NameError{Name: n.text}
		}
		return v, nil
	case KindUnary:
		x, err := n.args[0].Eval()
		if err != nil {
			return 0, err
		}
		return apply1(n.op, x), nil
	case KindBinary:
		a, err := n.args[0].Eval()
		if err != nil {
			return 0, err
		}
		b, err := n.args[1].Eval()
		if err != nil {
			return 0, err
		}
		return apply2(n.op, a, b), nil
	}
	panic("equation: invalid AST node " + n.kind.String())
}

// EvalBig evaluates the tree rooted at n with the given precision in bits. If
// prec is 0, the precision is 64. Constants are read from their source text at
// the full precision, and pi and e use exact constants unless their values in
// the registry have been changed. Trigonometric functions are computed at
// float64 precision. Since a big.Float cannot be NaN, anything that would
// produce NaN is a *DomainError instead.
func (n *Node) EvalBig(prec uint) (r *big.Float, err error) {
	if prec == 0 {
		prec = 64
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		var nan big.ErrNaN
		e, ok := p.(error)
		if !ok || !errors.As(e, &nan) {
			panic(p)
		}
		r, err = nil, &DomainError{Func: nan.Error()}
	}()
	r = new(big.Float).SetPrec(prec)
	if err := n.evalBig(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (n *Node) evalBig(r *big.Float) error {
	n.check()
	switch n.kind {
	case KindConst:
		if math.IsNaN(n.val) {
			return &DomainError{Func: n.text}
		}
		if _, _, err := r.Parse(n.text, 10); err != nil {
			r.SetFloat64(n.val)
		}
		return nil
	case KindVar:
		if n.reg == nil {
			return &NameError{Name: n.text}
		}
		v, ok := n.reg.vals[n.text]
		if !ok {
			return &NameError{Name: n.text}
		}
		switch {
		case math.IsNaN(v):
			return &DomainError{Func: n.text}
		case n.text == Pi && v == math.Pi:
			bigfloat.Pi(r)
		case n.text == E && v == math.E:
			one := new(big.Float).SetPrec(r.Prec()).SetFloat64(1)
			bigfloat.Exp(r, one)
		default:
			r.SetFloat64(v)
		}
		return nil
	case KindUnary:
		x := new(big.Float).SetPrec(r.Prec())
		if err := n.args[0].evalBig(x); err != nil {
			return err
		}
		return bigUnary(n.op, r, x)
	case KindBinary:
		a := new(big.Float).SetPrec(r.Prec())
		if err := n.args[0].evalBig(a); err != nil {
			return err
		}
		b := new(big.Float).SetPrec(r.Prec())
		if err := n.args[1].evalBig(b); err != nil {
			return err
		}
		return bigBinary(n.op, r, a, b)
	}
	panic("equation: invalid AST node " + n.kind.String())
}

// Eval evaluates the expression with the current values in its registry.
func (e *Expr) Eval() (float64, error) {
	return e.n.Eval()
}

// EvalBig evaluates the expression with big floats. See Node.EvalBig.
func (e *Expr) EvalBig(prec uint) (*big.Float, error) {
	return e.n.EvalBig(prec)
}

// NameError is an error from a lookup for a variable that is missing from the
// registry.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// DomainError is an error returned from big float evaluation when an
// operation is applied outside its domain.
type DomainError struct {
	// X is the out-of-domain argument, if it is representable.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err DomainError) Error() string {
	r := "NaN"
	if err.X != nil {
		r = err.X.String()
	}
	r += " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
