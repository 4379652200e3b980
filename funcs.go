package equation

import (
	"math"
	"math/big"
	"regexp"

	"github.com/zephyrtronium/bigfloat"
)

// unaryFunc is a function the compiler recognizes by name.
type unaryFunc struct {
	name string
	op   Op
	pat  *regexp.Regexp
}

func fn(name string, op Op) unaryFunc {
	return unaryFunc{name: name, op: op, pat: regexp.MustCompile("(?i)" + regexp.QuoteMeta(name))}
}

// funcs is the list of functions in the order the compiler resolves them.
// Names which contain other names must come first so that the shorter name
// can't match inside them.
var funcs = []unaryFunc{
	fn("abs", OpAbs),
	fn("arcsin", OpAsin),
	fn("arccos", OpAcos),
	fn("arctan", OpAtan),
	fn("sin", OpSin),
	fn("cos", OpCos),
	fn("tan", OpTan),
	fn("log", OpLog),
	fn("ln", OpLn),
}

// apply1 applies a unary operation. Arguments outside the domain of the
// function produce NaN or an infinity like the math package does.
func apply1(op Op, x float64) float64 {
	switch op {
	case OpNeg:
		return -x
	case OpAbs:
		return math.Abs(x)
	case OpAsin:
		return math.Asin(x)
	case OpAcos:
		return math.Acos(x)
	case OpAtan:
		return math.Atan(x)
	case OpSin:
		return math.Sin(x)
	case OpCos:
		return math.Cos(x)
	case OpTan:
		return math.Tan(x)
	case OpLog:
		return math.Log10(x)
	case OpLn:
		return math.Log(x)
	}
	panic("equation: invalid unary operation " + op.String())
}

// apply2 applies a binary operation.
func apply2(op Op, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpMod:
		return math.Mod(a, b)
	case OpPow:
		return math.Pow(a, b)
	}
	panic("equation: invalid binary operation " + op.String())
}

// bigUnary sets r to op(x). Trig functions have no arbitrary-precision
// implementation, so they are computed in float64.
func bigUnary(op Op, r, x *big.Float) error {
	switch op {
	case OpNeg:
		r.Neg(x)
	case OpAbs:
		r.Abs(x)
	case OpLn:
		return bigLn(r, x, op)
	case OpLog:
		if err := bigLn(r, x, op); err != nil {
			return err
		}
		if r.IsInf() {
			return nil
		}
		ten := new(big.Float).SetPrec(r.Prec()).SetFloat64(10)
		bigfloat.Log(ten, ten)
		r.Quo(r, ten)
	case OpAsin, OpAcos, OpAtan, OpSin, OpCos, OpTan:
		f, _ := x.Float64()
		return setFloat(r, apply1(op, f), x, op)
	default:
		panic("equation: invalid unary operation " + op.String())
	}
	return nil
}

func bigLn(r, x *big.Float, op Op) error {
	switch {
	case x.Sign() < 0:
		return &DomainError{X: x, Func: op.String()}
	case x.Sign() == 0:
		r.SetInf(true)
	case x.IsInf():
		r.SetInf(false)
	default:
		bigfloat.Log(r, x)
	}
	return nil
}

// bigBinary sets r to op(a, b). Operations involving infinities are computed
// in float64, since big.Float panics on most of the interesting cases.
func bigBinary(op Op, r, a, b *big.Float) error {
	if a.IsInf() || b.IsInf() {
		x, _ := a.Float64()
		y, _ := b.Float64()
		return setFloat(r, apply2(op, x, y), b, op)
	}
	switch op {
	case OpAdd:
		r.Add(a, b)
	case OpSub:
		r.Sub(a, b)
	case OpMul:
		r.Mul(a, b)
	case OpDiv:
		if b.Sign() == 0 {
			if a.Sign() == 0 {
				return &DomainError{X: b, Arg: 2, Func: op.String()}
			}
			r.SetInf(a.Signbit() != b.Signbit())
			return nil
		}
		r.Quo(a, b)
	case OpMod:
		if b.Sign() == 0 {
			return &DomainError{X: b, Arg: 2, Func: op.String()}
		}
		// a - b*trunc(a/b), which has the sign of a like math.Mod.
		q := new(big.Float).SetPrec(r.Prec()).Quo(a, b)
		qi, _ := q.Int(nil)
		q.SetInt(qi)
		q.Mul(q, b)
		r.Sub(a, q)
	case OpPow:
		return bigPow(r, a, b)
	default:
		panic("equation: invalid binary operation " + op.String())
	}
	return nil
}

func bigPow(r, a, b *big.Float) error {
	switch {
	case b.Sign() == 0:
		r.SetFloat64(1)
	case a.Sign() == 0:
		if b.Sign() > 0 {
			r.SetFloat64(0)
		} else {
			r.SetInf(false)
		}
	case a.Sign() < 0:
		if !b.IsInt() {
			return &DomainError{X: a, Arg: 1, Func: OpPow.String()}
		}
		abs := new(big.Float).SetPrec(r.Prec()).Abs(a)
		bigfloat.Pow(r, abs, b)
		if bi, _ := b.Int(nil); bi.Bit(0) == 1 {
			r.Neg(r)
		}
	default:
		bigfloat.Pow(r, a, b)
	}
	return nil
}

// setFloat sets r to v, or returns a DomainError blaming x if v is NaN.
func setFloat(r *big.Float, v float64, x *big.Float, op Op) error {
	if math.IsNaN(v) {
		return &DomainError{X: x, Func: op.String()}
	}
	r.SetFloat64(v)
	return nil
}
