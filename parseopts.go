package equation

// CompileOption is an option for compiling.
type CompileOption interface {
	compileOption(compilectx) compilectx
}

type (
	regopt   struct{ reg *Registry }
	traceopt func(pass, state string)
)

// WithRegistry compiles with variables bound to reg instead of a new
// registry. Names already in reg keep their values. Compiling several
// expressions with the same registry makes them share variables.
func WithRegistry(reg *Registry) CompileOption {
	return regopt{reg}
}

func (o regopt) compileOption(c compilectx) compilectx {
	c.reg = o.reg
	return c
}

// Trace calls f with the name of each compiler pass and the state of the
// sequence after it runs. Parenthesized groups are compiled as their own
// sequences, so their passes are traced before the enclosing pass finishes.
func Trace(f func(pass, state string)) CompileOption {
	return traceopt(f)
}

func (o traceopt) compileOption(c compilectx) compilectx {
	c.trace = o
	return c
}
