package fit

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Result is the outcome of an optimization.
type Result struct {
	// Equation is the fitted equation with the parameter values substituted.
	Equation string `cbor:"1,keyasint"`
	// Source is the equation as compiled.
	Source string `cbor:"2,keyasint"`
	// Params holds the fitted parameters in the order of the equation's
	// Vars.
	Params []Param `cbor:"3,keyasint,omitempty"`
	// Fitness is the sum of squared residuals of the fitted equation.
	Fitness float64 `cbor:"4,keyasint"`
	// Generations is the number of generations run.
	Generations int `cbor:"5,keyasint"`
	// Samples is the number of samples fitted.
	Samples int `cbor:"6,keyasint"`
}

// Param is a fitted parameter value.
type Param struct {
	Name  string  `cbor:"1,keyasint"`
	Value float64 `cbor:"2,keyasint"`
}

// Values returns the fitted parameters as a map.
func (r *Result) Values() map[string]float64 {
	m := make(map[string]float64, len(r.Params))
	for _, p := range r.Params {
		m[p.Name] = p.Value
	}
	return m
}

func (o *Optimizer) result(c Candidate) *Result {
	r := Result{
		Source:      o.expr.String(),
		Fitness:     c.Fitness,
		Generations: o.gen,
		Samples:     len(o.samples),
	}
	for i, p := range o.params {
		r.Params = append(r.Params, Param{Name: p, Value: c.Genome[i]})
	}
	r.Equation = o.expr.Fill(r.Values())
	return &r
}

var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("fit: failed to create CBOR enc mode: %v", err))
	}
}

// MarshalResult encodes a result as canonical CBOR.
func MarshalResult(r *Result) ([]byte, error) {
	b, err := cborEncMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("fit: marshal result: %w", err)
	}
	return b, nil
}

// UnmarshalResult decodes a result encoded by MarshalResult.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("fit: unmarshal result: %w", err)
	}
	return &r, nil
}
