package equation

import (
	"math"
	"strings"
)

// Reserved names. X is the independent variable; Pi and E are constants that
// every Registry starts with.
const (
	X  = "x"
	Pi = "pi"
	E  = "e"
)

// Registry maps variable names to their current values. Every Variable node
// produced by a compilation holds a pointer to the same Registry, so writes to
// it change the value of the tree. A Registry is not safe for concurrent use;
// use Clone and Expr.Rebind to give each goroutine its own.
type Registry struct {
	vals map[string]float64
	// order is the list of names in the order they were added.
	order []string
}

// NewRegistry creates a Registry holding pi and e.
func NewRegistry() *Registry {
	r := Registry{vals: make(map[string]float64, 4)}
	r.put(Pi, math.Pi)
	r.put(E, math.E)
	return &r
}

func (r *Registry) put(name string, v float64) {
	if _, ok := r.vals[name]; !ok {
		r.order = append(r.order, name)
	}
	r.vals[name] = v
}

// Add registers a name with the value 0 if it is not already present. It
// returns whether the name was new.
func (r *Registry) Add(name string) bool {
	name = strings.ToLower(name)
	if _, ok := r.vals[name]; ok {
		return false
	}
	r.put(name, 0)
	return true
}

// Set sets the value of a variable, adding it if necessary. There is no
// protection for pi and e; setting them changes the constants for every tree
// sharing r.
func (r *Registry) Set(name string, v float64) {
	r.put(strings.ToLower(name), v)
}

// Lookup returns the value of a variable and whether it is defined.
func (r *Registry) Lookup(name string) (float64, bool) {
	v, ok := r.vals[strings.ToLower(name)]
	return v, ok
}

// Len returns the number of names in the registry, including the constants.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns every name in the registry in the order they were added.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Params returns the names a fitter should vary: everything except x, pi,
// and e, in the order they were added.
func (r *Registry) Params() []string {
	var p []string
	for _, name := range r.order {
		if !IsReserved(name) {
			p = append(p, name)
		}
	}
	return p
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	n := Registry{
		vals:  make(map[string]float64, len(r.vals)),
		order: append([]string(nil), r.order...),
	}
	for k, v := range r.vals {
		n.vals[k] = v
	}
	return &n
}

// String formats the registry like "{pi: 3.14159, e: 2.71828}".
func (r *Registry) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range r.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(formatFloat(r.vals[name], 'g'))
	}
	b.WriteByte('}')
	return b.String()
}

// IsReserved returns whether a name is x, pi, or e, ignoring case.
func IsReserved(name string) bool {
	switch strings.ToLower(name) {
	case X, Pi, E:
		return true
	}
	return false
}
