package fit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/equation"
)

var log = commonlog.GetLogger("fit")

// Candidate is one assignment of values to the parameters of an equation.
type Candidate struct {
	// Genome holds a value for each parameter, in the order of the
	// equation's Vars.
	Genome []float64
	// Fitness is the sum of squared residuals over the samples. Lower is
	// better. Assignments that produce NaN have fitness +Inf.
	Fitness float64
}

// Status describes the optimizer after a generation.
type Status struct {
	// Generation is the number of generations completed.
	Generation int
	// Best is the fittest candidate so far.
	Best Candidate
	// Variability is the relative mutation size for the next generation.
	Variability float64
	// Deviation is the standard deviation of the finite fitnesses in the
	// population.
	Deviation float64
	// Stall is the number of consecutive generations without improvement.
	Stall int
}

// Optimizer fits the parameters of an equation to samples with a genetic
// algorithm. An Optimizer is not safe for concurrent use, but it evaluates
// fitness on several goroutines, each with its own registry.
type Optimizer struct {
	// Progress, if not nil, is called after every generation.
	Progress func(Status)

	expr    *equation.Expr
	params  []string
	samples []Sample
	cfg     Config
	rng     *rand.Rand
	evals   []*evaluator

	pop         []Candidate
	variability float64
	gen         int
	stall       int
}

// evaluator computes fitness with a private copy of the equation.
type evaluator struct {
	expr   *equation.Expr
	reg    *equation.Registry
	params []string
}

// New creates an optimizer that fits the parameters of expr to samples.
// The parameters are expr.Vars(). The optimizer never writes to expr's
// registry.
func New(expr *equation.Expr, samples []Sample, cfg Config) (*Optimizer, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := cfg.Workers
	if w == 0 {
		w = runtime.GOMAXPROCS(0)
	}
	w = min(w, cfg.Population)
	o := Optimizer{
		expr:        expr,
		params:      expr.Vars(),
		samples:     samples,
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(seed)),
		evals:       make([]*evaluator, w),
		variability: cfg.Variability,
	}
	for i := range o.evals {
		reg := expr.Registry().Clone()
		o.evals[i] = &evaluator{expr: expr.Rebind(reg), reg: reg, params: o.params}
	}
	return &o, nil
}

// Params returns the names of the parameters being fitted.
func (o *Optimizer) Params() []string {
	return append([]string(nil), o.params...)
}

// Run optimizes until the best fitness stops improving for more than
// Patience generations, MaxGenerations is reached, or ctx is done. If ctx
// ends the run, Run returns the best result found so far along with the
// context's error.
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	if len(o.params) == 0 {
		c := Candidate{Fitness: o.evals[0].fitness(nil, o.samples)}
		log.Infof("no parameters to fit; fitness is %g", c.Fitness)
		return o.result(c), nil
	}
	if o.pop == nil {
		if err := o.seed(ctx); err != nil {
			return nil, err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return o.result(o.pop[0]), err
		}
		if err := o.Step(ctx); err != nil {
			return o.result(o.pop[0]), err
		}
		if o.stall > o.cfg.Patience {
			log.Infof("no improvement in %d generations", o.stall)
			break
		}
		if o.cfg.MaxGenerations > 0 && o.gen >= o.cfg.MaxGenerations {
			log.Infof("reached %d generations", o.gen)
			break
		}
	}
	return o.result(o.pop[0]), nil
}

// Step runs a single generation.
func (o *Optimizer) Step(ctx context.Context) error {
	if len(o.params) == 0 {
		return errors.New("fit: no parameters to fit")
	}
	if o.pop == nil {
		if err := o.seed(ctx); err != nil {
			return err
		}
	}
	best := o.pop[0].Fitness
	children := o.breed()
	o.mutate(children)
	if err := o.evaluate(ctx, children); err != nil {
		return err
	}
	o.pop = append(o.pop, children...)
	sortCandidates(o.pop)
	o.pop = o.pop[:o.cfg.Population:o.cfg.Population]
	o.gen++
	if o.pop[0].Fitness < best {
		o.variability *= 1.25
		o.stall = 0
		log.Infof("generation %d: best fitness %g", o.gen, o.pop[0].Fitness)
	} else {
		o.variability /= 2
		o.stall++
	}
	st := o.Status()
	log.Debugf("generation %d: variability %g, deviation %g", st.Generation, st.Variability, st.Deviation)
	if o.Progress != nil {
		o.Progress(st)
	}
	return nil
}

// Status returns the current state of the optimizer.
func (o *Optimizer) Status() Status {
	st := Status{Generation: o.gen, Variability: o.variability, Stall: o.stall}
	if len(o.pop) != 0 {
		st.Best = Candidate{Genome: append([]float64(nil), o.pop[0].Genome...), Fitness: o.pop[0].Fitness}
		st.Deviation = deviation(o.pop)
	}
	return st
}

// seed creates the initial population from the configured guesses.
func (o *Optimizer) seed(ctx context.Context) error {
	guess := make([]Guess, len(o.params))
	for i, p := range o.params {
		guess[i] = o.cfg.GuessFor(p)
	}
	pop := make([]Candidate, o.cfg.Population)
	for i := range pop {
		g := make([]float64, len(guess))
		for j, h := range guess {
			g[j] = o.rng.NormFloat64()*h.Deviation + h.Value
		}
		pop[i].Genome = g
	}
	if err := o.evaluate(ctx, pop); err != nil {
		return err
	}
	sortCandidates(pop)
	o.pop = pop
	log.Infof("initial best fitness %g", pop[0].Fitness)
	return nil
}

// parent picks the index of a parent, favoring the fitter end of the
// population.
func (o *Optimizer) parent() int {
	n := len(o.pop)
	k := math.Abs(o.rng.NormFloat64() * float64(n) * o.cfg.Selectivity)
	return int(math.Mod(k, float64(n)))
}

// breed creates half a population of children from pairs of distinct
// parents.
func (o *Optimizer) breed() []Candidate {
	children := make([]Candidate, max(o.cfg.Population/2, 1))
	for i := range children {
		a := o.parent()
		b := o.parent()
		for try := 0; b == a; try++ {
			if try >= 8 {
				b = (a + 1) % len(o.pop)
				break
			}
			b = o.parent()
		}
		children[i].Genome = crossover(o.pop[a].Genome, o.pop[b].Genome)
	}
	return children
}

// crossover combines the first half of a with the second half of b. When
// the genome has odd length, the last gene comes from a.
func crossover(a, b []float64) []float64 {
	c := append([]float64(nil), a...)
	h := len(c) / 2
	copy(c[h:h+h], b[h:h+h])
	return c
}

// mutate perturbs random genes of random children. Each mutation moves a
// gene by a normal variate scaled by the variability and the gene itself, or
// by the variability alone if the gene is zero.
func (o *Optimizer) mutate(children []Candidate) {
	n := int(math.Ceil(float64(len(children)) * o.cfg.MutationRate))
	for i := 0; i < n; i++ {
		g := children[o.rng.Intn(len(children))].Genome
		j := o.rng.Intn(len(g))
		d := o.rng.NormFloat64() * o.variability
		if g[j] == 0 {
			g[j] = d
		} else {
			g[j] += d * g[j]
		}
	}
}

// evaluate computes the fitness of each candidate, splitting the work among
// the evaluators.
func (o *Optimizer) evaluate(ctx context.Context, cands []Candidate) error {
	g, ctx := errgroup.WithContext(ctx)
	n := len(o.evals)
	size := (len(cands) + n - 1) / n
	for i, ev := range o.evals {
		lo := i * size
		if lo >= len(cands) {
			break
		}
		part := cands[lo:min(lo+size, len(cands))]
		ev := ev
		g.Go(func() error {
			for j := range part {
				if err := ctx.Err(); err != nil {
					return err
				}
				part[j].Fitness = ev.fitness(part[j].Genome, o.samples)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fit: generation %d: %w", o.gen+1, err)
	}
	return nil
}

// fitness returns the sum of squared residuals of the equation with the
// parameters set to genome.
func (ev *evaluator) fitness(genome []float64, samples []Sample) float64 {
	for i, p := range ev.params {
		ev.reg.Set(p, genome[i])
	}
	var t float64
	for _, s := range samples {
		ev.reg.Set(equation.X, s.X)
		y, err := ev.expr.Eval()
		if err != nil {
			return math.Inf(1)
		}
		d := s.Y - y
		t += d * d
	}
	if math.IsNaN(t) {
		return math.Inf(1)
	}
	return t
}

func sortCandidates(c []Candidate) {
	slices.SortStableFunc(c, func(a, b Candidate) int {
		return cmp.Compare(a.Fitness, b.Fitness)
	})
}

// deviation is the standard deviation of the finite fitnesses in pop.
func deviation(pop []Candidate) float64 {
	var n, mean, m2 float64
	for _, c := range pop {
		if math.IsInf(c.Fitness, 0) {
			continue
		}
		n++
		d := c.Fitness - mean
		mean += d / n
		m2 += d * (c.Fitness - mean)
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(m2 / (n - 1))
}
