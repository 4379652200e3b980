package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/zephyrtronium/equation"
	"github.com/zephyrtronium/equation/fit"
)

// fitter fits an expression from the command line.
type fitter struct {
	data    string
	config  string
	guesses [][2]string
	seed    int64
	out     string
}

func (f *fitter) run(e *equation.Expr) (*fit.Result, error) {
	samples, err := fit.LoadSamples(f.data)
	if err != nil {
		return nil, err
	}
	cfg := fit.DefaultConfig()
	if f.config != "" {
		cfg, err = fit.LoadConfig(f.config)
		if err != nil {
			return nil, err
		}
	}
	for _, g := range f.guesses {
		h, err := parseGuess(g[1])
		if err != nil {
			return nil, fmt.Errorf("guess for %s: %w", g[0], err)
		}
		cfg.SetGuess(g[0], h)
	}
	if f.seed != 0 {
		cfg.Seed = f.seed
	}
	o, err := fit.New(e, samples, cfg)
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	r, err := o.Run(ctx)
	if r == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stopped early: %v\n", err)
	}
	printResult(r)
	fmt.Printf("R² %g\n", fit.Determination(samples, r.Fitness))
	if f.out != "" {
		b, err := fit.MarshalResult(r)
		if err != nil {
			return r, err
		}
		if err := os.WriteFile(f.out, b, 0o644); err != nil {
			return r, err
		}
	}
	return r, nil
}

// parseGuess parses value[:deviation]. The deviation defaults to that of
// fit.DefaultGuess.
func parseGuess(s string) (fit.Guess, error) {
	g := fit.DefaultGuess
	v, d, ok := strings.Cut(s, ":")
	var err error
	g.Value, err = strconv.ParseFloat(v, 64)
	if err != nil {
		return g, err
	}
	if ok {
		g.Deviation, err = strconv.ParseFloat(d, 64)
		if err != nil {
			return g, err
		}
	}
	return g, nil
}

func printResult(r *fit.Result) {
	fmt.Println(r.Equation)
	for _, p := range r.Params {
		fmt.Printf("\t$%s = %g\n", p.Name, p.Value)
	}
	fmt.Printf("fitness %g over %d samples after %d generations\n", r.Fitness, r.Samples, r.Generations)
}

// loadResult reads a result saved with -out.
func loadResult(name string) (*fit.Result, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	r, err := fit.UnmarshalResult(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return r, nil
}

func showResult(name string) error {
	r, err := loadResult(name)
	if err != nil {
		return err
	}
	fmt.Println(r.Source)
	printResult(r)
	return nil
}
