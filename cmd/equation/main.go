package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/zephyrtronium/equation"
)

func main() {
	log.SetFlags(0)
	var (
		inname, verb      string
		with              [][2]string
		echo, trace, repl bool
		prec, verbose     int
		data, cfgname     string
		out, show         string
		guesses           [][2]string
		seed              int64
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strip(d[0]), strip(d[1])})
		return nil
	}
	addguess := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`guesses must be "name=value[:deviation]", not %q`, s)
		}
		guesses = append(guesses, [2]string{strip(d[0]), strip(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file with one expression per line, or - for stdin")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.IntVar(&prec, "p", 0, "precision of calculations in bits (0 for float64)")
	flag.BoolVar(&echo, "echo", false, "print parse trees")
	flag.BoolVar(&trace, "trace", false, "print the sequence after every compiler pass")
	flag.BoolVar(&repl, "repl", false, "read expressions interactively")
	flag.StringVar(&data, "data", "", "fit the expression's parameters to samples in `file`")
	flag.StringVar(&cfgname, "config", "", "optimizer configuration TOML `file`")
	flag.Func("guess", "name=value[:deviation] initial guess for a parameter (any number of times)", addguess)
	flag.Int64Var(&seed, "seed", 0, "random seed for fitting (0 for the configured seed)")
	flag.StringVar(&out, "out", "", "write the fit result as CBOR to `file`")
	flag.StringVar(&show, "show", "", "print a fit result saved with -out and exit")
	flag.IntVar(&verbose, "v", 0, "log verbosity")
	flag.Parse()
	if prec < 0 {
		log.Fatalf("precision (%d) must not be negative", prec)
	}
	commonlog.Configure(verbose, nil)

	if show != "" {
		if err := showResult(show); err != nil {
			log.Fatal(err)
		}
		return
	}

	reg := equation.NewRegistry()
	if err := define(reg, with); err != nil {
		log.Fatal(err)
	}
	opts := []equation.CompileOption{equation.WithRegistry(reg)}
	if trace {
		opts = append(opts, equation.Trace(func(pass, state string) {
			fmt.Fprintf(os.Stderr, "%-8s %s\n", pass, state)
		}))
	}
	ev := evaluator{opts: opts, verb: verb + "\n", prec: uint(prec), echo: echo}

	if repl {
		if err := ev.repl(reg); err != nil {
			log.Fatal(err)
		}
		return
	}

	srcs := flag.Args()
	if inname != "" {
		lines, err := readLines(inname)
		if err != nil {
			log.Fatal(err)
		}
		srcs = append(lines, srcs...)
	}
	var p []*equation.Expr
	for _, src := range srcs {
		a, err := equation.Compile(strip(src), opts...)
		if err != nil {
			log.Fatalf("%s: %v", src, err)
		}
		p = append(p, a)
	}

	if data != "" {
		if len(p) != 1 {
			log.Fatalf("fitting needs exactly one expression, have %d", len(p))
		}
		f := fitter{data: data, config: cfgname, guesses: guesses, seed: seed, out: out}
		if _, err := f.run(p[0]); err != nil {
			log.Fatal(err)
		}
		return
	}

	for _, a := range p {
		ev.print(a)
	}
}

// define evaluates each name=value pair in order and sets the name in reg.
// Values may use names defined before them.
func define(reg *equation.Registry, defs [][2]string) error {
	for _, d := range defs {
		if err := set(reg, d[0], d[1]); err != nil {
			return fmt.Errorf("setting %s: %w", d[0], err)
		}
	}
	return nil
}

// set evaluates src with the values in reg and assigns the result to name.
// Names src uses that reg lacks are treated as 0 without being added.
func set(reg *equation.Registry, name, src string) error {
	e, err := equation.Compile(strip(src), equation.WithRegistry(reg.Clone()))
	if err != nil {
		return err
	}
	v, err := e.Eval()
	if err != nil {
		return err
	}
	reg.Set(strings.TrimPrefix(strip(name), "$"), v)
	return nil
}

// evaluator prints the values of expressions.
type evaluator struct {
	opts []equation.CompileOption
	verb string
	prec uint
	echo bool
}

func (ev *evaluator) print(a *equation.Expr) {
	if ev.echo {
		fmt.Printf("%v : ", a.Root())
	}
	var r any
	var err error
	if ev.prec == 0 {
		r, err = a.Eval()
	} else {
		var b *big.Float
		b, err = a.EvalBig(ev.prec)
		r = b
	}
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf(ev.verb, r)
}

// strip removes all whitespace from s. The compiler requires expressions
// without whitespace.
func strip(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// readLines reads the non-blank lines of a file, or stdin if name is -.
func readLines(name string) ([]string, error) {
	f := os.Stdin
	if name != "-" {
		in, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer in.Close()
		f = in
	}
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strip(sc.Text()); s != "" {
			lines = append(lines, s)
		}
	}
	return lines, sc.Err()
}
