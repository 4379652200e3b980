package fit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config controls the genetic optimizer.
type Config struct {
	// Population is the number of candidates kept after each generation.
	Population int `toml:"population"`
	// Patience is the number of consecutive generations without improvement
	// after which the optimizer stops.
	Patience int `toml:"patience"`
	// Selectivity scales how strongly parents are drawn from the best end of
	// the population. Smaller is more elitist.
	Selectivity float64 `toml:"selectivity"`
	// MutationRate is the number of mutations per child.
	MutationRate float64 `toml:"mutation-rate"`
	// Variability is the initial relative size of mutations.
	Variability float64 `toml:"variability"`
	// MaxGenerations stops the optimizer after that many generations if it
	// is positive.
	MaxGenerations int `toml:"max-generations"`
	// Workers is the number of goroutines computing fitness. Zero means one
	// per CPU.
	Workers int `toml:"workers"`
	// Seed seeds the optimizer's random source. Zero means a seed from the
	// current time.
	Seed int64 `toml:"seed"`
	// Guess holds initial guesses for parameters by name.
	Guess map[string]Guess `toml:"guess"`
}

// Guess is an initial estimate for a parameter. The initial population draws
// the parameter from a normal distribution with mean Value and standard
// deviation Deviation.
type Guess struct {
	Value     float64 `toml:"value"`
	Deviation float64 `toml:"deviation"`
}

// DefaultGuess is the guess used for parameters with none given.
var DefaultGuess = Guess{Value: 1, Deviation: 1}

// DefaultConfig returns the default optimizer configuration.
func DefaultConfig() Config {
	return Config{
		Population:   1000,
		Patience:     30,
		Selectivity:  0.05,
		MutationRate: 1,
		Variability:  1,
	}
}

// ParseConfig decodes a TOML configuration. Fields absent from data keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("fit: parse config: %w", err)
	}
	if u := md.Undecoded(); len(u) != 0 {
		return Config{}, fmt.Errorf("fit: unknown config key %q", u[0].String())
	}
	// Normalize guess names the way the compiler does.
	if len(cfg.Guess) != 0 {
		g := make(map[string]Guess, len(cfg.Guess))
		for k, v := range cfg.Guess {
			g[guessKey(k)] = v
		}
		cfg.Guess = g
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("fit: cannot read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether the configuration can drive an optimizer.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Population < 2 {
		errs = append(errs, fmt.Errorf("fit: population %d is less than 2", cfg.Population))
	}
	if cfg.Patience < 0 {
		errs = append(errs, fmt.Errorf("fit: negative patience %d", cfg.Patience))
	}
	if !(cfg.Selectivity > 0) {
		errs = append(errs, fmt.Errorf("fit: selectivity %g is not positive", cfg.Selectivity))
	}
	if !(cfg.MutationRate >= 0) {
		errs = append(errs, fmt.Errorf("fit: negative mutation rate %g", cfg.MutationRate))
	}
	if !(cfg.Variability > 0) {
		errs = append(errs, fmt.Errorf("fit: variability %g is not positive", cfg.Variability))
	}
	if cfg.MaxGenerations < 0 {
		errs = append(errs, fmt.Errorf("fit: negative max generations %d", cfg.MaxGenerations))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("fit: negative worker count %d", cfg.Workers))
	}
	for k, g := range cfg.Guess {
		if g.Deviation < 0 {
			errs = append(errs, fmt.Errorf("fit: guess for %s has negative deviation %g", k, g.Deviation))
		}
	}
	return errors.Join(errs...)
}

// SetGuess sets the initial guess for a parameter.
func (cfg *Config) SetGuess(name string, g Guess) {
	if cfg.Guess == nil {
		cfg.Guess = make(map[string]Guess)
	}
	cfg.Guess[guessKey(name)] = g
}

// GuessFor returns the initial guess for a parameter, or DefaultGuess if
// there is none.
func (cfg *Config) GuessFor(name string) Guess {
	if g, ok := cfg.Guess[guessKey(name)]; ok {
		return g
	}
	return DefaultGuess
}

func guessKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "$"))
}
