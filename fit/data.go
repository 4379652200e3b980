package fit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Sample is one measured point of the curve being fitted.
type Sample struct {
	X float64
	Y float64
}

// sep splits a line into columns. Columns are separated by a tab or a comma.
var sep = regexp.MustCompile(`\t|,`)

// ErrNoSamples is returned when a data source contains no samples.
var ErrNoSamples = errors.New("fit: no samples")

// ReadSamples reads samples from r, one per line. Each line holds x and y
// separated by a tab or a comma. Columns after the second are ignored, and
// blank lines are skipped.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var s []Sample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		cols := sep.Split(text, 3)
		if len(cols) < 2 {
			return nil, fmt.Errorf("fit: line %d: want two columns, have %q", line, text)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(cols[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("fit: line %d: bad x: %w", line, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("fit: line %d: bad y: %w", line, err)
		}
		s = append(s, Sample{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fit: reading samples: %w", err)
	}
	if len(s) == 0 {
		return nil, ErrNoSamples
	}
	return s, nil
}

// LoadSamples reads samples from the file at path.
func LoadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fit: cannot open %s: %w", path, err)
	}
	defer f.Close()
	s, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Mean returns the mean of the y values of the samples, or NaN if there are
// none.
func Mean(samples []Sample) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	var t float64
	for _, s := range samples {
		t += s.Y
	}
	return t / float64(len(samples))
}

// Determination returns the coefficient of determination R² of a fit with
// the given fitness, the sum of squared residuals, over samples. It is 1 for
// a perfect fit and NaN if the samples have no variance.
func Determination(samples []Sample, fitness float64) float64 {
	m := Mean(samples)
	var t float64
	for _, s := range samples {
		d := s.Y - m
		t += d * d
	}
	if t == 0 {
		return math.NaN()
	}
	return 1 - fitness/t
}
