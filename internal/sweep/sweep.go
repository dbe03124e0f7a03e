// Package sweep enumerates the Cartesian product of a family's parameter
// dimensions and owns the artifact naming scheme derived from it.
package sweep

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strconv"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// ErrEmptySpace is returned when a space has no dimensions or a dimension
// yields no values.
var ErrEmptySpace = errors.New("empty parameter space")

// DefaultDecimals is the precision of continuous dimensions unless set
const DefaultDecimals = 1

// Dimension is one swept parameter. It is discrete when Values is set,
// otherwise a continuous scan from Start to Stop (inclusive) by Step.
type Dimension struct {
	Name     string
	Values   []float64
	Start    float64
	Stop     float64
	Step     float64
	Decimals int
}

// Discrete builds a dimension over an explicit value set
func Discrete(name string, values ...float64) Dimension {
	return Dimension{Name: name, Values: values}
}

// Scan builds a continuous dimension
func Scan(name string, start, stop, step float64, decimals int) Dimension {
	return Dimension{Name: name, Start: start, Stop: stop, Step: step, Decimals: decimals}
}

// IsScan reports whether d is continuous
func (d Dimension) IsScan() bool {
	return len(d.Values) == 0
}

// Len returns the number of values the dimension yields
func (d Dimension) Len() int {
	if !d.IsScan() {
		return len(d.Values)
	}
	if d.Step <= 0 || d.Stop < d.Start {
		return 0
	}
	return int(math.Floor((d.Stop-d.Start)/d.Step+1e-9)) + 1
}

// Params returns the dimension's values already formatted
func (d Dimension) Params() []models.Param {
	n := d.Len()
	out := make([]models.Param, 0, n)
	if !d.IsScan() {
		for _, v := range d.Values {
			out = append(out, models.Param{Name: d.Name, Value: v, Text: FormatDiscrete(v)})
		}
		return out
	}
	for i := 0; i < n; i++ {
		v := utils.Round(d.Start+float64(i)*d.Step, d.Decimals)
		out = append(out, models.Param{Name: d.Name, Value: v, Text: FormatFixed(v, d.Decimals)})
	}
	return out
}

// FormatDiscrete renders v in its shortest plain form: 1, 0.5, 2.25
func FormatDiscrete(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFixed renders v with exactly decimals fractional digits: 0.0, 1.5
func FormatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Space is a family's parameter space, dimensions ordered outer to inner
type Space struct {
	Family     *family.Family
	Dimensions []Dimension
}

// NewSpace validates the dimensions against the family
func NewSpace(f *family.Family, dims []Dimension) (*Space, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil family", family.ErrUnknownFamily)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: family %s has no dimensions", ErrEmptySpace, f.Name)
	}

	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		if !f.HasParam(d.Name) {
			return nil, fmt.Errorf("family %s has no parameter %q", f.Name, d.Name)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate dimension %s", d.Name)
		}
		seen[d.Name] = true
		if err := validateDimension(d); err != nil {
			return nil, fmt.Errorf("dimension %s: %w", d.Name, err)
		}
	}
	for _, p := range f.Params {
		if !seen[p] {
			return nil, fmt.Errorf("family %s: missing dimension for parameter %s", f.Name, p)
		}
	}

	return &Space{Family: f, Dimensions: dims}, nil
}

func validateDimension(d Dimension) error {
	if !d.IsScan() {
		seen := make(map[string]bool, len(d.Values))
		for _, v := range d.Values {
			text := FormatDiscrete(v)
			if seen[text] {
				return fmt.Errorf("duplicate value %s", text)
			}
			seen[text] = true
		}
		return nil
	}
	if d.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %v", ErrEmptySpace, d.Step)
	}
	if d.Stop < d.Start {
		return fmt.Errorf("%w: stop %v is before start %v", ErrEmptySpace, d.Stop, d.Start)
	}
	if d.Decimals < 0 {
		return fmt.Errorf("decimals cannot be negative, got %d", d.Decimals)
	}
	// rounding can fold neighbouring steps onto the same text
	seen := make(map[string]bool)
	for _, p := range d.Params() {
		if seen[p.Text] {
			return fmt.Errorf("step %v collapses to duplicate value %s at %d decimals", d.Step, p.Text, d.Decimals)
		}
		seen[p.Text] = true
	}
	return nil
}

// Count returns the number of configurations in the space
func (s *Space) Count() int {
	n := 1
	for _, d := range s.Dimensions {
		n *= d.Len()
	}
	return n
}

// Configurations yields every configuration, the last dimension varying
// fastest. Parameters inside each configuration follow the family's
// canonical order.
func (s *Space) Configurations() iter.Seq[models.Configuration] {
	values := make([][]models.Param, len(s.Dimensions))
	slot := make([]int, len(s.Dimensions))
	for i, d := range s.Dimensions {
		values[i] = d.Params()
		slot[i] = s.Family.ParamIndex(d.Name)
	}

	return func(yield func(models.Configuration) bool) {
		idx := make([]int, len(values))
		for {
			params := make([]models.Param, len(s.Family.Params))
			for i, v := range values {
				params[slot[i]] = v[idx[i]]
			}
			if !yield(models.Configuration{Family: s.Family.Name, Params: params}) {
				return
			}

			// odometer increment, innermost first
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(values[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Fixed builds a single configuration from exact values, e.g. a repeat
// block. Each value is formatted the way its dimension formats values, so a
// repeated FL of 1 is named "1.0" exactly like the sweep names it.
func (s *Space) Fixed(values map[string]float64) (models.Configuration, error) {
	f := s.Family
	for name := range values {
		if !f.HasParam(name) {
			return models.Configuration{}, fmt.Errorf("family %s has no parameter %q", f.Name, name)
		}
	}

	params := make([]models.Param, len(f.Params))
	for _, d := range s.Dimensions {
		v, ok := values[d.Name]
		if !ok {
			return models.Configuration{}, fmt.Errorf("family %s: missing value for parameter %s", f.Name, d.Name)
		}
		p := models.Param{Name: d.Name, Value: v, Text: FormatDiscrete(v)}
		if d.IsScan() {
			p.Value = utils.Round(v, d.Decimals)
			p.Text = FormatFixed(p.Value, d.Decimals)
		}
		params[f.ParamIndex(d.Name)] = p
	}
	return models.Configuration{Family: f.Name, Params: params}, nil
}
