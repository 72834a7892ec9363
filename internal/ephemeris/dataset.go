// Package ephemeris evaluates truncated analytic theories for the apparent
// geocentric positions of the Sun and the Moon.
//
// Series coefficients are data, not code: each theory is a Dataset parsed
// from a small text format, and a TOML manifest names which file serves
// which role. The default datasets are embedded in the binary.
package ephemeris

import (
	"fmt"
	"strings"
)

// Model identifies the theory a dataset belongs to. It decides how term
// rows are parsed and evaluated.
type Model int

const (
	// ModelVSOP87 rows are A·cos(B + C·τ), τ in Julian millennia.
	ModelVSOP87 Model = iota + 1

	// ModelELP rows are A·E^|M|·trig(φ + D·D + M·M + M'·M' + F·F + L'·L' + T·T),
	// arguments in degrees.
	ModelELP
)

func (m Model) String() string {
	switch m {
	case ModelVSOP87:
		return "vsop87"
	case ModelELP:
		return "elp"
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel converts a manifest model name to a Model.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vsop87", "vsop":
		return ModelVSOP87, nil
	case "elp", "elp2000", "elp-2000/82":
		return ModelELP, nil
	}
	return 0, fmt.Errorf("unknown ephemeris model %q", name)
}

// Trig selects the function applied to a term's argument.
type Trig int

const (
	Cos Trig = iota
	Sin
)

// Term is one periodic term. Frequencies holds one value for VSOP87 (the
// rate C) and six multipliers for ELP.
type Term struct {
	Amplitude   float64
	Phase       float64
	Frequencies []float64
}

// Series is the set of terms multiplying one power of time for one
// quantity, e.g. L1 for VSOP87 or V for ELP.
type Series struct {
	Quantity string
	Power    int
	Trig     Trig
	Terms    []Term
}

// Dataset is a parsed coefficient file. Amplitudes are already multiplied
// by the file's scale.
type Dataset struct {
	Name   string
	Body   string
	Model  Model
	Series []Series
}

// Terms returns the terms of one series, or nil if the dataset has none.
func (d *Dataset) Terms(quantity string, power int) []Term {
	if s := d.find(quantity, power); s != nil {
		return s.Terms
	}
	return nil
}

// MaxPower returns the highest power present for a quantity, or -1.
func (d *Dataset) MaxPower(quantity string) int {
	max := -1
	for _, s := range d.Series {
		if s.Quantity == quantity && s.Power > max {
			max = s.Power
		}
	}
	return max
}

func (d *Dataset) find(quantity string, power int) *Series {
	for i := range d.Series {
		if d.Series[i].Quantity == quantity && d.Series[i].Power == power {
			return &d.Series[i]
		}
	}
	return nil
}

func (d *Dataset) expect(model Model) error {
	if d == nil {
		return fmt.Errorf("%w: nil dataset, want %s", ErrModelMismatch, model)
	}
	if d.Model != model {
		return fmt.Errorf("%w: dataset %q is %s, want %s", ErrModelMismatch, d.Name, d.Model, model)
	}
	return nil
}
