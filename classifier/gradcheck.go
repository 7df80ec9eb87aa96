package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nihei9/depar/perr"
)

// GradCheckOptions controls the finite-difference comparison CheckGradient
// runs; Epsilon is the central-difference step, Tolerance the maximum
// allowed absolute difference between the analytic and numeric partials.
type GradCheckOptions struct {
	Epsilon   float64
	Tolerance float64
}

// DefaultGradCheckOptions matches spec.md §4.4's debug-mode defaults:
// a 1e-5 step and a 1e-5 tolerance.
func DefaultGradCheckOptions() GradCheckOptions {
	return GradCheckOptions{Epsilon: 1e-5, Tolerance: 1e-5}
}

// CheckGradient compares Backprop's analytic gradient for one sample
// against a central finite-difference estimate, one parameter entry at
// a time. It perturbs θ_i by ±ε, rescoring the sample's loss both ways
// with a throwaway Gradients accumulator, and compares
// (L(θ+ε) − L(θ−ε)) / 2ε against the analytic partial. A mismatch
// returns a perr.GradientCheckFailed error, which driver.Train returns
// as fatal in debug mode (spec.md §4.4) — mirroring how the teacher's grammar verifier
// returns a hard error the moment a built table fails an invariant,
// rather than limping on with a table it no longer trusts.
func (m *Model) CheckGradient(features []int32, labels []int8, opts GradCheckOptions) error {
	analytic := NewGradients(m)
	m.Backprop(features, labels, analytic)

	lossAt := func() float64 {
		g := NewGradients(m)
		r := m.Backprop(features, labels, g)
		return r.Loss
	}

	type param struct {
		name     string
		analytic *mat.Dense
		live     *mat.Dense
	}
	denseParams := []param{
		{"Eb", analytic.Eb, m.Eb},
		{"Ed", analytic.Ed, m.Ed},
		{"Ev", analytic.Ev, m.Ev},
		{"Ec", analytic.Ec, m.Ec},
		{"El", analytic.El, m.El},
		{"W1", analytic.W1, m.W1},
		{"W2", analytic.W2, m.W2},
	}
	for _, p := range denseParams {
		r, c := p.live.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				gij := p.analytic.At(i, j)
				if gij == 0 {
					continue
				}
				orig := p.live.At(i, j)
				p.live.Set(i, j, orig+opts.Epsilon)
				lossPlus := lossAt()
				p.live.Set(i, j, orig-opts.Epsilon)
				lossMinus := lossAt()
				p.live.Set(i, j, orig)

				numeric := (lossPlus - lossMinus) / (2 * opts.Epsilon)
				if math.Abs(numeric-gij) > opts.Tolerance {
					return perr.New(perr.GradientCheckFailed, p.name,
						fmt.Sprintf("row %d col %d: analytic=%g numeric=%g", i, j, gij, numeric))
				}
			}
		}
	}

	for i, gi := range analytic.B1 {
		if gi == 0 {
			continue
		}
		orig := m.B1[i]
		m.B1[i] = orig + opts.Epsilon
		lossPlus := lossAt()
		m.B1[i] = orig - opts.Epsilon
		lossMinus := lossAt()
		m.B1[i] = orig

		numeric := (lossPlus - lossMinus) / (2 * opts.Epsilon)
		if math.Abs(numeric-gi) > opts.Tolerance {
			return perr.New(perr.GradientCheckFailed, "B1",
				fmt.Sprintf("index %d: analytic=%g numeric=%g", i, gi, numeric))
		}
	}

	return nil
}
