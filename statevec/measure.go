package statevec

import (
	"math"

	"qirsim/qerr"
)

// minCollapseProbability is the smallest branch probability Collapse will
// renormalize; anything below is rounding noise of an impossible outcome.
const minCollapseProbability = 1e-12

// ProbabilityZero is the marginal probability that qubit q reads 0. The
// state is not modified.
func (s *StateVector) ProbabilityZero(q int) (float64, error) {
	if err := s.checkQubit(q); err != nil {
		return 0, err
	}
	bit := 1 << q

	// per-chunk partial sums keep the result independent of scheduling
	_, count := s.split(len(s.amps))
	partial := make([]float64, count)
	err := s.forRange(len(s.amps), func(c, lo, hi int) error {
		sum := 0.0
		for i := lo; i < hi; i++ {
			if i&bit == 0 {
				a := s.amps[i]
				sum += real(a)*real(a) + imag(a)*imag(a)
			}
		}
		partial[c] = sum
		return nil
	})
	if err != nil {
		return 0, err
	}

	p := 0.0
	for _, v := range partial {
		p += v
	}
	return min(max(p, 0), 1), nil
}

// Collapse projects the state onto qubit q reading outcome and renormalizes.
// Collapsing onto an outcome of zero probability is a NumericalError.
func (s *StateVector) Collapse(q, outcome int) error {
	if outcome != 0 && outcome != 1 {
		return qerr.Operandf("measurement outcome must be 0 or 1, got %d", outcome)
	}
	p0, err := s.ProbabilityZero(q)
	if err != nil {
		return err
	}
	p := p0
	if outcome == 1 {
		p = 1 - p0
	}
	if p < minCollapseProbability {
		return qerr.Numericalf("qubit %d cannot collapse to %d: outcome has probability %v", q, outcome, p)
	}

	bit := 1 << q
	keep := 0
	if outcome == 1 {
		keep = bit
	}
	scale := complex(1/math.Sqrt(p), 0)
	return s.forRange(len(s.amps), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if i&bit == keep {
				s.amps[i] *= scale
			} else {
				s.amps[i] = 0
			}
		}
		return nil
	})
}
