package sim

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"qirsim/qerr"
)

const (
	// DefaultThreshold is the probability below which a basis state is
	// left out of a Distribution.
	DefaultThreshold = 1e-10
	// DefaultTolerance is how far the total probability of the final state
	// may drift from 1 before extraction fails.
	DefaultTolerance = 1e-6
)

// Distribution maps a basis state, written as an n-character bit string, to
// its probability. Qubit 0 is the rightmost character.
type Distribution map[string]float64

// Key renders basis index i of an n-qubit register.
func Key(i, n int) string {
	return fmt.Sprintf("%0*b", n, i)
}

// Extract turns the final amplitudes of an n-qubit state into a
// Distribution. States with probability below threshold are omitted and the
// rest are rescaled to sum to 1. If the total probability before omission
// differs from 1 by more than tolerance the state is corrupt and a
// NormalizationError is returned.
func Extract(amps []complex128, n int, threshold, tolerance float64) (Distribution, error) {
	if n <= 0 || len(amps) != 1<<n {
		return nil, qerr.Operandf("%d amplitudes do not form a %d-qubit state", len(amps), n)
	}

	probs := make([]float64, len(amps))
	total := 0.0
	for i, a := range amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, qerr.Numericalf("amplitude of %s is %v", Key(i, n), a)
		}
		probs[i] = p
		total += p
	}
	if math.Abs(total-1) > tolerance {
		return nil, qerr.Normalizationf("probabilities sum to %.12g, more than %g away from 1", total, tolerance)
	}

	kept := 0.0
	for _, p := range probs {
		if p >= threshold {
			kept += p
		}
	}
	if kept == 0 {
		return nil, qerr.Normalizationf("no basis state reaches the threshold %g", threshold)
	}

	dist := make(Distribution)
	for i, p := range probs {
		if p >= threshold {
			dist[Key(i, n)] = p / kept
		}
	}
	return dist, nil
}

// Sum is the total probability of the listed states.
func (d Distribution) Sum() float64 {
	sum := 0.0
	for _, k := range d.Keys() {
		sum += d[k]
	}
	return sum
}

// Keys returns the bit strings in ascending order.
func (d Distribution) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ByProbability returns the bit strings from most to least likely, ties in
// ascending key order.
func (d Distribution) ByProbability() []string {
	keys := d.Keys()
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(d[b], d[a])
	})
	return keys
}

// Filter returns the states with probability strictly above floor.
func (d Distribution) Filter(floor float64) Distribution {
	out := make(Distribution, len(d))
	for k, p := range d {
		if p > floor {
			out[k] = p
		}
	}
	return out
}
