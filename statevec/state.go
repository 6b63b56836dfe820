// Package statevec is a dense state vector simulator.
//
// A StateVector over n qubits holds 2^n complex amplitudes. Qubit k is bit k
// of the basis index, so amplitude i belongs to the basis state whose
// binary expansion is i.
package statevec

import (
	"math"
	"runtime"
	"slices"

	"qirsim/qerr"
)

const (
	// DefaultMaxQubits is the register size limit unless WithMaxQubits
	// says otherwise. 24 qubits take 256 MiB of amplitudes.
	DefaultMaxQubits = 24
	// HardMaxQubits caps WithMaxQubits.
	HardMaxQubits = 30
	// DefaultParallelThreshold is the vector length from which gate
	// kernels are split across workers.
	DefaultParallelThreshold = 1 << 14
)

type config struct {
	maxQubits         int
	workers           int
	parallelThreshold int
	renormalize       bool
}

// Option configures New.
type Option func(*config)

// WithMaxQubits sets the largest register New accepts. Values above
// HardMaxQubits are lowered to it.
func WithMaxQubits(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxQubits = min(n, HardMaxQubits)
		}
	}
}

// WithWorkers sets how many goroutines a single gate may use. One or less
// keeps every gate on the calling goroutine.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = max(n, 1) }
}

// WithParallelThreshold sets the number of amplitudes below which gates
// always run serially.
func WithParallelThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.parallelThreshold = n
		}
	}
}

// WithRenormalize rescales the vector to unit norm after every gate.
func WithRenormalize(on bool) Option {
	return func(c *config) { c.renormalize = on }
}

// StateVector is the joint state of a register. It is not safe for
// concurrent use; Apply owns the vector until it returns.
type StateVector struct {
	amps []complex128
	n    int

	workers           int
	parallelThreshold int
	renormalize       bool
}

// New returns the all-zero state |0...0> over numQubits qubits. The size is
// checked before anything is allocated.
func New(numQubits int, opts ...Option) (*StateVector, error) {
	cfg := config{
		maxQubits:         DefaultMaxQubits,
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if numQubits <= 0 {
		return nil, qerr.Capacityf("qubit count must be positive, got %d", numQubits)
	}
	if numQubits > cfg.maxQubits {
		return nil, qerr.Capacityf("%d qubits exceed the simulation limit of %d", numQubits, cfg.maxQubits)
	}

	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{
		amps:              amps,
		n:                 numQubits,
		workers:           cfg.workers,
		parallelThreshold: cfg.parallelThreshold,
		renormalize:       cfg.renormalize,
	}, nil
}

// NumQubits is the register width.
func (s *StateVector) NumQubits() int { return s.n }

// Len is the number of amplitudes, 2^NumQubits.
func (s *StateVector) Len() int { return len(s.amps) }

// Amplitude returns the amplitude of basis state i.
func (s *StateVector) Amplitude(i int) complex128 { return s.amps[i] }

// Snapshot returns a copy of the amplitudes.
func (s *StateVector) Snapshot() []complex128 { return slices.Clone(s.amps) }

// Probabilities returns |amplitude|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.amps))
	for i, a := range s.amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// Norm is the Euclidean norm of the vector; 1 for a valid state.
func (s *StateVector) Norm() float64 {
	sum := 0.0
	for _, a := range s.amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

func (s *StateVector) checkQubit(q int) error {
	if q < 0 || q >= s.n {
		return qerr.Operandf("qubit %d is outside the %d-qubit register", q, s.n)
	}
	return nil
}

func (s *StateVector) normalize() error {
	norm := s.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return qerr.Numericalf("cannot renormalize a vector of norm %v", norm)
	}
	scale := complex(1/norm, 0)
	return s.forRange(len(s.amps), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			s.amps[i] *= scale
		}
		return nil
	})
}
