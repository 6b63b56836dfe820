package statevec

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"qirsim/qerr"
	"qirsim/qir"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const eps = 1e-12

func requireAmps(t *testing.T, want []complex128, s *StateVector) {
	t.Helper()
	got := s.Snapshot()
	require.Len(t, got, len(want))
	for i := range want {
		require.Truef(t, cmplx.Abs(got[i]-want[i]) < eps,
			"amplitude %d: want %v, got %v", i, want[i], got[i])
	}
}

func mustNew(t *testing.T, n int, opts ...Option) *StateVector {
	t.Helper()
	s, err := New(n, opts...)
	require.NoError(t, err)
	return s
}

func mustApply(t *testing.T, s *StateVector, op qir.Opcode, qubits []int, params ...float64) {
	t.Helper()
	require.NoError(t, s.Apply(op, qubits, params))
}

func TestNewAllZero(t *testing.T) {
	s := mustNew(t, 3)
	assert.Equal(t, 3, s.NumQubits())
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, complex(1, 0), s.Amplitude(0))
	assert.InDelta(t, 1.0, s.Norm(), eps)
}

func TestNewCapacity(t *testing.T) {
	tests := []struct {
		name string
		n    int
		opts []Option
	}{
		{"zero", 0, nil},
		{"negative", -3, nil},
		{"above default limit", DefaultMaxQubits + 1, nil},
		{"above configured limit", 5, []Option{WithMaxQubits(4)}},
		{"above hard ceiling", HardMaxQubits + 1, []Option{WithMaxQubits(64)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.n, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, qerr.Is(err, qerr.KindCapacity), "got %v", err)
		})
	}
}

func TestHadamard(t *testing.T) {
	s := mustNew(t, 1)
	mustApply(t, s, qir.OpH, []int{0})
	requireAmps(t, []complex128{invSqrt2, invSqrt2}, s)

	p0, err := s.ProbabilityZero(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p0, eps)

	mustApply(t, s, qir.OpH, []int{0})
	requireAmps(t, []complex128{1, 0}, s)
}

func TestBellPair(t *testing.T) {
	s := mustNew(t, 2)
	mustApply(t, s, qir.OpH, []int{0})
	mustApply(t, s, qir.OpCX, []int{0, 1})
	requireAmps(t, []complex128{invSqrt2, 0, 0, invSqrt2}, s)
}

func TestSingleQubitGatesPreserveNorm(t *testing.T) {
	params := []float64{0.7, -1.3, 2.1}
	for op := qir.OpH; op < qir.NumOpcodes; op++ {
		if op.Qubits() != 1 {
			continue
		}
		t.Run(op.String(), func(t *testing.T) {
			s := mustNew(t, 3)
			mustApply(t, s, qir.OpH, []int{1})
			for q := range 3 {
				require.NoError(t, s.Apply(op, []int{q}, params[:op.Params()]))
			}
			assert.InDelta(t, 1.0, s.Norm(), 1e-9)
		})
	}
}

func TestGateIdentities(t *testing.T) {
	tests := []struct {
		name string
		a, b func(s *StateVector)
	}{
		{
			name: "S S = Z",
			a: func(s *StateVector) {
				s.Apply(qir.OpS, []int{0}, nil)
				s.Apply(qir.OpS, []int{0}, nil)
			},
			b: func(s *StateVector) { s.Apply(qir.OpZ, []int{0}, nil) },
		},
		{
			name: "T T = S",
			a: func(s *StateVector) {
				s.Apply(qir.OpT, []int{0}, nil)
				s.Apply(qir.OpT, []int{0}, nil)
			},
			b: func(s *StateVector) { s.Apply(qir.OpS, []int{0}, nil) },
		},
		{
			name: "SX SX = X",
			a: func(s *StateVector) {
				s.Apply(qir.OpSX, []int{0}, nil)
				s.Apply(qir.OpSX, []int{0}, nil)
			},
			b: func(s *StateVector) { s.Apply(qir.OpX, []int{0}, nil) },
		},
		{
			name: "U3(theta,0,0) = RY(theta)",
			a:    func(s *StateVector) { s.Apply(qir.OpU3, []int{0}, []float64{0.9, 0, 0}) },
			b:    func(s *StateVector) { s.Apply(qir.OpRY, []int{0}, []float64{0.9}) },
		},
		{
			name: "P(pi/2) = S",
			a:    func(s *StateVector) { s.Apply(qir.OpPhase, []int{0}, []float64{math.Pi / 2}) },
			b:    func(s *StateVector) { s.Apply(qir.OpS, []int{0}, nil) },
		},
		{
			name: "S SDG = I",
			a: func(s *StateVector) {
				s.Apply(qir.OpS, []int{0}, nil)
				s.Apply(qir.OpSdg, []int{0}, nil)
			},
			b: func(s *StateVector) {},
		},
		{
			name: "H Z H = X",
			a: func(s *StateVector) {
				s.Apply(qir.OpH, []int{0}, nil)
				s.Apply(qir.OpZ, []int{0}, nil)
				s.Apply(qir.OpH, []int{0}, nil)
			},
			b: func(s *StateVector) { s.Apply(qir.OpX, []int{0}, nil) },
		},
		{
			name: "CZ is symmetric",
			a:    func(s *StateVector) { s.Apply(qir.OpCZ, []int{0, 1}, nil) },
			b:    func(s *StateVector) { s.Apply(qir.OpCZ, []int{1, 0}, nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := mustNew(t, 2), mustNew(t, 2)
			// a state with a nonzero amplitude on every basis state
			for _, s := range []*StateVector{a, b} {
				mustApply(t, s, qir.OpRY, []int{0}, 0.4)
				mustApply(t, s, qir.OpRX, []int{1}, 1.1)
			}
			tt.a(a)
			tt.b(b)
			requireAmps(t, b.Snapshot(), a)
		})
	}
}

func TestMultiQubitGates(t *testing.T) {
	t.Run("CCX needs both controls", func(t *testing.T) {
		s := mustNew(t, 3)
		mustApply(t, s, qir.OpX, []int{0})
		mustApply(t, s, qir.OpCCX, []int{0, 1, 2})
		requireAmps(t, []complex128{0, 1, 0, 0, 0, 0, 0, 0}, s)

		mustApply(t, s, qir.OpX, []int{1})
		mustApply(t, s, qir.OpCCX, []int{0, 1, 2})
		requireAmps(t, []complex128{0, 0, 0, 0, 0, 0, 0, 1}, s)
	})

	t.Run("CY", func(t *testing.T) {
		s := mustNew(t, 2)
		mustApply(t, s, qir.OpX, []int{0})
		mustApply(t, s, qir.OpCY, []int{0, 1})
		requireAmps(t, []complex128{0, 0, 0, 1i}, s)
	})

	t.Run("SWAP", func(t *testing.T) {
		s := mustNew(t, 3)
		mustApply(t, s, qir.OpX, []int{0})
		mustApply(t, s, qir.OpSwap, []int{0, 2})
		requireAmps(t, []complex128{0, 0, 0, 0, 1, 0, 0, 0}, s)
	})

	t.Run("RZZ", func(t *testing.T) {
		theta := 0.8
		s := mustNew(t, 2)
		mustApply(t, s, qir.OpH, []int{0})
		mustApply(t, s, qir.OpH, []int{1})
		mustApply(t, s, qir.OpRZZ, []int{0, 1}, theta)

		same := cmplx.Exp(complex(0, -theta/2)) / 2
		diff := cmplx.Exp(complex(0, theta/2)) / 2
		requireAmps(t, []complex128{same, diff, diff, same}, s)
	})
}

func TestApplyOperandErrors(t *testing.T) {
	tests := []struct {
		name   string
		op     qir.Opcode
		qubits []int
		params []float64
		kind   qerr.Kind
	}{
		{"qubit out of range", qir.OpH, []int{2}, nil, qerr.KindInvalidOperand},
		{"negative qubit", qir.OpX, []int{-1}, nil, qerr.KindInvalidOperand},
		{"target out of range", qir.OpCX, []int{0, 5}, nil, qerr.KindInvalidOperand},
		{"repeated qubit", qir.OpCX, []int{1, 1}, nil, qerr.KindInvalidOperand},
		{"wrong arity", qir.OpCZ, []int{0}, nil, qerr.KindInvalidOperand},
		{"missing angle", qir.OpRX, []int{0}, nil, qerr.KindInvalidOperand},
		{"no opcode", qir.OpNone, []int{0}, nil, qerr.KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustNew(t, 2)
			err := s.Apply(tt.op, tt.qubits, tt.params)
			require.Error(t, err)
			assert.Equal(t, tt.kind, qerr.KindOf(err), "%v", err)
			requireAmps(t, []complex128{1, 0, 0, 0}, s)
		})
	}
}

func TestNonFiniteAmplitude(t *testing.T) {
	for _, angle := range []float64{math.NaN(), math.Inf(1)} {
		s := mustNew(t, 1)
		err := s.Apply(qir.OpRX, []int{0}, []float64{angle})
		require.Error(t, err)
		assert.True(t, qerr.Is(err, qerr.KindNumerical), "got %v", err)
	}
}

func TestCollapse(t *testing.T) {
	s := mustNew(t, 2)
	mustApply(t, s, qir.OpH, []int{0})
	mustApply(t, s, qir.OpCX, []int{0, 1})

	require.NoError(t, s.Collapse(0, 1))
	requireAmps(t, []complex128{0, 0, 0, 1}, s)

	// qubit 1 is now certainly 1
	err := s.Collapse(1, 0)
	assert.True(t, qerr.Is(err, qerr.KindNumerical), "got %v", err)

	err = s.Collapse(0, 2)
	assert.True(t, qerr.Is(err, qerr.KindInvalidOperand), "got %v", err)

	_, err = s.ProbabilityZero(7)
	assert.True(t, qerr.Is(err, qerr.KindInvalidOperand), "got %v", err)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := mustNew(t, 1)
	snap := s.Snapshot()
	snap[0] = 0
	snap[1] = 1
	assert.Equal(t, complex(1, 0), s.Amplitude(0))
	assert.Equal(t, complex(0, 0), s.Amplitude(1))
}

func TestRenormalize(t *testing.T) {
	s := mustNew(t, 4, WithRenormalize(true))
	for i := range 200 {
		q := i % 4
		mustApply(t, s, qir.OpRY, []int{q}, 0.1*float64(i))
		mustApply(t, s, qir.OpCX, []int{q, (q + 1) % 4})
	}
	assert.InDelta(t, 1.0, s.Norm(), 1e-14)
}

// program is a fixed circuit touching every kernel.
func program(t *testing.T, s *StateVector) {
	t.Helper()
	n := s.NumQubits()
	for q := range n {
		mustApply(t, s, qir.OpH, []int{q})
		mustApply(t, s, qir.OpRZ, []int{q}, 0.3*float64(q+1))
	}
	for q := 0; q+1 < n; q++ {
		mustApply(t, s, qir.OpCX, []int{q, q + 1})
		mustApply(t, s, qir.OpRZZ, []int{q + 1, q}, 0.25)
	}
	mustApply(t, s, qir.OpCCX, []int{0, n - 1, n / 2})
	mustApply(t, s, qir.OpSwap, []int{1, n - 2})
	mustApply(t, s, qir.OpU3, []int{n - 1}, 0.5, 1.5, -0.5)
}

func TestParallelMatchesSerial(t *testing.T) {
	const n = 10
	serial := mustNew(t, n, WithWorkers(1))
	parallel := mustNew(t, n, WithWorkers(4), WithParallelThreshold(1))

	program(t, serial)
	program(t, parallel)

	// every amplitude is computed by the same expression regardless of the
	// chunk it falls into
	assert.Equal(t, serial.Snapshot(), parallel.Snapshot())
	assert.InDelta(t, 1.0, parallel.Norm(), 1e-9)

	for q := range n {
		ps, err := serial.ProbabilityZero(q)
		require.NoError(t, err)
		pp, err := parallel.ProbabilityZero(q)
		require.NoError(t, err)
		assert.InDelta(t, ps, pp, 1e-12, "qubit %d", q)
	}

	require.NoError(t, parallel.Collapse(3, 0))
	assert.InDelta(t, 1.0, parallel.Norm(), 1e-9)
}
