package statevec

import (
	"math"
	"math/cmplx"

	"qirsim/qerr"
	"qirsim/qir"
)

// mat2 is a single-qubit unitary in row-major order.
type mat2 [2][2]complex128

var (
	invSqrt2 = complex(1/math.Sqrt2, 0)

	matH   = mat2{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}
	matX   = mat2{{0, 1}, {1, 0}}
	matY   = mat2{{0, -1i}, {1i, 0}}
	matZ   = mat2{{1, 0}, {0, -1}}
	matS   = mat2{{1, 0}, {0, 1i}}
	matSdg = mat2{{1, 0}, {0, -1i}}
	matT   = mat2{{1, 0}, {0, cmplx.Exp(1i * math.Pi / 4)}}
	matTdg = mat2{{1, 0}, {0, cmplx.Exp(-1i * math.Pi / 4)}}
	matSX  = mat2{{0.5 + 0.5i, 0.5 - 0.5i}, {0.5 - 0.5i, 0.5 + 0.5i}}
)

func rx(theta float64) mat2 {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return mat2{{c, s}, {s, c}}
}

func ry(theta float64) mat2 {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return mat2{{c, -s}, {s, c}}
}

func rz(theta float64) mat2 {
	return mat2{{cmplx.Exp(complex(0, -theta/2)), 0}, {0, cmplx.Exp(complex(0, theta/2))}}
}

func phase(lambda float64) mat2 {
	return mat2{{1, 0}, {0, cmplx.Exp(complex(0, lambda))}}
}

func u3(theta, phi, lambda float64) mat2 {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return mat2{
		{c, -cmplx.Exp(complex(0, lambda)) * s},
		{cmplx.Exp(complex(0, phi)) * s, cmplx.Exp(complex(0, phi+lambda)) * c},
	}
}

// kernel applies one opcode. qubits and params have already been checked
// against the opcode's arity.
type kernel func(s *StateVector, op qir.Opcode, qubits []int, params []float64) error

// fixed is a gate with a constant matrix. Every qubit but the last is a
// control.
func fixed(m mat2) kernel {
	return func(s *StateVector, op qir.Opcode, qubits []int, _ []float64) error {
		return s.controlled(op, qubits[:len(qubits)-1], qubits[len(qubits)-1], m)
	}
}

func rotation(gen func(float64) mat2) kernel {
	return func(s *StateVector, op qir.Opcode, qubits []int, params []float64) error {
		return s.controlled(op, nil, qubits[0], gen(params[0]))
	}
}

var kernels = [qir.NumOpcodes]kernel{
	qir.OpH:     fixed(matH),
	qir.OpX:     fixed(matX),
	qir.OpY:     fixed(matY),
	qir.OpZ:     fixed(matZ),
	qir.OpS:     fixed(matS),
	qir.OpSdg:   fixed(matSdg),
	qir.OpT:     fixed(matT),
	qir.OpTdg:   fixed(matTdg),
	qir.OpSX:    fixed(matSX),
	qir.OpRX:    rotation(rx),
	qir.OpRY:    rotation(ry),
	qir.OpRZ:    rotation(rz),
	qir.OpPhase: rotation(phase),
	qir.OpU3: func(s *StateVector, op qir.Opcode, qubits []int, params []float64) error {
		return s.controlled(op, nil, qubits[0], u3(params[0], params[1], params[2]))
	},
	qir.OpCX:  fixed(matX),
	qir.OpCY:  fixed(matY),
	qir.OpCZ:  fixed(matZ),
	qir.OpCCX: fixed(matX),
	qir.OpSwap: func(s *StateVector, op qir.Opcode, qubits []int, _ []float64) error {
		return s.swap(op, qubits[0], qubits[1])
	},
	qir.OpRZZ: func(s *StateVector, op qir.Opcode, qubits []int, params []float64) error {
		return s.zzPhase(op, qubits[0], qubits[1], params[0])
	},
}

// Apply applies a gate in place. Qubits lists controls first and the target
// last. Out-of-range or repeated qubits and missing parameters are
// rejected before the vector is touched; a non-finite amplitude produced by
// the gate is a NumericalError.
func (s *StateVector) Apply(op qir.Opcode, qubits []int, params []float64) error {
	if op <= qir.OpNone || op >= qir.NumOpcodes || kernels[op] == nil {
		return qerr.Parsef(0, "unsupported opcode %s", op)
	}
	if len(qubits) != op.Qubits() {
		return qerr.Operandf("%s acts on %d qubits, got %d", op, op.Qubits(), len(qubits))
	}
	if len(params) < op.Params() {
		return qerr.Operandf("%s needs %d parameters, got %d", op, op.Params(), len(params))
	}
	for i, q := range qubits {
		if err := s.checkQubit(q); err != nil {
			return err
		}
		for _, prev := range qubits[:i] {
			if prev == q {
				return qerr.Operandf("%s uses qubit %d twice", op, q)
			}
		}
	}

	if err := kernels[op](s, op, qubits, params); err != nil {
		return err
	}
	if s.renormalize {
		return s.normalize()
	}
	return nil
}

func finite(c complex128) bool {
	return !cmplx.IsNaN(c) && !cmplx.IsInf(c)
}

func nonFinite(op qir.Opcode, i int, a complex128) error {
	return qerr.Numericalf("%s produced amplitude %v at basis state %d", op, a, i)
}

// controlled applies m to target on the basis states where every control
// bit is set. The loop runs over the 2^(n-1) index pairs that differ only
// in the target bit.
func (s *StateVector) controlled(op qir.Opcode, controls []int, target int, m mat2) error {
	bit := 1 << target
	low := bit - 1
	mask := 0
	for _, c := range controls {
		mask |= 1 << c
	}

	return s.forRange(len(s.amps)>>1, func(_, lo, hi int) error {
		for k := lo; k < hi; k++ {
			i := (k&^low)<<1 | k&low
			if i&mask != mask {
				continue
			}
			j := i | bit
			a0, a1 := s.amps[i], s.amps[j]
			b0 := m[0][0]*a0 + m[0][1]*a1
			b1 := m[1][0]*a0 + m[1][1]*a1
			if !finite(b0) {
				return nonFinite(op, i, b0)
			}
			if !finite(b1) {
				return nonFinite(op, j, b1)
			}
			s.amps[i], s.amps[j] = b0, b1
		}
		return nil
	})
}

// swap exchanges the amplitudes of states where bits a and b differ. The
// owner of each pair is the index with a set and b clear.
func (s *StateVector) swap(op qir.Opcode, a, b int) error {
	ba, bb := 1<<a, 1<<b
	return s.forRange(len(s.amps), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if i&ba == 0 || i&bb != 0 {
				continue
			}
			j := i ^ ba ^ bb
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
			if !finite(s.amps[i]) {
				return nonFinite(op, i, s.amps[i])
			}
			if !finite(s.amps[j]) {
				return nonFinite(op, j, s.amps[j])
			}
		}
		return nil
	})
}

// zzPhase applies exp(-i theta/2 Z⊗Z): e^{-i theta/2} where bits a and b
// agree, e^{+i theta/2} where they differ.
func (s *StateVector) zzPhase(op qir.Opcode, a, b int, theta float64) error {
	same := cmplx.Exp(complex(0, -theta/2))
	diff := cmplx.Exp(complex(0, theta/2))
	return s.forRange(len(s.amps), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if (i>>a)&1 == (i>>b)&1 {
				s.amps[i] *= same
			} else {
				s.amps[i] *= diff
			}
			if !finite(s.amps[i]) {
				return nonFinite(op, i, s.amps[i])
			}
		}
		return nil
	})
}
