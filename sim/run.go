// Package sim executes parsed QIR programs on a state vector and reports
// the exact distribution over measurement outcomes.
//
// Every run is independent: it owns its state and classical results, and
// nothing survives between calls, so concurrent runs are safe.
package sim

import (
	"os"

	"github.com/pkg/errors"

	"qirsim/qerr"
	"qirsim/qir"
)

// Run parses source and simulates it on a register of qubits qubits,
// returning the probability of every bit string that can be observed.
func Run(source string, qubits int, opts ...Option) (Distribution, error) {
	res, err := RunSource(source, qubits, opts...)
	if err != nil {
		return nil, err
	}
	return res.Distribution, nil
}

// RunSource is Run with the classical results kept.
func RunSource(source string, qubits int, opts ...Option) (*Result, error) {
	if qubits <= 0 {
		return nil, qerr.Capacityf("qubit count must be positive, got %d", qubits)
	}
	cfg := newConfig(opts)
	prog, err := qir.Parse(source, qir.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return RunProgram(prog, qubits, opts...)
}

// RunProgram simulates an already parsed program.
func RunProgram(prog *qir.Program, qubits int, opts ...Option) (*Result, error) {
	return NewExecutor(qubits, opts...).Execute(prog)
}

// RunFile reads a QIR file and runs it. Errors are annotated with the path;
// qerr.KindOf still sees through the annotation.
func RunFile(path string, qubits int, opts ...Option) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read qir file")
	}
	res, err := RunSource(string(src), qubits, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return res, nil
}
