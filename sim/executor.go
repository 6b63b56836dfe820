package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"qirsim/qerr"
	"qirsim/qir"
	"qirsim/statevec"
)

// Status is the lifecycle stage of an Executor.
type Status int

const (
	StatusInitialized Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Measurement is what a measure instruction recorded. In analytic mode
// Outcome is the more likely value (0 on a tie) and the state is left
// intact; in collapse mode it is the sampled value the state was projected
// onto. ProbOne is the probability of reading 1 just before the
// measurement.
type Measurement struct {
	Qubit   int
	Outcome int
	ProbOne float64
}

// ClassicalResults maps a classical result slot to its last measurement.
type ClassicalResults map[int]Measurement

// Result is the outcome of a completed run.
type Result struct {
	RunID        string
	Distribution Distribution
	Classical    ClassicalResults
	// Measured lists the measured qubits in ascending order.
	Measured []int
	// Instructions is the number of instructions executed.
	Instructions int
}

// Executor runs one program against a fresh state. It is single use: a
// second Execute call fails.
type Executor struct {
	cfg    config
	qubits int
	id     string
	logger *log.Logger

	status    Status
	state     *statevec.StateVector
	classical ClassicalResults
	measured  map[int]bool
	rng       *rand.Rand
}

// NewExecutor prepares a run over a register of the given width.
func NewExecutor(qubits int, opts ...Option) *Executor {
	cfg := newConfig(opts)
	id := uuid.NewString()
	e := &Executor{
		cfg:       cfg,
		qubits:    qubits,
		id:        id,
		logger:    cfg.logger.With("run", id),
		classical: make(ClassicalResults),
		measured:  make(map[int]bool),
	}
	if cfg.collapse {
		e.rng = rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15))
	}
	return e
}

// ID is the run id attached to every log entry of this executor.
func (e *Executor) ID() string { return e.id }

// Status reports the lifecycle stage.
func (e *Executor) Status() Status { return e.status }

// Execute runs prog instruction by instruction and extracts the final
// distribution. The first failing instruction aborts the run; its error is
// returned and no partial result is produced.
func (e *Executor) Execute(prog *qir.Program) (*Result, error) {
	if e.status != StatusInitialized {
		return nil, fmt.Errorf("sim: executor is %s and cannot run again", e.status)
	}
	e.status = StatusRunning
	start := time.Now()
	e.logger.Info("run started",
		"entry", prog.EntryPoint,
		"qubits", e.qubits,
		"instructions", len(prog.Instructions),
		"mode", e.mode())

	res, err := e.execute(prog)
	if err != nil {
		e.status = StatusFailed
		e.logger.Error("run failed", "err", err, "kind", qerr.KindOf(err))
		return nil, err
	}
	e.status = StatusCompleted
	e.logger.Info("run finished", "states", len(res.Distribution), "elapsed", time.Since(start))
	return res, nil
}

func (e *Executor) mode() string {
	if e.cfg.collapse {
		return "collapse"
	}
	return "analytic"
}

func (e *Executor) execute(prog *qir.Program) (*Result, error) {
	state, err := statevec.New(e.qubits, e.cfg.engineOptions()...)
	if err != nil {
		return nil, err
	}
	if err := e.checkDeclared(prog); err != nil {
		return nil, err
	}
	e.state = state

	for _, in := range prog.Instructions {
		e.logger.Debug("exec", "line", in.Line, "inst", in.String())
		if err := e.step(in); err != nil {
			var qe *qerr.Error
			if errors.As(err, &qe) {
				return nil, qe.AtLine(in.Line)
			}
			return nil, err
		}
	}

	dist, err := Extract(e.state.Snapshot(), e.qubits, e.cfg.threshold, e.cfg.tolerance)
	if err != nil {
		return nil, err
	}

	measured := make([]int, 0, len(e.measured))
	for q := range e.measured {
		measured = append(measured, q)
	}
	slices.Sort(measured)

	return &Result{
		RunID:        e.id,
		Distribution: dist,
		Classical:    e.classical,
		Measured:     measured,
		Instructions: len(prog.Instructions),
	}, nil
}

// checkDeclared compares the module's own qubit requirement with the
// register width of this run.
func (e *Executor) checkDeclared(prog *qir.Program) error {
	if prog.Declared < 0 {
		return nil
	}
	if e.cfg.exact && prog.Declared != e.qubits {
		return qerr.Parsef(0, "module declares %d qubits, run was given %d", prog.Declared, e.qubits)
	}
	if prog.Declared > e.qubits {
		return qerr.Capacityf("module requires %d qubits, run was given %d", prog.Declared, e.qubits)
	}
	return nil
}

func (e *Executor) step(in qir.Instruction) error {
	switch in.Kind {
	case qir.KindAllocate:
		for _, q := range in.Qubits {
			if q >= e.qubits {
				return qerr.Capacityf("allocating qubit %d needs more than the %d declared qubits", q, e.qubits)
			}
		}
		return nil
	case qir.KindGate:
		return e.state.Apply(in.Op, in.Qubits, in.Params)
	case qir.KindMeasure:
		return e.measure(in.Qubits[0], in.Result)
	case qir.KindBarrier:
		return nil
	default:
		return qerr.Parsef(in.Line, "unknown instruction kind %s", in.Kind)
	}
}

func (e *Executor) measure(q, slot int) error {
	p0, err := e.state.ProbabilityZero(q)
	if err != nil {
		return err
	}
	m := Measurement{Qubit: q, ProbOne: 1 - p0}

	if e.rng != nil {
		if e.rng.Float64() >= p0 {
			m.Outcome = 1
		}
		if err := e.state.Collapse(q, m.Outcome); err != nil {
			return err
		}
	} else if m.ProbOne > p0 {
		m.Outcome = 1
	}

	e.classical[slot] = m
	e.measured[q] = true
	e.logger.Debug("measured", "qubit", q, "result", slot, "outcome", m.Outcome, "p1", m.ProbOne)
	return nil
}
