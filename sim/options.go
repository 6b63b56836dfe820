package sim

import (
	"io"

	"github.com/charmbracelet/log"

	"qirsim/statevec"
)

type config struct {
	logger *log.Logger

	collapse bool
	seed     uint64
	exact    bool

	threshold float64
	tolerance float64

	maxQubits         int
	workers           int
	parallelThreshold int
	renormalize       bool
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:    log.New(io.Discard),
		threshold: DefaultThreshold,
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c config) engineOptions() []statevec.Option {
	var opts []statevec.Option
	if c.maxQubits > 0 {
		opts = append(opts, statevec.WithMaxQubits(c.maxQubits))
	}
	if c.workers > 0 {
		opts = append(opts, statevec.WithWorkers(c.workers))
	}
	if c.parallelThreshold > 0 {
		opts = append(opts, statevec.WithParallelThreshold(c.parallelThreshold))
	}
	return append(opts, statevec.WithRenormalize(c.renormalize))
}

// Option configures a run.
type Option func(*config)

// WithLogger sets the logger runs report to. Runs are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCollapse switches measurement from analytic mode to collapse mode:
// every measurement draws an outcome from a generator seeded with seed and
// projects the state onto it. The same seed always gives the same run.
func WithCollapse(seed uint64) Option {
	return func(c *config) {
		c.collapse = true
		c.seed = seed
	}
}

// WithExactQubits makes a run fail with a ParseError when the module
// declares a qubit count different from the one the run was given.
func WithExactQubits() Option {
	return func(c *config) { c.exact = true }
}

// WithThreshold sets the probability below which states are dropped from
// the Distribution.
func WithThreshold(p float64) Option {
	return func(c *config) {
		if p >= 0 {
			c.threshold = p
		}
	}
}

// WithTolerance sets how far the final total probability may drift from 1.
func WithTolerance(eps float64) Option {
	return func(c *config) {
		if eps > 0 {
			c.tolerance = eps
		}
	}
}

// WithMaxQubits sets the register size limit; see statevec.WithMaxQubits.
func WithMaxQubits(n int) Option {
	return func(c *config) { c.maxQubits = n }
}

// WithWorkers sets the goroutines one gate may use.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithParallelThreshold sets the state size from which gates run in
// parallel.
func WithParallelThreshold(n int) Option {
	return func(c *config) { c.parallelThreshold = n }
}

// WithRenormalize rescales the state to unit norm after every gate.
func WithRenormalize(on bool) Option {
	return func(c *config) { c.renormalize = on }
}
