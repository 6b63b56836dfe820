package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"qirsim/qerr"
	"qirsim/sim"
	"qirsim/statevec"
)

var (
	configFile string
	v          = newViper()
	cfg        *Config
	logger     *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qirsim",
	Short: "Exact state-vector simulator for QIR programs",
	Long: `qirsim runs quantum programs written in the Quantum Intermediate
Representation (LLVM IR using the __quantum__qis__ and __quantum__rt__
intrinsics) on a dense state vector and prints the exact probability of
every observable bit string.

Bit strings are written with qubit 0 as the rightmost character.

Settings come from flags, QIRSIM_* environment variables and an optional
qirsim.yaml in the working directory, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return err
		}
		c, err := loadConfig(v, configFile)
		if err != nil {
			return err
		}
		l, err := newLogger(os.Stderr, c.LogLevel, c.LogFormat)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		logger.Debug("config loaded", "file", v.ConfigFileUsed(), "qubits", cfg.Qubits, "max_qubits", cfg.MaxQubits)
		return nil
	},
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVar(&configFile, "config", "", "config file (default ./qirsim.yaml)")
	fs.IntP("qubits", "n", 10, "number of qubits in the register")
	fs.Int("max-qubits", statevec.DefaultMaxQubits, "refuse registers larger than this")
	fs.Float64("threshold", sim.DefaultThreshold, "omit outcomes less likely than this")
	fs.Float64("tolerance", sim.DefaultTolerance, "allowed deviation of the total probability from 1")
	fs.Bool("collapse", false, "sample and collapse on measurement instead of recording analytically")
	fs.Uint64("seed", 0, "seed for --collapse")
	fs.Bool("exact", false, "require the declared qubit count to equal --qubits")
	fs.Int("workers", runtime.GOMAXPROCS(0), "goroutines used for gate application")
	fs.Int("parallel-threshold", statevec.DefaultParallelThreshold, "amplitude count below which gates run serially")
	fs.Bool("renormalize", false, "rescale the state after every gate")
	fs.String("log-level", "warn", "debug, info, warn or error")
	fs.String("log-format", "text", "text, json or logfmt")

	rootCmd.AddCommand(runCmd, inspectCmd, viewCmd)
}

// exitCode maps an error to the process exit status, one per error kind.
func exitCode(err error) int {
	switch qerr.KindOf(err) {
	case qerr.KindParse:
		return 2
	case qerr.KindCapacity:
		return 3
	case qerr.KindInvalidOperand:
		return 4
	case qerr.KindNumerical:
		return 5
	case qerr.KindNormalization:
		return 6
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(exitCode(err))
	}
}
