package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"qirsim/sim"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Simulate a QIR program and print its outcome distribution",
	Long: `Simulate a QIR program and print the probability of every bit string
that can be observed. FILE may be "-" to read the program from stdin.

Exit status is 2 for parse errors, 3 when the register is too large,
4 for invalid operands, 5 for numerical errors and 6 when the final state
is not normalised.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opts := cfg.simOptions(logger)

		var (
			res *sim.Result
			err error
		)
		if path == "-" {
			var src []byte
			src, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(err, "read stdin")
			}
			res, err = sim.RunSource(string(src), cfg.Qubits, opts...)
			path = ""
		} else {
			res, err = sim.RunFile(path, cfg.Qubits, opts...)
		}
		if err != nil {
			return err
		}

		return writeReport(cmd.OutOrStdout(), cfg.Format, newReport(path, cfg.Qubits, cfg, res))
	},
}

func init() {
	fs := runCmd.Flags()
	fs.StringP("format", "o", "table", "output format: table, json or yaml")
	fs.String("sort", "key", "order of states: key or prob")
	fs.Float64("min-display", 0, "hide states less likely than this")
}
