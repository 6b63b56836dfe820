package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"qirsim/qir"
)

var (
	showDiagram  bool
	diagramWidth int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Parse a QIR program and list what it would execute",
	Long: `Parse a QIR program without simulating it and print the entry point,
qubit and result counts, circuit depth and the instruction stream with
source line numbers. With --diagram the circuit is also drawn as wires.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read qir file")
		}
		prog, err := qir.Parse(string(src), qir.WithLogger(logger))
		if err != nil {
			return errors.Wrapf(err, "%s", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, renderListing(args[0], prog))
		if showDiagram {
			fmt.Fprintln(out)
			fmt.Fprint(out, renderDiagram(prog, prog.NumQubits, diagramWidth))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&showDiagram, "diagram", "d", false, "draw the circuit")
	inspectCmd.Flags().IntVar(&diagramWidth, "width", 120, "maximum diagram width in columns, 0 for no limit")
}
