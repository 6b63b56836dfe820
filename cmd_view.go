package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// starterProgram is loaded when view is given a file that does not exist yet.
const starterProgram = `%Qubit = type opaque
%Result = type opaque

define void @main() #0 {
entry:
  call void @__quantum__qis__h__body(%Qubit* null)
  call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 1 to %Qubit*))
  ret void
}

attributes #0 = { "entry_point" "required_num_qubits"="2" }
`

var viewCmd = &cobra.Command{
	Use:   "view [FILE]",
	Short: "Edit a QIR program with a live outcome distribution",
	Long:  `Open an interactive editor on FILE. The distribution is recomputed
every time the program text changes; errors are shown in its place.
A missing FILE starts from a two-qubit Bell program and is created on save.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		src := starterProgram
		if len(args) == 1 {
			path = args[0]
			b, err := os.ReadFile(path)
			switch {
			case err == nil:
				src = string(b)
			case !errors.Is(err, os.ErrNotExist):
				return errors.Wrap(err, "read qir file")
			}
		}

		// The alt screen owns the terminal, so run logs are dropped.
		quiet := log.New(io.Discard)
		m := newModel(path, src, cfg.Qubits, cfg.MaxQubits, cfg.Sort == "prob", cfg.simOptions(quiet))

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return errors.Wrap(err, "viewer")
		}
		return nil
	},
}
