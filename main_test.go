package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"qirsim/qerr"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{qerr.Parsef(3, "bad"), 2},
		{qerr.Capacityf("too big"), 3},
		{qerr.Operandf("q[9]"), 4},
		{qerr.Numericalf("nan"), 5},
		{qerr.Normalizationf("sum 0.5"), 6},
		{errors.Wrap(qerr.Parsef(1, "bad"), "prog.ll"), 2},
		{fmt.Errorf("run: %w", qerr.Numericalf("inf")), 5},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// execute runs the root command with args, resetting flags that earlier
// invocations may have set.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	v = newViper()
	configFile = ""
	showDiagram, diagramWidth = false, 120
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.ll")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCommandJSON(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeProgram(t, skewed)

	out, err := execute(t, "", "run", path, "-n", "2", "-o", "json", "--sort", "prob")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var rep report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if rep.Qubits != 2 || len(rep.States) != 2 || rep.States[0].State != "00" {
		t.Errorf("unexpected report: %+v", rep)
	}
	if rep.File != path {
		t.Errorf("file = %q, want %q", rep.File, path)
	}
}

func TestRunCommandStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, skewed, "run", "-", "--qubits", "1", "--format", "yaml")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "state: \"0\"") || !strings.Contains(out, "state: \"1\"") {
		t.Errorf("unexpected yaml output:\n%s", out)
	}
}

func TestRunCommandErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	bad := writeProgram(t, qirModule("call void @__quantum__qis__frob__body(%Qubit* null)"))
	_, err := execute(t, "", "run", bad, "-n", "1")
	if code := exitCode(err); code != 2 {
		t.Errorf("unsupported opcode: exit %d (%v), want 2", code, err)
	}
	if err == nil || !strings.Contains(err.Error(), bad) {
		t.Errorf("error should name the file: %v", err)
	}

	path := writeProgram(t, skewed)
	_, err = execute(t, "", "run", path, "-n", "8", "--max-qubits", "4")
	if code := exitCode(err); code != 3 {
		t.Errorf("oversized register: exit %d (%v), want 3", code, err)
	}

	_, err = execute(t, "", "run", path, "-n", "2", "--format", "xml")
	if err == nil || exitCode(err) != 1 {
		t.Errorf("bad format should be a config error, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeProgram(t, qirModule(
		"call void @__quantum__qis__h__body(%Qubit* null)",
		"call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 1 to %Qubit*))",
	))

	out, err := execute(t, "", "inspect", path, "--diagram")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"@main", "depth", "cx q[0], q[1]", "Circuit", "⊕"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}
