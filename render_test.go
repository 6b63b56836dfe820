package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"qirsim/sim"
)

// qirModule wraps call lines in an entry point.
func qirModule(calls ...string) string {
	var sb strings.Builder
	sb.WriteString("%Qubit = type opaque\n%Result = type opaque\n\n")
	sb.WriteString("define void @main() #0 {\nentry:\n")
	for _, c := range calls {
		sb.WriteString("  " + c + "\n")
	}
	sb.WriteString("  ret void\n}\n\nattributes #0 = { \"entry_point\" }\n")
	return sb.String()
}

// skewed is RY(pi/3) on q[0] followed by a measurement: p(0)=0.75.
var skewed = qirModule(
	"call void @__quantum__qis__ry__body(double pi/3, %Qubit* null)",
	"call void @__quantum__qis__mz__body(%Qubit* null, %Result* null)",
)

func runSkewed(t *testing.T) *sim.Result {
	t.Helper()
	res, err := sim.RunSource(skewed, 2)
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	return res
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewReportByKey(t *testing.T) {
	res := runSkewed(t)
	rep := newReport("skewed.ll", 2, &Config{Sort: "key"}, res)

	if rep.Mode != "analytic" || rep.Qubits != 2 || rep.RunID != res.RunID {
		t.Fatalf("unexpected header: %+v", rep)
	}
	if len(rep.States) != 2 {
		t.Fatalf("expected 2 states, got %d", len(rep.States))
	}
	if rep.States[0].State != "00" || rep.States[1].State != "01" {
		t.Errorf("expected key order 00, 01, got %s, %s", rep.States[0].State, rep.States[1].State)
	}
	if !near(rep.States[0].Probability, 0.75) || !near(rep.States[1].Probability, 0.25) {
		t.Errorf("unexpected probabilities: %+v", rep.States)
	}
	if rep.Hidden != 0 {
		t.Errorf("expected nothing hidden, got %d", rep.Hidden)
	}

	if len(rep.Classical) != 1 {
		t.Fatalf("expected one classical result, got %d", len(rep.Classical))
	}
	c := rep.Classical[0]
	if c.Result != 0 || c.Qubit != 0 || c.Outcome != 0 || !near(c.ProbOne, 0.25) {
		t.Errorf("unexpected classical result: %+v", c)
	}
}

func TestNewReportFilterAndSort(t *testing.T) {
	res := sim.Result{Distribution: sim.Distribution{"00": 0.1, "01": 0.6, "10": 0.3}}
	rep := newReport("", 2, &Config{Sort: "prob", MinDisplay: 0.2, Collapse: true}, &res)

	if rep.Mode != "collapse" {
		t.Errorf("expected collapse mode, got %s", rep.Mode)
	}
	if rep.Hidden != 1 {
		t.Errorf("expected 1 hidden state, got %d", rep.Hidden)
	}
	var got []string
	for _, st := range rep.States {
		got = append(got, st.State)
	}
	if strings.Join(got, ",") != "01,10" {
		t.Errorf("expected 01,10 got %v", got)
	}
}

func TestWriteReportJSON(t *testing.T) {
	rep := newReport("skewed.ll", 2, &Config{Sort: "key"}, runSkewed(t))

	var buf bytes.Buffer
	if err := writeReport(&buf, "json", rep); err != nil {
		t.Fatalf("writeReport: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if decoded["file"] != "skewed.ll" || decoded["mode"] != "analytic" {
		t.Errorf("unexpected fields: %v", decoded)
	}
	states, ok := decoded["states"].([]any)
	if !ok || len(states) != 2 {
		t.Fatalf("expected 2 states, got %v", decoded["states"])
	}
	first := states[0].(map[string]any)
	if first["state"] != "00" {
		t.Errorf("expected first state 00, got %v", first["state"])
	}
	if _, ok := decoded["hidden"]; ok {
		t.Error("hidden should be omitted when zero")
	}
}

func TestWriteReportYAML(t *testing.T) {
	rep := newReport("", 2, &Config{Sort: "prob"}, runSkewed(t))

	var buf bytes.Buffer
	if err := writeReport(&buf, "yaml", rep); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "file:") {
		t.Errorf("empty file should be omitted:\n%s", out)
	}

	var decoded report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if len(decoded.States) != 2 || decoded.States[0].State != "00" {
		t.Errorf("unexpected states: %+v", decoded.States)
	}
	if decoded.RunID != rep.RunID {
		t.Errorf("run id %q, want %q", decoded.RunID, rep.RunID)
	}
}

func TestWriteReportTable(t *testing.T) {
	rep := newReport("skewed.ll", 2, &Config{Sort: "key"}, runSkewed(t))

	var buf bytes.Buffer
	if err := writeReport(&buf, "table", rep); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"STATE", "PROBABILITY", "00", "01", "0.750000", "0.250000", "Measurements", "run " + rep.RunID} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestProbabilityBar(t *testing.T) {
	tests := []struct {
		p     float64
		width int
		want  string
	}{
		{0, 10, ""},
		{0.5, 10, "█████"},
		{0.25, 10, "██▌"},
		{1, 10, "██████████"},
	}
	for _, tt := range tests {
		if got := probabilityBar(tt.p, tt.width); got != tt.want {
			t.Errorf("probabilityBar(%v, %d) = %q, want %q", tt.p, tt.width, got, tt.want)
		}
	}
}

func TestRenderListing(t *testing.T) {
	src := qirModule(
		"call void @__quantum__qis__h__body(%Qubit* null)",
		"call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 1 to %Qubit*))",
	)
	prog := mustParse(t, src)
	out := renderListing("bell.ll", prog)
	for _, want := range []string{"bell.ll", "@main", "not declared", "2 of 2 instructions", "h q[0]", "cx q[0], q[1]", "Qubit usage"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestOverlayAt(t *testing.T) {
	bg := "aaaa\nbbbb\ncccc"
	got := overlayAt(bg, "XY", 1, 1)
	if got != "aaaa\nbXYb\ncccc" {
		t.Errorf("overlayAt = %q", got)
	}

	got = overlayAt("ab", "XY", 4, 0)
	if got != "ab  XY" {
		t.Errorf("overlay past the end = %q", got)
	}
}

func TestVisibleLen(t *testing.T) {
	if n := visibleLen("\x1b[31mab\x1b[0mc"); n != 3 {
		t.Errorf("visibleLen = %d, want 3", n)
	}
	if s := padCenter("H", 5); s != "  H  " {
		t.Errorf("padCenter = %q", s)
	}
}
