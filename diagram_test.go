package main

import (
	"strings"
	"testing"

	"qirsim/qir"
)

func mustParse(t *testing.T, src string) *qir.Program {
	t.Helper()
	prog, err := qir.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func TestDiagramBell(t *testing.T) {
	prog := mustParse(t, qirModule(
		"call void @__quantum__qis__h__body(%Qubit* null)",
		"call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 1 to %Qubit*))",
		"call void @__quantum__qis__mz__body(%Qubit* inttoptr (i64 1 to %Qubit*), %Result* null)",
	))

	out := renderDiagram(prog, 2, 0)
	for _, want := range []string{"q[0]", "q[1]", "H", "●", "⊕", "M"} {
		if !strings.Contains(out, want) {
			t.Errorf("diagram missing %q:\n%s", want, out)
		}
	}
	// 3 lines per qubit after the title and blank line
	if lines := strings.Count(out, "\n"); lines != 2+3*2 {
		t.Errorf("expected %d lines, got %d:\n%s", 2+3*2, lines, out)
	}
}

func TestDiagramColumnsSplitOverlappingSpans(t *testing.T) {
	// cnot q0,q2 and x q1 share a layer but the connector would cross q1.
	prog := mustParse(t, qirModule(
		"call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 2 to %Qubit*))",
		"call void @__quantum__qis__x__body(%Qubit* inttoptr (i64 1 to %Qubit*))",
	))
	if d := prog.Depth(); d != 1 {
		t.Fatalf("expected depth 1, got %d", d)
	}
	cols := diagramColumns(prog)
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d: %v", len(cols), cols)
	}

	cells := columnCells(prog, cols[0], 3)
	if cells[1].kind != cellPassThrough || !cells[1].vertAbove || !cells[1].vertBelow {
		t.Errorf("q[1] should be crossed by the connector: %+v", cells[1])
	}
	if cells[0].label != "●" || cells[2].label != "⊕" {
		t.Errorf("unexpected control/target labels: %q %q", cells[0].label, cells[2].label)
	}
}

func TestDiagramDisjointGatesShareColumn(t *testing.T) {
	prog := mustParse(t, qirModule(
		"call void @__quantum__qis__h__body(%Qubit* null)",
		"call void @__quantum__qis__h__body(%Qubit* inttoptr (i64 1 to %Qubit*))",
	))
	if cols := diagramColumns(prog); len(cols) != 1 || len(cols[0]) != 2 {
		t.Errorf("expected one column of two gates, got %v", cols)
	}
}

func TestDiagramWidthLimit(t *testing.T) {
	calls := make([]string, 6)
	for i := range calls {
		calls[i] = "call void @__quantum__qis__x__body(%Qubit* null)"
	}
	prog := mustParse(t, qirModule(calls...))

	out := renderDiagram(prog, 1, labelVisualW+2*cellW)
	if !strings.Contains(out, "4 more columns") {
		t.Errorf("expected truncation notice:\n%s", out)
	}
}

func TestRenderCellWidths(t *testing.T) {
	for _, info := range []cellInfo{
		{kind: cellWire},
		{kind: cellBox, label: "RX", vertBelow: true},
		{kind: cellSymbol, label: "●", vertBelow: true},
		{kind: cellPassThrough, vertAbove: true, vertBelow: true},
	} {
		top, mid, bot := renderCell(info)
		for _, line := range []string{top, mid, bot} {
			if n := visibleLen(line); n != cellW {
				t.Errorf("cell %+v: line %q is %d wide, want %d", info, line, n, cellW)
			}
		}
	}
}
