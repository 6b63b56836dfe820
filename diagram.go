package main

import (
	"fmt"
	"strings"

	"qirsim/qir"
)

// ──────────────────────────── Circuit diagram ────────────────────────────

type cellKind int

const (
	cellWire cellKind = iota
	cellBox
	cellSymbol
	cellPassThrough
)

// cellInfo describes what one qubit wire shows in one diagram column.
type cellInfo struct {
	kind      cellKind
	label     string
	vertAbove bool
	vertBelow bool
}

func span(in qir.Instruction) (lo, hi int) {
	lo, hi = in.Qubits[0], in.Qubits[0]
	for _, q := range in.Qubits[1:] {
		lo, hi = min(lo, q), max(hi, q)
	}
	return lo, hi
}

// diagramColumns splits each layer into columns whose instructions cover
// disjoint qubit ranges, so vertical connectors never cross another gate.
func diagramColumns(prog *qir.Program) [][]int {
	var cols [][]int
	for _, layer := range prog.Layers() {
		var packed [][]int
	next:
		for _, idx := range layer {
			lo, hi := span(prog.Instructions[idx])
			for c, col := range packed {
				free := true
				for _, other := range col {
					olo, ohi := span(prog.Instructions[other])
					if lo <= ohi && olo <= hi {
						free = false
						break
					}
				}
				if free {
					packed[c] = append(packed[c], idx)
					continue next
				}
			}
			packed = append(packed, []int{idx})
		}
		cols = append(cols, packed...)
	}
	return cols
}

// role is how instruction in draws the qubit at operand position pos.
func role(in qir.Instruction, pos int) (cellKind, string) {
	if in.Kind == qir.KindMeasure {
		return cellBox, "M"
	}
	last := pos == len(in.Qubits)-1
	switch in.Op {
	case qir.OpCX, qir.OpCCX:
		if last {
			return cellSymbol, "⊕"
		}
		return cellSymbol, "●"
	case qir.OpCZ:
		return cellSymbol, "●"
	case qir.OpCY:
		if last {
			return cellBox, "Y"
		}
		return cellSymbol, "●"
	case qir.OpSwap:
		return cellSymbol, "×"
	case qir.OpRZZ:
		return cellBox, "ZZ"
	default:
		return cellBox, in.Op.String()
	}
}

func columnCells(prog *qir.Program, col []int, numQubits int) []cellInfo {
	cells := make([]cellInfo, numQubits)
	for _, idx := range col {
		in := prog.Instructions[idx]
		lo, hi := span(in)
		for q := lo; q <= hi && q < numQubits; q++ {
			cells[q] = cellInfo{kind: cellPassThrough, vertAbove: q > lo, vertBelow: q < hi}
		}
		for pos, q := range in.Qubits {
			if q >= numQubits {
				continue
			}
			kind, label := role(in, pos)
			cells[q].kind, cells[q].label = kind, label
		}
	}
	return cells
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW visual characters wide.
func renderCell(info cellInfo) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	top, bot = emptyRow, emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch info.kind {
	case cellBox:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		edgeL := (gateNameW - 1) / 2
		edgeR := gateNameW - edgeL - 1

		topEdge := strings.Repeat("─", gateNameW)
		if info.vertAbove {
			topEdge = strings.Repeat("─", edgeL) + "┴" + strings.Repeat("─", edgeR)
		}
		botEdge := strings.Repeat("─", gateNameW)
		if info.vertBelow {
			botEdge = strings.Repeat("─", edgeL) + "┬" + strings.Repeat("─", edgeR)
		}

		top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+topEdge+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+padCenter(info.label, gateNameW)+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+botEdge+"┘") + strings.Repeat(" ", rightMargin)
	case cellSymbol:
		mid = strings.Repeat("─", dashL) + gateStyle.Render(info.label) + strings.Repeat("─", dashR)
	case cellPassThrough:
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
	default:
		mid = strings.Repeat("─", cellW)
	}
	return top, mid, bot
}

// renderDiagram draws the program as qubit wires. maxWidth limits the number
// of columns drawn; 0 means no limit.
func renderDiagram(prog *qir.Program, numQubits, maxWidth int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Circuit") + "\n\n")
	if numQubits == 0 {
		sb.WriteString(dimStyle.Render("  (no qubits)") + "\n")
		return sb.String()
	}

	cols := diagramColumns(prog)
	shown := len(cols)
	if maxWidth > 0 {
		shown = min(shown, max((maxWidth-labelVisualW)/cellW, 1))
	}

	for q := range numQubits {
		topLine := strings.Repeat(" ", labelVisualW)
		label := fmt.Sprintf("q[%d]", q)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-5s", label)) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for _, col := range cols[:shown] {
			top, mid, bot := renderCell(columnCells(prog, col, numQubits)[q])
			topLine += top
			midLine += mid
			botLine += bot
		}
		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}
	if shown < len(cols) {
		fmt.Fprintf(&sb, "  %s\n", dimStyle.Render(fmt.Sprintf("▶ %d more columns", len(cols)-shown)))
	}
	return sb.String()
}
