package main

import (
	"fmt"
	"strings"
)

// operand codes of a menu template: q qubit, r result, d double
type menuItem struct {
	name      string
	intrinsic string
	operands  string
	example   string // angle literal used for d operands
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// intrinsicMenu is the picker the viewer opens with 'a'. Choosing an entry
// inserts a call to the intrinsic into the editor.
var intrinsicMenu = []menuCategory{
	{
		name: "Single Qubit",
		items: []menuItem{
			{name: "Hadamard", intrinsic: "h__body", operands: "q"},
			{name: "Pauli-X (NOT)", intrinsic: "x__body", operands: "q"},
			{name: "Pauli-Y", intrinsic: "y__body", operands: "q"},
			{name: "Pauli-Z", intrinsic: "z__body", operands: "q"},
			{name: "Phase (S)", intrinsic: "s__body", operands: "q"},
			{name: "Phase Dagger (S†)", intrinsic: "s__adj", operands: "q"},
			{name: "T Gate", intrinsic: "t__body", operands: "q"},
			{name: "T Dagger (T†)", intrinsic: "t__adj", operands: "q"},
			{name: "√X (SX)", intrinsic: "sx__body", operands: "q"},
		},
	},
	{
		name: "Rotation",
		items: []menuItem{
			{name: "Rotate X", intrinsic: "rx__body", operands: "dq", example: "pi/2"},
			{name: "Rotate Y", intrinsic: "ry__body", operands: "dq", example: "pi/2"},
			{name: "Rotate Z", intrinsic: "rz__body", operands: "dq", example: "pi/2"},
			{name: "Phase Shift", intrinsic: "r1__body", operands: "dq", example: "pi/4"},
			{name: "Universal U3", intrinsic: "u3__body", operands: "dddq", example: "pi/2"},
		},
	},
	{
		name: "Multi Qubit",
		items: []menuItem{
			{name: "CNOT", intrinsic: "cnot__body", operands: "qq"},
			{name: "Controlled-Y", intrinsic: "cy__body", operands: "qq"},
			{name: "Controlled-Z", intrinsic: "cz__body", operands: "qq"},
			{name: "SWAP", intrinsic: "swap__body", operands: "qq"},
			{name: "ZZ Rotation", intrinsic: "rzz__body", operands: "dqq", example: "pi/4"},
			{name: "Toffoli (CCX)", intrinsic: "ccx__body", operands: "qqq"},
		},
	},
	{
		name: "Other",
		items: []menuItem{
			{name: "Measure", intrinsic: "mz__body", operands: "qr"},
			{name: "Barrier", intrinsic: "barrier__body"},
		},
	},
}

func qubitOperand(i int) string {
	if i == 0 {
		return "%Qubit* null"
	}
	return fmt.Sprintf("%%Qubit* inttoptr (i64 %d to %%Qubit*)", i)
}

func resultOperand(i int) string {
	if i == 0 {
		return "%Result* null"
	}
	return fmt.Sprintf("%%Result* inttoptr (i64 %d to %%Result*)", i)
}

// template is the call line for the item, acting on qubits from first
// upwards. Measurements write the result slot of the same index.
func (it menuItem) template(first int) string {
	args := make([]string, 0, len(it.operands))
	q := first
	for _, c := range it.operands {
		switch c {
		case 'q':
			args = append(args, qubitOperand(q))
			q++
		case 'r':
			args = append(args, resultOperand(first))
		case 'd':
			args = append(args, "double "+it.example)
		}
	}
	return fmt.Sprintf("call void @__quantum__qis__%s(%s)", it.intrinsic, strings.Join(args, ", "))
}

// renderMenu renders the intrinsic picker overlay.
func (m Model) renderMenu() string {
	var sb strings.Builder

	var tabs []string
	for i, cat := range intrinsicMenu {
		if i == m.menuCat {
			tabs = append(tabs, menuSelectedStyle.Render("["+cat.name+"]"))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+cat.name+" "))
		}
	}
	sb.WriteString(strings.Join(tabs, " "))
	sb.WriteString("\n\n")

	for i, item := range intrinsicMenu[m.menuCat].items {
		line := fmt.Sprintf("%-18s %s", item.name, dimStyle.Render(item.intrinsic))
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render("▸ ") + menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.name)) + " " + dimStyle.Render(item.intrinsic))
		} else {
			sb.WriteString("  " + menuNormalStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("←→ Category  ↑↓ Select  ⏎ Insert  Esc ✕"))
	return menuBorderStyle.Render(sb.String())
}
