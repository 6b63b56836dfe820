package qir

import (
	"fmt"
	"strings"
)

// Opcode names a unitary gate. The set is closed: the state vector engine
// keeps one kernel per opcode.
type Opcode int

const (
	OpNone Opcode = iota
	OpH
	OpX
	OpY
	OpZ
	OpS
	OpSdg
	OpT
	OpTdg
	OpSX
	OpRX
	OpRY
	OpRZ
	OpPhase
	OpU3
	OpCX
	OpCY
	OpCZ
	OpSwap
	OpRZZ
	OpCCX

	// NumOpcodes bounds the opcode table.
	NumOpcodes
)

type opInfo struct {
	name   string
	qubits int
	params int
}

var opTable = [NumOpcodes]opInfo{
	OpNone:  {"NONE", 0, 0},
	OpH:     {"H", 1, 0},
	OpX:     {"X", 1, 0},
	OpY:     {"Y", 1, 0},
	OpZ:     {"Z", 1, 0},
	OpS:     {"S", 1, 0},
	OpSdg:   {"SDG", 1, 0},
	OpT:     {"T", 1, 0},
	OpTdg:   {"TDG", 1, 0},
	OpSX:    {"SX", 1, 0},
	OpRX:    {"RX", 1, 1},
	OpRY:    {"RY", 1, 1},
	OpRZ:    {"RZ", 1, 1},
	OpPhase: {"P", 1, 1},
	OpU3:    {"U3", 1, 3},
	OpCX:    {"CX", 2, 0},
	OpCY:    {"CY", 2, 0},
	OpCZ:    {"CZ", 2, 0},
	OpSwap:  {"SWAP", 2, 0},
	OpRZZ:   {"RZZ", 2, 1},
	OpCCX:   {"CCX", 3, 0},
}

func (op Opcode) valid() bool { return op > OpNone && op < NumOpcodes }

func (op Opcode) String() string {
	if op < 0 || op >= NumOpcodes {
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
	return opTable[op].name
}

// Qubits is the number of qubit operands the gate takes.
func (op Opcode) Qubits() int {
	if !op.valid() {
		return 0
	}
	return opTable[op].qubits
}

// Params is the number of angle parameters the gate takes.
func (op Opcode) Params() int {
	if !op.valid() {
		return 0
	}
	return opTable[op].params
}

// Kind tags an Instruction.
type Kind int

const (
	KindAllocate Kind = iota
	KindGate
	KindMeasure
	KindBarrier
)

func (k Kind) String() string {
	switch k {
	case KindAllocate:
		return "alloc"
	case KindGate:
		return "gate"
	case KindMeasure:
		return "measure"
	case KindBarrier:
		return "barrier"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Instruction is one step of a program.
//
//   - KindAllocate: Qubits lists the indices brought into use.
//   - KindGate:     Op acts on Qubits (controls first, target last) with Params.
//   - KindMeasure:  Qubits[0] is measured into classical slot Result.
//   - KindBarrier:  no effect on the state.
type Instruction struct {
	Kind   Kind
	Op     Opcode
	Qubits []int
	Params []float64
	Result int
	Line   int // 1-based source line
}

func (in Instruction) String() string {
	var sb strings.Builder
	switch in.Kind {
	case KindAllocate:
		fmt.Fprintf(&sb, "alloc %s", qubitList(in.Qubits))
	case KindGate:
		sb.WriteString(strings.ToLower(in.Op.String()))
		if len(in.Params) > 0 {
			ps := make([]string, len(in.Params))
			for i, p := range in.Params {
				ps[i] = formatParam(p)
			}
			fmt.Fprintf(&sb, "(%s)", strings.Join(ps, ", "))
		}
		sb.WriteString(" " + qubitList(in.Qubits))
	case KindMeasure:
		fmt.Fprintf(&sb, "measure q[%d] -> r[%d]", in.Qubits[0], in.Result)
	case KindBarrier:
		sb.WriteString("barrier")
	}
	return sb.String()
}

func qubitList(qs []int) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprintf("q[%d]", q)
	}
	return strings.Join(parts, ", ")
}

// Program is a parsed entry point.
type Program struct {
	EntryPoint   string
	Instructions []Instruction

	// NumQubits is the number of qubits the instructions require: one past
	// the highest index referenced or allocated.
	NumQubits int
	// NumResults is one past the highest classical slot written.
	NumResults int
	// Declared is the qubit count the module's attributes ask for, or -1.
	Declared int
}

// Gates returns the number of gate instructions.
func (p *Program) Gates() int {
	n := 0
	for _, in := range p.Instructions {
		if in.Kind == KindGate {
			n++
		}
	}
	return n
}

func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; entry @%s, %d qubits, %d results\n", p.EntryPoint, p.NumQubits, p.NumResults)
	for _, in := range p.Instructions {
		fmt.Fprintf(&sb, "%4d  %s\n", in.Line, in)
	}
	return sb.String()
}
