package qir

import (
	"slices"
	"strings"
)

const (
	qisPrefix = "@__quantum__qis__"
	rtPrefix  = "@__quantum__rt__"
)

// argKind is the operand class expected at one position of an intrinsic.
type argKind int

const (
	argQubit argKind = iota
	argResult
	argDouble
)

// intrinsic describes one supported __quantum__qis__ function.
type intrinsic struct {
	kind Kind
	op   Opcode
	args []argKind
	// returnsResult marks measurements whose classical slot is the
	// %Result* the call is assigned to.
	returnsResult bool
	// noop intrinsics are accepted and produce no instruction.
	noop bool
}

var (
	q1  = []argKind{argQubit}
	q2  = []argKind{argQubit, argQubit}
	q3  = []argKind{argQubit, argQubit, argQubit}
	dq1 = []argKind{argDouble, argQubit}
)

// intrinsics is the supported quantum instruction set, keyed by the name
// with the @__quantum__qis__ prefix removed.
var intrinsics = map[string]intrinsic{
	"h__body":    {kind: KindGate, op: OpH, args: q1},
	"x__body":    {kind: KindGate, op: OpX, args: q1},
	"y__body":    {kind: KindGate, op: OpY, args: q1},
	"z__body":    {kind: KindGate, op: OpZ, args: q1},
	"s__body":    {kind: KindGate, op: OpS, args: q1},
	"s__adj":     {kind: KindGate, op: OpSdg, args: q1},
	"t__body":    {kind: KindGate, op: OpT, args: q1},
	"t__adj":     {kind: KindGate, op: OpTdg, args: q1},
	"sx__body":   {kind: KindGate, op: OpSX, args: q1},
	"rx__body":   {kind: KindGate, op: OpRX, args: dq1},
	"ry__body":   {kind: KindGate, op: OpRY, args: dq1},
	"rz__body":   {kind: KindGate, op: OpRZ, args: dq1},
	"r1__body":   {kind: KindGate, op: OpPhase, args: dq1},
	"p__body":    {kind: KindGate, op: OpPhase, args: dq1},
	"u3__body":   {kind: KindGate, op: OpU3, args: []argKind{argDouble, argDouble, argDouble, argQubit}},
	"cnot__body": {kind: KindGate, op: OpCX, args: q2},
	"cx__body":   {kind: KindGate, op: OpCX, args: q2},
	"cy__body":   {kind: KindGate, op: OpCY, args: q2},
	"cz__body":   {kind: KindGate, op: OpCZ, args: q2},
	"swap__body": {kind: KindGate, op: OpSwap, args: q2},
	"rzz__body":  {kind: KindGate, op: OpRZZ, args: []argKind{argDouble, argQubit, argQubit}},
	"ccx__body":  {kind: KindGate, op: OpCCX, args: q3},

	"mz__body": {kind: KindMeasure, args: []argKind{argQubit, argResult}},
	"m__body":  {kind: KindMeasure, args: q1, returnsResult: true},

	"barrier__body":     {kind: KindBarrier},
	"read_result__body": {noop: true, args: []argKind{argResult}},
}

// runtime functions that carry simulation meaning; every other
// @__quantum__rt__ call is bookkeeping and is skipped.
const (
	rtQubitAllocate      = "qubit_allocate"
	rtQubitAllocateArray = "qubit_allocate_array"
	rtArrayElementPtr    = "array_get_element_ptr_1d"
)

// Intrinsics lists the supported __quantum__qis__ function names.
func Intrinsics() []string {
	names := make([]string, 0, len(intrinsics))
	for name := range intrinsics {
		names = append(names, strings.TrimPrefix(qisPrefix, "@")+name)
	}
	slices.Sort(names)
	return names
}
