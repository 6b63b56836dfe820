package qir

// Layer is a set of instructions that act on disjoint qubits and could run
// in the same time step. Entries are indices into Program.Instructions.
type Layer []int

// Layers groups the program's gates and measurements into ASAP layers: each
// instruction lands one layer after the latest instruction that touched any
// of its qubits. A barrier depends on every qubit and so closes the current
// frontier. Allocations occupy no layer.
//
// Layering is informational; execution always follows program order.
func (p *Program) Layers() []Layer {
	var layers []Layer
	frontier := make(map[int]int) // qubit -> next free layer
	floor := 0                    // lowest layer allowed after the last barrier

	for idx, in := range p.Instructions {
		switch in.Kind {
		case KindAllocate:
			continue
		case KindBarrier:
			for _, next := range frontier {
				floor = max(floor, next)
			}
			continue
		}

		at := floor
		for _, q := range in.Qubits {
			at = max(at, frontier[q])
		}
		for len(layers) <= at {
			layers = append(layers, nil)
		}
		layers[at] = append(layers[at], idx)
		for _, q := range in.Qubits {
			frontier[q] = at + 1
		}
	}
	return layers
}

// Depth is the number of layers.
func (p *Program) Depth() int {
	return len(p.Layers())
}

// QubitUsage counts the instructions touching each qubit.
func (p *Program) QubitUsage() map[int]int {
	usage := make(map[int]int)
	for _, in := range p.Instructions {
		if in.Kind == KindAllocate {
			continue
		}
		for _, q := range in.Qubits {
			usage[q]++
		}
	}
	return usage
}
