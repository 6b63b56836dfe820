package statevec

import "golang.org/x/sync/errgroup"

// split divides [0, total) into equal contiguous chunks, one per worker.
// Small vectors and single-worker states get a single chunk.
func (s *StateVector) split(total int) (size, count int) {
	if s.workers <= 1 || len(s.amps) < s.parallelThreshold || total < s.workers {
		return total, 1
	}
	size = (total + s.workers - 1) / s.workers
	return size, (total + size - 1) / size
}

// forRange runs body over disjoint chunks of [0, total) and returns once
// every chunk has finished. body receives the chunk number and its bounds.
// The first error any chunk reports is returned.
func (s *StateVector) forRange(total int, body func(chunk, lo, hi int) error) error {
	size, count := s.split(total)
	if count == 1 {
		return body(0, 0, total)
	}

	var eg errgroup.Group
	eg.SetLimit(s.workers)
	for c := range count {
		lo := c * size
		hi := min(lo+size, total)
		eg.Go(func() error {
			return body(c, lo, hi)
		})
	}
	return eg.Wait()
}
