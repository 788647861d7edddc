// Package average computes the mean of a dataset in parallel: the
// dataset is split into contiguous partitions, one per worker, each
// worker reduces its partition locally, and the partial means are
// combined into a global mean weighted by partition size.
package average

import "github.com/pkg/errors"

// A Plan records how a dataset is divided between workers. Rank i is
// assigned Counts[i] elements starting at Offsets[i], and the
// partitions tile the dataset exactly.
type Plan struct {
	Counts  []int
	Offsets []int
}

// Split divides total elements between bins contiguous partitions.
//
// Each of the first bins-1 partitions receives floor(total/bins)
// elements and the last partition takes whatever remains, so the last
// partition may hold up to bins-1 more elements than the others. When
// total < bins, every partition but the last is empty.
func Split(total, bins int) (Plan, error) {
	if bins <= 0 {
		return Plan{}, errors.Wrapf(ErrInvalidArgument, "split between %d bins", bins)
	}
	if total < 0 {
		return Plan{}, errors.Wrapf(ErrInvalidArgument, "split %d elements", total)
	}

	counts := make([]int, bins)
	offsets := make([]int, bins)
	pos := 0
	for i := 0; i < bins-1; i++ {
		offsets[i] = pos
		counts[i] = total / bins
		pos += total / bins
	}
	offsets[bins-1] = pos
	counts[bins-1] = total - pos
	return Plan{Counts: counts, Offsets: offsets}, nil
}

// Total returns the number of elements covered by the plan.
func (p Plan) Total() int {
	total := 0
	for _, c := range p.Counts {
		total += c
	}
	return total
}
