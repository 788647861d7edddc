package collective

import "github.com/pkg/errors"

// Scatterv distributes variable-sized contiguous slices of src to
// every worker. counts[i] elements starting at offsets[i] go to rank i.
//
// Only the root's src is consulted; every worker, the root included,
// must supply a dst of exactly counts[rank] elements. Workers with a
// zero count still take part and receive an empty slice.
func (c *Comms) Scatterv(root int, src []float64, counts, offsets []int, dst []float64) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	if len(counts) != c.Size() || len(offsets) != c.Size() {
		return errors.Errorf("scatterv: plan describes %d workers but cluster has %d",
			len(counts), c.Size())
	}
	rank := c.Rank()
	if len(dst) != counts[rank] {
		return errors.Errorf("scatterv: rank %d buffer holds %d elements but is assigned %d",
			rank, len(dst), counts[rank])
	}

	if rank != root {
		vec, _ := c.recv(opScatter)
		if len(vec) != len(dst) {
			return errors.Errorf("scatterv: rank %d received %d elements but is assigned %d",
				rank, len(vec), len(dst))
		}
		copy(dst, vec)
		return nil
	}

	for r := 0; r < c.Size(); r++ {
		if offsets[r]+counts[r] > len(src) {
			return errors.Errorf("scatterv: rank %d slice [%d:%d] is out of range for %d source elements",
				r, offsets[r], offsets[r]+counts[r], len(src))
		}
		part := src[offsets[r] : offsets[r]+counts[r]]
		if r == rank {
			copy(dst, part)
			continue
		}
		c.send(opScatter, r, part)
	}
	return nil
}

// Gather collects one value from every worker onto the root, ordered
// by ascending rank. The root returns the full sequence; every other
// worker returns nil.
func (c *Comms) Gather(root int, value float64) ([]float64, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	if c.Rank() != root {
		c.send(opGather, root, []float64{value})
		return nil, nil
	}

	out := make([]float64, c.Size())
	out[root] = value
	for n := 0; n < c.Size()-1; n++ {
		vec, src := c.recv(opGather)
		if len(vec) != 1 {
			return nil, errors.Errorf("gather: rank %d sent %d values", src, len(vec))
		}
		out[src] = vec[0]
	}
	return out, nil
}

// Bcast sends the root's vector to every worker and returns it
// everywhere.
func (c *Comms) Bcast(root int, vec []float64) ([]float64, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	if c.Rank() == root {
		for r := range c.Ports {
			if r != root {
				c.send(opBcast, r, vec)
			}
		}
		return vec, nil
	}
	out, _ := c.recv(opBcast)
	return out, nil
}

// Barrier blocks until every worker in the cluster has entered it.
func (c *Comms) Barrier(root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	if c.Rank() != root {
		c.send(opBarrier, root, nil)
		c.recv(opBarrier)
		return nil
	}
	for n := 0; n < c.Size()-1; n++ {
		c.recv(opBarrier)
	}
	for r := range c.Ports {
		if r != c.Rank() {
			c.send(opBarrier, r, nil)
		}
	}
	return nil
}

func (c *Comms) checkRoot(root int) error {
	if root < 0 || root >= c.Size() {
		return errors.Errorf("root rank %d out of range [0, %d)", root, c.Size())
	}
	return nil
}
