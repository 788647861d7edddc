package average

import "github.com/pkg/errors"

// Mean computes the unweighted mean of xs, accumulating in order.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, ErrEmptyPartition
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// WeightedMean combines per-partition means into a global mean,
// weighting each value by its partition's element count. A plain mean
// of the values would only be correct if every partition had the same
// size.
func WeightedMean(values []float64, weights []int) (float64, error) {
	if len(values) != len(weights) {
		return 0, errors.Wrapf(ErrInvalidArgument,
			"%d values with %d weights", len(values), len(weights))
	}

	sum := 0.0
	sumWeights := 0.0
	for i, v := range values {
		if weights[i] < 0 {
			return 0, errors.Wrapf(ErrInvalidArgument, "negative weight %d at index %d", weights[i], i)
		}
		sum += float64(weights[i]) * v
		sumWeights += float64(weights[i])
	}
	if sumWeights == 0 {
		return 0, ErrEmptyDataset
	}
	return sum / sumWeights, nil
}
