package average

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"four elements", []float64{1, 2, 3, 4}, 2.5},
		{"single element", []float64{-8.5}, -8.5},
		{"constant", []float64{7, 7, 7}, 7.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mean(tt.xs)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMeanEmpty(t *testing.T) {
	_, err := Mean(nil)
	require.ErrorIs(t, err, ErrEmptyPartition)
}

func TestWeightedMean(t *testing.T) {
	// Partial means of [1,2] and [3,4], each weighing two elements.
	got, err := WeightedMean([]float64{1.5, 3.5}, []int{2, 2})
	require.NoError(t, err)
	require.Equal(t, 2.5, got)

	// Unequal weights: mean of [1,2,3] || [4,5,6,7,8,9,10].
	got, err = WeightedMean([]float64{2.0, 7.0}, []int{3, 7})
	require.NoError(t, err)
	require.Equal(t, 5.5, got)

	// Zero-weight entries must not perturb the result.
	got, err = WeightedMean([]float64{0, 2.0, 7.0}, []int{0, 3, 7})
	require.NoError(t, err)
	require.Equal(t, 5.5, got)
}

func TestWeightedMeanErrors(t *testing.T) {
	_, err := WeightedMean([]float64{1, 2}, []int{1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = WeightedMean([]float64{1, 2}, []int{1, -1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = WeightedMean([]float64{0, 0}, []int{0, 0})
	require.ErrorIs(t, err, ErrEmptyDataset)
}

// TestWeightedMeanMatchesDirectMean reduces a dataset through every
// partitioning from 1 to 8 bins and checks that combining the partial
// means recovers the direct mean.
func TestWeightedMeanMatchesDirectMean(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]float64, 100)
	for i := range data {
		data[i] = rng.Float64()
	}
	direct, err := Mean(data)
	require.NoError(t, err)

	for bins := 1; bins <= 8; bins++ {
		plan, err := Split(len(data), bins)
		require.NoError(t, err)

		partials := make([]float64, bins)
		for i := range partials {
			part := data[plan.Offsets[i] : plan.Offsets[i]+plan.Counts[i]]
			partials[i], err = Mean(part)
			require.NoError(t, err)
		}

		combined, err := WeightedMean(partials, plan.Counts)
		require.NoError(t, err)
		require.InEpsilon(t, direct, combined, 1e-9)
	}
}
