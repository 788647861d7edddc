package average

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stephenpcook/mpitutorial/simnet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestComputeMatchesDirectMean runs the full pipeline over a range of
// cluster and dataset sizes and compares against the mean computed
// directly over the unpartitioned data.
func TestComputeMatchesDirectMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	for _, workers := range []int{1, 2, 3, 5, 8} {
		for _, total := range []int{1, 5, 10, 1000} {
			t.Run(fmt.Sprintf("Workers=%d,Total=%d", workers, total), func(t *testing.T) {
				data := make([]float64, total)
				for i := range data {
					data[i] = rng.Float64()
				}
				direct, err := Mean(data)
				require.NoError(t, err)

				loop := simnet.NewLoop()
				network := simnet.NewLinkNetwork(1e6, 0.1)
				result, err := Compute(loop, network, workers, data, zerolog.Nop())
				require.NoError(t, err)

				require.InEpsilon(t, direct, result.Global, 1e-9)
				require.Equal(t, direct, result.Reference)
				require.Len(t, result.Partials, workers)
				require.Equal(t, total, result.Plan.Total())
			})
		}
	}
}

// TestComputeScenario pins down an exact small case: [1,2,3,4] over
// two workers splits evenly into partials 1.5 and 3.5 with global
// mean 2.5.
func TestComputeScenario(t *testing.T) {
	loop := simnet.NewLoop()
	result, err := Compute(loop, simnet.RandomNetwork{}, 2,
		[]float64{1.0, 2.0, 3.0, 4.0}, zerolog.Nop())
	require.NoError(t, err)

	require.Equal(t, []int{2, 2}, result.Plan.Counts)
	require.Equal(t, []int{0, 2}, result.Plan.Offsets)
	require.Equal(t, []float64{1.5, 3.5}, result.Partials)
	require.Equal(t, 2.5, result.Global)
	require.Equal(t, 2.5, result.Reference)
}

// TestComputeConstantDataset checks that a constant dataset yields
// exactly the constant for any worker count, including clusters larger
// than the dataset.
func TestComputeConstantDataset(t *testing.T) {
	data := []float64{7, 7, 7, 7, 7}
	for workers := 1; workers <= 7; workers++ {
		t.Run(fmt.Sprintf("Workers=%d", workers), func(t *testing.T) {
			loop := simnet.NewLoop()
			result, err := Compute(loop, simnet.RandomNetwork{}, workers, data, zerolog.Nop())
			require.NoError(t, err)
			require.Equal(t, 7.0, result.Global)
		})
	}
}

func TestComputeEmptyDataset(t *testing.T) {
	loop := simnet.NewLoop()
	_, err := Compute(loop, simnet.RandomNetwork{}, 3, nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrEmptyDataset)
}

func TestComputeInvalidWorkers(t *testing.T) {
	for _, workers := range []int{0, -2} {
		loop := simnet.NewLoop()
		_, err := Compute(loop, simnet.RandomNetwork{}, workers, []float64{1}, zerolog.Nop())
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}
