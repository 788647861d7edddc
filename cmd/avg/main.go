// Command avg computes the mean of a randomly generated dataset on a
// simulated cluster of workers and cross-checks it against the mean of
// the unpartitioned data.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unixpickle/essentials"

	"github.com/stephenpcook/mpitutorial/average"
	"github.com/stephenpcook/mpitutorial/simnet"
)

func main() {
	var workers int
	var verbose bool
	flag.IntVar(&workers, "workers", 4, "number of simulated workers")
	flag.BoolVar(&verbose, "v", false, "log every worker's progress")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: avg [flags] total_num_elements")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	total, err := strconv.Atoi(flag.Arg(0))
	if err != nil || total < 0 {
		essentials.Die("invalid element count:", flag.Arg(0))
	}
	if workers <= 0 {
		essentials.Die("invalid worker count:", workers)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
	if !verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	data := randomDataset(total, rng)

	loop := simnet.NewLoop()
	network := simnet.NewLinkNetwork(1e9, 1e-4)
	result, err := average.Compute(loop, network, workers, data, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("computation failed")
	}

	fmt.Printf("Avg of all elements is %f\n", result.Global)
	fmt.Printf("Avg computed across original data is %f\n", result.Reference)
}

// randomDataset draws n samples uniformly from [0, 1).
func randomDataset(n int, rng *rand.Rand) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64()
	}
	return data
}
