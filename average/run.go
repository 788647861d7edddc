package average

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stephenpcook/mpitutorial/collective"
	"github.com/stephenpcook/mpitutorial/simnet"
)

// Coordinator is the rank that owns the full dataset and reports the
// final result.
const Coordinator = 0

// flopTime is the virtual time cost of one floating point operation.
const flopTime = 1e-9

// A Result holds the coordinator's view of a finished run. Workers
// other than the coordinator produce a zero Result.
type Result struct {
	// Global is the weighted mean across every partition.
	Global float64

	// Reference is the mean over the unpartitioned dataset, computed
	// directly on the coordinator for cross-validation.
	Reference float64

	// Partials are the per-worker partial means, indexed by rank.
	Partials []float64

	Plan Plan
}

// Run executes one mean computation from a single worker's point of
// view. Only the coordinator supplies data; every worker supplies the
// same total, from which it derives the partition plan locally.
//
// The phases are barrier-synchronized by the collective operations: no
// worker reduces before its slice arrives, and the coordinator does
// not combine before every partial mean has been gathered.
func Run(c *collective.Comms, data []float64, total int, logger zerolog.Logger) (Result, error) {
	rank := c.Rank()
	logger = logger.With().Int("rank", rank).Logger()

	if total < 0 {
		return Result{}, errors.Wrapf(ErrInvalidArgument, "%d total elements", total)
	}
	if rank == Coordinator && len(data) != total {
		return Result{}, errors.Wrapf(ErrInvalidArgument,
			"coordinator holds %d elements but the run expects %d", len(data), total)
	}

	plan, err := Split(total, c.Size())
	if err != nil {
		return Result{}, err
	}
	logger.Debug().
		Ints("counts", plan.Counts).
		Ints("offsets", plan.Offsets).
		Msg("dataset partitioned")

	slice := make([]float64, plan.Counts[rank])
	if err := c.Scatterv(Coordinator, data, plan.Counts, plan.Offsets, slice); err != nil {
		return Result{}, errors.Wrap(err, "scatter")
	}

	// An empty partition contributes a zero partial carrying zero
	// weight, so it never reaches Mean's division.
	partial := 0.0
	if len(slice) > 0 {
		if partial, err = Mean(slice); err != nil {
			return Result{}, err
		}
		c.Handle.Sleep(flopTime * float64(len(slice)))
	}
	logger.Debug().
		Float64("partial", partial).
		Int("elements", len(slice)).
		Msg("local reduction done")

	partials, err := c.Gather(Coordinator, partial)
	if err != nil {
		return Result{}, errors.Wrap(err, "gather")
	}

	if rank != Coordinator {
		if err := c.Barrier(Coordinator); err != nil {
			return Result{}, err
		}
		return Result{}, nil
	}

	global, combineErr := WeightedMean(partials, plan.Counts)
	var reference float64
	if combineErr == nil {
		c.Handle.Sleep(flopTime * float64(len(data)))
		reference, combineErr = Mean(data)
	}

	// Workers wait in the final barrier whether or not the combine
	// succeeded, so every rank leaves the run together.
	if err := c.Barrier(Coordinator); err != nil {
		return Result{}, err
	}
	if combineErr != nil {
		return Result{}, errors.Wrap(combineErr, "combine")
	}

	logger.Info().
		Float64("mean", global).
		Float64("reference", reference).
		Msg("run complete")
	return Result{Global: global, Reference: reference, Partials: partials, Plan: plan}, nil
}

// Compute runs a full mean computation over data on a simulated
// cluster, spawning one goroutine per worker, and returns the
// coordinator's result. Failures from every rank are combined into a
// single error.
func Compute(loop *simnet.Loop, network simnet.Network, workers int,
	data []float64, logger zerolog.Logger) (Result, error) {
	if workers <= 0 {
		return Result{}, errors.Wrapf(ErrInvalidArgument, "cluster of %d workers", workers)
	}

	results := make([]Result, workers)
	errs := make([]error, workers)
	collective.Spawn(loop, network, workers, func(c *collective.Comms) {
		var src []float64
		if c.Rank() == Coordinator {
			src = data
		}
		results[c.Rank()], errs[c.Rank()] = Run(c, src, len(data), logger)
	})
	if err := loop.Run(); err != nil {
		return Result{}, errors.Wrap(err, "simulation")
	}

	var merr *multierror.Error
	for rank, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "rank %d", rank))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Result{}, err
	}
	return results[Coordinator], nil
}
