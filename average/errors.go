package average

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned for inputs a run can never
	// proceed from: a non-positive worker count, a negative element
	// count, or mismatched sequence lengths.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyPartition is returned by Mean on a zero-length slice.
	ErrEmptyPartition = errors.New("empty partition")

	// ErrEmptyDataset is returned when every partition is empty, which
	// leaves the global mean undefined.
	ErrEmptyDataset = errors.New("empty dataset")
)
