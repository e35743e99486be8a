package trainer

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig marks configuration errors detected before a run touches
// any model parameter. They are fatal and never retried.
var ErrInvalidConfig = errors.New("trainer: invalid configuration")

// Schedule fixes the batch accounting of a run up front: how the dataset is
// split, how many batches each epoch holds, and how many batches the whole
// run is expected to execute.
type Schedule struct {
	NumExamples int
	TrainSize   int // prefix used for gradient updates
	ValSize     int // suffix held out for validation, last round(N*split) examples
	BatchSize   int
	Epochs      int

	BatchesPerEpoch int // ceil(TrainSize / BatchSize)
	TotalBatches    int // BatchesPerEpoch * Epochs
}

// NewSchedule validates the configuration against the dataset size and
// derives the accounting.
func NewSchedule(numExamples, batchSize int, validationSplit float64, epochs int) (Schedule, error) {
	switch {
	case numExamples <= 0:
		return Schedule{}, fmt.Errorf("%w: empty dataset", ErrInvalidConfig)
	case batchSize <= 0:
		return Schedule{}, fmt.Errorf("%w: batch size %d, must be > 0", ErrInvalidConfig, batchSize)
	case epochs <= 0:
		return Schedule{}, fmt.Errorf("%w: epochs %d, must be > 0", ErrInvalidConfig, epochs)
	case validationSplit < 0 || validationSplit >= 1:
		return Schedule{}, fmt.Errorf("%w: validation split %v, must be in [0, 1)", ErrInvalidConfig, validationSplit)
	}

	valSize := int(math.Round(float64(numExamples) * validationSplit))
	trainSize := numExamples - valSize
	if trainSize < batchSize {
		return Schedule{}, fmt.Errorf("%w: batch size %d exceeds the %d examples left after the validation split",
			ErrInvalidConfig, batchSize, trainSize)
	}

	batchesPerEpoch := (trainSize + batchSize - 1) / batchSize
	return Schedule{
		NumExamples:     numExamples,
		TrainSize:       trainSize,
		ValSize:         valSize,
		BatchSize:       batchSize,
		Epochs:          epochs,
		BatchesPerEpoch: batchesPerEpoch,
		TotalBatches:    batchesPerEpoch * epochs,
	}, nil
}

// BatchBounds returns the [lo, hi) range of training-prefix examples covered
// by the given batch of an epoch. The final batch of an epoch may be short.
func (s Schedule) BatchBounds(batch int) (lo, hi int) {
	lo = batch * s.BatchSize
	hi = lo + s.BatchSize
	if hi > s.TrainSize {
		hi = s.TrainSize
	}
	return lo, hi
}

// Completion returns the fraction of the run's expected batches finished
// after cumBatches batches: monotonically non-decreasing, 1.0 exactly at the
// final batch.
func (s Schedule) Completion(cumBatches int) float64 {
	return float64(cumBatches) / float64(s.TotalBatches)
}
