package trainer

// Phase identifies a progress checkpoint in the training loop.
type Phase string

const (
	// PhaseBatchEnd fires after every gradient update.
	PhaseBatchEnd Phase = "batch_end"
	// PhaseEpochEnd fires after each epoch's validation pass.
	PhaseEpochEnd Phase = "epoch_end"
)

// Logs carries the metric values attached to a checkpoint. Validation fields
// are meaningful only when HasValidation is set (epoch-end checkpoints with a
// non-empty validation split).
type Logs struct {
	Loss     float32
	Accuracy float32

	ValLoss       float32
	ValAccuracy   float32
	HasValidation bool
}

// Event is one progress checkpoint. For batch events Index is the cumulative
// batch count across the whole run (starting at 1); for epoch events it is
// the zero-based epoch index. Completion is the fraction of the run's total
// expected batches finished so far.
type Event struct {
	Phase      Phase
	Index      int
	Completion float64
	Logs
}

// IterationFunc is the caller-supplied hook invoked at a subset of
// checkpoints: every CallbackStride-th batch within an epoch (index is the
// batch's position in its epoch) and unconditionally at every epoch end
// (index is the epoch). Intended for cheap side work such as a live
// prediction preview.
type IterationFunc func(phase Phase, index int, logs Logs)
