// Package trainer drives the batched optimization loop: it compiles a model
// with an optimizer, loss and metric, iterates epochs of mini-batches over
// the training prefix, evaluates the held-out validation suffix after each
// epoch, and reports progress at batch and epoch checkpoints.
//
// The loop is single-threaded and cooperatively scheduled: reporter calls and
// iteration hooks run synchronously at checkpoints, nowhere mid-batch, and
// the context is checked at the same points. One model must only ever be
// driven by one Fit call at a time.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"github.com/google/uuid"

	"mnistlive/internal/dataset"
	"mnistlive/internal/model"
	"mnistlive/internal/optim"
	"mnistlive/internal/report"
)

// ErrNumericInstability marks a run aborted because the loss became
// non-finite. Parameter updates from completed batches are kept; there is no
// rollback.
var ErrNumericInstability = errors.New("trainer: loss is not finite")

// Config holds the hyperparameters of one training run. A Config is not
// mutated by Fit.
type Config struct {
	BatchSize       int
	Epochs          int
	ValidationSplit float64

	// CallbackStride gates the iteration hook: it fires on batch indices
	// 0, stride, 2*stride, ... within each epoch. Defaults to 10.
	CallbackStride int

	// LearningRate for the RMSProp optimizer. Defaults to 0.001.
	LearningRate float32

	// EvalBatchSize is the batch size for validation inference, which can be
	// larger than the training batch since no gradients are kept.
	// Defaults to 256.
	EvalBatchSize int
}

func (c Config) withDefaults() Config {
	if c.CallbackStride <= 0 {
		c.CallbackStride = 10
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.001
	}
	if c.EvalBatchSize <= 0 {
		c.EvalBatchSize = 256
	}
	return c
}

// Trainer runs training over an autodiff-wrapped backend. The zero value is
// not usable; construct with New.
type Trainer[B tensor.Backend] struct {
	backend  *autodiff.Backend[B]
	reporter report.Reporter // may be nil
	runID    string

	// Events, when set, observes every progress event before the reporter
	// does. Invoked synchronously from the training loop.
	Events func(Event)
}

// New creates a trainer. The reporter may be nil, in which case only the
// iteration hook observes progress.
func New[B tensor.Backend](backend *autodiff.Backend[B], reporter report.Reporter) *Trainer[B] {
	return &Trainer[B]{
		backend:  backend,
		reporter: reporter,
		runID:    uuid.NewString(),
	}
}

// RunID returns the identifier assigned to this trainer's runs.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// Fit trains the model on ds and returns the final epoch's validation
// accuracy (or the final training batch accuracy when the validation split
// is empty).
//
// The dataset is split without shuffling: the last round(N*ValidationSplit)
// examples are held out, the prefix feeds gradient updates in batches of
// BatchSize (the last batch of an epoch may be short). The model's
// parameters are updated in place; on error after the first completed batch
// they hold the values of the last completed update.
//
// ctx is observed at batch and epoch boundaries only: cancellation stops the
// run at the next checkpoint.
func (t *Trainer[B]) Fit(
	ctx context.Context,
	m *model.Model[*autodiff.Backend[B]],
	ds *dataset.Dataset,
	cfg Config,
	onIteration IterationFunc,
) (float32, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()

	if err := ds.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if ds.NumClasses != m.NumClasses() {
		return 0, fmt.Errorf("%w: dataset has %d classes, model has %d",
			ErrInvalidConfig, ds.NumClasses, m.NumClasses())
	}
	sched, err := NewSchedule(ds.NumExamples(), cfg.BatchSize, cfg.ValidationSplit, cfg.Epochs)
	if err != nil {
		return 0, err
	}

	trainSet := ds.Slice(0, sched.TrainSize)
	valSet := ds.Slice(sched.TrainSize, sched.NumExamples)

	// Compile: optimizer, loss, metric.
	optimizer := optim.NewRMSProp(m.Parameters(), optim.RMSPropConfig{LR: cfg.LearningRate}, t.backend)
	criterion := nn.NewCrossEntropyLoss(t.backend)

	t.status(fmt.Sprintf("run %s: %d train / %d validation examples, %d batches over %d epochs",
		t.runID, sched.TrainSize, sched.ValSize, sched.TotalBatches, sched.Epochs))

	tape := t.backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()

	m.SetTraining(true)
	defer m.SetTraining(false)

	var final Logs
	cumBatches := 0

	for epoch := 0; epoch < sched.Epochs; epoch++ {
		for batch := 0; batch < sched.BatchesPerEpoch; batch++ {
			if err := ctx.Err(); err != nil {
				return 0, err
			}

			logs, err := t.trainBatch(m, trainSet, sched, batch, optimizer, criterion)
			if err != nil {
				return 0, err
			}

			cumBatches++
			t.publish(Event{
				Phase:      PhaseBatchEnd,
				Index:      cumBatches,
				Completion: sched.Completion(cumBatches),
				Logs:       logs,
			})
			if onIteration != nil && batch%cfg.CallbackStride == 0 {
				onIteration(PhaseBatchEnd, batch, logs)
			}
			final = logs
		}

		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if valSet.NumExamples() > 0 {
			valLoss, valAcc, err := t.inference(m, valSet, cfg.EvalBatchSize, criterion)
			if err != nil {
				return 0, err
			}
			final.ValLoss = valLoss
			final.ValAccuracy = valAcc
			final.HasValidation = true
		}

		t.publish(Event{
			Phase:      PhaseEpochEnd,
			Index:      epoch,
			Completion: sched.Completion(cumBatches),
			Logs:       final,
		})
		if onIteration != nil {
			onIteration(PhaseEpochEnd, epoch, final)
		}
	}

	if final.HasValidation {
		return final.ValAccuracy, nil
	}
	return final.Accuracy, nil
}

// trainBatch runs one forward/backward/update cycle and returns the batch
// metrics.
func (t *Trainer[B]) trainBatch(
	m *model.Model[*autodiff.Backend[B]],
	trainSet *dataset.Dataset,
	sched Schedule,
	batch int,
	optimizer *optim.RMSProp[*autodiff.Backend[B]],
	criterion *nn.CrossEntropyLoss[*autodiff.Backend[B]],
) (Logs, error) {
	lo, hi := sched.BatchBounds(batch)
	images, labels, err := dataset.Tensors(trainSet, lo, hi, t.backend)
	if err != nil {
		return Logs{}, err
	}

	optimizer.ZeroGrad()

	logits := m.Forward(images)
	loss := criterion.Forward(logits, labels)
	lossValue := loss.Raw().AsFloat32()[0]
	if math.IsNaN(float64(lossValue)) || math.IsInf(float64(lossValue), 0) {
		return Logs{}, fmt.Errorf("%w: batch %d of the current epoch", ErrNumericInstability, batch)
	}

	// Seed the backward pass with d(loss)/d(loss) = 1.
	outputGrad, err := tensor.NewRaw(loss.Shape(), tensor.Float32, t.backend.Device())
	if err != nil {
		return Logs{}, fmt.Errorf("trainer: allocate output gradient: %w", err)
	}
	outputGrad.AsFloat32()[0] = 1.0

	tape := t.backend.Tape()
	grads := tape.Backward(outputGrad, t.backend)
	optimizer.Step(grads)
	tape.Clear()

	return Logs{
		Loss:     lossValue,
		Accuracy: nn.Accuracy(logits, labels),
	}, nil
}

// inference measures loss and accuracy over a split without recording
// gradients or applying dropout. Metrics are weighted by example count, so
// short final batches do not skew them.
func (t *Trainer[B]) inference(
	m *model.Model[*autodiff.Backend[B]],
	split *dataset.Dataset,
	batchSize int,
	criterion *nn.CrossEntropyLoss[*autodiff.Backend[B]],
) (avgLoss, accuracy float32, err error) {
	tape := t.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	wasTraining := m.Training()
	m.SetTraining(false)
	defer m.SetTraining(wasTraining)

	n := split.NumExamples()
	var lossSum, accSum float32
	for lo := 0; lo < n; lo += batchSize {
		hi := lo + batchSize
		if hi > n {
			hi = n
		}
		images, labels, err := dataset.Tensors(split, lo, hi, t.backend)
		if err != nil {
			return 0, 0, err
		}

		logits := m.Forward(images)
		loss := criterion.Forward(logits, labels)
		size := float32(hi - lo)
		lossSum += loss.Raw().AsFloat32()[0] * size
		accSum += nn.Accuracy(logits, labels) * size
	}

	return lossSum / float32(n), accSum / float32(n), nil
}

// publish forwards an event to the observer and the reporter.
func (t *Trainer[B]) publish(ev Event) {
	if t.Events != nil {
		t.Events(ev)
	}
	if t.reporter == nil {
		return
	}
	switch ev.Phase {
	case PhaseBatchEnd:
		t.reporter.PlotLoss(ev.Index, ev.Loss, "train")
		t.reporter.PlotAccuracy(ev.Index, ev.Accuracy, "train")
	case PhaseEpochEnd:
		if ev.HasValidation {
			t.reporter.PlotLoss(ev.Index+1, ev.ValLoss, "validation")
			t.reporter.PlotAccuracy(ev.Index+1, ev.ValAccuracy, "validation")
			t.status(fmt.Sprintf("epoch %d done (%.0f%% of run): loss=%.4f acc=%.2f%% val_loss=%.4f val_acc=%.2f%%",
				ev.Index+1, ev.Completion*100, ev.Loss, ev.Accuracy*100, ev.ValLoss, ev.ValAccuracy*100))
		} else {
			t.status(fmt.Sprintf("epoch %d done (%.0f%% of run): loss=%.4f acc=%.2f%%",
				ev.Index+1, ev.Completion*100, ev.Loss, ev.Accuracy*100))
		}
	}
}

func (t *Trainer[B]) status(text string) {
	if t.reporter == nil {
		return
	}
	t.reporter.LogStatus(text)
}
