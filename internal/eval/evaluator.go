// Package eval runs forward-only evaluation of a trained model over a
// held-out split.
package eval

import (
	"fmt"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/tensor"

	"mnistlive/internal/dataset"
	"mnistlive/internal/model"
)

// Result reports one evaluation pass. Predicted and Actual are the arg-max
// class per example, in dataset order; Accuracy is the fraction where they
// match.
type Result struct {
	Accuracy  float32
	Predicted []int
	Actual    []int
}

// taped is satisfied by autodiff-wrapping backends; evaluation suspends
// recording so the pass leaves nothing on the tape.
type taped interface {
	Tape() *autodiff.GradientTape
}

// Evaluate runs a single forward pass over ds in inference mode (dropout
// disabled, no gradients) and returns per-example predictions alongside the
// true classes. Batch tensors are scoped to this call; nothing is retained.
func Evaluate[B tensor.Backend](m *model.Model[B], ds *dataset.Dataset, backend B) (Result, error) {
	if ds.NumExamples() == 0 {
		return Result{}, fmt.Errorf("eval: empty dataset")
	}
	if ds.NumClasses != m.NumClasses() {
		return Result{}, fmt.Errorf("eval: dataset has %d classes, model has %d", ds.NumClasses, m.NumClasses())
	}

	if t, ok := any(backend).(taped); ok {
		tape := t.Tape()
		if tape.IsRecording() {
			tape.StopRecording()
			defer tape.StartRecording()
		}
	}

	wasTraining := m.Training()
	m.SetTraining(false)
	defer m.SetTraining(wasTraining)

	const batchSize = 256
	n := ds.NumExamples()
	predicted := make([]int, 0, n)

	for lo := 0; lo < n; lo += batchSize {
		hi := lo + batchSize
		if hi > n {
			hi = n
		}
		images, _, err := dataset.Tensors(ds, lo, hi, backend)
		if err != nil {
			return Result{}, err
		}

		probs := m.Predict(images)
		for _, class := range probs.Argmax(1).Data() {
			predicted = append(predicted, int(class))
		}
	}

	actual := ds.ClassIndices()
	correct := 0
	for i := range predicted {
		if predicted[i] == actual[i] {
			correct++
		}
	}

	return Result{
		Accuracy:  float32(correct) / float32(n),
		Predicted: predicted,
		Actual:    actual,
	}, nil
}
