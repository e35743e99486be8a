package model

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Dropout zeroes a random fraction of its input during training and scales
// the survivors by 1/(1-rate), so the expected activation is unchanged
// (inverted dropout). In inference mode it is the identity.
//
// The mask is applied with a tensor multiply, so when the backend records a
// gradient tape the backward pass sees the same mask.
type Dropout[B tensor.Backend] struct {
	rate     float32
	training bool
}

// NewDropout creates a Dropout layer with the given drop rate in [0, 1).
func NewDropout[B tensor.Backend](rate float32) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("model: dropout rate %v out of range [0, 1)", rate))
	}
	return &Dropout[B]{rate: rate}
}

// SetTraining switches dropout on (training) or off (inference).
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Forward applies the dropout mask in training mode and passes the input
// through unchanged otherwise.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}

	scale := 1.0 / (1.0 - d.rate)
	maskData := make([]float32, input.NumElements())
	for i := range maskData {
		//nolint:gosec // math/rand is fine for dropout masks (not security-critical)
		if rand.Float32() >= d.rate {
			maskData[i] = scale
		}
	}

	mask, err := tensor.FromSlice(maskData, input.Shape(), input.Backend())
	if err != nil {
		panic(fmt.Sprintf("model: dropout mask: %v", err))
	}
	return input.Mul(mask)
}

// Parameters returns nil; Dropout has no trainable state.
func (d *Dropout[B]) Parameters() []*nn.Parameter[B] {
	return nil
}

// Rate returns the configured drop rate.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}
