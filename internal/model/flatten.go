package model

import (
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Flatten reshapes [batch, d1, d2, ...] to [batch, d1*d2*...] so a feature
// map can feed a fully connected layer. It has no parameters.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens every dimension after the batch dimension.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) <= 2 {
		return input
	}
	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	return input.Reshape(shape[0], features)
}

// Parameters returns nil; Flatten has no trainable state.
func (f *Flatten[B]) Parameters() []*nn.Parameter[B] {
	return nil
}
