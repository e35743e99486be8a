// Package model defines the classifier architecture: an ordered sequence of
// layers executed by a generic forward pass, built on the engine's nn modules
// plus the two layers the engine does not ship (Flatten, Dropout).
package model

import (
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Layer is one step of the forward pass. The engine's layer modules (Conv2D,
// MaxPool2D, Linear, ReLU) satisfy it as-is; Flatten and Dropout are defined
// in this package.
type Layer[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
}

// trainable is implemented by layers whose behavior differs between training
// and inference (Dropout).
type trainable interface {
	SetTraining(training bool)
}

// Model is an ordered stack of layers with a shared training/inference mode.
//
// The parameter set is mutated in place by the optimizer during training;
// a model must only ever be driven by one training run at a time.
type Model[B tensor.Backend] struct {
	layers     []Layer[B]
	numClasses int
	training   bool
}

// New assembles a model from layers. The final layer must produce numClasses
// outputs per example.
func New[B tensor.Backend](numClasses int, layers ...Layer[B]) *Model[B] {
	if numClasses < 2 {
		panic("model: need at least 2 classes")
	}
	if len(layers) == 0 {
		panic("model: need at least one layer")
	}
	return &Model[B]{layers: layers, numClasses: numClasses}
}

// Forward runs the full stack and returns raw class scores (logits) of shape
// [batch, numClasses]. The loss applies log-softmax itself, so no softmax
// here; use Predict for probabilities.
func (m *Model[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input
	for _, layer := range m.layers {
		out = layer.Forward(out)
	}
	return out
}

// Predict runs the forward pass and applies softmax over the class dimension,
// returning a probability distribution per example.
func (m *Model[B]) Predict(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return m.Forward(input).Softmax(1)
}

// Parameters returns every trainable parameter in layer order.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// SetTraining switches the model between training and inference behavior.
// Only layers that distinguish the two (Dropout) are affected.
func (m *Model[B]) SetTraining(training bool) {
	m.training = training
	for _, layer := range m.layers {
		if t, ok := layer.(trainable); ok {
			t.SetTraining(training)
		}
	}
}

// Training reports whether the model is in training mode.
func (m *Model[B]) Training() bool {
	return m.training
}

// NumParameters returns the total number of trainable values.
func (m *Model[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

// NumClasses returns the width of the final layer.
func (m *Model[B]) NumClasses() int {
	return m.numClasses
}

// NumLayers returns the number of layers in the stack.
func (m *Model[B]) NumLayers() int {
	return len(m.layers)
}
