// Package optim provides the optimizer used to compile training runs. It
// implements the engine's optim.Optimizer interface so it plugs into the
// same Step/ZeroGrad cycle as the engine's own optimizers.
package optim

import (
	"math"

	"github.com/born-ml/born/nn"
	bornoptim "github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"
)

// RMSProp scales each gradient by the inverse root of a running average of
// its square, so parameters with consistently large gradients take smaller
// steps.
//
// Update rule:
//
//	s_t   = decay * s_{t-1} + (1-decay) * gradient²
//	param = param - lr * gradient / (sqrt(s_t) + eps)
//
// Reference: Tieleman & Hinton, "Lecture 6.5 - rmsprop" (2012).
type RMSProp[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	decay   float32
	eps     float32
	sq      map[*nn.Parameter[B]]*tensor.Tensor[float32, B] // running squared-gradient averages
	backend B
}

// RMSPropConfig holds the RMSProp hyperparameters. Zero values pick the
// defaults: LR 0.001, Decay 0.9, Eps 1e-8.
type RMSPropConfig struct {
	LR    float32
	Decay float32
	Eps   float32
}

// NewRMSProp creates an RMSProp optimizer over the given parameters.
func NewRMSProp[B tensor.Backend](params []*nn.Parameter[B], config RMSPropConfig, backend B) *RMSProp[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Decay == 0 {
		config.Decay = 0.9
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &RMSProp[B]{
		params:  params,
		lr:      config.LR,
		decay:   config.Decay,
		eps:     config.Eps,
		sq:      make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
}

// Compile-time check against the engine's optimizer interface.
var _ bornoptim.Optimizer = (*RMSProp[tensor.Backend])(nil)

// Step applies one RMSProp update to every parameter that received a
// gradient. Parameters absent from the gradient map are skipped.
func (r *RMSProp[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range r.params {
		grad := grads[param.Tensor().Raw()]
		if grad == nil {
			continue
		}

		sq, ok := r.sq[param]
		if !ok {
			sq = tensor.Zeros[float32](param.Tensor().Shape(), r.backend)
			r.sq[param] = sq
		}

		gradData := grad.AsFloat32()
		sqData := sq.Raw().AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()

		for i := range paramData {
			g := gradData[i]
			sqData[i] = r.decay*sqData[i] + (1.0-r.decay)*g*g
			paramData[i] -= r.lr * g / (float32(math.Sqrt(float64(sqData[i]))) + r.eps)
		}
	}
}

// ZeroGrad clears gradients on all parameters.
func (r *RMSProp[B]) ZeroGrad() {
	for _, param := range r.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (r *RMSProp[B]) GetLR() float32 {
	return r.lr
}

// SetLR updates the learning rate.
func (r *RMSProp[B]) SetLR(lr float32) {
	r.lr = lr
}
