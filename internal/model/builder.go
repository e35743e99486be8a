package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Architecture constants. The topology is fixed; only the input size and the
// class count vary.
const (
	conv1Filters = 32
	conv2Filters = 64
	kernelSize   = 5
	poolSize     = 2
	denseUnits   = 128
	dropoutRate  = 0.1
)

// Build constructs the classifier for height x width single-channel images
// over numClasses classes:
//
//	Conv 1->32, 5x5, ReLU
//	MaxPool 2x2, stride 2
//	Conv 32->64, 5x5, ReLU
//	MaxPool 2x2, stride 2
//	Flatten
//	Linear ->128, ReLU
//	Dropout 0.1
//	Linear 128->numClasses
//
// The second convolution's input channel count is the first one's output
// count. Weights are randomly initialized (Xavier, from the engine); the
// topology is deterministic. An input too small for the convolution stack is
// a programmer error and panics here, at construction.
func Build[B tensor.Backend](height, width, numClasses int, backend B) *Model[B] {
	conv1 := nn.NewConv2D(1, conv1Filters, kernelSize, kernelSize, 1, 0, true, backend)
	pool1 := nn.NewMaxPool2D(poolSize, poolSize, backend)
	conv2 := nn.NewConv2D(conv1Filters, conv2Filters, kernelSize, kernelSize, 1, 0, true, backend)
	pool2 := nn.NewMaxPool2D(poolSize, poolSize, backend)

	h, w := height, width
	h, w = spatial(conv1.ComputeOutputSize(h, w))
	h, w = spatial(pool1.ComputeOutputSize(h, w))
	h, w = spatial(conv2.ComputeOutputSize(h, w))
	h, w = spatial(pool2.ComputeOutputSize(h, w))
	if h <= 0 || w <= 0 {
		panic(fmt.Sprintf("model: input %dx%d too small for the convolution stack", height, width))
	}
	flatFeatures := conv2Filters * h * w

	return New(numClasses,
		conv1,
		nn.NewReLU[B](),
		pool1,
		conv2,
		nn.NewReLU[B](),
		pool2,
		NewFlatten[B](),
		nn.NewLinear(flatFeatures, denseUnits, backend),
		nn.NewReLU[B](),
		NewDropout[B](dropoutRate),
		nn.NewLinear(denseUnits, numClasses, backend),
	)
}

func spatial(size [2]int) (int, int) {
	return size[0], size[1]
}
