// Package dataset provides in-memory image datasets with one-hot labels,
// the MNIST provider that loads them, and the batch-tensor assembly used by
// the trainer and evaluator.
package dataset

import (
	"fmt"
	"math"

	"github.com/born-ml/born/tensor"
)

// Dataset is one split of fixed-shape images with one-hot labels.
//
// Images holds one row per example of length Height*Width*Channels with
// values normalized to [0, 1]. Labels holds one one-hot row per example of
// length NumClasses. A Dataset is built once by a provider (or by Synthetic)
// and never mutated afterwards; slicing methods share the underlying storage.
type Dataset struct {
	Images [][]float32
	Labels [][]float32

	Height     int
	Width      int
	Channels   int
	NumClasses int
}

// NumExamples returns the number of examples in the split.
func (d *Dataset) NumExamples() int {
	return len(d.Images)
}

// Validate checks the structural invariants: image and label counts match,
// every image row has Height*Width*Channels values, and every label row is a
// one-hot vector of length NumClasses.
func (d *Dataset) Validate() error {
	if len(d.Images) != len(d.Labels) {
		return fmt.Errorf("dataset: %d images but %d labels", len(d.Images), len(d.Labels))
	}
	pixels := d.Height * d.Width * d.Channels
	for i, img := range d.Images {
		if len(img) != pixels {
			return fmt.Errorf("dataset: image %d has %d values, want %d", i, len(img), pixels)
		}
	}
	for i, row := range d.Labels {
		if len(row) != d.NumClasses {
			return fmt.Errorf("dataset: label %d has %d entries, want %d", i, len(row), d.NumClasses)
		}
		ones := 0
		for _, v := range row {
			switch v {
			case 0:
			case 1:
				ones++
			default:
				return fmt.Errorf("dataset: label %d is not one-hot", i)
			}
		}
		if ones != 1 {
			return fmt.Errorf("dataset: label %d has %d hot entries, want 1", i, ones)
		}
	}
	return nil
}

// Slice returns the examples in [lo, hi) as a view sharing storage with d.
func (d *Dataset) Slice(lo, hi int) *Dataset {
	if lo < 0 || hi > len(d.Images) || lo > hi {
		panic(fmt.Sprintf("dataset: slice bounds [%d, %d) out of range for %d examples", lo, hi, len(d.Images)))
	}
	view := *d
	view.Images = d.Images[lo:hi]
	view.Labels = d.Labels[lo:hi]
	return &view
}

// First returns the first n examples. n <= 0 or n beyond the split size
// returns the whole split.
func (d *Dataset) First(n int) *Dataset {
	if n <= 0 || n >= len(d.Images) {
		return d
	}
	return d.Slice(0, n)
}

// SplitValidation divides the split into a training prefix and a validation
// suffix. The suffix is the last round(N*fraction) examples in the existing
// order; no shuffling happens here.
func (d *Dataset) SplitValidation(fraction float64) (train, val *Dataset) {
	n := d.NumExamples()
	valSize := int(math.Round(float64(n) * fraction))
	if valSize > n {
		valSize = n
	}
	return d.Slice(0, n-valSize), d.Slice(n-valSize, n)
}

// ClassIndex returns the class of example i, the arg-max of its one-hot row.
func (d *Dataset) ClassIndex(i int) int {
	row := d.Labels[i]
	best := 0
	for j := 1; j < len(row); j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}

// ClassIndices returns the class of every example in order.
func (d *Dataset) ClassIndices() []int {
	out := make([]int, d.NumExamples())
	for i := range out {
		out[i] = d.ClassIndex(i)
	}
	return out
}

// OneHot encodes a class index as a one-hot row of length numClasses.
func OneHot(class, numClasses int) []float32 {
	if class < 0 || class >= numClasses {
		panic(fmt.Sprintf("dataset: class %d out of range [0, %d)", class, numClasses))
	}
	row := make([]float32, numClasses)
	row[class] = 1
	return row
}

// Tensors assembles the examples in [lo, hi) into engine tensors: images as
// [n, channels, height, width] float32 and labels as [n] int32 class indices
// (the arg-max of each one-hot row, which is what the engine's loss and
// accuracy expect).
func Tensors[B tensor.Backend](d *Dataset, lo, hi int, backend B) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B], error) {
	if lo < 0 || hi > d.NumExamples() || lo >= hi {
		return nil, nil, fmt.Errorf("dataset: tensor bounds [%d, %d) out of range for %d examples", lo, hi, d.NumExamples())
	}
	n := hi - lo
	pixels := d.Height * d.Width * d.Channels

	imagesRaw, err := tensor.NewRaw(
		tensor.Shape{n, d.Channels, d.Height, d.Width},
		tensor.Float32,
		backend.Device(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: create image tensor: %w", err)
	}
	labelsRaw, err := tensor.NewRaw(tensor.Shape{n}, tensor.Int32, backend.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: create label tensor: %w", err)
	}

	imageData := imagesRaw.AsFloat32()
	labelData := labelsRaw.AsInt32()
	for i := 0; i < n; i++ {
		copy(imageData[i*pixels:(i+1)*pixels], d.Images[lo+i])
		labelData[i] = int32(d.ClassIndex(lo + i))
	}

	return tensor.New[float32, B](imagesRaw, backend), tensor.New[int32, B](labelsRaw, backend), nil
}
