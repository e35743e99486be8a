package dataset

import (
	"fmt"
	"path/filepath"
)

// MNIST fixed dimensions.
const (
	MNISTImageSize  = 28
	MNISTNumClasses = 10
)

// File names from the official MNIST distribution, gunzipped.
const (
	trainImagesFile = "train-images-idx3-ubyte"
	trainLabelsFile = "train-labels-idx1-ubyte"
	testImagesFile  = "t10k-images-idx3-ubyte"
	testLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Provider loads the MNIST train and test splits from a directory of IDX
// files and hands out immutable in-memory datasets.
type Provider struct {
	dir string

	// MaxTrain and MaxTest cap the number of examples loaded per split when
	// positive. Useful for quick runs on a subset.
	MaxTrain int
	MaxTest  int

	train *Dataset
	test  *Dataset
}

// NewProvider creates a provider reading from dir. Nothing is loaded until
// Load is called.
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

// Load reads both splits into memory. Calling Load again after a successful
// load is a no-op.
func (p *Provider) Load() error {
	if p.train != nil && p.test != nil {
		return nil
	}

	train, err := p.loadSplit(trainImagesFile, trainLabelsFile, p.MaxTrain)
	if err != nil {
		return fmt.Errorf("load train split: %w", err)
	}
	test, err := p.loadSplit(testImagesFile, testLabelsFile, p.MaxTest)
	if err != nil {
		return fmt.Errorf("load test split: %w", err)
	}

	p.train, p.test = train, test
	return nil
}

// TrainData returns the full training split. Load must have succeeded.
func (p *Provider) TrainData() *Dataset {
	if p.train == nil {
		panic("dataset: TrainData called before Load")
	}
	return p.train
}

// TestData returns the test split. n <= 0 returns the full split, otherwise
// the first n examples.
func (p *Provider) TestData(n int) *Dataset {
	if p.test == nil {
		panic("dataset: TestData called before Load")
	}
	return p.test.First(n)
}

func (p *Provider) loadSplit(imagesFile, labelsFile string, maxExamples int) (*Dataset, error) {
	rawImages, rows, cols, err := readIDXImageFile(filepath.Join(p.dir, imagesFile))
	if err != nil {
		return nil, err
	}
	rawLabels, err := readIDXLabelFile(filepath.Join(p.dir, labelsFile))
	if err != nil {
		return nil, err
	}
	if len(rawImages) != len(rawLabels) {
		return nil, fmt.Errorf("image count %d != label count %d", len(rawImages), len(rawLabels))
	}

	n := len(rawImages)
	if maxExamples > 0 && n > maxExamples {
		n = maxExamples
	}

	images := make([][]float32, n)
	labels := make([][]float32, n)
	for i := 0; i < n; i++ {
		pixels := make([]float32, len(rawImages[i]))
		for j, v := range rawImages[i] {
			pixels[j] = float32(v) / 255.0
		}
		images[i] = pixels

		class := int(rawLabels[i])
		if class >= MNISTNumClasses {
			return nil, fmt.Errorf("label %d out of range at example %d", class, i)
		}
		labels[i] = OneHot(class, MNISTNumClasses)
	}

	return &Dataset{
		Images:     images,
		Labels:     labels,
		Height:     rows,
		Width:      cols,
		Channels:   1,
		NumClasses: MNISTNumClasses,
	}, nil
}
