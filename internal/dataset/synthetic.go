package dataset

// Synthetic builds a deterministic dataset of n MNIST-shaped examples cycling
// through the ten classes. Each class gets a distinct horizontal bar pattern;
// the data is separable, so a few epochs of training reach high accuracy.
// Intended for demos without the IDX files and for tests.
func Synthetic(n int) *Dataset {
	images := make([][]float32, n)
	labels := make([][]float32, n)

	for i := 0; i < n; i++ {
		class := i % MNISTNumClasses
		img := make([]float32, MNISTImageSize*MNISTImageSize)

		// A bright band whose vertical position encodes the class, with a
		// small per-example offset so examples within a class differ.
		startRow := class*2 + (i/MNISTNumClasses)%3
		for row := startRow; row < startRow+6 && row < MNISTImageSize; row++ {
			for col := 4; col < MNISTImageSize-4; col++ {
				img[row*MNISTImageSize+col] = 0.9
			}
		}

		images[i] = img
		labels[i] = OneHot(class, MNISTNumClasses)
	}

	return &Dataset{
		Images:     images,
		Labels:     labels,
		Height:     MNISTImageSize,
		Width:      MNISTImageSize,
		Channels:   1,
		NumClasses: MNISTNumClasses,
	}
}
