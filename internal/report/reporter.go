// Package report defines the presentation surface for training runs and a
// console implementation of it. The trainer and the CLI talk to the Reporter
// interface only; swapping in a richer frontend means implementing it.
package report

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"mnistlive/internal/dataset"
)

// Reporter receives progress events and renders them. Implementations must
// not block for long: the trainer invokes them synchronously between batches.
type Reporter interface {
	// LogStatus renders a line of status text.
	LogStatus(text string)

	// PlotLoss adds a point to the named loss series.
	PlotLoss(step int, value float32, series string)

	// PlotAccuracy adds a point to the named accuracy series.
	PlotAccuracy(step int, value float32, series string)

	// ShowTestResults renders examples with their predicted and true classes.
	ShowTestResults(examples *dataset.Dataset, predicted, actual []int)

	// TrainEpochs returns the number of epochs the user asked for.
	TrainEpochs() int
}

// Console renders progress to a writer as plain text. Plot points are
// sampled so per-batch series do not flood the terminal.
type Console struct {
	mu        sync.Mutex
	out       io.Writer
	epochs    int
	plotEvery int
}

// NewConsole creates a console reporter asking for the given epoch count.
func NewConsole(out io.Writer, epochs int) *Console {
	return &Console{out: out, epochs: epochs, plotEvery: 10}
}

// LogStatus prints one status line.
func (c *Console) LogStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "status: %s\n", text)
}

// PlotLoss prints every plotEvery-th loss point, plus the first.
func (c *Console) PlotLoss(step int, value float32, series string) {
	c.plot("loss", step, value, series)
}

// PlotAccuracy prints every plotEvery-th accuracy point, plus the first.
func (c *Console) PlotAccuracy(step int, value float32, series string) {
	c.plot("acc", step, value, series)
}

func (c *Console) plot(chart string, step int, value float32, series string) {
	if c.plotEvery > 1 && step%c.plotEvery != 0 && step != 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s[%s] step=%d value=%.4f\n", chart, series, step, value)
}

// ShowTestResults prints each example as a small ASCII image with its
// predicted and true class, flagging mismatches.
func (c *Console) ShowTestResults(examples *dataset.Dataset, predicted, actual []int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := examples.NumExamples()
	if n > len(predicted) {
		n = len(predicted)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if predicted[i] == actual[i] {
			correct++
		}
	}
	fmt.Fprintf(c.out, "test results: %d/%d correct\n", correct, n)

	for i := 0; i < n; i++ {
		mark := "ok"
		if predicted[i] != actual[i] {
			mark = "WRONG"
		}
		fmt.Fprintf(c.out, "example %d: predicted=%d actual=%d %s\n", i, predicted[i], actual[i], mark)
		c.renderImage(examples, i)
	}
}

// renderImage draws one grayscale example with a coarse intensity ramp.
func (c *Console) renderImage(d *dataset.Dataset, idx int) {
	if d.Channels != 1 {
		return
	}
	const ramp = " .:-=+*#%@"
	img := d.Images[idx]
	for row := 0; row < d.Height; row++ {
		line := make([]byte, d.Width)
		for col := 0; col < d.Width; col++ {
			v := img[row*d.Width+col]
			level := int(v * float32(len(ramp)-1))
			line[col] = ramp[level]
		}
		fmt.Fprintf(c.out, "  %s\n", line)
	}
}

// TrainEpochs returns the configured epoch count.
func (c *Console) TrainEpochs() int {
	return c.epochs
}

// WaitForStart blocks until the user presses Enter, the console stand-in for
// a train button. It returns immediately on EOF.
func (c *Console) WaitForStart(in io.Reader) {
	c.LogStatus("press Enter to start training")
	reader := bufio.NewReader(in)
	_, _ = reader.ReadString('\n')
}
