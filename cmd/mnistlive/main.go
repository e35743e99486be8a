// Command mnistlive trains the convolutional MNIST classifier, reporting
// progress interactively, then evaluates on the test split and optionally
// saves a checkpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"

	"mnistlive/internal/checkpoint"
	"mnistlive/internal/dataset"
	"mnistlive/internal/eval"
	"mnistlive/internal/model"
	"mnistlive/internal/report"
	"mnistlive/internal/trainer"
)

func main() {
	dataDir := flag.String("data", "./data", "directory with the MNIST IDX files")
	synthetic := flag.Bool("synthetic", false, "use embedded synthetic data instead of IDX files")
	samples := flag.Int("samples", 0, "cap on training examples to load (0 = all)")
	epochs := flag.Int("epochs", 10, "number of training epochs")
	batchSize := flag.Int("batch", 100, "training batch size")
	valSplit := flag.Float64("val-split", 0.15, "fraction of training data held out for validation")
	lr := flag.Float64("lr", 0.001, "RMSProp learning rate")
	stride := flag.Int("stride", 10, "invoke the preview hook every Nth batch of an epoch")
	testN := flag.Int("test", 0, "test examples to evaluate (0 = all)")
	previewN := flag.Int("preview", 8, "test examples rendered after training")
	savePath := flag.String("save", "", "checkpoint path (empty = don't save)")
	interactive := flag.Bool("interactive", false, "wait for Enter before training starts")
	flag.Parse()

	if err := run(*dataDir, *synthetic, *samples, *epochs, *batchSize, *valSplit,
		*lr, *stride, *testN, *previewN, *savePath, *interactive); err != nil {
		log.Fatal(err)
	}
}

func run(
	dataDir string,
	synthetic bool,
	samples, epochs, batchSize int,
	valSplit, lr float64,
	stride, testN, previewN int,
	savePath string,
	interactive bool,
) error {
	// Interruption stops the run at the next batch boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend := autodiff.New(cpu.New())
	reporter := report.NewConsole(os.Stdout, epochs)

	var train, test *dataset.Dataset
	if synthetic {
		n := samples
		if n <= 0 {
			n = 1000
		}
		train = dataset.Synthetic(n)
		test = dataset.Synthetic(n / 5)
		reporter.LogStatus(fmt.Sprintf("using %d synthetic examples", n))
	} else {
		provider := dataset.NewProvider(dataDir)
		provider.MaxTrain = samples
		reporter.LogStatus(fmt.Sprintf("loading MNIST from %s", dataDir))
		if err := provider.Load(); err != nil {
			return fmt.Errorf("load dataset: %w (download the IDX files from the MNIST distribution and gunzip them into %s, or pass -synthetic)", err, dataDir)
		}
		train = provider.TrainData()
		test = provider.TestData(testN)
	}

	m := model.Build(train.Height, train.Width, train.NumClasses, backend)
	reporter.LogStatus(fmt.Sprintf("model built: %d layers, %d parameters", m.NumLayers(), m.NumParameters()))

	if interactive {
		reporter.WaitForStart(os.Stdin)
	}

	tr := trainer.New(backend, reporter)
	cfg := trainer.Config{
		BatchSize:       batchSize,
		Epochs:          reporter.TrainEpochs(),
		ValidationSplit: valSplit,
		CallbackStride:  stride,
		LearningRate:    float32(lr),
	}

	// Cheap live preview over a fixed test sample every stride batches.
	preview := test.First(previewN)
	onIteration := func(phase trainer.Phase, index int, logs trainer.Logs) {
		if phase != trainer.PhaseBatchEnd {
			return
		}
		res, err := eval.Evaluate(m, preview, backend)
		if err != nil {
			return
		}
		reporter.LogStatus(fmt.Sprintf("batch %d: loss=%.4f preview_acc=%.0f%%", index, logs.Loss, res.Accuracy*100))
	}

	valAcc, err := tr.Fit(ctx, m, train, cfg, onIteration)
	if err != nil {
		return err
	}
	reporter.LogStatus(fmt.Sprintf("training finished: validation accuracy %.2f%%", valAcc*100))

	res, err := eval.Evaluate(m, test, backend)
	if err != nil {
		return err
	}
	reporter.LogStatus(fmt.Sprintf("test accuracy %.2f%% over %d examples", res.Accuracy*100, len(res.Predicted)))
	reporter.ShowTestResults(preview, res.Predicted[:preview.NumExamples()], res.Actual[:preview.NumExamples()])

	if savePath != "" {
		if err := checkpoint.Save(savePath, m.Parameters()); err != nil {
			return err
		}
		reporter.LogStatus(fmt.Sprintf("checkpoint saved to %s (run %s)", savePath, tr.RunID()))
	}
	return nil
}
