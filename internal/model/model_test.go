package model

import (
	"math"
	"testing"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

func TestBuild_ForwardShape(t *testing.T) {
	backend := cpu.New()
	m := Build(28, 28, 10, backend)

	input := tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, backend)
	logits := m.Forward(input)

	want := tensor.Shape{2, 10}
	if !logits.Shape().Equal(want) {
		t.Errorf("logit shape: got %v, want %v", logits.Shape(), want)
	}
}

// The final layer width follows the class count, independent of the input
// size.
func TestBuild_OutputWidthTracksClasses(t *testing.T) {
	backend := cpu.New()
	for _, tc := range []struct {
		h, w, k int
	}{
		{28, 28, 2},
		{28, 28, 7},
		{32, 32, 10},
	} {
		m := Build(tc.h, tc.w, tc.k, backend)
		input := tensor.Zeros[float32](tensor.Shape{1, 1, tc.h, tc.w}, backend)
		got := m.Forward(input).Shape()
		if !got.Equal(tensor.Shape{1, tc.k}) {
			t.Errorf("Build(%d, %d, %d): output shape %v", tc.h, tc.w, tc.k, got)
		}
	}
}

func TestBuild_TooSmallInputPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for input too small for the convolution stack")
		}
	}()
	Build(8, 8, 10, cpu.New())
}

func TestModel_PredictIsDistribution(t *testing.T) {
	backend := cpu.New()
	m := Build(28, 28, 10, backend)

	input := tensor.Randn[float32](tensor.Shape{3, 1, 28, 28}, backend)
	probs := m.Predict(input)

	data := probs.Raw().AsFloat32()
	for row := 0; row < 3; row++ {
		var sum float32
		for col := 0; col < 10; col++ {
			v := data[row*10+col]
			if v < 0 || v > 1 {
				t.Errorf("probability out of range at (%d, %d): %v", row, col, v)
			}
			sum += v
		}
		if math.Abs(float64(sum)-1.0) > 1e-4 {
			t.Errorf("row %d probabilities sum to %v", row, sum)
		}
	}
}

func TestModel_TrainingModePropagates(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout[*cpu.Backend](0.5)
	m := New(10, NewFlatten[*cpu.Backend](), nn.NewLinear(16, 10, backend), drop)

	m.SetTraining(true)
	if !m.Training() || !drop.training {
		t.Error("SetTraining(true) did not reach the dropout layer")
	}
	m.SetTraining(false)
	if m.Training() || drop.training {
		t.Error("SetTraining(false) did not reach the dropout layer")
	}
}

func TestModel_NumParameters(t *testing.T) {
	backend := cpu.New()
	m := New(4, nn.NewLinear(8, 4, backend))
	// weight 4x8 + bias 4
	if got := m.NumParameters(); got != 36 {
		t.Errorf("NumParameters: got %d, want 36", got)
	}
}

func TestNew_Validation(t *testing.T) {
	backend := cpu.New()
	for name, fn := range map[string]func(){
		"too few classes": func() { New(1, nn.NewLinear[*cpu.Backend](4, 1, backend)) },
		"no layers":       func() { New[*cpu.Backend](4) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestFlatten(t *testing.T) {
	backend := cpu.New()
	f := NewFlatten[*cpu.Backend]()

	in := tensor.Zeros[float32](tensor.Shape{3, 4, 5, 6}, backend)
	out := f.Forward(in)
	if !out.Shape().Equal(tensor.Shape{3, 120}) {
		t.Errorf("flattened shape: got %v, want [3 120]", out.Shape())
	}

	// Already-flat input passes through.
	flat := tensor.Zeros[float32](tensor.Shape{3, 7}, backend)
	if got := f.Forward(flat); got != flat {
		t.Error("2D input should pass through unchanged")
	}

	if f.Parameters() != nil {
		t.Error("Flatten should have no parameters")
	}
}
