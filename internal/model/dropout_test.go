package model

import (
	"math"
	"testing"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
)

func TestDropout_InferenceIsIdentity(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout[*cpu.Backend](0.5)
	drop.SetTraining(false)

	in := tensor.Ones[float32](tensor.Shape{4, 4}, backend)
	if got := drop.Forward(in); got != in {
		t.Error("inference-mode dropout should return its input unchanged")
	}
}

func TestDropout_TrainingMasksAndScales(t *testing.T) {
	backend := cpu.New()
	const rate = 0.5
	drop := NewDropout[*cpu.Backend](rate)
	drop.SetTraining(true)

	n := 10000
	in := tensor.Ones[float32](tensor.Shape{n}, backend)
	out := drop.Forward(in).Raw().AsFloat32()

	scale := float32(1.0 / (1.0 - rate))
	zeros := 0
	for i, v := range out {
		switch v {
		case 0:
			zeros++
		case scale:
		default:
			t.Fatalf("value %d is %v, want 0 or %v", i, v, scale)
		}
	}

	// The dropped fraction concentrates around the rate.
	got := float64(zeros) / float64(n)
	if math.Abs(got-rate) > 0.05 {
		t.Errorf("dropped fraction %v, want about %v", got, rate)
	}
}

func TestDropout_ZeroRateIsIdentity(t *testing.T) {
	backend := cpu.New()
	drop := NewDropout[*cpu.Backend](0)
	drop.SetTraining(true)

	in := tensor.Ones[float32](tensor.Shape{8}, backend)
	if got := drop.Forward(in); got != in {
		t.Error("zero-rate dropout should return its input unchanged")
	}
}

func TestNewDropout_BadRate(t *testing.T) {
	for _, rate := range []float32{-0.1, 1.0, 1.5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("rate %v: expected panic", rate)
				}
			}()
			NewDropout[*cpu.Backend](rate)
		}()
	}
}
