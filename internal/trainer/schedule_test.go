package trainer

import (
	"errors"
	"math"
	"testing"
)

func TestNewSchedule(t *testing.T) {
	s, err := NewSchedule(1000, 100, 0.2, 2)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	if s.TrainSize != 800 {
		t.Errorf("train size: got %d, want 800", s.TrainSize)
	}
	if s.ValSize != 200 {
		t.Errorf("val size: got %d, want 200", s.ValSize)
	}
	if s.BatchesPerEpoch != 8 {
		t.Errorf("batches per epoch: got %d, want 8", s.BatchesPerEpoch)
	}
	if s.TotalBatches != 16 {
		t.Errorf("total batches: got %d, want 16", s.TotalBatches)
	}
	if got := s.Completion(1); got != 0.0625 {
		t.Errorf("completion after first batch: got %v, want 0.0625", got)
	}
}

func TestNewSchedule_RoundsValidationSize(t *testing.T) {
	// 105 * 0.1 = 10.5, rounds to 11 held out.
	s, err := NewSchedule(105, 10, 0.1, 1)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if s.ValSize != 11 || s.TrainSize != 94 {
		t.Errorf("split: got %d/%d, want 94/11", s.TrainSize, s.ValSize)
	}
	if s.BatchesPerEpoch != 10 {
		t.Errorf("batches per epoch: got %d, want 10 (short final batch)", s.BatchesPerEpoch)
	}
}

func TestNewSchedule_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		n, batch int
		split    float64
		epochs   int
	}{
		{"empty dataset", 0, 10, 0.1, 1},
		{"zero batch size", 100, 0, 0.1, 1},
		{"negative batch size", 100, -5, 0.1, 1},
		{"zero epochs", 100, 10, 0.1, 0},
		{"negative split", 100, 10, -0.1, 1},
		{"full split", 100, 10, 1.0, 1},
		{"batch larger than train prefix", 100, 95, 0.1, 1},
	}
	for _, tc := range cases {
		_, err := NewSchedule(tc.n, tc.batch, tc.split, tc.epochs)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: got %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestSchedule_BatchBounds(t *testing.T) {
	s, err := NewSchedule(105, 10, 0.1, 1)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	lo, hi := s.BatchBounds(0)
	if lo != 0 || hi != 10 {
		t.Errorf("batch 0: got [%d, %d), want [0, 10)", lo, hi)
	}
	lo, hi = s.BatchBounds(9)
	if lo != 90 || hi != 94 {
		t.Errorf("final batch: got [%d, %d), want [90, 94)", lo, hi)
	}

	// Every example of the training prefix is covered exactly once.
	covered := 0
	for b := 0; b < s.BatchesPerEpoch; b++ {
		lo, hi := s.BatchBounds(b)
		if lo != covered {
			t.Fatalf("batch %d starts at %d, want %d", b, lo, covered)
		}
		covered = hi
	}
	if covered != s.TrainSize {
		t.Errorf("batches cover %d examples, want %d", covered, s.TrainSize)
	}
}

func TestSchedule_CompletionMonotonic(t *testing.T) {
	s, err := NewSchedule(1000, 100, 0.2, 3)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	prev := 0.0
	for b := 1; b <= s.TotalBatches; b++ {
		c := s.Completion(b)
		if c <= prev {
			t.Fatalf("completion not increasing at batch %d: %v after %v", b, c, prev)
		}
		prev = c
	}
	if math.Abs(prev-1.0) > 1e-12 {
		t.Errorf("final completion: got %v, want 1.0", prev)
	}
}
