package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

type line struct{}

func (line) Derive(x State, u Control, t float64) State { return State{1} }
func (line) StateDim() int                              { return 1 }
func (line) ControlDim() int                            { return 0 }

func TestCheck(t *testing.T) {
	if err := Check(line{}, State{1}, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Check(line{}, State{math.NaN()}, 3, 0.5)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	var simErr *SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 3 {
		t.Errorf("expected SimulationError at step 3, got %v", err)
	}

	if err := Check(line{}, State{1, 2}, 0, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, workers := range []int{0, 1, 4, 100} {
		var sum int64
		seen := make([]int32, 50)
		ParallelFor(50, workers, func(i int) {
			atomic.AddInt64(&sum, int64(i))
			atomic.AddInt32(&seen[i], 1)
		})
		if sum != 49*50/2 {
			t.Errorf("workers=%d: sum %d", workers, sum)
		}
		for i, n := range seen {
			if n != 1 {
				t.Errorf("workers=%d: index %d visited %d times", workers, i, n)
			}
		}
	}
}
