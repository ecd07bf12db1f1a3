package raymarch

import (
	"runtime"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()

	if o.params != DefaultKernelParams() {
		t.Errorf("params = %+v, want %+v", o.params, DefaultKernelParams())
	}
	if o.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("workers = %d, want GOMAXPROCS (%d)", o.workers, runtime.GOMAXPROCS(0))
	}
	if o.tileSize != DefaultTileSize {
		t.Errorf("tileSize = %d, want %d", o.tileSize, DefaultTileSize)
	}
	if o.rayCacheEntries != DefaultRayCacheCapacity {
		t.Errorf("rayCacheEntries = %d, want %d", o.rayCacheEntries, DefaultRayCacheCapacity)
	}
	if o.accel != nil || o.requireAccel {
		t.Error("default options should not configure an accelerator")
	}
}

func TestOptionsApply(t *testing.T) {
	accel := &mockAccelerator{name: "mock"}
	o := defaultOptions()
	for _, opt := range []Option{
		WithStepSize(2.5),
		WithMaxSteps(77),
		WithWorkers(3),
		WithTileSize(8),
		WithAccelerator(accel),
		WithRequireAccelerator(),
		WithRayCacheCapacity(0),
	} {
		opt(&o)
	}

	if o.params.StepSize != 2.5 {
		t.Errorf("StepSize = %v, want 2.5", o.params.StepSize)
	}
	if o.params.MaxSteps != 77 {
		t.Errorf("MaxSteps = %d, want 77", o.params.MaxSteps)
	}
	if o.workers != 3 {
		t.Errorf("workers = %d, want 3", o.workers)
	}
	if o.tileSize != 8 {
		t.Errorf("tileSize = %d, want 8", o.tileSize)
	}
	if o.accel != accel {
		t.Error("accelerator not set")
	}
	if !o.requireAccel {
		t.Error("requireAccel not set")
	}
	if o.rayCacheEntries != 0 {
		t.Errorf("rayCacheEntries = %d, want 0", o.rayCacheEntries)
	}
}

func TestOptionsLastWins(t *testing.T) {
	o := defaultOptions()
	WithStepSize(4)(&o)
	WithStepSize(0.5)(&o)
	if o.params.StepSize != 0.5 {
		t.Errorf("StepSize = %v, want 0.5", o.params.StepSize)
	}
}
