package raymarch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the raymarch package. Compare with errors.Is.
var (
	// ErrContextUnavailable is returned when the rendering context cannot be
	// used: it was never initialised, it has been closed, or a required
	// accelerator failed to start. The frame is skipped; the next trigger may
	// succeed.
	ErrContextUnavailable = errors.New("raymarch: rendering context unavailable")

	// ErrDegenerateRay is returned by ResolveStep when the view vector has no
	// non-zero component (the camera sits exactly on the pixel target).
	// The pixel renders with opacity 0; the frame is not affected.
	ErrDegenerateRay = errors.New("raymarch: degenerate ray")

	// ErrOutOfDomain is returned by VoxelGrid.Index and VoxelGrid.Sample for
	// positions outside the [-1, 1) domain cube.
	ErrOutOfDomain = errors.New("raymarch: position outside domain")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("raymarch: invalid frame input")

	// ErrNotReady is returned when no voxel grid and camera pair has been
	// supplied yet. Expected during startup; no image is produced.
	ErrNotReady = errors.New("raymarch: no voxel grid and camera available")

	// ErrFrameAbandoned is returned when a newer generation arrived while
	// the frame was in flight. The stale frame is discarded.
	ErrFrameAbandoned = errors.New("raymarch: frame abandoned for newer generation")

	// ErrFallbackToCPU indicates an accelerator cannot handle the job.
	// The caller marches the frame on the CPU instead.
	ErrFallbackToCPU = errors.New("raymarch: falling back to CPU marching")
)

// ValidationError describes frame input that was rejected as a whole:
// a buffer whose length does not match the active resolution, missing or
// non-finite camera parameters, or invalid kernel parameters.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("raymarch: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
