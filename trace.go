package raymarch

import "github.com/go-gl/mathgl/mgl32"

// Default kernel parameters.
const (
	// DefaultStepSize advances a ray by one grid cell along its dominant axis.
	DefaultStepSize float32 = 1

	// DefaultMaxSteps covers the longest in-domain path of any practical
	// resolution with room to enter the volume from the virtual screen.
	DefaultMaxSteps = 1024
)

// KernelParams are the per-context constants of the ray-marching kernel.
type KernelParams struct {
	StepSize float32
	MaxSteps int
}

// DefaultKernelParams returns StepSize 1 and MaxSteps 1024.
func DefaultKernelParams() KernelParams {
	return KernelParams{StepSize: DefaultStepSize, MaxSteps: DefaultMaxSteps}
}

// Validate returns a *ValidationError for a non-positive or non-finite step
// size or a non-positive step budget.
func (p KernelParams) Validate() error {
	if !finite(p.StepSize) || p.StepSize <= 0 {
		return validationErrorf("step size", "must be finite and positive, got %v", p.StepSize)
	}
	if p.MaxSteps <= 0 {
		return validationErrorf("max steps", "must be positive, got %d", p.MaxSteps)
	}
	return nil
}

// Trace computes the opacity of pixel (x, y): project the pixel onto the
// virtual screen, resolve the step vector, and march the ray. It reads grid
// and cam only and has no side effects. A degenerate ray yields opacity 0
// and state Degenerate.
func Trace(x, y int, cam Camera, grid *VoxelGrid, params KernelParams) MarchResult {
	origin, step, ok := primaryRay(x, y, cam, grid.n, params.StepSize)
	if !ok {
		return MarchResult{State: Degenerate}
	}
	return Marcher{MaxSteps: params.MaxSteps}.March(grid, origin, step)
}

// primaryRay returns the origin and step vector for pixel (x, y).
// ok is false for a degenerate ray.
func primaryRay(x, y int, cam Camera, n int, stepSize float32) (origin, step mgl32.Vec3, ok bool) {
	origin, view := Project(x, y, cam, n)
	step, err := ResolveStep(view, stepSize)
	if err != nil {
		return origin, mgl32.Vec3{}, false
	}
	return origin, step, true
}
