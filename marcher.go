package raymarch

import "github.com/go-gl/mathgl/mgl32"

// MarchState is the state of a single ray traversal.
type MarchState uint8

const (
	// Marching is the initial state: the ray is still advancing.
	Marching MarchState = iota

	// Saturated means the accumulated opacity reached 1 and the ray
	// stopped early.
	Saturated

	// Exhausted means the step budget ran out before saturation.
	Exhausted

	// Degenerate means the ray had no direction and was never marched.
	Degenerate
)

// String returns the state name.
func (s MarchState) String() string {
	switch s {
	case Marching:
		return "Marching"
	case Saturated:
		return "Saturated"
	case Exhausted:
		return "Exhausted"
	case Degenerate:
		return "Degenerate"
	default:
		return "Unknown"
	}
}

// MarchResult is the outcome of marching one ray.
type MarchResult struct {
	// Opacity is the accumulated density, clamped to [0, 1].
	Opacity float32

	// State is the terminal state of the traversal.
	State MarchState

	// Steps is the number of iterations executed.
	Steps int
}

// Marcher walks a ray through a VoxelGrid accumulating density.
//
// A Marcher is a value type and safe for concurrent use as long as Observe
// is.
type Marcher struct {
	// MaxSteps bounds the number of iterations per ray.
	MaxSteps int

	// Observe, if set, is called after every iteration with the iteration
	// index and the opacity accumulated so far.
	Observe func(iter int, opacity float32)
}

// March advances a ray from origin by step (in grid cells) until the
// accumulated opacity reaches 1 or MaxSteps iterations have run.
//
// Iterations where the position lies outside the domain sample nothing; the
// ray keeps advancing and may re-enter the volume. Negative and NaN
// densities contribute nothing, so the accumulated opacity never decreases.
func (m Marcher) March(grid *VoxelGrid, origin, step mgl32.Vec3) MarchResult {
	delta := step.Mul(UnitsPerPixel(grid.n))
	pos := origin
	var acc float32

	for i := 0; i < m.MaxSteps; i++ {
		if InDomain(pos) {
			if d := grid.data[grid.index(pos)]; d > 0 {
				acc += d
			}
		}
		if acc >= 1 {
			if m.Observe != nil {
				m.Observe(i, 1)
			}
			return MarchResult{Opacity: 1, State: Saturated, Steps: i + 1}
		}
		if m.Observe != nil {
			m.Observe(i, acc)
		}
		pos = pos.Add(delta)
	}
	return MarchResult{Opacity: acc, State: Exhausted, Steps: m.MaxSteps}
}
