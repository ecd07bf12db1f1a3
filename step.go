package raymarch

import "github.com/go-gl/mathgl/mgl32"

// DominantAxis returns the index (0, 1 or 2) of the component of v with the
// greatest absolute value. Ties resolve to the lowest index.
func DominantAxis(v mgl32.Vec3) int {
	axis := 0
	best := abs32(v[0])
	for i := 1; i < 3; i++ {
		if a := abs32(v[i]); a > best {
			axis, best = i, a
		}
	}
	return axis
}

// ResolveStep scales view so that its dominant component has magnitude
// exactly stepSize, keeping the ray direction. The result is expressed in
// grid cells.
//
//	ResolveStep({2, 1, 1}, 1) == {1, 0.5, 0.5}
//
// A view vector whose dominant component is zero (or NaN) has no direction
// and returns ErrDegenerateRay.
func ResolveStep(view mgl32.Vec3, stepSize float32) (mgl32.Vec3, error) {
	dom := abs32(view[DominantAxis(view)])
	if !(dom > 0) {
		return mgl32.Vec3{}, ErrDegenerateRay
	}
	return view.Mul(stepSize / dom), nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
