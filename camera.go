package raymarch

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes the viewpoint of a frame.
//
// Position is the eye location; Focal is the point around which the virtual
// screen is placed. ScreenRatio scales the screen extent: 1.0 maps the frame
// onto a screen two domain units wide. A negative ratio mirrors the screen
// through its top-left corner.
type Camera struct {
	Position    mgl32.Vec3
	Focal       mgl32.Vec3
	ScreenRatio float32
}

// DefaultCamera returns the camera of the reference volumetric view:
// eye at (1.5, 1.5, 1.5), looking at the origin, screen ratio 1.
func DefaultCamera() Camera {
	return Camera{
		Position:    mgl32.Vec3{1.5, 1.5, 1.5},
		Focal:       mgl32.Vec3{0, 0, 0},
		ScreenRatio: 1,
	}
}

// NewCamera builds a camera from the six scalar coordinates used by the
// render trigger.
func NewCamera(screenRatio, cx, cy, cz, fx, fy, fz float32) Camera {
	return Camera{
		Position:    mgl32.Vec3{cx, cy, cz},
		Focal:       mgl32.Vec3{fx, fy, fz},
		ScreenRatio: screenRatio,
	}
}

// Validate reports a *ValidationError for non-finite coordinates or a
// screen ratio that is zero or not finite.
func (c Camera) Validate() error {
	for i := 0; i < 3; i++ {
		if !finite(c.Position[i]) {
			return validationErrorf("camera position", "component %d is %v", i, c.Position[i])
		}
		if !finite(c.Focal[i]) {
			return validationErrorf("camera focal", "component %d is %v", i, c.Focal[i])
		}
	}
	if !finite(c.ScreenRatio) || c.ScreenRatio == 0 {
		return validationErrorf("screen ratio", "must be finite and non-zero, got %v", c.ScreenRatio)
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
