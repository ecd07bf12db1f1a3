package raymarch

import "github.com/go-gl/mathgl/mgl32"

// Project maps output pixel (x, y) of an n×n frame to a target point on the
// virtual screen and the view vector from the camera to that point.
//
// The screen is a single plane whose Z offset follows the pixel row, so X
// varies with the column and both Y and Z vary with the row:
//
//	target.x = focal.x + (1 - x*ratio*upp)
//	target.y = focal.y + (1 - y*ratio*upp)
//	target.z = focal.z + (1 - y*ratio*upp)
//	view     = target - position
//
// Project is pure.
func Project(x, y int, cam Camera, n int) (target, view mgl32.Vec3) {
	upp := UnitsPerPixel(n)
	sx := 1 - float32(x)*cam.ScreenRatio*upp
	sy := 1 - float32(y)*cam.ScreenRatio*upp

	target = mgl32.Vec3{
		cam.Focal[0] + sx,
		cam.Focal[1] + sy,
		cam.Focal[2] + sy,
	}
	view = target.Sub(cam.Position)
	return target, view
}
