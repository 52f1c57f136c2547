package pas

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraTransform returns the world-to-clip matrix for cam on a surface with
// the given aspect ratio (width / height).
//
// The camera's own placement is scale, then rotation, then translation; the
// view matrix is the inverse of that composite, computed as one inversion
// rather than by composing individual inverses. Matrices act on column
// vectors, so that placement is written Translate·Rotate·Scale. A final scale of
// (1/aspect, 1) keeps world units square on non-square surfaces.
//
// A non-positive or non-finite aspect is treated as 1. A degenerate camera
// (zero scale) yields the aspect correction alone.
func CameraTransform(cam CameraData, aspect float32) mgl32.Mat3 {
	if !(aspect > 0) || math.IsInf(float64(aspect), 0) {
		aspect = 1
	}
	correction := mgl32.Scale2D(1/aspect, 1)

	placement := mgl32.Translate2D(cam.Position.X(), cam.Position.Y()).
		Mul3(mgl32.HomogRotate2D(cam.Rotation)).
		Mul3(mgl32.Scale2D(cam.Scale, cam.Scale))
	if det := placement.Det(); det == 0 || math.IsNaN(float64(det)) {
		return correction
	}
	return correction.Mul3(placement.Inv())
}

// Aspect returns width / height, or 1 for a degenerate size.
func Aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
