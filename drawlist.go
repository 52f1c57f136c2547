package pas

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderMode selects how a primitive's two colors are applied.
type RenderMode uint32

const (
	// RenderModeNormal fills the mesh with Color1.
	RenderModeNormal RenderMode = iota

	// RenderModeLinearGradient blends Color1 into Color2 along the mesh's
	// local x axis, from x = -1 to x = 1.
	RenderModeLinearGradient

	// RenderModeRadialGradient blends Color1 at the mesh's local origin into
	// Color2 at distance 1.
	RenderModeRadialGradient
)

// String returns the name of the render mode.
func (m RenderMode) String() string {
	switch m {
	case RenderModeNormal:
		return "Normal"
	case RenderModeLinearGradient:
		return "LinearGradient"
	case RenderModeRadialGradient:
		return "RadialGradient"
	default:
		return "Unknown"
	}
}

// DrawPrimitive is one mesh instance in a draw list.
type DrawPrimitive struct {
	Mesh MeshHandle

	// Transform maps mesh-local coordinates to world space.
	Transform mgl32.Mat3

	// Z is the depth in [0, 1]; smaller is nearer. Primitives outside the
	// range are culled.
	Z float32

	Mode   RenderMode
	Color1 Color
	Color2 Color
}

// CameraData positions the view over world space.
type CameraData struct {
	Position mgl32.Vec2

	// Scale is the half-height of the visible area in world units. Must be > 0.
	Scale float32

	// Rotation is in radians, counter-clockwise.
	Rotation float32
}

// DefaultCamera returns a camera at the origin with unit scale.
func DefaultCamera() CameraData {
	return CameraData{Scale: 1}
}

// BloomParams configures the bloom effect.
type BloomParams struct {
	// Intensity scales the blurred highlights added back to the image.
	// Zero disables bloom.
	Intensity float32

	// Diffusion widens the blur. 1 is the default spread.
	Diffusion float32
}

// Bloom tuning shared by the backends.
const (
	// BloomThreshold is the luminance above which pixels feed the bloom blur.
	BloomThreshold = 0.6

	// MaxBloomRadius caps the blur radius in pixels.
	MaxBloomRadius = 16
)

// Active reports whether bloom changes the image.
func (b BloomParams) Active() bool { return b.Intensity > 0 }

// BlurRadius returns the Gaussian blur radius in pixels for a target of the
// given height. The default spread is one pixel per 90 rows, so bloom looks
// the same at any resolution.
func (b BloomParams) BlurRadius(height int) float32 {
	d := b.Diffusion
	if !(d > 0) {
		d = 1
	}
	return math32.Min(d*float32(height)/90, MaxBloomRadius)
}

// PostProcessing holds the per-frame parameters of the post-processing chain.
type PostProcessing struct {
	// HueShift rotates hues by this many degrees. Multiples of 360 are a no-op.
	HueShift float32

	Bloom BloomParams
}

// HueShiftActive reports whether the hue shift changes the image.
func (p *PostProcessing) HueShiftActive() bool {
	m := math32.Mod(p.HueShift, 360)
	return m != 0 && !math32.IsNaN(m)
}

// DrawList is a snapshot of one animation frame.
//
// Once passed to Submit a DrawList belongs to the renderer and must not be
// modified. Primitive order is not significant: primitives are re-sorted by
// depth every frame.
type DrawList struct {
	Primitives []DrawPrimitive
	Camera     CameraData
	Post       PostProcessing
	ClearColor Color
}
