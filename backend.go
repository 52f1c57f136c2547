package pas

import (
	"fmt"
	"image"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
)

// Draw is one primitive prepared for a geometry pass.
type Draw struct {
	Mesh MeshHandle

	// Matrix is the camera transform composed with the primitive transform.
	Matrix mgl32.Mat3

	Z      float32
	Mode   RenderMode
	Color1 Color
	Color2 Color
}

// Backend executes the per-frame steps of a Renderer on a graphics device.
//
// Every method is called from the render thread. Within a frame the calls
// arrive in this order: BeginFrame, DrawOpaque, DrawTranslucent, Resolve,
// then the Process calls of Effects, then Present. UploadGeometry and Resize
// are only called between frames.
//
// Slices passed to a Backend are only valid for the duration of the call.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Init acquires the device and the presentation surface for win.
	Init(win Window, opts *Options) error

	// UploadGeometry replaces the device copy of the geometry buffers.
	UploadGeometry(vertices []mgl32.Vec2, indices []uint32) error

	// Resize recreates every size-dependent resource for size: the
	// multisample color and depth targets and both ping-pong textures.
	Resize(size image.Point) error

	// BeginFrame clears the multisample target to clear and depth to 1.
	BeginFrame(clear Color) error

	// DrawOpaque draws with depth test and depth writes, without blending.
	DrawOpaque(draws []Draw) error

	// DrawTranslucent draws with source-over alpha blending and depth test,
	// without depth writes.
	DrawTranslucent(draws []Draw) error

	// Resolve resolves the multisample target into TextureA.
	Resolve() error

	// Effects returns the post-processing effects in chain order. The
	// effects operate on this backend's ping-pong textures.
	Effects() []Effect

	// Present blits final into the window surface, scaled to fit, and
	// displays it.
	Present(final TextureID) error

	// Close releases all resources in reverse order of acquisition.
	Close() error
}

var backends = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority("gpu", "software"),
)

// RegisterBackend makes a backend available under name. Backend packages
// call it from init, so enabling a backend is a blank import:
//
//	import _ "github.com/RTMecha/ParallelAnimationSystem/gpu"
//
// Registering an existing name replaces the factory.
func RegisterBackend(name string, factory func() Backend) {
	backends.Register(name, factory)
}

// AvailableBackends returns the names of the registered backends, sorted.
func AvailableBackends() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

// newBackend creates the backend registered under name, or the
// highest-priority registered backend if name is empty.
func newBackend(name string) (Backend, string, error) {
	if name == "" {
		name = backends.BestName()
		if name == "" {
			return nil, "", ErrNoBackend
		}
	}
	if !backends.Has(name) {
		return nil, "", fmt.Errorf("%w: %q (available: %v)", ErrNoBackend, name, AvailableBackends())
	}
	b := backends.Get(name)
	if b == nil {
		return nil, "", fmt.Errorf("%w: factory for %q returned nil", ErrNoBackend, name)
	}
	return b, name, nil
}
