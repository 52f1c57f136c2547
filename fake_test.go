package pas

import (
	"image"
	"log/slog"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
)

// fakeWindow is a scriptable Window. ShouldClose reports true after Close.
type fakeWindow struct {
	gpucontext.NullWindowProvider

	mu        sync.Mutex
	fbW, fbH  int
	closed    bool
	destroyed bool
	polls     int
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fbW, w.fbH
}

func (w *fakeWindow) SetFramebufferSize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fbW, w.fbH = width, height
}

func (w *fakeWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *fakeWindow) PollEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.polls++
}

func (w *fakeWindow) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
}

// fakeEffect applies when gate returns true.
type fakeEffect struct {
	name string
	gate func(*PostProcessing) bool
	log  *[]string
}

func (e *fakeEffect) Name() string { return e.name }

func (e *fakeEffect) Process(_ image.Point, p *PostProcessing, in, out TextureID) (bool, error) {
	if !e.gate(p) {
		return false, nil
	}
	*e.log = append(*e.log, e.name+":"+in.String()+"->"+out.String())
	return true, nil
}

// fakeBackend records the calls made by the renderer.
type fakeBackend struct {
	calls    []string
	logger   *slog.Logger
	initErr  error
	frameErr error

	uploads  int
	vertices int
	sizes    []image.Point
	opaque   [][]Draw
	clear    []Color
	present  []TextureID
	closed   int
	effects  []Effect
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{}
	b.effects = []Effect{
		&fakeEffect{name: "hue", gate: func(p *PostProcessing) bool { return p.HueShift != 0 }, log: &b.calls},
		&fakeEffect{name: "bloom", gate: func(p *PostProcessing) bool { return p.Bloom.Intensity > 0 }, log: &b.calls},
	}
	return b
}

func (b *fakeBackend) Name() string             { return "fake" }
func (b *fakeBackend) SetLogger(l *slog.Logger) { b.logger = l }

func (b *fakeBackend) Init(Window, *Options) error {
	b.calls = append(b.calls, "init")
	return b.initErr
}

func (b *fakeBackend) UploadGeometry(vertices []mgl32.Vec2, _ []uint32) error {
	b.calls = append(b.calls, "upload")
	b.uploads++
	b.vertices = len(vertices)
	return nil
}

func (b *fakeBackend) Resize(size image.Point) error {
	b.calls = append(b.calls, "resize")
	b.sizes = append(b.sizes, size)
	return nil
}

func (b *fakeBackend) BeginFrame(clear Color) error {
	b.calls = append(b.calls, "begin")
	b.clear = append(b.clear, clear)
	return b.frameErr
}

func (b *fakeBackend) DrawOpaque(draws []Draw) error {
	b.calls = append(b.calls, "opaque")
	b.opaque = append(b.opaque, append([]Draw(nil), draws...))
	return nil
}

func (b *fakeBackend) DrawTranslucent([]Draw) error {
	b.calls = append(b.calls, "translucent")
	return nil
}

func (b *fakeBackend) Resolve() error {
	b.calls = append(b.calls, "resolve")
	return nil
}

func (b *fakeBackend) Effects() []Effect { return b.effects }

func (b *fakeBackend) Present(final TextureID) error {
	b.calls = append(b.calls, "present:"+final.String())
	b.present = append(b.present, final)
	return nil
}

func (b *fakeBackend) Close() error {
	b.calls = append(b.calls, "close")
	b.closed++
	return nil
}

// newTestRenderer registers b under a unique name and returns a renderer
// using it with a 64x32 fake window.
func newTestRenderer(t *testing.T, b *fakeBackend, opts ...Option) *Renderer {
	t.Helper()
	name := "fake-" + t.Name()
	RegisterBackend(name, func() Backend { return b })
	t.Cleanup(func() { backends.Unregister(name) })

	win := &fakeWindow{fbW: 64, fbH: 32}
	base := []Option{
		WithBackend(name),
		WithWindow(func(string, int, int) (Window, error) { return win, nil }),
		WithZeroAreaPause(0),
	}
	return New(append(base, opts...)...)
}

// testWindow returns the fake window of an initialized renderer.
func testWindow(r *Renderer) *fakeWindow {
	return r.window.(*fakeWindow)
}
