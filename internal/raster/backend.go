// Package raster implements a CPU rendering backend.
//
// It follows the same frame contract as the GPU backend: a multisampled
// color and depth target, two ping-pong images for post-processing and a
// filtered blit to the presentation image. It is used for headless
// rendering and as the reference in tests.
package raster

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/filter"
	"github.com/RTMecha/ParallelAnimationSystem/internal/parallel"
)

// ImagePresenter is implemented by windows that can display a CPU image.
// The software backend hands every presented frame to it.
type ImagePresenter interface {
	PresentImage(img *image.RGBA)
}

// ErrNoPresenter is returned by Init when the window cannot display CPU
// images.
var ErrNoPresenter = errors.New("raster: window cannot present CPU images")

// Backend renders on the CPU.
type Backend struct {
	win     pas.Window
	out     ImagePresenter
	samples int

	vertices []mgl32.Vec2
	indices  []uint32

	// pool splits clearing, rasterization, resolve and conversion into
	// row bands.
	pool *parallel.WorkerPool
	tris []tri

	targets *targetGroup
	frame   *image.RGBA
	staging *image.RGBA
	effects []pas.Effect

	frameOpen bool
}

// New creates an uninitialized software backend.
func New() *Backend {
	return &Backend{}
}

var _ pas.Backend = (*Backend)(nil)

// Name implements pas.Backend.
func (b *Backend) Name() string { return "software" }

// SetLogger sets the package logger.
func (b *Backend) SetLogger(l *slog.Logger) { setLogger(l) }

// Init implements pas.Backend. Sample counts above 1 use 4 samples. The
// window must implement ImagePresenter.
func (b *Backend) Init(win pas.Window, opts *pas.Options) error {
	if win == nil {
		return fmt.Errorf("raster: nil window")
	}
	out, ok := win.(ImagePresenter)
	if !ok {
		return fmt.Errorf("%w (%T)", ErrNoPresenter, win)
	}
	b.win, b.out = win, out
	b.samples = 1
	if opts != nil && opts.SampleCount > 1 {
		b.samples = 4
	}
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(0)
	}
	b.effects = []pas.Effect{
		&hueShiftEffect{b: b},
		&bloomEffect{b: b},
	}
	slogger().Debug("raster: initialized", "samples", b.samples, "workers", b.pool.Workers())
	return nil
}

// UploadGeometry implements pas.Backend.
func (b *Backend) UploadGeometry(vertices []mgl32.Vec2, indices []uint32) error {
	grew := cap(b.vertices) < len(vertices) || cap(b.indices) < len(indices)
	b.vertices = append(b.vertices[:0], vertices...)
	b.indices = append(b.indices[:0], indices...)
	if grew {
		slogger().Info("buffer resized", "backend", "software",
			"vertices", cap(b.vertices), "indices", cap(b.indices))
	}
	return nil
}

// Resize implements pas.Backend. The whole target group is replaced.
func (b *Backend) Resize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("%w: %v", pas.ErrInvalidSize, size)
	}
	b.targets = newTargetGroup(size, b.samples)
	slogger().Debug("raster: targets recreated", "size", size, "bytes", b.targets.bytes())
	return nil
}

// BeginFrame implements pas.Backend.
func (b *Backend) BeginFrame(clear pas.Color) error {
	if b.targets == nil {
		return fmt.Errorf("raster: BeginFrame before Resize")
	}
	c := clear.Array()
	t := b.targets
	b.pool.Rows(t.size.Y, func(y0, y1 int) { t.clearRows(c, y0, y1) })
	b.frameOpen = true
	return nil
}

// DrawOpaque implements pas.Backend.
func (b *Backend) DrawOpaque(draws []pas.Draw) error {
	return b.draw(draws, false)
}

// DrawTranslucent implements pas.Backend.
func (b *Backend) DrawTranslucent(draws []pas.Draw) error {
	return b.draw(draws, true)
}

func (b *Backend) draw(draws []pas.Draw, translucent bool) error {
	if !b.frameOpen {
		return fmt.Errorf("raster: draw outside a frame")
	}
	t := b.targets
	b.tris = b.tris[:0]
	for i := range draws {
		b.tris = t.appendTriangles(b.tris, &draws[i], b.vertices, b.indices, translucent)
	}
	// Each band replays every triangle in order, so per-pixel draw order
	// matches a serial pass.
	tris := b.tris
	b.pool.Rows(t.size.Y, func(y0, y1 int) {
		for i := range tris {
			t.fillTriangle(&tris[i], y0, y1)
		}
	})
	clear(b.tris)
	return nil
}

// Resolve implements pas.Backend.
func (b *Backend) Resolve() error {
	if !b.frameOpen {
		return fmt.Errorf("raster: resolve outside a frame")
	}
	t, dst := b.targets, b.texture(pas.TextureA)
	b.pool.Rows(t.size.Y, func(y0, y1 int) { t.resolveRows(dst, y0, y1) })
	return nil
}

// Effects implements pas.Backend.
func (b *Backend) Effects() []pas.Effect { return b.effects }

// texture returns the ping-pong image for id.
func (b *Backend) texture(id pas.TextureID) *filter.Image {
	return b.targets.pingPong[id]
}

// Present implements pas.Backend. The final image is converted to 8 bits
// with alpha forced opaque, then scaled bilinearly to the window's current
// framebuffer size.
func (b *Backend) Present(final pas.TextureID) error {
	if !b.frameOpen {
		return fmt.Errorf("raster: present outside a frame")
	}
	b.frameOpen = false

	src := b.texture(final)
	b.staging = ensureRGBA(b.staging, image.Rect(0, 0, src.Width, src.Height))
	staging := b.staging
	b.pool.Rows(src.Height, func(y0, y1 int) { toRGBA(src, staging, y0, y1) })

	w, h := b.win.FramebufferSize()
	if w <= 0 || h <= 0 {
		return nil
	}
	b.frame = ensureRGBA(b.frame, image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(b.frame, b.frame.Bounds(), b.staging, b.staging.Bounds(), draw.Src, nil)

	b.out.PresentImage(b.frame)
	return nil
}

// Frame returns the last presented image. It is overwritten by the next
// Present.
func (b *Backend) Frame() *image.RGBA { return b.frame }

// TargetSize returns the size of the offscreen targets.
func (b *Backend) TargetSize() image.Point {
	if b.targets == nil {
		return image.Point{}
	}
	return b.targets.size
}

// Close implements pas.Backend.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	b.tris = nil
	b.effects = nil
	b.targets = nil
	b.frame = nil
	b.staging = nil
	b.vertices = nil
	b.indices = nil
	b.win = nil
	b.out = nil
	return nil
}

func ensureRGBA(img *image.RGBA, r image.Rectangle) *image.RGBA {
	if img != nil && img.Rect == r {
		return img
	}
	return image.NewRGBA(r)
}

// toRGBA writes rows [y0, y1) of src into dst as opaque 8-bit pixels.
func toRGBA(src *filter.Image, dst *image.RGBA, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := range src.Width {
			s := (y*src.Width + x) * 4
			d := x * 4
			row[d] = to8(src.Pix[s])
			row[d+1] = to8(src.Pix[s+1])
			row[d+2] = to8(src.Pix[s+2])
			row[d+3] = 0xff
		}
	}
}

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
