// Package window provides window implementations for the renderer.
//
// Headless is an in-memory window used for offscreen rendering and tests.
// The desktop subpackage provides a GLFW window.
package window

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/gogpu/gpucontext"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// Headless is a window without an OS surface. It keeps the last image
// presented to it and can write every frame to a PNG file.
//
// Headless is safe for concurrent use: tests resize and close it from the
// test goroutine while the renderer runs.
type Headless struct {
	mu      sync.Mutex
	size    gpucontext.NullWindowProvider
	closed  bool
	last    *image.RGBA
	frames  int
	pngPath string
	pngErr  error
}

var _ pas.Window = (*Headless)(nil)

// NewHeadless returns a headless window with the given framebuffer size.
func NewHeadless(width, height int) *Headless {
	return &Headless{size: gpucontext.NullWindowProvider{W: width, H: height, SF: 1}}
}

// Factory returns a pas.WindowFactory that always yields h.
func (h *Headless) Factory() pas.WindowFactory {
	return func(string, int, int) (pas.Window, error) { return h, nil }
}

// WritePNG makes every presented frame overwrite the PNG at path.
// An empty path disables output.
func (h *Headless) WritePNG(path string) {
	h.mu.Lock()
	h.pngPath = path
	h.mu.Unlock()
}

// Size returns the window size in logical pixels.
func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size.Size()
}

// ScaleFactor returns the DPI scale factor.
func (h *Headless) ScaleFactor() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size.ScaleFactor()
}

// RequestRedraw is a no-op.
func (h *Headless) RequestRedraw() {}

// FramebufferSize returns the framebuffer size in physical pixels.
func (h *Headless) FramebufferSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size.W, h.size.H
}

// SetSize changes the framebuffer size. Zero dimensions simulate a
// minimized window.
func (h *Headless) SetSize(width, height int) {
	h.mu.Lock()
	h.size.W, h.size.H = width, height
	h.mu.Unlock()
}

// Close makes ShouldClose report true.
func (h *Headless) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// ShouldClose reports whether Close was called.
func (h *Headless) ShouldClose() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// PollEvents is a no-op.
func (h *Headless) PollEvents() {}

// Destroy marks the window closed.
func (h *Headless) Destroy() { h.Close() }

// PresentImage stores a copy of img and writes it out if PNG output is on.
func (h *Headless) PresentImage(img *image.RGBA) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last == nil || h.last.Rect != img.Rect {
		h.last = image.NewRGBA(img.Rect)
	}
	copy(h.last.Pix, img.Pix)
	h.frames++

	if h.pngPath != "" {
		if err := writePNG(h.pngPath, h.last); err != nil {
			h.pngErr = err
			pas.Logger().Warn("headless png write failed", "path", h.pngPath, "err", err)
		}
	}
}

// Last returns a copy of the most recently presented image, or nil.
func (h *Headless) Last() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil
	}
	out := image.NewRGBA(h.last.Rect)
	copy(out.Pix, h.last.Pix)
	return out
}

// Frames returns the number of presented images.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Err returns the last PNG write error.
func (h *Headless) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pngErr
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("window: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("window: encode png: %w", err)
	}
	return f.Close()
}
