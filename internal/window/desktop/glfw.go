// Package desktop provides a GLFW-backed OS window.
//
// GLFW must be driven from the main OS thread. Callers lock the main
// goroutine with runtime.LockOSThread before calling New and run the
// renderer loop on that same goroutine.
package desktop

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

var (
	initMu    sync.Mutex
	initCount int
)

func acquire() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initCount == 0 {
		if err := glfw.Init(); err != nil {
			return fmt.Errorf("desktop: glfw init: %w", err)
		}
	}
	initCount++
	return nil
}

func release() {
	initMu.Lock()
	defer initMu.Unlock()
	initCount--
	if initCount == 0 {
		glfw.Terminate()
	}
}

// Window is a GLFW window without a client API. Rendering goes through
// a surface created from its native handles.
type Window struct {
	w *glfw.Window
}

var (
	_ pas.Window       = (*Window)(nil)
	_ pas.NativeWindow = (*Window)(nil)
)

// New creates a visible, resizable window. Its signature matches
// pas.WindowFactory.
func New(title string, width, height int) (pas.Window, error) {
	if err := acquire(); err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		release()
		return nil, fmt.Errorf("desktop: create window: %w", err)
	}
	pas.Logger().Debug("window created", "title", title, "width", width, "height", height)
	return &Window{w: w}, nil
}

// Size returns the window size in screen coordinates.
func (w *Window) Size() (int, int) { return w.w.GetSize() }

// ScaleFactor returns the horizontal content scale.
func (w *Window) ScaleFactor() float64 {
	sx, _ := w.w.GetContentScale()
	if sx <= 0 {
		return 1
	}
	return float64(sx)
}

// RequestRedraw wakes a blocked event wait.
func (w *Window) RequestRedraw() { glfw.PostEmptyEvent() }

// FramebufferSize returns the framebuffer size in pixels. It is zero
// while the window is minimized.
func (w *Window) FramebufferSize() (int, int) { return w.w.GetFramebufferSize() }

// ShouldClose reports whether the user closed the window.
func (w *Window) ShouldClose() bool { return w.w.ShouldClose() }

// PollEvents processes pending events.
func (w *Window) PollEvents() { glfw.PollEvents() }

// Destroy destroys the window and terminates GLFW when it was the last one.
func (w *Window) Destroy() {
	if w.w == nil {
		return
	}
	w.w.Destroy()
	w.w = nil
	release()
}
