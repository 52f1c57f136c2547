package pas

import "github.com/gogpu/gpucontext"

// Window is the presentation surface collaborator. The renderer queries it
// once per frame and pumps its events while waiting for draw lists.
//
// All methods are called from the render thread.
type Window interface {
	gpucontext.WindowProvider

	// FramebufferSize returns the drawable size in physical pixels.
	// Either dimension may be zero while the window is minimized.
	FramebufferSize() (width, height int)

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// PollEvents processes pending window-system events without blocking.
	PollEvents()

	// Destroy releases the window.
	Destroy()
}

// NativeWindow is implemented by windows backed by an OS window. GPU
// backends use the handles to create a presentation surface.
type NativeWindow interface {
	// NativeHandle returns the platform display and window handles
	// (X11 Display* and Window, or 0 and HWND, or 0 and NSView*).
	NativeHandle() (display, window uintptr)
}

// WindowFactory creates the renderer's window.
type WindowFactory func(title string, width, height int) (Window, error)
