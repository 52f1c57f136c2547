//go:build linux && !wayland

package desktop

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// NativeHandle returns the X11 Display* and Window.
func (w *Window) NativeHandle() (display, window uintptr) {
	return uintptr(unsafe.Pointer(glfw.GetX11Display())), uintptr(w.w.GetX11Window())
}
