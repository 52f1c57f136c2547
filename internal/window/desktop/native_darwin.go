//go:build darwin

package desktop

// NativeHandle returns the NSWindow. Surface creation needs a
// CAMetalLayer-backed view, which GLFW does not expose; the GPU backend
// reports an error for it and callers fall back to software rendering.
func (w *Window) NativeHandle() (display, window uintptr) {
	return 0, 0
}
