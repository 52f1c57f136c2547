//go:build !(linux && !wayland) && !windows && !darwin

package desktop

// NativeHandle reports no handles on platforms without a surface path.
func (w *Window) NativeHandle() (display, window uintptr) {
	return 0, 0
}
