//go:build windows

package desktop

import "unsafe"

// NativeHandle returns 0 and the HWND. The Vulkan backend resolves the
// module HINSTANCE itself.
func (w *Window) NativeHandle() (display, window uintptr) {
	return 0, uintptr(unsafe.Pointer(w.w.GetWin32Window()))
}
