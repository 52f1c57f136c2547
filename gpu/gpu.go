//go:build !nogpu

// Package gpu registers the wgpu rendering backend.
//
// Import this package to render through Vulkan, Metal, DX12 or OpenGL ES:
//
//	import _ "github.com/RTMecha/ParallelAnimationSystem/gpu"
//
// The backend is registered as "gpu" and is preferred over "software"
// during automatic selection. It needs a window that exposes native
// handles (see pas.NativeWindow); Initialize fails with ErrNoSurface
// otherwise and callers may retry with the software backend.
package gpu

import (
	pas "github.com/RTMecha/ParallelAnimationSystem"
	gpuimpl "github.com/RTMecha/ParallelAnimationSystem/internal/gpu"

	// Register every HAL backend available on this platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// Name is the registry name of the GPU backend.
const Name = "gpu"

// ErrNoSurface is returned when the window cannot back a GPU surface.
var ErrNoSurface = gpuimpl.ErrNoSurface

func init() {
	pas.RegisterBackend(Name, func() pas.Backend { return gpuimpl.New() })
}
