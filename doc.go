// Package pas renders a stream of per-frame draw lists produced by an
// animation layer onto a window.
//
// # Overview
//
// A producer goroutine registers meshes once with a [GeometryRegistry] and
// then submits one immutable [DrawList] per animation frame. A [Renderer]
// owns the graphics device on a single consumer thread: it dequeues draw
// lists in submission order, keeps GPU-side geometry in sync with the
// registry, composites opaque and translucent primitives into a multisampled
// offscreen target, runs a post-processing chain over two ping-pong textures
// and presents the result.
//
// # Quick Start
//
//	import (
//		pas "github.com/RTMecha/ParallelAnimationSystem"
//		_ "github.com/RTMecha/ParallelAnimationSystem/gpu" // enable the GPU backend
//		"github.com/RTMecha/ParallelAnimationSystem/internal/window/desktop"
//	)
//
//	r := pas.New(pas.WithSize(1280, 720), pas.WithWindow(desktop.New))
//	if err := r.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	defer r.Dispose()
//
//	quad := r.Register(vertices, indices)
//	go produce(r, quad) // calls r.Submit once per frame
//
//	if err := r.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// # Backends
//
// Rendering is delegated to a [Backend]. Backends register themselves in
// init functions, so importing a backend package is enough to make it
// available:
//   - gpu: WebGPU-style rendering through gogpu/wgpu (Vulkan, Metal, DX12, GLES)
//   - software: a CPU rasterizer used for headless runs and tests
//
// # Threading
//
// [Renderer.Run] must be called from the goroutine that created the window,
// locked to its OS thread. [Renderer.Submit], [Renderer.Register] and
// [GeometryRegistry.Register] are safe to call from any goroutine.
//
// # Coordinate System
//
// Geometry is specified in world units. The camera maps world space to clip
// space where the visible area spans [-aspect, aspect] horizontally and
// [-1, 1] vertically at scale 1. Depth z is in [0, 1]; smaller is nearer.
package pas

// Version is the current version of the library.
const Version = "0.1.0"
