//go:build !nogpu

// Package gpu implements the hardware rendering backend on the gogpu/wgpu
// hardware abstraction layer.
//
// A frame is recorded into a single command encoder:
//
//	geometry pass   opaque then translucent draws into the multisampled
//	                color and depth targets, resolved into ping-pong A
//	post passes     one fullscreen pass per effect step, ping-ponging
//	                between A and B
//	blit pass       the final ping-pong texture onto the surface
//
// Per-draw parameters live in one uniform buffer addressed with dynamic
// offsets. Resources referenced by a submitted frame are released when the
// next frame begins, after the GPU has finished with them.
//
// The package is excluded from builds with the nogpu tag.
package gpu
