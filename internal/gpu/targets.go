//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	colorFormat   = gputypes.TextureFormatRGBA8Unorm
	depthFormat   = gputypes.TextureFormatDepth32Float
	surfaceFormat = gputypes.TextureFormatBGRA8Unorm
)

// texture is a texture together with its default view.
type texture struct {
	tex  hal.Texture
	view hal.TextureView
}

func (t *texture) destroy(dev hal.Device) {
	if t.view != nil {
		dev.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		dev.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// targetSet holds the offscreen render targets of a frame:
//
//   - msaa: multisampled color, only when samples > 1
//   - depth: depth buffer with the geometry sample count
//   - ping: the two post-processing textures; A receives the resolve
//   - bright, scratch: bloom intermediates
//
// Every single-sampled texture is both a render attachment and sampleable.
type targetSet struct {
	samples uint32
	width   uint32
	height  uint32

	msaa    texture
	depth   texture
	ping    [2]texture
	bright  texture
	scratch texture
}

type targetSpec struct {
	dst     *texture
	label   string
	samples uint32
	format  gputypes.TextureFormat
	usage   gputypes.TextureUsage
}

// ensure creates or recreates every texture at w x h. It is a no-op when
// the size is unchanged. On error the set is left empty.
func (ts *targetSet) ensure(dev hal.Device, w, h uint32) error {
	if ts.width == w && ts.height == h && ts.depth.tex != nil {
		return nil
	}
	ts.destroy(dev)

	sampled := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	specs := []targetSpec{
		{&ts.depth, "depth", ts.samples, depthFormat, gputypes.TextureUsageRenderAttachment},
		{&ts.ping[0], "ping_a", 1, colorFormat, sampled},
		{&ts.ping[1], "ping_b", 1, colorFormat, sampled},
		{&ts.bright, "bloom_bright", 1, colorFormat, sampled},
		{&ts.scratch, "bloom_scratch", 1, colorFormat, sampled},
	}
	if ts.samples > 1 {
		specs = append(specs, targetSpec{&ts.msaa, "msaa_color", ts.samples, colorFormat, gputypes.TextureUsageRenderAttachment})
	}

	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	for _, s := range specs {
		tex, err := dev.CreateTexture(&hal.TextureDescriptor{
			Label:         s.label,
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   s.samples,
			Dimension:     gputypes.TextureDimension2D,
			Format:        s.format,
			Usage:         s.usage,
		})
		if err != nil {
			ts.destroy(dev)
			return fmt.Errorf("gpu: create %s texture: %w", s.label, err)
		}
		s.dst.tex = tex

		view, err := dev.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: s.label + "_view"})
		if err != nil {
			ts.destroy(dev)
			return fmt.Errorf("gpu: create %s view: %w", s.label, err)
		}
		s.dst.view = view
	}

	ts.width = w
	ts.height = h
	return nil
}

// colorTarget returns the geometry pass color view and its resolve target.
func (ts *targetSet) colorTarget() (view, resolve hal.TextureView) {
	if ts.samples > 1 {
		return ts.msaa.view, ts.ping[0].view
	}
	return ts.ping[0].view, nil
}

// destroy releases all textures and resets the size.
func (ts *targetSet) destroy(dev hal.Device) {
	ts.scratch.destroy(dev)
	ts.bright.destroy(dev)
	ts.ping[1].destroy(dev)
	ts.ping[0].destroy(dev)
	ts.depth.destroy(dev)
	ts.msaa.destroy(dev)
	ts.width = 0
	ts.height = 0
}
