//go:build !nogpu

package gpu

import "github.com/gogpu/wgpu/hal"

// frame tracks the GPU objects a recorded frame references. They are
// released once the submission has completed.
type frame struct {
	encoder    hal.CommandEncoder
	cmd        hal.CommandBuffer
	submission uint64
	submitted  bool
	recording  bool

	bindGroups []hal.BindGroup
	views      []hal.TextureView
}

func (f *frame) release(dev hal.Device) {
	for _, bg := range f.bindGroups {
		dev.DestroyBindGroup(bg)
	}
	f.bindGroups = f.bindGroups[:0]
	for _, v := range f.views {
		dev.DestroyTextureView(v)
	}
	f.views = f.views[:0]
	if f.cmd != nil {
		dev.FreeCommandBuffer(f.cmd)
		f.cmd = nil
	}
	if f.encoder != nil {
		if f.recording {
			f.encoder.DiscardEncoding()
			f.recording = false
		}
		f.encoder.Destroy()
		f.encoder = nil
	}
	f.submitted = false
	f.submission = 0
}
