//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/gpu/shaders"
)

// Backend errors.
var (
	// ErrNoSurface is returned by Init when the window exposes no native
	// handle a surface can be created from.
	ErrNoSurface = errors.New("gpu: window has no native surface handle")

	// ErrNoFrame is returned by frame operations called outside
	// BeginFrame/Present.
	ErrNoFrame = errors.New("gpu: no frame in progress")
)

// Backend renders through a wgpu HAL device.
type Backend struct {
	api hal.Backend

	// wrap, when set, wraps the opened device. Tests use it to count
	// resource lifetimes.
	wrap func(hal.Device) hal.Device

	win     pas.Window
	vsync   bool
	samples uint32

	dev        *device
	hd         hal.Device
	surface    hal.Surface
	configured bool

	pipes   *pipelines
	targets targetSet

	vertices    growBuffer
	indices     growBuffer
	draws       growBuffer
	postBuf     hal.Buffer
	vertexCount int
	indexCount  int
	drawStride  uint64
	scratch     []byte
	uniforms    []byte

	cur  *frame
	prev *frame

	clear       pas.Color
	opaque      []pas.Draw
	translucent []pas.Draw
	resolved    bool

	effects []pas.Effect
}

var _ pas.Backend = (*Backend)(nil)

// New returns a backend that uses the best registered HAL backend.
func New() *Backend {
	return &Backend{}
}

// NewWithAPI returns a backend bound to a specific HAL backend.
func NewWithAPI(api hal.Backend) *Backend {
	return &Backend{api: api}
}

// Name implements pas.Backend.
func (b *Backend) Name() string { return "gpu" }

// SetLogger sets the package logger.
func (b *Backend) SetLogger(l *slog.Logger) { setLogger(l) }

// Init implements pas.Backend. It opens the device, creates the surface
// from the window's native handles and builds every pipeline.
func (b *Backend) Init(win pas.Window, opts *pas.Options) error {
	nw, ok := win.(pas.NativeWindow)
	if !ok {
		return ErrNoSurface
	}
	display, handle := nw.NativeHandle()
	if handle == 0 {
		return ErrNoSurface
	}

	b.win = win
	b.samples = 1
	b.vsync = true
	if opts != nil {
		b.vsync = opts.VSync
		if opts.SampleCount > 1 {
			b.samples = 4
		}
	}

	dev, err := openDevice(b.api)
	if err != nil {
		return err
	}
	b.dev = dev
	b.hd = dev.device
	if b.wrap != nil {
		b.hd = b.wrap(dev.device)
	}

	if err := b.initResources(display, handle); err != nil {
		_ = b.Close()
		return err
	}

	b.effects = []pas.Effect{
		&hueShiftEffect{b: b},
		&bloomEffect{b: b},
	}
	slogger().Info("gpu: initialized",
		"adapter", dev.info.Name,
		"hal", dev.variant.String(),
		"samples", b.samples,
		"vsync", b.vsync)
	return nil
}

func (b *Backend) initResources(display, handle uintptr) error {
	surface, err := b.dev.instance.CreateSurface(display, handle)
	if err != nil {
		return fmt.Errorf("gpu: create surface: %w", err)
	}
	b.surface = surface

	b.pipes, err = newPipelines(b.hd, b.dev.variant, b.samples)
	if err != nil {
		return err
	}
	b.targets.samples = b.samples

	b.vertices = newGrowBuffer("vertices", gputypes.BufferUsageVertex)
	b.indices = newGrowBuffer("indices", gputypes.BufferUsageIndex)
	b.draws = newGrowBuffer("draw_uniforms", gputypes.BufferUsageUniform)
	b.drawStride = alignUp(drawUniformSize, b.dev.uniformAlign())

	b.postBuf, err = b.hd.CreateBuffer(&hal.BufferDescriptor{
		Label: "post_uniforms",
		Size:  postSlots * postSlotSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create post uniform buffer: %w", err)
	}
	return nil
}

// retire waits for the previous submission and releases what it used.
func (b *Backend) retire() error {
	if b.prev == nil {
		return nil
	}
	f := b.prev
	b.prev = nil
	var err error
	if f.submitted && b.dev.queue.PollCompleted() < f.submission {
		err = b.hd.WaitIdle()
	}
	f.release(b.hd)
	if err != nil {
		return fmt.Errorf("gpu: wait for frame: %w", err)
	}
	return nil
}

// UploadGeometry implements pas.Backend.
func (b *Backend) UploadGeometry(vertices []mgl32.Vec2, indices []uint32) error {
	if err := b.retire(); err != nil {
		return err
	}

	need := len(vertices) * vertexStride
	if len(indices)*4 > need {
		need = len(indices) * 4
	}
	if cap(b.scratch) < need {
		b.scratch = make([]byte, need)
	}

	vb := b.scratch[:len(vertices)*vertexStride]
	for i, v := range vertices {
		putF32(vb, i*vertexStride, v[0])
		putF32(vb, i*vertexStride+4, v[1])
	}
	if err := b.vertices.write(b.hd, b.dev.queue, vb); err != nil {
		return err
	}

	ib := b.scratch[:len(indices)*4]
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(ib[i*4:], idx)
	}
	if err := b.indices.write(b.hd, b.dev.queue, ib); err != nil {
		return err
	}

	b.vertexCount = len(vertices)
	b.indexCount = len(indices)
	return nil
}

// Resize implements pas.Backend. It recreates the offscreen targets and
// reconfigures the surface after the GPU is idle.
func (b *Backend) Resize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("%w: %v", pas.ErrInvalidSize, size)
	}
	if err := b.retire(); err != nil {
		return err
	}
	if err := b.hd.WaitIdle(); err != nil {
		return fmt.Errorf("gpu: wait idle: %w", err)
	}

	w, h := uint32(size.X), uint32(size.Y)
	if err := b.targets.ensure(b.hd, w, h); err != nil {
		return err
	}
	return b.configure(w, h)
}

func (b *Backend) configure(w, h uint32) error {
	mode := gputypes.PresentModeFifo
	if !b.vsync {
		mode = gputypes.PresentModeImmediate
	}
	if b.configured {
		b.surface.Unconfigure(b.hd)
		b.configured = false
	}
	err := b.surface.Configure(b.hd, &hal.SurfaceConfiguration{
		Width:       w,
		Height:      h,
		Format:      surfaceFormat,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: mode,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return fmt.Errorf("gpu: configure surface %dx%d: %w", w, h, err)
	}
	b.configured = true
	slogger().Debug("gpu: surface configured", "width", w, "height", h, "present_mode", mode)
	return nil
}

// BeginFrame implements pas.Backend.
func (b *Backend) BeginFrame(clear pas.Color) error {
	if b.cur != nil {
		return fmt.Errorf("gpu: frame already in progress")
	}
	if b.targets.depth.tex == nil {
		return fmt.Errorf("gpu: begin frame before resize")
	}
	if err := b.retire(); err != nil {
		return err
	}

	encoder, err := b.hd.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		encoder.Destroy()
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	b.cur = &frame{encoder: encoder, recording: true}
	b.clear = clear
	b.opaque = b.opaque[:0]
	b.translucent = b.translucent[:0]
	b.resolved = false
	return nil
}

// DrawOpaque implements pas.Backend. Draws are recorded at Resolve, once
// the frame's uniform data is complete.
func (b *Backend) DrawOpaque(draws []pas.Draw) error {
	if b.cur == nil || b.resolved {
		return ErrNoFrame
	}
	b.opaque = append(b.opaque, draws...)
	return nil
}

// DrawTranslucent implements pas.Backend.
func (b *Backend) DrawTranslucent(draws []pas.Draw) error {
	if b.cur == nil || b.resolved {
		return ErrNoFrame
	}
	b.translucent = append(b.translucent, draws...)
	return nil
}

// Resolve implements pas.Backend. It writes the draw uniforms and records
// the geometry pass, resolving into ping-pong texture A.
func (b *Backend) Resolve() error {
	if b.cur == nil || b.resolved {
		return ErrNoFrame
	}
	b.resolved = true

	total := len(b.opaque) + len(b.translucent)
	var bindGroup hal.BindGroup
	if total > 0 {
		n := uint64(total) * b.drawStride
		if uint64(cap(b.uniforms)) < n {
			b.uniforms = make([]byte, n)
		}
		data := b.uniforms[:n]
		for i := range b.opaque {
			packDraw(data[uint64(i)*b.drawStride:], &b.opaque[i])
		}
		for i := range b.translucent {
			packDraw(data[uint64(len(b.opaque)+i)*b.drawStride:], &b.translucent[i])
		}
		if err := b.draws.write(b.hd, b.dev.queue, data); err != nil {
			return err
		}

		bg, err := b.hd.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "draw_bind_group",
			Layout: b.pipes.drawLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: b.draws.buf.NativeHandle(),
					Size:   drawUniformSize,
				}},
			},
		})
		if err != nil {
			return fmt.Errorf("gpu: create draw bind group: %w", err)
		}
		b.cur.bindGroups = append(b.cur.bindGroups, bg)
		bindGroup = bg
	}

	view, resolve := b.targets.colorTarget()
	store := gputypes.StoreOpStore
	if resolve != nil {
		store = gputypes.StoreOpDiscard
	}
	pass := b.cur.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "geometry_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:          view,
				ResolveTarget: resolve,
				LoadOp:        gputypes.LoadOpClear,
				StoreOp:       store,
				ClearValue: gputypes.Color{
					R: float64(b.clear.R),
					G: float64(b.clear.G),
					B: float64(b.clear.B),
					A: float64(b.clear.A),
				},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            b.targets.depth.view,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1,
		},
	})

	if bindGroup != nil && b.vertices.buf != nil && b.indices.buf != nil {
		pass.SetVertexBuffer(0, b.vertices.buf, 0)
		pass.SetIndexBuffer(b.indices.buf, gputypes.IndexFormatUint32, 0)

		pass.SetPipeline(b.pipes.opaque)
		b.recordDraws(pass, bindGroup, b.opaque, 0)
		pass.SetPipeline(b.pipes.translucent)
		b.recordDraws(pass, bindGroup, b.translucent, len(b.opaque))
	}
	pass.End()
	return nil
}

// recordDraws issues one indexed draw per primitive. Meshes outside the
// uploaded geometry are skipped.
func (b *Backend) recordDraws(pass hal.RenderPassEncoder, bg hal.BindGroup, draws []pas.Draw, first int) {
	offsets := []uint32{0}
	for i := range draws {
		m := draws[i].Mesh
		if m.Empty() || m.IndexOffset < 0 || m.IndexOffset+m.IndexCount > b.indexCount ||
			m.VertexOffset < 0 || m.VertexOffset+m.VertexCount > b.vertexCount {
			continue
		}
		offsets[0] = uint32(uint64(first+i) * b.drawStride)
		pass.SetBindGroup(0, bg, offsets)
		pass.DrawIndexed(uint32(m.IndexCount), 1, uint32(m.IndexOffset), int32(m.VertexOffset), 0)
	}
}

// Effects implements pas.Backend.
func (b *Backend) Effects() []pas.Effect { return b.effects }

// postPass records a fullscreen pass sampling src (and aux) into dst with
// the uniform slot's contents.
func (b *Backend) postPass(name string, src, aux, dst hal.TextureView, slot int) error {
	if b.cur == nil {
		return ErrNoFrame
	}
	if aux == nil {
		aux = src
	}
	bg, err := b.hd.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  name + "_bind_group",
		Layout: b.pipes.postLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: src.NativeHandle()}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: aux.NativeHandle()}},
			{Binding: 2, Resource: gputypes.BufferBinding{
				Buffer: b.postBuf.NativeHandle(),
				Offset: uint64(slot) * postSlotSize,
				Size:   postSlotSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create %s bind group: %w", name, err)
	}
	b.cur.bindGroups = append(b.cur.bindGroups, bg)

	pass := b.cur.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: name + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    dst,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(b.pipes.post[name])
	pass.SetBindGroup(0, bg, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
	return nil
}

// writeSlot uploads a post-processing uniform slot.
func (b *Backend) writeSlot(slot int, data []byte) error {
	if err := b.dev.queue.WriteBuffer(b.postBuf, uint64(slot)*postSlotSize, data); err != nil {
		return fmt.Errorf("gpu: write post uniforms: %w", err)
	}
	return nil
}

// view returns the ping-pong view for id.
func (b *Backend) view(id pas.TextureID) hal.TextureView {
	return b.targets.ping[id].view
}

// Present implements pas.Backend. It blits final onto the acquired surface
// texture, submits the frame and presents it. An outdated surface is
// reconfigured once before giving up.
func (b *Backend) Present(final pas.TextureID) error {
	if b.cur == nil || !b.resolved {
		return ErrNoFrame
	}
	f := b.cur
	b.cur = nil

	acquired, err := b.surface.AcquireTexture(nil)
	if errors.Is(err, hal.ErrSurfaceOutdated) {
		slogger().Info("gpu: surface outdated, reconfiguring")
		if err = b.configure(b.targets.width, b.targets.height); err == nil {
			acquired, err = b.surface.AcquireTexture(nil)
		}
	}
	if err != nil {
		f.release(b.hd)
		return fmt.Errorf("gpu: acquire surface texture: %w", err)
	}

	surfaceView, err := b.hd.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{Label: "surface_view"})
	if err != nil {
		b.surface.DiscardTexture(acquired.Texture)
		f.release(b.hd)
		return fmt.Errorf("gpu: create surface view: %w", err)
	}
	f.views = append(f.views, surfaceView)

	b.cur = f
	err = b.postPass(shaders.Blit, b.view(final), nil, surfaceView, slotBlit)
	b.cur = nil
	if err != nil {
		b.surface.DiscardTexture(acquired.Texture)
		f.release(b.hd)
		return err
	}

	cmd, err := f.encoder.EndEncoding()
	f.recording = false
	if err != nil {
		b.surface.DiscardTexture(acquired.Texture)
		f.release(b.hd)
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	f.cmd = cmd

	idx, err := b.dev.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		b.surface.DiscardTexture(acquired.Texture)
		f.release(b.hd)
		return fmt.Errorf("gpu: submit: %w", err)
	}
	f.submission, f.submitted = idx, true
	b.prev = f

	if err := b.dev.queue.Present(b.surface, acquired.Texture, nil); err != nil {
		return fmt.Errorf("gpu: present: %w", err)
	}
	if acquired.Suboptimal {
		slogger().Debug("gpu: suboptimal surface texture")
	}
	return nil
}

// Close implements pas.Backend. Resources are released in reverse creation
// order after the device is idle. Close is safe to call more than once.
func (b *Backend) Close() error {
	if b.dev == nil {
		return nil
	}
	var errs []error
	if b.cur != nil {
		b.cur.release(b.hd)
		b.cur = nil
	}
	if err := b.retire(); err != nil {
		errs = append(errs, err)
	}
	if b.hd != nil {
		if err := b.hd.WaitIdle(); err != nil {
			errs = append(errs, fmt.Errorf("gpu: wait idle: %w", err))
		}

		if b.postBuf != nil {
			b.hd.DestroyBuffer(b.postBuf)
			b.postBuf = nil
		}
		b.draws.destroy(b.hd)
		b.indices.destroy(b.hd)
		b.vertices.destroy(b.hd)
		b.targets.destroy(b.hd)
		if b.pipes != nil {
			b.pipes.destroy(b.hd)
			b.pipes = nil
		}
		if b.surface != nil {
			if b.configured {
				b.surface.Unconfigure(b.hd)
				b.configured = false
			}
			b.surface.Destroy()
			b.surface = nil
		}
	}

	b.dev.destroy()
	b.dev = nil
	b.hd = nil
	b.effects = nil
	b.win = nil
	slogger().Debug("gpu: closed")
	return errors.Join(errs...)
}
