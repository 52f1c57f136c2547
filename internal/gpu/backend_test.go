//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// nativeWindow is a window with fake native handles.
type nativeWindow struct {
	gpucontext.NullWindowProvider
	handle uintptr
}

func (w *nativeWindow) FramebufferSize() (int, int)      { return w.W, w.H }
func (w *nativeWindow) ShouldClose() bool                { return false }
func (w *nativeWindow) PollEvents()                      {}
func (w *nativeWindow) Destroy()                         {}
func (w *nativeWindow) NativeHandle() (uintptr, uintptr) { return 0, w.handle }

// countingDevice tracks live resources created through it.
type countingDevice struct {
	hal.Device

	mu   sync.Mutex
	live map[string]int
}

func newCountingDevice(d hal.Device) *countingDevice {
	return &countingDevice{Device: d, live: make(map[string]int)}
}

func (d *countingDevice) add(kind string, n int) {
	d.mu.Lock()
	d.live[kind] += n
	d.mu.Unlock()
}

func (d *countingDevice) count(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[kind]
}

func (d *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b, err := d.Device.CreateBuffer(desc)
	if err == nil {
		d.add("buffer", 1)
	}
	return b, err
}

func (d *countingDevice) DestroyBuffer(b hal.Buffer) {
	d.add("buffer", -1)
	d.Device.DestroyBuffer(b)
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	t, err := d.Device.CreateTexture(desc)
	if err == nil {
		d.add("texture", 1)
	}
	return t, err
}

func (d *countingDevice) DestroyTexture(t hal.Texture) {
	d.add("texture", -1)
	d.Device.DestroyTexture(t)
}

func (d *countingDevice) CreateTextureView(t hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	v, err := d.Device.CreateTextureView(t, desc)
	if err == nil {
		d.add("view", 1)
	}
	return v, err
}

func (d *countingDevice) DestroyTextureView(v hal.TextureView) {
	d.add("view", -1)
	d.Device.DestroyTextureView(v)
}

func (d *countingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	g, err := d.Device.CreateBindGroup(desc)
	if err == nil {
		d.add("bindgroup", 1)
	}
	return g, err
}

func (d *countingDevice) DestroyBindGroup(g hal.BindGroup) {
	d.add("bindgroup", -1)
	d.Device.DestroyBindGroup(g)
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p, err := d.Device.CreateRenderPipeline(desc)
	if err == nil {
		d.add("pipeline", 1)
	}
	return p, err
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.add("pipeline", -1)
	d.Device.DestroyRenderPipeline(p)
}

func (d *countingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	m, err := d.Device.CreateShaderModule(desc)
	if err == nil {
		d.add("shader", 1)
	}
	return m, err
}

func (d *countingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.add("shader", -1)
	d.Device.DestroyShaderModule(m)
}

var resourceKinds = []string{"buffer", "texture", "view", "bindgroup", "pipeline", "shader"}

func newNoopBackend(t *testing.T, samples int) (*Backend, *countingDevice) {
	t.Helper()
	b := NewWithAPI(noop.API{})
	var counter *countingDevice
	b.wrap = func(d hal.Device) hal.Device {
		counter = newCountingDevice(d)
		return counter
	}
	opts := pas.DefaultOptions()
	opts.SampleCount = samples
	win := &nativeWindow{NullWindowProvider: gpucontext.NullWindowProvider{W: 64, H: 32, SF: 1}, handle: 1}
	if err := b.Init(win, &opts); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	return b, counter
}

func quadGeometry() ([]mgl32.Vec2, []uint32) {
	return []mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}, []uint32{0, 1, 2, 0, 2, 3}
}

func quadDraw(c pas.Color) pas.Draw {
	return pas.Draw{
		Mesh:   pas.MeshHandle{VertexCount: 4, IndexCount: 6},
		Matrix: mgl32.Ident3(),
		Z:      0.5,
		Color1: c,
		Color2: c,
	}
}

// renderFrame drives one frame through the backend the way the renderer does.
func renderFrame(t *testing.T, b *Backend, post pas.PostProcessing) {
	t.Helper()
	if err := b.BeginFrame(pas.Black); err != nil {
		t.Fatalf("BeginFrame() = %v", err)
	}
	if err := b.DrawOpaque([]pas.Draw{quadDraw(pas.RGB(1, 0, 0))}); err != nil {
		t.Fatalf("DrawOpaque() = %v", err)
	}
	if err := b.DrawTranslucent([]pas.Draw{quadDraw(pas.RGBA(0, 0, 1, 0.5))}); err != nil {
		t.Fatalf("DrawTranslucent() = %v", err)
	}
	if err := b.Resolve(); err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	chain := pas.NewPostChain(b.Effects()...)
	final, err := chain.Run(image.Pt(int(b.targets.width), int(b.targets.height)), &post, pas.TextureA)
	if err != nil {
		t.Fatalf("post chain = %v", err)
	}
	if err := b.Present(final); err != nil {
		t.Fatalf("Present() = %v", err)
	}
}

func TestInitRequiresNativeHandle(t *testing.T) {
	win := &nativeWindow{NullWindowProvider: gpucontext.NullWindowProvider{W: 8, H: 8, SF: 1}}
	b := NewWithAPI(noop.API{})
	if err := b.Init(win, nil); !errors.Is(err, ErrNoSurface) {
		t.Errorf("Init() with zero handle = %v, want %v", err, ErrNoSurface)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() after failed Init = %v", err)
	}
}

func TestSampleCountNormalized(t *testing.T) {
	tests := []struct {
		in   int
		want uint32
	}{
		{0, 1},
		{1, 1},
		{2, 4},
		{4, 4},
		{8, 4},
	}
	for _, tt := range tests {
		b, _ := newNoopBackend(t, tt.in)
		if b.samples != tt.want {
			t.Errorf("SampleCount %d: samples = %d, want %d", tt.in, b.samples, tt.want)
		}
		_ = b.Close()
	}
}

func TestFrameLifecycle(t *testing.T) {
	for _, samples := range []int{1, 4} {
		b, dev := newNoopBackend(t, samples)

		v, i := quadGeometry()
		if err := b.UploadGeometry(v, i); err != nil {
			t.Fatalf("UploadGeometry() = %v", err)
		}
		if err := b.Resize(image.Pt(64, 32)); err != nil {
			t.Fatalf("Resize() = %v", err)
		}

		posts := []pas.PostProcessing{
			{},
			{HueShift: 90},
			{Bloom: pas.BloomParams{Intensity: 1}},
			{HueShift: 45, Bloom: pas.BloomParams{Intensity: 0.5, Diffusion: 2}},
		}
		for _, p := range posts {
			renderFrame(t, b, p)
		}

		// Only the last submitted frame holds per-frame objects.
		if got := dev.count("bindgroup"); got == 0 {
			t.Error("expected the in-flight frame to hold bind groups")
		}

		if err := b.Close(); err != nil {
			t.Fatalf("Close() = %v", err)
		}
		for _, kind := range resourceKinds {
			if n := dev.count(kind); n != 0 {
				t.Errorf("samples=%d: %d %s(s) leaked after Close", samples, n, kind)
			}
		}
	}
}

func TestResizeDoesNotLeak(t *testing.T) {
	b, dev := newNoopBackend(t, 4)
	defer b.Close()

	if err := b.Resize(image.Pt(64, 32)); err != nil {
		t.Fatal(err)
	}
	textures, views := dev.count("texture"), dev.count("view")
	if textures != 6 {
		t.Errorf("live textures = %d, want 6 (msaa, depth, 2 ping-pong, 2 bloom)", textures)
	}

	for _, sz := range []image.Point{{32, 16}, {64, 32}, {100, 50}} {
		if err := b.Resize(sz); err != nil {
			t.Fatalf("Resize(%v) = %v", sz, err)
		}
		renderFrame(t, b, pas.PostProcessing{Bloom: pas.BloomParams{Intensity: 1}})
		if got := dev.count("texture"); got != textures {
			t.Errorf("after Resize(%v): live textures = %d, want %d", sz, got, textures)
		}
	}
	// The retired frame's surface view is released by the next frame.
	if err := b.retire(); err != nil {
		t.Fatal(err)
	}
	if got := dev.count("view"); got != views {
		t.Errorf("live views = %d, want %d", got, views)
	}
	if got := dev.count("bindgroup"); got != 0 {
		t.Errorf("live bind groups after retire = %d, want 0", got)
	}
}

func TestResizeRejectsZeroArea(t *testing.T) {
	b, _ := newNoopBackend(t, 1)
	defer b.Close()
	if err := b.Resize(image.Pt(0, 10)); !errors.Is(err, pas.ErrInvalidSize) {
		t.Errorf("Resize(0x10) = %v, want %v", err, pas.ErrInvalidSize)
	}
}

func TestUploadGrowsBuffers(t *testing.T) {
	b, dev := newNoopBackend(t, 1)
	defer b.Close()

	v, i := quadGeometry()
	if err := b.UploadGeometry(v, i); err != nil {
		t.Fatal(err)
	}
	if b.vertices.size != minBufferSize {
		t.Errorf("vertex buffer = %d bytes, want %d", b.vertices.size, minBufferSize)
	}
	buffers := dev.count("buffer")

	big := make([]mgl32.Vec2, 100)
	if err := b.UploadGeometry(big, i); err != nil {
		t.Fatal(err)
	}
	if b.vertices.size != 1024 {
		t.Errorf("vertex buffer = %d bytes, want 1024", b.vertices.size)
	}
	if got := dev.count("buffer"); got != buffers {
		t.Errorf("live buffers = %d, want %d (old buffer released)", got, buffers)
	}
	if b.vertexCount != 100 || b.indexCount != 6 {
		t.Errorf("counts = %d/%d, want 100/6", b.vertexCount, b.indexCount)
	}
}

func TestFrameOrderErrors(t *testing.T) {
	b, _ := newNoopBackend(t, 1)
	defer b.Close()

	if err := b.BeginFrame(pas.Black); err == nil {
		t.Error("BeginFrame before Resize should fail")
	}
	if err := b.Resize(image.Pt(8, 8)); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawOpaque(nil); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawOpaque outside a frame = %v, want %v", err, ErrNoFrame)
	}
	if err := b.Present(pas.TextureA); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Present outside a frame = %v, want %v", err, ErrNoFrame)
	}

	if err := b.BeginFrame(pas.Black); err != nil {
		t.Fatal(err)
	}
	if err := b.Present(pas.TextureA); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Present before Resolve = %v, want %v", err, ErrNoFrame)
	}
}

func TestPackDraw(t *testing.T) {
	d := pas.Draw{
		Matrix: mgl32.Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9},
		Z:      0.25,
		Mode:   pas.RenderModeRadialGradient,
		Color1: pas.RGBA(0.1, 0.2, 0.3, 0.4),
		Color2: pas.RGBA(0.5, 0.6, 0.7, 0.8),
	}
	b := make([]byte, drawUniformSize)
	for i := range b {
		b[i] = 0xff
	}
	packDraw(b, &d)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	wantCols := [3][4]float32{{1, 2, 3, 0}, {4, 5, 6, 0}, {7, 8, 9, 0}}
	for c, col := range wantCols {
		for r, want := range col {
			if got := f(c*16 + r*4); got != want {
				t.Errorf("column %d row %d = %v, want %v", c, r, got, want)
			}
		}
	}
	if got := f(48); got != 0.1 {
		t.Errorf("color1.r = %v", got)
	}
	if got := f(76); got != 0.8 {
		t.Errorf("color2.a = %v", got)
	}
	if got := f(80); got != 0.25 {
		t.Errorf("z = %v", got)
	}
	if got := binary.LittleEndian.Uint32(b[84:]); got != uint32(pas.RenderModeRadialGradient) {
		t.Errorf("mode = %d", got)
	}
	for i := 88; i < drawUniformSize; i++ {
		if b[i] != 0 {
			t.Fatalf("padding byte %d = %#x, want 0", i, b[i])
		}
	}
}

func TestPackMat3Transposes(t *testing.T) {
	b := make([]byte, 48)
	packMat3(b, [9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	// Column 0 of the WGSL matrix is the first column of the row-major input.
	if f(0) != 1 || f(4) != 4 || f(8) != 7 {
		t.Errorf("column 0 = %v %v %v, want 1 4 7", f(0), f(4), f(8))
	}
	if f(16) != 2 || f(20) != 5 || f(24) != 8 {
		t.Errorf("column 1 = %v %v %v, want 2 5 8", f(16), f(20), f(24))
	}
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		n, want uint64
	}{
		{0, 256},
		{1, 256},
		{256, 256},
		{257, 512},
		{800, 1024},
		{1024, 1024},
		{1025, 2048},
	}
	for _, tt := range tests {
		if got := capacityFor(tt.n); got != tt.want {
			t.Errorf("capacityFor(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
