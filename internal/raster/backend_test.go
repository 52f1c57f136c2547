package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/parallel"
)

type stubWindow struct {
	gpucontext.NullWindowProvider
	presented int
}

func (w *stubWindow) FramebufferSize() (int, int) { return w.W, w.H }
func (w *stubWindow) ShouldClose() bool           { return false }
func (w *stubWindow) PollEvents()                 {}
func (w *stubWindow) Destroy()                    {}
func (w *stubWindow) PresentImage(*image.RGBA)    { w.presented++ }

func TestInitRequiresImagePresenter(t *testing.T) {
	// Embedding through the interface hides PresentImage.
	win := struct{ pas.Window }{&stubWindow{NullWindowProvider: gpucontext.NullWindowProvider{W: 8, H: 8}}}
	b := New()
	err := b.Init(win, nil)
	if !errors.Is(err, ErrNoPresenter) {
		t.Fatalf("Init() = %v, want ErrNoPresenter", err)
	}
	_ = b.Close()
}

var (
	unitQuad    = []mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	quadIndices = []uint32{0, 1, 2, 0, 2, 3}
)

// newBackend returns an initialized backend with the unit quad uploaded
// at handle {0, 4, 0, 6} and targets of the given size.
func newBackend(t *testing.T, w, h, samples int) (*Backend, *stubWindow) {
	t.Helper()
	win := &stubWindow{NullWindowProvider: gpucontext.NullWindowProvider{W: w, H: h}}
	b := New()
	opts := pas.DefaultOptions()
	opts.SampleCount = samples
	if err := b.Init(win, &opts); err != nil {
		t.Fatal(err)
	}
	if err := b.UploadGeometry(unitQuad, quadIndices); err != nil {
		t.Fatal(err)
	}
	if err := b.Resize(image.Pt(w, h)); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, win
}

var quadMesh = pas.MeshHandle{VertexOffset: 0, VertexCount: 4, IndexOffset: 0, IndexCount: 6}

func quadDraw(m mgl32.Mat3, z float32, c1, c2 pas.Color) pas.Draw {
	return pas.Draw{Mesh: quadMesh, Matrix: m, Z: z, Color1: c1, Color2: c2}
}

// render runs one frame with no post effects and returns the presented image.
func render(t *testing.T, b *Backend, clear pas.Color, opaque, translucent []pas.Draw) *image.RGBA {
	t.Helper()
	steps := []func() error{
		func() error { return b.BeginFrame(clear) },
		func() error { return b.DrawOpaque(opaque) },
		func() error { return b.DrawTranslucent(translucent) },
		b.Resolve,
		func() error { return b.Present(pas.TextureA) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}
	return b.Frame()
}

func rgba(c pas.Color) color.RGBA {
	n := c.NRGBA()
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff}
}

func TestFullCoverageOpaque(t *testing.T) {
	for _, samples := range []int{1, 4} {
		b, win := newBackend(t, 16, 8, samples)
		red := pas.RGB(1, 0, 0)
		img := render(t, b, pas.RGB(0, 0, 1), []pas.Draw{quadDraw(mgl32.Ident3(), 0.5, red, pas.RGB(0, 1, 0))}, nil)

		want := rgba(red)
		for y := range 8 {
			for x := range 16 {
				if got := img.RGBAAt(x, y); got != want {
					t.Fatalf("samples=%d: pixel (%d,%d) = %v, want %v", samples, x, y, got, want)
				}
			}
		}
		if win.presented != 1 {
			t.Errorf("PresentImage called %d times, want 1", win.presented)
		}
	}
}

func TestPartialCoverageKeepsClearColor(t *testing.T) {
	b, _ := newBackend(t, 8, 4, 4)
	// Map the unit quad onto the left half of the viewport.
	left := mgl32.Translate2D(-0.5, 0).Mul3(mgl32.Scale2D(0.5, 1))
	red, blue := pas.RGB(1, 0, 0), pas.RGB(0, 0, 1)

	img := render(t, b, blue, []pas.Draw{quadDraw(left, 0.5, red, blue)}, nil)

	for y := range 4 {
		for x := range 8 {
			want := rgba(blue)
			if x < 4 {
				want = rgba(red)
			}
			if got := img.RGBAAt(x, y); got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestDepthOrdering(t *testing.T) {
	red, green, blue := pas.RGB(1, 0, 0), pas.RGB(0, 1, 0), pas.RGB(0, 0, 1)
	tests := []struct {
		name        string
		opaque      []pas.Draw
		translucent []pas.Draw
		want        color.RGBA
	}{
		{
			name:   "near opaque hides far opaque",
			opaque: []pas.Draw{quadDraw(mgl32.Ident3(), 0.2, red, green), quadDraw(mgl32.Ident3(), 0.8, green, red)},
			want:   rgba(red),
		},
		{
			name:        "translucent behind opaque is hidden",
			opaque:      []pas.Draw{quadDraw(mgl32.Ident3(), 0.2, red, green)},
			translucent: []pas.Draw{quadDraw(mgl32.Ident3(), 0.5, pas.RGBA(0, 1, 0, 0.5), pas.RGBA(0, 1, 0, 0.5))},
			want:        rgba(red),
		},
		{
			name:        "translucent in front blends",
			opaque:      []pas.Draw{quadDraw(mgl32.Ident3(), 0.8, blue, green)},
			translucent: []pas.Draw{quadDraw(mgl32.Ident3(), 0.5, pas.RGBA(1, 0, 0, 0.5), pas.RGBA(1, 0, 0, 0.5))},
			want:        color.RGBA{R: 128, G: 0, B: 128, A: 255},
		},
		{
			name:   "depth one is drawable",
			opaque: []pas.Draw{quadDraw(mgl32.Ident3(), 1, green, red)},
			want:   rgba(green),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBackend(t, 4, 4, 1)
			img := render(t, b, pas.Black, tt.opaque, tt.translucent)
			if got := img.RGBAAt(1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslucentSharedEdgeBlendsOnce(t *testing.T) {
	// The quad diagonal passes through pixel centers; each sample must be
	// owned by exactly one of the two triangles.
	b, _ := newBackend(t, 8, 8, 1)
	half := pas.RGBA(1, 1, 1, 0.5)
	img := render(t, b, pas.Black, nil, []pas.Draw{quadDraw(mgl32.Ident3(), 0.5, half, half)})

	want := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := range 8 {
		for x := range 8 {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestMultisampleEdgeIsAntialiased(t *testing.T) {
	b, _ := newBackend(t, 8, 8, 4)
	// Shift the quad by a quarter pixel so its right edge cuts column 7.
	m := mgl32.Translate2D(-0.25*2/8, 0)
	img := render(t, b, pas.Black, []pas.Draw{quadDraw(m, 0.5, pas.White, pas.Black)}, nil)

	got := img.RGBAAt(7, 3).R
	if got == 0 || got == 255 {
		t.Errorf("edge pixel red = %d, want partial coverage", got)
	}
	if img.RGBAAt(0, 3).R != 255 {
		t.Errorf("interior pixel = %v, want white", img.RGBAAt(0, 3))
	}
}

func TestGradientModes(t *testing.T) {
	black, white := pas.RGB(0, 0, 0), pas.RGB(1, 1, 1)
	tests := []struct {
		name  string
		mode  pas.RenderMode
		x, y  int
		check func(uint8) bool
	}{
		{"normal uses color1", pas.RenderModeNormal, 15, 8, func(v uint8) bool { return v == 0 }},
		{"linear dark on left", pas.RenderModeLinearGradient, 0, 8, func(v uint8) bool { return v < 16 }},
		{"linear bright on right", pas.RenderModeLinearGradient, 15, 8, func(v uint8) bool { return v > 239 }},
		{"radial dark at center", pas.RenderModeRadialGradient, 8, 8, func(v uint8) bool { return v < 32 }},
		{"radial bright at corner", pas.RenderModeRadialGradient, 0, 0, func(v uint8) bool { return v == 255 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBackend(t, 16, 16, 1)
			d := quadDraw(mgl32.Ident3(), 0.5, black, white)
			d.Mode = tt.mode
			img := render(t, b, pas.RGB(1, 0, 0), []pas.Draw{d}, nil)
			if v := img.RGBAAt(tt.x, tt.y).G; !tt.check(v) {
				t.Errorf("pixel (%d,%d) green = %d", tt.x, tt.y, v)
			}
		})
	}
}

func TestResizeRoundTrip(t *testing.T) {
	b, _ := newBackend(t, 64, 48, 4)
	before := b.TargetSize()
	bytesBefore := b.targets.bytes()

	for _, size := range []image.Point{{32, 24}, {64, 48}} {
		if err := b.Resize(size); err != nil {
			t.Fatal(err)
		}
	}

	if got := b.TargetSize(); got != before {
		t.Errorf("TargetSize() = %v, want %v", got, before)
	}
	if got := b.targets.bytes(); got != bytesBefore {
		t.Errorf("target bytes = %d, want %d", got, bytesBefore)
	}
	if err := b.Resize(image.Pt(0, 10)); err == nil {
		t.Error("Resize to zero area should fail")
	}
}

func TestPresentScalesToWindow(t *testing.T) {
	b, win := newBackend(t, 8, 8, 1)
	win.W, win.H = 16, 4
	img := render(t, b, pas.RGB(0, 1, 0), nil, nil)

	if img.Bounds() != image.Rect(0, 0, 16, 4) {
		t.Fatalf("frame bounds = %v, want 16x4", img.Bounds())
	}
	if got := img.RGBAAt(10, 2); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("scaled pixel = %v, want green", got)
	}
}

func TestDrawOutsideFrame(t *testing.T) {
	b, _ := newBackend(t, 4, 4, 1)
	if err := b.DrawOpaque(nil); err == nil {
		t.Error("DrawOpaque before BeginFrame should fail")
	}
	if err := b.Present(pas.TextureA); err == nil {
		t.Error("Present before BeginFrame should fail")
	}
}

func TestInvalidIndicesAreSkipped(t *testing.T) {
	b, _ := newBackend(t, 4, 4, 1)
	bad := quadDraw(mgl32.Ident3(), 0.5, pas.White, pas.Black)
	bad.Mesh = pas.MeshHandle{VertexOffset: 10, VertexCount: 4, IndexOffset: 0, IndexCount: 6}
	img := render(t, b, pas.Black, []pas.Draw{bad}, nil)
	if got := img.RGBAAt(2, 2); got != rgba(pas.Black) {
		t.Errorf("pixel = %v, want untouched clear color", got)
	}
}

func TestBandedMatchesSerial(t *testing.T) {
	scene := func(b *Backend) *image.RGBA {
		rot := mgl32.HomogRotate2D(0.7).Mul3(mgl32.Scale2D(0.8, 0.5))
		opaque := []pas.Draw{
			quadDraw(rot, 0.6, pas.RGB(1, 0, 0), pas.RGB(0, 1, 0)),
		}
		opaque[0].Mode = pas.RenderModeLinearGradient
		translucent := []pas.Draw{
			quadDraw(mgl32.Scale2D(0.5, 0.9), 0.3, pas.RGBA(0, 0, 1, 0.5), pas.RGBA(0, 0, 1, 0.5)),
			quadDraw(mgl32.Translate2D(0.2, 0.2).Mul3(mgl32.Scale2D(0.4, 0.4)), 0.2, pas.RGBA(1, 1, 0, 0.25), pas.RGBA(1, 1, 0, 0.25)),
		}
		return render(t, b, pas.Black, opaque, translucent)
	}

	withPool := func(workers int) *image.RGBA {
		b, _ := newBackend(t, 48, 160, 4)
		b.pool.Close()
		b.pool = parallel.NewWorkerPool(workers)
		return scene(b)
	}

	serial := withPool(1)
	banded := withPool(4)
	for i := range serial.Pix {
		if serial.Pix[i] != banded.Pix[i] {
			x, y := (i/4)%48, i/(4*48)
			t.Fatalf("pixel (%d,%d) differs: serial %v, banded %v", x, y, serial.RGBAAt(x, y), banded.RGBAAt(x, y))
		}
	}
}
