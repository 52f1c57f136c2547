package pas

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func apply(m mgl32.Mat3, x, y float32) mgl32.Vec2 {
	v := m.Mul3x1(mgl32.Vec3{x, y, 1})
	return mgl32.Vec2{v.X(), v.Y()}
}

// near compares componentwise with an absolute tolerance; mgl32's
// ApproxEqual family goes relative around zero.
func near(a, b mgl32.Vec2, tol float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) >= tol {
			return false
		}
	}
	return true
}

func TestCameraTransform_IdentityCamera(t *testing.T) {
	m := CameraTransform(DefaultCamera(), 1)
	if !m.ApproxEqual(mgl32.Ident3()) {
		t.Fatalf("identity camera = %v, want identity", m)
	}

	// A unit circle maps to a unit circle.
	for i := range 16 {
		a := float64(i) * 2 * math.Pi / 16
		p := apply(m, float32(math.Cos(a)), float32(math.Sin(a)))
		if r := p.Len(); math.Abs(float64(r)-1) > 1e-5 {
			t.Errorf("point %d at radius %v, want 1", i, r)
		}
	}
}

func TestCameraTransform(t *testing.T) {
	tests := []struct {
		name   string
		cam    CameraData
		aspect float32
		in     mgl32.Vec2
		want   mgl32.Vec2
	}{
		{"translation centers position", CameraData{Position: mgl32.Vec2{3, -2}, Scale: 1}, 1, mgl32.Vec2{3, -2}, mgl32.Vec2{0, 0}},
		{"scale is half-height", CameraData{Scale: 5}, 1, mgl32.Vec2{0, 5}, mgl32.Vec2{0, 1}},
		{"aspect squeezes x", DefaultCamera(), 2, mgl32.Vec2{2, 1}, mgl32.Vec2{1, 1}},
		{"rotation counter-rotates world", CameraData{Scale: 1, Rotation: math.Pi / 2}, 1, mgl32.Vec2{0, 1}, mgl32.Vec2{1, 0}},
		{"translated and scaled", CameraData{Position: mgl32.Vec2{10, 0}, Scale: 2}, 1, mgl32.Vec2{12, 2}, mgl32.Vec2{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(CameraTransform(tt.cam, tt.aspect), tt.in.X(), tt.in.Y())
			if !near(got, tt.want, 1e-5) {
				t.Errorf("transform(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCameraTransform_DegenerateInputs(t *testing.T) {
	// Bad aspect falls back to 1.
	for _, aspect := range []float32{0, -1, float32(math.Inf(1)), float32(math.NaN())} {
		if m := CameraTransform(DefaultCamera(), aspect); !m.ApproxEqual(mgl32.Ident3()) {
			t.Errorf("aspect %v: got %v, want identity", aspect, m)
		}
	}

	// Zero scale cannot be inverted; only the aspect correction remains.
	m := CameraTransform(CameraData{Scale: 0}, 2)
	if !m.ApproxEqual(mgl32.Scale2D(0.5, 1)) {
		t.Errorf("zero scale: got %v, want aspect correction", m)
	}
}

func TestAspect(t *testing.T) {
	tests := []struct {
		w, h int
		want float32
	}{
		{1280, 720, 1280.0 / 720.0},
		{100, 100, 1},
		{0, 100, 1},
		{100, 0, 1},
	}
	for _, tt := range tests {
		if got := Aspect(tt.w, tt.h); got != tt.want {
			t.Errorf("Aspect(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
