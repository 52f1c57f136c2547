package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/config"
)

// maxBacklog is the queue depth above which the producer skips a tick.
const maxBacklog = 3

const circleSegments = 32

type scene struct {
	quad     pas.MeshHandle
	circle   pas.MeshHandle
	triangle pas.MeshHandle
}

func newScene(r *pas.Renderer) *scene {
	return &scene{
		quad:     r.Register(quadMesh()),
		circle:   r.Register(circleMesh(circleSegments)),
		triangle: r.Register(triangleMesh()),
	}
}

func quadMesh() ([]mgl32.Vec2, []uint32) {
	return []mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		[]uint32{0, 1, 2, 0, 2, 3}
}

func triangleMesh() ([]mgl32.Vec2, []uint32) {
	return []mgl32.Vec2{{0, 1}, {-0.866, -0.5}, {0.866, -0.5}},
		[]uint32{0, 1, 2}
}

// circleMesh returns a unit circle as a triangle fan around the origin.
func circleMesh(segments int) ([]mgl32.Vec2, []uint32) {
	vertices := make([]mgl32.Vec2, 0, segments+1)
	indices := make([]uint32, 0, segments*3)
	vertices = append(vertices, mgl32.Vec2{})
	for i := 0; i < segments; i++ {
		a := 2 * math32.Pi * float32(i) / float32(segments)
		vertices = append(vertices, mgl32.Vec2{math32.Cos(a), math32.Sin(a)})
		next := uint32(i+1)%uint32(segments) + 1
		indices = append(indices, 0, uint32(i+1), next)
	}
	return vertices, indices
}

// frame builds the draw list for time t in seconds.
func (s *scene) frame(t float32, d *config.Demo) *pas.DrawList {
	n := d.Meshes
	list := &pas.DrawList{
		Primitives: make([]pas.DrawPrimitive, 0, n+1),
		Camera: pas.CameraData{
			Scale:    1,
			Rotation: 0.1 * math32.Sin(t*0.2),
		},
		Post: pas.PostProcessing{
			HueShift: math32.Mod(t*d.HueSpeed, 360),
			Bloom: pas.BloomParams{
				Intensity: d.BloomIntensity,
				Diffusion: d.BloomDiffusion,
			},
		},
		ClearColor: pas.RGB(0.02, 0.02, 0.05),
	}

	// Backdrop.
	list.Primitives = append(list.Primitives, pas.DrawPrimitive{
		Mesh:      s.circle,
		Transform: mgl32.Scale2D(1.5, 1.5),
		Z:         0.99,
		Mode:      pas.RenderModeRadialGradient,
		Color1:    pas.RGB(0.12, 0.1, 0.25),
		Color2:    pas.RGB(0.02, 0.02, 0.05),
	})

	meshes := [...]pas.MeshHandle{s.quad, s.circle, s.triangle}
	modes := [...]pas.RenderMode{pas.RenderModeNormal, pas.RenderModeLinearGradient, pas.RenderModeRadialGradient}
	for i := 0; i < n; i++ {
		fi := float32(i)
		a := 2*math32.Pi*fi/float32(n) + t*0.5
		orbit := 0.6 + 0.15*math32.Sin(t+fi*0.7)
		size := 0.06 + 0.03*math32.Sin(t*2+fi)

		c1 := hsv(360*fi/float32(n), 0.8, 1)
		c2 := hsv(360*fi/float32(n)+60, 0.9, 0.5)
		if i%2 == 1 {
			c1.A = 0.6
			c2.A = 0.6
		}

		m := mgl32.Translate2D(orbit*math32.Cos(a), orbit*math32.Sin(a)).
			Mul3(mgl32.HomogRotate2D(t + fi)).
			Mul3(mgl32.Scale2D(size, size))
		list.Primitives = append(list.Primitives, pas.DrawPrimitive{
			Mesh:      meshes[i%len(meshes)],
			Transform: m,
			Z:         0.05 + 0.9*fi/float32(n),
			Mode:      modes[i%len(modes)],
			Color1:    c1,
			Color2:    c2,
		})
	}
	return list
}

// hsv converts a hue in degrees, saturation and value to an opaque color.
func hsv(h, s, v float32) pas.Color {
	h = math32.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math32.Abs(math32.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float32
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return pas.RGB(r+m, g+m, b+m)
}

// produce submits one draw list per tick until ctx is done.
func produce(ctx context.Context, r *pas.Renderer, s *scene, demo *atomic.Pointer[config.Demo], rate int) error {
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if r.QueueLen() > maxBacklog {
				continue
			}
			r.Submit(s.frame(float32(now.Sub(start).Seconds()), demo.Load()))
		}
	}
}
