package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// point is a position in pixel space, y down.
type point struct{ x, y float32 }

// edge returns the signed area of (a, b, p) scaled by two. It is positive
// for every p strictly inside a triangle (a, b, c) of positive area.
func edge(a, b, p point) float32 {
	return (p.x-a.x)*(b.y-a.y) - (p.y-a.y)*(b.x-a.x)
}

// ownsEdge breaks ties for samples exactly on the edge a->b. Two triangles
// sharing an edge traverse it in opposite directions, so exactly one of
// them owns samples on it.
func ownsEdge(a, b point) bool {
	dy := b.y - a.y
	return dy < 0 || (dy == 0 && b.x > a.x)
}

func covers(e float32, a, b point) bool {
	return e > 0 || (e == 0 && ownsEdge(a, b))
}

// shade evaluates a primitive's color at a mesh-local position.
func shade(d *pas.Draw, local mgl32.Vec2) [4]float32 {
	switch d.Mode {
	case pas.RenderModeLinearGradient:
		t := clamp01((local.X() + 1) / 2)
		return d.Color1.Lerp(d.Color2, t).Array()
	case pas.RenderModeRadialGradient:
		t := clamp01(local.Len())
		return d.Color1.Lerp(d.Color2, t).Array()
	default:
		return d.Color1.Array()
	}
}

// tri is a non-degenerate triangle in pixel space, wound so its area is
// positive, with the mesh-local positions of its corners.
type tri struct {
	d           *pas.Draw
	v           [3]point
	local       [3]mgl32.Vec2
	area        float32
	translucent bool
}

// appendTriangles transforms every triangle of d's mesh to pixel space and
// appends the ones with area to dst.
func (t *targetGroup) appendTriangles(dst []tri, d *pas.Draw, vertices []mgl32.Vec2, indices []uint32, translucent bool) []tri {
	h := d.Mesh
	if h.IndexOffset < 0 || h.IndexOffset+h.IndexCount > len(indices) {
		return dst
	}
	w, ht := float32(t.size.X), float32(t.size.Y)

	for i := 0; i+2 < h.IndexCount; i += 3 {
		tr := tri{d: d, translucent: translucent}
		valid := true
		for k := range 3 {
			vi := h.VertexOffset + int(indices[h.IndexOffset+i+k])
			if vi < 0 || vi >= len(vertices) {
				valid = false
				break
			}
			tr.local[k] = vertices[vi]
			clip := d.Matrix.Mul3x1(mgl32.Vec3{tr.local[k].X(), tr.local[k].Y(), 1})
			tr.v[k] = point{
				x: (clip.X() + 1) * 0.5 * w,
				y: (1 - clip.Y()) * 0.5 * ht,
			}
		}
		if !valid {
			continue
		}
		tr.area = edge(tr.v[0], tr.v[1], tr.v[2])
		if tr.area == 0 || math32.IsNaN(tr.area) {
			continue
		}
		if tr.area < 0 {
			tr.v[1], tr.v[2] = tr.v[2], tr.v[1]
			tr.local[1], tr.local[2] = tr.local[2], tr.local[1]
			tr.area = -tr.area
		}
		dst = append(dst, tr)
	}
	return dst
}

// fillTriangle rasterizes the rows of tr in [y0, y1). Opaque triangles
// replace color and write depth; translucent ones blend source-over and
// leave depth untouched. Both test depth with less-or-equal.
func (t *targetGroup) fillTriangle(tr *tri, y0, y1 int) {
	v := tr.v
	minX := max(int(math32.Floor(min(v[0].x, v[1].x, v[2].x))), 0)
	maxX := min(int(math32.Ceil(max(v[0].x, v[1].x, v[2].x))), t.size.X-1)
	minY := max(int(math32.Floor(min(v[0].y, v[1].y, v[2].y))), y0)
	maxY := min(int(math32.Ceil(max(v[0].y, v[1].y, v[2].y))), y1-1)

	pattern := samplePattern(t.samples)
	d, z, area := tr.d, tr.d.Z, tr.area

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			var color [4]float32
			shaded := false
			base := (py*t.size.X + px) * t.samples

			for s, off := range pattern {
				p := point{float32(px) + off[0], float32(py) + off[1]}
				if !covers(edge(v[1], v[2], p), v[1], v[2]) ||
					!covers(edge(v[2], v[0], p), v[2], v[0]) ||
					!covers(edge(v[0], v[1], p), v[0], v[1]) {
					continue
				}
				si := base + s
				if !(z <= t.depth[si]) {
					continue
				}
				if !shaded {
					// Shade once per pixel at its center, as multisampling does.
					c := point{float32(px) + 0.5, float32(py) + 0.5}
					w0 := edge(v[1], v[2], c) / area
					w1 := edge(v[2], v[0], c) / area
					w2 := 1 - w0 - w1
					color = shade(d, tr.local[0].Mul(w0).Add(tr.local[1].Mul(w1)).Add(tr.local[2].Mul(w2)))
					shaded = true
				}

				ci := si * 4
				if tr.translucent {
					sa := color[3]
					inv := 1 - sa
					t.color[ci] = color[0]*sa + t.color[ci]*inv
					t.color[ci+1] = color[1]*sa + t.color[ci+1]*inv
					t.color[ci+2] = color[2]*sa + t.color[ci+2]*inv
					t.color[ci+3] = sa + t.color[ci+3]*inv
				} else {
					copy(t.color[ci:ci+4], color[:])
					t.depth[si] = z
				}
			}
		}
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
