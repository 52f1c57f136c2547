package raster

import (
	"image"

	"github.com/RTMecha/ParallelAnimationSystem/internal/filter"
)

// samplePattern returns the subpixel sample positions for a sample count.
// Four samples use the standard rotated-grid pattern; anything else shades
// at the pixel center.
func samplePattern(samples int) [][2]float32 {
	if samples == 4 {
		return [][2]float32{
			{0.375, 0.125},
			{0.875, 0.375},
			{0.125, 0.625},
			{0.625, 0.875},
		}
	}
	return [][2]float32{{0.5, 0.5}}
}

// targetGroup holds every size-dependent image of the software backend.
// It is replaced as a whole on resize.
type targetGroup struct {
	size    image.Point
	samples int

	// color holds samples*4 floats per pixel, depth one float per sample.
	color []float32
	depth []float32

	pingPong [2]*filter.Image
}

func newTargetGroup(size image.Point, samples int) *targetGroup {
	n := size.X * size.Y * samples
	return &targetGroup{
		size:    size,
		samples: samples,
		color:   make([]float32, n*4),
		depth:   make([]float32, n),
		pingPong: [2]*filter.Image{
			filter.NewImage(size.X, size.Y),
			filter.NewImage(size.X, size.Y),
		},
	}
}

// clearRows sets every color sample in rows [y0, y1) to c and every depth
// sample to 1.
func (t *targetGroup) clearRows(c [4]float32, y0, y1 int) {
	lo, hi := y0*t.size.X*t.samples, y1*t.size.X*t.samples
	for i := lo * 4; i < hi*4; i += 4 {
		copy(t.color[i:i+4], c[:])
	}
	depth := t.depth[lo:hi]
	for i := range depth {
		depth[i] = 1
	}
}

// resolveRows averages the samples of each pixel in rows [y0, y1) into dst.
func (t *targetGroup) resolveRows(dst *filter.Image, y0, y1 int) {
	inv := 1 / float32(t.samples)
	stride := t.samples * 4
	for p := y0 * t.size.X; p < y1*t.size.X; p++ {
		var r, g, b, a float32
		base := p * stride
		for s := 0; s < stride; s += 4 {
			r += t.color[base+s]
			g += t.color[base+s+1]
			b += t.color[base+s+2]
			a += t.color[base+s+3]
		}
		d := p * 4
		dst.Pix[d] = r * inv
		dst.Pix[d+1] = g * inv
		dst.Pix[d+2] = b * inv
		dst.Pix[d+3] = a * inv
	}
}

// bytes returns the memory held by the group, for diagnostics.
func (t *targetGroup) bytes() int {
	return (len(t.color) + len(t.depth) + len(t.pingPong[0].Pix) + len(t.pingPong[1].Pix)) * 4
}
