package filter

import "sync"

// BlurFilter applies separable Gaussian blur to an image.
// The separable algorithm processes horizontal and vertical passes
// independently, achieving O(w*h*r) complexity instead of O(w*h*r²).
type BlurFilter struct {
	// Radius is the blur radius (Gaussian sigma) in pixels.
	Radius float32
}

// NewBlurFilter creates a new blur filter.
func NewBlurFilter(radius float32) *BlurFilter {
	return &BlurFilter{Radius: radius}
}

// Apply blurs src into dst. dst is resized to match src and must not be
// the same image as src.
//
// The operation uses a two-pass separable algorithm:
//  1. Horizontal pass: convolve each row into a temporary buffer
//  2. Vertical pass: convolve each column of the buffer into dst
//
// Samples outside the image are clamped to the edge.
func (f *BlurFilter) Apply(src, dst *Image) {
	if dst.Width != src.Width || dst.Height != src.Height {
		dst.Resize(src.Width, src.Height)
	}
	if !(f.Radius > 0) {
		copy(dst.Pix, src.Pix)
		return
	}

	kernel := CachedGaussianKernel(f.Radius)
	temp := getTempBuffer(len(src.Pix))
	defer putTempBuffer(temp)

	blurHorizontal(src, temp, kernel)
	blurVertical(temp, dst, kernel)
}

// blurHorizontal convolves each row of src into temp.
func blurHorizontal(src *Image, temp []float32, kernel []float32) {
	half := len(kernel) / 2
	width := src.Width
	data := src.Pix

	for y := range src.Height {
		row := y * width
		for x := range width {
			var r, g, b, a float32
			for k, weight := range kernel {
				kx := min(max(x+k-half, 0), width-1)
				i := (row + kx) * 4
				r += data[i] * weight
				g += data[i+1] * weight
				b += data[i+2] * weight
				a += data[i+3] * weight
			}
			t := (row + x) * 4
			temp[t] = r
			temp[t+1] = g
			temp[t+2] = b
			temp[t+3] = a
		}
	}
}

// blurVertical convolves each column of temp into dst.
func blurVertical(temp []float32, dst *Image, kernel []float32) {
	half := len(kernel) / 2
	width, height := dst.Width, dst.Height
	data := dst.Pix

	for y := range height {
		for x := range width {
			var r, g, b, a float32
			for k, weight := range kernel {
				ky := min(max(y+k-half, 0), height-1)
				i := (ky*width + x) * 4
				r += temp[i] * weight
				g += temp[i+1] * weight
				b += temp[i+2] * weight
				a += temp[i+3] * weight
			}
			d := (y*width + x) * 4
			data[d] = clamp01(r)
			data[d+1] = clamp01(g)
			data[d+2] = clamp01(b)
			data[d+3] = clamp01(a)
		}
	}
}

// floatBuffer wraps a slice for sync.Pool to avoid allocation warnings.
type floatBuffer struct {
	data []float32
}

// Temporary buffer pool for blur operations.
var tempBufferPool = sync.Pool{
	New: func() any {
		return &floatBuffer{data: make([]float32, 1280*720*4)}
	},
}

// getTempBuffer retrieves a temporary buffer of n elements from the pool.
// The contents are unspecified; callers overwrite every element.
func getTempBuffer(n int) []float32 {
	wrapper := tempBufferPool.Get().(*floatBuffer)
	if len(wrapper.data) < n {
		tempBufferPool.Put(wrapper)
		return make([]float32, n)
	}
	return wrapper.data[:n]
}

// putTempBuffer returns a temporary buffer to the pool.
func putTempBuffer(buf []float32) {
	// Only pool reasonably-sized buffers (up to 4K RGBA).
	if cap(buf) <= 3840*2160*4 {
		tempBufferPool.Put(&floatBuffer{data: buf[:cap(buf)]})
	}
}
