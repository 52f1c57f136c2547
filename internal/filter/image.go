package filter

// Image is a float32 RGBA image with four components per pixel in row-major
// order.
type Image struct {
	Width, Height int
	Pix           []float32
}

// NewImage allocates a transparent image.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// Resize changes the dimensions and clears the image, reusing the pixel
// buffer when it is large enough.
func (m *Image) Resize(width, height int) {
	n := width * height * 4
	if cap(m.Pix) >= n {
		m.Pix = m.Pix[:n]
		clear(m.Pix)
	} else {
		m.Pix = make([]float32, n)
	}
	m.Width, m.Height = width, height
}

// At returns the pixel at (x, y).
func (m *Image) At(x, y int) [4]float32 {
	i := (y*m.Width + x) * 4
	return [4]float32{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set stores c at (x, y).
func (m *Image) Set(x, y int, c [4]float32) {
	i := (y*m.Width + x) * 4
	copy(m.Pix[i:i+4], c[:])
}

// Fill sets every pixel to c.
func (m *Image) Fill(c [4]float32) {
	for i := 0; i < len(m.Pix); i += 4 {
		copy(m.Pix[i:i+4], c[:])
	}
}

// CopyFrom copies src into m, resizing m if needed.
func (m *Image) CopyFrom(src *Image) {
	if m.Width != src.Width || m.Height != src.Height {
		m.Resize(src.Width, src.Height)
	}
	copy(m.Pix, src.Pix)
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
