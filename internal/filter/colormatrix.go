package filter

import "github.com/chewxy/math32"

// ColorMatrixFilter applies a 4x5 color transformation matrix to an image.
// The transformation is:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column provides bias values in [0, 1] units.
type ColorMatrixFilter struct {
	// Matrix is the 4x5 transformation matrix in row-major order.
	// [0-4] = row 0 (R), [5-9] = row 1 (G), [10-14] = row 2 (B), [15-19] = row 3 (A)
	Matrix [20]float32
}

// NewColorMatrixFilter creates a color matrix filter with the given matrix.
func NewColorMatrixFilter(matrix [20]float32) *ColorMatrixFilter {
	return &ColorMatrixFilter{Matrix: matrix}
}

// NewIdentityColorMatrix creates a color matrix filter that passes through unchanged.
func NewIdentityColorMatrix() *ColorMatrixFilter {
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			1, 0, 0, 0, 0, // R
			0, 1, 0, 0, 0, // G
			0, 0, 1, 0, 0, // B
			0, 0, 0, 1, 0, // A
		},
	}
}

// Luminance weights used by the hue rotation and the bloom bright pass.
const (
	LumR = 0.213
	LumG = 0.715
	LumB = 0.072
)

// HueRotateMatrix returns the 3x3 row-major RGB matrix that rotates hue by
// degrees while preserving luminance. The GPU backend uploads the same
// matrix.
func HueRotateMatrix(degrees float32) [9]float32 {
	sin, cos := math32.Sincos(degrees * math32.Pi / 180)
	return [9]float32{
		LumR + cos*(1-LumR) + sin*(-LumR), LumG + cos*(-LumG) + sin*(-LumG), LumB + cos*(-LumB) + sin*(1-LumB),
		LumR + cos*(-LumR) + sin*(0.143), LumG + cos*(1-LumG) + sin*(0.140), LumB + cos*(-LumB) + sin*(-0.283),
		LumR + cos*(-LumR) + sin*(-(1 - LumR)), LumG + cos*(-LumG) + sin*(LumG), LumB + cos*(1-LumB) + sin*(LumB),
	}
}

// NewHueRotateFilter creates a filter that rotates hue by the given angle (in degrees).
func NewHueRotateFilter(degrees float32) *ColorMatrixFilter {
	m := HueRotateMatrix(degrees)
	return &ColorMatrixFilter{
		Matrix: [20]float32{
			m[0], m[1], m[2], 0, 0,
			m[3], m[4], m[5], 0, 0,
			m[6], m[7], m[8], 0, 0,
			0, 0, 0, 1, 0,
		},
	}
}

// Apply transforms src into dst. dst is resized to match src; src and dst
// may be the same image.
func (f *ColorMatrixFilter) Apply(src, dst *Image) {
	if dst != src && (dst.Width != src.Width || dst.Height != src.Height) {
		dst.Resize(src.Width, src.Height)
	}
	m := &f.Matrix
	sp, dp := src.Pix, dst.Pix
	for i := 0; i+3 < len(sp); i += 4 {
		r, g, b, a := sp[i], sp[i+1], sp[i+2], sp[i+3]
		dp[i] = clamp01(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
		dp[i+1] = clamp01(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
		dp[i+2] = clamp01(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
		dp[i+3] = clamp01(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
	}
}
