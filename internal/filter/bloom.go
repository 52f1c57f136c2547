package filter

import "github.com/chewxy/math32"

// BloomFilter adds a blurred copy of an image's highlights back onto it.
//
// Pixels brighter than Threshold (by luminance) are extracted with a soft
// knee, blurred with a Gaussian of the given Radius and added to the source
// scaled by Intensity. Alpha is taken from the source.
//
// A BloomFilter keeps its intermediate images between calls; it is not safe
// for concurrent use.
type BloomFilter struct {
	Threshold float32
	Intensity float32
	Radius    float32

	bright  Image
	blurred Image
}

// Apply writes the bloomed image to dst. src and dst must be different
// images of the same size.
func (f *BloomFilter) Apply(src, dst *Image) {
	if dst.Width != src.Width || dst.Height != src.Height {
		dst.Resize(src.Width, src.Height)
	}

	if f.bright.Width != src.Width || f.bright.Height != src.Height {
		f.bright.Resize(src.Width, src.Height)
	}
	BrightPass(src, &f.bright, f.Threshold)

	blur := BlurFilter{Radius: f.Radius}
	blur.Apply(&f.bright, &f.blurred)

	sp, bp, dp := src.Pix, f.blurred.Pix, dst.Pix
	for i := 0; i+3 < len(sp); i += 4 {
		dp[i] = clamp01(sp[i] + bp[i]*f.Intensity)
		dp[i+1] = clamp01(sp[i+1] + bp[i+1]*f.Intensity)
		dp[i+2] = clamp01(sp[i+2] + bp[i+2]*f.Intensity)
		dp[i+3] = sp[i+3]
	}
}

// BrightPass keeps the part of each pixel above threshold luminance.
// A pixel with luminance l contributes its color scaled by
// (l - threshold) / l, so highlights fade in rather than pop.
func BrightPass(src, dst *Image, threshold float32) {
	sp, dp := src.Pix, dst.Pix
	for i := 0; i+3 < len(sp); i += 4 {
		r, g, b := sp[i], sp[i+1], sp[i+2]
		l := LumR*r + LumG*g + LumB*b
		scale := float32(0)
		if l > threshold {
			scale = (l - threshold) / math32.Max(l, 1e-4)
		}
		dp[i] = r * scale
		dp[i+1] = g * scale
		dp[i+2] = b * scale
		dp[i+3] = sp[i+3]
	}
}
