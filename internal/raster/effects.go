package raster

import (
	"image"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/filter"
)

// hueShiftEffect rotates hues with a color matrix.
type hueShiftEffect struct {
	b *Backend
}

func (e *hueShiftEffect) Name() string { return "hue-shift" }

func (e *hueShiftEffect) Process(_ image.Point, p *pas.PostProcessing, in, out pas.TextureID) (bool, error) {
	if !p.HueShiftActive() {
		return false, nil
	}
	filter.NewHueRotateFilter(p.HueShift).Apply(e.b.texture(in), e.b.texture(out))
	return true, nil
}

// bloomEffect adds blurred highlights. The filter keeps its scratch images
// across frames and regrows them when the size changes.
type bloomEffect struct {
	b      *Backend
	filter filter.BloomFilter
}

func (e *bloomEffect) Name() string { return "bloom" }

func (e *bloomEffect) Process(size image.Point, p *pas.PostProcessing, in, out pas.TextureID) (bool, error) {
	if !p.Bloom.Active() {
		return false, nil
	}
	e.filter.Threshold = pas.BloomThreshold
	e.filter.Intensity = p.Bloom.Intensity
	e.filter.Radius = p.Bloom.BlurRadius(size.Y)
	e.filter.Apply(e.b.texture(in), e.b.texture(out))
	return true, nil
}
