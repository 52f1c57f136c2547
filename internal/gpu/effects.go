//go:build !nogpu

package gpu

import (
	"image"

	pas "github.com/RTMecha/ParallelAnimationSystem"
	"github.com/RTMecha/ParallelAnimationSystem/internal/filter"
	"github.com/RTMecha/ParallelAnimationSystem/internal/gpu/shaders"
)

// hueShiftEffect rotates hues in one fullscreen pass. The rotation matrix
// is the one the CPU filter uses.
type hueShiftEffect struct {
	b   *Backend
	buf [48]byte
}

func (e *hueShiftEffect) Name() string { return "hue-shift" }

func (e *hueShiftEffect) Process(_ image.Point, p *pas.PostProcessing, in, out pas.TextureID) (bool, error) {
	if !p.HueShiftActive() {
		return false, nil
	}
	packMat3(e.buf[:], filter.HueRotateMatrix(p.HueShift))
	if err := e.b.writeSlot(slotHue, e.buf[:]); err != nil {
		return false, err
	}
	if err := e.b.postPass(shaders.HueShift, e.b.view(in), nil, e.b.view(out), slotHue); err != nil {
		return false, err
	}
	return true, nil
}

// bloomEffect runs four passes: bright pass into the bright texture, a
// horizontal blur into scratch, a vertical blur back into bright and the
// additive combine of in and bright into out.
type bloomEffect struct {
	b   *Backend
	buf [16]byte
}

func (e *bloomEffect) Name() string { return "bloom" }

func (e *bloomEffect) Process(size image.Point, p *pas.PostProcessing, in, out pas.TextureID) (bool, error) {
	if !p.Bloom.Active() {
		return false, nil
	}
	b := e.b
	radius := p.Bloom.BlurRadius(size.Y)

	uniforms := []struct {
		slot int
		v    [4]float32
	}{
		{slotThreshold, [4]float32{pas.BloomThreshold, 0, 0, 0}},
		{slotBlurH, [4]float32{1, 0, radius, 0}},
		{slotBlurV, [4]float32{0, 1, radius, 0}},
		{slotCombine, [4]float32{p.Bloom.Intensity, 0, 0, 0}},
	}
	for _, u := range uniforms {
		for i, v := range u.v {
			putF32(e.buf[:], i*4, v)
		}
		if err := b.writeSlot(u.slot, e.buf[:]); err != nil {
			return false, err
		}
	}

	bright, scratch := b.targets.bright.view, b.targets.scratch.view
	if err := b.postPass(shaders.BloomThreshold, b.view(in), nil, bright, slotThreshold); err != nil {
		return false, err
	}
	if err := b.postPass(shaders.Blur, bright, nil, scratch, slotBlurH); err != nil {
		return false, err
	}
	if err := b.postPass(shaders.Blur, scratch, nil, bright, slotBlurV); err != nil {
		return false, err
	}
	if err := b.postPass(shaders.BloomCombine, b.view(in), bright, b.view(out), slotCombine); err != nil {
		return false, err
	}
	return true, nil
}
