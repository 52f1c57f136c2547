//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	pas "github.com/RTMecha/ParallelAnimationSystem"
)

// drawUniformSize is the size of the WGSL Draw struct:
//
//	transform mat3x3<f32>  three 16-byte columns  offset 0
//	color1    vec4<f32>                            offset 48
//	color2    vec4<f32>                            offset 64
//	z         f32                                  offset 80
//	mode      u32                                  offset 84
//
// rounded up to the struct alignment of 16.
const drawUniformSize = 96

// postSlotSize is the stride of the post-processing uniform slots.
const postSlotSize = 256

// Post-processing uniform slots.
const (
	slotHue = iota
	slotThreshold
	slotBlurH
	slotBlurV
	slotCombine
	slotBlit
	postSlots
)

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func putColor(b []byte, off int, c pas.Color) {
	putF32(b, off, c.R)
	putF32(b, off+4, c.G)
	putF32(b, off+8, c.B)
	putF32(b, off+12, c.A)
}

// packDraw writes d's uniform block into b, which must hold at least
// drawUniformSize bytes. The matrix is column-major, as in mgl32.
func packDraw(b []byte, d *pas.Draw) {
	m := d.Matrix
	for col := 0; col < 3; col++ {
		putF32(b, col*16, m[col*3])
		putF32(b, col*16+4, m[col*3+1])
		putF32(b, col*16+8, m[col*3+2])
		putF32(b, col*16+12, 0)
	}
	putColor(b, 48, d.Color1)
	putColor(b, 64, d.Color2)
	putF32(b, 80, d.Z)
	binary.LittleEndian.PutUint32(b[84:], uint32(d.Mode))
	clear(b[88:drawUniformSize])
}

// packMat3 writes a row-major 3x3 color matrix as a WGSL mat3x3<f32>.
func packMat3(b []byte, m [9]float32) {
	for col := 0; col < 3; col++ {
		putF32(b, col*16, m[col])
		putF32(b, col*16+4, m[3+col])
		putF32(b, col*16+8, m[6+col])
		putF32(b, col*16+12, 0)
	}
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}
