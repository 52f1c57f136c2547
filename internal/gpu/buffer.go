//go:build !nogpu

package gpu

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// minBufferSize is the smallest allocation made for a growable buffer.
const minBufferSize = 256

// growBuffer is a device buffer that is reallocated to the next power of
// two when a write does not fit. Its contents are not preserved across a
// reallocation; every user rewrites the whole buffer.
type growBuffer struct {
	label string
	usage gputypes.BufferUsage
	buf   hal.Buffer
	size  uint64
}

func newGrowBuffer(label string, usage gputypes.BufferUsage) growBuffer {
	return growBuffer{label: label, usage: usage | gputypes.BufferUsageCopyDst}
}

// capacityFor returns the allocation size for n bytes.
func capacityFor(n uint64) uint64 {
	if n <= minBufferSize {
		return minBufferSize
	}
	return 1 << bits.Len64(n-1)
}

// ensure makes the buffer at least n bytes long. It reports whether a new
// buffer was allocated. The caller must make sure the GPU no longer uses
// the old buffer.
func (b *growBuffer) ensure(dev hal.Device, n uint64) (bool, error) {
	if b.buf != nil && b.size >= n {
		return false, nil
	}
	size := capacityFor(n)
	buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label,
		Size:  size,
		Usage: b.usage,
	})
	if err != nil {
		return false, fmt.Errorf("gpu: create %s buffer (%d bytes): %w", b.label, size, err)
	}
	old := b.size
	b.destroy(dev)
	b.buf, b.size = buf, size
	slogger().Info("buffer resized", "backend", "gpu", "buffer", b.label, "from", old, "to", size)
	return true, nil
}

// write grows the buffer to fit data and uploads it at offset zero.
func (b *growBuffer) write(dev hal.Device, q hal.Queue, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := b.ensure(dev, uint64(len(data))); err != nil {
		return err
	}
	if err := q.WriteBuffer(b.buf, 0, data); err != nil {
		return fmt.Errorf("gpu: write %s buffer: %w", b.label, err)
	}
	return nil
}

func (b *growBuffer) destroy(dev hal.Device) {
	if b.buf != nil {
		dev.DestroyBuffer(b.buf)
		b.buf = nil
	}
	b.size = 0
}
