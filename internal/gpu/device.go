//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoAdapter is returned when the HAL backend exposes no adapters.
var ErrNoAdapter = errors.New("gpu: no adapter found")

// device bundles the HAL objects opened for one backend instance.
type device struct {
	variant  gputypes.Backend
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
	limits   gputypes.Limits
}

// openDevice creates an instance on api (or the best registered backend
// when api is nil) and opens a discrete or integrated adapter if one is
// exposed, otherwise the first adapter.
func openDevice(api hal.Backend) (*device, error) {
	if api == nil {
		best, err := hal.SelectBestBackend()
		if err != nil {
			return nil, fmt.Errorf("gpu: select backend: %w", err)
		}
		api = best
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := gputypes.DefaultLimits()
	open, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	return &device{
		variant:  api.Variant(),
		instance: instance,
		adapter:  selected.Adapter,
		device:   open.Device,
		queue:    open.Queue,
		info:     selected.Info,
		limits:   limits,
	}, nil
}

// uniformAlign returns the dynamic uniform offset alignment.
func (d *device) uniformAlign() uint64 {
	if a := d.limits.MinUniformBufferOffsetAlignment; a > 0 {
		return uint64(a)
	}
	return 256
}

// destroy releases the device, adapter and instance in that order.
func (d *device) destroy() {
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Destroy()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
