//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/RTMecha/ParallelAnimationSystem/internal/gpu/shaders"
)

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	b, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// createShader loads the named shader and creates a module for it. Vulkan
// receives SPIR-V compiled here; other backends translate WGSL themselves.
func createShader(dev hal.Device, variant gputypes.Backend, name string) (hal.ShaderModule, error) {
	src, err := shaders.Load(name)
	if err != nil {
		return nil, err
	}

	source := hal.ShaderSource{WGSL: src}
	if variant == gputypes.BackendVulkan {
		words, err := compileSPIRV(src)
		if err != nil {
			return nil, fmt.Errorf("gpu: compile %s shader: %w", name, err)
		}
		source = hal.ShaderSource{SPIRV: words}
	}

	module, err := dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name + "_shader",
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s shader module: %w", name, err)
	}
	return module, nil
}
