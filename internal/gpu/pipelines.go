//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/RTMecha/ParallelAnimationSystem/internal/gpu/shaders"
)

// vertexStride is the byte stride of a mesh vertex (vec2<f32>).
const vertexStride = 8

// pipelines holds every shader module, layout and pipeline of the backend.
type pipelines struct {
	modules map[string]hal.ShaderModule

	drawLayout     hal.BindGroupLayout
	drawPipeLayout hal.PipelineLayout
	opaque         hal.RenderPipeline
	translucent    hal.RenderPipeline

	postLayout     hal.BindGroupLayout
	postPipeLayout hal.PipelineLayout
	post           map[string]hal.RenderPipeline
}

// newPipelines compiles all shaders and builds the geometry and
// post-processing pipelines. Partially created objects are destroyed on
// error.
func newPipelines(dev hal.Device, variant gputypes.Backend, samples uint32) (*pipelines, error) {
	p := &pipelines{
		modules: make(map[string]hal.ShaderModule),
		post:    make(map[string]hal.RenderPipeline),
	}
	if err := p.build(dev, variant, samples); err != nil {
		p.destroy(dev)
		return nil, err
	}
	return p, nil
}

func (p *pipelines) build(dev hal.Device, variant gputypes.Backend, samples uint32) error {
	for _, name := range shaders.Names() {
		m, err := createShader(dev, variant, name)
		if err != nil {
			return err
		}
		p.modules[name] = m
	}

	var err error
	p.drawLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "draw_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   drawUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create draw layout: %w", err)
	}
	p.drawPipeLayout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.drawLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create draw pipeline layout: %w", err)
	}

	p.opaque, err = p.geometryPipeline(dev, "opaque", samples, nil, true)
	if err != nil {
		return err
	}
	alpha := gputypes.BlendStateAlpha()
	p.translucent, err = p.geometryPipeline(dev, "translucent", samples, &alpha, false)
	if err != nil {
		return err
	}

	texEntry := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	p.postLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "post_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			texEntry(0),
			texEntry(1),
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create post layout: %w", err)
	}
	p.postPipeLayout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "post_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.postLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create post pipeline layout: %w", err)
	}

	for _, name := range []string{shaders.HueShift, shaders.BloomThreshold, shaders.Blur, shaders.BloomCombine, shaders.Blit} {
		format := colorFormat
		if name == shaders.Blit {
			format = surfaceFormat
		}
		pipe, err := p.postPipeline(dev, name, format)
		if err != nil {
			return err
		}
		p.post[name] = pipe
	}
	return nil
}

func (p *pipelines) geometryPipeline(dev hal.Device, label string, samples uint32, blend *gputypes.BlendState, writeDepth bool) (hal.RenderPipeline, error) {
	module := p.modules[shaders.Geometry]
	pipe, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: p.drawPipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, Blend: blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: writeDepth,
			DepthCompare:      gputypes.CompareFunctionLessEqual,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s pipeline: %w", label, err)
	}
	return pipe, nil
}

func (p *pipelines) postPipeline(dev hal.Device, name string, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	module := p.modules[name]
	pipe, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  name + "_pipeline",
		Layout: p.postPipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s pipeline: %w", name, err)
	}
	return pipe, nil
}

// destroy releases pipelines, then layouts, then shader modules.
func (p *pipelines) destroy(dev hal.Device) {
	for name, pipe := range p.post {
		dev.DestroyRenderPipeline(pipe)
		delete(p.post, name)
	}
	if p.translucent != nil {
		dev.DestroyRenderPipeline(p.translucent)
		p.translucent = nil
	}
	if p.opaque != nil {
		dev.DestroyRenderPipeline(p.opaque)
		p.opaque = nil
	}
	if p.postPipeLayout != nil {
		dev.DestroyPipelineLayout(p.postPipeLayout)
		p.postPipeLayout = nil
	}
	if p.postLayout != nil {
		dev.DestroyBindGroupLayout(p.postLayout)
		p.postLayout = nil
	}
	if p.drawPipeLayout != nil {
		dev.DestroyPipelineLayout(p.drawPipeLayout)
		p.drawPipeLayout = nil
	}
	if p.drawLayout != nil {
		dev.DestroyBindGroupLayout(p.drawLayout)
		p.drawLayout = nil
	}
	for name, m := range p.modules {
		dev.DestroyShaderModule(m)
		delete(p.modules, name)
	}
}
