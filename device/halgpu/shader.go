// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sceneframe/internal/cache"
	"github.com/gogpu/sceneframe/render"
)

// fullscreenVertex is prepended to shader effects that declare no vertex
// stage. One oversized triangle covers the whole viewport.
const fullscreenVertex = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i32(idx & 1u) * 4 - 1);
    let y = f32(i32(idx >> 1u) * 4 - 1);
    return vec4<f32>(x, y, 0.0, 1.0);
}
`

// checkShaderSource is compiled on first activation to confirm that the
// device accepts shaders before any frame is rendered.
const checkShaderSource = fullscreenVertex + `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 0.0);
}
`

// maxPipelines bounds the per-context shader pipeline cache.
const maxPipelines = 32

// copyRowAlign is the required BytesPerRow alignment of texture copies.
const copyRowAlign = 256

// moduleSource completes a shader effect into a render module.
func moduleSource(wgsl string) (string, error) {
	if !strings.Contains(wgsl, "fn fs_main") {
		return "", errors.New("halgpu: shader has no fs_main entry point")
	}
	if strings.Contains(wgsl, "fn vs_main") {
		return wgsl, nil
	}
	return fullscreenVertex + wgsl, nil
}

// compileSPIRV translates WGSL to SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("halgpu: compile shader: %w", err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		return nil, fmt.Errorf("halgpu: compile shader: bad SPIR-V length %d", len(spirv))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}

// shaderPipeline is a compiled shader effect. A pipeline whose build failed
// keeps the error so the source is not recompiled every frame.
type shaderPipeline struct {
	module   hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
	err      error
}

func (c *Context) destroyPipeline(p *shaderPipeline) {
	if c.device == nil {
		return
	}
	if p.pipeline != nil {
		c.device.DestroyRenderPipeline(p.pipeline)
	}
	if p.layout != nil {
		c.device.DestroyPipelineLayout(p.layout)
	}
	if p.module != nil {
		c.device.DestroyShaderModule(p.module)
	}
}

func (c *Context) pipelines() *cache.Cache[string, *shaderPipeline] {
	if c.shaders == nil {
		c.shaders = cache.New[string, *shaderPipeline](maxPipelines)
		c.shaders.OnEvict(func(_ string, p *shaderPipeline) { c.destroyPipeline(p) })
	}
	return c.shaders
}

// pipeline returns the render pipeline of a shader effect, building it on
// first use.
func (c *Context) pipeline(wgsl string) (*shaderPipeline, error) {
	shaders := c.pipelines()
	if p, ok := shaders.Get(wgsl); ok {
		return p, p.err
	}
	p := c.buildPipeline(wgsl)
	if p.err != nil {
		c.destroyPipeline(p)
		p = &shaderPipeline{err: p.err}
		slogger().Debug("halgpu: shader rejected", "err", p.err)
	}
	shaders.Set(wgsl, p)
	return p, p.err
}

func (c *Context) buildPipeline(wgsl string) *shaderPipeline {
	p := &shaderPipeline{}
	src, err := moduleSource(wgsl)
	if err != nil {
		p.err = err
		return p
	}
	spirv, err := compileSPIRV(src)
	if err != nil {
		p.err = err
		return p
	}
	p.module, err = c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.label + "_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		p.err = fmt.Errorf("halgpu: create shader module: %w", err)
		return p
	}
	p.layout, err = c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: c.label + "_shader_layout",
	})
	if err != nil {
		p.err = fmt.Errorf("halgpu: create pipeline layout: %w", err)
		return p
	}
	blend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  c.label + "_shader_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		p.err = fmt.Errorf("halgpu: create render pipeline: %w", err)
	}
	return p
}

// RenderShader draws the fragment stage of wgsl over a width x height
// texture and reads the result back.
func (c *Context) RenderShader(wgsl string, width, height int) (*image.RGBA, error) {
	if c.released {
		return nil, errors.New("halgpu: context released")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("halgpu: invalid shader size %dx%d", width, height)
	}
	p, err := c.pipeline(wgsl)
	if err != nil {
		return nil, err
	}

	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive above
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         c.label + "_shader_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader texture: %w", err)
	}
	defer c.device.DestroyTexture(tex)
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         c.label + "_shader_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader view: %w", err)
	}
	defer c.device.DestroyTextureView(view)

	stride := (w*4 + copyRowAlign - 1) / copyRowAlign * copyRowAlign
	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: c.label + "_shader_staging",
		Size:  uint64(stride) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: c.label + "_shader"})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(c.label + "_shader"); err != nil {
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: c.label + "_shader_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: stride, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         size,
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("halgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if err := c.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}

	readback := make([]byte, uint64(stride)*uint64(h))
	if err := c.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("halgpu: shader readback: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], readback[y*int(stride):])
	}
	return img, nil
}

var _ render.ShaderRenderer = (*Context)(nil)
