// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/sceneframe/device"
	"github.com/gogpu/sceneframe/internal/cache"
	"github.com/gogpu/sceneframe/render"
)

// Name is the registry name of the backend.
const Name = "vulkan"

// fenceTimeout bounds every wait for queued GPU work.
const fenceTimeout = 5 * time.Second

func init() {
	device.Register(Name, 100, func(opts device.Options) (device.Context, error) {
		c, err := New(opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, Available)
}

var (
	availableOnce sync.Once
	available     bool
)

// Available reports whether a Vulkan adapter can be enumerated.
// The result is computed once.
func Available() bool {
	availableOnce.Do(func() {
		backend, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return
		}
		instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return
		}
		defer instance.Destroy()
		available = len(instance.EnumerateAdapters(nil)) > 0
	})
	return available
}

// Context is a Vulkan render context.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	label    string

	current  *device.Surface
	checked  bool
	released bool
	targets  map[*target]struct{}
	shaders  *cache.Cache[string, *shaderPipeline]
}

// target is a CPU pixmap mirrored by a GPU storage buffer and a staging
// buffer for readback.
type target struct {
	*render.PixmapTarget
	storage hal.Buffer
	staging hal.Buffer
	size    uint64
}

// New opens the first discrete or integrated Vulkan adapter, falling back
// to the first adapter of any type.
func New(opts device.Options) (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("halgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}

	label := opts.Label
	if label == "" {
		label = "sceneframe"
	}
	slogger().Info("halgpu: adapter selected", "adapter", selected.Info.Name, "label", label)

	return &Context{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		label:    label,
		targets:  make(map[*target]struct{}),
	}, nil
}

// Name returns "vulkan".
func (c *Context) Name() string { return Name }

// Adapter returns the name of the selected adapter.
func (c *Context) Adapter() string { return c.adapter }

// MakeCurrent binds the context to s. The first activation checks that the
// device accepts shaders.
func (c *Context) MakeCurrent(s *device.Surface) error {
	if c.released {
		return device.ErrReleased
	}
	if !s.Valid() {
		return device.ErrInvalidSurface
	}
	if !c.checked {
		if err := c.checkShaders(); err != nil {
			return err
		}
		c.checked = true
	}
	c.current = s
	return nil
}

func (c *Context) checkShaders() error {
	spirv, err := compileSPIRV(checkShaderSource)
	if err != nil {
		return err
	}
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  c.label + "_check",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create shader module: %w", err)
	}
	c.device.DestroyShaderModule(module)
	slogger().Debug("halgpu: shader toolchain ready", "spirv_words", len(spirv))
	return nil
}

// DoneCurrent unbinds the context.
func (c *Context) DoneCurrent() { c.current = nil }

// DeviceHandle exposes the opened device.
func (c *Context) DeviceHandle() render.DeviceHandle {
	return &provider{ctx: c}
}

// NewTarget creates a pixmap target with GPU storage and staging buffers.
func (c *Context) NewTarget(desc render.TargetDescriptor) (render.RenderTarget, error) {
	if c.released {
		return nil, device.ErrReleased
	}
	if c.current == nil {
		return nil, device.ErrNotCurrent
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("halgpu: invalid target size %dx%d", desc.Width, desc.Height)
	}

	size := uint64(desc.Width) * uint64(desc.Height) * 4
	storage, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: c.label + "_target",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create target buffer: %w", err)
	}
	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: c.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		c.device.DestroyBuffer(storage)
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}

	t := &target{
		PixmapTarget: render.NewPixmapTargetWithDescriptor(desc),
		storage:      storage,
		staging:      staging,
		size:         size,
	}
	c.targets[t] = struct{}{}
	slogger().Debug("halgpu: target created", "width", desc.Width, "height", desc.Height, "bytes", size)
	return t, nil
}

// Flush uploads the painted pixels and copies them into the staging buffer,
// then blocks until the queue has finished.
func (c *Context) Flush(rt render.RenderTarget) error {
	t, err := c.own(rt)
	if err != nil {
		return err
	}

	c.queue.WriteBuffer(t.storage, 0, t.Pixels()[:t.size])

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: c.label + "_flush"})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(c.label + "_flush"); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(t.storage, t.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: t.size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	return c.submitAndWait(cmdBuf)
}

// submitAndWait submits cmdBuf and blocks until the queue has finished it.
func (c *Context) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("halgpu: create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)
	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("halgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("halgpu: wait for GPU: timed out after %v", fenceTimeout)
	}
	return nil
}

// ReadPixels reads the staging buffer filled by the last Flush.
func (c *Context) ReadPixels(rt render.RenderTarget, dst []byte) error {
	t, err := c.own(rt)
	if err != nil {
		return err
	}
	if uint64(len(dst)) < t.size {
		return device.ErrShortBuffer
	}
	if err := c.queue.ReadBuffer(t.staging, 0, dst[:t.size]); err != nil {
		return fmt.Errorf("halgpu: readback: %w", err)
	}
	return nil
}

// ReleaseTarget destroys the GPU buffers of rt.
func (c *Context) ReleaseTarget(rt render.RenderTarget) {
	t, ok := rt.(*target)
	if !ok || c.released {
		return
	}
	if _, live := c.targets[t]; !live {
		return
	}
	c.destroyTarget(t)
}

func (c *Context) destroyTarget(t *target) {
	c.device.DestroyBuffer(t.staging)
	c.device.DestroyBuffer(t.storage)
	delete(c.targets, t)
}

// Release destroys every target and shader pipeline, the device and the
// instance.
func (c *Context) Release() error {
	if c.released {
		return nil
	}
	for t := range c.targets {
		c.destroyTarget(t)
	}
	if c.shaders != nil {
		c.shaders.Clear()
	}
	c.device.Destroy()
	c.instance.Destroy()
	c.device = nil
	c.queue = nil
	c.instance = nil
	c.current = nil
	c.released = true
	slogger().Info("halgpu: context released", "adapter", c.adapter)
	return nil
}

func (c *Context) own(rt render.RenderTarget) (*target, error) {
	if c.released {
		return nil, device.ErrReleased
	}
	t, ok := rt.(*target)
	if !ok {
		return nil, device.ErrForeignTarget
	}
	if _, live := c.targets[t]; !live {
		return nil, device.ErrForeignTarget
	}
	return t, nil
}

// provider implements render.DeviceHandle for a Context and exposes the
// HAL device and queue to consumers that understand them.
type provider struct {
	ctx *Context
}

func (p *provider) Device() gpucontext.Device             { return halDevice{p.ctx} }
func (p *provider) Queue() gpucontext.Queue               { return halQueue{p.ctx} }
func (p *provider) Adapter() gpucontext.Adapter           { return halAdapter{p.ctx} }
func (p *provider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// RenderShader runs a shader effect on the context device.
func (p *provider) RenderShader(wgsl string, width, height int) (*image.RGBA, error) {
	return p.ctx.RenderShader(wgsl, width, height)
}

// HalDevice returns the hal.Device.
func (p *provider) HalDevice() any { return p.ctx.device }

// HalQueue returns the hal.Queue.
func (p *provider) HalQueue() any { return p.ctx.queue }

// halDevice adapts the context device to gpucontext.Device. The context
// owns the device; Destroy is a no-op here.
type halDevice struct{ ctx *Context }

func (halDevice) Poll(bool) {}
func (halDevice) Destroy()  {}

type halQueue struct{ ctx *Context }

type halAdapter struct{ ctx *Context }

var (
	_ device.Context        = (*Context)(nil)
	_ render.DeviceHandle   = (*provider)(nil)
	_ render.ShaderRenderer = (*provider)(nil)
)
