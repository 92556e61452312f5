// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Compositor errors.
var (
	// ErrNotInitialized is returned when the compositor is used before
	// Initialize or after Invalidate.
	ErrNotInitialized = errors.New("render: compositor not initialized")

	// ErrNoTarget is returned by Render when no render target is set.
	ErrNoTarget = errors.New("render: no render target")

	// ErrNoPixels is returned by Render for targets without CPU pixels.
	ErrNoPixels = errors.New("render: target does not support CPU rendering")
)

// Compositor is the render-thread half of a scene window.
//
// Each frame is produced in two phases. Sync copies the display list built
// on the control thread while that thread is blocked; Render then paints the
// copy into the current render target. All methods must be called on the
// render thread.
type Compositor struct {
	device      DeviceHandle
	target      RenderTarget
	list        *DisplayList
	painter     *Painter
	dpr         float64
	initialized bool
}

// NewCompositor creates an uninitialized compositor.
func NewCompositor() *Compositor {
	return &Compositor{dpr: 1}
}

// Initialize binds the compositor to a device. Shader ops are executed on
// the device when it implements ShaderRenderer.
// Calling Initialize on an initialized compositor is a no-op.
func (c *Compositor) Initialize(device DeviceHandle) error {
	if device == nil {
		return errors.New("render: nil device handle")
	}
	if c.initialized {
		return nil
	}
	c.device = device
	c.painter = NewPainter()
	if sr, ok := device.(ShaderRenderer); ok {
		c.painter.SetShaderRenderer(sr)
	}
	c.initialized = true
	return nil
}

// Initialized reports whether Initialize succeeded and Invalidate has not
// been called since.
func (c *Compositor) Initialized() bool {
	return c.initialized
}

// Device returns the device the compositor was initialized with.
func (c *Compositor) Device() DeviceHandle {
	return c.device
}

// SetRenderTarget sets the target that Render paints into.
func (c *Compositor) SetRenderTarget(t RenderTarget) {
	c.target = t
}

// RenderTarget returns the current target.
func (c *Compositor) RenderTarget() RenderTarget {
	return c.target
}

// SetDevicePixelRatio sets the logical-to-physical scale used at paint time.
// Non-positive values reset it to 1.
func (c *Compositor) SetDevicePixelRatio(dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	c.dpr = dpr
}

// Sync copies the current display list from src.
func (c *Compositor) Sync(src SnapshotSource) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if src == nil {
		c.list = nil
		return nil
	}
	c.list = src.Snapshot().Clone()
	return nil
}

// Render clears the target and paints the synced display list into it.
// BGRA targets are painted in RGBA order and swizzled afterwards.
func (c *Compositor) Render() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if c.target == nil {
		return ErrNoTarget
	}
	img := ImageOf(c.target)
	if img == nil {
		return ErrNoPixels
	}
	format := c.target.Format()
	if format != gputypes.TextureFormatRGBA8Unorm && format != gputypes.TextureFormatBGRA8Unorm {
		return ErrUnsupportedFormat
	}
	clear(img.Pix)
	if err := c.painter.Paint(img, c.list, c.dpr); err != nil {
		return err
	}
	if format == gputypes.TextureFormatBGRA8Unorm {
		swapRB(img.Pix)
	}
	return nil
}

// Invalidate releases every resource tied to the device. The compositor
// must be initialized again before further use.
func (c *Compositor) Invalidate() {
	c.painter = nil
	c.list = nil
	c.target = nil
	c.device = nil
	c.initialized = false
}
