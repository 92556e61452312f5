// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render paints scene display lists into offscreen render targets.
//
// # Core Types
//
//   - DeviceHandle: GPU device access (gpucontext.DeviceProvider)
//   - RenderTarget: where pixels go; PixmapTarget is the CPU implementation
//   - DisplayList: the draw operations of one polished scene frame
//   - Painter: rasterises a display list at a given device pixel ratio
//   - Compositor: render-thread sync and render phases of a window
//   - Frame: pixels read back from a target
//
// # Threading
//
// A DisplayList is built on the control thread. The compositor copies it in
// Sync while the control thread is blocked, then paints it in Render on the
// render thread. Targets and compositors are only used on the render thread.
//
// # Usage
//
//	c := render.NewCompositor()
//	if err := c.Initialize(render.NullDeviceHandle{}); err != nil {
//	    return err
//	}
//	target := render.NewPixmapTarget(640, 360)
//	c.SetRenderTarget(target)
//	if err := c.Sync(window); err != nil {
//	    return err
//	}
//	if err := c.Render(); err != nil {
//	    return err
//	}
//	img := target.Image()
package render
