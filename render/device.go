// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access to the compositor.
//
// A render context hands its device to the compositor when the render thread
// initializes it. CPU-only contexts return NullDeviceHandle.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so that any
// gpucontext host can drive a compositor.
type DeviceHandle = gpucontext.DeviceProvider

// TargetDescriptor describes an offscreen render target.
type TargetDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the physical target size in pixels,
	// i.e. the logical size multiplied by the device pixel ratio.
	Width  int
	Height int

	// Format is the color attachment format.
	Format gputypes.TextureFormat

	// DepthStencil is the format of the combined depth/stencil attachment.
	// TextureFormatUndefined means the target has none.
	DepthStencil gputypes.TextureFormat

	// SampleCount is the number of samples per pixel. Use 1 for no
	// multisampling.
	SampleCount uint32
}

// DefaultTargetDescriptor returns a descriptor for an RGBA8 target with a
// combined depth/stencil attachment and no multisampling.
func DefaultTargetDescriptor(width, height int) TargetDescriptor {
	return TargetDescriptor{
		Width:        width,
		Height:       height,
		Format:       gputypes.TextureFormatRGBA8Unorm,
		DepthStencil: gputypes.TextureFormatDepth24PlusStencil8,
		SampleCount:  1,
	}
}

// Matches reports whether a target described by d can be reused for a
// request described by other. Targets are never resized in place.
func (d TargetDescriptor) Matches(other TargetDescriptor) bool {
	return d.Width == other.Width &&
		d.Height == other.Height &&
		d.Format == other.Format &&
		d.DepthStencil == other.DepthStencil &&
		d.SampleCount == other.SampleCount
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only rendering where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
