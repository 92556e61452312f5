// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package coordinator

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/sceneframe/render"
)

// Command is a unit of work for the render thread.
// The set of commands is closed: Initialize, Render, Resize and Stop.
type Command interface {
	command()
}

// Initialize makes the context current on the render thread and binds the
// compositor to its device.
type Initialize struct{}

// Render produces one frame.
type Render struct {
	Request Request
}

// Resize is accepted and ignored. Targets follow the size of each Render
// request instead.
type Resize struct {
	Size image.Point
}

// Stop releases render-thread resources, hands the context back to the
// control owner and ends the render thread.
type Stop struct{}

func (Initialize) command() {}
func (Render) command()     {}
func (Resize) command()     {}
func (Stop) command()       {}

// Request describes a frame to render.
type Request struct {
	// Width and Height are the logical frame size.
	Width  int
	Height int

	// DevicePixelRatio scales the logical size to the physical target size.
	// Non-positive values mean 1.
	DevicePixelRatio float64

	// Format is the pixel format of the target and the returned frame.
	// TextureFormatUndefined means RGBA8.
	Format gputypes.TextureFormat

	// Source is synced into the compositor while the caller is blocked.
	Source render.SnapshotSource
}

// descriptor returns the target descriptor the request needs.
func (r Request) descriptor() render.TargetDescriptor {
	dpr := r.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	desc := render.DefaultTargetDescriptor(physical(r.Width, dpr), physical(r.Height, dpr))
	if r.Format != gputypes.TextureFormatUndefined {
		desc.Format = r.Format
	}
	desc.Label = "sceneframe"
	return desc
}

func physical(logical int, dpr float64) int {
	return int(float64(logical)*dpr + 0.5)
}
