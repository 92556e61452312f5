// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// RenderTarget defines where rendering output goes.
//
// Targets are created by a render context on the render thread and are only
// touched there. The painter draws through Pixels; GPU contexts mirror the
// pixels into device memory when the target is flushed.
type RenderTarget interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// Pixels returns direct access to pixel data.
	// For RGBA format, each pixel is 4 bytes: R, G, B, A (premultiplied).
	Pixels() []byte

	// Stride returns the number of bytes per row.
	Stride() int
}

// PixmapTarget is a CPU-backed render target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	painter.Paint(target.Image(), list, 1)
type PixmapTarget struct {
	img  *image.RGBA
	desc TargetDescriptor
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return NewPixmapTargetWithDescriptor(DefaultTargetDescriptor(width, height))
}

// NewPixmapTargetWithDescriptor creates a CPU-backed target described by desc.
// Pixels are always 4 bytes wide; desc.Format gives the channel order the
// compositor leaves them in.
func NewPixmapTargetWithDescriptor(desc TargetDescriptor) *PixmapTarget {
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = gputypes.TextureFormatRGBA8Unorm
	}
	return &PixmapTarget{
		img:  image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height)),
		desc: desc,
	}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Format returns the pixel format from the target descriptor.
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return t.desc.Format
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA {
	return t.img
}

// Descriptor returns the descriptor the target was created with.
func (t *PixmapTarget) Descriptor() TargetDescriptor {
	return t.desc
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	if rgba == (color.RGBA{}) {
		clear(t.img.Pix)
		return
	}
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = rgba.R
		pix[i+1] = rgba.G
		pix[i+2] = rgba.B
		pix[i+3] = rgba.A
	}
}

// Ensure PixmapTarget implements RenderTarget.
var _ RenderTarget = (*PixmapTarget)(nil)

// ImageOf returns an *image.RGBA sharing memory with target.
// It returns nil if the target has no CPU-accessible pixels.
func ImageOf(target RenderTarget) *image.RGBA {
	if pt, ok := target.(interface{ Image() *image.RGBA }); ok {
		return pt.Image()
	}
	pix := target.Pixels()
	if pix == nil {
		return nil
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: target.Stride(),
		Rect:   image.Rect(0, 0, target.Width(), target.Height()),
	}
}
