// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"

	"github.com/gogpu/gputypes"
)

// Frame is a rendered raster image read back from a render target.
//
// Pix holds premultiplied pixels, tightly packed (Stride == Width*4).
// A Frame owns its buffer; nothing else refers to it after it is returned.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format gputypes.TextureFormat

	// TargetID identifies the render target the frame was read from.
	// Consecutive frames of the same size share an ID; a recreated target
	// gets a new one.
	TargetID uint64
}

// ErrUnsupportedFormat is returned for frames whose pixel format has no
// CPU-side conversion.
var ErrUnsupportedFormat = errors.New("render: unsupported frame format")

// NewFrame allocates a zeroed RGBA8 frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
		Stride: width * 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
}

// Image returns the frame as an *image.RGBA.
// RGBA8 frames share memory with the result; BGRA8 frames are converted
// into a new buffer.
func (f *Frame) Image() (*image.RGBA, error) {
	img := &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
	switch f.Format {
	case gputypes.TextureFormatRGBA8Unorm:
		return img, nil
	case gputypes.TextureFormatBGRA8Unorm:
		out := image.NewRGBA(img.Rect)
		copy(out.Pix, f.Pix)
		swapRB(out.Pix)
		return out, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Pix = make([]byte, len(f.Pix))
	copy(c.Pix, f.Pix)
	return &c
}

// At returns the premultiplied RGBA bytes of the pixel at (x, y).
func (f *Frame) At(x, y int) [4]byte {
	i := y*f.Stride + x*4
	p := [4]byte{f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]}
	if f.Format == gputypes.TextureFormatBGRA8Unorm {
		p[0], p[2] = p[2], p[0]
	}
	return p
}

func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
