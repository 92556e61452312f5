// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewPixmapTarget(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"small", 100, 100},
		{"medium", 800, 600},
		{"large", 1920, 1080},
		{"wide", 1000, 100},
		{"tall", 100, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewPixmapTarget(tt.width, tt.height)

			if target.Width() != tt.width {
				t.Errorf("Width() = %d, want %d", target.Width(), tt.width)
			}
			if target.Height() != tt.height {
				t.Errorf("Height() = %d, want %d", target.Height(), tt.height)
			}
			if target.Format() != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("Format() = %v, want RGBA8Unorm", target.Format())
			}
			if target.Pixels() == nil {
				t.Error("Pixels() should not be nil for CPU target")
			}
			if target.Stride() != tt.width*4 {
				t.Errorf("Stride() = %d, want %d", target.Stride(), tt.width*4)
			}
			if d := target.Descriptor(); d.DepthStencil != gputypes.TextureFormatDepth24PlusStencil8 {
				t.Errorf("DepthStencil = %v, want Depth24PlusStencil8", d.DepthStencil)
			}
		})
	}
}

func TestPixmapTargetDescriptorFormat(t *testing.T) {
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		want   gputypes.TextureFormat
	}{
		{"undefined defaults to rgba", gputypes.TextureFormatUndefined, gputypes.TextureFormatRGBA8Unorm},
		{"rgba", gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8Unorm},
		{"bgra", gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8Unorm},
		{"r8", gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Unorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := DefaultTargetDescriptor(2, 2)
			desc.Format = tt.format
			if got := NewPixmapTargetWithDescriptor(desc).Format(); got != tt.want {
				t.Errorf("Format() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPixmapTargetClear(t *testing.T) {
	target := NewPixmapTarget(10, 10)

	target.Clear(color.RGBA{0, 0, 255, 255})

	img := target.Image()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if got := img.RGBAAt(x, y); got != (color.RGBA{0, 0, 255, 255}) {
				t.Fatalf("pixel (%d, %d) = %v, want blue", x, y, got)
			}
		}
	}

	target.Clear(color.Transparent)
	if got := img.RGBAAt(5, 5); got.A != 0 {
		t.Errorf("pixel after transparent clear = %v", got)
	}
}

func TestImageOf(t *testing.T) {
	target := NewPixmapTarget(4, 3)
	img := ImageOf(target)
	if img != target.Image() {
		t.Error("ImageOf should return the pixmap image")
	}

	// A target without an Image method is wrapped around its pixels.
	wrapped := ImageOf(pixelsOnly{target})
	if wrapped == nil {
		t.Fatal("ImageOf returned nil for a CPU target")
	}
	if &wrapped.Pix[0] != &target.Pixels()[0] {
		t.Error("wrapped image should share pixel memory")
	}
	if wrapped.Bounds().Dx() != 4 || wrapped.Bounds().Dy() != 3 {
		t.Errorf("wrapped bounds = %v", wrapped.Bounds())
	}
}

type pixelsOnly struct{ t *PixmapTarget }

func (p pixelsOnly) Width() int                     { return p.t.Width() }
func (p pixelsOnly) Height() int                    { return p.t.Height() }
func (p pixelsOnly) Format() gputypes.TextureFormat { return p.t.Format() }
func (p pixelsOnly) Pixels() []byte                 { return p.t.Pixels() }
func (p pixelsOnly) Stride() int                    { return p.t.Stride() }
