// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sceneframe

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/sceneframe/render"
)

// Format is the pixel layout of an Image.
type Format uint8

// Pixel formats. Color channels are premultiplied by alpha.
const (
	FormatRGBA Format = iota // 4 bytes: R, G, B, A
	FormatRGB                // 3 bytes: R, G, B
	FormatBGRA               // 4 bytes: B, G, R, A
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatRGB:
		return "rgb"
	case FormatBGRA:
		return "bgra"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	for _, f := range []Format{FormatRGBA, FormatRGB, FormatBGRA} {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// BytesPerPixel returns the size of one pixel, or 0 for unknown formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA, FormatBGRA:
		return 4
	case FormatRGB:
		return 3
	default:
		return 0
	}
}

// textureFormat returns the render target format frames are rendered in.
func (f Format) textureFormat() gputypes.TextureFormat {
	if f == FormatBGRA {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// Image is a rendered frame owned by the caller.
type Image struct {
	// Pix holds Height rows of Width pixels, tightly packed.
	Pix []byte

	// Alpha holds one alpha byte per pixel when requested, nil otherwise.
	Alpha []byte

	Format Format
	Width  int
	Height int
}

// RGBA returns the image as an *image.RGBA.
func (img *Image) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	bpp := img.Format.BytesPerPixel()
	for i, j := 0, 0; i+bpp <= len(img.Pix); i, j = i+bpp, j+4 {
		p := img.Pix[i : i+bpp]
		switch img.Format {
		case FormatRGBA:
			copy(out.Pix[j:j+4], p)
		case FormatBGRA:
			out.Pix[j], out.Pix[j+1], out.Pix[j+2], out.Pix[j+3] = p[2], p[1], p[0], p[3]
		case FormatRGB:
			out.Pix[j], out.Pix[j+1], out.Pix[j+2], out.Pix[j+3] = p[0], p[1], p[2], 0xff
		}
	}
	return out
}

// convert copies frame into a new Image of the given size and format,
// scaling when the frame was rendered at another pixel ratio.
func convert(frame *render.Frame, width, height int, format Format, wantAlpha bool) (*Image, error) {
	out := &Image{Format: format, Width: width, Height: height}

	if frame.Width == width && frame.Height == height &&
		frame.Stride == width*4 && frame.Format == format.textureFormat() && format.BytesPerPixel() == 4 {
		out.Pix = bytes.Clone(frame.Pix[:width*height*4])
		if wantAlpha {
			out.Alpha = alphaOf(frame.Pix, frame.Stride, width, height)
		}
		return out, nil
	}

	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	if frame.Width != width || frame.Height != height {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	bpp := format.BytesPerPixel()
	out.Pix = make([]byte, width*height*bpp)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+width*4]
		dst := out.Pix[y*width*bpp : (y+1)*width*bpp]
		for x := 0; x < width; x++ {
			s, d := src[x*4:x*4+4], dst[x*bpp:x*bpp+bpp]
			switch format {
			case FormatRGBA:
				copy(d, s)
			case FormatBGRA:
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			case FormatRGB:
				d[0], d[1], d[2] = s[0], s[1], s[2]
			}
		}
	}
	if wantAlpha {
		out.Alpha = alphaOf(img.Pix, img.Stride, width, height)
	}
	return out, nil
}

// alphaOf extracts the alpha bytes of 4-byte pixels with alpha last.
func alphaOf(pix []byte, stride, width, height int) []byte {
	alpha := make([]byte, width*height)
	for y := 0; y < height; y++ {
		row := pix[y*stride:]
		for x := 0; x < width; x++ {
			alpha[y*width+x] = row[x*4+3]
		}
	}
	return alpha
}
