// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package canvas

import (
	"image"
	"image/color"
)

// pixmap adapts an *image.RGBA to the rasterizer with premultiplied
// source-over blending.
type pixmap struct {
	img *image.RGBA
}

func (p pixmap) Width() int  { return p.img.Rect.Dx() }
func (p pixmap) Height() int { return p.img.Rect.Dy() }

func (p pixmap) BlendSpan(x, y, n int, c color.RGBA, coverage uint8) {
	if y < 0 || y >= p.Height() {
		return
	}
	if x < 0 {
		n += x
		x = 0
	}
	n = min(n, p.Width()-x)
	if n <= 0 || coverage == 0 {
		return
	}

	sr, sg, sb, sa := c.R, c.G, c.B, c.A
	if coverage != 255 {
		sr, sg, sb, sa = mul8(sr, coverage), mul8(sg, coverage), mul8(sb, coverage), mul8(sa, coverage)
	}
	if sa == 0 {
		return
	}

	off := p.img.PixOffset(p.img.Rect.Min.X+x, p.img.Rect.Min.Y+y)
	row := p.img.Pix[off : off+4*n : off+4*n]
	if sa == 255 {
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = sr, sg, sb, 255
		}
		return
	}
	inv := 255 - sa
	for i := 0; i < len(row); i += 4 {
		row[i] = add8(sr, mul8(row[i], inv))
		row[i+1] = add8(sg, mul8(row[i+1], inv))
		row[i+2] = add8(sb, mul8(row[i+2], inv))
		row[i+3] = add8(sa, mul8(row[i+3], inv))
	}
}

// mul8 returns a*b/255 rounded.
func mul8(a, b uint8) uint8 {
	t := uint32(a)*uint32(b) + 128
	return uint8((t + t>>8) >> 8) //nolint:gosec // at most 255
}

// add8 adds with saturation; colors that are not validly premultiplied
// would otherwise wrap.
func add8(a, b uint8) uint8 {
	return uint8(min(uint16(a)+uint16(b), 255)) //nolint:gosec // clamped
}
