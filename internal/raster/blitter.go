// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "image/color"

const (
	supersampleShift = 2
	supersampleScale = 1 << supersampleShift
	supersampleMask  = supersampleScale - 1
)

// superBlitter accumulates the coverage of supersampled spans for one pixel
// row and blends the row into the target when the rasterizer moves on.
type superBlitter struct {
	dst   Target
	color color.RGBA
	runs  *alphaRuns

	left  int // pixel x of runs[0]
	width int
	top   int

	row     int // pixel row being accumulated; top-1 when none
	sy      int // supersampled row of the last span
	offsetX int // alphaRuns.add search hint for sy
}

// newSuperBlitter returns nil when the bounds are empty.
func newSuperBlitter(dst Target, c color.RGBA, left, top, right, bottom int) *superBlitter {
	if left >= right || top >= bottom {
		return nil
	}
	width := right - left
	return &superBlitter{
		dst:   dst,
		color: c,
		runs:  newAlphaRuns(width),
		left:  left,
		width: width,
		top:   top,
		row:   top - 1,
		sy:    -1,
	}
}

// blitH adds the supersampled span [x, x+n) on supersampled row sy.
func (sb *superBlitter) blitH(x, sy, n int) {
	superLeft := sb.left << supersampleShift
	if x < superLeft {
		n -= superLeft - x
		x = superLeft
	}
	x -= superLeft
	if limit := sb.width << supersampleShift; x+n > limit {
		n = limit - x
	}
	if n <= 0 {
		return
	}

	if sy != sb.sy {
		sb.offsetX = 0
		sb.sy = sy
	}
	if row := sy >> supersampleShift; row != sb.row {
		sb.flush()
		sb.row = row
	}

	start, stop := x, x+n
	fb := start & supersampleMask
	fe := stop & supersampleMask
	mid := (stop >> supersampleShift) - (start >> supersampleShift) - 1
	switch {
	case mid < 0:
		// Span starts and ends inside one pixel.
		fb = fe - fb
		mid = 0
		fe = 0
	case fb == 0:
		mid++
	default:
		fb = supersampleScale - fb
	}

	// Four sub-rows of 64 sum to 256; the last one gives 63 so a fully
	// covered pixel lands on 255.
	maxValue := uint8((1 << (8 - supersampleShift)) - (((sy & supersampleMask) + 1) >> supersampleShift))

	sb.offsetX = sb.runs.add(start>>supersampleShift, partialAlpha(fb), mid, partialAlpha(fe), maxValue, sb.offsetX)
}

// flush blends the accumulated row into the target.
func (sb *superBlitter) flush() {
	if sb.row < sb.top || sb.runs.empty() {
		return
	}
	runs, alpha := sb.runs.runs, sb.runs.alpha
	for i := 0; i < sb.width; {
		n := int(runs[i])
		if n == 0 {
			break
		}
		if a := alpha[i]; a > 0 {
			sb.dst.BlendSpan(sb.left+i, sb.row, n, sb.color, a)
		}
		i += n
	}
	sb.runs.reset(sb.width)
	sb.offsetX = 0
	sb.row = sb.top - 1
}

// partialAlpha converts 0-3 covered subpixels of one sub-row into alpha.
func partialAlpha(subpixels int) uint8 {
	return uint8(subpixels << (8 - 2*supersampleShift)) //nolint:gosec // at most 48
}
