// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster fills flattened paths with anti-aliasing. Coverage is
// computed on a 4x4 supersampling grid and accumulated per pixel row into
// run-length encoded alpha before being blended into the target.
package raster

import (
	"image/color"
	"math"

	"github.com/gogpu/sceneframe/internal/path"
)

// FillRule decides which regions of a self-overlapping path are inside.
type FillRule uint8

const (
	// NonZero fills regions with a non-zero winding number.
	NonZero FillRule = iota
	// EvenOdd fills regions crossed an odd number of times.
	EvenOdd
)

// Target receives coverage spans.
type Target interface {
	Width() int
	Height() int
	// BlendSpan composites the premultiplied color c, scaled by coverage
	// (0-255), over n pixels starting at (x, y).
	BlendSpan(x, y, n int, c color.RGBA, coverage uint8)
}

// Rasterizer converts edges into coverage. It keeps scratch buffers between
// fills and is not safe for concurrent use.
type Rasterizer struct {
	edges []edge
	aet   activeEdges
}

// NewRasterizer creates a rasterizer.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Fill blends c over every pixel of dst covered by the closed polygon
// formed by edges.
func (r *Rasterizer) Fill(dst Target, edges []path.Edge, rule FillRule, c color.RGBA) {
	if c.A == 0 || len(edges) < 2 {
		return
	}

	r.edges = r.edges[:0]
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, pe := range edges {
		if math.Abs(pe.P1.Y-pe.P0.Y) < 1e-9 || !finite(pe.P0) || !finite(pe.P1) {
			continue
		}
		e := newEdge(pe.P0, pe.P1)
		r.edges = append(r.edges, e)
		xMin = math.Min(xMin, math.Min(e.x0, e.x1))
		xMax = math.Max(xMax, math.Max(e.x0, e.x1))
		yMin = math.Min(yMin, e.y0)
		yMax = math.Max(yMax, e.y1)
	}
	if len(r.edges) == 0 {
		return
	}

	w, h := dst.Width(), dst.Height()
	left := max(int(math.Floor(xMin)), 0)
	right := min(int(math.Ceil(xMax)), w)
	top := max(int(math.Floor(yMin)), 0)
	bottom := min(int(math.Ceil(yMax)), h)

	sb := newSuperBlitter(dst, c, left, top, right, bottom)
	if sb == nil {
		return
	}

	for sy := top << supersampleShift; sy < bottom<<supersampleShift; sy++ {
		y := (float64(sy) + 0.5) / supersampleScale
		r.scanline(sb, y, sy, rule, float64(right))
	}
	sb.flush()
}

// scanline collects the edges crossing y and emits the spans inside the
// path on supersampled row sy.
func (r *Rasterizer) scanline(sb *superBlitter, y float64, sy int, rule FillRule, right float64) {
	r.aet.clear()
	for i := range r.edges {
		if e := &r.edges[i]; e.y0 <= y && y < e.y1 {
			r.aet.add(e, y)
		}
	}
	if len(r.aet) < 2 {
		return
	}
	r.aet.sort()

	span := func(x0, x1 float64) {
		x0 = math.Max(x0, 0)
		x1 = math.Min(x1, right)
		sx0 := int(x0 * supersampleScale)
		sx1 := int(x1 * supersampleScale)
		if sx0 < sx1 {
			sb.blitH(sx0, sy, sx1-sx0)
		}
	}

	switch rule {
	case EvenOdd:
		for i := 0; i+1 < len(r.aet); i += 2 {
			span(r.aet[i].x, r.aet[i+1].x)
		}
	default:
		winding := 0
		var x0 float64
		for _, e := range r.aet {
			if winding == 0 {
				x0 = e.x
			}
			winding += e.dir
			if winding == 0 {
				span(x0, e.x)
			}
		}
	}
}

func finite(p path.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
