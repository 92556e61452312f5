// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/sceneframe/internal/raster"
)

// FillRule decides which regions of a self-overlapping path are filled.
type FillRule uint8

const (
	// FillRuleNonZero fills regions with a non-zero winding number.
	FillRuleNonZero FillRule = iota
	// FillRuleEvenOdd fills regions crossed an odd number of times.
	FillRuleEvenOdd
)

func (r FillRule) raster() raster.FillRule {
	if r == FillRuleEvenOdd {
		return raster.EvenOdd
	}
	return raster.NonZero
}

// Context draws into an RGBA image.
//
// Points are transformed by the current matrix when they are added to the
// path, so changing the transform does not move segments already added.
// Colors are blended with premultiplied source-over.
//
// A Context is not safe for concurrent use.
type Context struct {
	img    *image.RGBA
	r      *raster.Rasterizer
	matrix Matrix
	stack  []Matrix
	path   *Path
	color  color.RGBA
	rule   FillRule
}

// NewContextForRGBA creates a context drawing into img.
func NewContextForRGBA(img *image.RGBA) *Context {
	return &Context{
		img:    img,
		r:      raster.NewRasterizer(),
		matrix: Identity(),
		path:   NewPath(),
		color:  color.RGBA{A: 255},
	}
}

// Width returns the width of the destination image.
func (c *Context) Width() int { return c.img.Rect.Dx() }

// Height returns the height of the destination image.
func (c *Context) Height() int { return c.img.Rect.Dy() }

// Image returns the destination image.
func (c *Context) Image() *image.RGBA { return c.img }

// SetColor sets the fill color.
func (c *Context) SetColor(col color.Color) {
	c.color = color.RGBAModel.Convert(col).(color.RGBA)
}

// SetFillRule sets the rule used by Fill.
func (c *Context) SetFillRule(rule FillRule) {
	c.rule = rule
}

// MoveTo starts a new subpath at (x, y).
func (c *Context) MoveTo(x, y float64) {
	c.path.MoveTo(c.matrix.TransformPoint(x, y))
}

// LineTo adds a line to (x, y).
func (c *Context) LineTo(x, y float64) {
	c.path.LineTo(c.matrix.TransformPoint(x, y))
}

// QuadraticTo adds a quadratic curve.
func (c *Context) QuadraticTo(cx, cy, x, y float64) {
	tcx, tcy := c.matrix.TransformPoint(cx, cy)
	tx, ty := c.matrix.TransformPoint(x, y)
	c.path.QuadraticTo(tcx, tcy, tx, ty)
}

// CubicTo adds a cubic curve.
func (c *Context) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	t1x, t1y := c.matrix.TransformPoint(c1x, c1y)
	t2x, t2y := c.matrix.TransformPoint(c2x, c2y)
	tx, ty := c.matrix.TransformPoint(x, y)
	c.path.CubicTo(t1x, t1y, t2x, t2y, tx, ty)
}

// ClosePath closes the current subpath.
func (c *Context) ClosePath() {
	c.path.Close()
}

// ClearPath discards the current path.
func (c *Context) ClearPath() {
	c.path.Clear()
}

// AppendPath adds the subpaths of p under the current transform.
func (c *Context) AppendPath(p *Path) {
	c.path.Append(p, c.matrix)
}

// DrawRectangle adds a rectangle to the path.
func (c *Context) DrawRectangle(x, y, w, h float64) {
	c.MoveTo(x, y)
	c.LineTo(x+w, y)
	c.LineTo(x+w, y+h)
	c.LineTo(x, y+h)
	c.ClosePath()
}

// DrawRoundedRectangle adds a rectangle with corners of radius r.
func (c *Context) DrawRoundedRectangle(x, y, w, h, r float64) {
	p := NewPath()
	p.RoundedRectangle(x, y, w, h, r)
	c.AppendPath(p)
}

// Fill fills the current path with the current color and clears it.
func (c *Context) Fill() {
	c.FillPreserve()
	c.path.Clear()
}

// FillPreserve fills the current path without clearing it.
func (c *Context) FillPreserve() {
	if c.path.IsEmpty() || c.color.A == 0 {
		return
	}
	c.r.Fill(pixmap{c.img}, c.path.edges(), c.rule.raster(), c.color)
}

// Push saves the current transform.
func (c *Context) Push() {
	c.stack = append(c.stack, c.matrix)
}

// Pop restores the transform saved by the matching Push.
func (c *Context) Pop() {
	if len(c.stack) == 0 {
		return
	}
	c.matrix = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Identity resets the transform.
func (c *Context) Identity() { c.matrix = Identity() }

// Translate moves the origin by (x, y) in the current space.
func (c *Context) Translate(x, y float64) { c.Transform(Translate(x, y)) }

// Scale scales the current space.
func (c *Context) Scale(x, y float64) { c.Transform(Scale(x, y)) }

// Rotate rotates the current space by angle radians.
func (c *Context) Rotate(angle float64) { c.Transform(Rotate(angle)) }

// Transform applies m before the current transform.
func (c *Context) Transform(m Matrix) { c.matrix = c.matrix.Multiply(m) }

// SetTransform replaces the current transform.
func (c *Context) SetTransform(m Matrix) { c.matrix = m }

// GetTransform returns the current transform.
func (c *Context) GetTransform() Matrix { return c.matrix }

// DrawText fills the glyphs of line with the pen starting at (x, baseline)
// in the current space. The current path is discarded.
func (c *Context) DrawText(line *Line, x, baseline float64) {
	c.path.Clear()
	c.AppendPath(line.Path(x, baseline))
	rule := c.rule
	c.rule = FillRuleNonZero
	c.Fill()
	c.rule = rule
}

// DrawImage draws img scaled into the box (0, 0)-(w, h) of the current space
// with bilinear filtering, faded by opacity.
func (c *Context) DrawImage(img image.Image, w, h, opacity float64) {
	sr := img.Bounds()
	if sr.Empty() || w <= 0 || h <= 0 || opacity <= 0 {
		return
	}
	fit := Scale(w/float64(sr.Dx()), h/float64(sr.Dy())).
		Multiply(Translate(-float64(sr.Min.X), -float64(sr.Min.Y)))

	var opts *draw.Options
	if opacity < 1 {
		a := uint16(math.Round(opacity * 0xffff)) //nolint:gosec // opacity < 1
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: a})}
	}
	draw.BiLinear.Transform(c.img, c.matrix.Multiply(fit).Aff3(), img, sr, draw.Over, opts)
}
