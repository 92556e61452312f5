// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package canvas

import (
	"math"

	"github.com/gogpu/sceneframe/internal/path"
)

// Path is a vector path made of subpaths of lines and Bézier curves.
type Path struct {
	elements []path.Element
	start    path.Point
	current  path.Point
}

// NewPath creates an empty path.
func NewPath() *Path {
	return &Path{elements: make([]path.Element, 0, 16)}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := path.Point{X: x, Y: y}
	p.elements = append(p.elements, path.MoveTo{Point: pt})
	p.start, p.current = pt, pt
}

// LineTo adds a line to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.ensureStarted(x, y)
	pt := path.Point{X: x, Y: y}
	p.elements = append(p.elements, path.LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo adds a quadratic curve through control point (cx, cy).
func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	p.ensureStarted(cx, cy)
	pt := path.Point{X: x, Y: y}
	p.elements = append(p.elements, path.QuadTo{Control: path.Point{X: cx, Y: cy}, Point: pt})
	p.current = pt
}

// CubicTo adds a cubic curve through control points (c1x, c1y) and (c2x, c2y).
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ensureStarted(c1x, c1y)
	pt := path.Point{X: x, Y: y}
	p.elements = append(p.elements, path.CubicTo{
		Control1: path.Point{X: c1x, Y: c1y},
		Control2: path.Point{X: c2x, Y: c2y},
		Point:    pt,
	})
	p.current = pt
}

// Close closes the current subpath.
func (p *Path) Close() {
	if len(p.elements) == 0 {
		return
	}
	p.elements = append(p.elements, path.Close{})
	p.current = p.start
}

// ensureStarted begins a subpath when a segment is added to an empty path.
func (p *Path) ensureStarted(x, y float64) {
	if len(p.elements) == 0 {
		p.MoveTo(x, y)
	}
}

// Clear removes all subpaths.
func (p *Path) Clear() {
	p.elements = p.elements[:0]
	p.start, p.current = path.Point{}, path.Point{}
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return len(p.elements) == 0
}

// Rectangle adds a closed axis-aligned rectangle.
func (p *Path) Rectangle(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// RoundedRectangle adds a closed rectangle whose corners are circular arcs
// of radius r, clamped to half the shorter side.
func (p *Path) RoundedRectangle(x, y, w, h, r float64) {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		p.Rectangle(x, y, w, h)
		return
	}
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.arc(x+w-r, y+r, r, -math.Pi/2, 0)
	p.LineTo(x+w, y+h-r)
	p.arc(x+w-r, y+h-r, r, 0, math.Pi/2)
	p.LineTo(x+r, y+h)
	p.arc(x+r, y+h-r, r, math.Pi/2, math.Pi)
	p.LineTo(x, y+r)
	p.arc(x+r, y+r, r, math.Pi, 3*math.Pi/2)
	p.Close()
}

// arc continues the subpath with a circular arc from angle a1 to a2, in at
// most quarter-turn cubic segments.
func (p *Path) arc(cx, cy, r, a1, a2 float64) {
	n := int(math.Ceil(math.Abs(a2-a1) / (math.Pi / 2)))
	step := (a2 - a1) / float64(n)
	for i := range n {
		s := a1 + float64(i)*step
		e := s + step
		k := 4.0 / 3.0 * math.Tan((e-s)/4) * r
		sinS, cosS := math.Sincos(s)
		sinE, cosE := math.Sincos(e)
		p.CubicTo(
			cx+r*cosS-k*sinS, cy+r*sinS+k*cosS,
			cx+r*cosE+k*sinE, cy+r*sinE-k*cosE,
			cx+r*cosE, cy+r*sinE,
		)
	}
}

// Append adds the subpaths of other transformed by m.
func (p *Path) Append(other *Path, m Matrix) {
	pt := func(q path.Point) path.Point {
		x, y := m.TransformPoint(q.X, q.Y)
		return path.Point{X: x, Y: y}
	}
	for _, el := range other.elements {
		switch e := el.(type) {
		case path.MoveTo:
			p.elements = append(p.elements, path.MoveTo{Point: pt(e.Point)})
			p.start = pt(e.Point)
		case path.LineTo:
			p.elements = append(p.elements, path.LineTo{Point: pt(e.Point)})
		case path.QuadTo:
			p.elements = append(p.elements, path.QuadTo{Control: pt(e.Control), Point: pt(e.Point)})
		case path.CubicTo:
			p.elements = append(p.elements, path.CubicTo{
				Control1: pt(e.Control1), Control2: pt(e.Control2), Point: pt(e.Point),
			})
		case path.Close:
			p.elements = append(p.elements, e)
		}
	}
	p.current = pt(other.current)
}

// Transform returns a copy of p transformed by m.
func (p *Path) Transform(m Matrix) *Path {
	out := NewPath()
	out.Append(p, m)
	return out
}

// edges flattens p for the rasterizer.
func (p *Path) edges() []path.Edge {
	return path.Edges(p.elements, path.Tolerance)
}
