// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package path flattens vector paths into line edges for the scanline
// rasterizer.
package path

import "math"

// Point is a 2D point in device space.
type Point struct {
	X, Y float64
}

func (p Point) lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

func (p Point) sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) length() float64 { return math.Hypot(p.X, p.Y) }

// Tolerance is the default maximum distance, in pixels, between a curve and
// its flattened polyline.
const Tolerance = 0.1

// maxDepth bounds curve subdivision. 2^16 segments per curve is far past
// any visible difference.
const maxDepth = 16

// Element is one path command.
type Element interface {
	isElement()
}

// MoveTo starts a new subpath.
type MoveTo struct{ Point Point }

// LineTo adds a straight segment.
type LineTo struct{ Point Point }

// QuadTo adds a quadratic Bézier segment.
type QuadTo struct{ Control, Point Point }

// CubicTo adds a cubic Bézier segment.
type CubicTo struct{ Control1, Control2, Point Point }

// Close closes the current subpath.
type Close struct{}

func (MoveTo) isElement()  {}
func (LineTo) isElement()  {}
func (QuadTo) isElement()  {}
func (CubicTo) isElement() {}
func (Close) isElement()   {}

// Edge is a line segment from P0 to P1.
type Edge struct {
	P0, P1 Point
}

// Edges flattens elements into line edges. Every subpath is closed back to
// its own start, so no edge ever joins two subpaths. A tolerance <= 0 uses
// Tolerance.
func Edges(elements []Element, tolerance float64) []Edge {
	if tolerance <= 0 {
		tolerance = Tolerance
	}
	b := edgeBuilder{tol: tolerance, edges: make([]Edge, 0, len(elements))}
	for _, el := range elements {
		switch e := el.(type) {
		case MoveTo:
			b.close()
			b.start, b.cur = e.Point, e.Point
		case LineTo:
			b.lineTo(e.Point)
		case QuadTo:
			flattenQuad(b.cur, e.Control, e.Point, b.tol, 0, b.lineTo)
		case CubicTo:
			flattenCubic(b.cur, e.Control1, e.Control2, e.Point, b.tol, 0, b.lineTo)
		case Close:
			b.close()
		}
	}
	b.close()
	return b.edges
}

type edgeBuilder struct {
	tol        float64
	start, cur Point
	open       bool
	edges      []Edge
}

func (b *edgeBuilder) lineTo(p Point) {
	b.open = true
	if p == b.cur {
		return
	}
	b.edges = append(b.edges, Edge{P0: b.cur, P1: p})
	b.cur = p
}

func (b *edgeBuilder) close() {
	if !b.open {
		return
	}
	b.lineTo(b.start)
	b.open = false
}

// flattenQuad subdivides a quadratic curve until its control point lies
// within tol of the chord, emitting segment end points.
func flattenQuad(p0, p1, p2 Point, tol float64, depth int, emit func(Point)) {
	if depth >= maxDepth || distanceToSegment(p1, p0, p2) < tol {
		emit(p2)
		return
	}
	q0 := p0.lerp(p1, 0.5)
	q1 := p1.lerp(p2, 0.5)
	mid := q0.lerp(q1, 0.5)
	flattenQuad(p0, q0, mid, tol, depth+1, emit)
	flattenQuad(mid, q1, p2, tol, depth+1, emit)
}

// flattenCubic is flattenQuad for cubic curves, split with de Casteljau.
func flattenCubic(p0, p1, p2, p3 Point, tol float64, depth int, emit func(Point)) {
	d := math.Max(distanceToSegment(p1, p0, p3), distanceToSegment(p2, p0, p3))
	if depth >= maxDepth || d < tol {
		emit(p3)
		return
	}
	q0 := p0.lerp(p1, 0.5)
	q1 := p1.lerp(p2, 0.5)
	q2 := p2.lerp(p3, 0.5)
	r0 := q0.lerp(q1, 0.5)
	r1 := q1.lerp(q2, 0.5)
	mid := r0.lerp(r1, 0.5)
	flattenCubic(p0, q0, r0, mid, tol, depth+1, emit)
	flattenCubic(mid, r1, q2, p3, tol, depth+1, emit)
}

func distanceToSegment(p, a, b Point) float64 {
	ab := b.sub(a)
	n := ab.X*ab.X + ab.Y*ab.Y
	if n < 1e-20 {
		return p.sub(a).length()
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / n
	switch {
	case t <= 0:
		return p.sub(a).length()
	case t >= 1:
		return p.sub(b).length()
	}
	return p.sub(a.lerp(b, t)).length()
}
