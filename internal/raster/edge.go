// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "github.com/gogpu/sceneframe/internal/path"

// edge is a non-horizontal line segment with y0 < y1.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dir    int // +1 when the source segment points down, -1 when up
}

func newEdge(p0, p1 path.Point) edge {
	dir := 1
	if p0.Y > p1.Y {
		dir = -1
		p0, p1 = p1, p0
	}
	return edge{x0: p0.X, y0: p0.Y, x1: p1.X, y1: p1.Y, dir: dir}
}

func (e *edge) xAt(y float64) float64 {
	return e.x0 + (e.x1-e.x0)*(y-e.y0)/(e.y1-e.y0)
}

type activeEdge struct {
	x   float64
	dir int
}

// activeEdges holds the edges crossing the current scanline.
type activeEdges []activeEdge

func (a *activeEdges) add(e *edge, y float64) {
	*a = append(*a, activeEdge{x: e.xAt(y), dir: e.dir})
}

// sort orders edges by x. Insertion sort: lists are short and nearly
// sorted from one scanline to the next.
func (a activeEdges) sort() {
	for i := 1; i < len(a); i++ {
		key := a[i]
		j := i - 1
		for j >= 0 && a[j].x > key.x {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = key
	}
}

func (a *activeEdges) clear() {
	*a = (*a)[:0]
}
